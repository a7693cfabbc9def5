package main

// General API documentation for swaggo. Run `swag init -g cmd/vidgend/docs.go` to regenerate docs/.
//
// @title           vidgend API
// @version         1.0
// @description     HTTP API for queued text-to-video generation.
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
