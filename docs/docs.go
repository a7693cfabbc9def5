// Package docs holds the OpenAPI description served under /swagger when the
// binary is built with -tags=swagger. Regenerate with `swag init -g cmd/vidgend/docs.go`.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/jobs": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "summary": "Submit a generation job",
                "parameters": [
                    {"type": "string", "description": "1 blocks until the job finishes", "name": "wait", "in": "query"},
                    {"description": "Generation request", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/types.GenerateRequest"}}
                ],
                "responses": {
                    "200": {"description": "Finished job (wait=1)", "schema": {"$ref": "#/definitions/types.JobView"}},
                    "202": {"description": "Admitted", "schema": {"$ref": "#/definitions/types.SubmitResponse"}},
                    "400": {"description": "Validation failed", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "415": {"description": "Not JSON", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "429": {"description": "Queue full", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/jobs/{id}": {
            "get": {
                "produces": ["application/json"],
                "summary": "Job view",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.JobView"}},
                    "404": {"description": "Unknown job", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/jobs/{id}/cancel": {
            "post": {
                "produces": ["application/json"],
                "summary": "Request cooperative cancellation",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.CancelResponse"}},
                    "404": {"description": "Unknown or finished job", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/status": {
            "get": {
                "produces": ["application/json"],
                "summary": "Queue and loader status",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.StatusResponse"}}}
            }
        },
        "/errors": {
            "get": {
                "produces": ["application/json"],
                "summary": "Classified error log",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.ErrorsResponse"}}}
            }
        },
        "/artifacts": {
            "get": {
                "produces": ["application/json"],
                "summary": "Delivered videos, newest first",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.ArtifactsResponse"}}}
            }
        }
    },
    "definitions": {
        "types.GenerateRequest": {
            "type": "object",
            "properties": {
                "prompt": {"type": "string", "example": "ocean sunset"},
                "duration": {"type": "number", "example": 5},
                "fps": {"type": "integer", "example": 24},
                "resolution": {"type": "string", "example": "512x512"},
                "scene_count": {"type": "integer", "example": 1},
                "music_path": {"type": "string"}
            }
        },
        "types.SubmitResponse": {
            "type": "object",
            "properties": {"id": {"type": "string"}, "state": {"type": "string", "example": "queued"}}
        },
        "types.CancelResponse": {
            "type": "object",
            "properties": {"id": {"type": "string"}, "cancelled": {"type": "boolean"}}
        },
        "types.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "code": {"type": "integer", "example": 400},
                "title": {"type": "string", "example": "Out of Memory"},
                "retryable": {"type": "boolean"}
            }
        },
        "types.JobView": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "state": {"type": "string", "example": "succeeded"},
                "progress": {"type": "number"},
                "message": {"type": "string"},
                "tier": {"type": "string", "example": "primary"},
                "artifact": {"type": "string"},
                "warning": {"type": "string"},
                "error": {"type": "string"},
                "error_kind": {"type": "string"},
                "retryable": {"type": "boolean"}
            }
        },
        "types.StatusResponse": {
            "type": "object",
            "properties": {
                "pending": {"type": "integer"},
                "active": {"type": "integer"},
                "capacity": {"type": "integer", "example": 50},
                "workers": {"type": "integer"},
                "current_tier": {"type": "string"},
                "state": {"type": "string", "example": "ready"}
            }
        },
        "types.Artifact": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "path": {"type": "string"},
                "mod_time": {"type": "string"},
                "size": {"type": "integer"}
            }
        },
        "types.ArtifactsResponse": {
            "type": "object",
            "properties": {"artifacts": {"type": "array", "items": {"$ref": "#/definitions/types.Artifact"}}}
        },
        "types.ErrorRecord": {
            "type": "object",
            "properties": {
                "time": {"type": "string"},
                "context": {"type": "string", "example": "video_generation"},
                "kind": {"type": "string"},
                "message": {"type": "string"},
                "detail": {"type": "string"}
            }
        },
        "types.ErrorsResponse": {
            "type": "object",
            "properties": {"errors": {"type": "array", "items": {"$ref": "#/definitions/types.ErrorRecord"}}}
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "vidgend API",
	Description:      "HTTP API for queued text-to-video generation.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
