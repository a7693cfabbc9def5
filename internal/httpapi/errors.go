package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"vidgend/internal/errclass"
	"vidgend/internal/manager"
	"vidgend/pkg/types"
)

// HTTPError allows services to provide an HTTP status code for an error.
type HTTPError interface {
	error
	StatusCode() int
}

// writeJSONError writes a consistent JSON error payload.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeErrorResponse(w, types.ErrorResponse{Error: msg, Code: status})
}

func writeErrorResponse(w http.ResponseWriter, resp types.ErrorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.Code)
	_ = json.NewEncoder(w).Encode(resp)
}

// errorResponse maps service errors to a payload. Classified failures carry
// their title and retry hint; rejections get the matching kind's title.
func errorResponse(err error) types.ErrorResponse {
	resp := types.ErrorResponse{Error: err.Error(), Code: http.StatusInternalServerError}
	var cl *errclass.Classified
	var he HTTPError
	switch {
	case errors.As(err, &cl):
		resp.Code = cl.StatusCode()
		resp.Error = cl.UserMessage()
		resp.Title = cl.Title
		resp.Retryable = cl.Retryable
	case manager.IsValidation(err):
		resp.Code = http.StatusBadRequest
		resp.Title, resp.Retryable = errclass.Describe(errclass.KindValidation)
	case manager.IsQueueFull(err):
		resp.Code = http.StatusTooManyRequests
		resp.Title, resp.Retryable = errclass.Describe(errclass.KindQueueFull)
	case manager.IsJobNotFound(err):
		resp.Code = http.StatusNotFound
	case errors.As(err, &he):
		resp.Code = he.StatusCode()
	}
	return resp
}
