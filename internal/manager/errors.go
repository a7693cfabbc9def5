package manager

import (
	"errors"
	"fmt"
	"net/http"

	"vidgend/internal/queue"
)

// validationError carries the sanitized, joined rule violations.
type validationError struct{ msg string }

func (e validationError) Error() string   { return e.msg }
func (e validationError) StatusCode() int { return http.StatusBadRequest }

// IsValidation reports whether err is a rejected request (return 400).
func IsValidation(err error) bool {
	var v validationError
	return errors.As(err, &v)
}

// queueFullError signals admission backpressure (return 429).
type queueFullError struct{ err error }

func (e queueFullError) Error() string   { return "Maximum queue size reached. Please try again later." }
func (e queueFullError) Unwrap() error   { return e.err }
func (e queueFullError) StatusCode() int { return http.StatusTooManyRequests }

// IsQueueFull reports whether err indicates the queue is at capacity.
func IsQueueFull(err error) bool {
	var q queueFullError
	return errors.As(err, &q) || queue.IsFull(err)
}

type jobNotFoundError struct{ id string }

func (e jobNotFoundError) Error() string   { return "job not found: " + e.id }
func (e jobNotFoundError) StatusCode() int { return http.StatusNotFound }

// ErrJobNotFound returns an error for an unknown or expired job id.
func ErrJobNotFound(id string) error { return jobNotFoundError{id: id} }

// IsJobNotFound reports whether the error indicates a missing job id.
func IsJobNotFound(err error) bool {
	var j jobNotFoundError
	return errors.As(err, &j)
}

// panicError turns a recovered engine panic into an error with the stack as detail.
type panicError struct {
	value any
	stack string
}

func (e panicError) Error() string  { return fmt.Sprintf("panic: %v", e.value) }
func (e panicError) Detail() string { return e.stack }
