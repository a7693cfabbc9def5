// Package errclass maps pipeline failures onto a fixed taxonomy, renders
// user-facing and operator-facing messages, and keeps an append-only log of
// every classification made during the process lifetime.
package errclass

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Kind is one entry of the failure taxonomy.
type Kind string

const (
	KindValidation         Kind = "validation_error"
	KindQueueFull          Kind = "queue_full"
	KindResourceExhaustion Kind = "resource_exhaustion"
	KindTransient          Kind = "transient_runtime_error"
	KindTimeout            Kind = "timeout"
	KindUnclassified       Kind = "unclassified_error"
)

// Category is the failure category a caller supplies alongside a context tag.
type Category int

const (
	CategoryUnknown Category = iota
	CategoryResourceExhausted
	CategoryRuntime
	CategoryTimeout
)

func (c Category) String() string {
	switch c {
	case CategoryResourceExhausted:
		return "resource_exhausted"
	case CategoryRuntime:
		return "runtime"
	case CategoryTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Sentinels that engines and loaders wrap to declare a category.
var (
	ErrResourceExhausted = errors.New("resource exhausted")
	ErrRuntime           = errors.New("runtime failure")
	ErrTimeout           = errors.New("timed out")
)

// transient is implemented by errors that are retryable runtime failures
// without wrapping ErrRuntime (e.g. loader aggregates).
type transient interface {
	Transient() bool
}

// detailer lets an error carry technical detail (stack text) separately
// from its message.
type detailer interface {
	Detail() string
}

// CategoryOf derives the category from the error chain. Message text is never inspected.
func CategoryOf(err error) Category {
	if err == nil {
		return CategoryUnknown
	}
	if errors.Is(err, ErrResourceExhausted) {
		return CategoryResourceExhausted
	}
	if errors.Is(err, ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return CategoryTimeout
	}
	if errors.Is(err, ErrRuntime) {
		return CategoryRuntime
	}
	var t transient
	if errors.As(err, &t) && t.Transient() {
		return CategoryRuntime
	}
	return CategoryUnknown
}

// policy is the per-kind rendering and recovery policy.
type policy struct {
	title     string
	message   string
	retryable bool
	// technical details are shown to users for these kinds; unclassified
	// failures only show them in debug mode.
	technical bool
	status    int
}

var policies = map[Kind]policy{
	KindValidation: {
		title:  "Validation Error",
		status: http.StatusBadRequest,
	},
	KindQueueFull: {
		title:     "Queue Full",
		message:   "Maximum queue size reached. Please try again later.",
		retryable: true,
		status:    http.StatusTooManyRequests,
	},
	KindResourceExhaustion: {
		title:     "Out of Memory",
		message:   "Video generation requires more GPU memory. Try reducing resolution or duration.",
		retryable: true,
		technical: true,
		status:    http.StatusServiceUnavailable,
	},
	KindTransient: {
		title:     "Generation Error",
		message:   "An error occurred during video generation. You can retry.",
		retryable: true,
		technical: true,
		status:    http.StatusServiceUnavailable,
	},
	KindTimeout: {
		title:     "Timeout",
		message:   "Video generation timed out. The job has been cancelled.",
		retryable: true,
		technical: true,
		status:    http.StatusGatewayTimeout,
	},
	KindUnclassified: {
		title:   "Unexpected Error",
		message: "An unexpected error occurred. Please check the logs.",
		status:  http.StatusInternalServerError,
	},
}

// PartialMessage replaces the resource-exhaustion message when a partial
// artifact was recovered.
const PartialMessage = "Video generation ran out of GPU memory. A partial video was saved."

// Classified is a failure after classification. It is an error itself so it
// can travel through ordinary error returns.
type Classified struct {
	Kind      Kind
	Context   string
	Title     string
	Message   string
	Detail    string
	Retryable bool
	Err       error

	technical bool
	status    int
}

func (c *Classified) Error() string {
	if c == nil {
		return ""
	}
	if c.Err == nil {
		return fmt.Sprintf("%s: %s", c.Context, c.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", c.Context, c.Kind, c.Err)
}

func (c *Classified) Unwrap() error {
	if c == nil {
		return nil
	}
	return c.Err
}

// StatusCode maps the kind to an HTTP status.
func (c *Classified) StatusCode() int {
	if c == nil || c.status == 0 {
		return http.StatusInternalServerError
	}
	return c.status
}

// UserMessage renders title and explanation without internals.
func (c *Classified) UserMessage() string {
	return Format(c.Title, c.Message)
}

// OperatorMessage adds the technical details block when there is one.
func (c *Classified) OperatorMessage() string {
	if c.Detail == "" {
		return c.UserMessage()
	}
	return fmt.Sprintf("%s\n\nTechnical Details:\n%s", c.UserMessage(), c.Detail)
}

// Render picks the operator rendering when the kind always shows technical
// details or debug is on, otherwise the user rendering.
func (c *Classified) Render(debug bool) string {
	if c.technical || debug {
		return c.OperatorMessage()
	}
	return c.UserMessage()
}

// MarkPartial switches a resource-exhaustion failure to the partial-artifact
// wording. A recovered artifact is delivered, so the failure is no longer retryable.
func (c *Classified) MarkPartial() {
	if c == nil || c.Kind != KindResourceExhaustion {
		return
	}
	c.Message = PartialMessage
	c.Retryable = false
}

// Format renders a title and message the same way classifications are rendered.
func Format(title, message string) string {
	if message == "" {
		return title
	}
	return title + "\n\n" + message
}

// Rejection renders a normal control-flow rejection (validation, queue full)
// that never passes through a Classifier.
func Rejection(kind Kind, message string) string {
	p, ok := policies[kind]
	if !ok {
		p = policies[KindUnclassified]
	}
	if message == "" {
		message = p.message
	}
	return Format(p.title, message)
}

// Describe returns the title and retry hint used for kind.
func Describe(kind Kind) (title string, retryable bool) {
	p, ok := policies[kind]
	if !ok {
		p = policies[KindUnclassified]
	}
	return p.title, p.retryable
}
