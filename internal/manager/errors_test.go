package manager

import (
	"fmt"
	"net/http"
	"testing"
)

func TestErrorHelpers(t *testing.T) {
	if !IsValidation(fmt.Errorf("wrap: %w", validationError{msg: "bad"})) {
		t.Fatalf("IsValidation should see through wrapping")
	}
	if !IsJobNotFound(ErrJobNotFound("x")) || IsJobNotFound(validationError{}) {
		t.Fatalf("IsJobNotFound mismatch")
	}
	if !IsQueueFull(queueFullError{}) || IsQueueFull(ErrJobNotFound("x")) {
		t.Fatalf("IsQueueFull mismatch")
	}
	cases := map[int]interface{ StatusCode() int }{
		http.StatusBadRequest:      validationError{},
		http.StatusTooManyRequests: queueFullError{},
		http.StatusNotFound:        jobNotFoundError{},
	}
	for want, e := range cases {
		if got := e.StatusCode(); got != want {
			t.Fatalf("%T: got %d want %d", e, got, want)
		}
	}
}

func TestPanicErrorCarriesStack(t *testing.T) {
	e := panicError{value: "boom", stack: "goroutine 1 [running]"}
	if e.Error() != "panic: boom" || e.Detail() != "goroutine 1 [running]" {
		t.Fatalf("unexpected %q / %q", e.Error(), e.Detail())
	}
}
