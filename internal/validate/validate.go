// Package validate checks and sanitises generation parameters before a job is
// admitted. It has no dependencies on the rest of the daemon.
package validate

import (
	"fmt"
	"html"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Defaults applied when the corresponding Limits fields are unset.
const (
	DefaultMaxPromptLength = 1000
	DefaultMaxDuration     = 60.0
	DefaultMaxSceneCount   = 10
	DefaultMaxFPS          = 60
)

// Limits bounds the accepted parameter ranges.
type Limits struct {
	MaxPromptLength int
	MaxDuration     float64
	MaxSceneCount   int
	MaxFPS          int
}

// Result is the outcome of a validation pass. Error is empty iff Valid.
type Result struct {
	Valid bool
	Error string
}

// Validator applies Limits. The zero value uses package defaults.
type Validator struct {
	limits Limits
}

// New returns a Validator, substituting defaults for non-positive limits.
func New(l Limits) Validator {
	if l.MaxPromptLength <= 0 {
		l.MaxPromptLength = DefaultMaxPromptLength
	}
	if l.MaxDuration <= 0 {
		l.MaxDuration = DefaultMaxDuration
	}
	if l.MaxSceneCount <= 0 {
		l.MaxSceneCount = DefaultMaxSceneCount
	}
	if l.MaxFPS <= 0 {
		l.MaxFPS = DefaultMaxFPS
	}
	return Validator{limits: l}
}

// Limits returns the effective limits.
func (v Validator) Limits() Limits {
	if v.limits == (Limits{}) {
		return New(Limits{}).limits
	}
	return v.limits
}

// Validate checks every rule and joins all violations with "; ".
func (v Validator) Validate(prompt string, duration float64, sceneCount int, resolution string) Result {
	return v.result(v.collect(prompt, duration, sceneCount, resolution))
}

// Check is Validate plus the frame-rate rule.
func (v Validator) Check(prompt string, duration float64, fps, sceneCount int, resolution string) Result {
	errs := v.collect(prompt, duration, sceneCount, resolution)
	l := v.Limits()
	if fps < 1 {
		errs = append(errs, "FPS must be at least 1")
	} else if fps > l.MaxFPS {
		errs = append(errs, fmt.Sprintf("FPS exceeds maximum (%d)", l.MaxFPS))
	}
	return v.result(errs)
}

func (v Validator) collect(prompt string, duration float64, sceneCount int, resolution string) []string {
	l := v.Limits()
	var errs []string

	if strings.TrimSpace(prompt) == "" {
		errs = append(errs, "Prompt cannot be empty")
	} else if utf8.RuneCountInString(prompt) > l.MaxPromptLength {
		errs = append(errs, fmt.Sprintf("Prompt too long (max %d characters)", l.MaxPromptLength))
	}

	// NaN fails the first comparison.
	if !(duration > 0) {
		errs = append(errs, "Duration must be positive")
	} else if duration > l.MaxDuration {
		errs = append(errs, fmt.Sprintf("Duration exceeds maximum (%gs)", l.MaxDuration))
	}

	if sceneCount < 1 {
		errs = append(errs, "Scene count must be at least 1")
	} else if sceneCount > l.MaxSceneCount {
		errs = append(errs, fmt.Sprintf("Scene count exceeds maximum (%d)", l.MaxSceneCount))
	}

	if w, h, err := ParseResolution(resolution); err != nil {
		errs = append(errs, "Invalid resolution format (expected WxH)")
	} else if w <= 0 || h <= 0 {
		errs = append(errs, "Invalid resolution")
	}
	return errs
}

func (v Validator) result(errs []string) Result {
	if len(errs) == 0 {
		return Result{Valid: true}
	}
	return Result{Valid: false, Error: strings.Join(errs, "; ")}
}

// ParseResolution splits "<width>x<height>" into integers. Range checks are
// left to the caller so malformed input and non-positive sizes stay distinct.
func ParseResolution(s string) (int, int, error) {
	parts := strings.Split(s, "x")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("resolution %q: expected WxH", s)
	}
	w, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("resolution width: %w", err)
	}
	h, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, fmt.Errorf("resolution height: %w", err)
	}
	return w, h, nil
}

// Sanitize prepares text for echoing on a display surface: NFC-normalised,
// markup characters escaped, whitespace runs collapsed to single spaces.
func Sanitize(text string) string {
	escaped := html.EscapeString(norm.NFC.String(text))
	return strings.Join(strings.Fields(escaped), " ")
}
