package validate

import (
	"math"
	"strings"
	"testing"
)

func TestValidate_Accepts(t *testing.T) {
	v := New(Limits{})
	r := v.Validate("ocean sunset", 5, 1, "512x512")
	if !r.Valid || r.Error != "" {
		t.Fatalf("expected valid, got %+v", r)
	}
}

func TestValidate_ZeroValueUsesDefaults(t *testing.T) {
	var v Validator
	if got := v.Limits().MaxPromptLength; got != DefaultMaxPromptLength {
		t.Fatalf("max prompt length=%d", got)
	}
	if r := v.Validate(strings.Repeat("a", DefaultMaxPromptLength), 60, 10, "1x1"); !r.Valid {
		t.Fatalf("expected boundary values to pass: %+v", r)
	}
}

func TestValidate_PromptRules(t *testing.T) {
	v := New(Limits{MaxPromptLength: 10})
	cases := []struct {
		prompt string
		want   string
	}{
		{"", "Prompt cannot be empty"},
		{"   \t\n", "Prompt cannot be empty"},
		{strings.Repeat("x", 11), "Prompt too long (max 10 characters)"},
		// multi-byte runes count once each
		{strings.Repeat("\u00e9", 10), ""},
	}
	for _, c := range cases {
		r := v.Validate(c.prompt, 1, 1, "64x64")
		if c.want == "" {
			if !r.Valid {
				t.Fatalf("prompt %q: unexpected error %q", c.prompt, r.Error)
			}
			continue
		}
		if r.Valid || !strings.Contains(r.Error, c.want) {
			t.Fatalf("prompt %q: expected %q in %+v", c.prompt, c.want, r)
		}
	}
}

func TestValidate_DurationRules(t *testing.T) {
	v := New(Limits{})
	for _, d := range []float64{0, -1, -0.001, math.NaN()} {
		r := v.Validate("p", d, 1, "64x64")
		if r.Valid || !strings.Contains(r.Error, "Duration must be positive") {
			t.Fatalf("duration %v: got %+v", d, r)
		}
	}
	for _, d := range []float64{60.5, 65, math.Inf(1)} {
		r := v.Validate("p", d, 1, "64x64")
		if r.Valid || !strings.Contains(r.Error, "Duration exceeds maximum (60s)") {
			t.Fatalf("duration %v: got %+v", d, r)
		}
	}
}

func TestValidate_SceneCountRules(t *testing.T) {
	v := New(Limits{})
	if r := v.Validate("p", 1, 0, "64x64"); r.Valid || !strings.Contains(r.Error, "at least 1") {
		t.Fatalf("scene 0: %+v", r)
	}
	if r := v.Validate("p", 1, 11, "64x64"); r.Valid || !strings.Contains(r.Error, "exceeds maximum (10)") {
		t.Fatalf("scene 11: %+v", r)
	}
}

func TestValidate_ResolutionFormatVsRange(t *testing.T) {
	v := New(Limits{})
	for _, res := range []string{"bad", "512", "512x", "x512", "512x512x3", "axb", ""} {
		r := v.Validate("p", 1, 1, res)
		if r.Valid || r.Error != "Invalid resolution format (expected WxH)" {
			t.Fatalf("resolution %q: got %+v", res, r)
		}
	}
	for _, res := range []string{"0x512", "512x0", "-5x5"} {
		r := v.Validate("p", 1, 1, res)
		if r.Valid || r.Error != "Invalid resolution" {
			t.Fatalf("resolution %q: got %+v", res, r)
		}
	}
}

func TestValidate_JoinsAllViolations(t *testing.T) {
	v := New(Limits{})
	r := v.Validate("", 65, 1, "bad")
	if r.Valid {
		t.Fatalf("expected invalid")
	}
	parts := strings.Split(r.Error, "; ")
	if len(parts) != 3 {
		t.Fatalf("expected 3 complaints, got %d: %q", len(parts), r.Error)
	}
	for _, want := range []string{"Prompt cannot be empty", "Duration exceeds maximum", "Invalid resolution format"} {
		if !strings.Contains(r.Error, want) {
			t.Fatalf("missing %q in %q", want, r.Error)
		}
	}
}

func TestCheck_FPS(t *testing.T) {
	v := New(Limits{MaxFPS: 30})
	if r := v.Check("p", 1, 24, 1, "64x64"); !r.Valid {
		t.Fatalf("fps 24: %+v", r)
	}
	if r := v.Check("p", 1, 0, 1, "64x64"); r.Valid || !strings.Contains(r.Error, "FPS must be at least 1") {
		t.Fatalf("fps 0: %+v", r)
	}
	r := v.Check("", 1, 31, 1, "64x64")
	if r.Valid || !strings.Contains(r.Error, "FPS exceeds maximum (30)") || !strings.Contains(r.Error, "Prompt cannot be empty") {
		t.Fatalf("fps 31 + empty prompt: %+v", r)
	}
}

func TestParseResolution(t *testing.T) {
	w, h, err := ParseResolution(" 768 x 432 ")
	if err != nil || w != 768 || h != 432 {
		t.Fatalf("got %d %d %v", w, h, err)
	}
}

func TestSanitize(t *testing.T) {
	got := Sanitize("  <script>alert('x')</script>\n\n a  &  b ")
	if strings.Contains(got, "<") || strings.Contains(got, ">") {
		t.Fatalf("markup not escaped: %q", got)
	}
	if !strings.HasPrefix(got, "&lt;script&gt;") {
		t.Fatalf("unexpected prefix: %q", got)
	}
	if !strings.HasSuffix(got, "a &amp; b") {
		t.Fatalf("whitespace not collapsed: %q", got)
	}
	if strings.Contains(got, "  ") {
		t.Fatalf("double space survived: %q", got)
	}
}

func TestSanitize_NormalizesComposedForms(t *testing.T) {
	decomposed := "cafe\u0301"
	precomposed := "caf\u00e9"
	if Sanitize(decomposed) != Sanitize(precomposed) {
		t.Fatalf("expected NFC-equal output: %q vs %q", Sanitize(decomposed), Sanitize(precomposed))
	}
}
