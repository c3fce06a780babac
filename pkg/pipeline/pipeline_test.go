package pipeline

import (
	"strings"
	"testing"
)

func TestValidateFormat(t *testing.T) {
	for _, format := range []string{FormatPNG, FormatJPEG} {
		if err := ValidateFormat(format); err != nil {
			t.Errorf("ValidateFormat(%q): %v", format, err)
		}
	}
	for _, format := range []string{"", "webp", "PNG", "jpg"} {
		if err := ValidateFormat(format); err == nil {
			t.Errorf("ValidateFormat(%q) should fail", format)
		}
	}
}

func TestOptionsValidateAndSetDefaults(t *testing.T) {
	// TemplateDir is required.
	var missing Options
	if err := missing.ValidateAndSetDefaults(); err == nil {
		t.Error("empty options should fail validation")
	}

	// Defaults are applied.
	opts := Options{TemplateDir: "some/dir"}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults: %v", err)
	}
	if opts.Format != DefaultFormat {
		t.Errorf("Format = %q, want default %q", opts.Format, DefaultFormat)
	}
	if opts.Logger == nil {
		t.Error("Logger should default to a discard logger")
	}

	// Idempotent.
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Errorf("second call should be a no-op: %v", err)
	}

	// Invalid format is rejected.
	bad := Options{TemplateDir: "some/dir", Format: "bmp"}
	err := bad.ValidateAndSetDefaults()
	if err == nil || !strings.Contains(err.Error(), "invalid format") {
		t.Errorf("err = %v, want invalid format", err)
	}
}
