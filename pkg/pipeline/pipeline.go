// Package pipeline provides the core render pipeline for montage.
//
// This package implements the complete parse → compose → encode pipeline
// shared by the CLI and the HTTP service. Centralizing it keeps behavior
// consistent across entry points:
//
//  1. Parse: validate and load the template package into a Layout
//  2. Compose: execute the layout against the ordered input photos
//  3. Encode: serialize the composite in the requested format
//
// Encoded artifacts are cached keyed by a content hash of the template
// document, the photo bytes and the render settings, so re-rendering an
// unchanged booth session is a cache lookup.
package pipeline

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/pixelbooth/montage/pkg/compose/sink"
)

// Format constants for output formats.
const (
	FormatPNG  = sink.FormatPNG
	FormatJPEG = sink.FormatJPEG
)

// DefaultFormat is the output format used when none is requested.
const DefaultFormat = FormatPNG

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !sink.ValidFormats[format] {
		return fmt.Errorf("invalid format: %q (must be one of: png, jpeg)", format)
	}
	return nil
}

// Options contains all configuration for one pipeline run.
type Options struct {
	// Parse options
	TemplateDir string `json:"template_dir"`
	SchemaPath  string `json:"schema_path,omitempty"`

	// Compose options
	Photos []string `json:"photos"` // photo file paths, placement order

	// Encode options
	Format string `json:"format,omitempty"`

	// Refresh bypasses the artifact cache and overwrites the cached entry.
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// ValidateAndSetDefaults checks required fields and applies defaults.
// This method is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.TemplateDir == "" {
		return fmt.Errorf("template_dir is required")
	}
	if o.Format == "" {
		o.Format = DefaultFormat
	}
	if err := ValidateFormat(o.Format); err != nil {
		return err
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}
