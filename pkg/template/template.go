// Package template parses photo template packages.
//
// A template package is a directory containing a template.xml document plus
// any art it references (background, foreground overlay, preview image).
// The document declares a canvas and an ordered list of placement slots,
// one per captured photo. Parsing validates the document against the shared
// PhotoTemplate.xsd schema before any field is read, and produces an
// immutable [Layout] on success.
//
// All failure modes - missing document, missing or unreadable schema,
// schema violations, malformed XML - surface as a single error kind,
// [*Error], so callers that scan many template directories can recover at
// the granularity of "this directory failed" without distinguishing causes.
package template

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/beevik/etree"
)

const (
	// DocumentFilename is the document every template package must contain.
	DocumentFilename = "template.xml"

	// SchemaFilename is the default name of the shared schema document.
	SchemaFilename = "PhotoTemplate.xsd"

	// Namespace is the fixed namespace template documents must declare.
	Namespace = "https://pixelbooth.dev/schema/montage/PhotoTemplate"
)

// Error is the uniform error kind reported by template parsing. It carries
// the template directory, the stage that failed and the underlying cause.
// Callers distinguish failure kinds by message and wrapped cause only.
type Error struct {
	Dir   string // template directory being parsed
	Stage string // "read", "schema", "validate" or "parse"
	Err   error  // underlying cause, may be nil
	Msg   string
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("template %s: %s: %s", e.Dir, e.Stage, e.Msg)
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Err
}

// failf builds an *Error for the given stage.
func failf(dir, stage string, cause error, format string, args ...any) error {
	return &Error{Dir: dir, Stage: stage, Err: cause, Msg: fmt.Sprintf(format, args...)}
}

// Placement is one rectangular slot into which exactly one captured photo is
// composited. X and Y locate the top-left corner of the bounding box after
// rotation is applied; Width and Height bound the photo before rotation.
// Rotation is in degrees, counter-clockwise.
type Placement struct {
	X        int
	Y        int
	Width    int
	Height   int
	Rotation int
}

// Layout is the validated, in-memory description of one composite design.
// It is constructed once by [Parse] and never mutated afterward; build a new
// Layout for any change. Image paths are resolved relative to Dir.
type Layout struct {
	Name        string
	Description string // optional, empty when absent
	Author      string // optional, empty when absent

	Dir              string // template package directory
	PreviewImagePath string // optional, empty when absent

	CanvasWidth  int
	CanvasHeight int

	// BackgroundColor is the raw hex color attribute ("#rrggbb" or "rrggbb"),
	// empty when absent. Parsing to RGB happens at composite time; an absent
	// color means a fully transparent canvas.
	BackgroundColor string

	BackgroundImagePath string // optional, empty when absent
	ForegroundImagePath string // optional, empty when absent

	// Placements in document order. Order is significant: it is both the
	// draw order and the expected order of input photos.
	Placements []Placement
}

// Options configures template parsing.
type Options struct {
	// SchemaPath locates the shared PhotoTemplate.xsd document.
	// Defaults to SchemaFilename in the working directory.
	SchemaPath string

	// Filename is the template document name inside the package directory.
	// Defaults to DocumentFilename.
	Filename string
}

func (o *Options) setDefaults() {
	if o.SchemaPath == "" {
		o.SchemaPath = SchemaFilename
	}
	if o.Filename == "" {
		o.Filename = DocumentFilename
	}
}

// Parse locates the template document in dir, validates it against the
// schema and returns the populated Layout. Construction is atomic: on any
// I/O, validation or structural failure it returns (nil, *Error) and no
// partially populated Layout is ever exposed.
func Parse(dir string, opts Options) (*Layout, error) {
	opts.setDefaults()

	docPath := filepath.Join(dir, opts.Filename)
	doc := etree.NewDocument()
	if err := doc.ReadFromFile(docPath); err != nil {
		return nil, failf(dir, "read", err, "reading %s", opts.Filename)
	}

	schema, err := LoadSchema(opts.SchemaPath)
	if err != nil {
		return nil, failf(dir, "schema", err, "loading schema %s", opts.SchemaPath)
	}
	if err := schema.Validate(doc); err != nil {
		return nil, failf(dir, "validate", err, "document does not conform to schema")
	}

	l, err := parseDocument(dir, doc.Root())
	if err != nil {
		return nil, failf(dir, "parse", err, "reading template fields")
	}
	return l, nil
}

// parseDocument reads the validated document into a Layout. The schema
// guarantees presence and types of required fields; errors here indicate a
// validator/parser mismatch rather than a user mistake.
func parseDocument(dir string, root *etree.Element) (*Layout, error) {
	l := &Layout{Dir: dir}

	name := root.SelectElement("name")
	if name == nil {
		return nil, fmt.Errorf("missing name element")
	}
	l.Name = name.Text()

	if el := root.SelectElement("description"); el != nil {
		l.Description = el.Text()
	}
	if el := root.SelectElement("author"); el != nil {
		l.Author = el.Text()
	}
	if el := root.SelectElement("previewImage"); el != nil {
		l.PreviewImagePath = filepath.Join(dir, el.SelectAttrValue("src", ""))
	}

	canvas := root.SelectElement("canvas")
	if canvas == nil {
		return nil, fmt.Errorf("missing canvas element")
	}
	if err := parseCanvas(dir, canvas, l); err != nil {
		return nil, err
	}
	return l, nil
}

// parseCanvas reads the canvas geometry, art references and placement list.
func parseCanvas(dir string, canvas *etree.Element, l *Layout) error {
	l.BackgroundColor = canvas.SelectAttrValue("backgroundColor", "")

	var err error
	if l.CanvasHeight, err = intAttr(canvas, "height"); err != nil {
		return err
	}
	if l.CanvasWidth, err = intAttr(canvas, "width"); err != nil {
		return err
	}

	if el := canvas.SelectElement("backgroundPhoto"); el != nil {
		l.BackgroundImagePath = filepath.Join(dir, el.SelectAttrValue("src", ""))
	}
	if el := canvas.SelectElement("foregroundPhoto"); el != nil {
		l.ForegroundImagePath = filepath.Join(dir, el.SelectAttrValue("src", ""))
	}

	photos := canvas.SelectElement("photos")
	if photos == nil {
		return fmt.Errorf("missing photos element")
	}
	for _, el := range photos.ChildElements() {
		p, err := parsePlacement(el)
		if err != nil {
			return err
		}
		l.Placements = append(l.Placements, p)
	}
	return nil
}

// parsePlacement reads one photo slot, preserving document order in the
// caller. Rotation defaults to 0 when the attribute is absent.
func parsePlacement(el *etree.Element) (Placement, error) {
	var p Placement
	var err error

	if p.X, err = intAttr(el, "x"); err != nil {
		return p, err
	}
	if p.Y, err = intAttr(el, "y"); err != nil {
		return p, err
	}
	if p.Width, err = intAttr(el, "width"); err != nil {
		return p, err
	}
	if p.Height, err = intAttr(el, "height"); err != nil {
		return p, err
	}
	if attr := el.SelectAttr("rotation"); attr != nil {
		if p.Rotation, err = strconv.Atoi(attr.Value); err != nil {
			return p, fmt.Errorf("attribute rotation: %w", err)
		}
	}
	return p, nil
}

// intAttr parses a required integer attribute.
func intAttr(el *etree.Element, name string) (int, error) {
	attr := el.SelectAttr(name)
	if attr == nil {
		return 0, fmt.Errorf("element %s: missing attribute %s", el.Tag, name)
	}
	v, err := strconv.Atoi(attr.Value)
	if err != nil {
		return 0, fmt.Errorf("element %s: attribute %s: %w", el.Tag, name, err)
	}
	return v, nil
}

// MaxPlacementSize returns the (width, height) of the placement with the
// largest width; ties keep the first occurrence in document order. Only
// width is compared - the historical behavior assumes all placements share
// one aspect ratio, and callers size capture viewfinders from it, so the
// width-only comparison is kept as-is.
func (l *Layout) MaxPlacementSize() (width, height int) {
	for _, p := range l.Placements {
		if p.Width > width {
			width, height = p.Width, p.Height
		}
	}
	return width, height
}
