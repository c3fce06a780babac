package template

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// testSchema mirrors the shipped PhotoTemplate.xsd.
const testSchema = `<?xml version="1.0" encoding="UTF-8"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"
           targetNamespace="https://pixelbooth.dev/schema/montage/PhotoTemplate"
           xmlns="https://pixelbooth.dev/schema/montage/PhotoTemplate"
           elementFormDefault="qualified">
  <xs:element name="phototemplate">
    <xs:complexType>
      <xs:sequence>
        <xs:element name="name" type="xs:string"/>
        <xs:element name="description" type="xs:string" minOccurs="0"/>
        <xs:element name="author" type="xs:string" minOccurs="0"/>
        <xs:element name="previewImage" minOccurs="0">
          <xs:complexType>
            <xs:attribute name="src" type="xs:string" use="required"/>
          </xs:complexType>
        </xs:element>
        <xs:element name="canvas">
          <xs:complexType>
            <xs:sequence>
              <xs:element name="backgroundPhoto" minOccurs="0">
                <xs:complexType>
                  <xs:attribute name="src" type="xs:string" use="required"/>
                </xs:complexType>
              </xs:element>
              <xs:element name="foregroundPhoto" minOccurs="0">
                <xs:complexType>
                  <xs:attribute name="src" type="xs:string" use="required"/>
                </xs:complexType>
              </xs:element>
              <xs:element name="photos">
                <xs:complexType>
                  <xs:sequence>
                    <xs:element name="photo" maxOccurs="unbounded">
                      <xs:complexType>
                        <xs:attribute name="x" type="xs:integer" use="required"/>
                        <xs:attribute name="y" type="xs:integer" use="required"/>
                        <xs:attribute name="width" type="xs:positiveInteger" use="required"/>
                        <xs:attribute name="height" type="xs:positiveInteger" use="required"/>
                        <xs:attribute name="rotation" type="xs:integer"/>
                      </xs:complexType>
                    </xs:element>
                  </xs:sequence>
                </xs:complexType>
              </xs:element>
            </xs:sequence>
            <xs:attribute name="backgroundColor" type="xs:string"/>
            <xs:attribute name="height" type="xs:positiveInteger" use="required"/>
            <xs:attribute name="width" type="xs:positiveInteger" use="required"/>
          </xs:complexType>
        </xs:element>
      </xs:sequence>
    </xs:complexType>
  </xs:element>
</xs:schema>
`

const testDocument = `<?xml version="1.0" encoding="UTF-8"?>
<phototemplate xmlns="https://pixelbooth.dev/schema/montage/PhotoTemplate">
  <name>Strip Classic</name>
  <description>Four vertical frames on a strip</description>
  <author>pixelbooth</author>
  <previewImage src="preview.png"/>
  <canvas backgroundColor="#1a2b3c" height="1800" width="600">
    <backgroundPhoto src="background.png"/>
    <foregroundPhoto src="overlay.png"/>
    <photos>
      <photo x="50" y="50" width="500" height="350"/>
      <photo x="50" y="450" width="500" height="350" rotation="10"/>
      <photo x="50" y="850" width="500" height="350" rotation="-10"/>
      <photo x="50" y="1250" width="500" height="350"/>
    </photos>
  </canvas>
</phototemplate>
`

// writePackage creates a template package directory with the given document
// and returns the directory and parse options pointing at a schema file.
func writePackage(t *testing.T, document string) (string, Options) {
	t.Helper()
	root := t.TempDir()

	schemaPath := filepath.Join(root, SchemaFilename)
	if err := os.WriteFile(schemaPath, []byte(testSchema), 0644); err != nil {
		t.Fatal(err)
	}

	dir := filepath.Join(root, "strip_classic")
	if err := os.Mkdir(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if document != "" {
		if err := os.WriteFile(filepath.Join(dir, DocumentFilename), []byte(document), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir, Options{SchemaPath: schemaPath}
}

func TestParse(t *testing.T) {
	dir, opts := writePackage(t, testDocument)

	l, err := Parse(dir, opts)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if l.Name != "Strip Classic" {
		t.Errorf("Name = %q", l.Name)
	}
	if l.Description != "Four vertical frames on a strip" {
		t.Errorf("Description = %q", l.Description)
	}
	if l.Author != "pixelbooth" {
		t.Errorf("Author = %q", l.Author)
	}
	if l.Dir != dir {
		t.Errorf("Dir = %q, want %q", l.Dir, dir)
	}
	if l.CanvasWidth != 600 || l.CanvasHeight != 1800 {
		t.Errorf("canvas = %dx%d, want 600x1800", l.CanvasWidth, l.CanvasHeight)
	}
	if l.BackgroundColor != "#1a2b3c" {
		t.Errorf("BackgroundColor = %q", l.BackgroundColor)
	}

	// Art paths resolve relative to the package directory.
	if want := filepath.Join(dir, "background.png"); l.BackgroundImagePath != want {
		t.Errorf("BackgroundImagePath = %q, want %q", l.BackgroundImagePath, want)
	}
	if want := filepath.Join(dir, "overlay.png"); l.ForegroundImagePath != want {
		t.Errorf("ForegroundImagePath = %q, want %q", l.ForegroundImagePath, want)
	}
	if want := filepath.Join(dir, "preview.png"); l.PreviewImagePath != want {
		t.Errorf("PreviewImagePath = %q, want %q", l.PreviewImagePath, want)
	}

	// Placements keep document order; rotation defaults to 0.
	want := []Placement{
		{X: 50, Y: 50, Width: 500, Height: 350},
		{X: 50, Y: 450, Width: 500, Height: 350, Rotation: 10},
		{X: 50, Y: 850, Width: 500, Height: 350, Rotation: -10},
		{X: 50, Y: 1250, Width: 500, Height: 350},
	}
	if len(l.Placements) != len(want) {
		t.Fatalf("got %d placements, want %d", len(l.Placements), len(want))
	}
	for i, p := range want {
		if l.Placements[i] != p {
			t.Errorf("placement %d = %+v, want %+v", i, l.Placements[i], p)
		}
	}
}

func TestParseMinimal(t *testing.T) {
	doc := `<?xml version="1.0"?>
<phototemplate xmlns="https://pixelbooth.dev/schema/montage/PhotoTemplate">
  <name>Single</name>
  <canvas height="400" width="600">
    <photos>
      <photo x="0" y="0" width="600" height="400"/>
    </photos>
  </canvas>
</phototemplate>
`
	dir, opts := writePackage(t, doc)

	l, err := Parse(dir, opts)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if l.Description != "" || l.Author != "" {
		t.Error("optional text fields should be empty when absent")
	}
	if l.BackgroundColor != "" {
		t.Errorf("BackgroundColor = %q, want empty", l.BackgroundColor)
	}
	if l.BackgroundImagePath != "" || l.ForegroundImagePath != "" || l.PreviewImagePath != "" {
		t.Error("optional art paths should be empty when absent")
	}
	if len(l.Placements) != 1 {
		t.Fatalf("got %d placements, want 1", len(l.Placements))
	}
}

func TestParseFailures(t *testing.T) {
	valid := testDocument

	tests := []struct {
		name      string
		document  string
		wantStage string
	}{
		{
			name:      "missing document",
			document:  "",
			wantStage: "read",
		},
		{
			name:      "malformed xml",
			document:  "<phototemplate><name>Broken",
			wantStage: "read",
		},
		{
			name:      "wrong namespace",
			document:  strings.Replace(valid, Namespace, "https://example.com/other", 1),
			wantStage: "validate",
		},
		{
			name:      "missing name element",
			document:  strings.Replace(valid, "<name>Strip Classic</name>", "", 1),
			wantStage: "validate",
		},
		{
			name:      "non-integer coordinate",
			document:  strings.Replace(valid, `x="50" y="50"`, `x="abc" y="50"`, 1),
			wantStage: "validate",
		},
		{
			name:      "zero placement width",
			document:  strings.Replace(valid, `width="500" height="350"/>`, `width="0" height="350"/>`, 1),
			wantStage: "validate",
		},
		{
			name:      "undeclared attribute",
			document:  strings.Replace(valid, `<canvas backgroundColor`, `<canvas scale="2" backgroundColor`, 1),
			wantStage: "validate",
		},
		{
			name:      "missing required canvas width",
			document:  strings.Replace(valid, ` width="600">`, `>`, 1),
			wantStage: "validate",
		},
		{
			name:      "elements out of order",
			document:  strings.Replace(valid, "<name>Strip Classic</name>\n  <description>Four vertical frames on a strip</description>", "<description>Four vertical frames on a strip</description>\n  <name>Strip Classic</name>", 1),
			wantStage: "validate",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir, opts := writePackage(t, tt.document)

			l, err := Parse(dir, opts)
			if err == nil {
				t.Fatal("Parse should fail")
			}
			if l != nil {
				t.Error("failed Parse should return a nil Layout")
			}

			var terr *Error
			if !errors.As(err, &terr) {
				t.Fatalf("error is %T, want *Error", err)
			}
			if terr.Stage != tt.wantStage {
				t.Errorf("Stage = %q, want %q (err: %v)", terr.Stage, tt.wantStage, err)
			}
			if terr.Dir != dir {
				t.Errorf("Dir = %q, want %q", terr.Dir, dir)
			}
		})
	}
}

func TestParseMissingSchema(t *testing.T) {
	dir, opts := writePackage(t, testDocument)
	opts.SchemaPath = filepath.Join(t.TempDir(), "nope.xsd")

	_, err := Parse(dir, opts)
	var terr *Error
	if !errors.As(err, &terr) {
		t.Fatalf("error is %T, want *Error", err)
	}
	if terr.Stage != "schema" {
		t.Errorf("Stage = %q, want schema", terr.Stage)
	}
}

func TestMaxPlacementSize(t *testing.T) {
	tests := []struct {
		name       string
		placements []Placement
		wantW      int
		wantH      int
	}{
		{
			name:       "empty",
			placements: nil,
			wantW:      0,
			wantH:      0,
		},
		{
			name: "widest wins",
			placements: []Placement{
				{Width: 100, Height: 50},
				{Width: 300, Height: 150},
				{Width: 200, Height: 100},
			},
			wantW: 300,
			wantH: 150,
		},
		{
			name: "tie keeps first occurrence",
			placements: []Placement{
				{Width: 300, Height: 150},
				{Width: 300, Height: 999},
			},
			wantW: 300,
			wantH: 150,
		},
		{
			name: "height does not participate",
			placements: []Placement{
				{Width: 100, Height: 900},
				{Width: 200, Height: 10},
			},
			wantW: 200,
			wantH: 10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := &Layout{Placements: tt.placements}
			w, h := l.MaxPlacementSize()
			if w != tt.wantW || h != tt.wantH {
				t.Errorf("MaxPlacementSize() = (%d, %d), want (%d, %d)", w, h, tt.wantW, tt.wantH)
			}
		})
	}
}
