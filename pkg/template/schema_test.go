package template

import (
	"strings"
	"testing"

	"github.com/beevik/etree"
)

// loadTestSchema compiles the fixture schema used by the parse tests.
func loadTestSchema(t *testing.T) *Schema {
	t.Helper()
	doc := etree.NewDocument()
	if err := doc.ReadFromString(testSchema); err != nil {
		t.Fatal(err)
	}
	s, err := compileSchema(doc)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func parseDoc(t *testing.T, xml string) *etree.Document {
	t.Helper()
	doc := etree.NewDocument()
	if err := doc.ReadFromString(xml); err != nil {
		t.Fatal(err)
	}
	return doc
}

func TestCompileSchema(t *testing.T) {
	s := loadTestSchema(t)

	if s.TargetNamespace != Namespace {
		t.Errorf("TargetNamespace = %q, want %q", s.TargetNamespace, Namespace)
	}
	if s.root == nil || s.root.Name != "phototemplate" {
		t.Fatalf("root rule = %+v, want phototemplate", s.root)
	}
	if len(s.root.Children) != 5 {
		t.Errorf("root has %d child slots, want 5", len(s.root.Children))
	}
}

func TestCompileSchemaRejectsNonSchema(t *testing.T) {
	doc := parseDoc(t, `<not-a-schema/>`)
	if _, err := compileSchema(doc); err == nil {
		t.Error("compileSchema should reject a non-schema document")
	}
}

func TestCompileSchemaRequiresRootElement(t *testing.T) {
	doc := parseDoc(t, `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"/>`)
	if _, err := compileSchema(doc); err == nil {
		t.Error("compileSchema should require a root element declaration")
	}
}

func TestValidate(t *testing.T) {
	s := loadTestSchema(t)

	tests := []struct {
		name    string
		xml     string
		wantErr string // substring of the expected violation, "" for valid
	}{
		{
			name: "minimal valid",
			xml: `<phototemplate xmlns="https://pixelbooth.dev/schema/montage/PhotoTemplate">
  <name>T</name>
  <canvas height="10" width="10">
    <photos><photo x="0" y="0" width="5" height="5"/></photos>
  </canvas>
</phototemplate>`,
		},
		{
			name: "unbounded photo slots",
			xml: `<phototemplate xmlns="https://pixelbooth.dev/schema/montage/PhotoTemplate">
  <name>T</name>
  <canvas height="10" width="10">
    <photos>
      <photo x="0" y="0" width="5" height="5"/>
      <photo x="1" y="1" width="5" height="5"/>
      <photo x="2" y="2" width="5" height="5"/>
      <photo x="3" y="3" width="5" height="5"/>
      <photo x="4" y="4" width="5" height="5"/>
      <photo x="5" y="5" width="5" height="5"/>
    </photos>
  </canvas>
</phototemplate>`,
		},
		{
			name: "negative coordinates are valid integers",
			xml: `<phototemplate xmlns="https://pixelbooth.dev/schema/montage/PhotoTemplate">
  <name>T</name>
  <canvas height="10" width="10">
    <photos><photo x="-20" y="-5" width="5" height="5" rotation="-45"/></photos>
  </canvas>
</phototemplate>`,
		},
		{
			name:    "wrong root element",
			xml:     `<template xmlns="https://pixelbooth.dev/schema/montage/PhotoTemplate"/>`,
			wantErr: "root element",
		},
		{
			name:    "missing namespace",
			xml:     `<phototemplate><name>T</name></phototemplate>`,
			wantErr: "namespace",
		},
		{
			name: "child inside attribute-only element",
			xml: `<phototemplate xmlns="https://pixelbooth.dev/schema/montage/PhotoTemplate">
  <name>T</name>
  <previewImage src="p.png"><junk/></previewImage>
  <canvas height="10" width="10">
    <photos><photo x="0" y="0" width="5" height="5"/></photos>
  </canvas>
</phototemplate>`,
			wantErr: "unexpected child element junk",
		},
		{
			name: "undeclared element after sequence",
			xml: `<phototemplate xmlns="https://pixelbooth.dev/schema/montage/PhotoTemplate">
  <name>T</name>
  <canvas height="10" width="10">
    <photos><photo x="0" y="0" width="5" height="5"/></photos>
  </canvas>
  <extra/>
</phototemplate>`,
			wantErr: "unexpected element extra",
		},
		{
			name: "missing photos element",
			xml: `<phototemplate xmlns="https://pixelbooth.dev/schema/montage/PhotoTemplate">
  <name>T</name>
  <canvas height="10" width="10"/>
</phototemplate>`,
			wantErr: "missing required element photos",
		},
		{
			name: "missing required attribute",
			xml: `<phototemplate xmlns="https://pixelbooth.dev/schema/montage/PhotoTemplate">
  <name>T</name>
  <canvas height="10" width="10">
    <photos><photo x="0" y="0" width="5"/></photos>
  </canvas>
</phototemplate>`,
			wantErr: "missing required attribute height",
		},
		{
			name: "non-positive canvas dimension",
			xml: `<phototemplate xmlns="https://pixelbooth.dev/schema/montage/PhotoTemplate">
  <name>T</name>
  <canvas height="0" width="10">
    <photos><photo x="0" y="0" width="5" height="5"/></photos>
  </canvas>
</phototemplate>`,
			wantErr: "not a positive integer",
		},
		{
			name: "non-integer rotation",
			xml: `<phototemplate xmlns="https://pixelbooth.dev/schema/montage/PhotoTemplate">
  <name>T</name>
  <canvas height="10" width="10">
    <photos><photo x="0" y="0" width="5" height="5" rotation="fast"/></photos>
  </canvas>
</phototemplate>`,
			wantErr: "not an integer",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Validate(parseDoc(t, tt.xml))
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Validate should fail")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}
