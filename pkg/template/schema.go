package template

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

// Schema is the structural contract a template document must satisfy before
// being parsed. It is loaded from an XSD document and enforces element
// order and occurrence, required attributes and attribute value types.
//
// The interpreter covers the subset of XML Schema the shipped
// PhotoTemplate.xsd uses: one top-level element declaration, inline complex
// types, xs:sequence content models, xs:attribute declarations and the
// built-in types xs:string, xs:integer and xs:positiveInteger.
type Schema struct {
	// TargetNamespace is the namespace documents must declare on their root.
	TargetNamespace string

	root *elementRule
}

// elementRule describes one declared element.
type elementRule struct {
	Name     string
	Type     string      // built-in type for simple elements, "" otherwise
	Attrs    []attrRule  // declared attributes
	Children []childRule // xs:sequence content, in declared order
}

// attrRule describes one declared attribute.
type attrRule struct {
	Name     string
	Type     string
	Required bool
}

// childRule describes one child element slot in a sequence.
type childRule struct {
	Rule *elementRule
	Min  int
	Max  int // -1 means unbounded
}

// LoadSchema reads and compiles an XSD document from path.
func LoadSchema(path string) (*Schema, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromFile(path); err != nil {
		return nil, err
	}
	return compileSchema(doc)
}

// compileSchema builds a Schema from a parsed XSD document.
func compileSchema(doc *etree.Document) (*Schema, error) {
	root := doc.Root()
	if root == nil || root.Tag != "schema" {
		return nil, fmt.Errorf("not a schema document")
	}

	s := &Schema{TargetNamespace: root.SelectAttrValue("targetNamespace", "")}

	for _, el := range root.ChildElements() {
		if el.Tag != "element" {
			continue
		}
		rule, _, _, err := compileElement(el)
		if err != nil {
			return nil, err
		}
		s.root = rule
		break // the first top-level element declares the document root
	}
	if s.root == nil {
		return nil, fmt.Errorf("schema declares no root element")
	}
	return s, nil
}

// compileElement compiles one xs:element declaration into a rule plus its
// occurrence bounds.
func compileElement(el *etree.Element) (*elementRule, int, int, error) {
	name := el.SelectAttrValue("name", "")
	if name == "" {
		return nil, 0, 0, fmt.Errorf("element declaration without name")
	}

	min, max, err := occurs(el)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("element %s: %w", name, err)
	}

	rule := &elementRule{Name: name}

	if t := el.SelectAttrValue("type", ""); t != "" {
		rule.Type = localType(t)
		return rule, min, max, nil
	}

	ct := el.SelectElement("complexType")
	if ct == nil {
		// No type and no inline complexType: treat as free string content.
		rule.Type = "string"
		return rule, min, max, nil
	}

	if seq := ct.SelectElement("sequence"); seq != nil {
		for _, child := range seq.ChildElements() {
			if child.Tag != "element" {
				continue
			}
			childRuleEl, cmin, cmax, err := compileElement(child)
			if err != nil {
				return nil, 0, 0, err
			}
			rule.Children = append(rule.Children, childRule{Rule: childRuleEl, Min: cmin, Max: cmax})
		}
	}
	for _, attr := range ct.ChildElements() {
		if attr.Tag != "attribute" {
			continue
		}
		aname := attr.SelectAttrValue("name", "")
		if aname == "" {
			return nil, 0, 0, fmt.Errorf("element %s: attribute declaration without name", name)
		}
		rule.Attrs = append(rule.Attrs, attrRule{
			Name:     aname,
			Type:     localType(attr.SelectAttrValue("type", "xs:string")),
			Required: attr.SelectAttrValue("use", "optional") == "required",
		})
	}
	return rule, min, max, nil
}

// occurs reads minOccurs/maxOccurs with XSD defaults of 1.
func occurs(el *etree.Element) (int, int, error) {
	min, max := 1, 1
	if v := el.SelectAttrValue("minOccurs", ""); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return 0, 0, fmt.Errorf("invalid minOccurs %q", v)
		}
		min = n
	}
	if v := el.SelectAttrValue("maxOccurs", ""); v != "" {
		if v == "unbounded" {
			max = -1
		} else {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				return 0, 0, fmt.Errorf("invalid maxOccurs %q", v)
			}
			max = n
		}
	}
	return min, max, nil
}

// localType strips the namespace prefix from a built-in type reference.
func localType(t string) string {
	if i := strings.IndexByte(t, ':'); i >= 0 {
		return t[i+1:]
	}
	return t
}

// Validate checks doc against the schema. It returns the first violation
// found, or nil when the document conforms.
func (s *Schema) Validate(doc *etree.Document) error {
	root := doc.Root()
	if root == nil {
		return fmt.Errorf("document has no root element")
	}
	if root.Tag != s.root.Name {
		return fmt.Errorf("root element is %s, want %s", root.Tag, s.root.Name)
	}
	if s.TargetNamespace != "" && root.NamespaceURI() != s.TargetNamespace {
		return fmt.Errorf("root namespace is %q, want %q", root.NamespaceURI(), s.TargetNamespace)
	}
	return validateElement(root, s.root, root.Tag)
}

// validateElement checks attributes and child content of el against rule.
// path carries the element location for error messages.
func validateElement(el *etree.Element, rule *elementRule, path string) error {
	if err := validateAttrs(el, rule, path); err != nil {
		return err
	}

	children := el.ChildElements()
	if len(rule.Children) == 0 {
		if len(children) > 0 {
			return fmt.Errorf("%s: unexpected child element %s", path, children[0].Tag)
		}
		return nil
	}

	// Match children against the declared sequence in order.
	i := 0
	for _, slot := range rule.Children {
		n := 0
		for i < len(children) && children[i].Tag == slot.Rule.Name {
			if slot.Max >= 0 && n == slot.Max {
				break
			}
			childPath := path + "/" + children[i].Tag
			if err := validateElement(children[i], slot.Rule, childPath); err != nil {
				return err
			}
			i++
			n++
		}
		if n < slot.Min {
			return fmt.Errorf("%s: missing required element %s", path, slot.Rule.Name)
		}
	}
	if i < len(children) {
		return fmt.Errorf("%s: unexpected element %s", path, children[i].Tag)
	}
	return nil
}

// validateAttrs checks declared, required and typed attributes. Namespace
// declarations are ignored; undeclared attributes are rejected.
func validateAttrs(el *etree.Element, rule *elementRule, path string) error {
	seen := make(map[string]bool, len(el.Attr))
	for _, attr := range el.Attr {
		if attr.Space == "xmlns" || (attr.Space == "" && attr.Key == "xmlns") {
			continue
		}
		decl := findAttr(rule, attr.Key)
		if decl == nil {
			return fmt.Errorf("%s: undeclared attribute %s", path, attr.Key)
		}
		if err := checkType(attr.Value, decl.Type); err != nil {
			return fmt.Errorf("%s: attribute %s: %w", path, attr.Key, err)
		}
		seen[attr.Key] = true
	}
	for _, decl := range rule.Attrs {
		if decl.Required && !seen[decl.Name] {
			return fmt.Errorf("%s: missing required attribute %s", path, decl.Name)
		}
	}
	return nil
}

// findAttr looks up an attribute declaration by name.
func findAttr(rule *elementRule, name string) *attrRule {
	for i := range rule.Attrs {
		if rule.Attrs[i].Name == name {
			return &rule.Attrs[i]
		}
	}
	return nil
}

// checkType validates an attribute value against a built-in XSD type.
func checkType(value, typ string) error {
	switch typ {
	case "", "string":
		return nil
	case "integer":
		if _, err := strconv.Atoi(strings.TrimSpace(value)); err != nil {
			return fmt.Errorf("%q is not an integer", value)
		}
		return nil
	case "positiveInteger":
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || n <= 0 {
			return fmt.Errorf("%q is not a positive integer", value)
		}
		return nil
	default:
		return fmt.Errorf("unsupported schema type %s", typ)
	}
}
