// Package schema holds the OpenMath JSON schema and validates JSON values
// against it
package schema

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

// Source is the raw OpenMath JSON schema document (draft-07).
//
//go:embed openmath.json
var Source []byte

// SchemaType handles JSON Schema type field which can be string or array of strings
type SchemaType struct {
	Types []string
}

// UnmarshalJSON handles both string and array forms of type
func (st *SchemaType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		st.Types = []string{s}
		return nil
	}

	var arr []string
	if err := json.Unmarshal(data, &arr); err == nil {
		st.Types = arr
		return nil
	}

	return fmt.Errorf("type must be string or array of strings")
}

// Schema is the subset of a JSON Schema document the OpenMath schema uses.
type Schema struct {
	Schema      string `json:"$schema,omitempty"`
	Ref         string `json:"$ref,omitempty"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`

	Type  SchemaType `json:"type,omitempty"`
	Const any        `json:"const,omitempty"`

	Properties map[string]*Schema `json:"properties,omitempty"`
	Required   []string           `json:"required,omitempty"`

	// Items is a schema or, for attribution pairs, a tuple of schemas.
	Items    json.RawMessage `json:"items,omitempty"`
	MinItems *int            `json:"minItems,omitempty"`
	MaxItems *int            `json:"maxItems,omitempty"`

	Pattern   string   `json:"pattern,omitempty"`
	Format    string   `json:"format,omitempty"`
	MinLength *int     `json:"minLength,omitempty"`
	Minimum   *float64 `json:"minimum,omitempty"`
	Maximum   *float64 `json:"maximum,omitempty"`

	AllOf []*Schema `json:"allOf,omitempty"`
	AnyOf []*Schema `json:"anyOf,omitempty"`

	Definitions map[string]*Schema `json:"definitions,omitempty"`
}

// ParseBytes parses JSON Schema from bytes
func ParseBytes(data []byte) (*Schema, error) {
	var schema Schema
	if err := json.Unmarshal(data, &schema); err != nil {
		return nil, fmt.Errorf("failed to parse JSON Schema: %w", err)
	}

	return &schema, nil
}

var (
	documentOnce sync.Once
	document     *Schema
	documentErr  error
)

// Document returns the parsed embedded OpenMath schema.
func Document() (*Schema, error) {
	documentOnce.Do(func() {
		document, documentErr = ParseBytes(Source)
	})
	return document, documentErr
}

// Lookup resolves a local "#/definitions/<name>" reference or a bare
// definition name.
func (s *Schema) Lookup(ref string) (*Schema, bool) {
	name := strings.TrimPrefix(ref, "#/definitions/")
	def, ok := s.Definitions[name]
	return def, ok
}

// KindConst returns the value the definition pins "kind" to, if any.
func (s *Schema) KindConst() string {
	kind, ok := s.Properties["kind"]
	if !ok {
		return ""
	}
	if v, ok := kind.Const.(string); ok {
		return v
	}
	return ""
}

// Definitions lists every schema kind a value can be validated against,
// in the order of KnownKinds, with its description.
func Definitions() ([]Definition, error) {
	doc, err := Document()
	if err != nil {
		return nil, err
	}

	out := make([]Definition, 0, len(knownKinds))
	for _, kind := range knownKinds {
		def, ok := doc.Lookup(kind)
		if !ok {
			return nil, fmt.Errorf("schema has no definition for %s", kind)
		}
		if tag := def.KindConst(); tag != "" && tag != kind {
			return nil, fmt.Errorf("schema definition %s pins kind to %s", kind, tag)
		}
		out = append(out, Definition{
			Kind:        kind,
			Description: def.Description,
			Required:    def.Required,
		})
	}
	return out, nil
}

// Definition summarizes one named schema definition.
type Definition struct {
	Kind        string   `json:"kind"`
	Description string   `json:"description"`
	Required    []string `json:"required,omitempty"`
}
