// Package fixtures reads and generates the paired JSON/XML fixture files used
// to check both conversion directions.
package fixtures

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/beevik/etree"
	"github.com/iancoleman/strcase"
	"github.com/mcncl/omconv/internal/convert"
	"github.com/mcncl/omconv/internal/models"
)

// DefaultDir is where fixtures live relative to the repository root.
const DefaultDir = "testdata/fixtures"

// Fixture describes one named JSON/XML pair.
type Fixture struct {
	// Name is the path of the pair below the fixture directory, without extension.
	Name        string
	Description string
	// Kind is the schema definition the JSON half validates against.
	Kind string
	// SkipForward disables the XML to JSON check: the JSON half uses a
	// representation the decoder never produces.
	SkipForward bool
	// SkipBackward disables the JSON to XML check.
	SkipBackward bool
}

// ParseName splits a fixture spec such as ">omi/10_dec" into its name and
// skip markers: a leading '>' skips the XML to JSON direction, a leading '<'
// skips JSON to XML.
func ParseName(spec string) (name string, skipForward, skipBackward bool) {
	switch {
	case strings.HasPrefix(spec, ">"):
		return spec[1:], true, false
	case strings.HasPrefix(spec, "<"):
		return spec[1:], false, true
	default:
		return spec, false, false
	}
}

// Declare builds a Fixture from a spec accepted by ParseName.
func Declare(spec, description, kind string) Fixture {
	name, skipForward, skipBackward := ParseName(spec)
	return Fixture{
		Name:         name,
		Description:  description,
		Kind:         kind,
		SkipForward:  skipForward,
		SkipBackward: skipBackward,
	}
}

// NameFor derives a fixture name from the kind of the value and a free-text
// description: NameFor("OME", "Division by zero") is "ome/division_by_zero".
func NameFor(kind models.Kind, description string) string {
	return strings.ToLower(string(kind)) + "/" + strcase.ToSnake(strings.TrimSpace(description))
}

// Store reads and writes fixtures below Dir.
type Store struct {
	Dir string
	// Decoder is used when generating JSON fixtures; nil means defaults.
	Decoder *convert.Decoder
	// JSONIndent is the number of spaces used for generated JSON.
	JSONIndent int
}

// NewStore creates a Store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{Dir: dir, JSONIndent: 4}
}

// XMLPath returns the path of the XML half of a fixture.
func (s *Store) XMLPath(name string) string {
	return filepath.Join(s.Dir, filepath.FromSlash(name)+".xml")
}

// JSONPath returns the path of the JSON half of a fixture.
func (s *Store) JSONPath(name string) string {
	return filepath.Join(s.Dir, filepath.FromSlash(name)+".json")
}

// ReadXML reads the XML half of a fixture and returns its root element.
func (s *Store) ReadXML(name string) (*etree.Element, error) {
	data, err := os.ReadFile(s.XMLPath(name))
	if err != nil {
		return nil, fmt.Errorf("failed to read XML fixture %q: %w", name, err)
	}
	el, err := convert.ParseElement(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse XML fixture %q: %w", name, err)
	}
	return el, nil
}

// ReadJSON reads the JSON half of a fixture as an OpenMath value.
func (s *Store) ReadJSON(name string) (models.Node, error) {
	data, err := os.ReadFile(s.JSONPath(name))
	if err != nil {
		return nil, fmt.Errorf("failed to read JSON fixture %q: %w", name, err)
	}
	node, err := models.UnmarshalNode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode JSON fixture %q: %w", name, err)
	}
	return node, nil
}

// ReadJSONInstance reads the JSON half of a fixture as a plain JSON value,
// numbers kept as json.Number, ready for schema validation.
func (s *Store) ReadJSONInstance(name string) (any, error) {
	data, err := os.ReadFile(s.JSONPath(name))
	if err != nil {
		return nil, fmt.Errorf("failed to read JSON fixture %q: %w", name, err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("failed to parse JSON fixture %q: %w", name, err)
	}
	return v, nil
}

// MakeXML generates the XML half of a fixture from its JSON half and
// returns the path written.
func (s *Store) MakeXML(name string) (string, error) {
	node, err := s.ReadJSON(name)
	if err != nil {
		return "", err
	}
	el, err := convert.ConvertToXML(node)
	if err != nil {
		return "", fmt.Errorf("failed to convert fixture %q: %w", name, err)
	}
	text, err := convert.Serialize(el)
	if err != nil {
		return "", err
	}
	path := s.XMLPath(name)
	if err := writeFile(path, []byte(text)); err != nil {
		return "", err
	}
	return path, nil
}

// MakeJSON generates the JSON half of a fixture from its XML half and
// returns the path written.
func (s *Store) MakeJSON(name string) (string, error) {
	el, err := s.ReadXML(name)
	if err != nil {
		return "", err
	}
	dec := s.Decoder
	if dec == nil {
		dec = convert.NewDecoder()
	}
	node, err := dec.Decode(el)
	if err != nil {
		return "", fmt.Errorf("failed to convert fixture %q: %w", name, err)
	}
	data, err := json.MarshalIndent(node, "", strings.Repeat(" ", s.JSONIndent))
	if err != nil {
		return "", err
	}
	path := s.JSONPath(name)
	if err := writeFile(path, data); err != nil {
		return "", err
	}
	return path, nil
}

// Add writes both halves of a new fixture for node and returns the paths
// written, JSON first.
func (s *Store) Add(name string, node models.Node) (jsonPath, xmlPath string, err error) {
	if node == nil {
		return "", "", fmt.Errorf("fixture %q has no value", name)
	}
	data, err := json.MarshalIndent(node, "", strings.Repeat(" ", s.JSONIndent))
	if err != nil {
		return "", "", fmt.Errorf("failed to encode fixture %q: %w", name, err)
	}
	jsonPath = s.JSONPath(name)
	if err := writeFile(jsonPath, data); err != nil {
		return "", "", err
	}
	xmlPath, err = s.MakeXML(name)
	if err != nil {
		return "", "", err
	}
	return jsonPath, xmlPath, nil
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create fixture directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write fixture %s: %w", path, err)
	}
	return nil
}
