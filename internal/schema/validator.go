package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// DefaultKind validates against the whole document.
const DefaultKind = "omany"

const resourceURL = "openmath.json"

// knownKinds are the definitions a value may be validated against directly.
var knownKinds = []string{
	"omany",
	"OMOBJ",
	"omel",
	"OMS",
	"OMV",
	"OMI",
	"OMF",
	"OMB",
	"OMSTR",
	"OMA",
	"OMATTR",
	"OMBIND",
	"attvar",
	"OME",
	"OMFOREIGN",
	"OMR",
}

// KnownKinds returns the kinds accepted by Validate.
func KnownKinds() []string {
	out := make([]string, len(knownKinds))
	copy(out, knownKinds)
	return out
}

// IsKnownKind reports whether kind names a definition of the schema.
func IsKnownKind(kind string) bool {
	for _, k := range knownKinds {
		if k == kind {
			return true
		}
	}
	return false
}

// ValidationError is a single reason a value does not match the schema.
type ValidationError struct {
	// InstanceLocation is a JSON pointer into the validated value.
	InstanceLocation string `json:"instanceLocation"`
	// KeywordLocation is the schema keyword that failed.
	KeywordLocation string `json:"keywordLocation"`
	Message         string `json:"message"`
}

// Error implements error interface
func (e ValidationError) Error() string {
	loc := e.InstanceLocation
	if loc == "" {
		loc = "/"
	}
	return fmt.Sprintf("%s: %s", loc, e.Message)
}

// Result is the outcome of validating one value.
type Result struct {
	Kind   string            `json:"kind"`
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors"`
}

// Validator checks JSON values against the OpenMath schema. Compiled
// definitions are cached; a Validator is safe for concurrent use.
type Validator struct {
	mu       sync.Mutex
	compiled map[string]*jsonschema.Schema
}

// NewValidator creates a new Validator instance
func NewValidator() *Validator {
	return &Validator{compiled: make(map[string]*jsonschema.Schema)}
}

// normalizeKind maps an empty or unknown kind onto the whole document.
func normalizeKind(kind string) string {
	if IsKnownKind(kind) {
		return kind
	}
	return DefaultKind
}

func (v *Validator) compile(kind string) (*jsonschema.Schema, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if s, ok := v.compiled[kind]; ok {
		return s, nil
	}

	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft7
	if err := c.AddResource(resourceURL, bytes.NewReader(Source)); err != nil {
		return nil, fmt.Errorf("failed to load schema: %w", err)
	}
	s, err := c.Compile(resourceURL + "#/definitions/" + kind)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema for %s: %w", kind, err)
	}
	v.compiled[kind] = s
	return s, nil
}

// Validate checks instance against the definition named kind. Instances
// should be plain JSON values (maps, slices, strings, json.Number); other Go
// values are converted through their JSON encoding first.
func (v *Validator) Validate(instance any, kind string) (*Result, error) {
	kind = normalizeKind(kind)
	s, err := v.compile(kind)
	if err != nil {
		return nil, err
	}

	value, err := plainJSON(instance)
	if err != nil {
		return nil, err
	}

	result := &Result{Kind: kind, Valid: true, Errors: []ValidationError{}}
	err = s.Validate(value)
	if err == nil {
		return result, nil
	}

	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return nil, fmt.Errorf("failed to validate: %w", err)
	}
	result.Valid = false
	result.Errors = leafErrors(ve, nil)
	return result, nil
}

// ValidateBytes parses src as JSON and validates it against kind.
func (v *Validator) ValidateBytes(src []byte, kind string) (*Result, error) {
	instance, err := decodeJSON(src)
	if err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	return v.Validate(instance, kind)
}

// leafErrors flattens the error tree to the errors that caused it.
func leafErrors(ve *jsonschema.ValidationError, out []ValidationError) []ValidationError {
	if len(ve.Causes) == 0 {
		return append(out, ValidationError{
			InstanceLocation: ve.InstanceLocation,
			KeywordLocation:  ve.KeywordLocation,
			Message:          ve.Message,
		})
	}
	for _, cause := range ve.Causes {
		out = leafErrors(cause, out)
	}
	return out
}

// plainJSON returns instance as the generic JSON value the schema engine
// understands.
func plainJSON(instance any) (any, error) {
	switch instance.(type) {
	case nil, bool, string, json.Number, float64, map[string]any, []any:
		return instance, nil
	}

	data, err := json.Marshal(instance)
	if err != nil {
		return nil, fmt.Errorf("failed to encode instance: %w", err)
	}
	return decodeJSON(data)
}

// decodeJSON reads exactly one JSON value, keeping numbers as json.Number.
func decodeJSON(data []byte) (any, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil, err
	}
	if decoder.More() {
		return nil, errors.New("invalid trailing data after JSON value")
	}
	return value, nil
}

var defaultValidator = NewValidator()

// Validate checks instance against kind using a shared Validator.
func Validate(instance any, kind string) (*Result, error) {
	return defaultValidator.Validate(instance, kind)
}

// ValidateBytes parses and validates src using a shared Validator.
func ValidateBytes(src []byte, kind string) (*Result, error) {
	return defaultValidator.ValidateBytes(src, kind)
}
