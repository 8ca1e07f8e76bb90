package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
)

// ErrUnknownKind is returned when a JSON value carries a kind outside the grammar.
var ErrUnknownKind = errors.New("unknown OpenMath kind")

// FieldError reports a JSON value whose fields do not fit its variant.
type FieldError struct {
	Kind   Kind
	Field  string
	Reason string
}

// Error implements error interface
func (e *FieldError) Error() string {
	if e.Kind == "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("%s.%s: %s", e.Kind, e.Field, e.Reason)
}

func (o *Object) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind     Kind    `json:"kind"`
		OpenMath string  `json:"openmath,omitempty"`
		CDBase   string  `json:"cdbase,omitempty"`
		Object   Element `json:"object"`
	}{KindObject, o.Version, o.CDBase, o.Object})
}

func (s *Symbol) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind   Kind   `json:"kind"`
		ID     string `json:"id,omitempty"`
		CDBase string `json:"cdbase,omitempty"`
		CD     string `json:"cd"`
		Name   string `json:"name"`
	}{KindSymbol, s.ID, s.CDBase, s.CD, s.Name})
}

func (v *Variable) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind Kind   `json:"kind"`
		ID   string `json:"id,omitempty"`
		Name string `json:"name"`
	}{KindVariable, v.ID, v.Name})
}

func (i *Integer) MarshalJSON() ([]byte, error) {
	out := struct {
		Kind        Kind    `json:"kind"`
		ID          string  `json:"id,omitempty"`
		Integer     *int64  `json:"integer,omitempty"`
		Decimal     *string `json:"decimal,omitempty"`
		Hexadecimal *string `json:"hexadecimal,omitempty"`
	}{Kind: KindInteger, ID: i.ID}

	switch v := i.Value.(type) {
	case NativeInteger:
		n := int64(v)
		out.Integer = &n
	case DecimalInteger:
		s := string(v)
		out.Decimal = &s
	case HexInteger:
		s := string(v)
		out.Hexadecimal = &s
	default:
		return nil, &FieldError{Kind: KindInteger, Field: "integer", Reason: "no representation set"}
	}
	return json.Marshal(out)
}

func (f *Float) MarshalJSON() ([]byte, error) {
	out := struct {
		Kind        Kind     `json:"kind"`
		ID          string   `json:"id,omitempty"`
		Float       *float64 `json:"float,omitempty"`
		Decimal     *string  `json:"decimal,omitempty"`
		Hexadecimal *string  `json:"hexadecimal,omitempty"`
	}{Kind: KindFloat, ID: f.ID}

	switch v := f.Value.(type) {
	case NativeFloat:
		n := float64(v)
		out.Float = &n
	case DecimalFloat:
		s := string(v)
		out.Decimal = &s
	case HexFloat:
		s := string(v)
		out.Hexadecimal = &s
	default:
		return nil, &FieldError{Kind: KindFloat, Field: "float", Reason: "no representation set"}
	}
	return json.Marshal(out)
}

func (b *Bytes) MarshalJSON() ([]byte, error) {
	out := struct {
		Kind   Kind    `json:"kind"`
		ID     string  `json:"id,omitempty"`
		Bytes  []int   `json:"bytes,omitempty"`
		Base64 *string `json:"base64,omitempty"`
	}{Kind: KindBytes, ID: b.ID}

	switch v := b.Value.(type) {
	case RawBytes:
		// []byte would marshal as base64, the grammar wants an array of numbers
		out.Bytes = make([]int, len(v))
		for i, c := range v {
			out.Bytes[i] = int(c)
		}
	case Base64Bytes:
		s := string(v)
		out.Base64 = &s
	default:
		return nil, &FieldError{Kind: KindBytes, Field: "bytes", Reason: "no representation set"}
	}
	return json.Marshal(out)
}

func (s *String) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind   Kind   `json:"kind"`
		ID     string `json:"id,omitempty"`
		String string `json:"string"`
	}{KindString, s.ID, s.Value})
}

func (a *Application) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind      Kind      `json:"kind"`
		ID        string    `json:"id,omitempty"`
		CDBase    string    `json:"cdbase,omitempty"`
		Applicant Element   `json:"applicant"`
		Arguments []Element `json:"arguments,omitempty"`
	}{KindApplication, a.ID, a.CDBase, a.Applicant, a.Arguments})
}

func (b *Binding) MarshalJSON() ([]byte, error) {
	variables := b.Variables
	if variables == nil {
		variables = []BoundVariable{}
	}
	return json.Marshal(struct {
		Kind      Kind            `json:"kind"`
		ID        string          `json:"id,omitempty"`
		CDBase    string          `json:"cdbase,omitempty"`
		Binder    Element         `json:"binder"`
		Variables []BoundVariable `json:"variables"`
		Object    Element         `json:"object"`
	}{KindBinding, b.ID, b.CDBase, b.Binder, variables, b.Object})
}

func (a *Attribution) MarshalJSON() ([]byte, error) {
	pairs := make([][2]any, len(a.Attributes))
	for i, p := range a.Attributes {
		pairs[i] = [2]any{p.Key, p.Value}
	}
	return json.Marshal(struct {
		Kind       Kind     `json:"kind"`
		ID         string   `json:"id,omitempty"`
		CDBase     string   `json:"cdbase,omitempty"`
		Attributes [][2]any `json:"attributes"`
		Object     Element  `json:"object"`
	}{KindAttribution, a.ID, a.CDBase, pairs, a.Object})
}

func (e *Error) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind      Kind         `json:"kind"`
		ID        string       `json:"id,omitempty"`
		Error     *Symbol      `json:"error"`
		Arguments []Annotation `json:"arguments,omitempty"`
	}{KindError, e.ID, e.Error, e.Arguments})
}

func (f *Foreign) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind     Kind   `json:"kind"`
		ID       string `json:"id,omitempty"`
		CDBase   string `json:"cdbase,omitempty"`
		Encoding string `json:"encoding,omitempty"`
		Foreign  any    `json:"foreign"`
	}{KindForeign, f.ID, f.CDBase, f.Encoding, f.Foreign})
}

func (r *Reference) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind Kind   `json:"kind"`
		Href string `json:"href"`
	}{KindReference, r.Href})
}

// UnmarshalNode decodes any OpenMath JSON value, dispatching on its kind.
func UnmarshalNode(data []byte) (Node, error) {
	f, err := readFields(data)
	if err != nil {
		return nil, err
	}
	return f.decode()
}

// UnmarshalElement decodes a JSON value that must be an element (omel).
func UnmarshalElement(data []byte) (Element, error) {
	n, err := UnmarshalNode(data)
	if err != nil {
		return nil, err
	}
	el, ok := n.(Element)
	if !ok {
		return nil, &FieldError{Field: "kind", Reason: fmt.Sprintf("expected an element, got %s", n.Kind())}
	}
	return el, nil
}

// UnmarshalAnnotation decodes a JSON value that must be an element or a foreign object.
func UnmarshalAnnotation(data []byte) (Annotation, error) {
	n, err := UnmarshalNode(data)
	if err != nil {
		return nil, err
	}
	a, ok := n.(Annotation)
	if !ok {
		return nil, &FieldError{Field: "kind", Reason: fmt.Sprintf("expected an element or OMFOREIGN, got %s", n.Kind())}
	}
	return a, nil
}

func unmarshalAs[T any, PT interface {
	*T
	Node
}](data []byte, dst PT) error {
	n, err := UnmarshalNode(data)
	if err != nil {
		return err
	}
	v, ok := n.(PT)
	if !ok {
		return &FieldError{Kind: dst.Kind(), Field: "kind", Reason: fmt.Sprintf("got %s", n.Kind())}
	}
	*dst = *v
	return nil
}

func (o *Object) UnmarshalJSON(data []byte) error      { return unmarshalAs(data, o) }
func (s *Symbol) UnmarshalJSON(data []byte) error      { return unmarshalAs(data, s) }
func (v *Variable) UnmarshalJSON(data []byte) error    { return unmarshalAs(data, v) }
func (i *Integer) UnmarshalJSON(data []byte) error     { return unmarshalAs(data, i) }
func (f *Float) UnmarshalJSON(data []byte) error       { return unmarshalAs(data, f) }
func (b *Bytes) UnmarshalJSON(data []byte) error       { return unmarshalAs(data, b) }
func (s *String) UnmarshalJSON(data []byte) error      { return unmarshalAs(data, s) }
func (a *Application) UnmarshalJSON(data []byte) error { return unmarshalAs(data, a) }
func (b *Binding) UnmarshalJSON(data []byte) error     { return unmarshalAs(data, b) }
func (a *Attribution) UnmarshalJSON(data []byte) error { return unmarshalAs(data, a) }
func (e *Error) UnmarshalJSON(data []byte) error       { return unmarshalAs(data, e) }
func (f *Foreign) UnmarshalJSON(data []byte) error     { return unmarshalAs(data, f) }
func (r *Reference) UnmarshalJSON(data []byte) error   { return unmarshalAs(data, r) }

// fields holds the members of one JSON object while it is decoded.
type fields struct {
	kind Kind
	raw  map[string]json.RawMessage
}

func readFields(data []byte) (*fields, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &FieldError{Field: "kind", Reason: "expected a JSON object"}
	}
	if raw == nil {
		return nil, &FieldError{Field: "kind", Reason: "expected a JSON object, got null"}
	}

	kindRaw, ok := raw["kind"]
	if !ok {
		return nil, &FieldError{Field: "kind", Reason: "required field missing"}
	}
	var kind string
	if err := json.Unmarshal(kindRaw, &kind); err != nil {
		return nil, &FieldError{Field: "kind", Reason: "must be a string"}
	}
	if !Kind(kind).Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return &fields{kind: Kind(kind), raw: raw}, nil
}

func (f *fields) decode() (Node, error) {
	switch f.kind {
	case KindObject:
		return f.object()
	case KindSymbol:
		return f.symbol()
	case KindVariable:
		return f.variable()
	case KindInteger:
		return f.integer()
	case KindFloat:
		return f.float()
	case KindBytes:
		return f.byteSeq()
	case KindString:
		return f.str()
	case KindApplication:
		return f.application()
	case KindBinding:
		return f.binding()
	case KindAttribution:
		return f.attribution()
	case KindError:
		return f.errorObject()
	case KindForeign:
		return f.foreign()
	case KindReference:
		return f.reference()
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKind, f.kind)
}

func (f *fields) errorf(field, format string, args ...any) *FieldError {
	return &FieldError{Kind: f.kind, Field: field, Reason: fmt.Sprintf(format, args...)}
}

func (f *fields) has(key string) bool {
	v, ok := f.raw[key]
	return ok && !bytes.Equal(bytes.TrimSpace(v), []byte("null"))
}

func (f *fields) optString(key string) (string, error) {
	if !f.has(key) {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(f.raw[key], &s); err != nil {
		return "", f.errorf(key, "must be a string")
	}
	return s, nil
}

func (f *fields) reqString(key string) (string, error) {
	if !f.has(key) {
		return "", f.errorf(key, "required field missing")
	}
	return f.optString(key)
}

func (f *fields) number(key string) (json.Number, error) {
	dec := json.NewDecoder(bytes.NewReader(f.raw[key]))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return "", f.errorf(key, "must be a number")
	}
	n, ok := v.(json.Number)
	if !ok {
		return "", f.errorf(key, "must be a number")
	}
	return n, nil
}

func (f *fields) element(key string) (Element, error) {
	if !f.has(key) {
		return nil, f.errorf(key, "required field missing")
	}
	el, err := UnmarshalElement(f.raw[key])
	if err != nil {
		return nil, fmt.Errorf("%s.%s: %w", f.kind, key, err)
	}
	return el, nil
}

func (f *fields) list(key string) ([]json.RawMessage, error) {
	if !f.has(key) {
		return nil, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(f.raw[key], &items); err != nil {
		return nil, f.errorf(key, "must be an array")
	}
	return items, nil
}

func (f *fields) symbolAt(key string, raw json.RawMessage) (*Symbol, error) {
	n, err := UnmarshalNode(raw)
	if err != nil {
		return nil, fmt.Errorf("%s.%s: %w", f.kind, key, err)
	}
	s, ok := n.(*Symbol)
	if !ok {
		return nil, f.errorf(key, "expected OMS, got %s", n.Kind())
	}
	return s, nil
}

func (f *fields) object() (Node, error) {
	version, err := f.optString("openmath")
	if err != nil {
		return nil, err
	}
	if version != "" && version != "2.0" {
		return nil, f.errorf("openmath", "must be \"2.0\", got %q", version)
	}
	cdbase, err := f.optString("cdbase")
	if err != nil {
		return nil, err
	}
	obj, err := f.element("object")
	if err != nil {
		return nil, err
	}
	return &Object{Version: version, CDBase: cdbase, Object: obj}, nil
}

func (f *fields) symbol() (Node, error) {
	s := &Symbol{}
	var err error
	if s.ID, err = f.optString("id"); err != nil {
		return nil, err
	}
	if s.CDBase, err = f.optString("cdbase"); err != nil {
		return nil, err
	}
	if s.CD, err = f.reqString("cd"); err != nil {
		return nil, err
	}
	if s.Name, err = f.reqString("name"); err != nil {
		return nil, err
	}
	return s, nil
}

func (f *fields) variable() (Node, error) {
	v := &Variable{}
	var err error
	if v.ID, err = f.optString("id"); err != nil {
		return nil, err
	}
	if v.Name, err = f.reqString("name"); err != nil {
		return nil, err
	}
	return v, nil
}

func (f *fields) integer() (Node, error) {
	id, err := f.optString("id")
	if err != nil {
		return nil, err
	}
	out := &Integer{ID: id}

	switch {
	case f.has("integer"):
		n, err := f.number("integer")
		if err != nil {
			return nil, err
		}
		v, ok := integerLiteral(n)
		if !ok {
			return nil, f.errorf("integer", "must be an integer, got %s", n)
		}
		out.Value = v
	case f.has("decimal"):
		s, err := f.optString("decimal")
		if err != nil {
			return nil, err
		}
		out.Value = DecimalInteger(s)
	case f.has("hexadecimal"):
		s, err := f.optString("hexadecimal")
		if err != nil {
			return nil, err
		}
		out.Value = HexInteger(s)
	default:
		return nil, f.errorf("integer", "one of integer, decimal or hexadecimal is required")
	}
	return out, nil
}

// integerLiteral reads any integral JSON number, including forms such as
// 1e3 or 10.0. Values beyond int64 keep their exact digits.
func integerLiteral(n json.Number) (IntegerValue, bool) {
	if v, err := n.Int64(); err == nil {
		return NativeInteger(v), true
	}
	r, ok := new(big.Rat).SetString(n.String())
	if !ok || !r.IsInt() {
		return nil, false
	}
	if num := r.Num(); num.IsInt64() {
		return NativeInteger(num.Int64()), true
	}
	return DecimalInteger(r.Num().String()), true
}

func (f *fields) float() (Node, error) {
	id, err := f.optString("id")
	if err != nil {
		return nil, err
	}
	out := &Float{ID: id}

	switch {
	case f.has("float"):
		n, err := f.number("float")
		if err != nil {
			return nil, err
		}
		v, err := n.Float64()
		if err != nil {
			return nil, f.errorf("float", "out of range: %s", n)
		}
		out.Value = NativeFloat(v)
	case f.has("hexadecimal"):
		s, err := f.optString("hexadecimal")
		if err != nil {
			return nil, err
		}
		out.Value = HexFloat(s)
	case f.has("decimal"):
		s, err := f.optString("decimal")
		if err != nil {
			return nil, err
		}
		out.Value = DecimalFloat(s)
	default:
		return nil, f.errorf("float", "one of float, hexadecimal or decimal is required")
	}
	return out, nil
}

func (f *fields) byteSeq() (Node, error) {
	id, err := f.optString("id")
	if err != nil {
		return nil, err
	}
	out := &Bytes{ID: id}

	switch {
	case f.has("bytes"):
		var values []int
		if err := json.Unmarshal(f.raw["bytes"], &values); err != nil {
			return nil, f.errorf("bytes", "must be an array of integers")
		}
		raw := make(RawBytes, len(values))
		for i, v := range values {
			if v < 0 || v > 255 {
				return nil, f.errorf("bytes", "value %d at index %d is not a byte", v, i)
			}
			raw[i] = byte(v)
		}
		out.Value = raw
	case f.has("base64"):
		s, err := f.optString("base64")
		if err != nil {
			return nil, err
		}
		out.Value = Base64Bytes(s)
	default:
		return nil, f.errorf("bytes", "one of bytes or base64 is required")
	}
	return out, nil
}

func (f *fields) str() (Node, error) {
	s := &String{}
	var err error
	if s.ID, err = f.optString("id"); err != nil {
		return nil, err
	}
	if s.Value, err = f.reqString("string"); err != nil {
		return nil, err
	}
	return s, nil
}

func (f *fields) application() (Node, error) {
	a := &Application{}
	var err error
	if a.ID, err = f.optString("id"); err != nil {
		return nil, err
	}
	if a.CDBase, err = f.optString("cdbase"); err != nil {
		return nil, err
	}
	if a.Applicant, err = f.element("applicant"); err != nil {
		return nil, err
	}
	items, err := f.list("arguments")
	if err != nil {
		return nil, err
	}
	for i, item := range items {
		arg, err := UnmarshalElement(item)
		if err != nil {
			return nil, fmt.Errorf("%s.arguments[%d]: %w", f.kind, i, err)
		}
		a.Arguments = append(a.Arguments, arg)
	}
	return a, nil
}

func (f *fields) binding() (Node, error) {
	b := &Binding{}
	var err error
	if b.ID, err = f.optString("id"); err != nil {
		return nil, err
	}
	if b.CDBase, err = f.optString("cdbase"); err != nil {
		return nil, err
	}
	if b.Binder, err = f.element("binder"); err != nil {
		return nil, err
	}
	if !f.has("variables") {
		return nil, f.errorf("variables", "required field missing")
	}
	items, err := f.list("variables")
	if err != nil {
		return nil, err
	}
	for i, item := range items {
		n, err := UnmarshalNode(item)
		if err != nil {
			return nil, fmt.Errorf("%s.variables[%d]: %w", f.kind, i, err)
		}
		v, ok := n.(BoundVariable)
		if !ok {
			return nil, f.errorf("variables", "entry %d must be OMV or OMATTR, got %s", i, n.Kind())
		}
		b.Variables = append(b.Variables, v)
	}
	if b.Object, err = f.element("object"); err != nil {
		return nil, err
	}
	return b, nil
}

func (f *fields) attribution() (Node, error) {
	a := &Attribution{}
	var err error
	if a.ID, err = f.optString("id"); err != nil {
		return nil, err
	}
	if a.CDBase, err = f.optString("cdbase"); err != nil {
		return nil, err
	}
	if !f.has("attributes") {
		return nil, f.errorf("attributes", "required field missing")
	}
	items, err := f.list("attributes")
	if err != nil {
		return nil, err
	}
	for i, item := range items {
		var pair []json.RawMessage
		if err := json.Unmarshal(item, &pair); err != nil || len(pair) != 2 {
			return nil, f.errorf("attributes", "entry %d must be a [symbol, value] pair", i)
		}
		key, err := f.symbolAt("attributes", pair[0])
		if err != nil {
			return nil, err
		}
		value, err := UnmarshalAnnotation(pair[1])
		if err != nil {
			return nil, fmt.Errorf("%s.attributes[%d]: %w", f.kind, i, err)
		}
		a.Attributes = append(a.Attributes, AttributePair{Key: key, Value: value})
	}
	if a.Object, err = f.element("object"); err != nil {
		return nil, err
	}
	return a, nil
}

func (f *fields) errorObject() (Node, error) {
	e := &Error{}
	var err error
	if e.ID, err = f.optString("id"); err != nil {
		return nil, err
	}
	if !f.has("error") {
		return nil, f.errorf("error", "required field missing")
	}
	if e.Error, err = f.symbolAt("error", f.raw["error"]); err != nil {
		return nil, err
	}
	items, err := f.list("arguments")
	if err != nil {
		return nil, err
	}
	for i, item := range items {
		arg, err := UnmarshalAnnotation(item)
		if err != nil {
			return nil, fmt.Errorf("%s.arguments[%d]: %w", f.kind, i, err)
		}
		e.Arguments = append(e.Arguments, arg)
	}
	return e, nil
}

func (f *fields) foreign() (Node, error) {
	out := &Foreign{}
	var err error
	if out.ID, err = f.optString("id"); err != nil {
		return nil, err
	}
	if out.CDBase, err = f.optString("cdbase"); err != nil {
		return nil, err
	}
	if out.Encoding, err = f.optString("encoding"); err != nil {
		return nil, err
	}
	raw, ok := f.raw["foreign"]
	if !ok {
		return nil, f.errorf("foreign", "required field missing")
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&out.Foreign); err != nil {
		return nil, f.errorf("foreign", "invalid JSON: %v", err)
	}
	return out, nil
}

func (f *fields) reference() (Node, error) {
	href, err := f.reqString("href")
	if err != nil {
		return nil, err
	}
	return &Reference{Href: href}, nil
}

