package convert

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/beevik/etree"
	"github.com/mcncl/omconv/internal/models"
)

// Encoder turns OpenMath values into XML element trees. It holds no state and
// is safe for concurrent use.
type Encoder struct{}

// NewEncoder creates a new Encoder instance
func NewEncoder() *Encoder {
	return &Encoder{}
}

// attr is an attribute that is only written when value is non-empty.
type attr struct {
	key   string
	value string
}

// makeElement creates an element named after kind with the given attributes
// and children, in order.
func makeElement(kind models.Kind, attrs []attr, children ...*etree.Element) *etree.Element {
	el := etree.NewElement(string(kind))
	for _, a := range attrs {
		if a.value != "" {
			el.CreateAttr(a.key, a.value)
		}
	}
	for _, child := range children {
		el.AddChild(child)
	}
	return el
}

// makeTextElement creates a childless element holding text.
func makeTextElement(kind models.Kind, attrs []attr, text string) *etree.Element {
	el := makeElement(kind, attrs)
	el.SetText(text)
	return el
}

// Encode converts n into an element named after its kind. The namespace
// declaration is left to ConvertToXML.
func (enc *Encoder) Encode(n models.Node) (*etree.Element, error) {
	switch v := n.(type) {
	case *models.Object:
		return enc.encodeObject(v)
	case *models.Foreign:
		return enc.encodeForeign(v)
	case models.Element:
		return enc.encodeElement(v)
	}
	return nil, fmt.Errorf("%w: cannot encode %T", ErrInvalidInput, n)
}

func (enc *Encoder) encodeObject(o *models.Object) (*etree.Element, error) {
	if o == nil {
		return nil, &EncodeError{Kind: models.KindObject, Field: "object"}
	}
	if o.Object == nil {
		return nil, &EncodeError{Kind: models.KindObject, Field: "object"}
	}
	child, err := enc.encodeElement(o.Object)
	if err != nil {
		return nil, err
	}

	version := ""
	if o.Version == "2.0" {
		version = "2.0"
	}
	return makeElement(models.KindObject, []attr{
		{"version", version},
		{"cdbase", o.CDBase},
	}, child), nil
}

func (enc *Encoder) encodeElement(el models.Element) (*etree.Element, error) {
	switch v := el.(type) {
	case *models.Symbol:
		return enc.encodeSymbol(v)
	case *models.Variable:
		return enc.encodeVariable(v)
	case *models.Integer:
		return enc.encodeInteger(v)
	case *models.Float:
		return enc.encodeFloat(v)
	case *models.Bytes:
		return enc.encodeBytes(v)
	case *models.String:
		return enc.encodeString(v)
	case *models.Application:
		return enc.encodeApplication(v)
	case *models.Binding:
		return enc.encodeBinding(v)
	case *models.Attribution:
		return enc.encodeAttribution(v)
	case *models.Error:
		return enc.encodeError(v)
	case *models.Reference:
		return enc.encodeReference(v)
	}
	return nil, fmt.Errorf("%w: cannot encode %T as an element", ErrInvalidInput, el)
}

// encodeAnnotation encodes an attribute value or error argument.
func (enc *Encoder) encodeAnnotation(a models.Annotation) (*etree.Element, error) {
	switch v := a.(type) {
	case *models.Foreign:
		return enc.encodeForeign(v)
	case models.Element:
		return enc.encodeElement(v)
	}
	return nil, fmt.Errorf("%w: cannot encode %T as an annotation", ErrInvalidInput, a)
}

func (enc *Encoder) encodeSymbol(s *models.Symbol) (*etree.Element, error) {
	if s == nil {
		return nil, &EncodeError{Kind: models.KindSymbol, Field: "symbol"}
	}
	return makeElement(models.KindSymbol, []attr{
		{"id", s.ID},
		{"cdbase", s.CDBase},
		{"cd", s.CD},
		{"name", s.Name},
	}), nil
}

func (enc *Encoder) encodeVariable(v *models.Variable) (*etree.Element, error) {
	if v == nil {
		return nil, &EncodeError{Kind: models.KindVariable, Field: "variable"}
	}
	return makeElement(models.KindVariable, []attr{
		{"id", v.ID},
		{"name", v.Name},
	}), nil
}

func (enc *Encoder) encodeInteger(i *models.Integer) (*etree.Element, error) {
	if i == nil {
		return nil, &EncodeError{Kind: models.KindInteger, Field: "integer"}
	}
	var number string
	switch v := i.Value.(type) {
	case models.NativeInteger:
		number = strconv.FormatInt(int64(v), 10)
	case models.DecimalInteger:
		number = string(v)
	case models.HexInteger:
		number = string(v)
	default:
		return nil, &EncodeError{Kind: models.KindInteger, Field: "integer"}
	}
	return makeTextElement(models.KindInteger, []attr{{"id", i.ID}}, number), nil
}

func (enc *Encoder) encodeFloat(f *models.Float) (*etree.Element, error) {
	if f == nil {
		return nil, &EncodeError{Kind: models.KindFloat, Field: "float"}
	}
	attrs := []attr{{"id", f.ID}}
	switch v := f.Value.(type) {
	case models.NativeFloat:
		dec, ok := formatFloat(float64(v))
		if !ok {
			return nil, &EncodeError{Kind: models.KindFloat, Field: "finite float"}
		}
		attrs = append(attrs, attr{"dec", dec})
	case models.HexFloat:
		attrs = append(attrs, attr{"hex", string(v)})
	case models.DecimalFloat:
		attrs = append(attrs, attr{"dec", string(v)})
	default:
		return nil, &EncodeError{Kind: models.KindFloat, Field: "float"}
	}
	return makeElement(models.KindFloat, attrs), nil
}

func (enc *Encoder) encodeBytes(b *models.Bytes) (*etree.Element, error) {
	if b == nil {
		return nil, &EncodeError{Kind: models.KindBytes, Field: "bytes"}
	}
	var text string
	switch v := b.Value.(type) {
	case models.RawBytes:
		text = base64.StdEncoding.EncodeToString(v)
	case models.Base64Bytes:
		text = string(v)
	default:
		return nil, &EncodeError{Kind: models.KindBytes, Field: "bytes"}
	}
	return makeTextElement(models.KindBytes, []attr{{"id", b.ID}}, text), nil
}

func (enc *Encoder) encodeString(s *models.String) (*etree.Element, error) {
	if s == nil {
		return nil, &EncodeError{Kind: models.KindString, Field: "string"}
	}
	return makeTextElement(models.KindString, []attr{{"id", s.ID}}, s.Value), nil
}

func (enc *Encoder) encodeApplication(a *models.Application) (*etree.Element, error) {
	if a == nil {
		return nil, &EncodeError{Kind: models.KindApplication, Field: "application"}
	}
	if a.Applicant == nil {
		return nil, &EncodeError{Kind: models.KindApplication, Field: "applicant"}
	}
	applicant, err := enc.encodeElement(a.Applicant)
	if err != nil {
		return nil, err
	}

	children := []*etree.Element{applicant}
	for _, arg := range a.Arguments {
		child, err := enc.encodeElement(arg)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}

	return makeElement(models.KindApplication, []attr{
		{"id", a.ID},
		{"cdbase", a.CDBase},
	}, children...), nil
}

func (enc *Encoder) encodeBinding(b *models.Binding) (*etree.Element, error) {
	if b == nil {
		return nil, &EncodeError{Kind: models.KindBinding, Field: "binding"}
	}
	if b.Binder == nil {
		return nil, &EncodeError{Kind: models.KindBinding, Field: "binder"}
	}
	if b.Object == nil {
		return nil, &EncodeError{Kind: models.KindBinding, Field: "object"}
	}

	binder, err := enc.encodeElement(b.Binder)
	if err != nil {
		return nil, err
	}
	ombvar, err := enc.encodeVariables(b.Variables)
	if err != nil {
		return nil, err
	}
	object, err := enc.encodeElement(b.Object)
	if err != nil {
		return nil, err
	}

	return makeElement(models.KindBinding, []attr{
		{"id", b.ID},
		{"cdbase", b.CDBase},
	}, binder, ombvar, object), nil
}

// encodeVariables builds the OMBVAR wrapper of a binding.
func (enc *Encoder) encodeVariables(vars []models.BoundVariable) (*etree.Element, error) {
	children := make([]*etree.Element, 0, len(vars))
	for _, v := range vars {
		var child *etree.Element
		var err error
		switch bv := v.(type) {
		case *models.Variable:
			child, err = enc.encodeVariable(bv)
		case *models.Attribution:
			child, err = enc.encodeAttribution(bv)
		default:
			return nil, &EncodeError{Kind: models.KindBinding, Field: "variable"}
		}
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}
	return makeElement("OMBVAR", nil, children...), nil
}

func (enc *Encoder) encodeAttribution(a *models.Attribution) (*etree.Element, error) {
	if a == nil {
		return nil, &EncodeError{Kind: models.KindAttribution, Field: "attribution"}
	}
	if a.Object == nil {
		return nil, &EncodeError{Kind: models.KindAttribution, Field: "object"}
	}

	omatp, err := enc.encodePairs(a.Attributes)
	if err != nil {
		return nil, err
	}
	object, err := enc.encodeElement(a.Object)
	if err != nil {
		return nil, err
	}

	return makeElement(models.KindAttribution, []attr{
		{"id", a.ID},
		{"cdbase", a.CDBase},
	}, omatp, object), nil
}

// encodePairs builds the OMATP wrapper holding the flattened attribute pairs.
func (enc *Encoder) encodePairs(pairs []models.AttributePair) (*etree.Element, error) {
	children := make([]*etree.Element, 0, 2*len(pairs))
	for _, p := range pairs {
		if p.Key == nil || p.Value == nil {
			return nil, &EncodeError{Kind: models.KindAttribution, Field: "attribute pair"}
		}
		key, err := enc.encodeSymbol(p.Key)
		if err != nil {
			return nil, err
		}
		value, err := enc.encodeAnnotation(p.Value)
		if err != nil {
			return nil, err
		}
		children = append(children, key, value)
	}
	return makeElement("OMATP", nil, children...), nil
}

func (enc *Encoder) encodeError(e *models.Error) (*etree.Element, error) {
	if e == nil {
		return nil, &EncodeError{Kind: models.KindError, Field: "error"}
	}
	if e.Error == nil {
		return nil, &EncodeError{Kind: models.KindError, Field: "error"}
	}
	symbol, err := enc.encodeSymbol(e.Error)
	if err != nil {
		return nil, err
	}

	children := []*etree.Element{symbol}
	for _, arg := range e.Arguments {
		child, err := enc.encodeAnnotation(arg)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}

	return makeElement(models.KindError, []attr{{"id", e.ID}}, children...), nil
}

func (enc *Encoder) encodeReference(r *models.Reference) (*etree.Element, error) {
	if r == nil {
		return nil, &EncodeError{Kind: models.KindReference, Field: "reference"}
	}
	return makeElement(models.KindReference, []attr{{"href", r.Href}}), nil
}

func (enc *Encoder) encodeForeign(f *models.Foreign) (*etree.Element, error) {
	if f == nil {
		return nil, &EncodeError{Kind: models.KindForeign, Field: "foreign"}
	}
	attrs := []attr{
		{"id", f.ID},
		{"encoding", f.Encoding},
		{"cdbase", f.CDBase},
	}

	switch payload := f.Foreign.(type) {
	case nil:
		return makeElement(models.KindForeign, attrs), nil
	case string:
		return makeTextElement(models.KindForeign, attrs, payload), nil
	default:
		// structured payloads travel as their JSON text
		text, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("cannot encode %s payload: %w", models.KindForeign, err)
		}
		return makeTextElement(models.KindForeign, attrs, string(text)), nil
	}
}
