package convert

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/mcncl/omconv/internal/models"
)

// Decoder turns OpenMath XML elements into values. The zero value is ready
// to use and safe for concurrent use.
type Decoder struct {
	// StrictPairs rejects an OMATP wrapper with an unpaired trailing child.
	// By default the trailing child is dropped.
	StrictPairs bool
}

// NewDecoder creates a new Decoder instance
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode converts el, which must be any OpenMath element, into its value.
func (d *Decoder) Decode(el *etree.Element) (models.Node, error) {
	if el == nil {
		return nil, fmt.Errorf("%w: no element present", ErrInvalidInput)
	}
	switch strings.ToUpper(el.Tag) {
	case "OMOBJ":
		return d.decodeObject(el)
	case "OMFOREIGN":
		return d.decodeForeign(el)
	default:
		return d.decodeElement(el)
	}
}

// assertTag fails unless el is named after kind, ignoring case.
func assertTag(el *etree.Element, kind models.Kind) error {
	if !strings.EqualFold(el.Tag, string(kind)) {
		return &MismatchError{Expected: string(kind), Actual: el.Tag}
	}
	return nil
}

// attrValue looks up an unprefixed attribute; namespace declarations never match.
func attrValue(el *etree.Element, key string) (string, bool) {
	for _, a := range el.Attr {
		if a.Key == key && a.Space != "xmlns" {
			return a.Value, true
		}
	}
	return "", false
}

// optAttr returns the attribute value, or "" when it is absent.
func optAttr(el *etree.Element, key string) string {
	v, _ := attrValue(el, key)
	return v
}

func reqAttr(el *etree.Element, kind models.Kind, key string) (string, error) {
	v, ok := attrValue(el, key)
	if !ok {
		return "", &StructureError{Kind: kind, Reason: fmt.Sprintf("missing %q attribute", key)}
	}
	return v, nil
}

func childCountError(kind models.Kind, want string, got int) error {
	return &StructureError{Kind: kind, Reason: fmt.Sprintf("expected %s child elements, got %d", want, got)}
}

func (d *Decoder) decodeObject(el *etree.Element) (*models.Object, error) {
	if err := assertTag(el, models.KindObject); err != nil {
		return nil, err
	}
	children := el.ChildElements()
	if len(children) != 1 {
		return nil, childCountError(models.KindObject, "1", len(children))
	}

	object, err := d.decodeElement(children[0])
	if err != nil {
		return nil, err
	}

	out := &models.Object{
		CDBase: optAttr(el, "cdbase"),
		Object: object,
	}
	// any version attribute announces the 2.0 encoding
	if _, ok := attrValue(el, "version"); ok {
		out.Version = "2.0"
	}
	return out, nil
}

func (d *Decoder) decodeElement(el *etree.Element) (models.Element, error) {
	switch strings.ToUpper(el.Tag) {
	case "OMS":
		return d.decodeSymbol(el)
	case "OMV":
		return d.decodeVariable(el)
	case "OMI":
		return d.decodeInteger(el)
	case "OMB":
		return d.decodeBytes(el)
	case "OMSTR":
		return d.decodeString(el)
	case "OMF":
		return d.decodeFloat(el)
	case "OMA":
		return d.decodeApplication(el)
	case "OMBIND":
		return d.decodeBinding(el)
	case "OME":
		return d.decodeError(el)
	case "OMATTR":
		return d.decodeAttribution(el)
	case "OMR":
		return d.decodeReference(el)
	default:
		return nil, fmt.Errorf("%w: unexpected element <%s>", ErrInvalidInput, el.Tag)
	}
}

// decodeAnnotation decodes an attribute value or error argument.
func (d *Decoder) decodeAnnotation(el *etree.Element) (models.Annotation, error) {
	if strings.EqualFold(el.Tag, string(models.KindForeign)) {
		return d.decodeForeign(el)
	}
	return d.decodeElement(el)
}

func (d *Decoder) decodeSymbol(el *etree.Element) (*models.Symbol, error) {
	if err := assertTag(el, models.KindSymbol); err != nil {
		return nil, err
	}
	cd, err := reqAttr(el, models.KindSymbol, "cd")
	if err != nil {
		return nil, err
	}
	name, err := reqAttr(el, models.KindSymbol, "name")
	if err != nil {
		return nil, err
	}
	return &models.Symbol{
		ID:     optAttr(el, "id"),
		CDBase: optAttr(el, "cdbase"),
		CD:     cd,
		Name:   name,
	}, nil
}

func (d *Decoder) decodeVariable(el *etree.Element) (*models.Variable, error) {
	if err := assertTag(el, models.KindVariable); err != nil {
		return nil, err
	}
	name, err := reqAttr(el, models.KindVariable, "name")
	if err != nil {
		return nil, err
	}
	return &models.Variable{ID: optAttr(el, "id"), Name: name}, nil
}

func (d *Decoder) decodeInteger(el *etree.Element) (*models.Integer, error) {
	if err := assertTag(el, models.KindInteger); err != nil {
		return nil, err
	}
	out := &models.Integer{ID: optAttr(el, "id")}

	number := el.Text()
	switch {
	case strings.TrimSpace(number) == "":
		// an empty literal reads as zero
		out.Value = models.NativeInteger(0)
	case strings.HasPrefix(number, "x"), strings.HasPrefix(number, "-x"):
		out.Value = models.HexInteger(number)
	default:
		// too big or unparseable literals keep their text
		if n, err := strconv.ParseInt(strings.TrimSpace(number), 10, 64); err == nil {
			out.Value = models.NativeInteger(n)
		} else {
			out.Value = models.DecimalInteger(number)
		}
	}
	return out, nil
}

func (d *Decoder) decodeBytes(el *etree.Element) (*models.Bytes, error) {
	if err := assertTag(el, models.KindBytes); err != nil {
		return nil, err
	}
	return &models.Bytes{
		ID:    optAttr(el, "id"),
		Value: models.Base64Bytes(strings.TrimSpace(el.Text())),
	}, nil
}

func (d *Decoder) decodeString(el *etree.Element) (*models.String, error) {
	if err := assertTag(el, models.KindString); err != nil {
		return nil, err
	}
	return &models.String{ID: optAttr(el, "id"), Value: el.Text()}, nil
}

func (d *Decoder) decodeFloat(el *etree.Element) (*models.Float, error) {
	if err := assertTag(el, models.KindFloat); err != nil {
		return nil, err
	}
	out := &models.Float{ID: optAttr(el, "id")}

	if dec, ok := attrValue(el, "dec"); ok {
		out.Value = models.DecimalFloat(dec)
	} else if hex, ok := attrValue(el, "hex"); ok {
		out.Value = models.HexFloat(hex)
	} else {
		return nil, &StructureError{Kind: models.KindFloat, Reason: `missing "dec" or "hex" attribute`}
	}
	return out, nil
}

func (d *Decoder) decodeApplication(el *etree.Element) (*models.Application, error) {
	if err := assertTag(el, models.KindApplication); err != nil {
		return nil, err
	}
	children := el.ChildElements()
	if len(children) == 0 {
		return nil, childCountError(models.KindApplication, "at least 1", 0)
	}

	applicant, err := d.decodeElement(children[0])
	if err != nil {
		return nil, err
	}
	out := &models.Application{
		ID:        optAttr(el, "id"),
		CDBase:    optAttr(el, "cdbase"),
		Applicant: applicant,
	}
	for _, child := range children[1:] {
		arg, err := d.decodeElement(child)
		if err != nil {
			return nil, err
		}
		out.Arguments = append(out.Arguments, arg)
	}
	return out, nil
}

func (d *Decoder) decodeBinding(el *etree.Element) (*models.Binding, error) {
	if err := assertTag(el, models.KindBinding); err != nil {
		return nil, err
	}
	children := el.ChildElements()
	if len(children) != 3 {
		return nil, childCountError(models.KindBinding, "3", len(children))
	}

	binder, err := d.decodeElement(children[0])
	if err != nil {
		return nil, err
	}
	variables, err := d.decodeVariables(children[1])
	if err != nil {
		return nil, err
	}
	object, err := d.decodeElement(children[2])
	if err != nil {
		return nil, err
	}

	return &models.Binding{
		ID:        optAttr(el, "id"),
		CDBase:    optAttr(el, "cdbase"),
		Binder:    binder,
		Variables: variables,
		Object:    object,
	}, nil
}

// decodeVariables reads the OMBVAR wrapper of a binding.
func (d *Decoder) decodeVariables(el *etree.Element) ([]models.BoundVariable, error) {
	if err := assertTag(el, "OMBVAR"); err != nil {
		return nil, err
	}
	var out []models.BoundVariable
	for _, child := range el.ChildElements() {
		var v models.BoundVariable
		var err error
		if strings.EqualFold(child.Tag, string(models.KindVariable)) {
			v, err = d.decodeVariable(child)
		} else {
			v, err = d.decodeAttribution(child)
		}
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (d *Decoder) decodeError(el *etree.Element) (*models.Error, error) {
	if err := assertTag(el, models.KindError); err != nil {
		return nil, err
	}
	children := el.ChildElements()
	if len(children) == 0 {
		return nil, childCountError(models.KindError, "at least 1", 0)
	}

	symbol, err := d.decodeSymbol(children[0])
	if err != nil {
		return nil, err
	}
	out := &models.Error{ID: optAttr(el, "id"), Error: symbol}
	for _, child := range children[1:] {
		arg, err := d.decodeAnnotation(child)
		if err != nil {
			return nil, err
		}
		out.Arguments = append(out.Arguments, arg)
	}
	return out, nil
}

func (d *Decoder) decodeAttribution(el *etree.Element) (*models.Attribution, error) {
	if err := assertTag(el, models.KindAttribution); err != nil {
		return nil, err
	}
	children := el.ChildElements()
	if len(children) != 2 {
		return nil, childCountError(models.KindAttribution, "2", len(children))
	}

	pairs, err := d.decodePairs(children[0])
	if err != nil {
		return nil, err
	}
	object, err := d.decodeElement(children[1])
	if err != nil {
		return nil, err
	}

	return &models.Attribution{
		ID:         optAttr(el, "id"),
		CDBase:     optAttr(el, "cdbase"),
		Attributes: pairs,
		Object:     object,
	}, nil
}

// decodePairs reads the OMATP wrapper two children at a time.
func (d *Decoder) decodePairs(el *etree.Element) ([]models.AttributePair, error) {
	if err := assertTag(el, "OMATP"); err != nil {
		return nil, err
	}
	children := el.ChildElements()
	if d.StrictPairs && len(children)%2 != 0 {
		return nil, &StructureError{
			Kind:   models.KindAttribution,
			Reason: fmt.Sprintf("OMATP holds %d children, expected (symbol, value) pairs", len(children)),
		}
	}

	var out []models.AttributePair
	for i := 0; i+1 < len(children); i += 2 {
		key, err := d.decodeSymbol(children[i])
		if err != nil {
			return nil, err
		}
		value, err := d.decodeAnnotation(children[i+1])
		if err != nil {
			return nil, err
		}
		out = append(out, models.AttributePair{Key: key, Value: value})
	}
	return out, nil
}

func (d *Decoder) decodeReference(el *etree.Element) (*models.Reference, error) {
	if err := assertTag(el, models.KindReference); err != nil {
		return nil, err
	}
	href, err := reqAttr(el, models.KindReference, "href")
	if err != nil {
		return nil, err
	}
	return &models.Reference{Href: href}, nil
}

func (d *Decoder) decodeForeign(el *etree.Element) (*models.Foreign, error) {
	if err := assertTag(el, models.KindForeign); err != nil {
		return nil, err
	}
	payload, err := serializeFirstChild(el)
	if err != nil {
		return nil, err
	}
	return &models.Foreign{
		ID:       optAttr(el, "id"),
		CDBase:   optAttr(el, "cdbase"),
		Encoding: optAttr(el, "encoding"),
		Foreign:  payload,
	}, nil
}

// serializeFirstChild renders the first child node of el back to text:
// character data as-is, markup as XML.
func serializeFirstChild(el *etree.Element) (string, error) {
	if len(el.Child) == 0 {
		return "", nil
	}
	switch tok := el.Child[0].(type) {
	case *etree.CharData:
		return tok.Data, nil
	case *etree.Element:
		return Serialize(tok)
	case *etree.Comment:
		return "<!--" + tok.Data + "-->", nil
	case *etree.ProcInst:
		return "<?" + tok.Target + " " + tok.Inst + "?>", nil
	default:
		return "", nil
	}
}
