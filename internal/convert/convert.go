// Package convert translates OpenMath values between the JSON encoding
// (models.Node) and the XML encoding (etree element trees).
package convert

import (
	"encoding/json"
	"fmt"

	"github.com/beevik/etree"
	"github.com/mcncl/omconv/internal/models"
)

// Namespace is the XML namespace every OpenMath element lives in.
const Namespace = "http://www.openmath.org/OpenMath"

// ConvertToJSON converts an OpenMath XML element into its JSON value.
func ConvertToJSON(el *etree.Element) (models.Node, error) {
	return NewDecoder().Decode(el)
}

// ConvertToXML converts an OpenMath value into a new XML element that
// declares the OpenMath namespace.
func ConvertToXML(n models.Node) (*etree.Element, error) {
	el, err := NewEncoder().Encode(n)
	if err != nil {
		return nil, err
	}
	declareNamespace(el)
	return el, nil
}

// declareNamespace makes xmlns the first attribute of el.
func declareNamespace(el *etree.Element) {
	attrs := el.Attr
	el.Attr = nil
	el.CreateAttr("xmlns", Namespace)
	for _, a := range attrs {
		if a.Space == "" && a.Key == "xmlns" {
			continue
		}
		el.CreateAttr(a.FullKey(), a.Value)
	}
}

// ParseElement parses an XML document and returns its root element.
func ParseElement(data []byte) (*etree.Element, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("%w: no element present", ErrInvalidInput)
	}
	return root, nil
}

// Serialize renders el as compact XML without an XML declaration.
// el is not modified.
func Serialize(el *etree.Element) (string, error) {
	return SerializeIndent(el, 0)
}

// SerializeIndent renders el with children indented by the given number of
// spaces; 0 keeps the output compact.
func SerializeIndent(el *etree.Element, spaces int) (string, error) {
	doc := etree.NewDocument()
	doc.SetRoot(el.Copy())
	if spaces > 0 {
		doc.Indent(spaces)
	}
	return doc.WriteToString()
}

// XMLToJSON converts an OpenMath XML document into indented JSON text.
func XMLToJSON(data []byte, dec *Decoder) ([]byte, error) {
	el, err := ParseElement(data)
	if err != nil {
		return nil, err
	}
	if dec == nil {
		dec = NewDecoder()
	}
	node, err := dec.Decode(el)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(node, "", "    ")
}

// JSONToXML converts an OpenMath JSON document into compact XML text.
func JSONToXML(data []byte) ([]byte, error) {
	node, err := models.UnmarshalNode(data)
	if err != nil {
		return nil, err
	}
	el, err := ConvertToXML(node)
	if err != nil {
		return nil, err
	}
	s, err := Serialize(el)
	if err != nil {
		return nil, err
	}
	return []byte(s), nil
}
