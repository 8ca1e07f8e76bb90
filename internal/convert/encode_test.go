package convert

import (
	"math"
	"testing"

	"github.com/beevik/etree"
	"github.com/mcncl/omconv/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustSerialize(t *testing.T, el *etree.Element) string {
	t.Helper()
	s, err := Serialize(el)
	require.NoError(t, err)
	return s
}

func TestEncoder_Numbers(t *testing.T) {
	tests := []struct {
		name     string
		input    models.Node
		expected string
	}{
		{
			name:     "native integer",
			input:    &models.Integer{Value: models.NativeInteger(10)},
			expected: `<OMI>10</OMI>`,
		},
		{
			name:     "decimal integer",
			input:    &models.Integer{Value: models.DecimalInteger("-120")},
			expected: `<OMI>-120</OMI>`,
		},
		{
			name:     "hexadecimal integer",
			input:    &models.Integer{ID: "n", Value: models.HexInteger("-x78")},
			expected: `<OMI id="n">-x78</OMI>`,
		},
		{
			name:     "native float",
			input:    &models.Float{Value: models.NativeFloat(1e-10)},
			expected: `<OMF dec="1e-10"/>`,
		},
		{
			name:     "native float in plain notation",
			input:    &models.Float{Value: models.NativeFloat(-2.5)},
			expected: `<OMF dec="-2.5"/>`,
		},
		{
			name:     "decimal float",
			input:    &models.Float{Value: models.DecimalFloat("1.0e-10")},
			expected: `<OMF dec="1.0e-10"/>`,
		},
		{
			name:     "hexadecimal float",
			input:    &models.Float{Value: models.HexFloat("3DDB7CDFD9D7BDBB")},
			expected: `<OMF hex="3DDB7CDFD9D7BDBB"/>`,
		},
		{
			name:     "raw bytes",
			input:    &models.Bytes{Value: models.RawBytes("hello world")},
			expected: `<OMB>aGVsbG8gd29ybGQ=</OMB>`,
		},
		{
			name:     "base64 bytes",
			input:    &models.Bytes{Value: models.Base64Bytes("aGVsbG8gd29ybGQ=")},
			expected: `<OMB>aGVsbG8gd29ybGQ=</OMB>`,
		},
	}

	enc := NewEncoder()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			el, err := enc.Encode(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, mustSerialize(t, el))
		})
	}
}

func TestEncoder_OmitsEmptyOptionals(t *testing.T) {
	el, err := NewEncoder().Encode(&models.Symbol{CD: "transc1", Name: "sin"})
	require.NoError(t, err)

	require.Len(t, el.Attr, 2)
	assert.Equal(t, "cd", el.Attr[0].Key)
	assert.Equal(t, "name", el.Attr[1].Key)
	assert.Nil(t, el.SelectAttr("id"))
	assert.Nil(t, el.SelectAttr("cdbase"))
}

func TestEncoder_SymbolAttributeOrder(t *testing.T) {
	el, err := NewEncoder().Encode(&models.Symbol{
		ID:     "s",
		CDBase: "http://www.openmath.org/cd",
		CD:     "transc1",
		Name:   "sin",
	})
	require.NoError(t, err)
	assert.Equal(t,
		`<OMS id="s" cdbase="http://www.openmath.org/cd" cd="transc1" name="sin"/>`,
		mustSerialize(t, el))
}

func TestEncoder_ApplicationWithoutArguments(t *testing.T) {
	el, err := NewEncoder().Encode(&models.Application{
		Applicant: &models.Variable{Name: "f"},
	})
	require.NoError(t, err)

	children := el.ChildElements()
	require.Len(t, children, 1)
	assert.Equal(t, "OMV", children[0].Tag)
}

func TestEncoder_AttributionKeepsPairOrder(t *testing.T) {
	el, err := NewEncoder().Encode(&models.Attribution{
		Attributes: []models.AttributePair{
			{Key: &models.Symbol{CD: "ecc", Name: "type"}, Value: &models.Symbol{CD: "ecc", Name: "real"}},
			{Key: &models.Symbol{CD: "meta", Name: "note"}, Value: &models.String{Value: "first"}},
		},
		Object: &models.Variable{Name: "v"},
	})
	require.NoError(t, err)

	assert.Equal(t,
		`<OMATTR><OMATP><OMS cd="ecc" name="type"/><OMS cd="ecc" name="real"/>`+
			`<OMS cd="meta" name="note"/><OMSTR>first</OMSTR></OMATP><OMV name="v"/></OMATTR>`,
		mustSerialize(t, el))
}

func TestEncoder_Binding(t *testing.T) {
	el, err := NewEncoder().Encode(&models.Binding{
		Binder: &models.Symbol{CD: "fns1", Name: "lambda"},
		Variables: []models.BoundVariable{
			&models.Variable{Name: "x"},
			&models.Attribution{
				Attributes: []models.AttributePair{
					{Key: &models.Symbol{CD: "ecc", Name: "type"}, Value: &models.Symbol{CD: "ecc", Name: "real"}},
				},
				Object: &models.Variable{Name: "y"},
			},
		},
		Object: &models.Variable{Name: "x"},
	})
	require.NoError(t, err)

	children := el.ChildElements()
	require.Len(t, children, 3)
	assert.Equal(t, "OMS", children[0].Tag)
	assert.Equal(t, "OMBVAR", children[1].Tag)
	assert.Equal(t, "OMV", children[2].Tag)

	vars := children[1].ChildElements()
	require.Len(t, vars, 2)
	assert.Equal(t, "OMV", vars[0].Tag)
	assert.Equal(t, "OMATTR", vars[1].Tag)
}

func TestEncoder_ObjectVersion(t *testing.T) {
	tests := []struct {
		name     string
		input    *models.Object
		expected string
	}{
		{
			name:     "version requested",
			input:    &models.Object{Version: "2.0", Object: &models.String{Value: "Hello world"}},
			expected: `<OMOBJ version="2.0"><OMSTR>Hello world</OMSTR></OMOBJ>`,
		},
		{
			name:     "no version",
			input:    &models.Object{Object: &models.Variable{Name: "x"}},
			expected: `<OMOBJ><OMV name="x"/></OMOBJ>`,
		},
		{
			name:     "cdbase",
			input:    &models.Object{CDBase: "http://example.org/cd", Object: &models.Variable{Name: "x"}},
			expected: `<OMOBJ cdbase="http://example.org/cd"><OMV name="x"/></OMOBJ>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			el, err := NewEncoder().Encode(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, mustSerialize(t, el))
		})
	}
}

func TestEncoder_Foreign(t *testing.T) {
	tests := []struct {
		name     string
		input    *models.Foreign
		expected string
	}{
		{
			name:     "text payload",
			input:    &models.Foreign{Encoding: "text/x-latex", Foreign: `\sin(x)`},
			expected: `<OMFOREIGN encoding="text/x-latex">\sin(x)</OMFOREIGN>`,
		},
		{
			name:     "no payload",
			input:    &models.Foreign{Encoding: "text/plain"},
			expected: `<OMFOREIGN encoding="text/plain"/>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			el, err := NewEncoder().Encode(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, mustSerialize(t, el))
		})
	}
}

func TestEncoder_StructuredForeignPayload(t *testing.T) {
	el, err := NewEncoder().Encode(&models.Foreign{ID: "f", Foreign: map[string]any{"a": 1}})
	require.NoError(t, err)
	assert.Equal(t, "f", el.SelectAttrValue("id", ""))
	assert.Equal(t, `{"a":1}`, el.Text())
}

func TestEncoder_MissingRequiredField(t *testing.T) {
	tests := []struct {
		name  string
		input models.Node
		field string
	}{
		{"application without applicant", &models.Application{}, "applicant"},
		{"binding without binder", &models.Binding{Object: &models.Variable{Name: "x"}}, "binder"},
		{"attribution without object", &models.Attribution{}, "object"},
		{"error without symbol", &models.Error{}, "error"},
		{"object without child", &models.Object{}, "object"},
		{"integer without value", &models.Integer{}, "integer"},
		{"non-finite float", &models.Float{Value: models.NativeFloat(math.Inf(1))}, "finite float"},
		{
			"pair without value",
			&models.Attribution{
				Attributes: []models.AttributePair{{Key: &models.Symbol{CD: "a", Name: "b"}}},
				Object:     &models.Variable{Name: "x"},
			},
			"attribute pair",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewEncoder().Encode(tt.input)
			require.Error(t, err)

			var encErr *EncodeError
			require.ErrorAs(t, err, &encErr)
			assert.Equal(t, tt.field, encErr.Field)
		})
	}
}

func TestEncoder_NilValues(t *testing.T) {
	tests := []struct {
		name  string
		input models.Node
		kind  models.Kind
	}{
		{
			"nil argument",
			&models.Application{
				Applicant: &models.Symbol{CD: "transc1", Name: "sin"},
				Arguments: []models.Element{(*models.Variable)(nil)},
			},
			models.KindVariable,
		},
		{
			"nil bound variable",
			&models.Binding{
				Binder:    &models.Symbol{CD: "fns1", Name: "lambda"},
				Variables: []models.BoundVariable{(*models.Variable)(nil)},
				Object:    &models.Variable{Name: "x"},
			},
			models.KindVariable,
		},
		{
			"nil attribute value",
			&models.Attribution{
				Attributes: []models.AttributePair{{Key: &models.Symbol{CD: "a", Name: "b"}, Value: (*models.String)(nil)}},
				Object:     &models.Variable{Name: "x"},
			},
			models.KindString,
		},
		{
			"nil error argument",
			&models.Error{
				Error:     &models.Symbol{CD: "aritherror", Name: "DivisionByZero"},
				Arguments: []models.Annotation{(*models.Foreign)(nil)},
			},
			models.KindForeign,
		},
		{"nil reference", (*models.Reference)(nil), models.KindReference},
		{"nil object", (*models.Object)(nil), models.KindObject},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var el *etree.Element
			var err error
			require.NotPanics(t, func() { el, err = ConvertToXML(tt.input) })
			assert.Nil(t, el)

			var encErr *EncodeError
			require.ErrorAs(t, err, &encErr)
			assert.Equal(t, tt.kind, encErr.Kind)
		})
	}
}

func TestConvertToXML_DeclaresNamespaceOnRootOnly(t *testing.T) {
	el, err := ConvertToXML(&models.Application{
		ID:        "a",
		Applicant: &models.Symbol{CD: "transc1", Name: "sin"},
		Arguments: []models.Element{&models.Variable{Name: "x"}},
	})
	require.NoError(t, err)

	require.NotEmpty(t, el.Attr)
	assert.Equal(t, "xmlns", el.Attr[0].Key)
	assert.Equal(t, Namespace, el.Attr[0].Value)
	assert.Equal(t,
		`<OMA xmlns="http://www.openmath.org/OpenMath" id="a"><OMS cd="transc1" name="sin"/><OMV name="x"/></OMA>`,
		mustSerialize(t, el))
}
