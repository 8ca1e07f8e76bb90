package convert

import (
	"errors"
	"testing"

	"github.com/beevik/etree"
	"github.com/mcncl/omconv/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, xml string) *etree.Element {
	t.Helper()
	el, err := ParseElement([]byte(xml))
	require.NoError(t, err)
	return el
}

func TestDecoder_Integer(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected models.IntegerValue
	}{
		{"native", `<OMI>10</OMI>`, models.NativeInteger(10)},
		{"negative native", `<OMI>-120</OMI>`, models.NativeInteger(-120)},
		{"surrounding whitespace", `<OMI> 10 </OMI>`, models.NativeInteger(10)},
		{"hexadecimal", `<OMI>x1E</OMI>`, models.HexInteger("x1E")},
		{"negative hexadecimal", `<OMI>-x78</OMI>`, models.HexInteger("-x78")},
		{"beyond 64 bits", `<OMI>123456789012345678901234567890</OMI>`, models.DecimalInteger("123456789012345678901234567890")},
		{"malformed literal", `<OMI>1e3</OMI>`, models.DecimalInteger("1e3")},
		{"empty", `<OMI></OMI>`, models.NativeInteger(0)},
		{"self-closing", `<OMI/>`, models.NativeInteger(0)},
		{"blank", `<OMI>  </OMI>`, models.NativeInteger(0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node, err := NewDecoder().Decode(mustParse(t, tt.input))
			require.NoError(t, err)

			i, ok := node.(*models.Integer)
			require.True(t, ok, "expected *models.Integer, got %T", node)
			assert.Equal(t, tt.expected, i.Value)
		})
	}
}

func TestDecoder_Float(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected models.FloatValue
		wantErr  bool
	}{
		{name: "decimal", input: `<OMF dec="1.0e-10"/>`, expected: models.DecimalFloat("1.0e-10")},
		{name: "hexadecimal", input: `<OMF hex="3DDB7CDFD9D7BDBB"/>`, expected: models.HexFloat("3DDB7CDFD9D7BDBB")},
		{name: "decimal wins", input: `<OMF hex="3DDB7CDFD9D7BDBB" dec="1e-10"/>`, expected: models.DecimalFloat("1e-10")},
		{name: "no value", input: `<OMF/>`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node, err := NewDecoder().Decode(mustParse(t, tt.input))
			if tt.wantErr {
				var structErr *StructureError
				require.ErrorAs(t, err, &structErr)
				assert.Equal(t, models.KindFloat, structErr.Kind)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, node.(*models.Float).Value)
		})
	}
}

func TestDecoder_BytesAlwaysBase64(t *testing.T) {
	node, err := NewDecoder().Decode(mustParse(t, "<OMB>\n  aGVsbG8gd29ybGQ=\n</OMB>"))
	require.NoError(t, err)
	assert.Equal(t, &models.Bytes{Value: models.Base64Bytes("aGVsbG8gd29ybGQ=")}, node)
}

func TestDecoder_ObjectVersionNormalized(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"2.0", `<OMOBJ version="2.0"><OMV name="x"/></OMOBJ>`, "2.0"},
		{"any value", `<OMOBJ version="1.1"><OMV name="x"/></OMOBJ>`, "2.0"},
		{"absent", `<OMOBJ><OMV name="x"/></OMOBJ>`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node, err := NewDecoder().Decode(mustParse(t, tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, node.(*models.Object).Version)
		})
	}
}

func TestDecoder_IgnoresNamespaceDeclarations(t *testing.T) {
	node, err := NewDecoder().Decode(mustParse(t,
		`<OMS xmlns="http://www.openmath.org/OpenMath" xmlns:om="http://www.openmath.org/OpenMath" cd="transc1" name="sin"/>`))
	require.NoError(t, err)
	assert.Equal(t, &models.Symbol{CD: "transc1", Name: "sin"}, node)
}

func TestDecoder_TagsAreCaseInsensitive(t *testing.T) {
	node, err := NewDecoder().Decode(mustParse(t, `<oma><oms cd="transc1" name="sin"/><omv name="x"/></oma>`))
	require.NoError(t, err)

	app, ok := node.(*models.Application)
	require.True(t, ok)
	assert.Equal(t, &models.Symbol{CD: "transc1", Name: "sin"}, app.Applicant)
	assert.Equal(t, []models.Element{&models.Variable{Name: "x"}}, app.Arguments)
}

func TestDecoder_ApplicationWithoutArguments(t *testing.T) {
	node, err := NewDecoder().Decode(mustParse(t, `<OMA><OMV name="f"/></OMA>`))
	require.NoError(t, err)
	assert.Nil(t, node.(*models.Application).Arguments)
}

func TestDecoder_BindingVariables(t *testing.T) {
	node, err := NewDecoder().Decode(mustParse(t,
		`<OMBIND><OMS cd="fns1" name="lambda"/><OMBVAR><OMV name="x"/>`+
			`<OMATTR><OMATP><OMS cd="ecc" name="type"/><OMS cd="ecc" name="real"/></OMATP><OMV name="y"/></OMATTR>`+
			`</OMBVAR><OMV name="x"/></OMBIND>`))
	require.NoError(t, err)

	b := node.(*models.Binding)
	require.Len(t, b.Variables, 2)
	assert.Equal(t, &models.Variable{Name: "x"}, b.Variables[0])

	attr, ok := b.Variables[1].(*models.Attribution)
	require.True(t, ok)
	assert.Equal(t, &models.Variable{Name: "y"}, attr.Object)
}

func TestDecoder_AttributionPairs(t *testing.T) {
	odd := `<OMATTR><OMATP><OMS cd="ecc" name="type"/><OMS cd="ecc" name="real"/>` +
		`<OMS cd="meta" name="dangling"/></OMATP><OMV name="x"/></OMATTR>`

	t.Run("lenient drops trailing child", func(t *testing.T) {
		node, err := NewDecoder().Decode(mustParse(t, odd))
		require.NoError(t, err)

		attrs := node.(*models.Attribution).Attributes
		require.Len(t, attrs, 1)
		assert.Equal(t, &models.Symbol{CD: "ecc", Name: "type"}, attrs[0].Key)
		assert.Equal(t, &models.Symbol{CD: "ecc", Name: "real"}, attrs[0].Value)
	})

	t.Run("strict rejects trailing child", func(t *testing.T) {
		dec := &Decoder{StrictPairs: true}
		_, err := dec.Decode(mustParse(t, odd))

		var structErr *StructureError
		require.ErrorAs(t, err, &structErr)
		assert.Equal(t, models.KindAttribution, structErr.Kind)
	})

	t.Run("order is kept", func(t *testing.T) {
		node, err := NewDecoder().Decode(mustParse(t,
			`<OMATTR><OMATP><OMS cd="a" name="one"/><OMSTR>1</OMSTR>`+
				`<OMS cd="a" name="two"/><OMFOREIGN>2</OMFOREIGN></OMATP><OMV name="x"/></OMATTR>`))
		require.NoError(t, err)

		attrs := node.(*models.Attribution).Attributes
		require.Len(t, attrs, 2)
		assert.Equal(t, "one", attrs[0].Key.Name)
		assert.Equal(t, &models.String{Value: "1"}, attrs[0].Value)
		assert.Equal(t, "two", attrs[1].Key.Name)
		assert.Equal(t, &models.Foreign{Foreign: "2"}, attrs[1].Value)
	})
}

func TestDecoder_Foreign(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"text", `<OMFOREIGN encoding="text/x-latex">\sin(x)</OMFOREIGN>`, `\sin(x)`},
		{"markup", `<OMFOREIGN encoding="text/html"><b>bold</b></OMFOREIGN>`, `<b>bold</b>`},
		{"empty", `<OMFOREIGN encoding="text/plain"/>`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node, err := NewDecoder().Decode(mustParse(t, tt.input))
			require.NoError(t, err)

			f, ok := node.(*models.Foreign)
			require.True(t, ok)
			assert.Equal(t, tt.expected, f.Foreign)
		})
	}
}

func TestDecoder_ErrorArguments(t *testing.T) {
	node, err := NewDecoder().Decode(mustParse(t,
		`<OME><OMS cd="aritherror" name="DivisionByZero"/><OMV name="x"/><OMFOREIGN>note</OMFOREIGN></OME>`))
	require.NoError(t, err)

	e := node.(*models.Error)
	assert.Equal(t, "DivisionByZero", e.Error.Name)
	assert.Equal(t, []models.Annotation{
		&models.Variable{Name: "x"},
		&models.Foreign{Foreign: "note"},
	}, e.Arguments)
}

func TestDecoder_Mismatch(t *testing.T) {
	_, err := NewDecoder().decodeSymbol(mustParse(t, `<OMV name="x"/>`))
	require.Error(t, err)

	var mismatch *MismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "OMS", mismatch.Expected)
	assert.Equal(t, "OMV", mismatch.Actual)
	assert.Contains(t, err.Error(), "OMS")
	assert.Contains(t, err.Error(), "OMV")
}

func TestDecoder_StructureErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		kind  models.Kind
	}{
		{"application without children", `<OMA/>`, models.KindApplication},
		{"binding with two children", `<OMBIND><OMS cd="fns1" name="lambda"/><OMBVAR/></OMBIND>`, models.KindBinding},
		{"attribution with one child", `<OMATTR><OMATP/></OMATTR>`, models.KindAttribution},
		{"error without children", `<OME/>`, models.KindError},
		{"object without children", `<OMOBJ/>`, models.KindObject},
		{"symbol without cd", `<OMS name="sin"/>`, models.KindSymbol},
		{"variable without name", `<OMV/>`, models.KindVariable},
		{"reference without href", `<OMR/>`, models.KindReference},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDecoder().Decode(mustParse(t, tt.input))

			var structErr *StructureError
			require.ErrorAs(t, err, &structErr)
			assert.Equal(t, tt.kind, structErr.Kind)
		})
	}
}

func TestDecoder_WrongWrapper(t *testing.T) {
	_, err := NewDecoder().Decode(mustParse(t,
		`<OMBIND><OMS cd="fns1" name="lambda"/><OMATP/><OMV name="x"/></OMBIND>`))

	var mismatch *MismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "OMBVAR", mismatch.Expected)
}

func TestDecoder_UnknownElement(t *testing.T) {
	_, err := NewDecoder().Decode(mustParse(t, `<math><mi>x</mi></math>`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidInput))
	assert.Contains(t, err.Error(), "math")
}

func TestDecoder_NilElement(t *testing.T) {
	_, err := NewDecoder().Decode(nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
}
