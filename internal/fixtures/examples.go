package fixtures

import "github.com/mcncl/omconv/internal/models"

// Catalogue lists every fixture pair shipped in testdata/fixtures.
func Catalogue() []Fixture {
	return []Fixture{
		Declare("omi/10_int", "Integer 10", "OMI"),
		Declare(">omi/10_dec", "Decimal 10", "OMI"),
		Declare("omi/10_hex", "Hexadecimal 10", "OMI"),
		Declare("omi/-120_int", "Integer -120", "OMI"),
		Declare(">omi/-120_dec", "Decimal -120", "OMI"),
		Declare("omi/-120_hex", "Hexadecimal -120", "OMI"),
		Declare("omi/big_dec", "Decimal beyond 64 bits", "OMI"),

		Declare("oms/sin", "sin symbol", "OMS"),
		Declare("omv/x", "variable x", "OMV"),

		Declare(">omf/1e-10_float", "Float 1e-10", "OMF"),
		Declare("omf/1e-10_dec", "Decimal float 1e-10", "OMF"),
		Declare("omf/1e-10_hex", "Hexadecimal float 1e-10", "OMF"),

		Declare(">omb/hello_bytes", "hello world as bytes", "OMB"),
		Declare("omb/hello_base64", "hello world as base64", "OMB"),

		Declare("omstr/hello", "Hello world string", "OMSTR"),

		Declare("oma/sin_x", "sin(x)", "OMA"),
		Declare("oma/f_no_args", "f()", "OMA"),

		Declare("ombind/lambda", "lambda x: sin(x)", "OMBIND"),
		Declare("ombind/attvar", "lambda with attributed variable", "OMBIND"),

		Declare("omattr/type", "x of type real", "OMATTR"),
		Declare("omattr/presentation", "sin(x) with latex presentation", "OMATTR"),

		Declare("ome/division_by_zero", "division by zero error", "OME"),

		Declare("omforeign/latex", "latex foreign object", "OMFOREIGN"),
		Declare("omr/t1", "reference to t1", "OMR"),

		Declare("omobj/hello", "OpenMath 2.0 object", "OMOBJ"),
		Declare("omobj/reffed", "object with structure sharing", "OMOBJ"),
	}
}

// Example is a named sample value.
type Example struct {
	Name  string
	Value models.Node
}

// Examples returns freshly built sample values covering every variant.
func Examples() []Example {
	return []Example{
		{"symbol", SymbolSin()},
		{"variable", &models.Variable{Name: "x"}},
		{"float-native", &models.Float{Value: models.NativeFloat(1e-10)}},
		{"float-decimal", &models.Float{Value: models.DecimalFloat("1.0e-10")}},
		{"float-hex", &models.Float{Value: models.HexFloat("3DDB7CDFD9D7BDBB")}},
		{"string", &models.String{Value: "Hello world"}},
		{"bytes-native", &models.Bytes{Value: models.RawBytes("hello world")}},
		{"bytes-base64", &models.Bytes{Value: models.Base64Bytes("aGVsbG8gd29ybGQ=")}},
		{"application", SinOf("x")},
		{"binding", Lambda()},
		{"attribution", TypedVariable()},
		{"attribution-foreign", PresentedSin()},
		{"error", DivisionByZero()},
		{"object", &models.Object{
			Version: "2.0",
			Object:  &models.String{Value: "Hello world"},
		}},
		{"reference", SharedTerm()},
	}
}

// SymbolSin is the transc1 sine symbol.
func SymbolSin() *models.Symbol {
	return &models.Symbol{CDBase: "http://www.openmath.org/cd", CD: "transc1", Name: "sin"}
}

// SinOf applies transc1.sin to the named variable.
func SinOf(name string) *models.Application {
	return &models.Application{
		Applicant: SymbolSin(),
		Arguments: []models.Element{&models.Variable{Name: name}},
	}
}

// Lambda is lambda x: sin(x).
func Lambda() *models.Binding {
	return &models.Binding{
		Binder:    &models.Symbol{CD: "fns1", Name: "lambda"},
		Variables: []models.BoundVariable{&models.Variable{Name: "x"}},
		Object:    SinOf("x"),
	}
}

// TypedVariable is x attributed with type real.
func TypedVariable() *models.Attribution {
	return &models.Attribution{
		Attributes: []models.AttributePair{{
			Key:   &models.Symbol{CD: "ecc", Name: "type"},
			Value: &models.Symbol{CD: "ecc", Name: "real"},
		}},
		Object: &models.Variable{Name: "x"},
	}
}

// PresentedSin is sin(x) attributed with a LaTeX rendering.
func PresentedSin() *models.Attribution {
	return &models.Attribution{
		Attributes: []models.AttributePair{{
			Key:   &models.Symbol{CD: "annotations1", Name: "presentation-form"},
			Value: &models.Foreign{Encoding: "text/x-latex", Foreign: `\sin(x)`},
		}},
		Object: SinOf("x"),
	}
}

// DivisionByZero is the error raised by x/0.
func DivisionByZero() *models.Error {
	return &models.Error{
		Error: &models.Symbol{CD: "aritherror", Name: "DivisionByZero"},
		Arguments: []models.Annotation{
			&models.Application{
				Applicant: &models.Symbol{CD: "arith1", Name: "divide"},
				Arguments: []models.Element{
					&models.Variable{Name: "x"},
					&models.Integer{Value: models.NativeInteger(0)},
				},
			},
		},
	}
}

// SharedTerm is f(f(f(a, a), f(a, a)), f(f(a, a), f(a, a))) written with
// structure sharing.
func SharedTerm() *models.Object {
	f := func() *models.Variable { return &models.Variable{Name: "f"} }
	return &models.Object{
		Object: &models.Application{
			Applicant: f(),
			Arguments: []models.Element{
				&models.Application{
					ID:        "t1",
					Applicant: f(),
					Arguments: []models.Element{
						&models.Application{
							ID:        "t11",
							Applicant: f(),
							Arguments: []models.Element{
								&models.Variable{Name: "a"},
								&models.Variable{Name: "a"},
							},
						},
						&models.Reference{Href: "#t11"},
					},
				},
				&models.Reference{Href: "#t1"},
			},
		},
	}
}
