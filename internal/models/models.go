// Package models defines the OpenMath element grammar shared by the JSON and
// XML encodings.
package models

// Kind is the discriminator carried by every OpenMath value in its "kind" field.
type Kind string

// Known kinds. The XML element of each variant carries the same name.
const (
	KindObject      Kind = "OMOBJ"
	KindSymbol      Kind = "OMS"
	KindVariable    Kind = "OMV"
	KindInteger     Kind = "OMI"
	KindFloat       Kind = "OMF"
	KindBytes       Kind = "OMB"
	KindString      Kind = "OMSTR"
	KindApplication Kind = "OMA"
	KindBinding     Kind = "OMBIND"
	KindAttribution Kind = "OMATTR"
	KindError       Kind = "OME"
	KindForeign     Kind = "OMFOREIGN"
	KindReference   Kind = "OMR"
)

// Kinds returns every known kind in grammar order.
func Kinds() []Kind {
	return []Kind{
		KindObject, KindSymbol, KindVariable, KindInteger, KindFloat,
		KindBytes, KindString, KindApplication, KindBinding, KindAttribution,
		KindError, KindForeign, KindReference,
	}
}

// Valid reports whether k names a known variant.
func (k Kind) Valid() bool {
	for _, known := range Kinds() {
		if k == known {
			return true
		}
	}
	return false
}

// Node is any OpenMath value (the "omany" union).
type Node interface {
	Kind() Kind
	node()
}

// Element is a value that may appear inside an object (the "omel" union):
// every variant except Object and Foreign.
type Element interface {
	Node
	Annotation
	element()
}

// Annotation is the value side of an attribution pair and the type of an
// error argument: an Element or a Foreign payload.
type Annotation interface {
	Node
	annotation()
}

// BoundVariable is an entry in a binding's variable list: a plain Variable or
// an Attribution whose subject is a Variable.
type BoundVariable interface {
	Element
	boundVariable()
}

// Object is the top-level OpenMath object wrapper.
type Object struct {
	// Version is "2.0" when the wrapper requests the format-version tag,
	// empty otherwise.
	Version string
	CDBase  string
	Object  Element
}

// Symbol references a named concept in a content dictionary.
type Symbol struct {
	ID     string
	CDBase string
	CD     string
	Name   string
}

// Variable is a bound or free identifier.
type Variable struct {
	ID   string
	Name string
}

// Integer is an arbitrary-precision integer.
type Integer struct {
	ID    string
	Value IntegerValue
}

// Float is an IEEE floating-point number.
type Float struct {
	ID    string
	Value FloatValue
}

// Bytes is a raw binary payload.
type Bytes struct {
	ID    string
	Value ByteValue
}

// String is a text literal.
type String struct {
	ID    string
	Value string
}

// Application applies an applicant to an ordered list of arguments.
type Application struct {
	ID        string
	CDBase    string
	Applicant Element
	Arguments []Element
}

// Binding binds Variables in Object using Binder.
type Binding struct {
	ID        string
	CDBase    string
	Binder    Element
	Variables []BoundVariable
	Object    Element
}

// AttributePair is a single (key, value) entry of an Attribution.
type AttributePair struct {
	Key   *Symbol
	Value Annotation
}

// Attribution attaches key/value metadata to Object.
type Attribution struct {
	ID         string
	CDBase     string
	Attributes []AttributePair
	Object     Element
}

// Error signals an evaluation error named by Error.
type Error struct {
	ID        string
	Error     *Symbol
	Arguments []Annotation
}

// Foreign is an opaque non-OpenMath payload. Foreign holds any JSON value;
// payloads decoded from XML are always strings.
type Foreign struct {
	ID       string
	CDBase   string
	Encoding string
	Foreign  any
}

// Reference points at another element of the same structure by its id.
type Reference struct {
	Href string
}

func (*Object) Kind() Kind      { return KindObject }
func (*Symbol) Kind() Kind      { return KindSymbol }
func (*Variable) Kind() Kind    { return KindVariable }
func (*Integer) Kind() Kind     { return KindInteger }
func (*Float) Kind() Kind       { return KindFloat }
func (*Bytes) Kind() Kind       { return KindBytes }
func (*String) Kind() Kind      { return KindString }
func (*Application) Kind() Kind { return KindApplication }
func (*Binding) Kind() Kind     { return KindBinding }
func (*Attribution) Kind() Kind { return KindAttribution }
func (*Error) Kind() Kind       { return KindError }
func (*Foreign) Kind() Kind     { return KindForeign }
func (*Reference) Kind() Kind   { return KindReference }

func (*Object) node()      {}
func (*Symbol) node()      {}
func (*Variable) node()    {}
func (*Integer) node()     {}
func (*Float) node()       {}
func (*Bytes) node()       {}
func (*String) node()      {}
func (*Application) node() {}
func (*Binding) node()     {}
func (*Attribution) node() {}
func (*Error) node()       {}
func (*Foreign) node()     {}
func (*Reference) node()   {}

func (*Symbol) element()      {}
func (*Variable) element()    {}
func (*Integer) element()     {}
func (*Float) element()       {}
func (*Bytes) element()       {}
func (*String) element()      {}
func (*Application) element() {}
func (*Binding) element()     {}
func (*Attribution) element() {}
func (*Error) element()       {}
func (*Reference) element()   {}

func (*Symbol) annotation()      {}
func (*Variable) annotation()    {}
func (*Integer) annotation()     {}
func (*Float) annotation()       {}
func (*Bytes) annotation()       {}
func (*String) annotation()      {}
func (*Application) annotation() {}
func (*Binding) annotation()     {}
func (*Attribution) annotation() {}
func (*Error) annotation()       {}
func (*Reference) annotation()   {}
func (*Foreign) annotation()     {}

func (*Variable) boundVariable()    {}
func (*Attribution) boundVariable() {}
