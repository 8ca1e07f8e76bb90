package models

// IntegerValue is exactly one representation of an Integer:
// NativeInteger, DecimalInteger or HexInteger.
type IntegerValue interface {
	integerValue()
}

// NativeInteger is an integer carried as a JSON number.
type NativeInteger int64

// DecimalInteger is an integer carried as a string of decimal digits,
// optionally signed, e.g. "-120". Used for values that do not fit in a
// NativeInteger.
type DecimalInteger string

// HexInteger is an integer carried in OpenMath hex notation, e.g. "x1E" or "-x78".
type HexInteger string

func (NativeInteger) integerValue()  {}
func (DecimalInteger) integerValue() {}
func (HexInteger) integerValue()     {}

// FloatValue is exactly one representation of a Float:
// NativeFloat, DecimalFloat or HexFloat.
type FloatValue interface {
	floatValue()
}

// NativeFloat is a float carried as a JSON number.
type NativeFloat float64

// DecimalFloat is a float carried in decimal notation, e.g. "1.0e-10".
type DecimalFloat string

// HexFloat is the IEEE 754 bit pattern of a float in hex, e.g. "3DDB7CDFD9D7BDBB".
type HexFloat string

func (NativeFloat) floatValue()  {}
func (DecimalFloat) floatValue() {}
func (HexFloat) floatValue()     {}

// ByteValue is exactly one representation of a Bytes payload:
// RawBytes or Base64Bytes.
type ByteValue interface {
	byteValue()
}

// RawBytes is a payload carried as a JSON array of byte values.
type RawBytes []byte

// Base64Bytes is a payload carried as a base64 string.
type Base64Bytes string

func (RawBytes) byteValue()    {}
func (Base64Bytes) byteValue() {}
