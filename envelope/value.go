package envelope

import "github.com/orion-udf/core/errs"

// Kind identifies the dynamic type carried by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindInt
	KindFloat
	KindString
	KindBool
	KindBlob
	KindObject
	KindArray
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	case KindBlob:
		return "blob"
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	default:
		return "unknown"
	}
}

// Object is a keyed collection of Values, the envelope's root shape and the
// shape of any nested document value.
type Object map[string]Value

// Array is an ordered collection of Values.
type Array []Value

// Value is a tagged union over the envelope's supported metadata types.
// The zero Value is KindNull. Only one of the typed fields is meaningful
// for a given Kind; callers should use the typed accessors below rather
// than reading fields directly.
type Value struct {
	kind Kind
	i    int64
	f    float64
	s    string
	b    bool
	blob *Blob
	obj  Object
	arr  Array
}

func (v Value) Kind() Kind { return v.kind }

func NullValue() Value              { return Value{kind: KindNull} }
func IntValue(i int64) Value        { return Value{kind: KindInt, i: i} }
func FloatValue(f float64) Value    { return Value{kind: KindFloat, f: f} }
func StringValue(s string) Value    { return Value{kind: KindString, s: s} }
func BoolValue(b bool) Value        { return Value{kind: KindBool, b: b} }
func ObjectValue(o Object) Value    { return Value{kind: KindObject, obj: o} }
func ArrayValue(a Array) Value      { return Value{kind: KindArray, arr: a} }

// BlobValue wraps a Blob descriptor. It does not retain the blob; callers
// that hand a blob to more than one Value are responsible for calling
// Blob.Retain themselves.
func BlobValue(b *Blob) Value { return Value{kind: KindBlob, blob: b} }

func (v Value) Int() (int64, error) {
	if v.kind != KindInt {
		return 0, errs.New(errs.FrameInvariantViolation, "value is not an int", nil)
	}
	return v.i, nil
}

func (v Value) Float() (float64, error) {
	if v.kind != KindFloat {
		return 0, errs.New(errs.FrameInvariantViolation, "value is not a float", nil)
	}
	return v.f, nil
}

func (v Value) String() (string, error) {
	if v.kind != KindString {
		return "", errs.New(errs.FrameInvariantViolation, "value is not a string", nil)
	}
	return v.s, nil
}

func (v Value) Bool() (bool, error) {
	if v.kind != KindBool {
		return false, errs.New(errs.FrameInvariantViolation, "value is not a bool", nil)
	}
	return v.b, nil
}

func (v Value) Blob() (*Blob, error) {
	if v.kind != KindBlob {
		return nil, errs.New(errs.FrameInvariantViolation, "value is not a blob", nil)
	}
	return v.blob, nil
}

func (v Value) Object() (Object, error) {
	if v.kind != KindObject {
		return nil, errs.New(errs.FrameInvariantViolation, "value is not an object", nil)
	}
	return v.obj, nil
}

func (v Value) Array() (Array, error) {
	if v.kind != KindArray {
		return nil, errs.New(errs.FrameInvariantViolation, "value is not an array", nil)
	}
	return v.arr, nil
}
