package params

import (
	"strconv"
)

// Value is a parameter converted according to its Kind.
type Value struct {
	kind Kind
	null bool
	i    int64
	f    float64
	b    bool
	s    string
}

func IntValue(i int64) Value     { return Value{kind: KindInteger, i: i} }
func FloatValue(f float64) Value { return Value{kind: KindFloat, f: f} }
func BoolValue(b bool) Value     { return Value{kind: KindBoolean, b: b} }
func StringValue(s string) Value { return Value{kind: KindString, s: s} }
func RawValue(s string) Value    { return Value{kind: KindRaw, s: s} }
func NullValue(kind Kind) Value  { return Value{kind: kind, null: true} }

func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsNull() bool { return v.null }

// Interface returns the Go value handed to model constructors: int, float64, bool, string or nil.
func (v Value) Interface() any {
	if v.null {
		return nil
	}

	switch v.kind {
	case KindInteger:
		return int(v.i)
	case KindFloat:
		return v.f
	case KindBoolean:
		return v.b
	case KindString, KindRaw:
		return v.s
	default:
		return nil
	}
}

// String renders the value the way it is logged back to the tracker.
func (v Value) String() string {
	if v.null {
		return "None"
	}

	switch v.kind {
	case KindInteger:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindBoolean:
		if v.b {
			return "True"
		}
		return "False"
	default:
		return v.s
	}
}
