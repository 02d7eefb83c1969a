package params

import (
	"strconv"
	"strings"
)

// Normalize converts the string params of a run according to schema.
//
// Integer and float values accept the case-insensitive literal "none" as null. A boolean is true only
// for the exact string "True". Null kinds always yield null. Params without a schema entry are copied
// as raw strings and schema entries without a param are omitted. A schema holding an unrecognized
// kind is rejected before any conversion.
func Normalize(raw map[string]string, schema Schema) (Params, error) {
	if err := schema.Validate(); err != nil {
		return nil, err
	}

	out := make(Params, len(raw))
	for name, value := range raw {
		kind, ok := schema[name]
		if !ok {
			out[name] = RawValue(value)
			continue
		}

		v, err := convert(name, value, kind)
		if err != nil {
			return nil, err
		}
		out[name] = v
	}

	return out, nil
}

func convert(name, value string, kind Kind) (Value, error) {
	switch kind {
	case KindInteger:
		if isNone(value) {
			return NullValue(KindInteger), nil
		}
		i, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		if err != nil {
			return Value{}, &FormatError{Name: name, Value: value, Kind: kind, Err: err}
		}
		return IntValue(i), nil
	case KindFloat:
		if isNone(value) {
			return NullValue(KindFloat), nil
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return Value{}, &FormatError{Name: name, Value: value, Kind: kind, Err: err}
		}
		return FloatValue(f), nil
	case KindBoolean:
		return BoolValue(value == "True"), nil
	case KindString:
		return StringValue(value), nil
	case KindNull:
		return NullValue(KindNull), nil
	default:
		return Value{}, &UnsupportedTypeError{Name: name, Kind: kind}
	}
}

func isNone(value string) bool {
	return strings.EqualFold(value, "none")
}
