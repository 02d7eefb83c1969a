package params

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// CoerceIntegers returns a copy of p in which each of names holds an integer. Integers are kept,
// integral floats and integer strings are converted, and anything else, null included, is a
// FormatError. Names missing from p are ignored.
func (p Params) CoerceIntegers(names ...string) (Params, error) {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}

	for _, name := range names {
		v, ok := p[name]
		if !ok {
			continue
		}

		i, err := toInteger(v)
		if err != nil {
			return nil, &FormatError{Name: name, Value: v.String(), Kind: KindInteger, Err: err}
		}
		out[name] = IntValue(i)
	}
	return out, nil
}

func toInteger(v Value) (int64, error) {
	if v.null {
		return 0, errors.New("null is not an integer")
	}

	switch v.kind {
	case KindInteger:
		return v.i, nil
	case KindFloat:
		if math.IsNaN(v.f) || math.IsInf(v.f, 0) || v.f != math.Trunc(v.f) {
			return 0, errors.New("not an integral number")
		}
		return int64(v.f), nil
	case KindString, KindRaw:
		return strconv.ParseInt(strings.TrimSpace(v.s), 10, 64)
	default:
		return 0, errors.New("not a number")
	}
}
