package params

import (
	"fmt"
	"strings"
)

// Kind is the declared type of a schema parameter.
type Kind int

const (
	KindInvalid Kind = iota
	KindInteger
	KindFloat
	KindBoolean
	KindString
	KindNull

	// KindRaw marks values copied through without a schema entry. It is never valid inside a Schema.
	KindRaw
)

var kindNames = map[Kind]string{
	KindInvalid: "invalid",
	KindInteger: "integer",
	KindFloat:   "float",
	KindBoolean: "boolean",
	KindString:  "string",
	KindNull:    "null",
	KindRaw:     "raw",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind accepts the type names used in schema files.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "int", "integer":
		return KindInteger, nil
	case "float", "double":
		return KindFloat, nil
	case "bool", "boolean":
		return KindBoolean, nil
	case "str", "string":
		return KindString, nil
	case "none", "null":
		return KindNull, nil
	default:
		return KindInvalid, fmt.Errorf("%w: %q", ErrUnsupportedParameterType, s)
	}
}
