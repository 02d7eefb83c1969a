package params

import (
	"fmt"
	"sort"
)

// Schema maps a parameter name to its declared kind.
type Schema map[string]Kind

// DefaultSchema covers the hyperparameters of the random forest regressor.
var DefaultSchema = Schema{
	"bootstrap":                KindBoolean,
	"ccp_alpha":                KindFloat,
	"criterion":                KindString,
	"max_depth":                KindInteger,
	"max_features":             KindFloat,
	"max_leaf_nodes":           KindInteger,
	"max_samples":              KindFloat,
	"min_impurity_decrease":    KindFloat,
	"min_samples_leaf":         KindInteger,
	"min_samples_split":        KindInteger,
	"min_weight_fraction_leaf": KindFloat,
	"monotonic_cst":            KindNull,
	"n_estimators":             KindInteger,
	"n_jobs":                   KindInteger,
	"oob_score":                KindBoolean,
	"random_state":             KindInteger,
	"verbose":                  KindInteger,
	"warm_start":               KindBoolean,
}

// NewSchema builds a Schema from type names, e.g. the content of a schema file.
func NewSchema(types map[string]string) (Schema, error) {
	schema := make(Schema, len(types))
	for name, typ := range types {
		kind, err := ParseKind(typ)
		if err != nil {
			return nil, fmt.Errorf("parameter %s: %w", name, err)
		}
		schema[name] = kind
	}
	return schema, nil
}

// Validate rejects kinds outside the recognized set, reporting the first offending name in sorted order.
func (s Schema) Validate() error {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		switch s[name] {
		case KindInteger, KindFloat, KindBoolean, KindString, KindNull:
		default:
			return &UnsupportedTypeError{Name: name, Kind: s[name]}
		}
	}
	return nil
}

// Params is the result of Normalize.
type Params map[string]Value

// Map converts the params into the untyped form consumed by model constructors.
func (p Params) Map() map[string]any {
	m := make(map[string]any, len(p))
	for k, v := range p {
		m[k] = v.Interface()
	}
	return m
}

// Strings renders every value back to its logged string form.
func (p Params) Strings() map[string]string {
	m := make(map[string]string, len(p))
	for k, v := range p {
		m[k] = v.String()
	}
	return m
}

// Keys returns the parameter names in sorted order.
func (p Params) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
