package models

type ParametersFile struct {
	Parameters map[string]string `json:"parameters" yaml:"parameters"`
}

// SchemaFile maps parameter names to type names such as "int", "float", "bool", "str" or "none".
type SchemaFile struct {
	Schema map[string]string `json:"schema" yaml:"schema"`
}
