package parser

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

type decodeFunc func(io.Reader) (map[string]string, error)

// ParseParamsFile reads a parameters file, choosing the format from the extension.
func ParseParamsFile(path string) (map[string]string, error) {
	return parseFile(path, ParseJSONParams, ParseYAMLParams)
}

// ParseSchemaFile reads a parameter schema file, choosing the format from the extension.
func ParseSchemaFile(path string) (map[string]string, error) {
	return parseFile(path, ParseJSONSchema, ParseYAMLSchema)
}

func parseFile(path string, jsonDecode, yamlDecode decodeFunc) (map[string]string, error) {
	var decode decodeFunc
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		decode = jsonDecode
	case ".yaml", ".yml":
		decode = yamlDecode
	default:
		return nil, fmt.Errorf("unsupported file format: %s (expected .json, .yaml or .yml)", ext)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	return decode(f)
}
