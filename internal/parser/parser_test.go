package parser

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseParams(t *testing.T) {
	expect := map[string]string{"max_depth": "10", "bootstrap": "True"}

	p, err := ParseJSONParams(strings.NewReader(`{"parameters": {"max_depth": "10", "bootstrap": "True"}}`))
	require.NoError(t, err)
	assert.Equal(t, expect, p)

	p, err = ParseYAMLParams(strings.NewReader("parameters:\n  max_depth: \"10\"\n  bootstrap: \"True\"\n"))
	require.NoError(t, err)
	assert.Equal(t, expect, p)

	_, err = ParseJSONParams(strings.NewReader(`{"parameters": `))
	assert.ErrorContains(t, err, "failed to parse JSON parameters")
}

func TestParseSchema(t *testing.T) {
	expect := map[string]string{"max_depth": "int", "criterion": "str"}

	s, err := ParseJSONSchema(strings.NewReader(`{"schema": {"max_depth": "int", "criterion": "str"}}`))
	require.NoError(t, err)
	assert.Equal(t, expect, s)

	s, err = ParseYAMLSchema(strings.NewReader("schema:\n  max_depth: int\n  criterion: str\n"))
	require.NoError(t, err)
	assert.Equal(t, expect, s)

	_, err = ParseYAMLSchema(strings.NewReader("schema: [1, 2"))
	assert.ErrorContains(t, err, "failed to parse YAML schema")
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()

	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
		return path
	}

	p, err := ParseParamsFile(write("params.yml", "parameters:\n  n_estimators: \"50\"\n"))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"n_estimators": "50"}, p)

	s, err := ParseSchemaFile(write("schema.JSON", `{"schema": {"n_estimators": "int"}}`))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"n_estimators": "int"}, s)

	_, err = ParseParamsFile(write("params.toml", ""))
	assert.ErrorContains(t, err, "unsupported file format: .toml")

	_, err = ParseSchemaFile(filepath.Join(dir, "missing.json"))
	assert.ErrorContains(t, err, "failed to open")
}
