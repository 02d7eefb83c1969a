package parser

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/imishinist/mlops-pipeline/internal/models"
)

func ParseJSONParams(reader io.Reader) (map[string]string, error) {
	var data models.ParametersFile
	decoder := json.NewDecoder(reader)

	if err := decoder.Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to parse JSON parameters: %w", err)
	}

	return data.Parameters, nil
}

func ParseJSONSchema(reader io.Reader) (map[string]string, error) {
	var data models.SchemaFile
	decoder := json.NewDecoder(reader)

	if err := decoder.Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to parse JSON schema: %w", err)
	}

	return data.Schema, nil
}
