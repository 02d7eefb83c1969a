package regressor

import (
	"encoding/json"
	"fmt"
	"io"
)

type envelope struct {
	Kind  string          `json:"kind"`
	Model json.RawMessage `json:"model"`
}

// Save writes a fitted model as a JSON document tagged with its kind.
func Save(w io.Writer, model Regressor) error {
	data, err := json.Marshal(model)
	if err != nil {
		return fmt.Errorf("failed to encode %s model: %w", model.Kind(), err)
	}

	if err := json.NewEncoder(w).Encode(envelope{Kind: model.Kind(), Model: data}); err != nil {
		return fmt.Errorf("failed to write model: %w", err)
	}
	return nil
}

// Load reads a model written by Save.
func Load(r io.Reader) (Regressor, error) {
	var env envelope
	if err := json.NewDecoder(r).Decode(&env); err != nil {
		return nil, fmt.Errorf("failed to decode model: %w", err)
	}

	var model Regressor
	switch env.Kind {
	case KindRandomForest:
		model = &RandomForest{}
	case KindLinearRegression:
		model = &LinearRegression{}
	default:
		return nil, fmt.Errorf("unknown model kind %q", env.Kind)
	}

	if err := json.Unmarshal(env.Model, model); err != nil {
		return nil, fmt.Errorf("failed to decode %s model: %w", env.Kind, err)
	}
	return model, nil
}
