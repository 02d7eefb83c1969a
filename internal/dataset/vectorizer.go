package dataset

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"

	"github.com/sjwhitworth/golearn/base"
)

// Features is one record before vectorization. Values are either strings (one-hot encoded as
// "name=value") or numbers (kept as a single column named after the feature).
type Features map[string]any

var ErrNotFitted = errors.New("vectorizer is not fitted")

// DictVectorizer maps Features onto a fixed, sorted list of float columns.
type DictVectorizer struct {
	FeatureNames []string       `json:"feature_names"`
	Vocabulary   map[string]int `json:"vocabulary"`
}

func NewDictVectorizer() *DictVectorizer {
	return &DictVectorizer{}
}

func columnName(key string, value any) (string, float64, error) {
	switch v := value.(type) {
	case string:
		return key + "=" + v, 1, nil
	case float64:
		return key, v, nil
	case float32:
		return key, float64(v), nil
	case int:
		return key, float64(v), nil
	case int64:
		return key, float64(v), nil
	case bool:
		if v {
			return key, 1, nil
		}
		return key, 0, nil
	default:
		return "", 0, fmt.Errorf("unsupported value %v of type %T for feature %s", value, value, key)
	}
}

// Fit learns the column vocabulary from records.
func (dv *DictVectorizer) Fit(records []Features) error {
	seen := make(map[string]struct{})
	for _, record := range records {
		for k, v := range record {
			name, _, err := columnName(k, v)
			if err != nil {
				return err
			}
			seen[name] = struct{}{}
		}
	}

	dv.FeatureNames = make([]string, 0, len(seen))
	for name := range seen {
		dv.FeatureNames = append(dv.FeatureNames, name)
	}
	sort.Strings(dv.FeatureNames)

	dv.Vocabulary = make(map[string]int, len(dv.FeatureNames))
	for i, name := range dv.FeatureNames {
		dv.Vocabulary[name] = i
	}
	return nil
}

// Transform turns records into dense rows. Columns unseen during Fit are dropped.
func (dv *DictVectorizer) Transform(records []Features) ([][]float64, error) {
	if len(dv.FeatureNames) == 0 {
		return nil, ErrNotFitted
	}

	X := make([][]float64, len(records))
	for i, record := range records {
		row := make([]float64, len(dv.FeatureNames))
		for k, v := range record {
			name, value, err := columnName(k, v)
			if err != nil {
				return nil, err
			}
			if idx, ok := dv.Vocabulary[name]; ok {
				row[idx] = value
			}
		}
		X[i] = row
	}
	return X, nil
}

// TransformGrid vectorizes records into a grid ready for Predict or Fit. y may be nil.
func (dv *DictVectorizer) TransformGrid(records []Features, y []float64) (*base.DenseInstances, error) {
	X, err := dv.Transform(records)
	if err != nil {
		return nil, err
	}
	return NewGrid(dv.FeatureNames, X, y)
}

func (dv *DictVectorizer) Save(w io.Writer) error {
	if err := json.NewEncoder(w).Encode(dv); err != nil {
		return fmt.Errorf("failed to encode vectorizer: %w", err)
	}
	return nil
}

func (dv *DictVectorizer) SaveFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	return dv.Save(f)
}

func LoadVectorizer(r io.Reader) (*DictVectorizer, error) {
	dv := NewDictVectorizer()
	if err := json.NewDecoder(r).Decode(dv); err != nil {
		return nil, fmt.Errorf("failed to decode vectorizer: %w", err)
	}
	if len(dv.FeatureNames) == 0 {
		return nil, ErrNotFitted
	}

	dv.Vocabulary = make(map[string]int, len(dv.FeatureNames))
	for i, name := range dv.FeatureNames {
		dv.Vocabulary[name] = i
	}
	return dv, nil
}

func LoadVectorizerFile(path string) (*DictVectorizer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	return LoadVectorizer(f)
}

// RideFeatures builds the feature record of a single trip: the pickup/dropoff pair and the distance.
func RideFeatures(puLocationID, doLocationID string, tripDistance float64) Features {
	return Features{
		"PU_DO":         puLocationID + "_" + doLocationID,
		"trip_distance": tripDistance,
	}
}

// LocationID renders a location id the way the trip files are keyed, "-1" when missing.
func LocationID(raw string) string {
	if raw == "" {
		return "-1"
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return strconv.Itoa(int(f))
	}
	return raw
}
