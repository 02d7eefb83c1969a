package models

import (
	"fmt"
	"strings"
	"time"
)

// TripDateTimeLayout is the timestamp layout of the taxi trip record files.
const TripDateTimeLayout = "2006-01-02 15:04:05"

// DateTime is a trip timestamp as written in the trip record files.
type DateTime struct {
	time.Time
}

// UnmarshalCSV accepts both the trip file layout and RFC3339.
func (d *DateTime) UnmarshalCSV(s string) error {
	s = strings.TrimSpace(s)
	for _, layout := range []string{TripDateTimeLayout, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			d.Time = t
			return nil
		}
	}
	return fmt.Errorf("invalid trip timestamp: %q", s)
}

func (d DateTime) MarshalCSV() (string, error) {
	return d.Format(TripDateTimeLayout), nil
}

// TripRecord is one row of a yellow taxi trip record file.
type TripRecord struct {
	PickupDateTime  DateTime `csv:"tpep_pickup_datetime"`
	DropoffDateTime DateTime `csv:"tpep_dropoff_datetime"`
	PULocationID    string   `csv:"PULocationID"`
	DOLocationID    string   `csv:"DOLocationID"`
	TripDistance    float64  `csv:"trip_distance"`
}

// Duration returns the trip duration in minutes.
func (r *TripRecord) Duration() float64 {
	return r.DropoffDateTime.Sub(r.PickupDateTime.Time).Minutes()
}

// Ride is the body accepted by the prediction endpoint.
type Ride struct {
	PULocationID int     `json:"PULocationID"`
	DOLocationID int     `json:"DOLocationID"`
	TripDistance float64 `json:"trip_distance"`
}

// Prediction is the body returned by the prediction endpoint.
type Prediction struct {
	Duration     float64 `json:"duration"`
	ModelVersion string  `json:"model_version"`
}

// ScoredRide is one row of a batch scoring output file.
type ScoredRide struct {
	RideID            string  `csv:"ride_id"`
	PredictedDuration float64 `csv:"predicted_duration"`
}
