package model

import "time"

// PredictionType identifies which form produced a prediction.
type PredictionType string

// Prediction types as stored in the history collection.
const (
	PredictionImage   PredictionType = "Image"
	PredictionTabular PredictionType = "Tabular"
)

// IsValid checks if the prediction type is a known value.
func (t PredictionType) IsValid() bool {
	return t == PredictionImage || t == PredictionTabular
}

// PredictionRecord is a persisted outcome of one successful submission.
// Records are append-only.
type PredictionRecord struct {
	Timestamp time.Time      `json:"timestamp"`
	Data      *TabularSample `json:"data,omitempty"`
	ID        string         `json:"id"`
	Type      PredictionType `json:"type"`
	Result    string         `json:"result"`
}
