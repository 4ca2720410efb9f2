package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Pollutant identifies one of the measured gases.
type Pollutant string

const (
	PollutantCO2 Pollutant = "co2"
	PollutantNO2 Pollutant = "no2"
	PollutantSO2 Pollutant = "so2"
)

// Pollutants returns the measured pollutants in canonical order.
func Pollutants() []Pollutant {
	return []Pollutant{PollutantCO2, PollutantNO2, PollutantSO2}
}

// Record is one undecoded station reading as it arrives off the wire:
// field names mapped to untyped values. Validation turns a Record into a
// typed Reading or rejects it with a ValidationError.
type Record map[string]any

// DecodeRecord parses a flat JSON object into a Record.
func DecodeRecord(data []byte) (Record, error) {
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return rec, nil
}

// Reading is a validated station sample: one concentration per pollutant
// at one point in time.
type Reading struct {
	Station   string    `json:"station"`
	Timestamp time.Time `json:"timestamp"`
	CO2       float64   `json:"co2"`
	NO2       float64   `json:"no2"`
	SO2       float64   `json:"so2"`
}

// Value returns the concentration for one pollutant. Unknown pollutants
// read as zero.
func (r Reading) Value(p Pollutant) float64 {
	switch p {
	case PollutantCO2:
		return r.CO2
	case PollutantNO2:
		return r.NO2
	case PollutantSO2:
		return r.SO2
	default:
		return 0
	}
}

// RawEvent represents an unprocessed message from the ingest source.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// OutputEvent is the serialized form destined for the sink topic.
type OutputEvent struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}

// SerializeClassifiedEvent marshals a classified event for publishing. The
// event ID becomes the message key so replays of the same reading land on
// the same partition and collapse downstream.
func SerializeClassifiedEvent(ev ClassifiedEvent) (OutputEvent, error) {
	value, err := json.Marshal(ev)
	if err != nil {
		return OutputEvent{}, fmt.Errorf("serialize classified event: %w", err)
	}

	var key []byte
	if ev.ID != "" {
		key = []byte(ev.ID)
	}

	return OutputEvent{
		Key:   key,
		Value: value,
		Headers: map[string]string{
			"station":      ev.Station,
			"severity":     ev.Overall.String(),
			"processed_at": ev.ProcessedAt.UTC().Format(time.RFC3339),
		},
	}, nil
}
