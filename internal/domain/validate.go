package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ValidationError reports why a record was rejected. It always names the
// first offending field; checks run in a fixed order and stop at the first
// failure.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("field %q: %s", e.Field, e.Reason)
}

// requiredFields lists every field a record must carry, in check order.
var requiredFields = []string{"station", "timestamp", "co2", "no2", "so2"}

// timestampLayouts are the accepted wire formats, tried in order. RFC 3339
// is canonical; the second form comes from collectors on older firmware.
var timestampLayouts = []string{time.RFC3339, "2006-01-02 15:04:05"}

// ValidateRecord checks one raw record and converts it into a typed
// Reading. Checks run in order: all required fields present, station a
// non-empty string, timestamp parseable, each concentration a finite
// non-negative number. The first failure wins; the returned error is
// always a *ValidationError.
func ValidateRecord(rec Record) (Reading, error) {
	for _, field := range requiredFields {
		if _, ok := rec[field]; !ok {
			return Reading{}, &ValidationError{Field: field, Reason: "missing"}
		}
	}

	station, ok := rec["station"].(string)
	if !ok {
		return Reading{}, &ValidationError{Field: "station", Reason: "not a string"}
	}
	station = strings.TrimSpace(station)
	if station == "" {
		return Reading{}, &ValidationError{Field: "station", Reason: "must not be empty"}
	}

	timestamp, vErr := parseTimestamp(rec["timestamp"])
	if vErr != nil {
		vErr.Field = "timestamp"
		return Reading{}, vErr
	}

	reading := Reading{Station: station, Timestamp: timestamp}
	for _, p := range Pollutants() {
		value, vErr := parseConcentration(rec[string(p)])
		if vErr != nil {
			vErr.Field = string(p)
			return Reading{}, vErr
		}
		switch p {
		case PollutantCO2:
			reading.CO2 = value
		case PollutantNO2:
			reading.NO2 = value
		case PollutantSO2:
			reading.SO2 = value
		}
	}

	return reading, nil
}

// parseTimestamp accepts either a time.Time (from hand-built records) or a
// string in one of the accepted layouts.
func parseTimestamp(v any) (time.Time, *ValidationError) {
	switch t := v.(type) {
	case time.Time:
		if t.IsZero() {
			return time.Time{}, &ValidationError{Reason: "must not be zero"}
		}
		return t, nil
	case string:
		for _, layout := range timestampLayouts {
			if parsed, err := time.Parse(layout, t); err == nil {
				return parsed, nil
			}
		}
		return time.Time{}, &ValidationError{Reason: fmt.Sprintf("cannot parse %q as a timestamp", t)}
	default:
		return time.Time{}, &ValidationError{Reason: fmt.Sprintf("unsupported type %T", v)}
	}
}

// parseConcentration accepts the numeric encodings seen on the wire and
// from hand-built records, then enforces finite and non-negative.
func parseConcentration(v any) (float64, *ValidationError) {
	var value float64
	switch n := v.(type) {
	case float64:
		value = n
	case int:
		value = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, &ValidationError{Reason: fmt.Sprintf("cannot parse %q as a number", n.String())}
		}
		value = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, &ValidationError{Reason: fmt.Sprintf("cannot parse %q as a number", n)}
		}
		value = parsed
	default:
		return 0, &ValidationError{Reason: fmt.Sprintf("unsupported type %T", v)}
	}

	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, &ValidationError{Reason: "not a finite number"}
	}
	if value < 0 {
		return 0, &ValidationError{Reason: "must not be negative"}
	}
	return value, nil
}
