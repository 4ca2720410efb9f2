package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// ClassifiedReading is a Reading annotated with per-pollutant severities and
// the overall level. Overall is always the worst per-pollutant level, never
// an average.
type ClassifiedReading struct {
	Reading
	PerPollutant map[Pollutant]Severity `json:"per_pollutant"`
	Overall      Severity               `json:"overall"`
}

// Classify applies the policy to each pollutant of a validated reading.
// It never fails: policy validity is guaranteed at construction, and every
// Reading carries all three pollutants.
func Classify(r Reading, policy *Policy) ClassifiedReading {
	per := make(map[Pollutant]Severity, len(Pollutants()))
	overall := SeverityLow
	for _, p := range Pollutants() {
		severity := policy.Classify(p, r.Value(p))
		per[p] = severity
		overall = maxSeverity(overall, severity)
	}
	return ClassifiedReading{Reading: r, PerPollutant: per, Overall: overall}
}

// Breach reports whether the reading's overall severity meets or exceeds
// the floor.
func (c ClassifiedReading) Breach(floor Severity) bool {
	return c.Overall >= floor
}

// ClassifiedEvent is the sink-bound envelope around a classified reading.
type ClassifiedEvent struct {
	ID string `json:"id"`
	ClassifiedReading
	Breach      bool      `json:"breach"`
	Window      time.Time `json:"window"`
	ProcessedAt time.Time `json:"processed_at"`

	// Station registry enrichment fields.
	SiteName   string  `json:"site_name,omitempty"`
	SiteZone   string  `json:"site_zone,omitempty"`
	SiteLat    float64 `json:"site_lat,omitempty"`
	SiteLon    float64 `json:"site_lon,omitempty"`
	SiteSource string  `json:"site_source,omitempty"` // "directory", "unknown", "failed"

	RawPayload []byte `json:"-"`
}

// BuildClassifiedEvent wraps a classified reading for publishing: a
// deterministic ID, the breach flag against the configured floor, the
// reading's window bucket, and a processing timestamp from the package
// clock.
func BuildClassifiedEvent(c ClassifiedReading, floor Severity, granularity time.Duration) ClassifiedEvent {
	return ClassifiedEvent{
		ID:                generateID(c.Station, c.Timestamp),
		ClassifiedReading: c,
		Breach:            c.Breach(floor),
		Window:            deriveWindow(c.Timestamp, granularity),
		ProcessedAt:       clock.Now(),
	}
}

// generateID produces a deterministic ID from the reading's station and
// timestamp. Deterministic IDs make sink writes idempotent: replaying the
// same reading yields the same key, so downstream upserts collapse
// duplicates.
func generateID(station string, ts time.Time) string {
	input := fmt.Sprintf("%s|%s", station, ts.UTC().Format(time.RFC3339Nano))
	hash := sha256.Sum256([]byte(input))
	return station + "-" + hex.EncodeToString(hash[:8])
}

// deriveWindow truncates a timestamp to its window in UTC.
// Returns zero time for zero input or a non-positive granularity.
func deriveWindow(t time.Time, granularity time.Duration) time.Time {
	if t.IsZero() || granularity <= 0 {
		return time.Time{}
	}
	return t.UTC().Truncate(granularity)
}
