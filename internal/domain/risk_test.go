package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPollutantRisk(t *testing.T) {
	tests := []struct {
		name      string
		pollutant Pollutant
		value     float64
		expected  float64
	}{
		{"co2 zero", PollutantCO2, 0, 0},
		{"co2 negative", PollutantCO2, -5, 0},
		{"co2 below first edge", PollutantCO2, 200, 12.5},
		{"co2 first edge", PollutantCO2, 400, 25},
		{"co2 mid band", PollutantCO2, 600, 37.5},
		{"co2 second edge", PollutantCO2, 800, 50},
		{"co2 third band", PollutantCO2, 900, 65},
		{"co2 third edge", PollutantCO2, 1000, 80},
		{"co2 top band", PollutantCO2, 3000, 90},
		{"co2 last edge", PollutantCO2, 5000, 100},
		{"co2 beyond scale", PollutantCO2, 9000, 100},
		{"no2 first edge", PollutantNO2, 40, 25},
		{"no2 mid band", PollutantNO2, 70, 37.5},
		{"no2 third edge", PollutantNO2, 200, 80},
		{"no2 last edge", PollutantNO2, 400, 100},
		{"so2 first edge", PollutantSO2, 20, 25},
		{"so2 second edge", PollutantSO2, 125, 50},
		{"so2 third edge", PollutantSO2, 500, 80},
		{"so2 last edge", PollutantSO2, 1000, 100},
		{"unknown pollutant", Pollutant("o3"), 500, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, PollutantRisk(tt.pollutant, tt.value), 1e-9)
		})
	}
}

func TestRiskScore(t *testing.T) {
	tests := []struct {
		name     string
		reading  Reading
		expected float64
	}{
		{"all zero", testReading(0, 0, 0), 0},
		{"all at first edge", testReading(400, 40, 20), 25},
		{"all at scale top", testReading(5000, 400, 1000), 100},
		{"single elevated pollutant", testReading(800, 0, 0), 50.0 / 3.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, RiskScore(tt.reading), 1e-9)
		})
	}
}

func TestAuditScore(t *testing.T) {
	base := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)

	t.Run("empty batch is perfect", func(t *testing.T) {
		assert.Equal(t, 100.0, AuditScore(nil))
	})

	t.Run("low readings cost nothing", func(t *testing.T) {
		readings := []ClassifiedReading{
			classifiedAt("alpha", base, SeverityLow),
			classifiedAt("alpha", base, SeverityLow),
		}
		assert.Equal(t, 100.0, AuditScore(readings))
	})

	t.Run("deductions per elevated reading", func(t *testing.T) {
		readings := []ClassifiedReading{
			classifiedAt("alpha", base, SeverityMedium),
			classifiedAt("alpha", base, SeverityMedium),
			classifiedAt("bravo", base, SeverityHigh),
		}
		assert.Equal(t, 55.0, AuditScore(readings))
	})

	t.Run("never below zero", func(t *testing.T) {
		readings := make([]ClassifiedReading, 5)
		for i := range readings {
			readings[i] = classifiedAt("alpha", base, SeverityHigh)
		}
		assert.Equal(t, 0.0, AuditScore(readings))
	})
}
