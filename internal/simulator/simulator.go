// Package simulator generates synthetic air-quality readings that follow
// the diurnal, weekly, and seasonal patterns real station data shows.
// It feeds the genreadings CLI and the pipeline's bulk-data tests, so a
// given seed always produces the identical series.
package simulator

import (
	"math"
	"math/rand"
	"time"

	"github.com/openplume/air-quality-etl/internal/domain"
)

// Baseline concentrations for an urban monitoring station. CO₂ in ppm,
// NO₂ and SO₂ in µg/m³.
const (
	baseCO2 = 400.0
	baseNO2 = 40.0
	baseSO2 = 20.0
)

// Emission profiles relative to CO₂: NO₂ tracks traffic slightly above
// the shared curve, SO₂ sits below it.
const (
	no2Factor = 1.2
	so2Factor = 0.9
)

// Config controls the shape of a generated series.
type Config struct {
	Stations []string      // station IDs to emit readings for
	Start    time.Time     // timestamp of the first reading
	Interval time.Duration // spacing between consecutive readings per station
	Count    int           // readings per station
	Seed     int64         // identical seeds produce identical series
}

// Simulator produces deterministic synthetic readings.
type Simulator struct {
	cfg Config
	rng *rand.Rand
}

func New(cfg Config) *Simulator {
	return &Simulator{cfg: cfg, rng: rand.New(rand.NewSource(cfg.Seed))}
}

// Readings generates the full series: Count ticks per station, all
// stations emitted at each tick so the output is in timestamp order.
func (s *Simulator) Readings() []domain.Reading {
	out := make([]domain.Reading, 0, s.cfg.Count*len(s.cfg.Stations))
	for i := 0; i < s.cfg.Count; i++ {
		ts := s.cfg.Start.Add(time.Duration(i) * s.cfg.Interval)
		for _, station := range s.cfg.Stations {
			out = append(out, s.reading(station, ts))
		}
	}
	return out
}

// reading generates one reading. Emissions rise during work hours, drop
// on weekends, and drift with the season; a shared weather factor moves
// all gases together since wind disperses and stagnant air concentrates.
func (s *Simulator) reading(station string, ts time.Time) domain.Reading {
	workHours := 0.8
	if h := ts.Hour(); h >= 8 && h <= 18 {
		workHours = 1.5
	}

	weekend := 1.0
	if wd := ts.Weekday(); wd == time.Saturday || wd == time.Sunday {
		weekend = 0.7
	}

	noise := 0.8 + s.rng.Float64()*0.4
	profile := workHours * weekend * noise

	seasonal := math.Sin(float64(ts.YearDay())/365*2*math.Pi) * 0.1

	co2 := s.level(baseCO2, profile, seasonal)
	no2 := s.level(baseNO2, profile*no2Factor, seasonal)
	so2 := s.level(baseSO2, profile*so2Factor, seasonal)

	weather := 0.9 + s.rng.Float64()*0.2

	return domain.Reading{
		Station:   station,
		Timestamp: ts,
		CO2:       co2 * weather,
		NO2:       no2 * weather,
		SO2:       so2 * weather,
	}
}

// level applies per-gas jitter on top of the shared profile. The clamp
// catches the rare draw where jitter pushes the variation below -100%.
func (s *Simulator) level(base, profile, seasonal float64) float64 {
	jitter := s.rng.NormFloat64() * 0.15
	return math.Max(0, base*profile*(1+seasonal+jitter))
}

// Episode-grade concentrations, well past the default high breakpoints.
var spikeLevels = map[domain.Pollutant]float64{
	domain.PollutantCO2: 1500,
	domain.PollutantNO2: 300,
	domain.PollutantSO2: 600,
}

// Spike overwrites one pollutant with an episode-grade concentration so
// callers can exercise breach paths without waiting for the background
// process to produce one.
func (s *Simulator) Spike(r domain.Reading, p domain.Pollutant) domain.Reading {
	level, ok := spikeLevels[p]
	if !ok {
		return r
	}
	level *= 1.0 + s.rng.Float64()*0.5

	switch p {
	case domain.PollutantCO2:
		r.CO2 = level
	case domain.PollutantNO2:
		r.NO2 = level
	case domain.PollutantSO2:
		r.SO2 = level
	}
	return r
}

// Record converts a reading to the flat wire shape station collectors
// publish.
func Record(r domain.Reading) domain.Record {
	return domain.Record{
		"station":   r.Station,
		"timestamp": r.Timestamp.Format(time.RFC3339),
		"co2":       r.CO2,
		"no2":       r.NO2,
		"so2":       r.SO2,
	}
}
