package domain

import (
	"math"
	"sort"
	"time"
)

// CountBySeverity tallies overall severities across a set of classified
// readings. Every severity level appears in the result, zero-filled when
// absent, so callers never need to probe for missing keys.
func CountBySeverity(readings []ClassifiedReading) map[Severity]int {
	counts := map[Severity]int{
		SeverityLow:    0,
		SeverityMedium: 0,
		SeverityHigh:   0,
	}
	for _, r := range readings {
		counts[r.Overall]++
	}
	return counts
}

// StationRank is one station's row in the severity ranking.
type StationRank struct {
	Station     string   `json:"station"`
	Worst       Severity `json:"worst_severity"`
	BreachCount int      `json:"breach_count"`
}

// RankStations orders stations by worst overall severity (descending), then
// by number of breaching readings (descending), then by station ID
// (ascending) so equal stations always land in the same order.
func RankStations(readings []ClassifiedReading, floor Severity) []StationRank {
	byStation := make(map[string]*StationRank)
	for _, r := range readings {
		rank, ok := byStation[r.Station]
		if !ok {
			rank = &StationRank{Station: r.Station}
			byStation[r.Station] = rank
		}
		rank.Worst = maxSeverity(rank.Worst, r.Overall)
		if r.Breach(floor) {
			rank.BreachCount++
		}
	}

	ranks := make([]StationRank, 0, len(byStation))
	for _, rank := range byStation {
		ranks = append(ranks, *rank)
	}
	sort.Slice(ranks, func(i, j int) bool {
		if ranks[i].Worst != ranks[j].Worst {
			return ranks[i].Worst > ranks[j].Worst
		}
		if ranks[i].BreachCount != ranks[j].BreachCount {
			return ranks[i].BreachCount > ranks[j].BreachCount
		}
		return ranks[i].Station < ranks[j].Station
	})
	return ranks
}

// WindowRank is one time window's row in the breach ranking.
type WindowRank struct {
	Window      time.Time `json:"window"`
	BreachCount int       `json:"breach_count"`
}

// RankWindows buckets readings into fixed windows and orders the windows by
// breach count (descending), earliest window first among ties. Windows that
// saw readings but no breaches still appear with a zero count.
func RankWindows(readings []ClassifiedReading, floor Severity, granularity time.Duration) []WindowRank {
	byWindow := make(map[time.Time]int)
	for _, r := range readings {
		window := deriveWindow(r.Timestamp, granularity)
		if _, ok := byWindow[window]; !ok {
			byWindow[window] = 0
		}
		if r.Breach(floor) {
			byWindow[window]++
		}
	}

	ranks := make([]WindowRank, 0, len(byWindow))
	for window, count := range byWindow {
		ranks = append(ranks, WindowRank{Window: window, BreachCount: count})
	}
	sort.Slice(ranks, func(i, j int) bool {
		if ranks[i].BreachCount != ranks[j].BreachCount {
			return ranks[i].BreachCount > ranks[j].BreachCount
		}
		return ranks[i].Window.Before(ranks[j].Window)
	})
	return ranks
}

// Report bundles the three aggregate views over one batch of classified
// readings.
type Report struct {
	Counts   map[Severity]int `json:"counts_by_severity"`
	Stations []StationRank    `json:"station_ranking"`
	Windows  []WindowRank     `json:"time_window_ranking"`
}

// BuildReport computes all three aggregate views for one batch.
func BuildReport(readings []ClassifiedReading, floor Severity, granularity time.Duration) Report {
	return Report{
		Counts:   CountBySeverity(readings),
		Stations: RankStations(readings, floor),
		Windows:  RankWindows(readings, floor, granularity),
	}
}

// PollutantStats summarizes one pollutant's concentrations across a batch.
type PollutantStats struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Mean float64 `json:"mean"`
}

// SummarizeReadings computes min/max/mean per pollutant. Every pollutant
// appears in the result; with no readings all stats are zero.
func SummarizeReadings(readings []Reading) map[Pollutant]PollutantStats {
	stats := make(map[Pollutant]PollutantStats, len(Pollutants()))
	for _, p := range Pollutants() {
		if len(readings) == 0 {
			stats[p] = PollutantStats{}
			continue
		}
		min := math.Inf(1)
		max := math.Inf(-1)
		sum := 0.0
		for _, r := range readings {
			v := r.Value(p)
			min = math.Min(min, v)
			max = math.Max(max, v)
			sum += v
		}
		stats[p] = PollutantStats{
			Min:  min,
			Max:  max,
			Mean: sum / float64(len(readings)),
		}
	}
	return stats
}
