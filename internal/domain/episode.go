package domain

import (
	"sort"
	"time"
)

// Episode is a contiguous run of breaching readings at one station.
type Episode struct {
	Station string    `json:"station"`
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
	Peak    Severity  `json:"peak_severity"`
	Count   int       `json:"reading_count"`
}

// BreachEpisodes merges breaching readings into per-station episodes. Two
// consecutive breaches at the same station belong to the same episode when
// they are at most maxGap apart; a larger gap starts a new episode.
// Episodes are returned ordered by station, then by start time.
func BreachEpisodes(readings []ClassifiedReading, floor Severity, maxGap time.Duration) []Episode {
	byStation := make(map[string][]ClassifiedReading)
	for _, r := range readings {
		if r.Breach(floor) {
			byStation[r.Station] = append(byStation[r.Station], r)
		}
	}

	var episodes []Episode
	for station, breaches := range byStation {
		sort.Slice(breaches, func(i, j int) bool {
			return breaches[i].Timestamp.Before(breaches[j].Timestamp)
		})

		var current *Episode
		for _, b := range breaches {
			if current != nil && b.Timestamp.Sub(current.End) <= maxGap {
				current.End = b.Timestamp
				current.Peak = maxSeverity(current.Peak, b.Overall)
				current.Count++
				continue
			}
			if current != nil {
				episodes = append(episodes, *current)
			}
			current = &Episode{
				Station: station,
				Start:   b.Timestamp,
				End:     b.Timestamp,
				Peak:    b.Overall,
				Count:   1,
			}
		}
		if current != nil {
			episodes = append(episodes, *current)
		}
	}

	sort.Slice(episodes, func(i, j int) bool {
		if episodes[i].Station != episodes[j].Station {
			return episodes[i].Station < episodes[j].Station
		}
		return episodes[i].Start.Before(episodes[j].Start)
	})
	return episodes
}
