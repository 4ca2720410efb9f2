// Command genreadings generates synthetic reading fixtures for the test
// suites and for local demos. It drives the deterministic simulator, so a
// fixed seed always reproduces the same file, and it runs the actual
// classification stage for the transformed fixture to ensure the output
// matches real pipeline behavior.
//
// Usage:
//
//	go run ./cmd/genreadings -out data/fixtures/readings_week.json
//	go run ./cmd/genreadings \
//	  -count 288 -interval 5m -spike so2@17,co2@140 \
//	  -out data/fixtures/readings_day.csv \
//	  -classified-out data/fixtures/readings_day_classified.json
package main

import (
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/openplume/air-quality-etl/internal/domain"
	"github.com/openplume/air-quality-etl/internal/simulator"
)

// defaultStart is a Monday, so the generated week covers the full
// work-hour and weekend cycle in a predictable order.
var defaultStart = time.Date(2024, time.June, 3, 0, 0, 0, 0, time.UTC)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	stations := flag.String("stations", "station-north,station-south,station-harbor", "comma-separated station IDs")
	start := flag.String("start", defaultStart.Format(time.RFC3339), "timestamp of the first reading (RFC 3339)")
	interval := flag.Duration("interval", 5*time.Minute, "spacing between consecutive readings per station")
	count := flag.Int("count", 288, "readings per station")
	seed := flag.Int64("seed", 42, "simulator seed; identical seeds reproduce identical files")
	spikes := flag.String("spike", "", "episode injections as pollutant@index, comma-separated (e.g. so2@17)")
	out := flag.String("out", "", "output path for the raw readings fixture (.csv or .json)")
	classifiedOut := flag.String("classified-out", "", "optional output path for the classified events fixture")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}

	startTime, err := time.Parse(time.RFC3339, *start)
	if err != nil {
		return fmt.Errorf("parsing -start: %w", err)
	}

	sim := simulator.New(simulator.Config{
		Stations: splitStations(*stations),
		Start:    startTime,
		Interval: *interval,
		Count:    *count,
		Seed:     *seed,
	})
	readings := sim.Readings()
	log.Printf("generated %d readings", len(readings))

	if err := applySpikes(sim, readings, *spikes); err != nil {
		return err
	}

	if err := writeReadings(*out, readings); err != nil {
		return fmt.Errorf("writing readings fixture: %w", err)
	}
	log.Printf("wrote readings fixture: %s", *out)

	if *classifiedOut == "" {
		return nil
	}

	// Set a fixed clock for reproducible ProcessedAt timestamps.
	domain.SetClock(clockwork.NewFakeClockAt(
		time.Date(2024, time.June, 10, 6, 0, 0, 0, time.UTC),
	))
	defer domain.SetClock(nil)

	policy := domain.DefaultPolicy()
	events := make([]domain.ClassifiedEvent, len(readings))
	for i, r := range readings {
		classified := domain.Classify(r, policy)
		events[i] = domain.BuildClassifiedEvent(classified, domain.SeverityMedium, time.Hour)
	}

	if err := writeJSON(*classifiedOut, events); err != nil {
		return fmt.Errorf("writing classified fixture: %w", err)
	}
	log.Printf("wrote classified fixture: %s", *classifiedOut)

	printStats(events)
	return nil
}

func splitStations(s string) []string {
	parts := strings.Split(s, ",")
	stations := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			stations = append(stations, p)
		}
	}
	return stations
}

// applySpikes overwrites selected readings with episode-grade
// concentrations, so fixtures contain guaranteed breaches.
func applySpikes(sim *simulator.Simulator, readings []domain.Reading, spec string) error {
	if spec == "" {
		return nil
	}
	for _, part := range strings.Split(spec, ",") {
		name, idxStr, ok := strings.Cut(strings.TrimSpace(part), "@")
		if !ok {
			return fmt.Errorf("invalid -spike entry %q, want pollutant@index", part)
		}
		p := domain.Pollutant(strings.ToLower(name))
		if !validPollutant(p) {
			return fmt.Errorf("invalid -spike pollutant %q", name)
		}
		idx, err := strconv.Atoi(idxStr)
		if err != nil || idx < 0 || idx >= len(readings) {
			return fmt.Errorf("invalid -spike index %q, want 0..%d", idxStr, len(readings)-1)
		}
		readings[idx] = sim.Spike(readings[idx], p)
		log.Printf("spiked %s at index %d (%s, %s)", p, idx, readings[idx].Station, readings[idx].Timestamp.Format(time.RFC3339))
	}
	return nil
}

func validPollutant(p domain.Pollutant) bool {
	for _, known := range domain.Pollutants() {
		if p == known {
			return true
		}
	}
	return false
}

// ── Fixture writing ──

func writeReadings(path string, readings []domain.Reading) error {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return writeCSV(path, readings)
	}
	records := make([]domain.Record, len(readings))
	for i, r := range readings {
		records[i] = simulator.Record(r)
	}
	return writeJSON(path, records)
}

func writeCSV(path string, readings []domain.Reading) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"station", "timestamp", "co2", "no2", "so2"}); err != nil {
		return err
	}
	for _, r := range readings {
		row := []string{
			r.Station,
			r.Timestamp.Format(time.RFC3339),
			strconv.FormatFloat(r.CO2, 'f', 2, 64),
			strconv.FormatFloat(r.NO2, 'f', 2, 64),
			strconv.FormatFloat(r.SO2, 'f', 2, 64),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

// ── Stats ──

func printStats(events []domain.ClassifiedEvent) {
	readings := make([]domain.ClassifiedReading, len(events))
	breaches := 0
	stations := map[string]int{}
	for i := range events {
		readings[i] = events[i].ClassifiedReading
		if events[i].Breach {
			breaches++
		}
		stations[events[i].Station]++
	}
	counts := domain.CountBySeverity(readings)

	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("Total: %d\n", len(events))
	fmt.Printf("By severity: low=%d, medium=%d, high=%d\n",
		counts[domain.SeverityLow], counts[domain.SeverityMedium], counts[domain.SeverityHigh])
	fmt.Printf("Breaches: %d\n", breaches)
	fmt.Printf("Stations (%d): ", len(stations))
	for _, s := range sortedKeys(stations) {
		fmt.Printf("%s=%d ", s, stations[s])
	}
	fmt.Println()
	fmt.Printf("Audit score: %.1f\n", domain.AuditScore(readings))
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
