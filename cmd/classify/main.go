// Command classify runs the classification stage offline over a file of
// readings: it validates every record, classifies it against the active
// thresholds, and prints severity counts, station and window rankings,
// breach episodes, pollutant stats, and the audit score. The same
// THRESHOLDS_<POLLUTANT> environment overrides the service honors apply
// here, so a proposed threshold change can be rehearsed against historical
// data before rollout.
//
// Usage:
//
//	go run ./cmd/classify -input readings.csv
//	go run ./cmd/classify -input readings.json -floor high -json > report.json
package main

import (
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/openplume/air-quality-etl/internal/config"
	"github.com/openplume/air-quality-etl/internal/domain"
	"github.com/openplume/air-quality-etl/internal/pipeline"
)

func main() {
	input := flag.String("input", "", "path to a readings file (CSV or JSON array)")
	format := flag.String("format", "", "input format: csv or json (default: by extension)")
	floor := flag.String("floor", "medium", "breach floor severity: low, medium, or high")
	window := flag.Duration("window", time.Hour, "window granularity for the time ranking")
	gap := flag.Duration("gap", 10*time.Minute, "max gap between breaches within one episode")
	jsonOut := flag.Bool("json", false, "emit the report as JSON instead of text")
	flag.Parse()

	if *input == "" {
		flag.Usage()
		os.Exit(1)
	}

	os.Exit(run(*input, *format, *floor, *window, *gap, *jsonOut))
}

func run(input, format, floor string, window, gap time.Duration, jsonOut bool) int {
	thresholds, err := config.Thresholds()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}
	policy, err := domain.NewPolicy(thresholds)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: invalid thresholds: %v\n", err)
		return 1
	}
	floorSev, err := domain.ParseSeverity(floor)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: invalid -floor: %v\n", err)
		return 1
	}

	records, err := loadRecords(input, format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load %s: %v\n", input, err)
		return 1
	}

	classified, failures := pipeline.RunBatch(records, policy)

	report := domain.BuildReport(classified, floorSev, window)
	episodes := domain.BreachEpisodes(classified, floorSev, gap)
	readings := make([]domain.Reading, len(classified))
	for i := range classified {
		readings[i] = classified[i].Reading
	}
	stats := domain.SummarizeReadings(readings)
	audit := domain.AuditScore(classified)

	if jsonOut {
		if err := printJSON(report, episodes, stats, audit, len(classified), failures); err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: encode report: %v\n", err)
			return 1
		}
	} else {
		printText(report, episodes, stats, audit, len(classified), failures)
	}

	if len(failures) > 0 {
		return 1
	}
	return 0
}

// ── Input loading ──

func loadRecords(path, format string) ([]domain.Record, error) {
	if format == "" {
		format = "json"
		if strings.EqualFold(filepath.Ext(path), ".csv") {
			format = "csv"
		}
	}

	switch format {
	case "csv":
		return loadCSV(path)
	case "json":
		return loadJSON(path)
	default:
		return nil, fmt.Errorf("unknown format %q, want csv or json", format)
	}
}

// loadCSV maps each row to a record keyed by the lower-cased header names.
// Values stay strings; validation parses them the same way it parses
// string-typed JSON fields.
func loadCSV(path string) ([]domain.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("no data rows in %s", path)
	}

	header := rows[0]
	records := make([]domain.Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rec := make(domain.Record, len(header))
		for i, name := range header {
			if i < len(row) {
				rec[strings.ToLower(strings.TrimSpace(name))] = strings.TrimSpace(row[i])
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

func loadJSON(path string) ([]domain.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var records []domain.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// ── Output ──

// rejection is the JSON shape for one rejected record.
type rejection struct {
	Station string `json:"station,omitempty"`
	Field   string `json:"field"`
	Reason  string `json:"reason"`
}

func rejections(failures []pipeline.Failure) []rejection {
	if len(failures) == 0 {
		return nil
	}
	out := make([]rejection, len(failures))
	for i, f := range failures {
		station, _ := f.Record["station"].(string)
		out[i] = rejection{Station: station, Field: f.Err.Field, Reason: f.Err.Reason}
	}
	return out
}

func printJSON(
	report domain.Report,
	episodes []domain.Episode,
	stats map[domain.Pollutant]domain.PollutantStats,
	audit float64,
	classified int,
	failures []pipeline.Failure,
) error {
	out := struct {
		Report     domain.Report                              `json:"report"`
		Episodes   []domain.Episode                           `json:"episodes"`
		Stats      map[domain.Pollutant]domain.PollutantStats `json:"pollutant_stats"`
		AuditScore float64                                    `json:"audit_score"`
		Classified int                                        `json:"classified_count"`
		Rejected   []rejection                                `json:"rejected,omitempty"`
	}{report, episodes, stats, audit, classified, rejections(failures)}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func printText(
	report domain.Report,
	episodes []domain.Episode,
	stats map[domain.Pollutant]domain.PollutantStats,
	audit float64,
	classified int,
	failures []pipeline.Failure,
) {
	fmt.Println("=== Air Quality Classification Report ===")
	fmt.Println()
	fmt.Printf("Readings: %d classified, %d rejected\n", classified, len(failures))

	fmt.Println("\nSeverity counts:")
	for _, s := range []domain.Severity{domain.SeverityLow, domain.SeverityMedium, domain.SeverityHigh} {
		fmt.Printf("  %-8s %6d\n", s, report.Counts[s])
	}

	fmt.Println("\nStation ranking:")
	for _, rank := range report.Stations {
		fmt.Printf("  %-24s worst %-8s breaches %4d\n", rank.Station, rank.Worst, rank.BreachCount)
	}

	fmt.Println("\nTime windows by breach count:")
	for _, rank := range report.Windows {
		fmt.Printf("  %s  %4d\n", rank.Window.Format(time.RFC3339), rank.BreachCount)
	}

	if len(episodes) > 0 {
		fmt.Println("\nBreach episodes:")
		for _, ep := range episodes {
			fmt.Printf("  %-24s %s to %s  peak %-8s %d readings\n",
				ep.Station,
				ep.Start.Format(time.RFC3339),
				ep.End.Format(time.RFC3339),
				ep.Peak,
				ep.Count,
			)
		}
	}

	fmt.Println("\nPollutant stats (min / mean / max):")
	for _, p := range domain.Pollutants() {
		st := stats[p]
		fmt.Printf("  %-4s %10.1f / %10.1f / %10.1f\n", p, st.Min, st.Mean, st.Max)
	}

	fmt.Printf("\nAudit score: %.1f / 100\n", audit)

	if len(failures) > 0 {
		fmt.Println("\nRejected readings:")
		for i, f := range failures {
			station, _ := f.Record["station"].(string)
			if station == "" {
				station = "<unknown>"
			}
			fmt.Printf("  [%d] %s: %v\n", i+1, station, f.Err)
		}
	}
}
