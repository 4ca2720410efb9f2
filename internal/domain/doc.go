// Package domain models pollutant readings from fixed air-quality stations.
//
// # Data Source
//
// Readings originate from station-side sensor collectors that sample CO₂,
// NO₂ and SO₂ concentrations and publish each sample as flat JSON, either to
// the Kafka source topic or to an MQTT broker, depending on the deployment.
// Every record carries a station identifier, a capture timestamp and one
// concentration per pollutant.
//
// # Reading Conventions
//
// Timestamp format:
//
//	RFC 3339 ("2024-06-01T14:05:00Z") is the canonical wire format.
//	Collectors running older firmware send "2006-01-02 15:04:05" instead;
//	both are accepted, tried in that order. Timestamps without a zone are
//	taken as UTC.
//
// Concentration units:
//
//	CO₂ is reported in parts per million (ppm); NO₂ and SO₂ in micrograms
//	per cubic metre (µg/m³). Units are fixed per pollutant and never appear
//	on the wire.
//
// Invalid values:
//
//	Concentrations must be finite and non-negative. Sensors occasionally
//	emit NaN during warm-up or negative values after a calibration reset;
//	both are rejected during validation rather than clamped, so a bad
//	sensor surfaces as a validation failure instead of a silent zero.
//
// Severity classification:
//
//	Each pollutant is classified against an ordered list of breakpoints
//	(concentration → severity). A reading's level for a pollutant is the
//	severity of the highest breakpoint at or below its concentration;
//	below the first breakpoint the level is low. The overall level of a
//	reading is the worst of its per-pollutant levels. Default breakpoints
//	follow common indoor/ambient guideline values:
//
//	  CO₂:  ≥800 ppm medium   | ≥1000 ppm high
//	  NO₂:  ≥100 µg/m³ medium | ≥200 µg/m³ high
//	  SO₂:  ≥250 µg/m³ medium | ≥500 µg/m³ high
//
//	A reading breaches when its overall level reaches the configured floor
//	(medium by default). See [NewPolicy] and [BuildClassifiedEvent].
//
// Risk scoring:
//
//	Separate from the discrete severity levels, [RiskScore] maps each
//	concentration onto a continuous 0–100 scale by interpolating between
//	fixed band edges per pollutant, then averages across pollutants. The
//	continuous score feeds dashboards; the discrete levels drive alerts.
//
// # ID Generation
//
// Event IDs are deterministic SHA-256 hashes of station|timestamp. This
// enables idempotent upserts downstream (ON CONFLICT DO NOTHING) and replay
// safety without distributed coordination. See [generateID].
package domain
