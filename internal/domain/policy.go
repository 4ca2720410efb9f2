package domain

import "fmt"

// Breakpoint maps a concentration to the severity assigned at and above it.
type Breakpoint struct {
	Value    float64  `json:"value"`
	Severity Severity `json:"severity"`
}

// ConfigError reports an invalid threshold configuration for one pollutant.
type ConfigError struct {
	Pollutant Pollutant
	Reason    string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("pollutant %q: %s", string(e.Pollutant), e.Reason)
}

// Policy holds per-pollutant severity breakpoints. A Policy is immutable
// after construction and safe for concurrent use.
type Policy struct {
	breakpoints map[Pollutant][]Breakpoint
}

// NewPolicy validates the breakpoint configuration and builds a policy from
// it. Breakpoint values must be strictly increasing per pollutant, every
// configured pollutant must be known, and a configured pollutant must have
// at least one breakpoint. The input map is copied; later mutation of it
// does not affect the policy.
func NewPolicy(breakpoints map[Pollutant][]Breakpoint) (*Policy, error) {
	known := make(map[Pollutant]bool, len(Pollutants()))
	for _, p := range Pollutants() {
		known[p] = true
	}

	copied := make(map[Pollutant][]Breakpoint, len(breakpoints))
	for pollutant, bps := range breakpoints {
		if !known[pollutant] {
			return nil, &ConfigError{Pollutant: pollutant, Reason: "unknown pollutant"}
		}
		if len(bps) == 0 {
			return nil, &ConfigError{Pollutant: pollutant, Reason: "no breakpoints defined"}
		}
		for i := 1; i < len(bps); i++ {
			if bps[i].Value <= bps[i-1].Value {
				return nil, &ConfigError{
					Pollutant: pollutant,
					Reason:    fmt.Sprintf("breakpoints must be strictly increasing: %g after %g", bps[i].Value, bps[i-1].Value),
				}
			}
		}
		copied[pollutant] = append([]Breakpoint(nil), bps...)
	}

	return &Policy{breakpoints: copied}, nil
}

// DefaultPolicy returns the built-in thresholds, aligned with common
// indoor/ambient guideline values: CO₂ 800/1000 ppm, NO₂ 100/200 µg/m³,
// SO₂ 250/500 µg/m³ for medium/high.
func DefaultPolicy() *Policy {
	policy, err := NewPolicy(map[Pollutant][]Breakpoint{
		PollutantCO2: {{Value: 800, Severity: SeverityMedium}, {Value: 1000, Severity: SeverityHigh}},
		PollutantNO2: {{Value: 100, Severity: SeverityMedium}, {Value: 200, Severity: SeverityHigh}},
		PollutantSO2: {{Value: 250, Severity: SeverityMedium}, {Value: 500, Severity: SeverityHigh}},
	})
	if err != nil {
		// The built-in table is static and validated by tests.
		panic(err)
	}
	return policy
}

// Classify returns the severity for one pollutant concentration: the
// severity of the highest breakpoint at or below the value. Below the first
// breakpoint, and for pollutants with no breakpoints configured, the level
// is low.
func (p *Policy) Classify(pollutant Pollutant, value float64) Severity {
	severity := SeverityLow
	for _, bp := range p.breakpoints[pollutant] {
		if value < bp.Value {
			break
		}
		severity = bp.Severity
	}
	return severity
}

// Breakpoints returns a copy of the policy's configuration, keyed by
// pollutant. Mutating the copy does not affect the policy.
func (p *Policy) Breakpoints() map[Pollutant][]Breakpoint {
	copied := make(map[Pollutant][]Breakpoint, len(p.breakpoints))
	for pollutant, bps := range p.breakpoints {
		copied[pollutant] = append([]Breakpoint(nil), bps...)
	}
	return copied
}
