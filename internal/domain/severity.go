package domain

import "fmt"

// Severity is an ordered pollution level. Higher values are worse, so
// levels compare directly with < and >.
type Severity int

const (
	SeverityLow Severity = iota
	SeverityMedium
	SeverityHigh
)

var severityNames = [...]string{"low", "medium", "high"}

func (s Severity) String() string {
	if s < 0 || int(s) >= len(severityNames) {
		return fmt.Sprintf("severity(%d)", int(s))
	}
	return severityNames[s]
}

// ParseSeverity maps a lowercase label back to its level.
func ParseSeverity(label string) (Severity, error) {
	for i, name := range severityNames {
		if label == name {
			return Severity(i), nil
		}
	}
	return 0, fmt.Errorf("unknown severity %q", label)
}

// MarshalText encodes the severity as its label, so JSON carries "medium"
// rather than a bare integer.
func (s Severity) MarshalText() ([]byte, error) {
	if s < 0 || int(s) >= len(severityNames) {
		return nil, fmt.Errorf("invalid severity %d", int(s))
	}
	return []byte(severityNames[s]), nil
}

func (s *Severity) UnmarshalText(text []byte) error {
	parsed, err := ParseSeverity(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func maxSeverity(a, b Severity) Severity {
	if a > b {
		return a
	}
	return b
}
