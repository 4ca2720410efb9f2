package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBreakpoints() map[Pollutant][]Breakpoint {
	return map[Pollutant][]Breakpoint{
		PollutantCO2: {{Value: 800, Severity: SeverityMedium}, {Value: 1000, Severity: SeverityHigh}},
		PollutantNO2: {{Value: 100, Severity: SeverityMedium}, {Value: 200, Severity: SeverityHigh}},
		PollutantSO2: {{Value: 250, Severity: SeverityMedium}, {Value: 500, Severity: SeverityHigh}},
	}
}

func TestNewPolicy(t *testing.T) {
	t.Run("valid breakpoints", func(t *testing.T) {
		policy, err := NewPolicy(testBreakpoints())
		require.NoError(t, err)
		require.NotNil(t, policy)
	})

	t.Run("single pollutant configured", func(t *testing.T) {
		policy, err := NewPolicy(map[Pollutant][]Breakpoint{
			PollutantNO2: {{Value: 40, Severity: SeverityMedium}},
		})
		require.NoError(t, err)
		require.NotNil(t, policy)
	})

	t.Run("unknown pollutant", func(t *testing.T) {
		_, err := NewPolicy(map[Pollutant][]Breakpoint{
			"o3": {{Value: 100, Severity: SeverityMedium}},
		})
		require.Error(t, err)
		var cfgErr *ConfigError
		require.ErrorAs(t, err, &cfgErr)
		assert.Equal(t, Pollutant("o3"), cfgErr.Pollutant)
		assert.Contains(t, cfgErr.Reason, "unknown pollutant")
	})

	t.Run("empty breakpoint list", func(t *testing.T) {
		_, err := NewPolicy(map[Pollutant][]Breakpoint{
			PollutantCO2: {},
		})
		require.Error(t, err)
		var cfgErr *ConfigError
		require.ErrorAs(t, err, &cfgErr)
		assert.Equal(t, PollutantCO2, cfgErr.Pollutant)
		assert.Contains(t, cfgErr.Reason, "no breakpoints")
	})

	t.Run("equal breakpoint values", func(t *testing.T) {
		_, err := NewPolicy(map[Pollutant][]Breakpoint{
			PollutantSO2: {{Value: 250, Severity: SeverityMedium}, {Value: 250, Severity: SeverityHigh}},
		})
		require.Error(t, err)
		var cfgErr *ConfigError
		require.ErrorAs(t, err, &cfgErr)
		assert.Contains(t, cfgErr.Reason, "strictly increasing")
	})

	t.Run("decreasing breakpoint values", func(t *testing.T) {
		_, err := NewPolicy(map[Pollutant][]Breakpoint{
			PollutantCO2: {{Value: 1000, Severity: SeverityMedium}, {Value: 800, Severity: SeverityHigh}},
		})
		require.Error(t, err)
		var cfgErr *ConfigError
		require.ErrorAs(t, err, &cfgErr)
		assert.Contains(t, cfgErr.Reason, "strictly increasing")
	})

	t.Run("input mutation does not leak in", func(t *testing.T) {
		breakpoints := testBreakpoints()
		policy, err := NewPolicy(breakpoints)
		require.NoError(t, err)

		breakpoints[PollutantCO2][0].Value = 1

		assert.Equal(t, SeverityLow, policy.Classify(PollutantCO2, 500))
	})
}

func TestConfigErrorMessage(t *testing.T) {
	err := &ConfigError{Pollutant: PollutantNO2, Reason: "no breakpoints defined"}
	assert.Equal(t, `pollutant "no2": no breakpoints defined`, err.Error())
}

func TestPolicyClassify(t *testing.T) {
	policy, err := NewPolicy(testBreakpoints())
	require.NoError(t, err)

	tests := []struct {
		name      string
		pollutant Pollutant
		value     float64
		expected  Severity
	}{
		{"below first breakpoint", PollutantCO2, 799, SeverityLow},
		{"exactly at first breakpoint", PollutantCO2, 800, SeverityMedium},
		{"between breakpoints", PollutantCO2, 950, SeverityMedium},
		{"exactly at last breakpoint", PollutantCO2, 1000, SeverityHigh},
		{"far above last breakpoint", PollutantCO2, 40000, SeverityHigh},
		{"zero concentration", PollutantNO2, 0, SeverityLow},
		{"so2 medium band", PollutantSO2, 300, SeverityMedium},
		{"unconfigured pollutant", Pollutant("o3"), 9999, SeverityLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, policy.Classify(tt.pollutant, tt.value))
		})
	}
}

func TestPolicyClassifyTwoLevelLadder(t *testing.T) {
	// 40 and above is medium, 80 and above is high.
	policy, err := NewPolicy(map[Pollutant][]Breakpoint{
		PollutantNO2: {{Value: 40, Severity: SeverityMedium}, {Value: 80, Severity: SeverityHigh}},
	})
	require.NoError(t, err)

	assert.Equal(t, SeverityHigh, policy.Classify(PollutantNO2, 90))
	assert.Equal(t, SeverityMedium, policy.Classify(PollutantNO2, 40))
	assert.Equal(t, SeverityLow, policy.Classify(PollutantNO2, 39.9))
}

func TestPolicyBreakpoints(t *testing.T) {
	policy, err := NewPolicy(testBreakpoints())
	require.NoError(t, err)

	t.Run("round trips configuration", func(t *testing.T) {
		assert.Equal(t, testBreakpoints(), policy.Breakpoints())
	})

	t.Run("returned copy is detached", func(t *testing.T) {
		copied := policy.Breakpoints()
		copied[PollutantCO2][0].Value = 1

		assert.Equal(t, SeverityLow, policy.Classify(PollutantCO2, 500))
	})
}

func TestDefaultPolicy(t *testing.T) {
	policy := DefaultPolicy()

	tests := []struct {
		name      string
		pollutant Pollutant
		value     float64
		expected  Severity
	}{
		{"co2 ambient", PollutantCO2, 420, SeverityLow},
		{"co2 stuffy room", PollutantCO2, 900, SeverityMedium},
		{"co2 danger", PollutantCO2, 1200, SeverityHigh},
		{"no2 guideline breach", PollutantNO2, 150, SeverityMedium},
		{"no2 danger", PollutantNO2, 250, SeverityHigh},
		{"so2 elevated", PollutantSO2, 300, SeverityMedium},
		{"so2 danger", PollutantSO2, 600, SeverityHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, policy.Classify(tt.pollutant, tt.value))
		})
	}
}
