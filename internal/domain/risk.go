package domain

// riskBands holds, per pollutant, the concentration edges of the four risk
// bands. Concentrations at or beyond the last edge score 100.
var riskBands = map[Pollutant][4]float64{
	PollutantCO2: {400, 800, 1000, 5000},
	PollutantNO2: {40, 100, 200, 400},
	PollutantSO2: {20, 125, 500, 1000},
}

// riskScores are the cumulative scores reached at each band edge.
var riskScores = [4]float64{25, 50, 80, 100}

// PollutantRisk converts one concentration into a 0–100 risk score by
// linear interpolation between the band edges. Zero and negative
// concentrations score zero; concentrations past the last edge are capped
// at 100. Unknown pollutants score zero.
func PollutantRisk(p Pollutant, value float64) float64 {
	bands, ok := riskBands[p]
	if !ok || value <= 0 {
		return 0
	}

	prevEdge, prevScore := 0.0, 0.0
	for i, edge := range bands {
		if value <= edge {
			return prevScore + (value-prevEdge)/(edge-prevEdge)*(riskScores[i]-prevScore)
		}
		prevEdge, prevScore = edge, riskScores[i]
	}
	return 100
}

// RiskScore combines the per-pollutant risks of a reading into one 0–100
// score: the mean of the three pollutant risks, capped at 100.
func RiskScore(r Reading) float64 {
	total := 0.0
	for _, p := range Pollutants() {
		total += PollutantRisk(p, r.Value(p))
	}
	score := total / float64(len(Pollutants()))
	if score > 100 {
		return 100
	}
	return score
}

// auditPenalties are the per-reading deductions applied by AuditScore.
var auditPenalties = map[Severity]float64{
	SeverityMedium: 10,
	SeverityHigh:   25,
}

// AuditScore rates a batch of classified readings on a 0–100 scale,
// starting from 100 and deducting per elevated reading. The score never
// goes below zero.
func AuditScore(readings []ClassifiedReading) float64 {
	score := 100.0
	for _, r := range readings {
		score -= auditPenalties[r.Overall]
	}
	if score < 0 {
		return 0
	}
	return score
}
