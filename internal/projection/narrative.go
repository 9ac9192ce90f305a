package projection

// RiskLevel classifies the current-horizon bars
type RiskLevel string

const (
	RiskSelectionRequired RiskLevel = "selection_required"
	RiskHigh              RiskLevel = "high"
	RiskModerate          RiskLevel = "moderate"
	RiskLow               RiskLevel = "low"
)

// Thresholds are exclusive: a probability must exceed them
const (
	HighRiskThreshold     = 0.7
	ModerateRiskThreshold = 0.4
)

var riskMessages = map[RiskLevel]string{
	RiskSelectionRequired: "Please select at least one model to view the risk assessment.",
	RiskHigh:              "High Risk: Multiple models indicate significant recession probability. Consider defensive economic positioning.",
	RiskModerate:          "Moderate Risk: Some models show elevated recession chances. Monitor economic indicators closely.",
	RiskLow:               "Low Risk: Most models indicate low probability of recession in the selected time horizon.",
}

// Risk is the narrative shown under the current-horizon chart
type Risk struct {
	Level   RiskLevel `json:"level"`
	Message string    `json:"message"`
}

// RiskNarrative evaluates the threshold cascade; the first matching rule wins
func RiskNarrative(bars []Bar) Risk {
	level := RiskLow
	switch {
	case len(bars) == 0:
		level = RiskSelectionRequired
	case anyAbove(bars, HighRiskThreshold):
		level = RiskHigh
	case anyAbove(bars, ModerateRiskThreshold):
		level = RiskModerate
	}
	return Risk{Level: level, Message: riskMessages[level]}
}

func anyAbove(bars []Bar, threshold float64) bool {
	for _, b := range bars {
		if b.Value > threshold {
			return true
		}
	}
	return false
}
