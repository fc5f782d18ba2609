package advice

import (
	"strings"

	"healthtrack/internal/health"
)

// Advisory lines. The text is opaque to consumers.
const (
	LineDiabetes     = "Monitor blood sugar levels closely. Maintain a low sugar diet."
	LineHypertension = "Avoid salty foods. Practice relaxation and yoga."
	LineAsthma       = "Avoid triggers and keep your inhaler handy."

	LineUnderweight = "Recommend a high-protein diet and strength training."
	LineNormal      = "Maintain a balanced diet and regular exercise."
	LineOverweight  = "Consider a low-calorie diet and cardio exercises."

	LineSteps = "Increase daily steps to reach your target."
	LineWater = "Increase water intake to stay hydrated."
	LineSleep = "Aim for at least 7 hours of sleep."

	LineNoAdvice = "No specific advice. Keep up the good work!"
)

var conditionLines = map[Condition]string{
	Diabetes:     LineDiabetes,
	Hypertension: LineHypertension,
	Asthma:       LineAsthma,
}

// Subject is the part of a patient profile advice depends on.
type Subject struct {
	WeightKg   float64
	HeightCm   float64
	Conditions []Condition
}

// Generate builds the advice text for subject over the daily window. It is
// deterministic and fails only when the body measurements are unusable.
func Generate(subject Subject, days []health.DailyMetric) (string, error) {
	assessment, err := health.Assess(subject.WeightKg, subject.HeightCm)
	if err != nil {
		return "", err
	}

	var lines []string
	for _, c := range KnownConditions {
		if hasCondition(subject.Conditions, c) {
			lines = append(lines, conditionLines[c])
		}
	}

	switch assessment.Category {
	case health.Underweight:
		lines = append(lines, LineUnderweight)
	case health.Normal:
		lines = append(lines, LineNormal)
	default:
		lines = append(lines, LineOverweight)
	}

	avg := health.Average(days)
	targets := assessment.Targets
	if avg.Steps < float64(targets.Steps) {
		lines = append(lines, LineSteps)
	}
	if avg.Water < targets.WaterLiters {
		lines = append(lines, LineWater)
	}
	if avg.Sleep < targets.SleepHours {
		lines = append(lines, LineSleep)
	}

	if len(lines) == 0 {
		return LineNoAdvice, nil
	}
	return strings.Join(lines, "\n"), nil
}
