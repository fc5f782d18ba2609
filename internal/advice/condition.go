package advice

import "strings"

// Condition is a recognized medical-condition tag.
type Condition string

const (
	Diabetes     Condition = "diabetes"
	Hypertension Condition = "hypertension"
	Asthma       Condition = "asthma"
)

// KnownConditions lists the recognized tags in the order their advice is
// emitted.
var KnownConditions = []Condition{Diabetes, Hypertension, Asthma}

// ParseConditions resolves free text into recognized tags by
// case-insensitive substring match. Anything unrecognized is dropped.
func ParseConditions(text string) []Condition {
	lower := strings.ToLower(text)
	var tags []Condition
	for _, c := range KnownConditions {
		if strings.Contains(lower, string(c)) {
			tags = append(tags, c)
		}
	}
	return tags
}

func hasCondition(tags []Condition, c Condition) bool {
	for _, t := range tags {
		if t == c {
			return true
		}
	}
	return false
}
