package health

// DateLayout is the calendar-date format of DailyMetric.Date.
const DateLayout = "2006-01-02"

// DailyMetric is one day of self-reported activity.
type DailyMetric struct {
	Date  string  `json:"date" validate:"required,datetime=2006-01-02"`
	Steps int     `json:"steps" validate:"gte=0,lte=50000"`
	Water float64 `json:"water" validate:"gte=0,lte=10"`
	Sleep float64 `json:"sleep" validate:"gte=0,lte=24"`
}

// Averages are the arithmetic means of a window of daily metrics.
type Averages struct {
	Steps float64
	Water float64
	Sleep float64
}

// Average returns the means over days; an empty window averages to zero.
func Average(days []DailyMetric) Averages {
	if len(days) == 0 {
		return Averages{}
	}
	var a Averages
	for _, d := range days {
		a.Steps += float64(d.Steps)
		a.Water += d.Water
		a.Sleep += d.Sleep
	}
	n := float64(len(days))
	return Averages{Steps: a.Steps / n, Water: a.Water / n, Sleep: a.Sleep / n}
}
