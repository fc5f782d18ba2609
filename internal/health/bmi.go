package health

import (
	"strconv"

	"healthtrack/internal/platform/apperror"
)

type Category string

const (
	Underweight Category = "Underweight"
	Normal      Category = "Normal"
	Overweight  Category = "Overweight"
	Obese       Category = "Obese"
)

// Targets are the recommended daily values for a BMI category.
type Targets struct {
	Steps       int     `json:"steps"`
	WaterLiters float64 `json:"water_liters"`
	SleepHours  float64 `json:"sleep_hours"`
}

// Assessment bundles everything derived from a weight/height pair.
type Assessment struct {
	BMI      float64  `json:"bmi"`
	Category Category `json:"category"`
	Targets  Targets  `json:"targets"`
}

// BMI returns weight / height_m², rounded to one decimal place. Rounding
// works on the exact binary value, so 24.949999... stays 24.9.
func BMI(weightKg, heightCm float64) (float64, error) {
	if heightCm <= 0 {
		return 0, apperror.InvalidInput("height must be positive")
	}
	if weightKg <= 0 {
		return 0, apperror.InvalidInput("weight must be positive")
	}
	heightM := heightCm / 100
	return strconv.ParseFloat(strconv.FormatFloat(weightKg/(heightM*heightM), 'f', 1, 64), 64)
}

// CategoryFor classifies a BMI value. Lower bounds are inclusive.
func CategoryFor(bmi float64) Category {
	switch {
	case bmi < 18.5:
		return Underweight
	case bmi < 25:
		return Normal
	case bmi < 30:
		return Overweight
	default:
		return Obese
	}
}

// TargetsFor returns the daily targets for c. Unknown categories get the
// Obese targets, the same fallback the classification itself uses.
func TargetsFor(c Category) Targets {
	switch c {
	case Underweight:
		return Targets{Steps: 8000, WaterLiters: 2.5, SleepHours: 7}
	case Normal:
		return Targets{Steps: 10000, WaterLiters: 3.0, SleepHours: 7}
	case Overweight:
		return Targets{Steps: 12000, WaterLiters: 3.5, SleepHours: 7}
	default:
		return Targets{Steps: 15000, WaterLiters: 4.0, SleepHours: 7}
	}
}

func Assess(weightKg, heightCm float64) (Assessment, error) {
	bmi, err := BMI(weightKg, heightCm)
	if err != nil {
		return Assessment{}, err
	}
	c := CategoryFor(bmi)
	return Assessment{BMI: bmi, Category: c, Targets: TargetsFor(c)}, nil
}
