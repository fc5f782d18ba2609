package consultation

import (
	"time"

	"github.com/google/uuid"

	"healthtrack/internal/health"
	"healthtrack/internal/user"
)

// MaxWindowDays bounds the daily-metric window of one submission.
const MaxWindowDays = 7

// Submission is a patient's request awaiting clinician review. There is at
// most one per username.
type Submission struct {
	ID       uuid.UUID `json:"id" db:"id"`
	Username string    `json:"username" db:"username"`

	// Profile as it was right after the submission's weight/height update.
	Profile *user.Profile `json:"profile" db:"profile"`

	DailyMetrics []health.DailyMetric `json:"daily_metrics" db:"daily_metrics"`
	SubmittedAt  time.Time            `json:"submitted_at" db:"submitted_at"`
}

func (s *Submission) Clone() *Submission {
	c := *s
	if s.Profile != nil {
		c.Profile = s.Profile.Clone()
	}
	c.DailyMetrics = append([]health.DailyMetric(nil), s.DailyMetrics...)
	return &c
}

// SubmitRequest carries a patient's updated body measurements and their
// recent daily data.
type SubmitRequest struct {
	Username     string               `json:"username" validate:"required"`
	WeightKg     float64              `json:"weight" validate:"lte=300"`
	HeightCm     float64              `json:"height" validate:"lte=250"`
	DailyMetrics []health.DailyMetric `json:"daily_metrics" validate:"required,min=1,max=7,dive"`
}

// Review is what a clinician sees for a pending submission.
type Review struct {
	Submission *Submission        `json:"submission"`
	Assessment *health.Assessment `json:"assessment"`
	Advice     string             `json:"advice"`
}
