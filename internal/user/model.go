package user

import (
	"healthtrack/internal/advice"
)

type Role string

const (
	RolePatient   Role = "patient"
	RoleClinician Role = "clinician"
)

func (r Role) Valid() bool {
	return r == RolePatient || r == RoleClinician
}

// Profile is a registered patient or clinician. Patient-only fields are zero
// for clinicians and vice versa.
type Profile struct {
	Username string `json:"username" db:"username"`
	Role     Role   `json:"role" db:"role"`
	Name     string `json:"name" db:"name"`
	Age      int    `json:"age" db:"age"`
	Gender   string `json:"gender" db:"gender"`

	// Patient
	WeightKg      float64            `json:"weight,omitempty" db:"weight"`
	HeightCm      float64            `json:"height,omitempty" db:"height"`
	Conditions    string             `json:"conditions,omitempty" db:"conditions"`
	ConditionTags []advice.Condition `json:"condition_tags,omitempty" db:"condition_tags"`
	Contact       string             `json:"contact,omitempty" db:"contact"`
	Email         string             `json:"email,omitempty" db:"email"`

	// Clinician
	Specialization string `json:"specialization,omitempty" db:"specialization"`

	// Compared by plain equality only.
	Credential string `json:"-" db:"credential"`
}

func (p *Profile) IsPatient() bool {
	return p.Role == RolePatient
}

// Subject extracts the inputs of the advice engine.
func (p *Profile) Subject() advice.Subject {
	return advice.Subject{
		WeightKg:   p.WeightKg,
		HeightCm:   p.HeightCm,
		Conditions: p.ConditionTags,
	}
}

// Clone returns a deep copy.
func (p *Profile) Clone() *Profile {
	c := *p
	if p.ConditionTags != nil {
		c.ConditionTags = append([]advice.Condition(nil), p.ConditionTags...)
	}
	return &c
}
