package ledger

import (
	"github.com/google/uuid"
)

// Entry is one completed consultation. Entries are never modified once
// appended.
type Entry struct {
	ID             uuid.UUID `json:"id" db:"id"`
	Username       string    `json:"username" db:"username"`
	Name           string    `json:"name" db:"name"`
	Age            int       `json:"age" db:"age"`
	Gender         string    `json:"gender" db:"gender"`
	Contact        string    `json:"contact" db:"contact"`
	Email          string    `json:"email" db:"email"`
	Conditions     string    `json:"conditions" db:"conditions"`
	CompletionDate string    `json:"completion_date" db:"completion_date"`
	Prescription   string    `json:"prescription" db:"prescription"`
	Advice         string    `json:"advice" db:"advice"`
}
