package user

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"healthtrack/internal/advice"
	"healthtrack/internal/platform/apperror"
)

var profileColumns = []string{
	"username", "role", "name", "age", "gender", "weight", "height", "conditions",
	"condition_tags", "contact", "email", "specialization", "credential",
}

func TestPostgresRegisterDuplicate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO users").
		WillReturnError(&pq.Error{Code: uniqueViolation})

	err = NewPostgresRepository(db).Register(context.Background(), newPatient("alice"))
	assert.ErrorIs(t, err, apperror.ErrDuplicateUsername)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetByUsername(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM users WHERE username = \\$1").
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows(profileColumns).AddRow(
			"alice", "patient", "Alice Smith", 34, "Female", 50.0, 160.0, "asthma",
			"{asthma}", "555-0100", "alice@example.com", nil, "s3cret",
		))

	p, err := NewPostgresRepository(db).GetByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, RolePatient, p.Role)
	assert.Equal(t, 50.0, p.WeightKg)
	assert.Equal(t, []advice.Condition{advice.Asthma}, p.ConditionTags)
	assert.Empty(t, p.Specialization)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetByUsernameMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM users").
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows(profileColumns))

	_, err = NewPostgresRepository(db).GetByUsername(context.Background(), "ghost")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestPostgresUpdateBodyMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("UPDATE users SET weight").
		WithArgs("ghost", 60.0, 170.0).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = NewPostgresRepository(db).UpdateBody(context.Background(), "ghost", 60, 170)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}
