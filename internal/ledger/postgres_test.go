package ledger

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"healthtrack/internal/platform/apperror"
)

var entryColumns = []string{
	"id", "username", "name", "age", "gender", "contact", "email", "conditions",
	"completion_date", "prescription", "advice",
}

func TestPostgresLedgerAppend(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	e := sampleEntry("alice", "rest more")
	mock.ExpectExec("INSERT INTO completed_consultations").
		WithArgs(e.ID, e.Username, e.Name, e.Age, e.Gender, e.Contact, e.Email,
			e.Conditions, e.CompletionDate, e.Prescription, e.Advice).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, NewPostgresLedger(db).Append(context.Background(), e))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresLedgerListByUsername(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	id := uuid.New()
	mock.ExpectQuery("SELECT (.+) FROM completed_consultations WHERE username = \\$1 ORDER BY seq").
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows(entryColumns).AddRow(
			id.String(), "alice", "Alice Smith", 34, "Female", "555-0100", "alice@example.com",
			"asthma", "2026-10-15", "rest more", "Aim for at least 7 hours of sleep.",
		))

	entries, err := NewPostgresLedger(db).ListByUsername(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, id, entries[0].ID)
	assert.Equal(t, "2026-10-15", entries[0].CompletionDate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresLedgerGetMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	id := uuid.New()
	mock.ExpectQuery("SELECT (.+) FROM completed_consultations WHERE id = \\$1").
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(entryColumns))

	_, err = NewPostgresLedger(db).Get(context.Background(), id)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestPostgresPrescriptions(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	ctx := context.Background()
	p := NewPostgresPrescriptions(db)

	mock.ExpectExec("INSERT INTO prescriptions (.+) ON CONFLICT").
		WithArgs("alice", "rest more").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, p.Put(ctx, "alice", "rest more"))

	mock.ExpectQuery("SELECT body FROM prescriptions").
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"body"}).AddRow("rest more"))
	text, err := p.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "rest more", text)

	mock.ExpectQuery("SELECT body FROM prescriptions").
		WithArgs("bob").
		WillReturnRows(sqlmock.NewRows([]string{"body"}))
	_, err = p.Get(ctx, "bob")
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	mock.ExpectExec("DELETE FROM prescriptions").
		WithArgs("alice").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, p.Delete(ctx, "alice"))

	assert.NoError(t, mock.ExpectationsWereMet())
}
