package ledger

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/360EntSecGroup-Skylar/excelize"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"healthtrack/internal/platform/apperror"
)

func sampleEntry(username, prescription string) *Entry {
	return &Entry{
		ID:             uuid.New(),
		Username:       username,
		Name:           "Alice Smith",
		Age:            34,
		Gender:         "Female",
		Contact:        "555-0100",
		Email:          "alice@example.com",
		Conditions:     "asthma, \"seasonal\"",
		CompletionDate: "2026-10-15",
		Prescription:   prescription,
		Advice:         "Maintain a balanced diet and regular exercise.\nAim for at least 7 hours of sleep.",
	}
}

func TestFileLedgerAppendAndReload(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "completed_consultations.csv")

	l, err := NewFileLedger(path)
	require.NoError(t, err)

	first := sampleEntry("alice", "rest more")
	second := sampleEntry("bob", "walk daily")
	third := sampleEntry("alice", "drink water")
	for _, e := range []*Entry{first, second, third} {
		require.NoError(t, l.Append(ctx, e))
	}

	reloaded, err := NewFileLedger(path)
	require.NoError(t, err)

	all, err := reloaded.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []*Entry{first, second, third}, all)

	alice, err := reloaded.ListByUsername(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, alice, 2)
	assert.Equal(t, "rest more", alice[0].Prescription)
	assert.Equal(t, "drink water", alice[1].Prescription)

	got, err := reloaded.Get(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, second, got)

	_, err = reloaded.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestFileLedgerEmpty(t *testing.T) {
	l, err := NewFileLedger(filepath.Join(t.TempDir(), "ledger.csv"))
	require.NoError(t, err)

	all, err := l.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestFilePrescriptionsOverwrite(t *testing.T) {
	ctx := context.Background()
	p := NewFilePrescriptions(filepath.Join(t.TempDir(), "prescriptions"))

	_, err := p.Get(ctx, "alice")
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	require.NoError(t, p.Put(ctx, "alice", "rest more"))
	require.NoError(t, p.Put(ctx, "alice", "walk daily"))

	text, err := p.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "walk daily", text)

	require.NoError(t, p.Delete(ctx, "alice"))
	require.NoError(t, p.Delete(ctx, "alice"))
	_, err = p.Get(ctx, "alice")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestFilePrescriptionsEscapesUsername(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	p := NewFilePrescriptions(filepath.Join(dir, "prescriptions"))

	require.NoError(t, p.Put(ctx, "../evil", "x"))
	text, err := p.Get(ctx, "../evil")
	require.NoError(t, err)
	assert.Equal(t, "x", text)
	assert.NoFileExists(t, filepath.Join(dir, "evil.txt"))
}

func TestExport(t *testing.T) {
	entries := []*Entry{sampleEntry("alice", "rest more"), sampleEntry("bob", "walk daily")}

	var buf bytes.Buffer
	require.NoError(t, Export(&buf, entries))

	book, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	assert.Equal(t, "Date", book.GetCellValue(exportSheet, "A1"))
	assert.Equal(t, "Prescription", book.GetCellValue(exportSheet, "I1"))
	assert.Equal(t, "alice", book.GetCellValue(exportSheet, "B2"))
	assert.Equal(t, "walk daily", book.GetCellValue(exportSheet, "I3"))
	assert.Equal(t, entries[1].ID.String(), book.GetCellValue(exportSheet, "K3"))
}
