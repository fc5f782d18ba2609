package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"healthtrack/internal/platform/apperror"
)

type postgresLedger struct {
	db *sql.DB
}

func NewPostgresLedger(db *sql.DB) Ledger {
	return &postgresLedger{db: db}
}

const selectEntry = `SELECT id, username, name, age, gender, contact, email, conditions,
	to_char(completion_date, 'YYYY-MM-DD'), prescription, advice FROM completed_consultations`

func (l *postgresLedger) Append(ctx context.Context, e *Entry) error {
	query := `
		INSERT INTO completed_consultations (id, username, name, age, gender, contact, email,
			conditions, completion_date, prescription, advice)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := l.db.ExecContext(ctx, query,
		e.ID, e.Username, e.Name, e.Age, e.Gender, e.Contact, e.Email,
		e.Conditions, e.CompletionDate, e.Prescription, e.Advice)
	if err != nil {
		return fmt.Errorf("append ledger entry: %w", err)
	}
	return nil
}

func (l *postgresLedger) Get(ctx context.Context, id uuid.UUID) (*Entry, error) {
	row := l.db.QueryRowContext(ctx, selectEntry+` WHERE id = $1`, id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound(fmt.Sprintf("consultation %s", id))
	}
	return e, err
}

func (l *postgresLedger) List(ctx context.Context) ([]*Entry, error) {
	return l.query(ctx, selectEntry+` ORDER BY seq`)
}

func (l *postgresLedger) ListByUsername(ctx context.Context, username string) ([]*Entry, error) {
	return l.query(ctx, selectEntry+` WHERE username = $1 ORDER BY seq`, username)
}

func (l *postgresLedger) query(ctx context.Context, query string, args ...interface{}) ([]*Entry, error) {
	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list ledger: %w", err)
	}
	defer rows.Close()

	out := []*Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanEntry(s scanner) (*Entry, error) {
	var e Entry
	err := s.Scan(
		&e.ID,
		&e.Username,
		&e.Name,
		&e.Age,
		&e.Gender,
		&e.Contact,
		&e.Email,
		&e.Conditions,
		&e.CompletionDate,
		&e.Prescription,
		&e.Advice,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

type postgresPrescriptions struct {
	db *sql.DB
}

func NewPostgresPrescriptions(db *sql.DB) Prescriptions {
	return &postgresPrescriptions{db: db}
}

func (p *postgresPrescriptions) Get(ctx context.Context, username string) (string, error) {
	var text string
	err := p.db.QueryRowContext(ctx, `SELECT body FROM prescriptions WHERE username = $1`, username).Scan(&text)
	if errors.Is(err, sql.ErrNoRows) {
		return "", apperror.NotFound(fmt.Sprintf("prescription for %q", username))
	}
	if err != nil {
		return "", fmt.Errorf("get prescription: %w", err)
	}
	return text, nil
}

func (p *postgresPrescriptions) Put(ctx context.Context, username, text string) error {
	query := `
		INSERT INTO prescriptions (username, body, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (username) DO UPDATE SET
			body = $2,
			updated_at = NOW()
	`
	if _, err := p.db.ExecContext(ctx, query, username, text); err != nil {
		return fmt.Errorf("put prescription: %w", err)
	}
	return nil
}

func (p *postgresPrescriptions) Delete(ctx context.Context, username string) error {
	if _, err := p.db.ExecContext(ctx, `DELETE FROM prescriptions WHERE username = $1`, username); err != nil {
		return fmt.Errorf("delete prescription: %w", err)
	}
	return nil
}
