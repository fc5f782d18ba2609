package consultation

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// postgresQueue orders submissions by a sequence column; Upsert always
// takes a fresh sequence value so a resubmission moves to the back.
type postgresQueue struct {
	db *sql.DB
}

func NewPostgresQueue(db *sql.DB) Queue {
	return &postgresQueue{db: db}
}

const selectSubmission = `SELECT id, username, profile, daily_metrics, submitted_at FROM consultation_requests`

func (q *postgresQueue) Upsert(ctx context.Context, s *Submission) error {
	profileJSON, metricsJSON, err := marshalPayload(s)
	if err != nil {
		return err
	}

	tx, err := q.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM consultation_requests WHERE username = $1`, s.Username); err != nil {
		return fmt.Errorf("replace pending submission: %w", err)
	}
	query := `
		INSERT INTO consultation_requests (id, username, profile, daily_metrics, submitted_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := tx.ExecContext(ctx, query, s.ID, s.Username, profileJSON, metricsJSON, s.SubmittedAt); err != nil {
		return fmt.Errorf("insert pending submission: %w", err)
	}
	return tx.Commit()
}

func (q *postgresQueue) ListPending(ctx context.Context) ([]*Submission, error) {
	rows, err := q.db.QueryContext(ctx, selectSubmission+` ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list pending submissions: %w", err)
	}
	defer rows.Close()

	out := []*Submission{}
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (q *postgresQueue) GetByUsername(ctx context.Context, username string) (*Submission, error) {
	row := q.db.QueryRowContext(ctx, selectSubmission+` WHERE username = $1`, username)
	s, err := scanSubmission(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notPending(username)
	}
	return s, err
}

// Remove returns the row's sequence value as its slot.
func (q *postgresQueue) Remove(ctx context.Context, username string) (int64, error) {
	var seq int64
	err := q.db.QueryRowContext(ctx,
		`DELETE FROM consultation_requests WHERE username = $1 RETURNING seq`, username).Scan(&seq)
	if errors.Is(err, sql.ErrNoRows) {
		return -1, notPending(username)
	}
	if err != nil {
		return -1, fmt.Errorf("remove pending submission: %w", err)
	}
	return seq, nil
}

func (q *postgresQueue) Reinstate(ctx context.Context, s *Submission, slot int64) error {
	profileJSON, metricsJSON, err := marshalPayload(s)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO consultation_requests (seq, id, username, profile, daily_metrics, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (username) DO NOTHING
	`
	if _, err := q.db.ExecContext(ctx, query, slot, s.ID, s.Username, profileJSON, metricsJSON, s.SubmittedAt); err != nil {
		return fmt.Errorf("reinstate pending submission: %w", err)
	}
	return nil
}

func marshalPayload(s *Submission) ([]byte, []byte, error) {
	profileJSON, err := json.Marshal(s.Profile)
	if err != nil {
		return nil, nil, err
	}
	metricsJSON, err := json.Marshal(s.DailyMetrics)
	if err != nil {
		return nil, nil, err
	}
	return profileJSON, metricsJSON, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanSubmission(sc scanner) (*Submission, error) {
	var s Submission
	var profileJSON, metricsJSON []byte

	err := sc.Scan(
		&s.ID,
		&s.Username,
		&profileJSON,
		&metricsJSON,
		&s.SubmittedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(profileJSON) > 0 {
		if err := json.Unmarshal(profileJSON, &s.Profile); err != nil {
			return nil, fmt.Errorf("failed to unmarshal profile snapshot: %w", err)
		}
	}
	if len(metricsJSON) > 0 {
		if err := json.Unmarshal(metricsJSON, &s.DailyMetrics); err != nil {
			return nil, fmt.Errorf("failed to unmarshal daily metrics: %w", err)
		}
	}
	return &s, nil
}
