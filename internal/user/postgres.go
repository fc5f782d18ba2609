package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"healthtrack/internal/advice"
	"healthtrack/internal/platform/apperror"
)

const uniqueViolation = "23505"

type postgresRepo struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) Repository {
	return &postgresRepo{db: db}
}

const selectProfile = `SELECT username, role, name, age, gender, weight, height, conditions,
	condition_tags, contact, email, specialization, credential FROM users`

func (r *postgresRepo) Register(ctx context.Context, p *Profile) error {
	query := `
		INSERT INTO users (username, role, name, age, gender, weight, height, conditions,
			condition_tags, contact, email, specialization, credential)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	var weight, height sql.NullFloat64
	var conditions, contact, email, specialization sql.NullString
	if p.IsPatient() {
		weight = sql.NullFloat64{Float64: p.WeightKg, Valid: true}
		height = sql.NullFloat64{Float64: p.HeightCm, Valid: true}
		conditions = sql.NullString{String: p.Conditions, Valid: true}
		contact = sql.NullString{String: p.Contact, Valid: true}
		email = sql.NullString{String: p.Email, Valid: true}
	} else {
		specialization = sql.NullString{String: p.Specialization, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, query,
		p.Username, p.Role, p.Name, p.Age, p.Gender, weight, height, conditions,
		pq.Array(tagStrings(p.ConditionTags)), contact, email, specialization, p.Credential)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return apperror.DuplicateUsername(p.Username)
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *postgresRepo) FindByCredentials(ctx context.Context, username, secret string) (*Profile, error) {
	row := r.db.QueryRowContext(ctx, selectProfile+` WHERE username = $1 AND credential = $2`, username, secret)
	p, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("user with these credentials")
	}
	return p, err
}

func (r *postgresRepo) GetByUsername(ctx context.Context, username string) (*Profile, error) {
	row := r.db.QueryRowContext(ctx, selectProfile+` WHERE username = $1`, username)
	p, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound(fmt.Sprintf("user %q", username))
	}
	return p, err
}

func (r *postgresRepo) UpdateBody(ctx context.Context, username string, weightKg, heightCm float64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET weight = $2, height = $3 WHERE username = $1`,
		username, weightKg, heightCm)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperror.NotFound(fmt.Sprintf("user %q", username))
	}
	return nil
}

func (r *postgresRepo) List(ctx context.Context) ([]*Profile, error) {
	rows, err := r.db.QueryContext(ctx, selectProfile+` ORDER BY created_at, username`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var out []*Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanProfile(s scanner) (*Profile, error) {
	var p Profile
	var weight, height sql.NullFloat64
	var conditions, contact, email, specialization sql.NullString
	var tags []string

	err := s.Scan(
		&p.Username,
		&p.Role,
		&p.Name,
		&p.Age,
		&p.Gender,
		&weight,
		&height,
		&conditions,
		pq.Array(&tags),
		&contact,
		&email,
		&specialization,
		&p.Credential,
	)
	if err != nil {
		return nil, err
	}
	p.WeightKg = weight.Float64
	p.HeightCm = height.Float64
	p.Conditions = conditions.String
	p.Contact = contact.String
	p.Email = email.String
	p.Specialization = specialization.String
	for _, t := range tags {
		p.ConditionTags = append(p.ConditionTags, advice.Condition(t))
	}
	return &p, nil
}

func tagStrings(tags []advice.Condition) []string {
	out := make([]string, len(tags))
	for i, t := range tags {
		out[i] = string(t)
	}
	return out
}
