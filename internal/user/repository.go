package user

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"healthtrack/internal/advice"
	"healthtrack/internal/platform/apperror"
	"healthtrack/internal/platform/fsstore"
)

type Repository interface {
	Register(ctx context.Context, p *Profile) error
	FindByCredentials(ctx context.Context, username, secret string) (*Profile, error)
	GetByUsername(ctx context.Context, username string) (*Profile, error)
	UpdateBody(ctx context.Context, username string, weightKg, heightCm float64) error
	List(ctx context.Context) ([]*Profile, error)
}

var csvHeader = []string{
	"username", "name", "age", "gender", "weight", "height", "conditions",
	"condition_tags", "password", "role", "contact", "email", "specialization",
}

// fileRepo keeps the directory in memory and rewrites the whole CSV table on
// every mutation. The in-memory table only changes once the write succeeded.
type fileRepo struct {
	path string

	mu       sync.RWMutex
	profiles []*Profile
}

// NewFileRepository loads the directory stored at path, if any.
func NewFileRepository(path string) (Repository, error) {
	data, err := fsstore.ReadFile(path)
	if err != nil {
		return nil, err
	}
	profiles, err := decodeCSV(data)
	if err != nil {
		return nil, fmt.Errorf("load user directory %s: %w", path, err)
	}
	return &fileRepo{path: path, profiles: profiles}, nil
}

func (r *fileRepo) Register(ctx context.Context, p *Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.indexOf(p.Username) >= 0 {
		return apperror.DuplicateUsername(p.Username)
	}
	next := make([]*Profile, len(r.profiles), len(r.profiles)+1)
	copy(next, r.profiles)
	next = append(next, p.Clone())
	return r.commit(next)
}

func (r *fileRepo) FindByCredentials(ctx context.Context, username, secret string) (*Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i := r.indexOf(username)
	if i < 0 || r.profiles[i].Credential != secret {
		return nil, apperror.NotFound("user with these credentials")
	}
	return r.profiles[i].Clone(), nil
}

func (r *fileRepo) GetByUsername(ctx context.Context, username string) (*Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i := r.indexOf(username)
	if i < 0 {
		return nil, apperror.NotFound(fmt.Sprintf("user %q", username))
	}
	return r.profiles[i].Clone(), nil
}

func (r *fileRepo) UpdateBody(ctx context.Context, username string, weightKg, heightCm float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(username)
	if i < 0 {
		return apperror.NotFound(fmt.Sprintf("user %q", username))
	}
	updated := r.profiles[i].Clone()
	updated.WeightKg = weightKg
	updated.HeightCm = heightCm

	next := make([]*Profile, len(r.profiles))
	copy(next, r.profiles)
	next[i] = updated
	return r.commit(next)
}

func (r *fileRepo) List(ctx context.Context) ([]*Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Profile, len(r.profiles))
	for i, p := range r.profiles {
		out[i] = p.Clone()
	}
	return out, nil
}

func (r *fileRepo) indexOf(username string) int {
	for i, p := range r.profiles {
		if p.Username == username {
			return i
		}
	}
	return -1
}

// commit persists next and makes it the current table.
func (r *fileRepo) commit(next []*Profile) error {
	data, err := encodeCSV(next)
	if err != nil {
		return err
	}
	if err := fsstore.WriteFile(r.path, data); err != nil {
		return fmt.Errorf("persist user directory: %w", err)
	}
	r.profiles = next
	return nil
}

func encodeCSV(profiles []*Profile) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, p := range profiles {
		if err := w.Write(toRecord(p)); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeCSV(data []byte) ([]*Profile, error) {
	if len(data) == 0 {
		return nil, nil
	}
	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	profiles := make([]*Profile, 0, len(rows)-1)
	for n, row := range rows[1:] {
		p, err := fromRecord(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", n+2, err)
		}
		profiles = append(profiles, p)
	}
	return profiles, nil
}

func toRecord(p *Profile) []string {
	rec := []string{
		p.Username, p.Name, strconv.Itoa(p.Age), p.Gender,
		"", "", "", "", p.Credential, string(p.Role), "", "", "",
	}
	if p.IsPatient() {
		rec[4] = formatFloat(p.WeightKg)
		rec[5] = formatFloat(p.HeightCm)
		rec[6] = p.Conditions
		rec[7] = joinTags(p.ConditionTags)
		rec[10] = p.Contact
		rec[11] = p.Email
	} else {
		rec[12] = p.Specialization
	}
	return rec
}

func fromRecord(rec []string) (*Profile, error) {
	if len(rec) != len(csvHeader) {
		return nil, fmt.Errorf("expected %d columns, got %d", len(csvHeader), len(rec))
	}
	age, err := strconv.Atoi(rec[2])
	if err != nil {
		return nil, fmt.Errorf("age: %w", err)
	}
	p := &Profile{
		Username:       rec[0],
		Name:           rec[1],
		Age:            age,
		Gender:         rec[3],
		Conditions:     rec[6],
		ConditionTags:  splitTags(rec[7]),
		Credential:     rec[8],
		Role:           Role(rec[9]),
		Contact:        rec[10],
		Email:          rec[11],
		Specialization: rec[12],
	}
	if p.WeightKg, err = parseFloat(rec[4]); err != nil {
		return nil, fmt.Errorf("weight: %w", err)
	}
	if p.HeightCm, err = parseFloat(rec[5]); err != nil {
		return nil, fmt.Errorf("height: %w", err)
	}
	return p, nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func parseFloat(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

func joinTags(tags []advice.Condition) string {
	parts := make([]string, len(tags))
	for i, t := range tags {
		parts[i] = string(t)
	}
	return strings.Join(parts, ";")
}

func splitTags(s string) []advice.Condition {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ";")
	tags := make([]advice.Condition, len(parts))
	for i, p := range parts {
		tags[i] = advice.Condition(p)
	}
	return tags
}
