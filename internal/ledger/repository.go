package ledger

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"net/url"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/google/uuid"

	"healthtrack/internal/platform/apperror"
	"healthtrack/internal/platform/fsstore"
)

// Ledger is the append-only history of completed consultations.
type Ledger interface {
	Append(ctx context.Context, e *Entry) error
	Get(ctx context.Context, id uuid.UUID) (*Entry, error)
	List(ctx context.Context) ([]*Entry, error)
	ListByUsername(ctx context.Context, username string) ([]*Entry, error)
}

// Prescriptions keeps the latest prescription text per patient.
type Prescriptions interface {
	// Get returns the current prescription, or a not-found error.
	Get(ctx context.Context, username string) (string, error)
	Put(ctx context.Context, username, text string) error
	// Delete removes the prescription; deleting a missing one is a no-op.
	Delete(ctx context.Context, username string) error
}

var csvHeader = []string{
	"id", "username", "name", "age", "gender", "contact", "email",
	"conditions", "date", "prescription", "advice",
}

type fileLedger struct {
	path string

	mu      sync.RWMutex
	entries []*Entry
}

// NewFileLedger loads the CSV ledger at path, if any.
func NewFileLedger(path string) (Ledger, error) {
	data, err := fsstore.ReadFile(path)
	if err != nil {
		return nil, err
	}
	entries, err := decodeCSV(data)
	if err != nil {
		return nil, fmt.Errorf("load ledger %s: %w", path, err)
	}
	return &fileLedger{path: path, entries: entries}, nil
}

func (l *fileLedger) Append(ctx context.Context, e *Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	cp := *e
	next := make([]*Entry, len(l.entries), len(l.entries)+1)
	copy(next, l.entries)
	next = append(next, &cp)

	data, err := encodeCSV(next)
	if err != nil {
		return err
	}
	if err := fsstore.WriteFile(l.path, data); err != nil {
		return fmt.Errorf("persist ledger: %w", err)
	}
	l.entries = next
	return nil
}

func (l *fileLedger) Get(ctx context.Context, id uuid.UUID) (*Entry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for _, e := range l.entries {
		if e.ID == id {
			cp := *e
			return &cp, nil
		}
	}
	return nil, apperror.NotFound(fmt.Sprintf("consultation %s", id))
}

func (l *fileLedger) List(ctx context.Context) ([]*Entry, error) {
	return l.filter(func(*Entry) bool { return true }), nil
}

func (l *fileLedger) ListByUsername(ctx context.Context, username string) ([]*Entry, error) {
	return l.filter(func(e *Entry) bool { return e.Username == username }), nil
}

func (l *fileLedger) filter(keep func(*Entry) bool) []*Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := []*Entry{}
	for _, e := range l.entries {
		if keep(e) {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out
}

func encodeCSV(entries []*Entry) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, e := range entries {
		rec := []string{
			e.ID.String(), e.Username, e.Name, strconv.Itoa(e.Age), e.Gender,
			e.Contact, e.Email, e.Conditions, e.CompletionDate, e.Prescription, e.Advice,
		}
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeCSV(data []byte) ([]*Entry, error) {
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
	entries := make([]*Entry, 0, len(rows)-1)
	for n, rec := range rows[1:] {
		if len(rec) != len(csvHeader) {
			return nil, fmt.Errorf("row %d: expected %d columns, got %d", n+2, len(csvHeader), len(rec))
		}
		id, err := uuid.Parse(rec[0])
		if err != nil {
			return nil, fmt.Errorf("row %d: id: %w", n+2, err)
		}
		age, err := strconv.Atoi(rec[3])
		if err != nil {
			return nil, fmt.Errorf("row %d: age: %w", n+2, err)
		}
		entries = append(entries, &Entry{
			ID:             id,
			Username:       rec[1],
			Name:           rec[2],
			Age:            age,
			Gender:         rec[4],
			Contact:        rec[5],
			Email:          rec[6],
			Conditions:     rec[7],
			CompletionDate: rec[8],
			Prescription:   rec[9],
			Advice:         rec[10],
		})
	}
	return entries, nil
}

// filePrescriptions stores one <username>.txt per patient under dir.
type filePrescriptions struct {
	dir string
	mu  sync.Mutex
}

func NewFilePrescriptions(dir string) Prescriptions {
	return &filePrescriptions{dir: dir}
}

func (p *filePrescriptions) pathFor(username string) string {
	return filepath.Join(p.dir, url.PathEscape(username)+".txt")
}

func (p *filePrescriptions) Get(ctx context.Context, username string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	data, err := fsstore.ReadFile(p.pathFor(username))
	if err != nil {
		return "", err
	}
	if data == nil {
		return "", apperror.NotFound(fmt.Sprintf("prescription for %q", username))
	}
	return string(data), nil
}

func (p *filePrescriptions) Put(ctx context.Context, username, text string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	return fsstore.WriteFile(p.pathFor(username), []byte(text))
}

func (p *filePrescriptions) Delete(ctx context.Context, username string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	return fsstore.Remove(p.pathFor(username))
}
