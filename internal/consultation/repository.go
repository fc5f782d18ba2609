package consultation

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"healthtrack/internal/platform/apperror"
	"healthtrack/internal/platform/fsstore"
)

// Queue holds pending submissions in insertion order, at most one per
// username.
type Queue interface {
	// Upsert drops any pending submission of the same username, then appends s.
	Upsert(ctx context.Context, s *Submission) error
	ListPending(ctx context.Context) ([]*Submission, error)
	GetByUsername(ctx context.Context, username string) (*Submission, error)
	// Remove deletes the pending submission of username. The returned slot
	// identifies its place in the queue for Reinstate.
	Remove(ctx context.Context, username string) (int64, error)
	// Reinstate puts a removed submission back into the slot it was removed
	// from.
	Reinstate(ctx context.Context, s *Submission, slot int64) error
}

type fileQueue struct {
	path string

	mu      sync.RWMutex
	pending []*Submission
}

// NewFileQueue loads the JSON queue document at path, if any.
func NewFileQueue(path string) (Queue, error) {
	data, err := fsstore.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var pending []*Submission
	if len(data) > 0 {
		if err := json.Unmarshal(data, &pending); err != nil {
			return nil, fmt.Errorf("load consultation queue %s: %w", path, err)
		}
	}
	return &fileQueue{path: path, pending: pending}, nil
}

func (q *fileQueue) Upsert(ctx context.Context, s *Submission) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	next := make([]*Submission, 0, len(q.pending)+1)
	for _, p := range q.pending {
		if p.Username != s.Username {
			next = append(next, p)
		}
	}
	next = append(next, s.Clone())
	return q.commit(next)
}

func (q *fileQueue) ListPending(ctx context.Context) ([]*Submission, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	out := make([]*Submission, len(q.pending))
	for i, p := range q.pending {
		out[i] = p.Clone()
	}
	return out, nil
}

func (q *fileQueue) GetByUsername(ctx context.Context, username string) (*Submission, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	i := q.indexOf(username)
	if i < 0 {
		return nil, notPending(username)
	}
	return q.pending[i].Clone(), nil
}

// Remove returns the submission's index as its slot.
func (q *fileQueue) Remove(ctx context.Context, username string) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	i := q.indexOf(username)
	if i < 0 {
		return -1, notPending(username)
	}
	next := make([]*Submission, 0, len(q.pending)-1)
	next = append(next, q.pending[:i]...)
	next = append(next, q.pending[i+1:]...)
	if err := q.commit(next); err != nil {
		return -1, err
	}
	return int64(i), nil
}

func (q *fileQueue) Reinstate(ctx context.Context, s *Submission, slot int64) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	next := make([]*Submission, 0, len(q.pending)+1)
	for _, p := range q.pending {
		if p.Username != s.Username {
			next = append(next, p)
		}
	}
	position := int(slot)
	if position < 0 || position > len(next) {
		position = len(next)
	}
	next = append(next[:position], append([]*Submission{s.Clone()}, next[position:]...)...)
	return q.commit(next)
}

func (q *fileQueue) indexOf(username string) int {
	for i, p := range q.pending {
		if p.Username == username {
			return i
		}
	}
	return -1
}

func (q *fileQueue) commit(next []*Submission) error {
	data, err := json.MarshalIndent(next, "", "  ")
	if err != nil {
		return err
	}
	if err := fsstore.WriteFile(q.path, data); err != nil {
		return fmt.Errorf("persist consultation queue: %w", err)
	}
	q.pending = next
	return nil
}

func notPending(username string) error {
	return apperror.NotFound(fmt.Sprintf("pending submission for %q", username))
}
