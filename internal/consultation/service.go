package consultation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"healthtrack/internal/advice"
	"healthtrack/internal/health"
	"healthtrack/internal/ledger"
	"healthtrack/internal/platform/apperror"
	"healthtrack/internal/platform/telemetry"
	"healthtrack/internal/platform/validation"
	"healthtrack/internal/user"
)

// Service drives a patient's consultation from submission to completion:
// NoSubmission -> Pending -> (completed) NoSubmission.
type Service interface {
	Submit(ctx context.Context, req SubmitRequest) (*Submission, error)
	ListPending(ctx context.Context) ([]string, error)
	Review(ctx context.Context, username string) (*Review, error)
	Complete(ctx context.Context, username, prescription string) (*ledger.Entry, error)
}

type Option func(*service)

// WithClock overrides the time source used for submission and completion
// stamps.
func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

// service owns the directory, queue, ledger and prescription stores. Every
// operation holds mu for its whole duration, so the store set is never
// mutated by two calls at once.
type service struct {
	mu sync.Mutex

	users         user.Repository
	queue         Queue
	ledger        ledger.Ledger
	prescriptions ledger.Prescriptions

	validate *validator.Validate
	metrics  *telemetry.Metrics
	log      zerolog.Logger
	now      func() time.Time
}

func NewService(
	users user.Repository,
	queue Queue,
	l ledger.Ledger,
	prescriptions ledger.Prescriptions,
	metrics *telemetry.Metrics,
	log zerolog.Logger,
	opts ...Option,
) Service {
	s := &service{
		users:         users,
		queue:         queue,
		ledger:        l,
		prescriptions: prescriptions,
		validate:      validation.New(),
		metrics:       metrics,
		log:           log.With().Str("component", "consultation").Logger(),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.refreshPending(context.Background())
	return s
}

// Submit records the patient's new weight/height and replaces any pending
// submission with a fresh one. Either both writes happen or neither does.
func (s *service) Submit(ctx context.Context, req SubmitRequest) (*Submission, error) {
	if err := s.checkSubmit(req); err != nil {
		s.metrics.Failures.WithLabelValues("submit").Inc()
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	profile, err := s.users.GetByUsername(ctx, req.Username)
	if err != nil {
		return nil, s.fail("submit", err)
	}
	if !profile.IsPatient() {
		return nil, s.fail("submit", apperror.Validation(fmt.Sprintf("user %q is not a patient", req.Username), nil))
	}

	if err := s.users.UpdateBody(ctx, req.Username, req.WeightKg, req.HeightCm); err != nil {
		return nil, s.fail("submit", fmt.Errorf("update body measurements: %w", err))
	}

	snapshot, err := s.users.GetByUsername(ctx, req.Username)
	if err != nil {
		s.restoreBody(ctx, profile)
		return nil, s.fail("submit", err)
	}
	snapshot.Credential = ""

	sub := &Submission{
		ID:           uuid.New(),
		Username:     req.Username,
		Profile:      snapshot,
		DailyMetrics: append([]health.DailyMetric(nil), req.DailyMetrics...),
		SubmittedAt:  s.now().UTC(),
	}
	if err := s.queue.Upsert(ctx, sub); err != nil {
		s.restoreBody(ctx, profile)
		return nil, s.fail("submit", fmt.Errorf("queue submission: %w", err))
	}

	s.metrics.Submissions.Inc()
	s.refreshPending(ctx)
	s.log.Info().
		Str("username", req.Username).
		Str("submission_id", sub.ID.String()).
		Int("days", len(sub.DailyMetrics)).
		Msg("consultation submitted")
	return sub.Clone(), nil
}

func (s *service) checkSubmit(req SubmitRequest) error {
	if err := validation.Struct(s.validate, req); err != nil {
		return err
	}
	if err := validateWindow(req.DailyMetrics); err != nil {
		return err
	}
	_, err := health.BMI(req.WeightKg, req.HeightCm)
	return err
}

// validateWindow requires one record per day on consecutive dates, oldest
// first.
func validateWindow(days []health.DailyMetric) error {
	if len(days) == 0 || len(days) > MaxWindowDays {
		return apperror.Validation(fmt.Sprintf("daily metrics must cover 1 to %d days", MaxWindowDays), nil)
	}
	var prev time.Time
	for i, d := range days {
		date, err := time.Parse(health.DateLayout, d.Date)
		if err != nil {
			return apperror.Validation(fmt.Sprintf("daily_metrics[%d].date is not a YYYY-MM-DD date", i), err)
		}
		if i > 0 && !date.Equal(prev.AddDate(0, 0, 1)) {
			return apperror.Validation(fmt.Sprintf("daily_metrics[%d] must be the day after %s", i, prev.Format(health.DateLayout)), nil)
		}
		prev = date
	}
	return nil
}

func (s *service) restoreBody(ctx context.Context, previous *user.Profile) {
	if err := s.users.UpdateBody(ctx, previous.Username, previous.WeightKg, previous.HeightCm); err != nil {
		s.log.Error().Err(err).Str("username", previous.Username).Msg("failed to restore body measurements")
	}
}

func (s *service) ListPending(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending, err := s.queue.ListPending(ctx)
	if err != nil {
		return nil, err
	}
	usernames := make([]string, len(pending))
	for i, p := range pending {
		usernames[i] = p.Username
	}
	return usernames, nil
}

// Review returns the pending submission with freshly generated advice. It
// changes nothing.
func (s *service) Review(ctx context.Context, username string) (*Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub, err := s.pending(ctx, username)
	if err != nil {
		return nil, s.fail("review", err)
	}
	text, err := advice.Generate(sub.Profile.Subject(), sub.DailyMetrics)
	if err != nil {
		return nil, s.fail("review", err)
	}
	assessment, err := health.Assess(sub.Profile.WeightKg, sub.Profile.HeightCm)
	if err != nil {
		return nil, s.fail("review", err)
	}

	s.metrics.Reviews.Inc()
	return &Review{Submission: sub, Assessment: &assessment, Advice: text}, nil
}

// Complete closes a pending submission: the prescription replaces the
// patient's previous one, a ledger entry is appended and the submission
// leaves the queue. The ledger append runs last; if any step fails the
// earlier ones are restored.
func (s *service) Complete(ctx context.Context, username, prescription string) (*ledger.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub, err := s.pending(ctx, username)
	if err != nil {
		return nil, s.fail("complete", err)
	}
	text, err := advice.Generate(sub.Profile.Subject(), sub.DailyMetrics)
	if err != nil {
		return nil, s.fail("complete", err)
	}

	previous, err := s.prescriptions.Get(ctx, username)
	hadPrevious := err == nil
	if err != nil && !errors.Is(err, apperror.ErrNotFound) {
		return nil, s.fail("complete", fmt.Errorf("read current prescription: %w", err))
	}

	p := sub.Profile
	entry := &ledger.Entry{
		ID:             uuid.New(),
		Username:       username,
		Name:           p.Name,
		Age:            p.Age,
		Gender:         p.Gender,
		Contact:        p.Contact,
		Email:          p.Email,
		Conditions:     p.Conditions,
		CompletionDate: s.now().UTC().Format(health.DateLayout),
		Prescription:   prescription,
		Advice:         text,
	}

	slot, err := s.queue.Remove(ctx, username)
	if err != nil {
		return nil, s.fail("complete", err)
	}
	if err := s.prescriptions.Put(ctx, username, prescription); err != nil {
		s.reinstate(ctx, sub, slot)
		return nil, s.fail("complete", fmt.Errorf("save prescription: %w", err))
	}
	if err := s.ledger.Append(ctx, entry); err != nil {
		s.restorePrescription(ctx, username, previous, hadPrevious)
		s.reinstate(ctx, sub, slot)
		return nil, s.fail("complete", fmt.Errorf("append ledger entry: %w", err))
	}

	s.metrics.Completions.Inc()
	s.refreshPending(ctx)
	s.log.Info().
		Str("username", username).
		Str("consultation_id", entry.ID.String()).
		Msg("consultation completed")
	return entry, nil
}

// pending loads a submission and rejects records without a profile snapshot.
func (s *service) pending(ctx context.Context, username string) (*Submission, error) {
	sub, err := s.queue.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if sub.Profile == nil {
		return nil, fmt.Errorf("pending submission for %q has no profile snapshot", username)
	}
	return sub, nil
}

func (s *service) reinstate(ctx context.Context, sub *Submission, slot int64) {
	if err := s.queue.Reinstate(ctx, sub, slot); err != nil {
		s.log.Error().Err(err).Str("username", sub.Username).Msg("failed to reinstate pending submission")
	}
}

func (s *service) restorePrescription(ctx context.Context, username, previous string, existed bool) {
	var err error
	if existed {
		err = s.prescriptions.Put(ctx, username, previous)
	} else {
		err = s.prescriptions.Delete(ctx, username)
	}
	if err != nil {
		s.log.Error().Err(err).Str("username", username).Msg("failed to restore prescription")
	}
}

func (s *service) refreshPending(ctx context.Context) {
	pending, err := s.queue.ListPending(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("failed to refresh pending gauge")
		return
	}
	s.metrics.PendingQueue.Set(float64(len(pending)))
}

// fail counts err against op. Expected conditions are logged at debug, the
// rest at error.
func (s *service) fail(op string, err error) error {
	s.metrics.Failures.WithLabelValues(op).Inc()
	evt := s.log.Error()
	if apperror.CodeOf(err) != apperror.CodeInternal {
		evt = s.log.Debug()
	}
	evt.Err(err).Str("operation", op).Msg("consultation operation failed")
	return err
}
