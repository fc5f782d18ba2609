package user

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"healthtrack/internal/advice"
	"healthtrack/internal/health"
	"healthtrack/internal/platform/apperror"
	"healthtrack/internal/platform/telemetry"
	"healthtrack/internal/platform/validation"
)

type RegisterPatientRequest struct {
	Username        string  `json:"username" validate:"required"`
	Name            string  `json:"name" validate:"required"`
	Age             int     `json:"age" validate:"gte=1,lte=120"`
	Gender          string  `json:"gender" validate:"required,oneof=Male Female Other"`
	WeightKg        float64 `json:"weight" validate:"gte=1,lte=300"`
	HeightCm        float64 `json:"height" validate:"gte=30,lte=250"`
	Conditions      string  `json:"conditions"`
	Contact         string  `json:"contact"`
	Email           string  `json:"email" validate:"omitempty,email"`
	Password        string  `json:"password" validate:"required"`
	ConfirmPassword string  `json:"confirm_password" validate:"eqfield=Password"`
}

type RegisterClinicianRequest struct {
	Username        string `json:"username" validate:"required"`
	Name            string `json:"name" validate:"required"`
	Age             int    `json:"age" validate:"gte=25,lte=100"`
	Gender          string `json:"gender" validate:"required,oneof=Male Female Other"`
	Specialization  string `json:"specialization" validate:"required"`
	Password        string `json:"password" validate:"required"`
	ConfirmPassword string `json:"confirm_password" validate:"eqfield=Password"`
}

type Service interface {
	RegisterPatient(ctx context.Context, req RegisterPatientRequest) (*Profile, error)
	RegisterClinician(ctx context.Context, req RegisterClinicianRequest) (*Profile, error)
	Login(ctx context.Context, username, password string) (*Profile, error)
	Health(ctx context.Context, username string) (*health.Assessment, error)
}

type service struct {
	repo     Repository
	validate *validator.Validate
	metrics  *telemetry.Metrics
	log      zerolog.Logger
}

func NewService(repo Repository, metrics *telemetry.Metrics, log zerolog.Logger) Service {
	return &service{
		repo:     repo,
		validate: validation.New(),
		metrics:  metrics,
		log:      log.With().Str("component", "user").Logger(),
	}
}

func (s *service) RegisterPatient(ctx context.Context, req RegisterPatientRequest) (*Profile, error) {
	if err := validation.Struct(s.validate, req); err != nil {
		return nil, err
	}
	p := &Profile{
		Username:      req.Username,
		Role:          RolePatient,
		Name:          req.Name,
		Age:           req.Age,
		Gender:        req.Gender,
		WeightKg:      req.WeightKg,
		HeightCm:      req.HeightCm,
		Conditions:    req.Conditions,
		ConditionTags: advice.ParseConditions(req.Conditions),
		Contact:       req.Contact,
		Email:         req.Email,
		Credential:    req.Password,
	}
	return s.register(ctx, p)
}

func (s *service) RegisterClinician(ctx context.Context, req RegisterClinicianRequest) (*Profile, error) {
	if err := validation.Struct(s.validate, req); err != nil {
		return nil, err
	}
	p := &Profile{
		Username:       req.Username,
		Role:           RoleClinician,
		Name:           req.Name,
		Age:            req.Age,
		Gender:         req.Gender,
		Specialization: req.Specialization,
		Credential:     req.Password,
	}
	return s.register(ctx, p)
}

func (s *service) register(ctx context.Context, p *Profile) (*Profile, error) {
	if err := s.repo.Register(ctx, p); err != nil {
		s.log.Warn().Err(err).Str("username", p.Username).Msg("registration rejected")
		return nil, err
	}
	s.metrics.Registrations.WithLabelValues(string(p.Role)).Inc()
	s.log.Info().Str("username", p.Username).Str("role", string(p.Role)).Msg("profile registered")
	return p, nil
}

func (s *service) Login(ctx context.Context, username, password string) (*Profile, error) {
	return s.repo.FindByCredentials(ctx, username, password)
}

// Health returns the BMI assessment of a patient's current measurements.
func (s *service) Health(ctx context.Context, username string) (*health.Assessment, error) {
	p, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if !p.IsPatient() {
		return nil, apperror.Validation(fmt.Sprintf("user %q is not a patient", username), nil)
	}
	a, err := health.Assess(p.WeightKg, p.HeightCm)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
