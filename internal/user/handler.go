package user

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"healthtrack/internal/platform/apperror"
	"healthtrack/internal/platform/httpx"
)

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) RegisterPatient(w http.ResponseWriter, r *http.Request) {
	var req RegisterPatientRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, err)
		return
	}
	p, err := h.svc.RegisterPatient(r.Context(), req)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, p)
}

func (h *Handler) RegisterClinician(w http.ResponseWriter, r *http.Request) {
	var req RegisterClinicianRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, err)
		return
	}
	p, err := h.svc.RegisterClinician(r.Context(), req)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, p)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, err)
		return
	}
	p, err := h.svc.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

// Health serves BMI, category and targets. Patients may only read their own.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	id := Identity{Username: r.Header.Get(HeaderUsername), Role: Role(r.Header.Get(HeaderRole))}
	if id.Username == "" || !id.Role.Valid() {
		httpx.Error(w, apperror.Forbidden("caller identity required"))
		return
	}
	if id.Role == RolePatient && id.Username != username {
		httpx.Error(w, apperror.Forbidden("patients may only view their own health data"))
		return
	}
	a, err := h.svc.Health(r.Context(), username)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, a)
}

func RegisterRoutes(r chi.Router, h *Handler) {
	r.Post("/users/patients", h.RegisterPatient)
	r.Post("/users/clinicians", h.RegisterClinician)
	r.Post("/login", h.Login)
	r.Get("/users/{username}/health", h.Health)
}
