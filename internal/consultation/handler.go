package consultation

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"healthtrack/internal/platform/apperror"
	"healthtrack/internal/platform/httpx"
	"healthtrack/internal/user"
)

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

type CompleteRequest struct {
	Prescription string `json:"prescription"`
}

// Submit accepts a patient's own submission; the username comes from the
// caller identity, not the body.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	id, _ := user.IdentityFromContext(r.Context())

	var req SubmitRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, err)
		return
	}
	if req.Username != "" && req.Username != id.Username {
		httpx.Error(w, apperror.Forbidden("patients may only submit for themselves"))
		return
	}
	req.Username = id.Username

	sub, err := h.svc.Submit(r.Context(), req)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, sub)
}

func (h *Handler) ListPending(w http.ResponseWriter, r *http.Request) {
	usernames, err := h.svc.ListPending(r.Context())
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string][]string{"pending": usernames})
}

func (h *Handler) Review(w http.ResponseWriter, r *http.Request) {
	review, err := h.svc.Review(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, review)
}

func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	var req CompleteRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, err)
		return
	}
	entry, err := h.svc.Complete(r.Context(), chi.URLParam(r, "username"), req.Prescription)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entry)
}

func RegisterRoutes(r chi.Router, h *Handler) {
	r.With(user.RequireRole(user.RolePatient)).Post("/consultations", h.Submit)
	r.Group(func(r chi.Router) {
		r.Use(user.RequireRole(user.RoleClinician))
		r.Get("/consultations", h.ListPending)
		r.Get("/consultations/{username}", h.Review)
		r.Post("/consultations/{username}/complete", h.Complete)
	})
}
