package ledger

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"healthtrack/internal/platform/apperror"
	"healthtrack/internal/platform/httpx"
	"healthtrack/internal/user"
)

// ReportRenderer renders a completed consultation as a PDF document.
type ReportRenderer interface {
	Render(e *Entry) ([]byte, error)
}

type Handler struct {
	ledger        Ledger
	prescriptions Prescriptions
	reports       ReportRenderer
}

func NewHandler(l Ledger, p Prescriptions, reports ReportRenderer) *Handler {
	return &Handler{ledger: l, prescriptions: p, reports: reports}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	entries, err := h.entries(r)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entries)
}

func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	entries, err := h.entries(r)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	var buf bytes.Buffer
	if err := Export(&buf, entries); err != nil {
		httpx.Error(w, err)
		return
	}
	name := fmt.Sprintf("consultations_%s.xlsx", time.Now().Format("20060102"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Write(buf.Bytes())
}

func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Error(w, apperror.Validation("invalid consultation id", err))
		return
	}
	e, err := h.ledger.Get(r.Context(), id)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	pdf, err := h.reports.Render(e)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "report_"+id.String()+".pdf"))
	w.Write(pdf)
}

// Prescription serves the current prescription. Patients may only read
// their own.
func (h *Handler) Prescription(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	id := user.Identity{Username: r.Header.Get(user.HeaderUsername), Role: user.Role(r.Header.Get(user.HeaderRole))}
	if !id.Role.Valid() || (id.Role == user.RolePatient && id.Username != username) {
		httpx.Error(w, apperror.Forbidden("not allowed to read this prescription"))
		return
	}
	text, err := h.prescriptions.Get(r.Context(), username)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"username": username, "prescription": text})
}

func (h *Handler) entries(r *http.Request) ([]*Entry, error) {
	if username := r.URL.Query().Get("username"); username != "" {
		return h.ledger.ListByUsername(r.Context(), username)
	}
	return h.ledger.List(r.Context())
}

func RegisterRoutes(r chi.Router, h *Handler) {
	r.Get("/prescriptions/{username}", h.Prescription)
	r.Group(func(r chi.Router) {
		r.Use(user.RequireRole(user.RoleClinician))
		r.Get("/ledger", h.List)
		r.Get("/ledger/export", h.Export)
		r.Get("/ledger/{id}/report", h.Report)
	})
}
