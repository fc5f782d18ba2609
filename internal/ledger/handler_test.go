package ledger

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"healthtrack/internal/user"
)

type stubRenderer struct {
	err error
}

func (s stubRenderer) Render(e *Entry) ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []byte("%PDF-" + e.Username), nil
}

func newTestRouter(t *testing.T, renderer ReportRenderer) (http.Handler, *Entry) {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()

	l, err := NewFileLedger(filepath.Join(dir, "completed_consultations.csv"))
	require.NoError(t, err)
	p := NewFilePrescriptions(filepath.Join(dir, "prescriptions"))

	e := sampleEntry("alice", "rest more")
	require.NoError(t, l.Append(ctx, e))
	require.NoError(t, l.Append(ctx, sampleEntry("bob", "walk daily")))
	require.NoError(t, p.Put(ctx, "alice", "rest more"))

	r := chi.NewRouter()
	RegisterRoutes(r, NewHandler(l, p, renderer))
	return r, e
}

func get(h http.Handler, path, username string, role user.Role) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if username != "" {
		req.Header.Set(user.HeaderUsername, username)
		req.Header.Set(user.HeaderRole, string(role))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandlerLedgerList(t *testing.T) {
	h, _ := newTestRouter(t, stubRenderer{})

	rec := get(h, "/ledger", "drbob", user.RoleClinician)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"username":"alice"`)
	assert.Contains(t, rec.Body.String(), `"username":"bob"`)

	rec = get(h, "/ledger?username=bob", "drbob", user.RoleClinician)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), `"username":"alice"`)

	rec = get(h, "/ledger", "alice", user.RolePatient)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHandlerExport(t *testing.T) {
	h, _ := newTestRouter(t, stubRenderer{})

	rec := get(h, "/ledger/export", "drbob", user.RoleClinician)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), ".xlsx")
	assert.NotZero(t, rec.Body.Len())
}

func TestHandlerReport(t *testing.T) {
	h, e := newTestRouter(t, stubRenderer{})

	rec := get(h, "/ledger/"+e.ID.String()+"/report", "drbob", user.RoleClinician)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, "%PDF-alice", rec.Body.String())

	rec = get(h, "/ledger/not-a-uuid/report", "drbob", user.RoleClinician)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = get(h, "/ledger/00000000-0000-0000-0000-000000000000/report", "drbob", user.RoleClinician)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	failing, e := newTestRouter(t, stubRenderer{err: errors.New("font missing")})
	rec = get(failing, "/ledger/"+e.ID.String()+"/report", "drbob", user.RoleClinician)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "font missing")
}

func TestHandlerPrescription(t *testing.T) {
	h, _ := newTestRouter(t, stubRenderer{})

	rec := get(h, "/prescriptions/alice", "alice", user.RolePatient)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"prescription":"rest more"`)

	rec = get(h, "/prescriptions/alice", "drbob", user.RoleClinician)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = get(h, "/prescriptions/alice", "bob", user.RolePatient)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = get(h, "/prescriptions/alice", "", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = get(h, "/prescriptions/bob", "bob", user.RolePatient)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
