package consultation

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"healthtrack/internal/user"
)

func newRouter(t *testing.T) http.Handler {
	t.Helper()
	st := newStores(t)
	r := chi.NewRouter()
	RegisterRoutes(r, NewHandler(st.service()))
	return r
}

func do(t *testing.T, h http.Handler, method, path, username string, role user.Role, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if username != "" {
		req.Header.Set(user.HeaderUsername, username)
		req.Header.Set(user.HeaderRole, string(role))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func submitBody() map[string]interface{} {
	return map[string]interface{}{
		"weight":        50,
		"height":        160,
		"daily_metrics": aliceWindow(),
	}
}

func TestHandlerWorkflow(t *testing.T) {
	h := newRouter(t)

	rec := do(t, h, http.MethodPost, "/consultations", "alice", user.RolePatient, submitBody())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/consultations", "drbob", user.RoleClinician, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Data struct {
			Pending []string `json:"pending"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, []string{"alice"}, list.Data.Pending)

	rec = do(t, h, http.MethodGet, "/consultations/alice", "drbob", user.RoleClinician, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"category":"Normal"`)

	rec = do(t, h, http.MethodPost, "/consultations/alice/complete", "drbob", user.RoleClinician,
		CompleteRequest{Prescription: "rest more"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"prescription":"rest more"`)

	rec = do(t, h, http.MethodPost, "/consultations/alice/complete", "drbob", user.RoleClinician,
		CompleteRequest{Prescription: "again"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlerRoleEnforcement(t *testing.T) {
	h := newRouter(t)

	rec := do(t, h, http.MethodPost, "/consultations", "", "", submitBody())
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, h, http.MethodPost, "/consultations", "drbob", user.RoleClinician, submitBody())
	assert.Equal(t, http.StatusForbidden, rec.Code)

	body := submitBody()
	body["username"] = "carol"
	rec = do(t, h, http.MethodPost, "/consultations", "alice", user.RolePatient, body)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, h, http.MethodGet, "/consultations/alice", "alice", user.RolePatient, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHandlerErrors(t *testing.T) {
	h := newRouter(t)

	rec := do(t, h, http.MethodGet, "/consultations/alice", "drbob", user.RoleClinician, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"not_found"`)

	body := submitBody()
	body["daily_metrics"] = []interface{}{}
	rec = do(t, h, http.MethodPost, "/consultations", "alice", user.RolePatient, body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body = submitBody()
	body["height"] = 0
	rec = do(t, h, http.MethodPost, "/consultations", "alice", user.RolePatient, body)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}
