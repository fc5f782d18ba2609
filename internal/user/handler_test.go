package user

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	svc, _ := newTestService(t)
	r := chi.NewRouter()
	RegisterRoutes(r, NewHandler(svc))
	return r
}

func call(t *testing.T, h http.Handler, method, path string, id *Identity, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if id != nil {
		req.Header.Set(HeaderUsername, id.Username)
		req.Header.Set(HeaderRole, string(id.Role))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func validClinicianRequest() RegisterClinicianRequest {
	return RegisterClinicianRequest{
		Username:        "drbob",
		Name:            "Dr. Bob",
		Age:             51,
		Gender:          "Male",
		Specialization:  "GP",
		Password:        "pw",
		ConfirmPassword: "pw",
	}
}

func TestHandlerRegister(t *testing.T) {
	h := newTestRouter(t)

	rec := call(t, h, http.MethodPost, "/users/patients", nil, validPatientRequest())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "s3cret")

	rec = call(t, h, http.MethodPost, "/users/patients", nil, validPatientRequest())
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"duplicate_username"`)

	rec = call(t, h, http.MethodPost, "/users/clinicians", nil, validClinicianRequest())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	bad := validClinicianRequest()
	bad.Username = "drcarol"
	bad.ConfirmPassword = "other"
	rec = call(t, h, http.MethodPost, "/users/clinicians", nil, bad)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerLogin(t *testing.T) {
	h := newTestRouter(t)
	require.Equal(t, http.StatusCreated, call(t, h, http.MethodPost, "/users/patients", nil, validPatientRequest()).Code)

	rec := call(t, h, http.MethodPost, "/login", nil, LoginRequest{Username: "alice", Password: "s3cret"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"role":"patient"`)

	rec = call(t, h, http.MethodPost, "/login", nil, LoginRequest{Username: "alice", Password: "wrong"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlerHealthRequiresIdentity(t *testing.T) {
	h := newTestRouter(t)
	require.Equal(t, http.StatusCreated, call(t, h, http.MethodPost, "/users/patients", nil, validPatientRequest()).Code)

	rec := call(t, h, http.MethodGet, "/users/alice/health", nil, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.NotContains(t, rec.Body.String(), "bmi")

	rec = call(t, h, http.MethodGet, "/users/alice/health", &Identity{Username: "alice", Role: "admin"}, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = call(t, h, http.MethodGet, "/users/alice/health", &Identity{Username: "mallory", Role: RolePatient}, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHandlerHealth(t *testing.T) {
	h := newTestRouter(t)
	require.Equal(t, http.StatusCreated, call(t, h, http.MethodPost, "/users/patients", nil, validPatientRequest()).Code)
	require.Equal(t, http.StatusCreated, call(t, h, http.MethodPost, "/users/clinicians", nil, validClinicianRequest()).Code)

	rec := call(t, h, http.MethodGet, "/users/alice/health", &Identity{Username: "alice", Role: RolePatient}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"bmi":19.5`)
	assert.Contains(t, rec.Body.String(), `"category":"Normal"`)

	drbob := &Identity{Username: "drbob", Role: RoleClinician}
	rec = call(t, h, http.MethodGet, "/users/alice/health", drbob, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = call(t, h, http.MethodGet, "/users/ghost/health", drbob, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
