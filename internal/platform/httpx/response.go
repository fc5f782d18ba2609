package httpx

import (
	"encoding/json"
	"net/http"

	"healthtrack/internal/platform/apperror"
)

type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Code    string      `json:"code,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(Response{Status: "success", Data: data})
}

// Error writes err with the status its application code maps to. Errors
// outside the application taxonomy are reported without their detail.
func Error(w http.ResponseWriter, err error) {
	code := apperror.CodeOf(err)
	message := err.Error()
	if code == apperror.CodeInternal {
		message = "internal server error"
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(StatusFor(code))
	json.NewEncoder(w).Encode(Response{Status: "error", Message: message, Code: code.String()})
}

func StatusFor(code apperror.Code) int {
	switch code {
	case apperror.CodeNotFound:
		return http.StatusNotFound
	case apperror.CodeDuplicateUsername:
		return http.StatusConflict
	case apperror.CodeValidation:
		return http.StatusBadRequest
	case apperror.CodeInvalidInput:
		return http.StatusUnprocessableEntity
	case apperror.CodeForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// Decode reads a JSON request body into v.
func Decode(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperror.Validation("invalid request body", err)
	}
	return nil
}
