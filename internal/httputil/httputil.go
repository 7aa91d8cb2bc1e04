package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/streamv8/streamv8/internal/models"
	"github.com/streamv8/streamv8/internal/store"
)

type Response struct {
	Status string      `json:"status"`
	Data   interface{} `json:"data,omitempty"`
	Error  *ErrorBody  `json:"error,omitempty"`
}

type ErrorBody struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(Response{
		Status: "ok",
		Data:   data,
	})
}

func WriteError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(Response{
		Status: "error",
		Error: &ErrorBody{
			Code:    code,
			Message: message,
		},
	})
}

// WriteCoreError maps the core error taxonomy onto HTTP statuses so
// handlers stay thin. Unknown errors become a 500 without leaking detail.
func WriteCoreError(w http.ResponseWriter, err error) {
	var verr *models.ValidationError
	var derr *store.DecodeError
	switch {
	case errors.As(err, &verr):
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(Response{
			Status: "error",
			Error: &ErrorBody{
				Code:    "VALIDATION",
				Message: verr.Error(),
				Fields:  verr.Fields,
			},
		})
	case errors.Is(err, store.ErrNotFound):
		WriteError(w, http.StatusNotFound, "NOT_FOUND", "not found")
	case errors.Is(err, store.ErrConflict):
		WriteError(w, http.StatusConflict, "CONFLICT", "already exists")
	case errors.Is(err, store.ErrLockTimeout):
		WriteError(w, http.StatusServiceUnavailable, "LOCK_TIMEOUT", "resource busy, try again")
	case errors.As(err, &derr):
		WriteError(w, http.StatusInternalServerError, "DECODE", "stored document is unreadable")
	default:
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
	}
}

func ReadJSON(r *http.Request, dst interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dst)
}
