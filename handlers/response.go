package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"taskflow/backend/logging"
	"taskflow/backend/services"
)

type response struct {
	Success bool                  `json:"success"`
	Message string                `json:"message,omitempty"`
	Data    interface{}           `json:"data,omitempty"`
	Errors  []services.FieldError `json:"errors,omitempty"`
}

func respondData(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response{Success: true, Data: data})
}

func respondMessage(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response{Success: true, Message: message})
}

// respondError maps service errors onto the HTTP error taxonomy. Unknown
// errors become a 500 with the message only, no stack.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	message := err.Error()
	var fields []services.FieldError

	var validation *services.ValidationError
	switch {
	case errors.As(err, &validation):
		status = http.StatusBadRequest
		message = "Validation failed"
		fields = validation.Fields
	case errors.Is(err, services.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, services.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, services.ErrInvalidOperation):
		status = http.StatusBadRequest
	case errors.Is(err, services.ErrUnauthorized):
		status = http.StatusUnauthorized
	default:
		logging.Logger.Errorf("Event ID: REQUEST_FAILED, Description: %s %s failed: %v", r.Method, r.URL.Path, err)
		message = "Internal server error"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response{Success: false, Message: message, Errors: fields})
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(response{Success: false, Message: "Invalid request payload"})
		return false
	}
	return true
}

// listPayload is the common shape of paginated list responses.
func listPayload(itemsKey string, items interface{}, pagination interface{}) map[string]interface{} {
	return map[string]interface{}{
		itemsKey:     items,
		"pagination": pagination,
	}
}
