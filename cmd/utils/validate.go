package utils

import (
	"encoding/json"
	"net/http"
	"strings"
)

// FieldError describes a single invalid request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type FieldErrors []FieldError

func (e *FieldErrors) Add(field, message string) {
	*e = append(*e, FieldError{Field: field, Message: message})
}

func (e FieldErrors) Empty() bool {
	return len(e) == 0
}

// RequireNotBlank records an error when the value is empty or whitespace.
func (e *FieldErrors) RequireNotBlank(field, value string) {
	if strings.TrimSpace(value) == "" {
		e.Add(field, field+" is required")
	}
}

// WriteBadRequest sends the collected field errors as a 400 response.
func (e FieldErrors) WriteBadRequest(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Validation failed",
		"errors":  e,
	})
}
