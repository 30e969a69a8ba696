package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
)

const (
	maxFormBodySize   = 64 << 10 // 64KB
	maxImportBodySize = 10 << 20 // 10MB
)

// Error types used in the JSON error envelope.
const (
	errTypeInvalidRequest = "invalid_request_error"
	errTypeValidation     = "validation_error"
	errTypeNotFound       = "not_found_error"
	errTypeUnavailable    = "catalog_unavailable"
	errTypeMalformed      = "malformed_backup"
	errTypeStorage        = "storage_error"
	errTypeAPI            = "api_error"
)

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}

// validationError writes the envelope with per-field messages attached.
func validationError(w http.ResponseWriter, fields map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": "please correct the highlighted fields",
			"type":    errTypeValidation,
			"fields":  fields,
		},
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("encoding response", "error", err)
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
