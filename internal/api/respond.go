package api

import (
	"encoding/json"
	"log"
	"net/http"

	"studiobook/internal/apperr"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

// writeError maps service error kinds to HTTP responses. Internal errors are
// logged with their cause but never leak details to the client.
func writeError(w http.ResponseWriter, err error) {
	status := apperr.HTTPStatus(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		log.Printf("Internal error: %v", err)
		message = "internal server error"
	}
	writeJSON(w, status, map[string]string{
		"error":   string(apperr.KindOf(err)),
		"message": message,
	})
}
