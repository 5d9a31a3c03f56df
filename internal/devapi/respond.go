package devapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"inkyspace/internal/db"
	"inkyspace/internal/logutils"
)

type fieldError struct {
	Property string `json:"property,omitempty"`
	Error    string `json:"error"`
}

type envelope struct {
	Success bool         `json:"success"`
	Data    any          `json:"data,omitempty"`
	Message string       `json:"message,omitempty"`
	Errors  []fieldError `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{Success: true, Data: data})
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{Success: true, Message: message})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{Message: message, Errors: []fieldError{{Error: message}}})
}

func writeFieldErrors(w http.ResponseWriter, status int, errs ...fieldError) {
	message := "validation failed"
	if len(errs) == 1 {
		message = errs[0].Error
	}
	writeJSON(w, status, envelope{Message: message, Errors: errs})
}

// writeStoreError maps store failures onto status codes. what names the
// resource for not-found and conflict messages.
func writeStoreError(w http.ResponseWriter, err error, what string) {
	switch {
	case errors.Is(err, db.ErrNotFound):
		writeError(w, http.StatusNotFound, what+" not found")
	case errors.Is(err, db.ErrConflict):
		writeError(w, http.StatusConflict, what+" already exists")
	case errors.Is(err, db.ErrInvalidPageToken):
		writeFieldErrors(w, http.StatusBadRequest, fieldError{Property: "nextPagetoken", Error: err.Error()})
	default:
		logutils.Log.WithError(err).WithField("resource", what).Error("store failure")
		writeError(w, http.StatusInternalServerError, "failed to process "+what)
	}
}

func decodeBody(r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	return json.NewDecoder(r.Body).Decode(v)
}

func invalidPayload(w http.ResponseWriter) {
	writeError(w, http.StatusBadRequest, "invalid json payload")
}

func pageParams(r *http.Request) db.PageParams {
	size, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))
	return db.PageParams{Size: size, Token: r.URL.Query().Get("nextPagetoken")}
}
