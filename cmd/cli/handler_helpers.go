package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/AndreasQService/QToolKlone-sub000/pkg/artifacts"
	"github.com/AndreasQService/QToolKlone-sub000/pkg/database"
	"github.com/AndreasQService/QToolKlone-sub000/pkg/editor"
	"github.com/AndreasQService/QToolKlone-sub000/pkg/measurement"
	"github.com/AndreasQService/QToolKlone-sub000/pkg/models"
)

// errBadRequest marks client input errors
var errBadRequest = errors.New("bad request")

// errEditorNotFound is returned for unknown or already closed editor ids
var errEditorNotFound = errors.New("editor not found")

func badRequest(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, editor.ErrSaveFailed):
		return http.StatusInternalServerError
	case errors.Is(err, errBadRequest),
		errors.Is(err, models.ErrUnknownField),
		errors.Is(err, models.ErrInvalidDate):
		return http.StatusBadRequest
	case errors.Is(err, database.ErrRoomNotFound),
		errors.Is(err, measurement.ErrPointNotFound),
		errors.Is(err, artifacts.ErrNotFound),
		errors.Is(err, errEditorNotFound):
		return http.StatusNotFound
	case errors.Is(err, artifacts.ErrInvalidToken):
		return http.StatusForbidden
	case errors.Is(err, editor.ErrClosed),
		errors.Is(err, editor.ErrNotClosed),
		errors.Is(err, editor.ErrSaving):
		return http.StatusConflict
	case errors.Is(err, editor.ErrReadOnly):
		return http.StatusLocked
	}
	return http.StatusInternalServerError
}

// writeError writes a JSON error body. Internal errors are logged and
// reported without details, except failed saves which keep their generic
// message.
func (rm *RouteManager) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()

	if status == http.StatusInternalServerError {
		rm.requestLogger(r).Error("❌ Request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		msg = http.StatusText(status)
		if errors.Is(err, editor.ErrSaveFailed) {
			msg = editor.ErrSaveFailed.Error()
		}
	}

	writeJSON(w, status, map[string]string{"error": msg})
}

// decodeJSON reads the request body into v
func decodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return badRequest("invalid request body: %v", err)
	}
	return nil
}

// pathID parses a uuid path variable
func pathID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		return uuid.Nil, badRequest("invalid %s format", name)
	}
	return id, nil
}
