package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/linkspace/linkspace/internal/apperr"
	"github.com/linkspace/linkspace/internal/observability/logger"
)

// errorResponse is the body of every non-2xx response
type errorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

type conflictDetails struct {
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

var statusMessages = []struct {
	err     error
	status  int
	message string
}{
	{apperr.ErrUnauthenticated, http.StatusUnauthorized, "Token required"},
	{apperr.ErrTokenRevoked, http.StatusUnauthorized, "Token revoked"},
	{apperr.ErrInvalidToken, http.StatusUnauthorized, "Invalid token"},
	{apperr.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid credentials"},
	{apperr.ErrInvalidRefreshToken, http.StatusUnauthorized, "Invalid refresh token"},
	{apperr.ErrCrossTenant, http.StatusForbidden, "Acesso negado: recurso pertence a outra empresa"},
	{apperr.ErrForbidden, http.StatusForbidden, "Access denied"},
	{apperr.ErrTenantNotFound, http.StatusNotFound, "Empresa not found"},
	{apperr.ErrNotFound, http.StatusNotFound, "Not found"},
	{apperr.ErrDuplicateEmail, http.StatusConflict, "Email already registered"},
	{apperr.ErrInvalidTransition, http.StatusConflict, "Invalid status transition"},
}

// writeError maps a service error to its status code and body. Unknown
// errors are logged and answered with a generic 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *apperr.ValidationError
	if errors.As(err, &verr) {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "ValidationError", Details: verr.Fields})
		return
	}

	var cerr *apperr.ConflictError
	if errors.As(err, &cerr) {
		respondJSON(w, http.StatusConflict, errorResponse{
			Error:   "Scheduling conflict: space already reserved for this period",
			Details: conflictDetails{StartDate: cerr.Start, EndDate: cerr.End},
		})
		return
	}

	for _, m := range statusMessages {
		if errors.Is(err, m.err) {
			respondError(w, m.status, m.message)
			return
		}
	}
	if errors.Is(err, apperr.ErrConflict) {
		respondError(w, http.StatusConflict, "Conflict")
		return
	}

	slog.ErrorContext(r.Context(), "request failed",
		logger.RequestID(middleware.GetReqID(r.Context())),
		logger.Method(r.Method),
		logger.Path(r.URL.Path),
		logger.Error(err),
		logger.ErrorType(rootType(err)),
	)
	respondError(w, http.StatusInternalServerError, "Internal server error")
}

// rootType names the type of the innermost wrapped error, e.g. *pgconn.PgError.
func rootType(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return fmt.Sprintf("%T", err)
		}
		err = next
	}
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Error: message})
}

// decodeJSON reads a JSON body into dst. Malformed bodies become a
// validation error on the body field.
func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperr.Invalid("body", "invalid JSON body")
	}
	return nil
}
