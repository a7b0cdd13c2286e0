package httpx

import (
	"errors"
	"log/slog"
	"net/http"
)

// ErrMalformedBody is returned by DecodeJSON when the payload cannot be parsed.
var ErrMalformedBody = errors.New("malformed request body")

// ErrorMapping associates a domain error with an HTTP status and title.
// When Detail is set it replaces the error text in the response and the
// error itself is only logged.
type ErrorMapping struct {
	Target error
	Status int
	Title  string
	Detail string
}

// RespondError maps err through the supplied mappings and writes a problem response.
// Unmapped errors are logged and reported as 500 without leaking details.
func RespondError(w http.ResponseWriter, logger *slog.Logger, err error, mappings ...ErrorMapping) {
	if errors.Is(err, ErrMalformedBody) {
		Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		writeProblem(w, ProblemDetail{
			Title:  "Validation Failed",
			Status: http.StatusUnprocessableEntity,
			Detail: verr.Error(),
			Errors: verr.Fields,
		})
		return
	}
	for _, m := range mappings {
		if !errors.Is(err, m.Target) {
			continue
		}
		if m.Detail == "" {
			Problem(w, m.Status, m.Title, err.Error())
			return
		}
		if logger != nil {
			logger.Warn("request failed", slog.Int("status", m.Status), slog.Any("error", err))
		}
		Problem(w, m.Status, m.Title, m.Detail)
		return
	}
	if logger != nil {
		logger.Error("unhandled request error", slog.Any("error", err))
	}
	Problem(w, http.StatusInternalServerError, "Internal Error", "")
}
