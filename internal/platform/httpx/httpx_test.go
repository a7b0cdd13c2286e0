package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errMissing = errors.New("thing missing")

type payload struct {
	Code string `json:"code" validate:"required,alphanum,max=4"`
	Kind string `json:"kind" validate:"omitempty,oneof=A B"`
}

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) ProblemDetail {
	t.Helper()
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	var p ProblemDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	return p
}

func TestDecodeJSONRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"code":"1","extra":true}`))
	var p payload
	err := DecodeJSON(req, &p)
	assert.ErrorIs(t, err, ErrMalformedBody)
}

func TestDecodeJSONEmptyBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	var p payload
	assert.ErrorIs(t, DecodeJSON(req, &p), ErrMalformedBody)
}

func TestValidateReportsFieldsByJSONName(t *testing.T) {
	err := Validate(payload{Code: "1-01", Kind: "C"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "must contain only letters and digits", verr.Fields["code"])
	assert.Equal(t, "must be one of A B", verr.Fields["kind"])
	assert.Equal(t, "invalid request: code: must contain only letters and digits; kind: must be one of A B", verr.Error())

	assert.NoError(t, Validate(payload{Code: "12"}))
}

func TestRespondErrorMapping(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, quiet(), fmt.Errorf("lookup: %w", errMissing), ErrorMapping{Target: errMissing, Status: http.StatusNotFound, Title: "Not Found"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	p := decodeProblem(t, rec)
	assert.Equal(t, "about:blank", p.Type)
	assert.Equal(t, "lookup: thing missing", p.Detail)
}

func TestRespondErrorFixedDetailHidesCause(t *testing.T) {
	rec := httptest.NewRecorder()
	err := fmt.Errorf("store: %w: connection reset by peer", errMissing)
	RespondError(rec, quiet(), err, ErrorMapping{Target: errMissing, Status: http.StatusServiceUnavailable, Title: "Unavailable", Detail: "try again"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	p := decodeProblem(t, rec)
	assert.Equal(t, "try again", p.Detail)
	assert.NotContains(t, rec.Body.String(), "connection reset")
}

func TestRespondErrorValidation(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, quiet(), Validate(payload{}))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	p := decodeProblem(t, rec)
	assert.Equal(t, "is required", p.Errors["code"])
}

func TestRespondErrorHidesUnmappedDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, quiet(), errors.New("pq: password authentication failed"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	p := decodeProblem(t, rec)
	assert.Empty(t, p.Detail)
}
