package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteJSON(t *testing.T) {
	t.Parallel()

	t.Run("writes JSON with correct content type", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()

		WriteJSON(rec, http.StatusOK, map[string]any{"n": 3})

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		assert.JSONEq(t, `{"n":3}`, rec.Body.String())
	})

	t.Run("handles nil data", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()

		WriteJSON(rec, http.StatusNoContent, nil)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Empty(t, rec.Body.String())
	})
}

func TestWriteRawJSON(t *testing.T) {
	t.Parallel()
	rec := httptest.NewRecorder()

	WriteRawJSON(rec, http.StatusOK, []byte(`{"type":"boolean"}`))

	assert.Equal(t, `{"type":"boolean"}`, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestErrorWriters(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		write  func(w http.ResponseWriter)
		status int
		code   string
	}{
		{"bad request", func(w http.ResponseWriter) { WriteBadRequest(w, "invalid_count", "count must be positive") }, http.StatusBadRequest, "invalid_count"},
		{"not found", func(w http.ResponseWriter) { WriteNotFound(w, "schema_not_found", "no schema") }, http.StatusNotFound, "schema_not_found"},
		{"unprocessable", func(w http.ResponseWriter) { WriteUnprocessable(w, "invalid_schema", "missing items") }, http.StatusUnprocessableEntity, "invalid_schema"},
		{"internal", func(w http.ResponseWriter) { WriteInternalError(w, "store_failed", "boom") }, http.StatusInternalServerError, "store_failed"},
		{"too many", func(w http.ResponseWriter) { WriteTooManyRequests(w, "rate_limited", "slow down") }, http.StatusTooManyRequests, "rate_limited"},
		{"unauthorized", func(w http.ResponseWriter) { WriteUnauthorized(w, "missing token") }, http.StatusUnauthorized, "unauthorized"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := httptest.NewRecorder()
			tt.write(rec)

			assert.Equal(t, tt.status, rec.Code)
			var body ErrorBody
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body.Error)
			assert.NotEmpty(t, body.Message)
		})
	}
}

func TestWriteUnauthorized_Challenge(t *testing.T) {
	t.Parallel()
	rec := httptest.NewRecorder()
	WriteUnauthorized(rec, "bad token")
	assert.Contains(t, rec.Header().Get("WWW-Authenticate"), "Bearer")
}

func TestWriteErrorAt(t *testing.T) {
	t.Parallel()
	rec := httptest.NewRecorder()

	WriteErrorAt(rec, http.StatusUnprocessableEntity, "invalid_schema", "missing items", "/properties/tags")

	assert.JSONEq(t, `{"error":"invalid_schema","message":"missing items","path":"/properties/tags"}`, rec.Body.String())
}

func TestWriteErrorWithDetails(t *testing.T) {
	t.Parallel()
	rec := httptest.NewRecorder()

	WriteErrorWithDetails(rec, http.StatusBadRequest, "check_failed", "2 checks failed", []string{"a", "b"})

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []any{"a", "b"}, body["details"])
}

func TestWriteStatusOnly(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	WriteNoContent(rec)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	WriteCreated(rec, map[string]string{"name": "user"})
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	WriteOK(rec, map[string]string{"status": "ok"})
	assert.Equal(t, http.StatusOK, rec.Code)
}
