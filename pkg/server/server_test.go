package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/schemagen/internal/storage"
	"github.com/getmockd/schemagen/pkg/httputil"
)

const userSchema = `{
	"type": "object",
	"properties": {
		"id": {"type": "integer", "minimum": 1, "maximum": 1000},
		"name": {"type": "string", "minLength": 3, "maxLength": 8},
		"isActive": {"type": "boolean"}
	},
	"required": ["id", "name", "isActive"]
}`

func newTestServer(t *testing.T, cfg Config) *Server {
	t.Helper()
	s := New(cfg)
	t.Cleanup(s.Close)
	return s
}

func do(t *testing.T, h http.Handler, method, target, body string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rdr)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, Config{})
	rec := do(t, s.Handler(), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","schemas":0}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
}

func TestRequestIDEchoed(t *testing.T) {
	s := newTestServer(t, Config{})
	rec := do(t, s.Handler(), http.MethodGet, "/health", "", RequestIDHeader, "abc-123")
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}

func TestGenerateInline(t *testing.T) {
	s := newTestServer(t, Config{})
	h := s.Handler()

	t.Run("single value without count", func(t *testing.T) {
		rec := do(t, h, http.MethodPost, "/generate", userSchema)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		v := decode[map[string]any](t, rec)
		assert.Len(t, v, 3)
		assert.IsType(t, true, v["isActive"])
	})

	t.Run("array with count", func(t *testing.T) {
		rec := do(t, h, http.MethodPost, "/generate?count=20", userSchema)
		require.Equal(t, http.StatusOK, rec.Code)
		v := decode[[]map[string]any](t, rec)
		require.Len(t, v, 20)
		for _, rec := range v {
			id := rec["id"].(float64)
			assert.GreaterOrEqual(t, id, 1.0)
			assert.LessOrEqual(t, id, 1000.0)
		}
	})

	t.Run("seed is reproducible", func(t *testing.T) {
		a := do(t, h, http.MethodPost, "/generate?count=5&seed=42", userSchema)
		b := do(t, h, http.MethodPost, "/generate?count=5&seed=42", userSchema)
		require.Equal(t, http.StatusOK, a.Code)
		assert.Equal(t, a.Body.String(), b.Body.String())
	})

	t.Run("yaml body", func(t *testing.T) {
		rec := do(t, h, http.MethodPost, "/generate", "type: string\nenum: [red]\n")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `"red"`, rec.Body.String())
	})

	t.Run("where filter", func(t *testing.T) {
		rec := do(t, h, http.MethodPost, "/generate?count=10&where=it.id%20%3E%20900", userSchema)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		for _, v := range decode[[]map[string]any](t, rec) {
			assert.Greater(t, v["id"].(float64), 900.0)
		}
	})

	t.Run("verify", func(t *testing.T) {
		rec := do(t, h, http.MethodPost, "/generate?count=10&verify=true", userSchema)
		require.Equal(t, http.StatusOK, rec.Code)
		v := decode[VerifiedRecords](t, rec)
		assert.True(t, v.Passed)
		assert.Len(t, v.Records, 10)
		assert.Empty(t, v.Failures)
	})
}

func TestGenerateInline_Errors(t *testing.T) {
	s := newTestServer(t, Config{MaxCount: 50})
	h := s.Handler()

	tests := []struct {
		name   string
		target string
		body   string
		status int
		code   string
		path   string
	}{
		{"empty body", "/generate", "", http.StatusBadRequest, "empty_body", ""},
		{"malformed document", "/generate", `{"type":`, http.StatusBadRequest, "malformed_document", ""},
		{"zero count", "/generate?count=0", userSchema, http.StatusBadRequest, "invalid_parameter", ""},
		{"count over cap", "/generate?count=51", userSchema, http.StatusBadRequest, "invalid_parameter", ""},
		{"bad seed", "/generate?seed=-1", userSchema, http.StatusBadRequest, "invalid_parameter", ""},
		{"bad verify", "/generate?verify=maybe", userSchema, http.StatusBadRequest, "invalid_parameter", ""},
		{"bad where", "/generate?where=it.id%20%3E", userSchema, http.StatusBadRequest, "invalid_where", ""},
		{
			"array without items", "/generate",
			`{"type":"object","properties":{"tags":{"type":"array"}},"required":["tags"]}`,
			http.StatusUnprocessableEntity, "invalid_schema", "/properties/tags",
		},
		{
			"unsatisfiable uniqueness", "/generate",
			`{"type":"array","items":{"type":"boolean"},"minItems":3,"maxItems":3,"uniqueItems":true}`,
			http.StatusUnprocessableEntity, "uniqueness_unsatisfiable", "",
		},
		{
			"huge minLength", "/generate",
			`{"type":"string","minLength":1e18,"maxLength":1e18}`,
			http.StatusUnprocessableEntity, "invalid_schema", "/minLength",
		},
		{
			"minLength over max length", "/generate",
			`{"type":"string","minLength":20000}`,
			http.StatusUnprocessableEntity, "invalid_schema", "",
		},
		{
			"no integer in bounds", "/generate",
			`{"type":"integer","minimum":1.2,"maximum":1.8}`,
			http.StatusUnprocessableEntity, "invalid_schema", "",
		},
		{
			"filter exhausted", "/generate?count=1&where=it%20%3E%20100",
			`{"type":"integer","minimum":0,"maximum":10}`,
			http.StatusUnprocessableEntity, "filter_exhausted", "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, tt.target, tt.body)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			body := decode[httputil.ErrorBody](t, rec)
			assert.Equal(t, tt.code, body.Error)
			assert.Equal(t, tt.path, body.Path)
		})
	}
}

func TestGenerateInline_WideBounds(t *testing.T) {
	s := newTestServer(t, Config{MaxLength: 8})
	h := s.Handler()

	rec := do(t, h, http.MethodPost, "/generate?count=20", `{"type":"integer","minimum":-9e18,"maximum":9e18}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Len(t, decode[[]json.Number](t, rec), 20)

	rec = do(t, h, http.MethodPost, "/generate?count=20", `{"type":"string","maxLength":1000000}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	for _, v := range decode[[]string](t, rec) {
		assert.LessOrEqual(t, len(v), 8)
	}
}

func TestRecoverPanics(t *testing.T) {
	s := newTestServer(t, Config{})
	h := s.observe(s.recoverPanics(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})))

	rec := do(t, h, http.MethodGet, "/anything", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal_error", decode[httputil.ErrorBody](t, rec).Error)
}

func TestGenerateInline_BodyTooLarge(t *testing.T) {
	s := newTestServer(t, Config{MaxBodyBytes: 16})
	rec := do(t, s.Handler(), http.MethodPost, "/generate", userSchema)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestSchemaLifecycle(t *testing.T) {
	store := storage.NewInMemorySchemaStore()
	s := newTestServer(t, Config{Store: store})
	h := s.Handler()

	rec := do(t, h, http.MethodPut, "/schemas/user", userSchema)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "/schemas/user", rec.Header().Get("Location"))
	created := decode[SchemaInfo](t, rec)
	assert.Equal(t, "user", created.Name)
	assert.Equal(t, "object", created.Kind)

	rec = do(t, h, http.MethodPut, "/schemas/user", userSchema)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodPut, "/schemas/flag", "type: boolean\n")
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, h, http.MethodGet, "/schemas", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]SchemaInfo](t, rec)
	require.Len(t, list, 2)
	assert.Equal(t, "flag", list[0].Name)

	rec = do(t, h, http.MethodGet, "/schemas/flag", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"type":"boolean"}`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/schemas/user/generate?count=3&seed=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]map[string]any](t, rec), 3)

	rec = do(t, h, http.MethodGet, "/schemas/user/generate?count=25&verify=true", "")
	require.Equal(t, http.StatusOK, rec.Code)
	verified := decode[VerifiedRecords](t, rec)
	assert.True(t, verified.Passed, "%+v", verified.Failures)

	rec = do(t, h, http.MethodGet, "/health", "")
	assert.JSONEq(t, `{"status":"ok","schemas":2}`, rec.Body.String())

	rec = do(t, h, http.MethodDelete, "/schemas/flag", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, h, http.MethodDelete, "/schemas/flag", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = do(t, h, http.MethodGet, "/schemas/flag", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = do(t, h, http.MethodGet, "/schemas/flag/generate", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPutSchema_Errors(t *testing.T) {
	s := newTestServer(t, Config{})
	h := s.Handler()

	rec := do(t, h, http.MethodPut, "/schemas/-bad", userSchema)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_name", decode[httputil.ErrorBody](t, rec).Error)

	rec = do(t, h, http.MethodPut, "/schemas/list", `["not", "an", "object"]`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = do(t, h, http.MethodPut, "/schemas/broken", `{"type": [`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuth(t *testing.T) {
	const secret = "test-secret"
	s := newTestServer(t, Config{JWTSecret: secret})
	h := s.Handler()

	sign := func(method jwt.SigningMethod, key any) string {
		tok, err := jwt.NewWithClaims(method, jwt.MapClaims{
			"sub": "tester",
			"exp": time.Now().Add(time.Hour).Unix(),
		}).SignedString(key)
		require.NoError(t, err)
		return tok
	}

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/health", "").Code)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/metrics", "").Code)

	rec := do(t, h, http.MethodGet, "/schemas", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Header().Get("WWW-Authenticate"), "Bearer")

	rec = do(t, h, http.MethodGet, "/schemas", "", "Authorization", "Bearer "+sign(jwt.SigningMethodHS256, []byte(secret)))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/schemas", "", "Authorization", "Bearer "+sign(jwt.SigningMethodHS256, []byte("other")))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, h, http.MethodGet, "/schemas", "", "Authorization", "Bearer "+sign(jwt.SigningMethodHS512, []byte(secret)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(-time.Minute).Unix(),
	}).SignedString([]byte(secret))
	require.NoError(t, err)
	rec = do(t, h, http.MethodGet, "/schemas", "", "Authorization", "Bearer "+expired)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, h, http.MethodGet, "/schemas", "", "Authorization", "Basic dXNlcjpwYXNz")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t, Config{RateLimit: 0.01, RateBurst: 2})
	h := s.Handler()

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/health", "").Code)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/health", "").Code)
	rec := do(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestMetrics(t *testing.T) {
	s := newTestServer(t, Config{})
	h := s.Handler()

	require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/generate?count=4", userSchema).Code)
	do(t, h, http.MethodPost, "/generate", `{"type":"array"}`)

	rec := do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `schemagen_records_generated_total{schema="_inline"} 4`)
	assert.Contains(t, body, `schemagen_generation_errors_total{reason="invalid_schema"} 1`)
	assert.Contains(t, body, `schemagen_http_request_duration_seconds_count{code="200",method="POST",route="POST /generate"} 1`)
}

func TestStream(t *testing.T) {
	store := storage.NewInMemorySchemaStore()
	stored, err := storage.NewStoredSchema("user", []byte(userSchema))
	require.NoError(t, err)
	require.NoError(t, store.Set(stored))

	s := newTestServer(t, Config{Store: store})
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/schemas/user/stream?count=3&rate=200&seed=7"
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	defer conn.CloseNow()

	for range 3 {
		typ, data, err := conn.Read(ctx)
		require.NoError(t, err)
		assert.Equal(t, websocket.MessageText, typ)
		var rec map[string]any
		require.NoError(t, json.Unmarshal(data, &rec))
		assert.Contains(t, rec, "id")
	}
	_, _, err = conn.Read(ctx)
	require.Error(t, err)
	assert.Equal(t, websocket.StatusNormalClosure, websocket.CloseStatus(err))
}

func TestStream_Errors(t *testing.T) {
	s := newTestServer(t, Config{})
	h := s.Handler()

	rec := do(t, h, http.MethodGet, "/schemas/missing/stream", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodGet, "/schemas/missing/stream?rate=0", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServe_GracefulShutdown(t *testing.T) {
	s := New(Config{})
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	url := "http://" + ln.Addr().String() + "/health"
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}

	_, err = http.Get(url)
	assert.Error(t, err)
}

func TestListenAndServe_BadAddr(t *testing.T) {
	s := New(Config{Addr: "256.0.0.1:bad"})
	err := s.ListenAndServe(context.Background())
	require.Error(t, err)
	assert.False(t, errors.Is(err, http.ErrServerClosed))
}
