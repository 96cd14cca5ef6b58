package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/getmockd/schemagen/internal/storage"
	"github.com/getmockd/schemagen/pkg/fixture"
	"github.com/getmockd/schemagen/pkg/generator"
	"github.com/getmockd/schemagen/pkg/httputil"
	"github.com/getmockd/schemagen/pkg/schema"
	"github.com/getmockd/schemagen/pkg/verify"
)

// SchemaInfo describes a stored schema in listings.
type SchemaInfo struct {
	Name      string    `json:"name"`
	Kind      string    `json:"kind"`
	Source    string    `json:"source,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// VerifiedRecords is the body of a generate request with verify=true.
type VerifiedRecords struct {
	Records  []any           `json:"records"`
	Passed   bool            `json:"passed"`
	Failures []RecordFailure `json:"failures,omitempty"`
}

// RecordFailure is a failed check on one record.
type RecordFailure struct {
	Record int `json:"record"`
	verify.Outcome
}

func info(s *storage.StoredSchema) SchemaInfo {
	return SchemaInfo{
		Name:      s.Name,
		Kind:      string(s.Node.Kind()),
		Source:    s.Source,
		UpdatedAt: s.UpdatedAt,
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	n, err := s.store.Count()
	if err != nil {
		httputil.WriteError(w, http.StatusServiceUnavailable, "store_unavailable", err.Error())
		return
	}
	httputil.WriteOK(w, map[string]any{"status": "ok", "schemas": n})
}

func (s *Server) handleGenerateInline(w http.ResponseWriter, r *http.Request) {
	params, err := s.parseGenParams(r.URL.Query())
	if err != nil {
		httputil.WriteBadRequest(w, "invalid_parameter", err.Error())
		return
	}
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}
	node, err := schema.ParseBytes(body)
	if err != nil {
		s.writeGenerateError(w, r, inlineSchema, err)
		return
	}

	records, err := s.generate(r.Context(), node, params)
	if err != nil {
		s.writeGenerateError(w, r, inlineSchema, err)
		return
	}
	s.metrics.recordsGenerated.WithLabelValues(inlineSchema).Add(float64(len(records)))

	if params.verify {
		validator, err := verify.NewValidator(body)
		if err != nil {
			httputil.WriteUnprocessable(w, "invalid_schema", err.Error())
			return
		}
		httputil.WriteOK(w, verifyRecords(node, validator, records))
		return
	}
	writeRecords(w, records, params)
}

func (s *Server) handleListSchemas(w http.ResponseWriter, _ *http.Request) {
	list, err := s.store.List()
	if err != nil {
		httputil.WriteInternalError(w, "store_failed", err.Error())
		return
	}
	out := make([]SchemaInfo, 0, len(list))
	for _, stored := range list {
		out = append(out, info(stored))
	}
	httputil.WriteOK(w, out)
}

func (s *Server) handlePutSchema(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}

	stored, err := storage.NewStoredSchema(name, body)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidName) {
			httputil.WriteBadRequest(w, "invalid_name", err.Error())
			return
		}
		if errors.Is(err, schema.ErrMalformedDocument) {
			httputil.WriteBadRequest(w, "malformed_document", err.Error())
			return
		}
		writeSchemaError(w, err)
		return
	}

	existed, err := s.store.Exists(name)
	if err != nil {
		httputil.WriteInternalError(w, "store_failed", err.Error())
		return
	}
	if err := s.store.Set(stored); err != nil {
		httputil.WriteInternalError(w, "store_failed", err.Error())
		return
	}
	loggerFrom(r.Context()).Info("schema stored", "name", name, "replaced", existed)

	if existed {
		httputil.WriteOK(w, info(stored))
		return
	}
	w.Header().Set("Location", "/schemas/"+name)
	httputil.WriteCreated(w, info(stored))
}

func (s *Server) handleGetSchema(w http.ResponseWriter, r *http.Request) {
	stored, ok := s.lookup(w, r)
	if !ok {
		return
	}
	raw, err := stored.JSON()
	if err != nil {
		httputil.WriteInternalError(w, "encode_failed", err.Error())
		return
	}
	httputil.WriteRawJSON(w, http.StatusOK, raw)
}

func (s *Server) handleDeleteSchema(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	existed, err := s.store.Delete(name)
	if err != nil {
		httputil.WriteInternalError(w, "store_failed", err.Error())
		return
	}
	if !existed {
		httputil.WriteNotFound(w, "schema_not_found", fmt.Sprintf("no schema named %q", name))
		return
	}
	loggerFrom(r.Context()).Info("schema deleted", "name", name)
	httputil.WriteNoContent(w)
}

func (s *Server) handleGenerateNamed(w http.ResponseWriter, r *http.Request) {
	params, err := s.parseGenParams(r.URL.Query())
	if err != nil {
		httputil.WriteBadRequest(w, "invalid_parameter", err.Error())
		return
	}
	stored, ok := s.lookup(w, r)
	if !ok {
		return
	}

	records, err := s.generate(r.Context(), stored.Node, params)
	if err != nil {
		s.writeGenerateError(w, r, stored.Name, err)
		return
	}
	s.metrics.recordsGenerated.WithLabelValues(stored.Name).Add(float64(len(records)))

	if params.verify {
		validator, err := verify.NewValidator(stored.Document)
		if err != nil {
			httputil.WriteUnprocessable(w, "invalid_schema", err.Error())
			return
		}
		httputil.WriteOK(w, verifyRecords(stored.Node, validator, records))
		return
	}
	writeRecords(w, records, params)
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*storage.StoredSchema, bool) {
	name := r.PathValue("name")
	stored, err := s.store.Get(name)
	if errors.Is(err, storage.ErrNotFound) {
		httputil.WriteNotFound(w, "schema_not_found", fmt.Sprintf("no schema named %q", name))
		return nil, false
	}
	if err != nil {
		httputil.WriteInternalError(w, "store_failed", err.Error())
		return nil, false
	}
	return stored, true
}

func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httputil.WriteError(w, http.StatusRequestEntityTooLarge, "body_too_large",
				fmt.Sprintf("schema document exceeds %d bytes", tooLarge.Limit))
			return nil, false
		}
		httputil.WriteBadRequest(w, "read_failed", err.Error())
		return nil, false
	}
	if len(body) == 0 {
		httputil.WriteBadRequest(w, "empty_body", "request body must contain a schema document")
		return nil, false
	}
	return body, true
}

func (s *Server) generate(ctx context.Context, node schema.Node, p genParams) ([]any, error) {
	runner, err := fixture.NewRunner(fixture.Options{
		Count:     p.count,
		Seed:      p.seed,
		Seeded:    p.seeded,
		Where:     p.where,
		MaxLength: s.cfg.MaxLength,
		Logger:    loggerFrom(ctx),
	})
	if err != nil {
		return nil, err
	}
	return runner.Generate(ctx, node)
}

func (s *Server) writeGenerateError(w http.ResponseWriter, r *http.Request, name string, err error) {
	reason := "internal"
	switch {
	case errors.Is(err, schema.ErrInvalidSchema):
		reason = "invalid_schema"
	case errors.Is(err, schema.ErrMalformedDocument):
		reason = "malformed_document"
	case errors.Is(err, generator.ErrCannotSatisfyUniqueness):
		reason = "uniqueness_unsatisfiable"
	case errors.Is(err, fixture.ErrFilterExhausted):
		reason = "filter_exhausted"
	case errors.Is(err, fixture.ErrInvalidWhere):
		reason = "invalid_where"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		reason = "canceled"
	}
	s.metrics.generationErrors.WithLabelValues(reason).Inc()
	loggerFrom(r.Context()).Warn("generation failed", "schema", name, "reason", reason, "error", err)

	switch reason {
	case "invalid_schema":
		writeSchemaError(w, err)
	case "invalid_where", "malformed_document":
		httputil.WriteBadRequest(w, reason, err.Error())
	case "uniqueness_unsatisfiable", "filter_exhausted":
		httputil.WriteUnprocessable(w, reason, err.Error())
	case "canceled":
		httputil.WriteError(w, http.StatusServiceUnavailable, reason, err.Error())
	default:
		httputil.WriteInternalError(w, "generation_failed", err.Error())
	}
}

func writeSchemaError(w http.ResponseWriter, err error) {
	var ise *schema.InvalidSchemaError
	if errors.As(err, &ise) {
		httputil.WriteErrorAt(w, http.StatusUnprocessableEntity, "invalid_schema", ise.Reason, ise.Path)
		return
	}
	httputil.WriteUnprocessable(w, "invalid_schema", err.Error())
}

func writeRecords(w http.ResponseWriter, records []any, p genParams) {
	if !p.batch {
		httputil.WriteOK(w, records[0])
		return
	}
	httputil.WriteOK(w, records)
}

func verifyRecords(node schema.Node, validator *verify.Validator, records []any) VerifiedRecords {
	out := VerifiedRecords{Records: records, Passed: true}
	for i, rec := range records {
		outcomes := append(verify.Check(node, rec), validator.Outcome(rec))
		for _, f := range verify.Failures(outcomes) {
			out.Passed = false
			out.Failures = append(out.Failures, RecordFailure{Record: i, Outcome: f})
		}
	}
	return out
}
