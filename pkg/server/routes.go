package server

import "net/http"

func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", s.metrics.handler())

	mux.HandleFunc("POST /generate", s.handleGenerateInline)

	mux.HandleFunc("GET /schemas", s.handleListSchemas)
	mux.HandleFunc("PUT /schemas/{name}", s.handlePutSchema)
	mux.HandleFunc("GET /schemas/{name}", s.handleGetSchema)
	mux.HandleFunc("DELETE /schemas/{name}", s.handleDeleteSchema)
	mux.HandleFunc("GET /schemas/{name}/generate", s.handleGenerateNamed)
	mux.HandleFunc("GET /schemas/{name}/stream", s.handleStream)
}
