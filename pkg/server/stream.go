package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/coder/websocket"
	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/getmockd/schemagen/pkg/generator"
	"github.com/getmockd/schemagen/pkg/httputil"
)

// maxStreamRate caps the rate query parameter.
const maxStreamRate = 1000.0

// handleStream sends one generated record per text message. count bounds
// the stream, otherwise it runs until the client goes away. rate is in
// records per second.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	params, err := s.parseGenParams(r.URL.Query())
	if err != nil {
		httputil.WriteBadRequest(w, "invalid_parameter", err.Error())
		return
	}
	perSecond := s.cfg.StreamRate
	if v := r.URL.Query().Get("rate"); v != "" {
		perSecond, err = strconv.ParseFloat(v, 64)
		if err != nil || perSecond <= 0 || perSecond > maxStreamRate {
			httputil.WriteBadRequest(w, "invalid_parameter",
				fmt.Sprintf("rate must be in (0, %g], got %q", maxStreamRate, v))
			return
		}
	}
	stored, ok := s.lookup(w, r)
	if !ok {
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		// Accept has already written the response.
		loggerFrom(r.Context()).Debug("websocket accept failed", "error", err)
		return
	}
	defer conn.CloseNow()

	s.metrics.activeStreams.Inc()
	defer s.metrics.activeStreams.Dec()

	log := loggerFrom(r.Context()).With("schema", stored.Name)
	log.Info("stream opened", "rate", perSecond, "count", params.count)

	// Nothing is read from the client; CloseRead handles control frames
	// and cancels ctx once the peer closes.
	ctx := conn.CloseRead(r.Context())

	opts := []generator.Option{generator.WithLogger(log), generator.WithMaxLength(s.cfg.MaxLength)}
	if params.seeded {
		opts = append(opts, generator.WithSeed(params.seed))
	}
	gen := generator.New(opts...)
	limiter := rate.NewLimiter(rate.Limit(perSecond), 1)

	sent := 0
	for params.count == 0 || sent < params.count {
		if err := limiter.Wait(ctx); err != nil {
			break
		}
		value, err := gen.Generate(stored.Node)
		if err != nil {
			s.metrics.generationErrors.WithLabelValues("stream").Inc()
			log.Warn("stream generation failed", "error", err)
			conn.Close(websocket.StatusInternalError, truncateReason(err.Error()))
			return
		}
		data, err := json.Marshal(value)
		if err != nil {
			conn.Close(websocket.StatusInternalError, "encode failed")
			return
		}
		if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
			if !errors.Is(err, context.Canceled) {
				log.Debug("stream write failed", "error", err)
			}
			break
		}
		s.metrics.recordsGenerated.WithLabelValues(stored.Name).Inc()
		sent++
	}

	log.Info("stream closed", "sent", sent)
	conn.Close(websocket.StatusNormalClosure, "")
}

// truncateReason keeps close reasons inside the 123 byte control frame limit.
func truncateReason(s string) string {
	const limit = 123
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
