package sink

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"
)

// Sink receives generated records.
type Sink interface {
	Publish(ctx context.Context, record any) error
	Close() error
}

// Source produces the next record.
type Source func() (any, error)

// PumpOptions configures Pump.
type PumpOptions struct {
	// Count is the number of records to send. Zero sends until ctx is done.
	Count int
	// Rate is records per second. Zero or less means no pacing.
	Rate float64
}

// Pump moves records from src to dst and returns how many were sent. It
// stops at Count, at the first error, or when ctx is done; cancellation is
// not reported as an error.
func Pump(ctx context.Context, dst Sink, src Source, opts PumpOptions) (int, error) {
	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.Rate > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.Rate), 1)
	}

	sent := 0
	for opts.Count == 0 || sent < opts.Count {
		if err := limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return sent, nil
			}
			return sent, err
		}
		record, err := src()
		if err != nil {
			return sent, fmt.Errorf("generate record %d: %w", sent+1, err)
		}
		if err := dst.Publish(ctx, record); err != nil {
			if ctx.Err() != nil {
				return sent, nil
			}
			return sent, fmt.Errorf("publish record %d: %w", sent+1, err)
		}
		sent++
	}
	return sent, nil
}

// WriterSink writes each record as one JSON line.
type WriterSink struct {
	mu  sync.Mutex
	enc *json.Encoder
	w   io.Writer
}

// NewWriterSink returns a sink writing NDJSON to w.
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{enc: json.NewEncoder(w), w: w}
}

func (s *WriterSink) Publish(_ context.Context, record any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enc.Encode(record)
}

// Close closes the underlying writer when it is an io.Closer.
func (s *WriterSink) Close() error {
	if c, ok := s.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
