package fixture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"golang.org/x/sync/errgroup"

	"github.com/getmockd/schemagen/pkg/generator"
	"github.com/getmockd/schemagen/pkg/logging"
	"github.com/getmockd/schemagen/pkg/schema"
)

// ErrFilterExhausted is returned when too many records in a row fail the
// Where predicate.
var ErrFilterExhausted = errors.New("filter rejected too many records")

// ErrInvalidWhere is returned by NewRunner when Where does not compile to a
// boolean expression.
var ErrInvalidWhere = errors.New("invalid where expression")

// DefaultFilterAttemptsPerRecord scales MaxFilterAttempts with Count when it
// is not set.
const DefaultFilterAttemptsPerRecord = 100

// Options configures a Runner.
type Options struct {
	// Count is the number of records per schema. Values below 1 mean 1.
	Count int

	// Seed makes output reproducible when Seeded is true. File i of
	// GenerateFiles is seeded with Seed+i.
	Seed   uint64
	Seeded bool

	// Where is an expr-lang boolean expression over the record, bound as
	// "it". Empty accepts every record.
	Where string

	// MaxFilterAttempts bounds the total number of rejected records per
	// schema. Zero means DefaultFilterAttemptsPerRecord * Count.
	MaxFilterAttempts int

	// MaxUniqueAttempts is passed to the generator. Zero keeps its default
	// and a negative value removes the cap.
	MaxUniqueAttempts int

	// MaxLength caps string lengths and array sizes; zero means no cap.
	MaxLength int

	// Concurrency bounds the files generated at once. Zero or less means 4.
	Concurrency int

	Logger *slog.Logger
}

// Runner generates record batches.
type Runner struct {
	opts  Options
	where *vm.Program
	log   *slog.Logger
}

// Result holds the records generated for one schema file.
type Result struct {
	Path    string `json:"path"`
	Records []any  `json:"records"`
}

// NewRunner validates opts and compiles the Where expression.
func NewRunner(opts Options) (*Runner, error) {
	if opts.Count < 1 {
		opts.Count = 1
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	if opts.MaxFilterAttempts <= 0 {
		opts.MaxFilterAttempts = DefaultFilterAttemptsPerRecord * opts.Count
	}
	r := &Runner{opts: opts, log: opts.Logger}
	if r.log == nil {
		r.log = logging.Nop()
	}
	if opts.Where != "" {
		program, err := expr.Compile(opts.Where, expr.AllowUndefinedVariables(), expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidWhere, err)
		}
		r.where = program
	}
	return r, nil
}

// Generate produces Count records for node.
func (r *Runner) Generate(ctx context.Context, node schema.Node) ([]any, error) {
	return r.generate(ctx, r.generatorFor(0), node)
}

// GenerateFiles loads every path and generates Count records for each,
// running up to Concurrency files at once. Results follow the order of
// paths. The first failure cancels the remaining work.
func (r *Runner) GenerateFiles(ctx context.Context, paths []string) ([]Result, error) {
	results := make([]Result, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Concurrency)

	for i, path := range paths {
		g.Go(func() (err error) {
			defer func() {
				if p := recover(); p != nil {
					r.log.Error("generation panicked", "path", path, "panic", p, "stack", string(debug.Stack()))
					err = fmt.Errorf("%s: generation panicked: %v", path, p)
				}
			}()
			node, err := schema.Load(path)
			if err != nil {
				return err
			}
			records, err := r.generate(ctx, r.generatorFor(i), node)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			results[i] = Result{Path: path, Records: records}
			r.log.Debug("generated records", "path", path, "count", len(records))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *Runner) generatorFor(i int) *generator.Generator {
	opts := []generator.Option{generator.WithLogger(r.log)}
	if r.opts.Seeded {
		opts = append(opts, generator.WithSeed(r.opts.Seed+uint64(i)))
	}
	if r.opts.MaxUniqueAttempts != 0 {
		opts = append(opts, generator.WithMaxUniqueAttempts(r.opts.MaxUniqueAttempts))
	}
	if r.opts.MaxLength > 0 {
		opts = append(opts, generator.WithMaxLength(r.opts.MaxLength))
	}
	return generator.New(opts...)
}

func (r *Runner) generate(ctx context.Context, gen *generator.Generator, node schema.Node) ([]any, error) {
	records := make([]any, 0, r.opts.Count)
	rejected := 0
	var lastEvalErr error

	for len(records) < r.opts.Count {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		value, err := gen.Generate(node)
		if err != nil {
			return nil, err
		}
		ok, err := r.accept(value)
		if err != nil {
			lastEvalErr = err
		}
		if !ok {
			rejected++
			if rejected >= r.opts.MaxFilterAttempts {
				if lastEvalErr != nil {
					return nil, fmt.Errorf("%w (%d rejected, last error: %v)", ErrFilterExhausted, rejected, lastEvalErr)
				}
				return nil, fmt.Errorf("%w (%d rejected)", ErrFilterExhausted, rejected)
			}
			continue
		}
		records = append(records, value)
	}
	if rejected > 0 {
		r.log.Debug("filter rejected records", "rejected", rejected, "kept", len(records))
	}
	return records, nil
}

// accept evaluates the Where predicate. Evaluation errors, such as comparing
// an absent optional property, count as a rejection.
func (r *Runner) accept(value any) (bool, error) {
	if r.where == nil {
		return true, nil
	}
	out, err := expr.Run(r.where, map[string]any{"it": value})
	if err != nil {
		return false, err
	}
	b, _ := out.(bool)
	return b, nil
}
