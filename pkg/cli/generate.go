package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/getmockd/schemagen/pkg/encode"
	"github.com/getmockd/schemagen/pkg/fixture"
	"github.com/getmockd/schemagen/pkg/verify"
)

var (
	generateCount          int
	generateSeed           uint64
	generateFormat         string
	generateOutput         string
	generatePath           string
	generateComponent      string
	generateWhere          string
	generateVerify         bool
	generateUniqueAttempts int
	generateConcurrency    int
	generatePretty         bool
)

var generateCmd = &cobra.Command{
	Use:   "generate [schema-file...]",
	Short: "Generate records from JSON Schema files",
	Long: `Generate random records that conform to one or more schemas.

Schemas are JSON or YAML documents. Arguments may be doublestar globs such as
'schemas/**/*.json'. With no argument, or "-", the schema is read from stdin.

Without --count a single record is written as a bare value; with --count the
records are written as a list. Several schema files produce a list of
{path, records} objects.

Examples:
  # One record
  schemagen generate user.json

  # 100 reproducible records as NDJSON
  schemagen generate user.json --count 100 --seed 42 -f ndjson

  # A definition inside a larger document
  schemagen generate defs.json --path '$.definitions.Address'

  # An OpenAPI component, filtered
  schemagen generate api.yaml --openapi-component Order -n 10 --where 'it.total > 100'

  # Check every record against the schema before writing it
  schemagen generate 'schemas/*.yaml' -n 50 --verify`,
	RunE: func(cmd *cobra.Command, args []string) error {
		paths, err := expandArgs(args)
		if err != nil {
			return err
		}
		format, err := encode.ParseFormat(cfg.Generate.Format)
		if err != nil {
			return err
		}

		opts := fixture.Options{
			Count:             cfg.Generate.Count,
			Seed:              generateSeed,
			Seeded:            cmd.Flags().Changed("seed"),
			Where:             generateWhere,
			MaxUniqueAttempts: cfg.Generate.UniqueAttempts,
			Concurrency:       cfg.Generate.Concurrency,
			Logger:            logger,
		}
		sel := selection{path: generatePath, component: generateComponent}

		inputs, results, err := generateAll(cmd.Context(), opts, paths, cmd.InOrStdin(), sel)
		if err != nil {
			return err
		}

		if generateVerify {
			if err := verifyAll(cmd.ErrOrStderr(), inputs, results); err != nil {
				return err
			}
		}

		return writeResults(results, format, !cmd.Flags().Changed("count") && cfg.Generate.Count == 1, cmd.OutOrStdout())
	},
}

func init() {
	defaults := cfg.Generate
	generateCmd.Flags().IntVarP(&generateCount, "count", "n", defaults.Count, "Number of records per schema")
	generateCmd.Flags().Uint64Var(&generateSeed, "seed", 0, "Seed for reproducible output")
	generateCmd.Flags().StringVarP(&generateFormat, "format", "f", defaults.Format, "Output format: json, ndjson, yaml, xml")
	generateCmd.Flags().StringVarP(&generateOutput, "output", "o", "", "Write to file instead of stdout")
	generateCmd.Flags().StringVar(&generatePath, "path", "", "JSONPath of the schema inside each document")
	generateCmd.Flags().StringVar(&generateComponent, "openapi-component", "", "Use this components.schemas entry of an OpenAPI document")
	generateCmd.Flags().StringVar(&generateWhere, "where", "", "Keep only records matching this expression (record is 'it')")
	generateCmd.Flags().BoolVar(&generateVerify, "verify", false, "Verify every record against its schema")
	generateCmd.Flags().IntVar(&generateUniqueAttempts, "unique-attempts", defaults.UniqueAttempts, "Consecutive duplicate draws before a uniqueItems array fails (-1 removes the cap)")
	generateCmd.Flags().IntVar(&generateConcurrency, "concurrency", defaults.Concurrency, "Schema files generated at once")
	generateCmd.Flags().BoolVar(&generatePretty, "pretty", false, "Indent JSON output (default when writing to a terminal)")
	generateCmd.MarkFlagsMutuallyExclusive("path", "openapi-component")

	bindConfig(generateCmd, map[string]string{
		"count":           "generate.count",
		"format":          "generate.format",
		"unique-attempts": "generate.unique-attempts",
		"concurrency":     "generate.concurrency",
	})
	rootCmd.AddCommand(generateCmd)
}

// generateAll produces records for every path. Whole files go through the
// runner's concurrent file loader; stdin and selections are loaded here,
// input i seeded with Seed+i.
func generateAll(ctx context.Context, opts fixture.Options, paths []string, stdin io.Reader, sel selection) ([]*schemaInput, []fixture.Result, error) {
	if sel.whole() && paths[0] != stdinName {
		runner, err := fixture.NewRunner(opts)
		if err != nil {
			return nil, nil, err
		}
		results, err := runner.GenerateFiles(ctx, paths)
		if err != nil {
			return nil, nil, err
		}
		if !generateVerify {
			return nil, results, nil
		}
		inputs := make([]*schemaInput, len(paths))
		for i, p := range paths {
			if inputs[i], err = readSchema(p, stdin, sel); err != nil {
				return nil, nil, err
			}
		}
		return inputs, results, nil
	}

	inputs := make([]*schemaInput, 0, len(paths))
	results := make([]fixture.Result, 0, len(paths))
	for i, p := range paths {
		in, err := readSchema(p, stdin, sel)
		if err != nil {
			return nil, nil, err
		}
		o := opts
		o.Seed += uint64(i)
		runner, err := fixture.NewRunner(o)
		if err != nil {
			return nil, nil, err
		}
		records, err := runner.Generate(ctx, in.node)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", p, err)
		}
		inputs = append(inputs, in)
		results = append(results, fixture.Result{Path: p, Records: records})
	}
	return inputs, results, nil
}

// verifyAll reports every failed check on w. Whole documents are also run
// through the JSON Schema validator.
func verifyAll(w io.Writer, inputs []*schemaInput, results []fixture.Result) error {
	failed, total := 0, 0
	for i, in := range inputs {
		var validator *verify.Validator
		if in.doc != nil {
			v, err := verify.NewValidator(in.doc)
			if err != nil {
				return fmt.Errorf("%s: %w", in.name, err)
			}
			validator = v
		}
		for j, rec := range results[i].Records {
			total++
			outcomes := verify.Check(in.node, rec)
			if validator != nil {
				outcomes = append(outcomes, validator.Outcome(rec))
			}
			if verify.AllPassed(outcomes) {
				continue
			}
			failed++
			for _, f := range verify.Failures(outcomes) {
				fmt.Fprintf(w, "FAIL %s record %d: %s: %s\n", in.name, j+1, f.Name, f.Detail)
			}
		}
	}
	if failed > 0 {
		return &exitError{
			code: ExitChecksFailed,
			err:  fmt.Errorf("%w: %d of %d records", ErrVerifyFailed, failed, total),
		}
	}
	logger.Info("verified records", "records", total)
	return nil
}

func writeResults(results []fixture.Result, format encode.Format, single bool, stdout io.Writer) (err error) {
	out := stdout
	if generateOutput != "" {
		var f *os.File
		f, err = os.Create(generateOutput)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer func() {
			if cerr := f.Close(); err == nil {
				err = cerr
			}
		}()
		out = f
	}

	opts := encode.Options{
		Format: format,
		Pretty: generatePretty || encode.IsTerminal(out),
	}
	var records []any
	if len(results) == 1 {
		records = results[0].Records
		opts.Single = single
	} else {
		records = make([]any, len(results))
		for i, res := range results {
			records[i] = map[string]any{"path": res.Path, "records": res.Records}
		}
	}
	return encode.Write(out, records, opts)
}
