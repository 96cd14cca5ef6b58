package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/getmockd/schemagen/pkg/cli/internal/output"
	"github.com/getmockd/schemagen/pkg/verify"
)

var (
	checkPath      string
	checkComponent string
)

// CheckOutput represents JSON output format
type CheckOutput struct {
	Schema   string           `json:"schema"`
	Value    string           `json:"value"`
	Passed   bool             `json:"passed"`
	Outcomes []verify.Outcome `json:"outcomes"`
}

var checkCmd = &cobra.Command{
	Use:   "check <schema-file> <value-file>",
	Short: "Check a value against a schema",
	Long: `Check a JSON or YAML value against a schema and print one line per named
check. A value file of "-" is read from stdin.

When the whole document is the schema, the value is also validated by a full
JSON Schema validator ("conforms to JSON Schema").

Exits with status 2 when any check fails.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if args[0] == stdinName && args[1] == stdinName {
			return errors.New("schema and value cannot both be read from stdin")
		}
		in, err := readSchema(args[0], cmd.InOrStdin(), selection{path: checkPath, component: checkComponent})
		if err != nil {
			return err
		}

		var data []byte
		if args[1] == stdinName {
			data, err = io.ReadAll(cmd.InOrStdin())
		} else {
			data, err = os.ReadFile(args[1])
		}
		if err != nil {
			return fmt.Errorf("failed to read value: %w", err)
		}
		// YAML is a superset of JSON, so one decoder covers both.
		var value any
		if err := yaml.Unmarshal(data, &value); err != nil {
			return fmt.Errorf("failed to parse value: %w", err)
		}

		outcomes := verify.Check(in.node, value)
		if in.doc != nil {
			validator, err := verify.NewValidator(in.doc)
			if err != nil {
				return fmt.Errorf("%s: %w", in.name, err)
			}
			outcomes = append(outcomes, validator.Outcome(value))
		}
		passed := verify.AllPassed(outcomes)

		if jsonOutput {
			if outcomes == nil {
				outcomes = []verify.Outcome{}
			}
			if err := output.JSON(cmd.OutOrStdout(), CheckOutput{
				Schema:   args[0],
				Value:    args[1],
				Passed:   passed,
				Outcomes: outcomes,
			}); err != nil {
				return err
			}
		} else {
			tw := output.Table(cmd.OutOrStdout())
			for _, o := range outcomes {
				status := "PASS"
				if !o.Passed {
					status = "FAIL"
				}
				if o.Detail == "" {
					fmt.Fprintf(tw, "%s\t%s\n", status, o.Name)
				} else {
					fmt.Fprintf(tw, "%s\t%s\t%s\n", status, o.Name, o.Detail)
				}
			}
			if err := tw.Flush(); err != nil {
				return err
			}
		}

		if !passed {
			return &exitError{code: ExitChecksFailed, err: ErrChecksFailed}
		}
		return nil
	},
}

func init() {
	checkCmd.Flags().StringVar(&checkPath, "path", "", "JSONPath of the schema inside the document")
	checkCmd.Flags().StringVar(&checkComponent, "openapi-component", "", "Use this components.schemas entry of an OpenAPI document")
	checkCmd.MarkFlagsMutuallyExclusive("path", "openapi-component")
	rootCmd.AddCommand(checkCmd)
}
