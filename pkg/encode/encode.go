// Package encode writes generated records as JSON, NDJSON, YAML or XML.
package encode

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/goccy/go-json"
	"github.com/mattn/go-isatty"
	"gopkg.in/yaml.v3"
)

// Format is an output format.
type Format string

// Supported formats.
const (
	FormatJSON   Format = "json"
	FormatNDJSON Format = "ndjson"
	FormatYAML   Format = "yaml"
	FormatXML    Format = "xml"
)

// Formats lists the supported formats in display order.
var Formats = []Format{FormatJSON, FormatNDJSON, FormatYAML, FormatXML}

// ParseFormat parses a format name, case-insensitively. "yml" and "jsonl"
// are accepted as aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "json":
		return FormatJSON, nil
	case "ndjson", "jsonl":
		return FormatNDJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "xml":
		return FormatXML, nil
	default:
		return "", fmt.Errorf("unknown format %q (supported: json, ndjson, yaml, xml)", s)
	}
}

// Options controls encoding.
type Options struct {
	Format Format
	// Pretty indents JSON output. YAML and XML are always indented; NDJSON
	// never is.
	Pretty bool
	// Single writes records[0] on its own instead of a list. It requires
	// exactly one record.
	Single bool
}

// Write encodes records to w.
func Write(w io.Writer, records []any, opts Options) error {
	if opts.Single && len(records) != 1 {
		return fmt.Errorf("single output needs exactly one record, got %d", len(records))
	}

	var payload any = records
	if opts.Single {
		payload = records[0]
	}

	switch opts.Format {
	case FormatJSON, "":
		enc := json.NewEncoder(w)
		if opts.Pretty {
			enc.SetIndent("", "  ")
		}
		return enc.Encode(payload)

	case FormatNDJSON:
		enc := json.NewEncoder(w)
		for _, rec := range records {
			if err := enc.Encode(rec); err != nil {
				return err
			}
		}
		return nil

	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(payload); err != nil {
			return err
		}
		return enc.Close()

	case FormatXML:
		return writeXML(w, records, opts.Single)

	default:
		return fmt.Errorf("unknown format %q", opts.Format)
	}
}

// IsTerminal reports whether w is an interactive terminal. The CLI
// pretty-prints JSON only in that case.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
