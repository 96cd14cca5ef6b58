package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/getmockd/schemagen/pkg/schema"
)

// stdinName marks schema input read from standard input.
const stdinName = "-"

// schemaInput is one schema resolved from the command line.
type schemaInput struct {
	name string
	node schema.Node
	// doc is the full schema document when node was parsed from all of it,
	// and nil for --path or --openapi-component selections.
	doc []byte
}

// selection narrows a document to one schema.
type selection struct {
	path      string
	component string
}

func (s selection) whole() bool {
	return s.path == "" && s.component == ""
}

// readSchema loads name, or stdin when name is "-", applying sel.
func readSchema(name string, stdin io.Reader, sel selection) (*schemaInput, error) {
	var (
		data []byte
		err  error
	)
	if name == stdinName {
		data, err = io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
	} else if sel.component == "" {
		data, err = os.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read schema file: %w", err)
		}
	}

	in := &schemaInput{name: name}
	switch {
	case sel.component != "" && name == stdinName:
		in.node, err = schema.LoadOpenAPIData(data, sel.component)
	case sel.component != "":
		in.node, err = schema.LoadOpenAPI(name, sel.component)
	case sel.path != "":
		in.node, err = schema.Select(data, sel.path)
	default:
		in.node, err = schema.ParseBytes(data)
		in.doc = data
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return in, nil
}

// expandArgs turns file arguments and globs into paths. No arguments, or a
// single "-", means standard input.
func expandArgs(args []string) ([]string, error) {
	if len(args) == 0 || (len(args) == 1 && args[0] == stdinName) {
		return []string{stdinName}, nil
	}
	paths, err := schema.Glob(args...)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, ErrNoSchemas
	}
	return paths, nil
}
