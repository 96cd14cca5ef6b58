package encode

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"", FormatJSON},
		{"JSON", FormatJSON},
		{"jsonl", FormatNDJSON},
		{"ndjson", FormatNDJSON},
		{"yml", FormatYAML},
		{"Yaml", FormatYAML},
		{"xml", FormatXML},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseFormat("csv")
	assert.Error(t, err)
}

var sample = []any{
	map[string]any{"id": 1, "name": "Ab3", "tags": []any{"x", "y"}, "score": 1.5},
	map[string]any{"id": 2, "name": "zz9", "tags": []any{}, "extra": nil},
}

func TestWrite_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sample, Options{Format: FormatJSON}))
	assert.JSONEq(t, `[
		{"id":1,"name":"Ab3","tags":["x","y"],"score":1.5},
		{"id":2,"name":"zz9","tags":[],"extra":null}
	]`, buf.String())

	buf.Reset()
	require.NoError(t, Write(&buf, sample[:1], Options{Format: FormatJSON, Single: true, Pretty: true}))
	assert.True(t, strings.HasPrefix(buf.String(), "{\n  "))
	assert.JSONEq(t, `{"id":1,"name":"Ab3","tags":["x","y"],"score":1.5}`, buf.String())
}

func TestWrite_NDJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sample, Options{Format: FormatNDJSON, Pretty: true}))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.JSONEq(t, `{"id":2,"name":"zz9","tags":[],"extra":null}`, lines[1])
}

func TestWrite_YAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sample, Options{Format: FormatYAML}))

	var back []map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &back))
	require.Len(t, back, 2)
	assert.Equal(t, "Ab3", back[0]["name"])
	assert.Equal(t, 1.5, back[0]["score"])
}

func TestWrite_XML(t *testing.T) {
	var buf bytes.Buffer
	records := []any{
		map[string]any{"id": 7, "tags": []any{"a", "b"}, "2nd key": true, "gone": nil},
		"plain",
	}
	require.NoError(t, Write(&buf, records, Options{Format: FormatXML}))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, `<?xml version="1.0" encoding="UTF-8"?>`))
	assert.Contains(t, out, "<records>")
	assert.Contains(t, out, "<id>7</id>")
	assert.Contains(t, out, "<item>a</item>")
	assert.Contains(t, out, `<_nd_key name="2nd key">true</_nd_key>`)
	assert.Contains(t, out, `<gone nil="true"/>`)
	assert.Contains(t, out, "<record>plain</record>")
}

func TestWrite_XMLSingle(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, []any{map[string]any{"n": 0.25}}, Options{Format: FormatXML, Single: true}))
	assert.NotContains(t, buf.String(), "<records>")
	assert.Contains(t, buf.String(), "<n>0.25</n>")
}

func TestWrite_Errors(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, Write(&buf, sample, Options{Single: true}))
	assert.Error(t, Write(&buf, sample, Options{Format: "csv"}))
}

func TestXMLName(t *testing.T) {
	assert.Equal(t, "name", xmlName("name"))
	assert.Equal(t, "_", xmlName(""))
	assert.Equal(t, "a-b.c1", xmlName("a-b.c1"))
	assert.Equal(t, "_xmlns", xmlName("xmlns"))
	assert.Equal(t, "_a", xmlName("1a"))
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, IsTerminal(&bytes.Buffer{}))

	f, err := os.Create(filepath.Join(t.TempDir(), "out.json"))
	require.NoError(t, err)
	defer f.Close()
	assert.False(t, IsTerminal(f))
}
