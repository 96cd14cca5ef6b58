package encode

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

// writeXML renders records under a <records> root, one <record> each.
// Object keys become child elements in sorted order, array entries become
// <item> elements and null becomes an element with nil="true".
func writeXML(w io.Writer, records []any, single bool) error {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	parent := &doc.Element
	if !single {
		parent = doc.CreateElement("records")
	}
	for _, rec := range records {
		appendXML(parent.CreateElement("record"), rec)
	}

	doc.Indent(2)
	_, err := doc.WriteTo(w)
	return err
}

func appendXML(el *etree.Element, v any) {
	switch val := v.(type) {
	case nil:
		el.CreateAttr("nil", "true")
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			child := el.CreateElement(xmlName(k))
			if child.Tag != k {
				child.CreateAttr("name", k)
			}
			appendXML(child, val[k])
		}
	case []any:
		for _, item := range val {
			appendXML(el.CreateElement("item"), item)
		}
	case string:
		el.SetText(val)
	case float64:
		el.SetText(strconv.FormatFloat(val, 'g', -1, 64))
	default:
		el.SetText(fmt.Sprint(val))
	}
}

// xmlName maps a property name onto a valid XML element name.
func xmlName(s string) string {
	if s == "" {
		return "_"
	}
	var b strings.Builder
	for i, r := range s {
		valid := r == '_' || (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') ||
			(i > 0 && (r == '-' || r == '.' || (r >= '0' && r <= '9')))
		if valid {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	name := b.String()
	if strings.HasPrefix(strings.ToLower(name), "xml") {
		name = "_" + name
	}
	return name
}
