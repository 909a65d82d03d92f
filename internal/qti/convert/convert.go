// Package convert translates between the QTI 3.0 JSON representation, a tree
// of objects discriminated by "@type", and the equivalent XML element tree.
//
// The mapping is structural. Interactions and declarations have explicit
// shapes (choices, prompt, correctResponse, mapping ...); anything else goes
// through a generic element mapping that keeps the tag, attributes and text.
// XML -> JSON -> XML is semantically stable for the recognized structures but
// not byte-identical: comments, whitespace and attribute order may change.
package convert

import (
	"errors"
	"strings"

	"github.com/mind-engage/mindengage-qti/internal/qti"
)

// The error texts are shown to authors as-is.
var (
	ErrInvalidJSON = errors.New("Invalid JSON format")
	ErrInvalidXML  = errors.New("Invalid XML format")
	ErrUnknownRoot = errors.New("Unknown QTI root element")
)

const (
	typeKey    = "@type"
	contentKey = "content"
)

func isRoot(canonical string) bool {
	return canonical == "assessmentItem" || canonical == "assessmentTest"
}

// Element names with an alternate JSON spelling.
var jsonTypeFor = map[string]string{
	"p": "paragraph",
}

var xmlTagFor = map[string]string{
	"paragraph": "p",
}

func toJSONType(canonical string) string {
	if t, ok := jsonTypeFor[canonical]; ok {
		return t
	}
	return canonical
}

func toXMLTag(jsonType string) string {
	if t, ok := xmlTagFor[jsonType]; ok {
		return t
	}
	return jsonType
}

// escapeKey makes an object key safe for use as a single gjson/sjson path component.
func escapeKey(k string) string {
	var b strings.Builder
	for i := 0; i < len(k); i++ {
		switch c := k[i]; c {
		case '.', '*', '?', '@', '#', '|', '\\', '!', '=', '<', '>', '%', ':':
			b.WriteByte('\\')
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func rootNamespace() (ns, schemaLocation string) {
	return qti.V30.Namespace()
}
