package format

import (
	"strings"

	"github.com/tidwall/gjson"
)

type Format string

const (
	XML  Format = "xml"
	JSON Format = "json"
)

// Detect classifies content as JSON only when it is a brace-delimited, valid
// JSON object. Everything else, including ambiguous input, is XML.
func Detect(content string) Format {
	s := strings.TrimSpace(content)
	if strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}") && gjson.Valid(s) {
		return JSON
	}
	return XML
}

func IsJSON(content string) bool { return Detect(content) == JSON }
