package qti

import (
	"path"
	"strings"
	"unicode"
)

// Response-processing templates the scoring engine understands.
const (
	TemplateMatchCorrect         = "match_correct"
	TemplateMapResponse          = "map_response"
	TemplateMatchNone            = "match_none"
	TemplateMatchCorrectMultiple = "match_correct_multiple"
)

// TemplateName reduces a template URI to its short name:
//
//	http://www.imsglobal.org/question/qti_v2p1/rptemplates/match_correct      -> match_correct
//	https://purl.imsglobal.org/spec/qti/v3p0/rptemplates/map_response.xml     -> map_response
func TemplateName(uri string) string {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return ""
	}
	base := path.Base(strings.ReplaceAll(uri, "\\", "/"))
	base = strings.TrimSuffix(base, path.Ext(base))
	return strings.ToLower(strings.ReplaceAll(base, "-", "_"))
}

// CanonicalName maps an element or attribute name from either QTI spelling to
// the camelCase form: "qti-choice-interaction" and "choiceInteraction" both
// become "choiceInteraction", "max-choices" becomes "maxChoices".
func CanonicalName(local string) string {
	if i := strings.IndexByte(local, ':'); i >= 0 {
		local = local[i+1:]
	}
	local = strings.TrimPrefix(local, "qti-")
	if !strings.Contains(local, "-") {
		return local
	}
	var b strings.Builder
	upper := false
	for _, r := range local {
		if r == '-' {
			upper = true
			continue
		}
		if upper {
			b.WriteRune(unicode.ToUpper(r))
			upper = false
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// KebabName is the inverse of CanonicalName for elements ("choiceInteraction" -> "qti-choice-interaction").
func KebabName(camel string) string {
	return "qti-" + KebabAttr(camel)
}

// KebabAttr converts attribute names ("maxChoices" -> "max-choices").
func KebabAttr(camel string) string {
	var b strings.Builder
	for i, r := range camel {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Dialect is the element spelling a document uses.
type Dialect int

const (
	DialectCamel Dialect = iota // assessmentItem, responseDeclaration (QTI 2.x, tolerated in 3.0)
	DialectKebab                // qti-assessment-item, qti-response-declaration (QTI 3.0)
)

func DialectOf(local string) Dialect {
	if strings.HasPrefix(local, "qti-") {
		return DialectKebab
	}
	return DialectCamel
}

func (d Dialect) Element(camel string) string {
	if d == DialectKebab {
		return KebabName(camel)
	}
	return camel
}

func (d Dialect) Attr(camel string) string {
	if d == DialectKebab {
		return KebabAttr(camel)
	}
	return camel
}
