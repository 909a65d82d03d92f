package parser

import (
	"fmt"
	"strings"

	"github.com/mind-engage/mindengage-qti/internal/qti"
)

var (
	QTI21 = &Parser{p: profile{
		constants: Constants{
			Version:                   qti.V21,
			Namespace:                 qti.NamespaceV21,
			SchemaLocation:            qti.SchemaLocationV21,
			TemplateBase:              qti.TemplateBaseV21,
			DefaultResponseIdentifier: qti.DefaultResponseIdentifier,
			ItemElement:               "assessmentItem",
		},
		markers:     []string{"imsqti_v2p1", "qtiv2p1"},
		unsupported: unsupported21,
		skipHandled: true,
	}}

	QTI30 = &Parser{p: profile{
		constants: Constants{
			Version:                   qti.V30,
			Namespace:                 qti.NamespaceV30,
			SchemaLocation:            qti.SchemaLocationV30,
			TemplateBase:              qti.TemplateBaseV30,
			DefaultResponseIdentifier: qti.DefaultResponseIdentifier,
			ItemElement:               "qti-assessment-item",
		},
		markers:       []string{"imsqti_v3p0", "qtiv3p0", "<qti-assessment-item", "<qti-assessment-test"},
		unsupported:   unsupported30,
		json:          true,
		testHierarchy: true,
		editsStubbed:  true,
	}}

	// registry order decides IsCompatible precedence in FromContent.
	registry = []*Parser{QTI21, QTI30}
)

// Get returns the parser registered for v.
func Get(v qti.Version) (*Parser, error) {
	for _, p := range registry {
		if p.Version() == v {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", qti.ErrUnknownVersion, v)
}

// MustGet is Get for versions known at compile time; it panics otherwise.
func MustGet(v qti.Version) *Parser {
	p, err := Get(v)
	if err != nil {
		panic(err)
	}
	return p
}

// FromContent picks a parser by namespace markers first, then by asking each
// registered parser. Unversioned content goes to QTI 2.1.
func FromContent(content string) *Parser {
	switch {
	case strings.Contains(content, "imsqti_v3p0"):
		return QTI30
	case strings.Contains(content, "imsqti_v2p1"):
		return QTI21
	case strings.Contains(content, "qti-3-0"):
		return QTI30
	}
	for _, p := range registry {
		if p.IsCompatible(content) {
			return p
		}
	}
	return QTI21
}

func Versions() []qti.Version {
	out := make([]qti.Version, 0, len(registry))
	for _, p := range registry {
		out = append(out, p.Version())
	}
	return out
}
