// Package parser turns QTI 2.1 and QTI 3.0 markup into the normalized item
// model. One Parser value exists per version; the two differ only in their
// profile (namespaces, unsupported-element list, JSON and test-hierarchy
// support, which edits are implemented).
package parser

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/tidwall/gjson"

	"github.com/mind-engage/mindengage-qti/internal/qti"
	"github.com/mind-engage/mindengage-qti/internal/qti/convert"
	"github.com/mind-engage/mindengage-qti/internal/qti/edit"
	"github.com/mind-engage/mindengage-qti/internal/qti/export"
	"github.com/mind-engage/mindengage-qti/internal/qti/format"
)

const (
	errInvalidXML = "Invalid XML format"
	errNoItems    = "No assessment items found"
)

// Constants describes the schema strings of a QTI version.
type Constants struct {
	Version                   qti.Version `json:"version"`
	Namespace                 string      `json:"namespace"`
	SchemaLocation            string      `json:"schemaLocation"`
	TemplateBase              string      `json:"templateBase"`
	DefaultResponseIdentifier string      `json:"defaultResponseIdentifier"`
	ItemElement               string      `json:"itemElement"`
}

type profile struct {
	constants   Constants
	markers     []string
	unsupported []unsupportedKind
	// Interactions the 2.1 list shares with the implemented extractors are
	// only tallied when no item consumed them.
	skipHandled   bool
	json          bool
	testHierarchy bool
	editsStubbed  bool
}

type Parser struct {
	p   profile
	log *slog.Logger
}

func (ps *Parser) Version() qti.Version { return ps.p.constants.Version }

func (ps *Parser) Constants() Constants { return ps.p.constants }

// WithLogger returns a copy of ps that logs to l.
func (ps *Parser) WithLogger(l *slog.Logger) *Parser {
	cp := *ps
	cp.log = l
	return &cp
}

func (ps *Parser) logger() *slog.Logger {
	if ps.log != nil {
		return ps.log
	}
	return slog.Default()
}

var supportedTypes = []qti.InteractionType{
	qti.InteractionChoice,
	qti.InteractionMultipleResponse,
	qti.InteractionTextEntry,
	qti.InteractionExtendedText,
	qti.InteractionHottext,
	qti.InteractionSlider,
	qti.InteractionOrder,
}

func (ps *Parser) SupportedItemTypes() []qti.InteractionType {
	out := make([]qti.InteractionType, len(supportedTypes))
	copy(out, supportedTypes)
	return out
}

// IsCompatible sniffs content for this version's namespace or schema
// markers. It never fails; undecidable content is simply not compatible.
func (ps *Parser) IsCompatible(content string) bool {
	for _, m := range ps.p.markers {
		if strings.Contains(content, m) {
			return true
		}
	}
	if ps.p.json && format.IsJSON(content) {
		return gjson.Get(strings.TrimSpace(content), `\@type`).Exists()
	}
	return false
}

func (ps *Parser) BlankTemplate() string {
	return export.BlankItem(ps.Version())
}

func (ps *Parser) InsertItem(xml, newItemXML string, insertAfter int) string {
	return edit.InsertItem(xml, newItemXML, insertAfter)
}

// UpdateCorrectResponse is not implemented for QTI 3.0 and returns xml as is.
func (ps *Parser) UpdateCorrectResponse(xml, itemID string, v qti.Value) string {
	if ps.p.editsStubbed {
		return xml
	}
	return edit.UpdateCorrectResponse(xml, itemID, v)
}

// ReorderItems is not implemented for QTI 3.0 and returns xml as is.
func (ps *Parser) ReorderItems(xml string, from, to int) string {
	if ps.p.editsStubbed {
		return xml
	}
	return edit.ReorderItems(xml, from, to)
}

func (ps *Parser) FormatXML(xml string) string { return edit.Format(xml) }

// Parse extracts every assessment item from content. It never fails outright:
// problems are reported in ParseResult.Errors, and a broken item is reported
// by position without affecting its siblings.
func (ps *Parser) Parse(content string) qti.ParseResult {
	v := ps.Version()
	if ps.p.json && format.IsJSON(content) {
		xml, err := convert.JSONToXML(content)
		if err != nil {
			ps.logger().Warn("qti json conversion failed", "version", v, "err", err)
			return qti.Failed(v, err.Error())
		}
		content = xml
	}

	doc, err := xmlquery.Parse(strings.NewReader(content))
	if err != nil {
		ps.logger().Debug("qti xml parse failed", "version", v, "err", err)
		return qti.Failed(v, errInvalidXML)
	}
	root := rootElement(doc)
	if root == nil {
		return qti.Failed(v, errInvalidXML)
	}

	res := qti.ParseResult{
		Items:               []qti.Item{},
		Errors:              []string{},
		UnsupportedElements: []qti.UnsupportedElement{},
		Version:             v,
	}
	handled := map[*xmlquery.Node]bool{}
	var nodes []*xmlquery.Node

	if ps.p.testHierarchy && name(root) == "assessmentTest" {
		test, items := ps.parseTest(root, handled, &res.Errors)
		res.AssessmentTest = test
		res.Items = append(res.Items, items...)
	} else {
		if name(root) == "assessmentItem" {
			nodes = []*xmlquery.Node{root}
		} else {
			nodes = descendants(root, "assessmentItem")
		}
		for i, n := range nodes {
			it, err := ps.safeParseItem(n, handled)
			if err != nil {
				res.Errors = append(res.Errors, fmt.Sprintf("Item %d: %v", i+1, err))
				continue
			}
			res.Items = append(res.Items, it)
		}
	}

	if len(res.Items) == 0 && len(res.Errors) == 0 {
		res.Errors = append(res.Errors, errNoItems)
	}
	res.UnsupportedElements = ps.scanUnsupported(doc, handled).List()
	return res
}

// safeParseItem isolates a panic in one extractor to that item.
func (ps *Parser) safeParseItem(n *xmlquery.Node, handled map[*xmlquery.Node]bool) (it qti.Item, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("unexpected structure: %v", r)
		}
	}()
	return parseItem(n, handled)
}
