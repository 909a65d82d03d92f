package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/antchfx/xmlquery"

	"github.com/mind-engage/mindengage-qti/internal/qti"
)

// --- node helpers; every name comparison goes through qti.CanonicalName ---

func name(n *xmlquery.Node) string { return qti.CanonicalName(n.Data) }

func rootElement(doc *xmlquery.Node) *xmlquery.Node {
	for c := doc.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode {
			return c
		}
	}
	return nil
}

func children(n *xmlquery.Node, canonical string) []*xmlquery.Node {
	var out []*xmlquery.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode && name(c) == canonical {
			out = append(out, c)
		}
	}
	return out
}

func child(n *xmlquery.Node, canonical string) *xmlquery.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode && name(c) == canonical {
			return c
		}
	}
	return nil
}

// descendants walks below n in document order.
func descendants(n *xmlquery.Node, canonical string) []*xmlquery.Node {
	var out []*xmlquery.Node
	var walk func(*xmlquery.Node)
	walk = func(p *xmlquery.Node) {
		for c := p.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != xmlquery.ElementNode {
				continue
			}
			if name(c) == canonical {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(n)
	return out
}

func firstDescendant(n *xmlquery.Node, canonical string) *xmlquery.Node {
	if d := descendants(n, canonical); len(d) > 0 {
		return d[0]
	}
	return nil
}

// attr reads an unprefixed attribute in either spelling.
func attr(n *xmlquery.Node, camel string) string {
	for _, a := range n.Attr {
		if a.Name.Space == "" && qti.CanonicalName(a.Name.Local) == camel {
			return a.Value
		}
	}
	return ""
}

func normalize(s string) string { return strings.Join(strings.Fields(s), " ") }

func text(n *xmlquery.Node) string { return normalize(n.InnerText()) }

// --- item extraction ---

// interactionOrder is the dispatch precedence when an item body holds more
// than one interaction.
var interactionOrder = []struct {
	element string
	typ     qti.InteractionType
}{
	{"choiceInteraction", qti.InteractionChoice},
	{"textEntryInteraction", qti.InteractionTextEntry},
	{"extendedTextInteraction", qti.InteractionExtendedText},
	{"hottextInteraction", qti.InteractionHottext},
	{"sliderInteraction", qti.InteractionSlider},
	{"orderInteraction", qti.InteractionOrder},
}

func findInteraction(scope *xmlquery.Node) (*xmlquery.Node, qti.InteractionType) {
	for _, k := range interactionOrder {
		if n := firstDescendant(scope, k.element); n != nil {
			return n, k.typ
		}
	}
	return nil, qti.InteractionUnknown
}

func parseItem(n *xmlquery.Node, handled map[*xmlquery.Node]bool) (qti.Item, error) {
	it := qti.Item{
		ID:                 strings.TrimSpace(attr(n, "identifier")),
		Title:              strings.TrimSpace(attr(n, "title")),
		Type:               qti.InteractionUnknown,
		ResponseIdentifier: qti.DefaultResponseIdentifier,
	}
	if it.ID == "" {
		it.ID = qti.NewItemID()
	}
	if it.Title == "" {
		it.Title = qti.DefaultTitle
	}

	body := child(n, "itemBody")
	scope := body
	if scope == nil {
		scope = n
	}
	in, typ := findInteraction(scope)
	if in != nil {
		handled[in] = true
		if rid := strings.TrimSpace(attr(in, "responseIdentifier")); rid != "" {
			it.ResponseIdentifier = rid
		}
		if err := extractInteraction(&it, in, typ); err != nil {
			return qti.Item{}, err
		}
	}

	if body != nil {
		it.Prompt = promptText(body)
	}
	if it.Prompt == "" && in != nil {
		if p := child(in, "prompt"); p != nil {
			it.Prompt = text(p)
		}
	}

	decl := responseDeclaration(n, it.ResponseIdentifier)
	it.CorrectResponse = correctResponse(decl)
	if err := readMapping(&it, decl); err != nil {
		return qti.Item{}, err
	}
	it.MaxScore = maxScore(n)
	it.ResponseProcessing = responseProcessing(n)
	return it, nil
}

func extractInteraction(it *qti.Item, in *xmlquery.Node, typ qti.InteractionType) error {
	it.Type = typ
	switch typ {
	case qti.InteractionChoice:
		// maxChoices defaults to 1 when absent.
		if mc := strings.TrimSpace(attr(in, "maxChoices")); mc != "" && mc != "1" {
			it.Type = qti.InteractionMultipleResponse
		}
		it.Choices = choices(in, "simpleChoice")
	case qti.InteractionHottext:
		it.HottextChoices = choices(in, "hottext")
	case qti.InteractionOrder:
		it.OrderChoices = choices(in, "simpleChoice")
	case qti.InteractionSlider:
		cfg, err := sliderConfig(in)
		if err != nil {
			return err
		}
		it.SliderConfig = cfg
	}
	return nil
}

func choices(in *xmlquery.Node, canonical string) []qti.Choice {
	out := []qti.Choice{}
	for _, c := range descendants(in, canonical) {
		out = append(out, qti.Choice{
			Identifier: strings.TrimSpace(attr(c, "identifier")),
			Text:       text(c),
		})
	}
	return out
}

func sliderConfig(in *xmlquery.Node) (*qti.SliderConfig, error) {
	num := func(key string, required bool) (float64, error) {
		raw := strings.TrimSpace(attr(in, key))
		if raw == "" {
			if required {
				return 0, fmt.Errorf("slider interaction missing %s", key)
			}
			return 0, nil
		}
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return 0, fmt.Errorf("slider interaction %s %q is not a number", key, raw)
		}
		return f, nil
	}
	lo, err := num("lowerBound", true)
	if err != nil {
		return nil, err
	}
	hi, err := num("upperBound", true)
	if err != nil {
		return nil, err
	}
	step, err := num("step", false)
	if err != nil {
		return nil, err
	}
	orientation := strings.TrimSpace(attr(in, "orientation"))
	if orientation == "" {
		orientation = "horizontal"
	}
	return &qti.SliderConfig{
		LowerBound:  lo,
		UpperBound:  hi,
		Step:        step,
		StepLabel:   strings.EqualFold(strings.TrimSpace(attr(in, "stepLabel")), "true"),
		Orientation: orientation,
	}, nil
}

var blockElements = map[string]bool{
	"p": true, "div": true, "br": true, "li": true, "ul": true, "ol": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"table": true, "tr": true, "td": true, "th": true, "blockquote": true, "pre": true,
}

// promptText is the body text with interaction and feedback markup removed.
func promptText(body *xmlquery.Node) string {
	var b strings.Builder
	var walk func(*xmlquery.Node)
	walk = func(p *xmlquery.Node) {
		for c := p.FirstChild; c != nil; c = c.NextSibling {
			switch c.Type {
			case xmlquery.TextNode, xmlquery.CharDataNode:
				b.WriteString(c.Data)
			case xmlquery.ElementNode:
				nm := name(c)
				if strings.HasSuffix(nm, "Interaction") || strings.HasPrefix(nm, "feedback") || nm == "modalFeedback" {
					continue
				}
				block := blockElements[nm]
				if block {
					b.WriteByte(' ')
				}
				walk(c)
				if block {
					b.WriteByte(' ')
				}
			}
		}
	}
	walk(body)
	return normalize(b.String())
}

func responseDeclaration(item *xmlquery.Node, id string) *xmlquery.Node {
	for _, d := range children(item, "responseDeclaration") {
		if attr(d, "identifier") == id {
			return d
		}
	}
	return nil
}

// correctResponse is nil with no values, a scalar for one, a list otherwise.
func correctResponse(decl *xmlquery.Node) *qti.Value {
	if decl == nil {
		return nil
	}
	cr := child(decl, "correctResponse")
	if cr == nil {
		return nil
	}
	var vals []string
	for _, v := range children(cr, "value") {
		vals = append(vals, strings.TrimSpace(v.InnerText()))
	}
	switch len(vals) {
	case 0:
		return nil
	case 1:
		v := qti.Single(vals[0])
		return &v
	default:
		v := qti.Multiple(vals...)
		return &v
	}
}

func readMapping(it *qti.Item, decl *xmlquery.Node) error {
	if decl == nil {
		return nil
	}
	m := child(decl, "mapping")
	if m == nil {
		return nil
	}
	if dv := strings.TrimSpace(attr(m, "defaultValue")); dv != "" {
		f, err := strconv.ParseFloat(dv, 64)
		if err != nil {
			return fmt.Errorf("mapping defaultValue %q is not a number", dv)
		}
		it.MappingDefault = f
	}
	it.Mapping = map[string]float64{}
	for _, e := range children(m, "mapEntry") {
		key := attr(e, "mapKey")
		raw := strings.TrimSpace(attr(e, "mappedValue"))
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("mapEntry %q mappedValue %q is not a number", key, raw)
		}
		it.Mapping[key] = f
	}
	return nil
}

// maxScore prefers a positive SCORE default, then a positive maxScore
// attribute on the SCORE declaration or the item, then a MAXSCORE outcome.
func maxScore(item *xmlquery.Node) float64 {
	positive := func(raw string) (float64, bool) {
		f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		return f, err == nil && f > 0
	}
	var score, maxOutcome *xmlquery.Node
	for _, o := range children(item, "outcomeDeclaration") {
		switch attr(o, "identifier") {
		case "SCORE":
			score = o
		case "MAXSCORE":
			maxOutcome = o
		}
	}
	if score != nil {
		if v := defaultValue(score); v != "" {
			if f, ok := positive(v); ok {
				return f
			}
		}
		if f, ok := positive(attr(score, "maxScore")); ok {
			return f
		}
	}
	if f, ok := positive(attr(item, "maxScore")); ok {
		return f
	}
	if maxOutcome != nil {
		if f, ok := positive(defaultValue(maxOutcome)); ok {
			return f
		}
	}
	return qti.DefaultMaxScore
}

func defaultValue(decl *xmlquery.Node) string {
	dv := child(decl, "defaultValue")
	if dv == nil {
		return ""
	}
	if v := child(dv, "value"); v != nil {
		return strings.TrimSpace(v.InnerText())
	}
	return ""
}

func responseProcessing(item *xmlquery.Node) *qti.ResponseProcessing {
	rp := child(item, "responseProcessing")
	if rp == nil {
		return nil
	}
	tmpl := strings.TrimSpace(attr(rp, "template"))
	if tmpl == "" {
		tmpl = strings.TrimSpace(attr(rp, "templateLocation"))
	}
	if tmpl != "" {
		return &qti.ResponseProcessing{Template: tmpl}
	}
	for c := rp.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode {
			return &qti.ResponseProcessing{Custom: true}
		}
	}
	return nil
}
