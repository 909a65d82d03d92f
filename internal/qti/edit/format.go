package edit

import (
	"strings"

	"github.com/beevik/etree"

	"github.com/mind-engage/mindengage-qti/internal/qti"
)

const indentUnit = "  "

// Inline content: an element holding any of these keeps its children on one
// line so no whitespace is introduced into learner-visible text.
var inlineElements = map[string]bool{
	"a": true, "abbr": true, "acronym": true, "b": true, "big": true,
	"br": true, "cite": true, "code": true, "dfn": true, "em": true,
	"i": true, "img": true, "kbd": true, "q": true, "samp": true,
	"small": true, "span": true, "strong": true, "sub": true, "sup": true,
	"tt": true, "u": true, "var": true, "math": true,
	"hottext": true, "gap": true, "printedVariable": true,
	"feedbackInline": true, "templateInline": true,
	"inlineChoiceInteraction": true, "textEntryInteraction": true,
	"endAttemptInteraction": true,
}

// Format pretty-prints xml two spaces per open element. Whitespace-only text
// between structural children is dropped and each child goes on its own line.
// Elements with mixed content, CDATA or inline markup are written exactly as
// read. Format(Format(x)) == Format(x).
func Format(xml string) string {
	doc, err := readDoc(xml)
	if err != nil {
		log().Warn("format xml: parse failed", "err", err)
		return xml
	}

	top := dropWhitespace(&doc.Element)
	for i, t := range top {
		if i > 0 {
			doc.AddChild(etree.NewText("\n"))
		}
		doc.AddChild(t)
		if e, ok := t.(*etree.Element); ok {
			layout(e, 0)
		}
	}

	out, err := writeDoc(doc)
	if err != nil {
		log().Warn("format xml: serialize failed", "err", err)
		return xml
	}
	return out
}

// layout re-indents the children of e, which sits depth levels deep.
func layout(e *etree.Element, depth int) {
	if keepsText(e) {
		return
	}
	kids := dropWhitespace(e)
	if len(kids) == 0 {
		return
	}
	pad := "\n" + strings.Repeat(indentUnit, depth+1)
	for _, t := range kids {
		e.AddChild(etree.NewText(pad))
		e.AddChild(t)
		if c, ok := t.(*etree.Element); ok {
			layout(c, depth+1)
		}
	}
	e.AddChild(etree.NewText("\n" + strings.Repeat(indentUnit, depth)))
}

// keepsText reports whether e carries text that a line break would change.
func keepsText(e *etree.Element) bool {
	for _, t := range e.Child {
		switch c := t.(type) {
		case *etree.CharData:
			if c.IsCData() || !c.IsWhitespace() {
				return true
			}
		case *etree.Element:
			if inlineElements[qti.CanonicalName(c.Tag)] {
				return true
			}
		}
	}
	return false
}

// dropWhitespace detaches every child of e and returns the ones that are not
// whitespace-only text.
func dropWhitespace(e *etree.Element) []etree.Token {
	kept := make([]etree.Token, 0, len(e.Child))
	for len(e.Child) > 0 {
		t := e.RemoveChildAt(0)
		if c, ok := t.(*etree.CharData); ok && !c.IsCData() && c.IsWhitespace() {
			continue
		}
		kept = append(kept, t)
	}
	return kept
}
