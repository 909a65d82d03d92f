package convert

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/tidwall/sjson"

	"github.com/mind-engage/mindengage-qti/internal/qti"
)

// XMLToJSON converts a QTI XML document (camelCase or qti- kebab-case
// spelling) to its JSON representation. Namespace declarations are dropped;
// JSONToXML re-adds them.
func XMLToJSON(s string) (string, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromString(s); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidXML, err)
	}
	root := doc.Root()
	if root == nil {
		return "", ErrInvalidXML
	}
	if !isRoot(qti.CanonicalName(root.Tag)) {
		return "", fmt.Errorf("%w: <%s>", ErrUnknownRoot, root.FullTag())
	}
	raw, err := elementJSON(root)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, []byte(raw), "", "  "); err != nil {
		return "", err
	}
	return buf.String(), nil
}

type objBuilder struct {
	js  string
	err error
}

func newObj(typ string) *objBuilder {
	q, _ := json.Marshal(typ)
	return &objBuilder{js: `{"` + typeKey + `":` + string(q) + `}`}
}

func (b *objBuilder) set(key string, v any) {
	if b.err != nil {
		return
	}
	b.js, b.err = sjson.Set(b.js, escapeKey(key), v)
}

func (b *objBuilder) setRaw(key, raw string) {
	if b.err != nil {
		return
	}
	b.js, b.err = sjson.SetRaw(b.js, escapeKey(key), raw)
}

func attrKey(a etree.Attr) string {
	if a.Space != "" {
		return a.Space + ":" + a.Key
	}
	return qti.CanonicalName(a.Key)
}

func isNamespaceAttr(a etree.Attr) bool {
	return a.Space == "xmlns" || (a.Space == "" && a.Key == "xmlns") || (a.Space == "xsi" && a.Key == "schemaLocation")
}

func (b *objBuilder) attrs(e *etree.Element) {
	for _, a := range e.Attr {
		if isNamespaceAttr(a) {
			continue
		}
		b.set(attrKey(a), a.Value)
	}
}

func elementJSON(e *etree.Element) (string, error) {
	canon := qti.CanonicalName(e.Tag)
	switch canon {
	case "choiceInteraction", "orderInteraction":
		return choiceLikeJSON(e, canon)
	case "hottextInteraction", "textEntryInteraction", "extendedTextInteraction", "sliderInteraction":
		return promptedJSON(e, canon)
	case "responseDeclaration":
		return responseDeclarationJSON(e)
	case "outcomeDeclaration":
		return outcomeDeclarationJSON(e)
	default:
		b := newObj(toJSONType(canon))
		b.attrs(e)
		if err := b.content(e, nil); err != nil {
			return "", err
		}
		return b.js, b.err
	}
}

// content collects child elements and non-blank text into "content", skipping
// children whose canonical name is in skip.
func (b *objBuilder) content(e *etree.Element, skip map[string]bool) error {
	var parts []string
	for _, tok := range e.Child {
		switch t := tok.(type) {
		case *etree.Element:
			if skip[qti.CanonicalName(t.Tag)] {
				continue
			}
			raw, err := elementJSON(t)
			if err != nil {
				return err
			}
			parts = append(parts, raw)
		case *etree.CharData:
			if t.IsWhitespace() {
				continue
			}
			q, _ := json.Marshal(t.Data)
			parts = append(parts, string(q))
		}
	}
	if len(parts) > 0 {
		b.setRaw(contentKey, "["+strings.Join(parts, ",")+"]")
	}
	return b.err
}

func (b *objBuilder) prompt(e *etree.Element) {
	for _, c := range e.ChildElements() {
		if qti.CanonicalName(c.Tag) == "prompt" {
			b.set("prompt", strings.TrimSpace(textOf(c)))
			return
		}
	}
}

func promptedJSON(e *etree.Element, canon string) (string, error) {
	b := newObj(canon)
	b.attrs(e)
	b.prompt(e)
	if err := b.content(e, map[string]bool{"prompt": true}); err != nil {
		return "", err
	}
	return b.js, b.err
}

func choiceLikeJSON(e *etree.Element, canon string) (string, error) {
	b := newObj(canon)
	b.attrs(e)
	b.prompt(e)
	var choices []string
	for _, c := range e.ChildElements() {
		if qti.CanonicalName(c.Tag) != "simpleChoice" {
			continue
		}
		cb := &objBuilder{js: "{}"}
		cb.attrs(c)
		cb.set("text", strings.TrimSpace(textOf(c)))
		if cb.err != nil {
			return "", cb.err
		}
		choices = append(choices, cb.js)
	}
	if len(choices) > 0 {
		b.setRaw("choices", "["+strings.Join(choices, ",")+"]")
	}
	if err := b.content(e, map[string]bool{"prompt": true, "simpleChoice": true}); err != nil {
		return "", err
	}
	return b.js, b.err
}

func responseDeclarationJSON(e *etree.Element) (string, error) {
	b := newObj("responseDeclaration")
	b.attrs(e)
	for _, c := range e.ChildElements() {
		switch qti.CanonicalName(c.Tag) {
		case "correctResponse":
			values := []string{}
			for _, v := range c.ChildElements() {
				if qti.CanonicalName(v.Tag) == "value" {
					values = append(values, strings.TrimSpace(v.Text()))
				}
			}
			b.set("correctResponse", values)
		case "mapping":
			mb := &objBuilder{js: "{}"}
			for _, a := range c.Attr {
				mb.set(attrKey(a), numberOrString(a.Value))
			}
			entries := &objBuilder{js: "{}"}
			for _, me := range c.ChildElements() {
				if qti.CanonicalName(me.Tag) != "mapEntry" {
					continue
				}
				key := me.SelectAttrValue("mapKey", me.SelectAttrValue("map-key", ""))
				val := me.SelectAttrValue("mappedValue", me.SelectAttrValue("mapped-value", "0"))
				entries.set(key, numberOrString(val))
			}
			if entries.err != nil {
				return "", entries.err
			}
			mb.setRaw("entries", entries.js)
			if mb.err != nil {
				return "", mb.err
			}
			b.setRaw("mapping", mb.js)
		}
	}
	if err := b.content(e, map[string]bool{"correctResponse": true, "mapping": true}); err != nil {
		return "", err
	}
	return b.js, b.err
}

func outcomeDeclarationJSON(e *etree.Element) (string, error) {
	b := newObj("outcomeDeclaration")
	b.attrs(e)
	if dv := firstChildNamed(e, "defaultValue"); dv != nil {
		if v := firstChildNamed(dv, "value"); v != nil {
			b.set("defaultValue", strings.TrimSpace(v.Text()))
		}
	}
	if err := b.content(e, map[string]bool{"defaultValue": true}); err != nil {
		return "", err
	}
	return b.js, b.err
}

func firstChildNamed(e *etree.Element, canonical string) *etree.Element {
	for _, c := range e.ChildElements() {
		if qti.CanonicalName(c.Tag) == canonical {
			return c
		}
	}
	return nil
}

// textOf concatenates all character data below e.
func textOf(e *etree.Element) string {
	var b strings.Builder
	for _, tok := range e.Child {
		switch t := tok.(type) {
		case *etree.CharData:
			b.WriteString(t.Data)
		case *etree.Element:
			b.WriteString(textOf(t))
		}
	}
	return b.String()
}

func numberOrString(s string) any {
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}
