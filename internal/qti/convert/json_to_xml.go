package convert

import (
	"encoding/json"
	"fmt"

	"github.com/beevik/etree"
	"github.com/tidwall/gjson"

	"github.com/mind-engage/mindengage-qti/internal/qti/edit"
)

type field struct {
	key string
	val gjson.Result
}

// node is a JSON object split into its discriminator and remaining fields,
// fields kept in document order.
type node struct {
	typ    string
	fields []field
}

func readNode(r gjson.Result) node {
	var n node
	r.ForEach(func(k, v gjson.Result) bool {
		if k.String() == typeKey {
			n.typ = v.String()
			return true
		}
		n.fields = append(n.fields, field{key: k.String(), val: v})
		return true
	})
	return n
}

func (n node) get(key string) (gjson.Result, bool) {
	for _, f := range n.fields {
		if f.key == key {
			return f.val, true
		}
	}
	return gjson.Result{}, false
}

// JSONToXML converts a QTI 3.0 JSON document to XML. The root must be an
// assessmentItem or assessmentTest; it always receives the QTI 3.0 namespace.
func JSONToXML(s string) (string, error) {
	if err := validateJSON(s); err != nil {
		return "", err
	}
	root := readNode(gjson.Parse(s))
	if !isRoot(root.typ) {
		return "", fmt.Errorf("%w: %q", ErrUnknownRoot, root.typ)
	}

	el := elementFromNode(root)
	ns, loc := rootNamespace()
	el.RemoveAttr("xmlns")
	el.RemoveAttr("xmlns:xsi")
	el.RemoveAttr("xsi:schemaLocation")
	attrs := append([]etree.Attr(nil), el.Attr...)
	el.Attr = nil
	el.CreateAttr("xmlns", ns)
	el.CreateAttr("xmlns:xsi", "http://www.w3.org/2001/XMLSchema-instance")
	el.CreateAttr("xsi:schemaLocation", loc)
	for _, a := range attrs {
		el.CreateAttr(a.FullKey(), a.Value)
	}

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	doc.SetRoot(el)
	out, err := doc.WriteToString()
	if err != nil {
		return "", err
	}
	return edit.Format(out), nil
}

func validateJSON(s string) error {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	return checkShape(s)
}

func elementFromNode(n node) *etree.Element {
	switch n.typ {
	case "choiceInteraction", "orderInteraction":
		return choiceLikeElement(n)
	case "hottextInteraction", "textEntryInteraction", "extendedTextInteraction", "sliderInteraction":
		return promptedElement(n)
	case "responseDeclaration":
		return responseDeclarationElement(n)
	case "outcomeDeclaration":
		return outcomeDeclarationElement(n)
	default:
		return genericElement(n, nil)
	}
}

// genericElement maps scalar fields to attributes and "content" to children.
// Keys listed in skip are handled by the caller.
func genericElement(n node, skip map[string]bool) *etree.Element {
	el := etree.NewElement(toXMLTag(n.typ))
	for _, f := range n.fields {
		if skip[f.key] {
			continue
		}
		switch {
		case f.key == contentKey && f.val.IsArray():
			appendContent(el, f.val)
		case f.val.IsObject():
			if child := readNode(f.val); child.typ != "" {
				el.AddChild(elementFromNode(child))
			}
		case f.val.IsArray():
			f.val.ForEach(func(_, v gjson.Result) bool {
				if v.IsObject() {
					if child := readNode(v); child.typ != "" {
						el.AddChild(elementFromNode(child))
					}
				}
				return true
			})
		case f.val.Type == gjson.Null:
		default:
			el.CreateAttr(f.key, f.val.String())
		}
	}
	return el
}

func appendContent(el *etree.Element, content gjson.Result) {
	content.ForEach(func(_, v gjson.Result) bool {
		switch {
		case v.IsObject():
			if child := readNode(v); child.typ != "" {
				el.AddChild(elementFromNode(child))
			}
		case v.Type == gjson.String:
			el.CreateText(v.String())
		}
		return true
	})
}

func addPrompt(el *etree.Element, n node) {
	p, ok := n.get("prompt")
	if !ok {
		return
	}
	prompt := etree.NewElement("prompt")
	if p.IsObject() || p.IsArray() {
		if p.IsObject() {
			p = p.Get(contentKey)
		}
		appendContent(prompt, p)
	} else {
		prompt.SetText(p.String())
	}
	el.InsertChildAt(0, prompt)
}

func promptedElement(n node) *etree.Element {
	el := genericElement(n, map[string]bool{"prompt": true})
	addPrompt(el, n)
	return el
}

func choiceLikeElement(n node) *etree.Element {
	el := genericElement(n, map[string]bool{"prompt": true, "choices": true})
	if choices, ok := n.get("choices"); ok {
		choices.ForEach(func(_, c gjson.Result) bool {
			sc := el.CreateElement("simpleChoice")
			c.ForEach(func(k, v gjson.Result) bool {
				switch k.String() {
				case "text":
					sc.SetText(v.String())
				case typeKey:
				case contentKey:
					appendContent(sc, v)
				default:
					sc.CreateAttr(k.String(), v.String())
				}
				return true
			})
			return true
		})
	}
	addPrompt(el, n)
	return el
}

func responseDeclarationElement(n node) *etree.Element {
	el := genericElement(n, map[string]bool{"correctResponse": true, "mapping": true})
	if cr, ok := n.get("correctResponse"); ok {
		crEl := el.CreateElement("correctResponse")
		if cr.IsArray() {
			cr.ForEach(func(_, v gjson.Result) bool {
				crEl.CreateElement("value").SetText(v.String())
				return true
			})
		} else {
			crEl.CreateElement("value").SetText(cr.String())
		}
	}
	if m, ok := n.get("mapping"); ok && m.IsObject() {
		mEl := el.CreateElement("mapping")
		m.ForEach(func(k, v gjson.Result) bool {
			if k.String() == "entries" {
				v.ForEach(func(key, val gjson.Result) bool {
					e := mEl.CreateElement("mapEntry")
					e.CreateAttr("mapKey", key.String())
					e.CreateAttr("mappedValue", val.String())
					return true
				})
				return true
			}
			mEl.CreateAttr(k.String(), v.String())
			return true
		})
	}
	return el
}

func outcomeDeclarationElement(n node) *etree.Element {
	el := genericElement(n, map[string]bool{"defaultValue": true})
	if dv, ok := n.get("defaultValue"); ok {
		el.CreateElement("defaultValue").CreateElement("value").SetText(dv.String())
	}
	return el
}
