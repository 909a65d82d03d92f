package edit

import "github.com/beevik/etree"

// SplitItems returns every item of xml as a standalone, formatted document.
// Items nested in a test inherit the test root's namespace declarations.
func SplitItems(xml string) []string {
	doc, err := readDoc(xml)
	if err != nil {
		log().Warn("qti split: unreadable document", "err", err)
		return nil
	}
	root := doc.Root()
	var out []string
	for _, it := range itemElements(doc) {
		cp := it.Copy()
		if it != root {
			for _, key := range namespaceAttrs {
				a := root.SelectAttr(key)
				if a == nil || cp.SelectAttr(key) != nil {
					continue
				}
				cp.CreateAttr(key, a.Value)
			}
			moveNamespacesFirst(cp)
		}
		single := etree.NewDocument()
		single.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
		single.SetRoot(cp)
		s, err := writeDoc(single)
		if err != nil {
			log().Warn("qti split: write failed", "err", err)
			return nil
		}
		out = append(out, Format(s))
	}
	return out
}

func moveNamespacesFirst(e *etree.Element) {
	var ns, rest []etree.Attr
	for _, a := range e.Attr {
		if a.Key == "xmlns" || a.Space == "xmlns" || (a.Space == "xsi" && a.Key == "schemaLocation") {
			ns = append(ns, a)
			continue
		}
		rest = append(rest, a)
	}
	e.Attr = append(ns, rest...)
}
