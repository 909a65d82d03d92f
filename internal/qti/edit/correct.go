package edit

import (
	"github.com/beevik/etree"

	"github.com/mind-engage/mindengage-qti/internal/qti"
)

// UpdateCorrectResponse rewrites the correct response of the item identified
// by itemID. Existing <value> children are replaced, never appended to, and
// the declaration's cardinality follows the shape of v. An unknown itemID or
// unparsable xml returns xml unchanged.
func UpdateCorrectResponse(xml, itemID string, v qti.Value) string {
	if locs := looseItems(xml); locs != nil {
		for _, l := range locs {
			block := xml[l[0]:l[1]]
			if m := blockIDRe.FindStringSubmatch(block); m != nil && m[1] == itemID {
				return xml[:l[0]] + UpdateCorrectResponse(block, itemID, v) + xml[l[1]:]
			}
		}
		log().Debug("update correct response: item not found", "item", itemID)
		return xml
	}
	doc, err := readDoc(xml)
	if err != nil {
		log().Warn("update correct response: parse failed", "err", err)
		return xml
	}
	var item *etree.Element
	for _, it := range itemElements(doc) {
		if it.SelectAttrValue("identifier", "") == itemID {
			item = it
			break
		}
	}
	if item == nil {
		log().Debug("update correct response: item not found", "item", itemID)
		return xml
	}

	d := qti.DialectOf(item.Tag)
	decl := firstChild(item, "responseDeclaration")
	if decl == nil {
		decl = etree.NewElement(d.Element("responseDeclaration"))
		decl.CreateAttr("identifier", qti.DefaultResponseIdentifier)
		decl.CreateAttr("cardinality", "single")
		decl.CreateAttr(d.Attr("baseType"), "identifier")
		at := 0
		if outcomes := children(item, "outcomeDeclaration"); len(outcomes) > 0 {
			at = outcomes[len(outcomes)-1].Index() + 1
		}
		item.InsertChildAt(at, decl)
	}

	cardinality := "single"
	if v.IsMultiple() {
		cardinality = "multiple"
	}
	decl.CreateAttr("cardinality", cardinality)

	cr := firstChild(decl, "correctResponse")
	if cr == nil {
		cr = decl.CreateElement(d.Element("correctResponse"))
	}
	for i := len(cr.Child) - 1; i >= 0; i-- {
		cr.RemoveChildAt(i)
	}
	for _, s := range v.Strings() {
		cr.CreateElement(d.Element("value")).SetText(s)
	}

	out, err := writeDoc(doc)
	if err != nil {
		log().Warn("update correct response: serialize failed", "err", err)
		return xml
	}
	return out
}
