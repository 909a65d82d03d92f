package edit

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/beevik/etree"

	"github.com/mind-engage/mindengage-qti/internal/qti"
)

// AppendIndex makes InsertItem place the new item after the last one.
const AppendIndex = math.MaxInt

// Namespace attributes that move between items and their wrapper.
var namespaceAttrs = []string{"xmlns", "xmlns:xsi", "xsi:schemaLocation"}

var (
	itemOpenTagRe = regexp.MustCompile(`^<(?:qti-assessment-item|assessmentItem)\b[^>]*>`)
	nsAttrRe      = regexp.MustCompile(`\s(xmlns|xmlns:xsi|xsi:schemaLocation)="([^"]*)"`)
)

// InsertItem adds newItemXML to xml after the item at insertAfter (0-based).
// -1 (or anything lower) prepends; AppendIndex or any index past the end
// appends. A document holding a single standalone item is wrapped in a
// synthesized assessmentTest once a second item arrives.
func InsertItem(xml, newItemXML string, insertAfter int) string {
	newItem := strings.TrimSpace(declRe.ReplaceAllString(newItemXML, ""))
	if newItem == "" {
		return xml
	}
	if insertAfter < -1 {
		insertAfter = -1
	}
	if strings.TrimSpace(xml) == "" {
		return xmlDeclaration + "\n" + newItem
	}
	if locs := looseItems(xml); locs != nil {
		return spliceItemBlocks(xml, locs, newItem, insertAfter)
	}

	doc, err := readDoc(xml)
	if err != nil {
		log().Warn("insert item: parse document failed", "err", err)
		return xml
	}
	nd, err := readDoc(newItem)
	if err != nil {
		log().Warn("insert item: parse new item failed", "err", err)
		return xml
	}
	el := nd.Root()
	nd.RemoveChild(el)

	root := doc.Root()
	if is(root, "assessmentItem") {
		wrapInTest(doc, root, el, insertAfter)
	} else {
		insertIntoContainer(root, el, insertAfter)
	}

	out, err := writeDoc(doc)
	if err != nil {
		log().Warn("insert item: serialize failed", "err", err)
		return xml
	}
	return Format(out)
}

func insertIntoContainer(root, el *etree.Element, insertAfter int) {
	dropNamespaces(el)
	items := descendants(root, "assessmentItem")
	if len(items) == 0 {
		target := root
		if sections := descendants(root, "assessmentSection"); len(sections) > 0 {
			target = sections[len(sections)-1]
		}
		target.AddChild(el)
		return
	}
	var ref *etree.Element
	var at int
	switch {
	case insertAfter == -1:
		ref = items[0]
		at = ref.Index()
	case insertAfter >= len(items)-1:
		ref = items[len(items)-1]
		at = ref.Index() + 1
	default:
		ref = items[insertAfter]
		at = ref.Index() + 1
	}
	ref.Parent().InsertChildAt(at, el)
}

// wrapInTest replaces the standalone root item with an assessmentTest holding
// both items. The wrapper takes over the namespace declarations.
func wrapInTest(doc *etree.Document, item, el *etree.Element, insertAfter int) {
	d := qti.DialectOf(item.Tag)
	wrapper := etree.NewElement(d.Element("assessmentTest"))
	for _, k := range namespaceAttrs {
		if a := item.SelectAttr(k); a != nil {
			wrapper.CreateAttr(k, a.Value)
		}
	}
	wrapper.CreateAttr("identifier", fmt.Sprintf("test-%d", time.Now().UnixMilli()))
	wrapper.CreateAttr("title", "Assessment Test")

	at := item.Index()
	doc.RemoveChildAt(at)
	doc.InsertChildAt(at, wrapper)

	dropNamespaces(item)
	dropNamespaces(el)
	if insertAfter == -1 {
		wrapper.AddChild(el)
		wrapper.AddChild(item)
		return
	}
	wrapper.AddChild(item)
	wrapper.AddChild(el)
}

func dropNamespaces(e *etree.Element) {
	for _, k := range namespaceAttrs {
		e.RemoveAttr(k)
	}
}

// spliceItemBlocks handles documents with several top-level items and no
// container. There is nothing to anchor a DOM insert on, so the item blocks
// are cut out and re-joined as text.
func spliceItemBlocks(xml string, locs [][]int, newItem string, insertAfter int) string {
	blocks := itemBlocks(xml, locs)
	newItem = propagateNamespaces(newItem, blocks[0])

	pos := len(blocks)
	if insertAfter < len(blocks)-1 {
		pos = insertAfter + 1
	}
	blocks = append(blocks[:pos], append([]string{newItem}, blocks[pos:]...)...)
	return joinItemBlocks(xml, locs, blocks)
}

// propagateNamespaces copies xmlns / xmlns:xsi / xsi:schemaLocation from the
// opening tag of existing onto newItem when newItem lacks them.
func propagateNamespaces(newItem, existing string) string {
	open := itemOpenTagRe.FindString(existing)
	newOpen := itemOpenTagRe.FindString(newItem)
	if open == "" || newOpen == "" {
		return newItem
	}
	var add strings.Builder
	for _, m := range nsAttrRe.FindAllStringSubmatch(open, -1) {
		if strings.Contains(newOpen, " "+m[1]+"=") {
			continue
		}
		fmt.Fprintf(&add, ` %s="%s"`, m[1], m[2])
	}
	if add.Len() == 0 {
		return newItem
	}
	nameEnd := strings.IndexAny(newOpen[1:], " \t\r\n/>") + 1
	return newOpen[:nameEnd] + add.String() + newOpen[nameEnd:] + newItem[len(newOpen):]
}
