package edit

import "github.com/beevik/etree"

// ReorderItems moves the item at from so that it lands at to. The item is
// detached first and then inserted before whatever occupies to in the
// remaining list (appended when to is past its end), so for [A B C]:
// (0,1) gives [B A C] and (2,0) gives [C A B]. Out-of-range indices return xml
// byte-for-byte; a successful move is returned formatted. Loose items (no
// container) are moved as text and keep their original layout.
func ReorderItems(xml string, from, to int) string {
	if locs := looseItems(xml); locs != nil {
		return moveItemBlocks(xml, locs, from, to)
	}
	doc, err := readDoc(xml)
	if err != nil {
		log().Warn("reorder items: parse failed", "err", err)
		return xml
	}
	items := itemElements(doc)
	n := len(items)
	if from < 0 || from >= n || to < 0 || to >= n {
		return xml
	}

	node := items[from]
	parent := node.Parent()
	parent.RemoveChild(node)

	rest := make([]*etree.Element, 0, n-1)
	rest = append(rest, items[:from]...)
	rest = append(rest, items[from+1:]...)

	switch {
	case len(rest) == 0:
		parent.AddChild(node)
	case to >= len(rest):
		last := rest[len(rest)-1]
		last.Parent().InsertChildAt(last.Index()+1, node)
	default:
		ref := rest[to]
		ref.Parent().InsertChildAt(ref.Index(), node)
	}

	out, err := writeDoc(doc)
	if err != nil {
		log().Warn("reorder items: serialize failed", "err", err)
		return xml
	}
	return Format(out)
}

func moveItemBlocks(xml string, locs [][]int, from, to int) string {
	blocks := itemBlocks(xml, locs)
	n := len(blocks)
	if from < 0 || from >= n || to < 0 || to >= n {
		return xml
	}
	node := blocks[from]
	rest := append(append(make([]string, 0, n), blocks[:from]...), blocks[from+1:]...)
	rest = append(rest[:to], append([]string{node}, rest[to:]...)...)
	return joinItemBlocks(xml, locs, rest)
}
