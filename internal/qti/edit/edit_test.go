package edit

import (
	"regexp"
	"strings"
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/mindengage-qti/internal/qti"
)

const threeItemTest = `<?xml version="1.0" encoding="UTF-8"?>
<assessmentTest xmlns="http://www.imsglobal.org/xsd/imsqti_v2p1" identifier="T1" title="Quiz">
  <testPart identifier="P1" navigationMode="linear" submissionMode="individual">
    <assessmentSection identifier="S1" title="Section" visible="true">
      <!-- keep me -->
      <assessmentItem identifier="A" title="A"><itemBody><p>A?</p></itemBody></assessmentItem>
      <assessmentItem identifier="B" title="B"><itemBody><p>B?</p></itemBody></assessmentItem>
      <assessmentItem identifier="C" title="C"><itemBody><p>C?</p></itemBody></assessmentItem>
    </assessmentSection>
  </testPart>
</assessmentTest>`

const singleItem = `<?xml version="1.0" encoding="UTF-8"?>
<assessmentItem xmlns="http://www.imsglobal.org/xsd/imsqti_v2p1" xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance" xsi:schemaLocation="http://www.imsglobal.org/xsd/imsqti_v2p1 http://www.imsglobal.org/xsd/qti/qtiv2p1/imsqti_v2p1.xsd" identifier="Q1" title="Capital">
  <outcomeDeclaration identifier="SCORE" cardinality="single" baseType="float"/>
  <itemBody>
    <choiceInteraction responseIdentifier="RESPONSE" maxChoices="1">
      <simpleChoice identifier="A">Paris</simpleChoice>
      <simpleChoice identifier="B">Rome</simpleChoice>
    </choiceInteraction>
  </itemBody>
</assessmentItem>`

func newItem(id string) string {
	return `<?xml version="1.0"?><assessmentItem identifier="` + id + `" title="` + id + `"><itemBody><p>` + id + `?</p></itemBody></assessmentItem>`
}

var itemIDRe = regexp.MustCompile(`<(?:qti-assessment-item|assessmentItem)\b[^>]*?\sidentifier="([^"]+)"`)

func itemIDs(xml string) []string {
	var out []string
	for _, m := range itemIDRe.FindAllStringSubmatch(xml, -1) {
		out = append(out, m[1])
	}
	return out
}

func mustDoc(t *testing.T, xml string) *etree.Document {
	t.Helper()
	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromString(xml))
	return doc
}

func TestReorderItems(t *testing.T) {
	tests := []struct {
		name     string
		from, to int
		want     []string
	}{
		{"first to second", 0, 1, []string{"B", "A", "C"}},
		{"last to first", 2, 0, []string{"C", "A", "B"}},
		{"same position", 1, 1, []string{"A", "B", "C"}},
		{"first to last", 0, 2, []string{"B", "C", "A"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := ReorderItems(threeItemTest, tt.from, tt.to)
			assert.Equal(t, tt.want, itemIDs(out))
			assert.Contains(t, out, "<!-- keep me -->")
		})
	}
}

func TestReorderItems_OutOfRangeIsIdentity(t *testing.T) {
	for _, idx := range [][2]int{{-1, 0}, {0, -1}, {3, 0}, {0, 3}, {7, 9}} {
		assert.Equal(t, threeItemTest, ReorderItems(threeItemTest, idx[0], idx[1]))
	}
}

func TestReorderItems_MalformedIsIdentity(t *testing.T) {
	bad := `<assessmentTest><assessmentItem identifier="A"></assessmentTest>`
	assert.Equal(t, bad, ReorderItems(bad, 0, 0))
}

func TestFormat(t *testing.T) {
	got := Format(`<?xml version="1.0"?><a>  <b>x</b>
	<c/></a>`)
	assert.Equal(t, "<?xml version=\"1.0\"?>\n<a>\n  <b>x</b>\n  <c/>\n</a>", got)
}

func TestFormat_Idempotent(t *testing.T) {
	for _, in := range []string{threeItemTest, singleItem, `<a><b><c>t</c></b><d attr="1"/></a>`} {
		once := Format(in)
		assert.Equal(t, once, Format(once))
	}
}

func TestFormat_MalformedIsIdentity(t *testing.T) {
	for _, in := range []string{"", "not xml", "<a><b></a>"} {
		assert.Equal(t, in, Format(in))
	}
}

func TestFormat_KeepsInlineText(t *testing.T) {
	in := `<assessmentItem identifier="Q"><itemBody><p>un<b>believable</b></p>` +
		`<choiceInteraction responseIdentifier="RESPONSE">` +
		`<prompt><![CDATA[<b>x</b><i>y</i>]]></prompt>` +
		`<simpleChoice identifier="A"><b>Pa</b><i>ris</i></simpleChoice>` +
		`</choiceInteraction></itemBody></assessmentItem>`
	out := Format(in)
	assert.Contains(t, out, "\n    <p>un<b>believable</b></p>\n")
	assert.Contains(t, out, "<prompt><![CDATA[<b>x</b><i>y</i>]]></prompt>")
	assert.Contains(t, out, `<simpleChoice identifier="A"><b>Pa</b><i>ris</i></simpleChoice>`)
	assert.Equal(t, out, Format(out))
}

func TestFormat_Nesting(t *testing.T) {
	got := Format(`<r><!-- a><b --><s><p><c/></p></s></r>`)
	assert.Equal(t, "<r>\n  <!-- a><b -->\n  <s>\n    <p>\n      <c/>\n    </p>\n  </s>\n</r>", got)
}

func TestUpdateCorrectResponse_Multiple(t *testing.T) {
	out := UpdateCorrectResponse(singleItem, "Q1", qti.Multiple("x", "y"))
	doc := mustDoc(t, out)
	decl := doc.FindElement("//responseDeclaration")
	require.NotNil(t, decl)
	assert.Equal(t, "multiple", decl.SelectAttrValue("cardinality", ""))
	values := decl.FindElements("correctResponse/value")
	require.Len(t, values, 2)
	assert.Equal(t, "x", values[0].Text())
	assert.Equal(t, "y", values[1].Text())
}

func TestUpdateCorrectResponse_CreatesDeclarationAfterOutcome(t *testing.T) {
	out := UpdateCorrectResponse(singleItem, "Q1", qti.Single("A"))
	doc := mustDoc(t, out)
	kids := doc.Root().ChildElements()
	require.GreaterOrEqual(t, len(kids), 3)
	assert.Equal(t, "outcomeDeclaration", kids[0].Tag)
	assert.Equal(t, "responseDeclaration", kids[1].Tag)
	assert.Equal(t, "RESPONSE", kids[1].SelectAttrValue("identifier", ""))
	assert.Equal(t, "identifier", kids[1].SelectAttrValue("baseType", ""))
}

func TestUpdateCorrectResponse_ReplacesNeverAppends(t *testing.T) {
	out := UpdateCorrectResponse(singleItem, "Q1", qti.Multiple("A", "B"))
	out = UpdateCorrectResponse(out, "Q1", qti.Single("B"))
	doc := mustDoc(t, out)
	decls := doc.FindElements("//responseDeclaration")
	require.Len(t, decls, 1)
	assert.Equal(t, "single", decls[0].SelectAttrValue("cardinality", ""))
	values := decls[0].FindElements("correctResponse/value")
	require.Len(t, values, 1)
	assert.Equal(t, "B", values[0].Text())
}

func TestUpdateCorrectResponse_EmptyList(t *testing.T) {
	out := UpdateCorrectResponse(singleItem, "Q1", qti.Multiple())
	doc := mustDoc(t, out)
	decl := doc.FindElement("//responseDeclaration")
	require.NotNil(t, decl)
	assert.Equal(t, "multiple", decl.SelectAttrValue("cardinality", ""))
	require.NotNil(t, decl.FindElement("correctResponse"))
	assert.Empty(t, decl.FindElements("correctResponse/value"))
}

func TestUpdateCorrectResponse_NoOps(t *testing.T) {
	assert.Equal(t, singleItem, UpdateCorrectResponse(singleItem, "missing", qti.Single("A")))
	bad := "<assessmentItem identifier=\"Q1\">"
	assert.Equal(t, bad, UpdateCorrectResponse(bad, "Q1", qti.Single("A")))
}

func TestUpdateCorrectResponse_KebabDialect(t *testing.T) {
	in := `<qti-assessment-item xmlns="http://www.imsglobal.org/xsd/imsqti_v3p0" identifier="K1"><qti-item-body/></qti-assessment-item>`
	out := UpdateCorrectResponse(in, "K1", qti.Single("C"))
	assert.Contains(t, out, `<qti-response-declaration identifier="RESPONSE" cardinality="single" base-type="identifier">`)
	assert.Contains(t, out, `<qti-correct-response><qti-value>C</qti-value></qti-correct-response>`)
}

func TestInsertItem_EmptyDocument(t *testing.T) {
	out := InsertItem("  ", newItem("N"), AppendIndex)
	assert.True(t, strings.HasPrefix(out, xmlDeclaration+"\n<assessmentItem"))
	assert.Equal(t, []string{"N"}, itemIDs(out))
}

func TestInsertItem_IntoTest(t *testing.T) {
	tests := []struct {
		name  string
		after int
		want  []string
	}{
		{"prepend", -1, []string{"N", "A", "B", "C"}},
		{"clamped below", -5, []string{"N", "A", "B", "C"}},
		{"middle", 0, []string{"A", "N", "B", "C"}},
		{"last index", 2, []string{"A", "B", "C", "N"}},
		{"past end", 10, []string{"A", "B", "C", "N"}},
		{"append", AppendIndex, []string{"A", "B", "C", "N"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := InsertItem(threeItemTest, newItem("N"), tt.after)
			assert.Equal(t, tt.want, itemIDs(out))
			assert.Equal(t, 4, ItemCount(out))
		})
	}
}

func TestInsertItem_WrapsSingleItem(t *testing.T) {
	out := InsertItem(singleItem, newItem("N"), AppendIndex)
	doc := mustDoc(t, out)
	root := doc.Root()
	assert.Equal(t, "assessmentTest", root.Tag)
	assert.Equal(t, "http://www.imsglobal.org/xsd/imsqti_v2p1", root.SelectAttrValue("xmlns", ""))
	assert.NotNil(t, root.SelectAttr("xsi:schemaLocation"))

	items := root.SelectElements("assessmentItem")
	require.Len(t, items, 2)
	assert.Equal(t, "Q1", items[0].SelectAttrValue("identifier", ""))
	assert.Equal(t, "N", items[1].SelectAttrValue("identifier", ""))
	for _, it := range items {
		assert.Nil(t, it.SelectAttr("xmlns"))
		assert.Nil(t, it.SelectAttr("xsi:schemaLocation"))
	}
}

func TestInsertItem_RepeatedPrependReversesOrder(t *testing.T) {
	xml := ""
	for _, id := range []string{"A", "B", "C"} {
		xml = InsertItem(xml, newItem(id), -1)
	}
	assert.Equal(t, []string{"C", "B", "A"}, itemIDs(xml))

	xml = ""
	for _, id := range []string{"A", "B", "C"} {
		xml = InsertItem(xml, newItem(id), AppendIndex)
	}
	assert.Equal(t, []string{"A", "B", "C"}, itemIDs(xml))
}

func TestInsertItem_SplicesLooseItems(t *testing.T) {
	loose := `<?xml version="1.0"?>
<assessmentItem xmlns="http://www.imsglobal.org/xsd/imsqti_v2p1" identifier="A"><itemBody/></assessmentItem>
<assessmentItem xmlns="http://www.imsglobal.org/xsd/imsqti_v2p1" identifier="B"><itemBody/></assessmentItem>`
	out := InsertItem(loose, newItem("N"), 0)
	assert.Equal(t, []string{"A", "N", "B"}, itemIDs(out))
	assert.Contains(t, out, `<assessmentItem xmlns="http://www.imsglobal.org/xsd/imsqti_v2p1" identifier="N"`)
	assert.Equal(t, 3, ItemCount(out))
}

func TestInsertItem_MalformedIsIdentity(t *testing.T) {
	bad := `<assessmentTest><testPart></assessmentTest>`
	assert.Equal(t, bad, InsertItem(bad, newItem("N"), 0))
}

const looseDoc = `<?xml version="1.0"?>
<assessmentItem xmlns="http://www.imsglobal.org/xsd/imsqti_v2p1" identifier="A"><itemBody/></assessmentItem>
<assessmentItem xmlns="http://www.imsglobal.org/xsd/imsqti_v2p1" identifier="B"><itemBody/></assessmentItem>
<assessmentItem xmlns="http://www.imsglobal.org/xsd/imsqti_v2p1" identifier="C"><itemBody/></assessmentItem>`

func TestReorderItems_LooseItems(t *testing.T) {
	out := ReorderItems(looseDoc, 0, 2)
	assert.Equal(t, []string{"B", "C", "A"}, itemIDs(out))
	assert.Equal(t, 3, ItemCount(out))
	assert.Equal(t, []string{"C", "A", "B"}, itemIDs(ReorderItems(looseDoc, 2, 0)))
	assert.Equal(t, looseDoc, ReorderItems(looseDoc, 0, 3))
}

func TestUpdateCorrectResponse_LooseItems(t *testing.T) {
	out := UpdateCorrectResponse(looseDoc, "B", qti.Single("C"))
	assert.Contains(t, out, `identifier="B"><responseDeclaration identifier="RESPONSE" cardinality="single" baseType="identifier">`+
		`<correctResponse><value>C</value></correctResponse></responseDeclaration><itemBody/></assessmentItem>`)
	assert.Contains(t, out, `<assessmentItem xmlns="http://www.imsglobal.org/xsd/imsqti_v2p1" identifier="A"><itemBody/></assessmentItem>`)
	assert.Equal(t, []string{"A", "B", "C"}, itemIDs(out))
	assert.Equal(t, looseDoc, UpdateCorrectResponse(looseDoc, "Z", qti.Single("C")))
}
