// Package export builds QTI markup from the item model and writes IMS
// content packages.
package export

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"sort"
	"strconv"

	"github.com/beevik/etree"

	"github.com/mind-engage/mindengage-qti/internal/qti"
	"github.com/mind-engage/mindengage-qti/internal/qti/edit"
)

const (
	blankItemID    = "item-1"
	blankItemTitle = "New Item"
	blankPrompt    = "Enter your question here"
)

// BlankItem is the starting document for a new single-choice item.
func BlankItem(v qti.Version) string {
	a := qti.Single("A")
	return BuildItem(qti.Item{
		ID:    blankItemID,
		Title: blankItemTitle,
		Type:  qti.InteractionChoice,
		Choices: []qti.Choice{
			{Identifier: "A", Text: "Choice A"},
			{Identifier: "B", Text: "Choice B"},
			{Identifier: "C", Text: "Choice C"},
			{Identifier: "D", Text: "Choice D"},
		},
		Prompt:          blankPrompt,
		CorrectResponse: &a,
		MaxScore:        qti.DefaultMaxScore,
	}, v)
}

func dialect(v qti.Version) qti.Dialect {
	if v == qti.V30 {
		return qti.DialectKebab
	}
	return qti.DialectCamel
}

func num(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

// BuildItem renders it as a standalone item document in v's spelling. The
// result parses back to an equivalent item.
func BuildItem(it qti.Item, v qti.Version) string {
	d := dialect(v)
	el := func(parent *etree.Element, camel string) *etree.Element {
		return parent.CreateElement(d.Element(camel))
	}
	set := func(e *etree.Element, camel, val string) { e.CreateAttr(d.Attr(camel), val) }

	rid := it.ResponseIdentifier
	if rid == "" {
		rid = qti.DefaultResponseIdentifier
	}
	id := it.ID
	if id == "" {
		id = qti.NewItemID()
	}
	title := it.Title
	if title == "" {
		title = qti.DefaultTitle
	}

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	root := doc.CreateElement(d.Element("assessmentItem"))
	ns, loc := v.Namespace()
	root.CreateAttr("xmlns", ns)
	root.CreateAttr("xmlns:xsi", qti.XSINamespace)
	root.CreateAttr("xsi:schemaLocation", loc)
	set(root, "identifier", id)
	set(root, "title", title)
	set(root, "adaptive", "false")
	set(root, "timeDependent", "false")

	rd := el(root, "responseDeclaration")
	set(rd, "identifier", rid)
	set(rd, "cardinality", cardinality(it.Type))
	set(rd, "baseType", baseType(it.Type))
	if it.CorrectResponse != nil {
		if vals := it.CorrectResponse.Strings(); len(vals) > 0 {
			cr := el(rd, "correctResponse")
			for _, s := range vals {
				el(cr, "value").SetText(s)
			}
		}
	}
	if len(it.Mapping) > 0 {
		m := el(rd, "mapping")
		set(m, "defaultValue", num(it.MappingDefault))
		keys := make([]string, 0, len(it.Mapping))
		for k := range it.Mapping {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			me := el(m, "mapEntry")
			set(me, "mapKey", k)
			set(me, "mappedValue", num(it.Mapping[k]))
		}
	}

	od := el(root, "outcomeDeclaration")
	set(od, "identifier", "SCORE")
	set(od, "cardinality", "single")
	set(od, "baseType", "float")
	el(el(od, "defaultValue"), "value").SetText("0")
	if it.MaxScore > 0 {
		mx := el(root, "outcomeDeclaration")
		set(mx, "identifier", "MAXSCORE")
		set(mx, "cardinality", "single")
		set(mx, "baseType", "float")
		el(el(mx, "defaultValue"), "value").SetText(num(it.MaxScore))
	}

	body := el(root, "itemBody")
	if it.Prompt != "" {
		body.CreateElement("p").SetText(it.Prompt)
	}
	buildInteraction(body, it, rid, d)

	rp := el(root, "responseProcessing")
	switch {
	case it.ResponseProcessing != nil && it.ResponseProcessing.Template != "":
		set(rp, "template", it.ResponseProcessing.Template)
	case len(it.Mapping) > 0:
		set(rp, "template", v.TemplateURI(qti.TemplateMapResponse))
	default:
		set(rp, "template", v.TemplateURI(qti.TemplateMatchCorrect))
	}

	s, err := doc.WriteToString()
	if err != nil {
		return ""
	}
	return edit.Format(s)
}

func buildInteraction(body *etree.Element, it qti.Item, rid string, d qti.Dialect) {
	el := func(parent *etree.Element, camel string) *etree.Element {
		return parent.CreateElement(d.Element(camel))
	}
	set := func(e *etree.Element, camel, val string) { e.CreateAttr(d.Attr(camel), val) }
	simpleChoices := func(parent *etree.Element, cs []qti.Choice) {
		for _, c := range cs {
			sc := el(parent, "simpleChoice")
			set(sc, "identifier", c.Identifier)
			sc.SetText(c.Text)
		}
	}

	switch it.Type {
	case qti.InteractionChoice, qti.InteractionMultipleResponse:
		in := el(body, "choiceInteraction")
		set(in, "responseIdentifier", rid)
		set(in, "shuffle", "false")
		if it.Type == qti.InteractionChoice {
			set(in, "maxChoices", "1")
		} else {
			set(in, "maxChoices", "0")
		}
		simpleChoices(in, it.Choices)
	case qti.InteractionTextEntry:
		in := el(body, "textEntryInteraction")
		set(in, "responseIdentifier", rid)
	case qti.InteractionExtendedText:
		in := el(body, "extendedTextInteraction")
		set(in, "responseIdentifier", rid)
		set(in, "expectedLines", "5")
	case qti.InteractionHottext:
		in := el(body, "hottextInteraction")
		set(in, "responseIdentifier", rid)
		set(in, "maxChoices", "1")
		p := in.CreateElement("p")
		for i, c := range it.HottextChoices {
			if i > 0 {
				p.CreateText(" ")
			}
			ht := el(p, "hottext")
			set(ht, "identifier", c.Identifier)
			ht.SetText(c.Text)
		}
	case qti.InteractionSlider:
		in := el(body, "sliderInteraction")
		set(in, "responseIdentifier", rid)
		cfg := it.SliderConfig
		if cfg == nil {
			cfg = &qti.SliderConfig{LowerBound: 0, UpperBound: 100, Step: 1}
		}
		set(in, "lowerBound", num(cfg.LowerBound))
		set(in, "upperBound", num(cfg.UpperBound))
		if cfg.Step > 0 {
			set(in, "step", num(cfg.Step))
		}
		if cfg.StepLabel {
			set(in, "stepLabel", "true")
		}
		if cfg.Orientation != "" {
			set(in, "orientation", cfg.Orientation)
		}
	case qti.InteractionOrder:
		in := el(body, "orderInteraction")
		set(in, "responseIdentifier", rid)
		set(in, "shuffle", "false")
		simpleChoices(in, it.OrderChoices)
	}
}

func cardinality(t qti.InteractionType) string {
	switch t {
	case qti.InteractionMultipleResponse:
		return "multiple"
	case qti.InteractionOrder:
		return "ordered"
	}
	return "single"
}

func baseType(t qti.InteractionType) string {
	switch t {
	case qti.InteractionTextEntry, qti.InteractionExtendedText:
		return "string"
	case qti.InteractionSlider:
		return "float"
	}
	return "identifier"
}

// Entry is one document placed in a content package.
type Entry struct {
	Identifier string
	Href       string
	Content    string
	Test       bool
}

// BuildPackage writes entries and an imsmanifest.xml into a zip archive.
// Missing hrefs default to "<identifier>.xml".
func BuildPackage(entries []Entry, v qti.Version) ([]byte, error) {
	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)

	mf := imsManifest{
		Identifier: "manifest-" + qti.NewItemID(),
		Xmlns:      "http://www.imsglobal.org/xsd/imscp_v1p1",
		Resources:  []imsResource{},
	}
	seen := map[string]bool{}
	for i, e := range entries {
		id := e.Identifier
		if id == "" {
			id = fmt.Sprintf("item-%d", i+1)
		}
		href := e.Href
		if href == "" {
			href = id + ".xml"
		}
		href = path.Clean(href)
		if seen[href] {
			return nil, fmt.Errorf("duplicate package entry %q", href)
		}
		seen[href] = true
		mf.Resources = append(mf.Resources, imsResource{
			Identifier: id,
			Type:       resourceType(v, e.Test),
			Href:       href,
			Files:      []imsFile{{Href: href}},
		})
		w, err := zw.Create(href)
		if err != nil {
			return nil, err
		}
		if _, err := io.WriteString(w, e.Content); err != nil {
			return nil, err
		}
	}

	mfw, err := zw.Create("imsmanifest.xml")
	if err != nil {
		return nil, err
	}
	b, err := xml.MarshalIndent(mf, "", "  ")
	if err != nil {
		return nil, err
	}
	if _, err := io.WriteString(mfw, xml.Header); err != nil {
		return nil, err
	}
	if _, err := mfw.Write(b); err != nil {
		return nil, err
	}

	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func resourceType(v qti.Version, test bool) string {
	kind := "item"
	if test {
		kind = "test"
	}
	if v == qti.V30 {
		return "imsqti_" + kind + "_xmlv3p0"
	}
	return "imsqti_" + kind + "_xmlv2p1"
}

type imsManifest struct {
	XMLName    xml.Name      `xml:"manifest"`
	Identifier string        `xml:"identifier,attr"`
	Xmlns      string        `xml:"xmlns,attr,omitempty"`
	Resources  []imsResource `xml:"resources>resource"`
}
type imsResource struct {
	Identifier string    `xml:"identifier,attr"`
	Type       string    `xml:"type,attr"`
	Href       string    `xml:"href,attr"`
	Files      []imsFile `xml:"file"`
}
type imsFile struct {
	Href string `xml:"href,attr"`
}
