package parser

import (
	"fmt"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"

	"github.com/mind-engage/mindengage-qti/internal/qti"
)

type unsupportedKind struct {
	typ         string
	description string
	expr        *xpath.Expr
}

// kind compiles a selector matching both spellings of an interaction element.
func kind(element, description string) unsupportedKind {
	q := fmt.Sprintf("//*[local-name()='%s' or local-name()='%s']", element, qti.KebabName(element))
	return unsupportedKind{typ: element, description: description, expr: xpath.MustCompile(q)}
}

var (
	unsupported21 = []unsupportedKind{
		kind("extendedTextInteraction", "Extended text interaction"),
		kind("orderInteraction", "Order interaction"),
		kind("associateInteraction", "Associate interaction (pairing)"),
		kind("matchInteraction", "Match interaction (matrix)"),
		kind("gapMatchInteraction", "Gap match interaction (drag and drop into gaps)"),
		kind("inlineChoiceInteraction", "Inline choice interaction (dropdown)"),
		kind("textEntryInteraction", "Text entry interaction"),
		kind("hottextInteraction", "Hottext interaction"),
		kind("hotspotInteraction", "Hotspot interaction (image regions)"),
		kind("graphicOrderInteraction", "Graphic order interaction"),
		kind("graphicAssociateInteraction", "Graphic associate interaction"),
		kind("graphicGapMatchInteraction", "Graphic gap match interaction"),
		kind("selectPointInteraction", "Select point interaction"),
		kind("positionObjectInteraction", "Position object interaction"),
		kind("sliderInteraction", "Slider interaction"),
		kind("drawingInteraction", "Drawing interaction"),
		kind("uploadInteraction", "File upload interaction"),
		kind("customInteraction", "Custom interaction"),
	}

	unsupported30 = []unsupportedKind{
		kind("associateInteraction", "Associate interaction (pairing)"),
		kind("matchInteraction", "Match interaction (matrix)"),
		kind("gapMatchInteraction", "Gap match interaction (drag and drop into gaps)"),
		kind("inlineChoiceInteraction", "Inline choice interaction (dropdown)"),
		kind("hotspotInteraction", "Hotspot interaction (image regions)"),
		kind("graphicOrderInteraction", "Graphic order interaction"),
		kind("graphicAssociateInteraction", "Graphic associate interaction"),
		kind("graphicGapMatchInteraction", "Graphic gap match interaction"),
		kind("selectPointInteraction", "Select point interaction"),
		kind("positionObjectInteraction", "Position object interaction"),
		kind("drawingInteraction", "Drawing interaction"),
		kind("uploadInteraction", "File upload interaction"),
		kind("mediaInteraction", "Media interaction"),
		kind("customInteraction", "Custom interaction"),
		kind("portableCustomInteraction", "Portable custom interaction (PCI)"),
	}
)

// scanUnsupported tallies the profile's unsupported elements. Elements an item
// was dispatched on are excluded when the profile shares them with extractors.
func (ps *Parser) scanUnsupported(doc *xmlquery.Node, handled map[*xmlquery.Node]bool) *qti.UnsupportedTally {
	tally := qti.NewUnsupportedTally()
	for _, k := range ps.p.unsupported {
		n := 0
		for _, el := range xmlquery.QuerySelectorAll(doc, k.expr) {
			if ps.p.skipHandled && handled[el] {
				continue
			}
			n++
		}
		tally.Add(k.typ, k.description+" is not supported", n)
	}
	return tally
}
