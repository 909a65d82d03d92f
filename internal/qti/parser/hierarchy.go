package parser

import (
	"fmt"
	"strings"

	"github.com/antchfx/xmlquery"

	"github.com/mind-engage/mindengage-qti/internal/qti"
)

const (
	defaultPartID    = "default-part"
	defaultSectionID = "default-section"
)

// parseTest walks testPart > assessmentSection > assessmentItem. Items placed
// directly under the test root land in a synthesized default section. The
// flat item list follows the same order; item positions in error messages
// count across the whole test.
func (ps *Parser) parseTest(root *xmlquery.Node, handled map[*xmlquery.Node]bool, errs *[]string) (*qti.AssessmentTest, []qti.Item) {
	test := &qti.AssessmentTest{
		Identifier: strings.TrimSpace(attr(root, "identifier")),
		Title:      strings.TrimSpace(attr(root, "title")),
		TestParts:  []qti.TestPart{},
	}
	var flat []qti.Item
	pos := 0
	collect := func(nodes []*xmlquery.Node) []qti.Item {
		out := []qti.Item{}
		for _, n := range nodes {
			pos++
			it, err := ps.safeParseItem(n, handled)
			if err != nil {
				*errs = append(*errs, fmt.Sprintf("Item %d: %v", pos, err))
				continue
			}
			out = append(out, it)
		}
		flat = append(flat, out...)
		return out
	}

	var walkSection func(part *qti.TestPart, s *xmlquery.Node)
	walkSection = func(part *qti.TestPart, s *xmlquery.Node) {
		sec := qti.AssessmentSection{
			Identifier: strings.TrimSpace(attr(s, "identifier")),
			Title:      strings.TrimSpace(attr(s, "title")),
			Visible:    !strings.EqualFold(strings.TrimSpace(attr(s, "visible")), "false"),
		}
		sec.Items = collect(children(s, "assessmentItem"))
		part.Sections = append(part.Sections, sec)
		for _, nested := range children(s, "assessmentSection") {
			walkSection(part, nested)
		}
	}

	for _, tp := range children(root, "testPart") {
		part := qti.TestPart{
			Identifier:     strings.TrimSpace(attr(tp, "identifier")),
			NavigationMode: strings.TrimSpace(attr(tp, "navigationMode")),
			SubmissionMode: strings.TrimSpace(attr(tp, "submissionMode")),
			Sections:       []qti.AssessmentSection{},
		}
		for _, s := range children(tp, "assessmentSection") {
			walkSection(&part, s)
		}
		test.TestParts = append(test.TestParts, part)
	}

	if direct := children(root, "assessmentItem"); len(direct) > 0 {
		test.TestParts = append(test.TestParts, qti.TestPart{
			Identifier: defaultPartID,
			Sections: []qti.AssessmentSection{{
				Identifier: defaultSectionID,
				Title:      "Default Section",
				Visible:    true,
				Items:      collect(direct),
			}},
		})
	}
	ps.logger().Debug("qti test parsed", "identifier", test.Identifier, "parts", len(test.TestParts), "items", len(flat))
	return test, flat
}
