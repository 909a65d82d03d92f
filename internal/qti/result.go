package qti

import (
	"errors"
	"fmt"
	"strings"
)

type Version string

const (
	V21 Version = "2.1"
	V30 Version = "3.0"
)

var ErrUnknownVersion = errors.New("unknown QTI version")

func ParseVersion(s string) (Version, error) {
	switch strings.TrimSpace(strings.ToLower(s)) {
	case "2.1", "2p1", "v2.1", "qti21":
		return V21, nil
	case "3.0", "3", "3p0", "v3.0", "qti30":
		return V30, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownVersion, s)
}

// UnsupportedElement is a tally of one recognized-but-unimplemented element type.
type UnsupportedElement struct {
	Type        string `json:"type"`
	Count       int    `json:"count"`
	Description string `json:"description"`
}

// UnsupportedTally accumulates counts for a single parse call.
type UnsupportedTally struct {
	order []string
	byKey map[string]*UnsupportedElement
}

func NewUnsupportedTally() *UnsupportedTally {
	return &UnsupportedTally{byKey: map[string]*UnsupportedElement{}}
}

func (t *UnsupportedTally) Add(typ, description string, n int) {
	if n <= 0 {
		return
	}
	if e, ok := t.byKey[typ]; ok {
		e.Count += n
		return
	}
	t.byKey[typ] = &UnsupportedElement{Type: typ, Count: n, Description: description}
	t.order = append(t.order, typ)
}

// List returns entries in first-seen order.
func (t *UnsupportedTally) List() []UnsupportedElement {
	out := make([]UnsupportedElement, 0, len(t.order))
	for _, k := range t.order {
		out = append(out, *t.byKey[k])
	}
	return out
}

type ParseResult struct {
	Items               []Item               `json:"items"`
	Errors              []string             `json:"errors"`
	UnsupportedElements []UnsupportedElement `json:"unsupportedElements"`
	Version             Version              `json:"version"`
	AssessmentTest      *AssessmentTest      `json:"assessmentTest,omitempty"`
}

// Failed builds the short-circuit result: one error, no items.
func Failed(v Version, msg string) ParseResult {
	return ParseResult{
		Items:               []Item{},
		Errors:              []string{msg},
		UnsupportedElements: []UnsupportedElement{},
		Version:             v,
	}
}

type AssessmentTest struct {
	Identifier string     `json:"identifier"`
	Title      string     `json:"title"`
	TestParts  []TestPart `json:"testParts"`
}

type TestPart struct {
	Identifier     string              `json:"identifier"`
	NavigationMode string              `json:"navigationMode,omitempty"` // linear|nonlinear
	SubmissionMode string              `json:"submissionMode,omitempty"` // individual|simultaneous
	Sections       []AssessmentSection `json:"assessmentSections"`
}

type AssessmentSection struct {
	Identifier string `json:"identifier"`
	Title      string `json:"title"`
	Visible    bool   `json:"visible"`
	Items      []Item `json:"assessmentItems"`
}

// ItemCount counts items across every part and section.
func (t *AssessmentTest) ItemCount() int {
	n := 0
	for _, p := range t.TestParts {
		for _, s := range p.Sections {
			n += len(s.Items)
		}
	}
	return n
}
