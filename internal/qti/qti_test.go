package qti

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValue_JSON(t *testing.T) {
	tests := []struct {
		in   string
		want Value
	}{
		{`"A"`, Single("A")},
		{`2.5`, Single("2.5")},
		{`["A","C"]`, Multiple("A", "C")},
		{`[1, "x"]`, Multiple("1", "x")},
		{`[]`, Multiple()},
		{`true`, Single("true")},
	}
	for _, tt := range tests {
		var v Value
		require.NoError(t, json.Unmarshal([]byte(tt.in), &v), tt.in)
		assert.Equal(t, tt.want, v, tt.in)
	}

	var v Value
	assert.Error(t, json.Unmarshal([]byte(`{"a":1}`), &v))

	b, err := json.Marshal(Multiple("B", "A"))
	require.NoError(t, err)
	assert.JSONEq(t, `["B","A"]`, string(b))
	b, err = json.Marshal(Single("x"))
	require.NoError(t, err)
	assert.JSONEq(t, `"x"`, string(b))
}

func TestValue_Strings(t *testing.T) {
	assert.Equal(t, []string{"A"}, Single("A").Strings())
	assert.Equal(t, []string{"A", "B"}, Multiple("A", "B").Strings())
	assert.Equal(t, "[A, B]", Multiple("A", "B").String())
	assert.False(t, Single("A").IsMultiple())
}

func TestNames(t *testing.T) {
	assert.Equal(t, "choiceInteraction", CanonicalName("qti-choice-interaction"))
	assert.Equal(t, "choiceInteraction", CanonicalName("choiceInteraction"))
	assert.Equal(t, "maxChoices", CanonicalName("max-choices"))
	assert.Equal(t, "assessmentItem", CanonicalName("qti:assessmentItem"))
	assert.Equal(t, "qti-simple-choice", KebabName("simpleChoice"))
	assert.Equal(t, "response-identifier", KebabAttr("responseIdentifier"))
	assert.Equal(t, DialectKebab, DialectOf("qti-assessment-item"))
	assert.Equal(t, "qti-item-body", DialectKebab.Element("itemBody"))
	assert.Equal(t, "itemBody", DialectCamel.Element("itemBody"))
}

func TestTemplates(t *testing.T) {
	assert.Equal(t, TemplateMatchCorrect, TemplateName(V21.TemplateURI(TemplateMatchCorrect)))
	assert.Equal(t, TemplateMapResponse, TemplateName(V30.TemplateURI(TemplateMapResponse)))
	assert.Equal(t, "https://purl.imsglobal.org/spec/qti/v3p0/rptemplates/match_correct.xml", V30.TemplateURI("match_correct"))
	assert.Equal(t, "", TemplateName("  "))

	assert.Equal(t, "", (*ResponseProcessing)(nil).Name())
	assert.Equal(t, "", (&ResponseProcessing{Template: "x", Custom: true}).Name())
	assert.Equal(t, TemplateMatchNone, (&ResponseProcessing{Template: "match-none"}).Name())
}

func TestParseVersion(t *testing.T) {
	for in, want := range map[string]Version{"2.1": V21, " v3.0 ": V30, "3p0": V30, "qti21": V21} {
		got, err := ParseVersion(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseVersion("1.2")
	assert.ErrorIs(t, err, ErrUnknownVersion)
}

func TestUnsupportedTally(t *testing.T) {
	tally := NewUnsupportedTally()
	tally.Add("hotspot", "Hotspot interaction", 2)
	tally.Add("media", "Media interaction", 0)
	tally.Add("textEntry", "Text entry interaction", 1)
	tally.Add("hotspot", "Hotspot interaction", 1)
	assert.Equal(t, []UnsupportedElement{
		{Type: "hotspot", Count: 3, Description: "Hotspot interaction"},
		{Type: "textEntry", Count: 1, Description: "Text entry interaction"},
	}, tally.List())
}

func TestAssessmentTest_ItemCount(t *testing.T) {
	at := &AssessmentTest{TestParts: []TestPart{
		{Sections: []AssessmentSection{{Items: make([]Item, 2)}, {Items: make([]Item, 1)}}},
		{Sections: []AssessmentSection{{Items: make([]Item, 3)}}},
	}}
	assert.Equal(t, 6, at.ItemCount())
	assert.True(t, InteractionSlider.Valid())
	assert.False(t, InteractionType("hotspot").Valid())
}
