package qti

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type InteractionType string

const (
	InteractionChoice           InteractionType = "choice"
	InteractionMultipleResponse InteractionType = "multipleResponse"
	InteractionTextEntry        InteractionType = "textEntry"
	InteractionExtendedText     InteractionType = "extendedText"
	InteractionHottext          InteractionType = "hottext"
	InteractionSlider           InteractionType = "slider"
	InteractionOrder            InteractionType = "order"
	InteractionUnknown          InteractionType = "unknown"
)

// Valid reports whether t belongs to the closed set of interaction types.
func (t InteractionType) Valid() bool {
	switch t {
	case InteractionChoice, InteractionMultipleResponse, InteractionTextEntry, InteractionExtendedText,
		InteractionHottext, InteractionSlider, InteractionOrder, InteractionUnknown:
		return true
	}
	return false
}

const (
	DefaultTitle              = "Untitled Item"
	DefaultResponseIdentifier = "RESPONSE"
	DefaultMaxScore           = 1.0
)

type Choice struct {
	Identifier string `json:"identifier"`
	Text       string `json:"text"`
}

type SliderConfig struct {
	LowerBound  float64 `json:"lowerBound"`
	UpperBound  float64 `json:"upperBound"`
	Step        float64 `json:"step,omitempty"`
	StepLabel   bool    `json:"stepLabel,omitempty"`
	Orientation string  `json:"orientation,omitempty"` // horizontal|vertical
}

// ResponseProcessing is either a named template or custom rules we don't interpret.
type ResponseProcessing struct {
	Template string `json:"template,omitempty"`
	Custom   bool   `json:"custom,omitempty"`
}

// Name is the short template name, or "" for custom or missing processing.
func (rp *ResponseProcessing) Name() string {
	if rp == nil || rp.Custom {
		return ""
	}
	return TemplateName(rp.Template)
}

// Item is the normalized projection of one assessmentItem. It is rebuilt on
// every parse; the XML text stays the source of truth.
type Item struct {
	ID                 string              `json:"id"`
	Title              string              `json:"title"`
	Type               InteractionType     `json:"type"`
	Prompt             string              `json:"prompt"`
	Choices            []Choice            `json:"choices,omitempty"`
	HottextChoices     []Choice            `json:"hottextChoices,omitempty"`
	OrderChoices       []Choice            `json:"orderChoices,omitempty"`
	SliderConfig       *SliderConfig       `json:"sliderConfig,omitempty"`
	CorrectResponse    *Value              `json:"correctResponse,omitempty"`
	ResponseIdentifier string              `json:"responseIdentifier"`
	MaxScore           float64             `json:"maxScore"`
	Mapping            map[string]float64  `json:"mapping,omitempty"`
	MappingDefault     float64             `json:"mappingDefault,omitempty"`
	ResponseProcessing *ResponseProcessing `json:"responseProcessing,omitempty"`
}

// NewItemID synthesizes an identifier for items whose markup has none.
func NewItemID() string {
	r := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("item-%d-%s", time.Now().UnixMilli(), r[:9])
}
