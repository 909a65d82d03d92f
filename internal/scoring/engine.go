// Package scoring evaluates learner responses against parsed items using the
// item's response-processing template.
package scoring

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/mind-engage/mindengage-qti/internal/qti"
)

// ItemScore is the outcome of scoring one item response.
type ItemScore struct {
	ItemID                string   `json:"itemId"`
	Score                 float64  `json:"score"`
	MaxScore              float64  `json:"maxScore"`
	IsCorrect             *bool    `json:"isCorrect,omitempty"` // nil when correctness is undefined
	PartialCredit         bool     `json:"partialCredit"`
	RequiresManualScoring bool     `json:"requiresManualScoring"`
	Feedback              []string `json:"feedback,omitempty"`
}

type TotalScore struct {
	TotalScore            float64     `json:"totalScore"`
	MaxTotalScore         float64     `json:"maxTotalScore"`
	PercentageScore       float64     `json:"percentageScore"`
	RequiresManualScoring bool        `json:"requiresManualScoring"`
	Items                 []ItemScore `json:"items"`
}

// Strategy scores one response under a single template. response is never nil.
type Strategy interface {
	Score(item qti.Item, response qti.Value) ItemScore
}

type StrategyFunc func(item qti.Item, response qti.Value) ItemScore

func (f StrategyFunc) Score(item qti.Item, response qti.Value) ItemScore { return f(item, response) }

// Engine routes by template name to a Strategy. It holds no per-call state
// and is safe for concurrent use.
type Engine struct {
	strategies map[string]Strategy
	log        *slog.Logger
}

type Option func(*config)

type config struct {
	logger     *slog.Logger
	strategies map[string]Strategy
	fuzzyHints int
}

func WithLogger(l *slog.Logger) Option { return func(c *config) { c.logger = l } }

// WithStrategy installs or replaces the strategy for a template name.
func WithStrategy(template string, s Strategy) Option {
	return func(c *config) { c.strategies[template] = s }
}

// WithFuzzyHints sets the edit distance under which a wrong text-entry answer
// gets a "close" feedback note. Zero disables the hint.
func WithFuzzyHints(n int) Option { return func(c *config) { c.fuzzyHints = n } }

// Default is the engine every call site shares unless it needs options.
var Default = New()

func New(opts ...Option) *Engine {
	cfg := &config{strategies: map[string]Strategy{}, fuzzyHints: 1}
	for _, o := range opts {
		o(cfg)
	}
	strategies := map[string]Strategy{
		qti.TemplateMatchCorrect:         matchCorrectStrategy{fuzzy: cfg.fuzzyHints},
		qti.TemplateMapResponse:          mapResponseStrategy{},
		qti.TemplateMatchNone:            StrategyFunc(matchNone),
		qti.TemplateMatchCorrectMultiple: StrategyFunc(matchCorrectMultiple),
	}
	for k, s := range cfg.strategies {
		strategies[k] = s
	}
	l := cfg.logger
	if l == nil {
		l = slog.Default()
	}
	return &Engine{strategies: strategies, log: l}
}

// template resolves the strategy name; unknown templates fall back to
// match_correct.
func (e *Engine) template(item qti.Item) string {
	name := item.ResponseProcessing.Name()
	if name == "" {
		return qti.TemplateMatchCorrect
	}
	if _, ok := e.strategies[name]; !ok {
		e.log.Warn("unknown response processing template, using match_correct",
			"item", item.ID, "template", item.ResponseProcessing.Template)
		return qti.TemplateMatchCorrect
	}
	return name
}

// ItemScore never panics: a failing strategy yields a zero score flagged for
// manual review. A nil response is unanswered and scores zero.
func (e *Engine) ItemScore(item qti.Item, response *qti.Value) (res ItemScore) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("scoring failed", "item", item.ID, "panic", r)
			res = ItemScore{
				ItemID:                item.ID,
				MaxScore:              item.MaxScore,
				RequiresManualScoring: true,
				Feedback:              []string{fmt.Sprintf("scoring failed: %v", r)},
			}
		}
	}()

	tmpl := e.template(item)
	manual := e.RequiresManualScoring(item)
	if response == nil && tmpl != qti.TemplateMatchNone {
		res = ItemScore{ItemID: item.ID, MaxScore: item.MaxScore, RequiresManualScoring: manual}
		if !manual {
			res.IsCorrect = boolPtr(false)
		}
		res.Feedback = []string{"no response"}
		return res
	}
	var resp qti.Value
	if response != nil {
		resp = *response
	}
	res = e.strategies[tmpl].Score(item, resp)
	res.ItemID = item.ID
	res.RequiresManualScoring = res.RequiresManualScoring || manual
	return res
}

// RequiresManualScoring reports items a human has to grade: extended text,
// items without a correct response, and custom response processing.
func (e *Engine) RequiresManualScoring(item qti.Item) bool {
	if item.Type == qti.InteractionExtendedText {
		return true
	}
	if item.CorrectResponse == nil {
		return true
	}
	rp := item.ResponseProcessing
	return rp != nil && (rp.Custom || rp.Template == "")
}

// TotalScore aggregates item scores; any item needing manual review marks
// the total as needing it too.
func (e *Engine) TotalScore(scores []ItemScore) TotalScore {
	t := TotalScore{Items: make([]ItemScore, len(scores))}
	copy(t.Items, scores)
	for _, s := range scores {
		t.TotalScore += s.Score
		t.MaxTotalScore += s.MaxScore
		if s.RequiresManualScoring {
			t.RequiresManualScoring = true
		}
	}
	if t.MaxTotalScore != 0 {
		t.PercentageScore = t.TotalScore / t.MaxTotalScore * 100
	}
	return t
}

// Score is ItemScore over a whole item list, keyed by item ID, followed by
// TotalScore.
func (e *Engine) Score(items []qti.Item, responses map[string]qti.Value) TotalScore {
	scores := make([]ItemScore, 0, len(items))
	for _, it := range items {
		var resp *qti.Value
		if v, ok := responses[it.ID]; ok {
			resp = &v
		}
		scores = append(scores, e.ItemScore(it, resp))
	}
	return e.TotalScore(scores)
}

func boolPtr(b bool) *bool { return &b }

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}
