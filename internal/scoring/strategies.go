package scoring

import (
	"sort"
	"strings"

	"github.com/mind-engage/mindengage-qti/internal/qti"
)

func fold(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func sortedFolded(vs []string) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = fold(v)
	}
	sort.Strings(out)
	return out
}

func equalSlices(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// matchCorrectStrategy awards full credit for a response equal to the correct
// response, ignoring case and surrounding space. List-valued answers compare
// as sorted lists, so ordered items are not checked for sequence here.
type matchCorrectStrategy struct{ fuzzy int }

func (s matchCorrectStrategy) Score(item qti.Item, response qti.Value) ItemScore {
	res := ItemScore{MaxScore: item.MaxScore}
	if item.CorrectResponse == nil {
		res.Feedback = []string{"no correct response authored"}
		return res
	}
	correct := *item.CorrectResponse

	var ok bool
	switch {
	case correct.IsMultiple():
		ok = response.IsMultiple() && equalSlices(sortedFolded(correct.Strings()), sortedFolded(response.Strings()))
	case response.IsMultiple():
		rs := response.Strings()
		ok = len(rs) == 1 && scalarMatch(item, correct.String(), rs[0])
	default:
		ok = scalarMatch(item, correct.String(), response.String())
	}

	res.IsCorrect = boolPtr(ok)
	if ok {
		res.Score = item.MaxScore
		return res
	}
	if s.fuzzy > 0 && item.Type == qti.InteractionTextEntry && !response.IsMultiple() {
		if levenshtein(normalize(correct.String()), normalize(response.String())) <= s.fuzzy {
			res.Feedback = append(res.Feedback, "close to the correct answer")
		}
	}
	return res
}

// scalarMatch compares single values; slider answers also compare as numbers.
func scalarMatch(item qti.Item, correct, response string) bool {
	if fold(correct) == fold(response) {
		return true
	}
	if item.Type == qti.InteractionSlider {
		return numericEqual(correct, response, item.SliderConfig)
	}
	return false
}

// mapResponseStrategy sums mapped weights of the distinct response values,
// clamped to [0, maxScore]. Unmapped values score the mapping default.
type mapResponseStrategy struct{}

func (mapResponseStrategy) Score(item qti.Item, response qti.Value) ItemScore {
	res := ItemScore{MaxScore: item.MaxScore}
	seen := map[string]bool{}
	sum := 0.0
	for _, v := range response.Strings() {
		v = strings.TrimSpace(v)
		if seen[v] {
			continue
		}
		seen[v] = true
		sum += mappedValue(item, v)
	}
	res.Score = clamp(sum, 0, item.MaxScore)
	res.PartialCredit = res.Score > 0 && res.Score < item.MaxScore
	res.IsCorrect = boolPtr(item.MaxScore > 0 && res.Score >= item.MaxScore)
	return res
}

func mappedValue(item qti.Item, v string) float64 {
	if w, ok := item.Mapping[v]; ok {
		return w
	}
	for k, w := range item.Mapping {
		if strings.EqualFold(k, v) {
			return w
		}
	}
	return item.MappingDefault
}

// matchNone is for intentionally unscored items.
func matchNone(_ qti.Item, _ qti.Value) ItemScore {
	return ItemScore{}
}

// matchCorrectMultiple requires equal-length lists with identical elements
// after independent case-insensitive sorting.
func matchCorrectMultiple(item qti.Item, response qti.Value) ItemScore {
	res := ItemScore{MaxScore: item.MaxScore}
	if item.CorrectResponse == nil {
		res.Feedback = []string{"no correct response authored"}
		return res
	}
	ok := equalSlices(sortedFolded(item.CorrectResponse.Strings()), sortedFolded(response.Strings()))
	res.IsCorrect = boolPtr(ok)
	if ok {
		res.Score = item.MaxScore
	}
	return res
}
