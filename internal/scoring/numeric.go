package scoring

import (
	"math"
	"strconv"
	"strings"

	"github.com/mind-engage/mindengage-qti/internal/qti"
)

// numericEqual compares slider values as numbers. With a step configured the
// tolerance is a hundredth of a step, otherwise values must be equal.
func numericEqual(correct, response string, cfg *qti.SliderConfig) bool {
	cv, cOK := parseFloatLoose(correct)
	rv, rOK := parseFloatLoose(response)
	if !cOK || !rOK {
		return false
	}
	tol := 0.0
	if cfg != nil && cfg.Step > 0 {
		tol = cfg.Step / 100
	}
	return math.Abs(cv-rv) <= tol
}

func parseFloatLoose(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v, true
	}
	if sp := strings.Fields(s); len(sp) > 0 {
		if v, err := strconv.ParseFloat(sp[0], 64); err == nil {
			return v, true
		}
	}
	return 0, false
}
