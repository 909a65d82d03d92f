package scoring

import "fmt"

// Override records a human-assigned score for an item that needed manual
// review. points is clamped to [0, MaxScore].
func Override(s ItemScore, points float64, note string) ItemScore {
	s.Score = clamp(points, 0, s.MaxScore)
	s.RequiresManualScoring = false
	s.PartialCredit = s.Score > 0 && s.Score < s.MaxScore
	correct := s.MaxScore > 0 && s.Score >= s.MaxScore
	s.IsCorrect = &correct
	s.Feedback = append(append([]string(nil), s.Feedback...), fmt.Sprintf("manually scored: %.2f", s.Score))
	if note != "" {
		s.Feedback = append(s.Feedback, note)
	}
	return s
}
