package scoring

import "strings"

// ScoreChoice scores multiple-choice and true/false answers: case-insensitive equality of the
// stringified values, all or nothing.
func ScoreChoice(userAnswer, correctAnswer interface{}, maxPoints float64) Result {
	correct, ok := NewAnswer(correctAnswer).Text()
	if !ok {
		return ManualReview(ReasonAnswerShapeMismatch)
	}

	isCorrect := strings.EqualFold(stringify(userAnswer), correct)
	return allOrNothing(isCorrect, maxPoints, "exact_match")
}

// ScoreCheckbox scores checkbox answers: both sides lower-cased and sorted, then compared in order.
func ScoreCheckbox(userAnswer, correctAnswer interface{}, maxPoints float64) Result {
	correct, ok := NewAnswer(correctAnswer).List()
	if !ok {
		return ManualReview(ReasonAnswerShapeMismatch)
	}

	user, ok := NewAnswer(userAnswer).List()
	if !ok {
		user = nil
		if text, isText := NewAnswer(userAnswer).Text(); isText && text != "" {
			user = []string{text}
		}
	}

	isCorrect := equalSequences(lowerSorted(user), lowerSorted(correct))
	return allOrNothing(isCorrect, maxPoints, "set_match")
}

// ScoreMatching awards partial credit per correctly matched key. Keys are compared case-sensitively.
func ScoreMatching(userAnswer, correctAnswer interface{}, maxPoints float64) Result {
	correct, ok := NewAnswer(correctAnswer).Mapping()
	if !ok || len(correct) == 0 {
		return ManualReview(ReasonAnswerShapeMismatch)
	}

	user, _ := userAnswer.(map[string]interface{})
	if user == nil {
		if typed, ok := userAnswer.(map[string]string); ok {
			user = make(map[string]interface{}, len(typed))
			for key, value := range typed {
				user[key] = value
			}
		}
	}

	matches := 0
	for key, expected := range correct {
		given, present := user[key]
		if present && stringify(given) == expected {
			matches++
		}
	}

	total := len(correct)
	return Result{
		IsCorrect:    matches == total,
		PointsEarned: round2(float64(matches) / float64(total) * maxPoints),
		EvaluationData: map[string]interface{}{
			DataMethod:         "pair_match",
			DataCorrectMatches: matches,
			DataTotalPairs:     total,
		},
	}
}

// ScoreReordering requires the full sequence to match exactly; there is no partial credit.
func ScoreReordering(userAnswer, correctAnswer interface{}, maxPoints float64) Result {
	correct, ok := NewAnswer(correctAnswer).List()
	if !ok {
		return ManualReview(ReasonAnswerShapeMismatch)
	}

	user, _ := NewAnswer(userAnswer).List()
	return allOrNothing(equalSequences(user, correct), maxPoints, "sequence_match")
}

func allOrNothing(isCorrect bool, maxPoints float64, method string) Result {
	points := 0.0
	if isCorrect {
		points = maxPoints
	}
	return Result{
		IsCorrect:      isCorrect,
		PointsEarned:   points,
		EvaluationData: map[string]interface{}{DataMethod: method},
	}
}

func equalSequences(a, b []string) bool {
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
