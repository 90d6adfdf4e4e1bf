package scoring

// Evaluation data keys shared by the evaluators.
const (
	DataMethod               = "method"
	DataFeedback             = "feedback"
	DataRequiresManualReview = "requires_manual_review"
	DataReason               = "reason"
	DataFallback             = "fallback"
	DataFallbackReason       = "fallback_reason"
	DataCorrectMatches       = "correct_matches"
	DataTotalPairs           = "total_pairs"
	DataKeyPointsCovered     = "key_points_covered"
	DataWordCount            = "word_count"
	DataQuestionType         = "question_type"
	DataShape                = "shape"
	DataJudgeProvider        = "judge_provider"
	DataExplanation          = "explanation"
)

// Manual review reasons.
const (
	ReasonUnknownType         = "unknown_question_type"
	ReasonAnswerShapeMismatch = "answer_shape_mismatch"
	ReasonJudgeFailed         = "judge_failed"
	ReasonNoReference         = "no_reference_answer"
)

// Result is the outcome of evaluating one submitted answer. It is created once and not mutated
// after it leaves the evaluator.
type Result struct {
	IsCorrect      bool                   `json:"is_correct"`
	PointsEarned   float64                `json:"points_earned"`
	EvaluationData map[string]interface{} `json:"evaluation_data"`
}

// RequiresManualReview reports whether the result was flagged for a teacher.
func (r Result) RequiresManualReview() bool {
	flag, _ := r.EvaluationData[DataRequiresManualReview].(bool)
	return flag
}

// UsedFallback reports whether the deterministic fallback replaced the judge.
func (r Result) UsedFallback() bool {
	flag, _ := r.EvaluationData[DataFallback].(bool)
	return flag
}

// ManualReview is the terminal result for answers that cannot be scored automatically.
func ManualReview(reason string) Result {
	return Result{
		IsCorrect:    false,
		PointsEarned: 0,
		EvaluationData: map[string]interface{}{
			DataMethod:               "manual_review",
			DataRequiresManualReview: true,
			DataReason:               reason,
		},
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
