package scoring

import (
	"context"

	"github.com/noah-isme/gema-lingua-api/internal/observability"
)

// Engine dispatches a submitted answer to the evaluator for its question.
type Engine struct {
	subjective *SubjectiveEvaluator
}

// NewEngine builds an engine. The subjective evaluator may be nil, in which case free-text
// answers go straight to manual review.
func NewEngine(subjective *SubjectiveEvaluator) *Engine {
	return &Engine{subjective: subjective}
}

// Evaluate scores userAnswer against q. It always returns a well-formed Result.
func (e *Engine) Evaluate(ctx context.Context, q Question, userAnswer interface{}) Result {
	kind := q.Kind()
	correct := q.Normalized().CorrectAnswer.Value()

	var result Result
	switch kind {
	case KindChoice:
		result = ScoreChoice(userAnswer, correct, q.Points)
	case KindCheckbox:
		result = ScoreCheckbox(userAnswer, correct, q.Points)
	case KindMatching:
		result = ScoreMatching(userAnswer, correct, q.Points)
	case KindReordering:
		result = ScoreReordering(userAnswer, correct, q.Points)
	case KindFillInBlank, KindShortAnswer, KindEssay:
		if e.subjective == nil {
			result = ManualReview(ReasonJudgeFailed)
			break
		}
		result = e.subjective.Evaluate(ctx, kind, q, userAnswer)
	default:
		reason := ReasonUnknownType
		if q.Type != TypeUnknown {
			reason = ReasonAnswerShapeMismatch
		}
		result = ManualReview(reason)
	}

	if result.EvaluationData == nil {
		result.EvaluationData = map[string]interface{}{}
	}
	result.EvaluationData[DataQuestionType] = string(q.Type)
	result.EvaluationData[DataShape] = string(q.Shape())
	if explanation := q.Normalized().Explanation; explanation != "" {
		result.EvaluationData[DataExplanation] = explanation
	}

	observability.ScoredAnswers().WithLabelValues(string(kind), outcomeLabel(result)).Inc()
	return result
}

func outcomeLabel(result Result) string {
	switch {
	case result.RequiresManualReview():
		return "manual_review"
	case result.IsCorrect:
		return "correct"
	case result.PointsEarned > 0:
		return "partial"
	default:
		return "incorrect"
	}
}
