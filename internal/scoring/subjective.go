package scoring

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-lingua-api/internal/observability"
	"github.com/noah-isme/gema-lingua-api/pkg/ai"
)

const (
	defaultJudgeTimeout   = 20 * time.Second
	defaultEssayPassRatio = 0.6
)

// SubjectiveConfig tunes the judge adapter.
type SubjectiveConfig struct {
	Timeout        time.Duration
	EssayPassRatio float64
}

// SubjectiveEvaluator grades free-text answers through the AI judge and falls back to a
// deterministic rule when the judge is missing or fails. It never returns an error.
type SubjectiveEvaluator struct {
	judge     ai.Judge
	cfg       SubjectiveConfig
	logger    zerolog.Logger
	sanitizer *bluemonday.Policy
}

// NewSubjectiveEvaluator constructs the adapter. A nil judge is valid.
func NewSubjectiveEvaluator(judge ai.Judge, cfg SubjectiveConfig, logger zerolog.Logger) *SubjectiveEvaluator {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultJudgeTimeout
	}
	if cfg.EssayPassRatio <= 0 || cfg.EssayPassRatio > 1 {
		cfg.EssayPassRatio = defaultEssayPassRatio
	}

	return &SubjectiveEvaluator{
		judge:     judge,
		cfg:       cfg,
		logger:    logger.With().Str("component", "subjective_evaluator").Logger(),
		sanitizer: bluemonday.StrictPolicy(),
	}
}

// Evaluate grades a fill-in-blank, short answer, or essay response.
func (s *SubjectiveEvaluator) Evaluate(ctx context.Context, kind Kind, q Question, userAnswer interface{}) Result {
	normalized := q.Normalized()
	user := strings.TrimSpace(s.sanitizer.Sanitize(stringify(userAnswer)))
	reference := strings.TrimSpace(stringify(normalized.CorrectAnswer.Value()))

	if user == "" {
		return Result{
			EvaluationData: map[string]interface{}{
				DataMethod:   "blank_answer",
				DataFeedback: "No answer was submitted.",
			},
		}
	}

	words := wordCount(user)
	if kind == KindEssay && q.Essay.MinWords > 0 && words < q.Essay.MinWords {
		return Result{
			EvaluationData: map[string]interface{}{
				DataMethod:    "word_count_check",
				DataWordCount: words,
				DataFeedback: fmt.Sprintf("The essay has %d words but at least %d are required (%d short).",
					words, q.Essay.MinWords, q.Essay.MinWords-words),
			},
		}
	}

	if s.judge == nil {
		return s.fallback(kind, q.Points, userAnswer, normalized.CorrectAnswer, "judge_unavailable")
	}

	request := ai.JudgeRequest{
		Kind:          judgeKind(kind),
		Question:      normalized.Statement,
		CorrectAnswer: reference,
		UserAnswer:    user,
		Context:       normalized.Explanation,
		MaxPoints:     q.Points,
	}
	if kind == KindEssay {
		request.MinWords = q.Essay.MinWords
		request.MaxWords = q.Essay.MaxWords
		request.Criteria = q.Essay.Criteria
	}

	judgeCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	judgment, err := s.judge.Judge(judgeCtx, request)
	if err != nil {
		reason := failureReason(err)
		s.logger.Warn().Err(err).Uint("question_id", q.ID).Str("kind", string(kind)).Str("reason", reason).Msg("judge failed, using fallback")
		return s.fallback(kind, q.Points, userAnswer, normalized.CorrectAnswer, reason)
	}

	points := round2(clamp(judgment.PointsEarned, 0, q.Points))
	isCorrect := judgment.IsCorrect
	if kind == KindEssay {
		isCorrect = points >= s.cfg.EssayPassRatio*q.Points
	}

	data := map[string]interface{}{
		DataMethod:        "ai_judge",
		DataFeedback:      strings.TrimSpace(s.sanitizer.Sanitize(judgment.Feedback)),
		DataJudgeProvider: s.judge.Provider(),
	}
	if len(judgment.KeyPointsCovered) > 0 {
		data[DataKeyPointsCovered] = judgment.KeyPointsCovered
	}
	if kind == KindEssay {
		data[DataWordCount] = words
	}

	return Result{IsCorrect: isCorrect, PointsEarned: points, EvaluationData: data}
}

func (s *SubjectiveEvaluator) fallback(kind Kind, maxPoints float64, userAnswer interface{}, correct Answer, reason string) Result {
	observability.JudgeFallbacks().WithLabelValues(string(kind), reason).Inc()

	if kind != KindFillInBlank || correct.IsZero() {
		result := ManualReview(ReasonJudgeFailed)
		result.EvaluationData[DataFallback] = true
		result.EvaluationData[DataFallbackReason] = reason
		return result
	}

	result := allOrNothing(fallbackMatch(NewAnswer(userAnswer), correct), maxPoints, "fallback_exact_match")
	result.EvaluationData[DataFallback] = true
	result.EvaluationData[DataFallbackReason] = reason
	return result
}

// fallbackMatch compares trimmed values case-insensitively, element by element for multi-blank answers.
func fallbackMatch(user, correct Answer) bool {
	if expected, ok := correct.List(); ok {
		given, ok := user.List()
		if !ok || len(given) != len(expected) {
			return false
		}
		for i := range expected {
			if !strings.EqualFold(strings.TrimSpace(given[i]), strings.TrimSpace(expected[i])) {
				return false
			}
		}
		return true
	}
	return strings.EqualFold(strings.TrimSpace(stringify(user.Value())), strings.TrimSpace(stringify(correct.Value())))
}

func failureReason(err error) string {
	var invalid *ai.ErrInvalidResponse
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.As(err, &invalid):
		return "invalid_response"
	default:
		return "judge_error"
	}
}

func judgeKind(kind Kind) string {
	switch kind {
	case KindFillInBlank:
		return ai.KindFillInBlank
	case KindEssay:
		return ai.KindEssay
	default:
		return ai.KindShortAnswer
	}
}
