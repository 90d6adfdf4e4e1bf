package ai

import "context"

// Judgment kinds understood by the judges.
const (
	KindFillInBlank = "fill_in_blank"
	KindShortAnswer = "short_answer"
	KindEssay       = "essay"
	KindSpeaking    = "speaking"
	KindWriting     = "writing"
)

// JudgeRequest contains everything the judge needs to grade one free-text response.
type JudgeRequest struct {
	Kind          string
	Question      string
	CorrectAnswer string
	UserAnswer    string
	Context       string
	MaxPoints     float64
	MinWords      int
	MaxWords      int
	Criteria      []string
	// Dimensions is set for holistic speaking/writing evaluations; each dimension is scored 0..MaxPoints.
	Dimensions []string
}

// Judgment is the structured verdict returned by a judge. Values are not trusted; callers clamp them.
type Judgment struct {
	IsCorrect        bool                   `json:"is_correct"`
	PointsEarned     float64                `json:"points_earned"`
	Feedback         string                 `json:"feedback"`
	KeyPointsCovered []string               `json:"key_points_covered,omitempty"`
	DimensionScores  map[string]float64     `json:"dimension_scores,omitempty"`
	Raw              map[string]interface{} `json:"raw,omitempty"`
}

// Judge describes an AI model capable of grading free-text answers.
type Judge interface {
	Judge(ctx context.Context, req JudgeRequest) (Judgment, error)
	Provider() string
}
