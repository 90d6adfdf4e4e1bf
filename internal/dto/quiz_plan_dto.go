package dto

// QuizPlanRequest asks for a quiz layout worth exactly TotalPoints.
type QuizPlanRequest struct {
	TotalPoints   int      `json:"total_points" validate:"required,min=1"`
	QuestionTypes []string `json:"question_types" validate:"required,min=1,dive,required"`
	Level         string   `json:"level" validate:"required"`
}

// PlannedQuestion is one slot of a quiz plan.
type PlannedQuestion struct {
	QuestionNumber int    `json:"question_number"`
	Type           string `json:"type"`
	Points         int    `json:"points"`
	Rationale      string `json:"rationale"`
	PairsCount     int    `json:"pairs_count,omitempty"`
}

// PlanValidation reports the exactness check.
type PlanValidation struct {
	ComputedTotal int  `json:"computed_total"`
	TargetTotal   int  `json:"target_total"`
	PointsMatch   bool `json:"points_match"`
}

// QuizPlan is the allocator output.
type QuizPlan struct {
	TotalPoints            int               `json:"total_points"`
	Level                  string            `json:"level"`
	EstimatedQuestionCount int               `json:"estimated_question_count"`
	Questions              []PlannedQuestion `json:"questions"`
	PointDistribution      map[string]int    `json:"point_distribution"`
	Validation             PlanValidation    `json:"validation"`
}

// QuizPlanResponse wraps the plan.
type QuizPlanResponse struct {
	Plan     QuizPlan `json:"plan"`
	CacheHit bool     `json:"cache_hit"`
}
