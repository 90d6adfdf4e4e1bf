package planner

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

const (
	pointsPerQuestion = 1.5
	minQuestionCount  = 8
	maxQuestionCount  = 20
	weightEpsilon     = 1e-9
)

var (
	// ErrInvalidTarget indicates a non-positive point target.
	ErrInvalidTarget = errors.New("target points must be positive")
	// ErrUnknownLevel indicates an unsupported proficiency level.
	ErrUnknownLevel = errors.New("unknown level")
	// ErrUnknownType indicates a question type the planner cannot allocate.
	ErrUnknownType = errors.New("unknown question type")
	// ErrNoAllowedTypes indicates the request listed no question types.
	ErrNoAllowedTypes = errors.New("at least one question type is required")
	// ErrNoEligibleTypes indicates none of the allowed types is weighted at the requested level.
	ErrNoEligibleTypes = errors.New("no allowed question type is permitted at this level")
	// ErrPlanInexact indicates the allocated points do not sum to the target.
	ErrPlanInexact = errors.New("planned points do not match target")
)

// Request describes the quiz to plan.
type Request struct {
	TargetPoints int
	AllowedTypes []string
	Level        string
}

// PlannedQuestion is one slot in the quiz.
type PlannedQuestion struct {
	QuestionNumber int    `json:"question_number"`
	Type           string `json:"type"`
	Points         int    `json:"points"`
	Rationale      string `json:"rationale"`
	PairsCount     int    `json:"pairs_count,omitempty"`
	Adjusted       bool   `json:"adjusted,omitempty"`
}

// Validation records the exactness check.
type Validation struct {
	ComputedTotal int  `json:"computed_total"`
	TargetTotal   int  `json:"target_total"`
	PointsMatch   bool `json:"points_match"`
}

// Plan is the allocator output.
type Plan struct {
	TotalPoints       int               `json:"total_points"`
	Level             Level             `json:"level"`
	EstimatedCount    int               `json:"estimated_question_count"`
	Questions         []PlannedQuestion `json:"questions"`
	PointDistribution map[string]int    `json:"point_distribution"`
	Validation        Validation        `json:"validation"`
}

// Planner allocates quiz questions so their points sum exactly to a target. It keeps no state
// between calls.
type Planner struct {
	tables *Tables
}

// New constructs a planner over the given tables; nil selects the defaults.
func New(tables *Tables) *Planner {
	if tables == nil {
		tables = DefaultTables()
	}
	return &Planner{tables: tables}
}

// Tables exposes the planner's read-only tables.
func (p *Planner) Tables() *Tables {
	return p.tables
}

type candidate struct {
	typ    string
	cost   int
	weight float64
}

// Plan builds a quiz plan. The returned plan always satisfies Validation.PointsMatch; otherwise an
// error wrapping ErrPlanInexact is returned.
func (p *Planner) Plan(req Request) (Plan, error) {
	if req.TargetPoints <= 0 {
		return Plan{}, ErrInvalidTarget
	}
	level, ok := ParseLevel(req.Level)
	if !ok {
		return Plan{}, fmt.Errorf("%w: %q", ErrUnknownLevel, req.Level)
	}

	allowed, err := normalizeAllowed(req.AllowedTypes)
	if err != nil {
		return Plan{}, err
	}

	candidates := make([]candidate, 0, len(allowed))
	for _, typ := range allowed {
		weight := p.tables.Weight(level, typ)
		if weight <= 0 {
			continue
		}
		candidates = append(candidates, candidate{typ: typ, cost: p.tables.Cost(level, typ), weight: weight})
	}
	if len(candidates) == 0 {
		return Plan{}, fmt.Errorf("%w: level %s", ErrNoEligibleTypes, level)
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].cost < candidates[j].cost
	})

	estimated := EstimateQuestionCount(req.TargetPoints)
	remaining := req.TargetPoints
	questions := make([]PlannedQuestion, 0, estimated)

	// Weighted fill, cheapest types first.
	for _, c := range candidates {
		if remaining == 0 {
			break
		}
		target := int(math.Ceil(float64(estimated)*c.weight - weightEpsilon))
		count := minInt(target, remaining/c.cost)
		rationale := fmt.Sprintf("Weighted allocation for %s: %.0f%% of about %d questions", level, c.weight*100, estimated)
		for i := 0; i < count; i++ {
			questions = append(questions, PlannedQuestion{Type: c.typ, Points: c.cost, Rationale: rationale})
		}
		remaining -= count * c.cost
	}

	// Greedy exact fill with the cheapest type that still fits.
	for remaining > 0 {
		fit, found := cheapestFitting(candidates, remaining)
		if found {
			questions = append(questions, PlannedQuestion{
				Type:      fit.typ,
				Points:    fit.cost,
				Rationale: fmt.Sprintf("Added to reach the exact point target (%d points left)", remaining),
			})
			remaining -= fit.cost
			continue
		}

		if len(questions) == 0 {
			cheapest := candidates[0]
			questions = append(questions, PlannedQuestion{
				Type:      cheapest.typ,
				Points:    remaining,
				Adjusted:  true,
				Rationale: fmt.Sprintf("Single question worth %d points; nominal value for %s is %d", remaining, cheapest.typ, cheapest.cost),
			})
			remaining = 0
			break
		}

		last := &questions[len(questions)-1]
		nominal := last.Points
		last.Points += remaining
		last.Adjusted = true
		last.Rationale = fmt.Sprintf("%s; adjusted by +%d points to reach the exact target (nominal value %d)", last.Rationale, remaining, nominal)
		remaining = 0
	}

	plan := Plan{
		TotalPoints:       req.TargetPoints,
		Level:             level,
		EstimatedCount:    estimated,
		Questions:         questions,
		PointDistribution: make(map[string]int),
	}

	computed := 0
	for i := range plan.Questions {
		question := &plan.Questions[i]
		question.QuestionNumber = i + 1
		if question.Type == TypeMatching {
			question.PairsCount = question.Points
		}
		computed += question.Points
		plan.PointDistribution[question.Type] += question.Points
	}

	plan.Validation = Validation{
		ComputedTotal: computed,
		TargetTotal:   req.TargetPoints,
		PointsMatch:   computed == req.TargetPoints,
	}
	if !plan.Validation.PointsMatch {
		return Plan{}, fmt.Errorf("%w: computed %d, target %d", ErrPlanInexact, computed, req.TargetPoints)
	}

	return plan, nil
}

// EstimateQuestionCount returns ceil(target / 1.5) clamped to [8, 20].
func EstimateQuestionCount(targetPoints int) int {
	estimate := int(math.Ceil(float64(targetPoints) / pointsPerQuestion))
	if estimate < minQuestionCount {
		return minQuestionCount
	}
	if estimate > maxQuestionCount {
		return maxQuestionCount
	}
	return estimate
}

func cheapestFitting(candidates []candidate, remaining int) (candidate, bool) {
	for _, c := range candidates {
		if c.cost <= remaining {
			return c, true
		}
	}
	return candidate{}, false
}

func normalizeAllowed(types []string) ([]string, error) {
	if len(types) == 0 {
		return nil, ErrNoAllowedTypes
	}
	seen := make(map[string]struct{}, len(types))
	out := make([]string, 0, len(types))
	for _, raw := range types {
		typ := normalizeType(raw)
		if !isPlannable(typ) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownType, raw)
		}
		if _, dup := seen[typ]; dup {
			continue
		}
		seen[typ] = struct{}{}
		out = append(out, typ)
	}
	return out, nil
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
