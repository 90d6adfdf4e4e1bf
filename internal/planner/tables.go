package planner

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/viper"
)

// Level is a CEFR proficiency level.
type Level string

// Supported levels, lowest first.
const (
	LevelA1 Level = "A1"
	LevelA2 Level = "A2"
	LevelB1 Level = "B1"
	LevelB2 Level = "B2"
	LevelC1 Level = "C1"
	LevelC2 Level = "C2"
)

// Levels lists the supported levels in ascending order.
var Levels = []Level{LevelA1, LevelA2, LevelB1, LevelB2, LevelC1, LevelC2}

// Plannable question types.
const (
	TypeMultipleChoice     = "multiple_choice"
	TypeCheckbox           = "checkbox"
	TypeTrueFalse          = "true_false"
	TypeFillInBlank        = "fill_in_blank"
	TypeShortAnswer        = "short_answer"
	TypeEssay              = "essay"
	TypeMatching           = "matching"
	TypeSentenceReordering = "sentence_reordering"
)

// ParseLevel normalises a level string.
func ParseLevel(raw string) (Level, bool) {
	candidate := Level(strings.ToUpper(strings.TrimSpace(raw)))
	for _, level := range Levels {
		if level == candidate {
			return level, true
		}
	}
	return "", false
}

// TablesDefinition is the serialisable form of the planning tables.
type TablesDefinition struct {
	// Weights maps level -> question type -> target share of the question count.
	Weights map[string]map[string]float64 `mapstructure:"weights" json:"weights"`
	// PointCosts is the fixed point value of one question of each type. Matching is priced per level.
	PointCosts map[string]int `mapstructure:"point_costs" json:"point_costs"`
	// MatchingPairs is the number of pairs (one point each) in a matching question per level.
	MatchingPairs map[string]int `mapstructure:"matching_pairs" json:"matching_pairs"`
}

// Tables holds the read-only weight and cost tables. It is safe for concurrent use.
type Tables struct {
	weights       map[Level]map[string]float64
	costs         map[string]int
	matchingPairs map[Level]int
}

// DefaultDefinition returns the built-in tables. Essay and sentence reordering are not weighted at A1.
func DefaultDefinition() TablesDefinition {
	return TablesDefinition{
		Weights: map[string]map[string]float64{
			"A1": {TypeMultipleChoice: 0.35, TypeTrueFalse: 0.25, TypeFillInBlank: 0.15, TypeMatching: 0.15, TypeCheckbox: 0.10},
			"A2": {TypeMultipleChoice: 0.30, TypeTrueFalse: 0.20, TypeFillInBlank: 0.15, TypeMatching: 0.15, TypeCheckbox: 0.10, TypeShortAnswer: 0.10, TypeSentenceReordering: 0.05},
			"B1": {TypeMultipleChoice: 0.25, TypeTrueFalse: 0.15, TypeFillInBlank: 0.15, TypeMatching: 0.10, TypeCheckbox: 0.10, TypeShortAnswer: 0.15, TypeSentenceReordering: 0.10, TypeEssay: 0.05},
			"B2": {TypeMultipleChoice: 0.20, TypeTrueFalse: 0.10, TypeFillInBlank: 0.15, TypeMatching: 0.10, TypeCheckbox: 0.10, TypeShortAnswer: 0.15, TypeSentenceReordering: 0.10, TypeEssay: 0.10},
			"C1": {TypeMultipleChoice: 0.15, TypeTrueFalse: 0.05, TypeFillInBlank: 0.15, TypeMatching: 0.10, TypeCheckbox: 0.10, TypeShortAnswer: 0.20, TypeSentenceReordering: 0.10, TypeEssay: 0.15},
			"C2": {TypeMultipleChoice: 0.10, TypeTrueFalse: 0.05, TypeFillInBlank: 0.15, TypeMatching: 0.10, TypeCheckbox: 0.10, TypeShortAnswer: 0.20, TypeSentenceReordering: 0.10, TypeEssay: 0.20},
		},
		PointCosts: map[string]int{
			TypeMultipleChoice:     1,
			TypeTrueFalse:          1,
			TypeFillInBlank:        1,
			TypeCheckbox:           2,
			TypeShortAnswer:        2,
			TypeSentenceReordering: 2,
			TypeEssay:              5,
		},
		MatchingPairs: map[string]int{"A1": 3, "A2": 3, "B1": 4, "B2": 4, "C1": 5, "C2": 6},
	}
}

// DefaultTables returns the built-in tables.
func DefaultTables() *Tables {
	tables, err := NewTables(DefaultDefinition())
	if err != nil {
		panic(fmt.Sprintf("planner: invalid default tables: %v", err))
	}
	return tables
}

// NewTables validates def and copies it into an immutable Tables value.
func NewTables(def TablesDefinition) (*Tables, error) {
	tables := &Tables{
		weights:       make(map[Level]map[string]float64, len(Levels)),
		costs:         make(map[string]int, len(def.PointCosts)),
		matchingPairs: make(map[Level]int, len(Levels)),
	}

	for rawType, cost := range def.PointCosts {
		typ := normalizeType(rawType)
		if !isPlannable(typ) {
			return nil, fmt.Errorf("point_costs: %w: %q", ErrUnknownType, rawType)
		}
		if typ == TypeMatching {
			return nil, fmt.Errorf("point_costs: matching is priced through matching_pairs")
		}
		if cost <= 0 {
			return nil, fmt.Errorf("point_costs: cost for %s must be positive", typ)
		}
		tables.costs[typ] = cost
	}
	for _, typ := range plannableTypes {
		if typ == TypeMatching {
			continue
		}
		if _, ok := tables.costs[typ]; !ok {
			return nil, fmt.Errorf("point_costs: missing cost for %s", typ)
		}
	}

	for _, level := range Levels {
		pairs := def.MatchingPairs[string(level)]
		if pairs <= 0 {
			return nil, fmt.Errorf("matching_pairs: missing pair count for %s", level)
		}
		tables.matchingPairs[level] = pairs

		weights := make(map[string]float64)
		var total float64
		for rawType, weight := range def.Weights[string(level)] {
			typ := normalizeType(rawType)
			if !isPlannable(typ) {
				return nil, fmt.Errorf("weights.%s: %w: %q", level, ErrUnknownType, rawType)
			}
			if weight < 0 {
				return nil, fmt.Errorf("weights.%s.%s: weight must not be negative", level, typ)
			}
			weights[typ] = weight
			total += weight
		}
		if total <= 0 {
			return nil, fmt.Errorf("weights.%s: at least one type needs a positive weight", level)
		}
		tables.weights[level] = weights
	}

	return tables, nil
}

// LoadTables reads a YAML or JSON tables file. Levels and sections the file leaves out keep
// their default values.
func LoadTables(path string) (*Tables, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read planner tables: %w", err)
	}

	def := DefaultDefinition()
	var override TablesDefinition
	if err := v.Unmarshal(&override); err != nil {
		return nil, fmt.Errorf("decode planner tables: %w", err)
	}

	// viper lower-cases keys.
	for level, weights := range override.Weights {
		def.Weights[strings.ToUpper(level)] = weights
	}
	if len(override.PointCosts) > 0 {
		def.PointCosts = override.PointCosts
	}
	for level, pairs := range override.MatchingPairs {
		def.MatchingPairs[strings.ToUpper(level)] = pairs
	}

	return NewTables(def)
}

// Weight returns the target share for typ at level; absent types weigh zero.
func (t *Tables) Weight(level Level, typ string) float64 {
	return t.weights[level][typ]
}

// Cost returns the point value of one question of typ at level.
func (t *Tables) Cost(level Level, typ string) int {
	if typ == TypeMatching {
		return t.matchingPairs[level]
	}
	return t.costs[typ]
}

// WeightedTypes lists the types with a positive weight at level, sorted by name.
func (t *Tables) WeightedTypes(level Level) []string {
	types := make([]string, 0, len(t.weights[level]))
	for typ, weight := range t.weights[level] {
		if weight > 0 {
			types = append(types, typ)
		}
	}
	sort.Strings(types)
	return types
}

var plannableTypes = []string{
	TypeMultipleChoice,
	TypeCheckbox,
	TypeTrueFalse,
	TypeFillInBlank,
	TypeShortAnswer,
	TypeEssay,
	TypeMatching,
	TypeSentenceReordering,
}

func isPlannable(typ string) bool {
	for _, candidate := range plannableTypes {
		if candidate == typ {
			return true
		}
	}
	return false
}

func normalizeType(raw string) string {
	return strings.NewReplacer("-", "_", " ", "_").Replace(strings.ToLower(strings.TrimSpace(raw)))
}
