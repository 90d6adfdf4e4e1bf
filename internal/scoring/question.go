package scoring

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// QuestionType enumerates the authored question kinds.
type QuestionType string

// Known question types.
const (
	TypeMultipleChoice       QuestionType = "multiple_choice"
	TypeCheckbox             QuestionType = "checkbox"
	TypeTrueFalse            QuestionType = "true_false"
	TypeFillInBlank          QuestionType = "fill_in_blank"
	TypeShortAnswer          QuestionType = "short_answer"
	TypeEssay                QuestionType = "essay"
	TypeMatching             QuestionType = "matching"
	TypeSentenceReordering   QuestionType = "sentence_reordering"
	TypeReadingComprehension QuestionType = "reading_comprehension"
	TypeUnknown              QuestionType = "unknown"
)

var typeAliases = map[string]QuestionType{
	"multiple_choice":       TypeMultipleChoice,
	"mcq":                   TypeMultipleChoice,
	"single_choice":         TypeMultipleChoice,
	"checkbox":              TypeCheckbox,
	"multiple_answer":       TypeCheckbox,
	"true_false":            TypeTrueFalse,
	"truefalse":             TypeTrueFalse,
	"fill_in_blank":         TypeFillInBlank,
	"fill_in_the_blank":     TypeFillInBlank,
	"fill_blank":            TypeFillInBlank,
	"short_answer":          TypeShortAnswer,
	"essay":                 TypeEssay,
	"matching":              TypeMatching,
	"sentence_reordering":   TypeSentenceReordering,
	"reordering":            TypeSentenceReordering,
	"sentence_ordering":     TypeSentenceReordering,
	"reading_comprehension": TypeReadingComprehension,
	"reading":               TypeReadingComprehension,
}

// ParseType normalises a stored type name, accepting historical spellings.
func ParseType(raw string) QuestionType {
	key := strings.ToLower(strings.TrimSpace(raw))
	key = strings.NewReplacer("-", "_", " ", "_", "/", "_").Replace(key)
	if t, ok := typeAliases[key]; ok {
		return t
	}
	return TypeUnknown
}

// Kind is the evaluator a question is routed to.
type Kind string

// Evaluator kinds.
const (
	KindChoice      Kind = "choice"
	KindCheckbox    Kind = "checkbox"
	KindMatching    Kind = "matching"
	KindReordering  Kind = "reordering"
	KindFillInBlank Kind = "fill_in_blank"
	KindShortAnswer Kind = "short_answer"
	KindEssay       Kind = "essay"
	KindManual      Kind = "manual_review"
)

// ErrInvalidPoints indicates a stored question has a non-positive point value.
var ErrInvalidPoints = errors.New("question points must be positive")

// Record is a question as it leaves the content store: body and answer are still untyped.
type Record struct {
	ID     uint
	TaskID uint
	Number int
	Type   string
	Points float64
	Body   map[string]interface{}
	Answer interface{}
}

// EssaySpec carries the essay constraints read from the question body.
type EssaySpec struct {
	MinWords int
	MaxWords int
	Criteria []string
}

// Question is a validated, classified question. It is built once from a Record and never mutated.
type Question struct {
	ID      uint
	TaskID  uint
	Number  int
	Type    QuestionType
	RawType string
	Points  float64
	Variant Variant
	Essay   EssaySpec
}

// Parse validates a Record and classifies its shape. Unknown types and shapes are not errors;
// they route to manual review when evaluated.
func Parse(rec Record) (Question, error) {
	if rec.Points <= 0 {
		return Question{}, fmt.Errorf("question %d: %w", rec.ID, ErrInvalidPoints)
	}

	fields := make(map[string]interface{}, len(rec.Body)+1)
	for key, value := range rec.Body {
		fields[key] = value
	}
	if _, ok := fields["correct_answer"]; !ok && rec.Answer != nil {
		fields["correct_answer"] = rec.Answer
	}

	body := record(fields)
	essay := EssaySpec{
		MinWords: body.integer("min_words"),
		MaxWords: body.integer("max_words"),
	}
	if criteria, ok := body.stringList("criteria"); ok {
		essay.Criteria = criteria
	} else if criteria, ok := body.stringList("grading_criteria"); ok {
		essay.Criteria = criteria
	}

	return Question{
		ID:      rec.ID,
		TaskID:  rec.TaskID,
		Number:  rec.Number,
		Type:    ParseType(rec.Type),
		RawType: rec.Type,
		Points:  rec.Points,
		Variant: Classify(fields),
		Essay:   essay,
	}, nil
}

// Shape returns the classified shape.
func (q Question) Shape() Shape {
	if q.Variant == nil {
		return ShapeUnknown
	}
	return q.Variant.Shape()
}

// Normalized returns the shape-independent view of the question.
func (q Question) Normalized() Normalized {
	if q.Variant == nil {
		return Normalized{}
	}
	return q.Variant.Normalized()
}

// Kind picks the evaluator. The stored type decides, except for reading comprehension whose
// evaluator follows from the classified shape.
func (q Question) Kind() Kind {
	if q.Shape() == ShapeUnknown && q.Type != TypeEssay && q.Type != TypeShortAnswer {
		return KindManual
	}

	switch q.Type {
	case TypeMultipleChoice, TypeTrueFalse:
		return KindChoice
	case TypeCheckbox:
		return KindCheckbox
	case TypeMatching:
		return KindMatching
	case TypeSentenceReordering:
		return KindReordering
	case TypeFillInBlank:
		return KindFillInBlank
	case TypeShortAnswer:
		return KindShortAnswer
	case TypeEssay:
		return KindEssay
	case TypeReadingComprehension:
		return q.readingKind()
	default:
		return KindManual
	}
}

func (q Question) readingKind() Kind {
	switch q.Shape() {
	case ShapeScenarioLetterOptions, ShapeScenarioChoice, ShapePassageChoice, ShapeStatementJudgement:
		return KindChoice
	case ShapeOptionList:
		if _, ok := q.Normalized().CorrectAnswer.List(); ok {
			return KindCheckbox
		}
		return KindChoice
	case ShapeClozeText:
		return KindFillInBlank
	case ShapeMatchingPairs:
		return KindMatching
	case ShapeOrderedSequence:
		return KindReordering
	case ShapeOpenResponse:
		return KindShortAnswer
	default:
		return KindManual
	}
}

func (r record) integer(key string) int {
	switch value := r[key].(type) {
	case float64:
		return int(value)
	case int:
		return value
	case json.Number:
		if n, err := value.Int64(); err == nil {
			return int(n)
		}
		if f, err := value.Float64(); err == nil {
			return int(f)
		}
	}
	return 0
}
