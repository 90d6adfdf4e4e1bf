package scoring

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Shape names one of the historical question encodings.
type Shape string

// Known shapes.
const (
	ShapeUnknown               Shape = "unknown"
	ShapeScenarioLetterOptions Shape = "scenario_letter_options"
	ShapeScenarioChoice        Shape = "scenario_choice"
	ShapeClozeText             Shape = "cloze_text"
	ShapePassageChoice         Shape = "passage_choice"
	ShapeStatementJudgement    Shape = "statement_judgement"
	ShapeMatchingPairs         Shape = "matching_pairs"
	ShapeOrderedSequence       Shape = "ordered_sequence"
	ShapeOptionList            Shape = "option_list"
	ShapeOpenResponse          Shape = "open_response"
	ShapePlainAnswer           Shape = "plain_answer"
)

// Normalized is the shape-independent view every variant reduces to.
type Normalized struct {
	Statement     string
	CorrectAnswer Answer
	Explanation   string
}

// Variant is the closed set of recognised question encodings. Implementations live in this file.
type Variant interface {
	Shape() Shape
	Normalized() Normalized
	isVariant()
}

// LetterOption is one structured option of a scenario question.
type LetterOption struct {
	Letter      string
	Text        string
	Explanation string
	IsCorrect   bool
}

// ScenarioLetterOptions is a scenario with structured options, each carrying its own letter and explanation.
type ScenarioLetterOptions struct {
	Scenario    string
	Question    string
	Options     []LetterOption
	Correct     string
	Explanation string
}

func (ScenarioLetterOptions) Shape() Shape { return ShapeScenarioLetterOptions }
func (ScenarioLetterOptions) isVariant()   {}

func (v ScenarioLetterOptions) Normalized() Normalized {
	correct := v.Correct
	explanation := v.Explanation
	for _, option := range v.Options {
		matches := option.IsCorrect
		if correct != "" {
			matches = strings.EqualFold(option.Letter, correct)
		}
		if !matches {
			continue
		}
		if correct == "" {
			correct = option.Letter
		}
		if option.Explanation != "" {
			explanation = option.Explanation
		}
		break
	}
	return Normalized{
		Statement:     joinStatement(v.Scenario, v.Question),
		CorrectAnswer: NewAnswer(correct),
		Explanation:   explanation,
	}
}

// ScenarioChoice is a scenario with a plain list of string options.
type ScenarioChoice struct {
	Scenario    string
	Question    string
	Options     []string
	Correct     Answer
	Explanation string
}

func (ScenarioChoice) Shape() Shape { return ShapeScenarioChoice }
func (ScenarioChoice) isVariant()   {}

func (v ScenarioChoice) Normalized() Normalized {
	return Normalized{Statement: joinStatement(v.Scenario, v.Question), CorrectAnswer: v.Correct, Explanation: v.Explanation}
}

// ClozeText is a passage with gaps to fill in.
type ClozeText struct {
	Text        string
	WordBank    []string
	Correct     Answer
	Explanation string
}

func (ClozeText) Shape() Shape { return ShapeClozeText }
func (ClozeText) isVariant()   {}

func (v ClozeText) Normalized() Normalized {
	return Normalized{Statement: v.Text, CorrectAnswer: v.Correct, Explanation: v.Explanation}
}

// PassageChoice is a reading passage followed by a single choice question.
type PassageChoice struct {
	Passage     string
	Question    string
	Options     []string
	Correct     Answer
	Explanation string
}

func (PassageChoice) Shape() Shape { return ShapePassageChoice }
func (PassageChoice) isVariant()   {}

func (v PassageChoice) Normalized() Normalized {
	return Normalized{Statement: joinStatement(v.Passage, v.Question), CorrectAnswer: v.Correct, Explanation: v.Explanation}
}

// StatementJudgement asks whether a statement is true.
type StatementJudgement struct {
	Statement   string
	IsTrue      bool
	Correct     Answer
	Explanation string
}

func (StatementJudgement) Shape() Shape { return ShapeStatementJudgement }
func (StatementJudgement) isVariant()   {}

// Normalized keeps the stored answer text so learners are compared against what the author wrote.
// Only a bare is_true flag is rendered as "true" or "false".
func (v StatementJudgement) Normalized() Normalized {
	correct := v.Correct
	if correct.IsZero() {
		correct = NewAnswer(strconv.FormatBool(v.IsTrue))
	}
	return Normalized{Statement: v.Statement, CorrectAnswer: correct, Explanation: v.Explanation}
}

// Pair is one left/right item of a matching question.
type Pair struct {
	Left  string
	Right string
}

// MatchingPairs maps left-hand keys to right-hand values.
type MatchingPairs struct {
	Prompt      string
	Pairs       []Pair
	Correct     map[string]string
	Explanation string
}

func (MatchingPairs) Shape() Shape { return ShapeMatchingPairs }
func (MatchingPairs) isVariant()   {}

func (v MatchingPairs) Normalized() Normalized {
	correct := v.Correct
	if len(correct) == 0 {
		correct = make(map[string]string, len(v.Pairs))
		for _, pair := range v.Pairs {
			correct[pair.Left] = pair.Right
		}
	}
	return Normalized{Statement: v.Prompt, CorrectAnswer: NewAnswer(correct), Explanation: v.Explanation}
}

// OrderedSequence asks for items (usually sentences) to be put in order.
type OrderedSequence struct {
	Prompt      string
	Items       []string
	Order       []string
	Explanation string
}

func (OrderedSequence) Shape() Shape { return ShapeOrderedSequence }
func (OrderedSequence) isVariant()   {}

func (v OrderedSequence) Normalized() Normalized {
	return Normalized{Statement: v.Prompt, CorrectAnswer: NewAnswer(v.Order), Explanation: v.Explanation}
}

// OptionList is a bare question with string options and a correct option or option set.
type OptionList struct {
	Question    string
	Options     []string
	Correct     Answer
	Explanation string
}

func (OptionList) Shape() Shape { return ShapeOptionList }
func (OptionList) isVariant()   {}

func (v OptionList) Normalized() Normalized {
	return Normalized{Statement: v.Question, CorrectAnswer: v.Correct, Explanation: v.Explanation}
}

// OpenResponse is a free-text prompt with an optional reference answer.
type OpenResponse struct {
	Question    string
	Reference   Answer
	Explanation string
}

func (OpenResponse) Shape() Shape { return ShapeOpenResponse }
func (OpenResponse) isVariant()   {}

func (v OpenResponse) Normalized() Normalized {
	return Normalized{Statement: v.Question, CorrectAnswer: v.Reference, Explanation: v.Explanation}
}

// PlainAnswer is a record carrying only a correct answer.
type PlainAnswer struct {
	Correct     Answer
	Explanation string
}

func (PlainAnswer) Shape() Shape { return ShapePlainAnswer }
func (PlainAnswer) isVariant()   {}

func (v PlainAnswer) Normalized() Normalized {
	return Normalized{CorrectAnswer: v.Correct, Explanation: v.Explanation}
}

// Unrecognized is returned when no shape matches.
type Unrecognized struct{}

func (Unrecognized) Shape() Shape           { return ShapeUnknown }
func (Unrecognized) isVariant()             {}
func (Unrecognized) Normalized() Normalized { return Normalized{} }

type detector struct {
	shape  Shape
	detect func(fields record) (Variant, bool)
}

// detectionOrder is the classification priority list. Structurally richer shapes come before the
// generic shapes they overlap with: a scenario with letter options also has "options", a scenario
// choice also looks like a passage or option list, a cloze text may carry a word bank in "options",
// and nearly everything carries a correct answer. Reordering this list changes classification.
var detectionOrder = []detector{
	{ShapeScenarioLetterOptions, detectScenarioLetterOptions},
	{ShapeScenarioChoice, detectScenarioChoice},
	{ShapeClozeText, detectClozeText},
	{ShapePassageChoice, detectPassageChoice},
	{ShapeStatementJudgement, detectStatementJudgement},
	{ShapeMatchingPairs, detectMatchingPairs},
	{ShapeOrderedSequence, detectOrderedSequence},
	{ShapeOptionList, detectOptionList},
	{ShapeOpenResponse, detectOpenResponse},
	{ShapePlainAnswer, detectPlainAnswer},
}

// DetectionOrder returns the shapes in the order they are tested.
func DetectionOrder() []Shape {
	shapes := make([]Shape, len(detectionOrder))
	for i, d := range detectionOrder {
		shapes[i] = d.shape
	}
	return shapes
}

// Classify maps an untyped question record to exactly one variant. It never guesses: records
// matching no shape yield Unrecognized.
func Classify(fields map[string]interface{}) Variant {
	rec := record(fields)
	for _, d := range detectionOrder {
		if variant, ok := d.detect(rec); ok {
			return variant
		}
	}
	return Unrecognized{}
}

func detectScenarioLetterOptions(r record) (Variant, bool) {
	scenario := r.str("scenario_text", "scenario")
	if scenario == "" {
		return nil, false
	}
	objects, ok := r.objectList("options")
	if !ok {
		return nil, false
	}
	options := make([]LetterOption, 0, len(objects))
	for _, object := range objects {
		letter := object.str("letter")
		if letter == "" {
			return nil, false
		}
		options = append(options, LetterOption{
			Letter:      letter,
			Text:        object.str("text", "option"),
			Explanation: object.str("explanation"),
			IsCorrect:   object.boolean("is_correct", "correct"),
		})
	}
	correct, _ := r.correct().Text()
	return ScenarioLetterOptions{
		Scenario:    scenario,
		Question:    r.str("question", "question_text"),
		Options:     options,
		Correct:     correct,
		Explanation: r.str("explanation"),
	}, true
}

func detectScenarioChoice(r record) (Variant, bool) {
	scenario := r.str("scenario_text", "scenario")
	if scenario == "" {
		return nil, false
	}
	options, ok := r.stringList("options")
	if !ok {
		return nil, false
	}
	return ScenarioChoice{
		Scenario:    scenario,
		Question:    r.str("question", "question_text"),
		Options:     options,
		Correct:     r.correct(),
		Explanation: r.str("explanation"),
	}, true
}

func detectClozeText(r record) (Variant, bool) {
	text := r.str("text_with_blanks", "cloze_text")
	if text == "" || r.correct().IsZero() {
		return nil, false
	}
	bank, _ := r.stringList("options")
	if words, ok := r.stringList("word_bank"); ok {
		bank = words
	}
	return ClozeText{Text: text, WordBank: bank, Correct: r.correct(), Explanation: r.str("explanation")}, true
}

func detectPassageChoice(r record) (Variant, bool) {
	passage := r.str("passage", "reading_text")
	if passage == "" || r.correct().IsZero() {
		return nil, false
	}
	options, ok := r.stringList("options")
	if !ok {
		return nil, false
	}
	return PassageChoice{
		Passage:     passage,
		Question:    r.str("question", "question_text"),
		Options:     options,
		Correct:     r.correct(),
		Explanation: r.str("explanation"),
	}, true
}

func detectStatementJudgement(r record) (Variant, bool) {
	statement := r.str("statement")
	if statement == "" {
		return nil, false
	}
	// A statement with its own option list is a choice question.
	if _, ok := r.stringList("options"); ok {
		return nil, false
	}
	if value, ok := r["is_true"].(bool); ok {
		return StatementJudgement{Statement: statement, IsTrue: value, Correct: r.correct(), Explanation: r.str("explanation")}, true
	}
	correct := r.correct()
	if value, ok := parseTruth(correct.Value()); ok {
		return StatementJudgement{Statement: statement, IsTrue: value, Correct: correct, Explanation: r.str("explanation")}, true
	}
	return nil, false
}

func detectMatchingPairs(r record) (Variant, bool) {
	prompt := r.str("question", "prompt", "instructions")
	correct, hasMapping := r.correct().Mapping()
	objects, hasPairs := r.objectList("pairs")

	var pairs []Pair
	if hasPairs {
		pairs = make([]Pair, 0, len(objects))
		for _, object := range objects {
			left := object.str("left", "term")
			if left == "" {
				return nil, false
			}
			pairs = append(pairs, Pair{Left: left, Right: object.str("right", "definition", "match")})
		}
	}
	if !hasMapping && !hasPairs {
		return nil, false
	}
	return MatchingPairs{Prompt: prompt, Pairs: pairs, Correct: correct, Explanation: r.str("explanation")}, true
}

func detectOrderedSequence(r record) (Variant, bool) {
	items, ok := r.stringList("sentences")
	if !ok {
		items, ok = r.stringList("items")
	}
	if !ok {
		return nil, false
	}
	order, ok := r.list("correct_order")
	if !ok {
		order, ok = r.correct().List()
	}
	if !ok || len(order) == 0 {
		return nil, false
	}
	return OrderedSequence{
		Prompt:      r.str("question", "prompt", "instructions"),
		Items:       items,
		Order:       order,
		Explanation: r.str("explanation"),
	}, true
}

func detectOptionList(r record) (Variant, bool) {
	options, ok := r.stringList("options")
	if !ok || r.correct().IsZero() {
		return nil, false
	}
	return OptionList{
		Question:    r.str("question", "question_text", "prompt", "statement"),
		Options:     options,
		Correct:     r.correct(),
		Explanation: r.str("explanation"),
	}, true
}

func detectOpenResponse(r record) (Variant, bool) {
	question := r.str("question", "question_text", "prompt")
	if question == "" {
		return nil, false
	}
	reference := r.correct()
	if reference.IsZero() {
		reference = NewAnswer(r.str("sample_answer", "model_answer"))
	}
	return OpenResponse{Question: question, Reference: reference, Explanation: r.str("explanation")}, true
}

func detectPlainAnswer(r record) (Variant, bool) {
	if r.correct().IsZero() {
		return nil, false
	}
	return PlainAnswer{Correct: r.correct(), Explanation: r.str("explanation")}, true
}

func joinStatement(lead, question string) string {
	switch {
	case lead == "":
		return question
	case question == "":
		return lead
	default:
		return lead + "\n\n" + question
	}
}

func parseTruth(v interface{}) (bool, bool) {
	switch value := v.(type) {
	case bool:
		return value, true
	case string:
		switch strings.ToLower(strings.TrimSpace(value)) {
		case "true", "t", "yes", "benar":
			return true, true
		case "false", "f", "no", "salah":
			return false, true
		}
	}
	return false, false
}

// record is a decoded JSON object with typed accessors. The accessors inspect element types
// inside arrays, since key presence alone cannot tell overlapping shapes apart.
type record map[string]interface{}

func (r record) str(keys ...string) string {
	for _, key := range keys {
		if value, ok := r[key].(string); ok && strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

func (r record) boolean(keys ...string) bool {
	for _, key := range keys {
		if value, ok := r[key].(bool); ok {
			return value
		}
	}
	return false
}

func (r record) correct() Answer {
	for _, key := range []string{"correct_answer", "answer"} {
		if value, ok := r[key]; ok && value != nil {
			return NewAnswer(value)
		}
	}
	return Answer{}
}

// objectList reports a non-empty array whose elements are all objects.
func (r record) objectList(key string) ([]record, bool) {
	items, ok := r[key].([]interface{})
	if !ok || len(items) == 0 {
		return nil, false
	}
	out := make([]record, 0, len(items))
	for _, item := range items {
		object, ok := item.(map[string]interface{})
		if !ok {
			return nil, false
		}
		out = append(out, record(object))
	}
	return out, true
}

// stringList reports a non-empty array whose elements are all scalars (strings or numbers).
func (r record) stringList(key string) ([]string, bool) {
	switch items := r[key].(type) {
	case []string:
		if len(items) == 0 {
			return nil, false
		}
		return append([]string(nil), items...), true
	case []interface{}:
		if len(items) == 0 {
			return nil, false
		}
		out := make([]string, 0, len(items))
		for _, item := range items {
			switch item.(type) {
			case string, float64, int, bool, json.Number:
				out = append(out, stringify(item))
			default:
				return nil, false
			}
		}
		return out, true
	}
	return nil, false
}

func (r record) list(key string) ([]string, bool) {
	return NewAnswer(r[key]).List()
}
