package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const judgmentSchemaURL = "mem://gema/judgment.schema.json"

const judgmentSchemaSource = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["is_correct", "points_earned", "feedback"],
  "properties": {
    "is_correct": {"type": "boolean"},
    "points_earned": {"type": "number"},
    "feedback": {"type": "string"},
    "key_points_covered": {"type": "array", "items": {"type": "string"}},
    "dimension_scores": {"type": "object", "additionalProperties": {"type": "number"}}
  }
}`

var judgmentSchema = jsonschema.MustCompileString(judgmentSchemaURL, judgmentSchemaSource)

// ParseJudgment validates raw model output against the judgment schema and decodes it.
func ParseJudgment(content string) (Judgment, error) {
	content = stripCodeFence(content)

	var doc interface{}
	if err := json.Unmarshal([]byte(content), &doc); err != nil {
		return Judgment{}, &ErrInvalidResponse{Content: json.RawMessage(content), Err: fmt.Errorf("parse judgment json: %w", err)}
	}
	if err := judgmentSchema.Validate(doc); err != nil {
		return Judgment{}, &ErrInvalidResponse{Content: json.RawMessage(content), Err: err}
	}

	var judgment Judgment
	if err := json.Unmarshal([]byte(content), &judgment); err != nil {
		return Judgment{}, &ErrInvalidResponse{Content: json.RawMessage(content), Err: err}
	}
	return judgment, nil
}

// stripCodeFence removes a surrounding ```json fence some models add despite instructions.
func stripCodeFence(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimPrefix(trimmed, "json")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
