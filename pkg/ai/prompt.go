package ai

import (
	"fmt"
	"strings"
)

func judgeSystemPrompt() string {
	return "You are a language teacher grading a student's answer. Respond only with a JSON object containing " +
		"is_correct (boolean), points_earned (number between 0 and the maximum points), feedback (short string " +
		"addressed to the student), optional key_points_covered (array of strings), and, when dimensions are " +
		"listed, dimension_scores (object mapping each dimension to a number between 0 and the maximum points)."
}

func buildJudgePrompt(req JudgeRequest) string {
	builder := strings.Builder{}
	builder.WriteString("# Answer type\n")
	builder.WriteString(req.Kind)
	if req.Question != "" {
		builder.WriteString("\n\n## Question\n")
		builder.WriteString(req.Question)
	}
	if req.Context != "" {
		builder.WriteString("\n\n## Context\n")
		builder.WriteString(req.Context)
	}
	if req.CorrectAnswer != "" {
		builder.WriteString("\n\n## Reference answer\n")
		builder.WriteString(req.CorrectAnswer)
	}
	builder.WriteString("\n\n## Student answer\n")
	builder.WriteString(req.UserAnswer)
	builder.WriteString(fmt.Sprintf("\n\n## Maximum points\n%g", req.MaxPoints))
	if req.MinWords > 0 || req.MaxWords > 0 {
		builder.WriteString(fmt.Sprintf("\n\n## Word range\n%d-%d words", req.MinWords, req.MaxWords))
	}
	if len(req.Criteria) > 0 {
		builder.WriteString("\n\n## Grading criteria\n")
		for _, criterion := range req.Criteria {
			builder.WriteString("- ")
			builder.WriteString(criterion)
			builder.WriteString("\n")
		}
	}
	if len(req.Dimensions) > 0 {
		builder.WriteString("\n\n## Dimensions\n")
		builder.WriteString(strings.Join(req.Dimensions, ", "))
	}
	builder.WriteString("\nReturn JSON.")
	return builder.String()
}
