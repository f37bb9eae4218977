// Package schema derives JSON schemas from question definitions and checks
// submitted answers against them. Issues are advisory: callers report them
// but never block a submission on them.
package schema

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"

	"github.com/eclane/open-typeform/pkg/models"
)

const answerField = "answer"

// AnswerSchema returns the JSON schema describing a valid answer value for
// the given question. Static screens have no answer schema and return nil.
func AnswerSchema(question models.Question) map[string]any {
	if question.Type.IsStatic() {
		return nil
	}

	var value map[string]any

	switch question.Type {
	case models.QuestionTypeEmail:
		value = map[string]any{"type": "string", "format": "email"}
	case models.QuestionTypeDate:
		value = map[string]any{"type": "string", "format": "date"}
	case models.QuestionTypeMultipleChoice, models.QuestionTypeDropdown:
		options := make([]any, 0, len(question.Options))
		for _, option := range question.Options {
			options = append(options, option)
		}

		value = map[string]any{"type": "string"}
		if len(options) > 0 {
			value["enum"] = options
		}
	case models.QuestionTypeRating:
		value = map[string]any{
			"type":    "integer",
			"minimum": 1,
			"maximum": question.EffectiveMaxRating(),
		}
	case models.QuestionTypeNumber:
		value = map[string]any{"type": "number"}
	case models.QuestionTypeYesNo:
		value = map[string]any{"type": "boolean"}
	default:
		value = map[string]any{"type": "string"}
	}

	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			answerField: value,
		},
		"required": []any{answerField},
	}
}

// CheckAnswer validates value against the question's answer schema and
// returns any issues found. An empty slice means the answer looks fine.
func CheckAnswer(question models.Question, value any) []string {
	if question.Type.IsStatic() {
		if value != nil {
			return []string{fmt.Sprintf("question %q takes no answer", question.ID)}
		}

		return nil
	}

	if value == nil {
		if question.Required {
			return []string{fmt.Sprintf("question %q requires an answer", question.ID)}
		}

		return nil
	}

	schemaLoader := gojsonschema.NewGoLoader(AnswerSchema(question))
	dataLoader := gojsonschema.NewGoLoader(map[string]any{answerField: value})

	result, err := gojsonschema.Validate(schemaLoader, dataLoader)
	if err != nil {
		return []string{fmt.Sprintf("question %q: %s", question.ID, err.Error())}
	}

	if result.Valid() {
		return nil
	}

	issues := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		issues = append(issues, fmt.Sprintf("question %q: %s", question.ID, desc.Description()))
	}

	return issues
}
