package questionbank

import "github.com/abhisek/studyplan/internal/jsondoc"

var questionSchema = map[string]any{
	"type":     "object",
	"required": []any{"difficulty", "text", "options", "correctOptionIndex"},
	"properties": map[string]any{
		"id":         map[string]any{"type": "string"},
		"difficulty": map[string]any{"type": "string", "enum": []any{"easy", "medium", "hard"}},
		"text":       map[string]any{"type": "string", "minLength": 1},
		"options": map[string]any{
			"type":     "array",
			"minItems": OptionCount,
			"maxItems": OptionCount,
			"items":    map[string]any{"type": "string"},
		},
		"correctOptionIndex": map[string]any{"type": "integer", "minimum": 0, "maximum": OptionCount - 1},
	},
}

var poolSchema = map[string]any{
	"type":     "object",
	"required": []any{"questions"},
	"properties": map[string]any{
		"questions": map[string]any{"type": "array", "items": questionSchema},
	},
}

// Schema validates a question source document.
var Schema = &jsondoc.Schema{
	Name: "questions",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"topicQuestions": map[string]any{
				"type":                 "object",
				"additionalProperties": poolSchema,
			},
			"defaultQuestions": poolSchema,
		},
	},
}
