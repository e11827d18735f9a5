package curriculum

import "github.com/abhisek/studyplan/internal/jsondoc"

var topicSchema = map[string]any{
	"type":     "object",
	"required": []any{"id", "title", "day"},
	"properties": map[string]any{
		"id":        map[string]any{"type": "string", "minLength": 1},
		"title":     map[string]any{"type": "string"},
		"day":       map[string]any{"type": "integer", "minimum": 1},
		"subtopics": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
	},
}

var unitSchema = map[string]any{
	"type":     "object",
	"required": []any{"id", "name", "topics"},
	"properties": map[string]any{
		"id":     map[string]any{"type": "string", "minLength": 1},
		"name":   map[string]any{"type": "string"},
		"topics": map[string]any{"type": "array", "items": topicSchema},
	},
}

// Schema validates a curriculum source document.
var Schema = &jsondoc.Schema{
	Name: "curriculum",
	Definition: map[string]any{
		"type":     "object",
		"required": []any{"metadata", "subjects"},
		"properties": map[string]any{
			"metadata": map[string]any{
				"type":     "object",
				"required": []any{"startDate"},
				"properties": map[string]any{
					"title":     map[string]any{"type": "string"},
					"startDate": map[string]any{"type": "string", "minLength": 10},
				},
			},
			"schedule": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"totalDays":  map[string]any{"type": "integer", "minimum": 1},
					"bufferDays": map[string]any{"type": "array", "items": map[string]any{"type": "integer", "minimum": 1}},
				},
			},
			"subjects": map[string]any{
				"type":     "array",
				"minItems": 1,
				"items": map[string]any{
					"type":     "object",
					"required": []any{"id", "name", "units"},
					"properties": map[string]any{
						"id":         map[string]any{"type": "string", "minLength": 1},
						"name":       map[string]any{"type": "string"},
						"shortName":  map[string]any{"type": "string"},
						"color":      map[string]any{"type": "string"},
						"priority":   map[string]any{"type": "string"},
						"totalHours": map[string]any{"type": "number", "minimum": 0},
						"units":      map[string]any{"type": "array", "items": unitSchema},
					},
				},
			},
		},
	},
}
