package progress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"golang.org/x/mod/semver"

	"github.com/abhisek/studyplan/internal/jsondoc"
)

// FormatVersion is the semantic version of the export document written by
// this build. Imports with a different major version are rejected.
const FormatVersion = "v1.0.0"

// ErrInvalidImport wraps every import payload rejection.
var ErrInvalidImport = errors.New("invalid import payload")

// Export is the backup document written to disk.
type Export struct {
	FormatVersion string               `json:"formatVersion,omitempty"`
	Completion    map[string]bool      `json:"completion"`
	QuizAttempts  map[string][]Attempt `json:"quizAttempts,omitempty"`
	Analytics     *Analytics           `json:"analytics,omitempty"`
	ExportDate    time.Time            `json:"exportDate"`
}

// ExportFileName returns the conventional backup file name for t.
func ExportFileName(t time.Time) string {
	return "syllabus_backup_" + t.Format(time.DateOnly) + ".json"
}

// Export returns a full backup of the store.
func (s *Store) Export() Export {
	a := s.Analytics()
	return Export{
		FormatVersion: FormatVersion,
		Completion:    s.Completion(),
		QuizAttempts:  s.AllAttempts(),
		Analytics:     &a,
		ExportDate:    s.now().UTC(),
	}
}

// Import replaces local progress with a parsed backup. Attempt history and
// analytics are only replaced when the backup carries them.
func (s *Store) Import(ctx context.Context, e Export) error {
	return s.replace(ctx, e.Completion, e.QuizAttempts, e.Analytics, SourceImport)
}

var attemptSchema = map[string]any{
	"type":     "object",
	"required": []any{"date", "score", "passed"},
	"properties": map[string]any{
		"id":     map[string]any{"type": "string"},
		"date":   map[string]any{"type": "string", "format": "date-time"},
		"score":  map[string]any{"type": "integer", "minimum": 0, "maximum": 10},
		"passed": map[string]any{"type": "boolean"},
		"incorrectAnswers": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"questionText": map[string]any{"type": "string"},
					"chosenText":   map[string]any{"type": "string"},
					"correctText":  map[string]any{"type": "string"},
				},
			},
		},
	},
}

var completionSchema = map[string]any{
	"type":                 "object",
	"additionalProperties": map[string]any{"type": "boolean"},
}

// ImportSchema validates a backup document.
var ImportSchema = &jsondoc.Schema{
	Name: "progress-import",
	Definition: map[string]any{
		"type":     "object",
		"required": []any{"completion"},
		"properties": map[string]any{
			"formatVersion": map[string]any{"type": "string"},
			"completion":    completionSchema,
			"quizAttempts": map[string]any{
				"type":                 "object",
				"additionalProperties": map[string]any{"type": "array", "items": attemptSchema},
			},
			"analytics": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"quizzesTaken":        map[string]any{"type": "integer", "minimum": 0},
					"questionsAnswered":   map[string]any{"type": "integer", "minimum": 0},
					"correctByDifficulty": map[string]any{"type": "object", "additionalProperties": map[string]any{"type": "integer", "minimum": 0}},
					"totalByDifficulty":   map[string]any{"type": "object", "additionalProperties": map[string]any{"type": "integer", "minimum": 0}},
				},
			},
			"exportDate": map[string]any{"type": "string"},
		},
	},
}

// BareCompletionSchema validates a backup that is just a completion map.
var BareCompletionSchema = &jsondoc.Schema{
	Name:       "progress-import-bare",
	Definition: completionSchema,
}

// ParseImport fully validates and decodes a backup document without touching
// any store. A document lacking a "completion" key is accepted when it is
// itself a completion map.
func ParseImport(raw []byte) (Export, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return Export{}, fmt.Errorf("%w: %v", ErrInvalidImport, err)
	}

	if _, ok := top["completion"]; !ok {
		var bare map[string]bool
		if err := jsondoc.Decode(BareCompletionSchema, raw, &bare); err != nil {
			return Export{}, fmt.Errorf("%w: %v", ErrInvalidImport, err)
		}
		return Export{Completion: bare}, nil
	}

	var e Export
	if err := jsondoc.Decode(ImportSchema, raw, &e); err != nil {
		return Export{}, fmt.Errorf("%w: %v", ErrInvalidImport, err)
	}
	if e.FormatVersion != "" {
		if !semver.IsValid(e.FormatVersion) {
			return Export{}, fmt.Errorf("%w: bad formatVersion %q", ErrInvalidImport, e.FormatVersion)
		}
		if semver.Major(e.FormatVersion) != semver.Major(FormatVersion) {
			return Export{}, fmt.Errorf("%w: unsupported formatVersion %s (want %s.x)",
				ErrInvalidImport, e.FormatVersion, semver.Major(FormatVersion))
		}
	}
	if e.Completion == nil {
		e.Completion = make(map[string]bool)
	}
	return e, nil
}
