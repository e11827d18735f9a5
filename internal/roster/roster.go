// Package roster loads the list of learners and the content each one studies.
package roster

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/abhisek/studyplan/internal/jsondoc"
)

// ErrUnknownUser is returned when a user id is not in the roster.
var ErrUnknownUser = errors.New("unknown user")

// User selects which curriculum, question bank and progress namespace is active.
type User struct {
	ID             string `json:"id"`
	DisplayName    string `json:"displayName"`
	Icon           string `json:"icon,omitempty"`
	CurriculumFile string `json:"curriculumFile"`
	QuestionFile   string `json:"questionFile"`
	TotalDays      int    `json:"totalDays,omitempty"`
}

// Document is the on-disk shape of a roster source.
type Document struct {
	Users []User `json:"users"`
}

// Schema validates a roster source document.
var Schema = &jsondoc.Schema{
	Name: "roster",
	Definition: map[string]any{
		"type":     "object",
		"required": []any{"users"},
		"properties": map[string]any{
			"users": map[string]any{
				"type":     "array",
				"minItems": 1,
				"items": map[string]any{
					"type":     "object",
					"required": []any{"id", "displayName", "curriculumFile", "questionFile"},
					"properties": map[string]any{
						// Ids become storage key prefixes.
						"id":             map[string]any{"type": "string", "pattern": "^[A-Za-z0-9-]+$"},
						"displayName":    map[string]any{"type": "string"},
						"icon":           map[string]any{"type": "string"},
						"curriculumFile": map[string]any{"type": "string", "minLength": 1},
						"questionFile":   map[string]any{"type": "string", "minLength": 1},
						"totalDays":      map[string]any{"type": "integer", "minimum": 1},
					},
				},
			},
		},
	},
}

// Roster is the loaded list of users.
type Roster struct {
	users []User
}

// Load reads a roster document from path. Relative content paths inside it
// are resolved against the roster's directory.
func Load(path string) (*Roster, error) {
	var doc Document
	if err := jsondoc.DecodeFile(Schema, path, &doc); err != nil {
		return nil, fmt.Errorf("load roster: %w", err)
	}
	base := filepath.Dir(path)
	for i := range doc.Users {
		doc.Users[i].CurriculumFile = resolve(base, doc.Users[i].CurriculumFile)
		doc.Users[i].QuestionFile = resolve(base, doc.Users[i].QuestionFile)
	}
	return New(doc)
}

// New validates doc and builds a Roster.
func New(doc Document) (*Roster, error) {
	seen := make(map[string]bool, len(doc.Users))
	for _, u := range doc.Users {
		if seen[u.ID] {
			return nil, fmt.Errorf("roster: duplicate user ID %q", u.ID)
		}
		seen[u.ID] = true
	}
	return &Roster{users: doc.Users}, nil
}

// Users returns every user in roster order.
func (r *Roster) Users() []User { return r.users }

// Get looks up a user by id.
func (r *Roster) Get(id string) (User, error) {
	for _, u := range r.users {
		if u.ID == id {
			return u, nil
		}
	}
	return User{}, fmt.Errorf("%w: %q", ErrUnknownUser, id)
}

func resolve(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}
