// Package trackertest builds a Tracker over small on-disk fixtures.
package trackertest

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/studyplan/internal/curriculum"
	"github.com/abhisek/studyplan/internal/questionbank"
	"github.com/abhisek/studyplan/internal/roster"
	"github.com/abhisek/studyplan/internal/store"
	"github.com/abhisek/studyplan/internal/tracker"
)

// Start is the plan start date used by the fixture curriculum.
const Start = "2026-03-02"

// Env is a ready Tracker plus the pieces tests poke at.
type Env struct {
	Tracker *tracker.Tracker
	Store   *store.Store
	Roster  *roster.Roster
	Dir     string

	mu        sync.Mutex
	now       time.Time
	celebrate []tracker.Celebration
}

// Now returns the fixture clock.
func (e *Env) Now() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.now
}

// Advance moves the fixture clock forward.
func (e *Env) Advance(d time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.now = e.now.Add(d)
}

// Celebrations returns every notification received so far.
func (e *Env) Celebrations() []tracker.Celebration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]tracker.Celebration(nil), e.celebrate...)
}

// Curriculum is the fixture plan: day 1 has m1 and s1, day 2 has m2, day 3
// has s2, and day 4 is a buffer day.
func Curriculum() curriculum.Document {
	return curriculum.Document{
		Metadata: curriculum.Metadata{Title: "Fixture Plan", StartDate: Start},
		Schedule: curriculum.Schedule{TotalDays: 5, BufferDays: []int{4}},
		Subjects: []curriculum.Subject{
			{
				ID: "math", Name: "Mathematics", ShortName: "MA", Priority: "high", TotalHours: 40,
				Units: []curriculum.Unit{{ID: "alg", Name: "Algebra", Topics: []curriculum.Topic{
					{ID: "m1", Title: "Linear equations", Day: 1},
					{ID: "m2", Title: "Quadratics", Day: 2},
				}}},
			},
			{
				ID: "sci", Name: "Science", ShortName: "SC", Priority: "medium", TotalHours: 30,
				Units: []curriculum.Unit{{ID: "phy", Name: "Physics", Topics: []curriculum.Topic{
					{ID: "s1", Title: "Kinematics", Day: 1},
					{ID: "s2", Title: "Dynamics", Day: 3},
				}}},
			},
		},
	}
}

// Questions builds n questions per difficulty with ids prefixed by prefix.
// The correct option is always "right".
func Questions(prefix string, easy, medium, hard int) []questionbank.Question {
	var out []questionbank.Question
	add := func(d questionbank.Difficulty, n int) {
		for i := 0; i < n; i++ {
			out = append(out, questionbank.Question{
				ID:                 fmt.Sprintf("%s-%s-%d", prefix, d, i),
				Difficulty:         d,
				Text:               fmt.Sprintf("%s %s question %d", prefix, d, i),
				Options:            []string{"right", "wrong a", "wrong b", "wrong c"},
				CorrectOptionIndex: 0,
			})
		}
	}
	add(questionbank.Easy, easy)
	add(questionbank.Medium, medium)
	add(questionbank.Hard, hard)
	return out
}

// Bank gives m1 its own pool and leaves every other topic on the default.
func Bank() questionbank.Document {
	return questionbank.Document{
		TopicQuestions: map[string]questionbank.Pool{
			"m1": {Questions: Questions("m1", 4, 5, 4)},
			"m2": {Questions: Questions("m2", 1, 1, 1)},
		},
		DefaultQuestions: questionbank.Pool{Questions: Questions("default", 3, 4, 3)},
	}
}

// WriteContent writes the fixture roster, curriculum and questions into dir
// and returns the roster path.
func WriteContent(t testing.TB, dir string) string {
	t.Helper()
	write := func(name string, v any) {
		raw, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			t.Fatalf("encode %s: %v", name, err)
		}
		if err := os.WriteFile(filepath.Join(dir, name), raw, 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	write("curriculum.json", Curriculum())
	write("questions.json", Bank())
	write("users.json", roster.Document{Users: []roster.User{
		{ID: "alice", DisplayName: "Alice", Icon: "A", CurriculumFile: "curriculum.json", QuestionFile: "questions.json"},
		{ID: "bob", DisplayName: "Bob", CurriculumFile: "curriculum.json", QuestionFile: "questions.json"},
	}})
	return filepath.Join(dir, "users.json")
}

// New builds an Env with no active user. The clock starts on day 2 of the
// plan. mutate may adjust the options before the Tracker is built.
func New(t testing.TB, mutate func(*tracker.Options)) *Env {
	t.Helper()

	dir := t.TempDir()
	r, err := roster.Load(WriteContent(t, dir))
	if err != nil {
		t.Fatalf("load roster: %v", err)
	}
	st, err := store.Open("file:" + uuid.NewString() + "?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	start, err := curriculum.ParseDate(Start)
	if err != nil {
		t.Fatalf("parse start: %v", err)
	}

	env := &Env{Store: st, Roster: r, Dir: dir, now: start.Add(24*time.Hour + 10*time.Hour)}
	opts := tracker.Options{
		Store:             st,
		Roster:            r,
		AllowManualToggle: true,
		Clock:             env.Now,
		Rand:              rand.New(rand.NewPCG(1, 2)),
		Notifier: tracker.NotifierFunc(func(c tracker.Celebration) {
			env.mu.Lock()
			env.celebrate = append(env.celebrate, c)
			env.mu.Unlock()
		}),
	}
	if mutate != nil {
		mutate(&opts)
	}
	env.Tracker = tracker.New(opts)
	return env
}
