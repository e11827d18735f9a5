package questionbank

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func makeQuestions(prefix string, easy, medium, hard int) []Question {
	var qs []Question
	add := func(d Difficulty, n int) {
		for i := range n {
			qs = append(qs, Question{
				ID:                 fmt.Sprintf("%s-%s-%d", prefix, d, i),
				Difficulty:         d,
				Text:               fmt.Sprintf("%s %s question %d", prefix, d, i),
				Options:            []string{"a", "b", "c", "d"},
				CorrectOptionIndex: i % OptionCount,
			})
		}
	}
	add(Easy, easy)
	add(Medium, medium)
	add(Hard, hard)
	return qs
}

func TestPoolFor(t *testing.T) {
	b, err := New(Document{
		TopicQuestions: map[string]Pool{
			"rich":  {Questions: makeQuestions("rich", 5, 5, 5)},
			"short": {Questions: makeQuestions("short", 2, 4, 3)},
		},
		DefaultQuestions: Pool{Questions: makeQuestions("default", 4, 4, 4)},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	tests := []struct {
		topic        string
		wantFallback bool
		wantLen      int
	}{
		{"rich", false, 15},
		{"short", true, 12}, // 9 questions is below the minimum
		{"unknown", true, 12},
	}
	for _, tt := range tests {
		qs, fallback := b.PoolFor(tt.topic)
		if fallback != tt.wantFallback {
			t.Errorf("PoolFor(%q) fallback = %v, want %v", tt.topic, fallback, tt.wantFallback)
		}
		if len(qs) != tt.wantLen {
			t.Errorf("PoolFor(%q) len = %d, want %d", tt.topic, len(qs), tt.wantLen)
		}
	}

	if b.TopicCount("short") != 9 || b.DefaultCount() != 12 {
		t.Errorf("counts: short=%d default=%d", b.TopicCount("short"), b.DefaultCount())
	}
}

func TestNew_Invalid(t *testing.T) {
	bad := makeQuestions("x", 1, 0, 0)
	bad[0].CorrectOptionIndex = 7
	bad = append(bad, Question{Difficulty: "extreme", Text: "?", Options: []string{"a", "b"}})

	_, err := New(Document{DefaultQuestions: Pool{Questions: bad}})
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"out of range", "unknown difficulty", "want 4 options"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error missing %q:\n%v", want, err)
		}
	}
}

func TestParse_SchemaRejectsThreeOptions(t *testing.T) {
	raw := `{"defaultQuestions":{"questions":[{"difficulty":"easy","text":"q","options":["a","b","c"],"correctOptionIndex":0}]}}`
	if _, err := Parse([]byte(raw)); err == nil {
		t.Fatal("expected schema error for three options")
	}
}

func TestLoad_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "questions.yml")
	src := `topicQuestions:
  t1:
    questions:
      - difficulty: easy
        text: "2 + 2?"
        options: ["3", "4", "5", "6"]
        correctOptionIndex: 1
defaultQuestions:
  questions: []
`
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	b, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if b.TopicCount("t1") != 1 {
		t.Errorf("TopicCount(t1) = %d, want 1", b.TopicCount("t1"))
	}
	qs, _ := b.PoolFor("t1")
	if len(qs) != 0 {
		t.Errorf("expected empty default pool for undersized topic, got %d", len(qs))
	}
}

func TestCorrectText(t *testing.T) {
	q := Question{Options: []string{"w", "x", "y", "z"}, CorrectOptionIndex: 2}
	if q.CorrectText() != "y" {
		t.Errorf("CorrectText() = %q", q.CorrectText())
	}
}
