// Package session is the screen that runs one ten-question topic quiz.
package session

import (
	"context"
	"fmt"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/studyplan/internal/curriculum"
	"github.com/abhisek/studyplan/internal/quiz"
	"github.com/abhisek/studyplan/internal/router"
	"github.com/abhisek/studyplan/internal/screen"
	"github.com/abhisek/studyplan/internal/screens/actions"
	"github.com/abhisek/studyplan/internal/screens/summary"
	"github.com/abhisek/studyplan/internal/tracker"
	"github.com/abhisek/studyplan/internal/ui/components"
	"github.com/abhisek/studyplan/internal/ui/layout"
)

// SessionScreen presents the questions of a quiz one at a time.
type SessionScreen struct {
	tracker *tracker.Tracker
	session *quiz.Session
	entry   curriculum.Entry

	choice   components.MultiChoice
	answer   *quiz.Answer
	pending  bool
	finished bool
	err      error
}

var _ screen.Screen = (*SessionScreen)(nil)

// Start begins a quiz for topicID and pushes the quiz screen, or flashes
// why the quiz could not start.
func Start(t *tracker.Tracker, topicID string) tea.Cmd {
	return start(t, topicID, router.Push)
}

func start(t *tracker.Tracker, topicID string, nav func(screen.Screen) tea.Cmd) tea.Cmd {
	s, err := t.StartQuiz(topicID)
	if err != nil {
		return actions.Fail(err)
	}
	return nav(New(t, s))
}

// New wraps an already started session.
func New(t *tracker.Tracker, s *quiz.Session) *SessionScreen {
	sc := &SessionScreen{tracker: t, session: s}
	if ws, err := t.Active(); err == nil {
		sc.entry, _ = ws.Curriculum.Topic(s.TopicID)
	}
	sc.loadQuestion()
	return sc
}

func (s *SessionScreen) loadQuestion() {
	item, err := s.session.Current()
	if err != nil {
		s.err = err
		return
	}
	s.answer = nil
	s.choice = components.NewMultiChoice(item.Question.Text, item.Options, item.CorrectIndex)
}

func (s *SessionScreen) Title() string {
	if s.entry.Topic != nil {
		return "Quiz: " + s.entry.Topic.Title
	}
	return "Quiz"
}

func (s *SessionScreen) Init() tea.Cmd { return nil }

// Leave abandons the quiz when the learner backs out before finishing.
func (s *SessionScreen) Leave() {
	if !s.finished {
		s.tracker.AbandonQuiz()
	}
}

func (s *SessionScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case finishedMsg:
		s.pending = false
		if msg.err != nil {
			s.err = msg.err
			return s, actions.Fail(msg.err)
		}
		s.finished = true
		retry := func() tea.Cmd { return start(s.tracker, s.session.TopicID, router.Replace) }
		return s, router.Replace(summary.New(*msg.outcome, retry))

	case tea.KeyMsg:
		if s.err != nil || s.finished || s.pending {
			return s, nil
		}
		if s.answer != nil {
			switch msg.String() {
			case "enter", "space", "n":
				return s, s.advance()
			}
			return s, nil
		}

		s.choice, _ = s.choice.Update(msg)
		if s.choice.Submitted {
			a, err := s.tracker.Answer(s.choice.ChosenIndex)
			if err != nil {
				s.err = err
				return s, actions.Fail(err)
			}
			s.answer = &a
		}
	}
	return s, nil
}

// advance moves to the next question. The last advance records the quiz,
// which touches storage, so it runs as a command.
func (s *SessionScreen) advance() tea.Cmd {
	if st := s.session.Snapshot(); st.Index < st.Len-1 {
		if _, err := s.tracker.Next(context.Background()); err != nil {
			s.err = err
			return actions.Fail(err)
		}
		s.loadQuestion()
		return nil
	}
	s.pending = true
	t := s.tracker
	return func() tea.Msg {
		out, err := t.Next(context.Background())
		if err == nil && out == nil {
			err = fmt.Errorf("quiz did not finish")
		}
		return finishedMsg{outcome: out, err: err}
	}
}

func (s *SessionScreen) KeyHints() []layout.KeyHint {
	if s.answer != nil {
		return []layout.KeyHint{
			{Key: "Enter", Description: "Next"},
			{Key: "Esc", Description: "Quit quiz"},
		}
	}
	return []layout.KeyHint{
		{Key: "↑↓/A-D", Description: "Choose"},
		{Key: "Enter", Description: "Answer"},
		{Key: "Esc", Description: "Quit quiz"},
	}
}
