package tracker

import (
	"github.com/abhisek/studyplan/internal/curriculum"
	"github.com/abhisek/studyplan/internal/progress"
	"github.com/abhisek/studyplan/internal/stats"
)

// TopicView is a topic with the learner's state attached.
type TopicView struct {
	curriculum.Entry
	Completed bool
	Attempts  int
	BestScore int
	HasScore  bool

	// OwnQuestions counts the questions written for this topic;
	// DefaultQuestions is the size of the general review pool it falls
	// back to when OwnQuestions is below questionbank.MinPoolSize.
	OwnQuestions     int
	DefaultQuestions int
}

// CurrentDay returns the active user's plan day.
func (t *Tracker) CurrentDay() (int, error) {
	ws, err := t.Active()
	if err != nil {
		return 0, err
	}
	return ws.currentDay(t), nil
}

func (ws *Workspace) currentDay(t *Tracker) int {
	ix := ws.Curriculum
	return stats.CurrentDay(ix.StartDate(), t.opts.Clock(), ix.TotalDays())
}

// Topics lists topics matching q. CurrentDay and IsComplete are filled in
// from the active user.
func (t *Tracker) Topics(q curriculum.Query) ([]TopicView, error) {
	ws, err := t.Active()
	if err != nil {
		return nil, err
	}
	q.CurrentDay = ws.currentDay(t)
	q.IsComplete = ws.Progress.IsComplete

	entries := ws.Curriculum.Select(q)
	out := make([]TopicView, 0, len(entries))
	for _, e := range entries {
		out = append(out, ws.topicView(e))
	}
	return out, nil
}

// Topic returns one topic by id.
func (t *Tracker) Topic(topicID string) (TopicView, error) {
	ws, err := t.Active()
	if err != nil {
		return TopicView{}, err
	}
	e, ok := ws.Curriculum.Topic(topicID)
	if !ok {
		return TopicView{}, ErrUnknownTopic
	}
	return ws.topicView(e), nil
}

func (ws *Workspace) topicView(e curriculum.Entry) TopicView {
	best, ok := ws.Progress.BestScore(e.Topic.ID)
	return TopicView{
		Entry:     e,
		Completed: ws.Progress.IsComplete(e.Topic.ID),
		Attempts:  len(ws.Progress.Attempts(e.Topic.ID)),
		BestScore: best,
		HasScore:  ok,

		OwnQuestions:     ws.Questions.TopicCount(e.Topic.ID),
		DefaultQuestions: ws.Questions.DefaultCount(),
	}
}

// Summary returns the dashboard numbers for the active user.
func (t *Tracker) Summary() (stats.Summary, error) {
	ws, err := t.Active()
	if err != nil {
		return stats.Summary{}, err
	}
	return stats.Summarize(ws.Curriculum, ws.Progress, t.opts.Clock()), nil
}

// Subjects returns per-subject completion.
func (t *Tracker) Subjects() ([]stats.SubjectCounts, error) {
	ws, err := t.Active()
	if err != nil {
		return nil, err
	}
	return stats.BySubject(ws.Curriculum, ws.Progress), nil
}

// Units returns per-unit completion within a subject.
func (t *Tracker) Units(subjectID string) ([]stats.UnitCounts, error) {
	ws, err := t.Active()
	if err != nil {
		return nil, err
	}
	return stats.ByUnit(ws.Curriculum, subjectID, ws.Progress), nil
}

// Grid returns the schedule grid for the active user.
func (t *Tracker) Grid() ([]stats.DayCell, error) {
	ws, err := t.Active()
	if err != nil {
		return nil, err
	}
	return stats.Grid(ws.Curriculum, ws.Progress, ws.currentDay(t)), nil
}

// Analytics returns quiz accuracy counters for the active user.
func (t *Tracker) Analytics() (progress.Analytics, error) {
	ws, err := t.Active()
	if err != nil {
		return progress.Analytics{}, err
	}
	return ws.Progress.Analytics(), nil
}

// Attempts returns a topic's attempt history.
func (t *Tracker) Attempts(topicID string) ([]progress.Attempt, error) {
	ws, err := t.Active()
	if err != nil {
		return nil, err
	}
	return ws.Progress.Attempts(topicID), nil
}
