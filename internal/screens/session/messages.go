package session

import (
	"github.com/abhisek/studyplan/internal/tracker"
)

// finishedMsg carries the recorded outcome once the last question has been
// advanced past.
type finishedMsg struct {
	outcome *tracker.Outcome
	err     error
}
