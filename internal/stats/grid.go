package stats

import "github.com/abhisek/studyplan/internal/curriculum"

// DayState classifies a schedule day.
type DayState string

const (
	DayCompleted DayState = "completed"
	DayPartial   DayState = "partial"
	DayPending   DayState = "pending"
	DayBuffer    DayState = "buffer"
	DayEmpty     DayState = "empty"
)

// DayCell is one day of the schedule grid.
type DayCell struct {
	Day       int      `json:"day"`
	State     DayState `json:"state"`
	Current   bool     `json:"current"`
	Completed int      `json:"completed"`
	Total     int      `json:"total"`
}

// Grid returns one cell per plan day.
func Grid(ix *curriculum.Index, c Completion, currentDay int) []DayCell {
	cells := make([]DayCell, ix.TotalDays())
	for i := range cells {
		day := i + 1
		cell := DayCell{Day: day, Current: day == currentDay}
		for _, e := range ix.TopicsOnDay(day) {
			cell.Total++
			if c.IsComplete(e.Topic.ID) {
				cell.Completed++
			}
		}

		switch {
		case cell.Total > 0 && cell.Completed == cell.Total:
			cell.State = DayCompleted
		case cell.Completed > 0:
			cell.State = DayPartial
		case cell.Total > 0:
			cell.State = DayPending
		case ix.IsBufferDay(day):
			cell.State = DayBuffer
		default:
			cell.State = DayEmpty
		}
		cells[i] = cell
	}
	return cells
}
