package curriculum

// Topic is the smallest unit of study content, scheduled on exactly one day.
type Topic struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Day       int      `json:"day"`
	Subtopics []string `json:"subtopics,omitempty"`
}

// Unit groups an ordered list of topics inside a subject.
type Unit struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Topics []Topic `json:"topics"`
}

// Subject is a top-level area of study.
type Subject struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	ShortName  string  `json:"shortName,omitempty"`
	Color      string  `json:"color,omitempty"`
	Priority   string  `json:"priority,omitempty"`
	TotalHours float64 `json:"totalHours,omitempty"`
	Units      []Unit  `json:"units"`
}

// Metadata describes the plan as a whole.
type Metadata struct {
	Title     string `json:"title,omitempty"`
	StartDate string `json:"startDate"`
}

// Schedule carries plan-wide scheduling hints.
type Schedule struct {
	// TotalDays is the plan length. Zero means "derive from the latest
	// scheduled day".
	TotalDays int `json:"totalDays,omitempty"`

	// BufferDays are catch-up days with no scheduled topics.
	BufferDays []int `json:"bufferDays,omitempty"`
}

// Document is the on-disk shape of a curriculum source.
type Document struct {
	Metadata Metadata  `json:"metadata"`
	Schedule Schedule  `json:"schedule,omitempty"`
	Subjects []Subject `json:"subjects"`
}

// Entry locates a topic within its unit and subject.
type Entry struct {
	Topic   *Topic
	Unit    *Unit
	Subject *Subject
}
