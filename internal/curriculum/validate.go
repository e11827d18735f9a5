package curriculum

import (
	"fmt"
	"strings"
)

// ValidationError lists every structural problem found in a curriculum.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("curriculum validation failed:\n  %s", strings.Join(e.Problems, "\n  "))
}

// validate performs structural checks that a JSON Schema cannot express.
func validate(ix *Index) error {
	var errs []string

	subjectIDs := make(map[string]bool, len(ix.doc.Subjects))
	topicIDs := make(map[string]string)

	for _, s := range ix.doc.Subjects {
		if subjectIDs[s.ID] {
			errs = append(errs, fmt.Sprintf("duplicate subject ID: %q", s.ID))
		}
		subjectIDs[s.ID] = true

		unitIDs := make(map[string]bool, len(s.Units))
		for _, u := range s.Units {
			if unitIDs[u.ID] {
				errs = append(errs, fmt.Sprintf("subject %q: duplicate unit ID %q", s.ID, u.ID))
			}
			unitIDs[u.ID] = true

			for _, t := range u.Topics {
				if t.ID == "" {
					errs = append(errs, fmt.Sprintf("unit %q: topic with empty ID", u.ID))
					continue
				}
				if owner, ok := topicIDs[t.ID]; ok {
					errs = append(errs, fmt.Sprintf("duplicate topic ID %q (units %q and %q)", t.ID, owner, u.ID))
				}
				topicIDs[t.ID] = u.ID

				if t.Day < 1 || t.Day > ix.totalDays {
					errs = append(errs, fmt.Sprintf("topic %q: day %d outside 1..%d", t.ID, t.Day, ix.totalDays))
				}
			}
		}
	}

	for _, d := range ix.doc.Schedule.BufferDays {
		if d < 1 || d > ix.totalDays {
			errs = append(errs, fmt.Sprintf("buffer day %d outside 1..%d", d, ix.totalDays))
		}
	}

	if len(errs) > 0 {
		return &ValidationError{Problems: errs}
	}
	return nil
}
