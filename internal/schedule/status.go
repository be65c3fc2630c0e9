package schedule

import (
	"strings"

	"github.com/Shivanand-hulikatti/lesson-schedule/internal/model"
)

// StatusOf labels an occurrence from its backing Event, which may be nil.
// Cancellation wins over everything else; an Event is planned only when
// it has lessons and every one names a dance.
func StatusOf(e *model.Event) model.Status {
	if e == nil {
		return model.StatusUnplanned
	}
	if e.IsCancelled {
		return model.StatusCancelled
	}
	if len(e.Lessons) == 0 {
		return model.StatusUnplanned
	}
	for _, l := range e.Lessons {
		if strings.TrimSpace(l.DanceName()) == "" {
			return model.StatusUnplanned
		}
	}
	return model.StatusPlanned
}
