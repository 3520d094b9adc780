package notification

import (
	"time"

	"github.com/fastygo/studytracker/domain"
)

// Clock supplies the reference date of a run.
type Clock interface {
	Today() domain.Date
}

// SystemClock reads wall time in a single configured location (time.Local when nil).
type SystemClock struct {
	Location *time.Location
}

func (c SystemClock) Today() domain.Date {
	loc := c.Location
	if loc == nil {
		loc = time.Local
	}
	return domain.DateOf(time.Now().In(loc))
}

// FixedClock always reports the same date.
type FixedClock domain.Date

func (c FixedClock) Today() domain.Date {
	return domain.Date(c)
}
