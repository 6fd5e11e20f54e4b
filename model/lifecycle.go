package model

import "time"

type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusClosed    Status = "closed"
)

// CanTransition reports whether a survey may move from its current status to
// the given one. The only legal moves are draft -> published -> closed;
// closed is terminal and nothing goes back to draft.
func (s Status) CanTransition(to Status) bool {
	switch {
	case s == StatusDraft && to == StatusPublished:
		return true
	case s == StatusPublished && to == StatusClosed:
		return true
	}
	return false
}

// Admissibility is derived at read time from status and scheduling bounds,
// never stored.
type Admissibility string

const (
	NotPublished Admissibility = "not_published"
	NotStarted   Admissibility = "not_started"
	Active       Admissibility = "active"
	Ended        Admissibility = "ended"
)

// Admissibility reports whether the survey currently accepts responses.
func (s *Survey) Admissibility(now time.Time) Admissibility {
	switch s.Status {
	case StatusDraft:
		return NotPublished
	case StatusClosed:
		return Ended
	}

	millis := now.UnixMilli()
	if s.StartDate != nil && millis < *s.StartDate {
		return NotStarted
	}
	if s.EndDate != nil && millis > *s.EndDate {
		return Ended
	}
	return Active
}
