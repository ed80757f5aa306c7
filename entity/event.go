package entity

import "time"

type EventState string

const (
	EventStateDraft     EventState = "draft"
	EventStatePublished EventState = "published"
	EventStateCancelled EventState = "cancelled"
)

// Event is owned by the event-management context and is read-only to the
// booking engine. MaxAttendees == nil means the event has no aggregate cap.
type Event struct {
	ID           string     `db:"event_id"`
	Name         string     `db:"name"`
	State        EventState `db:"state"`
	MaxAttendees *int       `db:"max_attendees"`
	MembersOnly  bool       `db:"members_only"`
	StartDate    time.Time  `db:"start_date"`
}
