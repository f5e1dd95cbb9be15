package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/abhidhakal/HReady-WebApp-sub001/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventLoggedIn         EventType = "session_logged_in"
	EventLoggedOut        EventType = "session_logged_out"
	EventSessionExpired   EventType = "session_expired"
	EventSessionCorrupted EventType = "session_corrupted"
	// EventForcedLogout is published by the API client when the backend rejects the session.
	EventForcedLogout     EventType = "session_forced_logout"
)

// AllSessionEvents lists every session lifecycle event type.
var AllSessionEvents = []EventType{
	EventLoggedIn,
	EventLoggedOut,
	EventSessionExpired,
	EventSessionCorrupted,
	EventForcedLogout,
}

// Event represents a session lifecycle change.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	SubjectID string      `json:"subject_id,omitempty"`
	Role      domain.Role `json:"role,omitempty"`
	Reason    string      `json:"reason,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// NewEvent stamps an event with an id and the current time.
func NewEvent(eventType EventType, subjectID string, role domain.Role, reason string) Event {
	return Event{
		Type:      eventType,
		SubjectID: subjectID,
		Role:      role,
		Reason:    reason,
	}.stamped()
}

func (e Event) stamped() Event {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	return e
}
