package event_bus

import "time"

const (
	AppointmentsLoadedEvent EventType = "appointment.loaded"
	AppointmentCreatedEvent EventType = "appointment.created"
	AppointmentUpdatedEvent EventType = "appointment.updated"
	AppointmentDeletedEvent EventType = "appointment.deleted"
	NotificationRaisedEvent EventType = "notification.raised"
)

type AppointmentsLoaded struct {
	Count int
}

type AppointmentCreated struct {
	ID    string
	Title string
	Start time.Time
	End   time.Time
}

type AppointmentUpdated struct {
	ID    string
	Title string
	Start time.Time
	End   time.Time
}

type AppointmentDeleted struct {
	ID string
}

// NotificationRaised carries a user facing message. Level is "success" or "error".
type NotificationRaised struct {
	Level   string
	Message string
}
