package view

import "github.com/klokku/klokku-scheduler/pkg/appointment"

const (
	FieldTitle     = "title"
	FieldDuration  = "duration"
	FieldAttendees = "attendees"
)

const (
	ActionCancel   = "cancel"
	ActionSchedule = "schedule"
	ActionUpdate   = "update"
	ActionDelete   = "delete"
)

type ActionKind string

const (
	ActionSubmit ActionKind = "submit"
	ActionButton ActionKind = "button"
)

type Action struct {
	ID    string     `json:"id"`
	Label string     `json:"label"`
	Kind  ActionKind `json:"kind"`
}

// Modal describes an overlay with a title, a form and its buttons. Closing it
// (the ✖ in the corner, or Cancel) triggers CloseAction.
type Modal struct {
	Title       string   `json:"title"`
	Fields      []Field  `json:"fields"`
	Actions     []Action `json:"actions"`
	CloseAction string   `json:"closeAction"`
}

func DraftFields(d appointment.Draft) []Field {
	return []Field{
		NewField(FieldTitle, "Title", FieldText, d.Title),
		NewField(FieldDuration, "Duration (minutes)", FieldNumber, d.Duration),
		NewField(FieldAttendees, "Attendees (comma separated emails)", FieldText, d.Attendees),
	}
}

func CreateModal(d appointment.Draft) Modal {
	return Modal{
		Title:  "New Appointment",
		Fields: DraftFields(d),
		Actions: []Action{
			{ID: ActionCancel, Label: "Cancel", Kind: ActionButton},
			{ID: ActionSchedule, Label: "Schedule", Kind: ActionSubmit},
		},
		CloseAction: ActionCancel,
	}
}

func EditModal(d appointment.Draft) Modal {
	return Modal{
		Title:  "Edit Appointment",
		Fields: DraftFields(d),
		Actions: []Action{
			{ID: ActionDelete, Label: "Delete", Kind: ActionButton},
			{ID: ActionCancel, Label: "Cancel", Kind: ActionButton},
			{ID: ActionUpdate, Label: "Update", Kind: ActionSubmit},
		},
		CloseAction: ActionCancel,
	}
}
