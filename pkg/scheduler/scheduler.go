package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/klokku/klokku-scheduler/internal/event_bus"
	"github.com/klokku/klokku-scheduler/pkg/appointment"
	"github.com/klokku/klokku-scheduler/pkg/notify"
	"github.com/klokku/klokku-scheduler/pkg/view"
	log "github.com/sirupsen/logrus"
)

const (
	msgScheduled = "Appointment scheduled!"
	msgUpdated   = "Appointment updated!"
	msgDeleted   = "Appointment deleted!"
)

var (
	ErrNoOpenModal   = errors.New("no appointment form is open")
	ErrEventNotFound = errors.New("appointment not found")
	ErrUnknownField  = errors.New("unknown field")
)

// View owns the appointment list shown in the calendar, the form draft and
// which modal is open. Network calls are made without holding the lock, so a
// double submit results in two requests, just like in a browser.
type View struct {
	mu       sync.Mutex
	client   appointment.Client
	notifier notify.Notifier
	bus      *event_bus.EventBus

	events       []appointment.Appointment
	draft        appointment.Draft
	selectedDate string
	selected     *appointment.Appointment
	createOpen   bool
	editOpen     bool
}

// State is a point in time copy of the view.
type State struct {
	Events       []appointment.Appointment
	CreateOpen   bool
	EditOpen     bool
	Draft        appointment.Draft
	SelectedDate string
	SelectedID   appointment.ID
	Modal        *view.Modal
}

func NewView(client appointment.Client, notifier notify.Notifier, bus *event_bus.EventBus) *View {
	return &View{
		client:   client,
		notifier: notifier,
		bus:      bus,
		events:   make([]appointment.Appointment, 0),
		draft:    appointment.NewDraft(),
	}
}

// Load replaces the local list with the backend's. On failure the current list is kept.
func (v *View) Load(ctx context.Context) error {
	appointments, err := v.client.List(ctx)
	if err != nil {
		v.fail(ctx, "Error fetching appointments", err)
		return err
	}

	v.mu.Lock()
	v.events = appointments
	v.mu.Unlock()

	log.Debugf("Loaded %d appointments", len(appointments))
	v.publish(ctx, event_bus.AppointmentsLoadedEvent, event_bus.AppointmentsLoaded{Count: len(appointments)})
	return nil
}

// SelectDate opens the create modal for the clicked slot with a fresh draft.
func (v *View) SelectDate(date string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.selectedDate = date
	v.selected = nil
	v.draft = appointment.NewDraft()
	v.createOpen = true
	v.editOpen = false
}

// SelectEvent opens the edit modal for the clicked appointment, prefilled from it.
func (v *View) SelectEvent(id appointment.ID) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, e := range v.events {
		if e.ID == id {
			selected := e
			v.selected = &selected
			v.draft = appointment.DraftFrom(e)
			v.editOpen = true
			v.createOpen = false
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrEventNotFound, id)
}

// SetField applies input from one of the form fields to the draft.
func (v *View) SetField(name string, value string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.createOpen && !v.editOpen {
		return ErrNoOpenModal
	}
	switch name {
	case view.FieldTitle:
		v.draft.Title = value
	case view.FieldDuration:
		v.draft.Duration = value
	case view.FieldAttendees:
		v.draft.Attendees = value
	default:
		return fmt.Errorf("%w: %s", ErrUnknownField, name)
	}
	return nil
}

// Close closes whichever modal is open and discards the draft.
func (v *View) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.closeLocked()
}

func (v *View) closeLocked() {
	v.createOpen = false
	v.editOpen = false
	v.selected = nil
	v.draft = appointment.NewDraft()
}

// Create submits the create form. Malformed attendee emails abort it before
// anything is sent.
func (v *View) Create(ctx context.Context) error {
	v.mu.Lock()
	if !v.createOpen {
		v.mu.Unlock()
		return ErrNoOpenModal
	}
	draft, date := v.draft, v.selectedDate
	v.mu.Unlock()

	req, err := appointment.NewCreateRequest(draft, date)
	if err != nil {
		v.fail(ctx, "Error scheduling appointment", err)
		return err
	}

	created, err := v.client.Create(ctx, req)
	if err != nil {
		v.fail(ctx, "Error scheduling appointment", err)
		return err
	}

	v.mu.Lock()
	v.events = append(v.events, *created)
	v.closeLocked()
	v.mu.Unlock()

	v.notifier.Success(ctx, msgScheduled)
	v.publish(ctx, event_bus.AppointmentCreatedEvent, event_bus.AppointmentCreated{
		ID:    created.ID.String(),
		Title: created.Title,
		Start: created.Start,
		End:   created.End,
	})
	return nil
}

// Update submits the edit form as a full replace. The start time always comes
// from the appointment as it was when the modal opened.
func (v *View) Update(ctx context.Context) error {
	v.mu.Lock()
	if !v.editOpen || v.selected == nil {
		v.mu.Unlock()
		return ErrNoOpenModal
	}
	draft, original := v.draft, *v.selected
	v.mu.Unlock()

	req, err := appointment.NewUpdateRequest(draft, original)
	if err != nil {
		v.fail(ctx, "Error updating appointment", err)
		return err
	}

	updated, err := v.client.Update(ctx, original.ID, req)
	if err != nil {
		v.fail(ctx, "Error updating appointment", err)
		return err
	}
	replacement := *updated
	replacement.ID = original.ID

	v.mu.Lock()
	for i := range v.events {
		if v.events[i].ID == original.ID {
			v.events[i] = replacement
		}
	}
	v.closeLocked()
	v.mu.Unlock()

	v.notifier.Success(ctx, msgUpdated)
	v.publish(ctx, event_bus.AppointmentUpdatedEvent, event_bus.AppointmentUpdated{
		ID:    replacement.ID.String(),
		Title: replacement.Title,
		Start: replacement.Start,
		End:   replacement.End,
	})
	return nil
}

// Delete removes the appointment open in the edit modal.
func (v *View) Delete(ctx context.Context) error {
	v.mu.Lock()
	if !v.editOpen || v.selected == nil {
		v.mu.Unlock()
		return ErrNoOpenModal
	}
	id := v.selected.ID
	v.mu.Unlock()

	if err := v.client.Delete(ctx, id); err != nil {
		v.fail(ctx, "Error deleting appointment", err)
		return err
	}

	v.mu.Lock()
	kept := make([]appointment.Appointment, 0, len(v.events))
	for _, e := range v.events {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	v.events = kept
	v.closeLocked()
	v.mu.Unlock()

	v.notifier.Success(ctx, msgDeleted)
	v.publish(ctx, event_bus.AppointmentDeletedEvent, event_bus.AppointmentDeleted{ID: id.String()})
	return nil
}

func (v *View) Events() []appointment.Appointment {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]appointment.Appointment(nil), v.events...)
}

func (v *View) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()

	state := State{
		Events:       append([]appointment.Appointment(nil), v.events...),
		CreateOpen:   v.createOpen,
		EditOpen:     v.editOpen,
		Draft:        v.draft,
		SelectedDate: v.selectedDate,
	}
	if v.selected != nil {
		state.SelectedID = v.selected.ID
	}
	switch {
	case v.createOpen:
		modal := view.CreateModal(v.draft)
		state.Modal = &modal
	case v.editOpen:
		modal := view.EditModal(v.draft)
		state.Modal = &modal
	}
	return state
}

func (v *View) fail(ctx context.Context, operation string, err error) {
	log.Errorf("%s: %v", operation, err)
	v.notifier.Error(ctx, err.Error())
}

func (v *View) publish(ctx context.Context, eventType event_bus.EventType, data any) {
	if v.bus == nil {
		return
	}
	if err := v.bus.Publish(event_bus.NewEvent(context.WithoutCancel(ctx), eventType, data)); err != nil {
		log.Errorf("failed to publish %s: %v", eventType, err)
	}
}
