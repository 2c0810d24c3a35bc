package scheduler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/klokku/klokku-scheduler/internal/rest"
	"github.com/klokku/klokku-scheduler/pkg/appointment"
	"github.com/klokku/klokku-scheduler/pkg/notify"
	"github.com/klokku/klokku-scheduler/pkg/view"
	log "github.com/sirupsen/logrus"
)

type AgendaRenderer interface {
	RenderAgenda(appointments []appointment.Appointment) (string, error)
}

// EventDTO is the shape the calendar widget consumes.
type EventDTO struct {
	ID            string           `json:"id"`
	Title         string           `json:"title"`
	Start         time.Time        `json:"start"`
	End           time.Time        `json:"end"`
	ExtendedProps ExtendedPropsDTO `json:"extendedProps"`
}

type ExtendedPropsDTO struct {
	MeetLink  string                 `json:"meetLink,omitempty"`
	Attendees []appointment.Attendee `json:"attendees"`
}

type DraftDTO struct {
	Title     string `json:"title"`
	Duration  string `json:"duration"`
	Attendees string `json:"attendees"`
}

type StateDTO struct {
	Events          []EventDTO  `json:"events"`
	IsModalOpen     bool        `json:"isModalOpen"`
	IsEditModalOpen bool        `json:"isEditModalOpen"`
	Draft           DraftDTO    `json:"draft"`
	SelectedDate    string      `json:"selectedDate,omitempty"`
	SelectedEventID string      `json:"selectedEventId,omitempty"`
	Modal           *view.Modal `json:"modal,omitempty"`
}

type dateClickRequest struct {
	Date string `json:"date"`
}

type draftPatchRequest struct {
	Title     *string `json:"title"`
	Duration  *string `json:"duration"`
	Attendees *string `json:"attendees"`
}

type Handler struct {
	view          *View
	renderer      AgendaRenderer
	notifications func() []notify.Notification
}

func NewHandler(view *View, renderer AgendaRenderer, notifications func() []notify.Notification) *Handler {
	return &Handler{view: view, renderer: renderer, notifications: notifications}
}

func (h *Handler) GetEvents(w http.ResponseWriter, r *http.Request) {
	rest.WriteJSON(w, http.StatusOK, toEventDTOs(h.view.Events()))
}

func (h *Handler) ExportEvents(w http.ResponseWriter, r *http.Request) {
	csv, err := h.renderer.RenderAgenda(h.view.Events())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="appointments.csv"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(csv)); err != nil {
		log.Errorf("failed to write agenda: %v", err)
	}
}

func (h *Handler) GetState(w http.ResponseWriter, r *http.Request) {
	rest.WriteJSON(w, http.StatusOK, toStateDTO(h.view.State()))
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.view.Load(r.Context()); err != nil {
		writeViewError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, toEventDTOs(h.view.Events()))
}

func (h *Handler) DateClick(w http.ResponseWriter, r *http.Request) {
	var req dateClickRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	if req.Date == "" {
		rest.WriteError(w, http.StatusBadRequest, "Missing date", "")
		return
	}
	h.view.SelectDate(req.Date)
	rest.WriteJSON(w, http.StatusOK, toStateDTO(h.view.State()))
}

func (h *Handler) EventClick(w http.ResponseWriter, r *http.Request) {
	eventId := mux.Vars(r)["eventId"]
	if err := h.view.SelectEvent(appointment.ID(eventId)); err != nil {
		writeViewError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, toStateDTO(h.view.State()))
}

func (h *Handler) UpdateDraft(w http.ResponseWriter, r *http.Request) {
	var req draftPatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	fields := []struct {
		name  string
		value *string
	}{
		{view.FieldTitle, req.Title},
		{view.FieldDuration, req.Duration},
		{view.FieldAttendees, req.Attendees},
	}
	for _, f := range fields {
		if f.value == nil {
			continue
		}
		if err := h.view.SetField(f.name, *f.value); err != nil {
			writeViewError(w, err)
			return
		}
	}
	rest.WriteJSON(w, http.StatusOK, toStateDTO(h.view.State()))
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if err := h.view.Create(r.Context()); err != nil {
		writeViewError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusCreated, toStateDTO(h.view.State()))
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	if err := h.view.Update(r.Context()); err != nil {
		writeViewError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, toStateDTO(h.view.State()))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.view.Delete(r.Context()); err != nil {
		writeViewError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, toStateDTO(h.view.State()))
}

func (h *Handler) Close(w http.ResponseWriter, r *http.Request) {
	h.view.Close()
	rest.WriteJSON(w, http.StatusOK, toStateDTO(h.view.State()))
}

func (h *Handler) GetNotifications(w http.ResponseWriter, r *http.Request) {
	notifications := make([]notify.Notification, 0)
	if h.notifications != nil {
		notifications = append(notifications, h.notifications()...)
	}
	rest.WriteJSON(w, http.StatusOK, notifications)
}

func writeViewError(w http.ResponseWriter, err error) {
	var validationErr *appointment.ValidationError
	var apiErr *appointment.APIError
	switch {
	case errors.Is(err, ErrNoOpenModal):
		rest.WriteError(w, http.StatusConflict, "No open appointment form", err.Error())
	case errors.Is(err, ErrEventNotFound):
		rest.WriteError(w, http.StatusNotFound, "Appointment not found", err.Error())
	case errors.Is(err, ErrUnknownField):
		rest.WriteError(w, http.StatusBadRequest, "Unknown field", err.Error())
	case errors.As(err, &validationErr),
		errors.Is(err, appointment.ErrInvalidDuration),
		errors.Is(err, appointment.ErrInvalidDate):
		rest.WriteError(w, http.StatusUnprocessableEntity, "Invalid appointment", err.Error())
	case errors.As(err, &apiErr):
		rest.WriteError(w, http.StatusBadGateway, apiErr.Message, "")
	default:
		rest.WriteError(w, http.StatusBadGateway, "Appointment service unavailable", err.Error())
	}
}

func toEventDTO(a appointment.Appointment) EventDTO {
	attendees := a.Attendees
	if attendees == nil {
		attendees = make([]appointment.Attendee, 0)
	}
	return EventDTO{
		ID:    a.ID.String(),
		Title: a.Title,
		Start: a.Start,
		End:   a.End,
		ExtendedProps: ExtendedPropsDTO{
			MeetLink:  a.MeetLink,
			Attendees: attendees,
		},
	}
}

func toEventDTOs(appointments []appointment.Appointment) []EventDTO {
	dtos := make([]EventDTO, 0, len(appointments))
	for _, a := range appointments {
		dtos = append(dtos, toEventDTO(a))
	}
	return dtos
}

func toStateDTO(s State) StateDTO {
	return StateDTO{
		Events:          toEventDTOs(s.Events),
		IsModalOpen:     s.CreateOpen,
		IsEditModalOpen: s.EditOpen,
		Draft: DraftDTO{
			Title:     s.Draft.Title,
			Duration:  s.Draft.Duration,
			Attendees: s.Draft.Attendees,
		},
		SelectedDate:    s.SelectedDate,
		SelectedEventID: s.SelectedID.String(),
		Modal:           s.Modal,
	}
}
