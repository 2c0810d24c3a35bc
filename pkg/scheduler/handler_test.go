package scheduler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/klokku/klokku-scheduler/internal/event_bus"
	"github.com/klokku/klokku-scheduler/internal/rest"
	"github.com/klokku/klokku-scheduler/pkg/appointment"
	"github.com/klokku/klokku-scheduler/pkg/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupHandlerTest(t *testing.T, existing ...appointment.Appointment) (*mux.Router, *appointment.ClientStub, *notify.Recorder) {
	t.Helper()
	client := appointment.NewClientStub(existing...)
	recorder := notify.NewRecorder()
	v := NewView(client, recorder, event_bus.NewEventBus())
	require.NoError(t, v.Load(t.Context()))
	h := NewHandler(v, NewCsvAgendaRenderer(nil), recorder.All)

	r := mux.NewRouter()
	r.HandleFunc("/api/scheduler/events", h.GetEvents).Methods("GET")
	r.HandleFunc("/api/scheduler/events.csv", h.ExportEvents).Methods("GET")
	r.HandleFunc("/api/scheduler/state", h.GetState).Methods("GET")
	r.HandleFunc("/api/scheduler/refresh", h.Refresh).Methods("POST")
	r.HandleFunc("/api/scheduler/date-click", h.DateClick).Methods("POST")
	r.HandleFunc("/api/scheduler/event/{eventId}/select", h.EventClick).Methods("POST")
	r.HandleFunc("/api/scheduler/draft", h.UpdateDraft).Methods("PUT")
	r.HandleFunc("/api/scheduler/create", h.Create).Methods("POST")
	r.HandleFunc("/api/scheduler/update", h.Update).Methods("POST")
	r.HandleFunc("/api/scheduler/selected", h.Delete).Methods("DELETE")
	r.HandleFunc("/api/scheduler/close", h.Close).Methods("POST")
	r.HandleFunc("/api/scheduler/notifications", h.GetNotifications).Methods("GET")
	return r, client, recorder
}

func doRequest(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeState(t *testing.T, w *httptest.ResponseRecorder) StateDTO {
	t.Helper()
	var state StateDTO
	require.NoError(t, json.NewDecoder(w.Body).Decode(&state))
	return state
}

func TestHandler_GetEvents(t *testing.T) {
	a := testAppointment("1", "Standup", baseTime, 15, "a@b.com")
	a.MeetLink = "https://meet.example.com/abc"
	r, _, _ := setupHandlerTest(t, a)

	w := doRequest(r, http.MethodGet, "/api/scheduler/events", "")

	assert.Equal(t, http.StatusOK, w.Code)
	var events []EventDTO
	require.NoError(t, json.NewDecoder(w.Body).Decode(&events))
	require.Len(t, events, 1)
	assert.Equal(t, "1", events[0].ID)
	assert.Equal(t, "Standup", events[0].Title)
	assert.True(t, baseTime.Equal(events[0].Start))
	assert.Equal(t, "https://meet.example.com/abc", events[0].ExtendedProps.MeetLink)
	assert.Equal(t, []appointment.Attendee{{Email: "a@b.com"}}, events[0].ExtendedProps.Attendees)
}

func TestHandler_ExportEvents(t *testing.T) {
	r, _, _ := setupHandlerTest(t, testAppointment("1", "Standup", baseTime, 15))

	w := doRequest(r, http.MethodGet, "/api/scheduler/events.csv", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "01/01/2024,10:00,10:15,00:15,Standup")
}

func TestHandler_CreateFlow(t *testing.T) {
	r, client, _ := setupHandlerTest(t)
	client.SetNextID(5)

	w := doRequest(r, http.MethodPost, "/api/scheduler/date-click", `{"date":"2024-01-01T10:00:00Z"}`)
	require.Equal(t, http.StatusOK, w.Code)
	state := decodeState(t, w)
	assert.True(t, state.IsModalOpen)
	require.NotNil(t, state.Modal)
	assert.Equal(t, "New Appointment", state.Modal.Title)
	assert.Equal(t, "30", state.Draft.Duration)

	w = doRequest(r, http.MethodPut, "/api/scheduler/draft", `{"title":"Planning","attendees":"a@b.com"}`)
	require.Equal(t, http.StatusOK, w.Code)
	state = decodeState(t, w)
	assert.Equal(t, "Planning", state.Draft.Title)
	assert.Equal(t, "30", state.Draft.Duration)

	w = doRequest(r, http.MethodPost, "/api/scheduler/create", "")
	require.Equal(t, http.StatusCreated, w.Code)
	state = decodeState(t, w)
	assert.False(t, state.IsModalOpen)
	assert.Nil(t, state.Modal)
	require.Len(t, state.Events, 1)
	assert.Equal(t, "5", state.Events[0].ID)
	assert.Equal(t, "Planning", state.Events[0].Title)

	w = doRequest(r, http.MethodGet, "/api/scheduler/notifications", "")
	var notifications []notify.Notification
	require.NoError(t, json.NewDecoder(w.Body).Decode(&notifications))
	require.Len(t, notifications, 1)
	assert.Equal(t, notify.LevelSuccess, notifications[0].Level)
	assert.Equal(t, "Appointment scheduled!", notifications[0].Message)
}

func TestHandler_Create_InvalidEmails(t *testing.T) {
	r, _, _ := setupHandlerTest(t)
	doRequest(r, http.MethodPost, "/api/scheduler/date-click", `{"date":"2024-01-01T10:00:00Z"}`)
	doRequest(r, http.MethodPut, "/api/scheduler/draft", `{"attendees":"a@b.com, bad"}`)

	w := doRequest(r, http.MethodPost, "/api/scheduler/create", "")

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var resp rest.ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "Invalid email(s): bad", resp.Details)
}

func TestHandler_Create_BackendError(t *testing.T) {
	r, client, _ := setupHandlerTest(t)
	client.SetCreateError(&appointment.APIError{Status: http.StatusBadRequest, Message: "Title is required"})
	doRequest(r, http.MethodPost, "/api/scheduler/date-click", `{"date":"2024-01-01T10:00:00Z"}`)

	w := doRequest(r, http.MethodPost, "/api/scheduler/create", "")

	assert.Equal(t, http.StatusBadGateway, w.Code)
	var resp rest.ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "Title is required", resp.Error)
}

func TestHandler_EditAndDeleteFlow(t *testing.T) {
	r, _, _ := setupHandlerTest(t,
		testAppointment("4", "Four", baseTime, 30, "a@b.com", "c@d.com"),
		testAppointment("5", "Five", baseTime.Add(time.Hour), 60),
	)

	w := doRequest(r, http.MethodPost, "/api/scheduler/event/4/select", "")
	require.Equal(t, http.StatusOK, w.Code)
	state := decodeState(t, w)
	assert.True(t, state.IsEditModalOpen)
	assert.Equal(t, "4", state.SelectedEventID)
	assert.Equal(t, DraftDTO{Title: "Four", Duration: "30", Attendees: "a@b.com, c@d.com"}, state.Draft)

	w = doRequest(r, http.MethodPut, "/api/scheduler/draft", `{"duration":"45"}`)
	require.Equal(t, http.StatusOK, w.Code)
	w = doRequest(r, http.MethodPost, "/api/scheduler/update", "")
	require.Equal(t, http.StatusOK, w.Code)
	state = decodeState(t, w)
	require.Len(t, state.Events, 2)
	assert.Equal(t, "4", state.Events[0].ID)
	assert.True(t, baseTime.Add(45*time.Minute).Equal(state.Events[0].End))

	doRequest(r, http.MethodPost, "/api/scheduler/event/4/select", "")
	w = doRequest(r, http.MethodDelete, "/api/scheduler/selected", "")
	require.Equal(t, http.StatusOK, w.Code)
	state = decodeState(t, w)
	require.Len(t, state.Events, 1)
	assert.Equal(t, "5", state.Events[0].ID)
}

func TestHandler_EventClick_Unknown(t *testing.T) {
	r, _, _ := setupHandlerTest(t)

	w := doRequest(r, http.MethodPost, "/api/scheduler/event/99/select", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandler_DraftWithoutModal(t *testing.T) {
	r, _, _ := setupHandlerTest(t)

	w := doRequest(r, http.MethodPut, "/api/scheduler/draft", `{"title":"x"}`)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestHandler_DateClick_BadBody(t *testing.T) {
	r, _, _ := setupHandlerTest(t)

	assert.Equal(t, http.StatusBadRequest, doRequest(r, http.MethodPost, "/api/scheduler/date-click", `{`).Code)
	assert.Equal(t, http.StatusBadRequest, doRequest(r, http.MethodPost, "/api/scheduler/date-click", `{}`).Code)
}

func TestHandler_Close(t *testing.T) {
	r, _, _ := setupHandlerTest(t)
	doRequest(r, http.MethodPost, "/api/scheduler/date-click", `{"date":"2024-01-01"}`)

	w := doRequest(r, http.MethodPost, "/api/scheduler/close", "")

	require.Equal(t, http.StatusOK, w.Code)
	state := decodeState(t, w)
	assert.False(t, state.IsModalOpen)
	assert.Nil(t, state.Modal)
}

func TestHandler_Refresh_Failure(t *testing.T) {
	r, client, recorder := setupHandlerTest(t, testAppointment("1", "One", baseTime, 30))
	client.SetListError(&appointment.APIError{Status: http.StatusUnauthorized, Message: "Failed to fetch events"})

	w := doRequest(r, http.MethodPost, "/api/scheduler/refresh", "")

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, []string{"Failed to fetch events"}, recorder.Errors())

	w = doRequest(r, http.MethodGet, "/api/scheduler/events", "")
	var events []EventDTO
	require.NoError(t, json.NewDecoder(w.Body).Decode(&events))
	assert.Len(t, events, 1)
}
