package appointment

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// ClientStub is an in-memory Client used by tests of the packages built on top of it.
type ClientStub struct {
	mu        sync.Mutex
	data      []Appointment
	nextID    int
	requests  []StubCall
	listErr   error
	createErr error
	updateErr error
	deleteErr error
}

// StubCall records one call made against the stub.
type StubCall struct {
	Method  string
	ID      ID
	Request Request
}

func NewClientStub(appointments ...Appointment) *ClientStub {
	return &ClientStub{
		data:   append([]Appointment(nil), appointments...),
		nextID: 1,
	}
}

func (c *ClientStub) List(ctx context.Context) ([]Appointment, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requests = append(c.requests, StubCall{Method: http.MethodGet})
	if c.listErr != nil {
		return nil, c.listErr
	}
	return append([]Appointment(nil), c.data...), nil
}

func (c *ClientStub) Create(ctx context.Context, req Request) (*Appointment, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requests = append(c.requests, StubCall{Method: http.MethodPost, Request: req})
	if c.createErr != nil {
		return nil, c.createErr
	}
	a, err := fromRequest(ID(strconv.Itoa(c.nextID)), req)
	c.nextID++
	if err != nil {
		return nil, err
	}
	c.data = append(c.data, a)
	return &a, nil
}

func (c *ClientStub) Update(ctx context.Context, id ID, req Request) (*Appointment, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requests = append(c.requests, StubCall{Method: http.MethodPut, ID: id, Request: req})
	if c.updateErr != nil {
		return nil, c.updateErr
	}
	for i := range c.data {
		if c.data[i].ID == id {
			a, err := fromRequest(id, req)
			if err != nil {
				return nil, err
			}
			a.MeetLink = c.data[i].MeetLink
			c.data[i] = a
			return &a, nil
		}
	}
	return nil, &APIError{Status: http.StatusNotFound, Message: "Appointment not found"}
}

func (c *ClientStub) Delete(ctx context.Context, id ID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requests = append(c.requests, StubCall{Method: http.MethodDelete, ID: id})
	if c.deleteErr != nil {
		return c.deleteErr
	}
	for i := range c.data {
		if c.data[i].ID == id {
			c.data = append(c.data[:i], c.data[i+1:]...)
			return nil
		}
	}
	return &APIError{Status: http.StatusNotFound, Message: fallbackDeleteMessage}
}

// SetNextID sets the id assigned to the next created appointment.
func (c *ClientStub) SetNextID(id int) { c.mu.Lock(); c.nextID = id; c.mu.Unlock() }

func (c *ClientStub) SetListError(err error)   { c.mu.Lock(); c.listErr = err; c.mu.Unlock() }
func (c *ClientStub) SetCreateError(err error) { c.mu.Lock(); c.createErr = err; c.mu.Unlock() }
func (c *ClientStub) SetUpdateError(err error) { c.mu.Lock(); c.updateErr = err; c.mu.Unlock() }
func (c *ClientStub) SetDeleteError(err error) { c.mu.Lock(); c.deleteErr = err; c.mu.Unlock() }

// Calls returns every call made so far, oldest first.
func (c *ClientStub) Calls() []StubCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]StubCall(nil), c.requests...)
}

func fromRequest(id ID, req Request) (Appointment, error) {
	start, err := ParseTimestamp(req.Start)
	if err != nil {
		return Appointment{}, err
	}
	end, err := ParseTimestamp(req.End)
	if err != nil {
		return Appointment{}, err
	}
	attendees := make([]Attendee, 0, len(req.Attendees))
	for _, email := range req.Attendees {
		attendees = append(attendees, Attendee{Email: email})
	}
	return Appointment{
		ID:        id,
		Title:     req.Title,
		Start:     start.In(time.UTC),
		End:       end.In(time.UTC),
		Attendees: attendees,
	}, nil
}
