package appointment

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// TimestampLayout is the wire format used for computed timestamps: UTC with
// millisecond precision, e.g. 2024-01-01T10:30:00.000Z.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

const DefaultDuration = "30"

// maxDurationMinutes is the longest duration a time.Duration can hold.
const maxDurationMinutes = math.MaxInt64 / int64(time.Minute)

var (
	ErrInvalidDuration = errors.New("duration must be a positive whole number of minutes")
	ErrInvalidDate     = errors.New("invalid selected date")
)

// ID is the opaque identifier assigned by the backend. The backend may send it
// as a JSON number or string; both are kept in their literal text form.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or a number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string {
	return string(id)
}

type Attendee struct {
	Email          string `json:"email"`
	DisplayName    string `json:"displayName,omitempty"`
	ResponseStatus string `json:"responseStatus,omitempty"`
}

// Appointment is the display form of a backend appointment record.
type Appointment struct {
	ID        ID
	Title     string
	Start     time.Time
	End       time.Time
	MeetLink  string
	Attendees []Attendee
}

// DurationMinutes is the appointment length rounded to whole minutes.
func (a Appointment) DurationMinutes() int {
	return int(math.Round(a.End.Sub(a.Start).Minutes()))
}

func (a Appointment) AttendeeEmails() []string {
	emails := make([]string, 0, len(a.Attendees))
	for _, attendee := range a.Attendees {
		emails = append(emails, attendee.Email)
	}
	return emails
}

// Draft is the unvalidated form state used by the create and edit modals.
type Draft struct {
	Title     string `json:"title"`
	Duration  string `json:"duration"`
	Attendees string `json:"attendees"`
}

func NewDraft() Draft {
	return Draft{Duration: DefaultDuration}
}

// DraftFrom prefills a draft for editing an existing appointment.
func DraftFrom(a Appointment) Draft {
	return Draft{
		Title:     a.Title,
		Duration:  strconv.Itoa(a.DurationMinutes()),
		Attendees: strings.Join(a.AttendeeEmails(), ", "),
	}
}

func (d Draft) DurationMinutes() (int, error) {
	minutes, err := strconv.Atoi(strings.TrimSpace(d.Duration))
	if err != nil || minutes <= 0 || int64(minutes) > maxDurationMinutes {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, d.Duration)
	}
	return minutes, nil
}

// Request is the body of create and update calls.
type Request struct {
	Title     string   `json:"title"`
	Start     string   `json:"start"`
	End       string   `json:"end"`
	Attendees []string `json:"attendees"`
}

// NewCreateRequest builds the create body for an appointment starting at the
// clicked date. Attendee emails must all look like local@domain.tld.
func NewCreateRequest(d Draft, selectedDate string) (Request, error) {
	emails := SplitAttendees(d.Attendees)
	if invalid := InvalidEmails(emails); len(invalid) > 0 {
		return Request{}, &ValidationError{Invalid: invalid}
	}

	start, err := ParseTimestamp(selectedDate)
	if err != nil {
		return Request{}, fmt.Errorf("%w: %v", ErrInvalidDate, err)
	}
	minutes, err := d.DurationMinutes()
	if err != nil {
		return Request{}, err
	}

	end := start.Add(time.Duration(minutes) * time.Minute)
	if !end.After(start) {
		return Request{}, fmt.Errorf("%w: %q", ErrInvalidDuration, d.Duration)
	}

	return Request{
		Title:     d.Title,
		Start:     selectedDate,
		End:       FormatTimestamp(end),
		Attendees: emails,
	}, nil
}

// NewUpdateRequest builds the full replace body for original. The start time is
// always taken from original; only the length changes.
func NewUpdateRequest(d Draft, original Appointment) (Request, error) {
	emails := SplitAttendees(d.Attendees)
	minutes, err := d.DurationMinutes()
	if err != nil {
		return Request{}, err
	}

	end := original.Start.Add(time.Duration(minutes) * time.Minute)
	if !end.After(original.Start) {
		return Request{}, fmt.Errorf("%w: %q", ErrInvalidDuration, d.Duration)
	}

	return Request{
		Title:     d.Title,
		Start:     FormatTimestamp(original.Start),
		End:       FormatTimestamp(end),
		Attendees: emails,
	}, nil
}

func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	time.DateOnly,
}

// ParseTimestamp accepts ISO-8601 instants. Values without a zone offset are
// read as UTC.
func ParseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported timestamp %q", value)
}
