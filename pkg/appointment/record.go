package appointment

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

var ErrMissingField = errors.New("missing field")

// ParseError reports why a backend record could not be normalized.
type ParseError struct {
	Field string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid appointment record: %s: %v", e.Field, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

type record struct {
	ID        ID                `json:"id"`
	Summary   string            `json:"summary"`
	Title     string            `json:"title"`
	Start     json.RawMessage   `json:"start"`
	End       json.RawMessage   `json:"end"`
	MeetLink  string            `json:"meetLink"`
	Attendees []json.RawMessage `json:"attendees"`
}

// eventDateTime is the nested time shape, {"dateTime": "..."} with an
// optional all-day {"date": "..."} form.
type eventDateTime struct {
	DateTime string `json:"dateTime"`
	Date     string `json:"date"`
}

// ParseRecord normalizes one backend record into the display form. It is the
// only place that knows about the flat and nested start/end shapes. The title
// is taken from summary, falling back to title.
//
// Records are backend-authoritative: a missing id or an end that is not after
// start is kept as sent.
func ParseRecord(data []byte) (Appointment, error) {
	return parseRecord(data, false)
}

// ParseUpdatedRecord normalizes the response of an update. Unlike list and
// create responses, its title is read from title first.
func ParseUpdatedRecord(data []byte) (Appointment, error) {
	return parseRecord(data, true)
}

func parseRecord(data []byte, titleFirst bool) (Appointment, error) {
	var r record
	if err := json.Unmarshal(data, &r); err != nil {
		return Appointment{}, &ParseError{Field: "record", Err: err}
	}

	start, err := parseTimeField("start", r.Start)
	if err != nil {
		return Appointment{}, err
	}
	end, err := parseTimeField("end", r.End)
	if err != nil {
		return Appointment{}, err
	}

	attendees, err := parseAttendees(r.Attendees)
	if err != nil {
		return Appointment{}, err
	}

	title := r.Summary
	if title == "" || (titleFirst && r.Title != "") {
		title = r.Title
	}

	return Appointment{
		ID:        r.ID,
		Title:     title,
		Start:     start,
		End:       end,
		MeetLink:  r.MeetLink,
		Attendees: attendees,
	}, nil
}

// ParseRecords normalizes a list response. Records that cannot be read are
// logged and skipped so the rest of the calendar still shows.
func ParseRecords(data []byte) ([]Appointment, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &ParseError{Field: "list", Err: err}
	}
	appointments := make([]Appointment, 0, len(raw))
	for i, item := range raw {
		a, err := ParseRecord(item)
		if err != nil {
			log.Warnf("Skipping appointment record %d: %v", i, err)
			continue
		}
		appointments = append(appointments, a)
	}
	return appointments, nil
}

func parseTimeField(field string, raw json.RawMessage) (time.Time, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return time.Time{}, &ParseError{Field: field, Err: ErrMissingField}
	}

	var value string
	switch raw[0] {
	case '"':
		if err := json.Unmarshal(raw, &value); err != nil {
			return time.Time{}, &ParseError{Field: field, Err: err}
		}
	case '{':
		var nested eventDateTime
		if err := json.Unmarshal(raw, &nested); err != nil {
			return time.Time{}, &ParseError{Field: field, Err: err}
		}
		value = nested.DateTime
		if value == "" {
			value = nested.Date
		}
	default:
		return time.Time{}, &ParseError{Field: field, Err: fmt.Errorf("unexpected value %s", raw)}
	}

	if strings.TrimSpace(value) == "" {
		return time.Time{}, &ParseError{Field: field, Err: ErrMissingField}
	}
	parsed, err := ParseTimestamp(value)
	if err != nil {
		return time.Time{}, &ParseError{Field: field, Err: err}
	}
	return parsed, nil
}

func parseAttendees(raw []json.RawMessage) ([]Attendee, error) {
	attendees := make([]Attendee, 0, len(raw))
	for _, item := range raw {
		item = bytes.TrimSpace(item)
		if len(item) == 0 || bytes.Equal(item, []byte("null")) {
			continue
		}
		if item[0] == '"' {
			var email string
			if err := json.Unmarshal(item, &email); err != nil {
				return nil, &ParseError{Field: "attendees", Err: err}
			}
			attendees = append(attendees, Attendee{Email: email})
			continue
		}
		var attendee Attendee
		if err := json.Unmarshal(item, &attendee); err != nil {
			return nil, &ParseError{Field: "attendees", Err: err}
		}
		attendees = append(attendees, attendee)
	}
	return attendees, nil
}
