package scheduler

import (
	"bytes"
	"encoding/csv"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/klokku/klokku-scheduler/pkg/appointment"
	log "github.com/sirupsen/logrus"
)

var agendaHeader = []string{"Date", "Start", "End", "Duration", "Title", "Attendees", "Meet link"}

type CsvAgendaRendererImpl struct {
	location *time.Location
}

// NewCsvAgendaRenderer renders times in loc; nil means UTC.
func NewCsvAgendaRenderer(loc *time.Location) *CsvAgendaRendererImpl {
	if loc == nil {
		loc = time.UTC
	}
	return &CsvAgendaRendererImpl{location: loc}
}

// RenderAgenda writes one row per appointment, ordered by start time.
func (r *CsvAgendaRendererImpl) RenderAgenda(appointments []appointment.Appointment) (string, error) {
	sorted := append([]appointment.Appointment(nil), appointments...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start)
	})

	data := make([][]string, 0, len(sorted)+1)
	data = append(data, agendaHeader)
	for _, a := range sorted {
		start := a.Start.In(r.location)
		end := a.End.In(r.location)
		data = append(data, []string{
			start.Format("02/01/2006"),
			start.Format("15:04"),
			end.Format("15:04"),
			durationToString(a.End.Sub(a.Start)),
			a.Title,
			strings.Join(a.AttendeeEmails(), " "),
			a.MeetLink,
		})
	}

	var b bytes.Buffer
	writer := csv.NewWriter(&b)
	for _, row := range data {
		err := writer.Write(row)
		if err != nil {
			log.Errorf("Error writing to csv: %v", err)
			return "", err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		log.Errorf("Error writing to csv: %v", err)
		return "", err
	}

	return b.String(), nil
}

func durationToString(duration time.Duration) string {
	hours := strconv.Itoa(int(duration.Hours()))
	if len(hours) == 1 {
		hours = "0" + hours
	}
	minutes := strconv.Itoa(int(duration.Minutes()) % 60)
	if len(minutes) == 1 {
		minutes = "0" + minutes
	}
	return hours + ":" + minutes
}
