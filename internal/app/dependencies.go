package app

import (
	"database/sql"

	"github.com/klokku/klokku-scheduler/internal/config"
	"github.com/klokku/klokku-scheduler/internal/event_bus"
	"github.com/klokku/klokku-scheduler/internal/utils"
	"github.com/klokku/klokku-scheduler/pkg/appointment"
	"github.com/klokku/klokku-scheduler/pkg/notify"
	"github.com/klokku/klokku-scheduler/pkg/scheduler"
	"github.com/klokku/klokku-scheduler/pkg/session"
	log "github.com/sirupsen/logrus"
)

const notificationFeedSize = 50

// Dependencies holds all services and handlers for the application.
type Dependencies struct {
	Clock    utils.Clock
	EventBus *event_bus.EventBus

	SessionStorage session.Storage
	Session        *session.Session
	SessionHandler *session.Handler

	AppointmentClient appointment.Client

	Notifier         notify.Notifier
	NotificationFeed *notify.Feed

	SchedulerView     *scheduler.View
	CsvAgendaRenderer *scheduler.CsvAgendaRendererImpl
	SchedulerHandler  *scheduler.Handler
}

// BuildDependencies initializes and wires all application services and handlers.
func BuildDependencies(db *sql.DB, cfg config.Application) *Dependencies {
	deps := &Dependencies{}

	deps.Clock = &utils.SystemClock{}
	deps.EventBus = event_bus.NewEventBus()

	deps.SessionStorage = session.NewStorage(db, deps.Clock)
	deps.Session = session.NewSession(deps.SessionStorage, cfg.Session.Key, deps.Clock)
	deps.SessionHandler = session.NewHandler(deps.Session)

	deps.AppointmentClient = appointment.NewClient(cfg.API, deps.Session)

	deps.Notifier = notify.NewBusNotifier(deps.EventBus)
	deps.NotificationFeed = notify.NewFeed(notificationFeedSize, deps.Clock)
	deps.NotificationFeed.Attach(deps.EventBus)
	notify.LogNotifications(deps.EventBus)
	subscribeAuditLog(deps.EventBus)

	deps.SchedulerView = scheduler.NewView(deps.AppointmentClient, deps.Notifier, deps.EventBus)
	deps.CsvAgendaRenderer = scheduler.NewCsvAgendaRenderer(nil)
	deps.SchedulerHandler = scheduler.NewHandler(deps.SchedulerView, deps.CsvAgendaRenderer, deps.NotificationFeed.Recent)

	return deps
}

func subscribeAuditLog(bus *event_bus.EventBus) {
	event_bus.SubscribeTyped(bus, event_bus.AppointmentsLoadedEvent, func(e event_bus.EventT[event_bus.AppointmentsLoaded]) error {
		log.Infof("Loaded %d appointments", e.Data.Count)
		return nil
	})
	event_bus.SubscribeTyped(bus, event_bus.AppointmentCreatedEvent, func(e event_bus.EventT[event_bus.AppointmentCreated]) error {
		log.Infof("Appointment %s created: %q %s - %s", e.Data.ID, e.Data.Title, e.Data.Start, e.Data.End)
		return nil
	})
	event_bus.SubscribeTyped(bus, event_bus.AppointmentUpdatedEvent, func(e event_bus.EventT[event_bus.AppointmentUpdated]) error {
		log.Infof("Appointment %s updated: %q %s - %s", e.Data.ID, e.Data.Title, e.Data.Start, e.Data.End)
		return nil
	})
	event_bus.SubscribeTyped(bus, event_bus.AppointmentDeletedEvent, func(e event_bus.EventT[event_bus.AppointmentDeleted]) error {
		log.Infof("Appointment %s deleted", e.Data.ID)
		return nil
	})
}
