package notify

import (
	"context"
	"time"

	"github.com/klokku/klokku-scheduler/internal/event_bus"
	log "github.com/sirupsen/logrus"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

type Notification struct {
	ID      string    `json:"id"`
	Level   Level     `json:"level"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

// Notifier surfaces one-line messages to the user.
type Notifier interface {
	Success(ctx context.Context, message string)
	Error(ctx context.Context, message string)
}

// BusNotifier publishes notifications on the event bus; delivery is up to
// whoever subscribes (see Feed and LogNotifications).
type BusNotifier struct {
	bus *event_bus.EventBus
}

func NewBusNotifier(bus *event_bus.EventBus) *BusNotifier {
	return &BusNotifier{bus: bus}
}

func (n *BusNotifier) Success(ctx context.Context, message string) {
	n.publish(ctx, LevelSuccess, message)
}

func (n *BusNotifier) Error(ctx context.Context, message string) {
	n.publish(ctx, LevelError, message)
}

func (n *BusNotifier) publish(ctx context.Context, level Level, message string) {
	// the request context may already be gone once the backend answered
	ctx = context.WithoutCancel(ctx)
	err := n.bus.Publish(event_bus.NewEvent(ctx, event_bus.NotificationRaisedEvent, event_bus.NotificationRaised{
		Level:   string(level),
		Message: message,
	}))
	if err != nil {
		log.Errorf("failed to deliver notification %q: %v", message, err)
	}
}

// LogNotifications writes every raised notification to the log.
func LogNotifications(bus *event_bus.EventBus) (unsubscribe func()) {
	return event_bus.SubscribeTyped(bus, event_bus.NotificationRaisedEvent,
		func(e event_bus.EventT[event_bus.NotificationRaised]) error {
			if Level(e.Data.Level) == LevelError {
				log.Warnf("notification: %s", e.Data.Message)
			} else {
				log.Infof("notification: %s", e.Data.Message)
			}
			return nil
		})
}
