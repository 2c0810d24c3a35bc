package notify

import (
	"sync"

	"github.com/google/uuid"
	"github.com/klokku/klokku-scheduler/internal/event_bus"
	"github.com/klokku/klokku-scheduler/internal/utils"
)

// Feed keeps the most recent notifications so a widget can poll and show them
// as toasts.
type Feed struct {
	mu       sync.RWMutex
	items    []Notification
	capacity int
	clock    utils.Clock
}

func NewFeed(capacity int, clock utils.Clock) *Feed {
	if capacity < 1 {
		capacity = 1
	}
	return &Feed{
		items:    make([]Notification, 0, capacity),
		capacity: capacity,
		clock:    clock,
	}
}

// Attach subscribes the feed to notifications raised on bus.
func (f *Feed) Attach(bus *event_bus.EventBus) (unsubscribe func()) {
	return event_bus.SubscribeTyped(bus, event_bus.NotificationRaisedEvent,
		func(e event_bus.EventT[event_bus.NotificationRaised]) error {
			f.Add(Level(e.Data.Level), e.Data.Message)
			return nil
		})
}

func (f *Feed) Add(level Level, message string) Notification {
	n := Notification{
		ID:      uuid.NewString(),
		Level:   level,
		Message: message,
		Time:    f.clock.Now(),
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.items) == f.capacity {
		copy(f.items, f.items[1:])
		f.items = f.items[:len(f.items)-1]
	}
	f.items = append(f.items, n)
	return n
}

// Recent returns the kept notifications, oldest first.
func (f *Feed) Recent() []Notification {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]Notification(nil), f.items...)
}
