package physics

import (
	"log"

	"gopkg.in/eapache/queue.v1"
)

type EventKind int

const (
	// the body's force integration callback is due
	EVENT_FORCE_INTEGRATION EventKind = iota
	// the body's state sync callback is due
	EVENT_BODY_STATE
	// a body shape entered or left an area shape
	EVENT_BODY_MONITOR
	// an area shape entered or left an area shape
	EVENT_AREA_MONITOR
)

var eventKindNames = [...]string{"force_integration", "body_state", "body_monitor", "area_monitor"}

func (k EventKind) String() string {
	if k < 0 || int(k) >= len(eventKindNames) {
		return "unknown"
	}
	return eventKindNames[k]
}

// MonitorEvent describes one shape entering or leaving one area shape.
type MonitorEvent struct {
	Status      MonitorStatus
	Object      RID
	InstanceID  uint64
	ObjectShape int
	AreaShape   int
}

// Event is a callback a step made due. Events are delivered by
// DispatchEvents, outside of the step.
type Event struct {
	Kind EventKind
	Body RID
	Area RID

	// set for the monitor kinds
	Monitor MonitorEvent

	body *Body
	area *Area
}

// eventQueue is the FIFO of a space's undelivered events.
type eventQueue struct {
	q *queue.Queue
}

func newEventQueue() eventQueue {
	return eventQueue{q: queue.New()}
}

func (e *eventQueue) add(ev Event) {
	e.q.Add(ev)
}

func (e *eventQueue) len() int {
	return e.q.Length()
}

func (e *eventQueue) pop() Event {
	return e.q.Remove().(Event)
}

// pending copies the queued events in order, leaving them queued.
func (e *eventQueue) pending() []Event {
	n := e.q.Length()
	if n == 0 {
		return nil
	}
	events := make([]Event, n)
	for i := 0; i < n; i++ {
		events[i] = e.q.Get(i).(Event)
	}
	return events
}

// PendingEvents lists the events DispatchEvents would deliver.
func (space *Space) PendingEvents() []Event {
	return space.events.pending()
}

// DispatchEvents calls the callbacks the last steps made due, oldest
// first, and returns how many were called. Events of objects that left the
// space since are dropped. It is refused while the space is stepping.
func (space *Space) DispatchEvents() (int, error) {
	if space.locked {
		log.Println("DispatchEvents:", ErrSpaceLocked)
		return 0, ErrSpaceLocked
	}
	called := 0
	for space.events.len() > 0 {
		ev := space.events.pop()
		switch ev.Kind {
		case EVENT_FORCE_INTEGRATION:
			if ev.body.space == space && ev.body.forceIntegrationCallback != nil {
				ev.body.forceIntegrationCallback(&ev.body.directState)
				called++
			}
		case EVENT_BODY_STATE:
			if ev.body.space == space && ev.body.stateCallback != nil {
				ev.body.stateCallback(&ev.body.directState)
				called++
			}
		case EVENT_BODY_MONITOR:
			if ev.area.space == space && ev.area.monitorCallback != nil {
				ev.area.monitorCallback(ev.Monitor)
				called++
			}
		case EVENT_AREA_MONITOR:
			if ev.area.space == space && ev.area.areaMonitorCallback != nil {
				ev.area.areaMonitorCallback(ev.Monitor)
				called++
			}
		}
	}
	return called, nil
}
