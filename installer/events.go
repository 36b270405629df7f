package installer

import (
	"context"
	"fmt"
	"sync"
)

// EventKind tags an Event. Engine kinds are emitted by the worker; intent
// kinds are sent by the presentation layer.
type EventKind int

const (
	// Engine status.
	EventProgress EventKind = iota
	EventStageChanged
	EventFailed
	EventAborted
	EventCompleted

	// User intents.
	EventNextPage
	EventPrevPage
	EventDirPick
	EventToggleVariant
	EventToggleOptionalAssets
	EventToggleVolume
	EventInstallStart
	EventAbortRequest
	EventClose
	EventOpenLink
)

var eventKindNames = map[EventKind]string{
	EventProgress:             "ProgressUpdate",
	EventStageChanged:         "StageChanged",
	EventFailed:               "Failed",
	EventAborted:              "Aborted",
	EventCompleted:            "Completed",
	EventNextPage:             "RequestNextPage",
	EventPrevPage:             "RequestPrevPage",
	EventDirPick:              "RequestDirPick",
	EventToggleVariant:        "ToggleVariant",
	EventToggleOptionalAssets: "ToggleOptionalAssets",
	EventToggleVolume:         "ToggleVolume",
	EventInstallStart:         "RequestInstallStart",
	EventAbortRequest:         "RequestAbort",
	EventClose:                "RequestClose",
	EventOpenLink:             "RequestOpenLink",
}

func (k EventKind) String() string {
	if name, ok := eventKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

// Engine reports whether the kind is emitted by the install worker.
func (k EventKind) Engine() bool {
	return k <= EventCompleted
}

// Terminal reports whether the kind ends a pipeline run.
func (k EventKind) Terminal() bool {
	return k == EventFailed || k == EventAborted || k == EventCompleted
}

// LinkKind selects which external page RequestOpenLink opens.
type LinkKind int

const (
	LinkCredits LinkKind = iota
	LinkChangelog
)

func (k LinkKind) String() string {
	switch k {
	case LinkCredits:
		return "credits"
	case LinkChangelog:
		return "changelog"
	default:
		return "unknown"
	}
}

// Event is an immutable message flowing to the controller. Only the fields
// relevant to Kind are set. Run is the worker run number for engine events
// and zero for intents.
type Event struct {
	Kind     EventKind
	Run      uint64
	Stage    StageID
	Fraction float64
	Link     LinkKind
}

func (e Event) String() string {
	switch e.Kind {
	case EventProgress:
		return fmt.Sprintf("%s(%.3f) run=%d", e.Kind, e.Fraction, e.Run)
	case EventStageChanged:
		return fmt.Sprintf("%s(%s) run=%d", e.Kind, e.Stage, e.Run)
	case EventOpenLink:
		return fmt.Sprintf("%s(%s)", e.Kind, e.Link)
	}
	if e.Kind.Engine() {
		return fmt.Sprintf("%s run=%d", e.Kind, e.Run)
	}
	return e.Kind.String()
}

// ProgressEvent builds a ProgressUpdate event.
func ProgressEvent(run uint64, fraction float64) Event {
	return Event{Kind: EventProgress, Run: run, Fraction: fraction}
}

// StageEvent builds a StageChanged event.
func StageEvent(run uint64, stage StageID) Event {
	return Event{Kind: EventStageChanged, Run: run, Stage: stage}
}

// FailedEvent builds the Failed terminal event.
func FailedEvent(run uint64) Event { return Event{Kind: EventFailed, Run: run} }

// AbortedEvent builds the Aborted terminal event.
func AbortedEvent(run uint64) Event { return Event{Kind: EventAborted, Run: run} }

// CompletedEvent builds the Completed terminal event.
func CompletedEvent(run uint64) Event { return Event{Kind: EventCompleted, Run: run} }

// Intent builds a payload-free user intent.
func Intent(kind EventKind) Event { return Event{Kind: kind} }

// OpenLinkIntent builds a RequestOpenLink intent.
func OpenLinkIntent(kind LinkKind) Event { return Event{Kind: EventOpenLink, Link: kind} }

// EventQueue is an unbounded multi-producer, single-consumer queue.
// Send never blocks; Recv blocks until an event is available.
type EventQueue struct {
	mu     sync.Mutex
	items  []Event
	closed bool
	notify chan struct{}
}

// NewEventQueue creates an empty queue.
func NewEventQueue() *EventQueue {
	return &EventQueue{notify: make(chan struct{}, 1)}
}

// Send appends ev to the queue. Events sent after Close are dropped.
func (q *EventQueue) Send(ev Event) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.items = append(q.items, ev)
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// Recv returns the oldest event, blocking until one is sent, ctx is done,
// or the queue is closed and drained.
func (q *EventQueue) Recv(ctx context.Context) (Event, error) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			ev := q.items[0]
			q.items[0] = Event{}
			q.items = q.items[1:]
			q.mu.Unlock()
			return ev, nil
		}
		closed := q.closed
		q.mu.Unlock()

		if closed {
			return Event{}, ErrQueueClosed
		}

		select {
		case <-q.notify:
		case <-ctx.Done():
			return Event{}, ctx.Err()
		}
	}
}

// Close stops accepting events. Pending events can still be received.
func (q *EventQueue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// Len returns the number of pending events.
func (q *EventQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
