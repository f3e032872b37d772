package poller

import (
	"time"

	"github.com/google/uuid"

	"github.com/antenna-status/exporter/modem"
)

// EventKind identifies a message on the event stream.
type EventKind int

const (
	// EventPollToggled reports that polling was started or stopped.
	EventPollToggled EventKind = iota
	// EventFetchIssued is emitted right before the worker calls the modem.
	EventFetchIssued
	// EventStatusReceived carries a fresh status snapshot.
	EventStatusReceived
	// EventFetchSucceeded follows EventStatusReceived.
	EventFetchSucceeded
	// EventFetchFailed carries the error kind of a failed fetch.
	EventFetchFailed
	// EventFetchRequested asks the owner to run the next cycle via Handle.
	EventFetchRequested
	// EventShutdown is the last event before the monitor exits.
	EventShutdown
)

func (k EventKind) String() string {
	switch k {
	case EventPollToggled:
		return "poll_toggled"
	case EventFetchIssued:
		return "fetch_issued"
	case EventStatusReceived:
		return "status_received"
	case EventFetchSucceeded:
		return "fetch_succeeded"
	case EventFetchFailed:
		return "fetch_failed"
	case EventFetchRequested:
		return "fetch_requested"
	case EventShutdown:
		return "shutdown"
	default:
		return "unknown"
	}
}

// Event is one message of the typed event stream.
type Event struct {
	Kind EventKind

	// Chain identifies the poll session that emitted the event.
	Chain uuid.UUID

	// Host the fetch was issued against
	Host string

	// Status is set for EventStatusReceived
	Status *modem.Status

	// ErrKind and Err are set for EventFetchFailed
	ErrKind modem.ErrorKind
	Err     error

	// Running is set for EventPollToggled
	Running bool

	Time time.Time
}
