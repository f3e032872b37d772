// Package poller drives a modem client periodically on a background worker.
//
// A Poller is owned by a single goroutine: Start, Handle and Stop must not be
// called concurrently. The worker only reads the copy of host and interval taken
// when it was spawned, and talks back exclusively through the event channel.
package poller

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/antenna-status/exporter/modem"
)

// DefaultTick is the granularity at which a waiting worker notices cancellation.
const DefaultTick = 100 * time.Millisecond

var (
	ErrAlreadyRunning  = errors.New("poller: already running")
	ErrInvalidInterval = errors.New("poller: interval must be positive")
)

// Option configures a Poller.
type Option func(*Poller)

// WithTick sets the wait loop granularity.
func WithTick(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.tick = d
		}
	}
}

// WithBuffer sets the capacity of the event channel.
func WithBuffer(n int) Option {
	return func(p *Poller) {
		if n >= 0 {
			p.buffer = n
		}
	}
}

// Poller runs one fetch chain at a time: Idle -> Running -> Idle.
type Poller struct {
	client modem.Client
	log    *zap.Logger
	tick   time.Duration
	buffer int
	events chan Event

	running  bool
	host     string
	interval time.Duration
	chain    uuid.UUID
	cancel   chan struct{}
	done     chan struct{}
}

// New creates an idle Poller for client.
func New(client modem.Client, log *zap.Logger, opts ...Option) *Poller {
	if log == nil {
		log = zap.NewNop()
	}
	p := &Poller{
		client: client,
		log:    log.Named("poller"),
		tick:   DefaultTick,
		buffer: 16,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.events = make(chan Event, p.buffer)
	return p
}

// Events returns the stream the worker reports on.
func (p *Poller) Events() <-chan Event {
	return p.events
}

// Running reports whether a poll chain is active.
func (p *Poller) Running() bool {
	return p.running
}

// Interval returns the interval of the active chain.
func (p *Poller) Interval() time.Duration {
	return p.interval
}

// Host returns the host of the active chain.
func (p *Poller) Host() string {
	return p.host
}

// Chain returns the ID of the active chain, uuid.Nil when idle.
func (p *Poller) Chain() uuid.UUID {
	if !p.running {
		return uuid.Nil
	}
	return p.chain
}

// Start begins a new chain and issues the first fetch immediately.
func (p *Poller) Start(host string, interval time.Duration) error {
	if p.running {
		return ErrAlreadyRunning
	}
	if interval <= 0 {
		return ErrInvalidInterval
	}

	p.host = host
	p.interval = interval
	p.chain = uuid.New()
	p.cancel = make(chan struct{})
	p.running = true

	p.log.Info("polling started",
		zap.String("host", host),
		zap.Duration("interval", interval),
		zap.Stringer("chain", p.chain),
	)
	p.spawn()
	return nil
}

// Handle reacts to an event read from Events. It returns true when the event
// started the next fetch cycle; events from stopped chains are ignored.
func (p *Poller) Handle(ev Event) bool {
	if ev.Kind != EventFetchRequested || !p.running || ev.Chain != p.chain {
		return false
	}

	// the requesting worker exits right after its last send
	<-p.done
	p.spawn()
	return true
}

// Stop cancels the chain and blocks until its worker has exited. Events the
// worker left in the channel are discarded, so nothing of the stopped chain is
// observed afterwards. Stop on an idle Poller is a no-op.
func (p *Poller) Stop() {
	if !p.running {
		return
	}

	close(p.cancel)
	if p.done != nil {
		<-p.done
	}
	p.running = false
	p.done = nil

	discarded := p.drain()
	p.log.Info("polling stopped",
		zap.Stringer("chain", p.chain),
		zap.Int("discarded_events", discarded),
	)
}

func (p *Poller) drain() int {
	n := 0
	for {
		select {
		case <-p.events:
			n++
		default:
			return n
		}
	}
}

func (p *Poller) spawn() {
	w := &worker{
		client:   p.client,
		log:      p.log,
		tick:     p.tick,
		host:     p.host,
		interval: p.interval,
		chain:    p.chain,
		events:   p.events,
		cancel:   p.cancel,
		done:     make(chan struct{}),
	}
	p.done = w.done
	go w.run()
}

// worker executes one fetch followed by the wait for the next cycle.
type worker struct {
	client   modem.Client
	log      *zap.Logger
	tick     time.Duration
	host     string
	interval time.Duration
	chain    uuid.UUID
	events   chan<- Event
	cancel   <-chan struct{}
	done     chan struct{}
}

func (w *worker) run() {
	defer close(w.done)

	if !w.emit(Event{Kind: EventFetchIssued}) {
		return
	}

	status, err := w.client.Fetch(w.host)
	if err != nil {
		w.log.Debug("fetch failed", zap.String("host", w.host), zap.Error(err))
		if !w.emit(Event{Kind: EventFetchFailed, ErrKind: modem.KindOf(err), Err: err}) {
			return
		}
	} else {
		if !w.emit(Event{Kind: EventStatusReceived, Status: status}) {
			return
		}
		if !w.emit(Event{Kind: EventFetchSucceeded}) {
			return
		}
	}

	if w.wait() {
		w.emit(Event{Kind: EventFetchRequested})
	}
}

// wait returns true once interval has passed since the fetch completed,
// false when cancelled first.
func (w *worker) wait() bool {
	completed := time.Now()

	ticker := time.NewTicker(w.tick)
	defer ticker.Stop()

	for {
		if w.cancelled() {
			return false
		}
		if time.Since(completed) >= w.interval {
			return true
		}
		select {
		case <-w.cancel:
			return false
		case <-ticker.C:
		}
	}
}

func (w *worker) cancelled() bool {
	select {
	case <-w.cancel:
		return true
	default:
		return false
	}
}

// emit never blocks past cancellation.
func (w *worker) emit(ev Event) bool {
	if w.cancelled() {
		return false
	}

	ev.Chain = w.chain
	ev.Host = w.host
	ev.Time = time.Now()

	select {
	case w.events <- ev:
		return true
	case <-w.cancel:
		return false
	}
}
