// Package monitor hosts the interactive context: the one goroutine that owns
// the poller, feeds the traffic counter and fans events out to listeners.
package monitor

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/antenna-status/exporter/modem"
	"github.com/antenna-status/exporter/poller"
	"github.com/antenna-status/exporter/traffic"
)

// ErrStopped is returned for commands sent after Run has returned.
var ErrStopped = errors.New("monitor: stopped")

// Command is a request from outside the interactive context.
type Command int

const (
	// CommandToggle starts polling when idle and stops it when running.
	CommandToggle Command = iota
	// CommandQuit stops polling and makes Run return.
	CommandQuit
)

// Report is handed to every listener, one per event.
type Report struct {
	Event poller.Event

	// Rates is the bandwidth in bits/s derived for an EventStatusReceived.
	// Nil when the modem sent no traffic data or the counter has no baseline yet.
	Rates *traffic.Statistics
}

// Listener receives reports on the monitor goroutine and must not block.
type Listener interface {
	Observe(Report)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(Report)

// Observe calls f(r).
func (f ListenerFunc) Observe(r Report) { f(r) }

// Config controls the poll session the monitor runs.
type Config struct {
	Host      string
	Interval  time.Duration
	AutoStart bool
}

// Monitor serializes everything that touches the poller.
type Monitor struct {
	cfg       Config
	poller    *poller.Poller
	counter   *traffic.Counter
	log       *zap.Logger
	listeners []Listener

	inbox   chan Command
	done    chan struct{}
	running atomic.Bool

	pci        *changeObserver[int64]
	mode       *changeObserver[modem.NetworkMode]
	hasBattery *changeObserver[bool]
	hasTemp    *changeObserver[bool]
	hasModel   *changeObserver[bool]
}

// New creates a monitor. Listeners are called in the order given.
func New(p *poller.Poller, counter *traffic.Counter, cfg Config, log *zap.Logger, listeners ...Listener) *Monitor {
	if log == nil {
		log = zap.NewNop()
	}
	if counter == nil {
		counter = traffic.NewCounter(nil)
	}
	if cfg.Interval <= 0 {
		cfg.Interval = poller.DefaultInterval
	}
	return &Monitor{
		cfg:        cfg,
		poller:     p,
		counter:    counter,
		log:        log.Named("monitor"),
		listeners:  listeners,
		inbox:      make(chan Command),
		done:       make(chan struct{}),
		pci:        newChangeObserver[int64]("pci"),
		mode:       newChangeObserver[modem.NetworkMode]("mode"),
		hasBattery: newChangeObserver[bool]("battery"),
		hasTemp:    newChangeObserver[bool]("device_temperature"),
		hasModel:   newChangeObserver[bool]("model"),
	}
}

// Running reports whether polling is active. Safe to call from any goroutine.
func (m *Monitor) Running() bool {
	return m.running.Load()
}

// Toggle asks the monitor to start or stop polling.
func (m *Monitor) Toggle(ctx context.Context) error {
	return m.send(ctx, CommandToggle)
}

// Quit asks the monitor to stop polling and return from Run.
func (m *Monitor) Quit(ctx context.Context) error {
	return m.send(ctx, CommandQuit)
}

func (m *Monitor) send(ctx context.Context, cmd Command) error {
	select {
	case m.inbox <- cmd:
		return nil
	case <-m.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done is closed once Run has returned.
func (m *Monitor) Done() <-chan struct{} {
	return m.done
}

// Run drains poller events and commands until Quit or ctx is cancelled.
// The poller is always stopped before Run returns.
func (m *Monitor) Run(ctx context.Context) {
	defer close(m.done)

	if m.cfg.AutoStart {
		m.start()
	}

	for {
		select {
		case ev := <-m.poller.Events():
			m.handle(ev)

		case cmd := <-m.inbox:
			switch cmd {
			case CommandToggle:
				m.toggle()
			case CommandQuit:
				m.shutdown()
				return
			}

		case <-ctx.Done():
			m.shutdown()
			return
		}
	}
}

func (m *Monitor) toggle() {
	if m.poller.Running() {
		m.stop()
		return
	}
	m.start()
}

func (m *Monitor) start() {
	if err := m.poller.Start(m.cfg.Host, m.cfg.Interval); err != nil {
		m.log.Error("cannot start polling", zap.Error(err))
		return
	}
	m.log.Info("connecting to modem", zap.String("host", m.cfg.Host))
	m.running.Store(true)
	m.notify(Report{Event: poller.Event{Kind: poller.EventPollToggled, Running: true, Host: m.cfg.Host, Time: time.Now()}})
}

func (m *Monitor) stop() {
	m.poller.Stop()
	m.running.Store(false)
	m.notify(Report{Event: poller.Event{Kind: poller.EventPollToggled, Running: false, Host: m.cfg.Host, Time: time.Now()}})
}

func (m *Monitor) shutdown() {
	if m.poller.Running() {
		m.stop()
	}
	m.log.Info("shutting down")
	m.notify(Report{Event: poller.Event{Kind: poller.EventShutdown, Time: time.Now()}})
}

func (m *Monitor) handle(ev poller.Event) {
	report := Report{Event: ev}

	switch ev.Kind {
	case poller.EventFetchRequested:
		m.poller.Handle(ev)
	case poller.EventStatusReceived:
		report.Rates = m.rates(ev.Status)
		m.logStatus(ev.Status, report.Rates)
	case poller.EventFetchFailed:
		m.log.Warn("poll failed",
			zap.String("host", ev.Host),
			zap.String("error", ev.ErrKind.Label()),
			zap.Error(ev.Err),
		)
	}

	m.notify(report)
}

// rates turns the status traffic into bits/s. Cumulative totals go through the
// counter, absolute rates are passed on unchanged.
func (m *Monitor) rates(status *modem.Status) *traffic.Statistics {
	if status == nil || status.Traffic == nil {
		return nil
	}

	switch status.TrafficMode {
	case traffic.Absolute:
		rates := *status.Traffic
		return &rates
	case traffic.Cumulative:
		rates, ok := m.counter.Update(*status.Traffic)
		if !ok {
			return nil
		}
		return &rates
	default:
		return nil
	}
}

func (m *Monitor) logStatus(status *modem.Status, rates *traffic.Statistics) {
	if status == nil {
		return
	}

	m.log.Debug("status received\n" + status.String())

	m.mode.observe(m.log, status.Mode)
	if lte, ok := status.Signal.(modem.LTESignal); ok {
		m.pci.observe(m.log, lte.PCI)
	}
	m.hasBattery.observe(m.log, status.Battery != nil)
	m.hasTemp.observe(m.log, status.Temperature != nil)
	m.hasModel.observe(m.log, status.Device.Model != "")

	var absent []string
	if status.PLMN == "" {
		absent = append(absent, "plmn")
	}
	if status.Battery == nil {
		absent = append(absent, "battery")
	}
	if status.Temperature == nil {
		absent = append(absent, "temperature")
	}
	if status.Device.Model == "" {
		absent = append(absent, "model")
	}
	if status.Traffic == nil {
		absent = append(absent, "traffic")
	}
	if len(absent) > 0 {
		m.log.Debug("fields not shown", zap.Strings("fields", absent))
	}

	if rates != nil {
		m.log.Info("bandwidth",
			zap.String("download", traffic.FormatBandwidth(rates.Download)),
			zap.String("upload", traffic.FormatBandwidth(rates.Upload)),
		)
	}
}

func (m *Monitor) notify(r Report) {
	for _, l := range m.listeners {
		l.Observe(r)
	}
}
