package dbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/godbus/dbus/v5"
	"golang.org/x/time/rate"

	"github.com/jmylchreest/notistack/internal/model"
)

// notifyRule selects Notify calls addressed to the notification object.
const notifyRule = "type='method_call',interface='" + DBusInterface +
	"',member='Notify',path='" + DBusPath + "'"

// ErrTransportLost is wrapped by IngestErrors raised after the bus
// connection went away.
var ErrTransportLost = errors.New("bus transport lost")

// IngestError is a fatal ingestion failure. The monitor does not reconnect.
type IngestError struct {
	Op  string
	Err error
}

func (e *IngestError) Error() string {
	return fmt.Sprintf("ingest %s: %v", e.Op, e.Err)
}

func (e *IngestError) Unwrap() error {
	return e.Err
}

// Publisher receives every successfully decoded notification.
type Publisher interface {
	Publish(n *model.Notification)
}

// MonitorStats counts what the monitor has seen.
type MonitorStats struct {
	Received  uint64
	Published uint64
	Dropped   uint64
}

// Monitor passively observes D-Bus notification traffic without claiming ownership.
// This allows running alongside another notification daemon (like dunst).
type Monitor struct {
	logger     *slog.Logger
	bufferSize int
	warnLimit  *rate.Limiter

	received   atomic.Uint64
	published  atomic.Uint64
	dropped    atomic.Uint64
	suppressed atomic.Uint64
}

// NewMonitor creates a new notification monitor.
func NewMonitor(logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{
		logger:     logger,
		bufferSize: 100,
		// A misbehaving client can send malformed calls in a tight loop.
		warnLimit: rate.NewLimiter(rate.Every(time.Second), 5),
	}
}

// Stats returns a snapshot of the monitor counters.
func (m *Monitor) Stats() MonitorStats {
	return MonitorStats{
		Received:  m.received.Load(),
		Published: m.published.Load(),
		Dropped:   m.dropped.Load(),
	}
}

// Run subscribes to Notify traffic on a private session bus connection and
// publishes every decoded notification to sink until ctx is cancelled.
// It returns nil on cancellation and an *IngestError if the bus
// subscription cannot be set up or the connection is lost.
func (m *Monitor) Run(ctx context.Context, sink Publisher) error {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return &IngestError{Op: "connect", Err: err}
	}
	defer conn.Close()

	if err := m.subscribe(conn); err != nil {
		return &IngestError{Op: "subscribe", Err: err}
	}

	// Eavesdrop also captures method replies, so it is only switched on
	// once the subscription call above has returned.
	ch := make(chan *dbus.Message, m.bufferSize)
	conn.Eavesdrop(ch)

	err = m.loop(ctx, ch, conn.Context().Done(), sink)

	stats := m.Stats()
	m.logger.Info("D-Bus monitor stopped",
		"received", stats.Received,
		"published", stats.Published,
		"dropped", stats.Dropped)
	return err
}

// subscribe turns conn into a monitor for Notify calls, falling back to an
// eavesdropping match rule on buses without the Monitoring interface.
func (m *Monitor) subscribe(conn *dbus.Conn) error {
	err := conn.BusObject().Call(
		"org.freedesktop.DBus.Monitoring.BecomeMonitor",
		0,
		[]string{notifyRule},
		uint32(0),
	).Err
	if err == nil {
		m.logger.Info("started D-Bus monitor using BecomeMonitor")
		return nil
	}

	m.logger.Warn("BecomeMonitor not available, trying AddMatch", "error", err)

	err = conn.BusObject().Call(
		"org.freedesktop.DBus.AddMatch",
		0,
		notifyRule+",eavesdrop='true'",
	).Err
	if err != nil {
		return fmt.Errorf("failed to add match rule (eavesdrop may require permissions): %w", err)
	}

	m.logger.Info("started D-Bus monitor using AddMatch with eavesdrop")
	return nil
}

// loop drains msgs until ctx is cancelled or the transport goes away.
// Each message is decoded and published before the next one is taken.
func (m *Monitor) loop(ctx context.Context, msgs <-chan *dbus.Message, lost <-chan struct{}, sink Publisher) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-lost:
			if ctx.Err() != nil {
				return nil
			}
			return &IngestError{Op: "receive", Err: ErrTransportLost}
		case msg, ok := <-msgs:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return &IngestError{Op: "receive", Err: ErrTransportLost}
			}
			m.handle(msg, sink)
		}
	}
}

func (m *Monitor) handle(msg *dbus.Message, sink Publisher) {
	if !isNotifyCall(msg) {
		return
	}
	m.received.Add(1)

	n, err := DecodeMessage(msg)
	if err != nil {
		m.dropped.Add(1)
		m.warnDecode(msg, err)
		return
	}

	m.logger.Debug("captured notification",
		"app", n.AppName,
		"summary", n.Summary,
		"id", n.ID)

	sink.Publish(n)
	m.published.Add(1)
}

func (m *Monitor) warnDecode(msg *dbus.Message, err error) {
	if !m.warnLimit.Allow() {
		m.suppressed.Add(1)
		return
	}
	sender, _ := msg.Headers[dbus.FieldSender].Value().(string)
	m.logger.Warn("dropping undecodable Notify call",
		"sender", sender,
		"error", err,
		"suppressed", m.suppressed.Swap(0))
}

func isNotifyCall(msg *dbus.Message) bool {
	if msg == nil || msg.Type != dbus.TypeMethodCall {
		return false
	}
	if iface, _ := msg.Headers[dbus.FieldInterface].Value().(string); iface != DBusInterface {
		return false
	}
	if member, _ := msg.Headers[dbus.FieldMember].Value().(string); member != "Notify" {
		return false
	}
	path, _ := msg.Headers[dbus.FieldPath].Value().(dbus.ObjectPath)
	return path == DBusPath
}
