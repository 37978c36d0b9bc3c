// Package popup keeps the on-screen stack of notification popups.
//
// All stack state is owned by one thread. Public methods only post work to
// that owner through a Dispatcher; the lower-case operations they post are
// the only code that touches the stack.
package popup

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/jmylchreest/notistack/internal/broadcast"
	"github.com/jmylchreest/notistack/internal/model"
)

// Default geometry in pixels.
const (
	DefaultMargin = 20
	DefaultGap    = 10
	// DefaultFallbackHeight is used for items that have not been laid out yet.
	DefaultFallbackHeight = 60
)

// ItemID identifies one pushed item for its whole lifetime.
type ItemID uint64

// Geometry controls how the stack is laid out.
type Geometry struct {
	Margin         int
	Gap            int
	FallbackHeight int
}

// DefaultGeometry returns the default stack geometry.
func DefaultGeometry() Geometry {
	return Geometry{
		Margin:         DefaultMargin,
		Gap:            DefaultGap,
		FallbackHeight: DefaultFallbackHeight,
	}
}

// Timeouts are the auto-dismiss delays used when a notification asks for
// the server default. Zero means never.
type Timeouts struct {
	Low      time.Duration
	Normal   time.Duration
	Critical time.Duration
}

// For returns the delay for urgency u.
func (t Timeouts) For(u model.Urgency) time.Duration {
	switch u {
	case model.UrgencyLow:
		return t.Low
	case model.UrgencyCritical:
		return t.Critical
	default:
		return t.Normal
	}
}

// ClosedHandler is called on the owner after an item left the stack.
type ClosedHandler func(n *model.Notification, reason CloseReason)

// ActionHandler is called on the owner when the user invokes an action.
type ActionHandler func(n *model.Notification, key string)

// Receiver yields notifications in publish order.
type Receiver interface {
	Recv(ctx context.Context) (*model.Notification, error)
}

type entry struct {
	id    ItemID
	n     *model.Notification
	item  Item
	timer Timer
}

// Manager is the popup stack.
type Manager struct {
	renderer Renderer
	dispatch Dispatcher
	logger   *slog.Logger

	afterFunc func(time.Duration, func()) Timer
	onClosed  ClosedHandler
	onAction  ActionHandler

	// Owner-only state.
	entries  []*entry // insertion order, oldest first
	nextID   ItemID
	geometry Geometry
	timeouts Timeouts
	closed   bool

	count atomic.Int64
}

// NewManager creates a stack that renders through r and runs every
// operation via dispatch.
func NewManager(r Renderer, dispatch Dispatcher, geometry Geometry, timeouts Timeouts, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if geometry.FallbackHeight <= 0 {
		geometry.FallbackHeight = DefaultFallbackHeight
	}
	return &Manager{
		renderer:  r,
		dispatch:  dispatch,
		logger:    logger,
		afterFunc: afterFunc,
		geometry:  geometry,
		timeouts:  timeouts,
	}
}

// SetClosedHandler registers the callback run after an item is removed.
func (m *Manager) SetClosedHandler(fn ClosedHandler) {
	m.onClosed = fn
}

// SetActionHandler registers the callback run when an action is invoked.
func (m *Manager) SetActionHandler(fn ActionHandler) {
	m.onAction = fn
}

// Len returns the number of items on screen. Safe from any goroutine.
func (m *Manager) Len() int {
	return int(m.count.Load())
}

// Push shows n as the newest item.
func (m *Manager) Push(n *model.Notification) {
	m.dispatch(func() { m.push(n) })
}

// Remove dismisses the item with the given id. Unknown ids are ignored.
func (m *Manager) Remove(id ItemID) {
	m.dispatch(func() { m.remove(id, ReasonDismissed) })
}

// CloseBusID removes the item shown for a bus notification id.
func (m *Manager) CloseBusID(busID uint32) {
	m.dispatch(func() {
		if e := m.findBusID(busID); e != nil {
			m.remove(e.id, ReasonClosed)
		}
	})
}

// Relayout recomputes every item's position.
func (m *Manager) Relayout() {
	m.dispatch(m.relayout)
}

// Reconfigure swaps geometry and timeouts, then relays out. Timers already
// running keep their original delay.
func (m *Manager) Reconfigure(geometry Geometry, timeouts Timeouts) {
	m.dispatch(func() {
		if geometry.FallbackHeight <= 0 {
			geometry.FallbackHeight = m.geometry.FallbackHeight
		}
		m.geometry = geometry
		m.timeouts = timeouts
		m.relayout()
	})
}

// CloseAll destroys every item and stops accepting new ones.
func (m *Manager) CloseAll() {
	m.dispatch(m.closeAll)
}

// Run pushes every notification received from rx until ctx is cancelled
// or the source closes.
func (m *Manager) Run(ctx context.Context, rx Receiver) error {
	for {
		n, err := rx.Recv(ctx)
		if err != nil {
			var lagged *broadcast.LaggedError
			switch {
			case errors.As(err, &lagged):
				m.logger.Warn("popup stack lagged, notifications not shown", "missed", lagged.Missed)
				continue
			case errors.Is(err, broadcast.ErrClosed), ctx.Err() != nil:
				return nil
			default:
				return err
			}
		}
		m.Push(n)
	}
}

func (m *Manager) push(n *model.Notification) ItemID {
	if m.closed {
		return 0
	}

	if n.ReplacesID != 0 {
		if old := m.findBusID(n.ReplacesID); old != nil {
			m.logger.Debug("replacing popup", "bus_id", n.ReplacesID)
			m.drop(old, ReasonReplaced)
		}
	}

	img, err := ToNRGBA(n.Hints.ImageData)
	if err != nil {
		m.logger.Warn("showing popup without image", "id", n.ID, "error", err)
		img = nil
	}

	m.nextID++
	id := m.nextID

	item, err := m.renderer.Create(n, img, Callbacks{
		Dismiss: func() { m.dispatch(func() { m.remove(id, ReasonDismissed) }) },
		Resized: func() { m.dispatch(m.relayout) },
		Action:  func(key string) { m.dispatch(func() { m.invoke(id, key) }) },
	})
	if err != nil {
		m.logger.Error("failed to create popup", "id", n.ID, "app", n.AppName, "error", err)
		m.relayout()
		return 0
	}

	e := &entry{id: id, n: n, item: item}
	if d := m.timeoutFor(n); d > 0 {
		e.timer = m.afterFunc(d, func() {
			m.dispatch(func() { m.remove(id, ReasonExpired) })
		})
	}

	m.entries = append(m.entries, e)
	m.count.Store(int64(len(m.entries)))

	item.Show()
	m.relayout()

	m.logger.Debug("pushed popup", "id", n.ID, "item", id, "stack", len(m.entries))
	return id
}

func (m *Manager) remove(id ItemID, reason CloseReason) {
	for _, e := range m.entries {
		if e.id == id {
			m.drop(e, reason)
			m.relayout()
			return
		}
	}
}

// invoke reports an action on item id. Resident notifications stay on screen.
func (m *Manager) invoke(id ItemID, key string) {
	for _, e := range m.entries {
		if e.id != id {
			continue
		}
		m.logger.Debug("action invoked", "id", e.n.ID, "action", key)
		if m.onAction != nil {
			m.onAction(e.n, key)
		}
		if !e.n.Hints.Resident {
			m.remove(id, ReasonDismissed)
		}
		return
	}
}

// drop takes e off the stack without relaying out.
func (m *Manager) drop(e *entry, reason CloseReason) {
	for i, cur := range m.entries {
		if cur == e {
			m.entries = append(m.entries[:i], m.entries[i+1:]...)
			break
		}
	}
	m.count.Store(int64(len(m.entries)))

	if e.timer != nil {
		e.timer.Stop()
	}
	e.item.Destroy()

	m.logger.Debug("removed popup", "id", e.n.ID, "item", e.id, "reason", reason.String())
	if m.onClosed != nil {
		m.onClosed(e.n, reason)
	}
}

// relayout anchors the newest item at the margin and places each older one
// below its successor.
func (m *Manager) relayout() {
	offset := m.geometry.Margin
	for i := len(m.entries) - 1; i >= 0; i-- {
		e := m.entries[i]
		e.item.SetOffset(offset)

		h := e.item.Height()
		if h <= 0 {
			h = m.geometry.FallbackHeight
		}
		offset += h + m.geometry.Gap
	}
}

func (m *Manager) closeAll() {
	m.closed = true
	for _, e := range m.entries {
		if e.timer != nil {
			e.timer.Stop()
		}
		e.item.Destroy()
	}
	m.entries = nil
	m.count.Store(0)
}

func (m *Manager) findBusID(busID uint32) *entry {
	if busID == 0 {
		return nil
	}
	for _, e := range m.entries {
		if e.n.BusID == busID {
			return e
		}
	}
	return nil
}

// timeoutFor maps expire_timeout to a delay: positive values are
// milliseconds, 0 never expires, and negative values use the configured
// default for the urgency.
func (m *Manager) timeoutFor(n *model.Notification) time.Duration {
	switch {
	case n.ExpireTimeout > 0:
		return time.Duration(n.ExpireTimeout) * time.Millisecond
	case n.ExpireTimeout == 0:
		return 0
	default:
		return m.timeouts.For(n.Hints.Urgency)
	}
}
