package popup

import (
	"image"
	"time"

	"github.com/jmylchreest/notistack/internal/model"
)

// Callbacks are handed to a Renderer for one item. Both may be called from
// the owner thread only.
type Callbacks struct {
	// Dismiss is called when the user dismisses the item.
	Dismiss func()
	// Resized is called when the item's laid-out height may have changed.
	Resized func()
	// Action is called when the user picks one of the notification's actions.
	Action func(key string)
}

// Renderer creates on-screen items.
type Renderer interface {
	// Create builds a hidden item for n. img is nil when there is no
	// renderable image.
	Create(n *model.Notification, img *image.NRGBA, cb Callbacks) (Item, error)
}

// Item is one visual popup.
type Item interface {
	// Height returns the laid-out height in pixels, or 0 before the first
	// layout pass.
	Height() int
	// SetOffset positions the item px pixels from the anchor edge.
	SetOffset(px int)
	Show()
	Destroy()
}

// Dispatcher runs f on the single thread that owns the stack.
type Dispatcher func(f func())

// Timer is the subset of *time.Timer the manager needs.
type Timer interface {
	Stop() bool
}

func afterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// CloseReason says why an item left the stack.
type CloseReason uint32

// The first four values match the freedesktop NotificationClosed reasons.
const (
	ReasonExpired   CloseReason = 1
	ReasonDismissed CloseReason = 2
	ReasonClosed    CloseReason = 3
	ReasonUndefined CloseReason = 4
	// ReasonReplaced marks an item superseded through replaces_id.
	ReasonReplaced CloseReason = 100
)

// String returns the string representation of the close reason.
func (r CloseReason) String() string {
	switch r {
	case ReasonExpired:
		return "expired"
	case ReasonDismissed:
		return "dismissed"
	case ReasonClosed:
		return "closed"
	case ReasonUndefined:
		return "undefined"
	case ReasonReplaced:
		return "replaced"
	default:
		return "unknown"
	}
}
