// Package model defines the core data structures for notistack.
package model

import (
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// Urgency levels as defined by the Desktop Notifications protocol.
type Urgency uint8

const (
	UrgencyLow      Urgency = 0
	UrgencyNormal   Urgency = 1
	UrgencyCritical Urgency = 2
)

// String returns the human-readable urgency name.
func (u Urgency) String() string {
	switch u {
	case UrgencyLow:
		return "low"
	case UrgencyNormal:
		return "normal"
	case UrgencyCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// ParseUrgency converts a name back into an Urgency.
func ParseUrgency(s string) (Urgency, error) {
	switch strings.ToLower(s) {
	case "low":
		return UrgencyLow, nil
	case "normal":
		return UrgencyNormal, nil
	case "critical":
		return UrgencyCritical, nil
	}
	return UrgencyNormal, fmt.Errorf("unknown urgency %q", s)
}

// Notification is one decoded Notify request.
// A Notification is never mutated after construction; derive copies instead.
type Notification struct {
	// ID is a ULID assigned at receipt, used as the storage identity.
	ID string `json:"id"`
	// BusID is the id returned to the caller by Notify. It is only known
	// when we own the bus name, and is zero in monitor mode.
	BusID uint32 `json:"bus_id,omitempty"`

	AppName       string    `json:"app_name"`
	ReplacesID    uint32    `json:"replaces_id,omitempty"`
	AppIcon       string    `json:"app_icon,omitempty"`
	Summary       string    `json:"summary"`
	Body          string    `json:"body"`
	Actions       []string  `json:"actions,omitempty"` // Alternating key, label pairs
	Hints         Hints     `json:"hints"`
	ExpireTimeout int32     `json:"expire_timeout"` // -1 = server default, 0 = never expire
	CreatedAt     time.Time `json:"created_at"`
}

// Hints holds the typed subset of the hints dictionary we understand.
type Hints struct {
	ImageData *ImageData `json:"-"`
	// ImageSize outlives the pixels: history records carry only this.
	ImageSize *ImageSize `json:"image_size,omitempty"`
	Urgency   Urgency    `json:"urgency"`
	Category  string     `json:"category,omitempty"`
	Transient bool       `json:"transient,omitempty"`
	Resident  bool       `json:"resident,omitempty"`
}

// ImageSize is the pixel size of an image-data hint.
type ImageSize struct {
	Width  int32 `json:"width"`
	Height int32 `json:"height"`
}

func (s ImageSize) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// ImageData is a raw pixel buffer carried in the image-data hint.
type ImageData struct {
	Width         int32
	Height        int32
	Rowstride     int32
	HasAlpha      bool
	BitsPerSample int32
	Channels      int32
	Data          []byte
}

// Image validation errors.
var (
	ErrImageDimensions    = errors.New("image width and height must be positive")
	ErrImageBitsPerSample = errors.New("image bits_per_sample must be 8")
	ErrImageChannels      = errors.New("image channels do not match has_alpha")
	ErrImageRowstride     = errors.New("image rowstride is smaller than a row")
	ErrImageTruncated     = errors.New("image data shorter than rowstride*height")
)

// Validate checks the buffer is renderable as 8-bit RGB or RGBA.
func (img *ImageData) Validate() error {
	if img.Width <= 0 || img.Height <= 0 {
		return ErrImageDimensions
	}
	if img.BitsPerSample != 8 {
		return ErrImageBitsPerSample
	}
	want := int32(3)
	if img.HasAlpha {
		want = 4
	}
	if img.Channels != want {
		return ErrImageChannels
	}
	if int64(img.Rowstride) < int64(img.Width)*int64(img.Channels) {
		return ErrImageRowstride
	}
	if int64(len(img.Data)) < int64(img.Rowstride)*int64(img.Height) {
		return ErrImageTruncated
	}
	return nil
}

// Action represents a notification action with key and label.
type Action struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// NewID generates a new ULID string.
func NewID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
}

// ParsedActions converts the flat action list to structured form.
// A trailing key without a label is dropped.
func (n *Notification) ParsedActions() []Action {
	actions := make([]Action, 0, len(n.Actions)/2)
	for i := 0; i+1 < len(n.Actions); i += 2 {
		actions = append(actions, Action{
			Key:   n.Actions[i],
			Label: n.Actions[i+1],
		})
	}
	return actions
}

// WithBusID returns a copy of n carrying the given bus id.
func (n *Notification) WithBusID(id uint32) *Notification {
	clone := *n
	clone.BusID = id
	return &clone
}

// Image returns the size of the image-data hint, taken from the pixel
// buffer when present and from the stored size otherwise.
func (n *Notification) Image() (ImageSize, bool) {
	if img := n.Hints.ImageData; img != nil {
		return ImageSize{Width: img.Width, Height: img.Height}, true
	}
	if s := n.Hints.ImageSize; s != nil && s.Width > 0 && s.Height > 0 {
		return *s, true
	}
	return ImageSize{}, false
}

// WithImageSize returns n with Hints.ImageSize filled from the pixel
// buffer, so that the size survives serialisation. n itself is returned
// when there is nothing to fill.
func (n *Notification) WithImageSize() *Notification {
	if n.Hints.ImageData == nil || n.Hints.ImageSize != nil {
		return n
	}
	size, _ := n.Image()
	clone := *n
	clone.Hints.ImageSize = &size
	return &clone
}

// BodyTruncated returns the body truncated to maxLen characters.
// If the body is longer, it is truncated and "..." is appended.
func (n *Notification) BodyTruncated(maxLen int) string {
	if maxLen <= 0 {
		return ""
	}

	// Collapse whitespace and newlines to single spaces
	body := strings.Join(strings.Fields(n.Body), " ")

	runes := []rune(body)
	if len(runes) <= maxLen {
		return body
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
