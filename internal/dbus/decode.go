package dbus

import (
	"errors"
	"fmt"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/notistack/internal/model"
)

// NotifySignature is the wire signature of a Notify call body.
const NotifySignature = "susssasa{sv}i"

// Decode errors.
var (
	// ErrMalformed is matched by DecodeErrors for bodies that do not have
	// the Notify shape.
	ErrMalformed = errors.New("malformed notification")
	// ErrInvalidImage is matched by DecodeErrors for a bad image-data hint.
	ErrInvalidImage = errors.New("invalid image-data hint")
)

// DecodeKind classifies a DecodeError.
type DecodeKind int

const (
	Malformed DecodeKind = iota
	InvalidImage
)

// DecodeError describes why a Notify body could not become a Notification.
type DecodeError struct {
	Kind   DecodeKind
	Field  string
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	kind := "malformed notification"
	if e.Kind == InvalidImage {
		kind = "invalid image-data hint"
	}
	msg := kind
	if e.Field != "" {
		msg += ": " + e.Field
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match the kind sentinels.
func (e *DecodeError) Is(target error) bool {
	switch target {
	case ErrMalformed:
		return e.Kind == Malformed
	case ErrInvalidImage:
		return e.Kind == InvalidImage
	}
	return false
}

func malformed(field, reason string) *DecodeError {
	return &DecodeError{Kind: Malformed, Field: field, Reason: reason}
}

func invalidImage(field, reason string, err error) *DecodeError {
	return &DecodeError{Kind: InvalidImage, Field: field, Reason: reason, Err: err}
}

// imageHintKey is the only image hint that is validated strictly.
const imageHintKey = "image-data"

// legacyImageHintKeys are deprecated names, read in order only when
// image-data is absent. A malformed legacy hint is discarded.
var legacyImageHintKeys = []string{"image_data", "icon_data"}

// DecodeMessage decodes an observed Notify method call.
func DecodeMessage(msg *dbus.Message) (*model.Notification, error) {
	if sig, ok := msg.Headers[dbus.FieldSignature].Value().(dbus.Signature); ok {
		if sig.String() != NotifySignature {
			return nil, malformed("signature", fmt.Sprintf("got %q, want %q", sig.String(), NotifySignature))
		}
	}
	return Decode(msg.Body)
}

// Decode converts a Notify body into a Notification.
// The body must hold exactly the eight Notify arguments with their exact
// types. The decoded record is stamped with the current UTC time.
func Decode(body []any) (*model.Notification, error) {
	if len(body) != 8 {
		return nil, malformed("body", fmt.Sprintf("expected 8 fields, got %d", len(body)))
	}

	n := &model.Notification{
		ID:        model.NewID(),
		CreatedAt: time.Now().UTC(),
	}

	var ok bool
	if n.AppName, ok = body[0].(string); !ok {
		return nil, malformed("app_name", typeMismatch("string", body[0]))
	}
	if n.ReplacesID, ok = body[1].(uint32); !ok {
		return nil, malformed("replaces_id", typeMismatch("uint32", body[1]))
	}
	if n.AppIcon, ok = body[2].(string); !ok {
		return nil, malformed("app_icon", typeMismatch("string", body[2]))
	}
	if n.Summary, ok = body[3].(string); !ok {
		return nil, malformed("summary", typeMismatch("string", body[3]))
	}
	if n.Body, ok = body[4].(string); !ok {
		return nil, malformed("body", typeMismatch("string", body[4]))
	}
	if n.Actions, ok = body[5].([]string); !ok {
		return nil, malformed("actions", typeMismatch("[]string", body[5]))
	}
	hints, ok := body[6].(map[string]dbus.Variant)
	if !ok {
		return nil, malformed("hints", typeMismatch("map[string]dbus.Variant", body[6]))
	}
	if n.ExpireTimeout, ok = body[7].(int32); !ok {
		return nil, malformed("expire_timeout", typeMismatch("int32", body[7]))
	}

	var err error
	if n.Hints, err = decodeHints(hints); err != nil {
		return nil, err
	}
	return n, nil
}

func decodeHints(hints map[string]dbus.Variant) (model.Hints, error) {
	h := model.Hints{Urgency: model.UrgencyNormal}

	if v, ok := hints[imageHintKey]; ok {
		img, err := decodeImage(imageHintKey, v)
		if err != nil {
			return h, err
		}
		h.ImageData = img
	} else {
		for _, key := range legacyImageHintKeys {
			v, ok := hints[key]
			if !ok {
				continue
			}
			if img, err := decodeImage(key, v); err == nil {
				h.ImageData = img
				break
			}
		}
	}

	// The remaining hints are advisory; a wrong type keeps the default.
	if v, ok := hints["urgency"]; ok {
		if b, ok := v.Value().(byte); ok && b <= byte(model.UrgencyCritical) {
			h.Urgency = model.Urgency(b)
		}
	}
	if v, ok := hints["category"]; ok {
		if s, ok := v.Value().(string); ok {
			h.Category = s
		}
	}
	if v, ok := hints["transient"]; ok {
		if b, ok := v.Value().(bool); ok {
			h.Transient = b
		}
	}
	if v, ok := hints["resident"]; ok {
		if b, ok := v.Value().(bool); ok {
			h.Resident = b
		}
	}
	return h, nil
}

// decodeImage parses the (iiibiiay) image struct. godbus delivers structs
// nested in variants as []any.
func decodeImage(key string, v dbus.Variant) (*model.ImageData, error) {
	fields, ok := v.Value().([]any)
	if !ok {
		return nil, invalidImage(key, typeMismatch("struct (iiibiiay)", v.Value()), nil)
	}
	if len(fields) != 7 {
		return nil, invalidImage(key, fmt.Sprintf("expected 7 fields, got %d", len(fields)), nil)
	}

	img := &model.ImageData{}
	names := [...]string{"width", "height", "rowstride", "has_alpha", "bits_per_sample", "channels", "data"}
	ints := []*int32{&img.Width, &img.Height, &img.Rowstride}
	for i, dst := range ints {
		if *dst, ok = fields[i].(int32); !ok {
			return nil, invalidImage(key+"."+names[i], typeMismatch("int32", fields[i]), nil)
		}
	}
	if img.HasAlpha, ok = fields[3].(bool); !ok {
		return nil, invalidImage(key+"."+names[3], typeMismatch("bool", fields[3]), nil)
	}
	if img.BitsPerSample, ok = fields[4].(int32); !ok {
		return nil, invalidImage(key+"."+names[4], typeMismatch("int32", fields[4]), nil)
	}
	if img.Channels, ok = fields[5].(int32); !ok {
		return nil, invalidImage(key+"."+names[5], typeMismatch("int32", fields[5]), nil)
	}
	if img.Data, ok = fields[6].([]byte); !ok {
		return nil, invalidImage(key+"."+names[6], typeMismatch("[]byte", fields[6]), nil)
	}

	if err := img.Validate(); err != nil {
		return nil, invalidImage(key, "", err)
	}
	return img, nil
}

func typeMismatch(want string, got any) string {
	return fmt.Sprintf("expected %s, got %T", want, got)
}
