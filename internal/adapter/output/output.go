// Package output renders notification history for the CLI.
package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jmylchreest/notistack/internal/model"
)

// Formatter formats notifications for output.
type Formatter interface {
	// Format writes formatted notifications to the writer.
	Format(w io.Writer, notifications []model.Notification) error
}

// FormatType represents an output format type.
type FormatType string

const (
	FormatPlain FormatType = "plain"
	FormatDmenu FormatType = "dmenu"
	FormatJSON  FormatType = "json"
	FormatYAML  FormatType = "yaml"
)

// Formats lists the accepted format names.
var Formats = []FormatType{FormatPlain, FormatDmenu, FormatJSON, FormatYAML}

// Options configures formatter behaviour.
type Options struct {
	ShowIndex  bool // Show 1-based index prefix
	BodyMaxLen int  // Maximum body length in runes (0 = unlimited)
	Color      bool // Style plain output with colours

	// Now is the reference for relative times. Nil means time.Now.
	Now func() time.Time
}

// DefaultOptions returns the defaults used by the CLI.
func DefaultOptions() Options {
	return Options{
		ShowIndex:  true,
		BodyMaxLen: 120,
		Color:      true,
	}
}

func (o Options) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

// NewFormatter creates a formatter for the named format.
func NewFormatter(format FormatType, opts Options) (Formatter, error) {
	switch format {
	case FormatPlain, "":
		return NewPlainFormatter(opts), nil
	case FormatDmenu:
		return NewDmenuFormatter(opts), nil
	case FormatJSON:
		return NewJSONFormatter(), nil
	case FormatYAML:
		return NewYAMLFormatter(), nil
	default:
		return nil, fmt.Errorf("unknown output format %q (want one of %s)", format, formatList())
	}
}

func formatList() string {
	names := make([]string, len(Formats))
	for i, f := range Formats {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}

// flattenBody joins body lines and truncates to maxLen runes.
func flattenBody(body string, maxLen int) string {
	body = strings.Join(strings.Fields(body), " ")
	n := &model.Notification{Body: body}
	return n.BodyTruncated(maxLen)
}
