package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/jmylchreest/notistack/internal/model"
)

// DmenuFormatter formats notifications for dmenu/rofi/fuzzel, one per line.
// Lines start with the notification ID so a selection can be fed back into
// "notistack show".
type DmenuFormatter struct {
	opts Options
}

// NewDmenuFormatter creates a new dmenu formatter.
func NewDmenuFormatter(opts Options) *DmenuFormatter {
	return &DmenuFormatter{opts: opts}
}

// Format writes notifications in dmenu format.
func (f *DmenuFormatter) Format(w io.Writer, notifications []model.Notification) error {
	for i := range notifications {
		if _, err := fmt.Fprintln(w, f.formatLine(&notifications[i])); err != nil {
			return err
		}
	}
	return nil
}

func (f *DmenuFormatter) formatLine(n *model.Notification) string {
	parts := []string{n.ID}
	if n.AppName != "" {
		parts = append(parts, n.AppName)
	}
	parts = append(parts, strings.Join(strings.Fields(n.Summary), " "))

	line := strings.Join(parts, " | ")
	limit := f.opts.BodyMaxLen
	if limit <= 0 {
		limit = int(^uint(0) >> 1)
	}
	if body := flattenBody(n.Body, limit); body != "" {
		line += " | " + body
	}
	return line
}
