package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/jmylchreest/notistack/internal/model"
)

// PlainFormatter formats notifications as human-readable text.
type PlainFormatter struct {
	opts     Options
	index    lipgloss.Style
	app      lipgloss.Style
	summary  lipgloss.Style
	dim      lipgloss.Style
	critical lipgloss.Style
}

// NewPlainFormatter creates a new plain text formatter.
func NewPlainFormatter(opts Options) *PlainFormatter {
	f := &PlainFormatter{opts: opts}
	if opts.Color {
		f.index = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
		f.app = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
		f.summary = lipgloss.NewStyle().Bold(true)
		f.dim = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
		f.critical = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	}
	return f
}

// Format writes notifications as plain text, one header line and an
// optional indented body line each.
func (f *PlainFormatter) Format(w io.Writer, notifications []model.Notification) error {
	now := f.opts.now()
	for i := range notifications {
		n := &notifications[i]

		var sb strings.Builder
		if f.opts.ShowIndex {
			sb.WriteString(f.index.Render(fmt.Sprintf("[%d]", i+1)))
			sb.WriteString(" ")
		}
		if n.AppName != "" {
			sb.WriteString(f.app.Render("<" + n.AppName + ">"))
			sb.WriteString(" ")
		}
		if n.Hints.Urgency == model.UrgencyCritical {
			sb.WriteString(f.critical.Render("!"))
			sb.WriteString(" ")
		}
		sb.WriteString(f.summary.Render(n.Summary))
		if size, ok := n.Image(); ok {
			sb.WriteString(" ")
			sb.WriteString(f.dim.Render("[image " + size.String() + "]"))
		}
		if !n.CreatedAt.IsZero() {
			sb.WriteString(" ")
			sb.WriteString(f.dim.Render("(" + humanize.RelTime(n.CreatedAt, now, "ago", "from now") + ")"))
		}
		sb.WriteString("\n")

		if body := flattenBody(n.Body, f.bodyLimit()); body != "" {
			sb.WriteString("    ")
			sb.WriteString(body)
			sb.WriteString("\n")
		}

		if _, err := io.WriteString(w, sb.String()); err != nil {
			return err
		}
	}
	return nil
}

func (f *PlainFormatter) bodyLimit() int {
	if f.opts.BodyMaxLen <= 0 {
		return int(^uint(0) >> 1)
	}
	return f.opts.BodyMaxLen
}
