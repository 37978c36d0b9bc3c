package display

import (
	"image"
	"log/slog"
	"strings"
	"time"

	layershell "github.com/diamondburned/gotk4-layer-shell/pkg/gtk4layershell"
	coreglib "github.com/diamondburned/gotk4/pkg/core/glib"
	"github.com/diamondburned/gotk4/pkg/gdk/v4"
	"github.com/diamondburned/gotk4/pkg/glib/v2"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"
	"github.com/dustin/go-humanize"

	"github.com/jmylchreest/notistack/internal/model"
	"github.com/jmylchreest/notistack/internal/popup"
)

const (
	iconSize  = 20
	imageSize = 64
	// timestampRefresh is how often the relative time label is updated.
	timestampRefresh = 30
)

// item is one popup window.
type item struct {
	window  *gtk.Window
	timeLbl *gtk.Label
	edge    layershell.LayerShellEdge
	width   int
	created time.Time
	ticker  coreglib.SourceHandle
	gone    bool
}

var _ popup.Item = (*item)(nil)

func newItem(app *gtk.Application, opts Options, n *model.Notification, img *image.NRGBA, cb popup.Callbacks, monitor *gdk.Monitor, logger *slog.Logger) *item {
	a := anchorFor(opts.Position)
	it := &item{
		edge:    a.stackEdge(),
		width:   opts.Width,
		created: n.CreatedAt,
	}
	if it.created.IsZero() {
		it.created = time.Now()
	}

	it.window = gtk.NewWindow()
	if app != nil {
		it.window.SetApplication(app)
	}
	it.window.SetDecorated(false)
	it.window.SetResizable(false)
	it.window.SetDefaultSize(opts.Width, -1)
	it.window.SetSizeRequest(opts.Width, -1)
	it.window.AddCSSClass("notistack-popup")

	layershell.InitForWindow(it.window)
	layershell.SetLayer(it.window, layershell.LayerShellLayerTop)
	layershell.SetExclusiveZone(it.window, 0)
	layershell.SetKeyboardMode(it.window, layershell.LayerShellKeyboardModeNone)
	layershell.SetNamespace(it.window, "notistack")
	if monitor != nil {
		layershell.SetMonitor(it.window, monitor)
	}
	a.apply(it.window, opts.OffsetX)

	if img != nil {
		logger.Debug("popup image",
			"id", n.ID,
			"width", img.Rect.Dx(),
			"height", img.Rect.Dy(),
			"size", humanize.Bytes(uint64(len(img.Pix))),
		)
	}

	it.window.SetChild(it.build(n, img, cb))
	it.connect(n, cb)
	return it
}

// build creates the card: header, then summary, body and image when present.
func (it *item) build(n *model.Notification, img *image.NRGBA, cb popup.Callbacks) gtk.Widgetter {
	card := gtk.NewBox(gtk.OrientationVertical, 4)
	card.AddCSSClass("notistack-card")
	card.AddCSSClass("urgency-" + n.Hints.Urgency.String())
	card.AddCSSClass(schemeClass())
	if n.Hints.Category != "" {
		card.AddCSSClass("category-" + sanitizeClassName(n.Hints.Category))
	}

	card.Append(it.buildHeader(n))

	content := gtk.NewBox(gtk.OrientationHorizontal, 0)
	if img != nil {
		content.Append(buildImage(img))
	}

	text := gtk.NewBox(gtk.OrientationVertical, 2)
	text.SetHExpand(true)
	if n.Summary != "" {
		summary := gtk.NewLabel(n.Summary)
		summary.AddCSSClass("notistack-summary")
		summary.SetXAlign(0)
		summary.SetWrap(true)
		summary.SetMaxWidthChars(40)
		text.Append(summary)
	}
	if n.Body != "" {
		body := gtk.NewLabel("")
		body.AddCSSClass("notistack-body")
		body.SetXAlign(0)
		body.SetWrap(true)
		body.SetWrapMode(2) // PANGO_WRAP_WORD_CHAR
		body.SetMaxWidthChars(50)
		if strings.Contains(n.Body, "<") || strings.Contains(n.Body, "&") {
			body.SetMarkup(sanitizeMarkup(n.Body))
		} else {
			body.SetText(n.Body)
		}
		text.Append(body)
	}
	content.Append(text)
	if img != nil || n.Summary != "" || n.Body != "" {
		card.Append(content)
	}

	if actions := buttonActions(n); len(actions) > 0 {
		row := gtk.NewBox(gtk.OrientationHorizontal, 6)
		row.AddCSSClass("notistack-actions")
		for _, action := range actions {
			key := action.Key
			btn := gtk.NewButtonWithLabel(action.Label)
			btn.ConnectClicked(func() {
				if cb.Action != nil {
					cb.Action(key)
				}
			})
			row.Append(btn)
		}
		card.Append(row)
	}

	return card
}

func (it *item) buildHeader(n *model.Notification) gtk.Widgetter {
	header := gtk.NewBox(gtk.OrientationHorizontal, 6)
	header.AddCSSClass("notistack-header")

	icon := iconFor(n.AppIcon)
	icon.SetPixelSize(iconSize)
	icon.AddCSSClass("notistack-icon")
	header.Append(icon)

	app := n.AppName
	if app == "" {
		app = "notification"
	}
	appLbl := gtk.NewLabel(app)
	appLbl.AddCSSClass("notistack-app")
	appLbl.SetXAlign(0)
	appLbl.SetHExpand(true)
	appLbl.SetEllipsize(3) // PANGO_ELLIPSIZE_END
	header.Append(appLbl)

	it.timeLbl = gtk.NewLabel(humanize.Time(it.created))
	it.timeLbl.AddCSSClass("notistack-time")
	it.timeLbl.SetXAlign(1)
	header.Append(it.timeLbl)

	return header
}

// connect wires input and lifecycle signals.
func (it *item) connect(n *model.Notification, cb popup.Callbacks) {
	click := gtk.NewGestureClick()
	click.SetButton(0) // All buttons
	click.ConnectReleased(func(nPress int, x, y float64) {
		switch click.CurrentButton() {
		case 1:
			if hasDefaultAction(n) && cb.Action != nil {
				cb.Action("default")
				return
			}
			if cb.Dismiss != nil {
				cb.Dismiss()
			}
		case 3:
			if cb.Dismiss != nil {
				cb.Dismiss()
			}
		}
	})
	it.window.AddController(click)

	// The real height is only known once the surface has been laid out.
	it.window.ConnectMap(func() {
		if cb.Resized != nil {
			cb.Resized()
		}
	})

	it.ticker = coreglib.TimeoutSecondsAdd(timestampRefresh, func() bool {
		if it.gone {
			return false
		}
		it.timeLbl.SetText(humanize.Time(it.created))
		return true
	})
}

// Height returns the allocated height once mapped, otherwise the natural
// height at the configured width.
func (it *item) Height() int {
	if it.gone {
		return 0
	}
	if h := it.window.Height(); h > 0 {
		return h
	}
	_, natural, _, _ := it.window.Measure(gtk.OrientationVertical, it.width)
	return natural
}

// SetOffset moves the window px pixels away from the stack edge.
func (it *item) SetOffset(px int) {
	if it.gone {
		return
	}
	layershell.SetMargin(it.window, it.edge, px)
}

// Show maps the window.
func (it *item) Show() {
	if it.gone {
		return
	}
	it.window.Present()
}

// Destroy closes the window. Further calls are no-ops.
func (it *item) Destroy() {
	if it.gone {
		return
	}
	it.gone = true
	coreglib.SourceRemove(it.ticker)
	it.window.Destroy()
}

// buildImage wraps NRGBA pixels in a texture scaled to imageSize.
func buildImage(img *image.NRGBA) gtk.Widgetter {
	b := img.Bounds()
	texture := gdk.NewMemoryTexture(
		b.Dx(), b.Dy(),
		gdk.MemoryR8G8B8A8,
		glib.NewBytes(img.Pix),
		uint(img.Stride),
	)
	picture := gtk.NewImageFromPaintable(texture)
	picture.SetPixelSize(imageSize)
	picture.AddCSSClass("notistack-image")
	picture.SetVAlign(gtk.AlignStart)
	return picture
}

// iconFor resolves app_icon as a file path, file:// URI or themed icon name.
func iconFor(appIcon string) *gtk.Image {
	switch {
	case appIcon == "":
		return gtk.NewImageFromIconName("dialog-information")
	case strings.HasPrefix(appIcon, "file://"):
		return gtk.NewImageFromFile(strings.TrimPrefix(appIcon, "file://"))
	case strings.HasPrefix(appIcon, "/"):
		return gtk.NewImageFromFile(appIcon)
	default:
		return gtk.NewImageFromIconName(appIcon)
	}
}

// buttonActions returns the actions shown as buttons. The "default" action
// is bound to clicking the popup instead.
func buttonActions(n *model.Notification) []model.Action {
	var out []model.Action
	for _, a := range n.ParsedActions() {
		if a.Key != "default" {
			out = append(out, a)
		}
	}
	return out
}

func hasDefaultAction(n *model.Notification) bool {
	for _, a := range n.ParsedActions() {
		if a.Key == "default" {
			return true
		}
	}
	return false
}

// sanitizeClassName converts a string to a valid CSS class name.
func sanitizeClassName(name string) string {
	var b strings.Builder
	hyphen := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			hyphen = false
		case !hyphen && b.Len() > 0:
			b.WriteRune('-')
			hyphen = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
