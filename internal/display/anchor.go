package display

import (
	layershell "github.com/diamondburned/gotk4-layer-shell/pkg/gtk4layershell"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"

	"github.com/jmylchreest/notistack/internal/config"
)

// anchor is the set of screen edges a popup is pinned to.
type anchor struct {
	top, bottom, left, right bool
}

// anchorFor maps a configured position to edges. Unknown positions fall
// back to top-right.
func anchorFor(pos config.Position) anchor {
	switch pos {
	case config.PositionTopLeft:
		return anchor{top: true, left: true}
	case config.PositionTopCenter:
		return anchor{top: true}
	case config.PositionBottomLeft:
		return anchor{bottom: true, left: true}
	case config.PositionBottomRight:
		return anchor{bottom: true, right: true}
	case config.PositionBottomCenter:
		return anchor{bottom: true}
	default:
		return anchor{top: true, right: true}
	}
}

// stackEdge is the edge the stack offset is measured from.
func (a anchor) stackEdge() layershell.LayerShellEdge {
	if a.bottom {
		return layershell.LayerShellEdgeBottom
	}
	return layershell.LayerShellEdgeTop
}

// sideEdge is the horizontal edge that receives offset_x, if any.
func (a anchor) sideEdge() (layershell.LayerShellEdge, bool) {
	switch {
	case a.left:
		return layershell.LayerShellEdgeLeft, true
	case a.right:
		return layershell.LayerShellEdgeRight, true
	default:
		return 0, false
	}
}

// apply pins window to the anchor edges with the given side margin.
func (a anchor) apply(window *gtk.Window, offsetX int) {
	layershell.SetAnchor(window, layershell.LayerShellEdgeTop, a.top)
	layershell.SetAnchor(window, layershell.LayerShellEdgeBottom, a.bottom)
	layershell.SetAnchor(window, layershell.LayerShellEdgeLeft, a.left)
	layershell.SetAnchor(window, layershell.LayerShellEdgeRight, a.right)

	if edge, ok := a.sideEdge(); ok {
		layershell.SetMargin(window, edge, offsetX)
	}
}
