package display

import (
	"testing"

	layershell "github.com/diamondburned/gotk4-layer-shell/pkg/gtk4layershell"
	"github.com/stretchr/testify/assert"

	"github.com/jmylchreest/notistack/internal/config"
)

func TestAnchorFor(t *testing.T) {
	tests := []struct {
		pos     config.Position
		want    anchor
		stack   layershell.LayerShellEdge
		side    layershell.LayerShellEdge
		hasSide bool
	}{
		{config.PositionTopRight, anchor{top: true, right: true}, layershell.LayerShellEdgeTop, layershell.LayerShellEdgeRight, true},
		{config.PositionTopLeft, anchor{top: true, left: true}, layershell.LayerShellEdgeTop, layershell.LayerShellEdgeLeft, true},
		{config.PositionTopCenter, anchor{top: true}, layershell.LayerShellEdgeTop, 0, false},
		{config.PositionBottomRight, anchor{bottom: true, right: true}, layershell.LayerShellEdgeBottom, layershell.LayerShellEdgeRight, true},
		{config.PositionBottomLeft, anchor{bottom: true, left: true}, layershell.LayerShellEdgeBottom, layershell.LayerShellEdgeLeft, true},
		{config.PositionBottomCenter, anchor{bottom: true}, layershell.LayerShellEdgeBottom, 0, false},
		{"sideways", anchor{top: true, right: true}, layershell.LayerShellEdgeTop, layershell.LayerShellEdgeRight, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.pos), func(t *testing.T) {
			a := anchorFor(tt.pos)
			assert.Equal(t, tt.want, a)
			assert.Equal(t, tt.stack, a.stackEdge())

			side, ok := a.sideEdge()
			assert.Equal(t, tt.hasSide, ok)
			if ok {
				assert.Equal(t, tt.side, side)
			}
		})
	}
}
