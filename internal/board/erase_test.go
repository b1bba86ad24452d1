package board

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"collabboard/internal/model"
)

func TestEraseSurvives(t *testing.T) {
	tests := []struct {
		name     string
		el       model.Element
		x, y     float64
		radius   float64
		survives bool
	}{
		{
			name:     "line hit near midpoint",
			el:       model.Element{Tool: model.ToolLine, StartX: 0, StartY: 0, EndX: 100, EndY: 0},
			x:        50, y: 0, radius: 10,
			survives: false,
		},
		{
			name:     "line missed far away",
			el:       model.Element{Tool: model.ToolLine, StartX: 0, StartY: 0, EndX: 100, EndY: 0},
			x:        50, y: 80, radius: 10,
			survives: true,
		},
		{
			name:     "rectangle hit inside bounds",
			el:       model.Element{Tool: model.ToolRectangle, StartX: 10, StartY: 10, EndX: 50, EndY: 50},
			x:        30, y: 30, radius: 5,
			survives: false,
		},
		{
			name:     "rectangle hit via expanded cursor bounds",
			el:       model.Element{Tool: model.ToolRectangle, StartX: 10, StartY: 10, EndX: 50, EndY: 50},
			x:        55, y: 30, radius: 10,
			survives: false,
		},
		{
			name:     "rectangle missed outside one axis",
			el:       model.Element{Tool: model.ToolRectangle, StartX: 10, StartY: 10, EndX: 50, EndY: 50},
			x:        100, y: 30, radius: 5,
			survives: true,
		},
		{
			name:     "circle stored as extents hit",
			el:       model.Element{Tool: model.ToolCircle, StartX: 0, StartY: 0, EndX: 20, EndY: 20},
			x:        10, y: 10, radius: 2,
			survives: false,
		},
		{
			name:     "arrow missed diagonally",
			el:       model.Element{Tool: model.ToolArrow, StartX: 0, StartY: 0, EndX: 20, EndY: 20},
			x:        50, y: 50, radius: 5,
			survives: true,
		},
		{
			name:     "pencil hit at start endpoint",
			el:       model.Element{Tool: model.ToolPencil, StartX: 5, StartY: 5, EndX: 8, EndY: 8},
			x:        6, y: 6, radius: 3,
			survives: false,
		},
		{
			name:     "pencil missed between endpoints",
			el:       model.Element{Tool: model.ToolPencil, StartX: 0, StartY: 0, EndX: 100, EndY: 0},
			x:        50, y: 0, radius: 3,
			survives: true, // only endpoints are distance-checked for pencil
		},
		{
			name:     "text hit inside bounding box",
			el:       model.Element{Tool: model.ToolText, Text: "hello", X: 10, Y: 30, FontSize: 20},
			x:        50, y: 20, radius: 5,
			survives: false,
		},
		{
			name:     "text missed above box",
			el:       model.Element{Tool: model.ToolText, Text: "hello", X: 10, Y: 30, FontSize: 20},
			x:        50, y: 5, radius: 5,
			survives: true,
		},
		{
			name:     "text missed right of box",
			el:       model.Element{Tool: model.ToolText, Text: "hi", X: 10, Y: 30, FontSize: 20},
			x:        60, y: 20, radius: 5,
			survives: true,
		},
		{
			// 5 characters but 6 bytes: the box ends at the character
			// width (100 + 10*5), same as the clients compute.
			name:     "multi-byte text box uses character count",
			el:       model.Element{Tool: model.ToolText, Text: "héllo", X: 100, Y: 30, FontSize: 10},
			x:        155, y: 25, radius: 5,
			survives: true,
		},
		{
			name:     "multi-byte text hit inside character-width box",
			el:       model.Element{Tool: model.ToolText, Text: "héllo", X: 100, Y: 30, FontSize: 10},
			x:        145, y: 25, radius: 5,
			survives: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := eraseSurvives(tt.el, tt.x, tt.y, tt.radius)
			assert.Equal(t, tt.survives, got)
		})
	}
}

func TestApplyErase_PreservesSurvivors(t *testing.T) {
	keepA := model.Element{Tool: model.ToolLine, StartX: 0, StartY: 100, EndX: 10, EndY: 100, Color: "#111", StrokeWidth: 2, Seq: 1}
	gone := model.Element{Tool: model.ToolPencil, StartX: 50, StartY: 50, EndX: 52, EndY: 52, Color: "#222", StrokeWidth: 3, Seq: 2}
	keepB := model.Element{Tool: model.ToolText, Text: "note", X: 200, Y: 200, FontSize: 16, Color: "#333", Seq: 3}

	out := applyErase([]model.Element{keepA, gone, keepB}, 51, 51, 5)

	require.Len(t, out, 2)
	// Survivors keep order and are untouched field for field.
	assert.Equal(t, keepA, out[0])
	assert.Equal(t, keepB, out[1])
}

func TestApplyErase_NoMatches(t *testing.T) {
	elements := []model.Element{
		{Tool: model.ToolLine, StartX: 0, StartY: 0, EndX: 10, EndY: 0},
	}
	out := applyErase(elements, 500, 500, 1)
	assert.Equal(t, elements, out)
}
