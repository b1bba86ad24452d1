package board

import (
	"math"
	"unicode/utf8"

	"collabboard/internal/model"
)

// Erase hit-testing. These are the approximate heuristics the canvas
// clients have always used, not exact path intersection: line-family
// shapes test endpoint distance or bounding extents, pencil segments
// test their two captured endpoints, text tests a fontSize-derived
// bounding box. Kept approximate on purpose so server-side erase
// matches what clients compute locally.

// eraseSurvives reports whether el survives an erase at (x, y) with the
// given radius.
func eraseSurvives(el model.Element, x, y, radius float64) bool {
	switch el.Tool {
	case model.ToolLine:
		distToStart := math.Hypot(x-el.StartX, y-el.StartY)
		distToEnd := math.Hypot(x-el.EndX, y-el.EndY)
		lineLength := math.Hypot(el.EndX-el.StartX, el.EndY-el.StartY)
		return distToStart+distToEnd > lineLength+radius

	case model.ToolRectangle, model.ToolCircle, model.ToolArrow:
		// Survives only while the expanded cursor bounds stay outside
		// the shape's bounding extents on at least one axis.
		outsideX := x+radius < math.Min(el.StartX, el.EndX) ||
			x-radius > math.Max(el.StartX, el.EndX)
		outsideY := y+radius < math.Min(el.StartY, el.EndY) ||
			y-radius > math.Max(el.StartY, el.EndY)
		return outsideX || outsideY

	case model.ToolPencil:
		distToStart := math.Hypot(x-el.StartX, y-el.StartY)
		distToEnd := math.Hypot(x-el.EndX, y-el.EndY)
		return distToStart > radius && distToEnd > radius

	case model.ToolText:
		// Width counts characters, not bytes, matching the clients'
		// fontSize * text.length box for non-ASCII text.
		textWidth := el.FontSize * float64(utf8.RuneCountInString(el.Text))
		textHeight := el.FontSize
		inside := x >= el.X && x <= el.X+textWidth &&
			y >= el.Y-textHeight && y <= el.Y
		return !inside
	}
	return true
}

// applyErase filters out every element hit by the erase cursor,
// preserving the order of survivors.
func applyErase(elements []model.Element, x, y, radius float64) []model.Element {
	out := elements[:0:0]
	for _, el := range elements {
		if eraseSurvives(el, x, y, radius) {
			out = append(out, el)
		}
	}
	return out
}
