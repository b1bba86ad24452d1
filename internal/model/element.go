package model

import "errors"

// ErrMalformed is returned by Validate for operations missing required
// fields for their tool kind.
var ErrMalformed = errors.New("malformed operation")

// Element is one drawing primitive, both on the wire and in the stored
// document. The field set is a union over all tool kinds; which fields
// are meaningful depends on Tool.
type Element struct {
	Tool string `json:"tool"`

	// Shape tools (pencil/line/rectangle/circle/arrow)
	StartX      float64 `json:"startX,omitempty"`
	StartY      float64 `json:"startY,omitempty"`
	EndX        float64 `json:"endX,omitempty"`
	EndY        float64 `json:"endY,omitempty"`
	StrokeWidth float64 `json:"strokeWidth,omitempty"`
	Color       string  `json:"color,omitempty"`

	// Text tool (X/Y double as the eraser cursor point)
	Text       string  `json:"text,omitempty"`
	X          float64 `json:"x,omitempty"`
	Y          float64 `json:"y,omitempty"`
	FontSize   float64 `json:"fontSize,omitempty"`
	FontFamily string  `json:"fontFamily,omitempty"`

	// Eraser radius
	Size float64 `json:"size,omitempty"`

	// Server-assigned: per-room monotonic sequence number and author.
	// Immutable once assigned.
	Seq    uint64 `json:"seq,omitempty"`
	Author string `json:"author,omitempty"`
}

// Validate checks that the element carries the fields its tool kind
// requires. History and clear operations carry no payload.
func (e Element) Validate() error {
	switch {
	case IsStrokeTool(e.Tool):
		if e.StrokeWidth <= 0 || e.Color == "" {
			return ErrMalformed
		}
	case e.Tool == ToolText:
		if e.Text == "" || e.FontSize <= 0 {
			return ErrMalformed
		}
	case e.Tool == ToolEraser:
		if e.Size <= 0 {
			return ErrMalformed
		}
	case e.Tool == ToolClear, e.Tool == ToolUndo, e.Tool == ToolRedo:
		// no payload
	default:
		return ErrMalformed
	}
	return nil
}

// CloneElements returns a defensive copy of an element sequence.
// Elements are value types, so a top-level copy is a full copy.
func CloneElements(els []Element) []Element {
	out := make([]Element, len(els))
	copy(out, els)
	return out
}
