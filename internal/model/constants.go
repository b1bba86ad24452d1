package model

// Tool kinds carried in the "tool" field of every operation. The shape
// tools and "text" produce stored elements; the rest only mutate state.
const (
	ToolPencil    = "pencil"
	ToolLine      = "line"
	ToolRectangle = "rectangle"
	ToolCircle    = "circle"
	ToolArrow     = "arrow"
	ToolText      = "text"
	ToolEraser    = "eraser"
	ToolClear     = "clearCanvas"
	ToolUndo      = "undo"
	ToolRedo      = "redo"
)

// IsStrokeTool reports whether the tool appends a geometric element.
func IsStrokeTool(tool string) bool {
	switch tool {
	case ToolPencil, ToolLine, ToolRectangle, ToolCircle, ToolArrow:
		return true
	}
	return false
}

// IsMutating reports whether the tool changes document state directly
// (as opposed to navigating history).
func IsMutating(tool string) bool {
	return IsStrokeTool(tool) || tool == ToolText || tool == ToolEraser || tool == ToolClear
}
