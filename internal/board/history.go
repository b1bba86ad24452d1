package board

import "collabboard/internal/model"

// history holds the room's shared undo/redo stacks of whole-document
// snapshots. The stacks are room-scoped rather than per-author: any
// participant's undo reverts the most recent edit regardless of who
// made it, which keeps a single consistent timeline for every client.
// Callers synchronize via the room lock.
type history struct {
	undo  [][]model.Element // most recent last
	redo  [][]model.Element // next to redo first
	depth int               // max undo entries, 0 = unbounded
}

func newHistory(depth int) *history {
	return &history{depth: depth}
}

// checkpoint records the pre-mutation snapshot and discards the redo
// branch (standard branch-discard rule: mutating after an undo forks
// the timeline and the undone states become unreachable).
func (h *history) checkpoint(snapshot []model.Element) {
	h.undo = append(h.undo, snapshot)
	if h.depth > 0 && len(h.undo) > h.depth {
		h.undo = h.undo[len(h.undo)-h.depth:]
	}
	h.redo = nil
}

// popUndo returns the snapshot to restore, pushing current onto the
// redo stack. ok is false when there is nothing to undo.
func (h *history) popUndo(current []model.Element) (restored []model.Element, ok bool) {
	if len(h.undo) == 0 {
		return nil, false
	}
	restored = h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	h.redo = append([][]model.Element{current}, h.redo...)
	return restored, true
}

// popRedo mirrors popUndo using the redo stack.
func (h *history) popRedo(current []model.Element) (restored []model.Element, ok bool) {
	if len(h.redo) == 0 {
		return nil, false
	}
	restored = h.redo[0]
	h.redo = h.redo[1:]
	h.undo = append(h.undo, current)
	return restored, true
}

func (h *history) canUndo() bool { return len(h.undo) > 0 }
func (h *history) canRedo() bool { return len(h.redo) > 0 }
