package board

import "collabboard/internal/model"

// document is the canonical element sequence for one room. It is a
// deterministic function of the room's operation history: strokes and
// text append, erases filter, clear empties. Erase and clear are never
// stored, so a reconnecting client replaying the stored sequence
// derives exactly this state. Callers synchronize via the room lock.
type document struct {
	elements []model.Element
	lastSeq  uint64
}

func newDocument(initial []model.Element) *document {
	var last uint64
	for _, el := range initial {
		if el.Seq > last {
			last = el.Seq
		}
	}
	return &document{elements: model.CloneElements(initial), lastSeq: last}
}

func (d *document) append(el model.Element) {
	d.elements = append(d.elements, el)
	d.lastSeq = el.Seq
}

// erase removes every element hit at (x, y) and returns how many were
// removed. Survivors keep their order and contents untouched.
func (d *document) erase(x, y, radius float64, seq uint64) int {
	before := len(d.elements)
	d.elements = applyErase(d.elements, x, y, radius)
	d.lastSeq = seq
	return before - len(d.elements)
}

func (d *document) clear(seq uint64) {
	d.elements = d.elements[:0]
	d.lastSeq = seq
}

// replace swaps the whole sequence in, used when history navigation
// restores a snapshot.
func (d *document) replace(els []model.Element, seq uint64) {
	d.elements = model.CloneElements(els)
	d.lastSeq = seq
}

// snapshot returns a read-only copy for history checkpoints, late
// joiners and persistence.
func (d *document) snapshot() []model.Element {
	return model.CloneElements(d.elements)
}
