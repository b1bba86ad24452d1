package board

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"collabboard/internal/model"
)

func TestDocument_SeedResumesSequence(t *testing.T) {
	d := newDocument(snap(3, 7, 5))
	assert.Equal(t, uint64(7), d.lastSeq)
	assert.Len(t, d.snapshot(), 3)
}

func TestDocument_AppendAdvancesSequence(t *testing.T) {
	d := newDocument(nil)
	el := model.Element{Tool: model.ToolLine, StrokeWidth: 1, Color: "#000", Seq: 1}
	d.append(el)
	assert.Equal(t, uint64(1), d.lastSeq)
	assert.Equal(t, []model.Element{el}, d.snapshot())
}

func TestDocument_EraseCountsRemovals(t *testing.T) {
	d := newDocument([]model.Element{
		{Tool: model.ToolLine, StartX: 0, StartY: 0, EndX: 10, EndY: 0, Seq: 1},
		{Tool: model.ToolLine, StartX: 0, StartY: 900, EndX: 10, EndY: 900, Seq: 2},
	})

	removed := d.erase(5, 0, 5, 3)
	assert.Equal(t, 1, removed)
	assert.Equal(t, uint64(3), d.lastSeq)

	left := d.snapshot()
	require.Len(t, left, 1)
	assert.Equal(t, uint64(2), left[0].Seq)
}

func TestDocument_ClearAndReplace(t *testing.T) {
	d := newDocument(snap(1, 2))

	d.clear(3)
	assert.Empty(t, d.snapshot())
	assert.Equal(t, uint64(3), d.lastSeq)

	d.replace(snap(1, 2), 4)
	assert.Equal(t, snap(1, 2), d.snapshot())
	assert.Equal(t, uint64(4), d.lastSeq)
}

func TestDocument_SnapshotIsACopy(t *testing.T) {
	d := newDocument(snap(1))
	s := d.snapshot()
	s[0].Seq = 99
	assert.Equal(t, uint64(1), d.snapshot()[0].Seq)
}
