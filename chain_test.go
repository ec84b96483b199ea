package tracks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocate(t *testing.T) {
	lib := newTestLibrary(t)
	tr := appendChunks(t, lib, "t", []int16{1, 2}, []int16{3, 4, 5})

	seg, prev, offset, err := tr.locate(0)
	require.NoError(t, err)
	assert.Nil(t, prev)
	assert.Same(t, tr.head, seg)
	assert.Zero(t, offset)

	// A boundary position belongs to the later segment
	seg, prev, offset, err = tr.locate(2)
	require.NoError(t, err)
	assert.Same(t, tr.head, prev)
	assert.Same(t, tr.head.next, seg)
	assert.Zero(t, offset)

	_, _, offset, err = tr.locate(4)
	require.NoError(t, err)
	assert.Equal(t, int64(2), offset)

	_, _, _, err = tr.locate(5)
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestSplitAt(t *testing.T) {
	lib := newTestLibrary(t)
	tr := newFilledTrack(t, lib, "t", 1, 2, 3, 4)

	prev, next := tr.splitAt(0)
	assert.Nil(t, prev)
	assert.Same(t, tr.head, next)

	prev, next = tr.splitAt(4)
	assert.Same(t, tr.head, prev)
	assert.Nil(t, next)

	prev, next = tr.splitAt(1)
	require.NotNil(t, prev)
	require.NotNil(t, next)
	assert.Equal(t, []int16{1}, prev.samples)
	assert.Equal(t, []int16{2, 3, 4}, next.samples)
	assert.NotSame(t, prev.refs, next.refs)

	// Splitting on an existing boundary changes nothing
	prev2, next2 := tr.splitAt(1)
	assert.Same(t, prev, prev2)
	assert.Same(t, next, next2)
	assert.Len(t, tr.Segments(), 2)
}

func TestSplit_ReferencedOwnedSharesCounter(t *testing.T) {
	lib := newTestLibrary(t)
	s := newFilledTrack(t, lib, "s", 1, 2, 3, 4)
	d := newFilledTrack(t, lib, "d")
	require.NoError(t, d.Insert(0, s, 0, 1))

	head := s.head
	tail := split(head, 2)
	assert.Same(t, head.refs, tail.refs)
	assert.True(t, tail.locked())

	// Writes to the tail must not alias the head's buffer
	tail.samples[0] = 30
	assert.Equal(t, []int16{1, 2}, head.samples)
	assert.Equal(t, []int16{1, 2, 30, 4}, readAll(t, s))
}

func TestSplit_ViewSharesBorrow(t *testing.T) {
	lib := newTestLibrary(t)
	s := newFilledTrack(t, lib, "s", 1, 2, 3, 4)
	d := newFilledTrack(t, lib, "d")
	require.NoError(t, d.Insert(0, s, 0, 4))

	view := d.head
	tail := split(view, 3)
	assert.Same(t, view.loan, tail.loan)
	assert.Equal(t, 2, view.loan.pieces)
	assert.Equal(t, int64(3), tail.offset)
	assert.Len(t, s.dependents, 2)
	assert.Equal(t, []int16{1, 2, 3, 4}, readAll(t, d))
}

func TestBorrow_ReleaseOnce(t *testing.T) {
	c1 := &refCounter{count: 2}
	c2 := &refCounter{count: 1}
	b := &borrow{counters: []*refCounter{c1, c2}}
	b.retain()
	b.retain()

	b.release()
	assert.Equal(t, 2, c1.count)
	assert.Equal(t, 1, c2.count)

	b.release()
	assert.Equal(t, 1, c1.count)
	assert.Zero(t, c2.count)
}

func TestCollectBorrow_Deduplicates(t *testing.T) {
	lib := newTestLibrary(t)
	s := newFilledTrack(t, lib, "s", 1, 2, 3)
	d := newFilledTrack(t, lib, "d")
	require.NoError(t, d.Insert(0, s, 0, 3))
	require.NoError(t, d.Insert(3, s, 0, 3))

	counters, depth := d.collectBorrow(0, 6, make(map[*refCounter]bool), nil)
	assert.Len(t, counters, 1)
	assert.Equal(t, 1, depth)
}
