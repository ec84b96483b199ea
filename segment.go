package tracks

// segmentKind distinguishes the two segment variants.
type segmentKind int

const (
	// ownedSegment holds its own sample buffer.
	ownedSegment segmentKind = iota

	// viewSegment borrows a run of samples from a parent track.
	viewSegment
)

// String returns the kind name used in inspection output.
func (k segmentKind) String() string {
	if k == viewSegment {
		return "view"
	}
	return "owned"
}

// refCounter is the child-reference count of an owned segment.
// Halves of a referenced segment share one counter after a split.
type refCounter struct {
	count int
}

// borrow records the reference counts taken by a single insert.
// Every piece a view is later split into points at the same borrow; the
// counts are returned only when the last piece goes away.
type borrow struct {
	counters []*refCounter
	pieces   int
}

// retain adds one more live piece to the borrow.
func (b *borrow) retain() {
	b.pieces++
}

// release drops one live piece. When no pieces remain, every counter taken
// at insert time is decremented exactly once.
func (b *borrow) release() {
	b.pieces--
	if b.pieces > 0 {
		return
	}
	for _, c := range b.counters {
		c.count--
	}
	b.counters = nil
}

// segment is one element of a track's chain.
type segment struct {
	kind   segmentKind
	length int64
	next   *segment

	// Owned segments
	samples []int16
	refs    *refCounter

	// View segments
	parent *Track
	offset int64
	loan   *borrow
}

// newOwnedSegment creates an owned segment that takes ownership of samples.
func newOwnedSegment(samples []int16) *segment {
	return &segment{
		kind:    ownedSegment,
		length:  int64(len(samples)),
		samples: samples,
		refs:    &refCounter{},
	}
}

// newViewSegment creates a view of parent[offset, offset+length) bound to loan.
// The caller registers the segment as a dependent of parent.
func newViewSegment(parent *Track, offset, length int64, loan *borrow) *segment {
	loan.retain()
	return &segment{
		kind:   viewSegment,
		length: length,
		parent: parent,
		offset: offset,
		loan:   loan,
	}
}

// isView reports whether the segment borrows its samples.
func (s *segment) isView() bool {
	return s.kind == viewSegment
}

// locked reports whether an owned segment is referenced by any view.
func (s *segment) locked() bool {
	return s.kind == ownedSegment && s.refs.count > 0
}

// overlaps reports whether a view's parent range intersects [pos, pos+length).
func (s *segment) overlaps(pos, length int64) bool {
	return s.offset < pos+length && pos < s.offset+s.length
}
