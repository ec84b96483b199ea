package tracks

// locate finds the segment holding position pos, the segment before it and
// the offset of pos within it. A position on a boundary belongs to the later
// segment.
func (t *Track) locate(pos int64) (seg, prev *segment, offset int64, err error) {
	if pos < 0 || pos >= t.length {
		return nil, nil, 0, ErrOutOfRange
	}

	start := int64(0)
	for seg = t.head; seg != nil; prev, seg = seg, seg.next {
		// Use < so that a position equal to the segment end moves on
		if pos < start+seg.length {
			return seg, prev, pos - start, nil
		}
		start += seg.length
	}

	// Cached length disagrees with the chain
	return nil, nil, 0, ErrOutOfRange
}

// split cuts seg after k samples, leaving seg as the first part and linking
// the returned segment after it. Requires 0 < k < seg.length.
func split(seg *segment, k int64) *segment {
	var tail *segment

	if seg.isView() {
		tail = newViewSegment(seg.parent, seg.offset+k, seg.length-k, seg.loan)
		seg.parent.dependents[tail] = struct{}{}
	} else {
		// The head keeps the original buffer; the tail gets a copy.
		samples := make([]int16, seg.length-k)
		copy(samples, seg.samples[k:])
		tail = newOwnedSegment(samples)

		// Views address positions, not buffers, so either half may be
		// borrowed from. Both stay locked while the original was.
		if seg.refs.count > 0 {
			tail.refs = seg.refs
		}
		seg.samples = seg.samples[:k]
	}

	seg.length = k
	tail.next = seg.next
	seg.next = tail
	return tail
}

// splitAt makes pos a segment boundary and returns the segments on either
// side of it. prev is nil at the head and next is nil at the tail.
func (t *Track) splitAt(pos int64) (prev, next *segment) {
	if pos >= t.length {
		return t.last(), nil
	}
	if pos <= 0 {
		return nil, t.head
	}

	seg, before, offset, err := t.locate(pos)
	if err != nil {
		return t.last(), nil
	}
	if offset == 0 {
		return before, seg
	}

	return seg, split(seg, offset)
}

// join merges b into a. Both must be adjacent, owned and unreferenced.
func (t *Track) join(a, b *segment) {
	samples := make([]int16, 0, a.length+b.length)
	samples = append(samples, a.samples...)
	samples = append(samples, b.samples...)

	a.samples = samples
	a.length += b.length
	a.next = b.next
}

// last returns the final segment of the chain, or nil for an empty track.
func (t *Track) last() *segment {
	seg := t.head
	if seg == nil {
		return nil
	}
	for seg.next != nil {
		seg = seg.next
	}
	return seg
}

// link places seg between prev and prev.next, or at the head when prev is nil.
func (t *Track) link(prev, seg *segment) {
	if prev == nil {
		seg.next = t.head
		t.head = seg
		return
	}
	seg.next = prev.next
	prev.next = seg
}

// dependentsSnapshot returns the current dependents as a slice so that the
// set can be modified while iterating.
func (t *Track) dependentsSnapshot() []*segment {
	deps := make([]*segment, 0, len(t.dependents))
	for dep := range t.dependents {
		deps = append(deps, dep)
	}
	return deps
}

// shiftForInsert keeps every view of t on the same samples after n samples
// were inserted at gap. Views starting at or after the gap move right; a view
// straddling the gap is split so that neither piece covers the new samples.
func (t *Track) shiftForInsert(gap, n int64) {
	for _, dep := range t.dependentsSnapshot() {
		switch {
		case dep.offset >= gap:
			dep.offset += n
		case gap < dep.offset+dep.length:
			tail := split(dep, gap-dep.offset)
			tail.offset += n
		}
	}
}

// shiftForDelete moves views past a deleted window [pos, pos+n) left by n.
// Views overlapping the window are rejected before any delete starts.
func (t *Track) shiftForDelete(pos, n int64) {
	for dep := range t.dependents {
		if dep.offset >= pos+n {
			dep.offset -= n
		}
	}
}

// viewedWithin reports whether any view of t borrows a position in [pos, pos+n).
func (t *Track) viewedWithin(pos, n int64) bool {
	for dep := range t.dependents {
		if dep.overlaps(pos, n) {
			return true
		}
	}
	return false
}

// collectBorrow gathers the distinct reference counters that [pos, pos+n)
// resolves to, following views into their parents, and returns the largest
// number of view hops needed by any position in the range.
func (t *Track) collectBorrow(pos, n int64, seen map[*refCounter]bool, counters []*refCounter) ([]*refCounter, int) {
	depth := 0
	t.walk(pos, n, func(seg *segment, offset, run int64) {
		if !seg.isView() {
			if !seen[seg.refs] {
				seen[seg.refs] = true
				counters = append(counters, seg.refs)
			}
			return
		}

		var d int
		counters, d = seg.parent.collectBorrow(seg.offset+offset, run, seen, counters)
		if d+1 > depth {
			depth = d + 1
		}
	})
	return counters, depth
}

// walk visits each segment run covering [pos, pos+n), which must lie within
// the track, with the offset into the segment and the run length.
func (t *Track) walk(pos, n int64, visit func(seg *segment, offset, run int64)) {
	seg, _, offset, err := t.locate(pos)
	if err != nil {
		return
	}

	for n > 0 && seg != nil {
		run := seg.length - offset
		if run > n {
			run = n
		}
		visit(seg, offset, run)

		n -= run
		offset = 0
		seg = seg.next
	}
}
