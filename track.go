package tracks

import "fmt"

// Track is a named, editable sequence of 16-bit PCM samples.
//
// A track's chain mixes owned segments with views of other tracks (or of
// itself). Writes through a view land in the owning track, so every viewer
// of a range observes the same samples.
type Track struct {
	lib  *Library
	id   string
	name string

	head   *segment
	length int64

	// View segments, on any track, whose parent is this track
	dependents map[*segment]struct{}

	closed bool
}

// ID returns the track's unique identifier.
func (t *Track) ID() string {
	return t.id
}

// Name returns the name the track was created with.
func (t *Track) Name() string {
	return t.name
}

// Len returns the number of samples in the track.
func (t *Track) Len() int64 {
	return t.length
}

// Closed reports whether the track has been closed.
func (t *Track) Closed() bool {
	return t.closed
}

// Read returns up to length samples starting at pos.
// Reads past the end are clamped; a read starting at or after the end is empty.
func (t *Track) Read(pos, length int64) ([]int16, error) {
	if t.closed {
		return nil, ErrClosed
	}
	if pos < 0 {
		return nil, fmt.Errorf("%w: read at %d", ErrOutOfRange, pos)
	}
	if pos >= t.length || length <= 0 {
		return nil, nil
	}

	if length > t.length-pos {
		length = t.length - pos
	}

	dest := make([]int16, length)
	t.readRange(dest, pos)
	return dest, nil
}

// ReadInto fills dest with samples starting at pos and returns how many were copied.
func (t *Track) ReadInto(dest []int16, pos int64) (int, error) {
	if t.closed {
		return 0, ErrClosed
	}
	if pos < 0 {
		return 0, fmt.Errorf("%w: read at %d", ErrOutOfRange, pos)
	}
	if pos >= t.length || len(dest) == 0 {
		return 0, nil
	}

	n := int64(len(dest))
	if n > t.length-pos {
		n = t.length - pos
	}

	t.readRange(dest[:n], pos)
	return int(n), nil
}

// readRange copies len(dest) samples starting at pos, which must be in range.
func (t *Track) readRange(dest []int16, pos int64) {
	written := int64(0)
	t.walk(pos, int64(len(dest)), func(seg *segment, offset, run int64) {
		out := dest[written : written+run]
		if seg.isView() {
			seg.parent.readRange(out, seg.offset+offset)
		} else {
			copy(out, seg.samples[offset:offset+run])
		}
		written += run
	})
}

// Write stores src starting at pos. Samples that land inside the track
// overwrite in place, following views into the tracks that own them; the rest
// are appended as one new owned segment. A pos past the end appends.
func (t *Track) Write(src []int16, pos int64) error {
	if t.closed {
		return ErrClosed
	}
	if pos < 0 {
		return fmt.Errorf("%w: write at %d", ErrOutOfRange, pos)
	}
	if len(src) == 0 {
		return nil
	}

	if pos > t.length {
		pos = t.length
	}

	inRange := t.length - pos
	if inRange > int64(len(src)) {
		inRange = int64(len(src))
	}
	appended := int64(len(src)) - inRange

	// Reserve before touching anything so a refused append leaves no trace
	if appended > 0 && !t.lib.reserve(appended) {
		t.lib.logger.Debug("append refused", "track", t.id, "samples", appended,
			"owned", t.lib.ownedSamples, "budget", t.lib.sampleBudget)
		return fmt.Errorf("%w: appending %d samples", ErrOutOfMemory, appended)
	}

	if inRange > 0 {
		t.writeRange(src[:inRange], pos)
	}

	if appended > 0 {
		samples := make([]int16, appended)
		copy(samples, src[inRange:])
		t.link(t.last(), newOwnedSegment(samples))
		t.length += appended
	}

	return nil
}

// writeRange overwrites len(src) samples starting at pos, which must be in range.
func (t *Track) writeRange(src []int16, pos int64) {
	written := int64(0)
	t.walk(pos, int64(len(src)), func(seg *segment, offset, run int64) {
		in := src[written : written+run]
		if seg.isView() {
			seg.parent.writeRange(in, seg.offset+offset)
		} else {
			copy(seg.samples[offset:offset+run], in)
		}
		written += run
	})
}

// Insert places a view of src[srcPos, srcPos+length) at destPos in t.
// No samples are copied: later writes through either track are visible in
// both. destPos is clamped to the track and length to the source. src may be t.
func (t *Track) Insert(destPos int64, src *Track, srcPos, length int64) error {
	if t.closed || src.closed {
		return ErrClosed
	}
	if src.lib != t.lib {
		return ErrForeignTrack
	}
	if srcPos < 0 || srcPos >= src.length {
		return fmt.Errorf("%w: source position %d of %d", ErrOutOfRange, srcPos, src.length)
	}

	if destPos < 0 {
		destPos = 0
	}
	if destPos > t.length {
		destPos = t.length
	}
	if length > src.length-srcPos {
		length = src.length - srcPos
	}
	if length <= 0 {
		return nil
	}

	counters, depth := src.collectBorrow(srcPos, length, make(map[*refCounter]bool), nil)
	if t.lib.maxViewDepth > 0 && depth+1 > t.lib.maxViewDepth {
		return fmt.Errorf("%w: depth %d", ErrViewDepth, depth+1)
	}

	loan := &borrow{counters: counters}
	for _, c := range counters {
		c.count++
	}

	view := newViewSegment(src, srcPos, length, loan)
	src.dependents[view] = struct{}{}

	prev, _ := t.splitAt(destPos)
	t.link(prev, view)
	t.length += length

	// Positions at and after destPos moved; keep views of t on their samples
	t.shiftForInsert(destPos, length)

	return nil
}

// Delete removes length samples starting at pos. It fails with ErrLocked,
// changing nothing, if any of those samples is borrowed by a view. Views in
// the range are always removable. length is clamped to the track.
func (t *Track) Delete(pos, length int64) error {
	if t.closed {
		return ErrClosed
	}
	if pos < 0 || pos >= t.length {
		return fmt.Errorf("%w: delete at %d of %d", ErrOutOfRange, pos, t.length)
	}
	if length <= 0 {
		return nil
	}
	if length > t.length-pos {
		length = t.length - pos
	}

	if err := t.checkDeletable(pos, length); err != nil {
		t.lib.logger.Debug("delete refused", "track", t.id, "pos", pos, "length", length, "error", err)
		return err
	}

	prev, first := t.splitAt(pos)
	_, after := t.splitAt(pos + length)

	var freed int64
	for seg := first; seg != after; seg = seg.next {
		if seg.isView() {
			seg.detach()
		} else {
			freed += seg.length
		}
	}

	if prev == nil {
		t.head = after
	} else {
		prev.next = after
	}

	t.length -= length
	t.lib.unreserve(freed)
	t.shiftForDelete(pos, length)

	return nil
}

// checkDeletable runs the legality scan for Delete without changing anything.
func (t *Track) checkDeletable(pos, length int64) error {
	if t.viewedWithin(pos, length) {
		return fmt.Errorf("%w: range %d+%d is viewed", ErrLocked, pos, length)
	}

	var err error
	start := pos
	t.walk(pos, length, func(seg *segment, offset, run int64) {
		if err == nil && seg.locked() {
			err = fmt.Errorf("%w: owned segment at %d has %d views", ErrLocked, start-offset, seg.refs.count)
		}
		start += run
	})
	return err
}

// detach unregisters a view from its parent and gives back its share of the borrow.
func (s *segment) detach() {
	delete(s.parent.dependents, s)
	s.loan.release()
}

// Close destroys the track. It fails with ErrBusy while a view on another
// track borrows from it; views the track holds on itself do not count.
func (t *Track) Close() error {
	if t.closed {
		return ErrClosed
	}

	own := make(map[*segment]bool)
	for seg := t.head; seg != nil; seg = seg.next {
		if seg.isView() && seg.parent == t {
			own[seg] = true
		}
	}
	for dep := range t.dependents {
		if !own[dep] {
			return fmt.Errorf("%w: %s", ErrBusy, t.describe())
		}
	}

	t.teardown()
	return nil
}

// teardown releases the chain and unregisters the track without checking views.
func (t *Track) teardown() {
	var freed int64
	for seg := t.head; seg != nil; seg = seg.next {
		if seg.isView() {
			seg.detach()
		} else {
			freed += seg.length
		}
	}

	t.lib.unreserve(freed)
	t.lib.unregister(t)
	t.lib.logger.Debug("track closed", "track", t.id, "name", t.name)

	t.head = nil
	t.length = 0
	t.dependents = make(map[*segment]struct{})
	t.closed = true
}

// describe names the track for error messages.
func (t *Track) describe() string {
	if t.name != "" {
		return fmt.Sprintf("%q", t.name)
	}
	return t.id
}
