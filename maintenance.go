package tracks

import "fmt"

// SegmentInfo describes one segment of a track's chain.
type SegmentInfo struct {
	Kind     string // "owned" or "view"
	Start    int64  // position of the first sample within the track
	Length   int64
	Parent   string // parent track ID (views only)
	Offset   int64  // offset into the parent (views only)
	RefCount int    // child-reference count (owned only)
}

// TrackStats contains structural statistics for a single track.
type TrackStats struct {
	Segments       int   // segments in the chain
	OwnedSegments  int   // segments holding samples
	ViewSegments   int   // segments borrowing samples
	OwnedSamples   int64 // samples held by owned segments
	LockedSegments int   // owned segments with a non-zero reference count
	Dependents     int   // views, on any track, borrowing from this track
}

// LibraryStats aggregates TrackStats over every live track.
type LibraryStats struct {
	Tracks int
	TrackStats
	SampleBudget int64 // configured budget (0 = unlimited)
}

// MaintenanceStats contains statistics from a compaction run.
type MaintenanceStats struct {
	TracksVisited  int
	SegmentsBefore int
	SegmentsAfter  int
	SegmentsJoined int
}

// Segments returns a description of every segment in chain order.
func (t *Track) Segments() []SegmentInfo {
	var result []SegmentInfo
	start := int64(0)
	for seg := t.head; seg != nil; seg = seg.next {
		info := SegmentInfo{
			Kind:   seg.kind.String(),
			Start:  start,
			Length: seg.length,
		}
		if seg.isView() {
			info.Parent = seg.parent.id
			info.Offset = seg.offset
		} else {
			info.RefCount = seg.refs.count
		}
		result = append(result, info)
		start += seg.length
	}
	return result
}

// Stats returns structural statistics for the track.
func (t *Track) Stats() TrackStats {
	stats := TrackStats{Dependents: len(t.dependents)}
	for seg := t.head; seg != nil; seg = seg.next {
		stats.Segments++
		if seg.isView() {
			stats.ViewSegments++
			continue
		}
		stats.OwnedSegments++
		stats.OwnedSamples += seg.length
		if seg.locked() {
			stats.LockedSegments++
		}
	}
	return stats
}

// Stats returns statistics aggregated over all live tracks.
func (lib *Library) Stats() LibraryStats {
	stats := LibraryStats{SampleBudget: lib.sampleBudget}
	for _, t := range lib.tracks {
		ts := t.Stats()
		stats.Tracks++
		stats.Segments += ts.Segments
		stats.OwnedSegments += ts.OwnedSegments
		stats.ViewSegments += ts.ViewSegments
		stats.OwnedSamples += ts.OwnedSamples
		stats.LockedSegments += ts.LockedSegments
		stats.Dependents += ts.Dependents
	}
	return stats
}

// RefCountAt returns the child-reference count of the owned segment that
// position pos ultimately resolves to.
func (t *Track) RefCountAt(pos int64) (int, error) {
	if t.closed {
		return 0, ErrClosed
	}

	seg, _, offset, err := t.locate(pos)
	if err != nil {
		return 0, fmt.Errorf("%w: position %d of %d", err, pos, t.length)
	}
	if seg.isView() {
		return seg.parent.RefCountAt(seg.offset + offset)
	}
	return seg.refs.count, nil
}

// DepthAt returns the number of views crossed to reach the samples at pos.
func (t *Track) DepthAt(pos int64) (int, error) {
	if t.closed {
		return 0, ErrClosed
	}

	seg, _, offset, err := t.locate(pos)
	if err != nil {
		return 0, fmt.Errorf("%w: position %d of %d", err, pos, t.length)
	}
	if !seg.isView() {
		return 0, nil
	}

	depth, err := seg.parent.DepthAt(seg.offset + offset)
	return depth + 1, err
}

// Compact joins runs of adjacent owned segments that no view borrows from.
// Samples and positions are unchanged; only the chain gets shorter.
func (t *Track) Compact() MaintenanceStats {
	stats := MaintenanceStats{TracksVisited: 1}
	if t.closed {
		return stats
	}

	for seg := t.head; seg != nil; seg = seg.next {
		stats.SegmentsBefore++
	}

	for seg := t.head; seg != nil && seg.next != nil; {
		next := seg.next
		if seg.isView() || next.isView() || seg.locked() || next.locked() {
			seg = next
			continue
		}
		t.join(seg, next)
		stats.SegmentsJoined++
	}

	stats.SegmentsAfter = stats.SegmentsBefore - stats.SegmentsJoined
	if stats.SegmentsJoined > 0 {
		t.lib.logger.Debug("track compacted", "track", t.id,
			"before", stats.SegmentsBefore, "after", stats.SegmentsAfter)
	}
	return stats
}

// Compact runs Track.Compact over every live track.
func (lib *Library) Compact() MaintenanceStats {
	var total MaintenanceStats
	for _, t := range lib.Tracks() {
		s := t.Compact()
		total.TracksVisited += s.TracksVisited
		total.SegmentsBefore += s.SegmentsBefore
		total.SegmentsAfter += s.SegmentsAfter
		total.SegmentsJoined += s.SegmentsJoined
	}
	return total
}
