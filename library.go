package tracks

import (
	"io"
	"log/slog"
	"sort"

	"github.com/google/uuid"
)

// DefaultMaxViewDepth is the view depth limit used when LibraryOptions leaves it unset.
const DefaultMaxViewDepth = 64

// LibraryOptions configures a track library.
type LibraryOptions struct {
	// Logger receives debug events from the engine. Nil discards them.
	Logger *slog.Logger

	// MaxViewDepth limits how many view hops a position may need to reach
	// owned samples. Zero selects DefaultMaxViewDepth, negative disables the limit.
	MaxViewDepth int

	// SampleBudget caps the number of owned samples across all tracks.
	// Zero means unlimited.
	SampleBudget int64
}

// Library owns a set of tracks that may share samples with each other.
// A Library and its tracks are not safe for concurrent use.
type Library struct {
	logger       *slog.Logger
	maxViewDepth int
	sampleBudget int64

	// Active tracks indexed by ID, plus the name index for named tracks
	tracks map[string]*Track
	names  map[string]*Track

	ownedSamples int64
}

// Init creates a new library with the given options.
func Init(options LibraryOptions) (*Library, error) {
	lib := &Library{
		logger:       options.Logger,
		maxViewDepth: options.MaxViewDepth,
		sampleBudget: options.SampleBudget,
		tracks:       make(map[string]*Track),
		names:        make(map[string]*Track),
	}

	if lib.logger == nil {
		lib.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if lib.maxViewDepth == 0 {
		lib.maxViewDepth = DefaultMaxViewDepth
	}

	return lib, nil
}

// NewTrack creates an empty track. Names must be unique among live tracks;
// an empty name is allowed and never indexed.
func (lib *Library) NewTrack(name string) (*Track, error) {
	if name != "" {
		if _, ok := lib.names[name]; ok {
			return nil, ErrTrackExists
		}
	}

	t := &Track{
		lib:        lib,
		id:         uuid.NewString(),
		name:       name,
		dependents: make(map[*segment]struct{}),
	}

	lib.tracks[t.id] = t
	if name != "" {
		lib.names[name] = t
	}

	lib.logger.Debug("track created", "track", t.id, "name", name)
	return t, nil
}

// Track returns the live track with the given name.
func (lib *Library) Track(name string) (*Track, bool) {
	t, ok := lib.names[name]
	return t, ok
}

// Tracks returns all live tracks ordered by name, then ID.
func (lib *Library) Tracks() []*Track {
	result := make([]*Track, 0, len(lib.tracks))
	for _, t := range lib.tracks {
		result = append(result, t)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].name != result[j].name {
			return result[i].name < result[j].name
		}
		return result[i].id < result[j].id
	})
	return result
}

// OwnedSamples returns the number of samples held by owned segments of all tracks.
func (lib *Library) OwnedSamples() int64 {
	return lib.ownedSamples
}

// Close tears down every track, ignoring views between them.
// No track of this library may be used afterwards.
func (lib *Library) Close() error {
	for _, t := range lib.Tracks() {
		t.teardown()
	}
	return nil
}

// reserve accounts for n new owned samples, failing if the budget would be exceeded.
func (lib *Library) reserve(n int64) bool {
	if lib.sampleBudget > 0 && lib.ownedSamples+n > lib.sampleBudget {
		return false
	}
	lib.ownedSamples += n
	return true
}

// unreserve returns n owned samples to the budget.
func (lib *Library) unreserve(n int64) {
	lib.ownedSamples -= n
}

// unregister removes a track from the registry.
func (lib *Library) unregister(t *Track) {
	delete(lib.tracks, t.id)
	if t.name != "" && lib.names[t.name] == t {
		delete(lib.names, t.name)
	}
}
