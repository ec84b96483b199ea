package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"gopkg.in/yaml.v3"

	"github.com/phroun/tracks"
	"github.com/phroun/tracks/internal/config"
	"github.com/phroun/tracks/wav"
)

// REPL holds the state of the interactive session
type REPL struct {
	lib    *tracks.Library
	cfg    *config.Config
	reader *bufio.Reader
	out    io.Writer

	prompt *color.Color
	errout *color.Color
	okout  *color.Color
}

// NewREPL creates a session reading commands from reader and printing to out.
func NewREPL(lib *tracks.Library, cfg *config.Config, reader *bufio.Reader, out io.Writer) *REPL {
	return &REPL{
		lib:    lib,
		cfg:    cfg,
		reader: reader,
		out:    out,
		prompt: color.New(color.FgCyan),
		errout: color.New(color.FgRed),
		okout:  color.New(color.FgGreen),
	}
}

// Run reads and executes commands until quit or end of input.
func (r *REPL) Run() {
	for {
		r.prompt.Fprint(r.out, "tracks> ")
		input, err := r.reader.ReadString('\n')
		if err != nil && input == "" {
			fmt.Fprintln(r.out, "\nGoodbye!")
			return
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if !r.handleCommand(input) {
			return
		}
	}
}

func (r *REPL) handleCommand(input string) bool {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return true
	}

	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "help":
		r.printHelp()

	case "quit", "exit":
		fmt.Fprintln(r.out, "Goodbye!")
		return false

	case "new":
		r.cmdNew(args)

	case "close":
		r.cmdClose(args)

	case "tracks":
		r.cmdTracks()

	case "write":
		r.cmdWrite(args)

	case "read":
		r.cmdRead(args)

	case "insert":
		r.cmdInsert(args)

	case "delete":
		r.cmdDelete(args)

	case "len":
		r.cmdLen(args)

	case "segments":
		r.cmdSegments(args)

	case "dump":
		r.cmdDump(args)

	case "refs":
		r.cmdRefs(args)

	case "compact":
		r.cmdCompact(args)

	case "stats":
		r.cmdStats()

	case "identify":
		r.cmdIdentify(args)

	case "load":
		r.cmdLoad(args)

	case "save":
		r.cmdSave(args)

	case "info":
		r.cmdInfo(args)

	default:
		r.errorf("Unknown command: %s. Type 'help' for available commands.\n", cmd)
	}

	return true
}

func (r *REPL) printHelp() {
	help := `
Available Commands:
-------------------

TRACKS:
  new <name>                               Create an empty track
  close <name>                             Destroy a track (fails while borrowed from)
  tracks                                   List live tracks
  load <name> <file.wav>                   Create a track from a WAV file
  save <name> <file.wav>                   Write a track to a WAV file
  info <file.wav>                          Show the format of a WAV file

SAMPLES:
  write <name> <pos> <s...>                Overwrite/append samples at pos
  read <name> <pos> <len>                  Print samples
  len <name>                               Print the track length

SHARING:
  insert <dest> <destpos> <src> <srcpos> <len>
                                           Insert a view of src into dest
  delete <name> <pos> <len>                Delete a range (fails if borrowed)
  identify <target> <ad>                   Find occurrences of ad in target

INSPECTION:
  segments <name>                          Show the segment chain
  dump <name>                              Dump the segment chain as YAML
  refs <name> <pos>                        Show reference count and view depth at pos
  compact [name]                           Join adjacent unshared segments
  stats                                    Show library statistics

OTHER:
  help                                     Show this help message
  quit, exit                               Exit the REPL
`
	fmt.Fprintln(r.out, help)
}

func (r *REPL) errorf(format string, args ...any) {
	r.errout.Fprintf(r.out, format, args...)
}

// report prints err with a hint for the engine's sentinel errors.
func (r *REPL) report(action string, err error) {
	hint := ""
	switch {
	case errors.Is(err, tracks.ErrLocked):
		hint = " (another track borrows these samples)"
	case errors.Is(err, tracks.ErrBusy):
		hint = " (delete the views borrowing from it first)"
	case errors.Is(err, tracks.ErrOutOfMemory):
		hint = " (sample budget exhausted)"
	}
	r.errorf("%s error: %v%s\n", action, err, hint)
}

// track resolves a track name, printing an error if it does not exist.
func (r *REPL) track(name string) (*tracks.Track, bool) {
	t, ok := r.lib.Track(name)
	if !ok {
		r.errorf("No track named %q\n", name)
	}
	return t, ok
}

func (r *REPL) parseInt(what, s string) (int64, bool) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		r.errorf("Invalid %s: %v\n", what, err)
		return 0, false
	}
	return v, true
}

func (r *REPL) cmdNew(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(r.out, "Usage: new <name>")
		return
	}

	t, err := r.lib.NewTrack(args[0])
	if err != nil {
		r.report("New", err)
		return
	}
	r.okout.Fprintf(r.out, "Created track %q (%s)\n", t.Name(), t.ID())
}

func (r *REPL) cmdClose(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(r.out, "Usage: close <name>")
		return
	}
	t, ok := r.track(args[0])
	if !ok {
		return
	}

	if err := t.Close(); err != nil {
		r.report("Close", err)
		return
	}
	fmt.Fprintf(r.out, "Track %q closed\n", args[0])
}

func (r *REPL) cmdTracks() {
	list := r.lib.Tracks()
	if len(list) == 0 {
		fmt.Fprintln(r.out, "No tracks. Use 'new <name>' to create one.")
		return
	}

	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"Name", "ID", "Samples", "Segments", "Views", "Borrowed by"})
	for _, t := range list {
		stats := t.Stats()
		tbl.AppendRow(table.Row{
			t.Name(), t.ID(), humanize.Comma(t.Len()),
			stats.Segments, stats.ViewSegments, stats.Dependents,
		})
	}
	tbl.AppendFooter(table.Row{fmt.Sprintf("Total: %d tracks", len(list))})
	fmt.Fprintln(r.out, tbl.Render())
}

func (r *REPL) cmdWrite(args []string) {
	if len(args) < 3 {
		fmt.Fprintln(r.out, "Usage: write <name> <pos> <s...>")
		return
	}
	t, ok := r.track(args[0])
	if !ok {
		return
	}
	pos, ok := r.parseInt("position", args[1])
	if !ok {
		return
	}

	samples := make([]int16, 0, len(args)-2)
	for _, arg := range args[2:] {
		v, err := strconv.ParseInt(arg, 10, 16)
		if err != nil {
			r.errorf("Invalid sample %q: %v\n", arg, err)
			return
		}
		samples = append(samples, int16(v))
	}

	if err := t.Write(samples, pos); err != nil {
		r.report("Write", err)
		return
	}
	fmt.Fprintf(r.out, "Wrote %d samples, length now %d\n", len(samples), t.Len())
}

func (r *REPL) cmdRead(args []string) {
	if len(args) != 3 {
		fmt.Fprintln(r.out, "Usage: read <name> <pos> <len>")
		return
	}
	t, ok := r.track(args[0])
	if !ok {
		return
	}
	pos, ok := r.parseInt("position", args[1])
	if !ok {
		return
	}
	length, ok := r.parseInt("length", args[2])
	if !ok {
		return
	}

	samples, err := t.Read(pos, length)
	if err != nil {
		r.report("Read", err)
		return
	}

	parts := make([]string, len(samples))
	for i, s := range samples {
		parts[i] = strconv.Itoa(int(s))
	}
	fmt.Fprintf(r.out, "[%s]\n", strings.Join(parts, " "))
}

func (r *REPL) cmdInsert(args []string) {
	if len(args) != 5 {
		fmt.Fprintln(r.out, "Usage: insert <dest> <destpos> <src> <srcpos> <len>")
		return
	}
	dest, ok := r.track(args[0])
	if !ok {
		return
	}
	destPos, ok := r.parseInt("destination position", args[1])
	if !ok {
		return
	}
	src, ok := r.track(args[2])
	if !ok {
		return
	}
	srcPos, ok := r.parseInt("source position", args[3])
	if !ok {
		return
	}
	length, ok := r.parseInt("length", args[4])
	if !ok {
		return
	}

	if err := dest.Insert(destPos, src, srcPos, length); err != nil {
		r.report("Insert", err)
		return
	}
	fmt.Fprintf(r.out, "Inserted view, length now %d\n", dest.Len())
}

func (r *REPL) cmdDelete(args []string) {
	if len(args) != 3 {
		fmt.Fprintln(r.out, "Usage: delete <name> <pos> <len>")
		return
	}
	t, ok := r.track(args[0])
	if !ok {
		return
	}
	pos, ok := r.parseInt("position", args[1])
	if !ok {
		return
	}
	length, ok := r.parseInt("length", args[2])
	if !ok {
		return
	}

	if err := t.Delete(pos, length); err != nil {
		r.report("Delete", err)
		return
	}
	fmt.Fprintf(r.out, "Deleted, length now %d\n", t.Len())
}

func (r *REPL) cmdLen(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(r.out, "Usage: len <name>")
		return
	}
	t, ok := r.track(args[0])
	if !ok {
		return
	}
	fmt.Fprintf(r.out, "%d\n", t.Len())
}

func (r *REPL) cmdSegments(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(r.out, "Usage: segments <name>")
		return
	}
	t, ok := r.track(args[0])
	if !ok {
		return
	}

	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"#", "Kind", "Start", "Length", "Parent", "Offset", "Refs"})
	for i, seg := range t.Segments() {
		parent := ""
		offset := ""
		refs := ""
		if seg.Kind == "view" {
			parent = r.trackLabel(seg.Parent)
			offset = strconv.FormatInt(seg.Offset, 10)
		} else {
			refs = strconv.Itoa(seg.RefCount)
		}
		tbl.AppendRow(table.Row{i, seg.Kind, seg.Start, seg.Length, parent, offset, refs})
	}
	fmt.Fprintln(r.out, tbl.Render())
}

// trackLabel returns the name of the track with the given ID, or the ID itself.
func (r *REPL) trackLabel(id string) string {
	for _, t := range r.lib.Tracks() {
		if t.ID() == id && t.Name() != "" {
			return t.Name()
		}
	}
	return id
}

type dumpSegment struct {
	Kind     string `yaml:"kind"`
	Start    int64  `yaml:"start"`
	Length   int64  `yaml:"length"`
	Parent   string `yaml:"parent,omitempty"`
	Offset   int64  `yaml:"offset,omitempty"`
	RefCount int    `yaml:"refs,omitempty"`
}

type dumpTrack struct {
	Name     string        `yaml:"name"`
	ID       string        `yaml:"id"`
	Length   int64         `yaml:"length"`
	Segments []dumpSegment `yaml:"segments"`
}

func (r *REPL) cmdDump(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(r.out, "Usage: dump <name>")
		return
	}
	t, ok := r.track(args[0])
	if !ok {
		return
	}

	doc := dumpTrack{Name: t.Name(), ID: t.ID(), Length: t.Len()}
	for _, seg := range t.Segments() {
		doc.Segments = append(doc.Segments, dumpSegment{
			Kind:     seg.Kind,
			Start:    seg.Start,
			Length:   seg.Length,
			Parent:   seg.Parent,
			Offset:   seg.Offset,
			RefCount: seg.RefCount,
		})
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		r.report("Dump", err)
		return
	}
	fmt.Fprint(r.out, string(data))
}

func (r *REPL) cmdRefs(args []string) {
	if len(args) != 2 {
		fmt.Fprintln(r.out, "Usage: refs <name> <pos>")
		return
	}
	t, ok := r.track(args[0])
	if !ok {
		return
	}
	pos, ok := r.parseInt("position", args[1])
	if !ok {
		return
	}

	refs, err := t.RefCountAt(pos)
	if err != nil {
		r.report("Refs", err)
		return
	}
	depth, err := t.DepthAt(pos)
	if err != nil {
		r.report("Refs", err)
		return
	}
	fmt.Fprintf(r.out, "refs=%d depth=%d\n", refs, depth)
}

func (r *REPL) cmdCompact(args []string) {
	var stats tracks.MaintenanceStats
	if len(args) == 1 {
		t, ok := r.track(args[0])
		if !ok {
			return
		}
		stats = t.Compact()
	} else {
		stats = r.lib.Compact()
	}

	fmt.Fprintf(r.out, "Compacted %d tracks: %d -> %d segments\n",
		stats.TracksVisited, stats.SegmentsBefore, stats.SegmentsAfter)
}

func (r *REPL) cmdStats() {
	stats := r.lib.Stats()

	budget := "unlimited"
	if stats.SampleBudget > 0 {
		budget = humanize.IBytes(uint64(stats.SampleBudget) * 2)
	}

	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"Metric", "Value"})
	tbl.AppendRows([]table.Row{
		{"Tracks", stats.Tracks},
		{"Segments", humanize.Comma(int64(stats.Segments))},
		{"Owned segments", humanize.Comma(int64(stats.OwnedSegments))},
		{"View segments", humanize.Comma(int64(stats.ViewSegments))},
		{"Locked segments", humanize.Comma(int64(stats.LockedSegments))},
		{"Owned samples", humanize.Comma(stats.OwnedSamples)},
		{"Owned memory", humanize.IBytes(uint64(stats.OwnedSamples) * 2)},
		{"Budget", budget},
	})
	fmt.Fprintln(r.out, tbl.Render())
}

func (r *REPL) cmdIdentify(args []string) {
	if len(args) != 2 {
		fmt.Fprintln(r.out, "Usage: identify <target> <ad>")
		return
	}
	target, ok := r.track(args[0])
	if !ok {
		return
	}
	ad, ok := r.track(args[1])
	if !ok {
		return
	}

	matches, err := tracks.FindMatches(target, ad, r.cfg.IdentifyOptions())
	if err != nil {
		r.report("Identify", err)
		return
	}
	if len(matches) == 0 {
		fmt.Fprintln(r.out, "No matches")
		return
	}
	fmt.Fprintln(r.out, tracks.FormatMatches(matches))
}

func (r *REPL) cmdLoad(args []string) {
	if len(args) != 2 {
		fmt.Fprintln(r.out, "Usage: load <name> <file.wav>")
		return
	}

	t, err := r.lib.OpenWAV(args[0], args[1])
	if err != nil {
		r.report("Load", err)
		return
	}
	r.okout.Fprintf(r.out, "Loaded %s samples into %q\n", humanize.Comma(t.Len()), t.Name())
}

func (r *REPL) cmdSave(args []string) {
	if len(args) != 2 {
		fmt.Fprintln(r.out, "Usage: save <name> <file.wav>")
		return
	}
	t, ok := r.track(args[0])
	if !ok {
		return
	}

	if err := t.SaveWAV(args[1]); err != nil {
		r.report("Save", err)
		return
	}
	fmt.Fprintf(r.out, "Saved %s samples (%s) to %s\n",
		humanize.Comma(t.Len()), humanize.IBytes(uint64(wav.HeaderSize+2*t.Len())), args[1])
}

func (r *REPL) cmdInfo(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(r.out, "Usage: info <file.wav>")
		return
	}

	format, err := wav.Inspect(args[0])
	if err != nil {
		r.report("Info", err)
		return
	}
	fmt.Fprintln(r.out, format.String())
	if !format.Mono16() {
		r.errorf("Warning: not 16-bit mono PCM; 'load' will misread the samples\n")
	}
}
