// tracks-bench is a benchmark and stress test for the tracks library.
// It builds a large track, shares it through many views and measures the
// common editing operations.
package main

import (
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/phroun/tracks"
)

const (
	chunkSize  = 4096
	readSize   = 256
	viewSize   = 512
	deleteSize = 64
	adSize     = 256
	targetSize = 32 * 1024
)

var (
	numSamples int64
	numOps     int
	seed       uint64
)

// BenchResult is the outcome of one benchmark.
type BenchResult struct {
	Name     string
	Duration time.Duration
	Ops      int
	Extra    string
}

func (r BenchResult) opsPerSec() string {
	if r.Ops == 0 || r.Duration <= 0 {
		return ""
	}
	return humanize.Comma(int64(float64(r.Ops) / r.Duration.Seconds()))
}

func main() {
	rootCmd := &cobra.Command{
		Use:           "tracks-bench",
		Short:         "Benchmark the tracks library",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			return run()
		},
	}

	rootCmd.Flags().Int64Var(&numSamples, "samples", 8_000_000, "samples in the base track")
	rootCmd.Flags().IntVar(&numOps, "ops", 10_000, "operations per benchmark")
	rootCmd.Flags().Uint64Var(&seed, "seed", 1, "random seed")

	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if numSamples <= viewSize {
		return fmt.Errorf("--samples must be more than %d", viewSize)
	}

	fmt.Println("Tracks Benchmark and Stress Test")
	fmt.Println("================================")
	fmt.Printf("Base track: %s samples (%s)\n", humanize.Comma(numSamples), humanize.IBytes(uint64(numSamples)*2))
	fmt.Printf("Go version: %s\n", runtime.Version())
	fmt.Printf("GOMAXPROCS: %d\n", runtime.GOMAXPROCS(0))
	fmt.Println()

	tmpDir, err := os.MkdirTemp("", "tracks-bench-*")
	if err != nil {
		return fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	lib, err := tracks.Init(tracks.LibraryOptions{MaxViewDepth: -1})
	if err != nil {
		return fmt.Errorf("init library: %w", err)
	}
	defer lib.Close()

	rng := rand.New(rand.NewPCG(seed, seed))

	base, err := lib.NewTrack("base")
	if err != nil {
		return err
	}
	mix, err := lib.NewTrack("mix")
	if err != nil {
		return err
	}

	var results []BenchResult

	// Helper to run and print each benchmark
	runBench := func(name string, fn func() (BenchResult, error)) error {
		fmt.Printf("  %-40s ", name+"...")
		result, err := fn()
		if err != nil {
			fmt.Println("failed")
			return fmt.Errorf("%s: %w", name, err)
		}
		result.Name = name
		fmt.Printf("%v\n", result.Duration.Round(time.Microsecond))
		results = append(results, result)
		return nil
	}

	fmt.Println("Running benchmarks...")
	fmt.Println()

	steps := []struct {
		name string
		fn   func() (BenchResult, error)
	}{
		{"Append base track", func() (BenchResult, error) { return benchAppend(base, rng) }},
		{"Random read", func() (BenchResult, error) { return benchRead(base, rng) }},
		{"Random overwrite", func() (BenchResult, error) { return benchWrite(base, rng) }},
		{"Insert views", func() (BenchResult, error) { return benchInsert(mix, base, rng) }},
		{"Read through views", func() (BenchResult, error) { return benchRead(mix, rng) }},
		{"Write through views", func() (BenchResult, error) { return benchWrite(mix, rng) }},
		{"Delete views", func() (BenchResult, error) { return benchDelete(mix, rng) }},
		{"Compact library", func() (BenchResult, error) { return benchCompact(lib) }},
		{"Identify", func() (BenchResult, error) { return benchIdentify(lib, base, rng) }},
		{"Save and load WAV", func() (BenchResult, error) { return benchWAV(lib, mix, tmpDir) }},
	}
	for _, step := range steps {
		if err := runBench(step.name, step.fn); err != nil {
			return err
		}
	}

	fmt.Println()
	printSummary(results, lib.Stats())
	return nil
}

func randomSamples(rng *rand.Rand, n int) []int16 {
	samples := make([]int16, n)
	for i := range samples {
		samples[i] = int16(rng.IntN(1 << 16))
	}
	return samples
}

func benchAppend(t *tracks.Track, rng *rand.Rand) (BenchResult, error) {
	chunk := randomSamples(rng, chunkSize)
	ops := 0

	start := time.Now()
	for t.Len() < numSamples {
		n := numSamples - t.Len()
		if n > chunkSize {
			n = chunkSize
		}
		if err := t.Write(chunk[:n], t.Len()); err != nil {
			return BenchResult{}, err
		}
		ops++
	}
	duration := time.Since(start)

	return BenchResult{Duration: duration, Ops: ops, Extra: fmt.Sprintf("%d segments", t.Stats().Segments)}, nil
}

func benchRead(t *tracks.Track, rng *rand.Rand) (BenchResult, error) {
	if t.Len() <= readSize {
		return BenchResult{Extra: "track too short"}, nil
	}
	buf := make([]int16, readSize)

	start := time.Now()
	for range numOps {
		pos := rng.Int64N(t.Len() - readSize)
		if _, err := t.ReadInto(buf, pos); err != nil {
			return BenchResult{}, err
		}
	}
	return BenchResult{Duration: time.Since(start), Ops: numOps}, nil
}

func benchWrite(t *tracks.Track, rng *rand.Rand) (BenchResult, error) {
	if t.Len() <= readSize {
		return BenchResult{Extra: "track too short"}, nil
	}
	chunk := randomSamples(rng, readSize)

	start := time.Now()
	for range numOps {
		pos := rng.Int64N(t.Len() - readSize)
		if err := t.Write(chunk, pos); err != nil {
			return BenchResult{}, err
		}
	}
	return BenchResult{Duration: time.Since(start), Ops: numOps}, nil
}

func benchInsert(dest, src *tracks.Track, rng *rand.Rand) (BenchResult, error) {
	start := time.Now()
	for range numOps {
		srcPos := rng.Int64N(src.Len() - viewSize)
		destPos := int64(0)
		if dest.Len() > 0 {
			destPos = rng.Int64N(dest.Len() + 1)
		}
		if err := dest.Insert(destPos, src, srcPos, viewSize); err != nil {
			return BenchResult{}, err
		}
	}
	duration := time.Since(start)

	stats := dest.Stats()
	return BenchResult{Duration: duration, Ops: numOps,
		Extra: fmt.Sprintf("%s samples in %d segments", humanize.Comma(dest.Len()), stats.Segments)}, nil
}

func benchDelete(t *tracks.Track, rng *rand.Rand) (BenchResult, error) {
	ops := 0

	start := time.Now()
	for range numOps / 2 {
		if t.Len() <= deleteSize {
			break
		}
		pos := rng.Int64N(t.Len() - deleteSize)
		if err := t.Delete(pos, deleteSize); err != nil {
			return BenchResult{}, err
		}
		ops++
	}
	return BenchResult{Duration: time.Since(start), Ops: ops, Extra: fmt.Sprintf("%d segments left", t.Stats().Segments)}, nil
}

func benchCompact(lib *tracks.Library) (BenchResult, error) {
	start := time.Now()
	stats := lib.Compact()
	return BenchResult{Duration: time.Since(start), Ops: 1,
		Extra: fmt.Sprintf("%d -> %d segments", stats.SegmentsBefore, stats.SegmentsAfter)}, nil
}

func benchIdentify(lib *tracks.Library, base *tracks.Track, rng *rand.Rand) (BenchResult, error) {
	ad, err := lib.NewTrack("")
	if err != nil {
		return BenchResult{}, err
	}
	defer ad.Close()
	if err := ad.Insert(0, base, rng.Int64N(base.Len()-adSize), adSize); err != nil {
		return BenchResult{}, err
	}

	target, err := lib.NewTrack("")
	if err != nil {
		return BenchResult{}, err
	}
	defer target.Close()
	if err := target.Write(randomSamples(rng, targetSize), 0); err != nil {
		return BenchResult{}, err
	}
	for _, pos := range []int64{targetSize / 4, targetSize / 2} {
		if err := target.Insert(pos, ad, 0, adSize); err != nil {
			return BenchResult{}, err
		}
	}

	start := time.Now()
	matches, err := tracks.FindMatches(target, ad, tracks.IdentifyOptions{})
	if err != nil {
		return BenchResult{}, err
	}
	duration := time.Since(start)

	return BenchResult{Duration: duration, Ops: 1, Extra: fmt.Sprintf("%d matches", len(matches))}, nil
}

func benchWAV(lib *tracks.Library, t *tracks.Track, dir string) (BenchResult, error) {
	path := filepath.Join(dir, "mix.wav")

	start := time.Now()
	if err := t.SaveWAV(path); err != nil {
		return BenchResult{}, err
	}
	loaded, err := lib.OpenWAV("", path)
	if err != nil {
		return BenchResult{}, err
	}
	duration := time.Since(start)
	defer loaded.Close()

	info, err := os.Stat(path)
	if err != nil {
		return BenchResult{}, err
	}
	return BenchResult{Duration: duration, Ops: 2, Extra: humanize.IBytes(uint64(info.Size()))}, nil
}

func printSummary(results []BenchResult, stats tracks.LibraryStats) {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"Benchmark", "Duration", "Ops", "Ops/sec", "Notes"})
	for _, r := range results {
		tbl.AppendRow(table.Row{r.Name, r.Duration.Round(time.Microsecond), humanize.Comma(int64(r.Ops)), r.opsPerSec(), r.Extra})
	}
	tbl.AppendFooter(table.Row{
		"Final", "", "", "",
		fmt.Sprintf("%d tracks, %s segments, %s owned", stats.Tracks,
			humanize.Comma(int64(stats.Segments)), humanize.IBytes(uint64(stats.OwnedSamples)*2)),
	})
	fmt.Println(tbl.Render())
}
