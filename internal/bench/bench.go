// Package bench populates a namespace with a synthetic tree and measures
// random read latency against it. Used by the CLI's bench subcommand.
package bench

import (
	"errors"
	"fmt"
	"io"
	"math/rand"
	"sort"
	"time"

	"github.com/fatih/color"

	"github.com/akulagin/indexfs/internal/vfs"
)

const (
	seed        = 42
	payloadSize = 256
)

// Populate fills ns with dirs top-level directories of filesPerDir files
// each. Names and payloads come from a fixed seed so runs are comparable.
func Populate(ns *vfs.Namespace, dirs, filesPerDir int) ([]string, error) {
	rng := rand.New(rand.NewSource(seed))

	paths := make([]string, 0, dirs*filesPerDir)
	payload := make([]byte, payloadSize)
	for d := 0; d < dirs; d++ {
		dir := fmt.Sprintf("/bench-%04d", d)
		if err := ns.Mkdir(dir); err != nil {
			return nil, fmt.Errorf("populate: %w", err)
		}
		for f := 0; f < filesPerDir; f++ {
			path := fmt.Sprintf("%s/file-%06x", dir, rng.Int31())
			rng.Read(payload)
			if err := ns.Write(path, payload); err != nil {
				return nil, fmt.Errorf("populate: %w", err)
			}
			paths = append(paths, path)
		}
	}
	return paths, nil
}

// TimeRandomReads performs n reads of randomly chosen known paths and returns
// the per-read wall-clock samples. Names promoted as split pivots are
// unreachable through lookup, so a populated directory large enough to split
// produces reads that miss; those are counted as dropped, not treated as
// failures — observing them is part of what the benchmark measures.
func TimeRandomReads(ns *vfs.Namespace, paths []string, n int) ([]time.Duration, int, error) {
	rng := rand.New(rand.NewSource(seed + 1))

	dropped := 0
	samples := make([]time.Duration, 0, n)
	for i := 0; i < n; i++ {
		path := paths[rng.Intn(len(paths))]
		start := time.Now()
		_, err := ns.Read(path)
		switch {
		case err == nil:
			samples = append(samples, time.Since(start))
		case errors.Is(err, vfs.ErrNotFound):
			dropped++
		default:
			return nil, 0, fmt.Errorf("read %s: %w", path, err)
		}
	}
	return samples, dropped, nil
}

// Report prints a latency summary of the samples to w.
func Report(w io.Writer, samples []time.Duration, dropped int) {
	if len(samples) == 0 {
		fmt.Fprintln(w, "no samples")
		return
	}

	sorted := append([]time.Duration(nil), samples...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var total time.Duration
	for _, s := range sorted {
		total += s
	}

	header := color.New(color.FgCyan, color.Bold)
	header.Fprintf(w, "random read latency (%d samples)\n", len(sorted))
	fmt.Fprintf(w, "  min:  %v\n", sorted[0])
	fmt.Fprintf(w, "  p50:  %v\n", percentile(sorted, 50))
	fmt.Fprintf(w, "  p95:  %v\n", percentile(sorted, 95))
	fmt.Fprintf(w, "  max:  %v\n", sorted[len(sorted)-1])
	fmt.Fprintf(w, "  mean: %v\n", total/time.Duration(len(sorted)))
	if dropped > 0 {
		color.New(color.FgYellow).Fprintf(w, "  dropped reads (unreachable names): %d\n", dropped)
	}
}

func percentile(sorted []time.Duration, p int) time.Duration {
	idx := len(sorted) * p / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
