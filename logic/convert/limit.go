package convert

import (
	"context"
	"fmt"
	"runtime"
)

// Worker sizing constants.
const (
	MinWorkers = 1
	// MaxWorkers caps concurrent converter processes; marker loads its
	// models per process and is memory hungry.
	MaxWorkers = 8
	cpuDivisor = 2
)

// limited gates a Converter behind a fixed number of slots.
type limited struct {
	inner Converter
	slots chan struct{}
}

// Limit allows at most n concurrent Convert calls on c. Callers waiting for a
// slot give up when their context ends.
func Limit(c Converter, n int) Converter {
	if n < MinWorkers {
		n = MinWorkers
	}
	return &limited{inner: c, slots: make(chan struct{}, n)}
}

func (l *limited) Name() string { return l.inner.Name() }

func (l *limited) Convert(ctx context.Context, inputPath, format, outputDir string) error {
	select {
	case l.slots <- struct{}{}:
	case <-ctx.Done():
		return fmt.Errorf("waiting for converter slot: %w", ctx.Err())
	}
	defer func() { <-l.slots }()

	return l.inner.Convert(ctx, inputPath, format, outputDir)
}

// ResolveWorkers returns workers when positive, otherwise half of GOMAXPROCS
// clamped to [MinWorkers, MaxWorkers].
func ResolveWorkers(workers int) int {
	if workers > 0 {
		return workers
	}

	n := runtime.GOMAXPROCS(0) / cpuDivisor
	if n < MinWorkers {
		return MinWorkers
	}
	if n > MaxWorkers {
		return MaxWorkers
	}
	return n
}
