package parallel

import (
	"runtime"
	"sync"
)

// Parallelize splits items contiguous indices across at most NumCPU
// workers and runs fn(start, end) on each chunk. It returns after every
// worker finishes. Chunks are disjoint, so fn may write to per-index
// slots without synchronization.
func Parallelize(items int, fn func(start, end int)) {
	if items <= 0 {
		return
	}

	workers := runtime.NumCPU()
	if workers > items {
		workers = items
	}
	chunk := (items + workers - 1) / workers

	var wg sync.WaitGroup
	for start := 0; start < items; start += chunk {
		end := start + chunk
		if end > items {
			end = items
		}
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}
	wg.Wait()
}

// ParallelizeWithThreshold runs fn(0, items) sequentially when items is at
// most threshold, and falls back to Parallelize above it. Small inputs skip
// the goroutine fan-out cost.
func ParallelizeWithThreshold(items, threshold int, fn func(start, end int)) {
	if items <= 0 {
		return
	}
	if items <= threshold {
		fn(0, items)
		return
	}
	Parallelize(items, fn)
}
