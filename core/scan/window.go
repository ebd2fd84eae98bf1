package scan

import "log-reconciler/core/store"

// SelectWindow maps approximate requested bounds onto the nearest existing
// stored range boundaries. Each supplied bound snaps independently to the
// closest stored from_block/to_block by minimal absolute distance; ties keep
// the earlier candidate under ascending iteration. The returned sub-list
// holds every stored range lying within [min(snaps), max(snaps)], preserving
// order. With neither bound supplied the full list comes back unchanged.
func SelectWindow(ranges []store.LogRange, reqFrom, reqTo *uint64) []store.LogRange {
	if len(ranges) == 0 || (reqFrom == nil && reqTo == nil) {
		return ranges
	}

	snappedFrom := ranges[0].FromBlock
	if reqFrom != nil {
		candidates := make([]uint64, len(ranges))
		for i, r := range ranges {
			candidates[i] = r.FromBlock
		}
		snappedFrom = nearest(*reqFrom, candidates)
	}

	snappedTo := ranges[len(ranges)-1].ToBlock
	if reqTo != nil {
		candidates := make([]uint64, len(ranges))
		for i, r := range ranges {
			candidates[i] = r.ToBlock
		}
		snappedTo = nearest(*reqTo, candidates)
	}

	lo, hi := snappedFrom, snappedTo
	if lo > hi {
		lo, hi = hi, lo
	}

	window := make([]store.LogRange, 0, len(ranges))
	for _, r := range ranges {
		if r.FromBlock >= lo && r.ToBlock <= hi {
			window = append(window, r)
		}
	}
	return window
}

// nearest picks the candidate with minimal absolute distance to target. The
// comparison is strict, so on a tie the first candidate encountered wins.
func nearest(target uint64, candidates []uint64) uint64 {
	best := candidates[0]
	bestDist := absDiff(target, best)
	for _, c := range candidates[1:] {
		if d := absDiff(target, c); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

func absDiff(a, b uint64) uint64 {
	if a > b {
		return a - b
	}
	return b - a
}
