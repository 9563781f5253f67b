package app

import "slices"

// MoveElement returns a copy of items with the element at from removed and reinserted at to.
// Elements between the two positions shift by one. A negative to counts back from the
// original length, and a to past the end appends. An out-of-range from returns an
// unchanged copy.
func MoveElement[T any](items []T, from, to int) []T {
	out := slices.Clone(items)
	if from < 0 || from >= len(out) {
		return out
	}
	if to < 0 {
		to = len(out) + to
	}
	moved := out[from]
	out = slices.Delete(out, from, from+1)
	to = clamp(to, 0, len(out))
	return slices.Insert(out, to, moved)
}

// clamp bounds v to [minV, maxV].
func clamp(v, minV, maxV int) int {
	if v < minV {
		return minV
	}
	if v > maxV {
		return maxV
	}
	return v
}
