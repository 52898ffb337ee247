// Package ordered implements copy-on-write primitives over sibling
// sequences ranked by an integer position.
//
// None of the functions mutate their input; every result is a freshly
// allocated slice so callers may keep the previous value as a checkpoint.
// Index arguments outside the documented ranges are programmer errors and
// cause a panic.
package ordered

import (
	"fmt"
	"sort"
)

// Item is an element of an ordered sibling set.
type Item[T any] interface {
	ItemID() int64
	Rank() int
	WithRank(position int) T
}

// Reorder returns a copy of seq with the element at from removed and
// reinserted at to. Both indices must lie in [0, len(seq)).
func Reorder[T any](seq []T, from, to int) []T {
	checkIndex("from", from, len(seq)-1)
	checkIndex("to", to, len(seq)-1)

	out := make([]T, len(seq))
	copy(out, seq)
	if from == to {
		return out
	}

	moved := out[from]
	if from < to {
		copy(out[from:to], out[from+1:to+1])
	} else {
		copy(out[to+1:from+1], out[to:from])
	}
	out[to] = moved
	return out
}

// Relocate removes the element at from in src and inserts it at to in dst,
// returning new copies of both. from must lie in [0, len(src)) and to in
// [0, len(dst)]. When src and dst are the same sequence the call degenerates
// to Reorder and both results are the same reordered slice.
func Relocate[T any](src, dst []T, from, to int) ([]T, []T) {
	if sameSequence(src, dst) {
		out := Reorder(src, from, to)
		return out, out
	}
	checkIndex("from", from, len(src)-1)
	checkIndex("to", to, len(dst))

	moved := src[from]
	return Remove(src, from), Insert(dst, to, moved)
}

// Insert returns a copy of seq with item placed at index at, which must lie
// in [0, len(seq)].
func Insert[T any](seq []T, at int, item T) []T {
	checkIndex("at", at, len(seq))

	out := make([]T, 0, len(seq)+1)
	out = append(out, seq[:at]...)
	out = append(out, item)
	out = append(out, seq[at:]...)
	return out
}

// Remove returns a copy of seq without the element at index at.
func Remove[T any](seq []T, at int) []T {
	checkIndex("at", at, len(seq)-1)

	out := make([]T, 0, len(seq)-1)
	out = append(out, seq[:at]...)
	out = append(out, seq[at+1:]...)
	return out
}

// Renumber returns a copy of seq where every element's position equals its
// 0-based index.
func Renumber[T Item[T]](seq []T) []T {
	out := make([]T, len(seq))
	for i, item := range seq {
		out[i] = item.WithRank(i)
	}
	return out
}

// SortByPosition returns a copy of seq ordered by position ascending. Ties
// keep their original relative order.
func SortByPosition[T Item[T]](seq []T) []T {
	out := make([]T, len(seq))
	copy(out, seq)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Rank() < out[j].Rank()
	})
	return out
}

// Dense reports whether the positions of seq are exactly 0..len(seq)-1 in
// order.
func Dense[T Item[T]](seq []T) bool {
	for i, item := range seq {
		if item.Rank() != i {
			return false
		}
	}
	return true
}

// IndexOf returns the index of the element with the given identity, or -1.
func IndexOf[T Item[T]](seq []T, id int64) int {
	for i, item := range seq {
		if item.ItemID() == id {
			return i
		}
	}
	return -1
}

func checkIndex(name string, idx, max int) {
	if idx < 0 || idx > max {
		panic(fmt.Sprintf("ordered: %s index %d out of range [0, %d]", name, idx, max))
	}
}

// sameSequence reports whether a and b view the same backing array with the
// same bounds.
func sameSequence[T any](a, b []T) bool {
	if len(a) != len(b) || len(a) == 0 {
		return false
	}
	return &a[0] == &b[0]
}
