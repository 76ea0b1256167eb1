// Copyright 2021 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

package txpool

import (
	"container/heap"
	"sort"
)

// rankHeap is the heap.Interface backing rankIndex: items ordered by
// Item.Less (effective tip descending, spec §4.1), each item tracking its
// own slot so Remove(id) runs in O(log n) instead of a linear scan, the
// same index-tracked trick as the teacher's legacypool.txHeap.
type rankHeap struct {
	items []*Item
	index map[[32]byte]int
}

func (h *rankHeap) Len() int { return len(h.items) }

func (h *rankHeap) Less(i, j int) bool { return h.items[i].Less(h.items[j]) }

func (h *rankHeap) Swap(i, j int) {
	h.items[i], h.items[j] = h.items[j], h.items[i]
	h.index[h.items[i].ID()] = i
	h.index[h.items[j].ID()] = j
}

func (h *rankHeap) Push(x any) {
	it := x.(*Item)
	h.index[it.ID()] = len(h.items)
	h.items = append(h.items, it)
}

func (h *rankHeap) Pop() any {
	old := h.items
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	h.items = old[:n-1]
	delete(h.index, it.ID())
	return it
}

// rankIndex is the pool-wide rank index ordering every live item by
// effective tip (spec §3.1, §4.1): highest tip first, ties broken by
// sender then nonce. It supports O(log n) arbitrary removal because the
// buckets engine and packer both dispose items that aren't currently at
// the top.
type rankIndex struct {
	h *rankHeap
}

func newRankIndex() *rankIndex {
	return &rankIndex{h: &rankHeap{index: make(map[[32]byte]int)}}
}

func (r *rankIndex) Len() int { return r.h.Len() }

func (r *rankIndex) Insert(it *Item) { heap.Push(r.h, it) }

// Remove deletes it from the index; a no-op if it isn't present.
func (r *rankIndex) Remove(it *Item) {
	i, ok := r.h.index[it.ID()]
	if !ok {
		return
	}
	heap.Remove(r.h, i)
}

// Reheap rebuilds heap ordering after effective tips change in bulk, e.g.
// following a base-fee update (spec §4.2's reclassification).
func (r *rankIndex) Reheap() { heap.Init(r.h) }

// Walk visits every item in no particular order.
func (r *rankIndex) Walk(fn func(*Item)) {
	for _, it := range r.h.items {
		fn(it)
	}
}

// Ranked returns a non-destructive snapshot of every live item ordered
// highest effective tip first (spec §3's "rank index... supporting
// ascending and descending traversal"), for the façade's rank-ordered
// inspection query.
func (r *rankIndex) Ranked() []*Item {
	out := make([]*Item, 0, r.Len())
	r.Walk(func(it *Item) { out = append(out, it) })
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}
