// Copyright 2023 The go-ethereum Authors
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
	"sync"

	"github.com/go-ethpool/txpool/common"
)

// basketEntry is one disposed item kept around for possible resurrection,
// ordered by arrival sequence so the oldest is evicted first once the
// basket overflows (spec §3.2).
type basketEntry struct {
	it  *Item
	seq uint64
	idx int
}

// basketHeap is a min-heap over seq: Pop always yields the oldest entry,
// the same bounded-FIFO-via-heap idiom as the teacher's
// legacypool.TxOverflowPoolHeap.
type basketHeap []*basketEntry

func (h basketHeap) Len() int            { return len(h) }
func (h basketHeap) Less(i, j int) bool  { return h[i].seq < h[j].seq }
func (h basketHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].idx = i
	h[j].idx = j
}
func (h *basketHeap) Push(x any) {
	e := x.(*basketEntry)
	e.idx = len(*h)
	*h = append(*h, e)
}
func (h *basketHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return e
}

// wasteBasket is the bounded FIFO of disposed items a sender may still
// resurrect by resubmitting the same id (spec §3.2, §4.5). Capacity
// overflow evicts the oldest entry permanently, mirroring
// legacypool.TxOverflowPoolHeap's Add.
type wasteBasket struct {
	mu       sync.Mutex
	capacity uint64
	seq      uint64
	heap     basketHeap
	byID     map[common.Hash]*basketEntry
}

func newWasteBasket(capacity uint64) *wasteBasket {
	return &wasteBasket{
		capacity: capacity,
		byID:     make(map[common.Hash]*basketEntry),
	}
}

// Add deposits it into the basket, evicting the oldest entry if the basket
// is now over capacity. If an entry with the same id already exists it is
// replaced in place (spec §3.2's "disposal is idempotent per id").
func (b *wasteBasket) Add(it *Item) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if old, ok := b.byID[it.ID()]; ok {
		heap.Remove(&b.heap, old.idx)
		delete(b.byID, it.ID())
	}

	e := &basketEntry{it: it, seq: b.seq}
	b.seq++
	heap.Push(&b.heap, e)
	b.byID[it.ID()] = e

	for uint64(b.heap.Len()) > b.capacity {
		evicted := heap.Pop(&b.heap).(*basketEntry)
		delete(b.byID, evicted.it.ID())
	}
}

// Resurrect removes and returns the item filed under id, if present: the
// sender resubmitted it and it should rejoin the live store (spec §4.5).
func (b *wasteBasket) Resurrect(id common.Hash) (*Item, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	e, ok := b.byID[id]
	if !ok {
		return nil, false
	}
	heap.Remove(&b.heap, e.idx)
	delete(b.byID, id)
	return e.it, true
}

func (b *wasteBasket) Has(id common.Hash) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.byID[id]
	return ok
}

func (b *wasteBasket) Get(id common.Hash) (*Item, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	e, ok := b.byID[id]
	if !ok {
		return nil, false
	}
	return e.it, true
}

func (b *wasteBasket) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.heap.Len()
}

// Flush drains every entry, oldest first, handing each to fn. Used by
// store.flushRejects to empty the basket.
func (b *wasteBasket) Flush(fn func(*Item)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for b.heap.Len() > 0 {
		e := heap.Pop(&b.heap).(*basketEntry)
		delete(b.byID, e.it.ID())
		fn(e.it)
	}
}
