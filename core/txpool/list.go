// Copyright 2014 The go-ethereum Authors
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
	"sort"

	"github.com/holiman/uint256"
)

// nonceSortedMap is a nonce -> Item map that can flatten itself into a
// nonce-ascending slice on demand. The teacher's legacypool.sortedMap keeps
// an *AVLTree alongside the map for that purpose; that tree type isn't part
// of this pool's lineage, so a lazily-rebuilt sorted cache takes its place,
// same externally observable behavior, O(n log n) flatten instead of O(log n)
// incremental insert.
type nonceSortedMap struct {
	items map[uint64]*Item
	cache []*Item // nil whenever dirty
}

func newNonceSortedMap() *nonceSortedMap {
	return &nonceSortedMap{items: make(map[uint64]*Item)}
}

func (m *nonceSortedMap) Get(nonce uint64) *Item {
	return m.items[nonce]
}

func (m *nonceSortedMap) Put(it *Item) {
	m.items[it.Nonce()] = it
	m.cache = nil
}

func (m *nonceSortedMap) Forward(threshold uint64) []*Item {
	var removed []*Item
	for nonce, it := range m.items {
		if nonce < threshold {
			removed = append(removed, it)
			delete(m.items, nonce)
		}
	}
	if len(removed) > 0 {
		m.cache = nil
	}
	return removed
}

// Filter removes every item for which keep returns false.
func (m *nonceSortedMap) Filter(keep func(*Item) bool) []*Item {
	var removed []*Item
	for nonce, it := range m.items {
		if !keep(it) {
			removed = append(removed, it)
			delete(m.items, nonce)
		}
	}
	if len(removed) > 0 {
		m.cache = nil
	}
	return removed
}

func (m *nonceSortedMap) Remove(nonce uint64) (*Item, bool) {
	it, ok := m.items[nonce]
	if ok {
		delete(m.items, nonce)
		m.cache = nil
	}
	return it, ok
}

func (m *nonceSortedMap) Len() int { return len(m.items) }

// flatten returns all items nonce-ascending, caching the result until the
// next mutation invalidates it.
func (m *nonceSortedMap) flatten() []*Item {
	if m.cache == nil {
		m.cache = make([]*Item, 0, len(m.items))
		for _, it := range m.items {
			m.cache = append(m.cache, it)
		}
		sort.Slice(m.cache, func(i, j int) bool { return m.cache[i].Nonce() < m.cache[j].Nonce() })
	}
	return m.cache
}

// LastElement returns the highest-nonce item, or nil if empty.
func (m *nonceSortedMap) LastElement() *Item {
	c := m.flatten()
	if len(c) == 0 {
		return nil
	}
	return c[len(c)-1]
}

// list tracks every item a single sender currently has resting in the pool,
// ordered by nonce (spec §3.1's "sender+nonce index", one instance per
// sender). The strict flag is stored but no list method reads it; gap
// checks are done by store.insert and the buckets engine.
type list struct {
	strict bool
	txs    *nonceSortedMap
}

func newList(strict bool) *list {
	return &list{strict: strict, txs: newNonceSortedMap()}
}

func (l *list) Len() int { return l.txs.Len() }

func (l *list) Empty() bool { return l.Len() == 0 }

func (l *list) Get(nonce uint64) *Item { return l.txs.Get(nonce) }

// Overlaps reports whether an item with the same nonce as it is already
// tracked.
func (l *list) Overlaps(it *Item) bool { return l.txs.Get(it.Nonce()) != nil }

// Add tries to insert a new item, returning the incumbent at that nonce (nil
// if none) plus whether the insert succeeded. A replacement at an occupied
// nonce must clear priceBump percent over the incumbent on both feeCap and
// tip (spec §4.1's supersede rule); otherwise Add is a no-op, ok is false and
// the returned incumbent is still in the list.
func (l *list) Add(it *Item, priceBump uint64) (old *Item, ok bool) {
	existing := l.txs.Get(it.Nonce())
	if existing == nil {
		l.txs.Put(it)
		return nil, true
	}
	if !supersedes(existing, it, priceBump) {
		return existing, false
	}
	l.txs.Put(it)
	return existing, true
}

// supersedes reports whether candidate clears the minimum price bump over
// incumbent on both the fee cap and the tip cap (spec §4.1).
func supersedes(incumbent, candidate *Item, priceBump uint64) bool {
	oldFeeCap := incumbent.Tx().GasFeeCap()
	oldTip := incumbent.Tx().GasTipCap()

	thresholdFeeCap := new(uint256.Int).Mul(oldFeeCap, uint256.NewInt(100+priceBump))
	thresholdFeeCap.Div(thresholdFeeCap, uint256.NewInt(100))

	thresholdTip := new(uint256.Int).Mul(oldTip, uint256.NewInt(100+priceBump))
	thresholdTip.Div(thresholdTip, uint256.NewInt(100))

	newFeeCap := candidate.Tx().GasFeeCap()
	newTip := candidate.Tx().GasTipCap()

	return newFeeCap.Cmp(thresholdFeeCap) >= 0 && newTip.Cmp(thresholdTip) >= 0
}

// Forward drops and returns every item whose nonce is below threshold: the
// account has already executed them on-chain (spec §4.3's reassign step).
func (l *list) Forward(threshold uint64) []*Item { return l.txs.Forward(threshold) }

// Remove deletes the single item at nonce, reporting whether it was
// present. Callers that must preserve gap-freedom after removing a
// non-tail nonce use RemoveFrom instead.
func (l *list) Remove(nonce uint64) bool {
	_, ok := l.txs.Remove(nonce)
	return ok
}

// RemoveFrom deletes every item with nonce >= from, returning them in
// descending-nonce order: cascade disposal must process highest-nonce
// first to keep the list gap-free at every intermediate step (spec §9).
func (l *list) RemoveFrom(from uint64) []*Item {
	removed := l.txs.Filter(func(it *Item) bool { return it.Nonce() < from })
	sort.Slice(removed, func(i, j int) bool { return removed[i].Nonce() > removed[j].Nonce() })
	return removed
}

// Flatten returns every item nonce-ascending.
func (l *list) Flatten() []*Item {
	flat := l.txs.flatten()
	out := make([]*Item, len(flat))
	copy(out, flat)
	return out
}

func (l *list) LastElement() *Item { return l.txs.LastElement() }
