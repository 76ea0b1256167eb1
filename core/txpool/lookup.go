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
	"sync"

	"github.com/go-ethpool/txpool/common"
)

// lookup is the id index (spec §3.1): a flat map from item id to the item,
// the only index every other structure derefs through by id, plus the
// insertion-order slice spec.md's "replay-stable traversal" requires Range
// to honor. Modeled on the teacher's legacypool.lookup, minus its
// slots/pending split since this pool's status index (store.byStatus) already
// carries that distinction.
type lookup struct {
	mu    sync.RWMutex
	items map[common.Hash]*Item
	order []common.Hash
}

func newLookup() *lookup {
	return &lookup{items: make(map[common.Hash]*Item)}
}

func (l *lookup) Get(id common.Hash) *Item {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.items[id]
}

func (l *lookup) Has(id common.Hash) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.items[id]
	return ok
}

func (l *lookup) Add(it *Item) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, exists := l.items[it.ID()]; !exists {
		l.order = append(l.order, it.ID())
	}
	l.items[it.ID()] = it
}

func (l *lookup) Remove(id common.Hash) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.items[id]; !ok {
		return
	}
	delete(l.items, id)
	for i, existing := range l.order {
		if existing == id {
			l.order = append(l.order[:i], l.order[i+1:]...)
			break
		}
	}
}

func (l *lookup) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.items)
}

// Range calls fn for every item in insertion order (spec.md's replay-stable
// traversal), not Go's randomized map order; fn must not mutate the lookup.
func (l *lookup) Range(fn func(*Item) bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, id := range l.order {
		it, ok := l.items[id]
		if !ok {
			continue
		}
		if !fn(it) {
			return
		}
	}
}
