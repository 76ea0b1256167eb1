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
	"github.com/go-ethpool/txpool/common"
)

// store is the multi-index container ("txDB"): the id index (lookup), the
// per-sender nonce index (bySender), the pool-wide tip rank index (rank),
// the per-status sets (byStatus) and the waste basket, all kept in lockstep
// by the operations below so that spec §3's seven invariants hold after
// each one returns. Callers (the façade) serialize access; store itself
// assumes single-writer.
type store struct {
	lookup   *lookup
	rank     *rankIndex
	bySender map[common.Address]*list
	byStatus [3]map[common.Hash]*Item
	basket   *wasteBasket

	priceBump uint64
}

func newStore(priceBump, maxRejects uint64) *store {
	s := &store{
		lookup:    newLookup(),
		rank:      newRankIndex(),
		bySender:  make(map[common.Address]*list),
		basket:    newWasteBasket(maxRejects),
		priceBump: priceBump,
	}
	for i := range s.byStatus {
		s.byStatus[i] = make(map[common.Hash]*Item)
	}
	return s
}

func (s *store) senderList(addr common.Address) *list {
	l, ok := s.bySender[addr]
	if !ok {
		l = newList(true)
		s.bySender[addr] = l
	}
	return l
}

// insert links a freshly classified item into all five indexes, or leaves
// the store untouched and returns a typed error (spec §4.1). onchainNonce
// is the sender's confirmed nonce at the current head, needed to decide
// NonceTooLow/NonceGap when the sender has no other live items yet.
func (s *store) insert(item *Item, onchainNonce uint64) error {
	if s.lookup.Has(item.ID()) {
		return ErrDuplicate
	}
	l := s.senderList(item.Sender())

	if l.Empty() {
		if item.Nonce() < onchainNonce {
			return ErrNonceTooLow
		}
	} else if !l.Overlaps(item) {
		last := l.LastElement()
		if item.Nonce() > last.Nonce()+1 {
			return ErrNonceGap
		}
		if item.Nonce() < onchainNonce {
			return ErrNonceTooLow
		}
	}

	old, ok := l.Add(item, s.priceBump)
	if !ok {
		return ErrUnderpriced
	}
	if old != nil {
		s.unlink(old)
		old.reject = RejectReplaced
		s.basket.Add(old)
		s.disposeSenderFrom(item.Sender(), item.Nonce()+1, RejectNonceGap)
	}

	s.lookup.Add(item)
	s.rank.Insert(item)
	item.status = StatusPending
	s.byStatus[StatusPending][item.ID()] = item
	return nil
}

// unlink removes item from the id, rank and status indexes, but not from
// its sender's nonce list: callers that already mutated the list (Add's
// replace, Remove, RemoveFrom) call this for bookkeeping only.
func (s *store) unlink(item *Item) {
	s.lookup.Remove(item.ID())
	s.rank.Remove(item)
	delete(s.byStatus[item.status], item.ID())
}

// disposeStale drops every item of sender whose nonce is below threshold,
// the on-chain-executed prefix the buckets engine prunes at the start of
// each per-sender promotion walk (spec §4.3 step 3a). Safe to drop in one
// batch: a contiguous low-nonce prefix never opens a gap in what remains.
func (s *store) disposeStale(sender common.Address, threshold uint64, reason RejectReason) []*Item {
	l := s.bySender[sender]
	if l == nil {
		return nil
	}
	stale := l.Forward(threshold)
	for _, it := range stale {
		s.unlink(it)
		it.reject = reason
		s.basket.Add(it)
	}
	return stale
}

// dispose unlinks item from every index and files it in the waste basket
// under reason. Disposing a non-tail item cascades: every strictly
// higher-nonce item from the same sender is disposed too, as an implied
// eviction with reason NonceGap, to preserve invariant 3 (spec §4.1, the
// "Cascade" property in §8). Never fails.
func (s *store) dispose(item *Item, reason RejectReason) int {
	l := s.bySender[item.Sender()]
	if l == nil {
		s.unlink(item)
		item.reject = reason
		s.basket.Add(item)
		return 1
	}
	victims := l.RemoveFrom(item.Nonce())
	for _, it := range victims {
		r := reason
		if it.Nonce() > item.Nonce() {
			r = RejectNonceGap
		}
		s.unlink(it)
		it.reject = r
		s.basket.Add(it)
	}
	return len(victims)
}

// disposeSenderFrom disposes every live item of sender with nonce >= nonce,
// processing highest-nonce first so the sender's list never transiently
// loses its gap-free prefix invariant mid-cascade (spec §4.1, §9).
func (s *store) disposeSenderFrom(sender common.Address, nonce uint64, reason RejectReason) int {
	l := s.bySender[sender]
	if l == nil {
		return 0
	}
	victims := l.RemoveFrom(nonce)
	for _, it := range victims {
		s.unlink(it)
		it.reject = reason
		s.basket.Add(it)
	}
	return len(victims)
}

// reassign updates only the status index, trusting the caller (buckets
// engine or an explicit admin call) to have already validated eligibility
// (spec §4.1).
func (s *store) reassign(item *Item, newStatus Status) {
	delete(s.byStatus[item.status], item.ID())
	item.status = newStatus
	s.byStatus[newStatus][item.ID()] = item
}

// flushRejects drops every waste-basket entry and returns how many were
// dropped.
func (s *store) flushRejects() int {
	n := s.basket.Len()
	s.basket.Flush(func(*Item) {})
	return n
}

// resurrect removes id from the waste basket if present, returning the
// disposed item so the caller can build a fresh live Item from it (spec
// §3's resurrection rule, §4.5).
func (s *store) resurrect(id common.Hash) (*Item, bool) {
	return s.basket.Resurrect(id)
}

func (s *store) statusCount(status Status) int { return len(s.byStatus[status]) }

func (s *store) totalLive() int { return s.lookup.Len() }

func (s *store) disposedCount() int { return s.basket.Len() }

// itemsByStatus returns a snapshot slice of every live item with the given
// status.
func (s *store) itemsByStatus(status Status) []*Item {
	out := make([]*Item, 0, len(s.byStatus[status]))
	for _, it := range s.byStatus[status] {
		out = append(out, it)
	}
	return out
}

// senders returns every address with at least one live item, for the
// buckets engine's per-sender walk. Sorted so repeated maintenance passes
// over the same store process senders in the same order, which is what
// makes the packer's idempotence property observable in tests without
// relying on Go's randomized map iteration.
func (s *store) senders() []common.Address {
	out := make([]common.Address, 0, len(s.bySender))
	for addr, l := range s.bySender {
		if !l.Empty() {
			out = append(out, addr)
		}
	}
	return common.SortAddresses(out)
}
