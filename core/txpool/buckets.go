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
	"time"

	"github.com/go-ethpool/txpool/common"
	"github.com/holiman/uint256"
)

// bucketsEngine moves items across {pending, staged, packed} in response to
// every mutating façade call (spec §4.3). It never touches the id, rank or
// waste-basket indexes directly except through store's own operations, and
// it treats every sender independently: the per-sender walk is what makes
// invariant 4 (bucket order non-decreasing along nonces) hold by
// construction.
type bucketsEngine struct {
	store   *store
	cls     *classifier
	oracle  StateOracle
	metrics *poolMetrics
}

func newBucketsEngine(s *store, cls *classifier, oracle StateOracle, m *poolMetrics) *bucketsEngine {
	return &bucketsEngine{store: s, cls: cls, oracle: oracle, metrics: m}
}

// run executes a full maintenance pass: zombify, then the per-sender
// promotion walk, against the head the oracle currently reports for.
func (b *bucketsEngine) run(head common.Hash, now time.Time) {
	for _, addr := range b.store.senders() {
		b.zombify(addr, now)
		b.promote(addr, head)
	}
	// effectiveTip may have shifted for every item this pass (base-fee
	// change is one of the triggers for a full run); the rank index's heap
	// order is only valid again after a reheap.
	b.store.rank.Reheap()
}

// zombify disposes every expired item of addr as Expired, respecting the
// per-status auto-zombify flags (spec §4.2's age predicate) and exempting
// local-account items entirely (§12's local-account exemption).
func (b *bucketsEngine) zombify(addr common.Address, now time.Time) {
	l := b.store.bySender[addr]
	if l == nil {
		return
	}
	for _, it := range l.Flatten() {
		if it.Local() || !b.cls.expired(it, now) || !b.cls.zombifyEligible(it.status) {
			continue
		}
		b.store.dispose(it, RejectExpired)
		b.metrics.eviction.Mark(1)
		b.metrics.recordReject(RejectExpired)
	}
}

// promote walks addr's nonce-ordered items ascending, classifying each
// against a simulated running nonce/balance seeded from the state oracle,
// and reassigns status accordingly (spec §4.3's algorithm).
func (b *bucketsEngine) promote(addr common.Address, head common.Hash) {
	l := b.store.bySender[addr]
	if l == nil || l.Empty() {
		return
	}
	runningNonce, err := b.oracle.AccountNonce(addr, head)
	if err != nil {
		return // HeadUnknown: leave this sender's items exactly as they are.
	}
	runningBalance, err := b.oracle.AccountBalance(addr, head)
	if err != nil {
		return
	}

	for _, it := range l.Flatten() {
		it.setEffectiveTip(b.cls.effectiveTip(it))
	}

	b.store.disposeStale(addr, runningNonce, RejectNonceTooLow)
	if l.Empty() {
		return
	}

	for _, it := range l.Flatten() {
		if it.Nonce() != runningNonce {
			b.store.reassign(it, StatusPending)
			continue
		}
		if b.cls.eligibleTip(it) && b.cls.affordable(it, runningBalance) {
			if it.status != StatusPacked {
				b.store.reassign(it, StatusStaged)
			}
			runningBalance = new(uint256.Int).Sub(runningBalance, gasCost(it))
			runningNonce++
			continue
		}
		b.store.reassign(it, StatusPending)
		runningNonce++ // step past so later same-sender items are seen as gapped, per spec §4.3 step 3's "stop promoting further nonces"
		break
	}
	// Anything past the stopping point reverts to pending: it is no longer
	// a contiguous extension of the executed prefix.
	for _, it := range l.Flatten() {
		if it.Nonce() >= runningNonce && it.status != StatusPending {
			b.store.reassign(it, StatusPending)
		}
	}
}
