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
	"sort"

	"github.com/go-ethpool/txpool/common"
	"github.com/holiman/uint256"
)

// senderFront is one sender's remaining staged queue, ascending nonce; the
// packer only ever looks at index 0, advancing it as items are committed.
type senderFront struct {
	addr  common.Address
	queue []*Item
}

func (f *senderFront) peek() *Item { return f.queue[0] }

func (f *senderFront) advance() { f.queue = f.queue[1:] }

func (f *senderFront) empty() bool { return len(f.queue) == 0 }

// frontHeap is a max-heap of senderFronts ordered by their current front
// item's effective tip, ties broken by earlier arrival — the same shape as
// the teacher's pending_test.go TipList, generalized from "tips" to Items.
type frontHeap []*senderFront

func (h frontHeap) Len() int { return len(h) }

func (h frontHeap) Less(i, j int) bool {
	a, b := h[i].peek(), h[j].peek()
	if c := a.EffectiveTip().Cmp(b.EffectiveTip()); c != 0 {
		return c > 0
	}
	return a.TimeStamp().Before(b.TimeStamp())
}

func (h frontHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *frontHeap) Push(x any) { *h = append(*h, x.(*senderFront)) }

func (h *frontHeap) Pop() any {
	old := *h
	n := len(old)
	f := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return f
}

// packOutcome is what assembleBlock derives the block structure from (spec
// §4.4, §6): the ordered packed items, the gas each one consumed (same
// index), and the running total.
type packOutcome struct {
	items         []*Item
	gasUsed       []uint64
	gasCumulative uint64
}

// packer selects a maximal-profit subset of staged items for the next
// block, respecting per-sender nonce order and the block gas target/max
// (spec §4.4). It is a pure function over a store+oracle snapshot: nothing
// about it survives between calls except what ends up committed as
// StatusPacked, which is exactly why re-running it without an intervening
// mutation is idempotent.
type packer struct {
	store     *store
	oracle    GasEstimator
	metr      *poolMetrics
	tryHarder bool
}

func newPacker(s *store, oracle GasEstimator, m *poolMetrics, tryHarder bool) *packer {
	return &packer{store: s, oracle: oracle, metr: m, tryHarder: tryHarder}
}

// pack runs the full selection algorithm against header, moving every
// surviving item to StatusPacked and returning the ordered packed list with
// its accumulated gas and profitability. Any item already StatusPacked is
// first reverted to StatusStaged so the run starts from a clean slate
// (spec §4.4's "Re-pack" rule, which is what makes idempotence possible).
func (p *packer) pack(header *Header, trgGasLimit, maxGasLimit uint64, packToMax bool) packOutcome {
	for _, it := range p.store.itemsByStatus(StatusPacked) {
		p.store.reassign(it, StatusStaged)
	}

	limit := trgGasLimit
	if packToMax {
		limit = maxGasLimit
	}

	fronts := p.buildFronts()
	h := &frontHeap{}
	heap.Init(h)
	for _, f := range fronts {
		heap.Push(h, f)
	}

	state, err := p.oracle.BeginBlock(header)
	if err != nil {
		return packOutcome{}
	}

	var out packOutcome
	stalled := make(map[common.Address]bool)

	for h.Len() > 0 {
		f := heap.Pop(h).(*senderFront)
		if stalled[f.addr] {
			continue // this sender hit OutOfGas earlier in this pass; skip its remaining items
		}
		it := f.peek()

		res, execErr := p.oracle.DryRun(it.Tx(), state, header)
		if execErr != nil {
			if isOutOfGas(execErr) {
				stalled[f.addr] = true
				continue
			}
			p.store.dispose(it, RejectVmExecError)
			p.metr.recordReject(RejectVmExecError)
			f.advance()
			if !f.empty() {
				heap.Push(h, f)
			}
			continue
		}

		if out.gasCumulative+res.GasUsed > limit {
			// Strict mode stops at the first front that doesn't fit, keeping
			// the packed set a clean highest-tip-first prefix. TryHarder
			// skips only this sender and keeps bin-packing cheaper fronts
			// into whatever room is left (spec §6's packItemsTryHarder).
			if !p.tryHarder {
				return out
			}
			stalled[f.addr] = true
			continue
		}

		p.store.reassign(it, StatusPacked)
		out.gasCumulative += res.GasUsed
		out.items = append(out.items, it)
		out.gasUsed = append(out.gasUsed, res.GasUsed)

		f.advance()
		if !f.empty() {
			heap.Push(h, f)
		}
	}

	return out
}

// buildFronts groups every staged item by sender, ascending nonce, dropping
// senders with no staged items. Senders are enumerated via store.senders()
// rather than ranged off an ad-hoc map: that sorted order is what makes two
// fronts tied exactly on tip and timestamp (frontHeap.Less, a push-order
// tiebreak) push onto the heap in the same sequence on every call, which is
// what makes pack() idempotent rather than dependent on Go's randomized map
// iteration.
func (p *packer) buildFronts() []*senderFront {
	bySender := make(map[common.Address][]*Item)
	for _, it := range p.store.itemsByStatus(StatusStaged) {
		bySender[it.Sender()] = append(bySender[it.Sender()], it)
	}
	fronts := make([]*senderFront, 0, len(bySender))
	for _, addr := range p.store.senders() {
		items, ok := bySender[addr]
		if !ok {
			continue
		}
		sort.Slice(items, func(i, j int) bool { return items[i].Nonce() < items[j].Nonce() })
		fronts = append(fronts, &senderFront{addr: addr, queue: items})
	}
	return fronts
}

// profitability computes Σ effectiveTip × gasUsed over a packOutcome (spec
// §4.4): the packer only tracks cumulative gas while selecting, so the
// façade calls this once a block has been assembled.
func (o packOutcome) profitability() *uint256.Int {
	total := new(uint256.Int)
	for i, it := range o.items {
		term := new(uint256.Int).Mul(it.EffectiveTip(), uint256.NewInt(o.gasUsed[i]))
		total.Add(total, term)
	}
	return total
}
