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
	"testing"
	"time"

	"github.com/go-ethpool/txpool/common"
	"github.com/go-ethpool/txpool/metrics"
	"github.com/holiman/uint256"
)

// stageItem inserts it directly into s bypassing the façade/classifier, then
// marks it staged with a manually assigned effective tip — the packer-level
// tests care only about the packer's selection algorithm, not how an item
// got to StatusStaged.
func stageItem(s *store, sender common.Address, nonce, tip, gas uint64) *Item {
	tx := dynFeeTx(sender, nonce, tip, tip*10, gas)
	it := newItem(tx.Hash(), tx, sender, "", false, time.Unix(1_700_000_000, 0))
	it.setEffectiveTip(uint256.NewInt(tip))
	if err := s.insert(it, 0); err != nil {
		panic(err)
	}
	s.reassign(it, StatusStaged)
	return it
}

func TestPackerStrictStopsAtFirstMiss(t *testing.T) {
	s := newStore(10, 100)
	est := newFakeEstimator()
	metr := newPoolMetrics(metrics.NewRegistry())
	header := &Header{Hash: common.Hash{}}

	addrA := common.BytesToAddress([]byte{0xA})
	addrB := common.BytesToAddress([]byte{0xB})
	// A has the higher tip but alone exceeds the block limit; B is cheaper
	// and would fit on its own.
	stageItem(s, addrA, 0, 100, 80)
	stageItem(s, addrB, 0, 50, 40)

	strict := newPacker(s, est, metr, false)
	out := strict.pack(header, 50, 50, false)
	if len(out.items) != 0 {
		t.Fatalf("strict packer committed %d items, want 0 (should stop at A's overflow)", len(out.items))
	}
}

func TestPackerTryHarderBinPacksAroundStall(t *testing.T) {
	s := newStore(10, 100)
	est := newFakeEstimator()
	metr := newPoolMetrics(metrics.NewRegistry())
	header := &Header{Hash: common.Hash{}}

	addrA := common.BytesToAddress([]byte{0xA})
	addrB := common.BytesToAddress([]byte{0xB})
	stageItem(s, addrA, 0, 100, 80)
	itemB := stageItem(s, addrB, 0, 50, 40)

	harder := newPacker(s, est, metr, true)
	out := harder.pack(header, 50, 50, false)
	if len(out.items) != 1 || out.items[0].ID() != itemB.ID() {
		t.Fatalf("tryHarder packer did not bin-pack B around A's stall: got %d items", len(out.items))
	}
	if out.gasCumulative != 40 {
		t.Fatalf("got gasCumulative=%d, want 40", out.gasCumulative)
	}
	want := new(uint256.Int).Mul(uint256.NewInt(50), uint256.NewInt(40))
	if out.profitability().Cmp(want) != 0 {
		t.Fatalf("got profitability=%s, want %s", out.profitability(), want)
	}
}

func TestPackerIdempotence(t *testing.T) {
	s := newStore(10, 100)
	est := newFakeEstimator()
	metr := newPoolMetrics(metrics.NewRegistry())
	header := &Header{Hash: common.Hash{}}

	for i := 0; i < 6; i++ {
		sender := common.BytesToAddress([]byte{byte(i)})
		stageItem(s, sender, 0, uint64(10*(i+1)), 21000)
	}

	p := newPacker(s, est, metr, false)
	first := p.pack(header, 1_000_000, 1_000_000, false)
	second := p.pack(header, 1_000_000, 1_000_000, false)

	if len(first.items) != len(second.items) {
		t.Fatalf("got %d items on second pack, want %d", len(second.items), len(first.items))
	}
	for i := range first.items {
		if first.items[i].ID() != second.items[i].ID() {
			t.Fatalf("pack order differs at index %d: %s vs %s", i, first.items[i].ID().Hex(), second.items[i].ID().Hex())
		}
	}
}

// Every sender here ties exactly on tip and timestamp, the one case
// frontHeap.Less can't break: it must fall back to push order, which in
// turn must come from a deterministic sender enumeration rather than Go's
// randomized map iteration over buildFronts' own bySender grouping map.
func TestPackerIdempotenceOnTiedFronts(t *testing.T) {
	s := newStore(10, 100)
	est := newFakeEstimator()
	metr := newPoolMetrics(metrics.NewRegistry())
	header := &Header{Hash: common.Hash{}}

	for i := 0; i < 10; i++ {
		sender := common.BytesToAddress([]byte{byte(i)})
		stageItem(s, sender, 0, 10, 21000)
	}

	p := newPacker(s, est, metr, false)
	first := p.pack(header, 1_000_000, 1_000_000, false)
	for n := 0; n < 5; n++ {
		again := p.pack(header, 1_000_000, 1_000_000, false)
		if len(again.items) != len(first.items) {
			t.Fatalf("run %d: got %d items, want %d", n, len(again.items), len(first.items))
		}
		for i := range first.items {
			if again.items[i].ID() != first.items[i].ID() {
				t.Fatalf("run %d: tied-front pack order differs at index %d (%s vs %s) — buildFronts is not deterministic", n, i, again.items[i].ID().Hex(), first.items[i].ID().Hex())
			}
		}
	}
}

// Nonce-gap exclusion is the buckets engine's responsibility (only a
// contiguous executed prefix is ever promoted to StatusStaged); the packer
// itself trusts that invariant and packs whatever it is handed in nonce
// order, which this test documents rather than second-guesses.
func TestPackerPacksWhateverIsStagedInNonceOrder(t *testing.T) {
	s := newStore(10, 100)
	est := newFakeEstimator()
	metr := newPoolMetrics(metrics.NewRegistry())
	header := &Header{Hash: common.Hash{}}

	addr := common.BytesToAddress([]byte{0x1})
	item0 := stageItem(s, addr, 0, 100, 21000)
	item1 := stageItem(s, addr, 1, 100, 21000)

	p := newPacker(s, est, metr, false)
	out := p.pack(header, 1_000_000, 1_000_000, false)
	if len(out.items) != 2 || out.items[0].ID() != item0.ID() || out.items[1].ID() != item1.ID() {
		t.Fatalf("expected [nonce0, nonce1] in order, got %d items", len(out.items))
	}
}
