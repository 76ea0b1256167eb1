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
	"github.com/go-ethpool/txpool/types"
	"github.com/holiman/uint256"
)

func TestIdentity(t *testing.T) {
	f := setupPool(t, defaultTestConfig())
	sender := common.BytesToAddress([]byte{1})
	fund(f, sender, 0, 1_000_000_000)

	tx := newSignedTx(f.signer, sender, 0, 2, 100, 21000)
	id := addOrFatal(t, f, tx, "t1", false)

	got := f.pool.Get(id)
	if got == nil {
		t.Fatalf("Get(%s) returned nil", id.Hex())
	}
	if got.ID() != id || got.ID() != tx.Hash() {
		t.Fatalf("identity broken: got.ID()=%s, inserted id=%s, tx hash=%s", got.ID().Hex(), id.Hex(), tx.Hash().Hex())
	}
	mustVerify(t, f.pool)
}

func TestSupersedeAccept(t *testing.T) {
	f := setupPool(t, defaultTestConfig())
	sender := common.BytesToAddress([]byte{2})
	fund(f, sender, 0, 1_000_000_000)

	oldTx := legacyTx(sender, 0, 10, 21000)
	f.signer.register(oldTx, sender)
	oldID := addOrFatal(t, f, oldTx, "a", false)

	// 110% of 10 is 11: clears the 10% price-bump threshold exactly.
	newTx := legacyTx(sender, 0, 11, 21000)
	f.signer.register(newTx, sender)
	newID := addOrFatal(t, f, newTx, "b", false)

	if got := f.pool.Get(oldID); got != nil {
		t.Fatalf("superseded item %s still live", oldID.Hex())
	}
	if got := f.pool.Get(newID); got == nil {
		t.Fatalf("replacement item %s missing", newID.Hex())
	}
	total, disposed := f.pool.Stats()
	if total != 1 || disposed != 1 {
		t.Fatalf("got total=%d disposed=%d, want 1,1", total, disposed)
	}
	mustVerify(t, f.pool)
}

func TestSupersedeReject(t *testing.T) {
	f := setupPool(t, defaultTestConfig())
	sender := common.BytesToAddress([]byte{3})
	fund(f, sender, 0, 1_000_000_000)

	oldTx := legacyTx(sender, 0, 10, 21000)
	f.signer.register(oldTx, sender)
	oldID := addOrFatal(t, f, oldTx, "a", false)

	// Same price: fails to clear the 10% bump.
	newTx := legacyTx(sender, 0, 10, 22000)
	f.signer.register(newTx, sender)
	_, errs := f.pool.Add([]*types.Transaction{newTx}, "b", false)
	if errs[0] != ErrUnderpriced {
		t.Fatalf("got err %v, want ErrUnderpriced", errs[0])
	}
	if got := f.pool.Get(oldID); got == nil {
		t.Fatalf("incumbent %s was disturbed by a rejected replacement", oldID.Hex())
	}
	if got := f.pool.Get(newTx.Hash()); got != nil {
		t.Fatalf("rejected replacement should never be live")
	}
	total, disposed := f.pool.Stats()
	if total != 1 || disposed != 0 {
		t.Fatalf("got total=%d disposed=%d, want 1,0", total, disposed)
	}
	mustVerify(t, f.pool)
}

func TestCascadeDisposal(t *testing.T) {
	f := setupPool(t, defaultTestConfig())
	sender := common.BytesToAddress([]byte{4})
	fund(f, sender, 0, 1_000_000_000)

	tx0 := newSignedTx(f.signer, sender, 0, 2, 100, 21000)
	tx1 := newSignedTx(f.signer, sender, 1, 2, 100, 21000)
	tx2 := newSignedTx(f.signer, sender, 2, 2, 100, 21000)
	addOrFatal(t, f, tx0, "", false)
	addOrFatal(t, f, tx1, "", false)
	addOrFatal(t, f, tx2, "", false)

	mid := f.pool.Get(tx1.Hash())
	if mid == nil {
		t.Fatalf("setup: nonce-1 item missing")
	}
	f.pool.Dispose([]*Item{mid}, RejectUser)

	if got := f.pool.Get(tx0.Hash()); got == nil {
		t.Fatalf("lower-nonce item was wrongly disposed")
	}
	if got := f.pool.Get(tx1.Hash()); got != nil {
		t.Fatalf("disposed item still live")
	}
	if got := f.pool.Get(tx2.Hash()); got != nil {
		t.Fatalf("higher-nonce dependent should have cascaded")
	}
	total, disposed := f.pool.Stats()
	if total != 1 || disposed != 2 {
		t.Fatalf("got total=%d disposed=%d, want 1,2", total, disposed)
	}
	mustVerify(t, f.pool)
}

func TestRoundTripResurrection(t *testing.T) {
	f := setupPool(t, defaultTestConfig())
	sender := common.BytesToAddress([]byte{5})
	fund(f, sender, 0, 1_000_000_000)

	tx := newSignedTx(f.signer, sender, 0, 2, 100, 21000)
	addOrFatal(t, f, tx, "original", false)

	before := f.pool.Get(tx.Hash())
	beforeStamp := before.TimeStamp()

	f.pool.Dispose([]*Item{before}, RejectUser)
	f.clock.advance(time.Hour)

	// info passed here is ignored on resurrection; the original is kept.
	addOrFatal(t, f, tx, "ignored", false)

	after := f.pool.Get(tx.Hash())
	if after == nil {
		t.Fatalf("resurrected item missing")
	}
	if after.Info() != "original" {
		t.Fatalf("got info %q, want %q", after.Info(), "original")
	}
	if !after.TimeStamp().After(beforeStamp) {
		t.Fatalf("resurrected timestamp %v not after original %v", after.TimeStamp(), beforeStamp)
	}
	mustVerify(t, f.pool)
}

func TestZombify(t *testing.T) {
	conf := defaultTestConfig()
	conf.LifeTime = time.Minute
	// A block limit below the item's 21000 gas keeps it staged (unpacked),
	// so AutoZombifyUnpacked is the flag that governs it.
	conf.TrgGasLimit = 20_000
	conf.MaxGasLimit = 20_000
	f := setupPool(t, conf)
	sender := common.BytesToAddress([]byte{6})
	fund(f, sender, 0, 1_000_000_000)

	tx := newSignedTx(f.signer, sender, 0, 2, 100, 21000)
	addOrFatal(t, f, tx, "", false)

	f.pool.SetFlags(Flags{AutoZombifyUnpacked: true})
	f.clock.advance(2 * time.Minute)
	f.pool.TriggerReorg()

	if got := f.pool.Get(tx.Hash()); got != nil {
		t.Fatalf("expired item was not zombified")
	}
	total, disposed := f.pool.Stats()
	if total != 0 || disposed != 1 {
		t.Fatalf("got total=%d disposed=%d, want 0,1", total, disposed)
	}
	mustVerify(t, f.pool)
}

func TestBaseFeeReorg(t *testing.T) {
	conf := defaultTestConfig()
	// Half the senders carry a feeCap (60) below b2 (100): irrelevant
	// pre-London, since eligibility there never consults feeCap, but it
	// makes those items ineligible once baseFee is raised past their cap.
	build := func(baseFee *uint256.Int) *testFixture {
		f := setupPool(t, conf)
		for i := 0; i < 10; i++ {
			sender := common.BytesToAddress([]byte{byte(100 + i)})
			fund(f, sender, 0, 1_000_000_000)
			feeCap := uint64(1000)
			if i%2 == 0 {
				feeCap = 60
			}
			tx := newSignedTx(f.signer, sender, 0, 15, feeCap, 21000)
			addOrFatal(t, f, tx, "", false)
		}
		f.pool.SetHead(f.head, baseFee)
		return f
	}

	b2 := uint256.NewInt(100)
	f1 := build(nil)
	f2 := build(b2)

	buckets := func(f *testFixture) (int, int, int) {
		return len(f.pool.Items(StatusPending)), len(f.pool.Items(StatusStaged)), len(f.pool.Items(StatusPacked))
	}

	// Pre-London, feeCap never gates eligibility: all ten should have
	// promoted past pending, unlike f2 which already excludes the
	// low-feeCap half.
	p1, _, _ := buckets(f1)
	if p1 != 0 {
		t.Fatalf("pre-London pool has %d pending items, want 0", p1)
	}
	p2, _, _ := buckets(f2)
	if p2 != 5 {
		t.Fatalf("baseFee=100 pool has %d pending items, want 5 (the low-feeCap half)", p2)
	}

	f1.pool.SetBaseFee(b2)

	pend1, stage1, pack1 := buckets(f1)
	pend2, stage2, pack2 := buckets(f2)
	if pend1 != pend2 || stage1 != stage2 || pack1 != pack2 {
		t.Fatalf("pools diverged after matching base fee: (%d,%d,%d) vs (%d,%d,%d)",
			pend1, stage1, pack1, pend2, stage2, pack2)
	}
	mustVerify(t, f1.pool)
	mustVerify(t, f2.pool)
}

func TestReassign(t *testing.T) {
	f := setupPool(t, defaultTestConfig())
	sender := common.BytesToAddress([]byte{7})
	fund(f, sender, 0, 1_000_000_000)

	tx := newSignedTx(f.signer, sender, 0, 2, 100, 21000)
	addOrFatal(t, f, tx, "", false)

	it := f.pool.Get(tx.Hash())
	if it.Status() != StatusStaged && it.Status() != StatusPacked {
		t.Fatalf("setup: expected item to be staged or packed, got %s", it.Status())
	}
	f.pool.Reassign(it, StatusPacked)

	items := f.pool.Items(StatusPacked)
	if len(items) != 1 || items[0].ID() != tx.Hash() {
		t.Fatalf("reassign did not move the item into StatusPacked")
	}
	pending, staged, packed := len(f.pool.Items(StatusPending)), len(f.pool.Items(StatusStaged)), len(f.pool.Items(StatusPacked))
	total, _ := f.pool.Stats()
	if pending+staged+packed != total {
		t.Fatalf("bucket conservation broken: %d+%d+%d != %d", pending, staged, packed, total)
	}
}

func TestBucketConservation(t *testing.T) {
	f := setupPool(t, defaultTestConfig())
	for i := 0; i < 5; i++ {
		sender := common.BytesToAddress([]byte{byte(20 + i)})
		fund(f, sender, 0, 1_000_000_000)
		for n := uint64(0); n < 3; n++ {
			tx := newSignedTx(f.signer, sender, n, 5, 1000, 21000)
			addOrFatal(t, f, tx, "", false)
		}
	}
	total, _ := f.pool.Stats()
	pending := len(f.pool.Items(StatusPending))
	staged := len(f.pool.Items(StatusStaged))
	packed := len(f.pool.Items(StatusPacked))
	if pending+staged+packed != total {
		t.Fatalf("bucket conservation broken: %d+%d+%d != %d", pending, staged, packed, total)
	}
	mustVerify(t, f.pool)
}

func TestRankedOrdering(t *testing.T) {
	f := setupPool(t, defaultTestConfig())
	tips := []uint64{5, 50, 20}
	for i, tip := range tips {
		sender := common.BytesToAddress([]byte{byte(40 + i)})
		fund(f, sender, 0, 1_000_000_000)
		tx := newSignedTx(f.signer, sender, 0, tip, tip*10, 21000)
		addOrFatal(t, f, tx, "", false)
	}
	ranked := f.pool.Ranked()
	if len(ranked) != len(tips) {
		t.Fatalf("got %d ranked items, want %d", len(ranked), len(tips))
	}
	for i := 1; i < len(ranked); i++ {
		if ranked[i-1].EffectiveTip().Cmp(ranked[i].EffectiveTip()) < 0 {
			t.Fatalf("ranked items not in descending tip order at index %d", i)
		}
	}
}

func TestFlushRejects(t *testing.T) {
	f := setupPool(t, defaultTestConfig())
	sender := common.BytesToAddress([]byte{8})
	fund(f, sender, 0, 1_000_000_000)

	tx := newSignedTx(f.signer, sender, 0, 2, 100, 21000)
	addOrFatal(t, f, tx, "", false)
	it := f.pool.Get(tx.Hash())
	f.pool.Dispose([]*Item{it}, RejectUser)

	_, disposed := f.pool.Stats()
	if disposed != 1 {
		t.Fatalf("got disposed=%d, want 1", disposed)
	}
	if n := f.pool.FlushRejects(); n != 1 {
		t.Fatalf("FlushRejects returned %d, want 1", n)
	}
	_, disposed = f.pool.Stats()
	if disposed != 0 {
		t.Fatalf("got disposed=%d after flush, want 0", disposed)
	}
}

func TestHeadUnknownAbortsBatch(t *testing.T) {
	oracle := newFakeOracle()
	est := newFakeEstimator()
	signer := newFakeSigner()
	pool := New(defaultTestConfig(), oracle, est, signer)

	sender := common.BytesToAddress([]byte{9})
	tx := dynFeeTx(sender, 0, 2, 100, 21000)
	signer.register(tx, sender)

	_, errs := pool.Add([]*types.Transaction{tx}, "", false)
	if errs[0] != ErrHeadUnknown {
		t.Fatalf("got err %v, want ErrHeadUnknown", errs[0])
	}
	if pool.Get(tx.Hash()) != nil {
		t.Fatalf("item should not have been inserted before a head is known")
	}
}

func TestInsufficientFunds(t *testing.T) {
	f := setupPool(t, defaultTestConfig())
	sender := common.BytesToAddress([]byte{10})
	fund(f, sender, 0, 1)

	tx := newSignedTx(f.signer, sender, 0, 2, 100, 21000)
	_, errs := f.pool.Add([]*types.Transaction{tx}, "", false)
	if errs[0] != ErrInsufficientFunds {
		t.Fatalf("got err %v, want ErrInsufficientFunds", errs[0])
	}
}

func TestGasLimitTooLow(t *testing.T) {
	f := setupPool(t, defaultTestConfig())
	sender := common.BytesToAddress([]byte{11})
	fund(f, sender, 0, 1_000_000_000)

	tx := newSignedTx(f.signer, sender, 0, 2, 100, 1000) // below the 21000 intrinsic floor
	_, errs := f.pool.Add([]*types.Transaction{tx}, "", false)
	if errs[0] != ErrGasLimitTooLow {
		t.Fatalf("got err %v, want ErrGasLimitTooLow", errs[0])
	}
}

func TestLocalAccountExemptFromZombify(t *testing.T) {
	conf := defaultTestConfig()
	conf.LifeTime = time.Minute
	// Keep the item unpacked, as in TestZombify, so only the local-account
	// exemption can save it.
	conf.TrgGasLimit = 20_000
	conf.MaxGasLimit = 20_000
	f := setupPool(t, conf)
	sender := common.BytesToAddress([]byte{12})
	fund(f, sender, 0, 1_000_000_000)

	f.pool.AddLocal(sender)
	tx := newSignedTx(f.signer, sender, 0, 2, 100, 21000)
	addOrFatal(t, f, tx, "", true)

	f.pool.SetFlags(Flags{AutoZombifyUnpacked: true})
	f.clock.advance(2 * time.Minute)
	f.pool.TriggerReorg()

	got := f.pool.Get(tx.Hash())
	if got == nil {
		t.Fatalf("local account's item was zombified despite the local flag")
	}
	if !got.Local() {
		t.Fatalf("item lost its local flag")
	}
}
