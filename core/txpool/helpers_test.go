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
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/go-ethpool/txpool/common"
	"github.com/go-ethpool/txpool/types"
	"github.com/holiman/uint256"
)

// fakeOracle is a StateOracle backed by plain maps, with a call counter so
// oraclecache_test.go can assert memoization actually happens.
type fakeOracle struct {
	mu       sync.Mutex
	nonces   map[common.Address]uint64
	balances map[common.Address]*uint256.Int
	headOK   bool
	calls    int
}

func newFakeOracle() *fakeOracle {
	return &fakeOracle{
		nonces:   make(map[common.Address]uint64),
		balances: make(map[common.Address]*uint256.Int),
		headOK:   true,
	}
}

var errNoHead = errors.New("fixture: no such head")

func (o *fakeOracle) AccountNonce(addr common.Address, head common.Hash) (uint64, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls++
	if !o.headOK {
		return 0, errNoHead
	}
	return o.nonces[addr], nil
}

func (o *fakeOracle) AccountBalance(addr common.Address, head common.Hash) (*uint256.Int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls++
	if !o.headOK {
		return nil, errNoHead
	}
	if b, ok := o.balances[addr]; ok {
		return b, nil
	}
	return new(uint256.Int), nil
}

// fakeEstimator is a GasEstimator with a fixed intrinsic-gas floor and a
// per-hash override table for forcing specific dry-run outcomes.
type fakeEstimator struct {
	intrinsic uint64
	fail      map[common.Hash]error
}

func newFakeEstimator() *fakeEstimator {
	return &fakeEstimator{intrinsic: 21000, fail: make(map[common.Hash]error)}
}

func (e *fakeEstimator) IntrinsicGas(tx *types.Transaction) (uint64, error) { return e.intrinsic, nil }

func (e *fakeEstimator) BeginBlock(header *Header) (any, error) { return struct{}{}, nil }

func (e *fakeEstimator) DryRun(tx *types.Transaction, state any, header *Header) (ExecResult, error) {
	if err, ok := e.fail[tx.Hash()]; ok {
		return ExecResult{}, err
	}
	return ExecResult{GasUsed: tx.Gas()}, nil
}

// fakeSigner recovers whatever sender was registered for a given tx hash at
// construction time, standing in for real signature recovery (spec §1 keeps
// that external).
type fakeSigner struct {
	mu      sync.Mutex
	senders map[common.Hash]common.Address
}

func newFakeSigner() *fakeSigner {
	return &fakeSigner{senders: make(map[common.Hash]common.Address)}
}

func (s *fakeSigner) register(tx *types.Transaction, addr common.Address) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.senders[tx.Hash()] = addr
}

func (s *fakeSigner) Recover(tx *types.Transaction) (common.Address, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	addr, ok := s.senders[tx.Hash()]
	if !ok {
		return common.Address{}, errors.New("fixture: unregistered sender")
	}
	return addr, nil
}

// fakeClock is a settable Clock for deterministic zombification tests.
type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) advance(d time.Duration) { c.now = c.now.Add(d) }

// dynFeeTx builds an EIP-1559 transaction whose payload bytes embed sender,
// so that two distinct senders never collide on the same content hash even
// when nonce/tip/fee/gas happen to match (Transaction.Hash does not cover
// sender, which is recovered out of band).
func dynFeeTx(sender common.Address, nonce, tip, feeCap, gas uint64) *types.Transaction {
	return types.NewDynamicFeeTx(nonce, nil, new(uint256.Int), gas, uint256.NewInt(tip), uint256.NewInt(feeCap), sender.Bytes())
}

func legacyTx(sender common.Address, nonce, gasPrice, gas uint64) *types.Transaction {
	return types.NewLegacyTx(nonce, nil, new(uint256.Int), gas, uint256.NewInt(gasPrice), sender.Bytes())
}

// newSignedTx builds a dynamic-fee tx and registers it with signer in one
// step, the common case for façade-level tests.
func newSignedTx(signer *fakeSigner, sender common.Address, nonce, tip, feeCap, gas uint64) *types.Transaction {
	tx := dynFeeTx(sender, nonce, tip, feeCap, gas)
	signer.register(tx, sender)
	return tx
}

// testFixture bundles a pool with its collaborators, all directly reachable
// so tests can manipulate state oracle answers and the clock mid-test.
type testFixture struct {
	pool   *TxPool
	oracle *fakeOracle
	est    *fakeEstimator
	signer *fakeSigner
	clock  *fakeClock
	head   common.Hash
}

func setupPool(t *testing.T, conf Config) *testFixture {
	t.Helper()
	oracle := newFakeOracle()
	est := newFakeEstimator()
	signer := newFakeSigner()

	pool := New(conf, oracle, est, signer)
	clk := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	pool.clock = clk

	head := common.BytesToHash([]byte("genesis-head"))
	pool.SetHead(head, nil)

	return &testFixture{pool: pool, oracle: oracle, est: est, signer: signer, clock: clk, head: head}
}

func defaultTestConfig() Config {
	conf := DefaultConfig
	conf.TrgGasLimit = 1_000_000
	conf.MaxGasLimit = 1_000_000
	return conf
}

func fund(f *testFixture, sender common.Address, nonce uint64, balance uint64) {
	f.oracle.nonces[sender] = nonce
	f.oracle.balances[sender] = uint256.NewInt(balance)
}

func mustVerify(t *testing.T, p *TxPool) {
	t.Helper()
	if err := p.Verify(); err != nil {
		t.Fatalf("invariant check failed: %v", err)
	}
}

func addOrFatal(t *testing.T, f *testFixture, tx *types.Transaction, info string, local bool) common.Hash {
	t.Helper()
	ids, errs := f.pool.Add([]*types.Transaction{tx}, info, local)
	if errs[0] != nil {
		t.Fatalf("Add failed: %v", errs[0])
	}
	return ids[0]
}
