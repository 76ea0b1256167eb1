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

// Package txpool implements the multi-indexed transaction pool: the store,
// classifier, buckets engine, packer and the façade tying them together.
package txpool

import (
	"sync"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/holiman/uint256"

	"github.com/go-ethpool/txpool/common"
	"github.com/go-ethpool/txpool/log"
	"github.com/go-ethpool/txpool/metrics"
	"github.com/go-ethpool/txpool/types"
)

// Clock abstracts wall-clock reads so tests can inject a deterministic one
// for zombification (spec §9's "Clock injection" design note).
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Block is the façade's AssembleBlock output (spec §6).
type Block struct {
	Header        *Header
	Txs           []*types.Transaction
	GasUsed       uint64
	Profitability *uint256.Int
}

// TxPool is the public façade (spec §4.6). All state-mutating operations
// serialize through mu; readers take the same lock for simplicity (spec §5
// asks only for single-writer/multi-reader, not lock-free reads, and this
// pool has no hot read path outside of tests and the miner).
type TxPool struct {
	mu sync.Mutex

	store  *store
	ctx    *chainContext
	cls    *classifier
	oracle StateOracle
	gasEst GasEstimator
	signer SignatureVerifier
	clock  Clock
	log    log.Logger
	metr   *poolMetrics

	head          common.Hash
	headValid     bool
	trgGasLimit   uint64
	maxGasLimit   uint64
	gasLimitSlack uint64

	localAccounts mapset.Set[common.Address]

	idSeq uint64 // not read or written by any method
}

// New builds a TxPool. oracle, gasEst and signer are the external
// collaborators spec §6 names; conf is sanitized on the way in.
func New(conf Config, oracle StateOracle, gasEst GasEstimator, signer SignatureVerifier) *TxPool {
	conf = conf.sanitize()
	ctx := &chainContext{
		minPreLondonGasPrice: uint256.NewInt(conf.MinPreLondonGasPrice),
		minPriorityFee:       uint256.NewInt(conf.MinPriorityFee),
		lifeTime:             conf.LifeTime,
		flags:                conf.Flags,
	}
	return &TxPool{
		store:         newStore(conf.PriceBump, conf.MaxRejects),
		ctx:           ctx,
		cls:           newClassifier(ctx),
		oracle:        newCachingOracle(oracle),
		gasEst:        gasEst,
		signer:        signer,
		clock:         realClock{},
		log:           log.Root().New("pkg", "txpool"),
		metr:          newPoolMetrics(metrics.DefaultRegistry),
		localAccounts: mapset.NewSet[common.Address](),
		trgGasLimit:   conf.TrgGasLimit,
		maxGasLimit:   conf.MaxGasLimit,
		gasLimitSlack: conf.GasLimitSlack,
	}
}

// packLimits applies gasLimitSlack to the configured target/max gas limits,
// the way go-ethereum's miner worker reserves a percentage of the block gas
// limit rather than ever trying to fill it exactly.
func (p *TxPool) packLimits() (trg, max uint64) {
	trg = p.trgGasLimit - p.trgGasLimit*p.gasLimitSlack/100
	max = p.maxGasLimit - p.maxGasLimit*p.gasLimitSlack/100
	return trg, max
}

// Add validates and inserts each transaction in txs against one consistent
// snapshot, running a full buckets-engine pass afterward (spec §4.6, §5).
// Per-item failures are returned in the matching errs slot and counted in
// the reject metrics; they do not abort the batch, and the rejected
// transaction is not filed in the waste basket. Add(nil, "", false) is the
// idiomatic maintenance-only call (spec §4.6).
func (p *TxPool) Add(txs []*types.Transaction, info string, local bool) ([]common.Hash, []error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.headValid {
		return nil, []error{ErrHeadUnknown}
	}

	ids := make([]common.Hash, len(txs))
	errs := make([]error, len(txs))
	for i, tx := range txs {
		ids[i], errs[i] = p.addOne(tx, info, local)
	}

	p.runMaintenance()
	return ids, errs
}

func (p *TxPool) addOne(tx *types.Transaction, info string, local bool) (common.Hash, error) {
	sender, err := p.signer.Recover(tx)
	if err != nil {
		return common.Hash{}, ErrSenderUnknown
	}

	local = local || p.localAccounts.Contains(sender)

	id := tx.Hash()
	if resurrected, ok := p.store.resurrect(id); ok {
		it := newItem(id, tx, sender, resurrected.Info(), local, p.clock.Now())
		return p.insertItem(it)
	}

	it := newItem(id, tx, sender, info, local, p.clock.Now())
	return p.insertItem(it)
}

func (p *TxPool) insertItem(it *Item) (common.Hash, error) {
	if err := p.validateTx(it); err != nil {
		p.metr.recordReject(rejectForInsertErr(err))
		return it.ID(), err
	}

	onchainNonce, err := p.oracle.AccountNonce(it.Sender(), p.head)
	if err != nil {
		return it.ID(), ErrHeadUnknown
	}
	it.setEffectiveTip(p.cls.effectiveTip(it))

	if err := p.store.insert(it, onchainNonce); err != nil {
		p.metr.recordReject(rejectForInsertErr(err))
		return it.ID(), err
	}
	return it.ID(), nil
}

// validateTx checks the stateless/intrinsic preconditions spec §7 names
// alongside the store's own nonce/price checks: a tip above the fee cap is
// malformed regardless of type, intrinsic gas must fit under the declared
// gas limit, and the sender must be able to afford the worst case cost at
// the current head (spec §6's GasLimitTooLow/InsufficientFunds/InvalidType).
func (p *TxPool) validateTx(it *Item) error {
	tx := it.Tx()
	if tx.GasTipCap().Cmp(tx.GasFeeCap()) > 0 {
		return ErrInvalidType
	}
	if p.gasEst != nil {
		intrinsic, err := p.gasEst.IntrinsicGas(tx)
		if err == nil && tx.Gas() < intrinsic {
			return ErrGasLimitTooLow
		}
	}
	if balance, err := p.oracle.AccountBalance(it.Sender(), p.head); err == nil && tx.Cost().Cmp(balance) > 0 {
		return ErrInsufficientFunds
	}
	return nil
}

func rejectForInsertErr(err error) RejectReason {
	switch err {
	case ErrUnderpriced:
		return RejectUnderpriced
	case ErrNonceTooLow:
		return RejectNonceTooLow
	default:
		return RejectNone
	}
}

// runMaintenance runs the buckets engine and packer against the current
// head, the pass every mutating façade operation ends with (spec §4.3,
// §5). Packer failures never abort the caller: if the estimator cannot open
// a block at the head, the pass simply packs nothing.
func (p *TxPool) runMaintenance() {
	eng := newBucketsEngine(p.store, p.cls, p.oracle, p.metr)
	eng.run(p.head, p.clock.Now())

	if p.gasEst != nil && p.headValid {
		pk := newPacker(p.store, p.gasEst, p.metr, p.ctx.flags.PackItemsTryHarder)
		header := &Header{Hash: p.head, BaseFee: p.ctx.baseFee}
		trg, max := p.packLimits()
		pk.pack(header, trg, max, p.ctx.flags.PackItemsMaxGasLimit)
	}

	p.metr.syncGauges(
		p.store.statusCount(StatusPending),
		p.store.statusCount(StatusStaged),
		p.store.statusCount(StatusPacked),
		p.store.disposedCount(),
	)
}

// Get returns the live item with id, or nil if unknown.
func (p *TxPool) Get(id common.Hash) *Item {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.store.lookup.Get(id)
}

// Items returns a snapshot of every live item with the given status.
func (p *TxPool) Items(status Status) []*Item {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.store.itemsByStatus(status)
}

// Stats reports live and disposed counts (spec §3's invariant 7).
func (p *TxPool) Stats() (total, disposed int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.store.totalLive(), p.store.disposedCount()
}

// Ranked returns every live item ordered by effective tip, highest first
// (spec §3's rank index).
func (p *TxPool) Ranked() []*Item {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.store.rank.Ranked()
}

// Dispose removes each item, cascading higher-nonce dependents of the
// same sender, then runs a maintenance pass (spec §4.6).
func (p *TxPool) Dispose(items []*Item, reason RejectReason) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, it := range items {
		n := p.store.dispose(it, reason)
		p.metr.recordReject(reason)
		if n > 1 {
			p.metr.impliedEviction.Mark(int64(n - 1))
		}
	}
	p.runMaintenance()
}

// FlushRejects drops every waste-basket entry, returning how many.
func (p *TxPool) FlushRejects() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.store.flushRejects()
}

// Reassign moves item to newStatus without eligibility validation, the
// explicit admin escape hatch (spec §4.1, §4.6).
func (p *TxPool) Reassign(item *Item, newStatus Status) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.store.reassign(item, newStatus)
}

// SetHead updates the head pointer and runs a full maintenance pass. Every
// head is accepted, so it always returns true. Per spec §9's resolved open
// question, this performs a wholesale replacement of the chain context
// followed by one buckets+packer pass; it does not attempt the teacher's
// shallow-reorg transaction-reinjection walk, which needs block contents
// this pool never stores (spec §1 keeps block storage external).
func (p *TxPool) SetHead(head common.Hash, baseFee *uint256.Int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.head = head
	p.headValid = true
	p.ctx.baseFee = baseFee
	p.runMaintenance()
	return true
}

// TriggerReorg forces a buckets+packer pass without changing the head
// (spec §4.6, §9).
func (p *TxPool) TriggerReorg() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.runMaintenance()
}

// AssembleBlock packs staged items into an ordered block (spec §4.6, §6).
func (p *TxPool) AssembleBlock() (*Block, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.headValid {
		return nil, ErrHeadUnknown
	}
	header := &Header{Hash: p.head, BaseFee: p.ctx.baseFee, GasLimit: p.maxGasLimit}
	pk := newPacker(p.store, p.gasEst, p.metr, p.ctx.flags.PackItemsTryHarder)
	trg, max := p.packLimits()
	out := pk.pack(header, trg, max, p.ctx.flags.PackItemsMaxGasLimit)

	txs := make([]*types.Transaction, len(out.items))
	for i, it := range out.items {
		txs[i] = it.Tx()
	}
	return &Block{
		Header:        header,
		Txs:           txs,
		GasUsed:       out.gasCumulative,
		Profitability: out.profitability(),
	}, nil
}

// --- setters (spec §4.6, §6) ---

func (p *TxPool) SetBaseFee(fee *uint256.Int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ctx.baseFee = fee
	p.runMaintenance()
}

func (p *TxPool) SetLifeTime(d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ctx.lifeTime = d
	p.runMaintenance()
}

func (p *TxPool) SetMinPreLondonGasPrice(v uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ctx.minPreLondonGasPrice = uint256.NewInt(v)
	p.runMaintenance()
}

func (p *TxPool) SetMinPriorityFee(v uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ctx.minPriorityFee = uint256.NewInt(v)
	p.runMaintenance()
}

func (p *TxPool) SetPriceBump(v uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.store.priceBump = v
}

func (p *TxPool) SetFlags(f Flags) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ctx.flags = f
	p.runMaintenance()
}

func (p *TxPool) SetMaxRejects(n uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.store.basket.capacity = n
}

func (p *TxPool) SetGasLimits(trg, max uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.trgGasLimit = trg
	p.maxGasLimit = max
}

func (p *TxPool) SetGasLimitSlack(pct uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.gasLimitSlack = pct
	p.runMaintenance()
}

func (p *TxPool) AddLocal(addr common.Address) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.localAccounts.Add(addr)
}

// Verify runs the debug invariant checker (spec §8); most façade-level tests
// call it once at the end.
func (p *TxPool) Verify() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.store.verify()
}
