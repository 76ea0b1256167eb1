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
	"github.com/go-ethpool/txpool/types"
	"github.com/holiman/uint256"
)

// Header is the minimal chain-head metadata the pool needs to reconcile
// itself against (spec §6's "chain context"). Block storage, consensus and
// fork-choice live outside this module.
type Header struct {
	Hash      common.Hash
	Number    uint64
	BaseFee   *uint256.Int // nil pre-London
	GasLimit  uint64
	London    bool
	Timestamp uint64
}

// StateOracle answers account-state questions at a given head; it is the
// pool's only read dependency on the rest of the node (spec §1, §6).
type StateOracle interface {
	AccountNonce(addr common.Address, head common.Hash) (uint64, error)
	AccountBalance(addr common.Address, head common.Hash) (*uint256.Int, error)
}

// ExecResult is the outcome of a single dry-run.
type ExecResult struct {
	GasUsed uint64
}

// GasEstimator provides intrinsic gas accounting and an EVM dry-run sandbox
// for the packer (spec §4.4, §6). The pool never executes a transaction for
// real; it only asks whether one *would* fit.
type GasEstimator interface {
	// IntrinsicGas returns the minimum gas a transaction must supply before
	// any EVM execution, used by TxPool.validateTx's GasLimitTooLow check.
	IntrinsicGas(tx *types.Transaction) (uint64, error)

	// DryRun executes tx against a copy-on-write view of the state rooted
	// at header, returning the gas it consumed or an ExecError. The state
	// argument is the opaque token BeginBlock returned, so the packer can
	// build up a running block without the estimator needing its own notion
	// of "current pack".
	DryRun(tx *types.Transaction, state any, header *Header) (ExecResult, error)

	// BeginBlock opens a fresh copy-on-write state rooted at header for the
	// packer to dry-run a sequence of transactions against.
	BeginBlock(header *Header) (state any, err error)
}

// SignatureVerifier recovers the sender of a transaction (spec §6). An
// implementation may do additional bookkeeping (e.g. caching) beyond plain
// recovery.
type SignatureVerifier interface {
	Recover(tx *types.Transaction) (common.Address, error)
}
