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

// Package types defines the candidate transaction, kept deliberately small: signature recovery and wire encoding are external
// collaborators (spec §1), so this package only carries the fields the pool
// itself needs to reason about fees, nonces and cost.
package types

import (
	"crypto/sha256"
	"errors"

	"github.com/go-ethpool/txpool/common"
	"github.com/holiman/uint256"
)

// TxType distinguishes the fee model a transaction uses.
type TxType byte

const (
	LegacyTxType TxType = iota
	DynamicFeeTxType
)

// Transaction is the validated candidate transaction the pool stores. It is
// immutable once constructed.
type Transaction struct {
	typ   TxType
	nonce uint64
	to    *common.Address
	value *uint256.Int
	gas   uint64
	data  []byte

	// legacy fee model
	gasPrice *uint256.Int

	// EIP-1559 fee model
	gasTipCap *uint256.Int
	gasFeeCap *uint256.Int

	hash common.Hash
}

// NewLegacyTx creates a pre-London, single gas-price transaction.
func NewLegacyTx(nonce uint64, to *common.Address, value *uint256.Int, gas uint64, gasPrice *uint256.Int, data []byte) *Transaction {
	tx := &Transaction{
		typ:      LegacyTxType,
		nonce:    nonce,
		to:       to,
		value:    clone(value),
		gas:      gas,
		gasPrice: clone(gasPrice),
		data:     data,
	}
	tx.hash = computeHash(tx)
	return tx
}

// NewDynamicFeeTx creates a London (EIP-1559) transaction with an explicit
// priority fee cap and total fee cap.
func NewDynamicFeeTx(nonce uint64, to *common.Address, value *uint256.Int, gas uint64, gasTipCap, gasFeeCap *uint256.Int, data []byte) *Transaction {
	tx := &Transaction{
		typ:       DynamicFeeTxType,
		nonce:     nonce,
		to:        to,
		value:     clone(value),
		gas:       gas,
		gasTipCap: clone(gasTipCap),
		gasFeeCap: clone(gasFeeCap),
		data:      data,
	}
	tx.hash = computeHash(tx)
	return tx
}

func clone(v *uint256.Int) *uint256.Int {
	if v == nil {
		return new(uint256.Int)
	}
	return new(uint256.Int).Set(v)
}

// computeHash content-addresses the transaction; a real node derives this
// from RLP encoding, out of scope here (spec §1 keeps wire encoding
// external) so a structural digest stands in for it.
func computeHash(tx *Transaction) common.Hash {
	h := sha256.New()
	var nonceBuf [8]byte
	for i := 0; i < 8; i++ {
		nonceBuf[i] = byte(tx.nonce >> (8 * (7 - i)))
	}
	h.Write(nonceBuf[:])
	var gasBuf [8]byte
	for i := 0; i < 8; i++ {
		gasBuf[i] = byte(tx.gas >> (8 * (7 - i)))
	}
	h.Write(gasBuf[:])
	h.Write([]byte{byte(tx.typ)})
	if tx.to != nil {
		h.Write(tx.to.Bytes())
	}
	h.Write(tx.GasFeeCap().Bytes())
	h.Write(tx.GasTipCap().Bytes())
	h.Write(tx.value.Bytes())
	h.Write(tx.data)
	return common.BytesToHash(h.Sum(nil))
}

func (tx *Transaction) Type() TxType        { return tx.typ }
func (tx *Transaction) Nonce() uint64       { return tx.nonce }
func (tx *Transaction) To() *common.Address { return tx.to }
func (tx *Transaction) Value() *uint256.Int { return tx.value }
func (tx *Transaction) Gas() uint64         { return tx.gas }
func (tx *Transaction) Data() []byte        { return tx.data }
func (tx *Transaction) Hash() common.Hash   { return tx.hash }

// GasPrice returns the flat gas price for legacy transactions, or the fee
// cap for dynamic-fee ones (the price a sender is willing to pay in the
// worst case, used by pre-London cost checks).
func (tx *Transaction) GasPrice() *uint256.Int {
	if tx.typ == LegacyTxType {
		return tx.gasPrice
	}
	return tx.gasFeeCap
}

// GasTipCap returns the max priority fee per gas the sender offers the
// block producer.
func (tx *Transaction) GasTipCap() *uint256.Int {
	if tx.typ == LegacyTxType {
		return tx.gasPrice
	}
	return tx.gasTipCap
}

// GasFeeCap returns the max total fee per gas the sender is willing to pay.
func (tx *Transaction) GasFeeCap() *uint256.Int {
	if tx.typ == LegacyTxType {
		return tx.gasPrice
	}
	return tx.gasFeeCap
}

// Cost returns value + gas*gasFeeCap, the maximum balance this transaction
// can consume.
func (tx *Transaction) Cost() *uint256.Int {
	total := new(uint256.Int).Mul(uint256.NewInt(tx.gas), tx.GasFeeCap())
	return total.Add(total, tx.value)
}

// EffectiveGasTip returns the miner's actual reward per gas at the given
// base fee: min(tipCap, feeCap-baseFee) post-London, or gasPrice pre-London
// (baseFee == nil). Returns ErrFeeCapBelowBaseFee if feeCap < baseFee.
func (tx *Transaction) EffectiveGasTip(baseFee *uint256.Int) (*uint256.Int, error) {
	if baseFee == nil {
		return new(uint256.Int).Set(tx.GasTipCap()), nil
	}
	if tx.GasFeeCap().Lt(baseFee) {
		return nil, ErrFeeCapBelowBaseFee
	}
	feeCapMinusBase := new(uint256.Int).Sub(tx.GasFeeCap(), baseFee)
	tip := tx.GasTipCap()
	if feeCapMinusBase.Lt(tip) {
		return feeCapMinusBase, nil
	}
	return new(uint256.Int).Set(tip), nil
}

// EffectiveGasTipCmp orders two transactions by effective tip at baseFee.
func (tx *Transaction) EffectiveGasTipCmp(other *Transaction, baseFee *uint256.Int) int {
	a, errA := tx.EffectiveGasTip(baseFee)
	b, errB := other.EffectiveGasTip(baseFee)
	if errA != nil {
		a = new(uint256.Int) // treat as zero, caller should have excluded already
	}
	if errB != nil {
		b = new(uint256.Int)
	}
	return a.Cmp(b)
}

var ErrFeeCapBelowBaseFee = errors.New("max fee per gas less than block base fee")
