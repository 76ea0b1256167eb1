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
	"time"

	"github.com/go-ethpool/txpool/common"
	"github.com/go-ethpool/txpool/types"
	"github.com/holiman/uint256"
)

// Status is the lifecycle bucket an Item currently occupies.
type Status uint8

const (
	StatusPending Status = iota
	StatusStaged
	StatusPacked
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusStaged:
		return "staged"
	case StatusPacked:
		return "packed"
	default:
		return "unknown"
	}
}

// Item is the unit record the pool stores: a transaction plus the derived
// metadata every index needs (spec §3). It is immutable after insert except
// for status, reject and timeStamp.
type Item struct {
	id     common.Hash
	tx     *types.Transaction
	sender common.Address

	timeStamp time.Time
	status    Status
	info      string
	reject    RejectReason
	local     bool

	// effectiveTip is recomputed by the classifier whenever the base fee
	// changes; cached here so the rank index doesn't need the chain
	// context on every comparison.
	effectiveTip *uint256.Int
}

func newItem(id common.Hash, tx *types.Transaction, sender common.Address, info string, local bool, now time.Time) *Item {
	return &Item{
		id:        id,
		tx:        tx,
		sender:    sender,
		timeStamp: now,
		status:    StatusPending,
		info:      info,
		local:     local,
	}
}

func (it *Item) ID() common.Hash           { return it.id }
func (it *Item) Tx() *types.Transaction    { return it.tx }
func (it *Item) Sender() common.Address    { return it.sender }
func (it *Item) Nonce() uint64             { return it.tx.Nonce() }
func (it *Item) Status() Status            { return it.status }
func (it *Item) Info() string              { return it.info }
func (it *Item) Reject() RejectReason      { return it.reject }
func (it *Item) Local() bool               { return it.local }
func (it *Item) TimeStamp() time.Time      { return it.timeStamp }
func (it *Item) EffectiveTip() *uint256.Int { return it.effectiveTip }

// setEffectiveTip is called by the classifier/buckets engine whenever the
// base fee changes; it keeps the rank index's cached comparison key fresh.
func (it *Item) setEffectiveTip(tip *uint256.Int) { it.effectiveTip = tip }

// Less orders two items by effective tip descending, breaking ties by
// (sender lexicographic, nonce ascending) per spec §4.1.
func (it *Item) Less(other *Item) bool {
	if it.effectiveTip != nil && other.effectiveTip != nil {
		if c := it.effectiveTip.Cmp(other.effectiveTip); c != 0 {
			return c > 0
		}
	}
	if c := it.sender.Cmp(other.sender); c != 0 {
		return c < 0
	}
	return it.Nonce() < other.Nonce()
}
