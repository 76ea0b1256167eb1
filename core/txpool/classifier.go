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

	"github.com/holiman/uint256"
)

// chainContext is the classifier's read-only snapshot of head state: base
// fee, the two minimum-tip floors and which one is active, plus the zombify
// flags and lifetime (spec §4.2, §6). The façade owns one instance and its
// head, base-fee and flag setters update its fields in place.
type chainContext struct {
	baseFee              *uint256.Int // nil pre-London
	minPreLondonGasPrice *uint256.Int
	minPriorityFee       *uint256.Int
	lifeTime             time.Duration
	flags                Flags
}

// minTip is minPreLondonGasPrice before London activation at the current
// head, otherwise minPriorityFee (spec §4.2).
func (c *chainContext) minTip() *uint256.Int {
	if c.baseFee == nil {
		return c.minPreLondonGasPrice
	}
	return c.minPriorityFee
}

// Flags are the boolean policy switches recognized by the façade (spec §6).
type Flags struct {
	AutoZombifyPacked    bool
	AutoZombifyUnpacked  bool
	PackItemsMaxGasLimit bool
	PackItemsTryHarder   bool
}

// classifier evaluates the pure, side-effect-free eligibility predicates of
// spec §4.2. It never mutates an Item or any index; the buckets engine
// decides what to do with its verdicts.
type classifier struct {
	ctx *chainContext
}

func newClassifier(ctx *chainContext) *classifier { return &classifier{ctx: ctx} }

// effectiveTip computes an item's miner reward per gas at the current base
// fee for the rank index and packer to compare by (GLOSSARY). Transactions
// whose feeCap no longer covers the base fee report zero rather than
// erroring: they are simply unattractive, not invalid, for ranking purposes
// — the buckets engine's own eligibility check is what actually excludes
// them from staging.
func (c *classifier) effectiveTip(it *Item) *uint256.Int {
	tip, err := it.Tx().EffectiveGasTip(c.ctx.baseFee)
	if err != nil {
		return new(uint256.Int)
	}
	return tip
}

// eligibleTip reports whether it clears the active minimum tip floor, and
// post-London, whether its effective tip at the current base fee is
// non-negative.
func (c *classifier) eligibleTip(it *Item) bool {
	tx := it.Tx()
	if tx.GasTipCap().Cmp(c.ctx.minTip()) < 0 {
		return false
	}
	if c.ctx.baseFee == nil {
		return true
	}
	// EffectiveGasTip only errors when feeCap < baseFee; uint256 being
	// unsigned, any value it successfully returns is already >= 0.
	_, err := tx.EffectiveGasTip(c.ctx.baseFee)
	return err == nil
}

// affordable reports whether runningBalance covers item's worst-case cost
// (gasLimit*gasPrice + value), per spec §4.3 step 3.
func (c *classifier) affordable(it *Item, runningBalance *uint256.Int) bool {
	return it.Tx().Cost().Cmp(runningBalance) <= 0
}

// expired reports whether it has sat past the configured lifetime as of
// now, eligible for zombification (spec §4.2's age predicate). The clock is
// passed in rather than read from time.Now so tests can inject one.
func (c *classifier) expired(it *Item, now time.Time) bool {
	if c.ctx.lifeTime <= 0 {
		return false
	}
	return it.TimeStamp().Before(now.Add(-c.ctx.lifeTime))
}

// zombifyEligible reports whether the flag gating zombification of items in
// status is currently set.
func (c *classifier) zombifyEligible(status Status) bool {
	if status == StatusPacked {
		return c.ctx.flags.AutoZombifyPacked
	}
	return c.ctx.flags.AutoZombifyUnpacked
}

// gasCost returns the worst-case balance an item consumes: gas * gasFeeCap
// + value, the same amount affordable checks against.
// Exposed for the buckets engine's runningBalance decrement (spec §4.3).
func gasCost(it *Item) *uint256.Int {
	return it.Tx().Cost()
}
