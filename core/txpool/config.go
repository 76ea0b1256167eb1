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

	"github.com/go-ethpool/txpool/log"
)

// Config bundles the recognized options of spec §6, plus GasLimitSlack, an
// ambient addition with no spec-side name of its own. Every field has a
// DefaultConfig value; sanitize fills in anything left zero rather than
// rejecting it outright, mirroring the teacher's tolerant config handling.
type Config struct {
	// PriceBump is the minimum percentage increase (feeCap and tip both)
	// a replacement must clear over the incumbent at the same nonce.
	PriceBump uint64

	// MinPreLondonGasPrice and MinPriorityFee are the two minTip floors
	// (spec §4.2); which one is active depends on London activation at
	// the current head.
	MinPreLondonGasPrice uint64
	MinPriorityFee       uint64

	// LifeTime is the zombify threshold (spec §4.2, §6).
	LifeTime time.Duration

	// MaxRejects bounds the waste basket's FIFO (spec §3.2, §6).
	MaxRejects uint64

	// TrgGasLimit and MaxGasLimit are the packer's block gas target and
	// hard ceiling (spec §4.4, §6).
	TrgGasLimit uint64
	MaxGasLimit uint64

	// Flags are the boolean policy switches (spec §6).
	Flags Flags

	// GasLimitSlack is the percentage of TrgGasLimit/MaxGasLimit the packer
	// reserves and never tries to fill, mirroring the miner worker's own
	// gas-limit slack reservation; an ambient tunable this spec's §6 config
	// table doesn't name but §4.4's algorithm implies exists. Consulted by
	// TxPool.packLimits, not by the packer directly, since the percentage
	// applies once to the pool's configured limits rather than per call.
	GasLimitSlack uint64
}

// DefaultConfig mirrors the teacher's legacypool defaults, adapted to this
// spec's vocabulary.
var DefaultConfig = Config{
	PriceBump:            10,
	MinPreLondonGasPrice: 1,
	MinPriorityFee:       1,
	MaxRejects:           2048,
	LifeTime:             3 * time.Hour,
	TrgGasLimit:          15_000_000,
	MaxGasLimit:          30_000_000,
	GasLimitSlack:        0,
}

// sanitize fills zero-valued fields with DefaultConfig's values and resets an
// out-of-range GasLimitSlack, the way the teacher's legacypool.Config.sanitize
// does. It logs a warning for the fee floors, the price bump and the slack;
// MaxRejects, LifeTime and the gas limits are filled in without a log line.
func (c Config) sanitize() Config {
	conf := c
	if conf.MinPreLondonGasPrice == 0 {
		log.Warn("Sanitizing invalid txpool minPreLondonGasPrice", "provided", conf.MinPreLondonGasPrice, "updated", DefaultConfig.MinPreLondonGasPrice)
		conf.MinPreLondonGasPrice = DefaultConfig.MinPreLondonGasPrice
	}
	if conf.MinPriorityFee == 0 {
		log.Warn("Sanitizing invalid txpool minPriorityFee", "provided", conf.MinPriorityFee, "updated", DefaultConfig.MinPriorityFee)
		conf.MinPriorityFee = DefaultConfig.MinPriorityFee
	}
	if conf.PriceBump == 0 {
		log.Warn("Sanitizing invalid txpool price bump", "provided", conf.PriceBump, "updated", DefaultConfig.PriceBump)
		conf.PriceBump = DefaultConfig.PriceBump
	}
	if conf.MaxRejects == 0 {
		conf.MaxRejects = DefaultConfig.MaxRejects
	}
	if conf.LifeTime == 0 {
		conf.LifeTime = DefaultConfig.LifeTime
	}
	if conf.TrgGasLimit == 0 {
		conf.TrgGasLimit = DefaultConfig.TrgGasLimit
	}
	if conf.MaxGasLimit == 0 {
		conf.MaxGasLimit = DefaultConfig.MaxGasLimit
	}
	if conf.GasLimitSlack > 100 {
		log.Warn("Sanitizing invalid txpool gasLimitSlack", "provided", conf.GasLimitSlack, "updated", DefaultConfig.GasLimitSlack)
		conf.GasLimitSlack = DefaultConfig.GasLimitSlack
	}
	return conf
}
