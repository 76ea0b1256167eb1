// Copyright 2015 The go-ethereum Authors
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

import "github.com/go-ethpool/txpool/metrics"

// poolMetrics bundles the counters spec §2/§8 references: eviction and
// implied-eviction meters plus per-reason reject counters, all registered
// under the txpool/ namespace the way the teacher's legacypool wires its
// own meters in metrics.go.
type poolMetrics struct {
	eviction        *metrics.Meter // zombify (Expired); explicit Dispose does not mark it
	impliedEviction *metrics.Meter // cascade disposals, reason NonceGap
	rejects         map[RejectReason]*metrics.Counter
	pending         *metrics.Gauge
	staged          *metrics.Gauge
	packed          *metrics.Gauge
	disposed        *metrics.Gauge
}

func newPoolMetrics(reg *metrics.Registry) *poolMetrics {
	m := &poolMetrics{
		eviction:        reg.Meter("txpool/eviction"),
		impliedEviction: reg.Meter("txpool/eviction/implied"),
		rejects:         make(map[RejectReason]*metrics.Counter),
		pending:         reg.Gauge("txpool/status/pending"),
		staged:          reg.Gauge("txpool/status/staged"),
		packed:          reg.Gauge("txpool/status/packed"),
		disposed:        reg.Gauge("txpool/disposed"),
	}
	for _, r := range []RejectReason{
		RejectUser, RejectReplaced, RejectNonceGap, RejectNonceTooLow,
		RejectExpired, RejectVmExecError, RejectUnderpriced,
	} {
		m.rejects[r] = reg.Counter("txpool/reject/" + r.String())
	}
	return m
}

// recordReject increments the per-reason reject counter and, for implied
// evictions specifically, the dedicated implied-eviction meter (spec §2).
func (m *poolMetrics) recordReject(reason RejectReason) {
	if c, ok := m.rejects[reason]; ok {
		c.Inc(1)
	}
	if reason == RejectNonceGap {
		m.impliedEviction.Mark(1)
	}
}

// syncGauges refreshes the bucket-size gauges from a live snapshot; called
// by the façade after every buckets-engine pass.
func (m *poolMetrics) syncGauges(pending, staged, packed, disposed int) {
	m.pending.Update(int64(pending))
	m.staged.Update(int64(staged))
	m.packed.Update(int64(packed))
	m.disposed.Update(int64(disposed))
}
