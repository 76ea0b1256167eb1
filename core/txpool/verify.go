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

import "fmt"

// verify cross-checks every invariant listed in spec §3 against the
// store's current state. It is expensive (walks every index) and is meant
// for tests and debug builds, not the hot path — the same role as
// localpool's verifyConsistency.
func (s *store) verify() error {
	seen := make(map[[32]byte]bool)

	// Invariant 2: every live item appears in lookup, rank, its sender
	// list and its status set exactly once.
	var total int
	err := func() error {
		var walkErr error
		s.lookup.Range(func(it *Item) bool {
			total++
			id := it.ID()
			if seen[id] {
				walkErr = fmt.Errorf("id %s duplicated in lookup", id.Hex())
				return false
			}
			seen[id] = true

			if _, ok := s.rank.h.index[id]; !ok {
				walkErr = fmt.Errorf("item %s missing from rank index", id.Hex())
				return false
			}
			l, ok := s.bySender[it.Sender()]
			if !ok || l.Get(it.Nonce()) != it {
				walkErr = fmt.Errorf("item %s missing from sender list", id.Hex())
				return false
			}
			if _, ok := s.byStatus[it.status][id]; !ok {
				walkErr = fmt.Errorf("item %s missing from status index %s", id.Hex(), it.status)
				return false
			}
			return true
		})
		return walkErr
	}()
	if err != nil {
		return err
	}

	// Invariant 6: waste basket and live store are disjoint.
	basketDisjointErr := func() error {
		var e error
		s.basket.mu.Lock()
		for id := range s.basket.byID {
			if seen[id] {
				e = fmt.Errorf("id %x present in both live store and waste basket", id)
				break
			}
		}
		s.basket.mu.Unlock()
		return e
	}()
	if basketDisjointErr != nil {
		return basketDisjointErr
	}

	// Invariant 3 and 4: per sender, nonces are gap-free and bucket order
	// is non-decreasing (packed before staged before pending).
	for addr, l := range s.bySender {
		items := l.Flatten()
		if len(items) == 0 {
			continue
		}
		for i := 1; i < len(items); i++ {
			if items[i].Nonce() != items[i-1].Nonce()+1 {
				return fmt.Errorf("sender %s has a nonce gap between %d and %d", addr.Hex(), items[i-1].Nonce(), items[i].Nonce())
			}
		}
		seenStaged, seenPending := false, false
		for _, it := range items {
			switch it.status {
			case StatusPending:
				seenPending = true
			case StatusStaged:
				if seenPending {
					return fmt.Errorf("sender %s: staged item at nonce %d follows a pending item", addr.Hex(), it.Nonce())
				}
				seenStaged = true
			case StatusPacked:
				if seenPending || seenStaged {
					return fmt.Errorf("sender %s: packed item at nonce %d follows a staged or pending item", addr.Hex(), it.Nonce())
				}
			}
		}
	}

	// Invariant 5: per-bucket counts sum to the total live count.
	sum := s.statusCount(StatusPending) + s.statusCount(StatusStaged) + s.statusCount(StatusPacked)
	if sum != total {
		return fmt.Errorf("bucket counts sum to %d, want %d", sum, total)
	}
	if total != s.totalLive() {
		return fmt.Errorf("lookup reports %d live items, bucket walk saw %d", s.totalLive(), total)
	}

	return nil
}
