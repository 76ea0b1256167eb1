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
	lru "github.com/hashicorp/golang-lru"

	"github.com/go-ethpool/txpool/common"
	"github.com/holiman/uint256"
)

// cachingOracleSize bounds the account-state cache's entry count. A
// maintenance pass re-reads every sender's nonce and balance once per run;
// without caching, a wide pool with few state changes between runs re-asks
// the oracle for the same (addr, head) pair on every single Add/Dispose.
const cachingOracleSize = 16384

type oracleCacheKey struct {
	addr common.Address
	head common.Hash
}

// cachingOracle memoizes StateOracle reads per (address, head): the head
// hash is part of the key, so a new head naturally invalidates every prior
// entry without any explicit eviction logic, the same cache-key shape the
// teacher's state trie caches use for versioned lookups.
type cachingOracle struct {
	inner   StateOracle
	nonces  *lru.Cache
	balance *lru.Cache
}

func newCachingOracle(inner StateOracle) *cachingOracle {
	nonces, _ := lru.New(cachingOracleSize)
	balance, _ := lru.New(cachingOracleSize)
	return &cachingOracle{inner: inner, nonces: nonces, balance: balance}
}

func (c *cachingOracle) AccountNonce(addr common.Address, head common.Hash) (uint64, error) {
	key := oracleCacheKey{addr, head}
	if v, ok := c.nonces.Get(key); ok {
		return v.(uint64), nil
	}
	n, err := c.inner.AccountNonce(addr, head)
	if err != nil {
		return 0, err
	}
	c.nonces.Add(key, n)
	return n, nil
}

func (c *cachingOracle) AccountBalance(addr common.Address, head common.Hash) (*uint256.Int, error) {
	key := oracleCacheKey{addr, head}
	if v, ok := c.balance.Get(key); ok {
		return v.(*uint256.Int), nil
	}
	b, err := c.inner.AccountBalance(addr, head)
	if err != nil {
		return nil, err
	}
	c.balance.Add(key, b)
	return b, nil
}
