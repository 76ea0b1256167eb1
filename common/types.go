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

// Package common holds the small, dependency-free value types (addresses,
// hashes) shared by every other package in this module.
package common

import (
	"encoding/hex"
	"fmt"
	"sort"
)

const (
	HashLength    = 32
	AddressLength = 20
)

// Hash is a content-addressed 32-byte identifier, used for transaction ids.
type Hash [HashLength]byte

// BytesToHash sets the rightmost bytes of b into a Hash, truncating if b is
// longer than HashLength.
func BytesToHash(b []byte) Hash {
	var h Hash
	h.SetBytes(b)
	return h
}

func (h *Hash) SetBytes(b []byte) {
	if len(b) > len(h) {
		b = b[len(b)-HashLength:]
	}
	copy(h[HashLength-len(b):], b)
}

func (h Hash) Bytes() []byte { return h[:] }
func (h Hash) Hex() string   { return "0x" + hex.EncodeToString(h[:]) }
func (h Hash) String() string { return h.Hex() }

// Cmp orders hashes lexicographically.
func (h Hash) Cmp(other Hash) int {
	for i := range h {
		if h[i] != other[i] {
			if h[i] < other[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

// Address is a 20-byte account identifier recovered from a transaction
// signature.
type Address [AddressLength]byte

func BytesToAddress(b []byte) Address {
	var a Address
	a.SetBytes(b)
	return a
}

func (a *Address) SetBytes(b []byte) {
	if len(b) > len(a) {
		b = b[len(b)-AddressLength:]
	}
	copy(a[AddressLength-len(b):], b)
}

func (a Address) Bytes() []byte  { return a[:] }
func (a Address) Hex() string    { return "0x" + hex.EncodeToString(a[:]) }
func (a Address) String() string { return a.Hex() }

// Cmp orders addresses lexicographically; the rank index's secondary
// tie-break key when two items carry the same effective tip.
func (a Address) Cmp(other Address) int {
	for i := range a {
		if a[i] != other[i] {
			if a[i] < other[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

func (a Address) Format(f fmt.State, c rune) {
	fmt.Fprintf(f, "%s", a.Hex())
}

// SortAddresses returns a freshly sorted copy of addrs, lexicographic.
func SortAddresses(addrs []Address) []Address {
	out := make([]Address, len(addrs))
	copy(out, addrs)
	sort.Slice(out, func(i, j int) bool { return out[i].Cmp(out[j]) < 0 })
	return out
}
