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

package txpool

import (
	"errors"
	"fmt"
)

// Error kinds surfaced to callers, per spec §7.
var (
	ErrDuplicate         = errors.New("transaction already known")
	ErrUnderpriced       = errors.New("replacement transaction underpriced")
	ErrNonceTooLow       = errors.New("nonce too low")
	ErrNonceGap          = errors.New("nonce too high")
	ErrSenderUnknown     = errors.New("could not recover sender from signature")
	ErrInsufficientFunds = errors.New("insufficient funds for gas * price + value")
	ErrGasLimitTooLow    = errors.New("intrinsic gas too low")
	ErrInvalidType       = errors.New("transaction type not supported")
	ErrHeadUnknown       = errors.New("current chain head unknown to state oracle")
)

// VmExecError wraps the reason the packer's EVM dry-run rejected an item.
type VmExecError struct {
	Reason string
}

func (e *VmExecError) Error() string { return fmt.Sprintf("vm execution error: %s", e.Reason) }

// ErrOutOfGasReason is a distinguished VmExecError reason: it stops the packer
// from pulling further transactions from the offending sender for this
// block (§4.4 step 3) without disposing the item itself.
const ErrOutOfGasReason = "out of gas"

func isOutOfGas(err error) bool {
	var vmErr *VmExecError
	if errors.As(err, &vmErr) {
		return vmErr.Reason == ErrOutOfGasReason
	}
	return false
}

// RejectReason records why an item sits in the waste basket (spec §3/§7).
type RejectReason uint8

const (
	RejectNone RejectReason = iota
	RejectUser
	RejectReplaced
	RejectNonceGap // implied eviction: disposed as a dependent of a lower-nonce cascade
	RejectNonceTooLow
	RejectExpired
	RejectVmExecError
	RejectUnderpriced
)

func (r RejectReason) String() string {
	switch r {
	case RejectUser:
		return "User"
	case RejectReplaced:
		return "Replaced"
	case RejectNonceGap:
		return "NonceGap"
	case RejectNonceTooLow:
		return "NonceTooLow"
	case RejectExpired:
		return "Expired"
	case RejectVmExecError:
		return "VmExecError"
	case RejectUnderpriced:
		return "Underpriced"
	default:
		return "None"
	}
}
