package market

import (
	"errors"

	"github.com/Mohsinsiddi/w3bond/internal/ledger"
)

// Errors.
var (
	ErrPaymentMismatch = errors.New("payment mismatch")
	ErrInvalidState    = errors.New("invalid state")
	ErrTransferFailed  = errors.New("transfer failed")
	ErrReentrantCall   = errors.New("reentrant call")
	ErrInvalidCurve    = errors.New("invalid curve")
	ErrOverflow        = errors.New("arithmetic overflow")

	// ErrInsufficientBalance is returned by Sell when the seller holds less
	// than one unit.
	ErrInsufficientBalance = ledger.ErrInsufficientBalance

	// ErrInvalidDecimals is returned by New when 10^decimals overflows.
	ErrInvalidDecimals = ledger.ErrInvalidDecimals
)
