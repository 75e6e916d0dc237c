package shared

import "errors"

// Typed failures of the simulation core. Every arithmetic condition that
// could diverge from the on-chain program's execution fails with one of
// these instead of returning an approximate number.
var (
	// math
	ErrMulDivOverflow                   = errors.New("muldiv result exceeds target width")
	ErrMultiplicationOverflow           = errors.New("multiplication result exceeds target width")
	ErrMultiplicationShiftRightOverflow = errors.New("multiplication shift right overflow")
	ErrDivideByZero                     = errors.New("division by zero")
	ErrNumberDownCastError              = errors.New("number cannot be downcast")

	// bounds
	ErrTickIndexOutOfBounds           = errors.New("tick index out of bounds")
	ErrSqrtPriceOutOfBounds           = errors.New("sqrt price out of bounds")
	ErrInvalidSqrtPriceLimitDirection = errors.New("sqrt price limit on wrong side of current price")

	// sequence
	ErrInvalidTickArraySequence  = errors.New("invalid tick array sequence")
	ErrTickArrayIndexOutOfBounds = errors.New("tick index out of bounds for the supplied tick arrays")
	ErrInvalidTickSpacing        = errors.New("tick spacing must be positive")
	ErrTickArrayCrossingAboveMax = errors.New("swap crosses more tick arrays than allowed")

	// economic
	ErrZeroTradableAmount    = errors.New("amount must not be zero")
	ErrAmountExceedsMax      = errors.New("token amount exceeds maximum")
	ErrAmountOutBelowMinimum = errors.New("output amount below minimum threshold")
	ErrAmountInAboveMaximum  = errors.New("input amount above maximum threshold")
	ErrTradeIsNotEnabled     = errors.New("trade is not enabled yet")

	// overflow
	ErrAmountRemainingOverflow = errors.New("remaining amount underflow")
	ErrAmountCalcOverflow      = errors.New("calculated amount exceeds u64")

	// adaptive fee
	ErrInvalidAdaptiveFeeInfo = errors.New("invalid adaptive fee info")
	ErrInvalidTimestamp       = errors.New("timestamp is older than the last recorded update")
)
