package clamm

import "errors"

var (
	// ErrIncorrectToken is returned when a Position constructor, AddLiquidity,
	// or RemoveLiquidity call is given both or neither of a token0/token1
	// amount; exactly one side must be supplied.
	ErrIncorrectToken = errors.New("clamm: exactly one of token0Amount/token1Amount must be supplied")

	// ErrWrongSide is returned when the supplied token cannot fund the
	// requested range at the current pool price (e.g. token0 was supplied
	// but the pool price is already above the range's upper bound, so
	// token1 should have been supplied instead).
	ErrWrongSide = errors.New("clamm: wrong token side for current pool price")

	// ErrNonPositiveAmount is returned when a supplied amount is zero, or
	// when RemoveLiquidity would leave a non-positive locked amount.
	ErrNonPositiveAmount = errors.New("clamm: amount must be strictly positive")

	// ErrInsufficientLiquidity is returned when a swap requests an amount
	// that the pool cannot ever satisfy by traversing all positions.
	ErrInsufficientLiquidity = errors.New("clamm: not enough liquidity in pool to cover this swap")

	// ErrInvalidRange is returned when a position's lower bound is not
	// strictly below its upper bound.
	ErrInvalidRange = errors.New("clamm: tick_lower bound must be strictly below tick_upper bound")

	// ErrPositionNotFound is returned when ClosePosition is given an index
	// outside the pool's current position sequence.
	ErrPositionNotFound = errors.New("clamm: position index out of range")
)
