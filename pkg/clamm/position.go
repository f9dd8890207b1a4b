package clamm

import (
	"math"

	"github.com/johnayoung/clamm-engine/pkg/clamm/tickmath"
)

// AccountId identifies a liquidity provider or token. It is a defined string
// type rather than a bare string so it carries its own identity through
// exported signatures, while remaining directly usable as a map key (a
// string-kinded type is comparable and hashable with no extra machinery).
type AccountId string

// Position is a single liquidity provider's committed price range within a
// Pool. Liquidity, and both locked token amounts, stay consistent with
// [SqrtLower, SqrtUpper] and the pool's current sqrt-price through Refresh.
type Position struct {
	Owner AccountId

	Liquidity    float64 // L
	Token0Locked float64 // x
	Token1Locked float64 // y

	TickLower int
	TickUpper int

	SqrtLower float64 // p_a
	SqrtUpper float64 // p_b

	IsActiveFlag   bool
	LastUpdate     uint64
	RewardsForTime uint64

	FeesEarnedToken0 float64
	FeesEarnedToken1 float64
}

// NewPosition constructs a Position from exactly one of token0Amount or
// token1Amount, snapping the caller's [lowerPrice, upperPrice] bounds onto
// the tick grid and deriving liquidity from the supplied side at the
// current pool sqrtPrice.
//
// Exactly one of token0Amount, token1Amount must be non-nil; the other must
// be nil. Supplying token0 requires sqrtPrice <= the snapped upper bound
// SqrtUpper; supplying token1 requires sqrtPrice >= the snapped lower bound
// SqrtLower, otherwise the caller should have supplied the other token
// (ErrWrongSide).
func NewPosition(
	owner AccountId,
	token0Amount, token1Amount *float64,
	lowerPrice, upperPrice, sqrtPrice float64,
) (*Position, error) {
	if (token0Amount == nil) == (token1Amount == nil) {
		return nil, ErrIncorrectToken
	}
	if lowerPrice >= upperPrice {
		return nil, ErrInvalidRange
	}

	tickLower := tickmath.SqrtPriceToTick(math.Sqrt(lowerPrice))
	tickUpper := tickmath.SqrtPriceToTick(math.Sqrt(upperPrice))
	if tickLower >= tickUpper {
		return nil, ErrInvalidRange
	}
	pa := tickmath.TickToSqrtPrice(tickLower)
	pb := tickmath.TickToSqrtPrice(tickUpper)

	var liquidity, x, y float64

	if token0Amount != nil {
		x = *token0Amount
		if x <= 0 {
			return nil, ErrNonPositiveAmount
		}
		if sqrtPrice > pb {
			return nil, ErrWrongSide
		}
		if pa < sqrtPrice && sqrtPrice < pb {
			liquidity = tickmath.LiquidityFromToken0(x, sqrtPrice, pb)
		} else {
			liquidity = tickmath.LiquidityFromToken0(x, pa, pb)
		}
		y = tickmath.AmountY(liquidity, sqrtPrice, pa, pb)
	} else {
		y = *token1Amount
		if y <= 0 {
			return nil, ErrNonPositiveAmount
		}
		if sqrtPrice < pa {
			return nil, ErrWrongSide
		}
		if pa <= sqrtPrice && sqrtPrice <= pb {
			liquidity = tickmath.LiquidityFromToken1(y, pa, sqrtPrice)
		} else {
			liquidity = tickmath.LiquidityFromToken1(y, pa, pb)
		}
		x = tickmath.AmountX(liquidity, sqrtPrice, pa, pb)
	}

	return &Position{
		Owner:          owner,
		Liquidity:      liquidity,
		Token0Locked:   x,
		Token1Locked:   y,
		TickLower:      tickLower,
		TickUpper:      tickUpper,
		SqrtLower:      pa,
		SqrtUpper:      pb,
		IsActiveFlag:   pa <= sqrtPrice && sqrtPrice <= pb,
		LastUpdate:     0,
		RewardsForTime: 0,
	}, nil
}

// IsActive reports whether sqrtPrice falls within the position's range,
// closed on both ends.
func (p *Position) IsActive(sqrtPrice float64) bool {
	return p.SqrtLower <= sqrtPrice && sqrtPrice <= p.SqrtUpper
}

// AddLiquidity deposits additional token0Amount or token1Amount (exactly
// one, the other nil) into the position at the given pool sqrtPrice,
// recomputing liquidity from the new locked amount and then recomputing the
// opposite locked amount to stay consistent with it.
func (p *Position) AddLiquidity(token0Amount, token1Amount *float64, sqrtPrice float64) error {
	if (token0Amount == nil) == (token1Amount == nil) {
		return ErrIncorrectToken
	}
	if token0Amount != nil {
		if *token0Amount <= 0 {
			return ErrNonPositiveAmount
		}
		if sqrtPrice > p.SqrtUpper {
			return ErrWrongSide
		}
		p.Token0Locked += *token0Amount
		p.recomputeFromToken0(sqrtPrice)
	} else {
		if *token1Amount <= 0 {
			return ErrNonPositiveAmount
		}
		if sqrtPrice < p.SqrtLower {
			return ErrWrongSide
		}
		p.Token1Locked += *token1Amount
		p.recomputeFromToken1(sqrtPrice)
	}
	return nil
}

// RemoveLiquidity withdraws token0Amount or token1Amount (exactly one) from
// the position, requiring the remaining locked amount of that side to stay
// strictly positive.
func (p *Position) RemoveLiquidity(token0Amount, token1Amount *float64, sqrtPrice float64) error {
	if (token0Amount == nil) == (token1Amount == nil) {
		return ErrIncorrectToken
	}
	if token0Amount != nil {
		if *token0Amount <= 0 {
			return ErrNonPositiveAmount
		}
		if sqrtPrice > p.SqrtUpper {
			return ErrWrongSide
		}
		remaining := p.Token0Locked - *token0Amount
		if remaining <= 0 {
			return ErrNonPositiveAmount
		}
		p.Token0Locked = remaining
		p.recomputeFromToken0(sqrtPrice)
	} else {
		if *token1Amount <= 0 {
			return ErrNonPositiveAmount
		}
		if sqrtPrice < p.SqrtLower {
			return ErrWrongSide
		}
		remaining := p.Token1Locked - *token1Amount
		if remaining <= 0 {
			return ErrNonPositiveAmount
		}
		p.Token1Locked = remaining
		p.recomputeFromToken1(sqrtPrice)
	}
	return nil
}

func (p *Position) recomputeFromToken0(sqrtPrice float64) {
	if p.SqrtLower < sqrtPrice && sqrtPrice < p.SqrtUpper {
		p.Liquidity = tickmath.LiquidityFromToken0(p.Token0Locked, sqrtPrice, p.SqrtUpper)
	} else {
		p.Liquidity = tickmath.LiquidityFromToken0(p.Token0Locked, p.SqrtLower, p.SqrtUpper)
	}
	p.Token1Locked = tickmath.AmountY(p.Liquidity, sqrtPrice, p.SqrtLower, p.SqrtUpper)
}

func (p *Position) recomputeFromToken1(sqrtPrice float64) {
	if p.SqrtLower <= sqrtPrice && sqrtPrice <= p.SqrtUpper {
		p.Liquidity = tickmath.LiquidityFromToken1(p.Token1Locked, p.SqrtLower, sqrtPrice)
	} else {
		p.Liquidity = tickmath.LiquidityFromToken1(p.Token1Locked, p.SqrtLower, p.SqrtUpper)
	}
	p.Token0Locked = tickmath.AmountX(p.Liquidity, sqrtPrice, p.SqrtLower, p.SqrtUpper)
}

// Refresh recomputes the position's locked amounts at the given pool
// sqrtPrice, accrues wall-clock time into RewardsForTime if the position
// was active since its last refresh, and updates IsActive/LastUpdate.
func (p *Position) Refresh(sqrtPrice float64, now uint64) {
	p.Token0Locked = tickmath.AmountX(p.Liquidity, sqrtPrice, p.SqrtLower, p.SqrtUpper)
	p.Token1Locked = tickmath.AmountY(p.Liquidity, sqrtPrice, p.SqrtLower, p.SqrtUpper)
	if p.IsActiveFlag {
		p.RewardsForTime += now - p.LastUpdate
	}
	p.IsActiveFlag = p.IsActive(sqrtPrice)
	p.LastUpdate = now
}
