package clamm

import (
	"math"

	"github.com/johnayoung/clamm-engine/pkg/clamm/tickmath"
)

// SwapDirection selects how the token/amount pair in GetSwapResult is
// interpreted: as the desired output (SwapExpense) or the supplied input
// (SwapReturn).
type SwapDirection int

const (
	// SwapExpense treats token as the desired output asset and amount as
	// its desired quantity; GetSwapResult reports the input required.
	SwapExpense SwapDirection = iota
	// SwapReturn treats token as the supplied input asset and amount as
	// its provided quantity; GetSwapResult reports the output produced.
	SwapReturn
)

// SwapResult is the outcome of a dry-run GetSwapResult call. It never
// mutates the Pool that produced it; ApplySwapResult commits it.
type SwapResult struct {
	Amount        float64
	NewLiquidity  float64
	NewSqrtPrice  float64
	CollectedFees map[AccountId]float64
}

// Pool owns the current price, the cached aggregate liquidity, and the
// ordered collection of positions for a two-asset concentrated-liquidity
// market. Liquidity always equals the sum of active positions' liquidity at
// SqrtPrice, and Tick always equals tickmath.SqrtPriceToTick(SqrtPrice).
type Pool struct {
	Token0 AccountId
	Token1 AccountId

	Liquidity float64
	SqrtPrice float64
	Tick      int

	Positions []*Position

	ProtocolFeeBp uint16
	RewardsBp     uint16
}

// NewPool creates an empty pool at the given starting price (not
// sqrt-price), with protocolFeeBp/rewardsBp each expressed in basis points
// ([0, 10000]).
func NewPool(token0, token1 AccountId, price float64, protocolFeeBp, rewardsBp uint16) *Pool {
	sqrtPrice := math.Sqrt(price)
	return &Pool{
		Token0:        token0,
		Token1:        token1,
		Liquidity:     0,
		SqrtPrice:     sqrtPrice,
		Tick:          tickmath.SqrtPriceToTick(sqrtPrice),
		ProtocolFeeBp: protocolFeeBp,
		RewardsBp:     rewardsBp,
	}
}

// GetSqrtPrice returns the pool's current sqrt-price.
func (p *Pool) GetSqrtPrice() float64 {
	return p.SqrtPrice
}

// GetSwapResult dry-runs a swap from the pool's current state without
// mutating it, walking the price across tick boundaries one at a time until
// the full requested amount has been satisfied. Returns
// ErrInsufficientLiquidity if no position can ever satisfy the remainder of
// the request.
func (p *Pool) GetSwapResult(token AccountId, amount float64, direction SwapDirection) (SwapResult, error) {
	tick := p.Tick
	price := p.SqrtPrice
	remaining := amount
	collected := 0.0
	down := p.motionIsDown(direction, token)
	fees := make(map[AccountId]float64)

	for remaining > 0 {
		liquidity := p.liquidityAt(price)
		if liquidity == 0 {
			boundary, ok := p.nearestBoundary(price, down)
			if !ok {
				return SwapResult{}, ErrInsufficientLiquidity
			}
			price = boundary
			tick = tickmath.SqrtPriceToTick(price)
			continue
		}

		preStepPrice := price
		var stepAmount float64
		switch direction {
		case SwapExpense:
			stepAmount, tick, price, remaining = p.stepExpense(tick, price, token, remaining, liquidity)
		case SwapReturn:
			stepAmount, tick, price, remaining = p.stepReturn(tick, price, token, remaining, liquidity)
		}
		p.collectFees(liquidity, preStepPrice, stepAmount, fees)
		collected += stepAmount
	}

	return SwapResult{
		Amount:        collected,
		NewLiquidity:  p.liquidityAt(price),
		NewSqrtPrice:  price,
		CollectedFees: fees,
	}, nil
}

// ApplySwapResult commits a previously computed SwapResult, writing the new
// liquidity and sqrt-price and re-deriving tick from the new sqrt-price so
// the pool's cached tick never drifts out of sync between operations.
func (p *Pool) ApplySwapResult(result *SwapResult) {
	p.Liquidity = result.NewLiquidity
	p.SqrtPrice = result.NewSqrtPrice
	p.Tick = tickmath.SqrtPriceToTick(result.NewSqrtPrice)
}

// OpenPosition appends position to the pool's position sequence, adding its
// liquidity to the cached aggregate if it is active at the current price.
func (p *Pool) OpenPosition(position *Position) {
	if position.IsActive(p.SqrtPrice) {
		p.Liquidity += position.Liquidity
	}
	p.Positions = append(p.Positions, position)
}

// ClosePosition removes the position at index, subtracting its liquidity
// from the cached aggregate if it was active. Indices of later positions
// shift down by one.
func (p *Pool) ClosePosition(index int) error {
	if index < 0 || index >= len(p.Positions) {
		return ErrPositionNotFound
	}
	position := p.Positions[index]
	if position.IsActive(p.SqrtPrice) {
		p.Liquidity -= position.Liquidity
	}
	p.Positions = append(p.Positions[:index], p.Positions[index+1:]...)
	return nil
}

// RefreshLiquidity recomputes the cached aggregate liquidity from scratch by
// summing every position active at the current price.
func (p *Pool) RefreshLiquidity() {
	p.Liquidity = p.liquidityAt(p.SqrtPrice)
	p.Tick = tickmath.SqrtPriceToTick(p.SqrtPrice)
}

// RefreshPositions calls Position.Refresh on every position in the pool.
func (p *Pool) RefreshPositions(now uint64) {
	for _, position := range p.Positions {
		position.Refresh(p.SqrtPrice, now)
	}
	p.Tick = tickmath.SqrtPriceToTick(p.SqrtPrice)
}

// liquidityAt sums the liquidity of every position whose range contains
// sqrtPrice (closed interval on both ends).
func (p *Pool) liquidityAt(sqrtPrice float64) float64 {
	var liquidity float64
	for _, position := range p.Positions {
		if position.IsActive(sqrtPrice) {
			liquidity += position.Liquidity
		}
	}
	return liquidity
}

// motionIsDown reports whether the given (direction, token) combination
// moves price down: requesting token1 as output, or supplying token0 as
// input, both drain token1 from the pool and push price down.
func (p *Pool) motionIsDown(direction SwapDirection, token AccountId) bool {
	switch direction {
	case SwapExpense:
		return token == p.Token1
	case SwapReturn:
		return token == p.Token0
	default:
		return false
	}
}

// nearestBoundary finds the closest position boundary strictly beyond
// sqrtPrice in the direction of motion. It is used both to detect whether a
// zero-liquidity gap can ever be crossed and, when it can, to fast-forward
// straight to the position that will reactivate liquidity.
func (p *Pool) nearestBoundary(sqrtPrice float64, down bool) (float64, bool) {
	found := false
	var best float64
	for _, position := range p.Positions {
		if down {
			if position.SqrtUpper < sqrtPrice && (!found || position.SqrtUpper > best) {
				best, found = position.SqrtUpper, true
			}
		} else {
			if position.SqrtLower > sqrtPrice && (!found || position.SqrtLower < best) {
				best, found = position.SqrtLower, true
			}
		}
	}
	return best, found
}

// collectFees attributes stepAmount's reward share, pro-rata by liquidity,
// to every position active at the pre-step price.
func (p *Pool) collectFees(tickLiquidity, sqrtPrice, amount float64, fees map[AccountId]float64) {
	if tickLiquidity == 0 || p.RewardsBp == 0 {
		return
	}
	rewardsFraction := float64(p.RewardsBp) / 10000.0
	for _, position := range p.Positions {
		if position.IsActive(sqrtPrice) {
			share := (position.Liquidity / tickLiquidity) * amount * rewardsFraction
			fees[position.Owner] += share
		}
	}
}

// stepExpense advances at most one tick in the Expense direction (token is
// the desired output asset), returning the input amount consumed by the
// step. A partial step (one that would exceed remaining) solves for the
// exact sqrt-price that consumes remaining and does not advance tick.
func (p *Pool) stepExpense(tick int, price float64, tokenOut AccountId, remaining, liquidity float64) (amountIn float64, newTick int, newPrice float64, newRemaining float64) {
	if tokenOut == p.Token1 {
		// output is token1: price moves down.
		newTick = tick - 1
		newPrice = tickmath.TickToSqrtPrice(newTick)
		amountIn = (1/newPrice - 1/price) * liquidity
		amountOut := (newPrice - price) * liquidity
		if -amountOut > remaining {
			deltaSqrtPrice := remaining / liquidity
			newPrice = price - deltaSqrtPrice
			amountIn = (1/newPrice - 1/price) * liquidity
			newRemaining = 0
			newTick = tick
		} else {
			newRemaining = remaining + amountOut
		}
	} else {
		// output is token0: price moves up.
		newTick = tick + 1
		newPrice = tickmath.TickToSqrtPrice(newTick)
		amountIn = (newPrice - price) * liquidity
		amountOut := (1/newPrice - 1/price) * liquidity
		if -amountOut > remaining {
			deltaReversedSqrtPrice := remaining / liquidity
			newPrice = price / (1 - deltaReversedSqrtPrice*price)
			amountIn = (newPrice - price) * liquidity
			newRemaining = 0
			newTick = tick
		} else {
			newRemaining = remaining + amountOut
		}
	}
	return math.Abs(amountIn), newTick, newPrice, newRemaining
}

// stepReturn advances at most one tick in the Return direction (token is
// the supplied input asset), returning the output amount produced by the
// step. A partial step solves for the exact sqrt-price that consumes
// remaining and does not advance tick.
func (p *Pool) stepReturn(tick int, price float64, tokenIn AccountId, remaining, liquidity float64) (amountOut float64, newTick int, newPrice float64, newRemaining float64) {
	if tokenIn == p.Token1 {
		// input is token1: price moves up.
		newTick = tick + 1
		newPrice = tickmath.TickToSqrtPrice(newTick)
		amountOut = (1/newPrice - 1/price) * liquidity
		amountIn := (newPrice - price) * liquidity
		if amountIn > remaining {
			deltaSqrtPrice := remaining / liquidity
			newPrice = price + deltaSqrtPrice
			amountOut = (1/newPrice - 1/price) * liquidity
			newRemaining = 0
			newTick = tick
		} else {
			newRemaining = remaining - amountIn
		}
	} else {
		// input is token0: price moves down.
		newTick = tick - 1
		newPrice = tickmath.TickToSqrtPrice(newTick)
		amountOut = (newPrice - price) * liquidity
		amountIn := (1/newPrice - 1/price) * liquidity
		if amountIn > remaining {
			deltaReversedSqrtPrice := remaining / liquidity
			newPrice = price / (deltaReversedSqrtPrice*price + 1.0)
			amountOut = (newPrice - price) * liquidity
			newRemaining = 0
			newTick = tick
		} else {
			newRemaining = remaining - amountIn
		}
	}
	return math.Abs(amountOut), newTick, newPrice, newRemaining
}
