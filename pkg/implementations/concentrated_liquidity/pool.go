// Package concentrated_liquidity adapts the pkg/clamm swap engine to the
// toolkit's mechanism-agnostic strategy/backtest framework, so a
// concentrated-liquidity pool can sit inside a strategy.Portfolio exactly
// like the other mechanism implementations in this module.
package concentrated_liquidity

import (
	"context"
	"errors"
	"fmt"

	"github.com/johnayoung/clamm-engine/pkg/clamm"
	"github.com/johnayoung/clamm-engine/pkg/clamm/tickmath"
	"github.com/johnayoung/clamm-engine/pkg/mechanisms"
	"github.com/johnayoung/clamm-engine/pkg/primitives"
	"github.com/johnayoung/clamm-engine/pkg/strategy"
)

var (
	// ErrInvalidPoolParams is returned when pool parameters are invalid.
	ErrInvalidPoolParams = errors.New("invalid pool parameters")

	// ErrAmbiguousDeposit is returned when AddLiquidity is given both or
	// neither of AmountA/AmountB; the underlying engine requires exactly one
	// side for a one-sided deposit (see pkg/clamm.NewPosition).
	ErrAmbiguousDeposit = errors.New("exactly one of AmountA/AmountB must be positive")

	// ErrPositionIndexMissing is returned when a PoolPosition's Metadata
	// does not carry a "position_index" entry this package produced.
	ErrPositionIndexMissing = errors.New("position_index required in position metadata")
)

// Pool wraps a pkg/clamm.Pool, implementing mechanisms.LiquidityPool and
// mechanisms.MarketMechanism so it can be driven by pkg/strategy and
// pkg/backtest like any other mechanism in this module.
//
// The mechanisms.LiquidityPool.AddLiquidity signature carries only token
// amounts, with no room for a price range, so one-sided deposits through
// that interface always land in [DefaultLowerPrice, DefaultUpperPrice].
// A position with a bespoke range is opened through Core(), which exposes
// the underlying pkg/clamm.Pool and its OpenPosition method.
type Pool struct {
	poolID string
	core   *clamm.Pool

	DefaultLowerPrice float64
	DefaultUpperPrice float64
}

// NewPool creates a concentrated-liquidity pool adapter over a fresh
// pkg/clamm.Pool. defaultLower/defaultUpper bound the range used by
// AddLiquidity for interface-driven, one-sided deposits.
func NewPool(
	poolID string,
	token0, token1 clamm.AccountId,
	price float64,
	protocolFeeBp, rewardsBp uint16,
	defaultLower, defaultUpper float64,
) (*Pool, error) {
	if poolID == "" {
		return nil, fmt.Errorf("%w: poolID cannot be empty", ErrInvalidPoolParams)
	}
	if defaultLower >= defaultUpper {
		return nil, fmt.Errorf("%w: defaultLower must be below defaultUpper", ErrInvalidPoolParams)
	}
	return &Pool{
		poolID:            poolID,
		core:              clamm.NewPool(token0, token1, price, protocolFeeBp, rewardsBp),
		DefaultLowerPrice: defaultLower,
		DefaultUpperPrice: defaultUpper,
	}, nil
}

// Core exposes the underlying pkg/clamm.Pool for callers that need the
// native swap-engine API (GetSwapResult, OpenPosition with a bespoke range,
// ApplySwapResult, and so on).
func (p *Pool) Core() *clamm.Pool {
	return p.core
}

// Mechanism returns the mechanism type identifier.
func (p *Pool) Mechanism() mechanisms.MechanismType {
	return mechanisms.MechanismTypeLiquidityPool
}

// Venue returns the venue identifier for this mechanism.
func (p *Pool) Venue() string {
	return "clamm"
}

func (p *Pool) pairName() string {
	return fmt.Sprintf("%s/%s", p.core.Token0, p.core.Token1)
}

// Calculate reports the pool's current state without mutating it.
func (p *Pool) Calculate(ctx context.Context, params mechanisms.PoolParams) (mechanisms.PoolState, error) {
	sqrtPrice := p.core.GetSqrtPrice()
	price := sqrtPrice * sqrtPrice

	spotPrice, err := primitives.NewPrice(primitives.NewDecimalFromFloat(price))
	if err != nil {
		return mechanisms.PoolState{}, fmt.Errorf("invalid spot price: %w", err)
	}
	liquidity, err := primitives.NewAmount(primitives.NewDecimalFromFloat(p.core.Liquidity))
	if err != nil {
		return mechanisms.PoolState{}, fmt.Errorf("invalid liquidity: %w", err)
	}

	return mechanisms.PoolState{
		SpotPrice:          spotPrice,
		Liquidity:          liquidity,
		EffectiveLiquidity: liquidity,
		AccumulatedFeesA:   primitives.ZeroAmount(),
		AccumulatedFeesB:   primitives.ZeroAmount(),
		Metadata: map[string]interface{}{
			"sqrt_price": sqrtPrice,
			"tick":       p.core.Tick,
		},
	}, nil
}

// AddLiquidity opens a one-sided position in [DefaultLowerPrice,
// DefaultUpperPrice], funded by whichever of amounts.AmountA/AmountB is
// positive (exactly one must be). The returned PoolPosition carries the
// position's index in the pool's sequence in Metadata["position_index"],
// which RemoveLiquidity requires back.
func (p *Pool) AddLiquidity(ctx context.Context, amounts mechanisms.TokenAmounts) (mechanisms.PoolPosition, error) {
	aPositive := !amounts.AmountA.IsZero()
	bPositive := !amounts.AmountB.IsZero()
	if aPositive == bPositive {
		return mechanisms.PoolPosition{}, ErrAmbiguousDeposit
	}

	var token0Amount, token1Amount *float64
	if aPositive {
		v := amounts.AmountA.Decimal().Float64()
		token0Amount = &v
	} else {
		v := amounts.AmountB.Decimal().Float64()
		token1Amount = &v
	}

	owner := clamm.AccountId(p.poolID)
	position, err := clamm.NewPosition(owner, token0Amount, token1Amount, p.DefaultLowerPrice, p.DefaultUpperPrice, p.core.GetSqrtPrice())
	if err != nil {
		return mechanisms.PoolPosition{}, fmt.Errorf("open position: %w", err)
	}
	p.core.OpenPosition(position)
	index := len(p.core.Positions) - 1

	liquidityAmount, err := primitives.NewAmount(primitives.NewDecimalFromFloat(position.Liquidity))
	if err != nil {
		return mechanisms.PoolPosition{}, fmt.Errorf("invalid liquidity: %w", err)
	}
	amountA, err := primitives.NewAmount(primitives.NewDecimalFromFloat(position.Token0Locked))
	if err != nil {
		return mechanisms.PoolPosition{}, fmt.Errorf("invalid token0 locked: %w", err)
	}
	amountB, err := primitives.NewAmount(primitives.NewDecimalFromFloat(position.Token1Locked))
	if err != nil {
		return mechanisms.PoolPosition{}, fmt.Errorf("invalid token1 locked: %w", err)
	}

	return mechanisms.PoolPosition{
		PoolID:    p.poolID,
		Liquidity: liquidityAmount,
		TokensDeposited: mechanisms.TokenAmounts{
			AmountA: amountA,
			AmountB: amountB,
		},
		Metadata: map[string]interface{}{
			"position_index": index,
			"owner":          string(owner),
			"tick_lower":     position.TickLower,
			"tick_upper":     position.TickUpper,
		},
	}, nil
}

// RemoveLiquidity closes the position identified by
// position.Metadata["position_index"] and returns the token amounts it
// released at the pool's current price.
func (p *Pool) RemoveLiquidity(ctx context.Context, position mechanisms.PoolPosition) (mechanisms.TokenAmounts, error) {
	index, ok := position.Metadata["position_index"].(int)
	if !ok {
		return mechanisms.TokenAmounts{}, ErrPositionIndexMissing
	}
	if index < 0 || index >= len(p.core.Positions) {
		return mechanisms.TokenAmounts{}, clamm.ErrPositionNotFound
	}
	held := p.core.Positions[index]

	sqrtPrice := p.core.GetSqrtPrice()
	amount0 := tickmath.AmountX(held.Liquidity, sqrtPrice, held.SqrtLower, held.SqrtUpper)
	amount1 := tickmath.AmountY(held.Liquidity, sqrtPrice, held.SqrtLower, held.SqrtUpper)

	if err := p.core.ClosePosition(index); err != nil {
		return mechanisms.TokenAmounts{}, fmt.Errorf("close position: %w", err)
	}

	amountA, err := primitives.NewAmount(primitives.NewDecimalFromFloat(amount0))
	if err != nil {
		return mechanisms.TokenAmounts{}, fmt.Errorf("invalid amount0: %w", err)
	}
	amountB, err := primitives.NewAmount(primitives.NewDecimalFromFloat(amount1))
	if err != nil {
		return mechanisms.TokenAmounts{}, fmt.Errorf("invalid amount1: %w", err)
	}

	return mechanisms.TokenAmounts{AmountA: amountA, AmountB: amountB}, nil
}

// LPPosition adapts a pkg/clamm.Position, plus the pool it lives in, into
// strategy.Position/PositionMetadata so it can be held in a
// strategy.Portfolio and valued against a market snapshot.
type LPPosition struct {
	pool     *Pool
	position *clamm.Position
	index    int
}

// NewLPPosition wraps position (at the given index within pool's sequence)
// for use in a strategy.Portfolio.
func NewLPPosition(pool *Pool, position *clamm.Position, index int) *LPPosition {
	return &LPPosition{pool: pool, position: position, index: index}
}

// ID returns a unique identifier for this position.
func (lp *LPPosition) ID() string {
	return fmt.Sprintf("clamm:%s:%d", lp.pool.poolID, lp.index)
}

// Type returns the position type classification.
func (lp *LPPosition) Type() strategy.PositionType {
	return strategy.PositionTypeLiquidityPool
}

// Value reports the position's current worth in token1 units, using the
// pool's current sqrt-price rather than the snapshot (the pool is its own
// price source; the snapshot's pair price is used only to convert into the
// portfolio's denomination currency if the pair is available).
func (lp *LPPosition) Value(snapshot strategy.MarketSnapshot) (primitives.Amount, error) {
	sqrtPrice := lp.pool.core.GetSqrtPrice()
	token0Amount := tickmath.AmountX(lp.position.Liquidity, sqrtPrice, lp.position.SqrtLower, lp.position.SqrtUpper)
	token1Amount := tickmath.AmountY(lp.position.Liquidity, sqrtPrice, lp.position.SqrtLower, lp.position.SqrtUpper)

	price, err := snapshot.Price(lp.pool.pairName())
	if err != nil {
		// Fall back to the pool's own marginal price (token0 in token1
		// units) when the snapshot carries no quote for this pair.
		price = primitives.MustPrice(primitives.NewDecimalFromFloat(sqrtPrice * sqrtPrice))
	}

	valueToken0 := primitives.MustAmount(primitives.NewDecimalFromFloat(token0Amount)).MulPrice(price)
	valueToken1 := primitives.MustAmount(primitives.NewDecimalFromFloat(token1Amount))
	return valueToken0.Add(valueToken1), nil
}

// Description returns a human-readable summary of the position.
func (lp *LPPosition) Description() string {
	return fmt.Sprintf("%s LP [%.4g, %.4g]", lp.pool.pairName(), lp.position.SqrtLower*lp.position.SqrtLower, lp.position.SqrtUpper*lp.position.SqrtUpper)
}

// Venue returns the venue/protocol where this position exists.
func (lp *LPPosition) Venue() string {
	return "clamm"
}
