package clamm_test

import (
	"math"
	"testing"

	"github.com/johnayoung/clamm-engine/pkg/clamm"
	"github.com/johnayoung/clamm-engine/pkg/clamm/tickmath"
)

func mustPosition(t *testing.T, owner clamm.AccountId, token0, token1 *float64, lower, upper, sqrtPrice float64) *clamm.Position {
	t.Helper()
	pos, err := clamm.NewPosition(owner, token0, token1, lower, upper, sqrtPrice)
	if err != nil {
		t.Fatalf("NewPosition: %v", err)
	}
	return pos
}

// Scenario 1: token0=A, token1=B, initial price=49, fees=0; a single
// position with x=50 over [1, 10000] at sqrt-price 7. Requesting 10 units
// of A as Expense output requires 601 units of B as input.
func TestGetSwapResultScenario1(t *testing.T) {
	pool := clamm.NewPool("A", "B", 49, 0, 0)
	pool.OpenPosition(mustPosition(t, "", amt(50), nil, 1, 10000, pool.GetSqrtPrice()))

	result, err := pool.GetSwapResult("A", 10, clamm.SwapExpense)
	if err != nil {
		t.Fatalf("GetSwapResult: %v", err)
	}
	if got := math.Floor(result.Amount); got != 601 {
		t.Errorf("amount.floor() = %v, want 601", got)
	}
	if got := math.Floor(result.NewSqrtPrice); got != 8 {
		t.Errorf("new_sqrt_price.floor() = %v, want 8", got)
	}
	if got := math.Floor(result.NewLiquidity); got != 376 {
		t.Errorf("new_liquidity.floor() = %v, want 376", got)
	}
}

// Scenario 2: same pool, requesting B (token1) as Expense output moves
// price down; 10 units of B against liquidity ~376 moves sqrt-price only
// slightly below 7, so the token0 input required is below 1.
func TestGetSwapResultScenario2(t *testing.T) {
	pool := clamm.NewPool("A", "B", 49, 0, 0)
	pool.OpenPosition(mustPosition(t, "", amt(50), nil, 1, 10000, pool.GetSqrtPrice()))

	result, err := pool.GetSwapResult("B", 10, clamm.SwapExpense)
	if err != nil {
		t.Fatalf("GetSwapResult: %v", err)
	}
	if got := math.Floor(result.Amount); got != 0 {
		t.Errorf("amount.floor() = %v, want 0", got)
	}
	if got := math.Floor(result.NewSqrtPrice); got != 6 {
		t.Errorf("new_sqrt_price.floor() = %v, want 6", got)
	}
}

// Scenario 3: pool at price 100, position x=50 over [1, 10000] at
// sqrt-price 10; supplying 1 unit of A as Return input produces 98 of B.
func TestGetSwapResultScenario3(t *testing.T) {
	pool := clamm.NewPool("A", "B", 100, 0, 0)
	pool.OpenPosition(mustPosition(t, "", amt(50), nil, 1, 10000, pool.GetSqrtPrice()))

	result, err := pool.GetSwapResult("A", 1, clamm.SwapReturn)
	if err != nil {
		t.Fatalf("GetSwapResult: %v", err)
	}
	if got := math.Floor(result.Amount); got != 98 {
		t.Errorf("amount.floor() = %v, want 98", got)
	}
	if got := math.Floor(result.NewSqrtPrice); got != 9 {
		t.Errorf("new_sqrt_price.floor() = %v, want 9", got)
	}
}

// Scenario 4: same pool, supplying 1000 units of B as Return input.
func TestGetSwapResultScenario4(t *testing.T) {
	pool := clamm.NewPool("A", "B", 100, 0, 0)
	pool.OpenPosition(mustPosition(t, "", amt(50), nil, 1, 10000, pool.GetSqrtPrice()))

	result, err := pool.GetSwapResult("B", 1000, clamm.SwapReturn)
	if err != nil {
		t.Fatalf("GetSwapResult: %v", err)
	}
	if got := math.Floor(result.Amount); got != 8 {
		t.Errorf("amount.floor() = %v, want 8", got)
	}
	if got := math.Floor(result.NewSqrtPrice); got != 11 {
		t.Errorf("new_sqrt_price.floor() = %v, want 11", got)
	}
}

// Scenario 5: fee attribution. A single position spanning the whole
// traversed path collects the full rewards_bp share of the swap amount.
func TestGetSwapResultFeeAttribution(t *testing.T) {
	pool := clamm.NewPool("A", "B", 49, 100, 100)
	pool.OpenPosition(mustPosition(t, "user.near", nil, amt(50), 1, 10000, pool.GetSqrtPrice()))

	result, err := pool.GetSwapResult("B", 10, clamm.SwapExpense)
	if err != nil {
		t.Fatalf("GetSwapResult: %v", err)
	}
	want := result.Amount / 100
	got := result.CollectedFees["user.near"]
	if math.Abs(got-want) > 1e-5 {
		t.Errorf("collected_fees[\"user.near\"] = %v, want %v", got, want)
	}
}

// Scenario 6: many overlapping positions; large swaps in both directions
// must complete without running out of liquidity.
func TestGetSwapResultManyPositions(t *testing.T) {
	pool := clamm.NewPool("A", "B", 100, 0, 0)
	for i := 1; i <= 99; i++ {
		x := float64(i) * 100
		lower := float64(100 - i)
		upper := float64(100 + i)
		pool.OpenPosition(mustPosition(t, clamm.AccountId("lp"), amt(x), nil, lower, upper, pool.GetSqrtPrice()))
	}

	if _, err := pool.GetSwapResult("A", 1_000_000, clamm.SwapReturn); err != nil {
		t.Errorf("GetSwapResult(A, Return): %v", err)
	}
	if _, err := pool.GetSwapResult("B", 1_000_000, clamm.SwapExpense); err != nil {
		t.Errorf("GetSwapResult(B, Expense): %v", err)
	}
}

// Scenario 7: an empty pool can never satisfy any positive-amount swap.
func TestGetSwapResultEmptyPoolFails(t *testing.T) {
	pool := clamm.NewPool("A", "B", 49, 0, 0)

	if _, err := pool.GetSwapResult("A", 10, clamm.SwapExpense); err != clamm.ErrInsufficientLiquidity {
		t.Errorf("err = %v, want ErrInsufficientLiquidity", err)
	}
	if _, err := pool.GetSwapResult("B", 10, clamm.SwapReturn); err != clamm.ErrInsufficientLiquidity {
		t.Errorf("err = %v, want ErrInsufficientLiquidity", err)
	}
}

func TestOpenCloseRoundTripsLiquidity(t *testing.T) {
	pool := clamm.NewPool("A", "B", 49, 0, 0)
	before := pool.Liquidity
	pos := mustPosition(t, "alice", amt(50), nil, 1, 10000, pool.GetSqrtPrice())
	pool.OpenPosition(pos)
	if pool.Liquidity == before {
		t.Fatal("OpenPosition should have increased cached liquidity")
	}
	if err := pool.ClosePosition(0); err != nil {
		t.Fatalf("ClosePosition: %v", err)
	}
	if pool.Liquidity != before {
		t.Errorf("Liquidity after close = %v, want %v", pool.Liquidity, before)
	}
	if len(pool.Positions) != 0 {
		t.Errorf("len(Positions) = %v, want 0", len(pool.Positions))
	}
}

func TestClosePositionOutOfRange(t *testing.T) {
	pool := clamm.NewPool("A", "B", 49, 0, 0)
	if err := pool.ClosePosition(0); err != clamm.ErrPositionNotFound {
		t.Errorf("err = %v, want ErrPositionNotFound", err)
	}
}

func TestApplySwapResultTransitionsToReportedPrice(t *testing.T) {
	pool := clamm.NewPool("A", "B", 49, 0, 0)
	pool.OpenPosition(mustPosition(t, "alice", amt(50), nil, 1, 10000, pool.GetSqrtPrice()))

	result, err := pool.GetSwapResult("A", 10, clamm.SwapExpense)
	if err != nil {
		t.Fatalf("GetSwapResult: %v", err)
	}
	pool.ApplySwapResult(&result)

	if pool.SqrtPrice != result.NewSqrtPrice {
		t.Errorf("SqrtPrice = %v, want %v", pool.SqrtPrice, result.NewSqrtPrice)
	}
	if pool.Liquidity != result.NewLiquidity {
		t.Errorf("Liquidity = %v, want %v", pool.Liquidity, result.NewLiquidity)
	}
	if pool.Tick != tickmath.SqrtPriceToTick(pool.SqrtPrice) {
		t.Errorf("Tick = %v, want %v (invariant 1)", pool.Tick, tickmath.SqrtPriceToTick(pool.SqrtPrice))
	}
}

func TestRefreshLiquidityMatchesActivePositionSum(t *testing.T) {
	pool := clamm.NewPool("A", "B", 100, 0, 0)
	pool.OpenPosition(mustPosition(t, "alice", amt(50), nil, 1, 10000, pool.GetSqrtPrice()))
	pool.OpenPosition(mustPosition(t, "bob", amt(30), nil, 50, 200, pool.GetSqrtPrice()))

	pool.RefreshLiquidity()

	var want float64
	for _, p := range pool.Positions {
		if p.IsActive(pool.SqrtPrice) {
			want += p.Liquidity
		}
	}
	if pool.Liquidity != want {
		t.Errorf("Liquidity = %v, want %v", pool.Liquidity, want)
	}
	if pool.Tick != tickmath.SqrtPriceToTick(pool.SqrtPrice) {
		t.Errorf("Tick = %v, want %v (invariant 1)", pool.Tick, tickmath.SqrtPriceToTick(pool.SqrtPrice))
	}
}

func TestGetSwapResultDoesNotMutatePool(t *testing.T) {
	pool := clamm.NewPool("A", "B", 49, 0, 0)
	pool.OpenPosition(mustPosition(t, "alice", amt(50), nil, 1, 10000, pool.GetSqrtPrice()))

	sqrtBefore := pool.SqrtPrice
	liquidityBefore := pool.Liquidity

	if _, err := pool.GetSwapResult("A", 10, clamm.SwapExpense); err != nil {
		t.Fatalf("GetSwapResult: %v", err)
	}

	if pool.SqrtPrice != sqrtBefore {
		t.Errorf("SqrtPrice mutated by dry-run: %v != %v", pool.SqrtPrice, sqrtBefore)
	}
	if pool.Liquidity != liquidityBefore {
		t.Errorf("Liquidity mutated by dry-run: %v != %v", pool.Liquidity, liquidityBefore)
	}
}

func TestZeroLiquidityGapFastForwards(t *testing.T) {
	// Two positions separated by a dry gap: sqrt-price ranges [1, 5] and
	// [10, 100] (prices [1, 25] and [100, 10000]). Starting
	// inside the gap with no active position, supplying token1 as Return
	// input moves price up and must fast-forward across the gap into the
	// second position rather than failing outright.
	pool := clamm.NewPool("A", "B", 49, 0, 0) // sqrt_price = 7, inside the gap
	pool.OpenPosition(mustPosition(t, "alice", nil, amt(10), 1, 25, 3))
	pool.OpenPosition(mustPosition(t, "bob", amt(50), nil, 100, 10000, 50))

	if pool.Liquidity != 0 {
		t.Fatalf("pool should start with zero active liquidity at sqrt_price=7, got %v", pool.Liquidity)
	}

	result, err := pool.GetSwapResult("B", 1, clamm.SwapReturn)
	if err != nil {
		t.Fatalf("GetSwapResult across dry gap: %v", err)
	}
	if result.NewSqrtPrice <= pool.SqrtPrice {
		t.Errorf("price should move up across the gap, got new_sqrt_price=%v from %v", result.NewSqrtPrice, pool.SqrtPrice)
	}
}
