package clamm_test

import (
	"math"
	"testing"

	"github.com/johnayoung/clamm-engine/pkg/clamm"
	"github.com/johnayoung/clamm-engine/pkg/clamm/tickmath"
)

func amt(v float64) *float64 { return &v }

func TestNewPositionFromToken0(t *testing.T) {
	pos, err := clamm.NewPosition("alice", amt(50), nil, 1, 10000, 7)
	if err != nil {
		t.Fatalf("NewPosition: %v", err)
	}
	// Prices [1, 10000] snap onto ticks 0 and 92108; the upper sqrt-price
	// bound is the grid point just below 100.
	if pos.TickLower != 0 || pos.TickUpper != 92108 {
		t.Errorf("ticks = [%v, %v], want [0, 92108]", pos.TickLower, pos.TickUpper)
	}
	wantUpper := tickmath.TickToSqrtPrice(92108)
	if pos.SqrtLower != 1 || pos.SqrtUpper != wantUpper {
		t.Errorf("bounds = [%v, %v], want [1, %v]", pos.SqrtLower, pos.SqrtUpper, wantUpper)
	}
	wantL := tickmath.LiquidityFromToken0(50, 7, wantUpper)
	if math.Abs(pos.Liquidity-wantL) > 1e-9 {
		t.Errorf("Liquidity = %v, want %v", pos.Liquidity, wantL)
	}
	if !pos.IsActiveFlag {
		t.Error("position should be active at construction sqrt-price")
	}
}

func TestNewPositionFromToken1(t *testing.T) {
	pos, err := clamm.NewPosition("user.near", nil, amt(50), 1, 10000, 7)
	if err != nil {
		t.Fatalf("NewPosition: %v", err)
	}
	wantL := tickmath.LiquidityFromToken1(50, 1, 7)
	if math.Abs(pos.Liquidity-wantL) > 1e-9 {
		t.Errorf("Liquidity = %v, want %v", pos.Liquidity, wantL)
	}
}

func TestNewPositionRejectsBothOrNeitherAmount(t *testing.T) {
	if _, err := clamm.NewPosition("alice", amt(1), amt(1), 1, 100, 5); err != clamm.ErrIncorrectToken {
		t.Errorf("both amounts: err = %v, want ErrIncorrectToken", err)
	}
	if _, err := clamm.NewPosition("alice", nil, nil, 1, 100, 5); err != clamm.ErrIncorrectToken {
		t.Errorf("neither amount: err = %v, want ErrIncorrectToken", err)
	}
}

func TestNewPositionRejectsNonPositiveAmount(t *testing.T) {
	if _, err := clamm.NewPosition("alice", amt(0), nil, 1, 100, 5); err != clamm.ErrNonPositiveAmount {
		t.Errorf("zero amount: err = %v, want ErrNonPositiveAmount", err)
	}
}

func TestNewPositionRejectsInvalidRange(t *testing.T) {
	if _, err := clamm.NewPosition("alice", amt(1), nil, 100, 100, 10); err != clamm.ErrInvalidRange {
		t.Errorf("equal bounds: err = %v, want ErrInvalidRange", err)
	}
}

func TestNewPositionWrongSideToken0AboveRange(t *testing.T) {
	// sqrt_price = 13 is above sqrt(144) = 12: token0 would be the wrong
	// side, the caller should have supplied token1 instead.
	_, err := clamm.NewPosition("alice", amt(1), nil, 121, 144, 13)
	if err != clamm.ErrWrongSide {
		t.Errorf("err = %v, want ErrWrongSide", err)
	}
}

func TestNewPositionWrongSideToken1BelowRange(t *testing.T) {
	_, err := clamm.NewPosition("alice", nil, amt(1), 121, 144, 10)
	if err != clamm.ErrWrongSide {
		t.Errorf("err = %v, want ErrWrongSide", err)
	}
}

func TestIsActiveClosedInterval(t *testing.T) {
	pos, err := clamm.NewPosition("alice", amt(50), nil, 1, 10000, 7)
	if err != nil {
		t.Fatalf("NewPosition: %v", err)
	}
	if !pos.IsActive(pos.SqrtLower) {
		t.Error("lower bound should be active (closed interval)")
	}
	if !pos.IsActive(pos.SqrtUpper) {
		t.Error("upper bound should be active (closed interval)")
	}
	if pos.IsActive(pos.SqrtLower - 1) {
		t.Error("below lower bound should not be active")
	}
	if pos.IsActive(pos.SqrtUpper + 1) {
		t.Error("above upper bound should not be active")
	}
}

func TestAddLiquidityRecomputesBothSides(t *testing.T) {
	pos, err := clamm.NewPosition("alice", amt(50), nil, 1, 10000, 7)
	if err != nil {
		t.Fatalf("NewPosition: %v", err)
	}
	prevL := pos.Liquidity
	if err := pos.AddLiquidity(amt(10), nil, 7); err != nil {
		t.Fatalf("AddLiquidity: %v", err)
	}
	if pos.Liquidity <= prevL {
		t.Errorf("Liquidity did not increase: before=%v after=%v", prevL, pos.Liquidity)
	}
	wantY := tickmath.AmountY(pos.Liquidity, 7, pos.SqrtLower, pos.SqrtUpper)
	if math.Abs(pos.Token1Locked-wantY) > 1e-9 {
		t.Errorf("Token1Locked = %v, want %v", pos.Token1Locked, wantY)
	}
}

func TestRemoveLiquidityRejectsNonPositiveRemainder(t *testing.T) {
	pos, err := clamm.NewPosition("alice", amt(50), nil, 1, 10000, 7)
	if err != nil {
		t.Fatalf("NewPosition: %v", err)
	}
	if err := pos.RemoveLiquidity(amt(50), nil, 7); err != clamm.ErrNonPositiveAmount {
		t.Errorf("err = %v, want ErrNonPositiveAmount", err)
	}
}

func TestRemoveLiquidityThenAddLiquidityRoundTrips(t *testing.T) {
	pos, err := clamm.NewPosition("alice", amt(50), nil, 1, 10000, 7)
	if err != nil {
		t.Fatalf("NewPosition: %v", err)
	}
	initialL := pos.Liquidity
	if err := pos.RemoveLiquidity(amt(10), nil, 7); err != nil {
		t.Fatalf("RemoveLiquidity: %v", err)
	}
	if err := pos.AddLiquidity(amt(10), nil, 7); err != nil {
		t.Fatalf("AddLiquidity: %v", err)
	}
	if math.Abs(pos.Liquidity-initialL) > 1e-9 {
		t.Errorf("Liquidity after remove+add = %v, want %v", pos.Liquidity, initialL)
	}
}

func TestRefreshAccruesTimeWhileActive(t *testing.T) {
	pos, err := clamm.NewPosition("alice", amt(50), nil, 1, 10000, 7)
	if err != nil {
		t.Fatalf("NewPosition: %v", err)
	}
	pos.Refresh(7, 100)
	if pos.RewardsForTime != 100 {
		t.Errorf("RewardsForTime = %v, want 100", pos.RewardsForTime)
	}
	pos.Refresh(7, 150)
	if pos.RewardsForTime != 150 {
		t.Errorf("RewardsForTime = %v, want 150", pos.RewardsForTime)
	}
}

func TestRefreshDoesNotAccrueWhileInactive(t *testing.T) {
	pos, err := clamm.NewPosition("alice", amt(50), nil, 1, 10000, 7)
	if err != nil {
		t.Fatalf("NewPosition: %v", err)
	}
	// Move outside the range: the refresh at t=50 still accrues 0..50, when
	// the position was active, and then marks it inactive, so the refresh at
	// t=100 adds nothing even though time has passed.
	pos.Refresh(200, 50)
	if pos.IsActiveFlag {
		t.Fatal("position should be inactive above its range")
	}
	pos.Refresh(200, 100)
	if pos.RewardsForTime != 50 {
		t.Errorf("RewardsForTime = %v, want 50 (no accrual for the inactive interval 50..100)", pos.RewardsForTime)
	}
}

func TestRefreshLockedAmountsMatchAmountHelpers(t *testing.T) {
	pos, err := clamm.NewPosition("alice", amt(50), nil, 1, 10000, 7)
	if err != nil {
		t.Fatalf("NewPosition: %v", err)
	}
	pos.Refresh(9, 10)
	wantX := tickmath.AmountX(pos.Liquidity, 9, pos.SqrtLower, pos.SqrtUpper)
	wantY := tickmath.AmountY(pos.Liquidity, 9, pos.SqrtLower, pos.SqrtUpper)
	if math.Abs(pos.Token0Locked-wantX) > 1e-9 {
		t.Errorf("Token0Locked = %v, want %v", pos.Token0Locked, wantX)
	}
	if math.Abs(pos.Token1Locked-wantY) > 1e-9 {
		t.Errorf("Token1Locked = %v, want %v", pos.Token1Locked, wantY)
	}
}
