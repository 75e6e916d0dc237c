package math

import (
	"errors"
	"math/big"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/solpods/whirlpool-go/whirlpool/shared"
)

func TestSqrtPriceFromTickIndexAnchors(t *testing.T) {
	tests := []struct {
		tick int32
		want *big.Int
	}{
		{0, shared.OneQ64},
		{1, mustBig("18447666387855959850")},
		{-1, mustBig("18445821805675395072")},
		{shared.MinTickIndex, shared.MinSqrtPrice},
		{shared.MaxTickIndex, shared.MaxSqrtPrice},
	}
	for _, tt := range tests {
		got, err := SqrtPriceFromTickIndex(tt.tick)
		if err != nil {
			t.Fatalf("SqrtPriceFromTickIndex(%d) fail %v", tt.tick, err)
		}
		if got.Cmp(tt.want) != 0 {
			t.Fatalf("SqrtPriceFromTickIndex(%d) = %s, want %s", tt.tick, got, tt.want)
		}
	}
}

func TestSqrtPriceFromTickIndexOutOfBounds(t *testing.T) {
	if _, err := SqrtPriceFromTickIndex(shared.MaxTickIndex + 1); !errors.Is(err, shared.ErrTickIndexOutOfBounds) {
		t.Fatalf("err = %v, want ErrTickIndexOutOfBounds", err)
	}
	if _, err := SqrtPriceFromTickIndex(shared.MinTickIndex - 1); !errors.Is(err, shared.ErrTickIndexOutOfBounds) {
		t.Fatalf("err = %v, want ErrTickIndexOutOfBounds", err)
	}
}

func TestSqrtPriceFromTickIndexMonotonic(t *testing.T) {
	ticks := []int32{
		shared.MinTickIndex, -443635, -100000, -39823, -6932, -128, -1,
		0, 1, 128, 6932, 39823, 100000, 443635, shared.MaxTickIndex,
	}
	prev, _ := SqrtPriceFromTickIndex(ticks[0])
	for _, tick := range ticks[1:] {
		cur, err := SqrtPriceFromTickIndex(tick)
		if err != nil {
			t.Fatalf("SqrtPriceFromTickIndex(%d) fail %v", tick, err)
		}
		if cur.Cmp(prev) <= 0 {
			t.Fatalf("sqrt price not increasing at tick %d", tick)
		}
		prev = cur
	}
}

func TestTickIndexFromSqrtPriceRoundTrip(t *testing.T) {
	ticks := []int32{
		shared.MinTickIndex, -443635, -250000, -100001, -39823, -6932,
		-5632, -129, -64, -1, 0, 1, 64, 129, 5632, 6932, 39823,
		100001, 250000, 443635, shared.MaxTickIndex,
	}
	for _, tick := range ticks {
		sqrtPrice, err := SqrtPriceFromTickIndex(tick)
		if err != nil {
			t.Fatalf("SqrtPriceFromTickIndex(%d) fail %v", tick, err)
		}
		got, err := TickIndexFromSqrtPrice(sqrtPrice)
		if err != nil {
			t.Fatalf("TickIndexFromSqrtPrice(tick %d) fail %v", tick, err)
		}
		if got != tick {
			t.Fatalf("round trip tick %d = %d", tick, got)
		}
	}
}

func TestTickIndexFromSqrtPriceBetweenTicks(t *testing.T) {
	// A price strictly between tick 100 and tick 101 floors to 100.
	p100, _ := SqrtPriceFromTickIndex(100)
	p101, _ := SqrtPriceFromTickIndex(101)
	mid := new(big.Int).Add(p100, p101)
	mid.Rsh(mid, 1)

	got, err := TickIndexFromSqrtPrice(mid)
	if err != nil {
		t.Fatal("TickIndexFromSqrtPrice() fail", err)
	}
	if got != 100 {
		t.Fatalf("TickIndexFromSqrtPrice(mid) = %d, want 100", got)
	}
}

func TestTickIndexFromSqrtPriceOutOfBounds(t *testing.T) {
	over := new(big.Int).Add(shared.MaxSqrtPrice, big.NewInt(1))
	if _, err := TickIndexFromSqrtPrice(over); !errors.Is(err, shared.ErrSqrtPriceOutOfBounds) {
		t.Fatalf("err = %v, want ErrSqrtPriceOutOfBounds", err)
	}
	under := new(big.Int).Sub(shared.MinSqrtPrice, big.NewInt(1))
	if _, err := TickIndexFromSqrtPrice(under); !errors.Is(err, shared.ErrSqrtPriceOutOfBounds) {
		t.Fatalf("err = %v, want ErrSqrtPriceOutOfBounds", err)
	}
}

func TestInvertSqrtPrice(t *testing.T) {
	// Price 1.0 is its own inverse.
	if got := InvertSqrtPrice(shared.OneQ64); got.Cmp(shared.OneQ64) != 0 {
		t.Fatalf("InvertSqrtPrice(1Q64) = %s, want %s", got, shared.OneQ64)
	}

	// sqrt price 2^65 (price 4) inverts to 2^63 (price 1/4), exactly.
	got := InvertSqrtPrice(new(big.Int).Lsh(big.NewInt(1), 65))
	want := new(big.Int).Lsh(big.NewInt(1), 63)
	if got.Cmp(want) != 0 {
		t.Fatalf("InvertSqrtPrice(2^65) = %s, want %s", got, want)
	}

	if got := InvertTickIndex(100); got != -100 {
		t.Fatalf("InvertTickIndex(100) = %d, want -100", got)
	}
}

func TestSqrtPriceToPrice(t *testing.T) {
	// sqrtPrice 2^64 is price 1.0 before decimal adjustment.
	price := SqrtPriceToPrice(shared.OneQ64, 9, 6)
	want := decimal.RequireFromString("1000")
	if !price.Equal(want) {
		t.Fatalf("SqrtPriceToPrice(1Q64, 9, 6) = %s, want %s", price, want)
	}

	price = SqrtPriceToPrice(new(big.Int).Lsh(big.NewInt(1), 65), 6, 6)
	if !price.Equal(decimal.RequireFromString("4")) {
		t.Fatalf("SqrtPriceToPrice(2Q64) = %s, want 4", price)
	}
}

func TestPriceToSqrtPriceRoundTrip(t *testing.T) {
	for _, tick := range []int32{-30000, -64, 0, 64, 30000} {
		sqrtPrice, _ := SqrtPriceFromTickIndex(tick)
		price := SqrtPriceToPrice(sqrtPrice, 6, 9)
		back := PriceToSqrtPrice(price, 6, 9)

		diff := new(big.Int).Sub(sqrtPrice, back)
		diff.Abs(diff)
		// Allow a sliver of float error: one part in 2^40.
		tolerance := new(big.Int).Rsh(sqrtPrice, 40)
		if diff.Cmp(tolerance) > 0 {
			t.Fatalf("tick %d: price round trip drifted by %s", tick, diff)
		}
	}
}
