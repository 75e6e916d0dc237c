package math

import (
	"errors"
	"math/big"
	"testing"

	"github.com/solpods/whirlpool-go/whirlpool/shared"
)

func TestMulDivRounding(t *testing.T) {
	tests := []struct {
		name     string
		a, b, d  int64
		rounding shared.Rounding
		want     int64
	}{
		{"exact", 10, 4, 8, shared.RoundingDown, 5},
		{"floor", 10, 3, 4, shared.RoundingDown, 7},
		{"ceil", 10, 3, 4, shared.RoundingUp, 8},
		{"ceil exact", 10, 4, 8, shared.RoundingUp, 5},
	}
	for _, tt := range tests {
		got, err := MulDiv(big.NewInt(tt.a), big.NewInt(tt.b), big.NewInt(tt.d), tt.rounding, 64)
		if err != nil {
			t.Fatalf("%s: MulDiv() fail %v", tt.name, err)
		}
		if got.Int64() != tt.want {
			t.Fatalf("%s: MulDiv() = %d, want %d", tt.name, got.Int64(), tt.want)
		}
	}
}

func TestMulDivOverflow(t *testing.T) {
	max := new(big.Int).Set(shared.U64Max)
	if _, err := MulDiv(max, max, big.NewInt(1), shared.RoundingDown, 64); !errors.Is(err, shared.ErrMulDivOverflow) {
		t.Fatalf("MulDiv() err = %v, want ErrMulDivOverflow", err)
	}
}

func TestMulDivByZero(t *testing.T) {
	if _, err := MulDiv(big.NewInt(1), big.NewInt(1), big.NewInt(0), shared.RoundingDown, 64); !errors.Is(err, shared.ErrDivideByZero) {
		t.Fatalf("MulDiv() err = %v, want ErrDivideByZero", err)
	}
}

func TestMulShiftRight(t *testing.T) {
	// (3 << 64) * 5 >> 64 == 15
	a := new(big.Int).Lsh(big.NewInt(3), 64)
	got, err := MulShiftRight(a, big.NewInt(5))
	if err != nil {
		t.Fatal("MulShiftRight() fail", err)
	}
	if got.Int64() != 15 {
		t.Fatalf("MulShiftRight() = %s, want 15", got)
	}
}

func TestMulShiftRightOverflow(t *testing.T) {
	big129 := new(big.Int).Lsh(big.NewInt(1), 129)
	if _, err := MulShiftRight(big129, big129); !errors.Is(err, shared.ErrMultiplicationShiftRightOverflow) {
		t.Fatalf("MulShiftRight() err = %v, want ErrMultiplicationShiftRightOverflow", err)
	}
}

func TestSubUnderflow(t *testing.T) {
	if _, err := Sub(big.NewInt(1), big.NewInt(2)); !errors.Is(err, shared.ErrAmountRemainingOverflow) {
		t.Fatalf("Sub() err = %v, want ErrAmountRemainingOverflow", err)
	}
}

func TestDivRoundUp(t *testing.T) {
	got, err := DivRoundUp(big.NewInt(7), big.NewInt(2))
	if err != nil {
		t.Fatal("DivRoundUp() fail", err)
	}
	if got.Int64() != 4 {
		t.Fatalf("DivRoundUp(7, 2) = %s, want 4", got)
	}

	got, err = DivRoundUpIf(big.NewInt(7), big.NewInt(2), false)
	if err != nil {
		t.Fatal("DivRoundUpIf() fail", err)
	}
	if got.Int64() != 3 {
		t.Fatalf("DivRoundUpIf(7, 2, false) = %s, want 3", got)
	}
}

func TestIsOverLimit(t *testing.T) {
	if IsOverLimit(shared.U64Max, 64) {
		t.Fatal("IsOverLimit(U64Max, 64) = true, want false")
	}
	over := new(big.Int).Add(shared.U64Max, big.NewInt(1))
	if !IsOverLimit(over, 64) {
		t.Fatal("IsOverLimit(U64Max+1, 64) = false, want true")
	}
}

func TestCheckedU64(t *testing.T) {
	if _, err := CheckedU64(new(big.Int).Add(shared.U64Max, big.NewInt(1))); !errors.Is(err, shared.ErrNumberDownCastError) {
		t.Fatalf("CheckedU64() err = %v, want ErrNumberDownCastError", err)
	}
	v, err := CheckedU64(big.NewInt(42))
	if err != nil {
		t.Fatal("CheckedU64() fail", err)
	}
	if v.Int64() != 42 {
		t.Fatalf("CheckedU64(42) = %s", v)
	}
}
