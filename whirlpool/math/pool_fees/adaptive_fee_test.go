package pool_fees

import (
	"errors"
	"testing"

	"github.com/solpods/whirlpool-go/whirlpool/math"
	"github.com/solpods/whirlpool-go/whirlpool/shared"
)

func testConstants() AdaptiveFeeConstants {
	return AdaptiveFeeConstants{
		FilterPeriod:             30,
		DecayPeriod:              600,
		ReductionFactor:          5000, // halve the accumulator on decay
		AdaptiveFeeControlFactor: 1500,
		MaxVolatilityAccumulator: 350_000,
		TickGroupSize:            64,
		MajorSwapThresholdTicks:  64,
	}
}

func TestValidateConstants(t *testing.T) {
	c := testConstants()
	if err := c.validate(); err != nil {
		t.Fatal("validate() fail", err)
	}

	bad := testConstants()
	bad.TickGroupSize = 0
	if err := bad.validate(); !errors.Is(err, shared.ErrInvalidAdaptiveFeeInfo) {
		t.Fatalf("zero group size err = %v, want ErrInvalidAdaptiveFeeInfo", err)
	}

	bad = testConstants()
	bad.DecayPeriod = bad.FilterPeriod
	if err := bad.validate(); !errors.Is(err, shared.ErrInvalidAdaptiveFeeInfo) {
		t.Fatalf("decay <= filter err = %v, want ErrInvalidAdaptiveFeeInfo", err)
	}

	// A reduction factor above its denominator would grow the reference
	// instead of decaying it.
	bad = testConstants()
	bad.ReductionFactor = shared.ReductionFactorDenominator + 1
	if err := bad.validate(); !errors.Is(err, shared.ErrInvalidAdaptiveFeeInfo) {
		t.Fatalf("reduction factor err = %v, want ErrInvalidAdaptiveFeeInfo", err)
	}

	// accumulator * group size overflowing u32 must be rejected.
	bad = testConstants()
	bad.MaxVolatilityAccumulator = 80_000_000
	if err := bad.validate(); !errors.Is(err, shared.ErrInvalidAdaptiveFeeInfo) {
		t.Fatalf("accumulator bound err = %v, want ErrInvalidAdaptiveFeeInfo", err)
	}
}

func TestUpdateReferenceWithinFilterPeriod(t *testing.T) {
	c := testConstants()
	v := AdaptiveFeeVariables{
		LastReferenceUpdateTimestamp: 1000,
		VolatilityReference:          5000,
		TickGroupIndexReference:      7,
		VolatilityAccumulator:        40_000,
	}

	// Inside the filter period nothing moves.
	if err := v.updateReference(9, 1000+uint64(c.FilterPeriod)-1, c); err != nil {
		t.Fatal("updateReference() fail", err)
	}
	if v.TickGroupIndexReference != 7 || v.VolatilityReference != 5000 {
		t.Fatalf("references moved inside filter period: %+v", v)
	}
}

func TestUpdateReferenceWithinDecayPeriod(t *testing.T) {
	c := testConstants()
	v := AdaptiveFeeVariables{
		LastReferenceUpdateTimestamp: 1000,
		VolatilityAccumulator:        40_000,
	}

	if err := v.updateReference(9, 1000+uint64(c.FilterPeriod), c); err != nil {
		t.Fatal("updateReference() fail", err)
	}
	if v.TickGroupIndexReference != 9 {
		t.Fatalf("TickGroupIndexReference = %d, want 9", v.TickGroupIndexReference)
	}
	// 40000 * 5000 / 10000
	if v.VolatilityReference != 20_000 {
		t.Fatalf("VolatilityReference = %d, want 20000", v.VolatilityReference)
	}
}

func TestUpdateReferenceAfterDecayPeriod(t *testing.T) {
	c := testConstants()
	v := AdaptiveFeeVariables{
		LastReferenceUpdateTimestamp: 1000,
		VolatilityAccumulator:        40_000,
		VolatilityReference:          20_000,
	}

	if err := v.updateReference(3, 1000+uint64(c.DecayPeriod), c); err != nil {
		t.Fatal("updateReference() fail", err)
	}
	if v.VolatilityReference != 0 {
		t.Fatalf("VolatilityReference = %d, want 0", v.VolatilityReference)
	}
	if v.TickGroupIndexReference != 3 {
		t.Fatalf("TickGroupIndexReference = %d, want 3", v.TickGroupIndexReference)
	}
}

func TestUpdateReferenceMaxAge(t *testing.T) {
	c := testConstants()
	v := AdaptiveFeeVariables{
		LastReferenceUpdateTimestamp: 1000,
		// A recent major swap would otherwise freeze the references.
		LastMajorSwapTimestamp: 1000 + shared.MaxReferenceAge,
		VolatilityReference:    30_000,
	}

	if err := v.updateReference(2, 1000+shared.MaxReferenceAge+1, c); err != nil {
		t.Fatal("updateReference() fail", err)
	}
	if v.VolatilityReference != 0 || v.TickGroupIndexReference != 2 {
		t.Fatalf("stale reference not reset: %+v", v)
	}
}

func TestUpdateReferenceRejectsPastTimestamp(t *testing.T) {
	c := testConstants()
	v := AdaptiveFeeVariables{LastReferenceUpdateTimestamp: 1000}
	if err := v.updateReference(0, 999, c); !errors.Is(err, shared.ErrInvalidTimestamp) {
		t.Fatalf("err = %v, want ErrInvalidTimestamp", err)
	}
}

func TestUpdateVolatilityAccumulator(t *testing.T) {
	c := testConstants()
	v := AdaptiveFeeVariables{TickGroupIndexReference: 10}

	v.updateVolatilityAccumulator(13, c)
	if v.VolatilityAccumulator != 30_000 {
		t.Fatalf("VolatilityAccumulator = %d, want 30000", v.VolatilityAccumulator)
	}

	// Same distance below the reference.
	v.updateVolatilityAccumulator(7, c)
	if v.VolatilityAccumulator != 30_000 {
		t.Fatalf("VolatilityAccumulator = %d, want 30000", v.VolatilityAccumulator)
	}

	// Far beyond the cap.
	v.updateVolatilityAccumulator(10+100, c)
	if v.VolatilityAccumulator != c.MaxVolatilityAccumulator {
		t.Fatalf("VolatilityAccumulator = %d, want cap %d", v.VolatilityAccumulator, c.MaxVolatilityAccumulator)
	}
}

func TestComputeAdaptiveFeeRate(t *testing.T) {
	c := testConstants()
	tests := []struct {
		crossedGroups uint32
		want          uint32
	}{
		{1, 62},
		{2, 246},
		{5, 1536},
		{10, 6144},
		{20, 24576},
		{30, 55296},
		{35, 75264},
		{40, 75264}, // accumulator saturated at 35 groups
	}
	for _, tt := range tests {
		v := AdaptiveFeeVariables{}
		v.updateVolatilityAccumulator(int32(tt.crossedGroups), c)
		got := computeAdaptiveFeeRate(c, v)
		if got != tt.want {
			t.Fatalf("crossed %d groups: rate = %d, want %d", tt.crossedGroups, got, tt.want)
		}
	}
}

func TestIsMajorSwap(t *testing.T) {
	v := AdaptiveFeeVariables{}
	c := testConstants()

	pre, err := math.SqrtPriceFromTickIndex(0)
	if err != nil {
		t.Fatal("SqrtPriceFromTickIndex() fail", err)
	}

	// Moving a full threshold span is major in either direction.
	post, _ := math.SqrtPriceFromTickIndex(65)
	if err := v.updateMajorSwapTimestamp(pre, post, 777, c); err != nil {
		t.Fatal("updateMajorSwapTimestamp() fail", err)
	}
	if v.LastMajorSwapTimestamp != 777 {
		t.Fatalf("LastMajorSwapTimestamp = %d, want 777", v.LastMajorSwapTimestamp)
	}

	// A sub-threshold move leaves the timestamp alone.
	v = AdaptiveFeeVariables{}
	post, _ = math.SqrtPriceFromTickIndex(10)
	if err := v.updateMajorSwapTimestamp(pre, post, 888, c); err != nil {
		t.Fatal("updateMajorSwapTimestamp() fail", err)
	}
	if v.LastMajorSwapTimestamp != 0 {
		t.Fatalf("LastMajorSwapTimestamp = %d, want 0", v.LastMajorSwapTimestamp)
	}
}
