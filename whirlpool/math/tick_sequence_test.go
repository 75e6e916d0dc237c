package math

import (
	"errors"
	"math/big"
	"testing"

	"github.com/solpods/whirlpool-go/whirlpool/shared"
)

func testTickArray(startTickIndex int32, initialized map[int]int64) *shared.TickArrayData {
	ticks := make([]shared.TickData, shared.TickArraySize)
	for i := range ticks {
		ticks[i] = shared.ZeroTickData()
	}
	for slot, net := range initialized {
		ticks[slot].Initialized = true
		ticks[slot].LiquidityNet = big.NewInt(net)
		ticks[slot].LiquidityGross = big.NewInt(net)
	}
	return &shared.TickArrayData{StartTickIndex: startTickIndex, Ticks: ticks}
}

func TestNewTickArraySequenceValidation(t *testing.T) {
	spacing := uint16(64)
	span := int32(spacing) * shared.TickArraySize

	if _, err := NewTickArraySequence(nil, nil, 0, spacing, true); !errors.Is(err, shared.ErrInvalidTickArraySequence) {
		t.Fatalf("empty arrays err = %v, want ErrInvalidTickArraySequence", err)
	}

	if _, err := NewTickArraySequence([]*shared.TickArrayData{testTickArray(0, nil)}, nil, 0, 0, true); !errors.Is(err, shared.ErrInvalidTickSpacing) {
		t.Fatalf("zero spacing err = %v, want ErrInvalidTickSpacing", err)
	}

	// Wrong direction order for a->b.
	arrays := []*shared.TickArrayData{
		testTickArray(0, nil),
		testTickArray(span, nil),
	}
	if _, err := NewTickArraySequence(arrays, nil, 0, spacing, true); !errors.Is(err, shared.ErrInvalidTickArraySequence) {
		t.Fatalf("non-contiguous err = %v, want ErrInvalidTickArraySequence", err)
	}

	// More arrays than one swap may cross.
	four := []*shared.TickArrayData{
		testTickArray(0, nil),
		testTickArray(span, nil),
		testTickArray(2*span, nil),
		testTickArray(3*span, nil),
	}
	if _, err := NewTickArraySequence(four, nil, 0, spacing, false); !errors.Is(err, shared.ErrTickArrayCrossingAboveMax) {
		t.Fatalf("too many arrays err = %v, want ErrTickArrayCrossingAboveMax", err)
	}

	// First array not containing the current tick, no fallback.
	arrays = []*shared.TickArrayData{testTickArray(span, nil)}
	if _, err := NewTickArraySequence(arrays, nil, 0, spacing, false); !errors.Is(err, shared.ErrInvalidTickArraySequence) {
		t.Fatalf("containment err = %v, want ErrInvalidTickArraySequence", err)
	}

	// Same, but a matching fallback is substituted at the front.
	seq, err := NewTickArraySequence(arrays, testTickArray(0, nil), 0, spacing, false)
	if err != nil {
		t.Fatal("NewTickArraySequence() with fallback fail", err)
	}
	starts := seq.StartIndexes()
	if starts[0] != 0 || starts[1] != span {
		t.Fatalf("StartIndexes() = %v", starts)
	}
}

func TestFindNextInitializedTickIndexBtoA(t *testing.T) {
	spacing := uint16(64)
	span := int32(spacing) * shared.TickArraySize

	arrays := []*shared.TickArrayData{
		testTickArray(0, map[int]int64{0: 100, 2: 200}), // ticks 0 and 128
		testTickArray(span, map[int]int64{0: 300}),      // tick 5632
	}
	seq, err := NewTickArraySequence(arrays, nil, 10, spacing, false)
	if err != nil {
		t.Fatal("NewTickArraySequence() fail", err)
	}

	// From tick 10 upward the next initialized tick is 128; the search
	// skips the current tick's own slot.
	next, found, err := seq.FindNextInitializedTickIndex(10)
	if err != nil {
		t.Fatal("FindNextInitializedTickIndex() fail", err)
	}
	if !found || next != 128 {
		t.Fatalf("next = %d found = %v, want 128 true", next, found)
	}

	// From 128 the search starts above it and lands in the second array.
	next, found, err = seq.FindNextInitializedTickIndex(128)
	if err != nil {
		t.Fatal("FindNextInitializedTickIndex() fail", err)
	}
	if !found || next != span {
		t.Fatalf("next = %d found = %v, want %d true", next, found, span)
	}

	// Beyond the last initialized tick the sequence reports its upper
	// boundary without finding anything.
	next, found, err = seq.FindNextInitializedTickIndex(span)
	if err != nil {
		t.Fatal("FindNextInitializedTickIndex() fail", err)
	}
	wantBoundary := span + span - 1
	if found || next != wantBoundary {
		t.Fatalf("next = %d found = %v, want %d false", next, found, wantBoundary)
	}

	// Asking past the boundary is a sequence error.
	if _, _, err = seq.FindNextInitializedTickIndex(wantBoundary); !errors.Is(err, shared.ErrInvalidTickArraySequence) {
		t.Fatalf("err = %v, want ErrInvalidTickArraySequence", err)
	}
}

func TestFindNextInitializedTickIndexAtoB(t *testing.T) {
	spacing := uint16(64)
	span := int32(spacing) * shared.TickArraySize

	arrays := []*shared.TickArrayData{
		testTickArray(0, map[int]int64{2: 200}),      // tick 128
		testTickArray(-span, map[int]int64{87: 400}), // tick -64
	}
	seq, err := NewTickArraySequence(arrays, nil, 200, spacing, true)
	if err != nil {
		t.Fatal("NewTickArraySequence() fail", err)
	}

	// Downward search includes the current tick index itself.
	next, found, err := seq.FindNextInitializedTickIndex(128)
	if err != nil {
		t.Fatal("FindNextInitializedTickIndex() fail", err)
	}
	if !found || next != 128 {
		t.Fatalf("next = %d found = %v, want 128 true", next, found)
	}

	next, found, err = seq.FindNextInitializedTickIndex(127)
	if err != nil {
		t.Fatal("FindNextInitializedTickIndex() fail", err)
	}
	if !found || next != -64 {
		t.Fatalf("next = %d found = %v, want -64 true", next, found)
	}

	// Below every initialized tick: the lower boundary, not found.
	next, found, err = seq.FindNextInitializedTickIndex(-65)
	if err != nil {
		t.Fatal("FindNextInitializedTickIndex() fail", err)
	}
	if found || next != -span {
		t.Fatalf("next = %d found = %v, want %d false", next, found, -span)
	}
}

func TestSequenceTick(t *testing.T) {
	spacing := uint16(64)
	arrays := []*shared.TickArrayData{testTickArray(0, map[int]int64{2: 200})}
	seq, err := NewTickArraySequence(arrays, nil, 0, spacing, false)
	if err != nil {
		t.Fatal("NewTickArraySequence() fail", err)
	}

	tick, err := seq.Tick(128)
	if err != nil {
		t.Fatal("Tick() fail", err)
	}
	if !tick.Initialized || tick.LiquidityNet.Int64() != 200 {
		t.Fatalf("Tick(128) = %+v", tick)
	}

	// Off-spacing indexes synthesize an empty tick.
	tick, err = seq.Tick(130)
	if err != nil {
		t.Fatal("Tick() fail", err)
	}
	if tick.Initialized || tick.LiquidityNet.Sign() != 0 {
		t.Fatalf("Tick(130) = %+v, want zero tick", tick)
	}

	if _, err = seq.Tick(-1); !errors.Is(err, shared.ErrTickArrayIndexOutOfBounds) {
		t.Fatalf("Tick(-1) err = %v, want ErrTickArrayIndexOutOfBounds", err)
	}
}

func TestTouchedArrays(t *testing.T) {
	spacing := uint16(64)
	span := int32(spacing) * shared.TickArraySize
	arrays := []*shared.TickArrayData{
		testTickArray(0, nil),
		testTickArray(span, nil),
		testTickArray(2*span, map[int]int64{10: 1}),
	}
	seq, err := NewTickArraySequence(arrays, nil, 0, spacing, false)
	if err != nil {
		t.Fatal("NewTickArraySequence() fail", err)
	}

	if _, _, err := seq.FindNextInitializedTickIndex(0); err != nil {
		t.Fatal("FindNextInitializedTickIndex() fail", err)
	}
	if got := seq.TouchedArrays(); got != 3 {
		t.Fatalf("TouchedArrays() = %d, want 3", got)
	}
}
