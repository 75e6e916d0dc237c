package math

import (
	"fmt"

	"github.com/solpods/whirlpool-go/whirlpool/shared"
)

// TickArraySequence walks an ordered run of tick arrays in the trade
// direction. Arrays are validated once at construction; traversal then
// only ever moves away from the starting tick.
type TickArraySequence struct {
	arrays      []*shared.TickArrayData
	tickSpacing uint16
	aToB        bool
	touched     []bool
}

// NewTickArraySequence validates and wraps the supplied arrays. At most
// MaxSwapTickArrays may be given; they must be ordered in the trade
// direction, contiguous with spacing tickSpacing*TickArraySize, and the
// first must contain currentTickIndex. When the first array fails the
// containment check, a fallback array that passes it is substituted at
// the front and the tail shifted.
func NewTickArraySequence(
	arrays []*shared.TickArrayData,
	fallback *shared.TickArrayData,
	currentTickIndex int32,
	tickSpacing uint16,
	aToB bool,
) (*TickArraySequence, error) {
	if tickSpacing == 0 {
		return nil, shared.ErrInvalidTickSpacing
	}
	if len(arrays) == 0 {
		return nil, shared.ErrInvalidTickArraySequence
	}
	if len(arrays) > shared.MaxSwapTickArrays {
		return nil, shared.ErrTickArrayCrossingAboveMax
	}

	if !arrayContains(arrays[0], currentTickIndex, tickSpacing) {
		if fallback == nil || !arrayContains(fallback, currentTickIndex, tickSpacing) {
			return nil, fmt.Errorf("%w: first tick array does not contain tick %d",
				shared.ErrInvalidTickArraySequence, currentTickIndex)
		}
		substituted := make([]*shared.TickArrayData, 0, shared.MaxSwapTickArrays)
		substituted = append(substituted, fallback)
		for _, a := range arrays {
			if len(substituted) == shared.MaxSwapTickArrays {
				break
			}
			substituted = append(substituted, a)
		}
		arrays = substituted
	}

	span := int32(tickSpacing) * shared.TickArraySize
	step := span
	if aToB {
		step = -span
	}
	for i := 1; i < len(arrays); i++ {
		want := arrays[i-1].StartTickIndex + step
		if arrays[i].StartTickIndex != want {
			return nil, fmt.Errorf("%w: array %d starts at %d, want %d",
				shared.ErrInvalidTickArraySequence, i, arrays[i].StartTickIndex, want)
		}
	}
	for i, a := range arrays {
		if len(a.Ticks) != shared.TickArraySize {
			return nil, fmt.Errorf("%w: array %d holds %d ticks",
				shared.ErrInvalidTickArraySequence, i, len(a.Ticks))
		}
	}

	return &TickArraySequence{
		arrays:      arrays,
		tickSpacing: tickSpacing,
		aToB:        aToB,
		touched:     make([]bool, len(arrays)),
	}, nil
}

// Tick returns the tick at tickIndex, synthesizing a zero-delta tick for
// indexes that are valid but not on a spacing-aligned slot boundary.
func (s *TickArraySequence) Tick(tickIndex int32) (shared.TickData, error) {
	arrayIndex, ok := s.arrayIndexFor(tickIndex)
	if !ok {
		return shared.TickData{}, shared.ErrTickArrayIndexOutOfBounds
	}
	array := s.arrays[arrayIndex]
	offset := tickIndex - array.StartTickIndex
	if offset%int32(s.tickSpacing) != 0 {
		return shared.ZeroTickData(), nil
	}
	s.touched[arrayIndex] = true
	return array.Ticks[offset/int32(s.tickSpacing)], nil
}

// FindNextInitializedTickIndex scans from currentIndex in the trade
// direction for the next initialized tick. The scan is inclusive of
// currentIndex for A->B and exclusive for B->A, mirroring the on-chain
// search. When the supplied arrays hold no further initialized tick it
// returns the last array's boundary index and found=false; asking again
// from beyond that boundary is a sequence error.
func (s *TickArraySequence) FindNextInitializedTickIndex(currentIndex int32) (int32, bool, error) {
	searchIndex := currentIndex
	if !s.aToB {
		searchIndex += int32(s.tickSpacing)
	}

	firstArrayIndex, ok := s.arrayIndexFor(searchIndex)
	if !ok {
		return 0, false, fmt.Errorf("%w: no tick array covers index %d",
			shared.ErrInvalidTickArraySequence, searchIndex)
	}

	for arrayIndex := firstArrayIndex; arrayIndex < len(s.arrays); arrayIndex++ {
		array := s.arrays[arrayIndex]
		s.touched[arrayIndex] = true

		offset := s.startOffset(array, searchIndex, arrayIndex == firstArrayIndex)
		if s.aToB {
			for ; offset >= 0; offset-- {
				if array.Ticks[offset].Initialized {
					return array.StartTickIndex + offset*int32(s.tickSpacing), true, nil
				}
			}
		} else {
			for ; offset < shared.TickArraySize; offset++ {
				if array.Ticks[offset].Initialized {
					return array.StartTickIndex + offset*int32(s.tickSpacing), true, nil
				}
			}
		}
	}

	last := s.arrays[len(s.arrays)-1]
	boundary := last.StartTickIndex
	if !s.aToB {
		boundary = last.StartTickIndex + int32(s.tickSpacing)*shared.TickArraySize - 1
	}
	return clampTickIndex(boundary), false, nil
}

// TouchedArrays reports how many distinct arrays the traversal consulted.
func (s *TickArraySequence) TouchedArrays() int {
	n := 0
	for _, t := range s.touched {
		if t {
			n++
		}
	}
	return n
}

// StartIndexes returns the start tick index of each array in traversal
// order, for callers assembling the on-chain account list.
func (s *TickArraySequence) StartIndexes() []int32 {
	out := make([]int32, len(s.arrays))
	for i, a := range s.arrays {
		out[i] = a.StartTickIndex
	}
	return out
}

// startOffset returns the slot to begin scanning within array for a
// search starting at searchIndex. Arrays after the one containing the
// search index are scanned in full.
func (s *TickArraySequence) startOffset(array *shared.TickArrayData, searchIndex int32, first bool) int32 {
	if !first {
		if s.aToB {
			return shared.TickArraySize - 1
		}
		return 0
	}
	return floorDiv(searchIndex-array.StartTickIndex, int32(s.tickSpacing))
}

func (s *TickArraySequence) arrayIndexFor(tickIndex int32) (int, bool) {
	for i, a := range s.arrays {
		if arrayContains(a, tickIndex, s.tickSpacing) {
			return i, true
		}
	}
	return 0, false
}

func arrayContains(array *shared.TickArrayData, tickIndex int32, tickSpacing uint16) bool {
	span := int32(tickSpacing) * shared.TickArraySize
	return tickIndex >= array.StartTickIndex && tickIndex < array.StartTickIndex+span
}

func clampTickIndex(tickIndex int32) int32 {
	if tickIndex < shared.MinTickIndex {
		return shared.MinTickIndex
	}
	if tickIndex > shared.MaxTickIndex {
		return shared.MaxTickIndex
	}
	return tickIndex
}

func floorDiv(a, b int32) int32 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}
