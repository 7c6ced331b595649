package core

import (
	"math/bits"

	"github.com/pkg/errors"
)

const (
	// FrameAlignment is the alignment of every frame within a term.
	FrameAlignment = 32
	// TermMinLength is the minimum length of a term buffer.
	TermMinLength = 64 * 1024
	// TermMaxLength is the maximum length of a term buffer.
	TermMaxLength = 1024 * 1024 * 1024
)

// Align rounds value up to the next multiple of alignment, which must be a power of two.
func Align(value, alignment int) int {
	return (value + (alignment - 1)) & ^(alignment - 1)
}

// PositionBitsToShift returns the shift applied to a term count when computing positions.
func PositionBitsToShift(termLength int) int {
	return bits.TrailingZeros32(uint32(termLength))
}

// ComputePosition returns the stream position of a term offset within the active term.
func ComputePosition(activeTermID int32, termOffset int, positionBitsToShift int, initialTermID int32) int64 {
	termCount := int64(activeTermID - initialTermID)
	return termCount<<uint(positionBitsToShift) + int64(termOffset)
}

// CheckTermLength validates that length is a power of two within the term limits.
func CheckTermLength(length int) error {
	if length < TermMinLength || length > TermMaxLength {
		return errors.Wrapf(ErrInvalidTermLength, "term length %d outside [%d,%d]", length, TermMinLength, TermMaxLength)
	}
	if length&(length-1) != 0 {
		return errors.Wrapf(ErrInvalidTermLength, "term length %d is not a power of two", length)
	}
	return nil
}
