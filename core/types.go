package core

import (
	"strings"
)

// FrameType is type of frame.
type FrameType uint16

// All frame types
const (
	FrameTypePad  FrameType = 0x00
	FrameTypeData FrameType = 0x01
)

func (f FrameType) String() string {
	switch f {
	case FrameTypePad:
		return "PAD"
	case FrameTypeData:
		return "DATA"
	default:
		return "UNKNOWN"
	}
}

// FrameFlag is flag of frame.
type FrameFlag uint8

func (f FrameFlag) String() string {
	foo := make([]string, 0, 2)
	if f.Check(FlagBegin) {
		foo = append(foo, "B")
	}
	if f.Check(FlagEnd) {
		foo = append(foo, "E")
	}
	if len(foo) == 0 {
		return "M"
	}
	return strings.Join(foo, "|")
}

// All frame flags
const (
	FlagEnd FrameFlag = 1 << (6 + iota)
	FlagBegin

	// FlagUnfragmented marks a message carried by a single frame.
	FlagUnfragmented = FlagBegin | FlagEnd
)

// Check returns true if mask exists.
func (f FrameFlag) Check(flag FrameFlag) bool {
	return flag&f == flag
}

// IsUnfragmented returns true if both BEGIN and END are set.
func (f FrameFlag) IsUnfragmented() bool {
	return f.Check(FlagUnfragmented)
}

// IsBegin returns true if the frame starts a fragmented message.
func (f FrameFlag) IsBegin() bool {
	return f&FlagUnfragmented == FlagBegin
}

// IsEnd returns true if the frame terminates a fragmented message.
func (f FrameFlag) IsEnd() bool {
	return f&FlagUnfragmented == FlagEnd
}

// IsMiddle returns true if neither BEGIN nor END is set.
func (f FrameFlag) IsMiddle() bool {
	return f&FlagUnfragmented == 0
}

// FragmentHandler consumes a region of a buffer along with the header of the frame it came from.
// The buffer and the header are only valid during the call.
type FragmentHandler = func(buffer []byte, offset, length int, header *Header) error
