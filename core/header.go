package core

import (
	"encoding/binary"
	"strconv"
	"strings"
)

// Data frame header layout. All fields are little-endian.
const (
	// HeaderLength is len of a data frame header.
	HeaderLength = 32
	// CurrentVersion is the data frame header version.
	CurrentVersion uint8 = 0

	FrameLengthFieldOffset   = 0
	VersionFieldOffset       = 4
	FlagsFieldOffset         = 5
	TypeFieldOffset          = 6
	TermOffsetFieldOffset    = 8
	SessionIDFieldOffset     = 12
	StreamIDFieldOffset      = 16
	TermIDFieldOffset        = 20
	ReservedValueFieldOffset = 24
)

// DataHeader holds the fields written into a data frame header.
type DataHeader struct {
	FrameLength   int32
	Flags         FrameFlag
	Type          FrameType
	TermOffset    int32
	SessionID     int32
	StreamID      int32
	TermID        int32
	ReservedValue int64
}

// WriteDataHeader writes a data frame header at offset of buf.
func WriteDataHeader(buf []byte, offset int, h DataHeader) {
	b := buf[offset : offset+HeaderLength]
	binary.LittleEndian.PutUint32(b[FrameLengthFieldOffset:], uint32(h.FrameLength))
	b[VersionFieldOffset] = CurrentVersion
	b[FlagsFieldOffset] = byte(h.Flags)
	binary.LittleEndian.PutUint16(b[TypeFieldOffset:], uint16(h.Type))
	binary.LittleEndian.PutUint32(b[TermOffsetFieldOffset:], uint32(h.TermOffset))
	binary.LittleEndian.PutUint32(b[SessionIDFieldOffset:], uint32(h.SessionID))
	binary.LittleEndian.PutUint32(b[StreamIDFieldOffset:], uint32(h.StreamID))
	binary.LittleEndian.PutUint32(b[TermIDFieldOffset:], uint32(h.TermID))
	binary.LittleEndian.PutUint64(b[ReservedValueFieldOffset:], uint64(h.ReservedValue))
}

// FrameLengthAt reads the frame length field of the frame at offset.
func FrameLengthAt(buf []byte, offset int) int32 {
	return int32(binary.LittleEndian.Uint32(buf[offset+FrameLengthFieldOffset:]))
}

// Header is a view of the data frame header at an offset of a term buffer.
// It also carries the image constants needed to compute stream positions.
type Header struct {
	buffer              []byte
	offset              int
	initialTermID       int32
	positionBitsToShift int
}

// NewHeader returns a header for an image with the given initial term id and term length.
func NewHeader(initialTermID int32, termLength int) *Header {
	return &Header{
		initialTermID:       initialTermID,
		positionBitsToShift: PositionBitsToShift(termLength),
	}
}

// SetBuffer changes the underlying term buffer.
func (h *Header) SetBuffer(buffer []byte) {
	h.buffer = buffer
}

// SetOffset moves the header to the frame at offset.
func (h *Header) SetOffset(offset int) {
	h.offset = offset
}

// Buffer returns the underlying term buffer.
func (h *Header) Buffer() []byte {
	return h.buffer
}

// Offset returns the offset of the frame in the term buffer.
func (h *Header) Offset() int {
	return h.offset
}

// InitialTermID returns the initial term id of the image.
func (h *Header) InitialTermID() int32 {
	return h.initialTermID
}

// PositionBitsToShift returns the number of bits to shift a term id when computing positions.
func (h *Header) PositionBitsToShift() int {
	return h.positionBitsToShift
}

// FrameLength returns the length of the frame including the header.
func (h *Header) FrameLength() int32 {
	return h.int32At(FrameLengthFieldOffset)
}

// Version returns the header version.
func (h *Header) Version() uint8 {
	return h.buffer[h.offset+VersionFieldOffset]
}

// Flags returns the fragmentation flags of the frame.
func (h *Header) Flags() FrameFlag {
	return FrameFlag(h.buffer[h.offset+FlagsFieldOffset])
}

// Type returns frame type.
func (h *Header) Type() FrameType {
	return FrameType(binary.LittleEndian.Uint16(h.buffer[h.offset+TypeFieldOffset:]))
}

// TermOffset returns the offset of the frame within its term.
func (h *Header) TermOffset() int32 {
	return h.int32At(TermOffsetFieldOffset)
}

// SessionID returns the session id of the publisher.
func (h *Header) SessionID() int32 {
	return h.int32At(SessionIDFieldOffset)
}

// StreamID returns the stream id.
func (h *Header) StreamID() int32 {
	return h.int32At(StreamIDFieldOffset)
}

// TermID returns the term id.
func (h *Header) TermID() int32 {
	return h.int32At(TermIDFieldOffset)
}

// ReservedValue returns the reserved value field.
func (h *Header) ReservedValue() int64 {
	return int64(binary.LittleEndian.Uint64(h.buffer[h.offset+ReservedValueFieldOffset:]))
}

// Position returns the stream position just after this frame.
func (h *Header) Position() int64 {
	resultingOffset := Align(int(h.TermOffset())+int(h.FrameLength()), FrameAlignment)
	return ComputePosition(h.TermID(), resultingOffset, h.positionBitsToShift, h.initialTermID)
}

func (h *Header) int32At(field int) int32 {
	return int32(binary.LittleEndian.Uint32(h.buffer[h.offset+field:]))
}

func (h *Header) String() string {
	bu := strings.Builder{}
	bu.WriteString("Header{session=")
	bu.WriteString(strconv.FormatInt(int64(h.SessionID()), 10))
	bu.WriteString(",stream=")
	bu.WriteString(strconv.FormatInt(int64(h.StreamID()), 10))
	bu.WriteString(",term=")
	bu.WriteString(strconv.FormatInt(int64(h.TermID()), 10))
	bu.WriteString(",offset=")
	bu.WriteString(strconv.FormatInt(int64(h.TermOffset()), 10))
	bu.WriteString(",length=")
	bu.WriteString(strconv.FormatInt(int64(h.FrameLength()), 10))
	bu.WriteString(",type=")
	bu.WriteString(h.Type().String())
	bu.WriteString(",flag=")
	bu.WriteString(h.Flags().String())
	bu.WriteByte('}')
	return bu.String()
}
