// Package logbuffer provides in-memory terms of data frames and the readers that poll them.
package logbuffer

import (
	"github.com/logbuf/logbuf-go/core"
	"github.com/pkg/errors"
)

// CheckMTU validates a maximum transmission unit.
func CheckMTU(mtu int) error {
	if mtu <= core.HeaderLength || mtu%core.FrameAlignment != 0 {
		return errors.Wrapf(core.ErrInvalidMTU, "mtu %d must be greater than %d and a multiple of %d", mtu, core.HeaderLength, core.FrameAlignment)
	}
	return nil
}

// TermAppender writes messages of one session into a term as aligned data frames.
// It is not safe for concurrent use.
type TermAppender struct {
	term      []byte
	tail      int
	termID    int32
	sessionID int32
	streamID  int32
}

// NewTermAppender returns an appender writing from the start of term.
func NewTermAppender(term []byte, termID, sessionID, streamID int32) *TermAppender {
	return &TermAppender{
		term:      term,
		termID:    termID,
		sessionID: sessionID,
		streamID:  streamID,
	}
}

// Tail returns the offset at which the next frame will be written.
func (p *TermAppender) Tail() int {
	return p.tail
}

// Append writes payload as one frame, or as fragments when it does not fit in mtu.
func (p *TermAppender) Append(payload []byte, mtu int) (tail int, err error) {
	if err = CheckMTU(mtu); err != nil {
		return
	}
	maxPayloadLength := mtu - core.HeaderLength
	if len(payload) <= maxPayloadLength {
		return p.AppendUnfragmented(payload)
	}
	return p.AppendFragmented(payload, maxPayloadLength)
}

// AppendUnfragmented writes payload as a single frame flagged BEGIN|END.
func (p *TermAppender) AppendUnfragmented(payload []byte) (tail int, err error) {
	frameLength := core.HeaderLength + len(payload)
	if err = p.checkSpace(core.Align(frameLength, core.FrameAlignment)); err != nil {
		return
	}
	p.writeFrame(payload, core.FlagUnfragmented)
	tail = p.tail
	return
}

// AppendFragmented splits payload into frames carrying at most maxPayloadLength bytes each.
// Nothing is written if the term cannot hold the whole message.
func (p *TermAppender) AppendFragmented(payload []byte, maxPayloadLength int) (tail int, err error) {
	if maxPayloadLength < 1 {
		err = errors.Wrapf(core.ErrInvalidMTU, "max payload length %d", maxPayloadLength)
		return
	}
	total := len(payload)
	if total <= maxPayloadLength {
		return p.AppendUnfragmented(payload)
	}
	required := (total / maxPayloadLength) * core.Align(maxPayloadLength+core.HeaderLength, core.FrameAlignment)
	if remaining := total % maxPayloadLength; remaining > 0 {
		required += core.Align(remaining+core.HeaderLength, core.FrameAlignment)
	}
	if err = p.checkSpace(required); err != nil {
		return
	}
	flags := core.FlagBegin
	var cursor int
	for {
		end := cursor + maxPayloadLength
		if end >= total {
			end = total
			flags |= core.FlagEnd
		}
		p.writeFrame(payload[cursor:end], flags)
		if end == total {
			break
		}
		cursor = end
		flags = 0
	}
	tail = p.tail
	return
}

// AppendPadding fills length bytes with a padding frame which readers skip.
func (p *TermAppender) AppendPadding(length int) (tail int, err error) {
	length = core.Align(length, core.FrameAlignment)
	if length < core.HeaderLength {
		length = core.HeaderLength
	}
	if err = p.checkSpace(length); err != nil {
		return
	}
	core.WriteDataHeader(p.term, p.tail, core.DataHeader{
		FrameLength: int32(length),
		Flags:       core.FlagUnfragmented,
		Type:        core.FrameTypePad,
		TermOffset:  int32(p.tail),
		SessionID:   p.sessionID,
		StreamID:    p.streamID,
		TermID:      p.termID,
	})
	p.tail += length
	tail = p.tail
	return
}

func (p *TermAppender) checkSpace(required int) error {
	if p.tail+required > len(p.term) {
		return errors.Wrapf(core.ErrTermFull, "need %d bytes at tail %d of %d", required, p.tail, len(p.term))
	}
	return nil
}

func (p *TermAppender) writeFrame(payload []byte, flags core.FrameFlag) {
	frameLength := core.HeaderLength + len(payload)
	copy(p.term[p.tail+core.HeaderLength:], payload)
	core.WriteDataHeader(p.term, p.tail, core.DataHeader{
		FrameLength: int32(frameLength),
		Flags:       flags,
		Type:        core.FrameTypeData,
		TermOffset:  int32(p.tail),
		SessionID:   p.sessionID,
		StreamID:    p.streamID,
		TermID:      p.termID,
	})
	p.tail += core.Align(frameLength, core.FrameAlignment)
}
