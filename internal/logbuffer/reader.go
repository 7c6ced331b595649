package logbuffer

import (
	"github.com/logbuf/logbuf-go/core"
	"github.com/pkg/errors"
)

// Read scans data frames of term from termOffset and passes each payload to handler.
// It stops at the first empty frame, after fragmentsLimit data frames, at the end of the term,
// or when handler fails. The returned offset is past every frame handed to handler,
// including a frame the handler failed on.
func Read(term []byte, termOffset int, handler core.FragmentHandler, fragmentsLimit int, header *core.Header) (fragmentsRead int, offset int, err error) {
	offset = termOffset
	header.SetBuffer(term)
	capacity := len(term)
	for fragmentsRead < fragmentsLimit && offset+core.HeaderLength <= capacity {
		frameLength := int(core.FrameLengthAt(term, offset))
		if frameLength == 0 {
			break
		}
		if frameLength < core.HeaderLength || offset+frameLength > capacity {
			err = errors.Wrapf(core.ErrInvalidFrameLength, "frame length %d at offset %d", frameLength, offset)
			return
		}
		frameOffset := offset
		offset += core.Align(frameLength, core.FrameAlignment)
		header.SetOffset(frameOffset)
		if header.Type() == core.FrameTypePad {
			continue
		}
		fragmentsRead++
		if err = handler(term, frameOffset+core.HeaderLength, frameLength-core.HeaderLength, header); err != nil {
			return
		}
	}
	return
}

// Image is the receiving side of one session: a term and the offset reached by polling it.
type Image struct {
	term      []byte
	header    *core.Header
	sessionID int32
	offset    int
}

// NewImage returns an image polling term from its start.
func NewImage(term []byte, sessionID, initialTermID int32) *Image {
	return &Image{
		term:      term,
		header:    core.NewHeader(initialTermID, len(term)),
		sessionID: sessionID,
	}
}

// SessionID returns the session id of the image.
func (p *Image) SessionID() int32 {
	return p.sessionID
}

// Offset returns the term offset the next poll starts from.
func (p *Image) Offset() int {
	return p.offset
}

// Poll hands at most fragmentsLimit fragments to handler.
func (p *Image) Poll(handler core.FragmentHandler, fragmentsLimit int) (n int, err error) {
	n, p.offset, err = Read(p.term, p.offset, handler, fragmentsLimit, p.header)
	return
}

// IsDrained returns true if no frame is available at the current offset.
func (p *Image) IsDrained() bool {
	return p.offset+core.HeaderLength > len(p.term) || core.FrameLengthAt(p.term, p.offset) == 0
}
