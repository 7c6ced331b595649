package logbuffer_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/logbuf/logbuf-go/core"
	"github.com/logbuf/logbuf-go/internal/logbuffer"
	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	sessionID     = int32(200)
	streamID      = int32(10)
	initialTermID = int32(-1234)
	mtu           = 128
)

type frame struct {
	flags   core.FrameFlag
	payload []byte
	offset  int32
}

func collect(frames *[]frame) core.FragmentHandler {
	return func(buffer []byte, offset, length int, header *core.Header) error {
		*frames = append(*frames, frame{
			flags:   header.Flags(),
			payload: append([]byte(nil), buffer[offset:offset+length]...),
			offset:  header.TermOffset(),
		})
		return nil
	}
}

func payload(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i)
	}
	return b
}

func TestCheckMTU(t *testing.T) {
	assert.NoError(t, logbuffer.CheckMTU(mtu))
	for _, bad := range []int{0, core.HeaderLength, 100} {
		err := logbuffer.CheckMTU(bad)
		assert.Equal(t, core.ErrInvalidMTU, pkgerrors.Cause(err), "mtu %d", bad)
	}
}

func TestTermAppender_Unfragmented(t *testing.T) {
	term := make([]byte, core.TermMinLength)
	appender := logbuffer.NewTermAppender(term, initialTermID, sessionID, streamID)
	tail, err := appender.Append([]byte("foobar"), mtu)
	require.NoError(t, err)
	assert.Equal(t, core.FrameAlignment*2, tail)

	var frames []frame
	n, offset, err := logbuffer.Read(term, 0, collect(&frames), 10, core.NewHeader(initialTermID, len(term)))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, tail, offset)
	require.Len(t, frames, 1)
	assert.Equal(t, core.FlagUnfragmented, frames[0].flags)
	assert.Equal(t, []byte("foobar"), frames[0].payload)
}

func TestTermAppender_Fragmented(t *testing.T) {
	const maxPayload = mtu - core.HeaderLength
	term := make([]byte, core.TermMinLength)
	appender := logbuffer.NewTermAppender(term, initialTermID, sessionID, streamID)
	msg := payload(maxPayload*2 + 10)
	tail, err := appender.Append(msg, mtu)
	require.NoError(t, err)
	assert.Equal(t, mtu*2+core.Align(core.HeaderLength+10, core.FrameAlignment), tail)

	var frames []frame
	n, _, err := logbuffer.Read(term, 0, collect(&frames), 10, core.NewHeader(initialTermID, len(term)))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, core.FlagBegin, frames[0].flags)
	assert.Equal(t, core.FrameFlag(0), frames[1].flags)
	assert.Equal(t, core.FlagEnd, frames[2].flags)
	assert.Equal(t, []int32{0, mtu, mtu * 2}, []int32{frames[0].offset, frames[1].offset, frames[2].offset})

	var joined []byte
	for _, it := range frames {
		joined = append(joined, it.payload...)
	}
	assert.Equal(t, msg, joined)
}

func TestTermAppender_TermFull(t *testing.T) {
	term := make([]byte, 256)
	appender := logbuffer.NewTermAppender(term, initialTermID, sessionID, streamID)
	_, err := appender.Append(payload(1000), mtu)
	assert.Equal(t, core.ErrTermFull, pkgerrors.Cause(err))
	assert.Equal(t, 0, appender.Tail(), "nothing should be written")
	assert.Equal(t, int32(0), core.FrameLengthAt(term, 0))
}

func TestRead_SkipPadding(t *testing.T) {
	term := make([]byte, core.TermMinLength)
	appender := logbuffer.NewTermAppender(term, initialTermID, sessionID, streamID)
	_, err := appender.AppendUnfragmented([]byte("a"))
	require.NoError(t, err)
	_, err = appender.AppendPadding(100)
	require.NoError(t, err)
	_, err = appender.AppendUnfragmented([]byte("b"))
	require.NoError(t, err)

	var frames []frame
	n, offset, err := logbuffer.Read(term, 0, collect(&frames), 10, core.NewHeader(initialTermID, len(term)))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, appender.Tail(), offset)
	assert.Equal(t, []byte("b"), frames[1].payload)
}

func TestRead_Limit(t *testing.T) {
	term := make([]byte, core.TermMinLength)
	appender := logbuffer.NewTermAppender(term, initialTermID, sessionID, streamID)
	for i := 0; i < 5; i++ {
		_, err := appender.AppendUnfragmented([]byte{byte(i)})
		require.NoError(t, err)
	}
	image := logbuffer.NewImage(term, sessionID, initialTermID)
	var frames []frame
	n, err := image.Poll(collect(&frames), 3)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.False(t, image.IsDrained())
	n, err = image.Poll(collect(&frames), 3)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.True(t, image.IsDrained())
	assert.Equal(t, sessionID, image.SessionID())
	assert.Equal(t, appender.Tail(), image.Offset())
	assert.Len(t, frames, 5)
}

func TestRead_HandlerError(t *testing.T) {
	term := make([]byte, core.TermMinLength)
	appender := logbuffer.NewTermAppender(term, initialTermID, sessionID, streamID)
	first, err := appender.AppendUnfragmented([]byte("a"))
	require.NoError(t, err)
	_, err = appender.AppendUnfragmented([]byte("b"))
	require.NoError(t, err)

	fakeErr := errors.New("fake error")
	image := logbuffer.NewImage(term, sessionID, initialTermID)
	n, err := image.Poll(func(buffer []byte, offset, length int, header *core.Header) error {
		return fakeErr
	}, 10)
	assert.Equal(t, fakeErr, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, first, image.Offset(), "offset should move past the failed frame")
}

func TestRead_InvalidFrameLength(t *testing.T) {
	term := make([]byte, core.TermMinLength)
	core.WriteDataHeader(term, 0, core.DataHeader{FrameLength: 8, Type: core.FrameTypeData})
	_, _, err := logbuffer.Read(term, 0, collect(new([]frame)), 10, core.NewHeader(initialTermID, len(term)))
	assert.Equal(t, core.ErrInvalidFrameLength, pkgerrors.Cause(err))

	core.WriteDataHeader(term, 0, core.DataHeader{FrameLength: core.TermMinLength + 1, Type: core.FrameTypeData})
	_, _, err = logbuffer.Read(term, 0, collect(new([]frame)), 10, core.NewHeader(initialTermID, len(term)))
	assert.Equal(t, core.ErrInvalidFrameLength, pkgerrors.Cause(err))
}

func TestRead_Empty(t *testing.T) {
	term := make([]byte, core.TermMinLength)
	n, offset, err := logbuffer.Read(term, 0, collect(new([]frame)), 10, core.NewHeader(initialTermID, len(term)))
	assert.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, offset)
	assert.True(t, bytes.Equal(term, make([]byte, core.TermMinLength)))
}
