package logbuf

import (
	"github.com/logbuf/logbuf-go/core"
	"github.com/logbuf/logbuf-go/internal/bufferbuilder"
	"github.com/logbuf/logbuf-go/internal/framedump"
	"github.com/logbuf/logbuf-go/logger"
)

const (
	// DefaultInitialBufferLength is the capacity of a session buffer when it is first created.
	DefaultInitialBufferLength = 4096
	// DefaultMaxMessageLength is the largest message that can be reassembled by default.
	DefaultMaxMessageLength = 16 * 1024 * 1024
)

type assemblerOptions struct {
	initialBufferLength int
	maxMessageLength    int
	counters            *core.AssemblyCounters
}

// AssemblerOption configures a FragmentAssembler.
type AssemblerOption func(*assemblerOptions)

// WithInitialBufferLength sets the capacity used when a session buffer is first created.
func WithInitialBufferLength(length int) AssemblerOption {
	return func(o *assemblerOptions) {
		if length > 0 {
			o.initialBufferLength = length
		}
	}
}

// WithMaxMessageLength bounds the length of a reassembled message.
// Fragments that would grow a message past it fail with core.ErrCapacityExceeded.
func WithMaxMessageLength(length int) AssemblerOption {
	return func(o *assemblerOptions) {
		if length > 0 {
			o.maxMessageLength = length
		}
	}
}

// WithCounters makes the assembler record its activity into counters.
func WithCounters(counters *core.AssemblyCounters) AssemblerOption {
	return func(o *assemblerOptions) {
		o.counters = counters
	}
}

// FragmentAssembler reassembles fragmented messages so that the delegate only sees whole messages.
//
// Unfragmented messages are delegated without copy. Fragments are copied into a buffer owned by
// their session until the END fragment arrives, and the assembled message is delegated with the
// header of that last fragment.
//
// Session buffers are created on the first BEGIN fragment, reused for every following message and
// only freed by DeleteSessionBuffer, which should be called when the session becomes unavailable.
//
// A FragmentAssembler is not safe for concurrent use.
type FragmentAssembler struct {
	delegate            core.FragmentHandler
	builders            map[int32]*bufferbuilder.Builder
	pool                bufferbuilder.Pool
	initialBufferLength int
	maxCapacity         int
	counters            *core.AssemblyCounters
	// delivering is the builder whose message is being handed to the delegate.
	delivering *bufferbuilder.Builder
}

// NewFragmentAssembler returns an assembler forwarding whole messages to delegate.
// It panics if delegate is nil.
func NewFragmentAssembler(delegate core.FragmentHandler, opts ...AssemblerOption) *FragmentAssembler {
	if delegate == nil {
		panic(core.ErrNilHandler)
	}
	o := assemblerOptions{
		initialBufferLength: DefaultInitialBufferLength,
		maxMessageLength:    DefaultMaxMessageLength,
	}
	for _, it := range opts {
		it(&o)
	}
	if o.counters == nil {
		o.counters = core.NewAssemblyCounters()
	}
	return &FragmentAssembler{
		delegate:            delegate,
		builders:            make(map[int32]*bufferbuilder.Builder),
		initialBufferLength: o.initialBufferLength,
		maxCapacity:         o.maxMessageLength + core.HeaderLength,
		counters:            o.counters,
	}
}

// Handler returns OnFragment as a handler suitable for polling a term.
func (p *FragmentAssembler) Handler() core.FragmentHandler {
	return p.OnFragment
}

// OnFragment handles a single frame.
//
// If the delegate fails on a reassembled message, the error is returned and the session buffer is
// left as it is. The message will not be delivered again: the buffer stays in the assembling state
// until the next BEGIN fragment of the session discards it.
func (p *FragmentAssembler) OnFragment(buffer []byte, offset, length int, header *core.Header) error {
	flags := header.Flags()
	if flags.IsUnfragmented() {
		if err := p.deliver(buffer, offset, length, header); err != nil {
			return err
		}
		p.counters.IncUnfragmented()
		return nil
	}
	sessionID := header.SessionID()
	if flags.IsBegin() {
		builder, ok := p.builders[sessionID]
		if !ok {
			builder = bufferbuilder.New(&p.pool, p.initialBufferLength, p.maxCapacity)
			p.builders[sessionID] = builder
		}
		return p.append(builder.Reset(), buffer, offset, length)
	}
	builder, ok := p.builders[sessionID]
	if !ok || builder.IsEmpty() {
		p.counters.IncDropped()
		if logger.IsDebugEnabled() {
			logger.Debugf("drop fragment without BEGIN: %s\n", framedump.Frame(header, buffer[offset:offset+length]))
		}
		return nil
	}
	if err := p.append(builder, buffer, offset, length); err != nil {
		return err
	}
	if !flags.IsEnd() {
		return nil
	}
	limit := builder.Limit()
	msgLength := limit - core.HeaderLength
	p.delivering = builder
	err := p.deliver(builder.Buffer()[:limit], core.HeaderLength, msgLength, header)
	p.delivering = nil
	if p.builders[sessionID] != builder {
		// The delegate evicted the session while reading the message.
		builder.Release()
	} else if err == nil {
		builder.Reset()
	}
	if err != nil {
		return err
	}
	p.counters.IncReassembled(msgLength)
	return nil
}

// DeleteSessionBuffer frees the buffer of a session, if any.
//
// The storage goes back to the pool of the assembler, where the next session to BEGIN may reuse it.
// Storage grown past the initial buffer length is not pooled and is left to the garbage collector.
// Called by the delegate for the session being delivered, the storage is kept until the delegate returns.
func (p *FragmentAssembler) DeleteSessionBuffer(sessionID int32) {
	builder, ok := p.builders[sessionID]
	if !ok {
		return
	}
	delete(p.builders, sessionID)
	if builder != p.delivering {
		builder.Release()
	}
	p.counters.IncEvictions()
	if logger.IsDebugEnabled() {
		logger.Debugf("delete buffer of session %d\n", sessionID)
	}
}

// OnUnavailableImage frees the buffer of a session which will not send anymore.
func (p *FragmentAssembler) OnUnavailableImage(sessionID int32) {
	p.DeleteSessionBuffer(sessionID)
}

// SessionCount returns the number of sessions holding a buffer.
func (p *FragmentAssembler) SessionCount() int {
	return len(p.builders)
}

// IsAssembling returns true if a message of the session is partially assembled.
func (p *FragmentAssembler) IsAssembling(sessionID int32) bool {
	builder, ok := p.builders[sessionID]
	return ok && !builder.IsEmpty()
}

// BorrowedBuffers returns the number of session buffers not yet released.
func (p *FragmentAssembler) BorrowedBuffers() int64 {
	return p.pool.Borrowed()
}

// Counters returns the counters of the assembler.
func (p *FragmentAssembler) Counters() *core.AssemblyCounters {
	return p.counters
}

// Close frees every session buffer.
func (p *FragmentAssembler) Close() error {
	for sessionID := range p.builders {
		p.DeleteSessionBuffer(sessionID)
	}
	return nil
}

func (p *FragmentAssembler) append(builder *bufferbuilder.Builder, buffer []byte, offset, length int) error {
	if err := builder.Append(buffer, offset, length); err != nil {
		p.counters.IncFailures()
		return err
	}
	p.counters.IncBuffered()
	return nil
}

func (p *FragmentAssembler) deliver(buffer []byte, offset, length int, header *core.Header) error {
	if err := p.delegate(buffer, offset, length, header); err != nil {
		p.counters.IncFailures()
		return err
	}
	return nil
}
