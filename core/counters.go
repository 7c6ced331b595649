package core

import (
	"go.uber.org/atomic"
)

// AssemblyCounters counts what a fragment assembler did with the frames it was given.
// Counters may be read from any goroutine.
type AssemblyCounters struct {
	unfragmented, reassembled, buffered, dropped, failures, evictions *atomic.Uint64
	assembledBytes                                                    *atomic.Uint64
}

// AssemblySnapshot is a point-in-time copy of AssemblyCounters.
type AssemblySnapshot struct {
	Unfragmented   uint64
	Reassembled    uint64
	Buffered       uint64
	Dropped        uint64
	Failures       uint64
	Evictions      uint64
	AssembledBytes uint64
}

// Unfragmented returns the number of messages passed through without copy.
func (p *AssemblyCounters) Unfragmented() uint64 {
	return p.unfragmented.Load()
}

// Reassembled returns the number of messages delivered from fragments.
func (p *AssemblyCounters) Reassembled() uint64 {
	return p.reassembled.Load()
}

// Buffered returns the number of fragments copied into session buffers.
func (p *AssemblyCounters) Buffered() uint64 {
	return p.buffered.Load()
}

// Dropped returns the number of fragments ignored because no message was being assembled.
func (p *AssemblyCounters) Dropped() uint64 {
	return p.dropped.Load()
}

// Failures returns the number of failed deliveries or appends.
func (p *AssemblyCounters) Failures() uint64 {
	return p.failures.Load()
}

// Evictions returns the number of session buffers deleted.
func (p *AssemblyCounters) Evictions() uint64 {
	return p.evictions.Load()
}

// AssembledBytes returns the total length of reassembled messages.
func (p *AssemblyCounters) AssembledBytes() uint64 {
	return p.assembledBytes.Load()
}

// IncUnfragmented increases unfragmented messages.
func (p *AssemblyCounters) IncUnfragmented() {
	p.unfragmented.Inc()
}

// IncReassembled increases reassembled messages and their bytes.
func (p *AssemblyCounters) IncReassembled(n int) {
	p.reassembled.Inc()
	p.assembledBytes.Add(uint64(n))
}

// IncBuffered increases buffered fragments.
func (p *AssemblyCounters) IncBuffered() {
	p.buffered.Inc()
}

// IncDropped increases dropped fragments.
func (p *AssemblyCounters) IncDropped() {
	p.dropped.Inc()
}

// IncFailures increases failures.
func (p *AssemblyCounters) IncFailures() {
	p.failures.Inc()
}

// IncEvictions increases evictions.
func (p *AssemblyCounters) IncEvictions() {
	p.evictions.Inc()
}

// Snapshot copies all counters.
func (p *AssemblyCounters) Snapshot() AssemblySnapshot {
	return AssemblySnapshot{
		Unfragmented:   p.unfragmented.Load(),
		Reassembled:    p.reassembled.Load(),
		Buffered:       p.buffered.Load(),
		Dropped:        p.dropped.Load(),
		Failures:       p.failures.Load(),
		Evictions:      p.evictions.Load(),
		AssembledBytes: p.assembledBytes.Load(),
	}
}

// NewAssemblyCounters returns a new counter.
func NewAssemblyCounters() *AssemblyCounters {
	return &AssemblyCounters{
		unfragmented:   atomic.NewUint64(0),
		reassembled:    atomic.NewUint64(0),
		buffered:       atomic.NewUint64(0),
		dropped:        atomic.NewUint64(0),
		failures:       atomic.NewUint64(0),
		evictions:      atomic.NewUint64(0),
		assembledBytes: atomic.NewUint64(0),
	}
}
