// Package logbuf reassembles messages that a log-buffer transport delivered as several frames.
//
// Frames of a fragmented message are tagged BEGIN, MIDDLE or END and are interleaved per session.
// A FragmentAssembler sits between the poll loop and the application handler so that the handler
// only receives whole messages.
package logbuf

// Version is the version of logbuf.
const Version = "0.1.0"
