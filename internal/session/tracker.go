// Package session detects sessions which stopped sending.
package session

import (
	"container/heap"
	"fmt"
	"time"
)

type image struct {
	index     int
	sessionID int32
	deadline  time.Time
}

func (p *image) String() string {
	return fmt.Sprintf("Image{session=%d,deadline=%d}", p.sessionID, p.deadline.UnixNano())
}

// Tracker keeps the deadline of every active session and reports the sessions whose deadline
// elapsed without activity. It is not safe for concurrent use.
type Tracker struct {
	h             *deadlineHeap
	m             map[int32]*image
	timeout       time.Duration
	onUnavailable func(sessionID int32)
}

// NewTracker returns a tracker declaring a session unavailable after timeout without activity.
func NewTracker(timeout time.Duration, onUnavailable func(sessionID int32)) *Tracker {
	return &Tracker{
		h:             &deadlineHeap{},
		m:             make(map[int32]*image),
		timeout:       timeout,
		onUnavailable: onUnavailable,
	}
}

// Len returns size of sessions in current tracker.
func (p *Tracker) Len() int {
	return len(*p.h)
}

// Touch records activity of a session at now.
func (p *Tracker) Touch(sessionID int32, now time.Time) {
	deadline := now.Add(p.timeout)
	if img, ok := p.m[sessionID]; ok {
		img.deadline = deadline
		heap.Fix(p.h, img.index)
		return
	}
	img := &image{
		sessionID: sessionID,
		deadline:  deadline,
	}
	heap.Push(p.h, img)
	p.m[sessionID] = img
}

// Deadline returns the time after which the session is declared unavailable.
func (p *Tracker) Deadline(sessionID int32) (deadline time.Time, ok bool) {
	img, ok := p.m[sessionID]
	if ok {
		deadline = img.deadline
	}
	return
}

// Remove stops tracking a session without reporting it.
func (p *Tracker) Remove(sessionID int32) (ok bool) {
	img, ok := p.m[sessionID]
	if ok && img.index > -1 {
		heap.Remove(p.h, img.index)
		delete(p.m, sessionID)
	}
	return
}

// Sweep reports every session whose deadline is before now and stops tracking it.
func (p *Tracker) Sweep(now time.Time) (n int) {
	for {
		earliest := p.h.earliest()
		if earliest == nil || !earliest.deadline.Before(now) {
			break
		}
		heap.Pop(p.h)
		delete(p.m, earliest.sessionID)
		n++
		if p.onUnavailable != nil {
			p.onUnavailable(earliest.sessionID)
		}
	}
	return
}
