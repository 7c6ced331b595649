package main

import (
	"bytes"
	"context"
	"sync"
	"time"

	"github.com/logbuf/logbuf-go"
	"github.com/logbuf/logbuf-go/core"
	"github.com/logbuf/logbuf-go/internal/logbuffer"
	"github.com/logbuf/logbuf-go/internal/session"
	"github.com/panjf2000/ants"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Report is the outcome of one subscription.
type Report struct {
	Subscription int
	Published    int
	Delivered    int
	Unavailable  int
	Counters     core.AssemblySnapshot
}

// Runner publishes synthetic messages and polls them back through fragment assemblers.
type Runner struct {
	cfg *Config
	log *zap.Logger
}

// NewRunner returns a runner for cfg.
func NewRunner(cfg *Config, log *zap.Logger) *Runner {
	return &Runner{
		cfg: cfg,
		log: log,
	}
}

// Run replays every subscription on a worker pool and returns their reports.
func (p *Runner) Run(ctx context.Context) (reports []Report, err error) {
	pool, err := ants.NewPool(p.cfg.Subscriptions)
	if err != nil {
		return nil, errors.Wrap(err, "create worker pool failed")
	}
	defer func() {
		_ = pool.Release()
	}()

	reports = make([]Report, p.cfg.Subscriptions)
	errs := make([]error, p.cfg.Subscriptions)
	wg := sync.WaitGroup{}
	for i := 0; i < p.cfg.Subscriptions; i++ {
		idx := i
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			reports[idx], errs[idx] = p.replay(ctx, idx)
		})
		if submitErr != nil {
			wg.Done()
			errs[idx] = errors.Wrapf(submitErr, "submit subscription %d failed", idx)
		}
	}
	wg.Wait()
	err = multierr.Combine(errs...)
	return
}

// pollTick is the virtual time spent by one turn over all images.
const pollTick = time.Millisecond

type publisher struct {
	image    *logbuffer.Image
	expected []int
	next     int
}

func payloadOf(sessionID int32, seq, length int) []byte {
	b := make([]byte, length)
	for i := range b {
		b[i] = byte(int(sessionID)*31 + seq*7 + i)
	}
	return b
}

func (p *Runner) replay(ctx context.Context, subscription int) (report Report, err error) {
	report.Subscription = subscription
	log := p.log.With(zap.Int("subscription", subscription))
	streamID := int32(subscription + 1)

	publishers := make(map[int32]*publisher, p.cfg.Sessions)
	images := make([]*logbuffer.Image, 0, p.cfg.Sessions)
	for s := 0; s < p.cfg.Sessions; s++ {
		sessionID := int32(subscription<<16 | (s + 1))
		term := make([]byte, p.cfg.TermLength)
		appender := logbuffer.NewTermAppender(term, 0, sessionID, streamID)
		pub := &publisher{
			image: logbuffer.NewImage(term, sessionID, 0),
		}
		for m := 0; m < p.cfg.Messages; m++ {
			_, err = appender.Append(payloadOf(sessionID, m, p.cfg.MessageLength), p.cfg.MTU)
			if errors.Cause(err) == core.ErrTermFull {
				log.Warn("term is full", zap.Int32("session", sessionID), zap.Int("published", m))
				err = nil
				break
			}
			if err != nil {
				return
			}
			pub.expected = append(pub.expected, m)
		}
		report.Published += len(pub.expected)
		publishers[sessionID] = pub
		images = append(images, pub.image)
	}

	assembler := logbuf.NewFragmentAssembler(func(buffer []byte, offset, length int, header *core.Header) error {
		pub, ok := publishers[header.SessionID()]
		if !ok {
			return errors.Errorf("message from unknown session %d", header.SessionID())
		}
		if pub.next >= len(pub.expected) {
			return errors.Errorf("session %d delivered more than %d messages", header.SessionID(), len(pub.expected))
		}
		seq := pub.expected[pub.next]
		if !bytes.Equal(payloadOf(header.SessionID(), seq, p.cfg.MessageLength), buffer[offset:offset+length]) {
			return errors.Errorf("session %d message %d: bad payload of %d bytes", header.SessionID(), seq, length)
		}
		pub.next++
		report.Delivered++
		return nil
	},
		logbuf.WithInitialBufferLength(p.cfg.InitialBufferLength),
		logbuf.WithMaxMessageLength(p.cfg.MaxMessageLength),
	)
	defer func() {
		_ = assembler.Close()
	}()

	// The clock only moves with the poll loop so idle detection does not depend on scheduling.
	now := time.Unix(0, 0)
	tracker := session.NewTracker(p.cfg.IdleTimeout, func(sessionID int32) {
		report.Unavailable++
		log.Debug("session unavailable", zap.Int32("session", sessionID))
		assembler.OnUnavailableImage(sessionID)
	})
	handler := func(buffer []byte, offset, length int, header *core.Header) error {
		tracker.Touch(header.SessionID(), now)
		return assembler.OnFragment(buffer, offset, length, header)
	}

	for {
		if err = ctx.Err(); err != nil {
			return
		}
		var polled int
		for _, image := range images {
			var n int
			n, err = image.Poll(handler, p.cfg.FragmentLimit)
			if err != nil {
				err = errors.Wrapf(err, "poll session %d failed", image.SessionID())
				return
			}
			polled += n
		}
		now = now.Add(pollTick)
		tracker.Sweep(now)
		if polled == 0 {
			break
		}
	}
	tracker.Sweep(now.Add(p.cfg.IdleTimeout + pollTick))

	for sessionID, pub := range publishers {
		if pub.next != len(pub.expected) {
			err = multierr.Append(err, errors.Errorf("session %d delivered %d of %d messages", sessionID, pub.next, len(pub.expected)))
		}
	}
	if assembler.SessionCount() != 0 {
		err = multierr.Append(err, errors.Errorf("%d session buffers left after sweep", assembler.SessionCount()))
	}
	if n := assembler.BorrowedBuffers(); n != 0 {
		err = multierr.Append(err, errors.Errorf("%d session buffers not released", n))
	}
	report.Counters = assembler.Counters().Snapshot()
	log.Info("subscription replayed",
		zap.Int("published", report.Published),
		zap.Int("delivered", report.Delivered),
		zap.Int("unavailable", report.Unavailable),
		zap.Uint64("unfragmented", report.Counters.Unfragmented),
		zap.Uint64("reassembled", report.Counters.Reassembled),
		zap.Uint64("buffered", report.Counters.Buffered),
		zap.Uint64("dropped", report.Counters.Dropped),
		zap.Uint64("assembled_bytes", report.Counters.AssembledBytes),
	)
	return
}
