// Package controller owns the client-side lifecycle of one analysis job:
// session creation, job start, progress polling, failure surfacing, reset and
// the hand-off to result presentation.
//
// All state lives behind one mutex. Every submission gets an epoch; network
// responses are applied only if their epoch is still current, so a response
// that arrives after a reset is dropped rather than applied to the new state.
package controller

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/fakeyudi/hats/internal/hats"
	"github.com/fakeyudi/hats/internal/session"
)

// DefaultPollInterval is the fixed progress polling period.
const DefaultPollInterval = 2000 * time.Millisecond

// User-facing failure messages.
const (
	MsgCreateFailed  = "Failed to create session"
	MsgStartFailed   = "Failed to start analysis"
	MsgResultsFailed = "Analysis completed but results could not be retrieved"
	MsgJobFailed     = "Analysis failed"
)

// ErrBusy is returned by Submit while a job is initiated or processing.
var ErrBusy = errors.New("an analysis is already in progress")

// JobClient is the remote service as the controller sees it.
type JobClient interface {
	CreateSession(ctx context.Context, in session.Input) (string, error)
	StartAnalysis(ctx context.Context, id string) error
	FetchProgress(ctx context.Context, id string) (session.Progress, error)
	FetchResults(ctx context.Context, id string) (*session.ResultBundle, error)
}

// Option customizes a Controller.
type Option func(*Controller)

// WithPollInterval overrides DefaultPollInterval.
func WithPollInterval(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.interval = d
		}
	}
}

// WithLogger sets the logger for lifecycle and poll events.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Controller) { c.log = l }
}

// pollLoop is the handle of the running poll goroutine.
type pollLoop struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Controller is the session state machine.
type Controller struct {
	client   JobClient
	interval time.Duration
	log      zerolog.Logger

	mu      sync.Mutex
	state   session.Snapshot
	epoch   uint64
	loop    *pollLoop
	changed chan struct{} // closed and replaced on every state change or delivery
	subs    map[int]func(session.Snapshot)
	nextSub int
	closed  bool

	// Snapshots waiting for subscribers, drained by one delivery goroutine
	// at a time.
	queue      []session.Snapshot
	delivering bool
	delivered  uint64
}

// New returns an idle Controller.
func New(client JobClient, opts ...Option) *Controller {
	c := &Controller{
		client:   client,
		interval: DefaultPollInterval,
		log:      zerolog.Nop(),
		state:    session.Snapshot{Status: session.StatusIdle},
		changed:  make(chan struct{}),
		subs:     make(map[int]func(session.Snapshot)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() session.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Subscribe registers fn to receive every new state. Snapshots are delivered
// one at a time in Revision order from a delivery goroutine, never from the
// poll loop, so fn may call Submit, EditPrevious or StartNew. fn must not
// call Wait. The returned func unregisters fn.
func (c *Controller) Subscribe(fn func(session.Snapshot)) (cancel func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subs, id)
	}
}

// Wait blocks until the current run is settled (results stored, failed, or
// idle) or ctx is done. Once settled it also waits until subscribers have
// seen that state and the poll loop has exited.
func (c *Controller) Wait(ctx context.Context) (session.Snapshot, error) {
	for {
		c.mu.Lock()
		snap := c.snapshotLocked()
		ch := c.changed
		loop := c.loop
		seen := c.delivered >= snap.Revision
		c.mu.Unlock()

		if snap.Settled() && seen {
			if loop == nil {
				return snap, nil
			}
			select {
			case <-ctx.Done():
				return snap, ctx.Err()
			case <-loop.done:
				return snap, nil
			}
		}
		select {
		case <-ctx.Done():
			return snap, ctx.Err()
		case <-ch:
		}
	}
}

// Submit starts a new analysis for in. It returns ErrBusy while another
// job is active; every other failure is reported through the state, never
// as an error. Submit blocks for the create and start requests; polling
// continues in the background after it returns.
func (c *Controller) Submit(ctx context.Context, in session.Input) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return errors.New("controller closed")
	}
	if c.state.Status.Active() {
		c.mu.Unlock()
		return ErrBusy
	}
	old := c.detachLoopLocked()
	c.epoch++
	epoch := c.epoch
	c.state = session.Snapshot{
		Status:   session.StatusInitiated,
		Input:    in,
		Revision: c.state.Revision,
	}
	start := c.commitLocked()
	c.mu.Unlock()
	old.stop()
	c.publish(start)

	log := c.log.With().Uint64("epoch", epoch).Logger()

	id, err := c.client.CreateSession(ctx, in)
	if err != nil {
		log.Error().Err(err).Msg("create session failed")
		c.fail(epoch, MsgCreateFailed)
		return nil
	}
	if !c.apply(epoch, func(s *session.Snapshot) { s.SessionID = id }) {
		return nil
	}
	log = log.With().Str("session_id", id).Logger()
	log.Info().Msg("session created")

	if err := c.client.StartAnalysis(ctx, id); err != nil {
		log.Error().Err(err).Msg("start analysis failed")
		c.fail(epoch, MsgStartFailed)
		return nil
	}

	c.mu.Lock()
	if c.epoch != epoch || c.closed {
		c.mu.Unlock()
		return nil
	}
	loopCtx, cancel := context.WithCancel(context.Background())
	loop := &pollLoop{cancel: cancel, done: make(chan struct{})}
	c.loop = loop
	c.state.PollActive = true
	start = c.commitLocked()
	c.mu.Unlock()
	c.publish(start)

	log.Info().Dur("interval", c.interval).Msg("analysis started, polling")
	go c.run(loopCtx, loop, epoch, id, log)
	return nil
}

// EditPrevious stops any active poll loop and returns to idle, keeping the
// last entered input for re-editing.
func (c *Controller) EditPrevious() {
	c.reset(true)
}

// StartNew stops any active poll loop and returns to a fresh idle state.
func (c *Controller) StartNew() {
	c.reset(false)
}

// Close stops the poll loop. It is safe to call more than once.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.epoch++
	old := c.detachLoopLocked()
	c.mu.Unlock()
	old.stop()
}

func (c *Controller) reset(keepInput bool) {
	c.mu.Lock()
	c.epoch++
	old := c.detachLoopLocked()
	next := session.Snapshot{Status: session.StatusIdle, Revision: c.state.Revision}
	if keepInput {
		next.Input = c.state.Input
	}
	c.state = next
	start := c.commitLocked()
	c.mu.Unlock()

	// The epoch has moved on, so anything the old loop still receives is
	// discarded; joining it here keeps at most one loop alive.
	old.stop()
	c.publish(start)
}

// run is the poll loop for one submission.
func (c *Controller) run(ctx context.Context, loop *pollLoop, epoch uint64, id string, log zerolog.Logger) {
	defer close(loop.done)
	defer c.releaseLoop(loop)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !c.tick(ctx, epoch, id, log) {
				return
			}
		}
	}
}

// tick performs one progress poll and reports whether polling continues.
func (c *Controller) tick(ctx context.Context, epoch uint64, id string, log zerolog.Logger) bool {
	p, err := c.client.FetchProgress(ctx, id)
	if ctx.Err() != nil {
		return false
	}
	if err != nil {
		// A single flaky tick is not surfaced; the next tick retries.
		log.Warn().Err(err).Msg("progress poll failed")
		return true
	}

	switch p.Status {
	case session.StatusCompleted:
		// Status stays as it was until the results are in hand, so that
		// completed always comes with results.
		if !c.apply(epoch, func(s *session.Snapshot) {
			s.ErrorMessage = p.ErrorMessage
			s.Completed = allIfEmpty(p.Completed)
			s.PollActive = false
		}) {
			return false
		}
		c.fetchResults(ctx, epoch, id, log)
		return false

	case session.StatusFailed:
		msg := p.ErrorMessage
		if msg == "" {
			msg = MsgJobFailed
		}
		log.Warn().Str("error_message", msg).Msg("analysis failed")
		c.apply(epoch, func(s *session.Snapshot) {
			s.Status = session.StatusFailed
			s.ErrorMessage = msg
			s.Completed = p.Completed
			s.PollActive = false
		})
		return false

	default:
		return c.apply(epoch, func(s *session.Snapshot) {
			// A late or reordered response must not move the status back.
			if p.Status.Rank() > s.Status.Rank() {
				s.Status = p.Status
			}
			s.ErrorMessage = p.ErrorMessage
			s.Completed = p.Completed
		})
	}
}

func (c *Controller) fetchResults(ctx context.Context, epoch uint64, id string, log zerolog.Logger) {
	b, err := c.client.FetchResults(ctx, id)
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("results fetch failed after completion")
		c.fail(epoch, MsgResultsFailed)
		return
	}
	log.Info().Int("perspectives", len(b.Available())).Bool("partial", b.Partial()).Msg("results received")
	c.apply(epoch, func(s *session.Snapshot) {
		s.Status = session.StatusCompleted
		s.Results = b
		s.ErrorMessage = b.ErrorMessage
	})
}

func (c *Controller) fail(epoch uint64, msg string) {
	c.apply(epoch, func(s *session.Snapshot) {
		s.Status = session.StatusFailed
		s.ErrorMessage = msg
		s.PollActive = false
	})
}

// apply runs mutate against the state if epoch is still current and
// publishes the result. It reports whether the epoch was current.
func (c *Controller) apply(epoch uint64, mutate func(*session.Snapshot)) bool {
	c.mu.Lock()
	if c.epoch != epoch {
		c.mu.Unlock()
		return false
	}
	mutate(&c.state)
	start := c.commitLocked()
	c.mu.Unlock()
	c.publish(start)
	return true
}

// releaseLoop clears the loop handle when the loop exits on its own.
func (c *Controller) releaseLoop(loop *pollLoop) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loop == loop {
		c.loop = nil
		c.state.PollActive = false
	}
}

// detachLoopLocked cancels the current loop and hands it back for joining
// once the lock is released.
func (c *Controller) detachLoopLocked() *pollLoop {
	loop := c.loop
	c.loop = nil
	if loop != nil {
		loop.cancel()
	}
	return loop
}

func (l *pollLoop) stop() {
	if l == nil {
		return
	}
	l.cancel()
	<-l.done
}

// commitLocked bumps the revision, wakes waiters and queues the new state
// for subscribers. It reports whether the caller must start a delivery
// goroutine once the lock is released.
func (c *Controller) commitLocked() bool {
	c.state.Revision++
	c.state.UpdatedAt = time.Now()
	c.wakeLocked()

	c.queue = append(c.queue, c.snapshotLocked())
	if c.delivering {
		return false
	}
	c.delivering = true
	return true
}

func (c *Controller) wakeLocked() {
	close(c.changed)
	c.changed = make(chan struct{})
}

func (c *Controller) snapshotLocked() session.Snapshot {
	s := c.state
	if s.Completed != nil {
		s.Completed = append([]hats.Perspective(nil), s.Completed...)
	}
	return s
}

func (c *Controller) publish(start bool) {
	if start {
		go c.deliver()
	}
}

// deliver hands queued snapshots to subscribers until the queue is empty.
func (c *Controller) deliver() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for len(c.queue) > 0 {
		snap := c.queue[0]
		c.queue = c.queue[1:]
		subs := make([]func(session.Snapshot), 0, len(c.subs))
		for _, fn := range c.subs {
			subs = append(subs, fn)
		}

		c.mu.Unlock()
		for _, fn := range subs {
			fn(snap)
		}
		c.mu.Lock()

		c.delivered = snap.Revision
		c.wakeLocked()
	}
	c.queue = nil
	c.delivering = false
}

// allIfEmpty fills in the completed list when a service reports completion
// without per-hat detail.
func allIfEmpty(ps []hats.Perspective) []hats.Perspective {
	if len(ps) > 0 {
		return ps
	}
	return hats.Order[:]
}
