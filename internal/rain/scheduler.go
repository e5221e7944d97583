package rain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// State of a Scheduler.
type State int

const (
	Running State = iota
	Stopped
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Stopped:
		return "stopped"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// EventKind tags an Event from the control surface.
type EventKind int

const (
	EventStop EventKind = iota
	EventResize
)

// Event is a request from the control surface, handled at the top of a tick.
type Event struct {
	Kind          EventKind
	Width, Height int
}

// ParameterSource supplies one Params per tick.
type ParameterSource interface {
	Snapshot() (Params, error)
}

// EventSource is drained once per tick.
type EventSource interface {
	PollEvents() []Event
}

// Observer is told how long each tick took and whether it overran.
type Observer interface {
	ObserveTick(d time.Duration, overrun bool)
}

// DefaultInterval is one 60 Hz tick.
const DefaultInterval = time.Second / 60

// Scheduler drives the tick cycle: events, snapshot, engine tick, present.
type Scheduler struct {
	engine     *Engine
	params     ParameterSource
	events     EventSource
	compositor Compositor
	observer   Observer
	logger     *zap.Logger
	interval   time.Duration

	state    State
	last     Params
	ticks    uint64
	now      func() time.Time
	sleepFor func(ctx context.Context, d time.Duration)
}

// SchedulerOption customizes a Scheduler.
type SchedulerOption func(*Scheduler)

// WithInterval sets the target tick interval.
func WithInterval(d time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithObserver reports tick timings.
func WithObserver(o Observer) SchedulerOption {
	return func(s *Scheduler) { s.observer = o }
}

// WithLogger sets the logger for recovered tick failures.
func WithLogger(l *zap.Logger) SchedulerOption {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock replaces time.Now and the inter-tick sleep, for tests.
func WithClock(now func() time.Time, sleep func(ctx context.Context, d time.Duration)) SchedulerOption {
	return func(s *Scheduler) {
		s.now = now
		s.sleepFor = sleep
	}
}

// NewScheduler returns a Running scheduler. events may be nil.
func NewScheduler(e *Engine, params ParameterSource, events EventSource, c Compositor, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		engine:     e,
		params:     params,
		events:     events,
		compositor: c,
		logger:     zap.NewNop(),
		interval:   DefaultInterval,
		state:      Running,
		last:       DefaultParams(),
		now:        time.Now,
		sleepFor:   sleepCtx,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// State reports the current state.
func (s *Scheduler) State() State { return s.state }

// Ticks is the number of completed steps.
func (s *Scheduler) Ticks() uint64 { return s.ticks }

// Stop moves to Stopped and releases the engine buffers. It is idempotent.
func (s *Scheduler) Stop() {
	if s.state == Stopped {
		return
	}
	s.state = Stopped
	s.engine.Release()
	s.logger.Info("scheduler stopped", zap.Uint64("ticks", s.ticks))
}

// Step runs one tick. It returns ErrStopped once the scheduler has stopped,
// including when this very step observed a stop request.
func (s *Scheduler) Step(ctx context.Context) (err error) {
	if s.state == Stopped {
		return ErrStopped
	}
	if ctx.Err() != nil {
		s.Stop()
		return ErrStopped
	}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("tick panicked", zap.Any("panic", r), zap.Uint64("tick", s.ticks))
			err = nil
		}
	}()

	if s.events != nil {
		for _, ev := range s.events.PollEvents() {
			switch ev.Kind {
			case EventStop:
				s.Stop()
				return ErrStopped
			case EventResize:
				if rerr := s.engine.Resize(ev.Width, ev.Height); rerr != nil {
					s.logger.Warn("resize failed, keeping previous buffers",
						zap.Int("width", ev.Width), zap.Int("height", ev.Height), zap.Error(rerr))
				}
			}
		}
	}

	p, perr := s.params.Snapshot()
	if perr != nil {
		s.logger.Warn("parameter snapshot failed, reusing last good", zap.Error(perr))
		p = s.last
	} else {
		s.last = p
	}

	s.engine.Tick(p)
	s.ticks++

	if cerr := s.compositor.Present(s.engine.Trails()); cerr != nil {
		if errors.Is(cerr, ErrViewportLost) {
			s.logger.Error("viewport lost", zap.Error(cerr))
			s.Stop()
			return ErrStopped
		}
		s.logger.Warn("present failed", zap.Error(cerr))
	}
	return nil
}

// Run steps at the configured interval until stopped or ctx is done. A tick
// that overruns is followed immediately by the next; missed ticks are not
// replayed.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("scheduler running", zap.Duration("interval", s.interval))
	for {
		start := s.now()
		if err := s.Step(ctx); err != nil {
			if errors.Is(err, ErrStopped) {
				return nil
			}
			return err
		}
		elapsed := s.now().Sub(start)
		overrun := elapsed >= s.interval
		if s.observer != nil {
			s.observer.ObserveTick(elapsed, overrun)
		}
		if !overrun {
			s.sleepFor(ctx, s.interval-elapsed)
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
