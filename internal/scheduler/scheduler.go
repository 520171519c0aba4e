package scheduler

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"clicker/internal/logging"
)

const (
	MinInterval    = time.Millisecond
	DefaultQuantum = 500 * time.Microsecond
)

// Action is one synthesized input event.
type Action interface {
	Perform() error
}

type ActionFunc func() error

func (f ActionFunc) Perform() error { return f() }

type State int

const (
	Idle State = iota
	Running
)

func (s State) String() string {
	if s == Running {
		return "running"
	}
	return "idle"
}

type Options struct {
	IntervalSeconds float64
	Benchmark       bool
	Logger          *slog.Logger
	Clock           func() time.Time
	Quantum         time.Duration
}

// Scheduler fires an Action on an anchored cadence from a background goroutine.
type Scheduler struct {
	action  Action
	logger  *slog.Logger
	clock   func() time.Time
	quantum time.Duration

	interval  atomic.Int64
	benchmark atomic.Bool
	fired     atomic.Uint64

	mu      sync.Mutex
	running bool
	closed  bool
	stopCh  chan struct{}
	done    chan struct{}

	cbMu      sync.RWMutex
	callbacks []func()
}

func New(action Action, opts Options) (*Scheduler, error) {
	if action == nil {
		return nil, errors.New("scheduler: action is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	quantum := opts.Quantum
	if quantum <= 0 {
		quantum = DefaultQuantum
	}
	s := &Scheduler{
		action:  action,
		logger:  logger.With("component", "scheduler"),
		clock:   clock,
		quantum: quantum,
	}
	s.SetInterval(opts.IntervalSeconds)
	s.benchmark.Store(opts.Benchmark)
	return s, nil
}

// ClampInterval converts seconds to a duration no smaller than MinInterval.
// The bool reports whether the value was raised to the floor.
func ClampInterval(seconds float64) (time.Duration, bool) {
	if math.IsNaN(seconds) || seconds < MinInterval.Seconds() {
		return MinInterval, true
	}
	if seconds >= float64(math.MaxInt64)/float64(time.Second) {
		return time.Duration(math.MaxInt64), false
	}
	d := time.Duration(seconds * float64(time.Second))
	if d < MinInterval {
		return MinInterval, true
	}
	return d, false
}

func (s *Scheduler) SetInterval(seconds float64) {
	d, clamped := ClampInterval(seconds)
	if clamped {
		s.logger.Debug("interval clamped", "requested_seconds", seconds, "interval", d)
	}
	s.interval.Store(int64(d))
}

func (s *Scheduler) Interval() time.Duration {
	return time.Duration(s.interval.Load())
}

func (s *Scheduler) SetBenchmark(on bool) {
	s.benchmark.Store(on)
}

func (s *Scheduler) Benchmark() bool {
	return s.benchmark.Load()
}

// Fired counts successful actions over the scheduler's lifetime.
func (s *Scheduler) Fired() uint64 {
	return s.fired.Load()
}

// RegisterCallback appends fn to the listeners run after every successful action.
func (s *Scheduler) RegisterCallback(fn func()) {
	if fn == nil {
		return
	}
	s.cbMu.Lock()
	defer s.cbMu.Unlock()
	next := make([]func(), len(s.callbacks), len(s.callbacks)+1)
	copy(next, s.callbacks)
	s.callbacks = append(next, fn)
}

func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return Running
	}
	return Idle
}

func (s *Scheduler) Running() bool {
	return s.State() == Running
}

// Start launches the loop unless it is already running. It never blocks.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.startLocked()
}

// Stop asks the loop to exit; it returns without waiting so callbacks may call it.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *Scheduler) Toggle() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		s.stopLocked()
		return Idle
	}
	s.startLocked()
	if !s.running {
		return Idle
	}
	return Running
}

// Close stops the loop and waits for its goroutine to return. Start is a
// no-op afterwards. It must not be called from a registered callback.
func (s *Scheduler) Close() {
	s.mu.Lock()
	s.closed = true
	s.stopLocked()
	done := s.done
	s.mu.Unlock()
	if done != nil {
		<-done
	}
}

func (s *Scheduler) startLocked() {
	if s.running || s.closed {
		return
	}
	prev := s.done
	stop := make(chan struct{})
	done := make(chan struct{})
	s.running = true
	s.stopCh = stop
	s.done = done
	go s.run(prev, stop, done)
}

func (s *Scheduler) stopLocked() {
	if !s.running {
		return
	}
	s.running = false
	close(s.stopCh)
}

func (s *Scheduler) run(prev <-chan struct{}, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	if prev != nil {
		// the previous loop may still be finishing its last tick
		<-prev
	}

	s.logger.Info("action loop started", "benchmark", s.Benchmark(), "interval", s.Interval())
	var (
		fired    uint64
		failures int
	)
	defer func() {
		s.logger.Info("action loop stopped", "fired", fired)
	}()

	timer := time.NewTimer(s.quantum)
	defer timer.Stop()

	next := s.clock()
	for {
		select {
		case <-stop:
			return
		default:
		}

		now := s.clock()
		benchmark := s.benchmark.Load()
		if benchmark || !now.Before(next) {
			if err := s.fire(); err != nil {
				failures++
				if failures == 1 {
					s.logger.Warn("action failed", "error", err)
				} else {
					s.logger.Debug("action failed", "error", err, "streak", failures)
				}
			} else {
				fired++
				if failures > 0 {
					s.logger.Info("action recovered", "dropped", failures)
					failures = 0
				}
			}
			if benchmark {
				next = now.Add(s.Interval())
			} else {
				next = next.Add(s.Interval())
			}
		}

		select {
		case <-stop:
			return
		case <-timer.C:
			timer.Reset(s.quantum)
		}
	}
}

func (s *Scheduler) fire() error {
	if err := s.perform(); err != nil {
		return err
	}
	s.fired.Add(1)

	s.cbMu.RLock()
	callbacks := s.callbacks
	s.cbMu.RUnlock()
	for i, fn := range callbacks {
		s.invoke(i, fn)
	}
	return nil
}

func (s *Scheduler) perform() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("action panicked: %v", r)
		}
	}()
	return s.action.Perform()
}

func (s *Scheduler) invoke(index int, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Debug("callback failed", "index", index, "panic", r)
		}
	}()
	fn()
}
