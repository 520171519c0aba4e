package app

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"

	"clicker/internal/config"
	"clicker/internal/hotkey"
	"clicker/internal/logging"
	"clicker/internal/scheduler"
)

var ErrClosed = errors.New("app closed")

type App struct {
	cfg      config.Config
	sched    *scheduler.Scheduler
	listener hotkey.Listener
	logger   *slog.Logger

	outMu sync.Mutex
	out   io.Writer

	clicks atomic.Uint64

	stopCh chan struct{}

	mu      sync.Mutex
	started bool
	closed  bool
	toggle  *hotkey.Binding
	stop    *hotkey.Binding
	wg      sync.WaitGroup
}

// New wires action into a scheduler configured from cfg. listener may be nil,
// in which case hotkeys stay unbound and only the console can drive the app.
func New(cfg config.Config, action scheduler.Action, listener hotkey.Listener, logger *slog.Logger, out io.Writer) (*App, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	if out == nil {
		out = io.Discard
	}
	sched, err := scheduler.New(action, scheduler.Options{
		IntervalSeconds: cfg.Interval,
		Benchmark:       cfg.Benchmark,
		Logger:          logger,
	})
	if err != nil {
		return nil, err
	}
	return &App{
		cfg:      cfg,
		sched:    sched,
		listener: listener,
		logger:   logger.With("component", "app"),
		out:      out,
		stopCh:   make(chan struct{}),
	}, nil
}

func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return ErrClosed
	}
	if a.started {
		return nil
	}
	a.started = true

	a.sched.RegisterCallback(func() { a.clicks.Add(1) })

	a.toggle = hotkey.NewBinding(a.listener, a.cfg.Hotkey, a.onToggle, a.logger)
	if strings.TrimSpace(a.cfg.StopHotkey) != "" {
		a.stop = hotkey.NewBinding(a.listener, a.cfg.StopHotkey, a.onStop, a.logger)
	}

	if every := secondsToDuration(a.cfg.StatusInterval); every > 0 {
		a.wg.Add(1)
		go a.reportStatus(every)
	}

	if a.cfg.AutoStart {
		a.sched.Start()
		a.logger.Info("auto start", "interval", a.sched.Interval(), "benchmark", a.sched.Benchmark())
	}

	if a.toggle.State() != hotkey.Bound {
		return fmt.Errorf("toggle hotkey %q is not bound", a.cfg.Hotkey)
	}
	return nil
}

func (a *App) Close() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.closed = true
	close(a.stopCh)
	if a.toggle != nil {
		a.toggle.Stop()
	}
	if a.stop != nil {
		a.stop.Stop()
	}
	a.mu.Unlock()

	a.sched.Close()
	a.wg.Wait()
	a.logger.Info("closed", "clicks", a.clicks.Load())
}

func (a *App) onToggle() {
	state := a.sched.Toggle()
	a.logger.Info("hotkey toggled", "state", state.String())
}

func (a *App) onStop() {
	a.sched.Stop()
	a.logger.Info("hotkey stop")
}

func (a *App) StartFiring() {
	a.sched.Start()
}

func (a *App) StopFiring() {
	a.sched.Stop()
}

func (a *App) Toggle() scheduler.State {
	return a.sched.Toggle()
}

func (a *App) SetInterval(seconds float64) time.Duration {
	a.sched.SetInterval(seconds)
	return a.sched.Interval()
}

func (a *App) SetBenchmark(on bool) {
	a.sched.SetBenchmark(on)
}

// ChangeHotkey rebinds the toggle hotkey. On failure the binding is left
// unbound and the error is returned.
func (a *App) ChangeHotkey(descriptor string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return ErrClosed
	}
	if a.toggle == nil {
		a.toggle = hotkey.NewBinding(a.listener, descriptor, a.onToggle, a.logger)
		if a.toggle.State() != hotkey.Bound {
			return fmt.Errorf("toggle hotkey %q is not bound", descriptor)
		}
		return nil
	}
	return a.toggle.Change(descriptor)
}

func (a *App) Clicks() uint64 {
	return a.clicks.Load()
}

func (a *App) State() scheduler.State {
	return a.sched.State()
}

// Summary renders the one-line status shown by the reporter and the console.
func (a *App) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s clicks=%s interval=%s",
		a.sched.State(), humanize.Comma(int64(a.clicks.Load())), a.sched.Interval())
	if a.sched.Benchmark() {
		b.WriteString(" benchmark=on")
	}

	a.mu.Lock()
	toggle := a.toggle
	a.mu.Unlock()
	if toggle != nil {
		fmt.Fprintf(&b, " hotkey=%s(%s)", toggle.Descriptor(), toggle.State())
	}
	return b.String()
}

func (a *App) reportStatus(every time.Duration) {
	defer a.wg.Done()
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	var (
		lastClicks uint64
		lastState  scheduler.State
		printed    bool
	)
	for {
		select {
		case <-a.stopCh:
			return
		case <-ticker.C:
			clicks, state := a.clicks.Load(), a.sched.State()
			if printed && clicks == lastClicks && state == lastState {
				continue
			}
			lastClicks, lastState, printed = clicks, state, true
			a.printf("[status] %s\n", a.Summary())
		}
	}
}

func (a *App) printf(format string, args ...any) {
	a.outMu.Lock()
	defer a.outMu.Unlock()
	fmt.Fprintf(a.out, format, args...)
}

func secondsToDuration(seconds float64) time.Duration {
	if seconds <= 0 {
		return 0
	}
	return time.Duration(seconds * float64(time.Second))
}
