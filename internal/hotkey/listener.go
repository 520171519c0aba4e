package hotkey

import (
	"errors"
	"log/slog"
	"runtime"
	"sync"

	"clicker/internal/keys"
	"clicker/internal/logging"
)

var ErrUnsupported = errors.New("hotkey backend not supported on this platform")

// Listener installs global hotkeys. Callbacks run on a goroutine owned by
// the listener, never on the OS hook thread.
type Listener interface {
	Register(combo keys.Combo, fn func()) (Registration, error)
	Close() error
}

type Registration interface {
	Unregister() error
}

type Options struct {
	UseHook bool
	Logger  *slog.Logger
}

// NewListener returns the native RegisterHotKey backend on Windows and the
// gohook backend elsewhere or when UseHook is set.
func NewListener(opts Options) (Listener, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	logger = logger.With("component", "hotkey")
	if runtime.GOOS == "windows" && !opts.UseHook {
		return newNativeListener(logger)
	}
	return newHookListener(logger), nil
}

// reapLate waits for a registration that outlived its timeout and runs
// teardown if it succeeded after all, so no hotkey stays live behind an
// Unbound binding.
func reapLate(result <-chan error, teardown func()) {
	if err := <-result; err == nil {
		teardown()
	}
}

// dispatcher serialises callbacks off the hook thread.
type dispatcher struct {
	logger *slog.Logger
	events chan func()
	stopCh chan struct{}
	once   sync.Once
	wg     sync.WaitGroup
}

func newDispatcher(logger *slog.Logger) *dispatcher {
	d := &dispatcher{
		logger: logger,
		events: make(chan func(), 32),
		stopCh: make(chan struct{}),
	}
	d.wg.Add(1)
	go d.run()
	return d
}

func (d *dispatcher) run() {
	defer d.wg.Done()
	for {
		select {
		case <-d.stopCh:
			return
		case fn := <-d.events:
			d.invoke(fn)
		}
	}
}

func (d *dispatcher) invoke(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("hotkey callback panicked", "panic", r)
		}
	}()
	fn()
}

// emit never blocks the caller; presses beyond the buffer are dropped.
func (d *dispatcher) emit(fn func()) {
	select {
	case <-d.stopCh:
		return
	default:
	}
	select {
	case d.events <- fn:
	default:
		d.logger.Debug("hotkey queue full, dropped press")
	}
}

func (d *dispatcher) close() {
	d.once.Do(func() {
		close(d.stopCh)
	})
	d.wg.Wait()
}
