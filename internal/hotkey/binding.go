package hotkey

import (
	"fmt"
	"log/slog"
	"sync"

	"clicker/internal/keys"
	"clicker/internal/logging"
)

type State int

const (
	Unbound State = iota
	Bound
)

func (s State) String() string {
	if s == Bound {
		return "bound"
	}
	return "unbound"
}

// Binding associates one global key combination with a callback and can be
// rebound while live.
type Binding struct {
	listener Listener
	callback func()
	logger   *slog.Logger

	mu         sync.Mutex
	descriptor string
	reg        Registration
}

// NewBinding tries to install descriptor right away. A failure is logged and
// leaves the binding Unbound until Change succeeds.
func NewBinding(listener Listener, descriptor string, callback func(), logger *slog.Logger) *Binding {
	if logger == nil {
		logger = logging.Discard()
	}
	if callback == nil {
		callback = func() {}
	}
	b := &Binding{
		listener: listener,
		callback: callback,
		logger:   logger.With("component", "hotkey"),
	}
	_ = b.Change(descriptor)
	return b
}

// Change tears down the current listener and installs descriptor in its place.
func (b *Binding) Change(descriptor string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.releaseLocked()
	b.descriptor = descriptor

	combo, err := keys.Parse(descriptor)
	if err != nil {
		b.logger.Error("hotkey registration failed", "hotkey", descriptor, "error", err)
		return fmt.Errorf("parse hotkey %q: %w", descriptor, err)
	}
	if b.listener == nil {
		err := fmt.Errorf("register hotkey %q: %w", descriptor, ErrUnsupported)
		b.logger.Error("hotkey registration failed", "hotkey", descriptor, "error", err)
		return err
	}
	reg, err := b.listener.Register(combo, b.callback)
	if err != nil {
		b.logger.Error("hotkey registration failed", "hotkey", combo.String(), "error", err)
		return fmt.Errorf("register hotkey %q: %w", descriptor, err)
	}
	b.reg = reg
	b.logger.Info("registered hotkey", "hotkey", combo.String())
	return nil
}

// Stop removes the listener if one is installed. Safe to call repeatedly.
func (b *Binding) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.releaseLocked()
}

func (b *Binding) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.reg != nil {
		return Bound
	}
	return Unbound
}

// Descriptor returns the last requested descriptor, bound or not.
func (b *Binding) Descriptor() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.descriptor
}

func (b *Binding) releaseLocked() {
	if b.reg == nil {
		return
	}
	if err := b.reg.Unregister(); err != nil {
		b.logger.Warn("hotkey unregister failed", "hotkey", b.descriptor, "error", err)
	}
	b.reg = nil
}
