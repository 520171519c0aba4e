package app

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"clicker/internal/config"
	"clicker/internal/hotkey"
	"clicker/internal/keys"
	"clicker/internal/scheduler"
)

type countingAction struct {
	calls atomic.Int64
}

func (c *countingAction) Perform() error {
	c.calls.Add(1)
	return nil
}

type fakeListener struct {
	mu     sync.Mutex
	active map[string]func()
	reject map[string]bool
}

func newFakeListener() *fakeListener {
	return &fakeListener{active: make(map[string]func()), reject: make(map[string]bool)}
}

type fakeRegistration struct {
	owner *fakeListener
	key   string
}

func (f *fakeListener) Register(combo keys.Combo, fn func()) (hotkey.Registration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.reject[combo.String()] {
		return nil, errors.New("already registered by another program")
	}
	f.active[combo.String()] = fn
	return &fakeRegistration{owner: f, key: combo.String()}, nil
}

func (r *fakeRegistration) Unregister() error {
	r.owner.mu.Lock()
	defer r.owner.mu.Unlock()
	delete(r.owner.active, r.key)
	return nil
}

func (f *fakeListener) Close() error { return nil }

func (f *fakeListener) press(combo string) bool {
	f.mu.Lock()
	fn, ok := f.active[combo]
	f.mu.Unlock()
	if ok {
		fn()
	}
	return ok
}

func (f *fakeListener) bound(combo string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.active[combo]
	return ok
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func baseConfig() config.Config {
	cfg := config.Default()
	cfg.Interval = 0.005
	cfg.Hotkey = "F6"
	cfg.StatusInterval = 0
	return cfg
}

func newTestApp(t *testing.T, cfg config.Config, l hotkey.Listener, out *syncBuffer) (*App, *countingAction) {
	t.Helper()
	action := &countingAction{}
	if out == nil {
		out = &syncBuffer{}
	}
	a, err := New(cfg, action, l, nil, out)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(a.Close)
	return a, action
}

func TestNewRequiresAction(t *testing.T) {
	if _, err := New(baseConfig(), nil, nil, nil, nil); err == nil {
		t.Fatalf("expected error for nil action")
	}
}

func TestHotkeyTogglesFiring(t *testing.T) {
	l := newFakeListener()
	a, action := newTestApp(t, baseConfig(), l, nil)
	if err := a.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if a.State() != scheduler.Idle {
		t.Fatalf("expected idle before the hotkey is pressed")
	}

	if !l.press("f6") {
		t.Fatalf("toggle hotkey was not registered")
	}
	waitFor(t, func() bool { return action.calls.Load() >= 3 })
	waitFor(t, func() bool { return a.Clicks() >= 3 })

	l.press("f6")
	if a.State() != scheduler.Idle {
		t.Fatalf("second press should stop firing")
	}
}

func TestStopHotkeyOnlyStops(t *testing.T) {
	cfg := baseConfig()
	cfg.StopHotkey = "ctrl+f12"
	l := newFakeListener()
	a, _ := newTestApp(t, cfg, l, nil)
	if err := a.Start(); err != nil {
		t.Fatal(err)
	}

	l.press("ctrl+f12")
	if a.State() != scheduler.Idle {
		t.Fatalf("stop hotkey must not start firing")
	}
	a.StartFiring()
	l.press("ctrl+f12")
	if a.State() != scheduler.Idle {
		t.Fatalf("stop hotkey should stop firing")
	}
}

func TestAutoStart(t *testing.T) {
	cfg := baseConfig()
	cfg.AutoStart = true
	a, action := newTestApp(t, cfg, newFakeListener(), nil)
	if err := a.Start(); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return action.calls.Load() > 0 })
}

func TestStartReportsUnboundHotkey(t *testing.T) {
	l := newFakeListener()
	l.reject["f6"] = true
	a, _ := newTestApp(t, baseConfig(), l, nil)
	if err := a.Start(); err == nil {
		t.Fatalf("expected error when the toggle hotkey is taken")
	}

	if err := a.ChangeHotkey("f7"); err != nil {
		t.Fatalf("rebind: %v", err)
	}
	if !l.bound("f7") {
		t.Fatalf("expected f7 bound after change")
	}
}

func TestWithoutListenerStillControllable(t *testing.T) {
	a, action := newTestApp(t, baseConfig(), nil, nil)
	if err := a.Start(); err == nil {
		t.Fatalf("expected unbound toggle hotkey without a listener")
	}
	a.StartFiring()
	waitFor(t, func() bool { return action.calls.Load() > 0 })
	a.StopFiring()
	if a.State() != scheduler.Idle {
		t.Fatalf("expected idle after StopFiring")
	}
}

func TestChangeHotkeyReplacesBinding(t *testing.T) {
	l := newFakeListener()
	a, _ := newTestApp(t, baseConfig(), l, nil)
	if err := a.Start(); err != nil {
		t.Fatal(err)
	}
	if err := a.ChangeHotkey("alt+q"); err != nil {
		t.Fatalf("change: %v", err)
	}
	if l.bound("f6") || !l.bound("alt+q") {
		t.Fatalf("old hotkey should be released and new one bound")
	}
	a.StartFiring()
	if err := a.ChangeHotkey("alt+"); err == nil {
		t.Fatalf("expected error for malformed hotkey")
	}
	if a.State() != scheduler.Running {
		t.Fatalf("a failed rebind must not touch the scheduler")
	}
	if l.bound("alt+q") {
		t.Fatalf("failed change leaves the binding unbound")
	}
	if !strings.Contains(a.Summary(), "hotkey=alt+(unbound)") {
		t.Fatalf("summary should show the unbound request, got %q", a.Summary())
	}
}

func TestSetIntervalClampsAndSummary(t *testing.T) {
	a, _ := newTestApp(t, baseConfig(), nil, nil)
	if got := a.SetInterval(0); got != scheduler.MinInterval {
		t.Fatalf("expected clamp to %v, got %v", scheduler.MinInterval, got)
	}
	a.SetBenchmark(true)
	s := a.Summary()
	if !strings.HasPrefix(s, "idle clicks=0 interval=1ms") || !strings.Contains(s, "benchmark=on") {
		t.Fatalf("unexpected summary %q", s)
	}
}

func TestStatusReporterPrintsOnChange(t *testing.T) {
	cfg := baseConfig()
	cfg.StatusInterval = 0.01
	out := &syncBuffer{}
	a, _ := newTestApp(t, cfg, newFakeListener(), out)
	if err := a.Start(); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return strings.Contains(out.String(), "[status] idle clicks=0") })

	time.Sleep(50 * time.Millisecond)
	if n := strings.Count(out.String(), "[status]"); n != 1 {
		t.Fatalf("unchanged status should print once, got %d lines", n)
	}

	a.StartFiring()
	waitFor(t, func() bool { return strings.Contains(out.String(), "[status] running") })
}

func TestCloseIsIdempotent(t *testing.T) {
	l := newFakeListener()
	a, action := newTestApp(t, baseConfig(), l, nil)
	if err := a.Start(); err != nil {
		t.Fatal(err)
	}
	a.StartFiring()
	waitFor(t, func() bool { return action.calls.Load() > 0 })

	a.Close()
	a.Close()
	after := action.calls.Load()
	time.Sleep(30 * time.Millisecond)
	if action.calls.Load() != after {
		t.Fatalf("action fired after Close")
	}
	if l.bound("f6") {
		t.Fatalf("Close should release hotkeys")
	}
	if err := a.Start(); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if err := a.ChangeHotkey("f7"); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestControlsAfterCloseStayIdle(t *testing.T) {
	l := newFakeListener()
	a, action := newTestApp(t, baseConfig(), l, nil)
	if err := a.Start(); err != nil {
		t.Fatal(err)
	}
	l.mu.Lock()
	queued := l.active["f6"]
	l.mu.Unlock()

	a.Close()
	queued()
	a.StartFiring()
	a.Toggle()
	time.Sleep(30 * time.Millisecond)
	if a.State() != scheduler.Idle {
		t.Fatalf("scheduler restarted after Close")
	}
	if n := action.calls.Load(); n != 0 {
		t.Fatalf("action fired %d times after Close", n)
	}
}

func waitFor(t *testing.T, check func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if check() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timeout waiting for condition")
}
