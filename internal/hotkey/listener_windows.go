//go:build windows

package hotkey

import (
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"

	"clicker/internal/keys"
)

const (
	wmHotkey    = 0x0312
	wmQuit      = 0x0012
	modNoRepeat = 0x4000

	registerTimeout = 2 * time.Second
)

var (
	user32                 = windows.NewLazySystemDLL("user32.dll")
	procRegisterHotKey     = user32.NewProc("RegisterHotKey")
	procUnregisterHotKey   = user32.NewProc("UnregisterHotKey")
	procGetMessageW        = user32.NewProc("GetMessageW")
	procPostThreadMessageW = user32.NewProc("PostThreadMessageW")
)

type winMsg struct {
	Hwnd    uintptr
	Message uint32
	WParam  uintptr
	LParam  uintptr
	Time    uint32
	PtX     int32
	PtY     int32
}

// nativeListener runs each RegisterHotKey on its own locked OS thread, since
// WM_HOTKEY is delivered to the registering thread's queue.
type nativeListener struct {
	logger *slog.Logger
	disp   *dispatcher

	mu     sync.Mutex
	nextID int
	regs   map[int]*nativeRegistration
	closed bool
}

type nativeRegistration struct {
	owner    *nativeListener
	id       int
	threadID uint32
	done     chan struct{}
	once     sync.Once
}

func newNativeListener(logger *slog.Logger) (Listener, error) {
	if err := procRegisterHotKey.Find(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	return &nativeListener{
		logger: logger,
		disp:   newDispatcher(logger),
		nextID: 1,
		regs:   make(map[int]*nativeRegistration),
	}, nil
}

func (l *nativeListener) Register(combo keys.Combo, fn func()) (Registration, error) {
	vk, ok := combo.VK()
	if !ok {
		return nil, fmt.Errorf("%w: %s", keys.ErrUnsupportedKey, combo)
	}

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil, fmt.Errorf("hotkey listener closed")
	}
	id := l.nextID
	l.nextID++
	l.mu.Unlock()

	reg := &nativeRegistration{owner: l, id: id, done: make(chan struct{})}
	errCh := make(chan error, 1)
	var abandoned atomic.Bool
	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		defer close(reg.done)

		reg.threadID = windows.GetCurrentThreadId()
		r, _, callErr := procRegisterHotKey.Call(0, uintptr(id), uintptr(combo.Mods.Win32()|modNoRepeat), uintptr(vk))
		if r == 0 {
			errCh <- fmt.Errorf("RegisterHotKey %s failed: %v", combo, callErr)
			return
		}
		defer procUnregisterHotKey.Call(0, uintptr(id))
		errCh <- nil
		if abandoned.Load() {
			return
		}

		var msg winMsg
		for {
			ret, _, _ := procGetMessageW.Call(uintptr(unsafe.Pointer(&msg)), 0, 0, 0)
			if int32(ret) <= 0 {
				return
			}
			if msg.Message == wmHotkey && int(msg.WParam) == id {
				l.disp.emit(fn)
			}
		}
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return nil, err
		}
	case <-time.After(registerTimeout):
		abandoned.Store(true)
		go reapLate(errCh, func() {
			procPostThreadMessageW.Call(uintptr(reg.threadID), wmQuit, 0, 0)
		})
		return nil, fmt.Errorf("timeout registering hotkey %s", combo)
	}

	l.mu.Lock()
	l.regs[id] = reg
	l.mu.Unlock()
	l.logger.Debug("native hotkey installed", "hotkey", combo.String(), "id", id)
	return reg, nil
}

func (r *nativeRegistration) Unregister() error {
	var err error
	r.once.Do(func() {
		r.owner.mu.Lock()
		delete(r.owner.regs, r.id)
		r.owner.mu.Unlock()

		ret, _, callErr := procPostThreadMessageW.Call(uintptr(r.threadID), wmQuit, 0, 0)
		if ret == 0 {
			err = fmt.Errorf("PostThreadMessageW failed: %v", callErr)
			return
		}
		select {
		case <-r.done:
		case <-time.After(registerTimeout):
			err = fmt.Errorf("timeout unregistering hotkey id=%d", r.id)
		}
	})
	return err
}

func (l *nativeListener) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	regs := make([]*nativeRegistration, 0, len(l.regs))
	for _, reg := range l.regs {
		regs = append(regs, reg)
	}
	l.mu.Unlock()

	var firstErr error
	for _, reg := range regs {
		if err := reg.Unregister(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	l.disp.close()
	return firstErr
}
