package hotkey

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	hook "github.com/robotn/gohook"

	"clicker/internal/keys"
)

// hookListener drives gohook, whose registrations are process-global and
// cannot be removed one at a time: every change ends the hook and reinstalls
// the live set.
type hookListener struct {
	logger *slog.Logger
	disp   *dispatcher

	mu      sync.Mutex
	nextID  int
	entries map[int]hookEntry
	running bool
	done    chan bool
	closed  bool
}

type hookEntry struct {
	names []string
	fn    func()
}

type hookRegistration struct {
	owner *hookListener
	id    int
	once  sync.Once
}

func newHookListener(logger *slog.Logger) *hookListener {
	return &hookListener{
		logger:  logger,
		disp:    newDispatcher(logger),
		nextID:  1,
		entries: make(map[int]hookEntry),
	}
}

func (l *hookListener) Register(combo keys.Combo, fn func()) (Registration, error) {
	names, err := hookNames(combo)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil, fmt.Errorf("hotkey listener closed")
	}
	id := l.nextID
	l.nextID++
	l.entries[id] = hookEntry{names: names, fn: fn}
	l.reinstallLocked()
	l.logger.Debug("hook hotkey installed", "hotkey", combo.String(), "keys", strings.Join(names, ","))
	return &hookRegistration{owner: l, id: id}, nil
}

func (r *hookRegistration) Unregister() error {
	r.once.Do(func() {
		l := r.owner
		l.mu.Lock()
		defer l.mu.Unlock()
		if _, ok := l.entries[r.id]; !ok {
			return
		}
		delete(l.entries, r.id)
		if !l.closed {
			l.reinstallLocked()
		}
	})
	return nil
}

func (l *hookListener) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	l.entries = make(map[int]hookEntry)
	l.endLocked()
	l.mu.Unlock()
	l.disp.close()
	return nil
}

func (l *hookListener) reinstallLocked() {
	l.endLocked()
	if len(l.entries) == 0 {
		return
	}
	for _, entry := range l.entries {
		fn := entry.fn
		hook.Register(hook.KeyDown, entry.names, func(hook.Event) {
			l.disp.emit(fn)
		})
	}
	events := hook.Start()
	l.done = hook.Process(events)
	l.running = true
}

func (l *hookListener) endLocked() {
	if !l.running {
		return
	}
	hook.End()
	<-l.done
	l.running = false
	l.done = nil
}

// hookKeyNames maps key descriptors to gohook names. Keys gohook cannot see,
// or maps to the wrong scancode (its "delete" is Backspace), are left out.
var hookKeyNames = map[string]string{
	"esc":      "esc",
	"tab":      "tab",
	"enter":    "enter",
	"space":    "space",
	"up":       "up",
	"down":     "down",
	"left":     "left",
	"right":    "right",
	"add":      "num_plus",
	"subtract": "num_minus",
}

func init() {
	for ch := 'a'; ch <= 'z'; ch++ {
		hookKeyNames[string(ch)] = string(ch)
	}
	for n := 0; n <= 9; n++ {
		d := strconv.Itoa(n)
		hookKeyNames[d] = d
		hookKeyNames["numpad"+d] = "num" + d
	}
	for n := 1; n <= 12; n++ {
		f := "f" + strconv.Itoa(n)
		hookKeyNames[f] = f
	}
}

// hookNames translates a combo into gohook key names.
func hookNames(combo keys.Combo) ([]string, error) {
	key, ok := hookKeyNames[combo.Key]
	if !ok {
		return nil, fmt.Errorf("%w: %s is not available through the keyboard hook", keys.ErrUnsupportedKey, combo.Key)
	}

	names := make([]string, 0, 5)
	for _, mod := range combo.Mods.Names() {
		if mod == "win" {
			mod = "cmd"
		}
		names = append(names, mod)
	}
	return append(names, key), nil
}
