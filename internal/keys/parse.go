package keys

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrEmpty          = errors.New("empty key descriptor")
	ErrUnsupportedKey = errors.New("unsupported key token")
)

type Modifier uint8

const (
	ModAlt Modifier = 1 << iota
	ModCtrl
	ModShift
	ModWin
)

// Win32 returns the RegisterHotKey fsModifiers mask.
func (m Modifier) Win32() uint32 {
	var mod uint32
	if m&ModAlt != 0 {
		mod |= 0x0001
	}
	if m&ModCtrl != 0 {
		mod |= 0x0002
	}
	if m&ModShift != 0 {
		mod |= 0x0004
	}
	if m&ModWin != 0 {
		mod |= 0x0008
	}
	return mod
}

// Names lists the modifiers in canonical order.
func (m Modifier) Names() []string {
	names := make([]string, 0, 4)
	if m&ModCtrl != 0 {
		names = append(names, "ctrl")
	}
	if m&ModAlt != 0 {
		names = append(names, "alt")
	}
	if m&ModShift != 0 {
		names = append(names, "shift")
	}
	if m&ModWin != 0 {
		names = append(names, "win")
	}
	return names
}

// Combo is a normalized key combination: zero or more modifiers plus one key.
type Combo struct {
	Mods Modifier
	Key  string
}

func (c Combo) String() string {
	return strings.Join(append(c.Mods.Names(), c.Key), "+")
}

// VK reports the Windows virtual-key code for the combo's key.
func (c Combo) VK() (uint32, bool) {
	vk, ok := virtualKeys[c.Key]
	return vk, ok
}

const (
	VK_NUMPAD0  = 0x60
	VK_ADD      = 0x6B
	VK_SUBTRACT = 0x6D
)

var virtualKeys = map[string]uint32{
	"esc":       0x1B,
	"space":     0x20,
	"enter":     0x0D,
	"tab":       0x09,
	"backspace": 0x08,
	"insert":    0x2D,
	"delete":    0x2E,
	"home":      0x24,
	"end":       0x23,
	"pageup":    0x21,
	"pagedown":  0x22,
	"left":      0x25,
	"up":        0x26,
	"right":     0x27,
	"down":      0x28,
	"add":       VK_ADD,
	"subtract":  VK_SUBTRACT,
}

var aliases = map[string]string{
	"escape":     "esc",
	"return":     "enter",
	"plus":       "add",
	"kpadd":      "add",
	"minus":      "subtract",
	"kpsubtract": "subtract",
}

func init() {
	for ch := 'a'; ch <= 'z'; ch++ {
		virtualKeys[string(ch)] = uint32(ch - 'a' + 'A')
	}
	for ch := '0'; ch <= '9'; ch++ {
		virtualKeys[string(ch)] = uint32(ch)
		n := int(ch - '0')
		virtualKeys["numpad"+strconv.Itoa(n)] = VK_NUMPAD0 + uint32(n)
		aliases["num"+strconv.Itoa(n)] = "numpad" + strconv.Itoa(n)
		aliases["kp"+strconv.Itoa(n)] = "numpad" + strconv.Itoa(n)
	}
	for n := 1; n <= 24; n++ {
		virtualKeys["f"+strconv.Itoa(n)] = 0x70 + uint32(n-1)
	}
}

// Parse normalizes descriptors such as "F6", "<f6>" or "ctrl+shift+a".
func Parse(s string) (Combo, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Combo{}, ErrEmpty
	}
	parts := strings.Split(s, "+")
	for i := range parts {
		parts[i] = normalizeToken(parts[i])
		if parts[i] == "" {
			return Combo{}, fmt.Errorf("%w: empty token in %q", ErrUnsupportedKey, s)
		}
	}

	var combo Combo
	for _, p := range parts[:len(parts)-1] {
		switch p {
		case "alt", "menu":
			combo.Mods |= ModAlt
		case "ctrl", "control":
			combo.Mods |= ModCtrl
		case "shift":
			combo.Mods |= ModShift
		case "win", "meta", "super", "cmd":
			combo.Mods |= ModWin
		default:
			return Combo{}, fmt.Errorf("%w: modifier %q in %q", ErrUnsupportedKey, p, s)
		}
	}

	key := parts[len(parts)-1]
	if canonical, ok := aliases[key]; ok {
		key = canonical
	}
	if _, ok := virtualKeys[key]; !ok {
		return Combo{}, fmt.Errorf("%w: %s", ErrUnsupportedKey, s)
	}
	combo.Key = key
	return combo, nil
}

func normalizeToken(tok string) string {
	tok = strings.TrimSpace(strings.ToLower(tok))
	tok = strings.TrimPrefix(tok, "<")
	tok = strings.TrimSuffix(tok, ">")
	return strings.TrimSpace(tok)
}
