package input

import (
	"fmt"
	"runtime"
	"time"

	"github.com/micmonay/keybd_event"

	"clicker/internal/keys"
)

// keyBonder is the part of keybd_event.KeyBonding the tapper drives.
type keyBonder interface {
	SetKeys(keys ...int)
	HasCTRL(bool)
	HasALT(bool)
	HasSHIFT(bool)
	Launching() error
}

// KeyTapper presses and releases one key combination per Perform.
type KeyTapper struct {
	combo keys.Combo
	kb    keyBonder
}

var keybdCodes = map[string]int{
	"a": keybd_event.VK_A, "b": keybd_event.VK_B, "c": keybd_event.VK_C, "d": keybd_event.VK_D,
	"e": keybd_event.VK_E, "f": keybd_event.VK_F, "g": keybd_event.VK_G, "h": keybd_event.VK_H,
	"i": keybd_event.VK_I, "j": keybd_event.VK_J, "k": keybd_event.VK_K, "l": keybd_event.VK_L,
	"m": keybd_event.VK_M, "n": keybd_event.VK_N, "o": keybd_event.VK_O, "p": keybd_event.VK_P,
	"q": keybd_event.VK_Q, "r": keybd_event.VK_R, "s": keybd_event.VK_S, "t": keybd_event.VK_T,
	"u": keybd_event.VK_U, "v": keybd_event.VK_V, "w": keybd_event.VK_W, "x": keybd_event.VK_X,
	"y": keybd_event.VK_Y, "z": keybd_event.VK_Z,

	"0": keybd_event.VK_0, "1": keybd_event.VK_1, "2": keybd_event.VK_2, "3": keybd_event.VK_3,
	"4": keybd_event.VK_4, "5": keybd_event.VK_5, "6": keybd_event.VK_6, "7": keybd_event.VK_7,
	"8": keybd_event.VK_8, "9": keybd_event.VK_9,

	"f1": keybd_event.VK_F1, "f2": keybd_event.VK_F2, "f3": keybd_event.VK_F3, "f4": keybd_event.VK_F4,
	"f5": keybd_event.VK_F5, "f6": keybd_event.VK_F6, "f7": keybd_event.VK_F7, "f8": keybd_event.VK_F8,
	"f9": keybd_event.VK_F9, "f10": keybd_event.VK_F10, "f11": keybd_event.VK_F11, "f12": keybd_event.VK_F12,

	"space":     keybd_event.VK_SPACE,
	"enter":     keybd_event.VK_ENTER,
	"tab":       keybd_event.VK_TAB,
	"esc":       keybd_event.VK_ESC,
	"backspace": keybd_event.VK_BACKSPACE,
}

func NewKeyTapper(descriptor string) (*KeyTapper, error) {
	combo, code, err := resolveKey(descriptor)
	if err != nil {
		return nil, err
	}
	kb, err := keybd_event.NewKeyBonding()
	if err != nil {
		return nil, fmt.Errorf("init keyboard: %w", err)
	}
	if runtime.GOOS == "linux" {
		// uinput needs a moment before the new virtual device accepts events
		time.Sleep(2 * time.Second)
	}
	return newKeyTapper(combo, code, &kb), nil
}

func newKeyTapper(combo keys.Combo, code int, kb keyBonder) *KeyTapper {
	kb.SetKeys(code)
	kb.HasCTRL(combo.Mods&keys.ModCtrl != 0)
	kb.HasALT(combo.Mods&keys.ModAlt != 0)
	kb.HasSHIFT(combo.Mods&keys.ModShift != 0)
	return &KeyTapper{combo: combo, kb: kb}
}

func resolveKey(descriptor string) (keys.Combo, int, error) {
	combo, err := keys.Parse(descriptor)
	if err != nil {
		return keys.Combo{}, 0, err
	}
	if combo.Mods&keys.ModWin != 0 {
		return keys.Combo{}, 0, fmt.Errorf("%w: win modifier cannot be synthesized", keys.ErrUnsupportedKey)
	}
	code, ok := keybdCodes[combo.Key]
	if !ok {
		return keys.Combo{}, 0, fmt.Errorf("%w: %s cannot be synthesized", keys.ErrUnsupportedKey, combo.Key)
	}
	return combo, code, nil
}

// Perform presses and releases the configured combination.
func (k *KeyTapper) Perform() error {
	if err := k.kb.Launching(); err != nil {
		return fmt.Errorf("tap %s: %w", k.combo, err)
	}
	return nil
}

func (k *KeyTapper) String() string {
	return "key " + k.combo.String()
}
