package input

import (
	"errors"
	"testing"

	"clicker/internal/config"
	"clicker/internal/keys"
)

type fakeBonder struct {
	keys             []int
	ctrl, alt, shift bool
	launches         int
	err              error
}

func (f *fakeBonder) SetKeys(keys ...int) { f.keys = keys }
func (f *fakeBonder) HasCTRL(b bool) { f.ctrl = b }
func (f *fakeBonder) HasALT(b bool) { f.alt = b }
func (f *fakeBonder) HasSHIFT(b bool) { f.shift = b }
func (f *fakeBonder) Launching() error {
	f.launches++
	return f.err
}

func TestKeyTapperAppliesModifiers(t *testing.T) {
	combo, code, err := resolveKey("ctrl+shift+a")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	kb := &fakeBonder{}
	tapper := newKeyTapper(combo, code, kb)

	if err := tapper.Perform(); err != nil {
		t.Fatalf("perform: %v", err)
	}
	if !kb.ctrl || !kb.shift || kb.alt {
		t.Fatalf("unexpected modifiers ctrl=%t shift=%t alt=%t", kb.ctrl, kb.shift, kb.alt)
	}
	if len(kb.keys) != 1 || kb.keys[0] != keybdCodes["a"] || kb.launches != 1 {
		t.Fatalf("unexpected keys %v launches %d", kb.keys, kb.launches)
	}
	if tapper.String() != "key ctrl+shift+a" {
		t.Fatalf("unexpected description %q", tapper.String())
	}
}

func TestKeyTapperWrapsFailure(t *testing.T) {
	combo, code, err := resolveKey("f5")
	if err != nil {
		t.Fatal(err)
	}
	cause := errors.New("uinput closed")
	tapper := newKeyTapper(combo, code, &fakeBonder{err: cause})
	if err := tapper.Perform(); !errors.Is(err, cause) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
}

func TestResolveKeyRejectsUnsynthesizable(t *testing.T) {
	for _, desc := range []string{"win+a", "numpad4", "f20", ""} {
		if _, _, err := resolveKey(desc); err == nil {
			t.Fatalf("resolveKey(%q): expected error", desc)
		}
	}
	if _, _, err := resolveKey("pagedown"); !errors.Is(err, keys.ErrUnsupportedKey) {
		t.Fatalf("expected ErrUnsupportedKey, got %v", err)
	}
}

func TestMouseClickerButtonsAndPanics(t *testing.T) {
	if _, err := NewMouseClicker("thumb"); err == nil {
		t.Fatalf("expected error for unknown button")
	}
	m, err := NewMouseClicker(" Middle ")
	if err != nil {
		t.Fatalf("new clicker: %v", err)
	}
	var got string
	m.click = func(button string) { got = button }
	if err := m.Perform(); err != nil || got != "center" {
		t.Fatalf("perform = %v, button %q", err, got)
	}

	m.click = func(string) { panic("display unavailable") }
	if err := m.Perform(); err == nil {
		t.Fatalf("expected panic converted to error")
	}
}

func TestNewRejectsUnknownAction(t *testing.T) {
	cfg := config.Default()
	cfg.Action = "scroll"
	if _, err := New(cfg); !errors.Is(err, ErrUnknownAction) {
		t.Fatalf("expected ErrUnknownAction, got %v", err)
	}
}
