package keys

import (
	"errors"
	"testing"
)

func TestParseNormalizesDescriptors(t *testing.T) {
	cases := []struct {
		in   string
		want string
		vk   uint32
	}{
		{"F6", "f6", 0x75},
		{"<f6>", "f6", 0x75},
		{" Ctrl + F1 ", "ctrl+f1", 0x70},
		{"shift+ctrl+a", "ctrl+shift+a", 'A'},
		{"alt+num1", "alt+numpad1", VK_NUMPAD0 + 1},
		{"control+plus", "ctrl+add", VK_ADD},
		{"super+escape", "win+esc", 0x1B},
		{"7", "7", '7'},
		{"f24", "f24", 0x87},
	}
	for _, tc := range cases {
		combo, err := Parse(tc.in)
		if err != nil {
			t.Fatalf("Parse(%q): %v", tc.in, err)
		}
		if combo.String() != tc.want {
			t.Fatalf("Parse(%q) = %q, want %q", tc.in, combo.String(), tc.want)
		}
		vk, ok := combo.VK()
		if !ok || vk != tc.vk {
			t.Fatalf("Parse(%q).VK() = %#x,%v want %#x", tc.in, vk, ok, tc.vk)
		}
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	if _, err := Parse("   "); !errors.Is(err, ErrEmpty) {
		t.Fatalf("expected ErrEmpty, got %v", err)
	}
	for _, in := range []string{"f25", "ctrl+", "hyper+a", "ctrl+nope", "numpad+"} {
		if _, err := Parse(in); !errors.Is(err, ErrUnsupportedKey) {
			t.Fatalf("Parse(%q): expected ErrUnsupportedKey, got %v", in, err)
		}
	}
}

func TestModifierWin32Mask(t *testing.T) {
	combo, err := Parse("ctrl+alt+shift+win+x")
	if err != nil {
		t.Fatal(err)
	}
	if got := combo.Mods.Win32(); got != 0x000F {
		t.Fatalf("unexpected mask %#x", got)
	}
}
