//go:build !windows

package hotkey

import "log/slog"

func newNativeListener(logger *slog.Logger) (Listener, error) {
	return nil, ErrUnsupported
}
