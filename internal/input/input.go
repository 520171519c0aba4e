package input

import (
	"errors"
	"fmt"
	"strings"

	"clicker/internal/config"
	"clicker/internal/scheduler"
)

var ErrUnknownAction = errors.New("unknown action")

// New builds the platform action selected by cfg.Action.
func New(cfg config.Config) (scheduler.Action, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Action)) {
	case config.ActionClick:
		return NewMouseClicker(cfg.Button)
	case config.ActionKey:
		return NewKeyTapper(cfg.Key)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, cfg.Action)
	}
}
