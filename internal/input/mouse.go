package input

import (
	"fmt"
	"strings"

	"github.com/go-vgo/robotgo"
)

var buttons = map[string]string{
	"left":   "left",
	"right":  "right",
	"middle": "center",
	"center": "center",
}

// MouseClicker clicks a mouse button at the current cursor position.
type MouseClicker struct {
	button string
	click  func(button string)
}

func NewMouseClicker(button string) (*MouseClicker, error) {
	name, ok := buttons[strings.ToLower(strings.TrimSpace(button))]
	if !ok {
		return nil, fmt.Errorf("unsupported mouse button %q", button)
	}
	return &MouseClicker{button: name, click: robotClick}, nil
}

func robotClick(button string) {
	robotgo.Click(button, false)
}

// Perform turns a panic inside the native click into an error.
func (m *MouseClicker) Perform() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("click %s: %v", m.button, r)
		}
	}()
	m.click(m.button)
	return nil
}

func (m *MouseClicker) String() string {
	return "click " + m.button
}
