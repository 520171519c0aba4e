package config

import (
	"flag"
	"fmt"
	"io"
)

type CLIOptions struct {
	ConfigPath  string
	SaveDefault string
	ShowHelp    bool

	Interval       float64
	Benchmark      bool
	Hotkey         string
	StopHotkey     string
	Action         string
	Button         string
	Key            string
	HotKeyHook     bool
	AutoStart      bool
	StatusInterval float64
	Console        bool
	LogLevel       string
	LogFormat      string
	DEBUG          bool

	set map[string]bool
}

func ParseCLI(args []string, stderr io.Writer) (CLIOptions, error) {
	opts := CLIOptions{set: make(map[string]bool)}
	fs := flag.NewFlagSet("clicker", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.ConfigPath, "config", "", "config file (JSON, or YAML by extension)")
	fs.StringVar(&opts.SaveDefault, "save-default", "", "write the default config to this path and exit")
	fs.Float64Var(&opts.Interval, "interval", 0, "seconds between actions")
	fs.BoolVar(&opts.Benchmark, "benchmark", false, "ignore the interval and fire as fast as possible")
	fs.StringVar(&opts.Hotkey, "hotkey", "", "toggle hotkey")
	fs.StringVar(&opts.StopHotkey, "stop-hotkey", "", "hotkey that only stops")
	fs.StringVar(&opts.Action, "action", "", "click or key")
	fs.StringVar(&opts.Button, "button", "", "mouse button for click (left, right, middle)")
	fs.StringVar(&opts.Key, "key", "", "key combination for key, e.g. a or shift+f5")
	fs.BoolVar(&opts.HotKeyHook, "hotkeyhook", false, "use the keyboard hook instead of RegisterHotKey")
	fs.BoolVar(&opts.AutoStart, "autostart", false, "start firing immediately")
	fs.Float64Var(&opts.StatusInterval, "status-interval", 0, "seconds between status lines, 0 disables")
	fs.BoolVar(&opts.Console, "console", false, "read commands from stdin")
	fs.StringVar(&opts.LogLevel, "log-level", "", "debug, info, warn or error")
	fs.StringVar(&opts.LogFormat, "log-format", "", "console or json")
	fs.BoolVar(&opts.DEBUG, "debug", false, "debug")
	fs.BoolVar(&opts.ShowHelp, "h", false, "help")

	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	fs.Visit(func(f *flag.Flag) {
		opts.set[f.Name] = true
	})
	return opts, nil
}

func (o CLIOptions) IsSet(name string) bool {
	return o.set[name]
}

func ApplyCLI(c *Config, o CLIOptions) {
	if o.IsSet("interval") {
		c.Interval = o.Interval
	}
	if o.IsSet("benchmark") {
		c.Benchmark = o.Benchmark
	}
	if o.IsSet("hotkey") {
		c.Hotkey = o.Hotkey
	}
	if o.IsSet("stop-hotkey") {
		c.StopHotkey = o.StopHotkey
	}
	if o.IsSet("action") {
		c.Action = o.Action
	}
	if o.IsSet("button") {
		c.Button = o.Button
	}
	if o.IsSet("key") {
		c.Key = o.Key
	}
	if o.IsSet("hotkeyhook") {
		c.HotKeyHook = o.HotKeyHook
	}
	if o.IsSet("autostart") {
		c.AutoStart = o.AutoStart
	}
	if o.IsSet("status-interval") {
		c.StatusInterval = o.StatusInterval
	}
	if o.IsSet("console") {
		c.Console = o.Console
	}
	if o.IsSet("log-level") {
		c.LogLevel = o.LogLevel
	}
	if o.IsSet("log-format") {
		c.LogFormat = o.LogFormat
	}
	if o.IsSet("debug") {
		c.DEBUG = o.DEBUG
	}
}

func Usage(w io.Writer, program string) {
	fmt.Fprintf(w, `Usage: %s [options]

Fires mouse clicks or key taps on a fixed interval. A global hotkey toggles
firing on and off.

Options:
[Timing]
  -interval <seconds>
        seconds between actions, floored at 0.001 (default 1.0)
  -benchmark <true|false>
        ignore the interval and fire as fast as the loop allows (default false)
  -autostart <true|false>
        start firing without waiting for the hotkey (default false)

[Action]
  -action <click|key>
        what to synthesize (default click)
  -button <left|right|middle>
        mouse button for -action click (default left)
  -key <combo>
        key for -action key, modifiers allowed: "a", "shift+f5" (default a)

[Hotkeys]
  -hotkey <combo>
        toggles firing (default F6)
  -stop-hotkey <combo>
        only stops firing; empty disables it
  -hotkeyhook <true|false>
        on Windows use the keyboard hook instead of RegisterHotKey

  Combos are case-insensitive and joined with '+':
    modifiers: ctrl, alt, shift, win (aliases control, menu, meta, super, cmd)
    keys: a..z, 0..9, F1..F24, esc, enter, space, tab, backspace, insert, delete,
          home, end, pageup, pagedown, left, up, right, down,
          numpad0..numpad9 (num0, kp0), add/plus, subtract/minus
    the keyboard hook cannot bind insert, delete, home, end, pageup, pagedown,
    backspace or F13..F24

[Interface]
  -console <true|false>
        read commands (start, stop, interval 0.5, benchmark on, hotkey f7, status, quit)
        from stdin (default true)
  -status-interval <seconds>
        print the click counter this often, 0 disables (default 1)

[Config]
  -config <path>
        JSON or YAML file; default ./config.json when present
  -save-default <path>
        write the defaults to path and exit
  -log-level <debug|info|warn|error>
  -log-format <console|json>
  -debug <true|false>

Examples:
  %s -interval 0.05 -hotkey f8
  %s -action key -key space -benchmark

Precedence: flags > config file > defaults
`, program, program, program)
}
