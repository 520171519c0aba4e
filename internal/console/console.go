package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"clicker/internal/scheduler"
)

// Controller is the part of the app the console drives.
type Controller interface {
	StartFiring()
	StopFiring()
	Toggle() scheduler.State
	SetInterval(seconds float64) time.Duration
	SetBenchmark(on bool)
	ChangeHotkey(descriptor string) error
	Summary() string
}

const help = `commands:
  start                 start firing
  stop                  stop firing
  toggle                start or stop
  interval <seconds>    change the interval, floored at 0.001
  benchmark on|off      fire as fast as possible
  hotkey <combo>        rebind the toggle hotkey, e.g. ctrl+shift+f6
  status                print the current state
  quit                  exit
`

// Run reads one command per line from in. It returns nil on quit, io.EOF when
// input ends and ctx.Err() when ctx is cancelled.
func Run(ctx context.Context, in io.Reader, out io.Writer, ctl Controller) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					if err != nil {
						return err
					}
				default:
				}
				return io.EOF
			}
			if quit := Execute(line, out, ctl); quit {
				return nil
			}
		}
	}
}

// Execute runs a single command line and reports whether it asked to quit.
func Execute(line string, out io.Writer, ctl Controller) bool {
	fields := strings.Fields(strings.TrimSpace(line))
	if len(fields) == 0 {
		return false
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	switch cmd {
	case "quit", "exit", "q":
		return true
	case "start":
		ctl.StartFiring()
		fmt.Fprintln(out, "[console] started")
	case "stop":
		ctl.StopFiring()
		fmt.Fprintln(out, "[console] stopped")
	case "toggle", "t":
		fmt.Fprintf(out, "[console] %s\n", ctl.Toggle())
	case "interval", "i":
		if len(args) != 1 {
			fmt.Fprintln(out, "[console] usage: interval <seconds>")
			return false
		}
		v, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			fmt.Fprintf(out, "[console] invalid interval %q\n", args[0])
			return false
		}
		fmt.Fprintf(out, "[console] interval %s\n", ctl.SetInterval(v))
	case "benchmark", "b":
		if len(args) != 1 {
			fmt.Fprintln(out, "[console] usage: benchmark on|off")
			return false
		}
		on, ok := parseSwitch(args[0])
		if !ok {
			fmt.Fprintf(out, "[console] expected on or off, got %q\n", args[0])
			return false
		}
		ctl.SetBenchmark(on)
		fmt.Fprintf(out, "[console] benchmark %s\n", args[0])
	case "hotkey", "h":
		if len(args) == 0 {
			fmt.Fprintln(out, "[console] usage: hotkey <combo>")
			return false
		}
		desc := strings.Join(args, "")
		if err := ctl.ChangeHotkey(desc); err != nil {
			fmt.Fprintf(out, "[console] hotkey %s not bound: %v\n", desc, err)
			return false
		}
		fmt.Fprintf(out, "[console] hotkey %s\n", desc)
	case "status", "s":
		fmt.Fprintf(out, "[status] %s\n", ctl.Summary())
	default:
		if cmd != "help" && cmd != "?" {
			fmt.Fprintf(out, "[console] unknown command %q\n", cmd)
		}
		fmt.Fprint(out, help)
	}
	return false
}

func parseSwitch(s string) (bool, bool) {
	switch strings.ToLower(s) {
	case "on", "true", "1", "yes":
		return true, true
	case "off", "false", "0", "no":
		return false, true
	}
	return false, false
}
