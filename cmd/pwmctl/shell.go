package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/chzyer/readline"
	"golang.org/x/term"

	"github.com/adaptivepwm/pwm-go/pkg/config"
	"github.com/adaptivepwm/pwm-go/pkg/monitor"
	"github.com/adaptivepwm/pwm-go/pkg/params"
	"github.com/adaptivepwm/pwm-go/pkg/session"
)

// shell executes interactive commands against one session.
type shell struct {
	ctx   context.Context
	sess  *session.Controller
	out   io.Writer
	marks markers

	mu    sync.Mutex
	watch bool
}

// syncWriter serializes writes from the shell and the monitoring loop.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

func newShell(ctx context.Context, sess *session.Controller, out io.Writer, m markers) *shell {
	sh := &shell{
		ctx:   ctx,
		sess:  sess,
		out:   &syncWriter{w: out},
		marks: m,
	}
	sess.OnStep(sh.handleStep)
	return sh
}

// handleStep prints every step while watching, and unsafe steps always.
func (sh *shell) handleStep(s monitor.Step) {
	sh.mu.Lock()
	watch := sh.watch
	sh.mu.Unlock()

	if watch || s.Err != nil || !s.Report.Safe {
		writeStep(sh.out, s, sh.marks)
	}
}

// runShell runs the readline loop until quit, EOF or ctx is done.
func runShell(ctx context.Context, cancel context.CancelFunc, sess *session.Controller, m markers) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "pwm> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		FuncIsTerminal: func() bool {
			return term.IsTerminal(int(os.Stdin.Fd()))
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create readline: %w", err)
	}
	defer rl.Close()

	sh := newShell(ctx, sess, rl.Stdout(), m)
	sh.printHelp()

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		line, err := rl.Readline()
		if err != nil {
			// EOF or interrupt
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			fmt.Fprintln(sh.out, "Exiting...")
			cancel()
			return nil
		}

		if sh.exec(line) {
			cancel()
			return nil
		}
	}
}

// exec runs one command line and reports whether the shell should exit.
func (sh *shell) exec(line string) bool {
	input := strings.TrimSpace(line)
	if input == "" {
		return false
	}

	parts := strings.Fields(input)
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "help", "?":
		sh.printHelp()

	case "status", "s":
		sh.cmdStatus(args)

	case "set":
		sh.cmdSet(args)

	case "start":
		sh.cmdStart(args)

	case "stop":
		sh.cmdStop()

	case "safety":
		writeReport(sh.out, sh.sess.CheckSafety(), sh.marks)

	case "failsafe", "fs":
		sh.cmdFailsafe()

	case "watch":
		sh.cmdWatch(args)

	case "config":
		sh.cmdConfig()

	case "save":
		sh.cmdSave()

	case "quit", "exit", "q":
		fmt.Fprintln(sh.out, "Exiting...")
		return true

	default:
		fmt.Fprintf(sh.out, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	return false
}

func (sh *shell) printHelp() {
	fmt.Fprintln(sh.out, `
PWM Controller Commands:
  Parameters:
    status [--json]    - Show session status
    set <param> <val>  - Set a parameter value

  Monitoring:
    start [n]          - Start monitoring (n samples, default unbounded)
    stop               - Stop monitoring
    watch on|off       - Print every sample (unsafe samples always print)
    safety             - Check safety limits
    failsafe           - Show failsafe state

  Configuration:
    config             - Show configuration
    save               - Save configuration

  General:
    help               - Show this help
    quit               - Exit shell

  Parameters: `+strings.Join(params.Names(), ", "))
}

func (sh *shell) cmdStatus(args []string) {
	st := sh.sess.Status()
	if len(args) > 0 && args[0] == "--json" {
		data, err := json.MarshalIndent(st, "", "  ")
		if err != nil {
			fmt.Fprintf(sh.out, "Error: %v\n", err)
			return
		}
		fmt.Fprintln(sh.out, string(data))
		return
	}
	writeStatus(sh.out, st)
}

func (sh *shell) cmdSet(args []string) {
	if len(args) != 2 {
		fmt.Fprintln(sh.out, "Usage: set <param> <value>")
		fmt.Fprintln(sh.out, "  Example: set duty_cycle 0.6")
		return
	}
	value, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		fmt.Fprintf(sh.out, "Invalid value: %s\n", args[1])
		return
	}
	if err := sh.sess.SetParameter(args[0], value); err != nil {
		fmt.Fprintf(sh.out, "%s%v\n", sh.marks.fail, err)
		return
	}
	fmt.Fprintf(sh.out, "%sSet %s = %g\n", sh.marks.ok, args[0], value)
}

func (sh *shell) cmdStart(args []string) {
	n := 0
	if len(args) > 0 {
		v, err := strconv.Atoi(args[0])
		if err != nil || v < 0 {
			fmt.Fprintf(sh.out, "Invalid iteration count: %s\n", args[0])
			return
		}
		n = v
	}
	if !sh.sess.StartMonitoring(sh.ctx, n) {
		fmt.Fprintln(sh.out, "Monitoring already running")
		return
	}
	fmt.Fprintf(sh.out, "Monitoring started (every %s)\n", sh.sess.Configuration().SamplingInterval())
}

func (sh *shell) cmdStop() {
	if !sh.sess.StopMonitoring() {
		fmt.Fprintln(sh.out, "Monitoring not running")
		return
	}
	fmt.Fprintln(sh.out, "Monitoring stopped")
}

func (sh *shell) cmdFailsafe() {
	state, ok := sh.sess.FailsafeState()
	if !ok {
		fmt.Fprintln(sh.out, "Failsafe: disabled")
		return
	}
	fmt.Fprintf(sh.out, "Failsafe: %s (trips after %s of violations)\n",
		state, sh.sess.Configuration().FailsafeDelay())
}

func (sh *shell) cmdWatch(args []string) {
	if len(args) != 1 || (args[0] != "on" && args[0] != "off") {
		fmt.Fprintln(sh.out, "Usage: watch on|off")
		return
	}
	sh.mu.Lock()
	sh.watch = args[0] == "on"
	sh.mu.Unlock()
	fmt.Fprintf(sh.out, "Watch %s\n", args[0])
}

func (sh *shell) cmdConfig() {
	data, err := config.Encode(sh.sess.Configuration(), config.FormatYAML)
	if err != nil {
		fmt.Fprintf(sh.out, "Error: %v\n", err)
		return
	}
	fmt.Fprint(sh.out, string(data))
}

func (sh *shell) cmdSave() {
	if err := sh.sess.SaveConfiguration(); err != nil {
		fmt.Fprintf(sh.out, "%sFailed to save configuration: %v\n", sh.marks.fail, err)
		return
	}
	fmt.Fprintf(sh.out, "%sConfiguration saved\n", sh.marks.ok)
}
