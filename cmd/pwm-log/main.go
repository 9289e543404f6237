// Command pwm-log is a tool for viewing and analyzing pwm session event logs.
//
// Log files are written by pwmctl when run with the --event-log flag.
//
// Usage:
//
//	pwm-log <command> [flags] <file.plog>
//
// Commands:
//
//	view     View log file in human-readable format
//	export   Export log file to JSONL or CSV format
//	filter   Filter log file and write to new file
//	stats    Show statistics about the log file
//
// Examples:
//
//	# View all events
//	pwm-log view session.plog
//
//	# View only safety reports that found violations
//	pwm-log view --unsafe session.plog
//
//	# Export samples as CSV, one column per parameter
//	pwm-log export --format csv --category sample session.plog
//
//	# Extract one session into its own file
//	pwm-log filter --session 5f0e7c1a -o one.plog session.plog
//
//	# Show statistics
//	pwm-log stats session.plog
package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/adaptivepwm/pwm-go/cmd/pwm-log/commands"
)

const usage = `pwm-log - PWM Session Event Log Analyzer

Usage:
  pwm-log <command> [flags] <file.plog>

Commands:
  view     View log file in human-readable format
  export   Export log file to JSONL or CSV format
  filter   Filter log file and write to new file
  stats    Show statistics about the log file

Use "pwm-log <command> --help" for more information about a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "view":
		runView(args)
	case "export":
		runExport(args)
	case "filter":
		runFilter(args)
	case "stats":
		runStats(args)
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}

// selection registers the event selection flags shared by view, export
// and filter.
type selection struct {
	session   *string
	subject   *string
	category  *string
	timeStart *string
	timeEnd   *string
	unsafe    *bool
}

func addSelection(fs *pflag.FlagSet) selection {
	return selection{
		session:   fs.String("session", "", "Filter by session ID (prefix match)"),
		subject:   fs.String("subject", "", "Filter by authenticated subject"),
		category:  fs.String("category", "", "Filter by category (auth, parameter, sample, safety, state, error)"),
		timeStart: fs.String("time-start", "", "Filter by start time (RFC3339)"),
		timeEnd:   fs.String("time-end", "", "Filter by end time (RFC3339)"),
		unsafe:    fs.Bool("unsafe", false, "Only safety reports with violations"),
	}
}

func (s selection) options() commands.FilterOptions {
	return commands.FilterOptions{
		Session:    *s.session,
		Subject:    *s.subject,
		Category:   *s.category,
		TimeStart:  *s.timeStart,
		TimeEnd:    *s.timeEnd,
		UnsafeOnly: *s.unsafe,
	}
}

func newFlagSet(name, summary string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "pwm-log %s - %s\n\nUsage:\n  pwm-log %s [flags] <file.plog>\n\nFlags:\n", name, summary, name)
		fs.PrintDefaults()
	}
	return fs
}

func logPath(fs *pflag.FlagSet) string {
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: log file path required")
		fs.Usage()
		os.Exit(1)
	}
	return fs.Arg(0)
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func runView(args []string) {
	fs := newFlagSet("view", "View log file in human-readable format")
	sel := addSelection(fs)
	_ = fs.Parse(args)

	if err := commands.RunView(logPath(fs), sel.options(), os.Stdout); err != nil {
		fail(err)
	}
}

func runExport(args []string) {
	fs := newFlagSet("export", "Export log file to JSONL or CSV format")
	sel := addSelection(fs)
	format := fs.String("format", "jsonl", "Output format (jsonl, csv)")
	output := fs.StringP("output", "o", "", "Output file (default: stdout)")
	_ = fs.Parse(args)

	if err := commands.RunExport(logPath(fs), *format, *output, sel.options()); err != nil {
		fail(err)
	}
}

func runFilter(args []string) {
	fs := newFlagSet("filter", "Filter log file and write to new file")
	sel := addSelection(fs)
	output := fs.StringP("output", "o", "", "Output file (required)")
	_ = fs.Parse(args)

	path := logPath(fs)
	if *output == "" {
		fmt.Fprintln(os.Stderr, "Error: output file (-o) required")
		fs.Usage()
		os.Exit(1)
	}

	opts := sel.options()
	opts.Output = *output

	count, err := commands.RunFilter(path, opts)
	if err != nil {
		fail(err)
	}
	fmt.Printf("Filtered %d events to %s\n", count, *output)
}

func runStats(args []string) {
	fs := newFlagSet("stats", "Show statistics about the log file")
	_ = fs.Parse(args)

	if err := commands.RunStats(logPath(fs), os.Stdout); err != nil {
		fail(err)
	}
}
