// Command pwmctl is the operator CLI for an adaptive PWM power stage.
//
// Every command except init and certinfo first authenticates the operator
// with an X.509 client certificate, then acts on a session bound to the
// verified identity.
//
// Usage:
//
//	pwmctl [flags] <command> [command flags]
//
// Examples:
//
//	# Create a demo PKI and default configuration
//	pwmctl init
//
//	# Run 20 monitoring iterations against the PWM model
//	pwmctl start -n 20 --source model
//
//	# Show status as JSON
//	pwmctl status --json
//
//	# Interactive shell with a live session
//	pwmctl --event-log session.plog shell
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"

	"github.com/adaptivepwm/pwm-go/pkg/cert"
)

const usage = `pwmctl - Adaptive PWM controller CLI

Usage:
  pwmctl [flags] <command> [command flags]

Commands:
  init       Create a demo PKI and default configuration
  start      Run the monitoring loop (Ctrl-C to stop)
  stop       Stop monitoring
  status     Show session status (--json for JSON)
  set        Set a parameter: set <param> <value>
  config     Manage configuration (--show or --save)
  safety     Check safety limits
  certinfo   Show credential details and verification result
  shell      Interactive shell with a live session

Flags:
`

// globalOptions are accepted before or after the command name.
type globalOptions struct {
	ConfigPath string
	PKIDir     string
	CertPath   string
	KeyPath    string
	CAPath     string
	LogLevel   string
	EventLog   string
}

// credentials resolves the credential locators. Unset paths default to the
// standard file names inside the PKI directory.
func (o globalOptions) credentials() cert.CredentialSet {
	pick := func(path, name string) string {
		if path != "" {
			return path
		}
		return filepath.Join(o.PKIDir, name)
	}
	return cert.CredentialSet{
		CertPath: pick(o.CertPath, cert.DefaultCertFile),
		KeyPath:  pick(o.KeyPath, cert.DefaultKeyFile),
		CAPath:   pick(o.CAPath, cert.DefaultCAFile),
	}
}

func globalFlags(opts *globalOptions) *pflag.FlagSet {
	fs := pflag.NewFlagSet("pwmctl", pflag.ContinueOnError)
	fs.StringVarP(&opts.ConfigPath, "config", "c", "config.json", "Configuration file path (.json or .yaml)")
	fs.StringVar(&opts.PKIDir, "pki-dir", "pki", "Directory holding client.crt, client.key and ca.crt")
	fs.StringVar(&opts.CertPath, "cert", "", "Client certificate path (default <pki-dir>/client.crt)")
	fs.StringVar(&opts.KeyPath, "key", "", "Private key path (default <pki-dir>/client.key)")
	fs.StringVar(&opts.CAPath, "ca", "", "CA certificate path (default <pki-dir>/ca.crt)")
	fs.StringVar(&opts.LogLevel, "log-level", "warn", "Log level: debug, info, warn, error")
	fs.StringVar(&opts.EventLog, "event-log", "", "Append the session event trace to this file (.plog)")
	return fs
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run parses args, executes one command and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	var opts globalOptions
	global := globalFlags(&opts)
	global.SetOutput(stderr)
	global.SetInterspersed(false)
	global.Usage = func() {
		fmt.Fprint(stderr, usage)
		global.PrintDefaults()
	}

	if err := global.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		global.Usage()
		return 2
	}
	if global.NArg() < 1 {
		global.Usage()
		return 2
	}

	name := global.Arg(0)
	cmd, ok := commands[name]
	if !ok {
		if name == "help" {
			global.Usage()
			return 0
		}
		fmt.Fprintf(stderr, "Unknown command: %s\n", name)
		global.Usage()
		return 2
	}

	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "pwmctl %s - %s\n\nUsage:\n  pwmctl %s %s\n\nFlags:\n", name, cmd.summary, name, cmd.args)
		fs.PrintDefaults()
	}
	bind := cmd.flags(fs)
	fs.AddFlagSet(global)

	if err := fs.Parse(global.Args()[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		fs.Usage()
		return 2
	}

	a, err := newApp(opts, stdout, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer a.close()

	if err := bind(a, fs.Args()); err != nil {
		var usageErr usageError
		if errors.As(err, &usageErr) {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			fs.Usage()
			return 2
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// usageError reports wrong positional arguments.
type usageError string

func (e usageError) Error() string { return string(e) }
