package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/adaptivepwm/pwm-go/pkg/cert"
	"github.com/adaptivepwm/pwm-go/pkg/config"
	"github.com/adaptivepwm/pwm-go/pkg/monitor"
)

// command describes one subcommand. flags registers the command's own
// flags and returns the function that runs it.
type command struct {
	summary string
	args    string
	flags   func(fs *pflag.FlagSet) func(a *app, args []string) error
}

var commands = map[string]command{
	"init":     {"Create a demo PKI and default configuration", "[--force] [--cn name] [--org name]", initCommand},
	"start":    {"Run the monitoring loop", "[-n iterations] [--source sim|model] [--seed n]", startCommand},
	"stop":     {"Stop monitoring", "", stopCommand},
	"status":   {"Show session status", "[--json]", statusCommand},
	"set":      {"Set a parameter", "<param> <value>", setCommand},
	"config":   {"Manage configuration", "--show | --save", configCommand},
	"safety":   {"Check safety limits", "", safetyCommand},
	"certinfo": {"Show credential details and verification result", "", certInfoCommand},
	"shell":    {"Interactive shell with a live session", "[--source sim|model] [--seed n]", shellCommand},
}

func initCommand(fs *pflag.FlagSet) func(*app, []string) error {
	force := fs.Bool("force", false, "Regenerate existing PKI material")
	cn := fs.String("cn", "admin", "Client certificate common name")
	org := fs.String("org", "AdaptivePWM", "Client certificate organization")
	country := fs.String("country", "SE", "Client certificate country")

	return func(a *app, _ []string) error {
		existing := globalOptions{PKIDir: a.opts.PKIDir}.credentials()
		if existing.Complete() && !*force {
			fmt.Fprintf(a.out, "%sPKI already present in %s/ (use --force to regenerate)\n", a.marks.info, a.opts.PKIDir)
		} else {
			creds, err := cert.WritePKI(a.opts.PKIDir, cert.ClientOptions{
				CommonName:   *cn,
				Organization: *org,
				Country:      *country,
			}, *force)
			if errors.Is(err, cert.ErrPartialPKI) {
				return fmt.Errorf("create PKI: %w (use --force to regenerate)", err)
			}
			if err != nil {
				return fmt.Errorf("create PKI: %w", err)
			}
			fmt.Fprintf(a.out, "%sCreated PKI structure in %s/\n", a.marks.ok, a.opts.PKIDir)
			fmt.Fprintf(a.out, "  certificate:  %s\n", creds.CertPath)
			fmt.Fprintf(a.out, "  private key:  %s\n", creds.KeyPath)
			fmt.Fprintf(a.out, "  trust anchor: %s\n", creds.CAPath)
		}

		if a.store.Exists() {
			return nil
		}
		if err := a.store.Save(config.Default()); err != nil {
			return fmt.Errorf("write default configuration: %w", err)
		}
		fmt.Fprintf(a.out, "%sWrote default configuration to %s\n", a.marks.ok, a.store.Path())
		return nil
	}
}

func startCommand(fs *pflag.FlagSet) func(*app, []string) error {
	iterations := fs.IntP("iterations", "n", 10, "Number of samples (0 runs until interrupted)")
	source := fs.String("source", "sim", "Telemetry source: sim or model")
	seed := fs.Uint64("seed", 0, "Telemetry seed (0 derives one from the clock)")

	return func(a *app, _ []string) error {
		if *iterations < 0 {
			return usageError("iterations must not be negative")
		}
		cfg := a.loadConfig()
		src, err := a.source(*source, *seed, cfg)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		sess, err := a.openSessionWith(ctx, cfg, src)
		if err != nil {
			return err
		}
		defer sess.Close()

		sess.OnStep(func(s monitor.Step) { writeStep(a.out, s, a.marks) })

		fmt.Fprintf(a.out, "Starting monitoring (%s source, every %s)...\n", *source, cfg.SamplingInterval())
		sess.StartMonitoring(ctx, *iterations)
		sess.Wait()
		fmt.Fprintln(a.out, "Monitoring stopped")

		writeReport(a.out, sess.CheckSafety(), a.marks)
		return nil
	}
}

func stopCommand(*pflag.FlagSet) func(*app, []string) error {
	return func(a *app, _ []string) error {
		sess, err := a.openSession(context.Background(), nil)
		if err != nil {
			return err
		}
		defer sess.Close()

		if sess.StopMonitoring() {
			fmt.Fprintf(a.out, "%sMonitoring stopped\n", a.marks.ok)
			return nil
		}
		fmt.Fprintf(a.out, "%sNo monitoring run is active. Runs started with 'start' stop on Ctrl-C; use 'shell' for interactive start/stop.\n", a.marks.info)
		return nil
	}
}

func statusCommand(fs *pflag.FlagSet) func(*app, []string) error {
	asJSON := fs.Bool("json", false, "Output in JSON format")

	return func(a *app, _ []string) error {
		sess, err := a.openSession(context.Background(), nil)
		if err != nil {
			return err
		}
		defer sess.Close()

		st := sess.Status()
		if *asJSON {
			data, err := json.MarshalIndent(st, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, string(data))
			return nil
		}
		writeStatus(a.out, st)
		return nil
	}
}

func setCommand(fs *pflag.FlagSet) func(*app, []string) error {
	// Flags end at the parameter name so negative values stay positional.
	fs.SetInterspersed(false)

	return func(a *app, args []string) error {
		if len(args) != 2 {
			return usageError("set requires <param> <value>")
		}
		value, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return usageError(fmt.Sprintf("invalid value %q", args[1]))
		}

		sess, err := a.openSession(context.Background(), nil)
		if err != nil {
			return err
		}
		defer sess.Close()

		if err := sess.SetParameter(args[0], value); err != nil {
			fmt.Fprintf(a.out, "%s%v\n", a.marks.fail, err)
			return err
		}
		fmt.Fprintf(a.out, "%sSet %s = %g\n", a.marks.ok, args[0], value)
		return nil
	}
}

func configCommand(fs *pflag.FlagSet) func(*app, []string) error {
	show := fs.Bool("show", false, "Show current configuration")
	save := fs.Bool("save", false, "Save current configuration")

	return func(a *app, _ []string) error {
		if !*show && !*save {
			fmt.Fprintf(a.out, "%sUse --show or --save with config command\n", a.marks.info)
			return nil
		}

		sess, err := a.openSession(context.Background(), nil)
		if err != nil {
			return err
		}
		defer sess.Close()

		if *show {
			data, err := config.Encode(sess.Configuration(), config.FormatFromPath(a.store.Path()))
			if err != nil {
				return err
			}
			fmt.Fprint(a.out, string(data))
		}
		if *save {
			if err := sess.SaveConfiguration(); err != nil {
				fmt.Fprintf(a.out, "%sFailed to save configuration: %v\n", a.marks.fail, err)
				return err
			}
			fmt.Fprintf(a.out, "%sConfiguration saved to %s\n", a.marks.ok, a.store.Path())
		}
		return nil
	}
}

func safetyCommand(*pflag.FlagSet) func(*app, []string) error {
	return func(a *app, _ []string) error {
		sess, err := a.openSession(context.Background(), nil)
		if err != nil {
			return err
		}
		defer sess.Close()

		writeReport(a.out, sess.CheckSafety(), a.marks)
		return nil
	}
}

func certInfoCommand(*pflag.FlagSet) func(*app, []string) error {
	return func(a *app, _ []string) error {
		creds := a.opts.credentials()
		if missing := creds.Missing(); len(missing) > 0 {
			for _, m := range missing {
				fmt.Fprintf(a.out, "%smissing: %s\n", a.marks.fail, m)
			}
			return fmt.Errorf("%w (run 'pwmctl init' to create a demo PKI)", cert.ErrMissingMaterial)
		}

		m, err := cert.Load(creds)
		if err != nil {
			return err
		}
		writeCertInfo(a.out, "Client certificate ("+creds.CertPath+")", cert.GetCertificateInfo(m.Certificate))
		fmt.Fprintln(a.out)
		writeCertInfo(a.out, "Trust anchor ("+creds.CAPath+")", cert.GetCertificateInfo(m.TrustAnchor))
		fmt.Fprintln(a.out)

		if err := (cert.X509Verifier{}).VerifyMaterial(m, a.now()); err != nil {
			fmt.Fprintf(a.out, "%sVerification: %v\n", a.marks.fail, err)
			return nil
		}
		fmt.Fprintf(a.out, "%sVerification: certificate chain is valid for client authentication\n", a.marks.ok)
		return nil
	}
}

func shellCommand(fs *pflag.FlagSet) func(*app, []string) error {
	source := fs.String("source", "model", "Telemetry source: sim or model")
	seed := fs.Uint64("seed", 0, "Telemetry seed (0 derives one from the clock)")

	return func(a *app, _ []string) error {
		cfg := a.loadConfig()
		src, err := a.source(*source, *seed, cfg)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		sess, err := a.openSessionWith(ctx, cfg, src)
		if err != nil {
			return err
		}
		defer sess.Close()

		return runShell(ctx, cancel, sess, a.marks)
	}
}
