package commands

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/adaptivepwm/pwm-go/pkg/log"
	"github.com/adaptivepwm/pwm-go/pkg/params"
)

// RunExport exports the selected events to the specified format.
func RunExport(path, format, output string, opts FilterOptions) error {
	var write func(io.Writer) error
	switch format {
	case "jsonl":
		write = func(w io.Writer) error { return exportJSONL(path, opts, w) }
	case "csv":
		write = func(w io.Writer) error { return exportCSV(path, opts, w) }
	default:
		return fmt.Errorf("unknown format: %s (supported: jsonl, csv)", format)
	}

	if output == "" {
		return write(os.Stdout)
	}

	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()
	return write(f)
}

func exportJSONL(path string, opts FilterOptions, w io.Writer) error {
	encoder := json.NewEncoder(w)
	return eachEvent(path, opts, func(e log.Event) error {
		if err := encoder.Encode(e); err != nil {
			return fmt.Errorf("failed to encode event: %w", err)
		}
		return nil
	})
}

// exportCSV writes one row per event. Sample values get one column per
// parameter so the output loads directly into a spreadsheet.
func exportCSV(path string, opts FilterOptions, w io.Writer) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	names := params.Names()
	header := append([]string{"timestamp", "session_id", "subject", "category", "iteration", "safe", "detail"}, names...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	err := eachEvent(path, opts, func(e log.Event) error {
		var iteration, safe, detail string
		values := make([]string, len(names))

		switch {
		case e.Auth != nil:
			detail = "success"
			if !e.Auth.Success {
				detail = e.Auth.Reason
			}
		case e.Parameter != nil:
			detail = fmt.Sprintf("%s=%g", e.Parameter.Name, e.Parameter.Value)
			if !e.Parameter.Accepted {
				detail += " rejected"
			}
		case e.Sample != nil:
			iteration = strconv.FormatUint(e.Sample.Iteration, 10)
			if e.Sample.Forced {
				detail = "failsafe"
			}
			for i, n := range names {
				if v, ok := e.Sample.Values[n]; ok {
					values[i] = strconv.FormatFloat(v, 'g', -1, 64)
				}
			}
		case e.Safety != nil:
			if e.Safety.Iteration != 0 {
				iteration = strconv.FormatUint(e.Safety.Iteration, 10)
			}
			safe = strconv.FormatBool(e.Safety.Safe)
			detail = strings.Join(e.Safety.Violations, "; ")
		case e.StateChange != nil:
			detail = fmt.Sprintf("%s %s->%s", e.StateChange.Entity, e.StateChange.OldState, e.StateChange.NewState)
		case e.Error != nil:
			detail = e.Error.Message
		}

		row := append([]string{
			e.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z"),
			e.SessionID,
			e.Subject,
			e.Category.String(),
			iteration,
			safe,
			detail,
		}, values...)
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}
