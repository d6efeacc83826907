// Command cruisetrace inspects trace files written by the cruise unit.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"cruise/cruiseos/telemetry"

	"github.com/urfave/cli/v2"
)

func main() {
	a := &cli.App{
		Name:  "cruisetrace",
		Usage: "Inspect cruise unit traces",
		Commands: []*cli.Command{
			dumpCommand(),
			summaryCommand(),
		},
	}
	if err := a.Run(os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
}

func dumpCommand() *cli.Command {
	return &cli.Command{
		Name:      "dump",
		Usage:     "Print every record",
		ArgsUsage: "FILE",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{Name: "kind", Aliases: []string{"k"}, Usage: "Only print records of this kind (vehicle, control, overload, deadline-miss)."},
		},
		Action: func(c *cli.Context) error {
			rd, closeFn, err := openTrace(c)
			if err != nil {
				return err
			}
			defer closeFn()
			return dump(c.App.Writer, rd, c.StringSlice("kind"))
		},
	}
}

func summaryCommand() *cli.Command {
	return &cli.Command{
		Name:      "summary",
		Usage:     "Aggregate a trace",
		ArgsUsage: "FILE",
		Action: func(c *cli.Context) error {
			rd, closeFn, err := openTrace(c)
			if err != nil {
				return err
			}
			defer closeFn()
			s, err := telemetry.Summarize(rd)
			if err != nil {
				return cli.Exit(fmt.Sprintf("read trace: %v", err), 1)
			}
			return printSummary(c.App.Writer, rd.Header(), s)
		},
	}
}

func openTrace(c *cli.Context) (*telemetry.Reader, func(), error) {
	if c.NArg() != 1 {
		return nil, nil, cli.Exit("usage: cruisetrace "+c.Command.Name+" FILE", 2)
	}
	f, err := os.Open(c.Args().First())
	if err != nil {
		return nil, nil, cli.Exit(err.Error(), 1)
	}
	rd, err := telemetry.NewReader(f)
	if err != nil {
		f.Close()
		return nil, nil, cli.Exit(fmt.Sprintf("%s: %v", c.Args().First(), err), 1)
	}
	return rd, func() { f.Close() }, nil
}

func dump(w io.Writer, rd *telemetry.Reader, kinds []string) error {
	want := make(map[string]bool, len(kinds))
	for _, k := range kinds {
		want[strings.ToLower(k)] = true
	}

	h := rd.Header()
	fmt.Fprintf(w, "# run %s, tick %s, started %s\n", h.RunID, time.Duration(h.TickNanos), time.Unix(0, h.Started).UTC().Format(time.RFC3339))
	for {
		rec, err := rd.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return cli.Exit(fmt.Sprintf("read trace: %v", err), 1)
		}
		if len(want) > 0 && !want[rec.Kind.String()] {
			continue
		}
		fmt.Fprintln(w, formatRecord(rec))
	}
}

func formatRecord(rec telemetry.Record) string {
	prefix := fmt.Sprintf("%8d %-13s", rec.Tick, rec.Kind)
	switch rec.Kind {
	case telemetry.KindVehicle:
		if v := rec.Vehicle; v != nil {
			return fmt.Sprintf("%s pos=%d vel=%d acc=%d thr=%d brake=%s engine=%s red=%#x green=%#x",
				prefix, v.Position, v.Velocity, v.Acceleration, v.Throttle, v.Brake, v.Engine, v.Red, v.Green)
		}
	case telemetry.KindControl:
		if c := rec.Control; c != nil {
			return fmt.Sprintf("%s vel=%d target=%d integral=%d thr=%d engaged=%s holding=%t gas=%s brake=%s gear=%s",
				prefix, c.Velocity, c.Target, c.Integral, c.Throttle, c.Engaged, c.Holding, c.Gas, c.Brake, c.TopGear)
		}
	case telemetry.KindOverload:
		if o := rec.Overload; o != nil {
			return fmt.Sprintf("%s load=%d%% busy=%s", prefix, o.Percent, time.Duration(o.BusyNanos))
		}
	case telemetry.KindDeadlineMiss:
		return prefix + " OVERLOAD"
	}
	return prefix + " (empty)"
}

func printSummary(w io.Writer, h telemetry.Header, s telemetry.Summary) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	tick := time.Duration(h.TickNanos)
	span := time.Duration(s.LastTick-s.FirstTick) * tick
	rows := [][2]string{
		{"run", h.RunID},
		{"records", fmt.Sprint(s.Records)},
		{"ticks", fmt.Sprintf("%d..%d (%s)", s.FirstTick, s.LastTick, span)},
		{"vehicle cycles", fmt.Sprint(s.VehicleCycles)},
		{"velocity", fmt.Sprintf("%d..%d m/s", s.MinVelocity, s.MaxVelocity)},
		{"laps", fmt.Sprint(s.Laps)},
		{"control cycles", fmt.Sprintf("%d (%d engaged)", s.ControlCycles, s.EngagedCycles)},
		{"max throttle", fmt.Sprint(s.MaxThrottle)},
		{"injections", fmt.Sprintf("%d (max %d%%)", s.Injections, s.MaxOverload)},
		{"deadline misses", fmt.Sprint(s.DeadlineMisses)},
	}
	for _, r := range rows {
		fmt.Fprintf(tw, "%s:\t%s\n", r[0], r[1])
	}
	return tw.Flush()
}
