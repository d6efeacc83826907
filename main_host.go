//go:build !tinygo

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"cruise/app"
	"cruise/cruiseos/scenario"
	"cruise/cruiseos/telemetry"
	"cruise/hal"
	"cruise/internal/buildinfo"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"
)

func main() {
	cliApp := &cli.App{
		Name:    "cruise",
		Usage:   "Cruise-control unit on a fixed-priority real-time kernel",
		Version: buildinfo.Short(),
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "headless", Usage: "Run without a window."},
			&cli.IntFlag{Name: "hz", Usage: "Hardware tick rate (0 = 10 Hz)."},
			&cli.Uint64Flag{Name: "ticks", Usage: "Stop after N hardware ticks in headless mode (0 = run forever)."},
			&cli.StringFlag{Name: "scenario", EnvVars: []string{"CRUISE_SCENARIO"}, Usage: "YAML operator script."},
			&cli.StringFlag{Name: "trace", EnvVars: []string{"CRUISE_TRACE"}, Usage: "Write a msgpack trace to `FILE`."},
			&cli.StringFlag{Name: "metrics-addr", Usage: "Serve Prometheus metrics on `ADDR`, e.g. :2112."},
		},
		Action: run,
	}
	if err := cliApp.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	var cfg app.Config

	if path := c.String("scenario"); path != "" {
		sc, err := scenario.Load(path)
		if err != nil {
			return cli.Exit(err.Error(), 2)
		}
		cfg.Scenario = sc
	}

	if path := c.String("trace"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return cli.Exit(fmt.Sprintf("trace: %v", err), 2)
		}
		defer f.Close()
		cfg.Trace = f
	}

	if addr := c.String("metrics-addr"); addr != "" {
		reg := prom.NewRegistry()
		cfg.Registry = reg
		mux := http.NewServeMux()
		mux.Handle("/metrics", telemetry.Handler(reg))
		srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				fmt.Fprintln(os.Stderr, "metrics:", err)
			}
		}()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			_ = srv.Shutdown(ctx)
		}()
	}

	var sys *app.System
	newApp := func(h hal.HAL) (func() error, error) {
		s, err := app.New(h, cfg)
		if err != nil {
			return nil, err
		}
		sys = s
		return s.Step, nil
	}

	var err error
	if c.Bool("headless") {
		ctx, stop := signal.NotifyContext(c.Context, os.Interrupt)
		defer stop()
		err = hal.RunHeadless(ctx, newApp, hal.HeadlessConfig{Hz: c.Int("hz"), Ticks: c.Uint64("ticks")})
		if errors.Is(err, context.Canceled) {
			err = nil
		}
	} else {
		err = hal.RunWindow(newApp, hal.WindowConfig{Hz: c.Int("hz")})
	}

	if sys != nil {
		if cerr := sys.Close(); err == nil {
			err = cerr
		}
	}
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	return nil
}
