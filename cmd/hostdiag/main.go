package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/alecthomas/kong"
	"github.com/vburojevic/hostdiag/internal/cli"
	"github.com/vburojevic/hostdiag/internal/config"
)

const quickStart = `hostdiag - host-level diagnostic collection

Quick start (as root):
  hostdiag start                 Begin background collection
  hostdiag status                Inspect the managed process trees
  hostdiag collect               Stop, archive and clean up

For help:
  hostdiag --help                All commands and flags
`

func main() {
	// Show quick start if no args provided
	if len(os.Args) == 1 {
		fmt.Print(quickStart)
		return
	}

	// Load configuration from files/environment
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load config: %v\n", err)
		cfg = config.Default()
	}

	var c cli.CLI

	// Apply config defaults before parsing
	// These will be overridden by CLI flags if specified
	vars := kong.Vars{
		"config_interval":  strconv.Itoa(cfg.Interval),
		"config_interface": cfg.Capture.Interface,
		"config_size_mb":   strconv.Itoa(cfg.Capture.SizeMB),
		"config_count":     strconv.Itoa(cfg.Capture.Count),
	}

	ctx := kong.Parse(&c,
		kong.Name("hostdiag"),
		kong.Description("hostdiag: supervise background collection of system and per-process diagnostics"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
			Summary: true,
		}),
		vars,
	)

	globals := cli.NewGlobalsWithConfig(&c, cfg)
	err = ctx.Run(globals)
	if err != nil {
		os.Exit(1)
	}
}
