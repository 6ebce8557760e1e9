package cli

import (
	"fmt"
	"strings"

	"github.com/vburojevic/hostdiag/internal/config"
)

// ConfigCmd groups configuration inspection subcommands.
type ConfigCmd struct {
	Show     ConfigShowCmd     `cmd:"" default:"1" help:"Show the effective configuration"`
	Path     ConfigPathCmd     `cmd:"" help:"Show which config file is in use"`
	Generate ConfigGenerateCmd `cmd:"" help:"Print a sample configuration file"`
}

// ConfigShowCmd shows the effective configuration.
type ConfigShowCmd struct{}

// Run executes the config show command
func (c *ConfigShowCmd) Run(globals *Globals) error {
	cfg := globals.Config
	fmt.Fprintln(globals.Stdout, "Current Configuration:")
	fmt.Fprintf(globals.Stdout, "  prefix: %s\n", cfg.Prefix)
	fmt.Fprintf(globals.Stdout, "  interval: %d\n", cfg.Interval)
	fmt.Fprintf(globals.Stdout, "  verbose: %t\n", cfg.Verbose)
	fmt.Fprintln(globals.Stdout, "  capture:")
	fmt.Fprintf(globals.Stdout, "    interface: %s\n", cfg.Capture.Interface)
	fmt.Fprintf(globals.Stdout, "    size_mb: %d\n", cfg.Capture.SizeMB)
	fmt.Fprintf(globals.Stdout, "    count: %d\n", cfg.Capture.Count)
	fmt.Fprintln(globals.Stdout, "  sampler:")
	fmt.Fprintf(globals.Stdout, "    selector: %s\n", cfg.Sampler.Selector)
	fmt.Fprintf(globals.Stdout, "    denylist: [%s]\n", strings.Join(cfg.Sampler.Denylist, ", "))
	fmt.Fprintf(globals.Stdout, "    dump_patterns: [%s]\n", strings.Join(cfg.Sampler.DumpPatterns, ", "))
	return nil
}

// ConfigPathCmd shows which config file is in use.
type ConfigPathCmd struct{}

// Run executes the config path command
func (c *ConfigPathCmd) Run(globals *Globals) error {
	path := config.ConfigFile()
	if path == "" {
		fmt.Fprintln(globals.Stdout, "No configuration file found (using defaults)")
		return nil
	}
	fmt.Fprintf(globals.Stdout, "Config file: %s\n", path)
	return nil
}

// ConfigGenerateCmd prints a sample configuration file.
type ConfigGenerateCmd struct{}

const sampleConfig = `# hostdiag configuration file
# Place in /etc/hostdiag/hostdiag.yaml, ~/.hostdiag.yaml or ./hostdiag.yaml

# Artifact file prefix; files are named <prefix>.<hostname>.<kind>.out
prefix: hostdiag

# Sampling interval in seconds
interval: 1800

verbose: false

capture:
  # Interface to capture on; "any" captures on all interfaces
  interface: any
  # Per-file rotation size in MB and number of rotation files
  size_mb: 100
  count: 10

sampler:
  # Command-line substring selecting application-runtime processes
  selector: java
  # Runtimes whose on-demand dump behavior is too expensive to trigger
  denylist:
    - elasticsearch
    - logstash
    - cassandra
    - kafka
  # Globs used to pick up runtime-produced dump files at collect time
  dump_patterns:
    - "javacore*"
    - "heapdump*"
    - "*.hprof"
    - "Snap*.trc"
`

// Run executes the config generate command
func (c *ConfigGenerateCmd) Run(globals *Globals) error {
	fmt.Fprint(globals.Stdout, sampleConfig)
	return nil
}
