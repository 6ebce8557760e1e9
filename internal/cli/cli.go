// Package cli wires the hostdiag commands. Each command is a kong struct
// with a Run(globals) method; Globals carries shared configuration and the
// output streams so tests can capture everything.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/vburojevic/hostdiag/internal/config"
)

// Version information (set by build flags)
var (
	Version = "dev"
	Commit  = "unknown"
)

// CLI is the root command structure
type CLI struct {
	Verbose bool   `short:"v" help:"Enable verbose debug logging"`
	Dir     string `short:"d" default:"." help:"Working directory for session state and artifact files"`

	Start            StartCmd   `cmd:"" help:"Start background diagnostic collection (packet capture + sampling loop)"`
	Stop             StopCmd    `cmd:"" help:"Stop collection and gather one-shot system facts"`
	Status           StatusCmd  `cmd:"" help:"Show the managed process trees of the active session"`
	Collect          CollectCmd `cmd:"" help:"Stop collection, archive all artifacts and clean up"`
	Singlecollection SingleCmd  `cmd:"" help:"Take one sampling iteration and archive the results"`
	Clean            CleanCmd   `cmd:"" help:"Remove artifact files without archiving"`
	Sampler          SamplerCmd `cmd:"" hidden:"" help:"Run the sampling loop in the foreground (internal)"`
	Config           ConfigCmd  `cmd:"" help:"Inspect configuration"`
	Version          VersionCmd `cmd:"" help:"Show version information"`
}

// Globals holds shared state passed to every command
type Globals struct {
	Verbose  bool
	Dir      string
	Hostname string
	Stdout   io.Writer
	Stderr   io.Writer
	Config   *config.Config

	// EUID reports the effective user id; overridable in tests.
	EUID func() int

	logger *debugLogger
}

// NewGlobalsWithConfig builds Globals from parsed flags and loaded config.
func NewGlobalsWithConfig(c *CLI, cfg *config.Config) *Globals {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}
	g := &Globals{
		Verbose:  c.Verbose || cfg.Verbose,
		Dir:      c.Dir,
		Hostname: hostname,
		Stdout:   os.Stdout,
		Stderr:   os.Stderr,
		Config:   cfg,
		EUID:     os.Geteuid,
	}
	g.logger = newDebugLogger(g)
	return g
}

// Debug logs a verbose debug message when --verbose is set.
func (g *Globals) Debug(format string, args ...interface{}) {
	if g.logger != nil {
		g.logger.Debug(format, args...)
	}
}

// requireRoot enforces the elevated-privilege precondition shared by every
// command that signals processes or spawns capture tools.
func requireRoot(globals *Globals) error {
	euid := os.Geteuid
	if globals.EUID != nil {
		euid = globals.EUID
	}
	if euid() != 0 {
		fmt.Fprintln(globals.Stderr, "Error: hostdiag must be run with root privileges")
		return errors.New("root privileges required")
	}
	return nil
}
