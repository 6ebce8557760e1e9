package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/vburojevic/hostdiag/internal/lifecycle"
)

// StartCmd starts background diagnostic collection.
type StartCmd struct {
	Interval  int    `short:"i" default:"${config_interval}" help:"Sampling interval in seconds"`
	Interface string `default:"${config_interface}" help:"Network capture interface ('any' captures on all interfaces)"`
	SizeMB    int    `name:"size-mb" default:"${config_size_mb}" help:"Capture file rotation size in MB"`
	Count     int    `default:"${config_count}" help:"Capture rotation file count"`
}

// Run executes the start command
func (c *StartCmd) Run(globals *Globals) error {
	if err := requireRoot(globals); err != nil {
		return err
	}

	cfg := *globals.Config
	cfg.Interval = c.Interval
	cfg.Capture.Interface = c.Interface
	cfg.Capture.SizeMB = c.SizeMB
	cfg.Capture.Count = c.Count

	globals.Debug("starting collection in %s (interval %ds)", globals.Dir, cfg.Interval)
	ctrl := lifecycle.New(&cfg, globals.Dir, globals.Hostname, globals.SugaredLogger())
	s, err := ctrl.Start(context.Background())
	if err != nil {
		fmt.Fprintf(globals.Stderr, "Error: %v\n", err)
		return err
	}

	fmt.Fprintf(globals.Stdout, "Collection started (marker %s, interval %ds)\n", s.Marker, s.Interval)
	fmt.Fprintf(globals.Stdout, "Artifacts: %s.*\n", filepath.Join(globals.Dir, s.FileBase()))
	fmt.Fprintln(globals.Stdout, "Run 'hostdiag collect' to stop and archive the results.")
	return nil
}
