package cli

import (
	"context"
	"fmt"

	"github.com/vburojevic/hostdiag/internal/lifecycle"
)

// StopCmd stops collection and gathers the one-shot system facts. Safe to
// run when nothing is collecting.
type StopCmd struct{}

// Run executes the stop command
func (c *StopCmd) Run(globals *Globals) error {
	if err := requireRoot(globals); err != nil {
		return err
	}

	ctrl := lifecycle.New(globals.Config, globals.Dir, globals.Hostname, globals.SugaredLogger())
	if err := ctrl.Stop(context.Background()); err != nil {
		fmt.Fprintf(globals.Stderr, "Error: %v\n", err)
		return err
	}
	fmt.Fprintln(globals.Stdout, "Collection stopped; one-shot system facts gathered.")
	fmt.Fprintln(globals.Stdout, "Run 'hostdiag collect' to archive the artifacts.")
	return nil
}
