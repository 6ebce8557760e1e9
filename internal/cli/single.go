package cli

import (
	"context"
	"fmt"

	"github.com/vburojevic/hostdiag/internal/lifecycle"
)

// SingleCmd takes one sampling iteration plus the one-shot system facts and
// archives the results, without spawning background processes.
type SingleCmd struct{}

// Run executes the singlecollection command
func (c *SingleCmd) Run(globals *Globals) error {
	if err := requireRoot(globals); err != nil {
		return err
	}

	ctrl := lifecycle.New(globals.Config, globals.Dir, globals.Hostname, globals.SugaredLogger())
	path, err := ctrl.Single(context.Background())
	if err != nil {
		fmt.Fprintf(globals.Stderr, "Error: %v\n", err)
		return err
	}
	fmt.Fprintf(globals.Stdout, "Archive created: %s\n", path)
	return nil
}
