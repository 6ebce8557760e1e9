package cli

import (
	"context"
	"fmt"

	"github.com/vburojevic/hostdiag/internal/lifecycle"
)

// CollectCmd stops collection, archives every artifact plus runtime dump
// files, and removes the originals.
type CollectCmd struct{}

// Run executes the collect command
func (c *CollectCmd) Run(globals *Globals) error {
	if err := requireRoot(globals); err != nil {
		return err
	}

	ctrl := lifecycle.New(globals.Config, globals.Dir, globals.Hostname, globals.SugaredLogger())
	path, err := ctrl.Collect(context.Background())
	if err != nil {
		fmt.Fprintf(globals.Stderr, "Error: %v\n", err)
		return err
	}
	fmt.Fprintf(globals.Stdout, "Archive created: %s\n", path)
	return nil
}
