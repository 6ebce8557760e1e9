package cli

import (
	"fmt"

	"github.com/vburojevic/hostdiag/internal/lifecycle"
)

// CleanCmd removes artifact files without archiving. Completed archives are
// kept.
type CleanCmd struct{}

// Run executes the clean command
func (c *CleanCmd) Run(globals *Globals) error {
	if err := requireRoot(globals); err != nil {
		return err
	}

	ctrl := lifecycle.New(globals.Config, globals.Dir, globals.Hostname, globals.SugaredLogger())
	if err := ctrl.Clean(); err != nil {
		fmt.Fprintf(globals.Stderr, "Error: %v\n", err)
		return err
	}
	fmt.Fprintln(globals.Stdout, "Artifacts removed.")
	return nil
}
