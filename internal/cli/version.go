package cli

import "fmt"

// VersionCmd shows version information.
type VersionCmd struct{}

// Run executes the version command
func (c *VersionCmd) Run(globals *Globals) error {
	fmt.Fprintf(globals.Stdout, "hostdiag %s (%s)\n", Version, Commit)
	return nil
}
