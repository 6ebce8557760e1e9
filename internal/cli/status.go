package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/mattn/go-isatty"
	"github.com/olekukonko/tablewriter"

	"github.com/vburojevic/hostdiag/internal/lifecycle"
)

// StatusCmd shows the managed process trees of the active session. Read-only
// and allowed without root.
type StatusCmd struct{}

// Run executes the status command
func (c *StatusCmd) Run(globals *Globals) error {
	ctrl := lifecycle.New(globals.Config, globals.Dir, globals.Hostname, globals.SugaredLogger())
	state, marker, entries, err := ctrl.Status()
	if err != nil {
		fmt.Fprintf(globals.Stderr, "Error: %v\n", err)
		return err
	}

	if len(entries) == 0 {
		fmt.Fprintln(globals.Stdout, "No diagnostics running.")
		return nil
	}

	fmt.Fprintf(globals.Stdout, "Session %s: %s\n\n", marker, state)

	if isTerminal(globals) {
		table := tablewriter.NewTable(globals.Stdout)
		table.Header("ROLE", "PID", "PGID", "COMMAND")
		for _, e := range entries {
			table.Append([]string{e.Role, strconv.Itoa(int(e.PID)), strconv.Itoa(e.PGID), truncate(e.Cmdline, 60)})
		}
		table.Render()
	} else {
		for _, e := range entries {
			fmt.Fprintf(globals.Stdout, "%s\t%d\t%d\t%s\n", e.Role, e.PID, e.PGID, e.Cmdline)
		}
	}

	for _, e := range entries {
		fmt.Fprintf(globals.Stdout, "\nProcess tree for %d (%s):\n%s", e.PID, e.Role, e.Tree)
	}
	return nil
}

// isTerminal reports whether stdout is an interactive terminal; plain
// tab-separated output is used otherwise so scripts can parse status.
func isTerminal(globals *Globals) bool {
	f, ok := globals.Stdout.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
