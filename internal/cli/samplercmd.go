package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/vburojevic/hostdiag/internal/sampler"
	"github.com/vburojevic/hostdiag/internal/toolrun"
)

// SamplerCmd runs the sampling loop in the foreground. It is the hidden
// command the detached sampling-loop process is started with; the marker flag
// puts the session token on this process's command line so teardown can find
// it even if the session record is lost.
type SamplerCmd struct {
	Marker   string `required:"" help:"Session marker token"`
	Dir      string `default:"." help:"Artifact directory"`
	Prefix   string `default:"hostdiag" help:"Artifact file prefix"`
	Hostname string `help:"Hostname used in artifact file names"`
	Interval int    `default:"1800" help:"Sampling interval in seconds"`
}

// Run executes the sampler command
func (c *SamplerCmd) Run(globals *Globals) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The teardown procedure signals this process group; translate that into
	// context cancellation so the loop finishes its iteration cleanly.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	hostname := c.Hostname
	if hostname == "" {
		hostname = globals.Hostname
	}

	globals.Debug("sampling loop starting (marker %s, interval %ds)", c.Marker, c.Interval)
	loop := sampler.New(sampler.Options{
		Dir:      c.Dir,
		Prefix:   c.Prefix,
		Hostname: hostname,
		Interval: sampler.ParseInterval(c.Interval),
		Selector: globals.Config.Sampler.Selector,
		Denylist: globals.Config.Sampler.Denylist,
		SelfPID:  int32(os.Getpid()),
	}, toolrun.NewRunner(globals.SugaredLogger()), globals.SugaredLogger())
	return loop.Run(ctx)
}
