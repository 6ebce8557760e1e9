package lifecycle

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vburojevic/hostdiag/internal/archive"
	"github.com/vburojevic/hostdiag/internal/sampler"
	"github.com/vburojevic/hostdiag/internal/session"
	"github.com/vburojevic/hostdiag/internal/toolrun"
)

// Collect stops the session, bundles every artifact plus discovered runtime
// dump files into a timestamped archive, and removes the session record.
// Archive failure leaves all inputs and the record untouched.
func (c *Controller) Collect(ctx context.Context) (string, error) {
	if err := c.Stop(ctx); err != nil {
		return "", err
	}
	return c.archiveSession()
}

// Single performs one sampling iteration in-process, gathers the one-shot
// system facts, and archives the results. No background processes are
// spawned.
func (c *Controller) Single(ctx context.Context) (string, error) {
	s := session.New(c.dir, c.cfg.Prefix, c.hostname, c.cfg.Interval, c.clock.Now())
	if err := c.store.Save(s); err != nil {
		return "", fmt.Errorf("persist session state: %w", err)
	}

	c.sampleOnce(ctx)
	c.gatherSystemFacts(ctx)
	return c.archiveSession()
}

// sampleOnce runs one in-process sampling iteration.
func (c *Controller) sampleOnce(ctx context.Context) {
	loop := sampler.New(sampler.Options{
		Dir:      c.dir,
		Prefix:   c.cfg.Prefix,
		Hostname: c.hostname,
		Interval: sampler.ParseInterval(c.cfg.Interval),
		Selector: c.cfg.Sampler.Selector,
		Denylist: c.cfg.Sampler.Denylist,
		SelfPID:  int32(os.Getpid()),
	}, toolrun.NewRunner(c.log), c.log)
	loop.Iterate(ctx)
}

// archiveSession builds the archive for whatever artifacts the session left
// behind and deletes the session record only when archiving succeeded.
func (c *Controller) archiveSession() (string, error) {
	fileBase := session.FileBase(c.cfg.Prefix, c.hostname)
	b := archive.NewBuilder(c.log)

	files, err := b.Collect(c.dir, fileBase, c.artifact(session.KindDumps), c.cfg.Sampler.DumpPatterns)
	if err != nil {
		return "", err
	}

	dest := session.ArchivePath(c.dir, c.cfg.Prefix, c.hostname, c.clock.Now())
	path, err := b.Build(dest, files)
	if err != nil {
		return "", err
	}

	if err := c.store.Delete(); err != nil {
		c.log.Debugw("remove session state", "error", err)
	}
	return path, nil
}

// Clean removes the session's artifact files without archiving. Best-effort:
// a file that cannot be removed is skipped.
func (c *Controller) Clean() error {
	fileBase := session.FileBase(c.cfg.Prefix, c.hostname)
	matches, err := filepath.Glob(filepath.Join(c.dir, fileBase+".*"))
	if err != nil {
		return err
	}
	for _, m := range matches {
		if filepath.Ext(m) == ".gz" {
			// Completed archives survive clean.
			continue
		}
		if err := os.Remove(m); err != nil {
			c.log.Debugw("remove artifact", "path", m, "error", err)
		}
	}
	return c.store.Delete()
}
