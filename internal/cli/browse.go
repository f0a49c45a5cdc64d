package cli

import (
	"errors"
	"log/slog"

	fsatomic "github.com/babarot/tana/internal/core/atomic"
	"github.com/babarot/tana/internal/journal"
	"github.com/babarot/tana/internal/opener"
	"github.com/babarot/tana/internal/preview"
	"github.com/babarot/tana/internal/scheduler"
	"github.com/babarot/tana/internal/ui"
	"github.com/babarot/tana/internal/utils/log"
)

// Browse runs the file manager in dir until the user quits
func (c CLI) Browse(dir string) (err error) {
	dir, err = startDir(dir)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	cfg := c.config
	sched := scheduler.New(ctx, scheduler.Options{Workers: cfg.Core.Workers})
	defer func() {
		if cerr := sched.Close(); cerr != nil {
			slog.Warn("scheduler close", "error", cerr)
		}
	}()

	j, err := journal.Open(journal.Options{RunID: c.runID, Scheduler: sched})
	if err != nil {
		return err
	}
	// closed before the scheduler so the purge happens even if a job hangs
	defer func() {
		if cerr := j.Close(); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}()

	op, err := opener.New(cfg.Open.Rules)
	if err != nil {
		return err
	}

	c.noticeStale(j.Dir())

	last, err := ui.Run(ctx, ui.Options{
		Config:    cfg,
		Dir:       dir,
		Scheduler: sched,
		Previews:  c.previews(sched),
		Journal:   j,
		Opener:    op,
		Ring:      c.ring,
	})
	if err != nil {
		return err
	}

	if path := c.option.ChooseDir; path != "" {
		if err := fsatomic.WriteFile(path, []byte(last), 0o644); err != nil {
			return err
		}
		slog.Debug("wrote last directory", "file", path, "dir", last)
	}
	return nil
}

func (c CLI) previews(sched *scheduler.Scheduler) *preview.Service {
	p := c.config.Preview
	opts := preview.DefaultOptions()
	opts.MaxTextSize = p.MaxTextBytes()
	opts.MaxLines = p.MaxLines
	opts.DirLimit = p.DirLimit
	opts.SyntaxHighlight = p.SyntaxHighlight
	opts.Colorscheme = p.Colorscheme
	opts.ImageEnabled = p.Image.Enabled
	opts.ExternalCommand = p.External.Command
	opts.ExternalTimeout = p.External.TimeoutDuration()

	return preview.NewService(preview.NewCache(p.CacheBytes()), preview.NewGenerator(opts), sched)
}

// noticeStale logs trash directories left behind by earlier runs
func (c CLI) noticeStale(own string) {
	stale, err := journal.FindStale("")
	if err != nil {
		slog.Warn("scan for stale trash failed", "error", err)
		return
	}
	for _, s := range stale {
		if s.Dir == own {
			continue
		}
		log.Important("stale trash found, run with --clean-stale to remove it",
			"dir", s.Dir, "run_id", s.RunID, "items", s.Items, "size", s.Size)
	}
}
