package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/babarot/tana/internal/config"
	"github.com/babarot/tana/internal/core/errs"
	"github.com/babarot/tana/internal/env"
	"github.com/babarot/tana/internal/utils/debug"
	"github.com/babarot/tana/internal/utils/log"
	"github.com/jessevdk/go-flags"
	"github.com/k0kubun/pp/v3"
	"github.com/rs/xid"
)

// ringLines is how many log lines the browser keeps for its log pane
const ringLines = 200

type Option struct {
	Config    string `long:"config" description:"Path to config file" default:""`
	ChooseDir string `long:"choose-dir" description:"Write the last directory to this file on exit" value-name:"FILE"`

	Meta MetaOption `group:"Meta Options"`
}

type MetaOption struct {
	Version    bool   `short:"V" long:"version" description:"Show version"`
	Debug      string `long:"debug" description:"View debug logs (default: \"full\")" optional-value:"full" optional:"yes" choice:"full" choice:"live"`
	ConfigDump bool   `long:"config-dump" description:"Print the effective configuration"`
	CleanStale bool   `long:"clean-stale" description:"Remove trash directories left by runs that did not exit cleanly"`
	Yes        bool   `short:"y" long:"yes" description:"Do not ask before removing stale trash"`
}

type CLI struct {
	version Version
	option  Option
	config  config.Config
	runID   string
	ring    *log.Ring
}

var runID = sync.OnceValue(func() string {
	id := xid.New().String()
	return id
})

func Run(v Version) error {
	var opt Option
	parser := flags.NewParser(&opt, flags.Default)
	parser.Name = v.AppName
	parser.Usage = "[OPTIONS] [DIR]"
	args, err := parser.Parse()
	if err != nil {
		if flags.WroteHelp(err) {
			return nil
		}
		return err
	}
	if len(args) > 1 {
		return fmt.Errorf("too many arguments: %v", args)
	}

	cfg, err := config.Parse(opt.Config)
	if err != nil {
		return err
	}

	ring := log.NewRing(ringLines)
	closeLog, err := setupLogger(cfg.Logging, ring)
	if err != nil {
		return err
	}
	defer closeLog()

	defer slog.Debug("main function finished")
	slog.Debug("main function started", "version", v.Version, "revision", v.Revision, "buildDate", v.BuildDate)

	c := CLI{
		version: v,
		option:  opt,
		config:  cfg,
		runID:   runID(),
		ring:    ring,
	}
	if err := c.Run(args); err != nil {
		slog.Error("exit", "error", fmt.Errorf("cli.run failed: %w", err))
		return err
	}
	return nil
}

// setupLogger sends logs to the ring and, when enabled, to the rotated log file
func setupLogger(cfg config.Logging, ring *log.Ring) (func(), error) {
	var w io.Writer = ring
	closer := func() {}

	if cfg.Enabled {
		if err := os.MkdirAll(filepath.Dir(env.TANA_LOG_PATH), 0o755); err != nil {
			return nil, err
		}
		rw, err := log.NewRotateWriter(env.TANA_LOG_PATH, cfg.Rotation)
		if err != nil {
			return nil, err
		}
		w = io.MultiWriter(rw, ring)
		closer = func() { rw.Close() }
	}

	log.New(
		log.UseOutput(w),
		log.UseLevel(log.ParseLevel(cfg.Level)),
		log.UseReportTimestamp(true),
		log.UseReportCaller(true),
		log.UseAttrs("run_id", runID()),
		log.AsDefault(),
	)
	return closer, nil
}

func (c CLI) Run(args []string) error {
	switch {
	case c.option.Meta.Version:
		fmt.Fprint(os.Stdout, c.version.Print())
		return nil

	case c.option.Meta.ConfigDump:
		pp.Println(c.config)
		return nil

	case c.option.Meta.CleanStale:
		return c.CleanStale()
	}

	switch c.option.Meta.Debug {
	case "live":
		return debug.Logs(os.Stdout, env.TANA_LOG_PATH, c.config.Logging, true)
	case "full":
		return debug.Logs(os.Stdout, env.TANA_LOG_PATH, c.config.Logging, false)
	}

	var dir string
	if len(args) > 0 {
		dir = args[0]
	}
	return c.Browse(dir)
}

// startDir resolves the directory the browser opens in
func startDir(arg string) (string, error) {
	if arg == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		arg = wd
	}
	dir, err := filepath.Abs(arg)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(dir)
	if err != nil {
		return "", errs.Wrap("open", dir, err)
	}
	if !info.IsDir() {
		return "", errs.New(errs.IoError, "open", dir, errors.New("not a directory"))
	}
	return dir, nil
}

// signalContext is cancelled on SIGINT or SIGTERM so the trash is still purged
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
