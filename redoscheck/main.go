package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"time"

	"github.com/alecthomas/kong"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"golang.org/x/sync/errgroup"

	"github.com/mfroeh/redoscheck/config"
	"github.com/mfroeh/redoscheck/redos"
	"github.com/mfroeh/redoscheck/report"
)

const (
	exitSafe   = 0
	exitUnsafe = 1
	exitError  = 2
)

type options struct {
	Patterns []string `arg:"" optional:"" name:"pattern" help:"Patterns to check, plain source or /source/flags." type:"string"`
	File     string   `short:"f" help:"Read patterns from a file, one per line." type:"existingfile"`
	Config   string   `short:"c" help:"YAML config file." type:"existingfile"`

	IgnoreCase *bool `short:"i" negatable:"" help:"Case insensitive matching."`
	DotAll     *bool `short:"s" negatable:"" help:"Dot matches line terminators."`
	Unicode    *bool `short:"u" negatable:"" help:"Unicode mode."`
	Multiline  *bool `short:"m" negatable:"" help:"Anchors match at line boundaries."`

	MaxSteps      int           `help:"Give up after this many steps per pattern." placeholder:"N"`
	Timeout       time.Duration `help:"Give up on a pattern after this long."`
	MaxBacktracks int           `help:"Largest score still reported safe." default:"-1" placeholder:"N"`
	NoDowngrade   bool          `help:"Don't rewrite backreferences the detector can't follow."`

	JSON    bool `name:"json" help:"Write reports as JSON."`
	Verbose bool `short:"v" help:"Log debug output to stderr."`
	Jobs    int  `short:"j" help:"Patterns checked concurrently." default:"${jobs}"`
}

func main() {
	var cli options
	kong.Parse(&cli,
		kong.Name("redoscheck"),
		kong.Description("Statically checks regular expressions for catastrophic backtracking."),
		kong.UsageOnError(),
		kong.Vars{"jobs": strconv.Itoa(runtime.NumCPU())},
	)
	log.SetFlags(0)

	cfg := config.Default()
	if cli.Config != "" {
		var err error
		cfg, err = config.Load(cli.Config)
		if err != nil {
			fatalf("%v", err)
		}
	}
	cli.apply(&cfg)
	if err := cfg.Validate(); err != nil {
		fatalf("%v", err)
	}

	patterns := cli.Patterns
	if cli.File != "" {
		fromFile, err := readPatterns(cli.File)
		if err != nil {
			fatalf("%v", err)
		}
		patterns = append(patterns, fromFile...)
	}
	if len(patterns) == 0 {
		fatalf("no patterns given")
	}

	level := cfg.LogLevel
	if cli.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	reports, err := checkAll(ctx, patterns, cfg, max(cli.Jobs, 1), logger)
	if err != nil {
		fatalf("%v", err)
	}

	if cli.JSON {
		err = report.WriteJSON(os.Stdout, reports)
	} else {
		colored := !color.NoColor && (isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()))
		for _, r := range reports {
			if err = report.WriteText(os.Stdout, r, colored); err != nil {
				break
			}
		}
	}
	if err != nil {
		fatalf("writing reports: %v", err)
	}

	stop()
	os.Exit(exitCode(reports))
}

// apply lets flags that were set override cfg. A --no-<flag> turns off a flag the config file set.
func (o options) apply(cfg *config.Config) {
	override(&cfg.Flags.IgnoreCase, o.IgnoreCase)
	override(&cfg.Flags.DotAll, o.DotAll)
	override(&cfg.Flags.Unicode, o.Unicode)
	override(&cfg.Flags.Multiline, o.Multiline)
	if o.MaxSteps > 0 {
		cfg.Budget.MaxSteps = o.MaxSteps
	}
	if o.Timeout > 0 {
		cfg.Budget.Timeout = o.Timeout
	}
	if o.MaxBacktracks >= 0 {
		cfg.Budget.MaxBacktracks = o.MaxBacktracks
	}
	if o.NoDowngrade {
		cfg.Downgrade = false
	}
}

func override(dst *bool, flag *bool) {
	if flag != nil {
		*dst = *flag
	}
}

// checkAll checks every pattern, at most jobs at a time. Reports keep the order of patterns.
func checkAll(ctx context.Context, patterns []string, cfg config.Config, jobs int, logger *slog.Logger) ([]*report.Report, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	reports := make([]*report.Report, len(patterns))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)

	for i, pattern := range patterns {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			var r *report.Report
			var err error
			if isLiteral(pattern) {
				r, err = redos.CheckLiteral(ctx, pattern, cfg, logger)
			} else {
				r, err = redos.Check(ctx, pattern, cfg, logger)
			}
			if err != nil {
				logger.Warn("pattern not checked", "pattern", pattern, "err", err)
				r = report.Failed(pattern, cfg.Flags, err)
			}
			reports[i] = r
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("checking patterns: %w", err)
	}
	return reports, nil
}

func exitCode(reports []*report.Report) int {
	code := exitSafe
	for _, r := range reports {
		switch {
		case r.Err != nil:
			return exitError
		case !r.Safe:
			code = exitUnsafe
		}
	}
	return code
}

func fatalf(format string, args ...any) {
	log.Printf(format, args...)
	os.Exit(exitError)
}
