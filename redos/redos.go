// Package redos checks regular expressions for catastrophic backtracking without running them.
package redos

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mfroeh/redoscheck/config"
	"github.com/mfroeh/redoscheck/detector"
	"github.com/mfroeh/redoscheck/regex"
	"github.com/mfroeh/redoscheck/report"
)

// Check parses source with the flags of cfg and reports whether it is safe.
func Check(ctx context.Context, source string, cfg config.Config, logger *slog.Logger) (*report.Report, error) {
	p, err := regex.Parse(source, cfg.Flags)
	if err != nil {
		return nil, err
	}
	return CheckPattern(ctx, p, cfg, logger)
}

// CheckLiteral is Check for slash delimited patterns such as /a+b/i. The literal's flags replace those of cfg.
func CheckLiteral(ctx context.Context, literal string, cfg config.Config, logger *slog.Logger) (*report.Report, error) {
	p, err := regex.ParseLiteral(literal)
	if err != nil {
		return nil, err
	}
	return CheckPattern(ctx, p, cfg, logger)
}

func CheckPattern(ctx context.Context, p *regex.Pattern, cfg config.Config, logger *slog.Logger) (*report.Report, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	checked := p
	opts := cfg.Options(logger)
	if cfg.Downgrade {
		down, err := regex.Downgrade(p)
		if err != nil {
			return nil, err
		}
		if down.Changed {
			logger.Info("downgraded backreferences", "pattern", p.Source, "checked", down.Pattern.Source)
		}
		checked = down.Pattern
		opts.AtomicOffsets = down.AtomicOffsets
	}

	res, err := detector.Check(ctx, checked, opts)
	if err != nil {
		return nil, fmt.Errorf("checking /%s/%s: %w", p.Source, p.Flags, err)
	}

	r := report.Aggregate(p.Source, checked, res, report.Settings{MaxBacktracks: cfg.Budget.MaxBacktracks})
	if !r.Safe {
		logger.Debug("unsafe pattern", "pattern", p.Source, "score", r.Score, "status", r.Status, "trails", len(r.Trails))
	}
	return r, nil
}
