package daemon

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ppiankov/proofgate/internal/gateway"
	"github.com/ppiankov/proofgate/internal/logger"
)

// Config holds daemon configuration.
type Config struct {
	Inbox        string
	Outbox       string
	PollMode     bool
	PollInterval time.Duration
}

// Daemon watches the inbox directory and routes submissions through the
// gateway.
type Daemon struct {
	cfg       Config
	processor *Processor
}

// New creates a daemon with validated configuration.
func New(cfg Config, gw *gateway.Gateway) (*Daemon, error) {
	if cfg.Inbox == "" || cfg.Outbox == "" {
		return nil, fmt.Errorf("inbox and outbox directories are required")
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = pollDefault
	}

	return &Daemon{
		cfg:       cfg,
		processor: NewProcessor(gw, cfg.Outbox),
	}, nil
}

// Run processes pre-existing inbox files, then watches for new ones.
// Blocks until ctx is cancelled.
func (d *Daemon) Run(ctx context.Context) error {
	for _, dir := range []string{d.cfg.Inbox, d.cfg.Outbox} {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}

	d.sweep(ctx)

	handler := func(path string) {
		if err := d.processor.Process(ctx, path); err != nil {
			logger.Logger().Error().Str("path", path).Err(err).Msg("submission failed")
		}
	}

	if d.cfg.PollMode {
		logger.Logger().Info().Str("inbox", d.cfg.Inbox).Dur("interval", d.cfg.PollInterval).Msg("watching inbox (poll)")
		return NewPollWatcher(d.cfg.Inbox, handler, d.cfg.PollInterval).Run(ctx)
	}

	logger.Logger().Info().Str("inbox", d.cfg.Inbox).Msg("watching inbox")
	return NewInboxWatcher(d.cfg.Inbox, handler).Run(ctx)
}

// sweep processes submissions that were already present at startup.
func (d *Daemon) sweep(ctx context.Context) {
	entries, err := os.ReadDir(d.cfg.Inbox)
	if err != nil {
		return
	}
	for _, e := range entries {
		if e.IsDir() || !isSubmissionFile(e.Name()) {
			continue
		}
		path := filepath.Join(d.cfg.Inbox, e.Name())
		if err := d.processor.Process(ctx, path); err != nil {
			logger.Logger().Error().Str("path", path).Err(err).Msg("submission failed")
		}
	}
}
