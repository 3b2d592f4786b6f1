package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/proofgate/internal/audit"
	"github.com/ppiankov/proofgate/internal/config"
	"github.com/ppiankov/proofgate/internal/daemon"
	"github.com/ppiankov/proofgate/internal/gateway"
	"github.com/ppiankov/proofgate/internal/logger"
	"github.com/ppiankov/proofgate/internal/model"
	"github.com/ppiankov/proofgate/internal/sequence"
)

var (
	runConfigPath   string
	runPollMode     bool
	runPollInterval time.Duration
)

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVar(&runConfigPath, "config", "", "Path to config YAML (default ~/.proofgate/config.yaml)")
	runCmd.Flags().BoolVar(&runPollMode, "poll", false, "Poll the inbox instead of using fsnotify")
	runCmd.Flags().DurationVar(&runPollInterval, "poll-interval", 0, "Poll interval (default 5s)")
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the file gateway daemon",
	Long: "Registers the configured circuits, opens the audit trail, and\n" +
		"processes proof submissions dropped into the inbox directory.\n" +
		"Decisions are written to the outbox.",
	RunE: runDaemon,
}

// bootGateway opens the audit trail and builds a gateway from it plus the
// configured circuits. Circuits the trail already records are restored
// from their projections rather than re-registered, so a restart never
// appends a second registration event; a configured key that disagrees
// with the one on record is a hard boot error.
func bootGateway(cfg *config.Config) (*gateway.Gateway, *audit.Log, error) {
	log, err := audit.Open(cfg.AuditLog)
	if err != nil {
		return nil, nil, err
	}

	var (
		start uint64
		known map[string]*audit.CircuitProjection
		level = cfg.InitialLevel
	)
	if replay, err := audit.Replay(cfg.AuditLog, audit.ReplayFilter{}); err == nil && replay.Summary.Total > 0 {
		start = replay.Summary.LastSeq
		circuits, recorded, err := audit.RebuildFrom(replay.Entries)
		if err != nil {
			log.Close()
			return nil, nil, fmt.Errorf("rebuild %s: %w", cfg.AuditLog, err)
		}
		known = circuits
		if recorded != 0 {
			level = recorded
		}
	}

	gw, err := gateway.New(gateway.Config{
		AdminCaller:    cfg.AdminCaller,
		InitialLevel:   level,
		Sequence:       sequence.NewCounter(start),
		Events:         log,
		VerifyDeadline: cfg.VerifyDeadline.Std(),
	})
	if err != nil {
		log.Close()
		return nil, nil, err
	}

	for _, cc := range cfg.Circuits {
		verifier, fp, err := cc.Build()
		if err != nil {
			log.Close()
			return nil, nil, err
		}

		if proj, ok := known[cc.ID]; ok {
			if proj.Fingerprint != string(fp) {
				log.Close()
				return nil, nil, fmt.Errorf("circuit %s: configured verifying key does not match the one on record", cc.ID)
			}
			if err := gw.RestoreCircuit(proj, verifier); err != nil {
				log.Close()
				return nil, nil, fmt.Errorf("restore circuit %s: %w", cc.ID, err)
			}
			continue
		}

		if err := gw.Register(cfg.AdminCaller, model.CircuitID(cc.ID), verifier, fp, cc.MinLevel); err != nil {
			log.Close()
			return nil, nil, fmt.Errorf("register circuit %s: %w", cc.ID, err)
		}
	}

	return gw, log, nil
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg, cfgHash, err := config.LoadWithHash(runConfigPath)
	if err != nil {
		return err
	}

	gw, log, err := bootGateway(cfg)
	if err != nil {
		return err
	}
	defer log.Close()

	logger.Logger().Info().
		Str("config_hash", cfgHash).
		Int("level", gw.Level()).
		Int("circuits", len(cfg.Circuits)).
		Str("audit_log", cfg.AuditLog).
		Msg("proofgate started")

	d, err := daemon.New(daemon.Config{
		Inbox:        cfg.Inbox,
		Outbox:       cfg.Outbox,
		PollMode:     runPollMode,
		PollInterval: runPollInterval,
	}, gw)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = d.Run(ctx)
	logger.Logger().Info().Msg("proofgate stopped")
	return err
}
