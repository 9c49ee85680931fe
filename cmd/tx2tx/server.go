package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tx2tx/tx2tx/engine"
	"github.com/tx2tx/tx2tx/logging"
	"github.com/tx2tx/tx2tx/netserver"
)

func runServer(cmd *cobra.Command) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := logging.New(logging.Config{
		Level:  resolvedLevel(cfg.Logging.Level),
		Format: cfg.Logging.Format,
		File:   cfg.Logging.File,
	})
	if err := cfg.ValidateServer(); err != nil {
		return err
	}

	sess, err := connectSession(cfg.Server.Display, log, true, false)
	if err != nil {
		return err
	}
	defer sess.backend.Close()

	localScreen, err := sess.backend.ScreenGeometry()
	if err != nil {
		return err
	}

	server := netserver.NewServer(cfg.Server.MaxClients, log)
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	if err := server.Start(addr); err != nil {
		return err
	}
	defer server.Stop()
	log.Info().Str("addr", addr).Msg("tx2tx server listening")

	engCfg, err := cfg.ToEngineConfig(flagEdgeThreshold, flagVelocityThreshold)
	if err != nil {
		return err
	}

	eng := engine.New(engCfg, log, sess.backend, sess.capturer, server, localScreen)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(eng.PollInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("shutting down on signal")
			return nil
		case now := <-ticker.C:
			outcome := eng.Tick(now)
			switch outcome.Kind {
			case engine.OutcomeFatal:
				log.Error().Err(outcome.Err).Msg("engine tick fatal error, shutting down")
				return outcome.Err
			case engine.OutcomeStopped:
				log.Info().Str("reason", outcome.Reason).Msg("engine stopped itself, shutting down")
				return nil
			}
		}
	}
}
