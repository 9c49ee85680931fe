package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tx2tx/tx2tx/clientloop"
	"github.com/tx2tx/tx2tx/config"
	"github.com/tx2tx/tx2tx/logging"
	"github.com/tx2tx/tx2tx/netclient"
)

func reconnectOptions(r config.Reconnect) []netclient.Option {
	return []netclient.Option{
		netclient.WithReconnectDelay(time.Duration(r.DelaySeconds) * time.Second),
		netclient.WithMaxReconnectAttempts(r.MaxAttempts),
	}
}

func runClient(cmd *cobra.Command, serverAddr string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg.Client.ServerAddress = serverAddr
	log := logging.New(logging.Config{
		Level:  resolvedLevel(cfg.Logging.Level),
		Format: cfg.Logging.Format,
		File:   cfg.Logging.File,
	})
	if err := cfg.ValidateClient(); err != nil {
		return err
	}

	sess, err := connectSession(cfg.Client.Display, log, false, true)
	if err != nil {
		return err
	}
	defer sess.backend.Close()

	localScreen, err := sess.backend.ScreenGeometry()
	if err != nil {
		return err
	}

	name := flagClientName
	if name == "" {
		name, _ = os.Hostname()
	}
	client := netclient.NewClient(cfg.Client.ServerAddress, name, log, reconnectOptions(cfg.Client.Reconnect)...)
	if err := client.Connect(localScreen.Width, localScreen.Height); err != nil {
		return err
	}
	defer client.Close()
	log.Info().Str("server", cfg.Client.ServerAddress).Str("name", name).Msg("tx2tx client connected")

	loop := clientloop.New(client, sess.backend, sess.injector, clientloop.NoopOverlay{}, log, localScreen, cfg.Client.Reconnect.Enabled)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pollInterval := time.Duration(cfg.Server.PollIntervalMs) * time.Millisecond
	if pollInterval < 5*time.Millisecond {
		pollInterval = 10 * time.Millisecond
	}
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("shutting down on signal")
			return nil
		case now := <-ticker.C:
			if !loop.Tick(now) {
				log.Info().Msg("connection closed, reconnect disabled, exiting")
				return nil
			}
		}
	}
}
