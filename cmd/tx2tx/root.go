// Command tx2tx is the server/client entry point: a single cobra root
// command whose mode is selected by the presence of a positional
// server-address argument.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tx2tx/tx2tx/config"
	"github.com/tx2tx/tx2tx/logging"
)

var (
	flagConfigPath        string
	flagHost              string
	flagPort              int
	flagDisplay           string
	flagClientName        string
	flagEdgeThreshold     int
	flagVelocityThreshold float64

	flagDebug, flagInfo, flagWarning, flagError, flagCritical bool
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "tx2tx [server-address]",
		Short:         "Software KVM: share one keyboard and mouse across hosts over TCP",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				return runClient(cmd, args[0])
			}
			return runServer(cmd)
		},
	}

	root.PersistentFlags().StringVarP(&flagConfigPath, "config", "c", "", "path to a YAML config file")
	root.PersistentFlags().StringVar(&flagHost, "host", "", "server bind address (server mode) override")
	root.PersistentFlags().IntVar(&flagPort, "port", 0, "server port override")
	root.PersistentFlags().StringVar(&flagDisplay, "display", "", "X11/Wayland display name override")
	root.PersistentFlags().StringVar(&flagClientName, "client", "", "client name presented during the hello handshake")
	root.PersistentFlags().IntVar(&flagEdgeThreshold, "edge-threshold", 0, "edge detection threshold override")
	root.PersistentFlags().Float64Var(&flagVelocityThreshold, "velocity-threshold", 0, "pointer velocity threshold override (px/s)")

	root.PersistentFlags().BoolVar(&flagDebug, "debug", false, "set log level to debug")
	root.PersistentFlags().BoolVar(&flagInfo, "info", false, "set log level to info")
	root.PersistentFlags().BoolVar(&flagWarning, "warning", false, "set log level to warning")
	root.PersistentFlags().BoolVar(&flagError, "error", false, "set log level to error")
	root.PersistentFlags().BoolVar(&flagCritical, "critical", false, "set log level to critical")

	root.AddCommand(newProbeCmd())
	return root
}

// resolvedLevel applies the exclusive log-level flags' most-
// restrictive-wins precedence on top of the config file's logging.level.
func resolvedLevel(fileLevel string) logging.Level {
	level := logging.ParseLevel(fileLevel)
	if flagDebug {
		level = logging.Restrictive(level, logging.Debug)
	}
	if flagInfo {
		level = logging.Restrictive(level, logging.Info)
	}
	if flagWarning {
		level = logging.Restrictive(level, logging.Warning)
	}
	if flagError {
		level = logging.Restrictive(level, logging.Error)
	}
	if flagCritical {
		level = logging.Restrictive(level, logging.Critical)
	}
	return level
}

func loadConfig() (*config.File, error) {
	f, err := config.Load(flagConfigPath)
	if err != nil {
		return nil, err
	}
	if flagHost != "" {
		f.Server.Host = flagHost
	}
	if flagPort != 0 {
		f.Server.Port = flagPort
	}
	if flagDisplay != "" {
		f.Server.Display = flagDisplay
		f.Client.Display = flagDisplay
	}
	return f, nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "tx2tx:", err)
		os.Exit(1)
	}
}
