package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"ssot/internal/config"
	"ssot/internal/ui"
	"ssot/internal/util/logx"
	"ssot/internal/version"
)

var cfg config.Config

var rootCmd = &cobra.Command{
	Use:           "ssot",
	Short:         "Browse, filter and edit the marketing-ops tables",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logx.SetLevelFromEnv()
		if cfg.ShowVersion {
			return nil
		}
		return cfg.Finish()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.ShowVersion {
			fmt.Println("ssot", version.String())
			return nil
		}
		logx.Infof("starting ssot %s: %s", version.String(), cfg.String())
		return ui.Run(cmd.Context(), &cfg)
	},
}

func init() {
	cfg.BindFlags(rootCmd.PersistentFlags())
	rootCmd.AddCommand(exportCmd)
}

func main() {
	// Setup cancellation on SIGINT/SIGTERM
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	err := rootCmd.ExecuteContext(ctx)
	logx.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, "ssot:", err)
		logx.Errorf("ssot exited with error: %v", err)
		os.Exit(1)
	}
}
