package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"ssot/internal/config"
	"ssot/internal/demo"
	"ssot/internal/model"
	"ssot/internal/server"
	"ssot/internal/store"
	"ssot/internal/util/logx"
	"ssot/internal/version"
)

var cfg config.ServerConfig

var rootCmd = &cobra.Command{
	Use:           "ssotapi",
	Short:         "Serve the tables over the REST contract the ssot client speaks",
	SilenceUsage:  true,
	SilenceErrors: true,
	Version:       version.String(),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		logx.SetLevelFromEnv()
		return cfg.Finish()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		tables, err := seed(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		return server.New(tables).Run(cmd.Context(), cfg.Addr)
	},
}

func init() {
	cfg.BindFlags(rootCmd.Flags())
}

// seed builds the served tables. With a seed directory, tables without a
// file are generated into it first; otherwise everything lives in memory.
func seed(ctx context.Context, c config.ServerConfig) (server.Tables, error) {
	gen := demo.New(c.Seed)
	if c.SeedDir == "" {
		st := store.New()
		for rt, ds := range gen.Tables(c.DemoRows) {
			st.Put(rt, ds)
		}
		logx.Infof("api: serving %d demo targeting rows from memory", c.DemoRows)
		return st, nil
	}
	wrote, err := gen.WriteDir(c.SeedDir, c.DemoRows, false)
	if err != nil {
		return nil, err
	}
	for _, p := range wrote {
		logx.Infof("api: generated %s", p)
	}
	l, err := store.OpenLocal(c.SeedDir, 0, c.Persist)
	if err != nil {
		return nil, err
	}
	for _, rt := range model.AllResources() {
		if _, err := l.Fetch(ctx, rt); err != nil {
			return nil, fmt.Errorf("load %s: %w", rt, err)
		}
	}
	return l, nil
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	err := rootCmd.ExecuteContext(ctx)
	logx.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, "ssotapi:", err)
		os.Exit(1)
	}
}
