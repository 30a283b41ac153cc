package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"ssot/internal/demo"
	"ssot/internal/export"
	"ssot/internal/model"
	"ssot/internal/store"
)

var (
	dir       string
	rows      int
	seedFlag  int64
	overwrite bool
	rate      float64
	duration  time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "ssotgen",
	Short: "Generate demo tables, optionally growing targeting.csv over time",
	Long: `ssotgen writes <dir>/<resource>.csv for every table. With --rate it then
keeps appending targeting rows, which exercises ssot --backend local --follow.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		gen := demo.New(seedFlag)
		wrote, err := gen.WriteDir(dir, rows, overwrite)
		if err != nil {
			return err
		}
		for _, p := range wrote {
			fmt.Fprintf(os.Stderr, "wrote %s\n", p)
		}
		if rate <= 0 {
			return nil
		}
		ctx := cmd.Context()
		if duration > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, duration)
			defer cancel()
		}
		p := store.Path(dir, model.ResourceTargeting)
		fmt.Fprintf(os.Stderr, "appending targeting rows -> %s at %.2f rows/s\n", p, rate)
		n, err := grow(ctx, gen, p, rate)
		fmt.Fprintf(os.Stderr, "appended %d rows\n", n)
		return err
	},
}

func init() {
	f := rootCmd.Flags()
	f.StringVar(&dir, "dir", "simulateddata", "output directory")
	f.IntVar(&rows, "rows", 200, "initial targeting rows")
	f.Int64Var(&seedFlag, "seed", time.Now().UnixNano(), "random seed")
	f.BoolVar(&overwrite, "overwrite", false, "replace existing table files")
	f.Float64Var(&rate, "rate", 0, "targeting rows appended per second after the initial write (0 = none)")
	f.DurationVar(&duration, "duration", 0, "stop appending after this long (0 = until interrupted)")
}

// grow appends one targeting row per tick until ctx is done.
func grow(ctx context.Context, gen *demo.Generator, path string, rate float64) (int, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	t := time.NewTicker(time.Duration(float64(time.Second) / rate))
	defer t.Stop()
	n := 0
	for {
		select {
		case <-ctx.Done():
			return n, nil
		case <-t.C:
			row := model.NewDataset([]model.Record{gen.TargetingRow()})
			if err := export.AppendCSV(f, row, demo.TargetingColumns, ','); err != nil {
				return n, err
			}
			n++
		}
	}
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
