package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"ssot/internal/backend"
	"ssot/internal/export"
	"ssot/internal/facet"
	"ssot/internal/model"
)

var (
	selections []string
	columns    []string
)

var exportCmd = &cobra.Command{
	Use:   "export <resource>",
	Short: "Write the rows of a table that match facet selections",
	Long: `Export loads one table, narrows it with --select Facet=value (repeatable,
applied in order so each selection cascades into the next) and writes the
visible rows to --out. The format follows the file extension, or --export.`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringArrayVar(&selections, "select", nil, "facet selection Facet=value (repeatable)")
	exportCmd.Flags().StringSliceVar(&columns, "columns", nil, "columns to write (default all)")
}

func runExport(cmd *cobra.Command, args []string) error {
	rt, err := model.ParseResource(args[0])
	if err != nil {
		return err
	}
	set, err := backend.Open(&cfg)
	if err != nil {
		return err
	}
	defer set.Close()

	ds, err := set.Fetcher.Fetch(cmd.Context(), rt)
	if err != nil {
		return fmt.Errorf("load %s: %w", rt, err)
	}
	e := facet.NewEngine(cfg.Families[rt].Facets...)
	e.SetDataset(ds)
	if err := applySelections(e, selections); err != nil {
		return err
	}
	visible := model.NewDataset(e.Visible())
	if visible.Empty() {
		return export.ErrNoRows
	}
	out := exportPath(rt, cfg.ExportOut, cfg.ExportFormat)
	if err := export.ToFile(out, visible, columns, cfg.Delim()); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %d of %d rows to %s (%s)\n", visible.Len(), ds.Len(), out, e.Summary())
	return nil
}

func exportPath(rt model.ResourceType, out, format string) string {
	if format == "" {
		format = string(export.FormatCSV)
	}
	if out == "" {
		return string(rt) + "." + format
	}
	return out
}

// applySelections narrows e to the given Facet=value selections. Values for
// the same facet accumulate; facets are restricted in the order first named.
func applySelections(e *facet.Engine, sels []string) error {
	var order []int
	values := map[int][]string{}
	for _, s := range sels {
		name, val, ok := strings.Cut(s, "=")
		if !ok {
			return fmt.Errorf("selection %q: want Facet=value", s)
		}
		i, ok := e.Lookup(strings.TrimSpace(name))
		if !ok {
			return fmt.Errorf("selection %q: unknown facet %q", s, name)
		}
		if _, seen := values[i]; !seen {
			order = append(order, i)
		}
		values[i] = append(values[i], val)
	}
	for _, i := range order {
		want := values[i]
		opts := e.Options(i)
		for _, v := range want {
			if !contains(opts, v) {
				return fmt.Errorf("select %s=%s: %w", e.Facets()[i].Name, v, facet.ErrUnknownOption)
			}
			if !e.IsSelected(i, v) {
				if err := e.Toggle(i, v, true); err != nil {
					return err
				}
			}
		}
		// narrow by removing the rest, so the wanted values stay available
		for _, o := range append([]string(nil), opts...) {
			if contains(want, o) || !e.IsSelected(i, o) {
				continue
			}
			if err := e.Toggle(i, o, false); err != nil && !errors.Is(err, facet.ErrUnknownOption) {
				return err
			}
		}
	}
	return nil
}

func contains(arr []string, s string) bool {
	for _, x := range arr {
		if x == s {
			return true
		}
	}
	return false
}
