package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/kass/go-geo-dominance/pkg/export"
	"github.com/spf13/cobra"
)

var (
	outputFormat string
	outputFile   string
)

var computeCmd = &cobra.Command{
	Use:   "compute",
	Short: "Compute cell winners and regions from the stored votes",
	Long: `Compute loads every stored vote, assigns each grid cell its winning category and
traces the regions. Output is a human summary, the raw JSON result, or GeoJSON.`,
	RunE: withApp(runCompute),
}

func init() {
	computeCmd.Flags().StringVarP(&outputFormat, "format", "o", "summary", "Output format: summary, json, geojson, cells")
	computeCmd.Flags().StringVarP(&outputFile, "file", "f", "", "Write output to file instead of stdout")
}

func runCompute(ctx context.Context, a *app, _ []string) error {
	comp, err := a.engine.Compute(ctx)
	if err != nil {
		return err
	}

	var out io.Writer = os.Stdout
	if outputFile != "" {
		f, err := os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	switch outputFormat {
	case "summary":
		return newPrinter(out).summary(a.engine, comp)
	case "json":
		return writeJSON(out, comp.Result)
	case "geojson":
		return writeJSON(out, export.Regions(comp.Result.Regions, a.engine.Catalog()))
	case "cells":
		return writeJSON(out, export.Cells(a.engine.Grid(), comp.Result.Cells, a.engine.Catalog()))
	}
	return fmt.Errorf("unknown output format %q", outputFormat)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}
