package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"panelnorm/adapters/excel"
	adaptgeo "panelnorm/adapters/geocode"
	"panelnorm/domain/panel"
	"panelnorm/internal/config"
	"panelnorm/internal/geocode"
	"panelnorm/internal/jobs"
	"panelnorm/internal/transform"
	"panelnorm/ports"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "panelnorm",
		Short: "Normalize healthcare provider panel workbooks into the unified template",
	}

	rootCmd.AddCommand(
		newTransformCmd(),
		newGeocodeCmd(),
		newInspectCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newTransformCmd() *cobra.Command {
	var outDir string
	var noGeocode bool

	cmd := &cobra.Command{
		Use:   "transform [workbook.xlsx]",
		Short: "Transform every panel sheet of a workbook into output templates",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			src, err := excel.OpenWorkbook(args[0])
			if err != nil {
				return err
			}
			defer src.Close()

			lookup, remote := geocodingTiers(cfg, noGeocode)
			pipeline := transform.NewPipeline(lookup, remote, !noGeocode)
			result, err := pipeline.TransformWorkbook(context.Background(), src)
			if err != nil {
				return err
			}

			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return err
			}
			base := strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
			for _, sheet := range result.Sheets {
				name := fmt.Sprintf("%s_%s.xlsx", base, jobs.SanitizeFilename(sheet.SheetName))
				path := filepath.Join(outDir, name)
				if err := excel.WriteRecords(path, sheet.Records); err != nil {
					return err
				}
				fmt.Printf("%s: %d records (%d geocoded, %d filtered) -> %s\n",
					sheet.SheetName, sheet.Stats.Total, sheet.Stats.Geocoded, sheet.RowsFiltered, path)
			}
			if result.TerminatedCount > 0 {
				fmt.Printf("termination list: %d provider codes\n", result.TerminatedCount)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "output directory")
	cmd.Flags().BoolVar(&noGeocode, "no-geocode", false, "skip coordinate resolution")
	return cmd
}

func newGeocodeCmd() *cobra.Command {
	var country string

	cmd := &cobra.Command{
		Use:   "geocode [postal-or-address]",
		Short: "Resolve a postal code or address to coordinates",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			lookup, remote := geocodingTiers(cfg, false)

			c := panel.CountrySingapore
			if strings.EqualFold(country, "malaysia") || strings.EqualFold(country, "my") {
				c = panel.CountryMalaysia
			}

			svc := geocode.New(lookup, remote)
			lat, lng, method := svc.Geocode(context.Background(), args[0], args[0], c)
			out := map[string]interface{}{"method": string(method)}
			if lat != nil && lng != nil {
				out["latitude"] = *lat
				out["longitude"] = *lng
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}

	cmd.Flags().StringVar(&country, "country", "singapore", "country bias (singapore or malaysia)")
	return cmd
}

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect [workbook.xlsx]",
		Short: "Show how each sheet of a workbook would be classified",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := excel.OpenWorkbook(args[0])
			if err != nil {
				return err
			}
			defer src.Close()

			panels, terminations := transform.ClassifySheets(src.SheetNames())
			for _, name := range panels {
				fmt.Printf("panel        %s\n", name)
			}
			for _, name := range terminations {
				fmt.Printf("termination  %s\n", name)
			}
			return nil
		},
	}
}

func geocodingTiers(cfg *config.Config, disabled bool) (geocode.LookupTable, ports.RemoteGeocoder) {
	if disabled {
		return nil, nil
	}
	lookup := adaptgeo.LoadLookupTable(cfg.Paths.PostalCandidates)
	var remote ports.RemoteGeocoder
	if client := adaptgeo.NewGoogleClient(cfg.Geocoding.GoogleAPIKey); client != nil {
		remote = client
	}
	return lookup, remote
}
