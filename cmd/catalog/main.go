// smartsave-catalog merges cleaned per-retailer record files into the
// canonical catalog consumed by the API's /api/catalog endpoint.
package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/smartsave/backend/internal/infrastructure/store"
	"github.com/smartsave/backend/internal/usecase"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var dataDir string
	var out string
	var pattern string

	cmd := &cobra.Command{
		Use:   "smartsave-catalog",
		Short: "Build the canonical price catalog from cleaned retailer datasets",
		Long: `Merges every cleaned per-retailer record file into one catalog with
normalized pack/volume fields and price-per-liter, deduplicated across
retail sources. Rows without a derivable price-per-liter are dropped.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := filepath.Glob(filepath.Join(dataDir, pattern))
			if err != nil {
				return err
			}
			if len(paths) == 0 {
				return fmt.Errorf("no %s files found in %s; run the cleaners first", pattern, dataDir)
			}

			rows := usecase.NewCatalogBuilder().Build(paths)
			if err := store.WriteCatalog(out, rows); err != nil {
				return fmt.Errorf("writing catalog: %w", err)
			}

			log.Printf("Wrote %s with %d rows from %d input files", out, len(rows), len(paths))
			return nil
		},
	}

	cmd.Flags().StringVar(&dataDir, "data-dir", "./data", "directory holding cleaned retailer datasets")
	cmd.Flags().StringVar(&out, "out", "./data/catalog_latest.csv", "output catalog path")
	cmd.Flags().StringVar(&pattern, "pattern", "*_clean.csv", "glob matching cleaned input files")
	return cmd
}
