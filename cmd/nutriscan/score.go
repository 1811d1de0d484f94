// cmd/nutriscan/score.go
package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"nutriscan/internal/logging"
	"nutriscan/internal/models"
	"nutriscan/internal/offclient"
	"nutriscan/internal/render"
	"nutriscan/internal/scoring"
	"nutriscan/internal/storage"
)

func newScoreCmd(a *app) *cobra.Command {
	var (
		file   string
		format string
		save   bool
	)

	cmd := &cobra.Command{
		Use:   "score [barcode]",
		Short: "Score a product by barcode, or a product record read from --file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := render.ParseFormat(format)
			if err != nil {
				return err
			}
			if (file == "") == (len(args) == 0) {
				return errors.New("give either a barcode or --file")
			}

			var rec *models.ProductRecord
			if file != "" {
				rec, err = readRecord(file)
			} else {
				rec, err = offclient.New(a.cfg.OFF).Product(cmd.Context(), args[0])
			}
			if err != nil {
				return fmt.Errorf("%s: %w", scoring.Outcome(err), err)
			}

			sp, err := scoring.ScoreProduct(rec)
			if err != nil {
				return fmt.Errorf("%s: %w", scoring.Outcome(err), err)
			}

			if save {
				if err := saveScan(a, cmd, sp); err != nil {
					logging.Component("main").WithError(err).Warn("failed to record scan")
				}
			}
			return render.Scored(cmd.OutOrStdout(), sp, f)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Read the product record from a JSON file")
	cmd.Flags().StringVarP(&format, "format", "o", "text", "Output format: json, yaml or text")
	cmd.Flags().BoolVar(&save, "save", false, "Record the scan in history")
	return cmd
}

// readRecord accepts either a models.ProductRecord document or an Open Food
// Facts product.
func readRecord(path string) (*models.ProductRecord, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read record: %w", err)
	}
	return offclient.DecodeRecord(body)
}

func saveScan(a *app, cmd *cobra.Command, sp *models.ScoredProduct) error {
	stor, err := storage.NewSQLiteStorage(a.cfg.DBPath)
	if err != nil {
		return err
	}
	defer stor.Close()
	return stor.SaveScan(cmd.Context(), models.NewScanEntry(sp, time.Now()))
}
