// cmd/nutriscan/history.go
package main

import (
	"github.com/spf13/cobra"

	"nutriscan/internal/render"
)

func newHistoryCmd(a *app) *cobra.Command {
	var (
		limit  int
		format string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recently scored products, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := render.ParseFormat(format)
			if err != nil {
				return err
			}
			stor, _, closeAll, err := a.openStore()
			if err != nil {
				return err
			}
			defer closeAll()

			scans, err := stor.GetScans(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return render.Scans(cmd.OutOrStdout(), scans, f)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of scans to show")
	cmd.Flags().StringVarP(&format, "format", "o", "text", "Output format: json, yaml or text")
	return cmd
}
