// cmd/nutriscan/fav.go
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"nutriscan/internal/render"
)

func newFavCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fav",
		Short: "Manage favorite products",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "toggle <product-id>",
		Short: "Add a product to favorites, or remove it if already there",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, store, closeAll, err := a.openStore()
			if err != nil {
				return err
			}
			defer closeAll()

			favorite, err := store.Toggle(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if favorite {
				fmt.Fprintf(cmd.OutOrStdout(), "%s added to favorites\n", args[0])
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s removed from favorites\n", args[0])
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "check <product-id>",
		Short: "Report whether a product is a favorite",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, store, closeAll, err := a.openStore()
			if err != nil {
				return err
			}
			defer closeAll()

			favorite, err := store.IsFavorite(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), favorite)
			return nil
		},
	})

	var format string
	list := &cobra.Command{
		Use:   "list",
		Short: "List favorite products in the order they were added",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := render.ParseFormat(format)
			if err != nil {
				return err
			}
			_, store, closeAll, err := a.openStore()
			if err != nil {
				return err
			}
			defer closeAll()

			ids, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			return render.Favorites(cmd.OutOrStdout(), ids, f)
		},
	}
	list.Flags().StringVarP(&format, "format", "o", "text", "Output format: json, yaml or text")
	cmd.AddCommand(list)

	return cmd
}
