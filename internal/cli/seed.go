package cli

import (
	"fmt"

	"directory-backend/internal/database"

	"github.com/spf13/cobra"
)

func newSeedCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load reference data",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "regions",
		Short: "Insert the fixed region list when the table is empty",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := rt.connect()
			if err != nil {
				return err
			}
			n, err := database.SeedRegions(db)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d regions inserted\n", n)
			return nil
		},
	})
	return cmd
}
