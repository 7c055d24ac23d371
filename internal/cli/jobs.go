package cli

import (
	"fmt"
	"time"

	"directory-backend/internal/currency"
	"directory-backend/internal/jobs"
	"directory-backend/internal/logger"
	"directory-backend/internal/user"

	"github.com/spf13/cobra"
)

var jobDescriptions = map[string]string{
	jobs.BlockInactiveUsers: "Block users whose last login is older than BLOCK_AFTER",
	jobs.SyncCurrencies:     "Fetch the currency list and upsert it by name",
}

// newCurrencyFetcher is swapped in tests to avoid the network.
var newCurrencyFetcher = func(url, appID string) currency.Fetcher {
	return currency.NewClient(url, appID)
}

func newJobsCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Run a batch job once",
	}

	var timeout time.Duration
	cmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Minute, "maximum run time")

	for _, name := range []string{jobs.BlockInactiveUsers, jobs.SyncCurrencies} {
		cmd.AddCommand(&cobra.Command{
			Use:   name,
			Short: jobDescriptions[name],
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				db, err := rt.connect()
				if err != nil {
					return err
				}

				users := user.NewService(db, logger.Named("user"))
				currencies := currency.NewService(db,
					newCurrencyFetcher(rt.cfg.CurrencyAPIURL, rt.cfg.CurrencyAppID),
					logger.Named("currency"))
				registry := jobs.Registry(rt.cfg, users, currencies)

				s := jobs.NewScheduler(rt.log, timeout)
				if err := jobs.RunOnce(cmd.Context(), s, registry, name); err != nil {
					return fmt.Errorf("%s: %w", name, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s completed\n", name)
				return nil
			},
		})
	}
	return cmd
}
