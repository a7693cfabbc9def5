package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCleanupCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "cleanup",
		Short:   "Run one retention sweep over the output directory and exit",
		Example: "  vidgend cleanup --max-files 20 --max-age-days 3",
		Args:    cobra.NoArgs,
	}
	cmd.Flags().Int("max-files", 0, "Artifacts kept by the count pass (MAX_FILES)")
	cmd.Flags().Int("max-age-days", 0, "Artifact age limit in days (MAX_FILE_AGE_DAYS)")
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cfg := opts.cfg
		ret, err := newRetention(cfg, opts.log)
		if err != nil {
			opts.log.Error().Err(err).Msg("cannot create storage directories")
			return err
		}
		rep := ret.Cleanup(cfg.MaxFileAgeDays, cfg.MaxFiles)
		fmt.Fprintf(cmd.OutOrStdout(), "scanned=%d removed_by_age=%d removed_by_count=%d failed=%d\n",
			rep.Scanned, rep.RemovedByAge, rep.RemovedByCount, rep.Failed)
		if rep.Failed > 0 {
			return fmt.Errorf("%d files could not be removed", rep.Failed)
		}
		return nil
	}
	return cmd
}
