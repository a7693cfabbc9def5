package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newProbeCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Report accelerator presence, free headroom, and the tier the loader selects",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().String("accelerator", "", "auto|present|absent (ACCELERATOR)")
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cfg := opts.cfg
		p := newProbe(cfg)
		fmt.Fprintf(cmd.OutOrStdout(), "accelerator: %t\n", p.AcceleratorPresent())
		if free, err := p.FreeHeadroom(); err != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "headroom: unknown (%v)\n", err)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "headroom: %.1f GB (threshold %.1f GB)\n", free, cfg.HeadroomThresholdGB)
		}
		ld := newLoader(cfg, opts.log)
		defer ld.Close()
		tier, err := ld.Preload(cmd.Context())
		if err != nil {
			return fmt.Errorf("no tier could be loaded: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "tier: %s\n", tier)
		return nil
	}
	return cmd
}
