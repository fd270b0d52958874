package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"convert-gateway/job"
	"convert-gateway/logic/stage"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Delete expired scratch uploads and outputs once, then exit",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logs, err := setup()
		if err != nil {
			return err
		}
		if cfg.Scratch.Retention <= 0 {
			return fmt.Errorf("scratch.retention is %s, nothing to sweep", cfg.Scratch.Retention)
		}

		scratch, err := stage.NewScratch(cfg.Scratch.Dir)
		if err != nil {
			return err
		}

		j := &job.SweepJob{
			Scratch:   scratch,
			Retention: cfg.Scratch.Retention,
			Log:       logs.Get("sweeper"),
		}
		repo, err := openHistory(cfg, logs.Get("main"))
		if err != nil {
			return err
		}
		if repo != nil {
			j.Records = repo
		}

		n, err := j.Run(cmd.Context())
		fmt.Fprintf(cmd.OutOrStdout(), "removed %d expired conversions from %s\n", n, scratch.Root())
		return err
	},
}
