package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newBuildCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "build",
		Short: "Build the index from the configured source and report its stats",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := bindConfig(cmd)
			if err != nil {
				return err
			}
			log := newLogger()
			db, err := buildFromConfig(cfg, log)
			if err != nil {
				return err
			}
			status, err := db.Status()
			if err != nil {
				return err
			}
			fmt.Printf("built: %d records, max length %d, backend %s, %.2f MiB\n",
				status.RecordCount, status.MaxLength, status.Backend,
				float64(status.MemoryBytes)/(1<<20))
			return nil
		},
	}
}
