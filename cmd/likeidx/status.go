package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/likeidx/likeidx/pkg/likeidx"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Build the index and print its summary statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := bindConfig(cmd)
			if err != nil {
				return err
			}
			db, err := buildFromConfig(cfg, newLogger())
			if err != nil {
				return err
			}
			status, err := db.Status()
			if err != nil {
				return err
			}
			if cfg.JSON {
				return json.NewEncoder(os.Stdout).Encode(status)
			}
			fmt.Printf("record_count: %d\n", status.RecordCount)
			fmt.Printf("max_length:   %d\n", status.MaxLength)
			fmt.Printf("memory_bytes: %d\n", status.MemoryBytes)
			fmt.Printf("backend:      %s\n", status.Backend)
			return nil
		},
	}
}

func newTestMatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test-match <value> <pattern>",
		Short: "Check a single value against a pattern with the verifier, bypassing the index",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			matches := likeidx.Matches([]byte(args[0]), []byte(args[1]))
			fmt.Println(matches)
			if !matches {
				os.Exit(1)
			}
			return nil
		},
	}
}
