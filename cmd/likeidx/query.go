package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newQueryCountCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "query-count <pattern>",
		Short: "Build the index and print the number of rows matching pattern",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := bindConfig(cmd)
			if err != nil {
				return err
			}
			db, err := buildFromConfig(cfg, newLogger())
			if err != nil {
				return err
			}
			count, err := db.Count([]byte(args[0]))
			if err != nil {
				return err
			}
			if cfg.JSON {
				return json.NewEncoder(os.Stdout).Encode(map[string]any{"pattern": args[0], "count": count})
			}
			fmt.Println(count)
			return nil
		},
	}
}

func newQueryRowsCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "query-rows <pattern>",
		Short: "Build the index and print the matching (id, value) rows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := bindConfig(cmd)
			if err != nil {
				return err
			}
			db, err := buildFromConfig(cfg, newLogger())
			if err != nil {
				return err
			}
			rows, err := db.Rows([]byte(args[0]))
			if err != nil {
				return err
			}
			if limit > 0 && len(rows) > limit {
				rows = rows[:limit]
			}

			if cfg.JSON {
				out := make([]map[string]any, len(rows))
				for i, r := range rows {
					out[i] = map[string]any{"id": r.ID, "value": string(r.Value)}
				}
				return json.NewEncoder(os.Stdout).Encode(out)
			}

			t := table.NewWriter()
			t.SetOutputMirror(os.Stdout)
			t.AppendHeader(table.Row{"id", "value"})
			for _, r := range rows {
				t.AppendRow(table.Row{r.ID, string(r.Value)})
			}
			t.Render()
			fmt.Printf("%d rows\n", len(rows))
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 100, "maximum rows to print, 0 for unlimited")
	return cmd
}
