package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/likeidx/likeidx/pkg/likeidx"
)

func newReplCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Build the index once, then read LIKE patterns from an interactive prompt",
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
			return runRepl(db)
		},
	}
}

// runRepl mirrors the teacher's CLI.Run loop — a readline prompt with
// persistent history, special commands for help/exit, and per-query
// timing — adapted to this package's one verb (query a pattern) instead
// of arbitrary SQL.
func runRepl(db *likeidx.DB) error {
	historyFile := ""
	if home, err := os.UserHomeDir(); err == nil {
		historyFile = home + "/.likeidx_history"
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:            "\033[1;36mlike>\033[0m ",
		HistoryFile:       historyFile,
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize readline: %w", err)
	}
	defer rl.Close()

	fmt.Println("likeidx REPL. Enter a LIKE pattern, 'status', 'help', or 'exit'.")

	for {
		line, err := rl.Readline()
		if err != nil {
			if err == io.EOF || err == readline.ErrInterrupt {
				return nil
			}
			return err
		}

		pattern := strings.TrimSpace(line)
		if pattern == "" {
			continue
		}

		switch strings.ToLower(pattern) {
		case "exit", "quit", "\\q":
			return nil
		case "help", "\\h", "\\?":
			printReplHelp()
			continue
		case "status":
			printReplStatus(db)
			continue
		}

		start := time.Now()
		rows, err := db.Rows([]byte(pattern))
		elapsed := time.Since(start)
		if err != nil {
			fmt.Fprintf(os.Stderr, "\033[1;31merror:\033[0m %v\n", err)
			continue
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"id", "value"})
		limit := len(rows)
		if limit > 50 {
			limit = 50
		}
		for _, r := range rows[:limit] {
			t.AppendRow(table.Row{r.ID, string(r.Value)})
		}
		t.Render()
		if len(rows) > limit {
			fmt.Printf("... %d more rows not shown\n", len(rows)-limit)
		}
		fmt.Printf("\033[1;32m%d rows in %v\033[0m\n", len(rows), elapsed)
	}
}

func printReplHelp() {
	fmt.Println("  <pattern>   evaluate a LIKE pattern ('%' = any run, '_' = any byte)")
	fmt.Println("  status      print index statistics")
	fmt.Println("  help        show this message")
	fmt.Println("  exit        leave the REPL")
}

func printReplStatus(db *likeidx.DB) {
	status, err := db.Status()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	fmt.Printf("record_count: %d, max_length: %d, memory_bytes: %d, backend: %s\n",
		status.RecordCount, status.MaxLength, status.MemoryBytes, status.Backend)
}
