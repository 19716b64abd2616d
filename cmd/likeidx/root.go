package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/likeidx/likeidx/internal/driver"
	"github.com/likeidx/likeidx/pkg/likeidx"
)

var (
	cfgFile string
	verbose bool
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "likeidx",
		Short: "Build a positional bitmap index and query it with LIKE patterns",
		Long: "likeidx builds the index described in the package's spec — forward/reverse\n" +
			"positional bitmaps, a character-anywhere cache, and a length partition — over\n" +
			"a synthetic or CSV-backed column, then serves LIKE-pattern queries against it.",
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./likeidx.yaml)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug-level logging")
	root.PersistentFlags().String("source.kind", "", "source kind: csv or synthetic")
	root.PersistentFlags().String("source.path", "", "CSV file path (source.kind=csv)")
	root.PersistentFlags().Int("source.column", -1, "CSV column index (source.kind=csv)")
	root.PersistentFlags().Int("source.count", -1, "synthetic row count (source.kind=synthetic)")
	root.PersistentFlags().Int64("source.seed", -1, "synthetic RNG seed (source.kind=synthetic)")
	root.PersistentFlags().Int("cacheCapacity", -1, "query LRU cache capacity, 0 disables")
	root.PersistentFlags().Float64("selfCheckFraction", -1, "fraction of records to verify post-build, 0 disables")

	root.AddCommand(
		newBuildCmd(),
		newQueryCountCmd(),
		newQueryRowsCmd(),
		newStatusCmd(),
		newTestMatchCmd(),
		newReplCmd(),
	)
	return root
}

func newLogger() zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()
}

func bindConfig(cmd *cobra.Command) (*cliConfig, error) {
	v := viper.New()
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("likeidx")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, err
	}
	if err := v.BindPFlags(cmd.Root().PersistentFlags()); err != nil {
		return nil, err
	}
	return loadConfig(v)
}

// buildFromConfig scans the configured source and builds a DB, the same
// step every query subcommand needs before it can do anything (§6: there
// is no persistence, so every CLI invocation that queries must first
// build).
func buildFromConfig(cfg *cliConfig, log zerolog.Logger) (*likeidx.DB, error) {
	var drv driver.Scanner
	switch cfg.Source.Kind {
	case "csv":
		if cfg.Source.Path == "" {
			return nil, fmt.Errorf("source.path is required for source.kind=csv")
		}
		f, err := os.Open(cfg.Source.Path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		drv = driver.NewCSV(f, cfg.Source.Column, cfg.Source.Header)
	case "synthetic":
		gen := driver.NewSynthetic(cfg.Source.Count, cfg.Source.Seed)
		gen.NullEvery = cfg.Source.NullEvery
		drv = gen
	default:
		return nil, fmt.Errorf("unknown source.kind %q (want csv or synthetic)", cfg.Source.Kind)
	}

	db := likeidx.New(
		likeidx.WithLogger(log),
		likeidx.WithCacheCapacity(cfg.CacheCapacity),
		likeidx.WithSelfCheck(cfg.SelfCheckFraction),
	)
	if err := db.Build(drv); err != nil {
		return nil, err
	}
	return db, nil
}
