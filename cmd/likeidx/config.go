package main

import (
	"strings"

	"github.com/spf13/viper"
)

// cliConfig is layered flags > env (LIKEIDX_*) > config file > defaults,
// the same precedence virtual-vectorfs's config.LoadConfig establishes
// with viper.AutomaticEnv + SetEnvKeyReplacer.
type cliConfig struct {
	Source struct {
		Kind      string `mapstructure:"kind"` // "csv" or "synthetic"
		Path      string `mapstructure:"path"`
		Column    int    `mapstructure:"column"`
		Header    bool   `mapstructure:"header"`
		Count     int    `mapstructure:"count"`
		Seed      int64  `mapstructure:"seed"`
		NullEvery int    `mapstructure:"nullEvery"`
	} `mapstructure:"source"`
	CacheCapacity     int     `mapstructure:"cacheCapacity"`
	SelfCheckFraction float64 `mapstructure:"selfCheckFraction"`
	JSON              bool    `mapstructure:"json"`
}

func loadConfig(v *viper.Viper) (*cliConfig, error) {
	v.SetDefault("source.kind", "synthetic")
	v.SetDefault("source.column", 0)
	v.SetDefault("source.header", true)
	v.SetDefault("source.count", 1_000_000)
	v.SetDefault("source.seed", 1)
	v.SetDefault("source.nullEvery", 0)
	v.SetDefault("cacheCapacity", 256)
	v.SetDefault("selfCheckFraction", 0.0)
	v.SetDefault("json", false)

	v.SetEnvPrefix("likeidx")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg cliConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
