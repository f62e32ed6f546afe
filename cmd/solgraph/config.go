package main

import (
	"github.com/spf13/viper"
)

type Config struct {
	Manifest  string `yaml:"manifest,omitempty"`
	OutputDir string `yaml:"output-dir,omitempty"`
	CachePath string `yaml:"cache-path,omitempty"`
	NoCache   bool   `yaml:"no-cache,omitempty"`
	Workers   int    `yaml:"workers,omitempty"`
	LogLevel  string `yaml:"log-level,omitempty"`
}

const (
	ManifestDefault  = "solgraph.yaml"
	OutputDirDefault = "build"
	CachePathDefault = ".solgraph/cache"
	LogLevelDefault  = "info"
)

func (c *Config) ResetToDefault() {
	c.Manifest = ManifestDefault
	c.OutputDir = OutputDirDefault
	c.CachePath = CachePathDefault
	c.NoCache = false
	c.Workers = 0
	c.LogLevel = LogLevelDefault
}

func (c *Config) InitFromFile(cfgFile string) bool {
	if cfgFile == "" {
		return false
	}
	v := viper.New()
	v.SetConfigFile(cfgFile)
	if err := v.ReadInConfig(); err != nil {
		c.ResetToDefault()
		return false
	}
	if v.IsSet("manifest") {
		c.Manifest = v.GetString("manifest")
	}
	if v.IsSet("output-dir") {
		c.OutputDir = v.GetString("output-dir")
	}
	if v.IsSet("cache-path") {
		c.CachePath = v.GetString("cache-path")
	}
	if v.IsSet("no-cache") {
		c.NoCache = v.GetBool("no-cache")
	}
	if v.IsSet("workers") {
		c.Workers = v.GetInt("workers")
	}
	if v.IsSet("log-level") {
		c.LogLevel = v.GetString("log-level")
	}
	return true
}
