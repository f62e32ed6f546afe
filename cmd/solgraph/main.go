package main

import (
	"fmt"
	"os"

	"github.com/solgraph/solgraph/common/logging"
	"github.com/solgraph/solgraph/internal/artifact"
	"github.com/solgraph/solgraph/internal/builder"
	"github.com/solgraph/solgraph/internal/cobrax"
	"github.com/solgraph/solgraph/internal/graph"
	"github.com/solgraph/solgraph/internal/manifest"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func main() {
	cfg := &Config{}
	cfg.ResetToDefault()
	// The config file must be loaded before argument parsing, because it
	// provides the default values for the flags.
	cfg.InitFromFile(cobrax.GetConfigNameFromArgs())

	rootCmd := &cobra.Command{
		Use:           "solgraph",
		Short:         "Declarative build tool for Solidity contract artifacts",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetupGlobalLogger(cfg.LogLevel)
			logging.ApplyComponentsFilterEnv()
		},
	}
	cobrax.AddConfigFlag(rootCmd.PersistentFlags())
	cobrax.AddLogLevelFlag(rootCmd.PersistentFlags(), &cfg.LogLevel)
	cobrax.AddManifestFlag(rootCmd.PersistentFlags(), &cfg.Manifest)
	cobrax.AddOutputDirFlag(rootCmd.PersistentFlags(), &cfg.OutputDir)

	rootCmd.AddCommand(
		buildCommand(cfg),
		graphCommand(cfg),
		listCommand(cfg),
		cleanCommand(cfg),
		createConfigCommand(cfg),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Printf("solgraph failed: %s\n", err.Error())
		os.Exit(1)
	}
}

func resolveManifest(cfg *Config) (*graph.Resolved, error) {
	m, err := manifest.Load(cfg.Manifest)
	if err != nil {
		return nil, err
	}
	g, err := m.Build()
	if err != nil {
		return nil, err
	}
	return g.Resolve()
}

func buildCommand(cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Compile every environment and publish library artifacts",
		RunE: func(cmd *cobra.Command, args []string) error {
			resolved, err := resolveManifest(cfg)
			if err != nil {
				return err
			}

			store := artifact.NewStore(cfg.OutputDir)
			opts := []builder.Option{builder.WithWorkers(cfg.Workers)}
			if !cfg.NoCache {
				cache, err := builder.NewCache(cfg.CachePath)
				if err != nil {
					return fmt.Errorf("failed to open build cache: %w", err)
				}
				defer func() {
					if err := cache.Close(); err != nil {
						logging.GlobalLogger.Warn().Err(err).Msg("failed to close build cache")
					}
				}()
				opts = append(opts, builder.WithCache(cache))
			}

			return builder.New(resolved, store, opts...).Run(cmd.Context())
		},
	}
	cobrax.AddWorkersFlag(cmd.Flags(), &cfg.Workers)
	cmd.Flags().BoolVar(&cfg.NoCache, "no-cache", cfg.NoCache, "disable the incremental build cache")
	return cmd
}

func graphCommand(cfg *Config) *cobra.Command {
	var dot bool

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Print the resolved build order or the dependency graph",
		RunE: func(cmd *cobra.Command, args []string) error {
			resolved, err := resolveManifest(cfg)
			if err != nil {
				return err
			}

			if dot {
				fmt.Print(resolved.Dot())
				return nil
			}
			for _, t := range resolved.Order() {
				fmt.Printf("%s\t%s\n", t.TargetKind(), t.TargetName())
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dot, "dot", false, "emit graphviz output")
	return cmd
}

func listCommand(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List declared targets and their dependencies",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := manifest.Load(cfg.Manifest)
			if err != nil {
				return err
			}
			g, err := m.Build()
			if err != nil {
				return err
			}

			for _, t := range g.Targets() {
				name := t.TargetName()
				deps := g.DependenciesOf(name)
				if len(deps) == 0 {
					fmt.Printf("%s\t%s\n", t.TargetKind(), name)
					continue
				}
				fmt.Printf("%s\t%s\t(depends on: %v)\n", t.TargetKind(), name, deps)
			}
			return nil
		},
	}
}

func cleanCommand(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Remove generated artifacts and the build cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := artifact.NewStore(cfg.OutputDir).Clean(); err != nil {
				return err
			}
			return os.RemoveAll(cfg.CachePath)
		},
	}
}

func createConfigCommand(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "create-config [file]",
		Short: "Write the current configuration to a YAML file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgFile := "./solgraph-config.yaml"
			if len(args) == 1 {
				cfgFile = args[0]
			}

			data, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("failed to marshal config: %w", err)
			}

			if err := os.WriteFile(cfgFile, data, 0o600); err != nil {
				return fmt.Errorf("failed to write config file: %w", err)
			}
			fmt.Printf("Config file %s has been created\n", cfgFile)
			return nil
		},
	}
}
