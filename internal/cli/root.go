package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/tracker/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	DBPath  string
	Memory  bool
	Format  string
	EnvFile string

	cfg config.RuntimeConfig
}

var ValidFormats = []string{"text", "json"}

func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "tracker",
		Short: "tracker - a tag-based issue tracker",
		Long:  "Track issues, group them with tags, filter them and earn awards along the way.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return opts.resolveConfig(cmd)
		},
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd.Context(), opts)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.DBPath, "db", "", "database path (default $TRACKER_DB_PATH or tracker.db)")
	cmd.PersistentFlags().BoolVar(&opts.Memory, "memory", false, "keep everything in memory, nothing is saved")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", ".env", "dotenv file loaded before reading TRACKER_* variables")

	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewAwardsCommand(opts))
	cmd.AddCommand(NewSampleCommand(opts))
	cmd.AddCommand(NewResetCommand(opts))

	return cmd
}

func (o *RootOptions) resolveConfig(cmd *cobra.Command) error {
	if err := config.LoadDotEnv(o.EnvFile); err != nil {
		return fmt.Errorf("load %s: %w", o.EnvFile, err)
	}
	o.cfg = config.RuntimeConfigFromEnv(config.DefaultRuntimeConfig())
	if cmd.Flags().Changed("db") {
		o.cfg.DBPath = o.DBPath
	}
	return nil
}
