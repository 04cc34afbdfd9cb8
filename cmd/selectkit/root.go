package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-selectkit/internal/config"
)

type rootOptions struct {
	configPath string
	envFiles   []string
	debug      bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "selectkit",
		Short: "Load select options from an HTTP, file, SQLite or MongoDB source.",
		Long: `selectkit fetches records from the configured source, maps them to ` +
			`select options and either prompts for a choice, renders a <select> ` +
			`element or serves the options as JSON.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return config.LoadEnv(opts.envFiles...)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "selectkit.yaml", "path to the YAML config")
	flags.StringSliceVar(&opts.envFiles, "env", nil, "dotenv files to load before reading the config (default .env)")
	flags.BoolVar(&opts.debug, "debug", false, "enable development logging")

	cmd.AddCommand(
		newPromptCmd(opts),
		newRenderCmd(opts),
		newServeCmd(opts),
	)
	return cmd
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
