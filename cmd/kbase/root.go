package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/kbase/internal/config"
	"github.com/kailas-cloud/kbase/internal/version"
)

// newRootCmd assembles the command tree explicitly (no init()).
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "kbase",
		Short:         "Knowledge base API with AI summaries, tagging and semantic search",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			// --env wins over the ENV variable so config.GetEnv sees one value.
			if env, _ := cmd.Flags().GetString("env"); env != "" {
				_ = os.Setenv("ENV", env)
			}
		},
	}
	rootCmd.PersistentFlags().String("env", "", "config environment (local, dev, prod); defaults to $ENV or local")

	rootCmd.AddCommand(newServeCmd(), newMigrateCmd(), newVersionCmd())
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Println(version.String())
		},
	}
}

// loadConfig resolves the environment and reads its config file.
func loadConfig() (config.Config, string, error) {
	env := config.GetEnv()
	cfg, err := config.Load(env)
	return cfg, env, err
}
