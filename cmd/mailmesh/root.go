package main

import (
	"github.com/spf13/cobra"

	"github.com/hupe1980/mailmesh/config"
)

var (
	cfgFile  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "mailmesh",
	Short: "Write an email to your ex (or anyone, really) with a crew of AI agents",
	Long: `mailmesh talks you through writing an email. A clarifier asks what you
want to say, a brief drafter summarizes it for your approval, a drafter
writes the email and an editor/refiner pair polishes it before you decide
to send it.

With no subcommand, starts a chat.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd)
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: mailmesh.yaml in . or the user config dir)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log.level (debug, info, warn, error)")

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(authCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig loads and validates the configuration with flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	if logLevel != "" {
		cfg.Log.Level = logLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}
