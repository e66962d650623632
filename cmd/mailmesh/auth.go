package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hupe1980/mailmesh/mail/gmail"
)

var authTimeout time.Duration

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authorize mailmesh to send email from your Gmail account",
	Long: `Runs the OAuth consent flow for the Gmail compose scope and stores the
token at mail.token_file. Requires mail.credentials_file to point at an OAuth
client secret for an installed application.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		if cfg.Mail.CredentialsFile == "" {
			return fmt.Errorf("mail.credentials_file is not set")
		}

		logger, closer, err := cfg.Log.NewLogger(nil)
		if err != nil {
			return err
		}
		defer closer.Close()

		oauthCfg, err := gmail.LoadOAuthConfig(cfg.Mail.CredentialsFile)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()

		_, err = gmail.Authorize(cmd.Context(), oauthCfg, cfg.Mail.TokenFile, func(o *gmail.AuthOptions) {
			o.Timeout = authTimeout
			o.Logger = logger
			o.OpenURL = func(url string) error {
				_, err := fmt.Fprintf(out, "Open this URL in your browser to authorize mailmesh:\n\n%s\n\n", url)
				return err
			}
		})
		if err != nil {
			return err
		}

		fmt.Fprintf(out, "Token saved to %s\n", cfg.Mail.TokenFile)

		return nil
	},
}

func init() {
	authCmd.Flags().DurationVar(&authTimeout, "timeout", 5*time.Minute, "how long to wait for the browser callback")
}
