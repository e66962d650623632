package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/hupe1980/mailmesh/conversation"
)

var noColor bool

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start a conversation that ends with a sent email",
	Long: `Start a conversation. Type END on a line of its own to stop early.
The conversation also ends once the email was sent or after limits.max_turns
turns.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd)
	},
}

func init() {
	chatCmd.Flags().BoolVar(&noColor, "no-color", false, "disable colors and panels")
}

func runChat(cmd *cobra.Command) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := build(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	key, err := app.mesh.StartSession(ctx, cfg.App.UserID)
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}

	var renderer conversation.Renderer = conversation.PlainRenderer{}
	if cfg.UI.Color && !noColor && !color.NoColor {
		renderer = conversation.NewStyledRenderer()
	}

	driver := conversation.NewDriver(app.mesh, key, func(o *conversation.Options) {
		o.MaxTurns = cfg.Limits.MaxTurns
		o.In = cmd.InOrStdin()
		o.Out = cmd.OutOrStdout()
		o.Renderer = renderer
		o.Logger = app.logger
	})

	sum, err := driver.Run(ctx)
	if err != nil {
		return err
	}

	// The session is discarded; artifacts stay in the artifact store.
	endCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Limits.SendTimeout)
	defer cancel()

	if err := app.mesh.EndSession(endCtx, key); err != nil {
		app.logger.Warn("mailmesh.session.end_failed", "error", err)
	}

	if sum.Reason == conversation.StopMaxTurns {
		fmt.Fprintln(cmd.OutOrStdout(), "Reached the turn limit. Goodbye!")
	}

	return nil
}
