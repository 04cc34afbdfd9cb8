package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-selectkit/pkg/record"
	"github.com/goliatone/go-selectkit/pkg/renderers/tui"
)

func newPromptCmd(root *rootOptions) *cobra.Command {
	var message string

	cmd := &cobra.Command{
		Use:   "prompt",
		Short: "Ask for a selection in the terminal and print the chosen value.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			logger, err := newLogger(root.debug)
			if err != nil {
				return err
			}
			defer logger.Sync()

			a, err := openApp(ctx, root, logger)
			if err != nil {
				return err
			}
			defer a.shutdown(ctx)

			if err := a.waitReady(ctx); err != nil {
				return err
			}

			prompter := tui.New(tui.WithMessage(message), tui.WithTheme(tui.Theme{WarningPrefix: "! "}))
			if _, err := tui.Prompt[record.Record, string](ctx, prompter, a.ctrl); err != nil {
				if errors.Is(err, tui.ErrAborted) {
					return nil
				}
				return err
			}

			display := a.ctrl.View().Display
			if display.HasValue {
				fmt.Fprintln(cmd.OutOrStdout(), display.Value)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", "", "prompt message when the config has no placeholder")
	return cmd
}
