package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/goliatone/go-selectkit/pkg/renderers/vanilla"
)

func newRenderCmd(root *rootOptions) *cobra.Command {
	var (
		output       string
		templatesDir string
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the select as HTML.",
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
				// The loading state still renders; it is what a browser would
				// see before the options arrive.
				logger.Warn("selectkit: rendering without options", zap.Error(err))
			}

			renderer, err := vanilla.New(
				vanilla.WithTemplatesDir(templatesDir),
				vanilla.WithTheme(themeConfig(a.cfg.Theme)),
			)
			if err != nil {
				return err
			}
			html, err := vanilla.Render(ctx, renderer, a.ctrl.View())
			if err != nil {
				return err
			}

			if output == "" {
				_, err = cmd.OutOrStdout().Write(html)
				return err
			}
			if err := os.WriteFile(output, html, 0o644); err != nil {
				return fmt.Errorf("selectkit: write output: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Select written to %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (stdout if empty)")
	cmd.Flags().StringVar(&templatesDir, "templates", "", "directory overriding the embedded templates")
	return cmd
}
