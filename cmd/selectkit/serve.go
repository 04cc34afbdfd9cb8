package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/goliatone/go-selectkit/components/optionsapi"
	"github.com/goliatone/go-selectkit/pkg/record"
	"github.com/goliatone/go-selectkit/pkg/renderers/vanilla"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(root *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the options API and the rendered select over HTTP.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger, err := newLogger(root.debug)
			if err != nil {
				return err
			}
			defer logger.Sync()

			a, err := openApp(ctx, root, logger)
			if err != nil {
				return err
			}
			defer a.shutdown(context.Background())

			router, err := newRouter(a)
			if err != nil {
				return err
			}

			if addr == "" {
				addr = a.cfg.Server.Addr
			}
			srv := &http.Server{
				Addr:              addr,
				Handler:           router,
				ReadHeaderTimeout: 5 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("selectkit: listening", zap.String("addr", addr))
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			logger.Info("selectkit: shutting down")
			return srv.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}

// newRouter mounts the JSON options API and an HTML view of the select under
// the configured base path.
func newRouter(a *app) (chi.Router, error) {
	renderer, err := vanilla.New(vanilla.WithTheme(themeConfig(a.cfg.Theme)))
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()

	fns := []optionsapi.OptionFn{optionsapi.WithLogger(a.logger)}
	if a.cfg.Server.RoutePath != "" {
		fns = append(fns, optionsapi.WithRoutePath(a.cfg.Server.RoutePath))
	}
	pattern, err := optionsapi.RegisterRoutes[record.Record, string](r, a.cfg.Server.BasePath, a.ctrl, fns...)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("selectkit: options api mounted", zap.String("pattern", pattern))

	selectPath := optionsapi.MountPath(a.cfg.Server.BasePath, optionsapi.WithRoutePath("/select"))
	r.Get(selectPath, func(w http.ResponseWriter, req *http.Request) {
		html, err := vanilla.Render(req.Context(), renderer, a.ctrl.View())
		if err != nil {
			a.logger.Error("selectkit: render select", zap.Error(err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", renderer.ContentType())
		_, _ = w.Write(html)
	})

	r.Post(optionsapi.MountPath(a.cfg.Server.BasePath, optionsapi.WithRoutePath("/refetch")), func(w http.ResponseWriter, _ *http.Request) {
		a.ctrl.Refetch()
		w.WriteHeader(http.StatusAccepted)
	})

	return r, nil
}
