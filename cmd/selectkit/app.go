package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	theme "github.com/goliatone/go-theme"
	"go.uber.org/zap"

	"github.com/goliatone/go-selectkit/internal/config"
	"github.com/goliatone/go-selectkit/pkg/record"
	"github.com/goliatone/go-selectkit/pkg/selectsingle"
)

var errNotReady = errors.New("selectkit: options could not be loaded")

type controller = selectsingle.Controller[record.Record, string]

// app is one mounted controller plus the resources its source holds.
type app struct {
	cfg    config.Config
	logger *zap.Logger
	ctrl   *controller
	close  config.CloseFunc
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// openApp loads the config, builds the source and mounts a controller whose
// OnChange feeds selections straight back as the controlled value.
func openApp(ctx context.Context, opts *rootOptions, logger *zap.Logger) (*app, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}

	svc, closeFn, err := config.BuildService(ctx, cfg.Source, logger)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger, close: closeFn}

	fns := append(cfg.ControllerOptions(),
		selectsingle.WithLogger[record.Record, string](logger),
		selectsingle.WithOnChange[record.Record, string](func(value *string, _ *selectsingle.Option[string, record.Record]) {
			if value == nil {
				a.ctrl.ClearValue()
				return
			}
			a.ctrl.SetValue(*value)
		}),
		selectsingle.WithOnPrepareDone[record.Record, string](func(p selectsingle.PrepareDoneParams) {
			logger.Debug("selectkit: options prepared", zap.Bool("warning", p.IsWarning))
		}),
	)
	a.ctrl = selectsingle.New(svc, record.FieldTransform(cfg.Mapping), fns...)

	if err := a.ctrl.Mount(ctx); err != nil {
		_ = closeFn(ctx)
		return nil, err
	}
	return a, nil
}

// waitReady blocks until the in-flight fetches settle.
func (a *app) waitReady(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		a.ctrl.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
	}
	if !a.ctrl.View().PreparedOnce {
		return errNotReady
	}
	return nil
}

func (a *app) shutdown(ctx context.Context) {
	a.ctrl.Unmount()
	a.ctrl.Wait()
	if err := a.close(ctx); err != nil {
		a.logger.Warn("selectkit: close source", zap.Error(err))
	}
}

func themeConfig(t config.Theme) *theme.RendererConfig {
	if t.Name == "" && t.Variant == "" && len(t.CSSVars) == 0 && t.AssetURL == "" {
		return nil
	}
	cfg := &theme.RendererConfig{
		Theme:   t.Name,
		Variant: t.Variant,
		CSSVars: t.CSSVars,
	}
	if base := strings.TrimRight(t.AssetURL, "/"); base != "" {
		cfg.AssetURL = func(key string) string {
			return fmt.Sprintf("%s/%s", base, strings.TrimLeft(key, "/"))
		}
	}
	return cfg
}
