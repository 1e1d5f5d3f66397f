package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kivisai/site/internal/config"
	"github.com/kivisai/site/internal/server"
	"github.com/kivisai/site/pkg/brevo"
	"github.com/kivisai/site/pkg/pipeline"
	"github.com/kivisai/site/pkg/render"
	"github.com/kivisai/site/pkg/renderers/html"
	"github.com/kivisai/site/pkg/renderers/jsonpage"
)

func newServeCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the site over HTTP",
		Long: `Serves the site. Configuration comes from KIVISAI_* environment
variables; --addr overrides KIVISAI_ADDR.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Addr = addr
			}
			logger, err := cfg.Logger()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()
			return runServe(cmd.Context(), cfg, logger)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address")
	return cmd
}

func runServe(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	opts, err := serverOptions(cfg, logger)
	if err != nil {
		return err
	}
	srv, err := server.New(opts...)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", zap.String("addr", cfg.Addr), zap.Bool("dev_mode", cfg.DevMode))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		logger.Info("shutting down")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})
	return g.Wait()
}

// serverOptions translates configuration into server and pipeline options.
func serverOptions(cfg config.Config, logger *zap.Logger) ([]server.Option, error) {
	opts := []server.Option{
		server.WithLogger(logger),
		server.WithBaseURL(cfg.BaseURL),
		server.WithLocale(cfg.Locale),
		server.WithTheme(cfg.ThemeName, cfg.ThemeVariant),
		server.WithRequestTimeout(cfg.RequestTimeout),
	}

	var popts []pipeline.Option
	if cfg.TemplateDir != "" {
		registry, err := rendererRegistry(html.WithTemplatesDir(cfg.TemplateDir), html.WithDefaultLocale(cfg.Locale))
		if err != nil {
			return nil, err
		}
		popts = append(popts, pipeline.WithRegistry(registry))
	}
	if cfg.PatchFile != "" {
		patch, err := pipeline.NewPatchTransformerFromFS(os.DirFS(filepath.Dir(cfg.PatchFile)), filepath.Base(cfg.PatchFile))
		if err != nil {
			return nil, err
		}
		popts = append(popts, pipeline.WithTransformers(patch))
	}
	if cfg.LocalesDir != "" {
		catalog, err := render.LoadCatalog(os.DirFS(cfg.LocalesDir), "en")
		if err != nil {
			return nil, err
		}
		popts = append(popts, pipeline.WithTranslator(catalog, cfg.Locale))
	}
	opts = append(opts, server.WithPipelineOptions(popts...))

	if cfg.Brevo.Enabled() {
		client, err := brevo.New(cfg.Brevo.APIKey, brevo.WithBaseURL(cfg.Brevo.BaseURL))
		if err != nil {
			return nil, err
		}
		mailer := brevo.NewMailer(client,
			brevo.Address{Name: cfg.Brevo.SenderName, Email: cfg.Brevo.SenderEmail},
			brevo.Address{Email: cfg.Brevo.ContactRecipient},
		)
		opts = append(opts, server.WithMailer(mailer, cfg.Brevo.ListIDs))
	} else {
		logger.Warn("brevo api key not set, form submissions are not forwarded")
	}

	if cfg.AdminEnabled() {
		if cfg.AdminToken == "" {
			logger.Warn("admin api enabled without a token")
		}
		opts = append(opts, server.WithAdmin(cfg.AdminToken))
	}
	return opts, nil
}

func rendererRegistry(htmlOpts ...html.Option) (*render.Registry, error) {
	renderer, err := html.New(htmlOpts...)
	if err != nil {
		return nil, err
	}
	registry := render.NewRegistry()
	registry.MustRegister(renderer)
	registry.MustRegister(jsonpage.New("  "))
	return registry, nil
}
