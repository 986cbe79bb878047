package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/studyhall/pkg/cli/config"
	httpctrl "github.com/secmon-lab/studyhall/pkg/controller/http"
	"github.com/secmon-lab/studyhall/pkg/usecase"
	"github.com/secmon-lab/studyhall/pkg/utils/async"
	"github.com/secmon-lab/studyhall/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdServe(version string) *cli.Command {
	var addr string
	var maxUploadSize int64
	var enableMetrics bool
	var repoCfg config.Repository
	var rankingCfg config.Ranking
	var authCfg config.Auth
	var slackCfg config.Slack
	var archiveCfg config.Archive
	var sentryCfg config.Sentry

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("STUDYHALL_ADDR"),
			Destination: &addr,
		},
		&cli.Int64Flag{
			Name:        "max-upload-size",
			Usage:       "Maximum size of an uploaded file in bytes",
			Value:       httpctrl.DefaultMaxUploadSize,
			Sources:     cli.EnvVars("STUDYHALL_MAX_UPLOAD_SIZE"),
			Destination: &maxUploadSize,
		},
		&cli.BoolFlag{
			Name:        "metrics",
			Usage:       "Expose Prometheus metrics on /metrics",
			Value:       true,
			Sources:     cli.EnvVars("STUDYHALL_METRICS"),
			Destination: &enableMetrics,
		},
	}

	// Add shared config flags
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, rankingCfg.Flags()...)
	flags = append(flags, authCfg.Flags()...)
	flags = append(flags, slackCfg.Flags()...)
	flags = append(flags, archiveCfg.Flags()...)
	flags = append(flags, sentryCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logging.Default().Info("Serve configuration",
				"addr", addr,
				"repository", repoCfg,
				"ranking", rankingCfg,
				"auth", authCfg,
				"slack", slackCfg,
				"archive", archiveCfg,
				"sentry", sentryCfg,
			)

			flush, err := sentryCfg.Configure(version)
			if err != nil {
				return err
			}
			defer flush()

			rankingConfig, err := rankingCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to load ranking configuration")
			}

			authUC, err := authCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to configure authentication")
			}
			if authCfg.IsNoAuthMode() {
				logging.Default().Warn("Running in no-auth mode (development only)")
			}

			// Initialize repository based on backend type
			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer func() {
				if err := repo.Close(); err != nil {
					logging.Default().Error("failed to close repository", "error", err.Error())
				}
			}()

			ucOpts := []usecase.Option{
				usecase.WithRankingConfig(rankingConfig),
				usecase.WithAuth(authUC),
			}

			archive, err := archiveCfg.Configure(ctx)
			if err != nil {
				return err
			}
			if archive != nil {
				defer func() {
					if err := archive.Close(); err != nil {
						logging.Default().Error("failed to close archive", "error", err.Error())
					}
				}()
				ucOpts = append(ucOpts, usecase.WithArchive(archive))
				logging.Default().Info("Upload archive enabled")
			}

			notifier, err := slackCfg.Configure(rankingConfig.MaxDisplayableDuration)
			if err != nil {
				return err
			}
			if notifier != nil {
				ucOpts = append(ucOpts, usecase.WithNotifier(notifier))
				logging.Default().Info("Slack notification enabled")
			} else {
				logging.Default().Info("Slack not configured, ranking notifications disabled")
			}

			uc := usecase.New(repo, ucOpts...)

			httpOpts := []httpctrl.Options{
				httpctrl.WithMaxUploadSize(maxUploadSize),
			}
			if enableMetrics {
				httpOpts = append(httpOpts, httpctrl.WithMetrics(httpctrl.NewMetrics()))
			}

			server := &http.Server{
				Addr:              addr,
				Handler:           httpctrl.New(uc, httpOpts...),
				ReadHeaderTimeout: 30 * time.Second,
			}

			// Setup signal handling for graceful shutdown
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			// Start server in goroutine
			errCh := make(chan error, 1)
			go func() {
				logging.Default().Info("Starting HTTP server", "addr", addr)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- goerr.Wrap(err, "failed to start server")
				}
			}()

			// Wait for shutdown signal or server error
			select {
			case err := <-errCh:
				return err
			case sig := <-sigCh:
				logging.Default().Info("Received shutdown signal", "signal", sig)

				// Create shutdown context with timeout
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()

				// Attempt graceful shutdown
				if err := server.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}

				// Let pending notifications finish before the repository closes
				if err := async.Wait(shutdownCtx); err != nil {
					logging.Default().Warn("pending background tasks abandoned", "error", err.Error())
				}

				logging.Default().Info("Server shutdown completed")
				return nil
			}
		},
	}
}
