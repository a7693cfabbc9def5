package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"vidgend/internal/httpapi"
	"vidgend/internal/manager"
	"vidgend/internal/retention"
)

const shutdownGrace = 10 * time.Second

func newServeCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "serve",
		Short:   "Run the HTTP API, the workers, and the periodic retention sweep",
		Example: "  vidgend serve --addr :7860 --accelerator absent",
	}
	f := cmd.Flags()
	f.String("addr", "", "HTTP listen address (VIDGEND_ADDR, default :7860)")
	f.String("accelerator", "", "auto|present|absent (ACCELERATOR)")
	f.Int("workers", 0, "Worker loops (WORKERS)")
	f.Int("max-queue-size", 0, "Pending jobs before submissions are rejected (MAX_QUEUE_SIZE)")
	f.Int("max-files", 0, "Artifacts kept by the count pass (MAX_FILES)")
	f.Int("max-age-days", 0, "Artifact age limit in days (MAX_FILE_AGE_DAYS)")
	f.String("cors-origins", "", "Comma separated origins; enables CORS")
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx, opts)
	}
	return cmd
}

func serve(ctx context.Context, opts *options) error {
	cfg, log := opts.cfg, opts.log
	a, err := buildApp(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Str("output_dir", cfg.OutputDir).Str("temp_dir", cfg.TempDir).Msg("cannot create storage directories")
		return err
	}
	defer a.loader.Close()

	if rep := manager.SanityCheck(cfg.OutputDir, cfg.TempDir, cfg.FFmpegPath); !rep.OK() {
		log.Error().Strs("errors", rep.Errors).Msg("sanity check failed")
	} else if !rep.FFmpegFound {
		log.Warn().Str("ffmpeg", cfg.FFmpegPath).Msg("ffmpeg not found; music integration disabled")
	}

	if tier, err := a.loader.Preload(ctx); err != nil {
		log.Warn().Err(err).Msg("preload failed; first job will load lazily")
	} else {
		log.Info().Str("tier", tier).Msg("resource preloaded")
	}

	httpapi.SetLogger(log.With().Str("component", "http").Logger())
	httpapi.SetMaxBodyBytes(cfg.MaxBodyBytes)
	httpapi.SetCORSOptions(cfg.CORSEnabled, cfg.CORSOrigins, cfg.CORSMethods, cfg.CORSHeaders)
	httpapi.SetBaseContext(ctx)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpapi.NewMux(a.manager),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.manager.Run(gctx) })
	g.Go(func() error {
		interval := time.Duration(cfg.CleanupMinutes) * time.Minute
		return a.retention.Run(gctx, interval, cfg.MaxFileAgeDays, cfg.MaxFiles, func(r retention.Report) {
			log.Info().Int("removed", r.Total()).Int("failed", r.Failed).Msg("periodic retention sweep")
		})
	})
	g.Go(func() error {
		log.Info().Str("addr", cfg.Addr).Str("output_dir", cfg.OutputDir).Msg("vidgend listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			log.Warn().Err(err).Msg("graceful shutdown error")
		}
		return nil
	})
	return g.Wait()
}
