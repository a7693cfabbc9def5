package main

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"vidgend/internal/config"
	"vidgend/internal/engine"
	"vidgend/internal/loader"
	"vidgend/internal/manager"
	"vidgend/internal/retention"
	"vidgend/internal/validate"
)

// app is the wired pipeline shared by the subcommands.
type app struct {
	cfg       config.Config
	log       zerolog.Logger
	retention *retention.Manager
	loader    *loader.Loader
	manager   *manager.Manager
}

// newProbe picks the accelerator probe from ACCELERATOR.
func newProbe(cfg config.Config) loader.Probe {
	switch cfg.Accelerator {
	case config.AcceleratorPresent:
		return loader.StaticProbe{Accelerator: true, Headroom: cfg.AcceleratorHeadroom}
	case config.AcceleratorAbsent:
		return loader.StaticProbe{}
	default:
		return loader.NewNvidiaSMIProbe(cfg.NvidiaSMIPath)
	}
}

// newRetention creates both directories; failure here is fatal for every subcommand.
func newRetention(cfg config.Config, log zerolog.Logger) (*retention.Manager, error) {
	ret, err := retention.New(retention.Options{OutputDir: cfg.OutputDir, TempDir: cfg.TempDir, Logger: log})
	if err != nil {
		return nil, fmt.Errorf("storage directories: %w", err)
	}
	return ret, nil
}

func newLoader(cfg config.Config, log zerolog.Logger) *loader.Loader {
	return loader.New(engine.SyntheticTiers(cfg.HeadroomThresholdGB), newProbe(cfg), log)
}

func buildApp(cfg config.Config, log zerolog.Logger) (*app, error) {
	ret, err := newRetention(cfg, log)
	if err != nil {
		return nil, err
	}
	ld := newLoader(cfg, log)

	syn := engine.NewSynthetic(ret, log)
	syn.FrameDelay = time.Duration(cfg.SyntheticFrameDelayMS) * time.Millisecond
	syn.FrameBudget = cfg.SyntheticFrameBudget

	mgr := manager.NewWithConfig(manager.ManagerConfig{
		Workers:       cfg.Workers,
		QueueCapacity: cfg.MaxQueueSize,
		MaxResults:    cfg.MaxResults,
		JobTimeout:    time.Duration(cfg.JobTimeoutSeconds) * time.Second,
		MaxAgeDays:    cfg.MaxFileAgeDays,
		MaxFiles:      cfg.MaxFiles,
		Limits: validate.Limits{
			MaxPromptLength: cfg.MaxPromptLength,
			MaxDuration:     float64(cfg.MaxDurationSeconds),
			MaxSceneCount:   cfg.MaxSceneCount,
			MaxFPS:          cfg.MaxFPS,
		},
		Debug:     cfg.Debug,
		Loader:    ld,
		Engine:    syn,
		Muxer:     engine.NewFFmpegMuxer(cfg.FFmpegPath, ret, log),
		Retention: ret,
		Publisher: manager.LogPublisher{Log: log.With().Str("component", "events").Logger()},
		Logger:    log,
	})
	return &app{cfg: cfg, log: log, retention: ret, loader: ld, manager: mgr}, nil
}
