package manager

import (
	"time"

	"github.com/rs/zerolog"

	"vidgend/internal/engine"
	"vidgend/internal/errclass"
	"vidgend/internal/validate"
)

// Defaults applied when corresponding ManagerConfig fields are unset.
const (
	defaultWorkers    = 1
	defaultMaxResults = 100
	defaultFPS        = 24
	defaultMaxAgeDays = 7
	defaultMaxFiles   = 50
)

// ManagerConfig encapsulates all tunables and collaborators for Manager construction.
type ManagerConfig struct {
	Workers       int
	QueueCapacity int
	// MaxResults bounds the finished jobs kept for GET /jobs/{id}.
	MaxResults int
	// JobTimeout bounds one generation call; zero disables it.
	JobTimeout time.Duration
	MaxAgeDays int
	MaxFiles   int
	DefaultFPS int
	Limits     validate.Limits
	Debug      bool

	Loader     ResourceLoader
	Engine     engine.Engine
	Muxer      engine.Muxer
	Retention  Retention
	Classifier *errclass.Classifier
	Publisher  EventPublisher
	Logger     zerolog.Logger
}

// NewWithConfig constructs a Manager from ManagerConfig. Loader and Engine are required.
func NewWithConfig(cfg ManagerConfig) *Manager {
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = defaultMaxResults
	}
	if cfg.DefaultFPS <= 0 {
		cfg.DefaultFPS = defaultFPS
	}
	if cfg.MaxAgeDays <= 0 {
		cfg.MaxAgeDays = defaultMaxAgeDays
	}
	if cfg.MaxFiles <= 0 {
		cfg.MaxFiles = defaultMaxFiles
	}
	if cfg.JobTimeout < 0 {
		cfg.JobTimeout = 0
	}
	if cfg.Classifier == nil {
		cfg.Classifier = errclass.New(cfg.Debug, cfg.Logger)
	}
	if cfg.Publisher == nil {
		cfg.Publisher = noopPublisher{}
	}
	return newManager(cfg)
}
