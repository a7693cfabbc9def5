package manager

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"vidgend/internal/common/fsutil"
	"vidgend/internal/engine"
	"vidgend/internal/errclass"
	"vidgend/internal/queue"
	"vidgend/internal/registry"
	"vidgend/internal/validate"
	"vidgend/pkg/types"
)

// Manager owns the queue, the job views, and the pipeline collaborators.
// Every piece of shared state is reachable only through it.
type Manager struct {
	cfg       ManagerConfig
	validator validate.Validator
	queue     *queue.Queue
	loader    ResourceLoader
	engine    engine.Engine
	muxer     engine.Muxer
	retention Retention
	classify  *errclass.Classifier
	events    EventPublisher
	log       zerolog.Logger

	mu        sync.RWMutex
	state     State
	jobs      map[string]*jobRecord
	finished  []string
	lastError string
	completed uint64
	failed    uint64
	rejected  uint64

	startTime time.Time
}

func newManager(cfg ManagerConfig) *Manager {
	return &Manager{
		cfg:       cfg,
		validator: validate.New(cfg.Limits),
		queue:     queue.New(cfg.QueueCapacity),
		loader:    cfg.Loader,
		engine:    cfg.Engine,
		muxer:     cfg.Muxer,
		retention: cfg.Retention,
		classify:  cfg.Classifier,
		events:    cfg.Publisher,
		log:       cfg.Logger.With().Str("component", "manager").Logger(),
		state:     StateStarting,
		jobs:      make(map[string]*jobRecord),
		startTime: time.Now(),
	}
}

// SetEventPublisher replaces the event sink; nil restores the no-op publisher.
func (m *Manager) SetEventPublisher(p EventPublisher) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p == nil {
		p = noopPublisher{}
	}
	m.events = p
}

func (m *Manager) publish(e Event) {
	m.mu.RLock()
	p := m.events
	m.mu.RUnlock()
	p.Publish(e)
}

// Ready reports whether worker loops are running and the output directory exists.
func (m *Manager) Ready() bool {
	m.mu.RLock()
	ready := m.state == StateReady
	m.mu.RUnlock()
	if !ready || m.retention == nil {
		return ready
	}
	return fsutil.PathExists(m.retention.OutputDir())
}

// Artifacts lists delivered videos, newest first.
func (m *Manager) Artifacts() ([]types.Artifact, error) {
	if m.retention == nil {
		return nil, nil
	}
	arts, err := m.retention.Artifacts()
	if err != nil {
		return nil, err
	}
	registry.SortNewestFirst(arts)
	return arts, nil
}

// Classifier exposes the error classifier shared with the HTTP layer.
func (m *Manager) Classifier() *errclass.Classifier { return m.classify }

func (m *Manager) setState(s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}
