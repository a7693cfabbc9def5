package manager

import "github.com/rs/zerolog"

// Event represents a pipeline lifecycle event.
// Minimal and stable: name + job ID and optional fields via key/values.
type Event struct {
	Name   string
	JobID  string
	Fields map[string]any
}

// Event names.
const (
	EventJobAdmitted    = "job_admitted"
	EventJobStarted     = "job_started"
	EventTierSelected   = "tier_selected"
	EventJobFinished    = "job_finished"
	EventRetentionSweep = "retention_sweep"
)

// EventPublisher receives events from the manager. Implementations should be
// lightweight and non-blocking; Publish must not panic.
type EventPublisher interface {
	Publish(Event)
}

// noopPublisher is the default; it drops events.
type noopPublisher struct{}

func (noopPublisher) Publish(Event) {}

// LogPublisher writes events as debug-level log lines.
type LogPublisher struct{ Log zerolog.Logger }

func (p LogPublisher) Publish(e Event) {
	ev := p.Log.Debug().Str("event", e.Name)
	if e.JobID != "" {
		ev = ev.Str("job_id", e.JobID)
	}
	if len(e.Fields) > 0 {
		ev = ev.Fields(e.Fields)
	}
	ev.Msg("event")
}
