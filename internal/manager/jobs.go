package manager

import (
	"time"

	"vidgend/internal/errclass"
	"vidgend/internal/queue"
	"vidgend/pkg/types"
)

// jobRecord is guarded by Manager.mu except for done, which is closed once.
type jobRecord struct {
	job  *queue.Job
	view types.JobView
	err  *errclass.Classified
	done chan struct{}
}

func (m *Manager) register(j *queue.Job, prompt string) *jobRecord {
	rec := &jobRecord{
		job: j,
		view: types.JobView{
			ID:          j.ID,
			State:       JobQueued,
			Prompt:      prompt,
			SubmittedAt: j.SubmittedAt,
		},
		done: make(chan struct{}),
	}
	m.mu.Lock()
	m.jobs[j.ID] = rec
	m.mu.Unlock()
	return rec
}

func (m *Manager) unregister(id string) {
	m.mu.Lock()
	delete(m.jobs, id)
	m.mu.Unlock()
}

func (m *Manager) record(id string) (*jobRecord, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.jobs[id]
	return rec, ok
}

func (m *Manager) update(id string, fn func(v *types.JobView)) {
	m.mu.Lock()
	if rec, ok := m.jobs[id]; ok && !terminal(rec.view.State) {
		fn(&rec.view)
	}
	m.mu.Unlock()
}

// setProgress never moves progress backwards.
func (m *Manager) setProgress(id string, fraction float64, msg string) {
	m.update(id, func(v *types.JobView) {
		if fraction > v.Progress {
			v.Progress = fraction
		}
		v.Message = msg
	})
}

// finish records the outcome, closes done, and trims the finished window.
func (m *Manager) finish(id string, out outcome) {
	m.mu.Lock()
	rec, ok := m.jobs[id]
	if !ok || terminal(rec.view.State) {
		m.mu.Unlock()
		return
	}
	v := &rec.view
	v.State = out.state
	v.FinishedAt = time.Now()
	v.Artifact = out.artifact
	v.Warning = out.warning
	if out.tier != "" {
		v.Tier = out.tier
	}
	switch out.state {
	case JobSucceeded:
		v.Progress, v.Message = 1, "Complete!"
		m.completed++
	case JobPartial:
		v.Message = "Partial result"
		m.completed++
	case JobCancelled:
		v.Message = "Cancelled"
	case JobFailed:
		v.Message = "Failed"
		m.failed++
	}
	if out.err != nil {
		rec.err = out.err
		v.Error = out.err.Render(m.cfg.Debug)
		v.ErrorKind = string(out.err.Kind)
		v.Retryable = out.err.Retryable
		m.lastError = out.err.UserMessage()
	}
	m.finished = append(m.finished, id)
	for len(m.finished) > m.cfg.MaxResults {
		delete(m.jobs, m.finished[0])
		m.finished = m.finished[1:]
	}
	close(rec.done)
	m.mu.Unlock()
}

// Job returns the current view of a job.
func (m *Manager) Job(id string) (types.JobView, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.jobs[id]
	if !ok {
		return types.JobView{}, ErrJobNotFound(id)
	}
	return rec.view, nil
}
