package manager

import (
	"context"
	"strings"

	"vidgend/internal/errclass"
	"vidgend/internal/queue"
	"vidgend/internal/validate"
	"vidgend/pkg/types"
)

// params validates req and fills defaults. Rule violations are returned as a
// validationError whose message is sanitized for display.
func (m *Manager) params(req types.GenerateRequest) (queue.Params, error) {
	fps := req.FPS
	if fps == 0 {
		fps = m.cfg.DefaultFPS
	}
	scenes := req.SceneCount
	if scenes == 0 {
		scenes = 1
	}
	res := m.validator.Check(req.Prompt, req.Duration, fps, scenes, req.Resolution)
	if !res.Valid {
		return queue.Params{}, validationError{msg: validate.Sanitize(res.Error)}
	}
	w, h, err := validate.ParseResolution(req.Resolution)
	if err != nil {
		return queue.Params{}, validationError{msg: validate.Sanitize(err.Error())}
	}
	return queue.Params{
		Prompt:     strings.TrimSpace(req.Prompt),
		Duration:   req.Duration,
		FPS:        fps,
		Width:      w,
		Height:     h,
		MusicPath:  strings.TrimSpace(req.MusicPath),
		SceneCount: scenes,
	}, nil
}

// Submit validates req and admits it, or rejects it immediately. Rejections
// are ordinary outcomes and never reach the error classifier.
func (m *Manager) Submit(req types.GenerateRequest) (types.JobView, error) {
	p, err := m.params(req)
	if err != nil {
		m.reject("validation")
		return types.JobView{}, err
	}
	j, err := queue.NewJob(p)
	if err != nil {
		return types.JobView{}, err
	}
	// registered first so a worker that dequeues immediately finds the record
	rec := m.register(j, validate.Sanitize(p.Prompt))
	if err := m.queue.Submit(j); err != nil {
		m.unregister(j.ID)
		if queue.IsFull(err) {
			m.reject("queue_full")
			m.log.Warn().Int("capacity", m.queue.Capacity()).Msg("queue full, request rejected")
			return types.JobView{}, queueFullError{err: err}
		}
		return types.JobView{}, err
	}
	jobsAdmittedTotal.Inc()
	queuePending.Set(float64(m.queue.Status().Pending))
	m.log.Info().Str("job_id", j.ID).Float64("duration", p.Duration).Str("resolution", p.Resolution()).Msg("job admitted")
	m.publish(Event{Name: EventJobAdmitted, JobID: j.ID})

	m.mu.RLock()
	v := rec.view
	m.mu.RUnlock()
	return v, nil
}

func (m *Manager) reject(reason string) {
	jobsRejectedTotal.WithLabelValues(reason).Inc()
	m.mu.Lock()
	m.rejected++
	m.mu.Unlock()
}

// Wait blocks until the job finishes or ctx is done and returns its final
// view. Failed jobs also return their classified error.
func (m *Manager) Wait(ctx context.Context, id string) (types.JobView, error) {
	rec, ok := m.record(id)
	if !ok {
		return types.JobView{}, ErrJobNotFound(id)
	}
	select {
	case <-rec.done:
	case <-ctx.Done():
		return types.JobView{}, ctx.Err()
	}
	m.mu.RLock()
	v, cl := rec.view, rec.err
	m.mu.RUnlock()
	if v.State == JobFailed && cl != nil {
		return v, cl
	}
	return v, nil
}

// Generate is the synchronous form: submit, then wait for the outcome. If
// ctx ends first the job is cancelled cooperatively.
func (m *Manager) Generate(ctx context.Context, req types.GenerateRequest) (types.JobView, error) {
	v, err := m.Submit(req)
	if err != nil {
		return v, err
	}
	out, err := m.Wait(ctx, v.ID)
	if err != nil && ctx.Err() != nil {
		m.Cancel(v.ID)
		return v, err
	}
	return out, err
}

// Cancel flips the job's cooperative flag. It reports false for unknown or
// already finished jobs.
func (m *Manager) Cancel(id string) bool {
	found := m.queue.Cancel(id)
	if found {
		m.log.Info().Str("job_id", id).Msg("cancellation requested")
	}
	return found
}

// Errors returns the classified error log; technical detail only in debug mode.
func (m *Manager) Errors() []types.ErrorRecord {
	recs := m.classify.Log()
	out := make([]types.ErrorRecord, 0, len(recs))
	for _, r := range recs {
		er := types.ErrorRecord{Time: r.Time, Context: r.Context, Kind: string(r.Kind), Message: r.Message}
		if m.cfg.Debug {
			er.Detail = r.Detail
		}
		out = append(out, er)
	}
	return out
}

// classified is a convenience for the worker: derive the category and classify.
func (m *Manager) classified(stage string, err error) *errclass.Classified {
	cl := m.classify.Classify(errclass.CategoryOf(err), stage, err)
	classifiedTotal.WithLabelValues(string(cl.Kind), stage).Inc()
	return cl
}
