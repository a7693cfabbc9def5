package manager

import (
	"context"
	"errors"
	"os"
	"runtime/debug"
	"time"

	"golang.org/x/sync/errgroup"

	"vidgend/internal/common/fsutil"
	"vidgend/internal/engine"
	"vidgend/internal/errclass"
	"vidgend/internal/queue"
	"vidgend/pkg/types"
)

// Stage tags used as classification contexts.
const (
	StageModelLoading     = "model_loading"
	StageVideoGeneration  = "video_generation"
	StageMusicIntegration = "music_integration"
)

// outcome is the result of one pipeline run.
type outcome struct {
	state    string
	tier     string
	artifact string
	warning  string
	err      *errclass.Classified
}

// Run starts the configured number of workers and blocks until ctx is done
// and every worker has returned. In-flight jobs observe ctx.
func (m *Manager) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < m.cfg.Workers; i++ {
		id := i
		g.Go(func() error { return m.worker(gctx, id) })
	}
	m.setState(StateReady)
	m.log.Info().Int("workers", m.cfg.Workers).Int("capacity", m.queue.Capacity()).Msg("pipeline started")
	err := g.Wait()
	m.setState(StateStopped)
	m.log.Info().Msg("pipeline stopped")
	return err
}

func (m *Manager) worker(ctx context.Context, id int) error {
	log := m.log.With().Int("worker", id).Logger()
	for {
		j, err := m.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		log.Debug().Str("job_id", j.ID).Msg("job dequeued")
		m.execute(ctx, j)
	}
}

// execute runs one job end to end. Retention always runs after the pipeline
// and before the job is reported finished, with the job's artifact held.
func (m *Manager) execute(ctx context.Context, j *queue.Job) {
	start := time.Now()
	m.update(j.ID, func(v *types.JobView) {
		v.State = JobRunning
		v.StartedAt = start
	})
	m.refreshGauges()

	var out outcome
	if j.Token().Cancelled() {
		out = outcome{state: JobCancelled}
	} else {
		m.publish(Event{Name: EventJobStarted, JobID: j.ID})
		out = m.pipeline(ctx, j)
	}

	if m.retention != nil {
		m.retention.Hold(out.artifact)
		rep := m.retention.Cleanup(m.cfg.MaxAgeDays, m.cfg.MaxFiles)
		m.retention.Release(out.artifact)
		m.publish(Event{Name: EventRetentionSweep, JobID: j.ID, Fields: map[string]any{"removed": rep.Total(), "failed": rep.Failed}})
	}

	m.queue.Done(j.ID)
	m.refreshGauges()
	jobsFinishedTotal.WithLabelValues(out.state).Inc()
	jobDuration.WithLabelValues(out.state).Observe(time.Since(start).Seconds())
	fields := map[string]any{"state": out.state, "tier": out.tier}
	if out.err != nil {
		fields["kind"] = string(out.err.Kind)
	}
	m.publish(Event{Name: EventJobFinished, JobID: j.ID, Fields: fields})
	m.log.Info().Str("job_id", j.ID).Str("state", out.state).Str("tier", out.tier).Dur("took", time.Since(start)).Msg("job finished")
	// waiters are released last, once every side effect is visible
	m.finish(j.ID, out)
}

// pipeline leases a resource, generates, and merges music. Engine panics are
// classified as unexpected errors.
func (m *Manager) pipeline(ctx context.Context, j *queue.Job) (out outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = outcome{state: JobFailed, tier: out.tier, err: m.classified(StageVideoGeneration, panicError{value: r, stack: string(debug.Stack())})}
		}
	}()

	m.setProgress(j.ID, 0, "Initializing model...")
	lease, err := m.loader.Acquire(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return outcome{state: JobCancelled}
		}
		return outcome{state: JobFailed, err: m.classified(StageModelLoading, err)}
	}
	defer lease.Release()
	out.tier = lease.Tier
	m.update(j.ID, func(v *types.JobView) { v.Tier = lease.Tier })
	m.setProgress(j.ID, 0.1, "Using model: "+lease.Tier)
	m.publish(Event{Name: EventTierSelected, JobID: j.ID, Fields: map[string]any{"tier": lease.Tier}})

	jobCtx, cancel := ctx, context.CancelFunc(func() {})
	if m.cfg.JobTimeout > 0 {
		jobCtx, cancel = context.WithTimeout(ctx, m.cfg.JobTimeout)
	}
	defer cancel()

	p := j.Params
	req := engine.Request{
		JobID:      j.ID,
		Prompt:     p.Prompt,
		Duration:   p.Duration,
		FPS:        p.FPS,
		Width:      p.Width,
		Height:     p.Height,
		SceneCount: p.SceneCount,
	}
	progress := func(f float64, msg string) {
		if f < 0 {
			f = 0
		}
		if f > 1 {
			f = 1
		}
		m.setProgress(j.ID, 0.2+0.7*f, msg)
	}
	path, err := m.engine.Generate(jobCtx, lease.Handle, req, progress, j.Token())
	if err != nil {
		return m.generationFailure(ctx, j, out, err)
	}
	out.artifact = path
	if m.retention != nil {
		m.retention.Hold(path)
		defer m.retention.Release(path)
	}

	m.setProgress(j.ID, 0.9, "Finalizing video...")
	if p.MusicPath != "" {
		out.artifact, out.warning = m.addMusic(jobCtx, j.ID, path, p.MusicPath)
	}
	out.state = JobSucceeded
	return out
}

func (m *Manager) generationFailure(ctx context.Context, j *queue.Job, out outcome, err error) outcome {
	if j.Token().Cancelled() || errors.Is(err, queue.ErrCancelled) || (ctx.Err() != nil && errclass.CategoryOf(err) != errclass.CategoryTimeout) {
		out.state = JobCancelled
		return out
	}
	cl := m.classified(StageVideoGeneration, err)
	out.state, out.err = JobFailed, cl
	switch cl.Kind {
	case errclass.KindTimeout:
		j.Token().Cancel()
	case errclass.KindResourceExhaustion:
		// the cached handle cannot be trusted after running out of headroom
		m.loader.Invalidate()
		if po, ok := m.engine.(engine.PartialOutputter); ok {
			if p, ok := po.PartialOutput(j.ID); ok && fsutil.PathExists(p) {
				cl.MarkPartial()
				out.state, out.artifact, out.warning = JobPartial, p, cl.UserMessage()
				m.log.Warn().Str("job_id", j.ID).Str("artifact", p).Msg("returning partial artifact")
			}
		}
	}
	return out
}

// addMusic merges audio into the video. Failures are classified and logged
// but never fail the job; the silent artifact is kept instead.
func (m *Manager) addMusic(ctx context.Context, jobID, videoPath, musicPath string) (string, string) {
	if m.muxer == nil {
		return videoPath, "Music integration is not available; video generated without music."
	}
	if _, err := os.Stat(musicPath); err != nil {
		m.log.Warn().Str("job_id", jobID).Str("music", musicPath).Msg("music file not found")
		return videoPath, "Music file not found; video generated without music."
	}
	merged, err := m.muxer.Mux(ctx, videoPath, musicPath)
	if err != nil {
		cl := m.classified(StageMusicIntegration, err)
		return videoPath, "Music could not be added: " + cl.Message
	}
	if err := os.Remove(videoPath); err != nil {
		m.log.Debug().Err(err).Str("path", videoPath).Msg("remove silent video")
	}
	return merged, ""
}

func (m *Manager) refreshGauges() {
	st := m.queue.Status()
	queuePending.Set(float64(st.Pending))
	jobsActive.Set(float64(st.Active))
}
