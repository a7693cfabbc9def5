package queue

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrCancelled is returned by CancelToken.Err once cancellation was requested.
var ErrCancelled = errors.New("job cancelled")

// Params are the validated generation parameters of a job.
type Params struct {
	Prompt     string
	Duration   float64
	FPS        int
	Width      int
	Height     int
	MusicPath  string
	SceneCount int
}

// Resolution formats the frame size as WxH.
func (p Params) Resolution() string { return fmt.Sprintf("%dx%d", p.Width, p.Height) }

// Job is one admitted generation request.
type Job struct {
	ID          string
	Params      Params
	SubmittedAt time.Time

	token *CancelToken
}

// NewJob assigns a time-ordered id. UUIDv7 ids are monotonic within the
// process, so two jobs never share an id.
func NewJob(p Params) (*Job, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("job id: %w", err)
	}
	return &Job{ID: id.String(), Params: p, SubmittedAt: time.Now(), token: NewCancelToken()}, nil
}

// Token returns the job's cooperative cancellation token.
func (j *Job) Token() *CancelToken {
	if j.token == nil {
		j.token = NewCancelToken()
	}
	return j.token
}

// CancelToken is a cooperative cancellation flag. Setting it is immediate;
// honouring it is up to whoever polls Cancelled or selects on Done.
type CancelToken struct {
	once sync.Once
	ch   chan struct{}
}

func NewCancelToken() *CancelToken { return &CancelToken{ch: make(chan struct{})} }

// Cancel sets the flag. Repeated calls are no-ops.
func (t *CancelToken) Cancel() { t.once.Do(func() { close(t.ch) }) }

// Cancelled reports whether Cancel was called.
func (t *CancelToken) Cancelled() bool {
	select {
	case <-t.ch:
		return true
	default:
		return false
	}
}

// Done is closed when the token is cancelled.
func (t *CancelToken) Done() <-chan struct{} { return t.ch }

// Err returns ErrCancelled after cancellation, nil before.
func (t *CancelToken) Err() error {
	if t.Cancelled() {
		return ErrCancelled
	}
	return nil
}
