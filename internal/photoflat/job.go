package photoflat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/agusx1211/structphoto/internal/plog"
	"github.com/google/uuid"
)

// ErrJobStarted is returned when a Job is run a second time.
var ErrJobStarted = errors.New("job already started")

// Outcome is how a job ended.
type Outcome int

const (
	Completed Outcome = iota
	Terminated
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Completed:
		return "completed"
	case Terminated:
		return "terminated"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Stats counts what an operation did to the filesystem.
type Stats struct {
	Removed int // top-level target entries removed
	Kept    int // excluded target directories left alone
	Leaves  int // flattened directories created
	Linked  int // hardlinks created
	Pruned  int // source directories skipped by the filter
}

// Result is delivered once a job ends.
type Result struct {
	Outcome  Outcome
	Err      error
	Stats    Stats
	Duration time.Duration
}

// Operation is the body a Job runs. It returns ErrTerminated when it
// observed cancellation.
type Operation func(ctx context.Context) (Stats, error)

// JobOption configures a Job.
type JobOption func(*Job)

// WithCallback registers fn to run after the finish line has been emitted,
// on the goroutine that ran the job. fn must not call Wait.
func WithCallback(fn func(Result)) JobOption {
	return func(j *Job) { j.callback = fn }
}

// withoutFailureLog leaves logging a failure to the caller that embeds the job.
func withoutFailureLog() JobOption {
	return func(j *Job) { j.quietFailure = true }
}

// Job runs one operation with start and finish status lines and cooperative
// cancellation. A Job runs at most once.
type Job struct {
	ID string

	name      string
	startMsg  string
	op        Operation
	sink      Sink
	highlight string
	callback  func(Result)

	quietFailure bool

	mu            sync.Mutex
	started       bool
	stopRequested bool
	cancel        context.CancelFunc
	result        Result
	done          chan struct{}
}

// NewJob wraps op. name prefixes the finish line ("<name> DONE",
// "<name> TERMINATED" or "<name> FAILED: <err>").
func NewJob(name, startMsg string, op Operation, sink Sink, highlight string, opts ...JobOption) *Job {
	if sink == nil {
		sink = Discard
	}
	j := &Job{
		ID:        uuid.NewString(),
		name:      name,
		startMsg:  startMsg,
		op:        op,
		sink:      sink,
		highlight: highlight,
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// NewCleanJob returns a job that cleans the target directory.
func NewCleanJob(cfg Config, sink Sink, opts ...JobOption) *Job {
	c := NewCleaner(cfg, sink)
	return NewJob("Cleanup", "Cleaning folder...", c.Clean, sink, cfg.Highlight, opts...)
}

// NewUpdateJob returns a job that cleans the target and rebuilds the
// hardlink tree.
func NewUpdateJob(cfg Config, sink Sink, opts ...JobOption) *Job {
	f := NewFlattener(cfg, sink)
	return NewJob("Hardlink creation", "Updating target folder...", f.Flatten, sink, cfg.Highlight, opts...)
}

// Run executes the job on the calling goroutine and returns its result.
func (j *Job) Run(ctx context.Context) Result {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if err := j.begin(cancel); err != nil {
		return Result{Outcome: Failed, Err: err}
	}
	return j.execute(ctx)
}

// Start executes the job on a new goroutine.
func (j *Job) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	if err := j.begin(cancel); err != nil {
		cancel()
		return err
	}
	go func() {
		defer cancel()
		j.execute(ctx)
	}()
	return nil
}

// Stop requests cancellation. It is safe to call from any goroutine, any
// number of times, and has no effect once the job has finished.
func (j *Job) Stop() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.stopRequested = true
	if j.cancel != nil {
		j.cancel()
	}
}

// Done is closed after the job finished and its callback returned.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Wait blocks until the job is done. It never returns for a job that was
// not started.
func (j *Job) Wait() Result {
	<-j.done
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.result
}

func (j *Job) begin(cancel context.CancelFunc) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.started {
		return ErrJobStarted
	}
	j.started = true
	j.cancel = cancel
	if j.stopRequested {
		cancel()
	}
	return nil
}

func (j *Job) execute(ctx context.Context) Result {
	start := time.Now()
	j.status(j.startMsg)
	plog.Debug("Job started", "job", j.name, "run_id", j.ID)

	stats, err := j.op(ctx)
	res := Result{Stats: stats, Duration: time.Since(start)}

	switch {
	case err == nil:
		res.Outcome = Completed
		j.status(j.name + " DONE")
	case errors.Is(err, ErrTerminated):
		res.Outcome = Terminated
		j.status(j.name + " TERMINATED")
	default:
		res.Outcome = Failed
		res.Err = err
		if !j.quietFailure {
			plog.Error("Error during "+strings.ToLower(j.name), "run_id", j.ID, "error", err)
		}
		j.status(fmt.Sprintf("%s FAILED: %v", j.name, err))
	}

	plog.Info("Job finished",
		"job", j.name,
		"run_id", j.ID,
		"outcome", res.Outcome,
		"removed", stats.Removed,
		"kept", stats.Kept,
		"leaves", stats.Leaves,
		"linked", stats.Linked,
		"pruned", stats.Pruned,
		"duration", res.Duration.Round(time.Millisecond),
	)

	j.mu.Lock()
	j.result = res
	j.mu.Unlock()

	if j.callback != nil {
		j.callback(res)
	}
	close(j.done)
	return res
}

func (j *Job) status(msg string) {
	j.sink.AppendLine(formatStatus(j.highlight, msg))
}

func formatStatus(highlight, msg string) string {
	if highlight == "" {
		return msg
	}
	return highlight + " " + msg + " " + highlight
}
