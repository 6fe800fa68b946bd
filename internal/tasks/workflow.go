package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/narrate/internal/models"
	"github.com/desertthunder/narrate/internal/services"
	"github.com/desertthunder/narrate/internal/shared"
	"github.com/desertthunder/narrate/internal/store"
)

// DefaultPollInterval is the period between status requests.
const DefaultPollInterval = 3 * time.Second

// TokenSource yields a live bearer token, refreshing it if needed.
type TokenSource interface {
	EnsureValidToken(ctx context.Context) (string, bool)
}

// Refresher reloads cached subscription quota after a job completes.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// HistoryRecorder keeps a record of finished jobs.
type HistoryRecorder interface {
	Record(kind models.JobKind, taskID, status, message, resultName string, startedAt, finishedAt time.Time) error
}

// Messages are the user-facing texts of one job kind.
type Messages struct {
	EntitlementUnavailable string // entitlement check could not be made
	SubmitCancelled        string // user aborted before the backend issued a job id
	SubmitFailed           string
	JobFailed              string // backend reported failure without a message
	PollUnavailable        string // status request failed in transit
	Cancelled              string
	CancelFailed           string
	Succeeded              string
}

// Backend adapts the endpoints of one job kind.
type Backend[In, Out any] interface {
	Kind() models.JobKind
	// StoreKey is where the pending job id is persisted.
	StoreKey() string
	Messages() Messages
	Entitlement(ctx context.Context, token string) error
	Submit(ctx context.Context, token string, in In) (taskID string, err error)
	Status(ctx context.Context, token, taskID string) (*services.TaskStatus, error)
	Result(ctx context.Context, token string) (Out, error)
	Cancel(ctx context.Context, token, taskID string) error
	// Describe names a result for history and display.
	Describe(out Out) string
}

// Options configures [NewWorkflow]. Tokens and Store are required.
type Options struct {
	Tokens    TokenSource
	Store     store.Store
	Interval  time.Duration
	Logger    *log.Logger
	Refresher Refresher
	History   HistoryRecorder
	Progress  chan<- ProgressUpdate
}

// Snapshot is a copy of a workflow's observable state.
type Snapshot[Out any] struct {
	Kind      models.JobKind
	State     State
	Progress  float64
	TaskID    string
	Message   string
	Err       error
	Result    Out
	HasResult bool
}

// Workflow drives one job kind through submission, polling, cancellation and result retrieval.
//
// At most one job is active at a time. The pending job id is kept in the
// durable store from submission until the job ends, so a later process can
// pick it up with [Workflow.Resume].
type Workflow[In, Out any] struct {
	backend   Backend[In, Out]
	tokens    TokenSource
	store     store.Store
	interval  time.Duration
	logger    *log.Logger
	refresher Refresher
	history   HistoryRecorder
	progress  chan<- ProgressUpdate

	mu         sync.Mutex
	run        uint64
	state      State
	pct        float64
	taskID     string
	message    string
	err        error
	result     Out
	hasResult  bool
	abort      context.CancelFunc
	repeater   *Repeater
	cancelling bool
	fetching   bool
	done       chan struct{}
	startedAt  time.Time
}

// NewWorkflow creates an idle workflow for backend.
func NewWorkflow[In, Out any](backend Backend[In, Out], opts Options) *Workflow[In, Out] {
	w := &Workflow[In, Out]{
		backend:   backend,
		tokens:    opts.Tokens,
		store:     opts.Store,
		interval:  opts.Interval,
		logger:    opts.Logger,
		refresher: opts.Refresher,
		history:   opts.History,
		progress:  opts.Progress,
	}
	if w.interval <= 0 {
		w.interval = DefaultPollInterval
	}
	if w.logger == nil {
		w.logger = shared.NewLogger(io.Discard)
	}
	w.logger = shared.WithLogger(w.logger, "job", string(backend.Kind()))
	return w
}

// Kind returns the job kind this workflow drives.
func (w *Workflow[In, Out]) Kind() models.JobKind {
	return w.backend.Kind()
}

// Snapshot returns the current state.
func (w *Workflow[In, Out]) Snapshot() Snapshot[Out] {
	w.mu.Lock()
	defer w.mu.Unlock()
	return Snapshot[Out]{
		Kind:      w.backend.Kind(),
		State:     w.state,
		Progress:  w.pct,
		TaskID:    w.taskID,
		Message:   w.message,
		Err:       w.err,
		Result:    w.result,
		HasResult: w.hasResult,
	}
}

// Result returns the last completed result, from a finished job or from [Workflow.Resume].
func (w *Workflow[In, Out]) Result() (Out, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.result, w.hasResult
}

// Submit starts a new job and returns once the backend has issued its id and polling has begun.
//
// Without a live token nothing is sent and [shared.ErrNeedsSignIn] is returned.
// A failed entitlement check ends the job with the backend's message wrapped
// in [shared.ErrEntitlement]. Cancelling ctx while the submission is in flight
// aborts it like [Workflow.Cancel] does.
func (w *Workflow[In, Out]) Submit(ctx context.Context, in In) error {
	kind := w.backend.Kind()

	w.mu.Lock()
	active := w.state.Active()
	w.mu.Unlock()
	if active {
		return fmt.Errorf("%w: %s", shared.ErrJobActive, kind)
	}
	if pending := store.GetString(ctx, w.store, w.backend.StoreKey()); pending != "" {
		return fmt.Errorf("%w: %s job %s is still pending", shared.ErrJobActive, kind, pending)
	}

	token, ok := w.tokens.EnsureValidToken(ctx)
	if !ok {
		return shared.ErrNeedsSignIn
	}

	reqCtx, abort := context.WithCancel(ctx)
	defer abort()

	w.mu.Lock()
	if err := checkTransition(w.state, Submitting); err != nil {
		w.mu.Unlock()
		return fmt.Errorf("%w: %s", shared.ErrJobActive, kind)
	}
	w.run++
	run := w.run
	w.begin(Submitting, "")
	w.abort = abort
	w.emit(submittingUpdate(kind))
	w.mu.Unlock()

	w.logger.Debug("checking entitlement")
	if err := w.backend.Entitlement(reqCtx, token); err != nil {
		return w.failSubmit(ctx, run, err, true)
	}

	w.logger.Info("submitting job")
	taskID, err := w.backend.Submit(reqCtx, token, in)
	if err != nil {
		return w.failSubmit(ctx, run, err, false)
	}

	w.mu.Lock()
	if w.run != run || w.state != Submitting {
		w.mu.Unlock()
		w.logger.Warn("job issued after local cancel, cancelling it", "task_id", taskID)
		if err := w.backend.Cancel(context.WithoutCancel(ctx), token, taskID); err != nil {
			w.logger.Warn("failed to cancel orphaned job", "task_id", taskID, "error", err)
		}
		return shared.ErrJobCancelled
	}
	defer w.mu.Unlock()

	if err := w.store.Set(ctx, w.backend.StoreKey(), taskID); err != nil {
		w.logger.Warn("failed to persist job id", "task_id", taskID, "error", err)
	}
	w.abort = nil
	w.taskID = taskID
	w.state = Polling
	w.startPollingLocked(ctx, run)
	w.emit(pollingUpdate(kind, taskID, 0))
	w.logger.Info("job submitted", "task_id", taskID)
	return nil
}

func (w *Workflow[In, Out]) failSubmit(ctx context.Context, run uint64, err error, entitlement bool) error {
	msgs := w.backend.Messages()

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.run != run || w.state != Submitting {
		return shared.ErrJobCancelled
	}

	switch {
	case ctx.Err() != nil:
		w.finishLocked(Cancelled, msgs.SubmitCancelled, shared.ErrJobCancelled)
		return shared.ErrJobCancelled
	case errors.Is(err, shared.ErrNeedsSignIn):
		w.finishLocked(Idle, "", shared.ErrNeedsSignIn)
		return shared.ErrNeedsSignIn
	case entitlement:
		if apiErr, ok := services.AsAPIError(err); ok {
			wrapped := fmt.Errorf("%w: %s", shared.ErrEntitlement, apiErr.Message)
			w.finishLocked(Failed, apiErr.Message, wrapped)
			return wrapped
		}
		w.logger.Error("entitlement check failed", "error", err)
		w.finishLocked(Failed, msgs.EntitlementUnavailable, err)
		return fmt.Errorf("%s: %w", msgs.EntitlementUnavailable, err)
	default:
		w.logger.Error("submission failed", "error", err)
		w.finishLocked(Failed, msgs.SubmitFailed, err)
		return fmt.Errorf("%s: %w", msgs.SubmitFailed, err)
	}
}

// Resume picks up a job whose id was left in the store by an earlier process.
//
// With a pending id the workflow enters Polling without submitting anything
// and resumed is true. Otherwise it fetches the last completed result once,
// which is then available from [Workflow.Result].
func (w *Workflow[In, Out]) Resume(ctx context.Context) (resumed bool, err error) {
	kind := w.backend.Kind()

	w.mu.Lock()
	active := w.state.Active()
	w.mu.Unlock()
	if active {
		return false, fmt.Errorf("%w: %s", shared.ErrJobActive, kind)
	}

	taskID, ok, err := w.store.Get(ctx, w.backend.StoreKey())
	if err != nil {
		return false, fmt.Errorf("failed to read pending job: %w", err)
	}

	if ok && taskID != "" {
		w.mu.Lock()
		defer w.mu.Unlock()
		if err := checkTransition(w.state, Polling); err != nil {
			return false, fmt.Errorf("%w: %s", shared.ErrJobActive, kind)
		}
		w.run++
		w.begin(Polling, taskID)
		w.startPollingLocked(ctx, w.run)
		w.emit(pollingUpdate(kind, taskID, 0))
		w.logger.Info("resumed pending job", "task_id", taskID)
		return true, nil
	}

	token, ok := w.tokens.EnsureValidToken(ctx)
	if !ok {
		return false, shared.ErrNeedsSignIn
	}
	result, err := w.backend.Result(ctx, token)
	if err != nil {
		if apiErr, ok := services.AsAPIError(err); ok && apiErr.StatusCode == 404 {
			return false, shared.ErrNoResult
		}
		return false, fmt.Errorf("%w: %w", shared.ErrNoResult, err)
	}

	w.mu.Lock()
	w.result = result
	w.hasResult = true
	w.mu.Unlock()
	return false, nil
}

// Cancel stops the active job.
//
// Before the backend has issued an id the submission is aborted locally and
// no cancel request is sent. Otherwise the backend is asked to cancel; the
// job ends as Cancelled and its id is cleared whatever the answer, which only
// selects the message. A non-nil error means the backend did not confirm.
func (w *Workflow[In, Out]) Cancel(ctx context.Context) error {
	msgs := w.backend.Messages()

	w.mu.Lock()
	if !w.state.Active() || w.cancelling {
		w.mu.Unlock()
		return shared.ErrNoActiveJob
	}
	run := w.run
	taskID := w.taskID
	if taskID == "" || w.fetching {
		w.finishLocked(Cancelled, msgs.SubmitCancelled, shared.ErrJobCancelled)
		w.mu.Unlock()
		w.logger.Info("job cancelled before submission completed")
		return nil
	}
	w.cancelling = true
	w.stopLocked()
	w.mu.Unlock()

	var cancelErr error
	if token, ok := w.tokens.EnsureValidToken(ctx); !ok {
		cancelErr = shared.ErrNeedsSignIn
	} else {
		cancelErr = w.backend.Cancel(ctx, token, taskID)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.run != run || !w.state.Active() {
		return cancelErr
	}

	msg := msgs.Cancelled
	if cancelErr != nil {
		w.logger.Warn("backend did not confirm cancellation", "task_id", taskID, "error", cancelErr)
		msg = msgs.CancelFailed
	}
	w.finishLocked(Cancelled, msg, shared.ErrJobCancelled)
	w.logger.Info("job cancelled", "task_id", taskID)
	return cancelErr
}

// Wait blocks until the active job ends or ctx is done.
//
// The returned error is the job's outcome: nil on success,
// [shared.ErrJobCancelled] after a cancel, [shared.ErrNeedsSignIn] when the
// session expired mid-job, otherwise the failure.
func (w *Workflow[In, Out]) Wait(ctx context.Context) (Snapshot[Out], error) {
	w.mu.Lock()
	done := w.done
	w.mu.Unlock()

	if done == nil {
		s := w.Snapshot()
		return s, s.Err
	}

	select {
	case <-done:
		s := w.Snapshot()
		return s, s.Err
	case <-ctx.Done():
		return w.Snapshot(), ctx.Err()
	}
}

func (w *Workflow[In, Out]) startPollingLocked(ctx context.Context, run uint64) {
	w.repeater = StartRepeater(context.WithoutCancel(ctx), w.interval, func(tickCtx context.Context) {
		w.tick(tickCtx, run)
	})
}

// stale reports whether a tick of run should be dropped. Must hold w.mu.
func (w *Workflow[In, Out]) stale(run uint64) bool {
	return w.run != run || w.state != Polling || w.cancelling || w.fetching
}

func (w *Workflow[In, Out]) tick(ctx context.Context, run uint64) {
	kind := w.backend.Kind()
	msgs := w.backend.Messages()

	w.mu.Lock()
	if w.stale(run) {
		w.mu.Unlock()
		return
	}
	taskID := w.taskID
	w.mu.Unlock()

	token, ok := w.tokens.EnsureValidToken(ctx)
	if !ok {
		w.mu.Lock()
		if !w.stale(run) {
			w.needsSignInLocked()
		}
		w.mu.Unlock()
		return
	}

	reqCtx, abort := context.WithCancel(ctx)
	defer abort()

	w.mu.Lock()
	if w.stale(run) {
		w.mu.Unlock()
		return
	}
	w.abort = abort
	w.mu.Unlock()

	status, err := w.backend.Status(reqCtx, token, taskID)

	w.mu.Lock()
	if w.stale(run) {
		w.mu.Unlock()
		return
	}
	w.abort = nil

	switch {
	case err != nil:
		if errors.Is(err, shared.ErrNeedsSignIn) {
			w.needsSignInLocked()
		} else if apiErr, ok := services.AsAPIError(err); ok {
			w.logger.Error("status request rejected", "task_id", taskID, "status", apiErr.StatusCode, "error", apiErr.Message)
			w.finishLocked(Failed, apiErr.Message, fmt.Errorf("%w: %s", shared.ErrJobFailed, apiErr.Message))
		} else {
			w.logger.Error("status request failed", "task_id", taskID, "error", err)
			w.finishLocked(Failed, msgs.PollUnavailable, err)
		}
		w.mu.Unlock()
	case status.Status == services.StatusSuccess:
		w.fetching = true
		w.stopLocked()
		if err := w.store.Delete(ctx, w.backend.StoreKey()); err != nil {
			w.logger.Warn("failed to clear job id", "error", err)
		}
		w.mu.Unlock()
		w.complete(context.WithoutCancel(ctx), run, token)
	case status.Status == services.StatusFailure || status.Error != "":
		msg := status.Error
		if msg == "" {
			msg = msgs.JobFailed
		}
		w.logger.Error("job failed", "task_id", taskID, "error", msg)
		w.finishLocked(Failed, msg, fmt.Errorf("%w: %s", shared.ErrJobFailed, msg))
		w.mu.Unlock()
	default:
		if v, ok := status.ProgressValue(); ok {
			v = min(max(v, 0), 100)
			if v > w.pct {
				w.pct = v
			}
		}
		w.emit(pollingUpdate(kind, taskID, w.pct))
		w.mu.Unlock()
	}
}

// complete fetches the result of a job the backend reported as done.
func (w *Workflow[In, Out]) complete(ctx context.Context, run uint64, token string) {
	reqCtx, abort := context.WithCancel(ctx)
	defer abort()

	w.mu.Lock()
	if w.run != run || w.state != Polling {
		w.mu.Unlock()
		return
	}
	w.abort = abort
	w.mu.Unlock()

	result, err := w.backend.Result(reqCtx, token)
	if err == nil && w.refresher != nil {
		if rerr := w.refresher.Refresh(ctx); rerr != nil {
			w.logger.Warn("failed to refresh subscription", "error", rerr)
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.run != run || w.state != Polling {
		return
	}

	if err != nil {
		msg := w.backend.Messages().PollUnavailable
		if apiErr, ok := services.AsAPIError(err); ok {
			msg = apiErr.Message
		}
		w.logger.Error("failed to fetch result", "error", err)
		w.finishLocked(Failed, msg, fmt.Errorf("%w: %w", shared.ErrNoResult, err))
		return
	}

	w.result = result
	w.hasResult = true
	w.finishLocked(Succeeded, w.backend.Messages().Succeeded, nil)
	w.logger.Info("job succeeded", "result", w.backend.Describe(result))
}

// begin resets per-job state. Must hold w.mu.
func (w *Workflow[In, Out]) begin(state State, taskID string) {
	w.state = state
	w.taskID = taskID
	w.pct = 0
	w.message = ""
	w.err = nil
	w.cancelling = false
	w.fetching = false
	w.done = make(chan struct{})
	w.startedAt = time.Now()
}

// stopLocked ends polling and aborts the in-flight request. Must hold w.mu.
func (w *Workflow[In, Out]) stopLocked() {
	if w.repeater != nil {
		w.repeater.Stop()
		w.repeater = nil
	}
	if w.abort != nil {
		w.abort()
		w.abort = nil
	}
}

// needsSignInLocked stops polling but keeps the job id so the job can be resumed after signing in.
func (w *Workflow[In, Out]) needsSignInLocked() {
	w.logger.Warn("session expired while polling", "task_id", w.taskID)
	w.stopLocked()
	taskID := w.taskID
	w.state = Idle
	w.pct = 0
	w.err = shared.ErrNeedsSignIn
	w.message = shared.ErrNeedsSignIn.Error()
	w.emit(signInUpdate(w.backend.Kind(), taskID))
	w.closeDone()
}

// finishLocked moves to a final state, clears the stored job id and records history. Must hold w.mu.
func (w *Workflow[In, Out]) finishLocked(state State, message string, err error) {
	if state != Idle {
		if terr := checkTransition(w.state, state); terr != nil {
			w.logger.Error("unexpected transition", "error", terr)
		}
	}

	w.stopLocked()
	if rerr := w.store.Delete(context.Background(), w.backend.StoreKey()); rerr != nil {
		w.logger.Warn("failed to clear job id", "error", rerr)
	}

	taskID := w.taskID
	w.state = state
	w.pct = 0
	w.message = message
	w.err = err
	w.taskID = ""
	w.cancelling = false
	w.fetching = false

	var data any
	resultName := ""
	if state == Succeeded {
		data = w.result
		resultName = w.backend.Describe(w.result)
	}

	if w.history != nil && state.Terminal() {
		if herr := w.history.Record(w.backend.Kind(), taskID, state.JobStatus(), message, resultName, w.startedAt, time.Now()); herr != nil {
			w.logger.Warn("failed to record job history", "error", herr)
		}
	}

	w.emit(terminalUpdate(w.backend.Kind(), state, message, data))
	w.closeDone()
}

func (w *Workflow[In, Out]) closeDone() {
	if w.done == nil {
		return
	}
	select {
	case <-w.done:
	default:
		close(w.done)
	}
}

func (w *Workflow[In, Out]) emit(u ProgressUpdate) {
	sendProgress(w.progress, u)
}
