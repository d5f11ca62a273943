// Package workflow sequences corpus refresh and résumé matching against the
// remote service and keeps the published results consistent with in-flight work.
package workflow

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/spigell/job-matcher/internal/logger"
	"github.com/spigell/job-matcher/internal/matcher"
	"github.com/spigell/job-matcher/internal/params"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	OpMatch           = "match"
	OpRefreshAndMatch = "refresh-and-match"
	OpSyncJobCount    = "sync-job-count"
)

// Gateway is the remote service as seen by the orchestrator.
type Gateway interface {
	SubmitMatch(ctx context.Context, snap params.Snapshot) (*matcher.Results, error)
	TriggerRefresh(ctx context.Context) (*matcher.RefreshResult, error)
	ReadJobCount(ctx context.Context) (int, error)
}

// TransitionHook observes every state change. Hooks run synchronously on the
// goroutine performing the transition and must not call back into the orchestrator's Run methods.
type TransitionHook func(from, to State)

type Option func(*Orchestrator)

func WithTransitionHook(hook TransitionHook) Option {
	return func(o *Orchestrator) {
		if hook != nil {
			o.hooks = append(o.hooks, hook)
		}
	}
}

// WithRunIDGenerator replaces the uuid-based run id generator.
func WithRunIDGenerator(fn func() string) Option {
	return func(o *Orchestrator) {
		if fn != nil {
			o.newRunID = fn
		}
	}
}

// Report describes a finished workflow run.
type Report struct {
	RunID     string
	Refreshed bool
	NewJobs   int
	// JobCount is the store's corpus size after the run. It is stale when JobCountErr is set.
	JobCount    int
	JobCountErr error
	Results     *matcher.Results
}

type Orchestrator struct {
	store   *params.Store
	gateway Gateway
	logger  *zap.Logger

	state   atomic.Int32
	results atomic.Pointer[matcher.Results]

	errMu   sync.Mutex
	lastErr error

	hooks    []TransitionHook
	newRunID func() string
}

func New(store *params.Store, gateway Gateway, log *zap.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:    store,
		gateway:  gateway,
		logger:   logger.WithFields(log),
		newRunID: uuid.NewString,
	}
	o.results.Store(&matcher.Results{Items: []*matcher.Result{}})

	for _, opt := range opts {
		opt(o)
	}

	return o
}

func (o *Orchestrator) State() State {
	return State(o.state.Load())
}

// Results returns a copy of the last successfully published results.
func (o *Orchestrator) Results() *matcher.Results {
	return o.results.Load().Clone()
}

// LastError returns the error of the most recent run, or nil if it succeeded.
func (o *Orchestrator) LastError() error {
	o.errMu.Lock()
	defer o.errMu.Unlock()

	return o.lastErr
}

// RunMatch submits the current parameters for matching without refreshing the corpus.
func (o *Orchestrator) RunMatch(ctx context.Context) (*Report, error) {
	runID := o.newRunID()
	log := logger.WithWorkflow(o.logger, runID, OpMatch)

	snap, err := o.snapshot()
	if err != nil {
		log.Info("workflow rejected", zap.Error(err))
		return nil, err
	}

	if busy, ok := o.start(Matching); !ok {
		return nil, o.rejectBusy(log, busy)
	}

	report := &Report{RunID: runID, JobCount: o.store.JobCount()}
	if err := o.match(ctx, log, snap, report); err != nil {
		o.fail(log, Matching, err)
		return nil, err
	}

	o.succeed(log, Matching)
	return report, nil
}

// RunRefreshAndMatch triggers a corpus refresh, re-reads the corpus size and then
// matches against the refreshed corpus. At most one workflow runs at a time.
//
// A refresh failure aborts the run before any match request is issued. A failed
// job count read is recorded in Report.JobCountErr and does not abort the run.
// When only the match step fails, the returned report still describes the refresh.
func (o *Orchestrator) RunRefreshAndMatch(ctx context.Context) (*Report, error) {
	runID := o.newRunID()
	log := logger.WithWorkflow(o.logger, runID, OpRefreshAndMatch)

	snap, err := o.snapshot()
	if err != nil {
		log.Info("workflow rejected", zap.Error(err))
		return nil, err
	}

	if busy, ok := o.start(Refreshing); !ok {
		return nil, o.rejectBusy(log, busy)
	}

	log.Info("refreshing job corpus")

	refresh, err := o.gateway.TriggerRefresh(ctx)
	if err != nil {
		o.fail(log, Refreshing, err)
		return nil, err
	}

	report := &Report{RunID: runID, Refreshed: true, NewJobs: refresh.NewJobs}

	count, err := o.gateway.ReadJobCount(ctx)
	if err != nil {
		log.Warn("reading job count after refresh failed, matching anyway", zap.Error(err))
		report.JobCountErr = err
	} else {
		o.store.SetJobCount(count)
	}
	report.JobCount = o.store.JobCount()

	log.Info("jobs refreshed",
		zap.Int("new_jobs", report.NewJobs),
		zap.Int("job_count", report.JobCount),
	)

	o.transition(Refreshing, Matching)

	if err := o.match(ctx, log, snap, report); err != nil {
		o.fail(log, Matching, err)
		return report, err
	}

	o.succeed(log, Matching)
	return report, nil
}

// SyncJobCount reads the corpus size and records it in the store.
// It is a plain read and does not take part in the state machine.
func (o *Orchestrator) SyncJobCount(ctx context.Context) (int, error) {
	log := logger.WithWorkflow(o.logger, o.newRunID(), OpSyncJobCount)

	count, err := o.gateway.ReadJobCount(ctx)
	if err != nil {
		log.Warn("reading job count failed", zap.Error(err))
		return o.store.JobCount(), err
	}

	o.store.SetJobCount(count)
	log.Debug("job count synced", zap.Int("job_count", count))

	return count, nil
}

func (o *Orchestrator) snapshot() (params.Snapshot, error) {
	snap := o.store.Snapshot()
	if !snap.HasResume() {
		err := &ValidationError{Reason: ReasonNoResume}
		o.setLastError(err)
		return snap, err
	}

	return snap, nil
}

func (o *Orchestrator) match(ctx context.Context, log *zap.Logger, snap params.Snapshot, report *Report) error {
	log.Info("matching resume",
		zap.Float64("threshold", snap.Threshold),
		zap.Bool("entry_level_only", snap.EntryLevelOnly),
	)

	results, err := o.gateway.SubmitMatch(ctx, snap)
	if err != nil {
		return err
	}

	published := results.Clone()
	o.results.Store(published)
	report.Results = published.Clone()

	log.Info("matched jobs published", zap.Int("count", published.Len()))
	return nil
}

// transition moves from -> to as a single compare-and-swap.
func (o *Orchestrator) transition(from, to State) bool {
	if !o.state.CompareAndSwap(int32(from), int32(to)) {
		return false
	}

	for _, hook := range o.hooks {
		hook(from, to)
	}
	return true
}

func (o *Orchestrator) succeed(log *zap.Logger, from State) {
	o.setLastError(nil)
	o.transition(from, Idle)
	log.Debug("workflow finished", zap.String(logger.FieldState, Idle.String()))
}

func (o *Orchestrator) fail(log *zap.Logger, from State, err error) {
	o.setLastError(err)
	log.Warn("workflow failed", zap.String(logger.FieldState, from.String()), zap.Error(err))

	o.transition(from, Failed)
	o.transition(Failed, Idle)
}

// start leaves Idle for to. On failure it returns the state that was observed
// when the compare-and-swap lost, not a later one.
func (o *Orchestrator) start(to State) (State, bool) {
	for {
		current := State(o.state.Load())
		if current != Idle {
			return current, false
		}
		if o.transition(Idle, to) {
			return Idle, true
		}
	}
}

func (o *Orchestrator) rejectBusy(log *zap.Logger, state State) error {
	log.Info("workflow rejected", zap.String(logger.FieldState, state.String()))

	return &ConcurrencyError{State: state}
}

func (o *Orchestrator) setLastError(err error) {
	o.errMu.Lock()
	o.lastErr = err
	o.errMu.Unlock()
}
