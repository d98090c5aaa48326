package approval

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"walletconsole/internal/models"
)

// State of one approval run.
type State string

const (
	StateIdle       State = "idle"
	StateEvaluating State = "evaluating"
	StateEvaluated  State = "evaluated"
	StateRecording  State = "recording"
	StateRecorded   State = "recorded"
	StateFailed     State = "failed"
)

// Step names the workflow step a failure happened in, so "evaluation
// failed" and "evaluation succeeded but recording failed" stay
// distinguishable.
type Step string

const (
	StepEvaluate Step = "evaluate"
	StepRecord   Step = "record"
)

var (
	ErrNoRun              = errors.New("no open approval run for suggestion")
	ErrRunClosed          = errors.New("approval run is closed")
	ErrEvaluationInFlight = errors.New("evaluation already in flight")
)

// Gateway is the slice of the backend client the workflow needs.
type Gateway interface {
	Evaluate(ctx context.Context, req models.EvaluationRequest) (models.Verdict, error)
	CreateDecision(ctx context.Context, req models.DecisionRequest) (models.Decision, error)
}

// Controller owns one workflow run per open suggestion and is the only
// place the approve rule lives: a decision is recorded if and only if the
// run's own most recent verdict has status "approved", and at most once per
// run. Runs for different suggestions are independent.
type Controller struct {
	Gateway  Gateway
	Defaults Defaults
	Logger   *zap.Logger

	// OnRecorded fires exactly once per successfully recorded decision,
	// outside the controller lock. The console uses it to push a refresh
	// event to dashboard clients.
	OnRecorded func(models.Decision)

	// OnTransition fires after every state change, outside the lock.
	OnTransition func(Snapshot)

	mu   sync.Mutex
	runs map[int64]*run
}

type run struct {
	id         string
	suggestion models.Suggestion
	state      State
	verdict    *models.Verdict
	decision   *models.Decision
	err        error
	failedStep Step
	closed     bool
}

// Snapshot is an immutable view of a run, safe to hand to handlers and the
// event stream.
type Snapshot struct {
	RunID        string           `json:"run_id"`
	SuggestionID int64            `json:"suggestion_id"`
	State        State            `json:"state"`
	Verdict      *models.Verdict  `json:"verdict,omitempty"`
	Decision     *models.Decision `json:"decision,omitempty"`
	Error        string           `json:"error,omitempty"`
	FailedStep   Step             `json:"failed_step,omitempty"`
}

func (r *run) snapshot() Snapshot {
	snap := Snapshot{
		RunID:        r.id,
		SuggestionID: r.suggestion.ID,
		State:        r.state,
		FailedStep:   r.failedStep,
	}
	if r.verdict != nil {
		v := *r.verdict
		snap.Verdict = &v
	}
	if r.decision != nil {
		d := *r.decision
		snap.Decision = &d
	}
	if r.err != nil {
		snap.Error = r.err.Error()
	}
	return snap
}

// Open starts a fresh idle run for the suggestion, replacing any previous
// run. A replaced run's in-flight responses are discarded when they arrive.
func (c *Controller) Open(s models.Suggestion) Snapshot {
	c.mu.Lock()
	if c.runs == nil {
		c.runs = map[int64]*run{}
	}
	r := &run{
		id:         uuid.NewString(),
		suggestion: s,
		state:      StateIdle,
	}
	c.runs[s.ID] = r
	snap := r.snapshot()
	c.mu.Unlock()
	return snap
}

// Get returns the current run snapshot for a suggestion, if one is open.
func (c *Controller) Get(suggestionID int64) (Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r := c.runs[suggestionID]
	if r == nil || r.closed {
		return Snapshot{}, false
	}
	return r.snapshot(), true
}

// Close dismisses the interaction. Responses still in flight for this run
// are dropped instead of being applied to the closed state.
func (c *Controller) Close(suggestionID int64) {
	c.mu.Lock()
	r := c.runs[suggestionID]
	if r != nil {
		r.closed = true
		delete(c.runs, suggestionID)
	}
	c.mu.Unlock()
}

// Evaluate drives one full workflow cycle: evaluating, then, only for an
// approved verdict, recording. It blocks until the run reaches a terminal
// state and returns its snapshot. Run-level failures (network, backend
// errors) land in the snapshot, not in the returned error; the error return
// is reserved for guard rejections.
func (c *Controller) Evaluate(ctx context.Context, suggestionID int64, p Params) (Snapshot, error) {
	c.mu.Lock()
	r := c.runs[suggestionID]
	if r == nil {
		c.mu.Unlock()
		return Snapshot{}, ErrNoRun
	}
	if r.closed {
		c.mu.Unlock()
		return Snapshot{}, ErrRunClosed
	}
	if r.state == StateEvaluating || r.state == StateRecording {
		snap := r.snapshot()
		c.mu.Unlock()
		return snap, ErrEvaluationInFlight
	}
	// A terminal run restarts as a fresh instance rather than being reused.
	runID := uuid.NewString()
	r.id = runID
	r.state = StateEvaluating
	r.verdict = nil
	r.decision = nil
	r.err = nil
	r.failedStep = ""
	req := BuildEvaluationRequest(r.suggestion, p, c.Defaults)
	snap := r.snapshot()
	c.mu.Unlock()
	c.notify(snap)

	verdict, err := c.Gateway.Evaluate(ctx, req)

	c.mu.Lock()
	if !c.currentLocked(suggestionID, runID) {
		c.mu.Unlock()
		return Snapshot{}, ErrRunClosed
	}
	if err != nil {
		r.state = StateFailed
		r.err = err
		r.failedStep = StepEvaluate
		snap = r.snapshot()
		c.mu.Unlock()
		c.warn("evaluation failed", suggestionID, err)
		c.notify(snap)
		return snap, nil
	}
	v := verdict
	r.verdict = &v
	if !verdict.Approved() {
		r.state = StateEvaluated
		snap = r.snapshot()
		c.mu.Unlock()
		c.notify(snap)
		return snap, nil
	}
	r.state = StateRecording
	snap = r.snapshot()
	c.mu.Unlock()
	c.notify(snap)

	dec, err := recordApproval(ctx, c.Gateway, suggestionID, verdict)

	c.mu.Lock()
	if !c.currentLocked(suggestionID, runID) {
		c.mu.Unlock()
		return Snapshot{}, ErrRunClosed
	}
	if err != nil {
		// The verdict stays visible so the user sees both the approved
		// evaluation and the recording failure.
		r.state = StateFailed
		r.err = err
		r.failedStep = StepRecord
		snap = r.snapshot()
		c.mu.Unlock()
		c.warn("decision recording failed", suggestionID, err)
		c.notify(snap)
		return snap, nil
	}
	d := dec
	r.state = StateRecorded
	r.decision = &d
	snap = r.snapshot()
	c.mu.Unlock()

	if c.Logger != nil {
		c.Logger.Info("decision recorded",
			zap.Int64("suggestion_id", suggestionID),
			zap.Int64("decision_id", dec.ID),
		)
	}
	c.notify(snap)
	if c.OnRecorded != nil {
		c.OnRecorded(dec)
	}
	return snap, nil
}

// currentLocked reports whether runID is still the live run for the
// suggestion. Callers hold c.mu.
func (c *Controller) currentLocked(suggestionID int64, runID string) bool {
	r := c.runs[suggestionID]
	return r != nil && !r.closed && r.id == runID
}

func (c *Controller) notify(snap Snapshot) {
	if c.OnTransition != nil {
		c.OnTransition(snap)
	}
}

func (c *Controller) warn(msg string, suggestionID int64, err error) {
	if c.Logger != nil {
		c.Logger.Warn(msg, zap.Int64("suggestion_id", suggestionID), zap.Error(err))
	}
}
