package approval

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"walletconsole/internal/models"
	"walletconsole/internal/walletapi"
)

type fakeGateway struct {
	mu       sync.Mutex
	evalReqs []models.EvaluationRequest
	decReqs  []models.DecisionRequest

	verdict models.Verdict
	evalErr error

	decision models.Decision
	decErr   error

	// When set, Evaluate signals evalStarted and blocks until evalRelease
	// is closed. Used to hold a run in the evaluating state.
	evalStarted chan struct{}
	evalRelease chan struct{}
}

func (g *fakeGateway) Evaluate(ctx context.Context, req models.EvaluationRequest) (models.Verdict, error) {
	g.mu.Lock()
	g.evalReqs = append(g.evalReqs, req)
	started := g.evalStarted
	release := g.evalRelease
	g.mu.Unlock()
	if started != nil {
		started <- struct{}{}
	}
	if release != nil {
		<-release
	}
	if g.evalErr != nil {
		return models.Verdict{}, g.evalErr
	}
	return g.verdict, nil
}

func (g *fakeGateway) CreateDecision(ctx context.Context, req models.DecisionRequest) (models.Decision, error) {
	g.mu.Lock()
	g.decReqs = append(g.decReqs, req)
	g.mu.Unlock()
	if g.decErr != nil {
		return models.Decision{}, g.decErr
	}
	return g.decision, nil
}

func (g *fakeGateway) evalCalls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.evalReqs)
}

func (g *fakeGateway) decCalls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.decReqs)
}

func newController(gw Gateway) *Controller {
	return &Controller{
		Gateway:  gw,
		Defaults: testDefaults(),
	}
}

func openSuggestion(t *testing.T, c *Controller) models.Suggestion {
	t.Helper()
	amount := decimal.NewFromInt(500)
	sug := models.Suggestion{
		ID:        1,
		Rule:      "dca_weekly",
		AssetFrom: strPtr("USDC"),
		AssetTo:   strPtr("ETH"),
		AmountUSD: &amount,
	}
	snap := c.Open(sug)
	if snap.State != StateIdle {
		t.Fatalf("state after open=%s want idle", snap.State)
	}
	return sug
}

func TestEvaluate_ApprovedPathRecordsOnce(t *testing.T) {
	gw := &fakeGateway{
		verdict: models.Verdict{
			Status:          models.VerdictApproved,
			CapNotes:        []string{"within daily cap"},
			CappedAmountUSD: decimal.NewFromInt(500),
		},
		decision: models.Decision{ID: 11, SuggestionID: 1, Decision: models.DecisionApproved},
	}
	c := newController(gw)

	var recorded []models.Decision
	c.OnRecorded = func(d models.Decision) { recorded = append(recorded, d) }

	openSuggestion(t, c)
	snap, err := c.Evaluate(context.Background(), 1, Params{})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if snap.State != StateRecorded {
		t.Fatalf("state=%s want recorded", snap.State)
	}
	if gw.evalCalls() != 1 || gw.decCalls() != 1 {
		t.Fatalf("calls eval=%d dec=%d want 1/1", gw.evalCalls(), gw.decCalls())
	}
	dec := gw.decReqs[0]
	if dec.SuggestionID != 1 || dec.Decision != models.DecisionApproved || dec.Reason != "within daily cap" {
		t.Fatalf("decision request=%+v", dec)
	}
	if snap.Decision == nil || snap.Decision.ID != 11 {
		t.Fatalf("snapshot decision=%+v", snap.Decision)
	}
	if len(recorded) != 1 {
		t.Fatalf("OnRecorded fired %d times want 1", len(recorded))
	}
}

func TestEvaluate_RejectedPathNeverRecords(t *testing.T) {
	gw := &fakeGateway{
		verdict: models.Verdict{
			Status:     "rejected",
			Violations: []string{"exceeds daily cap"},
		},
	}
	c := newController(gw)
	openSuggestion(t, c)

	snap, err := c.Evaluate(context.Background(), 1, Params{})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if snap.State != StateEvaluated {
		t.Fatalf("state=%s want evaluated", snap.State)
	}
	if gw.decCalls() != 0 {
		t.Fatalf("decision calls=%d want 0", gw.decCalls())
	}
	if snap.Verdict == nil || len(snap.Verdict.Violations) != 1 {
		t.Fatalf("violations not surfaced: %+v", snap.Verdict)
	}
}

func TestEvaluate_UnknownStatusTreatedAsNotApproved(t *testing.T) {
	gw := &fakeGateway{verdict: models.Verdict{Status: "deferred"}}
	c := newController(gw)
	openSuggestion(t, c)

	snap, _ := c.Evaluate(context.Background(), 1, Params{})
	if snap.State != StateEvaluated {
		t.Fatalf("state=%s want evaluated", snap.State)
	}
	if gw.decCalls() != 0 {
		t.Fatalf("decision calls=%d want 0", gw.decCalls())
	}
}

func TestEvaluate_EvaluationFailure(t *testing.T) {
	gw := &fakeGateway{
		evalErr: &walletapi.RequestError{Op: "POST /v1/approvals/evaluate", Err: errors.New("timeout")},
	}
	c := newController(gw)
	openSuggestion(t, c)

	snap, err := c.Evaluate(context.Background(), 1, Params{})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if snap.State != StateFailed || snap.FailedStep != StepEvaluate {
		t.Fatalf("state=%s step=%s want failed/evaluate", snap.State, snap.FailedStep)
	}
	if snap.Verdict != nil {
		t.Fatalf("verdict should be empty after evaluation failure")
	}
	if gw.decCalls() != 0 {
		t.Fatalf("decision calls=%d want 0", gw.decCalls())
	}
}

func TestEvaluate_RecordingFailureKeepsVerdictAndAllowsRetry(t *testing.T) {
	gw := &fakeGateway{
		verdict: models.Verdict{
			Status:   models.VerdictApproved,
			CapNotes: []string{"within daily cap"},
		},
		decErr: &walletapi.StatusError{Op: "POST /v1/decisions", Code: 503, Body: "unavailable"},
	}
	c := newController(gw)
	var recorded int
	c.OnRecorded = func(models.Decision) { recorded++ }
	openSuggestion(t, c)

	snap, err := c.Evaluate(context.Background(), 1, Params{})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if snap.State != StateFailed || snap.FailedStep != StepRecord {
		t.Fatalf("state=%s step=%s want failed/record", snap.State, snap.FailedStep)
	}
	if snap.Verdict == nil || snap.Verdict.Status != models.VerdictApproved {
		t.Fatalf("approved verdict must stay visible after recording failure: %+v", snap.Verdict)
	}
	if snap.Error == "" {
		t.Fatalf("recording error must be surfaced")
	}
	if recorded != 0 {
		t.Fatalf("OnRecorded fired after failed recording")
	}

	// Retry starts a fresh run from idle and succeeds.
	firstRunID := snap.RunID
	gw.decErr = nil
	gw.decision = models.Decision{ID: 12, SuggestionID: 1, Decision: models.DecisionApproved}
	snap, err = c.Evaluate(context.Background(), 1, Params{})
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if snap.State != StateRecorded {
		t.Fatalf("retry state=%s want recorded", snap.State)
	}
	if snap.RunID == firstRunID {
		t.Fatalf("retry must be a fresh run instance")
	}
	if gw.evalCalls() != 2 || gw.decCalls() != 2 {
		t.Fatalf("calls eval=%d dec=%d want 2/2", gw.evalCalls(), gw.decCalls())
	}
	if recorded != 1 {
		t.Fatalf("OnRecorded fired %d times want 1", recorded)
	}
}

func TestEvaluate_ReentrancyGuard(t *testing.T) {
	gw := &fakeGateway{
		verdict:     models.Verdict{Status: "rejected"},
		evalStarted: make(chan struct{}),
		evalRelease: make(chan struct{}),
	}
	c := newController(gw)
	openSuggestion(t, c)

	done := make(chan Snapshot, 1)
	go func() {
		snap, _ := c.Evaluate(context.Background(), 1, Params{})
		done <- snap
	}()
	<-gw.evalStarted

	_, err := c.Evaluate(context.Background(), 1, Params{})
	if !errors.Is(err, ErrEvaluationInFlight) {
		t.Fatalf("err=%v want ErrEvaluationInFlight", err)
	}
	close(gw.evalRelease)

	select {
	case snap := <-done:
		if snap.State != StateEvaluated {
			t.Fatalf("state=%s want evaluated", snap.State)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("first evaluation did not finish")
	}
	if gw.evalCalls() != 1 {
		t.Fatalf("eval calls=%d want 1 (re-entrant trigger must not hit the network)", gw.evalCalls())
	}
}

func TestEvaluate_CloseDiscardsInFlightResponse(t *testing.T) {
	gw := &fakeGateway{
		verdict: models.Verdict{
			Status:   models.VerdictApproved,
			CapNotes: []string{"within daily cap"},
		},
		evalStarted: make(chan struct{}),
		evalRelease: make(chan struct{}),
	}
	c := newController(gw)
	var recorded int
	c.OnRecorded = func(models.Decision) { recorded++ }
	openSuggestion(t, c)

	errCh := make(chan error, 1)
	go func() {
		_, err := c.Evaluate(context.Background(), 1, Params{})
		errCh <- err
	}()
	<-gw.evalStarted
	c.Close(1)
	close(gw.evalRelease)

	select {
	case err := <-errCh:
		if !errors.Is(err, ErrRunClosed) {
			t.Fatalf("err=%v want ErrRunClosed", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("evaluation did not finish")
	}
	// The approved verdict arrived after dismissal: nothing may be recorded.
	if gw.decCalls() != 0 || recorded != 0 {
		t.Fatalf("dec calls=%d recorded=%d want 0/0", gw.decCalls(), recorded)
	}
	if _, ok := c.Get(1); ok {
		t.Fatalf("closed run still visible")
	}
}

func TestEvaluate_NoOpenRun(t *testing.T) {
	c := newController(&fakeGateway{})
	if _, err := c.Evaluate(context.Background(), 99, Params{}); !errors.Is(err, ErrNoRun) {
		t.Fatalf("err=%v want ErrNoRun", err)
	}
}

func TestRunsForDifferentSuggestionsAreIndependent(t *testing.T) {
	gw := &fakeGateway{verdict: models.Verdict{Status: "rejected"}}
	c := newController(gw)

	a := decimal.NewFromInt(100)
	c.Open(models.Suggestion{ID: 1, Rule: "a", AmountUSD: &a})
	c.Open(models.Suggestion{ID: 2, Rule: "b"})

	if snap, _ := c.Evaluate(context.Background(), 1, Params{}); snap.State != StateEvaluated {
		t.Fatalf("run 1 state=%s want evaluated", snap.State)
	}
	snap, ok := c.Get(2)
	if !ok || snap.State != StateIdle {
		t.Fatalf("run 2 state=%+v want untouched idle", snap)
	}
}

func TestEvaluate_RequestUsesSuggestionAndDefaults(t *testing.T) {
	gw := &fakeGateway{verdict: models.Verdict{Status: "rejected"}}
	c := newController(gw)
	c.Open(models.Suggestion{ID: 5, Rule: "rotate"})

	if _, err := c.Evaluate(context.Background(), 5, Params{}); err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	req := gw.evalReqs[0]
	if req.AssetFrom != "USDC" || req.AssetTo != "ETH" {
		t.Fatalf("assets=%s->%s want USDC->ETH fallbacks", req.AssetFrom, req.AssetTo)
	}
	if !req.SuggestedAmountUSD.IsZero() {
		t.Fatalf("amount=%s want 0 for missing amount", req.SuggestedAmountUSD.String())
	}
	if req.SlippageBps != 50 || req.GasEstimateUSD.Cmp(decimal.NewFromInt(1)) != 0 {
		t.Fatalf("defaults not applied: %+v", req)
	}
}
