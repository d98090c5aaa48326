package approval

import (
	"context"
	"strings"

	"walletconsole/internal/models"
)

// JoinCapNotes builds the decision reason from the verdict's cap notes,
// comma-and-space separated in their original order. An empty list yields
// an empty reason.
func JoinCapNotes(notes []string) string {
	return strings.Join(notes, ", ")
}

// recordApproval submits the decision for a verdict already known to be
// approved. It performs no idempotency check of its own; the controller
// guarantees at most one call per run.
func recordApproval(ctx context.Context, gw Gateway, suggestionID int64, v models.Verdict) (models.Decision, error) {
	return gw.CreateDecision(ctx, models.DecisionRequest{
		SuggestionID: suggestionID,
		Decision:     models.DecisionApproved,
		Reason:       JoinCapNotes(v.CapNotes),
	})
}
