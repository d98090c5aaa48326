package service

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"walletconsole/internal/models"
	"walletconsole/internal/stream"
)

type SuggestionLister interface {
	ListSuggestions(ctx context.Context, limit int) ([]models.Suggestion, error)
}

type Publisher interface {
	Publish(eventType string, data any)
}

// Feed polls the backend's suggestion list and pushes suggestions the
// console has not seen before to the event hub, so open dashboards refresh
// without manual reloads. It is read-only and never touches the approval
// workflow.
type Feed struct {
	Wallet   SuggestionLister
	Hub      Publisher
	Logger   *zap.Logger
	PageSize int

	mu       sync.Mutex
	primed   bool
	lastSeen int64
}

// Poll fetches the latest page and publishes anything newer than the high
// water mark. The first successful poll only sets the baseline, so a
// restart does not replay the whole backlog to connected clients.
func (f *Feed) Poll(ctx context.Context) error {
	limit := f.PageSize
	if limit <= 0 {
		limit = 50
	}
	items, err := f.Wallet.ListSuggestions(ctx, limit)
	if err != nil {
		if f.Logger != nil {
			f.Logger.Warn("suggestion poll failed", zap.Error(err))
		}
		return err
	}

	f.mu.Lock()
	fresh := make([]models.Suggestion, 0, len(items))
	maxID := f.lastSeen
	for _, s := range items {
		if s.ID > f.lastSeen {
			fresh = append(fresh, s)
		}
		if s.ID > maxID {
			maxID = s.ID
		}
	}
	first := !f.primed
	f.primed = true
	f.lastSeen = maxID
	f.mu.Unlock()

	if first || len(fresh) == 0 {
		return nil
	}
	if f.Logger != nil {
		f.Logger.Info("new suggestions", zap.Int("count", len(fresh)))
	}
	if f.Hub != nil {
		f.Hub.Publish(stream.EventSuggestions, fresh)
	}
	return nil
}
