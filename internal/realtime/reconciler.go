package realtime

import (
	"context"
	"fmt"

	"github.com/intakt/hunter/backend/internal/leads"
	"github.com/intakt/hunter/backend/internal/logger"
	"github.com/intakt/hunter/backend/internal/models"
	"go.uber.org/zap"
)

// Fetcher re-runs the page query for the reconciler.
type Fetcher func(ctx context.Context, params leads.ListParams) (*leads.Result, error)

// Notifier surfaces a non-blocking notification for inserts and deletes.
// change names the event; title is the affected lead's display name.
type Notifier func(change ChangeType, title string)

// PageReconciler keeps one loaded page of leads consistent with the change
// feed without disturbing the current ordering:
//
//   - INSERT and DELETE re-run the query (new or removed rows can shift both
//     pagination and sort) and emit a notification naming the lead.
//   - UPDATE merges the changed row into the matching in-memory row by place
//     id, keeping its position. Sort-key updates therefore leave a row
//     "out of place" until the next refetch; that trade of strict ordering
//     for UI stability is deliberate.
//   - An UPDATE for a lead not on the page is a no-op.
//
// Events must be applied in receipt order; Run does this on a single
// goroutine. All methods are safe after Close.
type PageReconciler struct {
	fetch  Fetcher
	notify Notifier

	params leads.ListParams
	result *leads.Result
	closed bool

	refetches int
}

// NewPageReconciler creates a reconciler for one query. notify may be nil.
func NewPageReconciler(fetch Fetcher, notify Notifier, params leads.ListParams) *PageReconciler {
	return &PageReconciler{
		fetch:  fetch,
		notify: notify,
		params: params,
	}
}

// Load runs the initial fetch.
func (r *PageReconciler) Load(ctx context.Context) error {
	if r.closed {
		return nil
	}
	res, err := r.fetch(ctx, r.params)
	if err != nil {
		return fmt.Errorf("initial fetch failed: %w", err)
	}
	r.result = res
	return nil
}

// SetParams replaces the query and refetches (filter or page change).
func (r *PageReconciler) SetParams(ctx context.Context, params leads.ListParams) error {
	if r.closed {
		return nil
	}
	r.params = params
	return r.Load(ctx)
}

// Apply folds one change event into the page.
func (r *PageReconciler) Apply(ctx context.Context, change LeadChange) error {
	if r.closed {
		return nil
	}

	switch change.Type {
	case ChangeInsert, ChangeDelete:
		res, err := r.fetch(ctx, r.params)
		if err != nil {
			// Keep the stale page; the next event or manual reload retries.
			return fmt.Errorf("refetch after %s failed: %w", change.Type, err)
		}
		r.result = res
		r.refetches++
		if r.notify != nil {
			r.notify(change.Type, change.Row.DisplayName())
		}

	case ChangeUpdate:
		r.mergeUpdate(change.Row)

	default:
		logger.Log.Warn("unknown change type ignored", zap.String("type", string(change.Type)))
	}

	return nil
}

// mergeUpdate overwrites the matching row in place. Two updates for the same
// lead apply in receipt order, so the merged fields are last-write-wins.
func (r *PageReconciler) mergeUpdate(row models.Lead) {
	if r.result == nil {
		return
	}
	for i := range r.result.Rows {
		if r.result.Rows[i].PlaceID == row.PlaceID {
			row.NormalizeContacted()
			r.result.Rows[i] = row
			return
		}
	}
	// Lead not on the loaded page: nothing to do.
}

// Rows returns the currently displayed rows.
func (r *PageReconciler) Rows() []models.Lead {
	if r.result == nil {
		return nil
	}
	return r.result.Rows
}

// Result returns the full pagination state.
func (r *PageReconciler) Result() *leads.Result {
	return r.result
}

// Refetches reports how many change-triggered refetches have run.
func (r *PageReconciler) Refetches() int {
	return r.refetches
}

// Close stops the reconciler. Idempotent; Apply becomes a no-op.
func (r *PageReconciler) Close() {
	r.closed = true
}

// Run applies events from a subscription until the context ends or the
// subscription closes, preserving receipt order. The subscription is
// released on the way out.
func (r *PageReconciler) Run(ctx context.Context, sub *Subscription) {
	defer sub.Close()
	defer r.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case change, ok := <-sub.C:
			if !ok {
				return
			}
			if err := r.Apply(ctx, change); err != nil {
				logger.Log.Warn("change application failed", zap.Error(err))
			}
		}
	}
}
