package worker

import (
	"context"

	audit "reliefledger/pkg/platform/audit"
)

// Worker drains audit events from a channel into a store. It stops when the
// context is cancelled or the inbox is closed.
type Worker struct {
	store   audit.Store
	inbox   <-chan audit.Event
	onError func(audit.Event, error)
}

// Option configures a Worker.
type Option func(*Worker)

// WithErrorHandler keeps the worker running after a failed Append and reports
// the failure to fn. Without it the first failure stops Run.
func WithErrorHandler(fn func(audit.Event, error)) Option {
	return func(w *Worker) {
		w.onError = fn
	}
}

func NewWorker(store audit.Store, inbox <-chan audit.Event, opts ...Option) *Worker {
	w := &Worker{store: store, inbox: inbox}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.inbox:
			if !ok {
				return nil
			}
			if err := w.store.Append(ctx, event); err != nil {
				if w.onError == nil {
					return err
				}
				w.onError(event, err)
			}
		}
	}
}
