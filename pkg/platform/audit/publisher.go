package audit

import (
	"context"
	"time"

	id "subvene/pkg/domain"
)

// Store is the persistence boundary for trail events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListBySubsidy(ctx context.Context, subsidyID id.SubsidyID) ([]Event, error)
}

// Publisher captures structured trail events. The store append is
// authoritative; the optional outbox feeds an async worker (e.g. the Kafka
// sink) and is never allowed to block or fail an emit.
type Publisher struct {
	store  Store
	outbox chan<- Event
}

type PublisherOption func(*Publisher)

// WithOutbox fans emitted events out to a worker channel.
func WithOutbox(outbox chan<- Event) PublisherOption {
	return func(p *Publisher) { p.outbox = outbox }
}

func NewPublisher(store Store, opts ...PublisherOption) *Publisher {
	p := &Publisher{store: store}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Emit stamps and appends an event. MilestoneIndex of -1 means the event
// concerns the whole subsidy rather than one milestone.
func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.Category == "" {
		event.Category = event.Action.Category()
	}
	if err := p.store.Append(ctx, event); err != nil {
		return err
	}
	if p.outbox != nil {
		select {
		case p.outbox <- event:
		default:
			// Outbox full: the local trail already has the event, the sink
			// catches up from the store if it ever needs to backfill.
		}
	}
	return nil
}

func (p *Publisher) List(ctx context.Context, subsidyID id.SubsidyID) ([]Event, error) {
	return p.store.ListBySubsidy(ctx, subsidyID)
}
