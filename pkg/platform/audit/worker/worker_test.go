package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"subvene/pkg/platform/audit"
	"subvene/pkg/testutil"
)

type recordingSink struct {
	mu     sync.Mutex
	events []audit.Event
	fail   bool
}

func (s *recordingSink) Publish(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("broker unavailable")
	}
	s.events = append(s.events, event)
	return nil
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func TestWorkerDrainsInbox(t *testing.T) {
	sink := &recordingSink{}
	inbox := make(chan audit.Event, 4)
	w := New(sink, inbox, testutil.Logger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	inbox <- audit.Event{Action: audit.ActionEscrowDeployed}
	inbox <- audit.Event{Action: audit.ActionMilestoneReleased}

	require.Eventually(t, func() bool { return sink.count() == 2 },
		time.Second, 10*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestWorkerDropsOnSinkFailure(t *testing.T) {
	sink := &recordingSink{fail: true}
	inbox := make(chan audit.Event, 4)
	w := New(sink, inbox, testutil.Logger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	inbox <- audit.Event{Action: audit.ActionDivergenceDetected}
	inbox <- audit.Event{Action: audit.ActionDivergenceRepaired}

	// Failures are logged and dropped; the worker keeps draining.
	require.Eventually(t, func() bool { return len(inbox) == 0 },
		time.Second, 10*time.Millisecond)

	cancel()
	<-done
	assert.Equal(t, 0, sink.count())
}
