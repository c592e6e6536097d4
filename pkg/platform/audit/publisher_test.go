package audit_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "subvene/pkg/domain"
	"subvene/pkg/platform/audit"
	auditmemory "subvene/pkg/platform/audit/store/memory"
)

func TestEmitStampsEvent(t *testing.T) {
	store := auditmemory.New()
	publisher := audit.NewPublisher(store)
	subsidyID := id.NewSubsidyID()

	err := publisher.Emit(context.Background(), audit.Event{
		Action:         audit.ActionMilestoneReleased,
		SubsidyID:      subsidyID,
		MilestoneIndex: 0,
		TxHash:         "0xbeef",
	})
	require.NoError(t, err)

	events, err := publisher.List(context.Background(), subsidyID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, audit.CategoryCompliance, events[0].Category)
	assert.False(t, events[0].Timestamp.IsZero())
	assert.WithinDuration(t, time.Now(), events[0].Timestamp, time.Minute)
}

func TestActionCategories(t *testing.T) {
	assert.Equal(t, audit.CategoryCompliance, audit.ActionEscrowDeployed.Category())
	assert.Equal(t, audit.CategoryCompliance, audit.ActionSubsidyRejected.Category())
	assert.Equal(t, audit.CategoryOperations, audit.ActionDivergenceDetected.Category())
	assert.Equal(t, audit.CategoryOperations, audit.Action("unknown_action").Category())
}

func TestEmitFansOutToOutbox(t *testing.T) {
	store := auditmemory.New()
	outbox := make(chan audit.Event, 1)
	publisher := audit.NewPublisher(store, audit.WithOutbox(outbox))

	err := publisher.Emit(context.Background(), audit.Event{
		Action:    audit.ActionEscrowDeployed,
		SubsidyID: id.NewSubsidyID(),
	})
	require.NoError(t, err)

	select {
	case event := <-outbox:
		assert.Equal(t, audit.ActionEscrowDeployed, event.Action)
	default:
		t.Fatal("expected event on outbox")
	}
}

func TestEmitNeverBlocksOnFullOutbox(t *testing.T) {
	store := auditmemory.New()
	outbox := make(chan audit.Event) // unbuffered, no reader
	publisher := audit.NewPublisher(store, audit.WithOutbox(outbox))
	subsidyID := id.NewSubsidyID()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 3; i++ {
			_ = publisher.Emit(context.Background(), audit.Event{
				Action:    audit.ActionDivergenceDetected,
				SubsidyID: subsidyID,
			})
		}
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("emit blocked on a full outbox")
	}

	// The store append still happened for every dropped fan-out.
	events, err := publisher.List(context.Background(), subsidyID)
	require.NoError(t, err)
	assert.Len(t, events, 3)
}

type failingStore struct{}

func (failingStore) Append(context.Context, audit.Event) error { return errors.New("disk full") }
func (failingStore) ListBySubsidy(context.Context, id.SubsidyID) ([]audit.Event, error) {
	return nil, nil
}

func TestEmitPropagatesStoreFailure(t *testing.T) {
	publisher := audit.NewPublisher(failingStore{})
	err := publisher.Emit(context.Background(), audit.Event{Action: audit.ActionEscrowDeployed})
	require.Error(t, err)
}
