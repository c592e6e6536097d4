package kafka

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"

	id "subvene/pkg/domain"
	"subvene/pkg/platform/audit"
)

func TestRecordKeyedBySubsidy(t *testing.T) {
	sink := &Sink{topic: "subvene.trail"}
	subsidyID := id.NewSubsidyID()
	event := audit.Event{
		Category:       audit.CategoryCompliance,
		Timestamp:      time.Now(),
		Action:         audit.ActionMilestoneReleased,
		SubsidyID:      subsidyID,
		MilestoneIndex: 1,
		TxHash:         "0xbeef",
		ActorRole:      "auditor",
	}

	record, err := sink.record(event)
	require.NoError(t, err)
	assert.Equal(t, "subvene.trail", record.Topic)
	assert.Equal(t, subsidyID.String(), string(record.Key),
		"all events for one subsidy must land on one partition")

	var decoded audit.Event
	require.NoError(t, json.Unmarshal(record.Value, &decoded))
	assert.Equal(t, audit.ActionMilestoneReleased, decoded.Action)
	assert.Equal(t, subsidyID, decoded.SubsidyID)
	assert.Equal(t, "0xbeef", decoded.TxHash)
}

func TestTopicCreateErr(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		assert.NoError(t, topicCreateErr(kadm.CreateTopicResponse{Topic: "subvene.trail"}))
	})

	t.Run("already exists is tolerated", func(t *testing.T) {
		assert.NoError(t, topicCreateErr(kadm.CreateTopicResponse{
			Topic: "subvene.trail",
			Err:   kerr.TopicAlreadyExists,
		}))
	})

	t.Run("other broker errors surface", func(t *testing.T) {
		err := topicCreateErr(kadm.CreateTopicResponse{
			Topic: "subvene.trail",
			Err:   kerr.TopicAuthorizationFailed,
		})
		require.Error(t, err)
		assert.True(t, errors.Is(err, kerr.TopicAuthorizationFailed))
	})
}
