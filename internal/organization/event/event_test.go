package event

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/taskflow/internal/clock"
	"github.com/smallbiznis/taskflow/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestPublishWritesOutboxRow(t *testing.T) {
	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&OutboxEvent{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	clk := clock.NewFakeClock(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))
	publisher := NewOutboxPublisher(conn, node, clk)

	require.NoError(t, publisher.Publish(context.Background(), 99, OrganizationCreatedTopic, map[string]string{"name": "Eng"}))

	events, err := Pending(context.Background(), conn, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, OrganizationCreatedTopic, events[0].EventType)
	assert.EqualValues(t, 99, events[0].OrgID)

	var payload map[string]string
	require.NoError(t, json.Unmarshal(events[0].Payload, &payload))
	assert.Equal(t, "Eng", payload["name"])
}

func TestPublishRollsBackWithTransaction(t *testing.T) {
	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&OutboxEvent{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	publisher := NewOutboxPublisher(conn, node, clock.New())

	boom := errors.New("boom")
	err = conn.Transaction(func(tx *gorm.DB) error {
		if err := publisher.WithTx(tx).Publish(context.Background(), 1, OrganizationDeletedTopic, nil); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	events, err := Pending(context.Background(), conn, 10)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestPublishRequiresOrganization(t *testing.T) {
	publisher := NewOutboxPublisher(nil, nil, clock.New())
	err := publisher.Publish(context.Background(), 0, OrganizationCreatedTopic, nil)
	assert.ErrorIs(t, err, ErrMissingOrganization)
}
