package realtime

import (
	"testing"

	"github.com/intakt/hunter/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lead(placeID string) models.Lead {
	title := "Lead " + placeID
	return models.Lead{PlaceID: placeID, Title: &title}
}

func TestHubScopesByUser(t *testing.T) {
	hub := NewHub()

	mine := hub.Subscribe("user-1")
	theirs := hub.Subscribe("user-2")
	defer mine.Close()
	defer theirs.Close()

	hub.Publish("user-1", NewChange(ChangeInsert, lead("a")))

	change := <-mine.C
	assert.Equal(t, ChangeInsert, change.Type)
	assert.Equal(t, "a", change.Row.PlaceID)

	select {
	case <-theirs.C:
		t.Fatal("event leaked across users")
	default:
	}
}

func TestHubDeliversInPublishOrder(t *testing.T) {
	hub := NewHub()
	sub := hub.Subscribe("user-1")
	defer sub.Close()

	hub.Publish("user-1", NewChange(ChangeInsert, lead("a")))
	hub.Publish("user-1", NewChange(ChangeUpdate, lead("a")))
	hub.Publish("user-1", NewChange(ChangeDelete, lead("a")))

	assert.Equal(t, ChangeInsert, (<-sub.C).Type)
	assert.Equal(t, ChangeUpdate, (<-sub.C).Type)
	assert.Equal(t, ChangeDelete, (<-sub.C).Type)
}

func TestHubDropsWhenBufferFull(t *testing.T) {
	hub := NewHub()
	sub := hub.Subscribe("user-1")
	defer sub.Close()

	for i := 0; i < subscriptionBuffer+5; i++ {
		hub.Publish("user-1", NewChange(ChangeInsert, lead("a")))
	}

	metrics := hub.GetMetrics()
	assert.Equal(t, int64(subscriptionBuffer), metrics.EventsPublished)
	assert.Equal(t, int64(5), metrics.EventsDropped)
}

func TestSubscriptionCloseIsIdempotent(t *testing.T) {
	hub := NewHub()
	sub := hub.Subscribe("user-1")

	sub.Close()
	sub.Close()

	assert.Equal(t, 0, hub.SubscriberCount("user-1"))
	assert.Equal(t, int64(0), hub.GetMetrics().ActiveSubscriptions)
}

func TestShutdownClosesSubscribers(t *testing.T) {
	hub := NewHub()
	sub := hub.Subscribe("user-1")
	hub.Subscribe("user-2")

	hub.Shutdown()

	_, open := <-sub.C
	assert.False(t, open)
	assert.Equal(t, int64(0), hub.GetMetrics().ActiveSubscriptions)

	// New subscriptions on a closed hub come back pre-closed.
	late := hub.Subscribe("user-1")
	_, open = <-late.C
	assert.False(t, open)
}

func TestPublishAfterShutdownIsNoOp(t *testing.T) {
	hub := NewHub()
	hub.Shutdown()

	require.NotPanics(t, func() {
		hub.Publish("user-1", NewChange(ChangeInsert, lead("a")))
	})
}
