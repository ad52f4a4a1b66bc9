package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	scanDomain "github.com/clearpath-sec/cloudscan/internal/scan/domain"
)

func TestPublishScanUpdate_EnvelopeShape(t *testing.T) {
	h := NewHub()

	startedAt := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)
	h.PublishScanUpdate("user-1", &scanDomain.Scan{
		ID:        42,
		UserID:    "user-1",
		Provider:  "aws",
		Tool:      scanDomain.ToolProwler,
		Target:    "123456789012",
		Status:    scanDomain.StatusInProgress,
		StartedAt: &startedAt,
	}, "")

	var msg userMessage
	select {
	case msg = <-h.messages:
	default:
		t.Fatal("expected a queued message")
	}

	assert.Equal(t, "user-1", msg.userID)

	var event struct {
		Type    string     `json:"type"`
		Payload ScanUpdate `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(msg.data, &event))

	assert.Equal(t, EventTypeScanUpdate, event.Type)
	assert.Equal(t, int64(42), event.Payload.ID)
	assert.Equal(t, scanDomain.StatusInProgress, event.Payload.Status)
	assert.Equal(t, scanDomain.ToolProwler, event.Payload.Tool)
	assert.Equal(t, "aws", event.Payload.Provider)
	assert.Equal(t, "123456789012", event.Payload.Target)
	require.NotNil(t, event.Payload.StartedAt)
	assert.True(t, event.Payload.StartedAt.Equal(startedAt))
}

func TestPublishScanUpdate_OmitsEmptyFields(t *testing.T) {
	h := NewHub()

	h.PublishScanUpdate("user-1", &scanDomain.Scan{
		ID:     42,
		Status: scanDomain.StatusQueued,
		Tool:   scanDomain.ToolProwler,
	}, "")

	msg := <-h.messages

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(msg.data, &raw))

	var payload map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw["payload"], &payload))

	assert.NotContains(t, payload, "errorMessage")
	assert.NotContains(t, payload, "startedAt")
	assert.NotContains(t, payload, "completedAt")
	assert.NotContains(t, payload, "message")
	assert.NotContains(t, payload, "target")
}

func TestPublishScanUpdate_DropsWhenBacklogFull(t *testing.T) {
	h := NewHub()

	s := &scanDomain.Scan{ID: 1, Status: scanDomain.StatusQueued, Tool: scanDomain.ToolProwler}
	for i := 0; i < cap(h.messages); i++ {
		h.PublishScanUpdate("user-1", s, "")
	}

	// The hub is not running, so this publish finds a full backlog. It must
	// return instead of blocking.
	done := make(chan struct{})
	go func() {
		h.PublishScanUpdate("user-1", s, "")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full backlog")
	}

	assert.Len(t, h.messages, cap(h.messages))
}

func TestHub_StartAndStopAreIdempotent(t *testing.T) {
	h := NewHub()

	h.Start()
	h.Start()

	h.Stop()
	h.Stop()
}

func TestHub_DeliversOnlyToOwningUser(t *testing.T) {
	h := NewHub()
	h.Start()
	defer h.Stop()

	alice := &client{userID: "alice", send: make(chan []byte, sendBufferSize)}
	bob := &client{userID: "bob", send: make(chan []byte, sendBufferSize)}
	h.register <- alice
	h.register <- bob

	h.PublishScanUpdate("alice", &scanDomain.Scan{
		ID:     42,
		Status: scanDomain.StatusCompleted,
		Tool:   scanDomain.ToolProwler,
	}, "Scan completed successfully!")

	select {
	case data := <-alice.send:
		var event Event
		require.NoError(t, json.Unmarshal(data, &event))
		assert.Equal(t, EventTypeScanUpdate, event.Type)
	case <-time.After(time.Second):
		t.Fatal("expected an event for alice")
	}

	select {
	case <-bob.send:
		t.Fatal("bob received an event addressed to alice")
	case <-time.After(50 * time.Millisecond):
	}
}
