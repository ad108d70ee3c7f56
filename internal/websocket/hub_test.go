package websocket

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitchside/team-balancer/internal/types"
)

func testHubLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func TestBroadcastToRunDropsStalledClient(t *testing.T) {
	hub := NewHub(testHubLogger())
	go hub.Run()

	client := &Client{RunID: "run-1", Send: make(chan []byte, 1), Hub: hub}
	hub.register <- client
	require.Eventually(t, func() bool {
		return hub.GetConnectionCount() == 1
	}, time.Second, 10*time.Millisecond)

	update := types.ProgressUpdate{RunID: "run-1", Strategy: "exhaustive"}
	hub.BroadcastToRun("run-1", update) // fills the one-slot buffer
	hub.BroadcastToRun("run-1", update) // drops the stalled client

	// A dropped client must be gone from the run index as well, so further
	// broadcasts never touch its closed channel.
	require.NotPanics(t, func() {
		hub.BroadcastToRun("run-1", update)
	})
	assert.Equal(t, 0, hub.GetConnectionCount())

	hub.mutex.RLock()
	_, tracked := hub.runClients["run-1"]
	hub.mutex.RUnlock()
	assert.False(t, tracked, "dropped client still indexed by run")
}

func TestBroadcastToRunDeliversToHealthyClient(t *testing.T) {
	hub := NewHub(testHubLogger())
	go hub.Run()

	client := &Client{RunID: "run-2", Send: make(chan []byte, 8), Hub: hub}
	hub.register <- client
	require.Eventually(t, func() bool {
		return hub.GetConnectionCount() == 1
	}, time.Second, 10*time.Millisecond)

	hub.BroadcastToRun("run-2", types.ProgressUpdate{RunID: "run-2", Progress: 0.5})
	hub.BroadcastToRun("other-run", types.ProgressUpdate{RunID: "other-run"})

	select {
	case msg := <-client.Send:
		assert.Contains(t, string(msg), "run-2")
	case <-time.After(time.Second):
		t.Fatal("no message delivered")
	}
	assert.Empty(t, client.Send, "message for another run leaked through")
}
