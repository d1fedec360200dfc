package hub

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"grisera/internal/domain"
	"grisera/internal/logging"
	"grisera/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// readEvent returns the event and data lines of the next SSE message,
// skipping comments
func readEvent(t *testing.T, r *bufio.Reader) (string, string) {
	t.Helper()
	var event, data string
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		switch {
		case line == "" && data != "":
			return event, data
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		}
	}
}

func connect(t *testing.T, h *Hub) *bufio.Reader {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	r := bufio.NewReader(resp.Body)
	line, err := r.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, ": connected\n", line)
	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, time.Second, 10*time.Millisecond)
	return r
}

func TestBroadcast(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := New(logging.Discard())
	go h.Run(ctx)

	r := connect(t, h)
	h.Broadcast(service.Event{
		Type:    service.EventEntityCreated,
		Payload: service.EntityChange{Collection: domain.Channels, ID: "1"},
	})

	event, data := readEvent(t, r)
	assert.Equal(t, "entity_created", event)
	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(data), &got))
	assert.Equal(t, "entity_created", got["type"])
	assert.Equal(t, map[string]any{"collection": "channels", "id": "1"}, got["payload"])
}

func TestFollowForwardsBusEvents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := New(logging.Discard())
	bus := service.NewEventBus()
	go h.Run(ctx)
	go h.Follow(ctx, bus)

	r := connect(t, h)
	// Follow subscribes asynchronously; publish until the event arrives
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		ticker := time.NewTicker(20 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				bus.Publish(service.Event{Type: service.EventEntityDeleted})
			}
		}
	}()

	event, _ := readEvent(t, r)
	assert.Equal(t, "entity_deleted", event)
}

func TestRunDisconnectsClientsOnShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	h := New(logging.Discard())
	done := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(done)
	}()

	r := connect(t, h)
	cancel()
	<-done
	assert.Zero(t, h.ClientCount())

	_, err := r.ReadString('\n')
	assert.Error(t, err)
}
