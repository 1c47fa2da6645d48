package stream

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"SignalForge/internal/domain/models"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_BroadcastsRecords(t *testing.T) {
	h := NewHub(nil)
	srv := httptest.NewServer(h)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return h.Clients() == 1 }, time.Second, 5*time.Millisecond)

	h.OnRecord(models.Record{
		ID:         "r1",
		EntityType: models.EntityPrediction,
		Symbol:     "BTC",
		Payload:    json.RawMessage(`{"recommendation":"buy"}`),
	})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev Event
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, "r1", ev.ID)
	assert.Equal(t, models.EntityPrediction, ev.EntityType)
	assert.JSONEq(t, `{"recommendation":"buy"}`, string(ev.Payload))
}

func TestHub_DropsSlowSubscriber(t *testing.T) {
	h := NewHub(nil, WithClientBuffer(1))
	c := &client{send: make(chan []byte, 1)}
	h.clients[c] = struct{}{}

	h.broadcast([]byte("a"))
	h.broadcast([]byte("b"))

	assert.Equal(t, 0, h.Clients())
}
