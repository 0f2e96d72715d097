package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcourt/clutchtime/go/internal/conditions"
	"github.com/mcourt/clutchtime/go/internal/models"
	"github.com/mcourt/clutchtime/go/internal/orchestrator"
)

func wsMux(hub *Hub) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.HandleWS)
	return mux
}

func TestHubBroadcastsAlarms(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(wsMux(hub))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	alarm := orchestrator.Alarm{
		SessionID: 1,
		Game:      conditions.GameWithConditions{GameID: "0022500551", HomeTeamTricode: "BOS", AwayTeamTricode: "LAL"},
		Snapshot:  models.GameSnapshot{GameID: "0022500551", Status: models.GameStatusLive},
		FiredAt:   time.Date(2026, 1, 16, 2, 0, 0, 0, time.UTC),
	}
	require.NoError(t, hub.Notify(context.Background(), []orchestrator.Alarm{alarm}))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)

	var received orchestrator.Alarm
	require.NoError(t, json.Unmarshal(payload, &received))
	assert.Equal(t, "0022500551", received.Game.GameID)
	assert.Equal(t, int64(1), received.SessionID)
}

func TestHubDropsClosedClients(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(wsMux(hub))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 10*time.Millisecond)

	// Broadcasting to an empty hub is a no-op.
	require.NoError(t, hub.Notify(context.Background(), []orchestrator.Alarm{{SessionID: 2}}))
}
