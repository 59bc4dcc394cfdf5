package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askwhyharsh/deskfinder/internal/config"
	"github.com/askwhyharsh/deskfinder/internal/directions"
	"github.com/askwhyharsh/deskfinder/internal/directory"
	"github.com/askwhyharsh/deskfinder/internal/listing"
	"github.com/askwhyharsh/deskfinder/internal/location"
	"github.com/askwhyharsh/deskfinder/internal/ratelimit"
	"github.com/askwhyharsh/deskfinder/internal/session"
	"github.com/askwhyharsh/deskfinder/internal/storage"
	"github.com/askwhyharsh/deskfinder/pkg/logger"
	"github.com/askwhyharsh/deskfinder/pkg/validator"
)

const backendListings = `[
	{"id": 1, "name": "Delhi Hub", "latitude": 28.6139, "longitude": 77.2090, "price": 500, "opening_time": "08:00:00", "closing_time": "20:00:00", "food_availability": true, "address": "Connaught Place"},
	{"id": 2, "name": "Bandra Desk", "latitude": 19.0596, "longitude": 72.8295, "price": 1500, "opening_time": "09:00:00", "closing_time": "18:00:00", "food_availability": false, "address": "Bandra West"}
]`

func newBareClient(hub *Hub, sessionID string) *Client {
	return NewClient(hub, nil, sessionID, nil, logger.NewNop())
}

func clientFor(hub *Hub, sessionID string) (*Client, bool) {
	hub.mu.RLock()
	defer hub.mu.RUnlock()
	client, ok := hub.clients[sessionID]
	return client, ok
}

func clientCount(hub *Hub) int {
	return len(hub.SessionIDs())
}

func TestHubRegistry(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(logger.NewNop())
	go hub.Run(ctx)

	first := newBareClient(hub, "s1")
	hub.Register(first)
	hub.Register(newBareClient(hub, "s2"))

	require.Eventually(t, func() bool { return clientCount(hub) == 2 }, time.Second, 5*time.Millisecond)
	assert.ElementsMatch(t, []string{"s1", "s2"}, hub.SessionIDs())

	assert.True(t, first.enqueue(NewPongMessage()))
	msg := <-first.send
	assert.Equal(t, MessageTypePong, msg.Type)

	replacement := newBareClient(hub, "s1")
	hub.Register(replacement)
	require.Eventually(t, func() bool {
		c, ok := clientFor(hub, "s1")
		return ok && c == replacement
	}, time.Second, 5*time.Millisecond)
	_, open := <-first.send
	assert.False(t, open, "replaced client must be closed")

	hub.Unregister(first)
	_, ok := clientFor(hub, "s1")
	assert.True(t, ok, "stale unregister must not drop the replacement")

	hub.Disconnect("s2")
	assert.Equal(t, 1, clientCount(hub))
	_, ok = clientFor(hub, "s2")
	assert.False(t, ok)
}

func TestHubShutdownClosesClients(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(logger.NewNop())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	client := newBareClient(hub, "s1")
	hub.Register(client)
	require.Eventually(t, func() bool { return clientCount(hub) == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	<-stopped

	_, open := <-client.send
	assert.False(t, open)
	assert.Equal(t, 0, clientCount(hub))

	late := newBareClient(hub, "s2")
	hub.Register(late)
	assert.False(t, late.enqueue(NewPongMessage()))
}

func TestClientEnqueueAfterClose(t *testing.T) {
	client := newBareClient(NewHub(logger.NewNop()), "s1")
	assert.True(t, client.enqueue(NewPongMessage()))
	client.close()
	client.close()
	assert.False(t, client.enqueue(NewPongMessage()))
}

type wsFixture struct {
	server    *httptest.Server
	sessions  *session.Service
	sessionID string
}

func newWSFixture(t *testing.T) *wsFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	client, err := storage.Connect(&redis.Options{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/search":
			_, _ = w.Write([]byte(`[]`))
		case "/maps/api/directions/json":
			_, _ = w.Write([]byte(`{"status": "ZERO_RESULTS", "routes": []}`))
		default:
			_, _ = w.Write([]byte(backendListings))
		}
	}))
	t.Cleanup(backend.Close)

	log := logger.NewNop()
	val := validator.NewValidator()
	sessions := session.NewService(client, 30*time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := NewHub(log)
	go hub.Run(ctx)

	manager := session.NewManager(sessions, hub, log, time.Minute)
	fetcher := listing.NewClient(backend.URL, time.Second, log)
	viewer := directions.NewViewer(
		directions.NewGoogleClient(backend.URL, "key", "driving", 100, time.Second, log),
		nil, val, log,
	)
	controller := directory.NewController(sessions, fetcher, viewer, val, log, 3)
	limiter := ratelimit.NewLimiter(client, config.RateLimitConfig{
		RequestsPerMin: 100, SearchesPerMin: 100, DirectionsPerMin: 100, SessionsPerIPPerHour: 100,
	})

	handler := NewHandler(hub, manager, controller, limiter, log, []string{"*"})
	router := gin.New()
	router.GET("/ws", handler.HandleWebSocket)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	created, err := sessions.Create(context.Background(), "10.0.0.1")
	require.NoError(t, err)

	return &wsFixture{server: server, sessions: sessions, sessionID: created.ID}
}

func (f *wsFixture) dial(t *testing.T, sessionID string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/ws?session_id=" + sessionID
	return websocket.DefaultDialer.Dial(url, nil)
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestWebSocketRejectsUnknownSession(t *testing.T) {
	f := newWSFixture(t)

	_, resp, err := f.dial(t, "6b0b3f8e-7f5e-4c39-9d7a-2a4a8f0f6c11")
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestWebSocketFlow(t *testing.T) {
	f := newWSFixture(t)

	conn, _, err := f.dial(t, f.sessionID)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(IncomingMessage{Type: MessageTypePing}))
	assert.Equal(t, MessageTypePong, readMessage(t, conn).Type)

	require.NoError(t, conn.WriteJSON(IncomingMessage{
		Type:   MessageTypeLocate,
		Report: &location.Report{Status: location.StatusUnsupported},
	}))
	alert := readMessage(t, conn)
	assert.Equal(t, MessageTypeAlert, alert.Type)
	assert.Equal(t, "Geolocation is not supported by this browser.", alert.Content)

	rendered := readMessage(t, conn)
	assert.Equal(t, MessageTypeRender, rendered.Type)
	assert.Equal(t, directory.SourceAll, rendered.Source)
	require.NotNil(t, rendered.View)
	assert.Len(t, rendered.View.Cards, 2)

	require.NoError(t, conn.WriteJSON(map[string]any{
		"type":   MessageTypeFilter,
		"filter": map[string]string{"price": "1000"},
	}))
	filtered := readMessage(t, conn)
	assert.Equal(t, directory.SourceFilter, filtered.Source)
	require.Len(t, filtered.View.Cards, 1)
	assert.Equal(t, "Delhi Hub", filtered.View.Cards[0].Name)

	require.NoError(t, conn.WriteJSON(IncomingMessage{Type: MessageTypeSearch, Query: "zzz"}))
	searched := readMessage(t, conn)
	assert.Equal(t, directory.SourceSearch, searched.Source)
	assert.True(t, searched.View.Empty)

	origin := location.Point{Latitude: 28.6315, Longitude: 77.2167}
	require.NoError(t, conn.WriteJSON(IncomingMessage{
		Type:        MessageTypeDirections,
		Destination: &location.Point{Latitude: 28.4950, Longitude: 77.0895},
		Origin:      &origin,
	}))
	failed := readMessage(t, conn)
	assert.Equal(t, MessageTypeAlert, failed.Type)
	assert.Equal(t, "Directions request failed due to ZERO_RESULTS", failed.Content)

	require.NoError(t, conn.WriteJSON(IncomingMessage{Type: "chat_message"}))
	unknown := readMessage(t, conn)
	assert.Equal(t, MessageTypeError, unknown.Type)
	assert.Equal(t, "INVALID_MESSAGE_TYPE", unknown.ErrorCode)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	assert.Equal(t, "INVALID_FORMAT", readMessage(t, conn).ErrorCode)
}
