package push

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gamenight/liveboard/go/internal/models"
)

func TestNextDelayGrowsExponentially(t *testing.T) {
	c := NewChannel(DefaultConfig("ws://unused"), func(models.PushEnvelope) {})

	// Jitter adds up to a quarter of the base delay, so each attempt
	// lands in a known band.
	cases := []struct {
		attempt  int
		min, max time.Duration
	}{
		{0, 1 * time.Second, 1250 * time.Millisecond},
		{1, 2 * time.Second, 2500 * time.Millisecond},
		{3, 8 * time.Second, 10 * time.Second},
		{4, 16 * time.Second, 20 * time.Second},
	}
	for _, tc := range cases {
		for i := 0; i < 50; i++ {
			d := c.nextDelay(tc.attempt)
			assert.GreaterOrEqual(t, d, tc.min, "attempt %d", tc.attempt)
			assert.LessOrEqual(t, d, tc.max, "attempt %d", tc.attempt)
		}
	}
}

func TestNextDelayCapped(t *testing.T) {
	c := NewChannel(DefaultConfig("ws://unused"), func(models.PushEnvelope) {})

	for i := 0; i < 50; i++ {
		assert.Equal(t, 30*time.Second, c.nextDelay(20), "waits never exceed the cap")
	}
}

// pushServer is a minimal websocket endpoint for channel tests
type pushServer struct {
	t        *testing.T
	srv      *httptest.Server
	upgrader websocket.Upgrader

	dials    atomic.Int32
	inbound  chan models.PushEnvelope
	sessions chan *websocket.Conn
}

func newPushServer(t *testing.T) *pushServer {
	ps := &pushServer{
		t:        t,
		inbound:  make(chan models.PushEnvelope, 16),
		sessions: make(chan *websocket.Conn, 16),
	}
	ps.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := ps.upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		ps.dials.Add(1)
		ps.sessions <- conn
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var envelope models.PushEnvelope
			if err := json.Unmarshal(msg, &envelope); err == nil {
				ps.inbound <- envelope
			}
		}
	}))
	t.Cleanup(ps.srv.Close)
	return ps
}

func (ps *pushServer) wsURL() string {
	return "ws" + strings.TrimPrefix(ps.srv.URL, "http")
}

func (ps *pushServer) session() *websocket.Conn {
	select {
	case conn := <-ps.sessions:
		return conn
	case <-time.After(3 * time.Second):
		ps.t.Fatal("no websocket session established")
		return nil
	}
}

func fastConfig(url string) Config {
	config := DefaultConfig(url)
	config.MinReconnectWait = 10 * time.Millisecond
	config.MaxReconnectWait = 50 * time.Millisecond
	return config
}

func TestChannelDeliversEnvelopesInOrder(t *testing.T) {
	ps := newPushServer(t)

	received := make(chan models.PushEnvelope, 16)
	c := NewChannel(fastConfig(ps.wsURL()), func(e models.PushEnvelope) {
		received <- e
	})
	c.Start()
	defer c.Close()

	conn := ps.session()
	first, err := models.NewPushEnvelope(models.PushTeamUpdated, models.TeamUpdate{ID: "t1"})
	require.NoError(t, err)
	second, err := models.NewPushEnvelope(models.PushAppStateUpdated, models.AppStateUpdate{})
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(first))
	require.NoError(t, conn.WriteJSON(second))

	assert.Equal(t, models.PushTeamUpdated, (<-received).Type)
	assert.Equal(t, models.PushAppStateUpdated, (<-received).Type)
	assert.Equal(t, StateConnected, c.State())
}

func TestChannelIgnoresMalformedMessages(t *testing.T) {
	ps := newPushServer(t)

	received := make(chan models.PushEnvelope, 16)
	c := NewChannel(fastConfig(ps.wsURL()), func(e models.PushEnvelope) {
		received <- e
	})
	c.Start()
	defer c.Close()

	conn := ps.session()
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{broken")))
	valid, err := models.NewPushEnvelope(models.PushTeamUpdated, models.TeamUpdate{ID: "t1"})
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(valid))

	// Only the well-formed envelope comes through.
	assert.Equal(t, models.PushTeamUpdated, (<-received).Type)
	select {
	case e := <-received:
		t.Fatalf("unexpected extra envelope: %v", e.Type)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestChannelReconnectsAfterDrop(t *testing.T) {
	ps := newPushServer(t)

	c := NewChannel(fastConfig(ps.wsURL()), func(models.PushEnvelope) {})
	c.Start()
	defer c.Close()

	ps.session().Close()

	require.Eventually(t, func() bool {
		return ps.dials.Load() >= 2
	}, 3*time.Second, 10*time.Millisecond, "channel must redial after the connection drops")
	require.Eventually(t, func() bool {
		return c.State() == StateConnected
	}, 3*time.Second, 10*time.Millisecond)
}

func TestChannelSendReachesServer(t *testing.T) {
	ps := newPushServer(t)

	c := NewChannel(fastConfig(ps.wsURL()), func(models.PushEnvelope) {})
	c.Start()
	defer c.Close()
	ps.session()

	require.Eventually(t, func() bool {
		return c.State() == StateConnected
	}, 3*time.Second, 10*time.Millisecond)

	envelope, err := models.NewPushEnvelope(models.PushUsernameUpdated, models.UsernameUpdate{Username: "viewer-7"})
	require.NoError(t, err)
	c.Send(envelope)

	select {
	case got := <-ps.inbound:
		assert.Equal(t, models.PushUsernameUpdated, got.Type)
	case <-time.After(3 * time.Second):
		t.Fatal("server never received the envelope")
	}
}

func TestSendWhileDisconnectedIsDropped(t *testing.T) {
	c := NewChannel(fastConfig("ws://127.0.0.1:1/push"), func(models.PushEnvelope) {})

	envelope, err := models.NewPushEnvelope(models.PushUsernameUpdated, models.UsernameUpdate{Username: "viewer"})
	require.NoError(t, err)
	c.Send(envelope)

	assert.Equal(t, StateDisconnected, c.State())
}

func TestCloseStopsReconnectLoop(t *testing.T) {
	c := NewChannel(fastConfig("ws://127.0.0.1:1/push"), func(models.PushEnvelope) {})
	c.Start()

	time.Sleep(30 * time.Millisecond)
	c.Close()
	c.Close()

	require.Eventually(t, func() bool {
		return c.State() == StateDisconnected
	}, time.Second, 5*time.Millisecond)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "disconnected", StateDisconnected.String())
	assert.Equal(t, "connecting", StateConnecting.String())
	assert.Equal(t, "connected", StateConnected.String())
}
