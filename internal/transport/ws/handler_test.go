package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/swaggyasy/tff-socket-server/internal/converter"
	"github.com/swaggyasy/tff-socket-server/internal/service/relay"
	"github.com/swaggyasy/tff-socket-server/platform/logger"
)

func testConfig() Config {
	return Config{
		AllowedOrigins: []string{"http://localhost:3000"},
		SendBufferSize: 16,
		ReadLimit:      1 << 16,
		WriteTimeout:   time.Second,
		PingInterval:   5 * time.Second,
	}
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	logger.SetNopLogger()
	srv := httptest.NewServer(NewHandler(relay.NewRelayService(), testConfig()))
	t.Cleanup(srv.Close)

	return srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return conn
}

func send(t *testing.T, conn *websocket.Conn, event string, data string) {
	t.Helper()

	frame := `{"event":"` + event + `"`
	if data != "" {
		frame += `,"data":` + data
	}
	frame += `}`
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(frame)))
}

func readFrame(t *testing.T, conn *websocket.Conn) converter.SocketEnvelope {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, frame, err := conn.ReadMessage()
	require.NoError(t, err)

	var envelope converter.SocketEnvelope
	require.NoError(t, json.Unmarshal(frame, &envelope))

	return envelope
}

// Join and publish travel on the same socket: the read loop processes
// them in order, so the join is visible before the publish resolves.
func TestHandler_UserRoomRoundTrip(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	conn := dial(t, srv)

	send(t, conn, converter.EventJoinUserRoom, `{"userId":"u1"}`)
	send(t, conn, converter.EventOrderStatusUpdate, `{"userId":"u1","isAdminUpdate":false,"status":"SHIPPED"}`)

	envelope := readFrame(t, conn)
	require.Equal(t, converter.EventOrderUpdated, envelope.Event)
	require.JSONEq(t, `{"userId":"u1","isAdminUpdate":false,"status":"SHIPPED"}`, string(envelope.Data))
}

func TestHandler_AdminRoomRoundTrip(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	conn := dial(t, srv)

	send(t, conn, converter.EventJoinAdminRoom, "")
	send(t, conn, converter.EventOrderStatusUpdate, `{"userId":"u1","isAdminUpdate":true,"status":"PACKED"}`)

	envelope := readFrame(t, conn)
	require.Equal(t, converter.EventOrderUpdated, envelope.Event)
}

func TestHandler_UserUpdateDoesNotReachAdmin(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	conn := dial(t, srv)

	send(t, conn, converter.EventJoinAdminRoom, "")
	// Not an admin update and the connection never joined u1.
	send(t, conn, converter.EventOrderStatusUpdate, `{"userId":"u1","isAdminUpdate":false}`)
	// A second, admin-targeted event must be the first frame received.
	send(t, conn, converter.EventOrderStatusUpdate, `{"userId":"u1","isAdminUpdate":true,"marker":1}`)

	envelope := readFrame(t, conn)
	require.Equal(t, converter.EventOrderUpdated, envelope.Event)
	require.Contains(t, string(envelope.Data), `"marker":1`)
}

func TestHandler_MalformedFramesAreIgnored(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	conn := dial(t, srv)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`not json`)))
	send(t, conn, "unknown-event", `{}`)
	send(t, conn, converter.EventJoinUserRoom, `{"userId":"u1"}`)
	send(t, conn, converter.EventOrderStatusUpdate, `{"userId":"u1","isAdminUpdate":false}`)

	envelope := readFrame(t, conn)
	require.Equal(t, converter.EventOrderUpdated, envelope.Event)
}

func TestHandler_PublishOrder(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	conn := dial(t, srv)

	send(t, conn, converter.EventJoinUserRoom, `"u1"`)

	const n = 10
	for i := 0; i < n; i++ {
		send(t, conn, converter.EventOrderStatusUpdate,
			`{"userId":"u1","isAdminUpdate":false,"seq":`+string(rune('0'+i))+`}`)
	}

	for i := 0; i < n; i++ {
		envelope := readFrame(t, conn)
		require.Contains(t, string(envelope.Data), `"seq":`+string(rune('0'+i)))
	}
}

func TestHandler_OriginCheck(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")

	t.Run("allowed origin accepted", func(t *testing.T) {
		t.Parallel()

		header := http.Header{"Origin": []string{"http://localhost:3000"}}
		conn, _, err := websocket.DefaultDialer.Dial(wsURL, header)
		require.NoError(t, err)
		_ = conn.Close()
	})

	t.Run("unknown origin rejected", func(t *testing.T) {
		t.Parallel()

		header := http.Header{"Origin": []string{"http://evil.example.com"}}
		_, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
		require.Error(t, err)
		require.Equal(t, http.StatusForbidden, resp.StatusCode)
	})
}
