package gateway

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/TxGate/internal/relay"
	"github.com/GriffinCanCode/TxGate/internal/shared/types"
)

func startGateway(t *testing.T) (*Gateway, *relay.Bus, *websocket.Conn) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	bus := relay.New(nil)
	gw := New(bus, nil, nil)

	router := gin.New()
	router.GET("/ws", gw.HandleConnection)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	// Swallow the welcome frame.
	var welcome push
	require.NoError(t, readFrame(t, conn, &welcome))
	require.Equal(t, "system", welcome.Event)

	return gw, bus, conn
}

func readFrame(t *testing.T, conn *websocket.Conn, out *push) error {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		return err
	}
	return sonic.Unmarshal(data, out)
}

func TestFrameForwardedToCoordinator(t *testing.T) {
	_, bus, conn := startGateway(t)

	coordRC := bus.Attach(relay.Coordinator)
	go func() {
		d := <-coordRC.Receive()
		assert.Equal(t, types.MsgGetPending, d.Msg.Type)
		d.Reply(types.OK(map[string]interface{}{"pending": nil}))
	}()

	payload, err := sonic.Marshal(frame{ID: "req-1", Message: types.Message{Type: types.MsgGetPending}})
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, payload))

	var reply push
	require.NoError(t, readFrame(t, conn, &reply))
	assert.Equal(t, "req-1", reply.ID)
	require.NotNil(t, reply.Result)
	assert.True(t, reply.Result.Success)
}

func TestFrameWithoutCoordinatorFailsGracefully(t *testing.T) {
	_, _, conn := startGateway(t)

	payload, _ := sonic.Marshal(frame{ID: "req-1", Message: types.Message{Type: types.MsgGetPending}})
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, payload))

	var reply push
	require.NoError(t, readFrame(t, conn, &reply))
	require.NotNil(t, reply.Result)
	assert.False(t, reply.Result.Success)
	assert.Contains(t, reply.Result.ErrorMessage(), "coordinator unreachable")
}

func TestMalformedFrameAnswersError(t *testing.T) {
	_, _, conn := startGateway(t)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))

	var reply push
	require.NoError(t, readFrame(t, conn, &reply))
	assert.Equal(t, "error", reply.Event)
}

func TestBadgeBroadcast(t *testing.T) {
	gw, _, conn := startGateway(t)

	gw.Badge().Set("!")

	var update push
	require.NoError(t, readFrame(t, conn, &update))
	assert.Equal(t, "badge", update.Event)
	assert.Equal(t, "!", update.Text)

	gw.Badge().Clear()
	require.NoError(t, readFrame(t, conn, &update))
	assert.Equal(t, "badge", update.Event)
	assert.Empty(t, update.Text)
}

func TestSessionUnregisteredOnClose(t *testing.T) {
	gw, _, conn := startGateway(t)

	require.Equal(t, 1, gw.sessionCount())
	conn.Close()

	require.Eventually(t, func() bool {
		return gw.sessionCount() == 0
	}, 2*time.Second, 20*time.Millisecond)
}
