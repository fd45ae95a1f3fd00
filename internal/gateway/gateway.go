package gateway

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/TxGate/internal/coordinator"
	"github.com/GriffinCanCode/TxGate/internal/infrastructure/logging"
	"github.com/GriffinCanCode/TxGate/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/TxGate/internal/relay"
	"github.com/GriffinCanCode/TxGate/internal/shared/id"
	"github.com/GriffinCanCode/TxGate/internal/shared/types"
)

// callTimeout bounds one forwarded request. Analysis is the slow path; it
// holds the coordinator for up to its 60s backend budget.
const callTimeout = 65 * time.Second

// frame is one client request over the socket.
type frame struct {
	ID      string        `json:"id,omitempty"`
	Message types.Message `json:"message"`
}

// push is one server-initiated or reply frame.
type push struct {
	ID     string        `json:"id,omitempty"`
	Event  string        `json:"event,omitempty"`
	Text   string        `json:"text,omitempty"`
	Result *types.Result `json:"result,omitempty"`
}

type session struct {
	id   string
	conn *websocket.Conn
	mu   sync.Mutex // serializes writes
}

func (s *session) write(p push) error {
	data, err := sonic.Marshal(p)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

// Gateway bridges websocket sessions onto the relay bus.
type Gateway struct {
	bus     *relay.Bus
	logger  *logging.Logger
	metrics *monitoring.Metrics

	upgrader websocket.Upgrader

	mu       sync.Mutex
	sessions map[string]*session
}

// New creates a gateway on the bus.
func New(bus *relay.Bus, logger *logging.Logger, metrics *monitoring.Metrics) *Gateway {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Gateway{
		bus:    bus,
		logger: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// The extension popup has a chrome-extension:// origin;
				// auth is handled at the network layer, not here.
				return true
			},
		},
		metrics:  metrics,
		sessions: make(map[string]*session),
	}
}

// Badge returns a coordinator.Badge that pushes updates to every session.
func (g *Gateway) Badge() coordinator.Badge {
	return badgeBroadcaster{g}
}

type badgeBroadcaster struct{ g *Gateway }

func (b badgeBroadcaster) Set(text string) { b.g.broadcast(push{Event: "badge", Text: text}) }
func (b badgeBroadcaster) Clear()          { b.g.broadcast(push{Event: "badge"}) }

func (g *Gateway) sessionCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.sessions)
}

func (g *Gateway) broadcast(p push) {
	g.mu.Lock()
	targets := make([]*session, 0, len(g.sessions))
	for _, s := range g.sessions {
		targets = append(targets, s)
	}
	g.mu.Unlock()

	for _, s := range targets {
		if err := s.write(p); err != nil {
			g.logger.Debug("broadcast write failed", zap.String("session", s.id), zap.Error(err))
		}
	}
}

// HandleConnection upgrades and serves one websocket session.
func (g *Gateway) HandleConnection(c *gin.Context) {
	conn, err := g.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		g.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	sess := &session{id: id.NewSessionID().String(), conn: conn}
	rc := g.bus.Attach("ws:" + sess.id)

	g.mu.Lock()
	g.sessions[sess.id] = sess
	g.mu.Unlock()
	if g.metrics != nil {
		g.metrics.WSConnections.Inc()
	}

	defer func() {
		rc.Detach()
		g.mu.Lock()
		delete(g.sessions, sess.id)
		g.mu.Unlock()
		if g.metrics != nil {
			g.metrics.WSConnections.Dec()
		}
		conn.Close()
	}()

	sess.write(push{Event: "system", Text: "connected"})

	reqCtx := c.Request.Context()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			g.logger.Debug("websocket read ended", zap.String("session", sess.id), zap.Error(err))
			return
		}

		var f frame
		if err := sonic.Unmarshal(data, &f); err != nil {
			sess.write(push{Event: "error", Text: "malformed frame"})
			continue
		}
		if g.metrics != nil {
			g.metrics.WSMessages.WithLabelValues(f.Message.Type).Inc()
		}

		g.dispatch(reqCtx, rc, sess, f)
	}
}

func (g *Gateway) dispatch(ctx context.Context, rc *relay.Context, sess *session, f frame) {
	callCtx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	res, err := rc.Call(callCtx, relay.Coordinator, f.Message)
	if err != nil {
		res = types.Fail("coordinator unreachable: " + err.Error())
	}
	if err := sess.write(push{ID: f.ID, Result: res}); err != nil {
		g.logger.Debug("response write failed", zap.String("session", sess.id), zap.Error(err))
	}
}
