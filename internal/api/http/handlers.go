package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/TxGate/internal/infrastructure/logging"
	"github.com/GriffinCanCode/TxGate/internal/relay"
	"github.com/GriffinCanCode/TxGate/internal/shared/types"
)

const callTimeout = 10 * time.Second

// Handlers exposes coordinator state over plain HTTP. The websocket
// gateway is the interactive surface; these endpoints serve the history
// page, the options page, and liveness probes.
type Handlers struct {
	relay  *relay.Context
	logger *logging.Logger
}

// NewHandlers creates the HTTP handler set on its relay attachment.
func NewHandlers(rc *relay.Context, logger *logging.Logger) *Handlers {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Handlers{relay: rc, logger: logger}
}

// Root describes the service.
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": "txgate",
		"endpoints": gin.H{
			"health":   "/healthz",
			"metrics":  "/metrics",
			"ws":       "/ws",
			"pending":  "/api/pending",
			"history":  "/api/history",
			"settings": "/api/settings",
			"chains":   "/api/chains",
		},
	})
}

// Health reports local liveness plus the analysis backend's health. A dead
// backend degrades the payload, not the status code: interception keeps
// working without analysis.
func (h *Handlers) Health(c *gin.Context) {
	body := gin.H{"status": "ok"}

	res, err := h.call(c.Request.Context(), types.Message{Type: types.MsgHealth})
	switch {
	case err != nil:
		body["analysis"] = gin.H{"status": "unreachable", "error": err.Error()}
	case !res.Success:
		body["analysis"] = gin.H{"status": "unreachable", "error": res.ErrorMessage()}
	default:
		body["analysis"] = res.Data["health"]
	}

	c.JSON(http.StatusOK, body)
}

// Pending returns the current pending transaction, if any.
func (h *Handlers) Pending(c *gin.Context) {
	h.forward(c, types.Message{Type: types.MsgGetPending})
}

// History returns the bounded analysis history.
func (h *Handlers) History(c *gin.Context) {
	h.forward(c, types.Message{Type: types.MsgGetHistory})
}

// ClearHistory empties the analysis history.
func (h *Handlers) ClearHistory(c *gin.Context) {
	h.forward(c, types.Message{Type: types.MsgClearHistory})
}

// GetSettings returns the effective settings.
func (h *Handlers) GetSettings(c *gin.Context) {
	h.forward(c, types.Message{Type: types.MsgGetSettings})
}

// SaveSettings merges a partial settings update.
func (h *Handlers) SaveSettings(c *gin.Context) {
	var patch map[string]interface{}
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid settings payload: " + err.Error()})
		return
	}
	h.forward(c, types.Message{Type: types.MsgSaveSettings, Settings: patch})
}

// Chains lists the chains the analysis backend supports.
func (h *Handlers) Chains(c *gin.Context) {
	h.forward(c, types.Message{Type: types.MsgGetChains})
}

func (h *Handlers) forward(c *gin.Context, msg types.Message) {
	res, err := h.call(c.Request.Context(), msg)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	if !res.Success {
		c.JSON(http.StatusBadGateway, gin.H{"error": res.ErrorMessage()})
		return
	}
	c.JSON(http.StatusOK, res.Data)
}

func (h *Handlers) call(ctx context.Context, msg types.Message) (*types.Result, error) {
	callCtx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()
	return h.relay.Call(callCtx, relay.Coordinator, msg)
}
