package bridge

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/TxGate/internal/infrastructure/logging"
	"github.com/GriffinCanCode/TxGate/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/TxGate/internal/relay"
	"github.com/GriffinCanCode/TxGate/internal/shared/types"
)

const defaultCallTimeout = 5 * time.Second

// Bridge relays intercept notifications up to the coordinator and decisions
// back down into its page realm.
type Bridge struct {
	relay       *relay.Context
	pageRealm   string
	coordinator string
	tabID       string
	origin      string
	logger      *logging.Logger
	metrics     *monitoring.Metrics

	callTimeout time.Duration
}

// New creates a bridge. rc is the bridge's own relay attachment, pageRealm
// the context name of the page it serves, origin the page origin read from
// the bridge's own navigation context.
func New(rc *relay.Context, pageRealm, coordinator, tabID, origin string, logger *logging.Logger) *Bridge {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Bridge{
		relay:       rc,
		pageRealm:   pageRealm,
		coordinator: coordinator,
		tabID:       tabID,
		origin:      origin,
		logger:      logger,
		callTimeout: defaultCallTimeout,
	}
}

// WithMetrics attaches a metrics collector.
func (b *Bridge) WithMetrics(m *monitoring.Metrics) *Bridge {
	b.metrics = m
	return b
}

// Run consumes the bridge's inbox until ctx is done.
func (b *Bridge) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case d := <-b.relay.Receive():
			b.handle(ctx, d)
		}
	}
}

func (b *Bridge) handle(ctx context.Context, d relay.Delivery) {
	switch d.Msg.Type {
	case types.MsgInterceptNotify:
		b.handleIntercept(ctx, d.Msg)
		d.Reply(types.OK(nil))
	case types.MsgDecision:
		// Coordinator broadcast; forward unchanged into the page realm.
		// Decisions for other tabs never arrive here: the coordinator
		// addresses the originating tab's bridge directly.
		b.relay.Post(b.pageRealm, types.Message{Type: types.MsgDecision, Decision: d.Msg.Decision})
		d.Reply(types.OK(nil))
	default:
		b.logger.Debug("bridge ignoring message", zap.String("type", d.Msg.Type))
	}
}

func (b *Bridge) handleIntercept(ctx context.Context, msg types.Message) {
	if msg.Source != b.pageRealm {
		// Spoofed posting from another frame; same-window messages only.
		b.logger.Warn("intercept notification from foreign source dropped",
			zap.String("source", msg.Source))
		return
	}
	if msg.Tx == nil {
		b.logger.Warn("intercept notification without transaction payload")
		return
	}

	callCtx, cancel := context.WithTimeout(ctx, b.callTimeout)
	defer cancel()

	settings, err := b.fetchSettings(callCtx)
	if err != nil {
		b.approve(msg.Tx.ID, "unreachable")
		return
	}
	if !settings.InterceptEnabled {
		b.approve(msg.Tx.ID, "disabled")
		return
	}

	pending := *msg.Tx
	pending.Origin = b.origin
	pending.TabID = b.tabID

	res, err := b.relay.Call(callCtx, b.coordinator, types.Message{
		Type:  types.MsgInterceptForward,
		TabID: b.tabID,
		Tx:    &pending,
	})
	if err != nil || !res.Success {
		b.approve(msg.Tx.ID, "unreachable")
	}
}

func (b *Bridge) fetchSettings(ctx context.Context) (types.Settings, error) {
	res, err := b.relay.Call(ctx, b.coordinator, types.Message{Type: types.MsgGetSettings})
	if err != nil {
		return types.Settings{}, err
	}
	if settings, ok := res.Data["settings"].(types.Settings); ok {
		return settings, nil
	}
	return types.DefaultSettings(), nil
}

// approve synthesizes an approve decision back to the page realm. This is
// the bypass path: the page sees a normal approval, never an error.
func (b *Bridge) approve(txID, reason string) {
	b.logger.Info("bypass approval",
		zap.String("tx_id", txID),
		zap.String("reason", reason))
	if b.metrics != nil {
		b.metrics.BypassTotal.WithLabelValues(reason).Inc()
	}
	b.relay.Post(b.pageRealm, types.Message{
		Type:     types.MsgDecision,
		Decision: &types.Decision{TxID: txID, Action: types.ActionApprove},
	})
}
