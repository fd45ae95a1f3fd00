package coordinator

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/TxGate/internal/analysis"
	"github.com/GriffinCanCode/TxGate/internal/infrastructure/logging"
	"github.com/GriffinCanCode/TxGate/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/TxGate/internal/relay"
	"github.com/GriffinCanCode/TxGate/internal/shared/types"
	"github.com/GriffinCanCode/TxGate/internal/storage"
)

// HistoryLimit caps the analysis history; the oldest entry is evicted first.
const HistoryLimit = 100

const defaultAnalyzeTimeout = 60 * time.Second

// Analyzer is the outbound analysis dependency.
type Analyzer interface {
	Analyze(ctx context.Context, req analysis.Request) (*analysis.Result, error)
	Health(ctx context.Context) (*analysis.Health, error)
	Chains(ctx context.Context) ([]analysis.Chain, error)
}

// Config wires a coordinator.
type Config struct {
	Store    storage.Store
	Badge    Badge
	Relay    *relay.Context
	Analyzer Analyzer
	Logger   *logging.Logger
	Metrics  *monitoring.Metrics

	// AnalyzeTimeout bounds one backend dispatch. Zero means 60s.
	AnalyzeTimeout time.Duration
}

// Coordinator owns pending-transaction state and routes decisions back to
// the tab that originated them.
type Coordinator struct {
	store          storage.Store
	badge          Badge
	relay          *relay.Context
	analyzer       Analyzer
	logger         *logging.Logger
	metrics        *monitoring.Metrics
	analyzeTimeout time.Duration
}

// New creates a coordinator.
func New(cfg Config) *Coordinator {
	if cfg.Badge == nil {
		cfg.Badge = NopBadge{}
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNop()
	}
	if cfg.AnalyzeTimeout <= 0 {
		cfg.AnalyzeTimeout = defaultAnalyzeTimeout
	}
	return &Coordinator{
		store:          cfg.Store,
		badge:          cfg.Badge,
		relay:          cfg.Relay,
		analyzer:       cfg.Analyzer,
		logger:         cfg.Logger,
		metrics:        cfg.Metrics,
		analyzeTimeout: cfg.AnalyzeTimeout,
	}
}

// Startup clears stale pending state left over from a previous, possibly
// crashed, session. Call it before Run on every process start.
func (c *Coordinator) Startup(ctx context.Context) error {
	if err := c.store.Remove(ctx, storage.KeyPending); err != nil {
		return fmt.Errorf("startup recovery: %w", err)
	}
	c.badge.Clear()
	if c.metrics != nil {
		c.metrics.PendingActive.Set(0)
	}
	c.logger.Info("startup recovery complete")
	return nil
}

// Run consumes the coordinator's inbox until ctx is done.
func (c *Coordinator) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case d := <-c.relay.Receive():
			d.Reply(c.HandleMessage(ctx, d.Msg))
		}
	}
}

// HandleMessage dispatches one message to its handler. Failures, panics
// included, are captured here and become structured error results.
func (c *Coordinator) HandleMessage(ctx context.Context, msg types.Message) (res *types.Result) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("handler panic",
				zap.String("type", msg.Type),
				zap.Any("panic", r))
			res = types.Fail(fmt.Sprintf("internal error: %v", r))
		}
	}()

	switch msg.Type {
	case types.MsgInterceptForward:
		return c.handleIntercept(ctx, msg)
	case types.MsgDecision:
		return c.handleDecision(ctx, msg)
	case types.MsgGetPending:
		return c.handleGetPending(ctx)
	case types.MsgGetSettings:
		return c.handleGetSettings(ctx)
	case types.MsgSaveSettings:
		return c.handleSaveSettings(ctx, msg)
	case types.MsgAnalyze:
		return c.handleAnalyze(ctx, msg)
	case types.MsgGetHistory:
		return c.handleGetHistory(ctx)
	case types.MsgClearHistory:
		return c.handleClearHistory(ctx)
	case types.MsgHealth:
		return c.handleHealth(ctx)
	case types.MsgGetChains:
		return c.handleGetChains(ctx)
	default:
		return types.Fail(fmt.Sprintf("unknown message type: %s", msg.Type))
	}
}
