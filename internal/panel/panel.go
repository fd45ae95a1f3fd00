package panel

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/TxGate/internal/analysis"
	"github.com/GriffinCanCode/TxGate/internal/infrastructure/logging"
	"github.com/GriffinCanCode/TxGate/internal/relay"
	"github.com/GriffinCanCode/TxGate/internal/shared/types"
	"github.com/GriffinCanCode/TxGate/internal/shared/utils"
)

// ErrAlreadyDecided means a decision was already recorded for this id.
var ErrAlreadyDecided = errors.New("decision already recorded for this transaction")

const defaultCallTimeout = 5 * time.Second

// View is what the panel shows for one open.
type View struct {
	Pending     *types.PendingTransaction
	Analysis    *analysis.Result
	AnalysisErr string
}

// Panel captures the operator's verdict on the pending transaction.
type Panel struct {
	relay       *relay.Context
	coordinator string
	logger      *logging.Logger
	callTimeout time.Duration

	mu      sync.Mutex
	decided map[string]bool
}

// New creates a panel client on its relay attachment.
func New(rc *relay.Context, coordinator string, logger *logging.Logger) *Panel {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Panel{
		relay:       rc,
		coordinator: coordinator,
		logger:      logger,
		callTimeout: defaultCallTimeout,
		decided:     make(map[string]bool),
	}
}

// Open queries the coordinator for the current pending entry and, when the
// auto-analyze setting is on, triggers analysis. Analysis failure degrades
// the view, never the open itself; the operator can still decide blind.
func (p *Panel) Open(ctx context.Context) (*View, error) {
	res, err := p.call(ctx, types.Message{Type: types.MsgGetPending})
	if err != nil {
		return nil, err
	}
	if !res.Success {
		return nil, errors.New(res.ErrorMessage())
	}

	view := &View{}
	pending, _ := res.Data["pending"].(*types.PendingTransaction)
	if pending == nil {
		return view, nil
	}
	view.Pending = pending

	if p.autoAnalyze(ctx) {
		p.analyze(ctx, pending, view)
	}
	return view, nil
}

// Decide records exactly one operator decision for a transaction id.
func (p *Panel) Decide(ctx context.Context, txID string, action types.Action) error {
	if !action.Valid() {
		return errors.New("unknown action: " + string(action))
	}

	p.mu.Lock()
	if p.decided[txID] {
		p.mu.Unlock()
		return ErrAlreadyDecided
	}
	p.decided[txID] = true
	p.mu.Unlock()

	res, err := p.call(ctx, types.Message{
		Type:     types.MsgDecision,
		Decision: &types.Decision{TxID: txID, Action: action},
	})
	if err != nil {
		// Never delivered; the operator may retry.
		p.mu.Lock()
		delete(p.decided, txID)
		p.mu.Unlock()
		return err
	}
	if !res.Success {
		return errors.New(res.ErrorMessage())
	}

	p.logger.Info("decision recorded",
		zap.String("tx_id", txID),
		zap.String("action", string(action)))
	return nil
}

func (p *Panel) autoAnalyze(ctx context.Context) bool {
	res, err := p.call(ctx, types.Message{Type: types.MsgGetSettings})
	if err != nil || !res.Success {
		return false
	}
	settings, ok := res.Data["settings"].(types.Settings)
	return ok && settings.AutoAnalyze
}

func (p *Panel) analyze(ctx context.Context, pending *types.PendingTransaction, view *View) {
	// Analysis holds the coordinator for up to its own 60s backend budget,
	// so this wait is bounded a little above it rather than by callTimeout.
	callCtx, cancel := context.WithTimeout(ctx, 65*time.Second)
	defer cancel()

	res, err := p.relay.Call(callCtx, p.coordinator, types.Message{
		Type: types.MsgAnalyze,
		Analyze: &types.AnalyzeRequest{
			ChainID: pending.ChainID,
			TxHash:  utils.TxDigest(pending.Tx),
		},
	})
	if err != nil {
		view.AnalysisErr = err.Error()
		return
	}
	if !res.Success {
		view.AnalysisErr = res.ErrorMessage()
		return
	}
	view.Analysis, _ = res.Data["analysis"].(*analysis.Result)
}

func (p *Panel) call(ctx context.Context, msg types.Message) (*types.Result, error) {
	callCtx, cancel := context.WithTimeout(ctx, p.callTimeout)
	defer cancel()
	return p.relay.Call(callCtx, p.coordinator, msg)
}
