package coordinator

import (
	"context"
	"errors"
	"time"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/TxGate/internal/analysis"
	"github.com/GriffinCanCode/TxGate/internal/relay"
	"github.com/GriffinCanCode/TxGate/internal/shared/types"
	"github.com/GriffinCanCode/TxGate/internal/storage"
)

func (c *Coordinator) handleIntercept(ctx context.Context, msg types.Message) *types.Result {
	if msg.Tx == nil || msg.Tx.ID == "" {
		return types.Fail("transaction payload required")
	}

	// Single slot: a fresh intercept overwrites whatever is pending.
	if prev, ok, _ := c.loadPending(ctx); ok {
		c.logger.Info("overwriting pending transaction",
			zap.String("old", prev.ID),
			zap.String("new", msg.Tx.ID))
	}

	data, err := sonic.Marshal(msg.Tx)
	if err != nil {
		return types.Fail("failed to encode pending transaction: " + err.Error())
	}
	if err := c.store.Set(ctx, storage.KeyPending, data); err != nil {
		return types.Fail("failed to persist pending transaction: " + err.Error())
	}

	c.badge.Set(BadgePending)
	if c.metrics != nil {
		c.metrics.InterceptsTotal.Inc()
		c.metrics.PendingActive.Set(1)
	}
	c.logger.Info("transaction pending",
		zap.String("tx_id", msg.Tx.ID),
		zap.Int64("chain_id", msg.Tx.ChainID),
		zap.String("origin", msg.Tx.Origin))

	return types.OK(map[string]interface{}{"received": true})
}

func (c *Coordinator) handleDecision(ctx context.Context, msg types.Message) *types.Result {
	dec := msg.Decision
	if dec == nil || dec.TxID == "" {
		return types.Fail("decision payload required")
	}
	if !dec.Action.Valid() {
		return types.Fail("unknown action: " + string(dec.Action))
	}

	pending, ok, err := c.loadPending(ctx)
	if err != nil {
		return types.Fail("failed to read pending transaction: " + err.Error())
	}
	if !ok || pending.ID != dec.TxID {
		// Stale: an overwrite or restart got here first. Deliberately a
		// no-op; the slot, badge and tabs all belong to the newer entry.
		c.logger.Info("stale decision ignored", zap.String("tx_id", dec.TxID))
		if c.metrics != nil {
			c.metrics.StaleDecisions.Inc()
		}
		return types.OK(map[string]interface{}{"stale": true})
	}

	if err := c.store.Remove(ctx, storage.KeyPending); err != nil {
		return types.Fail("failed to clear pending transaction: " + err.Error())
	}
	c.badge.Clear()
	if c.metrics != nil {
		c.metrics.PendingActive.Set(0)
		c.metrics.DecisionsTotal.WithLabelValues(string(dec.Action)).Inc()
	}

	// Route the decision to the tab that originated the pending entry.
	c.relay.Post(relay.TabContext(pending.TabID), types.Message{
		Type:     types.MsgDecision,
		TabID:    pending.TabID,
		Decision: dec,
	})
	c.logger.Info("decision applied",
		zap.String("tx_id", dec.TxID),
		zap.String("action", string(dec.Action)),
		zap.String("tab", pending.TabID))

	return types.OK(nil)
}

func (c *Coordinator) handleGetPending(ctx context.Context) *types.Result {
	pending, ok, err := c.loadPending(ctx)
	if err != nil {
		return types.Fail("failed to read pending transaction: " + err.Error())
	}
	if !ok {
		return types.OK(map[string]interface{}{"pending": nil})
	}
	return types.OK(map[string]interface{}{"pending": &pending})
}

func (c *Coordinator) handleGetSettings(ctx context.Context) *types.Result {
	settings, err := c.loadSettings(ctx)
	if err != nil {
		return types.Fail("failed to read settings: " + err.Error())
	}
	return types.OK(map[string]interface{}{"settings": settings})
}

func (c *Coordinator) handleSaveSettings(ctx context.Context, msg types.Message) *types.Result {
	current, err := c.loadSettings(ctx)
	if err != nil {
		return types.Fail("failed to read settings: " + err.Error())
	}

	merged := current.Merge(msg.Settings)
	data, err := sonic.Marshal(merged)
	if err != nil {
		return types.Fail("failed to encode settings: " + err.Error())
	}
	if err := c.store.Set(ctx, storage.KeySettings, data); err != nil {
		return types.Fail("failed to persist settings: " + err.Error())
	}
	return types.OK(map[string]interface{}{"settings": merged})
}

func (c *Coordinator) handleAnalyze(ctx context.Context, msg types.Message) *types.Result {
	req := msg.Analyze
	if req == nil || req.TxHash == "" {
		return types.Fail("analyze payload required")
	}
	if c.analyzer == nil {
		return types.Fail("analysis backend not configured")
	}

	settings, _ := c.loadSettings(ctx)
	opts := analysis.Options{
		IncludeExplanation: true,
		Language:           settings.Language,
	}
	if req.Options != nil {
		opts = analysis.Options{
			IncludeExplanation: req.Options.IncludeExplanation,
			IncludeTrace:       req.Options.IncludeTrace,
			Language:           req.Options.Language,
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, c.analyzeTimeout)
	defer cancel()

	start := time.Now()
	result, err := c.analyzer.Analyze(callCtx, analysis.Request{
		ChainID: req.ChainID,
		TxHash:  req.TxHash,
		Options: opts,
	})
	elapsed := time.Since(start)

	if err != nil {
		outcome := "error"
		if errors.Is(err, analysis.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
			outcome = "timeout"
			err = analysis.ErrTimeout
		}
		if c.metrics != nil {
			c.metrics.ObserveAnalysis(outcome, elapsed)
		}
		c.logger.Warn("analysis failed",
			zap.String("tx_hash", req.TxHash),
			zap.String("outcome", outcome),
			zap.Error(err))
		return types.Fail(err.Error())
	}

	if c.metrics != nil {
		c.metrics.ObserveAnalysis("ok", elapsed)
	}
	c.appendHistory(ctx, req, result)

	return types.OK(map[string]interface{}{"analysis": result})
}

func (c *Coordinator) handleGetHistory(ctx context.Context) *types.Result {
	records, err := c.loadHistory(ctx)
	if err != nil {
		return types.Fail("failed to read history: " + err.Error())
	}
	return types.OK(map[string]interface{}{"history": records, "count": len(records)})
}

func (c *Coordinator) handleClearHistory(ctx context.Context) *types.Result {
	if err := c.store.Remove(ctx, storage.KeyHistory); err != nil {
		return types.Fail("failed to clear history: " + err.Error())
	}
	return types.OK(nil)
}

func (c *Coordinator) handleHealth(ctx context.Context) *types.Result {
	if c.analyzer == nil {
		return types.Fail("analysis backend not configured")
	}
	callCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	health, err := c.analyzer.Health(callCtx)
	if err != nil {
		return types.Fail(err.Error())
	}
	return types.OK(map[string]interface{}{"health": health})
}

func (c *Coordinator) handleGetChains(ctx context.Context) *types.Result {
	if c.analyzer == nil {
		return types.Fail("analysis backend not configured")
	}
	callCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	chains, err := c.analyzer.Chains(callCtx)
	if err != nil {
		return types.Fail(err.Error())
	}
	return types.OK(map[string]interface{}{"chains": chains})
}

func (c *Coordinator) loadPending(ctx context.Context) (types.PendingTransaction, bool, error) {
	data, ok, err := c.store.Get(ctx, storage.KeyPending)
	if err != nil || !ok {
		return types.PendingTransaction{}, false, err
	}
	var pending types.PendingTransaction
	if err := sonic.Unmarshal(data, &pending); err != nil {
		return types.PendingTransaction{}, false, err
	}
	return pending, true, nil
}

// loadSettings merges the stored blob over the defaults, so keys a partial
// save never touched keep their default value.
func (c *Coordinator) loadSettings(ctx context.Context) (types.Settings, error) {
	settings := types.DefaultSettings()
	data, ok, err := c.store.Get(ctx, storage.KeySettings)
	if err != nil {
		return settings, err
	}
	if !ok {
		return settings, nil
	}
	if err := sonic.Unmarshal(data, &settings); err != nil {
		return types.DefaultSettings(), err
	}
	return settings, nil
}

func (c *Coordinator) loadHistory(ctx context.Context) ([]types.AnalysisRecord, error) {
	data, ok, err := c.store.Get(ctx, storage.KeyHistory)
	if err != nil || !ok {
		return nil, err
	}
	var records []types.AnalysisRecord
	if err := sonic.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// appendHistory records a completed analysis, evicting the oldest entries
// beyond HistoryLimit. A failed append never fails the analysis itself.
func (c *Coordinator) appendHistory(ctx context.Context, req *types.AnalyzeRequest, result *analysis.Result) {
	records, err := c.loadHistory(ctx)
	if err != nil {
		c.logger.Warn("history read failed", zap.Error(err))
		records = nil
	}

	record := types.AnalysisRecord{
		TxHash:    req.TxHash,
		ChainID:   req.ChainID,
		RiskLevel: string(analysis.RiskUnknown),
		Summary:   result.Parse.Behavior,
		Timestamp: time.Now(),
	}
	if result.Explanation != nil {
		record.RiskLevel = string(result.Explanation.RiskLevel)
		if result.Explanation.Summary != "" {
			record.Summary = result.Explanation.Summary
		}
	}

	records = append(records, record)
	if len(records) > HistoryLimit {
		records = records[len(records)-HistoryLimit:]
	}

	data, err := sonic.Marshal(records)
	if err != nil {
		c.logger.Warn("history encode failed", zap.Error(err))
		return
	}
	if err := c.store.Set(ctx, storage.KeyHistory, data); err != nil {
		c.logger.Warn("history write failed", zap.Error(err))
	}
}
