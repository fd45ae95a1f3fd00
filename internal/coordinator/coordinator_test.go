package coordinator

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/TxGate/internal/analysis"
	"github.com/GriffinCanCode/TxGate/internal/relay"
	"github.com/GriffinCanCode/TxGate/internal/shared/types"
	"github.com/GriffinCanCode/TxGate/internal/storage"
)

// recordingBadge remembers the badge text.
type recordingBadge struct {
	text string
	sets int
}

func (b *recordingBadge) Set(text string) { b.text = text; b.sets++ }
func (b *recordingBadge) Clear()          { b.text = "" }

// fakeAnalyzer scripts the backend.
type fakeAnalyzer struct {
	result *analysis.Result
	err    error
	panics bool
	health *analysis.Health
	chains []analysis.Chain
}

func (a *fakeAnalyzer) Analyze(ctx context.Context, req analysis.Request) (*analysis.Result, error) {
	if a.panics {
		panic("analyzer exploded")
	}
	if a.err != nil {
		return nil, a.err
	}
	if a.result != nil {
		return a.result, nil
	}
	return &analysis.Result{
		Parse: analysis.ParseResult{Behavior: "transfer"},
		Explanation: &analysis.Explanation{
			RiskLevel: analysis.RiskLow,
			Summary:   "summary for " + req.TxHash,
		},
	}, nil
}

func (a *fakeAnalyzer) Health(ctx context.Context) (*analysis.Health, error) {
	if a.health == nil {
		return nil, errors.New("backend down")
	}
	return a.health, nil
}

func (a *fakeAnalyzer) Chains(ctx context.Context) ([]analysis.Chain, error) {
	return a.chains, nil
}

type fixture struct {
	coord *Coordinator
	store storage.Store
	badge *recordingBadge
	bus   *relay.Bus
}

func newFixture(t *testing.T, analyzer Analyzer) *fixture {
	t.Helper()

	bus := relay.New(nil)
	store := storage.NewMemory()
	badge := &recordingBadge{}

	coord := New(Config{
		Store:    store,
		Badge:    badge,
		Relay:    bus.Attach(relay.Coordinator),
		Analyzer: analyzer,
	})
	return &fixture{coord: coord, store: store, badge: badge, bus: bus}
}

func pending(id, tabID string) *types.PendingTransaction {
	return &types.PendingTransaction{
		ID:        id,
		ChainID:   1,
		Tx:        types.TxParams{From: "0xme", To: "0xyou", Value: "0x1"},
		Origin:    "https://dapp.example",
		TabID:     tabID,
		Timestamp: time.Now(),
	}
}

func TestInterceptStoresPendingAndSetsBadge(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	res := f.coord.HandleMessage(ctx, types.Message{
		Type: types.MsgInterceptForward,
		Tx:   pending("tx_1", "tab-1"),
	})
	require.True(t, res.Success)
	assert.Equal(t, true, res.Data["received"])
	assert.Equal(t, BadgePending, f.badge.text)

	got := f.coord.HandleMessage(ctx, types.Message{Type: types.MsgGetPending})
	require.True(t, got.Success)
	stored := got.Data["pending"].(*types.PendingTransaction)
	require.NotNil(t, stored)
	assert.Equal(t, "tx_1", stored.ID)
	assert.Equal(t, "tab-1", stored.TabID)
}

func TestInterceptWithoutPayloadFails(t *testing.T) {
	f := newFixture(t, nil)

	res := f.coord.HandleMessage(context.Background(), types.Message{Type: types.MsgInterceptForward})
	assert.False(t, res.Success)
}

func TestInterceptOverwritesPrevious(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	f.coord.HandleMessage(ctx, types.Message{Type: types.MsgInterceptForward, Tx: pending("tx_1", "tab-1")})
	f.coord.HandleMessage(ctx, types.Message{Type: types.MsgInterceptForward, Tx: pending("tx_2", "tab-2")})

	got := f.coord.HandleMessage(ctx, types.Message{Type: types.MsgGetPending})
	stored := got.Data["pending"].(*types.PendingTransaction)
	assert.Equal(t, "tx_2", stored.ID)
}

func TestDecisionClearsSlotAndRoutesToTab(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	tab := f.bus.Attach(relay.TabContext("tab-1"))
	f.coord.HandleMessage(ctx, types.Message{Type: types.MsgInterceptForward, Tx: pending("tx_1", "tab-1")})

	res := f.coord.HandleMessage(ctx, types.Message{
		Type:     types.MsgDecision,
		Decision: &types.Decision{TxID: "tx_1", Action: types.ActionApprove},
	})
	require.True(t, res.Success)
	assert.Empty(t, f.badge.text)

	got := f.coord.HandleMessage(ctx, types.Message{Type: types.MsgGetPending})
	assert.Nil(t, got.Data["pending"])

	select {
	case d := <-tab.Receive():
		require.Equal(t, types.MsgDecision, d.Msg.Type)
		assert.Equal(t, "tx_1", d.Msg.Decision.TxID)
		assert.Equal(t, types.ActionApprove, d.Msg.Decision.Action)
	case <-time.After(time.Second):
		t.Fatal("decision never routed to the originating tab")
	}
}

func TestStaleDecisionIsNoOp(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	oldTab := f.bus.Attach(relay.TabContext("tab-1"))
	f.coord.HandleMessage(ctx, types.Message{Type: types.MsgInterceptForward, Tx: pending("tx_1", "tab-1")})
	f.coord.HandleMessage(ctx, types.Message{Type: types.MsgInterceptForward, Tx: pending("tx_2", "tab-2")})

	// The panel decides on the overwritten entry.
	res := f.coord.HandleMessage(ctx, types.Message{
		Type:     types.MsgDecision,
		Decision: &types.Decision{TxID: "tx_1", Action: types.ActionApprove},
	})
	require.True(t, res.Success)
	assert.Equal(t, true, res.Data["stale"])

	// The newer entry keeps the slot and the badge.
	got := f.coord.HandleMessage(ctx, types.Message{Type: types.MsgGetPending})
	assert.Equal(t, "tx_2", got.Data["pending"].(*types.PendingTransaction).ID)
	assert.Equal(t, BadgePending, f.badge.text)

	select {
	case <-oldTab.Receive():
		t.Fatal("stale decision must not be routed anywhere")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestDecisionValidation(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	res := f.coord.HandleMessage(ctx, types.Message{Type: types.MsgDecision})
	assert.False(t, res.Success)

	res = f.coord.HandleMessage(ctx, types.Message{
		Type:     types.MsgDecision,
		Decision: &types.Decision{TxID: "tx_1", Action: "shrug"},
	})
	assert.False(t, res.Success)
}

func TestStartupRecovery(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	f.coord.HandleMessage(ctx, types.Message{Type: types.MsgInterceptForward, Tx: pending("tx_1", "tab-1")})
	require.Equal(t, BadgePending, f.badge.text)

	// Restart: a fresh coordinator over the same store.
	restarted := New(Config{
		Store: f.store,
		Badge: f.badge,
		Relay: f.bus.Attach(relay.Coordinator),
	})
	require.NoError(t, restarted.Startup(ctx))

	assert.Empty(t, f.badge.text)
	got := restarted.HandleMessage(ctx, types.Message{Type: types.MsgGetPending})
	assert.Nil(t, got.Data["pending"])
}

func TestSettingsDefaultsWhenUnset(t *testing.T) {
	f := newFixture(t, nil)

	res := f.coord.HandleMessage(context.Background(), types.Message{Type: types.MsgGetSettings})
	require.True(t, res.Success)
	assert.Equal(t, types.DefaultSettings(), res.Data["settings"])
}

func TestSaveSettingsMergesPartialUpdate(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	res := f.coord.HandleMessage(ctx, types.Message{
		Type:     types.MsgSaveSettings,
		Settings: map[string]interface{}{"language": "zh", "auto_analyze": false},
	})
	require.True(t, res.Success)

	got := f.coord.HandleMessage(ctx, types.Message{Type: types.MsgGetSettings})
	settings := got.Data["settings"].(types.Settings)
	assert.Equal(t, "zh", settings.Language)
	assert.False(t, settings.AutoAnalyze)
	// Keys the save never named keep their defaults.
	assert.True(t, settings.InterceptEnabled)
}

func TestAnalyzeRecordsHistory(t *testing.T) {
	f := newFixture(t, &fakeAnalyzer{})
	ctx := context.Background()

	res := f.coord.HandleMessage(ctx, types.Message{
		Type:    types.MsgAnalyze,
		Analyze: &types.AnalyzeRequest{ChainID: 1, TxHash: "0xabc"},
	})
	require.True(t, res.Success)
	result := res.Data["analysis"].(*analysis.Result)
	assert.Equal(t, analysis.RiskLow, result.Explanation.RiskLevel)

	got := f.coord.HandleMessage(ctx, types.Message{Type: types.MsgGetHistory})
	require.True(t, got.Success)
	records := got.Data["history"].([]types.AnalysisRecord)
	require.Len(t, records, 1)
	assert.Equal(t, "0xabc", records[0].TxHash)
	assert.Equal(t, string(analysis.RiskLow), records[0].RiskLevel)
}

func TestHistoryBounded(t *testing.T) {
	f := newFixture(t, &fakeAnalyzer{})
	ctx := context.Background()

	for i := 0; i < HistoryLimit+10; i++ {
		res := f.coord.HandleMessage(ctx, types.Message{
			Type:    types.MsgAnalyze,
			Analyze: &types.AnalyzeRequest{ChainID: 1, TxHash: fmt.Sprintf("0x%04d", i)},
		})
		require.True(t, res.Success)
	}

	got := f.coord.HandleMessage(ctx, types.Message{Type: types.MsgGetHistory})
	records := got.Data["history"].([]types.AnalysisRecord)
	require.Len(t, records, HistoryLimit)
	// Oldest evicted first: entry 0..9 are gone.
	assert.Equal(t, "0x0010", records[0].TxHash)
	assert.Equal(t, fmt.Sprintf("0x%04d", HistoryLimit+9), records[len(records)-1].TxHash)
}

func TestAnalyzeTimeoutNormalized(t *testing.T) {
	f := newFixture(t, &fakeAnalyzer{err: context.DeadlineExceeded})

	res := f.coord.HandleMessage(context.Background(), types.Message{
		Type:    types.MsgAnalyze,
		Analyze: &types.AnalyzeRequest{ChainID: 1, TxHash: "0xslow"},
	})
	require.False(t, res.Success)
	assert.Equal(t, analysis.ErrTimeout.Error(), res.ErrorMessage())

	// Failed analyses never enter the history.
	got := f.coord.HandleMessage(context.Background(), types.Message{Type: types.MsgGetHistory})
	assert.Equal(t, 0, got.Data["count"])
}

func TestAnalyzeBackendErrorPropagates(t *testing.T) {
	f := newFixture(t, &fakeAnalyzer{err: errors.New("parse failed")})

	res := f.coord.HandleMessage(context.Background(), types.Message{
		Type:    types.MsgAnalyze,
		Analyze: &types.AnalyzeRequest{ChainID: 1, TxHash: "0xbad"},
	})
	require.False(t, res.Success)
	assert.Contains(t, res.ErrorMessage(), "parse failed")
}

func TestClearHistory(t *testing.T) {
	f := newFixture(t, &fakeAnalyzer{})
	ctx := context.Background()

	f.coord.HandleMessage(ctx, types.Message{
		Type:    types.MsgAnalyze,
		Analyze: &types.AnalyzeRequest{ChainID: 1, TxHash: "0x1"},
	})
	require.True(t, f.coord.HandleMessage(ctx, types.Message{Type: types.MsgClearHistory}).Success)

	got := f.coord.HandleMessage(ctx, types.Message{Type: types.MsgGetHistory})
	assert.Equal(t, 0, got.Data["count"])
}

func TestUnknownMessageTypeFails(t *testing.T) {
	f := newFixture(t, nil)

	res := f.coord.HandleMessage(context.Background(), types.Message{Type: "fetch-moon-phase"})
	require.False(t, res.Success)
	assert.Contains(t, res.ErrorMessage(), "unknown message type")
}

func TestHandlerPanicBecomesErrorResult(t *testing.T) {
	f := newFixture(t, &fakeAnalyzer{panics: true})

	res := f.coord.HandleMessage(context.Background(), types.Message{
		Type:    types.MsgAnalyze,
		Analyze: &types.AnalyzeRequest{ChainID: 1, TxHash: "0xboom"},
	})
	require.NotNil(t, res)
	require.False(t, res.Success)
	assert.Contains(t, res.ErrorMessage(), "internal error")
}

func TestHealthProxiesBackend(t *testing.T) {
	f := newFixture(t, &fakeAnalyzer{health: &analysis.Health{Status: "ok", Version: "1.0"}})

	res := f.coord.HandleMessage(context.Background(), types.Message{Type: types.MsgHealth})
	require.True(t, res.Success)
	health := res.Data["health"].(*analysis.Health)
	assert.Equal(t, "ok", health.Status)
}

func TestRunAnswersOverTheBus(t *testing.T) {
	f := newFixture(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go f.coord.Run(ctx)

	caller := f.bus.Attach("panel")
	res, err := caller.Call(ctx, relay.Coordinator, types.Message{Type: types.MsgGetPending})
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.Nil(t, res.Data["pending"])
}
