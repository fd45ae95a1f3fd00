//go:build integration
// +build integration

package integration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/TxGate/internal/bridge"
	"github.com/GriffinCanCode/TxGate/internal/coordinator"
	"github.com/GriffinCanCode/TxGate/internal/interceptor"
	"github.com/GriffinCanCode/TxGate/internal/panel"
	"github.com/GriffinCanCode/TxGate/internal/relay"
	"github.com/GriffinCanCode/TxGate/internal/shared/types"
	"github.com/GriffinCanCode/TxGate/internal/storage"
	"github.com/GriffinCanCode/TxGate/tests/helpers/testutil"
)

// pipeline assembles a full deployment: one page with a wallet, its
// bridge, the coordinator over a store, and a panel.
type pipeline struct {
	bus    *relay.Bus
	store  storage.Store
	wallet *testutil.Wallet
	icept  *interceptor.Interceptor
	panel  *panel.Panel
	cancel context.CancelFunc
}

func startPipeline(t *testing.T) *pipeline {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	bus := relay.New(nil)
	store := storage.NewMemory()

	coord := coordinator.New(coordinator.Config{
		Store:    store,
		Relay:    bus.Attach(relay.Coordinator),
		Analyzer: testutil.NewMockAnalyzer(),
	})
	require.NoError(t, coord.Startup(ctx))
	go coord.Run(ctx)

	tabRC := bus.Attach(relay.TabContext("tab-1"))
	pageRC := bus.Attach(relay.PageContext("tab-1"))

	br := bridge.New(tabRC, relay.PageContext("tab-1"), relay.Coordinator,
		"tab-1", "https://dapp.example", nil)
	go br.Run(ctx)

	wallet := testutil.NewWallet()
	page := testutil.NewPage(wallet, "https://dapp.example")
	icept := interceptor.New(page, pageRC, relay.TabContext("tab-1"), nil)
	icept.Install(ctx)
	go icept.Run(ctx)

	p := panel.New(bus.Attach(relay.Panel), relay.Coordinator, nil)

	return &pipeline{bus: bus, store: store, wallet: wallet, icept: icept, panel: p, cancel: cancel}
}

func TestApproveFlowEndToEnd(t *testing.T) {
	pl := startPipeline(t)
	ctx := context.Background()

	// The page calls the wallet through the wrapped provider.
	type sendResult struct {
		out interface{}
		err error
	}
	resultCh := make(chan sendResult, 1)
	go func() {
		out, err := pl.icept.Request(ctx, interceptor.MethodSendTransaction, []interface{}{
			map[string]interface{}{"from": "0xme", "to": "0xyou", "value": "0x1"},
		})
		resultCh <- sendResult{out, err}
	}()

	// The panel eventually sees the pending entry.
	var view *panel.View
	require.Eventually(t, func() bool {
		v, err := pl.panel.Open(ctx)
		if err != nil || v.Pending == nil {
			return false
		}
		view = v
		return true
	}, 2*time.Second, 20*time.Millisecond)

	assert.Equal(t, "https://dapp.example", view.Pending.Origin)
	assert.Equal(t, "tab-1", view.Pending.TabID)
	require.NotNil(t, view.Analysis, "auto-analyze is on by default")

	// The operator approves; the suspended call completes with the
	// wallet's own response.
	require.NoError(t, pl.panel.Decide(ctx, view.Pending.ID, types.ActionApprove))

	select {
	case res := <-resultCh:
		require.NoError(t, res.err)
		assert.Equal(t, "0xsent", res.out)
	case <-time.After(2 * time.Second):
		t.Fatal("approved send never completed")
	}
	assert.Equal(t, 1, pl.wallet.Sends())

	// The slot is clear again.
	v, err := pl.panel.Open(ctx)
	require.NoError(t, err)
	assert.Nil(t, v.Pending)
}

func TestRejectFlowEndToEnd(t *testing.T) {
	pl := startPipeline(t)
	ctx := context.Background()

	errCh := make(chan error, 1)
	go func() {
		_, err := pl.icept.Request(ctx, interceptor.MethodSendTransaction, nil)
		errCh <- err
	}()

	var view *panel.View
	require.Eventually(t, func() bool {
		v, err := pl.panel.Open(ctx)
		if err != nil || v.Pending == nil {
			return false
		}
		view = v
		return true
	}, 2*time.Second, 20*time.Millisecond)

	require.NoError(t, pl.panel.Decide(ctx, view.Pending.ID, types.ActionReject))

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, interceptor.ErrRejected)
	case <-time.After(2 * time.Second):
		t.Fatal("rejected send never completed")
	}
	assert.Equal(t, 0, pl.wallet.Sends())
}

func TestDisabledInterceptionBypassesEndToEnd(t *testing.T) {
	pl := startPipeline(t)
	ctx := context.Background()

	// Turn interception off through the same path the options page uses.
	settingsRC := pl.bus.Attach("options")
	res, err := settingsRC.Call(ctx, relay.Coordinator, types.Message{
		Type:     types.MsgSaveSettings,
		Settings: map[string]interface{}{"intercept_enabled": false},
	})
	require.NoError(t, err)
	require.True(t, res.Success)

	// The send completes without any operator involvement.
	out, err := pl.icept.Request(ctx, interceptor.MethodSendTransaction, nil)
	require.NoError(t, err)
	assert.Equal(t, "0xsent", out)

	// Nothing was ever parked for the panel.
	v, err := pl.panel.Open(ctx)
	require.NoError(t, err)
	assert.Nil(t, v.Pending)
}

func TestCoordinatorRestartRecovery(t *testing.T) {
	pl := startPipeline(t)
	ctx := context.Background()

	go pl.icept.Request(ctx, interceptor.MethodSendTransaction, nil)

	require.Eventually(t, func() bool {
		v, err := pl.panel.Open(ctx)
		return err == nil && v.Pending != nil
	}, 2*time.Second, 20*time.Millisecond)

	// The coordinator dies and comes back over the same store. The waiter
	// in the page is orphaned, mirroring a wallet popup that never
	// resolves after its extension restarts.
	pl.cancel()
	restartCtx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	restarted := coordinator.New(coordinator.Config{
		Store:    pl.store,
		Relay:    pl.bus.Attach(relay.Coordinator),
		Analyzer: testutil.NewMockAnalyzer(),
	})
	require.NoError(t, restarted.Startup(restartCtx))
	go restarted.Run(restartCtx)

	v, err := pl.panel.Open(ctx)
	require.NoError(t, err)
	assert.Nil(t, v.Pending, "recovery must clear the stale pending entry")
}
