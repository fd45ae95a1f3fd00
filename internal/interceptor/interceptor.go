package interceptor

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/TxGate/internal/infrastructure/logging"
	"github.com/GriffinCanCode/TxGate/internal/relay"
	"github.com/GriffinCanCode/TxGate/internal/shared/id"
	"github.com/GriffinCanCode/TxGate/internal/shared/types"
)

// WalletProvider is the page's wallet entry point.
type WalletProvider interface {
	Request(ctx context.Context, method string, params []interface{}) (interface{}, error)
}

// Host is the page the interceptor is injected into. The wallet provider
// may attach asynchronously; Provider returns nil until it has.
type Host interface {
	Provider() WalletProvider
	SetProvider(WalletProvider)
	Origin() string
}

const (
	MethodSendTransaction = "eth_sendTransaction"
	MethodChainID         = "eth_chainId"

	// DefaultChainID is the mainnet fallback when the chain id lookup fails.
	DefaultChainID int64 = 1

	defaultAttachWindow   = 10 * time.Second
	defaultAttachInterval = 100 * time.Millisecond
)

// ErrRejected is returned to the suspended caller when the operator rejects.
var ErrRejected = errors.New("transaction rejected by operator")

// Interceptor wraps a wallet provider's request function. It implements
// WalletProvider itself; Install swaps it in front of the original.
type Interceptor struct {
	host   Host
	relay  *relay.Context
	bridge string
	logger *logging.Logger

	attachWindow   time.Duration
	attachInterval time.Duration

	mu        sync.Mutex
	installed bool
	original  WalletProvider
	waiters   map[string]chan types.Decision
}

// New creates an interceptor for the given page. rc is the page realm's
// relay attachment; bridge names the bridge context to notify.
func New(host Host, rc *relay.Context, bridge string, logger *logging.Logger) *Interceptor {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Interceptor{
		host:           host,
		relay:          rc,
		bridge:         bridge,
		logger:         logger,
		attachWindow:   defaultAttachWindow,
		attachInterval: defaultAttachInterval,
		waiters:        make(map[string]chan types.Decision),
	}
}

// Install polls for the provider and wraps its request entry point. The
// provider may attach late; polling samples every 100ms for up to 10
// seconds and then gives up silently. Install is idempotent: a second
// injection of the same page finds the flag set and does nothing.
func (i *Interceptor) Install(ctx context.Context) {
	i.mu.Lock()
	if i.installed {
		i.mu.Unlock()
		return
	}
	i.installed = true
	i.mu.Unlock()

	deadline := time.Now().Add(i.attachWindow)
	ticker := time.NewTicker(i.attachInterval)
	defer ticker.Stop()

	for {
		if provider := i.host.Provider(); provider != nil {
			i.mu.Lock()
			i.original = provider
			i.mu.Unlock()
			i.host.SetProvider(i)
			i.logger.Debug("wallet provider wrapped")
			return
		}
		if time.Now().After(deadline) {
			i.logger.Debug("wallet provider never appeared, giving up")
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Run consumes the page realm's inbox and settles waiters from decision
// messages. It returns when ctx is done, which models the page unloading.
func (i *Interceptor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case d := <-i.relay.Receive():
			if d.Msg.Type != types.MsgDecision || d.Msg.Decision == nil {
				i.logger.Debug("page realm ignoring message", zap.String("type", d.Msg.Type))
				continue
			}
			i.settle(*d.Msg.Decision)
			d.Reply(types.OK(nil))
		}
	}
}

// Request implements WalletProvider. Non-send methods call through to the
// original unmodified; a transaction send suspends until its decision.
func (i *Interceptor) Request(ctx context.Context, method string, params []interface{}) (interface{}, error) {
	if method != MethodSendTransaction {
		return i.original.Request(ctx, method, params)
	}

	chainID := i.resolveChainID(ctx)
	txID := id.NewTxID().String()

	ch := make(chan types.Decision, 1)
	i.mu.Lock()
	i.waiters[txID] = ch
	i.mu.Unlock()

	i.relay.Post(i.bridge, types.Message{
		Type: types.MsgInterceptNotify,
		Tx: &types.PendingTransaction{
			ID:      txID,
			ChainID: chainID,
			Tx:      extractTxParams(params),
			// Advisory only: the bridge re-stamps origin from its own
			// navigation context before anything trusts it.
			Origin:    i.host.Origin(),
			Timestamp: time.Now(),
		},
	})

	select {
	case dec := <-ch:
		if dec.Action == types.ActionApprove {
			// Replay through the captured pre-wrap entry point. This is
			// the re-entrancy bypass: the wrapper never sees its own replay.
			return i.original.Request(ctx, method, params)
		}
		return nil, ErrRejected
	case <-ctx.Done():
		i.mu.Lock()
		delete(i.waiters, txID)
		i.mu.Unlock()
		return nil, ctx.Err()
	}
}

// settle resolves the waiter for a decision id exactly once. The waiter is
// removed from the map before the send, so a duplicate decision finds
// nothing and is a no-op.
func (i *Interceptor) settle(dec types.Decision) {
	i.mu.Lock()
	ch, ok := i.waiters[dec.TxID]
	if ok {
		delete(i.waiters, dec.TxID)
	}
	i.mu.Unlock()

	if !ok {
		// The call may have completed already, or the page was reloaded.
		i.logger.Debug("decision for unknown transaction id", zap.String("tx_id", dec.TxID))
		return
	}
	ch <- dec
}

// WaiterCount reports how many calls are currently suspended.
func (i *Interceptor) WaiterCount() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.waiters)
}

// resolveChainID asks the provider for the active chain, falling back to
// mainnet when the lookup fails in any way.
func (i *Interceptor) resolveChainID(ctx context.Context) int64 {
	lookupCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	raw, err := i.original.Request(lookupCtx, MethodChainID, nil)
	if err != nil {
		i.logger.Debug("chain id lookup failed", zap.Error(err))
		return DefaultChainID
	}
	chainID, ok := parseChainID(raw)
	if !ok {
		return DefaultChainID
	}
	return chainID
}
