// Package testutil provides shared testing doubles for cross-package tests.
package testutil

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/GriffinCanCode/TxGate/internal/analysis"
	"github.com/GriffinCanCode/TxGate/internal/interceptor"
)

// MockAnalyzer is a testify mock of the coordinator's analysis dependency.
type MockAnalyzer struct {
	mock.Mock
}

// Analyze mocks the analysis dispatch.
func (m *MockAnalyzer) Analyze(ctx context.Context, req analysis.Request) (*analysis.Result, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*analysis.Result), args.Error(1)
}

// Health mocks the backend health probe.
func (m *MockAnalyzer) Health(ctx context.Context) (*analysis.Health, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*analysis.Health), args.Error(1)
}

// Chains mocks the supported-chain listing.
func (m *MockAnalyzer) Chains(ctx context.Context) ([]analysis.Chain, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]analysis.Chain), args.Error(1)
}

// NewMockAnalyzer creates a mock with a benign default analysis result.
func NewMockAnalyzer() *MockAnalyzer {
	m := new(MockAnalyzer)
	m.On("Analyze", mock.Anything, mock.Anything).Return(&analysis.Result{
		Parse: analysis.ParseResult{Behavior: "transfer"},
		Explanation: &analysis.Explanation{
			RiskLevel: analysis.RiskLow,
			Summary:   "routine transfer",
		},
	}, nil).Maybe()
	m.On("Health", mock.Anything).Return(&analysis.Health{Status: "ok", Version: "test"}, nil).Maybe()
	m.On("Chains", mock.Anything).Return([]analysis.Chain{{ID: 1, Name: "Ethereum"}}, nil).Maybe()
	return m
}

// Wallet is a scriptable wallet provider that records the requests it sees.
type Wallet struct {
	mu      sync.Mutex
	calls   []string
	ChainID interface{}
	TxHash  string
}

// NewWallet creates a wallet on chain 1 returning a fixed hash for sends.
func NewWallet() *Wallet {
	return &Wallet{ChainID: "0x1", TxHash: "0xsent"}
}

// Request implements interceptor.WalletProvider.
func (w *Wallet) Request(ctx context.Context, method string, params []interface{}) (interface{}, error) {
	w.mu.Lock()
	w.calls = append(w.calls, method)
	w.mu.Unlock()

	switch method {
	case interceptor.MethodChainID:
		return w.ChainID, nil
	case interceptor.MethodSendTransaction:
		return w.TxHash, nil
	default:
		return nil, nil
	}
}

// Sends reports how many transaction sends reached the wallet.
func (w *Wallet) Sends() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	n := 0
	for _, m := range w.calls {
		if m == interceptor.MethodSendTransaction {
			n++
		}
	}
	return n
}

// Page is a host with a swappable provider slot.
type Page struct {
	mu       sync.Mutex
	provider interceptor.WalletProvider
	origin   string
}

// NewPage creates a page hosting the given provider.
func NewPage(provider interceptor.WalletProvider, origin string) *Page {
	return &Page{provider: provider, origin: origin}
}

// Provider implements interceptor.Host.
func (p *Page) Provider() interceptor.WalletProvider {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.provider
}

// SetProvider implements interceptor.Host.
func (p *Page) SetProvider(w interceptor.WalletProvider) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.provider = w
}

// Origin implements interceptor.Host.
func (p *Page) Origin() string { return p.origin }
