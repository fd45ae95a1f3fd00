package types

import "time"

// Action is the operator's verdict for a pending transaction.
type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
)

// Valid reports whether the action is a known verdict.
func (a Action) Valid() bool {
	return a == ActionApprove || a == ActionReject
}

// TxParams holds the raw, un-normalized parameters captured from a wallet
// provider call. Values stay exactly as the page supplied them.
type TxParams struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Data     string `json:"data"`
	Value    string `json:"value"`
	Gas      string `json:"gas,omitempty"`
	GasPrice string `json:"gasPrice,omitempty"`
}

// PendingTransaction is a transaction suspended between interception and an
// operator decision.
//
// ID is generated by the interceptor at interception time and round-trips
// unchanged through every hop. Origin and TabID are captured by the bridge;
// interceptor-supplied origin is never trusted because page code could spoof
// it. Timestamp is for display and ordering only.
type PendingTransaction struct {
	ID        string    `json:"id"`
	ChainID   int64     `json:"chain_id"`
	Tx        TxParams  `json:"tx"`
	Origin    string    `json:"origin"`
	TabID     string    `json:"tab_id"`
	Timestamp time.Time `json:"timestamp"`
}

// Decision resolves a pending transaction id. No other payload.
type Decision struct {
	TxID   string `json:"tx_id"`
	Action Action `json:"action"`
}

// AnalysisRecord is one entry of the bounded analysis history.
type AnalysisRecord struct {
	TxHash    string    `json:"tx_hash"`
	ChainID   int64     `json:"chain_id"`
	RiskLevel string    `json:"risk_level"`
	Summary   string    `json:"summary"`
	Timestamp time.Time `json:"timestamp"`
}
