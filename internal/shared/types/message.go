package types

// Message types understood across contexts. Every cross-context send is one
// of these; the coordinator answers unknown types with an explicit error
// result rather than silently dropping them.
const (
	MsgInterceptNotify  = "intercept-notify"
	MsgInterceptForward = "intercept-forward"
	MsgDecision         = "decision"
	MsgGetPending       = "get-pending"
	MsgGetSettings      = "get-settings"
	MsgSaveSettings     = "save-settings"
	MsgAnalyze          = "analyze"
	MsgGetHistory       = "get-history"
	MsgClearHistory     = "clear-history"
	MsgHealth           = "health"
	MsgGetChains        = "get-chains"
)

// Message is the envelope for every cross-context send.
//
// Source is stamped by the relay with the sender's context name so receivers
// can reject frames that claim to come from somewhere they do not. Exactly
// one of the payload fields is set, matching Type.
type Message struct {
	Type     string                 `json:"type"`
	Source   string                 `json:"source,omitempty"`
	TabID    string                 `json:"tab_id,omitempty"`
	Tx       *PendingTransaction    `json:"tx,omitempty"`
	Decision *Decision              `json:"decision,omitempty"`
	Settings map[string]interface{} `json:"settings,omitempty"`
	Analyze  *AnalyzeRequest        `json:"analyze,omitempty"`
}

// AnalyzeRequest asks the coordinator to dispatch a backend analysis.
type AnalyzeRequest struct {
	ChainID int64           `json:"chain_id"`
	TxHash  string          `json:"tx_hash"`
	Options *AnalyzeOptions `json:"options,omitempty"`
}

// AnalyzeOptions mirror the backend's request options.
type AnalyzeOptions struct {
	IncludeExplanation bool   `json:"include_explanation"`
	IncludeTrace       bool   `json:"include_trace"`
	Language           string `json:"language"`
}
