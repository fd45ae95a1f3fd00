package analysis

// RiskLevel classifies the backend's verdict.
type RiskLevel string

const (
	RiskLow     RiskLevel = "low"
	RiskMedium  RiskLevel = "medium"
	RiskHigh    RiskLevel = "high"
	RiskUnknown RiskLevel = "unknown"
)

// Request is the body of POST /v1/tx/analyze.
type Request struct {
	ChainID int64   `json:"chain_id"`
	TxHash  string  `json:"tx_hash"`
	Options Options `json:"options"`
}

// Options select what the backend computes.
type Options struct {
	IncludeExplanation bool   `json:"include_explanation"`
	IncludeTrace       bool   `json:"include_trace"`
	Language           string `json:"language"` // "zh" or "en"
}

// Result is the backend's analysis response.
type Result struct {
	Parse       ParseResult  `json:"parse_result"`
	Explanation *Explanation `json:"explanation,omitempty"`
}

// ParseResult is the decoded behavior classification.
type ParseResult struct {
	Behavior string `json:"behavior"`
	Contract string `json:"contract,omitempty"`
	Method   string `json:"method,omitempty"`
}

// Explanation is the optional human-readable assessment.
type Explanation struct {
	RiskLevel RiskLevel `json:"risk_level"`
	Summary   string    `json:"summary"`
	Details   string    `json:"details,omitempty"`
}

// Health is the response of GET /healthz.
type Health struct {
	Status  string `json:"status"` // "ok", "degraded" or "unhealthy"
	Version string `json:"version"`
}

// Chain describes one supported chain from GET /v1/chains.
type Chain struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
