package types

// Result is the structured outcome of a message handler. Handlers catch
// their own failures and encode them here, so a caller that receives any
// response at all receives a well-formed one.
type Result struct {
	Success bool                   `json:"success"`
	Data    map[string]interface{} `json:"data,omitempty"`
	Error   *string                `json:"error,omitempty"`
}

// OK builds a success result.
func OK(data map[string]interface{}) *Result {
	return &Result{Success: true, Data: data}
}

// Fail builds an error result.
func Fail(message string) *Result {
	return &Result{Success: false, Error: &message}
}

// ErrorMessage returns the error text, or "" for a success result.
func (r *Result) ErrorMessage() string {
	if r == nil || r.Error == nil {
		return ""
	}
	return *r.Error
}
