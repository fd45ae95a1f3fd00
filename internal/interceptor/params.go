package interceptor

import (
	"strconv"

	"github.com/GriffinCanCode/TxGate/internal/shared/types"
)

// parseChainID accepts the shapes providers actually return for
// eth_chainId: hex strings ("0x1"), decimal strings, or numbers.
func parseChainID(raw interface{}) (int64, bool) {
	switch v := raw.(type) {
	case string:
		n, err := strconv.ParseInt(v, 0, 64)
		if err != nil || n <= 0 {
			return 0, false
		}
		return n, true
	case int64:
		return v, v > 0
	case int:
		return int64(v), v > 0
	case float64:
		return int64(v), v > 0
	default:
		return 0, false
	}
}

// extractTxParams captures the first call parameter as raw transaction
// fields, without normalizing any value. Unrecognized shapes produce an
// empty TxParams rather than an error; interception never breaks the call.
func extractTxParams(params []interface{}) types.TxParams {
	if len(params) == 0 {
		return types.TxParams{}
	}

	switch v := params[0].(type) {
	case types.TxParams:
		return v
	case *types.TxParams:
		if v != nil {
			return *v
		}
	case map[string]interface{}:
		return types.TxParams{
			From:     stringField(v, "from"),
			To:       stringField(v, "to"),
			Data:     stringField(v, "data"),
			Value:    stringField(v, "value"),
			Gas:      stringField(v, "gas"),
			GasPrice: stringField(v, "gasPrice"),
		}
	}
	return types.TxParams{}
}

func stringField(m map[string]interface{}, key string) string {
	s, _ := m[key].(string)
	return s
}
