package stellarapi

import "encoding/json"

type jsonRPCRequest struct {
	Version string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

type jsonRPCResponse struct {
	Version string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return e.Message
}

type SimulateHostFunctionResult struct {
	Auth []string `json:"auth"`
	XDR  string   `json:"xdr"`
}

// SimulateTransactionResponse - Error is set when the contract call itself would fail.
type SimulateTransactionResponse struct {
	Error           string                       `json:"error,omitempty"`
	TransactionData string                       `json:"transactionData,omitempty"`
	MinResourceFee  int64                        `json:"minResourceFee,string,omitempty"`
	Results         []SimulateHostFunctionResult `json:"results,omitempty"`
	LatestLedger    uint32                       `json:"latestLedger"`
}

type SendStatus string

const (
	SendStatusPending       SendStatus = "PENDING"
	SendStatusDuplicate     SendStatus = "DUPLICATE"
	SendStatusTryAgainLater SendStatus = "TRY_AGAIN_LATER"
	SendStatusError         SendStatus = "ERROR"
)

type SendTransactionResponse struct {
	Status         SendStatus `json:"status"`
	Hash           string     `json:"hash"`
	ErrorResultXDR string     `json:"errorResultXdr,omitempty"`
	LatestLedger   uint32     `json:"latestLedger"`
}

type TransactionStatus string

const (
	TransactionStatusSuccess  TransactionStatus = "SUCCESS"
	TransactionStatusNotFound TransactionStatus = "NOT_FOUND"
	TransactionStatusFailed   TransactionStatus = "FAILED"
)

type GetTransactionResponse struct {
	Status        TransactionStatus `json:"status"`
	ResultXDR     string            `json:"resultXdr,omitempty"`
	ResultMetaXDR string            `json:"resultMetaXdr,omitempty"`
	Ledger        uint32            `json:"ledger,omitempty"`
	LatestLedger  uint32            `json:"latestLedger"`
}
