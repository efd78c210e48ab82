package model

import "github.com/google/uuid"

type TxStatus string

const ( // terminal statuses of a submitted transaction
	TxStatusSuccess TxStatus = "success"
	TxStatusFailed  TxStatus = "failed"
	TxStatusTimeout TxStatus = "timeout" // fate unknown, not negative
)

// PendingInvocation only lives for the duration of one write pipeline
type PendingInvocation struct {
	ID        uuid.UUID
	Contract  StellarAddr
	Function  string
	Args      []any
	Submitter Identity
	Memo      string
}

func NewPendingInvocation(contract StellarAddr, function string, args []any, submitter Identity) *PendingInvocation {
	return &PendingInvocation{
		ID:        uuid.New(),
		Contract:  contract,
		Function:  function,
		Args:      args,
		Submitter: submitter,
	}
}

type TransactionResult struct {
	Success   bool
	Hash      string
	Status    TxStatus
	Raw       any
	Simulated bool // produced by demo mode, never touched the network
}
