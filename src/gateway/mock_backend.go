package gateway

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"

	"github.com/onemorebsmith/soroban-vault/src/model"
	"github.com/onemorebsmith/soroban-vault/src/stellarapi"
	"github.com/pkg/errors"
	"github.com/stellar/go/txnbuild"
	"github.com/stellar/go/xdr"
)

const mockResourceFee = 50000

// MockBackend is an in-process ledger. It answers account loads, simulations, submissions and
// polls from its fields and counts every call so tests can assert which steps ran.
type MockBackend struct {
	mu sync.Mutex

	Accounts map[model.StellarAddr]*model.LedgerAccount
	// FundAll answers unknown accounts with a funded account instead of not found
	FundAll bool

	SimulationError string
	ReturnValues    map[string]xdr.ScVal // keyed by contract function
	Auth            []string
	SendStatus      stellarapi.SendStatus
	// PollStatuses are handed out one per poll; the last one repeats. Empty means SUCCESS.
	PollStatuses []stellarapi.TransactionStatus
	Err          error // transport failure returned from every call when set

	LoadCalls     int
	SimulateCalls int
	SubmitCalls   int
	PollCalls     int
	Submitted     []string
	Functions     []string
}

func NewMockBackend() *MockBackend {
	return &MockBackend{
		Accounts:     map[model.StellarAddr]*model.LedgerAccount{},
		ReturnValues: map[string]xdr.ScVal{},
		SendStatus:   stellarapi.SendStatusPending,
	}
}

func (mb *MockBackend) Fund(address model.StellarAddr, balance string) {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	mb.Accounts[address] = &model.LedgerAccount{ID: address, Sequence: 100, NativeBalance: balance}
}

func (mb *MockBackend) LoadAccount(ctx context.Context, address model.StellarAddr) (*model.LedgerAccount, error) {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	mb.LoadCalls++
	if mb.Err != nil {
		return nil, model.Classify(model.ErrTransport, mb.Err)
	}
	acct, ok := mb.Accounts[address]
	if !ok {
		if !mb.FundAll {
			return nil, errors.Wrapf(model.ErrAccountNotFound, "account %s", address)
		}
		acct = &model.LedgerAccount{ID: address, Sequence: 100, NativeBalance: "10000.0000000"}
		mb.Accounts[address] = acct
	}
	out := *acct
	return &out, nil
}

func invokedFunction(envelope string) (string, error) {
	gtx, err := txnbuild.TransactionFromXDR(envelope)
	if err != nil {
		return "", err
	}
	tx, ok := gtx.Transaction()
	if !ok || len(tx.Operations()) != 1 {
		return "", errors.New("expected a single operation transaction")
	}
	op, ok := tx.Operations()[0].(*txnbuild.InvokeHostFunction)
	if !ok || op.HostFunction.InvokeContract == nil {
		return "", errors.New("expected a contract invocation")
	}
	return string(op.HostFunction.InvokeContract.FunctionName), nil
}

func (mb *MockBackend) Simulate(ctx context.Context, envelope string) (*stellarapi.SimulateTransactionResponse, error) {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	mb.SimulateCalls++
	if mb.Err != nil {
		return nil, model.Classify(model.ErrTransport, mb.Err)
	}
	fn, err := invokedFunction(envelope)
	if err != nil {
		return &stellarapi.SimulateTransactionResponse{Error: err.Error()}, nil
	}
	mb.Functions = append(mb.Functions, fn)
	if mb.SimulationError != "" {
		return &stellarapi.SimulateTransactionResponse{Error: mb.SimulationError}, nil
	}

	data, err := xdr.MarshalBase64(xdr.SorobanTransactionData{ResourceFee: mockResourceFee})
	if err != nil {
		return nil, err
	}
	result := stellarapi.SimulateHostFunctionResult{Auth: mb.Auth}
	if val, ok := mb.ReturnValues[fn]; ok {
		if result.XDR, err = xdr.MarshalBase64(val); err != nil {
			return nil, err
		}
	}
	return &stellarapi.SimulateTransactionResponse{
		TransactionData: data,
		MinResourceFee:  mockResourceFee,
		Results:         []stellarapi.SimulateHostFunctionResult{result},
	}, nil
}

func (mb *MockBackend) Submit(ctx context.Context, envelope string) (*stellarapi.SendTransactionResponse, error) {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	mb.SubmitCalls++
	if mb.Err != nil {
		return nil, model.Classify(model.ErrTransport, mb.Err)
	}
	mb.Submitted = append(mb.Submitted, envelope)
	sum := sha256.Sum256([]byte(envelope))
	return &stellarapi.SendTransactionResponse{
		Status: mb.SendStatus,
		Hash:   hex.EncodeToString(sum[:]),
	}, nil
}

func (mb *MockBackend) Poll(ctx context.Context, hash string) (*stellarapi.GetTransactionResponse, error) {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	mb.PollCalls++
	if mb.Err != nil {
		return nil, model.Classify(model.ErrTransport, mb.Err)
	}
	status := stellarapi.TransactionStatusSuccess
	if n := len(mb.PollStatuses); n > 0 {
		idx := mb.PollCalls - 1
		if idx >= n {
			idx = n - 1
		}
		status = mb.PollStatuses[idx]
	}
	return &stellarapi.GetTransactionResponse{Status: status}, nil
}

// Calls returns the load, simulate, submit and poll counters
func (mb *MockBackend) Calls() (load, simulate, submit, poll int) {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	return mb.LoadCalls, mb.SimulateCalls, mb.SubmitCalls, mb.PollCalls
}
