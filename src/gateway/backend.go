package gateway

import (
	"context"

	"github.com/onemorebsmith/soroban-vault/src/model"
	"github.com/onemorebsmith/soroban-vault/src/stellarapi"
)

// AccountLoader resolves the signer's account, failing with model.ErrAccountNotFound when
// the account was never funded.
type AccountLoader interface {
	LoadAccount(ctx context.Context, address model.StellarAddr) (*model.LedgerAccount, error)
}

// Backend is the ledger node. Errors returned from it are transport failures; simulation and
// submission rejections are reported inside the responses.
type Backend interface {
	Simulate(ctx context.Context, envelope string) (*stellarapi.SimulateTransactionResponse, error)
	Submit(ctx context.Context, envelope string) (*stellarapi.SendTransactionResponse, error)
	Poll(ctx context.Context, hash string) (*stellarapi.GetTransactionResponse, error)
}

// Signer is satisfied by *wallet.Session
type Signer interface {
	Sign(ctx context.Context, envelopeXDR string, networkPassphrase string) (string, error)
}

type RPCBackend struct {
	api *stellarapi.RPCAPI
}

func NewRPCBackend(api *stellarapi.RPCAPI) *RPCBackend {
	return &RPCBackend{api: api}
}

func (rb *RPCBackend) Simulate(ctx context.Context, envelope string) (*stellarapi.SimulateTransactionResponse, error) {
	return rb.api.SimulateTransaction(ctx, envelope)
}

func (rb *RPCBackend) Submit(ctx context.Context, envelope string) (*stellarapi.SendTransactionResponse, error) {
	return rb.api.SendTransaction(ctx, envelope)
}

func (rb *RPCBackend) Poll(ctx context.Context, hash string) (*stellarapi.GetTransactionResponse, error) {
	return rb.api.GetTransaction(ctx, hash)
}
