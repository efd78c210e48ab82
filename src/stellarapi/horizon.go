package stellarapi

import (
	"context"

	"github.com/onemorebsmith/soroban-vault/src/model"
	"github.com/pkg/errors"
	"github.com/stellar/go/clients/horizonclient"
	"go.uber.org/zap"
)

// HorizonAPI is the classic full-history endpoint. It is only used to load account state.
type HorizonAPI struct {
	address string
	client  *horizonclient.Client
	logger  *zap.Logger
}

func NewHorizonAPI(horizonURL string, logger *zap.Logger) *HorizonAPI {
	return &HorizonAPI{
		address: horizonURL,
		client:  &horizonclient.Client{HorizonURL: horizonURL},
		logger:  logger.With(zap.String("address", horizonURL), zap.String("component", "horizon_api")),
	}
}

// LoadAccount fails with model.ErrAccountNotFound for addresses that were never funded, and
// with model.ErrTransport for everything else.
func (ha *HorizonAPI) LoadAccount(ctx context.Context, address model.StellarAddr) (*model.LedgerAccount, error) {
	if err := ctx.Err(); err != nil {
		return nil, model.Classify(model.ErrTransport, err)
	}
	ha.logger.Debug("loading account", zap.String("account", string(address)))
	acct, err := ha.client.AccountDetail(horizonclient.AccountRequest{AccountID: string(address)})
	if err != nil {
		if horizonclient.IsNotFoundError(err) {
			return nil, errors.Wrapf(model.ErrAccountNotFound, "account %s", address)
		}
		return nil, model.Classify(model.ErrTransport, errors.Wrapf(err, "failed loading account %s", address))
	}

	native := "0"
	for _, b := range acct.Balances {
		if b.Type == "native" {
			native = b.Balance
			break
		}
	}
	return &model.LedgerAccount{
		ID:            model.StellarAddr(acct.AccountID),
		Sequence:      acct.Sequence,
		NativeBalance: native,
	}, nil
}
