package contracts

import (
	"context"
	"fmt"
	"math/big"
	"strconv"

	"github.com/onemorebsmith/soroban-vault/src/gateway"
	"github.com/onemorebsmith/soroban-vault/src/model"
	"github.com/pkg/errors"
	"github.com/stellar/go/amount"
	"go.uber.org/zap"
)

const DefaultCountry = "USA"

type Invoker interface {
	Invoke(ctx context.Context, req gateway.InvokeRequest) (*model.TransactionResult, error)
	Read(ctx context.Context, contract model.StellarAddr, function string, args []any) (any, error)
}

type IdentitySource interface {
	CurrentIdentity() (model.Identity, bool)
}

type Refresher interface {
	Refresh(ctx context.Context, address model.StellarAddr) (model.AccountSnapshot, error)
}

// Facade maps user actions onto contract functions. Every action checks the identity and the
// registry before anything goes over the network.
type Facade struct {
	registry model.ContractRegistry
	gateway  Invoker
	identity IdentitySource
	accounts Refresher
	logger   *zap.Logger
}

func NewFacade(registry model.ContractRegistry, gw Invoker, identity IdentitySource, accounts Refresher, logger *zap.Logger) *Facade {
	return &Facade{
		registry: registry,
		gateway:  gw,
		identity: identity,
		accounts: accounts,
		logger:   logger.With(zap.String("component", "contracts")),
	}
}

func (f *Facade) resolve(name model.ContractName, needIdentity bool) (model.StellarAddr, model.Identity, error) {
	var id model.Identity
	if needIdentity {
		current, ok := f.identity.CurrentIdentity()
		if !ok {
			return "", id, model.ErrNotConnected
		}
		id = current
	}
	addr, ok := f.registry.Lookup(name)
	if !ok {
		return "", id, model.WithDetail(model.ErrContractNotDeployed, string(name))
	}
	return addr, id, nil
}

type argsFunc func(user model.Identity) ([]any, error)

func (f *Facade) write(ctx context.Context, name model.ContractName, function string, args argsFunc) (*model.TransactionResult, error) {
	contract, id, err := f.resolve(name, true)
	if err != nil {
		return nil, err
	}
	callArgs, err := args(id)
	if err != nil {
		return nil, err
	}

	res, err := f.gateway.Invoke(ctx, gateway.InvokeRequest{
		Contract:  contract,
		Function:  function,
		Args:      callArgs,
		Submitter: id,
	})
	if err != nil {
		return res, errors.Wrapf(err, "%s %s", name, function)
	}
	if res.Success && !res.Simulated {
		if _, err := f.accounts.Refresh(ctx, id.Address); err != nil {
			f.logger.Warn("failed refreshing balance after invocation", zap.Error(err))
		}
	}
	return res, nil
}

func (f *Facade) read(ctx context.Context, name model.ContractName, function string, needIdentity bool, args argsFunc) (any, error) {
	contract, id, err := f.resolve(name, needIdentity)
	if err != nil {
		return nil, err
	}
	callArgs, err := args(id)
	if err != nil {
		return nil, err
	}
	val, err := f.gateway.Read(ctx, contract, function, callArgs)
	if err != nil {
		return nil, errors.Wrapf(err, "%s %s", name, function)
	}
	return val, nil
}

func userOnly(user model.Identity) ([]any, error) {
	return []any{gateway.Address(user.Address)}, nil
}

func userAndAmount(value string) argsFunc {
	return func(user model.Identity) ([]any, error) {
		stroops, err := AmountToStroops(value)
		if err != nil {
			return nil, err
		}
		return []any{gateway.Address(user.Address), big.NewInt(stroops)}, nil
	}
}

// Stake is a yield position: the staked amount and the ledger time it was last updated
type Stake struct {
	Amount string
	Since  uint64
}

// decodeAmount turns a read result into a decimal amount. Ledger integers are stroops.
// Numbers and strings can only come from configured demo values and are already decimal.
func decodeAmount(val any) (string, error) {
	switch v := val.(type) {
	case *big.Int:
		return FormatStroops(v)
	case int64:
		return StroopsToAmount(v), nil
	case uint64:
		return FormatStroops(new(big.Int).SetUint64(v))
	case int:
		return decimalAmount(strconv.Itoa(v))
	case float64:
		return decimalAmount(strconv.FormatFloat(v, 'f', -1, 64))
	case string:
		return decimalAmount(v)
	}
	return "", errors.Wrapf(model.ErrInvalidArgument, "unexpected amount type %T", val)
}

func decimalAmount(v string) (string, error) {
	stroops, err := amount.ParseInt64(v)
	if err != nil {
		return "", errors.Wrapf(model.ErrInvalidAmount, "%q: %s", v, err)
	}
	return StroopsToAmount(stroops), nil
}

// readAmount reports found == false when the contract produced no value, which is not a zero balance
func readAmount(val any, err error) (string, bool, error) {
	if err != nil || val == nil {
		return "", false, err
	}
	out, err := decodeAmount(val)
	if err != nil {
		return "", false, err
	}
	return out, true, nil
}

func decodeStake(val any) (*Stake, error) {
	tuple, ok := val.([]any)
	if !ok {
		// demo values configure the amount only
		staked, err := decodeAmount(val)
		if err != nil {
			return nil, err
		}
		return &Stake{Amount: staked}, nil
	}
	if len(tuple) != 2 {
		return nil, errors.Wrapf(model.ErrInvalidArgument, "stake has %d fields, expected 2", len(tuple))
	}
	staked, err := decodeAmount(tuple[0])
	if err != nil {
		return nil, err
	}
	since, ok := tuple[1].(uint64)
	if !ok {
		return nil, errors.Wrapf(model.ErrInvalidArgument, "unexpected stake timestamp type %T", tuple[1])
	}
	return &Stake{Amount: staked, Since: since}, nil
}

func (f *Facade) DepositToSavings(ctx context.Context, value string) (*model.TransactionResult, error) {
	return f.write(ctx, model.ContractSavings, "deposit", userAndAmount(value))
}

func (f *Facade) WithdrawFromSavings(ctx context.Context, value string) (*model.TransactionResult, error) {
	return f.write(ctx, model.ContractSavings, "withdraw", userAndAmount(value))
}

func (f *Facade) LockSavings(ctx context.Context, seconds uint64) (*model.TransactionResult, error) {
	return f.write(ctx, model.ContractSavings, "lock_funds", func(user model.Identity) ([]any, error) {
		if seconds == 0 {
			return nil, errors.Wrap(model.ErrInvalidArgument, "lock duration must be positive")
		}
		return []any{gateway.Address(user.Address), gateway.U64(seconds)}, nil
	})
}

// GetSavingsBalance returns found == false when the contract returned nothing
func (f *Facade) GetSavingsBalance(ctx context.Context) (balance string, found bool, err error) {
	return readAmount(f.read(ctx, model.ContractSavings, "get_balance", true, userOnly))
}

// GetLockStatus returns the unlock time of the account's savings, nil when the contract returned nothing
func (f *Facade) GetLockStatus(ctx context.Context) (any, error) {
	return f.read(ctx, model.ContractSavings, "get_lock_status", true, userOnly)
}

func (f *Facade) DepositForYield(ctx context.Context, value string) (*model.TransactionResult, error) {
	return f.write(ctx, model.ContractDefiYield, "deposit_yield", userAndAmount(value))
}

func (f *Facade) HarvestYield(ctx context.Context) (*model.TransactionResult, error) {
	return f.write(ctx, model.ContractDefiYield, "harvest_yield", userOnly)
}

// GetStake returns nil when the contract returned nothing
func (f *Facade) GetStake(ctx context.Context) (*Stake, error) {
	val, err := f.read(ctx, model.ContractDefiYield, "get_stake", true, userOnly)
	if err != nil || val == nil {
		return nil, err
	}
	return decodeStake(val)
}

func (f *Facade) DepositToHedge(ctx context.Context, value string) (*model.TransactionResult, error) {
	return f.write(ctx, model.ContractInflationHedge, "deposit", userAndAmount(value))
}

func (f *Facade) WithdrawFromHedge(ctx context.Context, value string) (*model.TransactionResult, error) {
	return f.write(ctx, model.ContractInflationHedge, "withdraw", userAndAmount(value))
}

func (f *Facade) RebalanceHedge(ctx context.Context, country string) (*model.TransactionResult, error) {
	if country == "" {
		country = DefaultCountry
	}
	return f.write(ctx, model.ContractInflationHedge, "rebalance", func(user model.Identity) ([]any, error) {
		return []any{gateway.Address(user.Address), gateway.Symbol(country)}, nil
	})
}

func (f *Facade) GetAllocation(ctx context.Context) (any, error) {
	return f.read(ctx, model.ContractInflationHedge, "get_allocation", true, userOnly)
}

// GetInflationData reads the oracle, which does not need a connected wallet
func (f *Facade) GetInflationData(ctx context.Context, country string) (any, error) {
	if country == "" {
		country = DefaultCountry
	}
	return f.read(ctx, model.ContractOracle, "get_cpi", false, func(model.Identity) ([]any, error) {
		return []any{gateway.Symbol(country)}, nil
	})
}

// Deployments lists every known contract with its display address
func (f *Facade) Deployments() []string {
	out := make([]string, 0, len(model.AllContracts))
	for _, name := range model.AllContracts {
		addr, _ := f.registry.Lookup(name)
		out = append(out, fmt.Sprintf("%-16s %s", name, FormatContractAddress(addr)))
	}
	return out
}
