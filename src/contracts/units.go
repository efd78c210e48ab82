package contracts

import (
	"math/big"

	"github.com/onemorebsmith/soroban-vault/src/model"
	"github.com/pkg/errors"
	"github.com/stellar/go/amount"
)

// AmountToStroops parses a decimal amount with at most 7 fractional digits into stroops.
// Zero and negative amounts are rejected, no contract action accepts them.
func AmountToStroops(value string) (int64, error) {
	stroops, err := amount.ParseInt64(value)
	if err != nil {
		return 0, errors.Wrapf(model.ErrInvalidAmount, "%q: %s", value, err)
	}
	if stroops <= 0 {
		return 0, errors.Wrapf(model.ErrInvalidAmount, "%q must be positive", value)
	}
	return stroops, nil
}

func StroopsToAmount(stroops int64) string {
	return amount.StringFromInt64(stroops)
}

// FormatStroops renders a contract i128 balance, which may not fit an int64, as a decimal amount.
// A nil value is an absent result, not zero, and is rejected.
func FormatStroops(v *big.Int) (string, error) {
	if v == nil {
		return "", errors.Wrap(model.ErrInvalidAmount, "no value")
	}
	out, err := amount.IntStringToAmount(v.String())
	if err != nil {
		return "", errors.Wrapf(model.ErrInvalidAmount, "%s: %s", v, err)
	}
	return out, nil
}
