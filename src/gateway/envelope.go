package gateway

import (
	"github.com/onemorebsmith/soroban-vault/src/model"
	"github.com/onemorebsmith/soroban-vault/src/stellarapi"
	"github.com/pkg/errors"
	"github.com/stellar/go/txnbuild"
	"github.com/stellar/go/xdr"
)

// placeholderSource is the all-zero account. Read-only simulations never need a funded source.
const placeholderSource = "GAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAWHF"

type envelope struct {
	params txnbuild.TransactionParams
	op     *txnbuild.InvokeHostFunction
	tx     *txnbuild.Transaction
}

func buildEnvelope(source txnbuild.Account, contract model.StellarAddr, function string, args []xdr.ScVal, memo string, timeoutSeconds int64) (*envelope, error) {
	contractAddr, err := scAddress(string(contract))
	if err != nil {
		return nil, errors.Wrapf(err, "contract %s", contract)
	}
	op := &txnbuild.InvokeHostFunction{
		HostFunction: xdr.HostFunction{
			Type: xdr.HostFunctionTypeHostFunctionTypeInvokeContract,
			InvokeContract: &xdr.InvokeContractArgs{
				ContractAddress: contractAddr,
				FunctionName:    xdr.ScSymbol(function),
				Args:            args,
			},
		},
	}
	params := txnbuild.TransactionParams{
		SourceAccount:        source,
		IncrementSequenceNum: true,
		BaseFee:              txnbuild.MinBaseFee,
		Operations:           []txnbuild.Operation{op},
		Preconditions:        txnbuild.Preconditions{TimeBounds: txnbuild.NewTimeout(timeoutSeconds)},
	}
	if memo != "" {
		params.Memo = txnbuild.MemoText(memo)
	}
	tx, err := txnbuild.NewTransaction(params)
	if err != nil {
		return nil, model.Classify(model.ErrInvalidArgument, errors.Wrap(err, "failed building transaction"))
	}
	// the account sequence was bumped by the build above, rebuilds must reuse it
	params.IncrementSequenceNum = false
	return &envelope{params: params, op: op, tx: tx}, nil
}

// prepare applies the footprint, auth entries and resource fee from a successful simulation
func (e *envelope) prepare(sim *stellarapi.SimulateTransactionResponse) error {
	var data xdr.SorobanTransactionData
	if err := xdr.SafeUnmarshalBase64(sim.TransactionData, &data); err != nil {
		return model.Classify(model.ErrSimulationFailed, errors.Wrap(err, "undecodable transactionData"))
	}
	e.op.Ext = xdr.TransactionExt{V: 1, SorobanData: &data}

	e.op.Auth = nil
	if len(sim.Results) > 0 {
		for _, raw := range sim.Results[0].Auth {
			var entry xdr.SorobanAuthorizationEntry
			if err := xdr.SafeUnmarshalBase64(raw, &entry); err != nil {
				return model.Classify(model.ErrSimulationFailed, errors.Wrap(err, "undecodable auth entry"))
			}
			e.op.Auth = append(e.op.Auth, entry)
		}
	}

	e.params.BaseFee += sim.MinResourceFee
	tx, err := txnbuild.NewTransaction(e.params)
	if err != nil {
		return model.Classify(model.ErrSimulationFailed, errors.Wrap(err, "failed assembling transaction"))
	}
	e.tx = tx
	return nil
}

func (e *envelope) base64() (string, error) {
	out, err := e.tx.Base64()
	if err != nil {
		return "", model.Classify(model.ErrInvalidArgument, errors.Wrap(err, "failed encoding envelope"))
	}
	return out, nil
}

// returnValue decodes the first host function result, nil when the call produced nothing
func returnValue(sim *stellarapi.SimulateTransactionResponse) (any, error) {
	if len(sim.Results) == 0 || sim.Results[0].XDR == "" {
		return nil, nil
	}
	var val xdr.ScVal
	if err := xdr.SafeUnmarshalBase64(sim.Results[0].XDR, &val); err != nil {
		return nil, model.Classify(model.ErrSimulationFailed, errors.Wrap(err, "undecodable return value"))
	}
	return ToNative(val)
}
