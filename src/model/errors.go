package model

import (
	"fmt"

	"github.com/pkg/errors"
)

// Every error leaving the wallet, gateway or contracts packages matches exactly one of these
// with errors.Is, no matter how much context was wrapped around it.
var (
	ErrNoWalletExtension   = fmt.Errorf("no wallet extension")
	ErrPermissionDenied    = fmt.Errorf("wallet access denied")
	ErrSignatureDeclined   = fmt.Errorf("signature declined")
	ErrAccountNotFound     = fmt.Errorf("account not found")
	ErrSimulationFailed    = fmt.Errorf("simulation failed")
	ErrSubmissionFailed    = fmt.Errorf("submission failed")
	ErrConfirmationTimeout = fmt.Errorf("confirmation timeout")
	ErrContractNotDeployed = fmt.Errorf("contract not deployed")
	ErrNotConnected        = fmt.Errorf("wallet not connected")
	ErrTransport           = fmt.Errorf("transport error")
	ErrInvalidArgument     = fmt.Errorf("invalid argument")
	ErrInvalidAmount       = fmt.Errorf("invalid amount")
)

type ErrorKind string

const (
	KindNoWalletExtension   ErrorKind = "NoWalletExtension"
	KindPermissionDenied    ErrorKind = "PermissionDenied"
	KindSignatureDeclined   ErrorKind = "SignatureDeclined"
	KindAccountNotFound     ErrorKind = "AccountNotFound"
	KindSimulationFailed    ErrorKind = "SimulationFailed"
	KindSubmissionFailed    ErrorKind = "SubmissionFailed"
	KindConfirmationTimeout ErrorKind = "ConfirmationTimeout"
	KindContractNotDeployed ErrorKind = "ContractNotDeployed"
	KindNotConnected        ErrorKind = "NotConnected"
	KindTransport           ErrorKind = "TransportError"
	KindInvalidArgument     ErrorKind = "InvalidArgument"
	KindInvalidAmount       ErrorKind = "InvalidAmount"
	KindUnknown             ErrorKind = "Unknown"
)

var errorKinds = []struct {
	err  error
	kind ErrorKind
}{
	{ErrNoWalletExtension, KindNoWalletExtension},
	{ErrPermissionDenied, KindPermissionDenied},
	{ErrSignatureDeclined, KindSignatureDeclined},
	{ErrAccountNotFound, KindAccountNotFound},
	{ErrSimulationFailed, KindSimulationFailed},
	{ErrSubmissionFailed, KindSubmissionFailed},
	{ErrConfirmationTimeout, KindConfirmationTimeout},
	{ErrContractNotDeployed, KindContractNotDeployed},
	{ErrNotConnected, KindNotConnected},
	{ErrTransport, KindTransport},
	{ErrInvalidArgument, KindInvalidArgument},
	{ErrInvalidAmount, KindInvalidAmount},
}

// KindOf classifies an error against the taxonomy above. nil maps to "".
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindUnknown
}

// detailError attaches a detail to a kind, printing as `kind: detail`
type detailError struct {
	kind   error
	detail string
	cause  error
}

func (de *detailError) Error() string {
	return de.kind.Error() + ": " + de.detail
}

func (de *detailError) Is(target error) bool {
	return target == de.kind
}

func (de *detailError) Unwrap() error {
	return de.cause
}

// WithDetail tags detail with an error kind, e.g. WithDetail(ErrSimulationFailed, "HostError...")
func WithDetail(kind error, detail string) error {
	return &detailError{kind: kind, detail: detail}
}

// Classify tags an underlying error with a kind while keeping it reachable through errors.As
func Classify(kind error, cause error) error {
	if cause == nil {
		return nil
	}
	return &detailError{kind: kind, detail: cause.Error(), cause: cause}
}
