package wallet

import (
	"context"
	"fmt"
)

// ErrUserRejected is returned by an Extension when the user dismisses a prompt, either the
// connection prompt or a signature prompt. The session maps it onto the matching model error.
var ErrUserRejected = fmt.Errorf("user rejected the request")

// Extension is the boundary to the signing wallet. Everything behind it (key storage, prompts,
// the signing itself) is opaque to the session.
type Extension interface {
	IsExtensionPresent(ctx context.Context) (bool, error)
	HasStandingPermission(ctx context.Context) (bool, error)
	// RequestPermission prompts the user; returns ErrUserRejected when they say no
	RequestPermission(ctx context.Context) error
	GetActiveAddress(ctx context.Context) (string, error)
	// RequestSignature blocks until the user approves or rejects, there is no timeout
	RequestSignature(ctx context.Context, envelopeXDR string, networkPassphrase string) (string, error)
}
