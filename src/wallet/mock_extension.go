package wallet

import (
	"context"
	"sync"
)

// MockExtension is a scripted wallet. Tests flip its fields to model a user granting or
// rejecting access and signatures; the counters record what the session asked for.
type MockExtension struct {
	mu sync.Mutex

	Present          bool
	Permitted        bool
	GrantOnRequest   bool
	RejectSignatures bool
	Address          string
	Err              error // returned from every call when set

	PermissionRequests int
	SignatureRequests  int
}

func NewMockExtension(address string) *MockExtension {
	return &MockExtension{
		Present:        true,
		GrantOnRequest: true,
		Address:        address,
	}
}

func (me *MockExtension) IsExtensionPresent(ctx context.Context) (bool, error) {
	me.mu.Lock()
	defer me.mu.Unlock()
	return me.Present, me.Err
}

func (me *MockExtension) HasStandingPermission(ctx context.Context) (bool, error) {
	me.mu.Lock()
	defer me.mu.Unlock()
	return me.Permitted, me.Err
}

func (me *MockExtension) RequestPermission(ctx context.Context) error {
	me.mu.Lock()
	defer me.mu.Unlock()
	me.PermissionRequests++
	if me.Err != nil {
		return me.Err
	}
	if !me.GrantOnRequest {
		return ErrUserRejected
	}
	me.Permitted = true
	return nil
}

func (me *MockExtension) GetActiveAddress(ctx context.Context) (string, error) {
	me.mu.Lock()
	defer me.mu.Unlock()
	return me.Address, me.Err
}

// RequestSignature hands the envelope back unchanged, there is no key behind the mock
func (me *MockExtension) RequestSignature(ctx context.Context, envelopeXDR string, networkPassphrase string) (string, error) {
	me.mu.Lock()
	defer me.mu.Unlock()
	me.SignatureRequests++
	if me.Err != nil {
		return "", me.Err
	}
	if me.RejectSignatures {
		return "", ErrUserRejected
	}
	return envelopeXDR, nil
}
