package wallet

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stellar/go/keypair"
	"github.com/stellar/go/network"
	"github.com/stellar/go/txnbuild"
	"go.uber.org/zap"
)

func TestKeystoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wallet.json")
	kp := keypair.MustRandom()
	if err := CreateKeystore(path, "hunter2", kp); err != nil {
		t.Fatal(err)
	}
	if err := CreateKeystore(path, "hunter2", kp); err == nil {
		t.Fatal("existing keystore must not be overwritten")
	}

	opened, err := OpenKeystore(path, "hunter2")
	if err != nil {
		t.Fatal(err)
	}
	if opened.Seed() != kp.Seed() {
		t.Fatal("seed changed across the round trip")
	}
	if _, err := OpenKeystore(path, "wrong"); !errors.Is(err, ErrBadPassword) {
		t.Fatalf("expected bad password, got %v", err)
	}
}

type scriptedApprover struct {
	connect, sign bool
}

func (sa scriptedApprover) ApproveConnection(ctx context.Context, address string) (bool, error) {
	return sa.connect, nil
}

func (sa scriptedApprover) ApproveSignature(ctx context.Context, address string, summary string) (bool, error) {
	return sa.sign, nil
}

func TestLocalExtension(t *testing.T) {
	dir := t.TempDir()
	kp := keypair.MustRandom()
	cfg := LocalExtensionConfig{
		KeystorePath:   filepath.Join(dir, "wallet.json"),
		Password:       "hunter2",
		PermissionFile: filepath.Join(dir, "granted"),
	}
	ctx := context.Background()

	ext := NewLocalExtension(cfg, scriptedApprover{connect: false}, zap.NewNop())
	if present, _ := ext.IsExtensionPresent(ctx); present {
		t.Fatal("no keystore yet, extension should be absent")
	}
	if err := CreateKeystore(cfg.KeystorePath, cfg.Password, kp); err != nil {
		t.Fatal(err)
	}
	if present, _ := ext.IsExtensionPresent(ctx); !present {
		t.Fatal("keystore exists, extension should be present")
	}
	if err := ext.RequestPermission(ctx); !errors.Is(err, ErrUserRejected) {
		t.Fatalf("expected rejection, got %v", err)
	}

	ext = NewLocalExtension(cfg, scriptedApprover{connect: true, sign: true}, zap.NewNop())
	if err := ext.RequestPermission(ctx); err != nil {
		t.Fatal(err)
	}
	if granted, _ := ext.HasStandingPermission(ctx); !granted {
		t.Fatal("permission should persist in the grant file")
	}
	addr, err := ext.GetActiveAddress(ctx)
	if err != nil || addr != kp.Address() {
		t.Fatalf("unexpected address %s %v", addr, err)
	}

	source := txnbuild.NewSimpleAccount(kp.Address(), 1)
	tx, err := txnbuild.NewTransaction(txnbuild.TransactionParams{
		SourceAccount:        &source,
		IncrementSequenceNum: true,
		BaseFee:              txnbuild.MinBaseFee,
		Preconditions:        txnbuild.Preconditions{TimeBounds: txnbuild.NewTimeout(30)},
		Operations:           []txnbuild.Operation{&txnbuild.BumpSequence{BumpTo: 10}},
	})
	if err != nil {
		t.Fatal(err)
	}
	unsigned, err := tx.Base64()
	if err != nil {
		t.Fatal(err)
	}
	signed, err := ext.RequestSignature(ctx, unsigned, network.TestNetworkPassphrase)
	if err != nil {
		t.Fatal(err)
	}
	parsed, err := txnbuild.TransactionFromXDR(signed)
	if err != nil {
		t.Fatal(err)
	}
	parsedTx, _ := parsed.Transaction()
	if len(parsedTx.Signatures()) != 1 {
		t.Fatalf("expected one signature, got %d", len(parsedTx.Signatures()))
	}

	ext = NewLocalExtension(cfg, scriptedApprover{connect: true, sign: false}, zap.NewNop())
	if _, err := ext.RequestSignature(ctx, unsigned, network.TestNetworkPassphrase); !errors.Is(err, ErrUserRejected) {
		t.Fatalf("expected signature rejection, got %v", err)
	}
}
