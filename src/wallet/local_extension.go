package wallet

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/stellar/go/keypair"
	"github.com/stellar/go/txnbuild"
	"go.uber.org/zap"
)

type LocalExtensionConfig struct {
	KeystorePath   string
	Password       string
	PermissionFile string // presence of this file is the standing permission
}

// LocalExtension is a wallet living on this machine: an encrypted keystore for the key, a
// grant file for the standing permission and an Approver for the prompts.
type LocalExtension struct {
	cfg      LocalExtensionConfig
	approver Approver
	logger   *zap.Logger

	keyLock sync.Mutex
	kp      *keypair.Full
}

func NewLocalExtension(cfg LocalExtensionConfig, approver Approver, logger *zap.Logger) *LocalExtension {
	return &LocalExtension{
		cfg:      cfg,
		approver: approver,
		logger:   logger.With(zap.String("component", "local_wallet")),
	}
}

func fileExists(path string) (bool, error) {
	if path == "" {
		return false, nil
	}
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

func (le *LocalExtension) IsExtensionPresent(ctx context.Context) (bool, error) {
	return fileExists(le.cfg.KeystorePath)
}

func (le *LocalExtension) HasStandingPermission(ctx context.Context) (bool, error) {
	return fileExists(le.cfg.PermissionFile)
}

func (le *LocalExtension) unlock() (*keypair.Full, error) {
	le.keyLock.Lock()
	defer le.keyLock.Unlock()
	if le.kp != nil {
		return le.kp, nil
	}
	kp, err := OpenKeystore(le.cfg.KeystorePath, le.cfg.Password)
	if err != nil {
		return nil, err
	}
	le.kp = kp
	return kp, nil
}

func (le *LocalExtension) RequestPermission(ctx context.Context) error {
	kp, err := le.unlock()
	if err != nil {
		return err
	}
	ok, err := le.approver.ApproveConnection(ctx, kp.Address())
	if err != nil {
		return errors.Wrap(err, "connection prompt failed")
	}
	if !ok {
		return ErrUserRejected
	}
	if le.cfg.PermissionFile == "" {
		return errors.New("no permission file configured, access cannot be remembered")
	}
	if err := os.WriteFile(le.cfg.PermissionFile, []byte(kp.Address()+"\n"), 0600); err != nil {
		return errors.Wrap(err, "failed recording wallet permission")
	}
	le.logger.Info("access granted", zap.String("account", kp.Address()))
	return nil
}

func (le *LocalExtension) GetActiveAddress(ctx context.Context) (string, error) {
	kp, err := le.unlock()
	if err != nil {
		return "", err
	}
	return kp.Address(), nil
}

func (le *LocalExtension) RequestSignature(ctx context.Context, envelopeXDR string, networkPassphrase string) (string, error) {
	kp, err := le.unlock()
	if err != nil {
		return "", err
	}
	generic, err := txnbuild.TransactionFromXDR(envelopeXDR)
	if err != nil {
		return "", errors.Wrap(err, "wallet could not decode the transaction")
	}
	tx, ok := generic.Transaction()
	if !ok {
		return "", errors.New("fee bump transactions are not supported")
	}

	ok, err = le.approver.ApproveSignature(ctx, kp.Address(), Summarize(tx))
	if err != nil {
		return "", errors.Wrap(err, "signature prompt failed")
	}
	if !ok {
		return "", ErrUserRejected
	}

	signed, err := tx.Sign(networkPassphrase, kp)
	if err != nil {
		return "", errors.Wrap(err, "failed signing transaction")
	}
	return signed.Base64()
}

// Summarize renders what the user is being asked to sign
func Summarize(tx *txnbuild.Transaction) string {
	parts := []string{}
	for _, op := range tx.Operations() {
		invoke, ok := op.(*txnbuild.InvokeHostFunction)
		if !ok || invoke.HostFunction.InvokeContract == nil {
			parts = append(parts, fmt.Sprintf("%T", op))
			continue
		}
		args := invoke.HostFunction.InvokeContract
		parts = append(parts, fmt.Sprintf("invoke %s (%d args)", args.FunctionName, len(args.Args)))
	}
	return fmt.Sprintf("%s, max fee %d stroops", strings.Join(parts, "; "), tx.MaxFee())
}
