package gateway

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/onemorebsmith/soroban-vault/src/model"
	"github.com/onemorebsmith/soroban-vault/src/notify"
	"github.com/onemorebsmith/soroban-vault/src/stellarapi"
	"github.com/pkg/errors"
	"github.com/stellar/go/network"
	"github.com/stellar/go/txnbuild"
	"go.uber.org/zap"
)

type Config struct {
	NetworkPassphrase string
	PollInterval      time.Duration
	PollAttempts      int
	TxTimeoutSeconds  int64

	// DemoMode answers contracts whose address starts with PlaceholderPrefix locally
	DemoMode          bool
	PlaceholderPrefix string
	DemoReads         map[string]any
}

const (
	DefaultPollInterval      = 2 * time.Second
	DefaultPollAttempts      = 10
	DefaultTxTimeoutSeconds  = 30
	DefaultPlaceholderPrefix = "CMOCK"
)

func (c Config) withDefaults() Config {
	if c.NetworkPassphrase == "" {
		c.NetworkPassphrase = network.TestNetworkPassphrase
	}
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.PollAttempts <= 0 {
		c.PollAttempts = DefaultPollAttempts
	}
	if c.TxTimeoutSeconds <= 0 {
		c.TxTimeoutSeconds = DefaultTxTimeoutSeconds
	}
	if c.PlaceholderPrefix == "" {
		c.PlaceholderPrefix = DefaultPlaceholderPrefix
	}
	return c
}

// Gateway runs contract invocations against the ledger. Writes go through
// load account -> build -> simulate -> prepare -> sign -> submit -> poll, strictly in that order;
// reads stop after the simulation. Pipelines share nothing but the collaborators, so callers
// may run several at once.
type Gateway struct {
	cfg      Config
	accounts AccountLoader
	backend  Backend
	signer   Signer
	notifier notify.Notifier
	logger   *zap.Logger
}

func New(cfg Config, accounts AccountLoader, backend Backend, signer Signer, notifier notify.Notifier, logger *zap.Logger) *Gateway {
	if notifier == nil {
		notifier = notify.Nop
	}
	return &Gateway{
		cfg:      cfg.withDefaults(),
		accounts: accounts,
		backend:  backend,
		signer:   signer,
		notifier: notifier,
		logger:   logger.With(zap.String("component", "gateway")),
	}
}

func (g *Gateway) NetworkPassphrase() string {
	return g.cfg.NetworkPassphrase
}

type InvokeRequest struct {
	Contract  model.StellarAddr
	Function  string
	Args      []any
	Submitter model.Identity
	Memo      string
}

func (g *Gateway) isPlaceholder(contract model.StellarAddr) bool {
	return g.cfg.DemoMode && strings.HasPrefix(string(contract), g.cfg.PlaceholderPrefix)
}

// Invoke submits a state changing contract call signed by req.Submitter. Once a transaction was
// submitted the result is returned even alongside an error, so a timed out or failed
// transaction can still be looked up by hash.
func (g *Gateway) Invoke(ctx context.Context, req InvokeRequest) (result *model.TransactionResult, err error) {
	inv := model.NewPendingInvocation(req.Contract, req.Function, req.Args, req.Submitter)
	inv.Memo = req.Memo
	logger := g.logger.With(
		zap.String("invocation", inv.ID.String()),
		zap.String("contract", string(inv.Contract)),
		zap.String("function", inv.Function),
	)

	start := time.Now()
	defer func() {
		simulated := result != nil && result.Simulated
		invocationsTotal.WithLabelValues(inv.Function, outcome(err, simulated)).Inc()
		if !simulated {
			pipelineSeconds.Observe(time.Since(start).Seconds())
		}
		if err != nil {
			logger.Warn("invocation failed", zap.Error(err))
		}
	}()

	if g.isPlaceholder(inv.Contract) {
		logger.Info("placeholder contract, simulating write")
		g.notifier.Notify(ctx, notify.KindSuccess, fmt.Sprintf("%s completed (demo)", inv.Function))
		return &model.TransactionResult{
			Success:   true,
			Hash:      "demo-" + uuid.NewString(),
			Status:    model.TxStatusSuccess,
			Simulated: true,
		}, nil
	}
	if inv.Submitter.Empty() {
		return nil, model.ErrNotConnected
	}

	g.notifier.Notify(ctx, notify.KindProgress, fmt.Sprintf("Preparing %s...", inv.Function))
	return g.invoke(ctx, logger, inv)
}

func (g *Gateway) invoke(ctx context.Context, logger *zap.Logger, inv *model.PendingInvocation) (*model.TransactionResult, error) {
	account, err := g.accounts.LoadAccount(ctx, inv.Submitter.Address)
	if err != nil {
		if errors.Is(err, model.ErrAccountNotFound) {
			g.notifier.Notify(ctx, notify.KindError, "Account not found. Fund it before submitting transactions")
		}
		return nil, errors.Wrap(err, "failed loading submitter account")
	}

	args, err := MarshalArgs(inv.Args)
	if err != nil {
		return nil, errors.Wrapf(err, "failed encoding %s arguments", inv.Function)
	}
	source := &txnbuild.SimpleAccount{AccountID: string(account.ID), Sequence: account.Sequence}
	env, err := buildEnvelope(source, inv.Contract, inv.Function, args, inv.Memo, g.cfg.TxTimeoutSeconds)
	if err != nil {
		return nil, err
	}
	unprepared, err := env.base64()
	if err != nil {
		return nil, err
	}

	logger.Debug("simulating", zap.Int64("sequence", account.Sequence+1))
	sim, err := g.backend.Simulate(ctx, unprepared)
	if err != nil {
		return nil, errors.Wrap(err, "simulation request failed")
	}
	if sim.Error != "" {
		g.notifier.Notify(ctx, notify.KindError, fmt.Sprintf("Simulation failed: %s", sim.Error))
		return nil, model.WithDetail(model.ErrSimulationFailed, sim.Error)
	}
	if err := env.prepare(sim); err != nil {
		return nil, err
	}
	unsigned, err := env.base64()
	if err != nil {
		return nil, err
	}

	signed, err := g.signer.Sign(ctx, unsigned, g.cfg.NetworkPassphrase)
	if err != nil {
		if errors.Is(err, model.ErrSignatureDeclined) {
			g.notifier.Notify(ctx, notify.KindError, "Transaction signing was cancelled")
		}
		return nil, errors.Wrap(err, "failed signing transaction")
	}

	sent, err := g.backend.Submit(ctx, signed)
	if err != nil {
		return nil, errors.Wrap(err, "submission request failed")
	}
	logger = logger.With(zap.String("hash", sent.Hash))
	switch sent.Status {
	case stellarapi.SendStatusPending, stellarapi.SendStatusDuplicate:
	default:
		detail := fmt.Sprintf("status %s", sent.Status)
		if sent.ErrorResultXDR != "" {
			detail += " " + sent.ErrorResultXDR
		}
		g.notifier.Notify(ctx, notify.KindError, fmt.Sprintf("Submission rejected: %s", sent.Status))
		return nil, model.WithDetail(model.ErrSubmissionFailed, detail)
	}

	logger.Info("transaction submitted")
	g.notifier.Notify(ctx, notify.KindProgress, fmt.Sprintf("Transaction submitted: %s", sent.Hash))
	return g.awaitConfirmation(ctx, logger, sent.Hash)
}

// Read simulates a call from a placeholder source and decodes the return value. It never signs
// or submits. A contract that returns nothing yields nil.
func (g *Gateway) Read(ctx context.Context, contract model.StellarAddr, function string, args []any) (value any, err error) {
	defer func() {
		readsTotal.WithLabelValues(function, outcome(err, g.isPlaceholder(contract))).Inc()
	}()
	if g.isPlaceholder(contract) {
		return g.cfg.DemoReads[function], nil
	}

	scArgs, err := MarshalArgs(args)
	if err != nil {
		return nil, errors.Wrapf(err, "failed encoding %s arguments", function)
	}
	source := &txnbuild.SimpleAccount{AccountID: placeholderSource, Sequence: 0}
	env, err := buildEnvelope(source, contract, function, scArgs, "", g.cfg.TxTimeoutSeconds)
	if err != nil {
		return nil, err
	}
	envelope, err := env.base64()
	if err != nil {
		return nil, err
	}
	sim, err := g.backend.Simulate(ctx, envelope)
	if err != nil {
		return nil, errors.Wrapf(err, "%s simulation request failed", function)
	}
	if sim.Error != "" {
		return nil, model.WithDetail(model.ErrSimulationFailed, sim.Error)
	}
	return returnValue(sim)
}
