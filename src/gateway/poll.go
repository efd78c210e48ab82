package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/onemorebsmith/soroban-vault/src/model"
	"github.com/onemorebsmith/soroban-vault/src/notify"
	"github.com/onemorebsmith/soroban-vault/src/stellarapi"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// awaitConfirmation queries the transaction status at most PollAttempts times, waiting
// PollInterval before each query. Running out of attempts is not a failure of the transaction,
// only of our patience, so the result carries TxStatusTimeout.
func (g *Gateway) awaitConfirmation(ctx context.Context, logger *zap.Logger, hash string) (*model.TransactionResult, error) {
	attempt := 0
	defer func() { pollAttempts.Observe(float64(attempt)) }()

	for attempt < g.cfg.PollAttempts {
		select {
		case <-time.After(g.cfg.PollInterval):
		case <-ctx.Done():
			return g.timedOut(ctx, hash, errors.Wrapf(model.ErrConfirmationTimeout, "%s: %s", hash, ctx.Err()))
		}
		attempt++

		status, err := g.backend.Poll(ctx, hash)
		if err != nil {
			logger.Warn("status query failed", zap.Int("attempt", attempt), zap.Error(err))
			continue
		}
		logger.Debug("polled transaction", zap.Int("attempt", attempt), zap.String("status", string(status.Status)))

		switch status.Status {
		case stellarapi.TransactionStatusSuccess:
			logger.Info("transaction confirmed", zap.Uint32("ledger", status.Ledger))
			g.notifier.Notify(ctx, notify.KindSuccess, fmt.Sprintf("Transaction confirmed: %s", hash))
			return &model.TransactionResult{
				Success: true,
				Hash:    hash,
				Status:  model.TxStatusSuccess,
				Raw:     status,
			}, nil
		case stellarapi.TransactionStatusFailed:
			logger.Warn("transaction failed", zap.String("result", status.ResultXDR))
			g.notifier.Notify(ctx, notify.KindError, fmt.Sprintf("Transaction failed: %s", hash))
			return &model.TransactionResult{
				Hash:   hash,
				Status: model.TxStatusFailed,
				Raw:    status,
			}, model.WithDetail(model.ErrSubmissionFailed, fmt.Sprintf("transaction %s failed on ledger %d", hash, status.Ledger))
		}
	}
	return g.timedOut(ctx, hash, errors.Wrapf(model.ErrConfirmationTimeout, "%s not confirmed after %d attempts", hash, attempt))
}

func (g *Gateway) timedOut(ctx context.Context, hash string, err error) (*model.TransactionResult, error) {
	g.notifier.Notify(ctx, notify.KindError, fmt.Sprintf("Transaction %s was submitted but not confirmed in time", hash))
	return &model.TransactionResult{
		Hash:   hash,
		Status: model.TxStatusTimeout,
	}, err
}
