package account

import (
	"context"
	"sync"
	"time"

	"github.com/onemorebsmith/soroban-vault/src/model"
	"github.com/onemorebsmith/soroban-vault/src/wallet"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type Loader interface {
	LoadAccount(ctx context.Context, address model.StellarAddr) (*model.LedgerAccount, error)
}

// Mirror receives every snapshot the cache stores and can hand back the last one it saw
type Mirror interface {
	Store(ctx context.Context, snap model.AccountSnapshot) error
	Load(ctx context.Context, address model.StellarAddr) (model.AccountSnapshot, bool, error)
}

const sessionRefreshTimeout = 10 * time.Second

// Cache holds the last known native balance per account. Snapshots are replaced whole, readers
// never observe a half written one.
type Cache struct {
	loader Loader
	mirror Mirror
	logger *zap.Logger

	mu        sync.RWMutex
	snapshots map[model.StellarAddr]model.AccountSnapshot
}

func NewCache(loader Loader, mirror Mirror, logger *zap.Logger) *Cache {
	return &Cache{
		loader:    loader,
		mirror:    mirror,
		logger:    logger.With(zap.String("component", "account_cache")),
		snapshots: map[model.StellarAddr]model.AccountSnapshot{},
	}
}

// Refresh reloads address from the ledger. An account that does not exist yet is not an error
// here: it is stored as a zero balance snapshot with Found == false.
func (c *Cache) Refresh(ctx context.Context, address model.StellarAddr) (model.AccountSnapshot, error) {
	acct, err := c.loader.LoadAccount(ctx, address)
	now := time.Now()

	var snap model.AccountSnapshot
	switch {
	case err == nil:
		snap = model.AccountSnapshot{
			Address:       address,
			NativeBalance: acct.NativeBalance,
			Found:         true,
			FetchedAt:     now,
		}
	case errors.Is(err, model.ErrAccountNotFound):
		snap = model.NotFoundSnapshot(address, now)
	default:
		return model.AccountSnapshot{}, errors.Wrapf(err, "failed refreshing %s", address)
	}

	c.mu.Lock()
	c.snapshots[address] = snap
	c.mu.Unlock()

	c.logger.Debug("account refreshed", zap.String("account", string(address)),
		zap.String("balance", snap.NativeBalance), zap.Bool("found", snap.Found))
	if c.mirror != nil {
		if err := c.mirror.Store(ctx, snap); err != nil {
			c.logger.Warn("failed mirroring snapshot", zap.Error(err))
		}
	}
	return snap, nil
}

func (c *Cache) Snapshot(address model.StellarAddr) (model.AccountSnapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	snap, ok := c.snapshots[address]
	return snap, ok
}

// Lookup is Snapshot falling back to the mirror, which may hold a snapshot written by another process
func (c *Cache) Lookup(ctx context.Context, address model.StellarAddr) (model.AccountSnapshot, bool, error) {
	if snap, ok := c.Snapshot(address); ok {
		return snap, true, nil
	}
	if c.mirror == nil {
		return model.AccountSnapshot{}, false, nil
	}
	return c.mirror.Load(ctx, address)
}

// AttachSession refreshes the identity every time the session becomes connected. The refresh
// runs on the transition, so a connect call returns with the balance already loaded.
func (c *Cache) AttachSession(s *wallet.Session) (cleanup func()) {
	return s.OnTransition(func(t model.SessionTransition) {
		if t.To.Status != model.SessionConnected {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), sessionRefreshTimeout)
		defer cancel()
		if _, err := c.Refresh(ctx, t.To.Identity.Address); err != nil {
			c.logger.Warn("failed loading balance for connected account", zap.Error(err))
		}
	})
}
