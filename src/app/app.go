package app

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/onemorebsmith/soroban-vault/src/account"
	"github.com/onemorebsmith/soroban-vault/src/common"
	"github.com/onemorebsmith/soroban-vault/src/contracts"
	"github.com/onemorebsmith/soroban-vault/src/gateway"
	"github.com/onemorebsmith/soroban-vault/src/model"
	"github.com/onemorebsmith/soroban-vault/src/notify"
	"github.com/onemorebsmith/soroban-vault/src/postgres"
	"github.com/onemorebsmith/soroban-vault/src/stellarapi"
	"github.com/onemorebsmith/soroban-vault/src/wallet"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// MockAccount is the identity the mock wallet reports when running against the mock backend
const MockAccount = "GBRPYHIL2CI3FNQ4BXLFMNDLFJUNPU2HY3ZMFSHONUCEOASW7QC7OX2H"

const (
	defaultActivityRetention = 1000
	snapshotTTL              = 24 * time.Hour
	pruneInterval            = 5 * time.Minute
)

// App owns every long lived component of one client process
type App struct {
	Config    Config
	Logger    *zap.Logger
	Session   *wallet.Session
	Gateway   *gateway.Gateway
	Accounts  *account.Cache
	Contracts *contracts.Facade
	Notifier  notify.Notifier

	redis   *redis.Client
	cleanup []func()
}

func New(ctx context.Context, cfg Config, approver wallet.Approver, logger *zap.Logger) (*App, error) {
	a := &App{Config: cfg, Logger: logger}

	var loader gateway.AccountLoader
	var backend gateway.Backend
	var ext wallet.Extension
	switch cfg.Backend {
	case BackendMock:
		mb := gateway.NewMockBackend()
		mb.FundAll = true
		me := wallet.NewMockExtension(MockAccount)
		me.Permitted = true
		loader, backend, ext = mb, mb, me
	case BackendRPC, "":
		loader = stellarapi.NewHorizonAPI(cfg.HorizonURL, logger)
		backend = gateway.NewRPCBackend(stellarapi.NewRPCAPI(cfg.RPCURL, logger))
		ext = wallet.NewLocalExtension(wallet.LocalExtensionConfig{
			KeystorePath:   cfg.Keystore,
			Password:       cfg.KeystorePassword,
			PermissionFile: cfg.PermissionFile,
		}, approver, logger)
	default:
		return nil, fmt.Errorf("unknown backend `%s`, expected `%s` or `%s`", cfg.Backend, BackendRPC, BackendMock)
	}
	a.Session = wallet.NewSession(ext, logger)

	var mirror account.Mirror
	if cfg.RedisConfig != "" {
		rd, err := common.ConfigureRedis(ctx, cfg.RedisConfig)
		if err != nil {
			return nil, errors.Wrap(err, "failed connecting to redis")
		}
		a.redis = rd
		a.cleanup = append(a.cleanup, func() { rd.Close() })
		a.cleanup = append(a.cleanup, wallet.NewRedisPublisher(rd, logger).Attach(a.Session))
		mirror = account.NewRedisMirror(rd, snapshotTTL)
	}

	notifiers := []notify.Notifier{notify.NewLogNotifier(logger)}
	if cfg.PostgresConfig != "" {
		postgres.ConfigurePostgres(cfg.PostgresConfig)
		if err := postgres.EnsureActivitySchema(ctx); err != nil {
			return nil, err
		}
		notifiers = append(notifiers, notify.NewActivityLog(a.currentAccount, logger))
	}
	a.Notifier = notify.Fanout(notifiers...)

	a.Accounts = account.NewCache(loader, mirror, logger)
	a.cleanup = append(a.cleanup, a.Accounts.AttachSession(a.Session))
	a.Gateway = gateway.New(cfg.GatewayConfig(), loader, backend, a.Session, a.Notifier, logger)
	a.Contracts = contracts.NewFacade(cfg.Registry(), a.Gateway, a.Session, a.Accounts, logger)
	return a, nil
}

func (a *App) currentAccount() string {
	id, _ := a.Session.CurrentIdentity()
	return string(id.Address)
}

// StartServices brings up the optional listeners and background jobs
func (a *App) StartServices(ctx context.Context) {
	if a.Config.PromPort != "" {
		common.StartPromServer(a.Logger, a.Config.PromPort)
	}
	if a.Config.HealthCheckPort != "" {
		a.beginReadyzHandler()
	}
	if postgres.Configured() {
		keep := a.Config.ActivityRetention
		if keep <= 0 {
			keep = defaultActivityRetention
		}
		go postgres.StartPruner(ctx, pruneInterval, keep, a.Logger)
	}
}

// RecentActivity lists the newest activity of the connected account, or of every account
// when nothing is connected.
func (a *App) RecentActivity(ctx context.Context, limit int) ([]postgres.ActivityEntry, error) {
	if !postgres.Configured() {
		return nil, errors.New("activity feed requires a postgres connection")
	}
	return postgres.GetRecentActivity(ctx, a.currentAccount(), limit)
}

// Balance returns the connected account's snapshot, refreshing it when the cache has none
func (a *App) Balance(ctx context.Context) (model.AccountSnapshot, error) {
	id, ok := a.Session.CurrentIdentity()
	if !ok {
		return model.AccountSnapshot{}, model.ErrNotConnected
	}
	if snap, ok, err := a.Accounts.Lookup(ctx, id.Address); err == nil && ok {
		return snap, nil
	}
	return a.Accounts.Refresh(ctx, id.Address)
}

func (a *App) Close() {
	for i := len(a.cleanup) - 1; i >= 0; i-- {
		a.cleanup[i]()
	}
}
