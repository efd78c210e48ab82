package notify

import (
	"context"
	"time"

	"github.com/onemorebsmith/soroban-vault/src/postgres"
	"go.uber.org/zap"
)

// ActivityLog persists notifications to the activity table. The account is resolved at write time
// so entries follow whichever identity is connected.
type ActivityLog struct {
	account func() string
	logger  *zap.Logger
}

func NewActivityLog(account func() string, logger *zap.Logger) *ActivityLog {
	return &ActivityLog{
		account: account,
		logger:  logger.With(zap.String("component", "activity")),
	}
}

func (al *ActivityLog) Notify(ctx context.Context, kind Kind, message string) {
	entry := postgres.ActivityEntry{
		Kind:      string(kind),
		Message:   message,
		Timestamp: time.Now(),
	}
	if al.account != nil {
		entry.Account = al.account()
	}
	if err := postgres.PutActivity(ctx, entry); err != nil {
		// losing an activity row never fails the operation that produced it
		al.logger.Warn("failed recording activity", zap.Error(err))
	}
}
