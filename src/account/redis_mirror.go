package account

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/onemorebsmith/soroban-vault/src/model"
	"github.com/pkg/errors"
)

const snapshotKeyPrefix = "vault:snapshot:"

// RedisMirror keeps one hash per account
type RedisMirror struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisMirror(client *redis.Client, ttl time.Duration) *RedisMirror {
	return &RedisMirror{client: client, ttl: ttl}
}

func snapshotKey(address model.StellarAddr) string {
	return fmt.Sprintf("%s%s", snapshotKeyPrefix, address)
}

func (rm *RedisMirror) Store(ctx context.Context, snap model.AccountSnapshot) error {
	key := snapshotKey(snap.Address)
	_, err := rm.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key,
			"balance", snap.NativeBalance,
			"found", strconv.FormatBool(snap.Found),
			"fetched_at", snap.FetchedAt.UTC().Format(time.RFC3339Nano),
		)
		if rm.ttl > 0 {
			pipe.Expire(ctx, key, rm.ttl)
		}
		return nil
	})
	return errors.Wrapf(err, "failed storing snapshot for %s", snap.Address)
}

func (rm *RedisMirror) Load(ctx context.Context, address model.StellarAddr) (model.AccountSnapshot, bool, error) {
	fields, err := rm.client.HGetAll(ctx, snapshotKey(address)).Result()
	if err != nil {
		return model.AccountSnapshot{}, false, errors.Wrapf(err, "failed loading snapshot for %s", address)
	}
	if len(fields) == 0 {
		return model.AccountSnapshot{}, false, nil
	}
	found, _ := strconv.ParseBool(fields["found"])
	fetchedAt, _ := time.Parse(time.RFC3339Nano, fields["fetched_at"])
	return model.AccountSnapshot{
		Address:       address,
		NativeBalance: fields["balance"],
		Found:         found,
		FetchedAt:     fetchedAt,
	}, true, nil
}
