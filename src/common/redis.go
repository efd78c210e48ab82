package common

import (
	"context"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
)

func ConfigureRedis(ctx context.Context, addr string) (*redis.Client, error) {
	rd := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   0, // use default DB
	})
	if err := rd.Ping(ctx); err.Err() != nil {
		return nil, errors.Wrapf(err.Err(), "failed to ping redis at %s", addr)
	}
	return rd, nil
}
