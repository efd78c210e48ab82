package account

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/onemorebsmith/soroban-vault/src/common"
	"github.com/onemorebsmith/soroban-vault/src/model"
)

func TestRedisMirror(t *testing.T) {
	ctx := context.Background()
	client, err := common.ConfigureRedis(ctx, "localhost:6379")
	if err != nil {
		t.Skipf("redis unavailable: %s", err)
	}
	defer client.Close()

	mirror := NewRedisMirror(client, time.Minute)
	snap := model.AccountSnapshot{
		Address:       testAddress,
		NativeBalance: "7.0000000",
		Found:         true,
		FetchedAt:     time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	if err := mirror.Store(ctx, snap); err != nil {
		t.Fatal(err)
	}
	defer client.Del(ctx, snapshotKey(testAddress))

	loaded, ok, err := mirror.Load(ctx, testAddress)
	if err != nil || !ok {
		t.Fatalf("expected stored snapshot, got %v %v", ok, err)
	}
	if d := cmp.Diff(snap, loaded); d != "" {
		t.Fatalf("unexpected snapshot: %s", d)
	}
}
