package common

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestBroadcastOrderAndCleanup(t *testing.T) {
	b := NewBroadcaster[int]()
	var got []string
	cleanA := b.On(func(i int) { got = append(got, "a") })
	b.On(func(i int) { got = append(got, "b") })

	b.Broadcast(1)
	cleanA()
	b.Broadcast(2)

	if d := cmp.Diff([]string{"a", "b", "b"}, got); d != "" {
		t.Fatalf("unexpected delivery: %s", d)
	}
}
