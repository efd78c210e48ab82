package wallet

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/onemorebsmith/soroban-vault/src/model"
	"go.uber.org/zap"
)

const testAddress = "GBRPYHIL2CI3FNQ4BXLFMNDLFJUNPU2HY3ZMFSHONUCEOASW7QC7OX2H"

func recordStatuses(s *Session) *[]model.SessionStatus {
	seen := &[]model.SessionStatus{}
	s.OnTransition(func(t model.SessionTransition) {
		*seen = append(*seen, t.To.Status)
	})
	return seen
}

func TestProbeWithoutExtension(t *testing.T) {
	ext := NewMockExtension(testAddress)
	ext.Present = false
	s := NewSession(ext, zap.NewNop())
	seen := recordStatuses(s)

	st := s.Probe(context.Background())
	if st.Status != model.SessionDisconnected {
		t.Fatalf("missing extension should leave the session disconnected, got %s", st)
	}
	if d := cmp.Diff([]model.SessionStatus{model.SessionChecking, model.SessionDisconnected}, *seen); d != "" {
		t.Fatalf("unexpected transitions: %s", d)
	}

	_, err := s.RequestConnection(context.Background())
	if model.KindOf(err) != model.KindNoWalletExtension {
		t.Fatalf("expected NoWalletExtension, got %v", err)
	}
	if s.State().Status != model.SessionError {
		t.Fatalf("expected error state, got %s", s.State())
	}
}

func TestProbeWithStandingPermission(t *testing.T) {
	ext := NewMockExtension(testAddress)
	ext.Permitted = true
	s := NewSession(ext, zap.NewNop())

	st := s.Probe(context.Background())
	if !st.Connected() || st.Identity.Address != testAddress {
		t.Fatalf("expected connected session for %s, got %s", testAddress, st)
	}
	if ext.PermissionRequests != 0 {
		t.Fatal("probe must never prompt")
	}
}

func TestNeverConnectedWithoutAddress(t *testing.T) {
	for _, permitted := range []bool{true, false} {
		ext := NewMockExtension("")
		ext.Permitted = permitted
		s := NewSession(ext, zap.NewNop())
		s.OnTransition(func(tr model.SessionTransition) {
			if tr.To.Status == model.SessionConnected && tr.To.Identity.Address == "" {
				t.Fatalf("connected without an address")
			}
		})
		s.Probe(context.Background())
		if _, err := s.RequestConnection(context.Background()); err == nil {
			t.Fatal("connection without an address should fail")
		}
		if s.State().Status == model.SessionConnected {
			t.Fatal("connected without an address")
		}
	}
}

func TestRequestConnectionDenied(t *testing.T) {
	ext := NewMockExtension(testAddress)
	ext.GrantOnRequest = false
	s := NewSession(ext, zap.NewNop())
	s.Probe(context.Background())

	_, err := s.RequestConnection(context.Background())
	if model.KindOf(err) != model.KindPermissionDenied {
		t.Fatalf("expected PermissionDenied, got %v", err)
	}
	if s.State().Status != model.SessionDisconnected {
		t.Fatalf("declined access should settle disconnected, got %s", s.State())
	}
}

func TestRequestConnectionIdempotent(t *testing.T) {
	ext := NewMockExtension(testAddress)
	s := NewSession(ext, zap.NewNop())
	seen := recordStatuses(s)

	first, err := s.RequestConnection(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	second, err := s.RequestConnection(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff(first, second); d != "" {
		t.Fatalf("identity changed between calls: %s", d)
	}
	if ext.PermissionRequests != 1 {
		t.Fatalf("expected a single prompt, got %d", ext.PermissionRequests)
	}
	expected := []model.SessionStatus{
		model.SessionChecking, model.SessionDisconnected, model.SessionConnecting, model.SessionConnected,
	}
	if d := cmp.Diff(expected, *seen); d != "" {
		t.Fatalf("unexpected transitions: %s", d)
	}
}

func TestDisconnectThenProbeStaysDisconnected(t *testing.T) {
	ext := NewMockExtension(testAddress)
	ext.Permitted = true
	s := NewSession(ext, zap.NewNop())
	if st := s.Probe(context.Background()); !st.Connected() {
		t.Fatalf("expected connected, got %s", st)
	}

	s.Disconnect()
	if _, ok := s.CurrentIdentity(); ok {
		t.Fatal("identity should be cleared on disconnect")
	}
	if st := s.Probe(context.Background()); st.Status != model.SessionDisconnected {
		t.Fatalf("probe after disconnect must not reconnect, got %s", st)
	}

	// the wallet still trusts us, so an explicit request reconnects without prompting
	if _, err := s.RequestConnection(context.Background()); err != nil {
		t.Fatal(err)
	}
	if ext.PermissionRequests != 0 {
		t.Fatal("standing permission should skip the prompt")
	}
}

func TestSign(t *testing.T) {
	ext := NewMockExtension(testAddress)
	s := NewSession(ext, zap.NewNop())

	if _, err := s.Sign(context.Background(), "AAAA", "passphrase"); model.KindOf(err) != model.KindNotConnected {
		t.Fatalf("expected NotConnected, got %v", err)
	}
	if ext.SignatureRequests != 0 {
		t.Fatal("no signature should be requested while disconnected")
	}

	if _, err := s.RequestConnection(context.Background()); err != nil {
		t.Fatal(err)
	}
	signed, err := s.Sign(context.Background(), "AAAA", "passphrase")
	if err != nil || signed != "AAAA" {
		t.Fatalf("unexpected sign result %s %v", signed, err)
	}

	ext.RejectSignatures = true
	if _, err := s.Sign(context.Background(), "AAAA", "passphrase"); model.KindOf(err) != model.KindSignatureDeclined {
		t.Fatalf("expected SignatureDeclined, got %v", err)
	}
	if !s.State().Connected() {
		t.Fatal("a declined signature does not end the session")
	}
}

// promptingExtension holds the permission prompt open until released
type promptingExtension struct {
	*MockExtension
	entered chan struct{}
	release chan struct{}
}

func (pe *promptingExtension) RequestPermission(ctx context.Context) error {
	close(pe.entered)
	<-pe.release
	return pe.MockExtension.RequestPermission(ctx)
}

func TestDisconnectDuringConnectionWins(t *testing.T) {
	ext := &promptingExtension{
		MockExtension: NewMockExtension(testAddress),
		entered:       make(chan struct{}),
		release:       make(chan struct{}),
	}
	s := NewSession(ext, zap.NewNop())

	wg := sync.WaitGroup{}
	wg.Add(2)
	go func() {
		defer wg.Done()
		if _, err := s.RequestConnection(context.Background()); err != nil {
			t.Errorf("connection failed: %s", err)
		}
	}()
	<-ext.entered
	if st := s.State(); st.Status != model.SessionConnecting {
		t.Fatalf("expected connecting while the prompt is open, got %s", st)
	}

	go func() {
		defer wg.Done()
		s.Disconnect()
	}()
	time.Sleep(20 * time.Millisecond)
	close(ext.release)
	wg.Wait()

	if st := s.State(); st.Status != model.SessionDisconnected {
		t.Fatalf("disconnect issued mid-connection must stick, got %s", st)
	}
	if _, ok := s.CurrentIdentity(); ok {
		t.Fatal("identity should be cleared")
	}
}
