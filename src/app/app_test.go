package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/onemorebsmith/soroban-vault/src/model"
	"github.com/onemorebsmith/soroban-vault/src/wallet"
	"github.com/stellar/go/strkey"
	"go.uber.org/zap"
	"gopkg.in/yaml.v2"
)

const rawConfig = `
backend: mock
demo_mode: true
poll_interval: 1ms
poll_attempts: 3
demo_reads:
  get_cpi: 312
contracts:
  oracle: CMOCKORACLE
`

func mockConfig(t *testing.T) Config {
	t.Helper()
	cfg := Config{}
	if err := yaml.Unmarshal([]byte(rawConfig), &cfg); err != nil {
		t.Fatal(err)
	}
	cfg.Contracts.Savings = strkey.MustEncode(strkey.VersionByteContract, make([]byte, 32))
	return cfg
}

func TestConfigParsing(t *testing.T) {
	cfg := mockConfig(t)
	if cfg.PollInterval != time.Millisecond || cfg.PollAttempts != 3 {
		t.Fatalf("unexpected polling config %s %d", cfg.PollInterval, cfg.PollAttempts)
	}
	reg := cfg.Registry()
	if _, ok := reg.Lookup(model.ContractDefiYield); ok {
		t.Fatalf("empty contract entries must stay undeployed")
	}
	if addr, ok := reg.Lookup(model.ContractOracle); !ok || addr != "CMOCKORACLE" {
		t.Fatalf("unexpected oracle %s", addr)
	}
}

func TestMockBackendEndToEnd(t *testing.T) {
	ctx := context.Background()
	a, err := New(ctx, mockConfig(t), wallet.AutoApprover{}, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()

	if st := a.Session.Probe(ctx); !st.Connected() || st.Identity.Address != MockAccount {
		t.Fatalf("mock wallet should connect on probe, got %s", st)
	}
	snap, err := a.Balance(ctx)
	if err != nil || !snap.Found {
		t.Fatalf("expected a funded mock account, got %+v %v", snap, err)
	}

	res, err := a.Contracts.DepositToSavings(ctx, "5")
	if err != nil || !res.Success || res.Simulated {
		t.Fatalf("unexpected deposit result %+v %v", res, err)
	}
	cpi, err := a.Contracts.GetInflationData(ctx, "")
	if err != nil || cpi != 312 {
		t.Fatalf("expected the demo cpi, got %v %v", cpi, err)
	}
	if _, err := a.Contracts.HarvestYield(ctx); model.KindOf(err) != model.KindContractNotDeployed {
		t.Fatalf("expected ContractNotDeployed, got %v", err)
	}
}

func TestUnknownBackend(t *testing.T) {
	if _, err := New(context.Background(), Config{Backend: "carrier-pigeon"}, wallet.AutoApprover{}, zap.NewNop()); err == nil {
		t.Fatal("expected an error for an unknown backend")
	}
}

func TestReadyz(t *testing.T) {
	a, err := New(context.Background(), mockConfig(t), wallet.AutoApprover{}, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()

	rec := httptest.NewRecorder()
	a.readyz(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}
