package contracts

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/onemorebsmith/soroban-vault/src/account"
	"github.com/onemorebsmith/soroban-vault/src/gateway"
	"github.com/onemorebsmith/soroban-vault/src/model"
	"github.com/onemorebsmith/soroban-vault/src/wallet"
	"github.com/stellar/go/strkey"
	"go.uber.org/zap"
)

const testUser model.StellarAddr = "GBRPYHIL2CI3FNQ4BXLFMNDLFJUNPU2HY3ZMFSHONUCEOASW7QC7OX2H"

func contractID(seed byte) string {
	raw := make([]byte, 32)
	raw[0] = seed
	return strkey.MustEncode(strkey.VersionByteContract, raw)
}

type fixture struct {
	backend *gateway.MockBackend
	ext     *wallet.MockExtension
	session *wallet.Session
	cache   *account.Cache
	facade  *Facade
}

func newFixture(t *testing.T, connect bool, deployed map[model.ContractName]string) *fixture {
	t.Helper()
	f := &fixture{
		backend: gateway.NewMockBackend(),
		ext:     wallet.NewMockExtension(string(testUser)),
	}
	f.backend.Fund(testUser, "100.0000000")
	f.session = wallet.NewSession(f.ext, zap.NewNop())
	if connect {
		if _, err := f.session.RequestConnection(context.Background()); err != nil {
			t.Fatal(err)
		}
	}
	gw := gateway.New(gateway.Config{PollInterval: time.Millisecond}, f.backend, f.backend, f.session, nil, zap.NewNop())
	f.cache = account.NewCache(f.backend, nil, zap.NewNop())
	f.facade = NewFacade(model.NewContractRegistry(deployed), gw, f.session, f.cache, zap.NewNop())
	return f
}

func allDeployed() map[model.ContractName]string {
	return map[model.ContractName]string{
		model.ContractSavings:        contractID(1),
		model.ContractDefiYield:      contractID(2),
		model.ContractInflationHedge: contractID(3),
		model.ContractOracle:         contractID(4),
	}
}

func (f *fixture) assertNoNetwork(t *testing.T) {
	t.Helper()
	load, simulate, submit, poll := f.backend.Calls()
	if load+simulate+submit+poll != 0 || f.ext.SignatureRequests != 0 {
		t.Fatalf("expected no network activity, got %d %d %d %d", load, simulate, submit, poll)
	}
}

func TestNotConnectedBeforeNetwork(t *testing.T) {
	f := newFixture(t, false, allDeployed())
	ctx := context.Background()

	if _, err := f.facade.DepositToSavings(ctx, "10"); model.KindOf(err) != model.KindNotConnected {
		t.Fatalf("expected NotConnected, got %v", err)
	}
	if _, err := f.facade.GetStake(ctx); model.KindOf(err) != model.KindNotConnected {
		t.Fatalf("expected NotConnected, got %v", err)
	}
	f.assertNoNetwork(t)
}

func TestContractNotDeployed(t *testing.T) {
	deployed := allDeployed()
	delete(deployed, model.ContractSavings)
	f := newFixture(t, true, deployed)

	_, err := f.facade.DepositToSavings(context.Background(), "10")
	if model.KindOf(err) != model.KindContractNotDeployed {
		t.Fatalf("expected ContractNotDeployed, got %v", err)
	}
	f.assertNoNetwork(t)
}

func TestInvalidAmountBeforeNetwork(t *testing.T) {
	f := newFixture(t, true, allDeployed())
	for _, amount := range []string{"1.12345678", "0", "-3", "ten"} {
		if _, err := f.facade.DepositForYield(context.Background(), amount); model.KindOf(err) != model.KindInvalidAmount {
			t.Fatalf("%s: expected InvalidAmount, got %v", amount, err)
		}
	}
	f.assertNoNetwork(t)
}

func TestDepositRefreshesBalance(t *testing.T) {
	f := newFixture(t, true, allDeployed())

	res, err := f.facade.DepositToSavings(context.Background(), "12.5")
	if err != nil {
		t.Fatal(err)
	}
	if !res.Success {
		t.Fatalf("expected success, got %+v", res)
	}
	if f.backend.LoadCalls != 2 {
		t.Fatalf("expected the pipeline load plus one refresh, got %d loads", f.backend.LoadCalls)
	}
	if _, ok := f.cache.Snapshot(testUser); !ok {
		t.Fatalf("balance was not refreshed")
	}
	if d := cmp.Diff([]string{"deposit"}, f.backend.Functions); d != "" {
		t.Fatalf("unexpected calls: %s", d)
	}
}

func TestSignatureDeclinedSkipsRefresh(t *testing.T) {
	f := newFixture(t, true, allDeployed())
	f.ext.RejectSignatures = true

	_, err := f.facade.RebalanceHedge(context.Background(), "")
	if model.KindOf(err) != model.KindSignatureDeclined {
		t.Fatalf("expected SignatureDeclined, got %v", err)
	}
	if f.backend.LoadCalls != 1 {
		t.Fatalf("declined signature must not refresh the balance, got %d loads", f.backend.LoadCalls)
	}
	if _, ok := f.cache.Snapshot(testUser); ok {
		t.Fatalf("unexpected snapshot after a declined signature")
	}
}

func TestReadsDecodeAmounts(t *testing.T) {
	f := newFixture(t, true, allDeployed())
	balance, _ := gateway.ToScVal(big.NewInt(2505000000))
	f.backend.ReturnValues["get_balance"] = balance

	got, found, err := f.facade.GetSavingsBalance(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !found || got != "250.5000000" {
		t.Fatalf("unexpected balance %s (found %t)", got, found)
	}
	if f.ext.SignatureRequests != 0 || f.backend.SubmitCalls != 0 {
		t.Fatalf("reads must not sign or submit")
	}
}

func TestNoResultIsNotZero(t *testing.T) {
	f := newFixture(t, true, allDeployed())
	ctx := context.Background()

	got, found, err := f.facade.GetSavingsBalance(ctx)
	if err != nil || found || got != "" {
		t.Fatalf("absent balance must be reported as not found, got %q %t %v", got, found, err)
	}
	if stake, err := f.facade.GetStake(ctx); err != nil || stake != nil {
		t.Fatalf("absent stake must be nil, got %+v %v", stake, err)
	}

	zero, _ := gateway.ToScVal(big.NewInt(0))
	f.backend.ReturnValues["get_balance"] = zero
	got, found, err = f.facade.GetSavingsBalance(ctx)
	if err != nil || !found || got != "0.0000000" {
		t.Fatalf("zero balance must be reported as found, got %q %t %v", got, found, err)
	}
}

func TestStakeTuple(t *testing.T) {
	f := newFixture(t, true, allDeployed())
	stake, _ := gateway.ToScVal([]any{big.NewInt(2505000000), gateway.U64(1700000000)})
	f.backend.ReturnValues["get_stake"] = stake

	got, err := f.facade.GetStake(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff(&Stake{Amount: "250.5000000", Since: 1700000000}, got); d != "" {
		t.Fatalf("unexpected stake: %s", d)
	}

	short, _ := gateway.ToScVal([]any{big.NewInt(1)})
	f.backend.ReturnValues["get_stake"] = short
	if _, err := f.facade.GetStake(context.Background()); model.KindOf(err) != model.KindInvalidArgument {
		t.Fatalf("expected InvalidArgument for a malformed stake, got %v", err)
	}
}

func TestDemoAmountsAreDecimal(t *testing.T) {
	cases := []struct {
		in       any
		expected string
	}{
		{100, "100.0000000"},
		{"100", "100.0000000"},
		{12.5, "12.5000000"},
		{"0.0000001", "0.0000001"},
		{int64(125000000), "12.5000000"},
		{big.NewInt(1), "0.0000001"},
	}
	for _, c := range cases {
		got, err := decodeAmount(c.in)
		if err != nil {
			t.Fatalf("%v: %s", c.in, err)
		}
		if got != c.expected {
			t.Fatalf("%v: expected %s, got %s", c.in, c.expected, got)
		}
	}
	if _, err := decodeAmount(true); model.KindOf(err) != model.KindInvalidArgument {
		t.Fatalf("expected InvalidArgument, got %v", err)
	}
}

func TestOracleNeedsNoIdentity(t *testing.T) {
	f := newFixture(t, false, allDeployed())
	cpi, _ := gateway.ToScVal(gateway.U32(312))
	f.backend.ReturnValues["get_cpi"] = cpi

	val, err := f.facade.GetInflationData(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}
	if val != uint32(312) {
		t.Fatalf("unexpected cpi %v", val)
	}
}

func TestDeployments(t *testing.T) {
	f := newFixture(t, false, map[model.ContractName]string{model.ContractOracle: contractID(4)})
	lines := f.facade.Deployments()
	if len(lines) != len(model.AllContracts) {
		t.Fatalf("expected a line per contract, got %v", lines)
	}
	if lines[0] != "SAVINGS          Not Deployed" {
		t.Fatalf("unexpected line %q", lines[0])
	}
}
