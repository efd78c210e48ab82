package stellarapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/onemorebsmith/soroban-vault/src/model"
	"go.uber.org/zap"
)

const horizonTestAccount = "GBRPYHIL2CI3FNQ4BXLFMNDLFJUNPU2HY3ZMFSHONUCEOASW7QC7OX2H"

func newTestHorizon(t *testing.T, status int, body string) *HorizonAPI {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/accounts/"+horizonTestAccount {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/hal+json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return NewHorizonAPI(srv.URL, zap.NewNop())
}

func TestLoadAccount(t *testing.T) {
	api := newTestHorizon(t, http.StatusOK, `{
		"id": "`+horizonTestAccount+`",
		"account_id": "`+horizonTestAccount+`",
		"sequence": "123",
		"balances": [
			{"balance": "5.0000000", "asset_type": "credit_alphanum4", "asset_code": "USD", "asset_issuer": "`+horizonTestAccount+`"},
			{"balance": "10.0000000", "asset_type": "native"}
		]
	}`)
	acct, err := api.LoadAccount(context.Background(), horizonTestAccount)
	if err != nil {
		t.Fatal(err)
	}
	expected := &model.LedgerAccount{ID: horizonTestAccount, Sequence: 123, NativeBalance: "10.0000000"}
	if d := cmp.Diff(expected, acct); d != "" {
		t.Fatalf("unexpected account: %s", d)
	}
}

func TestLoadAccountNotFound(t *testing.T) {
	api := newTestHorizon(t, http.StatusNotFound, `{
		"type": "https://stellar.org/horizon-errors/not_found",
		"title": "Resource Missing",
		"status": 404
	}`)
	_, err := api.LoadAccount(context.Background(), horizonTestAccount)
	if model.KindOf(err) != model.KindAccountNotFound {
		t.Fatalf("expected account not found, got %v", err)
	}
}

func TestLoadAccountServerError(t *testing.T) {
	api := newTestHorizon(t, http.StatusInternalServerError, `{
		"type": "https://stellar.org/horizon-errors/server_error",
		"title": "Internal Server Error",
		"status": 500
	}`)
	_, err := api.LoadAccount(context.Background(), horizonTestAccount)
	if model.KindOf(err) != model.KindTransport {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func TestLoadAccountCancelled(t *testing.T) {
	api := NewHorizonAPI("http://127.0.0.1:1", zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := api.LoadAccount(ctx, horizonTestAccount)
	if model.KindOf(err) != model.KindTransport {
		t.Fatalf("expected transport error, got %v", err)
	}
}
