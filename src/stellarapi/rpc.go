package stellarapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/onemorebsmith/soroban-vault/src/model"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// RPCAPI talks json-rpc 2.0 to a Soroban RPC node. Every error it returns is classified as
// model.ErrTransport; application level outcomes (simulation errors, rejected submissions) come
// back inside the response values.
type RPCAPI struct {
	address string
	http    *http.Client
	counter uint64
	logger  *zap.Logger
}

func NewRPCAPI(rpcURL string, logger *zap.Logger) *RPCAPI {
	return &RPCAPI{
		address: rpcURL,
		http:    &http.Client{Timeout: 30 * time.Second},
		logger:  logger.With(zap.String("address", rpcURL), zap.String("component", "soroban_rpc")),
	}
}

func (ra *RPCAPI) SimulateTransaction(ctx context.Context, envelope string) (*SimulateTransactionResponse, error) {
	resp := &SimulateTransactionResponse{}
	if err := ra.call(ctx, "simulateTransaction", map[string]string{"transaction": envelope}, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (ra *RPCAPI) SendTransaction(ctx context.Context, envelope string) (*SendTransactionResponse, error) {
	resp := &SendTransactionResponse{}
	if err := ra.call(ctx, "sendTransaction", map[string]string{"transaction": envelope}, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (ra *RPCAPI) GetTransaction(ctx context.Context, hash string) (*GetTransactionResponse, error) {
	resp := &GetTransactionResponse{}
	if err := ra.call(ctx, "getTransaction", map[string]string{"hash": hash}, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (ra *RPCAPI) call(ctx context.Context, method string, params any, target any) error {
	body, err := json.Marshal(jsonRPCRequest{
		Version: "2.0",
		ID:      atomic.AddUint64(&ra.counter, 1),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return model.Classify(model.ErrTransport, errors.Wrapf(err, "failed encoding %s request", method))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ra.address, bytes.NewReader(body))
	if err != nil {
		return model.Classify(model.ErrTransport, errors.Wrapf(err, "failed creating %s request", method))
	}
	req.Header.Set("Content-Type", "application/json")

	rsp, err := ra.http.Do(req)
	if err != nil {
		return model.Classify(model.ErrTransport, errors.Wrapf(err, "%s request failed", method))
	}
	defer rsp.Body.Close()

	out, err := io.ReadAll(rsp.Body)
	if err != nil {
		return model.Classify(model.ErrTransport, errors.Wrapf(err, "failed reading %s response", method))
	}
	if rsp.StatusCode/100 != 2 {
		return model.WithDetail(model.ErrTransport, method+" returned http "+rsp.Status+": "+string(out))
	}

	envelope := jsonRPCResponse{}
	if err := json.Unmarshal(out, &envelope); err != nil {
		return model.Classify(model.ErrTransport, errors.Wrapf(err, "unable to unmarshal %s body: %s", method, string(out)))
	}
	if envelope.Error != nil {
		ra.logger.Warn("rpc error", zap.String("method", method), zap.Int("code", envelope.Error.Code), zap.String("message", envelope.Error.Message))
		return model.Classify(model.ErrTransport, errors.Wrapf(envelope.Error, "%s rejected by rpc", method))
	}
	if err := json.Unmarshal(envelope.Result, target); err != nil {
		return model.Classify(model.ErrTransport, errors.Wrapf(err, "unable to unmarshal %s result", method))
	}
	return nil
}
