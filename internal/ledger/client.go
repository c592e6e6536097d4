package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	domain "subvene/pkg/domain"
)

var tracer = otel.Tracer("subvene/internal/ledger")

// Client talks JSON-RPC to the escrow ledger node. The node wraps the actual
// chain interaction (signing, gas, inclusion) and blocks each call until the
// transaction is confirmed, so a successful response means confirmed state.
type Client struct {
	url            string
	httpClient     *http.Client
	requestTimeout time.Duration
	confirmWait    time.Duration
	nextID         atomic.Int64
}

// NewClient builds a gateway client. requestTimeout bounds read calls;
// confirmWait bounds confirmation-bearing calls (deploy, add, release),
// which the node holds open until the transaction is included.
func NewClient(url string, requestTimeout, confirmWait time.Duration) *Client {
	return &Client{
		url:            url,
		httpClient:     &http.Client{},
		requestTimeout: requestTimeout,
		confirmWait:    confirmWait,
	}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
	ID      int64  `json:"id"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

// Error codes the node uses for confirmed transaction failures. Anything the
// node reports through the JSON-RPC error channel was confirmed by the node;
// transport-level failures are the unknown-outcome cases.
const (
	rpcCodeReverted   = -32000
	rpcCodeBadParams  = -32602
	rpcCodeNoContract = -32001
)

func (c *Client) call(ctx context.Context, method string, params any, result any, wait time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()
	ctx, span := tracer.Start(ctx, "ledger."+method)
	defer span.End()
	span.SetAttributes(attribute.String("rpc.method", method))

	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      c.nextID.Add(1),
	})
	if err != nil {
		return NewCallError(CategoryInternal, OutcomeConfirmedFailed, method, "marshal request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return NewCallError(CategoryInternal, OutcomeConfirmedFailed, method, "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			// The request may have reached the node before the deadline; the
			// transaction outcome is unknowable from here.
			return NewCallError(CategoryTimeout, OutcomeUnknown, method, "ledger call timed out", err)
		}
		return NewCallError(CategoryNodeOutage, OutcomeUnknown, method, "ledger node unreachable", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return NewCallError(CategoryNodeOutage, OutcomeUnknown, method, "read response", err)
	}
	if resp.StatusCode != http.StatusOK {
		span.SetStatus(codes.Error, resp.Status)
		return NewCallError(CategoryNodeOutage, OutcomeUnknown, method,
			fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(raw, &rpcResp); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return NewCallError(CategoryBadData, OutcomeUnknown, method, "malformed response", err)
	}
	if rpcResp.Error != nil {
		span.SetStatus(codes.Error, rpcResp.Error.Message)
		category := CategoryInternal
		switch rpcResp.Error.Code {
		case rpcCodeReverted:
			category = CategoryReverted
		case rpcCodeBadParams, rpcCodeNoContract:
			category = CategoryBadData
		}
		// The node answered: the transaction was confirmed as not applied.
		return NewCallError(category, OutcomeConfirmedFailed, method, rpcResp.Error.Message, nil)
	}

	if result != nil {
		if err := json.Unmarshal(rpcResp.Result, result); err != nil {
			return NewCallError(CategoryBadData, OutcomeUnknown, method, "malformed result", err)
		}
	}
	return nil
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}

type deployParams struct {
	ProducerAddress string `json:"producer_address"`
	TotalAmount     int64  `json:"total_amount"`
}

type deployResult struct {
	ContractAddress string `json:"contract_address"`
	TxHash          string `json:"tx_hash"`
}

func (c *Client) Deploy(ctx context.Context, producerAddress string, totalAmount domain.Amount) (DeployResult, error) {
	var res deployResult
	err := c.call(ctx, "escrow_deploy", deployParams{
		ProducerAddress: producerAddress,
		TotalAmount:     totalAmount.Int64(),
	}, &res, c.confirmWait)
	if err != nil {
		return DeployResult{}, err
	}
	return DeployResult{ContractAddress: res.ContractAddress, TxHash: res.TxHash}, nil
}

type addMilestoneParams struct {
	ContractAddress string `json:"contract_address"`
	Description     string `json:"description"`
	Amount          int64  `json:"amount"`
}

func (c *Client) AddMilestone(ctx context.Context, contractAddress, description string, amount domain.Amount) error {
	return c.call(ctx, "escrow_addMilestone", addMilestoneParams{
		ContractAddress: contractAddress,
		Description:     description,
		Amount:          amount.Int64(),
	}, nil, c.confirmWait)
}

type releaseParams struct {
	ContractAddress string `json:"contract_address"`
	Index           int    `json:"index"`
}

type releaseResult struct {
	TxHash string `json:"tx_hash"`
}

func (c *Client) ReleaseMilestone(ctx context.Context, contractAddress string, index int) (Receipt, error) {
	var res releaseResult
	err := c.call(ctx, "escrow_release", releaseParams{
		ContractAddress: contractAddress,
		Index:           index,
	}, &res, c.confirmWait)
	if err != nil {
		return Receipt{}, err
	}
	return Receipt{TxHash: res.TxHash}, nil
}

type milestoneStateParams struct {
	ContractAddress string `json:"contract_address"`
	Index           int    `json:"index"`
}

type milestoneStateResult struct {
	Released bool `json:"released"`
}

func (c *Client) GetMilestoneState(ctx context.Context, contractAddress string, index int) (MilestoneState, error) {
	var res milestoneStateResult
	err := c.call(ctx, "escrow_milestoneState", milestoneStateParams{
		ContractAddress: contractAddress,
		Index:           index,
	}, &res, c.requestTimeout)
	if err != nil {
		return MilestoneState{}, err
	}
	return MilestoneState{Released: res.Released}, nil
}

type balanceParams struct {
	Address string `json:"address"`
}

type balanceResult struct {
	Balance int64 `json:"balance"`
}

func (c *Client) GetBalance(ctx context.Context, address string) (domain.Amount, error) {
	var res balanceResult
	err := c.call(ctx, "escrow_getBalance", balanceParams{Address: address}, &res, c.requestTimeout)
	if err != nil {
		return 0, err
	}
	return domain.Amount(res.Balance), nil
}

var _ Gateway = (*Client)(nil)
