package connector

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	jmes "github.com/jmespath/go-jmespath"

	"chiaconnector/internal/connector/model"
)

// LedgerClient submits a deployment to the Chia network.
type LedgerClient interface {
	DeployContract(ctx context.Context, req *model.DeployContractSolidityBytecodeV1Request) (*model.ChiaTransactionReceipt, error)
}

var ErrGateway = errors.New("ledger gateway error")

type HTTPLedgerClientOptions struct {
	GatewayURL string
	Timeout    time.Duration
	// JMESPath expressions evaluated against the gateway's JSON response.
	TxIDPath        string
	AddressPath     string
	StatusPath      string
	BlockHeightPath string
	HTTPClient      *http.Client
}

// HTTPLedgerClient forwards deployments to a gateway that speaks JSON over HTTP
// and maps its response onto a receipt.
type HTTPLedgerClient struct {
	endpoint string
	client   *http.Client

	txID        *jmes.JMESPath
	address     *jmes.JMESPath
	status      *jmes.JMESPath
	blockHeight *jmes.JMESPath
}

const maxGatewayResponse = 4 << 20

func NewHTTPLedgerClient(opts HTTPLedgerClientOptions) (*HTTPLedgerClient, error) {
	if strings.TrimSpace(opts.GatewayURL) == "" {
		return nil, errors.New("ledger gateway url is required")
	}
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	c := &HTTPLedgerClient{
		endpoint: strings.TrimRight(opts.GatewayURL, "/") + "/deploy-contract",
		client:   client,
	}
	compile := func(dst **jmes.JMESPath, expr, def string) error {
		if strings.TrimSpace(expr) == "" {
			expr = def
		}
		jp, err := jmes.Compile(expr)
		if err != nil {
			return fmt.Errorf("compile %q: %w", expr, err)
		}
		*dst = jp
		return nil
	}
	if err := compile(&c.txID, opts.TxIDPath, "transactionId"); err != nil {
		return nil, err
	}
	if err := compile(&c.address, opts.AddressPath, "contractAddress"); err != nil {
		return nil, err
	}
	if err := compile(&c.status, opts.StatusPath, "status"); err != nil {
		return nil, err
	}
	if err := compile(&c.blockHeight, opts.BlockHeightPath, "blockHeight"); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *HTTPLedgerClient) DeployContract(ctx context.Context, req *model.DeployContractSolidityBytecodeV1Request) (*model.ChiaTransactionReceipt, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGateway, err)
	}
	defer resp.Body.Close()
	respBytes, err := io.ReadAll(io.LimitReader(resp.Body, maxGatewayResponse))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrGateway, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: status %d: %s", ErrGateway, resp.StatusCode, strings.TrimSpace(string(respBytes)))
	}

	var doc any
	if err := json.Unmarshal(respBytes, &doc); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrGateway, err)
	}
	return c.receipt(doc)
}

func (c *HTTPLedgerClient) receipt(doc any) (*model.ChiaTransactionReceipt, error) {
	txID, _ := search(c.txID, doc).(string)
	if txID == "" {
		return nil, fmt.Errorf("%w: response has no transaction id", ErrGateway)
	}
	out := &model.ChiaTransactionReceipt{TransactionID: txID, Status: "SUBMITTED"}
	if v, ok := search(c.address, doc).(string); ok {
		out.ContractAddress = v
	}
	if v, ok := search(c.status, doc).(string); ok && v != "" {
		out.Status = v
	}
	if v, ok := search(c.blockHeight, doc).(float64); ok {
		h := int64(v)
		out.BlockHeight = &h
	}
	return out, nil
}

// search treats an evaluation error like a missing field.
func search(jp *jmes.JMESPath, doc any) any {
	v, err := jp.Search(doc)
	if err != nil {
		return nil
	}
	return v
}
