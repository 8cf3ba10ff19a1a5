package connector

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chiaconnector/internal/connector/model"
)

func gateway(t *testing.T, status int, body string, seen *model.DeployContractSolidityBytecodeV1Request) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/deploy-contract", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		if seen != nil {
			assert.NoError(t, json.NewDecoder(r.Body).Decode(seen))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPLedgerClientDeployContract(t *testing.T) {
	var seen model.DeployContractSolidityBytecodeV1Request
	srv := gateway(t, http.StatusOK, `{"transactionId":"0xabc","contractAddress":"xch1qq","status":"CONFIRMED","blockHeight":12}`, &seen)

	c, err := NewHTTPLedgerClient(HTTPLedgerClientOptions{GatewayURL: srv.URL + "/"})
	require.NoError(t, err)

	receipt, err := c.DeployContract(context.Background(), &model.DeployContractSolidityBytecodeV1Request{ContractName: "Hello", Bytecode: "6080"})
	require.NoError(t, err)
	assert.Equal(t, "Hello", seen.ContractName)
	assert.Equal(t, "6080", seen.Bytecode)

	assert.Equal(t, "0xabc", receipt.TransactionID)
	assert.Equal(t, "xch1qq", receipt.ContractAddress)
	assert.Equal(t, "CONFIRMED", receipt.Status)
	require.NotNil(t, receipt.BlockHeight)
	assert.Equal(t, int64(12), *receipt.BlockHeight)
}

func TestHTTPLedgerClientCustomPaths(t *testing.T) {
	srv := gateway(t, http.StatusAccepted, `{"result":{"tx":{"id":"t-1"},"coins":[{"puzzleHash":"ph-1"}]}}`, nil)

	c, err := NewHTTPLedgerClient(HTTPLedgerClientOptions{
		GatewayURL:  srv.URL,
		TxIDPath:    "result.tx.id",
		AddressPath: "result.coins[0].puzzleHash",
	})
	require.NoError(t, err)

	receipt, err := c.DeployContract(context.Background(), &model.DeployContractSolidityBytecodeV1Request{Bytecode: "00"})
	require.NoError(t, err)
	assert.Equal(t, "t-1", receipt.TransactionID)
	assert.Equal(t, "ph-1", receipt.ContractAddress)
	assert.Equal(t, "SUBMITTED", receipt.Status)
	assert.Nil(t, receipt.BlockHeight)
}

func TestHTTPLedgerClientErrors(t *testing.T) {
	t.Run("non-2xx", func(t *testing.T) {
		srv := gateway(t, http.StatusBadGateway, `node unreachable`, nil)
		c, err := NewHTTPLedgerClient(HTTPLedgerClientOptions{GatewayURL: srv.URL})
		require.NoError(t, err)
		_, err = c.DeployContract(context.Background(), &model.DeployContractSolidityBytecodeV1Request{Bytecode: "00"})
		assert.ErrorIs(t, err, ErrGateway)
		assert.ErrorContains(t, err, "status 502: node unreachable")
	})
	t.Run("missing transaction id", func(t *testing.T) {
		srv := gateway(t, http.StatusOK, `{"status":"PENDING"}`, nil)
		c, err := NewHTTPLedgerClient(HTTPLedgerClientOptions{GatewayURL: srv.URL})
		require.NoError(t, err)
		_, err = c.DeployContract(context.Background(), &model.DeployContractSolidityBytecodeV1Request{Bytecode: "00"})
		assert.ErrorIs(t, err, ErrGateway)
		assert.ErrorContains(t, err, "no transaction id")
	})
	t.Run("not json", func(t *testing.T) {
		srv := gateway(t, http.StatusOK, `<html>`, nil)
		c, err := NewHTTPLedgerClient(HTTPLedgerClientOptions{GatewayURL: srv.URL})
		require.NoError(t, err)
		_, err = c.DeployContract(context.Background(), &model.DeployContractSolidityBytecodeV1Request{Bytecode: "00"})
		assert.ErrorIs(t, err, ErrGateway)
	})
	t.Run("unreachable", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()
		c, err := NewHTTPLedgerClient(HTTPLedgerClientOptions{GatewayURL: url})
		require.NoError(t, err)
		_, err = c.DeployContract(context.Background(), &model.DeployContractSolidityBytecodeV1Request{Bytecode: "00"})
		assert.ErrorIs(t, err, ErrGateway)
	})
}

func TestNewHTTPLedgerClientValidatesOptions(t *testing.T) {
	_, err := NewHTTPLedgerClient(HTTPLedgerClientOptions{})
	assert.ErrorContains(t, err, "gateway url is required")

	_, err = NewHTTPLedgerClient(HTTPLedgerClientOptions{GatewayURL: "http://gw", TxIDPath: "foo["})
	assert.ErrorContains(t, err, `compile "foo["`)
}
