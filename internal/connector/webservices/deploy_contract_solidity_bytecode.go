package webservices

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"chiaconnector/internal/connector/model"
	"chiaconnector/internal/connector/oas"
	"chiaconnector/pkg/logger"
	"chiaconnector/pkg/webservice"
)

// ContractDeployer is the connector operation the endpoint forwards to.
type ContractDeployer interface {
	DeployContract(ctx context.Context, req *model.DeployContractSolidityBytecodeV1Request) (*model.DeployContractSolidityBytecodeV1Response, error)
}

type DeployContractSolidityBytecodeOptions struct {
	LogLevel  string // defaults to INFO
	Connector ContractDeployer
}

const DeployContractSolidityBytecodeEndpointClassName = "DeployContractSolidityBytecodeEndpoint"

// DeployContractSolidityBytecodeEndpoint serves the deploy-contract-solidity-bytecode operation.
// It holds no per-request state; one instance serves concurrent requests.
type DeployContractSolidityBytecodeEndpoint struct {
	connector ContractDeployer
	log       *zap.SugaredLogger
	meta      oas.OperationMeta
}

var _ webservice.Endpoint = (*DeployContractSolidityBytecodeEndpoint)(nil)

func NewDeployContractSolidityBytecodeEndpoint(opts *DeployContractSolidityBytecodeOptions) (*DeployContractSolidityBytecodeEndpoint, error) {
	fnTag := DeployContractSolidityBytecodeEndpointClassName + "#New()"
	if opts == nil {
		return nil, checkArg(nil, fnTag, "options")
	}
	if err := checkArg(opts.Connector, fnTag, "options.connector"); err != nil {
		return nil, err
	}
	meta, err := oas.Lookup(oas.DeployContractSolidityBytecodePath, http.MethodPost)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fnTag, err)
	}

	level := opts.LogLevel
	if level == "" {
		level = "INFO"
	}
	return &DeployContractSolidityBytecodeEndpoint{
		connector: opts.Connector,
		log:       logger.GetOrCreate(logger.Options{Level: level, Label: DeployContractSolidityBytecodeEndpointClassName}),
		meta:      meta,
	}, nil
}

func (e *DeployContractSolidityBytecodeEndpoint) ClassName() string {
	return DeployContractSolidityBytecodeEndpointClassName
}

func (e *DeployContractSolidityBytecodeEndpoint) Path() string { return e.meta.Path }

func (e *DeployContractSolidityBytecodeEndpoint) VerbLowerCase() string { return e.meta.VerbLowerCase }

func (e *DeployContractSolidityBytecodeEndpoint) OperationID() string { return e.meta.OperationID }

// AuthorizationOptionsProvider requires an authenticated caller without any specific role.
// TODO: accept the provider as an option once per-deployment role policies exist.
func (e *DeployContractSolidityBytecodeEndpoint) AuthorizationOptionsProvider() webservice.AuthzOptionsProvider {
	return webservice.ProtectedNoRoles()
}

func (e *DeployContractSolidityBytecodeEndpoint) Register(app *webservice.App) (webservice.Endpoint, error) {
	if err := webservice.RegisterEndpoint(app, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *DeployContractSolidityBytecodeEndpoint) RequestHandler() http.HandlerFunc {
	return e.handleRequest
}

func (e *DeployContractSolidityBytecodeEndpoint) handleRequest(w http.ResponseWriter, r *http.Request) {
	reqTag := fmt.Sprintf("%s - %s", e.VerbLowerCase(), e.Path())
	e.log.Debug(reqTag)

	b, err := e.deploy(r)
	if err != nil {
		e.log.Errorw("Crash while serving "+reqTag, "err", err)
		writeFailure(w, err)
		return
	}
	writeBody(w, http.StatusOK, b)
}

// deploy decodes the request, calls the connector and encodes its result.
// A panic in the connector is returned as an error.
func (e *DeployContractSolidityBytecodeEndpoint) deploy(r *http.Request) (out []byte, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			if re, ok := rec.(error); ok {
				err = fmt.Errorf("panic: %w", re)
			} else {
				err = fmt.Errorf("panic: %v", rec)
			}
		}
	}()

	var reqBody model.DeployContractSolidityBytecodeV1Request
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode request body: %w", err)
	}
	resBody, err := e.connector.DeployContract(r.Context(), &reqBody)
	if err != nil {
		return nil, err
	}
	return json.Marshal(resBody)
}
