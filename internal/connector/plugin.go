// Package connector implements the Chia ledger connector plugin: the
// operations its web services forward to and the plumbing behind them.
package connector

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"chiaconnector/internal/connector/model"
	"chiaconnector/internal/connector/oas"
	"chiaconnector/internal/connector/webservices"
	"chiaconnector/pkg/logger"
	"chiaconnector/pkg/webservice"
)

const PluginClassName = "PluginLedgerConnectorChia"

var ErrEmptyBytecode = errors.New("bytecode is required")

type Options struct {
	InstanceID string
	LogLevel   string
	Ledger     LedgerClient
	// Store defaults to an in-memory store.
	Store DeploymentStore
	// Locker is optional; without it identical deployments may race.
	Locker  Locker
	LockTTL time.Duration
	// Registerer additionally receives the connector's collectors, e.g. the
	// process-wide registry behind /metrics.
	Registerer prometheus.Registerer
}

type PluginLedgerConnectorChia struct {
	instanceID string
	logLevel   string
	log        *zap.SugaredLogger
	ledger     LedgerClient
	store      DeploymentStore
	locker     Locker
	lockTTL    time.Duration

	registry    *prometheus.Registry
	deployments *prometheus.CounterVec

	once      sync.Once
	endpoints []webservice.Endpoint
	wsErr     error
}

var _ webservices.ContractDeployer = (*PluginLedgerConnectorChia)(nil)

func NewPluginLedgerConnectorChia(opts Options) (*PluginLedgerConnectorChia, error) {
	fnTag := PluginClassName + "#New()"
	if strings.TrimSpace(opts.InstanceID) == "" {
		return nil, fmt.Errorf("%s: instance id is required", fnTag)
	}
	if opts.Ledger == nil {
		return nil, fmt.Errorf("%s: ledger client is required", fnTag)
	}
	if opts.LogLevel == "" {
		opts.LogLevel = "INFO"
	}
	if opts.Store == nil {
		opts.Store = NewMemoryStore()
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = 2 * time.Minute
	}

	p := &PluginLedgerConnectorChia{
		instanceID: opts.InstanceID,
		logLevel:   opts.LogLevel,
		log:        logger.GetOrCreate(logger.Options{Level: opts.LogLevel, Label: PluginClassName}),
		ledger:     opts.Ledger,
		store:      opts.Store,
		locker:     opts.Locker,
		lockTTL:    opts.LockTTL,
		registry:   prometheus.NewRegistry(),
		deployments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "cactus_chia_deployments_total",
			Help:        "Contract deployments handled by the Chia connector, by outcome.",
			ConstLabels: prometheus.Labels{"instance_id": opts.InstanceID},
		}, []string{"status"}),
	}
	p.registry.MustRegister(p.deployments)
	if opts.Registerer != nil {
		if err := opts.Registerer.Register(p.deployments); err != nil {
			return nil, fmt.Errorf("%s: register metrics: %w", fnTag, err)
		}
	}
	return p, nil
}

func (p *PluginLedgerConnectorChia) GetInstanceID() string { return p.instanceID }

func (p *PluginLedgerConnectorChia) GetPackageName() string { return oas.PackageName }

func (p *PluginLedgerConnectorChia) GetOpenAPISpec() []byte { return oas.JSON() }

// Gatherer exposes the connector's own registry.
func (p *PluginLedgerConnectorChia) Gatherer() prometheus.Gatherer { return p.registry }

// DeployContract submits the bytecode through the ledger gateway and records
// the resulting deployment.
func (p *PluginLedgerConnectorChia) DeployContract(ctx context.Context, req *model.DeployContractSolidityBytecodeV1Request) (*model.DeployContractSolidityBytecodeV1Response, error) {
	fnTag := PluginClassName + "#DeployContract()"
	if req == nil || strings.TrimSpace(req.Bytecode) == "" {
		p.deployments.WithLabelValues("rejected").Inc()
		return nil, fmt.Errorf("%s: %w", fnTag, ErrEmptyBytecode)
	}
	sum := sha256.Sum256([]byte(req.Bytecode))
	hash := hex.EncodeToString(sum[:])

	if p.locker != nil {
		release, err := p.locker.Acquire(ctx, hash, p.lockTTL)
		if err != nil {
			p.deployments.WithLabelValues("rejected").Inc()
			return nil, fmt.Errorf("%s: %w", fnTag, err)
		}
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				p.log.Warnw("release deploy lock", "bytecodeHash", hash, "err", err)
			}
		}()
	}

	if req.TimeoutMs != nil && *req.TimeoutMs > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(*req.TimeoutMs*float64(time.Millisecond)))
		defer cancel()
	}

	receipt, err := p.ledger.DeployContract(ctx, req)
	if err != nil {
		p.deployments.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("%s: ledger: %w", fnTag, err)
	}

	d := Deployment{
		ID:              uuid.NewString(),
		ContractName:    req.ContractName,
		BytecodeHash:    hash,
		TransactionID:   receipt.TransactionID,
		ContractAddress: receipt.ContractAddress,
		Status:          receipt.Status,
		CreatedAt:       time.Now().UTC(),
	}
	// The contract is on the ledger either way; a lost record is only logged.
	if err := p.store.Save(ctx, d); err != nil {
		p.log.Errorw("record deployment", "deploymentId", d.ID, "transactionId", d.TransactionID, "err", err)
	}
	p.deployments.WithLabelValues("succeeded").Inc()
	p.log.Infow("contract deployed", "deploymentId", d.ID, "transactionId", d.TransactionID, "contract", d.ContractName)

	return &model.DeployContractSolidityBytecodeV1Response{
		DeploymentID:       d.ID,
		TransactionReceipt: *receipt,
	}, nil
}

// GetDeployment returns a deployment recorded by DeployContract.
func (p *PluginLedgerConnectorChia) GetDeployment(ctx context.Context, id string) (Deployment, error) {
	return p.store.Get(ctx, id)
}

// GetOrCreateWebServices builds the plugin's endpoints on first use.
func (p *PluginLedgerConnectorChia) GetOrCreateWebServices() ([]webservice.Endpoint, error) {
	p.once.Do(func() {
		deploy, err := webservices.NewDeployContractSolidityBytecodeEndpoint(&webservices.DeployContractSolidityBytecodeOptions{
			LogLevel:  p.logLevel,
			Connector: p,
		})
		if err != nil {
			p.wsErr = err
			return
		}
		metrics, err := webservices.NewGetPrometheusExporterMetricsEndpoint(&webservices.GetPrometheusExporterMetricsOptions{
			LogLevel: p.logLevel,
			Gatherer: p.registry,
		})
		if err != nil {
			p.wsErr = err
			return
		}
		p.endpoints = []webservice.Endpoint{deploy, metrics}
	})
	return p.endpoints, p.wsErr
}

// RegisterWebServices mounts every endpoint of the plugin on app.
func (p *PluginLedgerConnectorChia) RegisterWebServices(app *webservice.App) ([]webservice.Endpoint, error) {
	eps, err := p.GetOrCreateWebServices()
	if err != nil {
		return nil, err
	}
	out := make([]webservice.Endpoint, 0, len(eps))
	for _, ep := range eps {
		registered, err := ep.Register(app)
		if err != nil {
			return nil, fmt.Errorf("register %s: %w", ep.OperationID(), err)
		}
		p.log.Debugw("endpoint registered", "operationId", ep.OperationID(), "verb", ep.VerbLowerCase(), "path", ep.Path())
		out = append(out, registered)
	}
	return out, nil
}
