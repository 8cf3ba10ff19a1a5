package connector

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Deployment is the record kept for every contract the connector deployed.
type Deployment struct {
	ID              string
	ContractName    string
	BytecodeHash    string
	TransactionID   string
	ContractAddress string
	Status          string
	CreatedAt       time.Time
}

type DeploymentStore interface {
	Save(ctx context.Context, d Deployment) error
	Get(ctx context.Context, id string) (Deployment, error)
}

var ErrDeploymentNotFound = errors.New("deployment not found")

// MemoryStore is the dev fallback used when no database is configured.
type MemoryStore struct {
	mu   sync.RWMutex
	byID map[string]Deployment
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: map[string]Deployment{}}
}

func (s *MemoryStore) Save(_ context.Context, d Deployment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[d.ID] = d
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (Deployment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.byID[id]
	if !ok {
		return Deployment{}, ErrDeploymentNotFound
	}
	return d, nil
}

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const deploymentsDDL = `
CREATE TABLE IF NOT EXISTS chia_deployments (
	id               TEXT PRIMARY KEY,
	contract_name    TEXT NOT NULL DEFAULT '',
	bytecode_hash    TEXT NOT NULL,
	transaction_id   TEXT NOT NULL,
	contract_address TEXT NOT NULL DEFAULT '',
	status           TEXT NOT NULL,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, deploymentsDDL)
	return err
}

func (s *PostgresStore) Save(ctx context.Context, d Deployment) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO chia_deployments(id, contract_name, bytecode_hash, transaction_id, contract_address, status, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (id) DO UPDATE SET status=EXCLUDED.status, contract_address=EXCLUDED.contract_address`,
		d.ID, d.ContractName, d.BytecodeHash, d.TransactionID, d.ContractAddress, d.Status, d.CreatedAt.UTC())
	return err
}

func (s *PostgresStore) Get(ctx context.Context, id string) (Deployment, error) {
	var d Deployment
	err := s.pool.QueryRow(ctx, `
		SELECT id, contract_name, bytecode_hash, transaction_id, contract_address, status, created_at
		FROM chia_deployments WHERE id=$1`, id).
		Scan(&d.ID, &d.ContractName, &d.BytecodeHash, &d.TransactionID, &d.ContractAddress, &d.Status, &d.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Deployment{}, ErrDeploymentNotFound
	}
	return d, err
}
