// pkg/config/config.go
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Env      string
	HTTPAddr string
	LogLevel string // label-scoped endpoint loggers (TRACE|DEBUG|INFO|WARN|ERROR|SILENT)

	// Connector
	InstanceID       string
	LedgerGatewayURL string
	LedgerTimeout    time.Duration
	TxIDPath         string // JMESPath into the gateway response
	AddressPath      string
	DeployLockTTL    time.Duration

	// OIDC / JWT
	Issuer         string
	Audience       string
	JWKSURL        string
	JWTClockSkew   time.Duration
	AllowAnonymous bool // dev only: unauthenticated callers pass protected endpoints

	// Optional Rego module evaluated per protected request (data.authz.allow)
	AuthzPolicyFile string

	// Redis & Postgres
	RedisURL    string
	DatabaseURL string
}

// fileOverlay mirrors the subset of Config that may be set from CONFIG_FILE.
// Environment variables win over file values.
type fileOverlay struct {
	LogLevel  string `yaml:"log_level"`
	Connector struct {
		InstanceID  string `yaml:"instance_id"`
		GatewayURL  string `yaml:"ledger_gateway_url"`
		TimeoutSec  int    `yaml:"ledger_timeout_sec"`
		TxIDPath    string `yaml:"tx_id_path"`
		AddressPath string `yaml:"address_path"`
		LockTTLSec  int    `yaml:"deploy_lock_ttl_sec"`
	} `yaml:"connector"`
	Authz struct {
		PolicyFile string `yaml:"policy_file"`
	} `yaml:"authz"`
}

func Load() Config {
	_ = godotenv.Load()
	cfg := Config{
		Env:              env("CHIA_ENV", "dev"),
		HTTPAddr:         env("CHIA_HTTP_ADDR", ":4000"),
		LogLevel:         env("LOG_LEVEL", "INFO"),
		InstanceID:       env("CHIA_INSTANCE_ID", "chia-connector-1"),
		LedgerGatewayURL: env("CHIA_LEDGER_GATEWAY_URL", "http://localhost:8555"),
		LedgerTimeout:    envDur("CHIA_LEDGER_TIMEOUT_SEC", 60) * time.Second,
		TxIDPath:         env("CHIA_TX_ID_PATH", "transactionId"),
		AddressPath:      env("CHIA_ADDRESS_PATH", "contractAddress"),
		DeployLockTTL:    envDur("CHIA_DEPLOY_LOCK_TTL_SEC", 120) * time.Second,
		Issuer:           env("OIDC_ISSUER", ""),
		Audience:         env("OIDC_AUDIENCE", "cactus-chia-connector"),
		JWKSURL:          env("JWKS_URL", ""),
		JWTClockSkew:     envDur("JWT_CLOCK_SKEW_SEC", 60) * time.Second,
		AllowAnonymous:   envBool("ALLOW_ANONYMOUS", false),
		AuthzPolicyFile:  env("AUTHZ_POLICY_FILE", ""),
		RedisURL:         env("REDIS_URL", ""),
		DatabaseURL:      env("DATABASE_URL", ""),
	}
	if f := os.Getenv("CONFIG_FILE"); f != "" {
		if err := cfg.applyFile(f); err != nil {
			log.Printf("[WARN] config file %s ignored: %v", f, err)
		}
	}
	if cfg.DatabaseURL == "" {
		log.Println("[WARN] DATABASE_URL not set, deployments are recorded in memory only")
	}
	return cfg
}

// applyFile fills fields whose environment variable is unset from a YAML file.
func (c *Config) applyFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return c.applyYAML(b)
}

func (c *Config) applyYAML(b []byte) error {
	var fo fileOverlay
	if err := yaml.Unmarshal(b, &fo); err != nil {
		return fmt.Errorf("yaml parse: %w", err)
	}
	setStr := func(key string, dst *string, v string) {
		if os.Getenv(key) == "" && strings.TrimSpace(v) != "" {
			*dst = v
		}
	}
	setDur := func(key string, dst *time.Duration, sec int) {
		if os.Getenv(key) == "" && sec > 0 {
			*dst = time.Duration(sec) * time.Second
		}
	}
	setStr("LOG_LEVEL", &c.LogLevel, fo.LogLevel)
	setStr("CHIA_INSTANCE_ID", &c.InstanceID, fo.Connector.InstanceID)
	setStr("CHIA_LEDGER_GATEWAY_URL", &c.LedgerGatewayURL, fo.Connector.GatewayURL)
	setDur("CHIA_LEDGER_TIMEOUT_SEC", &c.LedgerTimeout, fo.Connector.TimeoutSec)
	setStr("CHIA_TX_ID_PATH", &c.TxIDPath, fo.Connector.TxIDPath)
	setStr("CHIA_ADDRESS_PATH", &c.AddressPath, fo.Connector.AddressPath)
	setDur("CHIA_DEPLOY_LOCK_TTL_SEC", &c.DeployLockTTL, fo.Connector.LockTTLSec)
	setStr("AUTHZ_POLICY_FILE", &c.AuthzPolicyFile, fo.Authz.PolicyFile)
	return nil
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
func envBool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		b, _ := strconv.ParseBool(v)
		return b
	}
	return def
}
func envDur(k string, def int) time.Duration {
	if v := os.Getenv(k); v != "" {
		i, _ := strconv.Atoi(v)
		return time.Duration(i)
	}
	return time.Duration(def)
}
