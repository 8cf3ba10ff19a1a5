package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CHIA_HTTP_ADDR", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("CONFIG_FILE", "")

	cfg := Load()
	assert.Equal(t, ":4000", cfg.HTTPAddr)
	assert.Equal(t, "INFO", cfg.LogLevel)
	assert.Equal(t, 60*time.Second, cfg.LedgerTimeout)
	assert.Equal(t, "transactionId", cfg.TxIDPath)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("CHIA_HTTP_ADDR", ":9999")
	t.Setenv("CHIA_LEDGER_TIMEOUT_SEC", "5")
	t.Setenv("ALLOW_ANONYMOUS", "true")

	cfg := Load()
	assert.Equal(t, ":9999", cfg.HTTPAddr)
	assert.Equal(t, 5*time.Second, cfg.LedgerTimeout)
	assert.True(t, cfg.AllowAnonymous)
}

func TestConfigFileOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chia.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log_level: DEBUG
connector:
  instance_id: chia-test
  ledger_gateway_url: http://gateway:9000
  ledger_timeout_sec: 7
  address_path: receipt.address
authz:
  policy_file: /etc/chia/authz.rego
`), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("CHIA_INSTANCE_ID", "")
	t.Setenv("CHIA_LEDGER_GATEWAY_URL", "from-env")
	t.Setenv("CHIA_LEDGER_TIMEOUT_SEC", "")
	t.Setenv("CHIA_ADDRESS_PATH", "")
	t.Setenv("AUTHZ_POLICY_FILE", "")

	cfg := Load()
	assert.Equal(t, "DEBUG", cfg.LogLevel)
	assert.Equal(t, "chia-test", cfg.InstanceID)
	assert.Equal(t, "from-env", cfg.LedgerGatewayURL, "env wins over file")
	assert.Equal(t, 7*time.Second, cfg.LedgerTimeout)
	assert.Equal(t, "receipt.address", cfg.AddressPath)
	assert.Equal(t, "/etc/chia/authz.rego", cfg.AuthzPolicyFile)
}

func TestApplyYAMLRejectsGarbage(t *testing.T) {
	var cfg Config
	err := cfg.applyYAML([]byte("connector: [unterminated"))
	assert.Error(t, err)
}
