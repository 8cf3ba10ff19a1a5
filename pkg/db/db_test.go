package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"chiaconnector/pkg/config"
)

func TestRedactDSN(t *testing.T) {
	assert.Equal(t, "postgres://***@db:5432/chia", redactDSN("postgres://chia:s3cr@t@db:5432/chia"))
	assert.Equal(t, "***@db/chia", redactDSN("chia:pw@db/chia"))
	assert.Equal(t, "postgres://db/chia", redactDSN("postgres://db/chia"))
}

func TestUnconfiguredBackendsAreNil(t *testing.T) {
	log := zap.NewNop().Sugar()
	assert.Nil(t, MustConnect(config.Config{}, log))
	assert.Nil(t, MustRedis(config.Config{}, log))
}
