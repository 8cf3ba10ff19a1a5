package connector

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_, err := s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrDeploymentNotFound)

	d := Deployment{ID: "d1", BytecodeHash: "h", TransactionID: "tx", Status: "SUBMITTED", CreatedAt: time.Now().UTC()}
	require.NoError(t, s.Save(ctx, d))
	got, err := s.Get(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, d, got)

	d.Status = "CONFIRMED"
	require.NoError(t, s.Save(ctx, d))
	got, err = s.Get(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, "CONFIRMED", got.Status)
}
