package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient_QuandoRedisResponde_DeveConectar(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewClient(context.Background(), Opcoes{Endereco: mr.Addr()})

	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	assert.Equal(t, 50, client.Options().PoolSize)
}

func TestNewClient_QuandoRedisFora_DeveRetornarErroComEndereco(t *testing.T) {
	mr := miniredis.RunT(t)
	endereco := mr.Addr()
	mr.Close()

	_, err := NewClient(context.Background(), Opcoes{Endereco: endereco, PoolSize: 2})

	require.Error(t, err)
	assert.Contains(t, err.Error(), endereco)
}

func TestNewClient_QuandoContextoCancelado_DeveFalhar(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewClient(ctx, Opcoes{Endereco: mr.Addr()})

	assert.ErrorIs(t, err, context.Canceled)
}
