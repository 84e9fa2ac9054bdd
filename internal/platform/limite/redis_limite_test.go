package limite

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcelojr/gestao-obras/internal/domain"
)

func setupLimite(t *testing.T, max int, janela time.Duration) (*RedisLimite, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisLimite(client, max, janela, "rl"), mr
}

func TestRedisLimite_Validar_QuandoPassaDoMaximo_DeveBloquear(t *testing.T) {
	limite, mr := setupLimite(t, 2, time.Minute)
	ctx := context.Background()
	usuario := domain.UsuarioID("01HUSUARIO0000000000000001")

	require.NoError(t, limite.Validar(ctx, usuario))
	require.NoError(t, limite.Validar(ctx, usuario))

	err := limite.Validar(ctx, usuario)

	assert.ErrorIs(t, err, ErrLimiteExcedido)
	assert.Greater(t, mr.TTL(limite.chave(usuario)), time.Duration(0))
}

func TestRedisLimite_Validar_QuandoJanelaExpira_DeveLiberar(t *testing.T) {
	janela := 30 * time.Second
	limite, mr := setupLimite(t, 1, janela)
	ctx := context.Background()
	usuario := domain.UsuarioID("01HUSUARIO0000000000000002")

	require.NoError(t, limite.Validar(ctx, usuario))
	require.ErrorIs(t, limite.Validar(ctx, usuario), ErrLimiteExcedido)

	mr.FastForward(janela + time.Second)

	assert.NoError(t, limite.Validar(ctx, usuario))
}

func TestRedisLimite_Validar_DeveContarCadaUsuarioSeparadamente(t *testing.T) {
	limite, _ := setupLimite(t, 1, time.Minute)
	ctx := context.Background()

	require.NoError(t, limite.Validar(ctx, "u1"))

	assert.NoError(t, limite.Validar(ctx, "u2"))
	assert.ErrorIs(t, limite.Validar(ctx, "u1"), ErrLimiteExcedido)
}

func TestRedisLimite_Validar_QuandoConfiguracaoInvalida_DevePermitir(t *testing.T) {
	limite, _ := setupLimite(t, 0, time.Minute)

	for i := 0; i < 5; i++ {
		assert.NoError(t, limite.Validar(context.Background(), "u1"))
	}
}
