package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client, mr
}

func TestContador_Contabilizar_DeveIncrementarTodasAsChavesDoEvento(t *testing.T) {
	client, mr := setupRedis(t)
	contador := NewContador(client, "painel")
	ctx := context.Background()

	// Act
	require.NoError(t, contador.Contabilizar(ctx, []string{"eventos:deal.stage_changed", "negocios:won"}))
	require.NoError(t, contador.Contabilizar(ctx, []string{"eventos:deal.stage_changed"}))

	// Assert
	valor, err := mr.Get("painel:eventos:deal.stage_changed")
	require.NoError(t, err)
	assert.Equal(t, "2", valor)
	valor, err = mr.Get("painel:negocios:won")
	require.NoError(t, err)
	assert.Equal(t, "1", valor)
}

func TestContador_Contabilizar_QuandoSemChaves_NaoDeveFalhar(t *testing.T) {
	client, mr := setupRedis(t)
	contador := NewContador(client, "painel")

	require.NoError(t, contador.Contabilizar(context.Background(), nil))

	assert.Empty(t, mr.Keys())
}

func TestContador_Contabilizar_QuandoValorNaoNumerico_DeveRetornarErro(t *testing.T) {
	client, mr := setupRedis(t)
	contador := NewContador(client, "painel")
	require.NoError(t, mr.Set("painel:presencas", "muitas"))

	err := contador.Contabilizar(context.Background(), []string{"presencas"})

	assert.Error(t, err)
}

func TestContador_ObterTodos_QuandoParteDasChavesExiste_DeveZerarAusentes(t *testing.T) {
	client, _ := setupRedis(t)
	contador := NewContador(client, "painel")
	ctx := context.Background()
	chaves := []string{"eventos:total", "ferramentas:movimentos", "presencas:registradas"}

	require.NoError(t, contador.Contabilizar(ctx, chaves[:2]))
	require.NoError(t, contador.Contabilizar(ctx, chaves[:1]))

	// Act
	painel, err := contador.ObterTodos(ctx, chaves)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{
		"eventos:total":          2,
		"ferramentas:movimentos": 1,
		"presencas:registradas":  0,
	}, painel)
}

func TestContador_ObterTodos_QuandoListaVazia_DeveRetornarMapaVazio(t *testing.T) {
	client, _ := setupRedis(t)
	contador := NewContador(client, "painel")

	painel, err := contador.ObterTodos(context.Background(), nil)

	require.NoError(t, err)
	assert.Empty(t, painel)
}

func TestContador_ObterTodos_QuandoValorCorrompido_DeveIndicarChave(t *testing.T) {
	client, mr := setupRedis(t)
	contador := NewContador(client, "painel")
	require.NoError(t, mr.Set("painel:negocios:lost", "x"))

	_, err := contador.ObterTodos(context.Background(), []string{"negocios:won", "negocios:lost"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "negocios:lost")
}

func TestContador_QuandoPrefixoVazio_DeveUsarChaveCrua(t *testing.T) {
	client, mr := setupRedis(t)
	contador := NewContador(client, "")

	require.NoError(t, contador.Contabilizar(context.Background(), []string{"eventos:total"}))

	assert.True(t, mr.Exists("eventos:total"))
}
