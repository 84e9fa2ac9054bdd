package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusCompra_PodeAvancarPara(t *testing.T) {
	assert.True(t, CompraPendente.PodeAvancarPara(CompraAprovada))
	assert.True(t, CompraPendente.PodeAvancarPara(CompraComprada))
	assert.True(t, CompraAprovada.PodeAvancarPara(CompraComprada))

	assert.False(t, CompraComprada.PodeAvancarPara(CompraPendente))
	assert.False(t, CompraAprovada.PodeAvancarPara(CompraAprovada))
	assert.False(t, CompraPendente.PodeAvancarPara("cancelada"))
}

func TestStatusAtribuicao_Valido(t *testing.T) {
	for _, s := range ColunasQuadro {
		assert.True(t, s.Valido())
	}
	assert.False(t, StatusAtribuicao("blocked").Valido())
}

func TestEstagioNegocio_Terminal(t *testing.T) {
	assert.True(t, EstagioGanho.Terminal())
	assert.True(t, EstagioPerdido.Terminal())
	assert.False(t, EstagioNegociacao.Terminal())
	assert.False(t, EstagioNegocio("arquivado").Valido())
}
