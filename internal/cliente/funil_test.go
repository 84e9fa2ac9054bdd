package cliente

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/marcelojr/gestao-obras/internal/domain"
)

type MockAPIFunil struct {
	mock.Mock
}

func (m *MockAPIFunil) ListarNegocios(ctx context.Context) ([]domain.Negocio, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Negocio), args.Error(1)
}

func (m *MockAPIFunil) MoverEstagio(ctx context.Context, id domain.NegocioID, alvo domain.EstagioNegocio, motivo string) (domain.Negocio, error) {
	args := m.Called(ctx, id, alvo, motivo)
	return args.Get(0).(domain.Negocio), args.Error(1)
}

func (m *MockAPIFunil) RegistrarInteracao(ctx context.Context, id domain.NegocioID, tipo domain.TipoInteracao, texto string) (domain.Interacao, error) {
	args := m.Called(ctx, id, tipo, texto)
	return args.Get(0).(domain.Interacao), args.Error(1)
}

func negociosIniciais() []domain.Negocio {
	return []domain.Negocio{
		{ID: "n1", Titulo: "Reforma loja", Estagio: domain.EstagioProposta},
		{ID: "n2", Titulo: "Galpão", Estagio: domain.EstagioGanho},
		{ID: "n3", Titulo: "Casa", Estagio: domain.EstagioPerdido},
	}
}

func novoFunil(t *testing.T, op *operadorFake) (*Funil, *MockAPIFunil) {
	t.Helper()
	api := new(MockAPIFunil)
	api.On("ListarNegocios", mock.Anything).Return(negociosIniciais(), nil).Once()
	f := NewFunil(api, op)
	require.NoError(t, f.Carregar(context.Background()))
	t.Cleanup(func() { api.AssertExpectations(t) })
	return f, api
}

func TestFunil_MoverEstagio_QuandoOrigemTerminal_NaoDeveChamarAPI(t *testing.T) {
	for _, id := range []domain.NegocioID{"n2", "n3"} {
		op := &operadorFake{confirma: true, resposta: "preço", respondeu: true}
		f, api := novoFunil(t, op)
		antes, _ := f.Negocio(id)

		for _, alvo := range domain.EstagiosFunil {
			err := f.MoverEstagio(context.Background(), id, alvo)
			assert.ErrorIs(t, err, ErrEstagioTerminal)
		}

		depois, _ := f.Negocio(id)
		assert.Equal(t, antes.Estagio, depois.Estagio)
		assert.NotEmpty(t, op.notificacoes)
		api.AssertNotCalled(t, "MoverEstagio", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	}
}

func TestFunil_MoverEstagio_QuandoGanhoRecusado_DeveRestaurarEstagio(t *testing.T) {
	op := &operadorFake{confirma: false}
	f, api := novoFunil(t, op)

	err := f.MoverEstagio(context.Background(), "n1", domain.EstagioGanho)

	assert.ErrorIs(t, err, ErrCancelado)
	n, _ := f.Negocio("n1")
	assert.Equal(t, domain.EstagioProposta, n.Estagio)
	assert.Len(t, op.confirmacoes, 1)
	api.AssertNotCalled(t, "MoverEstagio", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestFunil_MoverEstagio_QuandoMotivoDePerdaEmBrancoOuCancelado_DeveRestaurar(t *testing.T) {
	casos := []*operadorFake{
		{resposta: "   ", respondeu: true},
		{resposta: "preço", respondeu: false},
	}
	for _, op := range casos {
		f, api := novoFunil(t, op)

		err := f.MoverEstagio(context.Background(), "n1", domain.EstagioPerdido)

		assert.ErrorIs(t, err, ErrCancelado)
		n, _ := f.Negocio("n1")
		assert.Equal(t, domain.EstagioProposta, n.Estagio)
		api.AssertNotCalled(t, "MoverEstagio", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	}
}

func TestFunil_MoverEstagio_QuandoPerdaComMotivo_DeveEnviarMotivo(t *testing.T) {
	op := &operadorFake{resposta: " preço alto ", respondeu: true}
	f, api := novoFunil(t, op)
	api.On("MoverEstagio", mock.Anything, domain.NegocioID("n1"), domain.EstagioPerdido, "preço alto").
		Return(domain.Negocio{ID: "n1", Titulo: "Reforma loja", Estagio: domain.EstagioPerdido, MotivoPerda: "preço alto"}, nil)

	err := f.MoverEstagio(context.Background(), "n1", domain.EstagioPerdido)

	require.NoError(t, err)
	n, _ := f.Negocio("n1")
	assert.Equal(t, domain.EstagioPerdido, n.Estagio)
	assert.Len(t, f.Colunas()[domain.EstagioPerdido], 2)
}

func TestFunil_MoverEstagio_QuandoAPIFalha_DeveRecarregarDoServidor(t *testing.T) {
	op := &operadorFake{}
	f, api := novoFunil(t, op)
	api.On("MoverEstagio", mock.Anything, domain.NegocioID("n1"), domain.EstagioNegociacao, "").
		Return(domain.Negocio{}, &FalhaAPI{Status: 500, Mensagem: "erro interno"})
	api.On("ListarNegocios", mock.Anything).Return(negociosIniciais(), nil).Once()

	// Act
	err := f.MoverEstagio(context.Background(), "n1", domain.EstagioNegociacao)

	// Assert
	var falha *FalhaAPI
	require.ErrorAs(t, err, &falha)
	n, _ := f.Negocio("n1")
	assert.Equal(t, domain.EstagioProposta, n.Estagio)
	require.Len(t, op.notificacoes, 1)
	assert.Contains(t, op.notificacoes[0], "erro interno")
}

func TestFunil_MoverEstagio_QuandoGanhoConfirmado_DeveAplicarRespostaDoServidor(t *testing.T) {
	op := &operadorFake{confirma: true}
	f, api := novoFunil(t, op)
	api.On("MoverEstagio", mock.Anything, domain.NegocioID("n1"), domain.EstagioGanho, "").
		Return(domain.Negocio{ID: "n1", Titulo: "Reforma loja", Estagio: domain.EstagioGanho}, nil)

	require.NoError(t, f.MoverEstagio(context.Background(), "n1", domain.EstagioGanho))

	assert.ErrorIs(t, f.MoverEstagio(context.Background(), "n1", domain.EstagioProspeccao), ErrEstagioTerminal)
}

func TestFunil_RegistrarInteracao_QuandoSistema_DeveRejeitarLocalmente(t *testing.T) {
	f, api := novoFunil(t, &operadorFake{})

	_, err := f.RegistrarInteracao(context.Background(), "n1", domain.InteracaoSistema, "estagio alterado")

	assert.ErrorIs(t, err, ErrInteracaoSistema)
	api.AssertNotCalled(t, "RegistrarInteracao", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestFunil_RegistrarInteracao_QuandoNota_DeveEnviarTextoLimpo(t *testing.T) {
	f, api := novoFunil(t, &operadorFake{})
	api.On("RegistrarInteracao", mock.Anything, domain.NegocioID("n1"), domain.InteracaoNota, "ligar amanhã").
		Return(domain.Interacao{ID: "i1", Tipo: domain.InteracaoNota, Texto: "ligar amanhã"}, nil)

	i, err := f.RegistrarInteracao(context.Background(), "n1", domain.InteracaoNota, " ligar amanhã ")

	require.NoError(t, err)
	assert.Equal(t, domain.InteracaoID("i1"), i.ID)
}
