package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/marcelojr/gestao-obras/internal/app/acesso"
	"github.com/marcelojr/gestao-obras/internal/app/ferramentas"
	"github.com/marcelojr/gestao-obras/internal/app/presenca"
	"github.com/marcelojr/gestao-obras/internal/domain"
	"github.com/marcelojr/gestao-obras/internal/platform/limite"
)

type MockAcesso struct {
	mock.Mock
}

func (m *MockAcesso) CriarUsuario(ctx context.Context, u domain.Usuario) (domain.Usuario, error) {
	args := m.Called(ctx, u)
	return args.Get(0).(domain.Usuario), args.Error(1)
}

func (m *MockAcesso) ListarUsuarios(ctx context.Context) ([]domain.Usuario, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Usuario), args.Error(1)
}

func (m *MockAcesso) ObterUsuario(ctx context.Context, id domain.UsuarioID) (domain.Usuario, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Usuario), args.Error(1)
}

func (m *MockAcesso) DefinirPermissao(ctx context.Context, id domain.UsuarioID, pagina domain.Pagina, nivel domain.NivelAcesso) (domain.Usuario, error) {
	args := m.Called(ctx, id, pagina, nivel)
	return args.Get(0).(domain.Usuario), args.Error(1)
}

func (m *MockAcesso) RemoverPermissao(ctx context.Context, id domain.UsuarioID, pagina domain.Pagina) (domain.Usuario, error) {
	args := m.Called(ctx, id, pagina)
	return args.Get(0).(domain.Usuario), args.Error(1)
}

func (m *MockAcesso) Autorizar(ctx context.Context, id domain.UsuarioID, pagina domain.Pagina, acao acesso.Acao) (domain.Usuario, error) {
	args := m.Called(ctx, id, pagina, acao)
	return args.Get(0).(domain.Usuario), args.Error(1)
}

type MockPresenca struct {
	mock.Mock
}

func (m *MockPresenca) Folha(ctx context.Context, dia time.Time) (domain.FolhaPresenca, error) {
	args := m.Called(ctx, dia)
	return args.Get(0).(domain.FolhaPresenca), args.Error(1)
}

func (m *MockPresenca) Registrar(ctx context.Context, r presenca.Registro, autor *domain.UsuarioID) (domain.Presenca, error) {
	args := m.Called(ctx, r, autor)
	return args.Get(0).(domain.Presenca), args.Error(1)
}

type MockFerramentas struct {
	mock.Mock
}

func (m *MockFerramentas) Criar(ctx context.Context, f domain.Ferramenta) (domain.Ferramenta, error) {
	args := m.Called(ctx, f)
	return args.Get(0).(domain.Ferramenta), args.Error(1)
}

func (m *MockFerramentas) Listar(ctx context.Context) ([]domain.Ferramenta, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Ferramenta), args.Error(1)
}

func (m *MockFerramentas) Obter(ctx context.Context, id domain.FerramentaID) (domain.Ferramenta, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Ferramenta), args.Error(1)
}

func (m *MockFerramentas) Retirar(ctx context.Context, id domain.FerramentaID, d ferramentas.Destino, autor *domain.UsuarioID) (domain.Ferramenta, error) {
	args := m.Called(ctx, id, d, autor)
	return args.Get(0).(domain.Ferramenta), args.Error(1)
}

func (m *MockFerramentas) Devolver(ctx context.Context, id domain.FerramentaID, observacao string, autor *domain.UsuarioID) (domain.Ferramenta, error) {
	args := m.Called(ctx, id, observacao, autor)
	return args.Get(0).(domain.Ferramenta), args.Error(1)
}

func (m *MockFerramentas) Transferir(ctx context.Context, id domain.FerramentaID, d ferramentas.Destino, autor *domain.UsuarioID) (domain.Ferramenta, error) {
	args := m.Called(ctx, id, d, autor)
	return args.Get(0).(domain.Ferramenta), args.Error(1)
}

func (m *MockFerramentas) AlterarStatus(ctx context.Context, id domain.FerramentaID, status domain.StatusFerramenta) (domain.Ferramenta, error) {
	args := m.Called(ctx, id, status)
	return args.Get(0).(domain.Ferramenta), args.Error(1)
}

func (m *MockFerramentas) Historico(ctx context.Context, id domain.FerramentaID) ([]domain.PeriodoCustodia, error) {
	args := m.Called(ctx, id)
	return args.Get(0).([]domain.PeriodoCustodia), args.Error(1)
}

func (m *MockFerramentas) Conferir(ctx context.Context, id domain.FerramentaID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

// limiteFixo recusa toda escrita quando erro != nil.
type limiteFixo struct{ erro error }

func (l limiteFixo) Validar(context.Context, domain.UsuarioID) error { return l.erro }

type mocks struct {
	acesso      *MockAcesso
	presenca    *MockPresenca
	ferramentas *MockFerramentas
}

const usuarioTeste = domain.UsuarioID("01HUSUARIOXXXXXXXXXXXXXXX")

// setupAPI monta o mux completo com serviços mockados e devolve os mocks para as expectativas.
func setupAPI(t *testing.T, lim domain.LimiteEscrita) (http.Handler, mocks) {
	m := mocks{acesso: new(MockAcesso), presenca: new(MockPresenca), ferramentas: new(MockFerramentas)}
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{}))
	api := New(Servicos{
		Acesso:      m.acesso,
		Presenca:    m.presenca,
		Ferramentas: m.ferramentas,
		Limite:      lim,
	}, logger)

	mux := http.NewServeMux()
	api.Register(mux)

	t.Cleanup(func() {
		m.acesso.AssertExpectations(t)
		m.presenca.AssertExpectations(t)
		m.ferramentas.AssertExpectations(t)
	})
	return mux, m
}

func (m mocks) permitir(pagina domain.Pagina, acao acesso.Acao) {
	m.acesso.On("Autorizar", mock.Anything, usuarioTeste, pagina, acao).
		Return(domain.Usuario{ID: usuarioTeste, Ativo: true, Tipo: domain.UsuarioAdmin}, nil)
}

func requisicao(metodo, alvo, corpo string) *http.Request {
	var req *http.Request
	if corpo == "" {
		req = httptest.NewRequest(metodo, alvo, nil)
	} else {
		req = httptest.NewRequest(metodo, alvo, strings.NewReader(corpo))
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(CabecalhoUsuario, string(usuarioTeste))
	return req
}

func lerEnvelope(t *testing.T, w *httptest.ResponseRecorder, dados any) envelope {
	t.Helper()
	var env struct {
		envelope
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&env))
	if dados != nil {
		require.NoError(t, json.Unmarshal(env.Data, dados))
	}
	return env.envelope
}

func TestHandleHealthz_QuandoSolicitado_DeveRetornar200OK(t *testing.T) {
	h, _ := setupAPI(t, nil)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
}

func TestFolhaPresenca_QuandoSemCabecalhoDeUsuario_DeveRetornar403(t *testing.T) {
	h, m := setupAPI(t, nil)
	m.acesso.On("Autorizar", mock.Anything, domain.UsuarioID(""), domain.PaginaPresenca, acesso.AcaoLer).
		Return(domain.Usuario{}, acesso.ErrNaoIdentificado)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/presencas", nil))

	assert.Equal(t, http.StatusForbidden, w.Code)
	env := lerEnvelope(t, w, nil)
	assert.False(t, env.Success)
	assert.Equal(t, acesso.ErrNaoIdentificado.Error(), env.Message)
}

func TestFolhaPresenca_QuandoDataInformada_DeveConsultarODia(t *testing.T) {
	h, m := setupAPI(t, nil)
	m.permitir(domain.PaginaPresenca, acesso.AcaoLer)
	esperado := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	m.presenca.On("Folha", mock.Anything, mock.MatchedBy(func(d time.Time) bool { return d.Equal(esperado) })).
		Return(domain.FolhaPresenca{Dia: "2024-03-04"}, nil)

	// Act
	w := httptest.NewRecorder()
	h.ServeHTTP(w, requisicao(http.MethodGet, "/presencas?data=2024-03-04", ""))

	// Assert
	assert.Equal(t, http.StatusOK, w.Code)
	var folha domain.FolhaPresenca
	env := lerEnvelope(t, w, &folha)
	assert.True(t, env.Success)
	assert.Equal(t, "2024-03-04", folha.Dia)
}

func TestFolhaPresenca_QuandoDataMalFormada_DeveRetornar400(t *testing.T) {
	h, m := setupAPI(t, nil)
	m.permitir(domain.PaginaPresenca, acesso.AcaoLer)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, requisicao(http.MethodGet, "/presencas?data=04/03/2024", ""))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	m.presenca.AssertNotCalled(t, "Folha", mock.Anything, mock.Anything)
}

func TestRegistrarPresenca_QuandoValida_DeveRepassarRegistroComAutor(t *testing.T) {
	h, m := setupAPI(t, limiteFixo{})
	m.permitir(domain.PaginaPresenca, acesso.AcaoEditar)
	obra := domain.ObraID("01HOBRAXXXXXXXXXXXXXXXXXXX")
	m.presenca.On("Registrar", mock.Anything, mock.MatchedBy(func(r presenca.Registro) bool {
		return r.PrestadorID == "p1" && r.Presente && r.ObraID != nil && *r.ObraID == obra &&
			r.Dia.Equal(time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC))
	}), mock.MatchedBy(func(autor *domain.UsuarioID) bool {
		return autor != nil && *autor == usuarioTeste
	})).Return(domain.Presenca{PrestadorID: "p1", Presente: true, ObraID: &obra}, nil)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, requisicao(http.MethodPut, "/presencas", `{"data":"2024-03-04","prestador_id":"p1","presente":true,"obra_id":"`+string(obra)+`"}`))

	assert.Equal(t, http.StatusOK, w.Code)
	var p domain.Presenca
	lerEnvelope(t, w, &p)
	assert.True(t, p.Presente)
}

func TestRegistrarPresenca_QuandoPresenteSemObra_DeveRetornar400(t *testing.T) {
	h, m := setupAPI(t, nil)
	m.permitir(domain.PaginaPresenca, acesso.AcaoEditar)
	m.presenca.On("Registrar", mock.Anything, mock.Anything, mock.Anything).
		Return(domain.Presenca{}, presenca.ErrPresencaSemObra)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, requisicao(http.MethodPut, "/presencas", `{"data":"2024-03-04","prestador_id":"p1","presente":true}`))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, presenca.ErrPresencaSemObra.Error(), lerEnvelope(t, w, nil).Message)
}

func TestRegistrarPresenca_QuandoLimiteExcedido_DeveRetornar429SemChamarServico(t *testing.T) {
	h, m := setupAPI(t, limiteFixo{erro: limite.ErrLimiteExcedido})
	m.permitir(domain.PaginaPresenca, acesso.AcaoEditar)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, requisicao(http.MethodPut, "/presencas", `{"data":"2024-03-04","prestador_id":"p1","presente":false}`))

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	m.presenca.AssertNotCalled(t, "Registrar", mock.Anything, mock.Anything, mock.Anything)
}

func TestRetirarFerramenta_QuandoTransicaoInvalida_DeveRetornar409(t *testing.T) {
	h, m := setupAPI(t, nil)
	m.permitir(domain.PaginaFerramentas, acesso.AcaoCriar)
	destino := ferramentas.Destino{ObraID: "o1", ResponsavelID: "p1"}
	m.ferramentas.On("Retirar", mock.Anything, domain.FerramentaID("f1"), destino, mock.Anything).
		Return(domain.Ferramenta{}, ferramentas.ErrTransicaoInvalida)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, requisicao(http.MethodPost, "/ferramentas/f1/retirar", `{"obra_id":"o1","responsavel_id":"p1"}`))

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.False(t, lerEnvelope(t, w, nil).Success)
}

func TestObterFerramenta_QuandoFalhaInesperada_DeveEsconderMensagem(t *testing.T) {
	h, m := setupAPI(t, nil)
	m.permitir(domain.PaginaFerramentas, acesso.AcaoLer)
	m.ferramentas.On("Obter", mock.Anything, domain.FerramentaID("f1")).Return(domain.Ferramenta{}, assert.AnError)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, requisicao(http.MethodGet, "/ferramentas/f1", ""))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "erro interno", lerEnvelope(t, w, nil).Message)
}

func TestObterFerramenta_QuandoNaoEncontrada_DeveRetornar404(t *testing.T) {
	h, m := setupAPI(t, nil)
	m.permitir(domain.PaginaFerramentas, acesso.AcaoLer)
	m.ferramentas.On("Obter", mock.Anything, domain.FerramentaID("f9")).
		Return(domain.Ferramenta{}, ferramentas.ErrFerramentaNaoEncontrada)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, requisicao(http.MethodGet, "/ferramentas/f9", ""))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestConferirFerramenta_DeveResponderConsistencia(t *testing.T) {
	h, m := setupAPI(t, nil)
	m.permitir(domain.PaginaFerramentas, acesso.AcaoLer)
	m.ferramentas.On("Conferir", mock.Anything, domain.FerramentaID("f1")).Return(true, nil)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, requisicao(http.MethodGet, "/ferramentas/f1/conferencia", ""))

	assert.Equal(t, http.StatusOK, w.Code)
	var resp conferenciaResponse
	lerEnvelope(t, w, &resp)
	assert.True(t, resp.Consistente)
}

func TestAcessoNegado_QuandoPaginaBloqueada_DeveRetornar403(t *testing.T) {
	h, m := setupAPI(t, nil)
	m.acesso.On("Autorizar", mock.Anything, usuarioTeste, domain.PaginaFerramentas, acesso.AcaoCriar).
		Return(domain.Usuario{}, acesso.ErrAcessoNegado)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, requisicao(http.MethodPost, "/ferramentas", `{"nome":"Serra"}`))

	assert.Equal(t, http.StatusForbidden, w.Code)
	m.ferramentas.AssertNotCalled(t, "Criar", mock.Anything, mock.Anything)
}

func TestDefinirPermissao_DeveConverterNivelTextual(t *testing.T) {
	h, m := setupAPI(t, nil)
	m.permitir(domain.PaginaUsuarios, acesso.AcaoEditar)
	alvo := domain.UsuarioID("01HALVOXXXXXXXXXXXXXXXXXXX")
	m.acesso.On("DefinirPermissao", mock.Anything, alvo, domain.PaginaObras, domain.NivelEditar).
		Return(domain.Usuario{ID: alvo}, nil)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, requisicao(http.MethodPut, "/usuarios/"+string(alvo)+"/permissoes/obras", `{"nivel":"edit"}`))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDefinirPermissao_QuandoNivelDesconhecido_DeveRetornar400(t *testing.T) {
	h, m := setupAPI(t, nil)
	m.permitir(domain.PaginaUsuarios, acesso.AcaoEditar)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, requisicao(http.MethodPut, "/usuarios/u1/permissoes/obras", `{"nivel":"tudo"}`))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestObterProprioUsuario_QuandoInativo_DeveRetornar403(t *testing.T) {
	h, m := setupAPI(t, nil)
	m.acesso.On("ObterUsuario", mock.Anything, usuarioTeste).Return(domain.Usuario{ID: usuarioTeste, Ativo: false}, nil)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, requisicao(http.MethodGet, "/eu", ""))

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestObterProprioUsuario_QuandoAtivo_DeveDevolverUsuario(t *testing.T) {
	h, m := setupAPI(t, nil)
	m.acesso.On("ObterUsuario", mock.Anything, usuarioTeste).
		Return(domain.Usuario{ID: usuarioTeste, Nome: "Ana", Ativo: true}, nil)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, requisicao(http.MethodGet, "/eu", ""))

	assert.Equal(t, http.StatusOK, w.Code)
	var u domain.Usuario
	lerEnvelope(t, w, &u)
	assert.Equal(t, "Ana", u.Nome)
}

func TestRotasDesligadas_QuandoServicoAusente_DeveRetornar404(t *testing.T) {
	h, _ := setupAPI(t, nil)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, requisicao(http.MethodGet, "/leads", ""))

	assert.Equal(t, http.StatusNotFound, w.Code)
}
