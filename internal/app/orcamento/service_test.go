package orcamento

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/marcelojr/gestao-obras/internal/domain"
	"github.com/marcelojr/gestao-obras/internal/platform/arquivos"
	"github.com/marcelojr/gestao-obras/internal/platform/eventos"
	"github.com/marcelojr/gestao-obras/internal/platform/ids"
	"github.com/marcelojr/gestao-obras/internal/platform/migrations"
	"github.com/marcelojr/gestao-obras/internal/platform/planilha"
	"github.com/marcelojr/gestao-obras/internal/platform/storage/postgres"
)

type relogioFixo struct{ t time.Time }

func (r relogioFixo) Agora() time.Time { return r.t }

type publicadorFake struct {
	recebidos []domain.Evento
}

func (p *publicadorFake) Publicar(_ context.Context, e domain.Evento) error {
	p.recebidos = append(p.recebidos, e)
	return nil
}

type cenario struct {
	service  *Service
	pub      *publicadorFake
	disco    *arquivos.Disco
	negocios *postgres.NegocioRepository
	obra     domain.ObraID
	lead     domain.LeadID
	gen      *ids.Generator
}

func novoCenario(t *testing.T) cenario {
	t.Helper()
	nome := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", nome)), postgres.GormConfig())
	require.NoError(t, err)
	require.NoError(t, migrations.Run(db))
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})

	disco, err := arquivos.NewDisco(t.TempDir(), "/arquivos")
	require.NoError(t, err)

	ctx := context.Background()
	gen := ids.NewGenerator()
	relogio := relogioFixo{t: time.Date(2024, 5, 10, 14, 0, 0, 0, time.UTC)}
	pub := &publicadorFake{}
	obras := postgres.NewObraRepository(db)
	leads := postgres.NewLeadRepository(db)

	c := cenario{pub: pub, disco: disco, negocios: postgres.NewNegocioRepository(db), gen: gen}
	c.obra = domain.ObraID(gen.New())
	require.NoError(t, obras.Create(ctx, domain.Obra{ID: c.obra, Nome: "Casa Jardim", Cliente: "Carlos", Status: domain.ObraRascunho}))
	c.lead = domain.LeadID(gen.New())
	require.NoError(t, leads.Create(ctx, domain.Lead{ID: c.lead, Nome: "Carlos Souza"}))

	c.service = NewService(Repositorios{
		Obras:      obras,
		Orcamentos: postgres.NewOrcamentoRepository(db),
		Negocios:   c.negocios,
		Leads:      leads,
		Propostas:  postgres.NewPropostaRepository(db),
	}, disco, eventos.NewEmissor(pub, gen, relogio), relogio, gen)
	return c
}

func (c cenario) negocio(t *testing.T, obra *domain.ObraID) domain.NegocioID {
	t.Helper()
	id := domain.NegocioID(c.gen.New())
	require.NoError(t, c.negocios.Create(context.Background(), domain.Negocio{
		ID:      id, Titulo: "Reforma Casa Jardim", Valor: decimal.NewFromInt(50000),
		Estagio: domain.EstagioProposta, LeadID: c.lead, ObraID: obra,
	}))
	return id
}

func planilhaOrcamento(t *testing.T, linhas ...[]any) io.Reader {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	cabecalho := []any{"Tipo", "Codigo", "Descricao", "Unidade", "Quantidade", "Custo Unitario"}
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &cabecalho))
	for i, l := range linhas {
		linha := l
		require.NoError(t, f.SetSheetRow("Sheet1", fmt.Sprintf("A%d", i+2), &linha))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return bytes.NewReader(buf.Bytes())
}

func (c cenario) importarPadrao(t *testing.T) domain.ResumoOrcamento {
	t.Helper()
	r, err := c.service.Importar(context.Background(), c.obra, "orcamento.xlsx", planilhaOrcamento(t,
		[]any{"etapa", "01", "Alvenaria"},
		[]any{"item", "01.01", "Tijolo cerâmico", "un", "1000", "0,85"},
		[]any{"item", "01.02", "Argamassa", "saco", "10", "50"},
		[]any{"item", "02", "Projeto", "vb", "1", "R$ 3.000,00"},
	), nil)
	require.NoError(t, err)
	return r
}

func TestService_Importar_QuandoExtensaoInvalida_DeveRecusarSemCriarOrcamento(t *testing.T) {
	c := novoCenario(t)

	_, err := c.service.Importar(context.Background(), c.obra, "orcamento.csv", strings.NewReader("a;b"), nil)

	assert.ErrorIs(t, err, planilha.ErrFormatoInvalido)
	_, err = c.service.Obter(context.Background(), c.obra)
	assert.ErrorIs(t, err, ErrOrcamentoNaoEncontrado)
}

func TestService_Importar_DeveMontarArvoreComTotais(t *testing.T) {
	c := novoCenario(t)

	// Act
	r := c.importarPadrao(t)

	// Assert
	require.Len(t, r.Linhas, 2)
	assert.Equal(t, "Alvenaria", r.Linhas[0].Item.Descricao)
	require.Len(t, r.Linhas[0].Filhos, 2)
	assert.Equal(t, "1350.00", r.Linhas[0].Total.StringFixed(2))
	assert.Equal(t, "4350.00", r.TotalDireto.StringFixed(2))
	assert.Equal(t, "4350.00", r.TotalComBDI.StringFixed(2))

	require.Len(t, c.pub.recebidos, 1)
	assert.Equal(t, domain.EventoOrcamentoImportado, c.pub.recebidos[0].Tipo)
	assert.Equal(t, "4", c.pub.recebidos[0].Dados["itens"])
}

func TestService_Importar_QuandoRepetida_DeveSubstituirItens(t *testing.T) {
	c := novoCenario(t)
	c.importarPadrao(t)

	r, err := c.service.Importar(context.Background(), c.obra, "v2.XLSX", planilhaOrcamento(t,
		[]any{"item", "", "Pintura", "m2", "100", "25"},
	), nil)

	require.NoError(t, err)
	require.Len(t, r.Linhas, 1)
	assert.Equal(t, "2500.00", r.TotalDireto.StringFixed(2))
}

func TestService_Importar_QuandoLinhaInvalida_DeveManterItensAnteriores(t *testing.T) {
	c := novoCenario(t)
	c.importarPadrao(t)

	_, err := c.service.Importar(context.Background(), c.obra, "v2.xlsx", planilhaOrcamento(t,
		[]any{"item", "", "Pintura", "m2", "cem", "25"},
	), nil)

	assert.ErrorIs(t, err, planilha.ErrLinhaInvalida)
	r, err := c.service.Obter(context.Background(), c.obra)
	require.NoError(t, err)
	assert.Equal(t, "4350.00", r.TotalDireto.StringFixed(2))
}

func TestService_Criar_QuandoJaExiste_DeveRetornarErrOrcamentoExistente(t *testing.T) {
	c := novoCenario(t)
	ctx := context.Background()

	_, err := c.service.Criar(ctx, c.obra, decimal.NewFromInt(20))
	require.NoError(t, err)
	_, err = c.service.Criar(ctx, c.obra, decimal.NewFromInt(25))

	assert.ErrorIs(t, err, ErrOrcamentoExistente)
}

func TestService_Criar_QuandoBDIForaDoIntervalo_DeveRetornarErrBDIInvalido(t *testing.T) {
	c := novoCenario(t)

	_, err := c.service.Criar(context.Background(), c.obra, decimal.NewFromInt(120))

	assert.ErrorIs(t, err, ErrBDIInvalido)
}

func TestService_AtualizarBDI_DeveRecalcularTotalComBDI(t *testing.T) {
	c := novoCenario(t)
	c.importarPadrao(t)

	r, err := c.service.AtualizarBDI(context.Background(), c.obra, decimal.NewFromInt(25))

	require.NoError(t, err)
	assert.Equal(t, "4350.00", r.TotalDireto.StringFixed(2))
	assert.Equal(t, "5437.50", r.TotalComBDI.StringFixed(2))
	assert.Equal(t, "1687.50", r.Linhas[0].TotalComBDI.StringFixed(2))
}

func TestService_AdicionarItem_QuandoPaiNaoEEtapa_DeveRetornarErrItemInvalido(t *testing.T) {
	c := novoCenario(t)
	r := c.importarPadrao(t)
	projeto := r.Linhas[1].Item.ID

	_, err := c.service.AdicionarItem(context.Background(), c.obra, domain.ItemOrcamento{
		PaiID: &projeto, Tipo: domain.ItemCusto, Descricao: "ART", Quantidade: decimal.NewFromInt(1), CustoUnitario: decimal.NewFromInt(100),
	})

	assert.ErrorIs(t, err, ErrItemInvalido)
}

func TestService_AdicionarItem_DeveEntrarNaEtapaEAoFinal(t *testing.T) {
	c := novoCenario(t)
	r := c.importarPadrao(t)
	alvenaria := r.Linhas[0].Item.ID

	r, err := c.service.AdicionarItem(context.Background(), c.obra, domain.ItemOrcamento{
		PaiID: &alvenaria, Tipo: domain.ItemCusto, Descricao: "Cimento", Quantidade: decimal.NewFromInt(5), CustoUnitario: decimal.NewFromInt(40),
	})

	require.NoError(t, err)
	require.Len(t, r.Linhas[0].Filhos, 3)
	assert.Equal(t, "Cimento", r.Linhas[0].Filhos[2].Item.Descricao)
	assert.Equal(t, "4550.00", r.TotalDireto.StringFixed(2))
}

func TestService_RemoverItem_QuandoEtapa_DeveTirarSubtotalInteiro(t *testing.T) {
	c := novoCenario(t)
	r := c.importarPadrao(t)

	r, err := c.service.RemoverItem(context.Background(), c.obra, r.Linhas[0].Item.ID)

	require.NoError(t, err)
	require.Len(t, r.Linhas, 1)
	assert.Equal(t, "3000.00", r.TotalDireto.StringFixed(2))

	_, err = c.service.RemoverItem(context.Background(), c.obra, domain.ItemOrcamentoID(c.gen.New()))
	assert.ErrorIs(t, err, ErrItemNaoEncontrado)
}

func TestService_GerarProposta_QuandoNegocioSemObra_DeveRetornarErrNegocioSemObra(t *testing.T) {
	c := novoCenario(t)
	negocio := c.negocio(t, nil)

	_, err := c.service.GerarProposta(context.Background(), negocio, decimal.RequireFromString("1.2"), nil)

	assert.ErrorIs(t, err, ErrNegocioSemObra)
}

func TestService_GerarProposta_QuandoMargemNaoPositiva_DeveRetornarErrMargemInvalida(t *testing.T) {
	c := novoCenario(t)
	negocio := c.negocio(t, &c.obra)

	_, err := c.service.GerarProposta(context.Background(), negocio, decimal.Zero, nil)

	assert.ErrorIs(t, err, ErrMargemInvalida)
}

func TestService_GerarProposta_DeveVersionarECongelarValores(t *testing.T) {
	c := novoCenario(t)
	ctx := context.Background()
	c.importarPadrao(t)
	_, err := c.service.AtualizarBDI(ctx, c.obra, decimal.NewFromInt(20))
	require.NoError(t, err)
	negocio := c.negocio(t, &c.obra)

	// Act
	v1, err := c.service.GerarProposta(ctx, negocio, decimal.RequireFromString("1.10"), nil)
	require.NoError(t, err)
	_, err = c.service.AtualizarBDI(ctx, c.obra, decimal.NewFromInt(30))
	require.NoError(t, err)
	v2, err := c.service.GerarProposta(ctx, negocio, decimal.RequireFromString("1.10"), nil)
	require.NoError(t, err)

	// Assert
	assert.Equal(t, 1, v1.Versao)
	assert.Equal(t, 2, v2.Versao)
	assert.Equal(t, "5220.00", v1.TotalBase.StringFixed(2))
	assert.Equal(t, "5742.00", v1.TotalFinal.StringFixed(2))
	assert.Equal(t, "6220.50", v2.TotalFinal.StringFixed(2))

	propostas, err := c.service.ListarPropostas(ctx, negocio)
	require.NoError(t, err)
	require.Len(t, propostas, 2)
	assert.Equal(t, 1, propostas[1].Versao)
	assert.Equal(t, "5742.00", propostas[1].TotalFinal.StringFixed(2))

	var snapshot domain.ResumoOrcamento
	require.NoError(t, json.Unmarshal(propostas[1].Snapshot, &snapshot))
	assert.Equal(t, "20", snapshot.BDI.String())

	require.True(t, strings.HasPrefix(v1.ArquivoURL, "/arquivos/"))
	arquivo, err := c.disco.Abrir(ctx, strings.TrimPrefix(v1.ArquivoURL, "/arquivos/"))
	require.NoError(t, err)
	defer arquivo.Close()
	cabecalho := make([]byte, 4)
	_, err = io.ReadFull(arquivo, cabecalho)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(cabecalho))

	ultimo := c.pub.recebidos[len(c.pub.recebidos)-1]
	assert.Equal(t, domain.EventoPropostaGerada, ultimo.Tipo)
	assert.Equal(t, "2", ultimo.Dados["versao"])
}

func TestService_ListarPropostas_QuandoNegocioInexistente_DeveRetornarErrNegocioNaoEncontrado(t *testing.T) {
	c := novoCenario(t)

	_, err := c.service.ListarPropostas(context.Background(), domain.NegocioID(c.gen.New()))

	assert.ErrorIs(t, err, ErrNegocioNaoEncontrado)
}
