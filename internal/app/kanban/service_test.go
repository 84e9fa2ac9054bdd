package kanban

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/marcelojr/gestao-obras/internal/domain"
	"github.com/marcelojr/gestao-obras/internal/platform/arquivos"
	"github.com/marcelojr/gestao-obras/internal/platform/eventos"
	"github.com/marcelojr/gestao-obras/internal/platform/ids"
	"github.com/marcelojr/gestao-obras/internal/platform/migrations"
	"github.com/marcelojr/gestao-obras/internal/platform/storage/postgres"
)

type relogioFixo struct{ t time.Time }

func (r relogioFixo) Agora() time.Time { return r.t }

type publicadorFake struct {
	mu        sync.Mutex
	recebidos []domain.Evento
}

func (p *publicadorFake) Publicar(_ context.Context, e domain.Evento) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.recebidos = append(p.recebidos, e)
	return nil
}

type cenario struct {
	service *Service
	pub     *publicadorFake
	disco   *arquivos.Disco
	obra    domain.Obra
	db      *gorm.DB
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

	gen := ids.NewGenerator()
	relogio := relogioFixo{t: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	pub := &publicadorFake{}
	obras := postgres.NewObraRepository(db)
	obra := domain.Obra{ID: domain.ObraID(gen.New()), Nome: "Residencial Aurora", Status: domain.ObraAtiva}
	require.NoError(t, obras.Create(context.Background(), obra))

	service := NewService(Repositorios{
		Obras:       obras,
		Atribuicoes: postgres.NewAtribuicaoRepository(db),
		Checklist:   postgres.NewChecklistRepository(db),
		Anexos:      postgres.NewAnexoRepository(db),
		Etiquetas:   postgres.NewEtiquetaRepository(db),
		Compras:     postgres.NewCompraRepository(db),
	}, disco, eventos.NewEmissor(pub, gen, relogio), relogio, gen)

	return cenario{service: service, pub: pub, disco: disco, obra: obra, db: db}
}

func (c cenario) criar(t *testing.T, titulo string, status domain.StatusAtribuicao) domain.Atribuicao {
	t.Helper()
	prestador := domain.PrestadorID("p1")
	a, err := c.service.Criar(context.Background(), domain.Atribuicao{
		ObraID:         c.obra.ID,
		Titulo:         titulo,
		Status:         status,
		TipoAtribuicao: domain.AtribuicaoPrestador,
		PrestadorID:    &prestador,
	}, nil)
	require.NoError(t, err)
	return a
}

func dia(s string) *time.Time {
	t, _ := domain.ParseDia(s)
	return &t
}

func TestService_Criar_QuandoSemAlvo_DeveRejeitar(t *testing.T) {
	c := novoCenario(t)

	_, err := c.service.Criar(context.Background(), domain.Atribuicao{ObraID: c.obra.ID, Titulo: "Reboco", TipoAtribuicao: domain.AtribuicaoEquipe}, nil)

	assert.ErrorIs(t, err, ErrAtribuicaoInvalida)
}

func TestService_Criar_QuandoEquipeEPrestador_DeveRejeitar(t *testing.T) {
	c := novoCenario(t)
	equipe := domain.EquipeID("e1")
	prestador := domain.PrestadorID("p1")

	_, err := c.service.Criar(context.Background(), domain.Atribuicao{
		ObraID:         c.obra.ID,
		Titulo:         "Reboco",
		TipoAtribuicao: domain.AtribuicaoEquipe,
		EquipeID:       &equipe,
		PrestadorID:    &prestador,
	}, nil)

	assert.ErrorIs(t, err, ErrAtribuicaoInvalida)
}

func TestService_Criar_QuandoObraInexistente_DeveRetornarErro(t *testing.T) {
	c := novoCenario(t)
	prestador := domain.PrestadorID("p1")

	_, err := c.service.Criar(context.Background(), domain.Atribuicao{ObraID: "nao-existe", Titulo: "X", TipoAtribuicao: domain.AtribuicaoPrestador, PrestadorID: &prestador}, nil)

	assert.ErrorIs(t, err, ErrObraNaoEncontrada)
}

func TestService_Criar_QuandoConcorrenteNaMesmaColuna_DeveGerarOrdensDistintas(t *testing.T) {
	c := novoCenario(t)
	// Uma conexão só: as requisições se intercalam entre comandos, como no banco real.
	sqlDB, err := c.db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	const total = 8
	var wg sync.WaitGroup
	erros := make([]error, total)
	for i := range total {
		wg.Add(1)
		go func() {
			defer wg.Done()
			prestador := domain.PrestadorID("p1")
			_, erros[i] = c.service.Criar(context.Background(), domain.Atribuicao{
				ObraID:         c.obra.ID,
				Titulo:         fmt.Sprintf("Tarefa %d", i),
				Status:         domain.StatusAFazer,
				TipoAtribuicao: domain.AtribuicaoPrestador,
				PrestadorID:    &prestador,
			}, nil)
		}()
	}
	wg.Wait()

	for _, err := range erros {
		require.NoError(t, err)
	}
	lista, err := c.service.Listar(context.Background(), c.obra.ID)
	require.NoError(t, err)
	require.Len(t, lista, total)
	vistas := make(map[int]bool)
	for _, a := range lista {
		assert.False(t, vistas[a.Ordem], "ordem %d repetida", a.Ordem)
		vistas[a.Ordem] = true
	}
	for ordem := range total {
		assert.True(t, vistas[ordem], "ordem %d ausente", ordem)
	}
}

func TestService_Criar_DeveAnexarAoFimDaColunaComPrioridadePadrao(t *testing.T) {
	c := novoCenario(t)

	a := c.criar(t, "A", "")
	b := c.criar(t, "B", domain.StatusAFazer)

	assert.Equal(t, domain.StatusAFazer, a.Status)
	assert.Equal(t, domain.PrioridadeMedia, a.Prioridade)
	assert.Equal(t, 0, a.Ordem)
	assert.Equal(t, 1, b.Ordem)
	assert.Len(t, c.pub.recebidos, 2)
}

func TestService_Mover_DeveDeixarAtribuicaoEmExatamenteUmaColuna(t *testing.T) {
	c := novoCenario(t)
	ctx := context.Background()
	a := c.criar(t, "A", domain.StatusAFazer)
	c.criar(t, "B", domain.StatusAFazer)
	c.criar(t, "C", domain.StatusConcluida)

	for _, destino := range []domain.StatusAtribuicao{domain.StatusEmAndamento, domain.StatusConcluida, domain.StatusAFazer} {
		// Act
		_, err := c.service.Mover(ctx, a.ID, destino, 0, nil)
		require.NoError(t, err)

		// Assert
		lista, err := c.service.Listar(ctx, c.obra.ID)
		require.NoError(t, err)
		ocorrencias := 0
		for _, at := range lista {
			assert.True(t, at.Status.Valido())
			if at.ID == a.ID {
				ocorrencias++
				assert.Equal(t, destino, at.Status)
			}
		}
		assert.Equal(t, 1, ocorrencias)
	}
}

func TestService_Mover_QuandoStatusInvalido_DeveRejeitar(t *testing.T) {
	c := novoCenario(t)
	a := c.criar(t, "A", domain.StatusAFazer)

	_, err := c.service.Mover(context.Background(), a.ID, "blocked", 0, nil)

	assert.ErrorIs(t, err, ErrStatusInvalido)
}

func TestService_DefinirDias_QuandoForaDoIntervalo_DeveRejeitar(t *testing.T) {
	c := novoCenario(t)
	ctx := context.Background()
	a := c.criar(t, "A", domain.StatusAFazer)
	a.DataInicio = dia("2024-03-01")
	a.DataFim = dia("2024-03-03")
	_, err := c.service.Atualizar(ctx, a)
	require.NoError(t, err)

	_, err = c.service.DefinirDias(ctx, a.ID, []string{"2024-03-02", "2024-03-04"})

	assert.ErrorIs(t, err, ErrDiasInvalidos)
}

func TestService_DefinirDias_DeveOrdenarERemoverRepetidos(t *testing.T) {
	c := novoCenario(t)
	ctx := context.Background()
	a := c.criar(t, "A", domain.StatusAFazer)
	a.DataInicio = dia("2024-03-01")
	a.DataFim = dia("2024-03-03")
	_, err := c.service.Atualizar(ctx, a)
	require.NoError(t, err)

	_, err = c.service.DefinirDias(ctx, a.ID, []string{"2024-03-03", "2024-03-01", "2024-03-03"})
	require.NoError(t, err)

	atual, err := c.service.Obter(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-03-01", "2024-03-03"}, []string(atual.DiasTrabalho))
}

func TestService_DefinirDias_QuandoSemIntervalo_DeveRejeitar(t *testing.T) {
	c := novoCenario(t)
	a := c.criar(t, "A", domain.StatusAFazer)

	_, err := c.service.DefinirDias(context.Background(), a.ID, []string{"2024-03-01"})

	assert.ErrorIs(t, err, ErrDiasInvalidos)
}

func TestService_AlternarEtiqueta_DuasVezes_DeveVoltarAoOriginal(t *testing.T) {
	c := novoCenario(t)
	ctx := context.Background()
	a := c.criar(t, "A", domain.StatusAFazer)
	e, err := c.service.CriarEtiqueta(ctx, "Elétrica", "#ffcc00")
	require.NoError(t, err)

	primeira, err := c.service.AlternarEtiqueta(ctx, a.ID, e.ID)
	require.NoError(t, err)
	assert.True(t, primeira.TemEtiqueta(e.ID))

	segunda, err := c.service.AlternarEtiqueta(ctx, a.ID, e.ID)
	require.NoError(t, err)
	assert.Empty(t, segunda.Etiquetas)
}

func TestService_ExcluirEtiqueta_DeveRemoverDeTodasAsAtribuicoes(t *testing.T) {
	c := novoCenario(t)
	ctx := context.Background()
	a := c.criar(t, "A", domain.StatusAFazer)
	b := c.criar(t, "B", domain.StatusConcluida)
	e, err := c.service.CriarEtiqueta(ctx, "Hidráulica", "")
	require.NoError(t, err)
	for _, id := range []domain.AtribuicaoID{a.ID, b.ID} {
		_, err := c.service.AlternarEtiqueta(ctx, id, e.ID)
		require.NoError(t, err)
	}

	require.NoError(t, c.service.ExcluirEtiqueta(ctx, e.ID, nil))

	lista, err := c.service.Listar(ctx, c.obra.ID)
	require.NoError(t, err)
	for _, at := range lista {
		assert.False(t, at.TemEtiqueta(e.ID), at.Titulo)
	}
	assert.ErrorIs(t, c.service.ExcluirEtiqueta(ctx, e.ID, nil), ErrEtiquetaNaoEncontrada)
}

func TestService_CriarEtiqueta_QuandoNomeRepetido_DeveRetornarDuplicada(t *testing.T) {
	c := novoCenario(t)
	ctx := context.Background()
	_, err := c.service.CriarEtiqueta(ctx, "Pintura", "")
	require.NoError(t, err)

	_, err = c.service.CriarEtiqueta(ctx, "Pintura", "#000")

	assert.ErrorIs(t, err, ErrEtiquetaDuplicada)
}

func TestService_SubRecursos_QuandoAtribuicaoNaoSalva_DeveRejeitar(t *testing.T) {
	c := novoCenario(t)
	ctx := context.Background()

	_, errChecklist := c.service.AdicionarChecklist(ctx, "", "Comprar areia")
	_, errCompra := c.service.CriarCompra(ctx, "", domain.Compra{Material: "Areia", Quantidade: decimal.NewFromInt(1)})
	_, errAnexo := c.service.AdicionarAnexo(ctx, "", Upload{Nome: "foto.jpg", Conteudo: strings.NewReader("x")})
	_, errEtiqueta := c.service.AlternarEtiqueta(ctx, "", "e1")

	for _, err := range []error{errChecklist, errCompra, errAnexo, errEtiqueta} {
		assert.ErrorIs(t, err, ErrAtribuicaoInvalida)
	}
}

func TestService_AlterarChecklist_DeveMarcarConcluido(t *testing.T) {
	c := novoCenario(t)
	ctx := context.Background()
	a := c.criar(t, "A", domain.StatusAFazer)
	item, err := c.service.AdicionarChecklist(ctx, a.ID, "Comprar areia")
	require.NoError(t, err)
	concluido := true

	atual, err := c.service.AlterarChecklist(ctx, item.ID, AlteracaoChecklist{Concluido: &concluido})

	require.NoError(t, err)
	assert.True(t, atual.Concluido)
	assert.Equal(t, "Comprar areia", atual.Titulo)
}

func TestService_AlterarCompra_QuandoVoltaStatus_DeveRejeitar(t *testing.T) {
	c := novoCenario(t)
	ctx := context.Background()
	a := c.criar(t, "A", domain.StatusAFazer)
	compra, err := c.service.CriarCompra(ctx, a.ID, domain.Compra{Material: "Cimento", Quantidade: decimal.NewFromInt(10), Unidade: "sc"})
	require.NoError(t, err)
	comprada := domain.CompraComprada
	_, err = c.service.AlterarCompra(ctx, compra.ID, AlteracaoCompra{Status: &comprada})
	require.NoError(t, err)

	pendente := domain.CompraPendente
	_, err = c.service.AlterarCompra(ctx, compra.ID, AlteracaoCompra{Status: &pendente})

	assert.ErrorIs(t, err, ErrTransicaoCompraInvalida)
}

func TestService_Excluir_DeveRemoverArquivosDosAnexos(t *testing.T) {
	c := novoCenario(t)
	ctx := context.Background()
	a := c.criar(t, "A", domain.StatusAFazer)
	anexo, err := c.service.AdicionarAnexo(ctx, a.ID, Upload{Nome: "planta.pdf", Tamanho: 8, Conteudo: strings.NewReader("conteudo")})
	require.NoError(t, err)
	assert.Equal(t, domain.AnexoDocumento, anexo.Categoria)
	assert.Equal(t, "/arquivos/"+anexo.Chave, anexo.URL)

	// Act
	require.NoError(t, c.service.Excluir(ctx, a.ID, nil))

	// Assert
	_, err = c.disco.Abrir(ctx, anexo.Chave)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = c.service.Obter(ctx, a.ID)
	assert.ErrorIs(t, err, ErrAtribuicaoNaoEncontrada)
}

func TestCategoriaDoArquivo(t *testing.T) {
	casos := map[string]domain.CategoriaAnexo{
		"foto.JPG":       domain.AnexoImagem,
		"orcamento.xlsx": domain.AnexoPlanilha,
		"contrato.pdf":   domain.AnexoDocumento,
		"modelo.skp":     domain.AnexoOutro,
	}
	for nome, esperado := range casos {
		assert.Equal(t, esperado, CategoriaDoArquivo(nome, ""), nome)
	}
	assert.Equal(t, domain.AnexoImagem, CategoriaDoArquivo("sem-extensao", "image/png"))
}
