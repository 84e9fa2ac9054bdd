package worker

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcelojr/gestao-obras/internal/domain"
	redisstore "github.com/marcelojr/gestao-obras/internal/platform/storage/redis"
)

func TestEventoProcessorProcess(t *testing.T) {
	auditoria := &memAuditoria{ids: map[domain.EventoID]bool{}}
	linha := &memLinha{}
	contador := &memContador{valores: make(map[string]int64)}
	clock := fixedClock{now: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)}

	processor := NewEventoProcessor(auditoria, linha, contador, clock)

	evento := domain.Evento{
		ID:        "evt-1",
		Tipo:      domain.EventoNegocioEstagio,
		Recurso:   "negocio",
		RecursoID: "neg-1",
		Dados:     map[string]string{"de": "proposal", "para": "lost", "motivo": "sem verba"},
	}

	if err := processor.Process(context.Background(), evento); err != nil {
		t.Fatalf("Process retornou erro inesperado: %v", err)
	}

	if len(auditoria.eventos) != 1 {
		t.Fatalf("esperava 1 evento auditado, obteve %d", len(auditoria.eventos))
	}
	if auditoria.eventos[0].OcorridoEm.IsZero() {
		t.Fatal("worker deveria preencher OcorridoEm quando vazio")
	}
	if len(linha.textos) != 1 || linha.textos[0] != "Estágio alterado de Proposta para Perdido. Motivo: sem verba" {
		t.Fatalf("linha do tempo inesperada: %v", linha.textos)
	}
	if contador.valores[ChaveEvento(domain.EventoNegocioEstagio)] != 1 {
		t.Fatalf("contador do tipo deveria ser 1, veio %d", contador.valores[ChaveEvento(domain.EventoNegocioEstagio)])
	}
	if contador.valores[ChaveEstagio(domain.EstagioPerdido)] != 1 {
		t.Fatalf("contador de perdidos deveria ser 1, veio %d", contador.valores[ChaveEstagio(domain.EstagioPerdido)])
	}
}

func TestEventoProcessor_Process_QuandoEventoReentregue_NaoDeveDuplicarLinhaDoTempo(t *testing.T) {
	auditoria := &memAuditoria{ids: map[domain.EventoID]bool{}}
	linha := &memLinha{}
	contador := &memContador{valores: make(map[string]int64)}
	processor := NewEventoProcessor(auditoria, linha, contador, fixedClock{now: time.Now()})
	evento := domain.Evento{ID: "evt-1", Tipo: domain.EventoNegocioEstagio, RecursoID: "neg-1", Dados: map[string]string{"de": "prospecting", "para": "won"}}

	require.NoError(t, processor.Process(context.Background(), evento))
	require.NoError(t, processor.Process(context.Background(), evento))

	assert.Len(t, linha.textos, 1)
	assert.Equal(t, int64(1), contador.valores[ChaveEstagio(domain.EstagioGanho)])
}

func TestEventoProcessor_Process_QuandoOutroTipo_NaoDeveTocarLinhaDoTempo(t *testing.T) {
	linha := &memLinha{}
	processor := NewEventoProcessor(&memAuditoria{ids: map[domain.EventoID]bool{}}, linha, nil, fixedClock{now: time.Now()})

	err := processor.Process(context.Background(), domain.Evento{ID: "evt-2", Tipo: domain.EventoFerramentaMovida, RecursoID: "f1"})

	require.NoError(t, err)
	assert.Empty(t, linha.textos)
}

func TestPainel_DeveSomarContadoresNoRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	contador := redisstore.NewContador(client, "obras")
	processor := NewEventoProcessor(&memAuditoria{ids: map[domain.EventoID]bool{}}, nil, contador, fixedClock{now: time.Now()})
	ctx := context.Background()

	require.NoError(t, processor.Process(ctx, domain.Evento{ID: "a", Tipo: domain.EventoAtribuicaoMovida}))
	require.NoError(t, processor.Process(ctx, domain.Evento{ID: "b", Tipo: domain.EventoAtribuicaoMovida}))
	require.NoError(t, processor.Process(ctx, domain.Evento{ID: "c", Tipo: domain.EventoNegocioEstagio, Dados: map[string]string{"para": "won"}}))

	painel, err := Painel(ctx, contador)

	require.NoError(t, err)
	assert.Equal(t, int64(2), painel[ChaveEvento(domain.EventoAtribuicaoMovida)])
	assert.Equal(t, int64(1), painel[ChaveEstagio(domain.EstagioGanho)])
	assert.Equal(t, int64(0), painel[ChaveEvento(domain.EventoOrcamentoImportado)])
}

type memAuditoria struct {
	eventos []domain.Evento
	ids     map[domain.EventoID]bool
}

func (m *memAuditoria) Registrar(_ context.Context, e domain.Evento) error {
	if m.ids[e.ID] {
		return domain.ErrConflito
	}
	m.ids[e.ID] = true
	m.eventos = append(m.eventos, e)
	return nil
}

func (m *memAuditoria) ListByRecurso(context.Context, string, string) ([]domain.Evento, error) {
	return m.eventos, nil
}

type memLinha struct {
	textos []string
}

func (m *memLinha) RegistrarInteracaoSistema(_ context.Context, id domain.NegocioID, texto string) (domain.Interacao, error) {
	m.textos = append(m.textos, texto)
	return domain.Interacao{NegocioID: id, Tipo: domain.InteracaoSistema, Texto: texto}, nil
}

type memContador struct {
	valores map[string]int64
}

func (m *memContador) Contabilizar(_ context.Context, chaves []string) error {
	for _, c := range chaves {
		m.valores[c]++
	}
	return nil
}

func (m *memContador) ObterTodos(_ context.Context, chaves []string) (map[string]int64, error) {
	out := make(map[string]int64, len(chaves))
	for _, c := range chaves {
		out[c] = m.valores[c]
	}
	return out, nil
}

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Agora() time.Time {
	return c.now
}
