package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcelojr/gestao-obras/internal/domain"
)

func TestEquipeRepository_AdicionarMembro_QuandoPrestadorRepetido_DeveRetornarConflito(t *testing.T) {
	db := setupPostgres(t)
	repo := NewEquipeRepository(db)
	ctx := context.Background()

	equipe := domain.Equipe{ID: domain.EquipeID(gen.New()), Nome: "Equipe Alvenaria", Ativa: true}
	require.NoError(t, repo.Create(ctx, equipe))
	prestador := domain.PrestadorID(gen.New())

	require.NoError(t, repo.AdicionarMembro(ctx, domain.MembroEquipe{ID: domain.MembroEquipeID(gen.New()), EquipeID: equipe.ID, PrestadorID: &prestador, Papel: domain.PapelLider}))
	err := repo.AdicionarMembro(ctx, domain.MembroEquipe{ID: domain.MembroEquipeID(gen.New()), EquipeID: equipe.ID, PrestadorID: &prestador, Papel: domain.PapelComum})

	assert.ErrorIs(t, err, domain.ErrConflito)
}

func TestEquipeRepository_FindByID_DeveTrazerMembrosDeAmbosOsTipos(t *testing.T) {
	db := setupPostgres(t)
	repo := NewEquipeRepository(db)
	ctx := context.Background()

	equipe := domain.Equipe{ID: domain.EquipeID(gen.New()), Nome: "Equipe Elétrica", Ativa: true}
	require.NoError(t, repo.Create(ctx, equipe))
	prestador := domain.PrestadorID(gen.New())
	usuario := domain.UsuarioID(gen.New())
	agora := time.Now().UTC()

	require.NoError(t, repo.AdicionarMembro(ctx, domain.MembroEquipe{ID: domain.MembroEquipeID(gen.New()), EquipeID: equipe.ID, PrestadorID: &prestador, Papel: domain.PapelComum, CriadoEm: agora}))
	require.NoError(t, repo.AdicionarMembro(ctx, domain.MembroEquipe{ID: domain.MembroEquipeID(gen.New()), EquipeID: equipe.ID, UsuarioID: &usuario, Papel: domain.PapelLider, CriadoEm: agora.Add(time.Second)}))

	atual, err := repo.FindByID(ctx, equipe.ID)

	require.NoError(t, err)
	require.Len(t, atual.Membros, 2)
	assert.NotNil(t, atual.Membros[0].PrestadorID)
	assert.NotNil(t, atual.Membros[1].UsuarioID)

	require.NoError(t, repo.RemoverMembro(ctx, equipe.ID, atual.Membros[0].ID))
	assert.Equal(t, domain.ErrNotFound, repo.RemoverMembro(ctx, equipe.ID, atual.Membros[0].ID))
}

func TestUsuarioRepository_DefinirPermissao_QuandoJaExiste_DeveSobrescrever(t *testing.T) {
	db := setupPostgres(t)
	repo := NewUsuarioRepository(db)
	ctx := context.Background()

	u := domain.Usuario{ID: domain.UsuarioID(gen.New()), Nome: "Ana", Email: "ana@obras.com", Tipo: domain.UsuarioEncarregado, Ativo: true}
	require.NoError(t, repo.Create(ctx, u))

	require.NoError(t, repo.DefinirPermissao(ctx, domain.PermissaoPagina{UsuarioID: u.ID, Pagina: domain.PaginaCRM, Nivel: domain.NivelVisualizar}))
	require.NoError(t, repo.DefinirPermissao(ctx, domain.PermissaoPagina{UsuarioID: u.ID, Pagina: domain.PaginaCRM, Nivel: domain.NivelGerenciar}))

	atual, err := repo.FindByID(ctx, u.ID)
	require.NoError(t, err)
	nivel, ok := atual.PermissaoPara(domain.PaginaCRM)
	assert.True(t, ok)
	assert.Equal(t, domain.NivelGerenciar, nivel)

	require.NoError(t, repo.RemoverPermissao(ctx, u.ID, domain.PaginaCRM))
	atual, err = repo.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, atual.Permissoes)
}

func TestAuditoriaRepository_ListByRecurso_DeveDevolverEventosDoRecurso(t *testing.T) {
	db := setupPostgres(t)
	repo := NewAuditoriaRepository(db)
	ctx := context.Background()
	base := time.Now().UTC()
	usuario := domain.UsuarioID("u1")

	require.NoError(t, repo.Registrar(ctx, domain.Evento{ID: domain.EventoID(gen.New()), Tipo: domain.EventoNegocioCriado, Recurso: "negocio", RecursoID: "n1", UsuarioID: &usuario, OcorridoEm: base}))
	require.NoError(t, repo.Registrar(ctx, domain.Evento{ID: domain.EventoID(gen.New()), Tipo: domain.EventoNegocioEstagio, Recurso: "negocio", RecursoID: "n1", Dados: map[string]string{"para": "won"}, OcorridoEm: base.Add(time.Minute)}))
	require.NoError(t, repo.Registrar(ctx, domain.Evento{ID: domain.EventoID(gen.New()), Tipo: domain.EventoNegocioCriado, Recurso: "negocio", RecursoID: "n2", OcorridoEm: base}))

	eventos, err := repo.ListByRecurso(ctx, "negocio", "n1")

	require.NoError(t, err)
	require.Len(t, eventos, 2)
	assert.Equal(t, domain.EventoNegocioEstagio, eventos[0].Tipo)
	assert.Equal(t, "won", eventos[0].Dados["para"])
	require.NotNil(t, eventos[1].UsuarioID)
	assert.Equal(t, usuario, *eventos[1].UsuarioID)
}
