package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcelojr/gestao-obras/internal/domain"
)

func TestFerramentaRepository_RegistrarMovimento_DeveAnexarLogEAtualizarPonteiro(t *testing.T) {
	db := setupPostgres(t)
	repo := NewFerramentaRepository(db)
	ctx := context.Background()
	obra := novaObra(t, db, domain.ObraAtiva)
	responsavel := domain.PrestadorID(gen.New())

	f := domain.Ferramenta{ID: domain.FerramentaID(gen.New()), Nome: "Betoneira", Patrimonio: "PAT-001", Status: domain.FerramentaDisponivel}
	require.NoError(t, repo.Create(ctx, f))

	m := domain.Movimento{ID: domain.MovimentoID(gen.New()), FerramentaID: f.ID, Tipo: domain.MovimentoRetirada, ObraID: &obra.ID, ResponsavelID: &responsavel, OcorridoEm: time.Now().UTC()}
	novo, err := domain.AplicarMovimento(f, m)
	require.NoError(t, err)

	// Act
	require.NoError(t, repo.RegistrarMovimento(ctx, novo, m))

	// Assert
	atual, err := repo.FindByID(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.FerramentaEmUso, atual.Status)
	require.NotNil(t, atual.ObraID)
	assert.Equal(t, obra.ID, *atual.ObraID)

	movs, err := repo.ListMovimentos(ctx, f.ID)
	require.NoError(t, err)
	assert.Len(t, movs, 1)
}

func TestFerramentaRepository_RegistrarMovimento_QuandoStatusGravadoNaoPermite_NaoDeveAnexar(t *testing.T) {
	db := setupPostgres(t)
	repo := NewFerramentaRepository(db)
	ctx := context.Background()

	f := domain.Ferramenta{ID: domain.FerramentaID(gen.New()), Nome: "Furadeira", Patrimonio: "PAT-002", Status: domain.FerramentaDisponivel}
	require.NoError(t, repo.Create(ctx, f))

	devolucao := domain.Movimento{ID: domain.MovimentoID(gen.New()), FerramentaID: f.ID, Tipo: domain.MovimentoDevolucao, OcorridoEm: time.Now().UTC()}

	err := repo.RegistrarMovimento(ctx, f, devolucao)

	assert.ErrorIs(t, err, domain.ErrMovimentoInvalido)
	movs, err := repo.ListMovimentos(ctx, f.ID)
	require.NoError(t, err)
	assert.Empty(t, movs)
}

func TestFerramentaRepository_AtualizarStatus_QuandoEmUso_DeveRetornarNotFound(t *testing.T) {
	db := setupPostgres(t)
	repo := NewFerramentaRepository(db)
	ctx := context.Background()

	f := domain.Ferramenta{ID: domain.FerramentaID(gen.New()), Nome: "Serra", Patrimonio: "PAT-003", Status: domain.FerramentaEmUso}
	require.NoError(t, repo.Create(ctx, f))

	err := repo.AtualizarStatus(ctx, f.ID, domain.FerramentaManutencao)

	assert.Equal(t, domain.ErrNotFound, err)
}
