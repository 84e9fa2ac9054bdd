package postgres

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/marcelojr/gestao-obras/internal/domain"
	"github.com/marcelojr/gestao-obras/internal/platform/ids"
)

func setupPostgres(t *testing.T) *gorm.DB {
	// Banco nomeado por teste: conexões do pool enxergam o mesmo schema sem vazar entre testes.
	nome := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", nome)), GormConfig())
	require.NoError(t, err)

	modelos := []any{
		&domain.Obra{}, &domain.Especialidade{}, &domain.Prestador{}, &domain.Usuario{}, &domain.PermissaoPagina{},
		&domain.Equipe{}, &domain.MembroEquipe{},
		&domain.Lead{}, &domain.Negocio{}, &domain.Interacao{}, &domain.Proposta{},
		&domain.Atribuicao{}, &domain.ChecklistItem{}, &domain.Anexo{}, &domain.Etiqueta{}, &domain.AtribuicaoEtiqueta{}, &domain.Compra{},
		&domain.Presenca{}, &domain.Ferramenta{}, &domain.Movimento{},
		&domain.Orcamento{}, &domain.ItemOrcamento{},
	}
	modelos = append(modelos, ModelosAuditoria()...)
	require.NoError(t, db.AutoMigrate(modelos...))

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})

	return db
}

var gen = ids.NewGenerator()

func novaObra(t *testing.T, db *gorm.DB, status domain.ObraStatus) domain.Obra {
	t.Helper()
	obra := domain.Obra{ID: domain.ObraID(gen.New()), Nome: "Residencial Aurora", Status: status, CriadoEm: time.Now().UTC()}
	require.NoError(t, NewObraRepository(db).Create(context.Background(), obra))
	return obra
}
