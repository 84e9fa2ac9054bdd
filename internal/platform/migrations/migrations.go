// Pacote migrations centraliza as versões gormigrate aplicadas na inicialização.
package migrations

import (
	"fmt"

	gormigrate "github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"

	"github.com/marcelojr/gestao-obras/internal/domain"
	"github.com/marcelojr/gestao-obras/internal/platform/storage/postgres"
)

func Run(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("migrations: db nulo")
	}

	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			ID: "202403010001_cadastros",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(
					&domain.Obra{},
					&domain.Especialidade{},
					&domain.Prestador{},
					&domain.Usuario{},
					&domain.PermissaoPagina{},
					&domain.Equipe{},
					&domain.MembroEquipe{},
				)
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("equipe_membros", "equipes", "usuario_permissoes", "usuarios", "prestadores", "especialidades", "obras")
			},
		},
		{
			ID: "202403010002_crm",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&domain.Lead{}, &domain.Negocio{}, &domain.Interacao{}, &domain.Proposta{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("propostas", "interacoes", "negocios", "leads")
			},
		},
		{
			ID: "202403010003_quadro",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(
					&domain.Atribuicao{},
					&domain.ChecklistItem{},
					&domain.Anexo{},
					&domain.Etiqueta{},
					&domain.AtribuicaoEtiqueta{},
					&domain.Compra{},
				)
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("compras", "atribuicao_etiquetas", "etiquetas", "anexos", "checklist_itens", "atribuicoes")
			},
		},
		{
			ID: "202403010004_presenca_ferramentas",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&domain.Presenca{}, &domain.Ferramenta{}, &domain.Movimento{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("ferramenta_movimentos", "ferramentas", "presencas")
			},
		},
		{
			ID: "202403010005_orcamentos",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&domain.Orcamento{}, &domain.ItemOrcamento{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("orcamento_itens", "orcamentos")
			},
		},
		{
			ID: "202403010006_auditoria",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(postgres.ModelosAuditoria()...)
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("auditoria_eventos")
			},
		},
	})

	if err := m.Migrate(); err != nil {
		return fmt.Errorf("migrations: falha ao aplicar: %w", err)
	}

	return nil
}
