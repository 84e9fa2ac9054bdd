package postgres

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/marcelojr/gestao-obras/internal/domain"
)

type EspecialidadeRepository struct {
	db *gorm.DB
}

func NewEspecialidadeRepository(db *gorm.DB) *EspecialidadeRepository {
	return &EspecialidadeRepository{db: db}
}

func (r *EspecialidadeRepository) Create(ctx context.Context, e domain.Especialidade) error {
	if err := r.db.WithContext(ctx).Create(&e).Error; err != nil {
		return falha("especialidade", "inserir", err)
	}
	return nil
}

func (r *EspecialidadeRepository) FindByID(ctx context.Context, id domain.EspecialidadeID) (domain.Especialidade, error) {
	var e domain.Especialidade
	if err := r.db.WithContext(ctx).First(&e, "id = ?", id).Error; err != nil {
		return domain.Especialidade{}, falha("especialidade", "buscar id", err)
	}
	return e, nil
}

func (r *EspecialidadeRepository) List(ctx context.Context) ([]domain.Especialidade, error) {
	var lista []domain.Especialidade
	if err := r.db.WithContext(ctx).Order("nome ASC").Find(&lista).Error; err != nil {
		return nil, falha("especialidade", "listar", err)
	}
	return lista, nil
}

type PrestadorRepository struct {
	db *gorm.DB
}

func NewPrestadorRepository(db *gorm.DB) *PrestadorRepository {
	return &PrestadorRepository{db: db}
}

func (r *PrestadorRepository) Create(ctx context.Context, p domain.Prestador) error {
	if err := r.db.WithContext(ctx).Create(&p).Error; err != nil {
		return falha("prestador", "inserir", err)
	}
	return nil
}

func (r *PrestadorRepository) Update(ctx context.Context, p domain.Prestador) error {
	res := r.db.WithContext(ctx).Model(&domain.Prestador{}).
		Where("id = ?", p.ID).
		Updates(map[string]any{
			"nome":             p.Nome,
			"especialidade_id": p.EspecialidadeID,
			"telefone":         p.Telefone,
			"email":            p.Email,
			"tipo_pessoa":      p.TipoPessoa,
			"cpf":              p.CPF,
			"cnpj":             p.CNPJ,
			"ativo":            p.Ativo,
			"pix_tipo":         p.PixTipo,
			"pix_chave":        p.PixChave,
			"tipo_contrato":    p.TipoContrato,
			"valor_diaria":     p.ValorDiaria,
			"valor_empreitada": p.ValorEmpreitada,
			"salario_mensal":   p.SalarioMensal,
			"usa_folha_ponto":  p.UsaFolhaPonto,
			"atualizado_em":    p.AtualizadoEm,
		})
	return exigirAfetado(res, "prestador", "atualizar")
}

func (r *PrestadorRepository) FindByID(ctx context.Context, id domain.PrestadorID) (domain.Prestador, error) {
	var p domain.Prestador
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return domain.Prestador{}, falha("prestador", "buscar id", err)
	}
	return p, nil
}

func (r *PrestadorRepository) List(ctx context.Context) ([]domain.Prestador, error) {
	var lista []domain.Prestador
	if err := r.db.WithContext(ctx).Order("nome ASC").Find(&lista).Error; err != nil {
		return nil, falha("prestador", "listar", err)
	}
	return lista, nil
}

type EquipeRepository struct {
	db *gorm.DB
}

func NewEquipeRepository(db *gorm.DB) *EquipeRepository {
	return &EquipeRepository{db: db}
}

func (r *EquipeRepository) Create(ctx context.Context, e domain.Equipe) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(&e).Error; err != nil {
		return falha("equipe", "inserir", err)
	}
	return nil
}

func (r *EquipeRepository) FindByID(ctx context.Context, id domain.EquipeID) (domain.Equipe, error) {
	var e domain.Equipe
	if err := r.db.WithContext(ctx).
		Preload("Membros", func(q *gorm.DB) *gorm.DB { return q.Order("criado_em ASC") }).
		First(&e, "id = ?", id).Error; err != nil {
		return domain.Equipe{}, falha("equipe", "buscar id", err)
	}
	return e, nil
}

func (r *EquipeRepository) List(ctx context.Context) ([]domain.Equipe, error) {
	var lista []domain.Equipe
	if err := r.db.WithContext(ctx).Preload("Membros").Order("nome ASC").Find(&lista).Error; err != nil {
		return nil, falha("equipe", "listar", err)
	}
	return lista, nil
}

// AdicionarMembro depende dos índices únicos (equipe, prestador) e (equipe, usuário) para recusar duplicados.
func (r *EquipeRepository) AdicionarMembro(ctx context.Context, m domain.MembroEquipe) error {
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return falha("equipe", "adicionar membro", err)
	}
	return nil
}

func (r *EquipeRepository) RemoverMembro(ctx context.Context, equipe domain.EquipeID, membro domain.MembroEquipeID) error {
	res := r.db.WithContext(ctx).Delete(&domain.MembroEquipe{}, "id = ? AND equipe_id = ?", membro, equipe)
	return exigirAfetado(res, "equipe", "remover membro")
}

var (
	_ domain.EspecialidadeRepository = (*EspecialidadeRepository)(nil)
	_ domain.PrestadorRepository     = (*PrestadorRepository)(nil)
	_ domain.EquipeRepository        = (*EquipeRepository)(nil)
)
