package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/marcelojr/gestao-obras/internal/domain"
)

type LeadRepository struct {
	db *gorm.DB
}

func NewLeadRepository(db *gorm.DB) *LeadRepository {
	return &LeadRepository{db: db}
}

func (r *LeadRepository) Create(ctx context.Context, l domain.Lead) error {
	if err := r.db.WithContext(ctx).Create(&l).Error; err != nil {
		return falha("lead", "inserir", err)
	}
	return nil
}

func (r *LeadRepository) Update(ctx context.Context, l domain.Lead) error {
	res := r.db.WithContext(ctx).Model(&domain.Lead{}).
		Where("id = ?", l.ID).
		Updates(map[string]any{
			"nome":          l.Nome,
			"empresa":       l.Empresa,
			"email":         l.Email,
			"telefone":      l.Telefone,
			"documento":     l.Documento,
			"origem":        l.Origem,
			"atualizado_em": l.AtualizadoEm,
		})
	return exigirAfetado(res, "lead", "atualizar")
}

func (r *LeadRepository) FindByID(ctx context.Context, id domain.LeadID) (domain.Lead, error) {
	var l domain.Lead
	if err := r.db.WithContext(ctx).First(&l, "id = ?", id).Error; err != nil {
		return domain.Lead{}, falha("lead", "buscar id", err)
	}
	return l, nil
}

func (r *LeadRepository) List(ctx context.Context) ([]domain.Lead, error) {
	var leads []domain.Lead
	if err := r.db.WithContext(ctx).Order("nome ASC").Find(&leads).Error; err != nil {
		return nil, falha("lead", "listar", err)
	}
	return leads, nil
}

type InteracaoRepository struct {
	db *gorm.DB
}

func NewInteracaoRepository(db *gorm.DB) *InteracaoRepository {
	return &InteracaoRepository{db: db}
}

func (r *InteracaoRepository) Create(ctx context.Context, i domain.Interacao) error {
	if err := r.db.WithContext(ctx).Create(&i).Error; err != nil {
		return falha("interacao", "inserir", err)
	}
	return nil
}

// ListByNegocio devolve a linha do tempo do mais recente para o mais antigo.
func (r *InteracaoRepository) ListByNegocio(ctx context.Context, id domain.NegocioID) ([]domain.Interacao, error) {
	var interacoes []domain.Interacao
	if err := r.db.WithContext(ctx).
		Where("negocio_id = ?", id).
		Order("criado_em DESC").Order("id DESC").
		Find(&interacoes).Error; err != nil {
		return nil, falha("interacao", "listar", err)
	}
	return interacoes, nil
}

type PropostaRepository struct {
	db *gorm.DB
}

func NewPropostaRepository(db *gorm.DB) *PropostaRepository {
	return &PropostaRepository{db: db}
}

func (r *PropostaRepository) Create(ctx context.Context, p domain.Proposta) error {
	if err := r.db.WithContext(ctx).Create(&p).Error; err != nil {
		return falha("proposta", "inserir", err)
	}
	return nil
}

func (r *PropostaRepository) UltimaVersao(ctx context.Context, id domain.NegocioID) (int, error) {
	var versao int
	if err := r.db.WithContext(ctx).Model(&domain.Proposta{}).
		Where("negocio_id = ?", id).
		Select("COALESCE(MAX(versao), 0)").
		Scan(&versao).Error; err != nil {
		return 0, falha("proposta", "ultima versao", err)
	}
	return versao, nil
}

func (r *PropostaRepository) ListByNegocio(ctx context.Context, id domain.NegocioID) ([]domain.Proposta, error) {
	var propostas []domain.Proposta
	if err := r.db.WithContext(ctx).
		Where("negocio_id = ?", id).
		Order("versao DESC").
		Find(&propostas).Error; err != nil {
		return nil, falha("proposta", "listar", err)
	}
	return propostas, nil
}

var (
	_ domain.LeadRepository      = (*LeadRepository)(nil)
	_ domain.InteracaoRepository = (*InteracaoRepository)(nil)
	_ domain.PropostaRepository  = (*PropostaRepository)(nil)
)
