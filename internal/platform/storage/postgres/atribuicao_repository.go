package postgres

import (
	"context"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/marcelojr/gestao-obras/internal/domain"
)

// AtribuicaoRepository persiste o quadro kanban; a ordem é mantida contígua por (obra, status).
type AtribuicaoRepository struct {
	db *gorm.DB
}

func NewAtribuicaoRepository(db *gorm.DB) *AtribuicaoRepository {
	return &AtribuicaoRepository{db: db}
}

// CriarNoFim insere a atribuição na última posição da coluna. A linha da obra fica travada
// durante a transação, serializando criações e movimentos no mesmo quadro.
func (r *AtribuicaoRepository) CriarNoFim(ctx context.Context, a domain.Atribuicao) (domain.Atribuicao, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := travarObra(tx, a.ObraID); err != nil {
			return err
		}
		ordem, err := proximaOrdem(tx, a.ObraID, a.Status)
		if err != nil {
			return err
		}
		a.Ordem = ordem
		if err := tx.Omit(clause.Associations).Create(&a).Error; err != nil {
			return falha("atribuicao", "inserir", err)
		}
		return nil
	})
	if err != nil {
		return domain.Atribuicao{}, err
	}
	return a, nil
}

func travarObra(tx *gorm.DB, id domain.ObraID) error {
	var obra domain.Obra
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").First(&obra, "id = ?", id).Error; err != nil {
		return falha("obra", "travar", err)
	}
	return nil
}

func (r *AtribuicaoRepository) Update(ctx context.Context, a domain.Atribuicao) error {
	res := r.db.WithContext(ctx).Model(&domain.Atribuicao{}).
		Where("id = ?", a.ID).
		Updates(map[string]any{
			"titulo":          a.Titulo,
			"descricao":       a.Descricao,
			"prioridade":      a.Prioridade,
			"tipo_atribuicao": a.TipoAtribuicao,
			"equipe_id":       a.EquipeID,
			"prestador_id":    a.PrestadorID,
			"data_inicio":     a.DataInicio,
			"data_fim":        a.DataFim,
			"dias_trabalho":   a.DiasTrabalho,
			"atualizado_em":   a.AtualizadoEm,
		})
	return exigirAfetado(res, "atribuicao", "atualizar")
}

func (r *AtribuicaoRepository) Delete(ctx context.Context, id domain.AtribuicaoID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var a domain.Atribuicao
		if err := tx.First(&a, "id = ?", id).Error; err != nil {
			return falha("atribuicao", "buscar id", err)
		}

		filhos := []any{&domain.ChecklistItem{}, &domain.Anexo{}, &domain.Compra{}, &domain.AtribuicaoEtiqueta{}}
		for _, modelo := range filhos {
			if err := tx.Where("atribuicao_id = ?", id).Delete(modelo).Error; err != nil {
				return falha("atribuicao", "excluir dependentes", err)
			}
		}
		if err := tx.Delete(&domain.Atribuicao{}, "id = ?", id).Error; err != nil {
			return falha("atribuicao", "excluir", err)
		}

		restantes, err := idsDaColuna(tx, a.ObraID, a.Status, "")
		if err != nil {
			return err
		}
		return renumerar(tx, restantes, a.Status)
	})
}

func (r *AtribuicaoRepository) FindByID(ctx context.Context, id domain.AtribuicaoID) (domain.Atribuicao, error) {
	return buscarAtribuicao(r.db.WithContext(ctx), id)
}

func buscarAtribuicao(db *gorm.DB, id domain.AtribuicaoID) (domain.Atribuicao, error) {
	var a domain.Atribuicao
	if err := db.
		Preload("Checklist", func(q *gorm.DB) *gorm.DB { return q.Order("ordem ASC") }).
		Preload("Anexos").
		Preload("Compras").
		First(&a, "id = ?", id).Error; err != nil {
		return domain.Atribuicao{}, falha("atribuicao", "buscar id", err)
	}

	lista := []domain.Atribuicao{a}
	if err := carregarEtiquetas(db, lista); err != nil {
		return domain.Atribuicao{}, err
	}
	return lista[0], nil
}

func (r *AtribuicaoRepository) ListByObra(ctx context.Context, id domain.ObraID) ([]domain.Atribuicao, error) {
	db := r.db.WithContext(ctx)
	var atribuicoes []domain.Atribuicao
	if err := db.
		Preload("Checklist", func(q *gorm.DB) *gorm.DB { return q.Order("ordem ASC") }).
		Preload("Compras").
		Where("obra_id = ?", id).
		Order("status ASC").Order("ordem ASC").
		Find(&atribuicoes).Error; err != nil {
		return nil, falha("atribuicao", "listar", err)
	}
	if err := carregarEtiquetas(db, atribuicoes); err != nil {
		return nil, err
	}
	return atribuicoes, nil
}

// carregarEtiquetas preenche Etiquetas a partir da tabela de junção.
func carregarEtiquetas(db *gorm.DB, atribuicoes []domain.Atribuicao) error {
	if len(atribuicoes) == 0 {
		return nil
	}
	ids := make([]domain.AtribuicaoID, len(atribuicoes))
	for i, a := range atribuicoes {
		ids[i] = a.ID
		atribuicoes[i].Etiquetas = []domain.Etiqueta{}
	}

	var vinculos []domain.AtribuicaoEtiqueta
	if err := db.Where("atribuicao_id IN ?", ids).Find(&vinculos).Error; err != nil {
		return falha("atribuicao", "listar etiquetas", err)
	}
	if len(vinculos) == 0 {
		return nil
	}

	etiquetaIDs := make([]domain.EtiquetaID, 0, len(vinculos))
	for _, v := range vinculos {
		etiquetaIDs = append(etiquetaIDs, v.EtiquetaID)
	}
	var etiquetas []domain.Etiqueta
	if err := db.Where("id IN ?", etiquetaIDs).Order("nome ASC").Find(&etiquetas).Error; err != nil {
		return falha("etiqueta", "listar", err)
	}

	porAtribuicao := make(map[domain.AtribuicaoID]map[domain.EtiquetaID]bool)
	for _, v := range vinculos {
		if porAtribuicao[v.AtribuicaoID] == nil {
			porAtribuicao[v.AtribuicaoID] = make(map[domain.EtiquetaID]bool)
		}
		porAtribuicao[v.AtribuicaoID][v.EtiquetaID] = true
	}
	for i := range atribuicoes {
		aplicadas := porAtribuicao[atribuicoes[i].ID]
		for _, e := range etiquetas {
			if aplicadas[e.ID] {
				atribuicoes[i].Etiquetas = append(atribuicoes[i].Etiquetas, e)
			}
		}
	}
	return nil
}

func proximaOrdem(tx *gorm.DB, obra domain.ObraID, status domain.StatusAtribuicao) (int, error) {
	var ultima int
	if err := tx.Model(&domain.Atribuicao{}).
		Where("obra_id = ? AND status = ?", obra, status).
		Select("COALESCE(MAX(ordem), -1)").
		Scan(&ultima).Error; err != nil {
		return 0, falha("atribuicao", "proxima ordem", err)
	}
	return ultima + 1, nil
}

func (r *AtribuicaoRepository) Mover(ctx context.Context, id domain.AtribuicaoID, status domain.StatusAtribuicao, indice int) (domain.Atribuicao, error) {
	var movida domain.Atribuicao
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var atual domain.Atribuicao
		if err := tx.First(&atual, "id = ?", id).Error; err != nil {
			return falha("atribuicao", "buscar id", err)
		}
		if err := travarObra(tx, atual.ObraID); err != nil {
			return err
		}

		destino, err := idsDaColuna(tx, atual.ObraID, status, id)
		if err != nil {
			return err
		}
		if indice < 0 {
			indice = 0
		}
		if indice > len(destino) {
			indice = len(destino)
		}
		destino = append(destino[:indice], append([]domain.AtribuicaoID{id}, destino[indice:]...)...)
		if err := renumerar(tx, destino, status); err != nil {
			return err
		}

		if atual.Status != status {
			origem, err := idsDaColuna(tx, atual.ObraID, atual.Status, id)
			if err != nil {
				return err
			}
			if err := renumerar(tx, origem, atual.Status); err != nil {
				return err
			}
		}

		movida, err = buscarAtribuicao(tx, id)
		return err
	})
	if err != nil {
		return domain.Atribuicao{}, err
	}
	return movida, nil
}

func idsDaColuna(tx *gorm.DB, obra domain.ObraID, status domain.StatusAtribuicao, exceto domain.AtribuicaoID) ([]domain.AtribuicaoID, error) {
	var ids []domain.AtribuicaoID
	q := tx.Model(&domain.Atribuicao{}).Where("obra_id = ? AND status = ?", obra, status)
	if exceto != "" {
		q = q.Where("id <> ?", exceto)
	}
	if err := q.Order("ordem ASC").Order("id ASC").Pluck("id", &ids).Error; err != nil {
		return nil, falha("atribuicao", "listar coluna", err)
	}
	return ids, nil
}

func renumerar(tx *gorm.DB, ids []domain.AtribuicaoID, status domain.StatusAtribuicao) error {
	for i, id := range ids {
		if err := tx.Model(&domain.Atribuicao{}).Where("id = ?", id).
			Updates(map[string]any{"status": status, "ordem": i}).Error; err != nil {
			return falha("atribuicao", "renumerar", err)
		}
	}
	return nil
}

func (r *AtribuicaoRepository) DefinirDias(ctx context.Context, id domain.AtribuicaoID, dias []string) error {
	res := r.db.WithContext(ctx).Model(&domain.Atribuicao{}).
		Where("id = ?", id).
		Update("dias_trabalho", datatypes.JSONSlice[string](dias))
	return exigirAfetado(res, "atribuicao", "definir dias")
}

var _ domain.AtribuicaoRepository = (*AtribuicaoRepository)(nil)
