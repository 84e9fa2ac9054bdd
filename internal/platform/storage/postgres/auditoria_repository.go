package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/marcelojr/gestao-obras/internal/domain"
)

// AuditoriaRepository guarda o log de eventos de domínio gravado pelo worker.
type AuditoriaRepository struct {
	db *gorm.DB
}

func NewAuditoriaRepository(db *gorm.DB) *AuditoriaRepository {
	return &AuditoriaRepository{db: db}
}

type eventoModel struct {
	ID         string         `gorm:"column:id;type:char(26);primaryKey"`
	Tipo       string         `gorm:"column:tipo;type:varchar(60);not null"`
	Recurso    string         `gorm:"column:recurso;type:varchar(40);not null;index:idx_auditoria_recurso,priority:1"`
	RecursoID  string         `gorm:"column:recurso_id;type:char(26);not null;index:idx_auditoria_recurso,priority:2"`
	ObraID     *string        `gorm:"column:obra_id;type:char(26)"`
	UsuarioID  *string        `gorm:"column:usuario_id;type:char(26)"`
	Dados      datatypes.JSON `gorm:"column:dados"`
	OcorridoEm time.Time      `gorm:"column:ocorrido_em;not null"`
}

func (eventoModel) TableName() string {
	return "auditoria_eventos"
}

// ModelosAuditoria expõe o modelo privado para as migrations.
func ModelosAuditoria() []any {
	return []any{&eventoModel{}}
}

func fromDomainEvento(e domain.Evento) (eventoModel, error) {
	dados, err := json.Marshal(e.Dados)
	if err != nil {
		return eventoModel{}, fmt.Errorf("gorm auditoria: serializar dados: %w", err)
	}
	m := eventoModel{
		ID:         string(e.ID),
		Tipo:       string(e.Tipo),
		Recurso:    e.Recurso,
		RecursoID:  e.RecursoID,
		Dados:      datatypes.JSON(dados),
		OcorridoEm: e.OcorridoEm,
	}
	if e.ObraID != nil {
		obra := string(*e.ObraID)
		m.ObraID = &obra
	}
	if e.UsuarioID != nil {
		usuario := string(*e.UsuarioID)
		m.UsuarioID = &usuario
	}
	return m, nil
}

func (m eventoModel) toDomain() domain.Evento {
	e := domain.Evento{
		ID:         domain.EventoID(m.ID),
		Tipo:       domain.TipoEvento(m.Tipo),
		Recurso:    m.Recurso,
		RecursoID:  m.RecursoID,
		OcorridoEm: m.OcorridoEm,
	}
	if m.ObraID != nil {
		obra := domain.ObraID(*m.ObraID)
		e.ObraID = &obra
	}
	if m.UsuarioID != nil {
		usuario := domain.UsuarioID(*m.UsuarioID)
		e.UsuarioID = &usuario
	}
	if len(m.Dados) > 0 {
		_ = json.Unmarshal(m.Dados, &e.Dados)
	}
	return e
}

func (r *AuditoriaRepository) Registrar(ctx context.Context, e domain.Evento) error {
	model, err := fromDomainEvento(e)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return falha("auditoria", "inserir", err)
	}
	return nil
}

func (r *AuditoriaRepository) ListByRecurso(ctx context.Context, recurso, id string) ([]domain.Evento, error) {
	var models []eventoModel
	if err := r.db.WithContext(ctx).
		Where("recurso = ? AND recurso_id = ?", recurso, id).
		Order("ocorrido_em DESC").Order("id DESC").
		Find(&models).Error; err != nil {
		return nil, falha("auditoria", "listar", err)
	}

	eventos := make([]domain.Evento, len(models))
	for i, m := range models {
		eventos[i] = m.toDomain()
	}
	return eventos, nil
}

var _ domain.AuditoriaRepository = (*AuditoriaRepository)(nil)
