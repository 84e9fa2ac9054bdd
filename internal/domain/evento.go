package domain

import "time"

type TipoEvento string

const (
	EventoNegocioCriado      TipoEvento = "negocio.criado"
	EventoNegocioEstagio     TipoEvento = "negocio.estagio_alterado"
	EventoObraVinculada      TipoEvento = "negocio.obra_vinculada"
	EventoPropostaGerada     TipoEvento = "negocio.proposta_gerada"
	EventoAtribuicaoCriada   TipoEvento = "atribuicao.criada"
	EventoAtribuicaoMovida   TipoEvento = "atribuicao.movida"
	EventoAtribuicaoExcluida TipoEvento = "atribuicao.excluida"
	EventoEtiquetaExcluida   TipoEvento = "etiqueta.excluida"
	EventoPresencaRegistrada TipoEvento = "presenca.registrada"
	EventoFerramentaMovida   TipoEvento = "ferramenta.movimentada"
	EventoOrcamentoImportado TipoEvento = "orcamento.importado"
)

var TiposEvento = []TipoEvento{
	EventoNegocioCriado, EventoNegocioEstagio, EventoObraVinculada, EventoPropostaGerada,
	EventoAtribuicaoCriada, EventoAtribuicaoMovida, EventoAtribuicaoExcluida, EventoEtiquetaExcluida,
	EventoPresencaRegistrada, EventoFerramentaMovida, EventoOrcamentoImportado,
}

// Evento descreve uma mudança de estado já persistida; é usado para auditoria,
// linha do tempo do CRM, contadores do painel e avisos em tempo real.
type Evento struct {
	ID         EventoID          `json:"id"`
	Tipo       TipoEvento        `json:"tipo"`
	Recurso    string            `json:"recurso"`
	RecursoID  string            `json:"recurso_id"`
	ObraID     *ObraID           `json:"obra_id,omitempty"`
	UsuarioID  *UsuarioID        `json:"usuario_id,omitempty"`
	Dados      map[string]string `json:"dados,omitempty"`
	OcorridoEm time.Time         `json:"ocorrido_em"`
}
