package domain

type (
	ObraID          string
	LeadID          string
	NegocioID       string
	InteracaoID     string
	PropostaID      string
	OrcamentoID     string
	ItemOrcamentoID string
	AtribuicaoID    string
	ChecklistItemID string
	AnexoID         string
	EtiquetaID      string
	CompraID        string
	EquipeID        string
	MembroEquipeID  string
	PrestadorID     string
	EspecialidadeID string
	UsuarioID       string
	FerramentaID    string
	MovimentoID     string
	PresencaID      string
	EventoID        string
)
