package httpapi

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/marcelojr/gestao-obras/internal/app/acesso"
	"github.com/marcelojr/gestao-obras/internal/app/ferramentas"
	"github.com/marcelojr/gestao-obras/internal/app/kanban"
	"github.com/marcelojr/gestao-obras/internal/app/presenca"
	"github.com/marcelojr/gestao-obras/internal/domain"
	"github.com/marcelojr/gestao-obras/internal/platform/config"
)

type CRM interface {
	CriarLead(ctx context.Context, l domain.Lead) (domain.Lead, error)
	AtualizarLead(ctx context.Context, l domain.Lead) (domain.Lead, error)
	ObterLead(ctx context.Context, id domain.LeadID) (domain.Lead, error)
	ListarLeads(ctx context.Context) ([]domain.Lead, error)
	CriarNegocio(ctx context.Context, n domain.Negocio, autor *domain.UsuarioID) (domain.Negocio, error)
	AtualizarNegocio(ctx context.Context, n domain.Negocio) (domain.Negocio, error)
	ObterNegocio(ctx context.Context, id domain.NegocioID) (domain.Negocio, error)
	ListarNegocios(ctx context.Context) ([]domain.Negocio, error)
	MoverEstagio(ctx context.Context, id domain.NegocioID, alvo domain.EstagioNegocio, motivo string, autor *domain.UsuarioID) (domain.Negocio, error)
	CriarObraParaNegocio(ctx context.Context, id domain.NegocioID, obra domain.Obra, autor *domain.UsuarioID) (domain.Negocio, error)
	RegistrarInteracao(ctx context.Context, id domain.NegocioID, tipo domain.TipoInteracao, texto string, autor *domain.UsuarioID) (domain.Interacao, error)
	ListarInteracoes(ctx context.Context, id domain.NegocioID) ([]domain.Interacao, error)
}

type Kanban interface {
	Listar(ctx context.Context, obra domain.ObraID) ([]domain.Atribuicao, error)
	Obter(ctx context.Context, id domain.AtribuicaoID) (domain.Atribuicao, error)
	Criar(ctx context.Context, a domain.Atribuicao, autor *domain.UsuarioID) (domain.Atribuicao, error)
	Atualizar(ctx context.Context, a domain.Atribuicao) (domain.Atribuicao, error)
	Mover(ctx context.Context, id domain.AtribuicaoID, status domain.StatusAtribuicao, indice int, autor *domain.UsuarioID) (domain.Atribuicao, error)
	DefinirDias(ctx context.Context, id domain.AtribuicaoID, dias []string) (domain.Atribuicao, error)
	Excluir(ctx context.Context, id domain.AtribuicaoID, autor *domain.UsuarioID) error

	AdicionarChecklist(ctx context.Context, atribuicao domain.AtribuicaoID, titulo string) (domain.ChecklistItem, error)
	AlterarChecklist(ctx context.Context, id domain.ChecklistItemID, alt kanban.AlteracaoChecklist) (domain.ChecklistItem, error)
	ExcluirChecklist(ctx context.Context, id domain.ChecklistItemID) error
	AdicionarAnexo(ctx context.Context, atribuicao domain.AtribuicaoID, up kanban.Upload) (domain.Anexo, error)
	ListarAnexos(ctx context.Context, atribuicao domain.AtribuicaoID) ([]domain.Anexo, error)
	ExcluirAnexo(ctx context.Context, id domain.AnexoID) error
	CriarCompra(ctx context.Context, atribuicao domain.AtribuicaoID, c domain.Compra) (domain.Compra, error)
	AlterarCompra(ctx context.Context, id domain.CompraID, alt kanban.AlteracaoCompra) (domain.Compra, error)
	ExcluirCompra(ctx context.Context, id domain.CompraID) error

	CriarEtiqueta(ctx context.Context, nome, cor string) (domain.Etiqueta, error)
	ListarEtiquetas(ctx context.Context) ([]domain.Etiqueta, error)
	ExcluirEtiqueta(ctx context.Context, id domain.EtiquetaID, autor *domain.UsuarioID) error
	AlternarEtiqueta(ctx context.Context, atribuicao domain.AtribuicaoID, etiqueta domain.EtiquetaID) (domain.Atribuicao, error)
}

type Cadastros interface {
	CriarObra(ctx context.Context, o domain.Obra) (domain.Obra, error)
	AtualizarObra(ctx context.Context, o domain.Obra) (domain.Obra, error)
	ObterObra(ctx context.Context, id domain.ObraID) (domain.Obra, error)
	ListarObras(ctx context.Context) ([]domain.Obra, error)
	CriarEspecialidade(ctx context.Context, nome string) (domain.Especialidade, error)
	ListarEspecialidades(ctx context.Context) ([]domain.Especialidade, error)
	CriarPrestador(ctx context.Context, p domain.Prestador) (domain.Prestador, error)
	AtualizarPrestador(ctx context.Context, p domain.Prestador) (domain.Prestador, error)
	ObterPrestador(ctx context.Context, id domain.PrestadorID) (domain.Prestador, error)
	ListarPrestadores(ctx context.Context) ([]domain.Prestador, error)
	CriarEquipe(ctx context.Context, e domain.Equipe) (domain.Equipe, error)
	ObterEquipe(ctx context.Context, id domain.EquipeID) (domain.Equipe, error)
	ListarEquipes(ctx context.Context) ([]domain.Equipe, error)
	AdicionarMembro(ctx context.Context, equipe domain.EquipeID, m domain.MembroEquipe) (domain.Equipe, error)
	RemoverMembro(ctx context.Context, equipe domain.EquipeID, membro domain.MembroEquipeID) error
}

type Presenca interface {
	Folha(ctx context.Context, dia time.Time) (domain.FolhaPresenca, error)
	Registrar(ctx context.Context, r presenca.Registro, autor *domain.UsuarioID) (domain.Presenca, error)
}

type Ferramentas interface {
	Criar(ctx context.Context, f domain.Ferramenta) (domain.Ferramenta, error)
	Listar(ctx context.Context) ([]domain.Ferramenta, error)
	Obter(ctx context.Context, id domain.FerramentaID) (domain.Ferramenta, error)
	Retirar(ctx context.Context, id domain.FerramentaID, d ferramentas.Destino, autor *domain.UsuarioID) (domain.Ferramenta, error)
	Devolver(ctx context.Context, id domain.FerramentaID, observacao string, autor *domain.UsuarioID) (domain.Ferramenta, error)
	Transferir(ctx context.Context, id domain.FerramentaID, d ferramentas.Destino, autor *domain.UsuarioID) (domain.Ferramenta, error)
	AlterarStatus(ctx context.Context, id domain.FerramentaID, status domain.StatusFerramenta) (domain.Ferramenta, error)
	Historico(ctx context.Context, id domain.FerramentaID) ([]domain.PeriodoCustodia, error)
	Conferir(ctx context.Context, id domain.FerramentaID) (bool, error)
}

type Orcamento interface {
	Obter(ctx context.Context, obra domain.ObraID) (domain.ResumoOrcamento, error)
	Criar(ctx context.Context, obra domain.ObraID, bdi decimal.Decimal) (domain.ResumoOrcamento, error)
	AtualizarBDI(ctx context.Context, obra domain.ObraID, bdi decimal.Decimal) (domain.ResumoOrcamento, error)
	AdicionarItem(ctx context.Context, obra domain.ObraID, item domain.ItemOrcamento) (domain.ResumoOrcamento, error)
	RemoverItem(ctx context.Context, obra domain.ObraID, item domain.ItemOrcamentoID) (domain.ResumoOrcamento, error)
	Importar(ctx context.Context, obra domain.ObraID, nomeArquivo string, conteudo io.Reader, autor *domain.UsuarioID) (domain.ResumoOrcamento, error)
	GerarProposta(ctx context.Context, negocio domain.NegocioID, margem decimal.Decimal, autor *domain.UsuarioID) (domain.Proposta, error)
	ListarPropostas(ctx context.Context, negocio domain.NegocioID) ([]domain.Proposta, error)
}

type Acesso interface {
	CriarUsuario(ctx context.Context, u domain.Usuario) (domain.Usuario, error)
	ListarUsuarios(ctx context.Context) ([]domain.Usuario, error)
	ObterUsuario(ctx context.Context, id domain.UsuarioID) (domain.Usuario, error)
	DefinirPermissao(ctx context.Context, id domain.UsuarioID, pagina domain.Pagina, nivel domain.NivelAcesso) (domain.Usuario, error)
	RemoverPermissao(ctx context.Context, id domain.UsuarioID, pagina domain.Pagina) (domain.Usuario, error)
	Autorizar(ctx context.Context, id domain.UsuarioID, pagina domain.Pagina, acao acesso.Acao) (domain.Usuario, error)
}

// Servicos reúne tudo o que a API atende. Acesso é obrigatório; os demais campos nulos
// desligam as rotas correspondentes.
type Servicos struct {
	CRM         CRM
	Kanban      Kanban
	Cadastros   Cadastros
	Presenca    Presenca
	Ferramentas Ferramentas
	Orcamento   Orcamento
	Acesso      Acesso

	Auditoria domain.AuditoriaRepository
	Contador  domain.Contador
	Arquivos  domain.Armazenamento
	Limite    domain.LimiteEscrita
	TempoReal http.Handler
	Aparencia config.Aparencia
}
