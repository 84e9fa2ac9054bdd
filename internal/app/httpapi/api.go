// Pacote httpapi expõe a API REST da gestão de obras. Toda resposta JSON segue o
// envelope {success, data, message}.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/marcelojr/gestao-obras/internal/app/acesso"
	"github.com/marcelojr/gestao-obras/internal/app/cadastros"
	"github.com/marcelojr/gestao-obras/internal/app/crm"
	"github.com/marcelojr/gestao-obras/internal/app/ferramentas"
	"github.com/marcelojr/gestao-obras/internal/app/kanban"
	"github.com/marcelojr/gestao-obras/internal/app/orcamento"
	"github.com/marcelojr/gestao-obras/internal/app/presenca"
	"github.com/marcelojr/gestao-obras/internal/domain"
	"github.com/marcelojr/gestao-obras/internal/platform/arquivos"
	"github.com/marcelojr/gestao-obras/internal/platform/limite"
	"github.com/marcelojr/gestao-obras/internal/platform/planilha"
)

var errRequisicaoInvalida = errors.New("requisicao invalida")

// API empacota os handlers HTTP ligados aos serviços e ao logger.
type API struct {
	svc    Servicos
	logger *slog.Logger
}

func New(svc Servicos, logger *slog.Logger) *API {
	return &API{svc: svc, logger: logger}
}

func (a *API) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", a.handleHealthz)
	mux.HandleFunc("GET /config/aparencia", a.obterAparencia)

	if a.svc.CRM != nil {
		a.registrarCRM(mux)
	}
	if a.svc.Orcamento != nil {
		a.registrarOrcamento(mux)
	}
	if a.svc.Kanban != nil {
		a.registrarKanban(mux)
	}
	if a.svc.Cadastros != nil {
		a.registrarCadastros(mux)
	}
	if a.svc.Presenca != nil {
		a.handle(mux, "GET /presencas", domain.PaginaPresenca, a.folhaPresenca)
		a.handle(mux, "PUT /presencas", domain.PaginaPresenca, a.registrarPresenca)
	}
	if a.svc.Ferramentas != nil {
		a.registrarFerramentas(mux)
	}
	a.registrarUsuarios(mux)
	if a.svc.Auditoria != nil {
		a.handle(mux, "GET /auditoria/{recurso}/{id}", domain.PaginaDashboard, a.listarAuditoria)
	}
	if a.svc.Contador != nil {
		a.handle(mux, "GET /painel", domain.PaginaDashboard, a.obterPainel)
	}
	if a.svc.Arquivos != nil {
		a.handle(mux, "GET /arquivos/{chave...}", "", a.baixarArquivo)
	}
	if a.svc.TempoReal != nil {
		a.handle(mux, "GET /ws", "", a.svc.TempoReal.ServeHTTP)
	}
}

func (a *API) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (a *API) obterAparencia(w http.ResponseWriter, r *http.Request) {
	responderJSON(w, http.StatusOK, a.svc.Aparencia)
}

type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

func responderJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Success: true, Data: data})
}

func responderVazio(w http.ResponseWriter, mensagem string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(envelope{Success: true, Message: mensagem})
}

func responderErro(w http.ResponseWriter, err error) {
	status := statusDoErro(err)
	mensagem := err.Error()
	if status == http.StatusInternalServerError {
		mensagem = "erro interno"
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Success: false, Message: mensagem})
}

// falhar registra o erro com o contexto da rota e responde no envelope.
func (a *API) falhar(w http.ResponseWriter, r *http.Request, msg string, err error, attrs ...any) {
	attrs = append(attrs, "err", err, "rota", r.Pattern)
	if statusDoErro(err) == http.StatusInternalServerError {
		a.logger.Error(msg, attrs...)
	} else {
		a.logger.Warn(msg, attrs...)
	}
	responderErro(w, err)
}

var errosPorStatus = []struct {
	status int
	erros  []error
}{
	{http.StatusTooManyRequests, []error{limite.ErrLimiteExcedido}},
	{http.StatusForbidden, []error{acesso.ErrNaoIdentificado, acesso.ErrAcessoNegado}},
	{http.StatusNotFound, []error{
		domain.ErrNotFound,
		crm.ErrLeadNaoEncontrado, crm.ErrNegocioNaoEncontrado,
		kanban.ErrObraNaoEncontrada, kanban.ErrAtribuicaoNaoEncontrada, kanban.ErrChecklistNaoEncontrado,
		kanban.ErrAnexoNaoEncontrado, kanban.ErrCompraNaoEncontrada, kanban.ErrEtiquetaNaoEncontrada,
		cadastros.ErrObraNaoEncontrada, cadastros.ErrEspecialidadeNaoEncontrada, cadastros.ErrPrestadorNaoEncontrado,
		cadastros.ErrEquipeNaoEncontrada, cadastros.ErrMembroNaoEncontrado,
		presenca.ErrPrestadorNaoEncontrado, presenca.ErrObraNaoEncontrada,
		ferramentas.ErrFerramentaNaoEncontrada, ferramentas.ErrObraNaoEncontrada, ferramentas.ErrPrestadorNaoEncontrado,
		orcamento.ErrObraNaoEncontrada, orcamento.ErrOrcamentoNaoEncontrado, orcamento.ErrItemNaoEncontrado,
		orcamento.ErrNegocioNaoEncontrado,
		acesso.ErrUsuarioNaoEncontrado, acesso.ErrPermissaoInexistente,
	}},
	{http.StatusConflict, []error{
		domain.ErrConflito,
		crm.ErrEstagioTerminal, crm.ErrObraJaVinculada,
		kanban.ErrTransicaoCompraInvalida, kanban.ErrEtiquetaDuplicada,
		cadastros.ErrDuplicado, cadastros.ErrMembroDuplicado,
		ferramentas.ErrTransicaoInvalida, ferramentas.ErrCustodiaAlterada, ferramentas.ErrPatrimonioDuplicado,
		orcamento.ErrOrcamentoExistente, orcamento.ErrPropostaConcorrente, orcamento.ErrNegocioSemObra,
		acesso.ErrUsuarioDuplicado,
	}},
	{http.StatusBadRequest, []error{
		errRequisicaoInvalida, arquivos.ErrChaveInvalida,
		crm.ErrLeadInvalido, crm.ErrNegocioInvalido, crm.ErrEstagioInvalido, crm.ErrMotivoObrigatorio, crm.ErrInteracaoInvalida,
		kanban.ErrAtribuicaoInvalida, kanban.ErrStatusInvalido, kanban.ErrDiasInvalidos, kanban.ErrChecklistInvalido,
		kanban.ErrAnexoInvalido, kanban.ErrCompraInvalida, kanban.ErrEtiquetaInvalida,
		cadastros.ErrObraInvalida, cadastros.ErrEspecialidadeInvalida, cadastros.ErrPrestadorInvalido,
		cadastros.ErrEquipeInvalida, cadastros.ErrMembroInvalido,
		presenca.ErrPresencaSemObra, presenca.ErrPrestadorForaDaFolha,
		ferramentas.ErrFerramentaInvalida, ferramentas.ErrDestinoObrigatorio,
		orcamento.ErrBDIInvalido, orcamento.ErrItemInvalido, orcamento.ErrMargemInvalida,
		planilha.ErrFormatoInvalido, planilha.ErrPlanilhaVazia, planilha.ErrLinhaInvalida,
		acesso.ErrUsuarioInvalido, acesso.ErrPaginaInvalida,
	}},
}

func statusDoErro(err error) int {
	for _, grupo := range errosPorStatus {
		for _, alvo := range grupo.erros {
			if errors.Is(err, alvo) {
				return grupo.status
			}
		}
	}
	return http.StatusInternalServerError
}

func decodificar(r *http.Request, destino any) error {
	if err := json.NewDecoder(r.Body).Decode(destino); err != nil {
		return fmt.Errorf("%w: %v", errRequisicaoInvalida, err)
	}
	return nil
}
