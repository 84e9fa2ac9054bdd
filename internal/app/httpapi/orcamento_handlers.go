package httpapi

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/marcelojr/gestao-obras/internal/domain"
)

const limiteUpload = 32 << 20

func (a *API) registrarOrcamento(mux *http.ServeMux) {
	a.handle(mux, "GET /obras/{id}/orcamento", domain.PaginaOrcamentos, a.obterOrcamento)
	a.handle(mux, "POST /obras/{id}/orcamento", domain.PaginaOrcamentos, a.criarOrcamento)
	a.handle(mux, "PUT /obras/{id}/orcamento/bdi", domain.PaginaOrcamentos, a.atualizarBDI)
	a.handle(mux, "POST /obras/{id}/orcamento/itens", domain.PaginaOrcamentos, a.adicionarItemOrcamento)
	a.handle(mux, "DELETE /obras/{id}/orcamento/itens/{item}", domain.PaginaOrcamentos, a.removerItemOrcamento)
	a.handle(mux, "POST /obras/{id}/orcamento/importar", domain.PaginaOrcamentos, a.importarOrcamento)

	a.handle(mux, "GET /negocios/{id}/propostas", domain.PaginaCRM, a.listarPropostas)
	a.handle(mux, "POST /negocios/{id}/propostas", domain.PaginaCRM, a.gerarProposta)
}

type bdiRequest struct {
	BDI decimal.Decimal `json:"bdi"`
}

func (a *API) obterOrcamento(w http.ResponseWriter, r *http.Request) {
	resumo, err := a.svc.Orcamento.Obter(r.Context(), domain.ObraID(r.PathValue("id")))
	if err != nil {
		a.falhar(w, r, "erro ao obter orcamento", err)
		return
	}
	responderJSON(w, http.StatusOK, resumo)
}

func (a *API) criarOrcamento(w http.ResponseWriter, r *http.Request) {
	var req bdiRequest
	if err := decodificar(r, &req); err != nil {
		a.falhar(w, r, "payload invalido ao criar orcamento", err)
		return
	}
	resumo, err := a.svc.Orcamento.Criar(r.Context(), domain.ObraID(r.PathValue("id")), req.BDI)
	if err != nil {
		a.falhar(w, r, "falha ao criar orcamento", err)
		return
	}
	responderJSON(w, http.StatusCreated, resumo)
}

func (a *API) atualizarBDI(w http.ResponseWriter, r *http.Request) {
	var req bdiRequest
	if err := decodificar(r, &req); err != nil {
		a.falhar(w, r, "payload invalido ao atualizar bdi", err)
		return
	}
	resumo, err := a.svc.Orcamento.AtualizarBDI(r.Context(), domain.ObraID(r.PathValue("id")), req.BDI)
	if err != nil {
		a.falhar(w, r, "falha ao atualizar bdi", err)
		return
	}
	responderJSON(w, http.StatusOK, resumo)
}

func (a *API) adicionarItemOrcamento(w http.ResponseWriter, r *http.Request) {
	var item domain.ItemOrcamento
	if err := decodificar(r, &item); err != nil {
		a.falhar(w, r, "payload invalido ao adicionar item", err)
		return
	}
	resumo, err := a.svc.Orcamento.AdicionarItem(r.Context(), domain.ObraID(r.PathValue("id")), item)
	if err != nil {
		a.falhar(w, r, "falha ao adicionar item", err)
		return
	}
	responderJSON(w, http.StatusCreated, resumo)
}

func (a *API) removerItemOrcamento(w http.ResponseWriter, r *http.Request) {
	resumo, err := a.svc.Orcamento.RemoverItem(r.Context(), domain.ObraID(r.PathValue("id")), domain.ItemOrcamentoID(r.PathValue("item")))
	if err != nil {
		a.falhar(w, r, "falha ao remover item", err)
		return
	}
	responderJSON(w, http.StatusOK, resumo)
}

func (a *API) importarOrcamento(w http.ResponseWriter, r *http.Request) {
	up, err := lerUpload(w, r)
	if err != nil {
		a.falhar(w, r, "upload invalido na importacao", err)
		return
	}
	defer up.fechar()

	obra := domain.ObraID(r.PathValue("id"))
	resumo, err := a.svc.Orcamento.Importar(r.Context(), obra, up.Nome, up.Conteudo, usuarioDe(r.Context()))
	if err != nil {
		a.falhar(w, r, "falha ao importar orcamento", err, "obra", obra, "arquivo", up.Nome)
		return
	}
	a.logger.Info("orcamento importado", "obra", obra, "arquivo", up.Nome)
	responderJSON(w, http.StatusOK, resumo)
}

func (a *API) listarPropostas(w http.ResponseWriter, r *http.Request) {
	lista, err := a.svc.Orcamento.ListarPropostas(r.Context(), domain.NegocioID(r.PathValue("id")))
	if err != nil {
		a.falhar(w, r, "erro ao listar propostas", err)
		return
	}
	responderJSON(w, http.StatusOK, lista)
}

type propostaRequest struct {
	Margem decimal.Decimal `json:"margem"`
}

func (a *API) gerarProposta(w http.ResponseWriter, r *http.Request) {
	var req propostaRequest
	if err := decodificar(r, &req); err != nil {
		a.falhar(w, r, "payload invalido ao gerar proposta", err)
		return
	}
	id := domain.NegocioID(r.PathValue("id"))
	p, err := a.svc.Orcamento.GerarProposta(r.Context(), id, req.Margem, usuarioDe(r.Context()))
	if err != nil {
		a.falhar(w, r, "falha ao gerar proposta", err, "negocio", id)
		return
	}
	a.logger.Info("proposta gerada", "negocio", id, "versao", p.Versao)
	responderJSON(w, http.StatusCreated, p)
}
