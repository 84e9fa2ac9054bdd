package httpapi

import (
	"net/http"

	"github.com/marcelojr/gestao-obras/internal/domain"
)

func (a *API) registrarCRM(mux *http.ServeMux) {
	a.handle(mux, "GET /leads", domain.PaginaCRM, a.listarLeads)
	a.handle(mux, "POST /leads", domain.PaginaCRM, a.criarLead)
	a.handle(mux, "GET /leads/{id}", domain.PaginaCRM, a.obterLead)
	a.handle(mux, "PUT /leads/{id}", domain.PaginaCRM, a.atualizarLead)

	a.handle(mux, "GET /negocios", domain.PaginaCRM, a.listarNegocios)
	a.handle(mux, "POST /negocios", domain.PaginaCRM, a.criarNegocio)
	a.handle(mux, "GET /negocios/{id}", domain.PaginaCRM, a.obterNegocio)
	a.handle(mux, "PUT /negocios/{id}", domain.PaginaCRM, a.atualizarNegocio)
	a.handle(mux, "POST /negocios/{id}/estagio", domain.PaginaCRM, a.moverEstagio)
	a.handle(mux, "POST /negocios/{id}/obra", domain.PaginaCRM, a.criarObraParaNegocio)
	a.handle(mux, "GET /negocios/{id}/interacoes", domain.PaginaCRM, a.listarInteracoes)
	a.handle(mux, "POST /negocios/{id}/interacoes", domain.PaginaCRM, a.registrarInteracao)
}

func (a *API) listarLeads(w http.ResponseWriter, r *http.Request) {
	leads, err := a.svc.CRM.ListarLeads(r.Context())
	if err != nil {
		a.falhar(w, r, "erro ao listar leads", err)
		return
	}
	responderJSON(w, http.StatusOK, leads)
}

func (a *API) criarLead(w http.ResponseWriter, r *http.Request) {
	var l domain.Lead
	if err := decodificar(r, &l); err != nil {
		a.falhar(w, r, "payload invalido ao criar lead", err)
		return
	}
	criado, err := a.svc.CRM.CriarLead(r.Context(), l)
	if err != nil {
		a.falhar(w, r, "falha ao criar lead", err)
		return
	}
	responderJSON(w, http.StatusCreated, criado)
}

func (a *API) obterLead(w http.ResponseWriter, r *http.Request) {
	l, err := a.svc.CRM.ObterLead(r.Context(), domain.LeadID(r.PathValue("id")))
	if err != nil {
		a.falhar(w, r, "erro ao obter lead", err)
		return
	}
	responderJSON(w, http.StatusOK, l)
}

func (a *API) atualizarLead(w http.ResponseWriter, r *http.Request) {
	var l domain.Lead
	if err := decodificar(r, &l); err != nil {
		a.falhar(w, r, "payload invalido ao atualizar lead", err)
		return
	}
	l.ID = domain.LeadID(r.PathValue("id"))
	atualizado, err := a.svc.CRM.AtualizarLead(r.Context(), l)
	if err != nil {
		a.falhar(w, r, "falha ao atualizar lead", err, "lead", l.ID)
		return
	}
	responderJSON(w, http.StatusOK, atualizado)
}

func (a *API) listarNegocios(w http.ResponseWriter, r *http.Request) {
	negocios, err := a.svc.CRM.ListarNegocios(r.Context())
	if err != nil {
		a.falhar(w, r, "erro ao listar negocios", err)
		return
	}
	responderJSON(w, http.StatusOK, negocios)
}

func (a *API) criarNegocio(w http.ResponseWriter, r *http.Request) {
	var n domain.Negocio
	if err := decodificar(r, &n); err != nil {
		a.falhar(w, r, "payload invalido ao criar negocio", err)
		return
	}
	criado, err := a.svc.CRM.CriarNegocio(r.Context(), n, usuarioDe(r.Context()))
	if err != nil {
		a.falhar(w, r, "falha ao criar negocio", err)
		return
	}
	responderJSON(w, http.StatusCreated, criado)
}

func (a *API) obterNegocio(w http.ResponseWriter, r *http.Request) {
	n, err := a.svc.CRM.ObterNegocio(r.Context(), domain.NegocioID(r.PathValue("id")))
	if err != nil {
		a.falhar(w, r, "erro ao obter negocio", err)
		return
	}
	responderJSON(w, http.StatusOK, n)
}

func (a *API) atualizarNegocio(w http.ResponseWriter, r *http.Request) {
	var n domain.Negocio
	if err := decodificar(r, &n); err != nil {
		a.falhar(w, r, "payload invalido ao atualizar negocio", err)
		return
	}
	n.ID = domain.NegocioID(r.PathValue("id"))
	atualizado, err := a.svc.CRM.AtualizarNegocio(r.Context(), n)
	if err != nil {
		a.falhar(w, r, "falha ao atualizar negocio", err, "negocio", n.ID)
		return
	}
	responderJSON(w, http.StatusOK, atualizado)
}

type estagioRequest struct {
	Estagio domain.EstagioNegocio `json:"estagio"`
	Motivo  string                `json:"motivo"`
}

func (a *API) moverEstagio(w http.ResponseWriter, r *http.Request) {
	var req estagioRequest
	if err := decodificar(r, &req); err != nil {
		a.falhar(w, r, "payload invalido ao mover estagio", err)
		return
	}
	id := domain.NegocioID(r.PathValue("id"))
	n, err := a.svc.CRM.MoverEstagio(r.Context(), id, req.Estagio, req.Motivo, usuarioDe(r.Context()))
	if err != nil {
		a.falhar(w, r, "falha ao mover estagio", err, "negocio", id, "alvo", req.Estagio)
		return
	}
	a.logger.Info("estagio alterado", "negocio", id, "estagio", n.Estagio)
	responderJSON(w, http.StatusOK, n)
}

func (a *API) criarObraParaNegocio(w http.ResponseWriter, r *http.Request) {
	var o domain.Obra
	if err := decodificar(r, &o); err != nil {
		a.falhar(w, r, "payload invalido ao criar obra do negocio", err)
		return
	}
	id := domain.NegocioID(r.PathValue("id"))
	n, err := a.svc.CRM.CriarObraParaNegocio(r.Context(), id, o, usuarioDe(r.Context()))
	if err != nil {
		a.falhar(w, r, "falha ao vincular obra", err, "negocio", id)
		return
	}
	responderJSON(w, http.StatusCreated, n)
}

func (a *API) listarInteracoes(w http.ResponseWriter, r *http.Request) {
	lista, err := a.svc.CRM.ListarInteracoes(r.Context(), domain.NegocioID(r.PathValue("id")))
	if err != nil {
		a.falhar(w, r, "erro ao listar interacoes", err)
		return
	}
	responderJSON(w, http.StatusOK, lista)
}

type interacaoRequest struct {
	Tipo  domain.TipoInteracao `json:"tipo"`
	Texto string               `json:"texto"`
}

func (a *API) registrarInteracao(w http.ResponseWriter, r *http.Request) {
	var req interacaoRequest
	if err := decodificar(r, &req); err != nil {
		a.falhar(w, r, "payload invalido ao registrar interacao", err)
		return
	}
	i, err := a.svc.CRM.RegistrarInteracao(r.Context(), domain.NegocioID(r.PathValue("id")), req.Tipo, req.Texto, usuarioDe(r.Context()))
	if err != nil {
		a.falhar(w, r, "falha ao registrar interacao", err)
		return
	}
	responderJSON(w, http.StatusCreated, i)
}
