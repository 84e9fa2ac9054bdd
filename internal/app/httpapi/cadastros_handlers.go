package httpapi

import (
	"net/http"

	"github.com/marcelojr/gestao-obras/internal/domain"
)

func (a *API) registrarCadastros(mux *http.ServeMux) {
	a.handle(mux, "GET /obras", domain.PaginaObras, a.listarObras)
	a.handle(mux, "POST /obras", domain.PaginaObras, a.criarObra)
	a.handle(mux, "GET /obras/{id}", domain.PaginaObras, a.obterObra)
	a.handle(mux, "PUT /obras/{id}", domain.PaginaObras, a.atualizarObra)

	a.handle(mux, "GET /especialidades", domain.PaginaPrestadores, a.listarEspecialidades)
	a.handle(mux, "POST /especialidades", domain.PaginaPrestadores, a.criarEspecialidade)
	a.handle(mux, "GET /prestadores", domain.PaginaPrestadores, a.listarPrestadores)
	a.handle(mux, "POST /prestadores", domain.PaginaPrestadores, a.criarPrestador)
	a.handle(mux, "GET /prestadores/{id}", domain.PaginaPrestadores, a.obterPrestador)
	a.handle(mux, "PUT /prestadores/{id}", domain.PaginaPrestadores, a.atualizarPrestador)

	a.handle(mux, "GET /equipes", domain.PaginaEquipes, a.listarEquipes)
	a.handle(mux, "POST /equipes", domain.PaginaEquipes, a.criarEquipe)
	a.handle(mux, "GET /equipes/{id}", domain.PaginaEquipes, a.obterEquipe)
	a.handle(mux, "POST /equipes/{id}/membros", domain.PaginaEquipes, a.adicionarMembro)
	a.handle(mux, "DELETE /equipes/{id}/membros/{membro}", domain.PaginaEquipes, a.removerMembro)
}

func (a *API) listarObras(w http.ResponseWriter, r *http.Request) {
	lista, err := a.svc.Cadastros.ListarObras(r.Context())
	if err != nil {
		a.falhar(w, r, "erro ao listar obras", err)
		return
	}
	responderJSON(w, http.StatusOK, lista)
}

func (a *API) criarObra(w http.ResponseWriter, r *http.Request) {
	var o domain.Obra
	if err := decodificar(r, &o); err != nil {
		a.falhar(w, r, "payload invalido na obra", err)
		return
	}
	criada, err := a.svc.Cadastros.CriarObra(r.Context(), o)
	if err != nil {
		a.falhar(w, r, "falha ao criar obra", err)
		return
	}
	responderJSON(w, http.StatusCreated, criada)
}

func (a *API) obterObra(w http.ResponseWriter, r *http.Request) {
	o, err := a.svc.Cadastros.ObterObra(r.Context(), domain.ObraID(r.PathValue("id")))
	if err != nil {
		a.falhar(w, r, "erro ao obter obra", err)
		return
	}
	responderJSON(w, http.StatusOK, o)
}

func (a *API) atualizarObra(w http.ResponseWriter, r *http.Request) {
	var o domain.Obra
	if err := decodificar(r, &o); err != nil {
		a.falhar(w, r, "payload invalido na obra", err)
		return
	}
	o.ID = domain.ObraID(r.PathValue("id"))
	atualizada, err := a.svc.Cadastros.AtualizarObra(r.Context(), o)
	if err != nil {
		a.falhar(w, r, "falha ao atualizar obra", err, "obra", o.ID)
		return
	}
	responderJSON(w, http.StatusOK, atualizada)
}

func (a *API) listarEspecialidades(w http.ResponseWriter, r *http.Request) {
	lista, err := a.svc.Cadastros.ListarEspecialidades(r.Context())
	if err != nil {
		a.falhar(w, r, "erro ao listar especialidades", err)
		return
	}
	responderJSON(w, http.StatusOK, lista)
}

type especialidadeRequest struct {
	Nome string `json:"nome"`
}

func (a *API) criarEspecialidade(w http.ResponseWriter, r *http.Request) {
	var req especialidadeRequest
	if err := decodificar(r, &req); err != nil {
		a.falhar(w, r, "payload invalido na especialidade", err)
		return
	}
	e, err := a.svc.Cadastros.CriarEspecialidade(r.Context(), req.Nome)
	if err != nil {
		a.falhar(w, r, "falha ao criar especialidade", err)
		return
	}
	responderJSON(w, http.StatusCreated, e)
}

func (a *API) listarPrestadores(w http.ResponseWriter, r *http.Request) {
	lista, err := a.svc.Cadastros.ListarPrestadores(r.Context())
	if err != nil {
		a.falhar(w, r, "erro ao listar prestadores", err)
		return
	}
	responderJSON(w, http.StatusOK, lista)
}

func (a *API) criarPrestador(w http.ResponseWriter, r *http.Request) {
	var p domain.Prestador
	if err := decodificar(r, &p); err != nil {
		a.falhar(w, r, "payload invalido no prestador", err)
		return
	}
	criado, err := a.svc.Cadastros.CriarPrestador(r.Context(), p)
	if err != nil {
		a.falhar(w, r, "falha ao criar prestador", err)
		return
	}
	responderJSON(w, http.StatusCreated, criado)
}

func (a *API) obterPrestador(w http.ResponseWriter, r *http.Request) {
	p, err := a.svc.Cadastros.ObterPrestador(r.Context(), domain.PrestadorID(r.PathValue("id")))
	if err != nil {
		a.falhar(w, r, "erro ao obter prestador", err)
		return
	}
	responderJSON(w, http.StatusOK, p)
}

func (a *API) atualizarPrestador(w http.ResponseWriter, r *http.Request) {
	var p domain.Prestador
	if err := decodificar(r, &p); err != nil {
		a.falhar(w, r, "payload invalido no prestador", err)
		return
	}
	p.ID = domain.PrestadorID(r.PathValue("id"))
	atualizado, err := a.svc.Cadastros.AtualizarPrestador(r.Context(), p)
	if err != nil {
		a.falhar(w, r, "falha ao atualizar prestador", err, "prestador", p.ID)
		return
	}
	responderJSON(w, http.StatusOK, atualizado)
}

func (a *API) listarEquipes(w http.ResponseWriter, r *http.Request) {
	lista, err := a.svc.Cadastros.ListarEquipes(r.Context())
	if err != nil {
		a.falhar(w, r, "erro ao listar equipes", err)
		return
	}
	responderJSON(w, http.StatusOK, lista)
}

func (a *API) criarEquipe(w http.ResponseWriter, r *http.Request) {
	var e domain.Equipe
	if err := decodificar(r, &e); err != nil {
		a.falhar(w, r, "payload invalido na equipe", err)
		return
	}
	criada, err := a.svc.Cadastros.CriarEquipe(r.Context(), e)
	if err != nil {
		a.falhar(w, r, "falha ao criar equipe", err)
		return
	}
	responderJSON(w, http.StatusCreated, criada)
}

func (a *API) obterEquipe(w http.ResponseWriter, r *http.Request) {
	e, err := a.svc.Cadastros.ObterEquipe(r.Context(), domain.EquipeID(r.PathValue("id")))
	if err != nil {
		a.falhar(w, r, "erro ao obter equipe", err)
		return
	}
	responderJSON(w, http.StatusOK, e)
}

func (a *API) adicionarMembro(w http.ResponseWriter, r *http.Request) {
	var m domain.MembroEquipe
	if err := decodificar(r, &m); err != nil {
		a.falhar(w, r, "payload invalido no membro", err)
		return
	}
	id := domain.EquipeID(r.PathValue("id"))
	e, err := a.svc.Cadastros.AdicionarMembro(r.Context(), id, m)
	if err != nil {
		a.falhar(w, r, "falha ao adicionar membro", err, "equipe", id)
		return
	}
	responderJSON(w, http.StatusCreated, e)
}

func (a *API) removerMembro(w http.ResponseWriter, r *http.Request) {
	id := domain.EquipeID(r.PathValue("id"))
	if err := a.svc.Cadastros.RemoverMembro(r.Context(), id, domain.MembroEquipeID(r.PathValue("membro"))); err != nil {
		a.falhar(w, r, "falha ao remover membro", err, "equipe", id)
		return
	}
	responderVazio(w, "membro removido")
}
