package httpapi

import (
	"io"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/marcelojr/gestao-obras/internal/app/worker"
	"github.com/marcelojr/gestao-obras/internal/domain"
)

func (a *API) registrarUsuarios(mux *http.ServeMux) {
	a.handle(mux, "GET /usuarios", domain.PaginaUsuarios, a.listarUsuarios)
	a.handle(mux, "POST /usuarios", domain.PaginaUsuarios, a.criarUsuario)
	a.handle(mux, "GET /usuarios/{id}", domain.PaginaUsuarios, a.obterUsuario)
	a.handle(mux, "PUT /usuarios/{id}/permissoes/{pagina}", domain.PaginaUsuarios, a.definirPermissao)
	a.handle(mux, "DELETE /usuarios/{id}/permissoes/{pagina}", domain.PaginaUsuarios, a.removerPermissao)
	a.handle(mux, "GET /eu", "", a.obterProprioUsuario)
}

func (a *API) listarUsuarios(w http.ResponseWriter, r *http.Request) {
	lista, err := a.svc.Acesso.ListarUsuarios(r.Context())
	if err != nil {
		a.falhar(w, r, "erro ao listar usuarios", err)
		return
	}
	responderJSON(w, http.StatusOK, lista)
}

func (a *API) criarUsuario(w http.ResponseWriter, r *http.Request) {
	var u domain.Usuario
	if err := decodificar(r, &u); err != nil {
		a.falhar(w, r, "payload invalido no usuario", err)
		return
	}
	criado, err := a.svc.Acesso.CriarUsuario(r.Context(), u)
	if err != nil {
		a.falhar(w, r, "falha ao criar usuario", err)
		return
	}
	a.logger.Info("usuario criado", "usuario", criado.ID, "tipo", criado.Tipo)
	responderJSON(w, http.StatusCreated, criado)
}

func (a *API) obterUsuario(w http.ResponseWriter, r *http.Request) {
	u, err := a.svc.Acesso.ObterUsuario(r.Context(), domain.UsuarioID(r.PathValue("id")))
	if err != nil {
		a.falhar(w, r, "erro ao obter usuario", err)
		return
	}
	responderJSON(w, http.StatusOK, u)
}

// obterProprioUsuario devolve o usuário identificado pela requisição, com as permissões atuais.
func (a *API) obterProprioUsuario(w http.ResponseWriter, r *http.Request) {
	u, _ := r.Context().Value(chaveUsuario{}).(domain.Usuario)
	responderJSON(w, http.StatusOK, u)
}

type permissaoRequest struct {
	Nivel domain.NivelAcesso `json:"nivel"`
}

func (a *API) definirPermissao(w http.ResponseWriter, r *http.Request) {
	var req permissaoRequest
	if err := decodificar(r, &req); err != nil {
		a.falhar(w, r, "payload invalido na permissao", err)
		return
	}
	id := domain.UsuarioID(r.PathValue("id"))
	pagina := domain.Pagina(r.PathValue("pagina"))
	u, err := a.svc.Acesso.DefinirPermissao(r.Context(), id, pagina, req.Nivel)
	if err != nil {
		a.falhar(w, r, "falha ao definir permissao", err, "usuario", id, "pagina", pagina)
		return
	}
	a.logger.Info("permissao alterada", "usuario", id, "pagina", pagina, "nivel", req.Nivel.String(), "por", usuarioDe(r.Context()))
	responderJSON(w, http.StatusOK, u)
}

func (a *API) removerPermissao(w http.ResponseWriter, r *http.Request) {
	id := domain.UsuarioID(r.PathValue("id"))
	pagina := domain.Pagina(r.PathValue("pagina"))
	u, err := a.svc.Acesso.RemoverPermissao(r.Context(), id, pagina)
	if err != nil {
		a.falhar(w, r, "falha ao remover permissao", err, "usuario", id, "pagina", pagina)
		return
	}
	responderJSON(w, http.StatusOK, u)
}

func (a *API) listarAuditoria(w http.ResponseWriter, r *http.Request) {
	eventos, err := a.svc.Auditoria.ListByRecurso(r.Context(), r.PathValue("recurso"), r.PathValue("id"))
	if err != nil {
		a.falhar(w, r, "erro ao listar auditoria", err)
		return
	}
	responderJSON(w, http.StatusOK, eventos)
}

func (a *API) obterPainel(w http.ResponseWriter, r *http.Request) {
	contadores, err := worker.Painel(r.Context(), a.svc.Contador)
	if err != nil {
		a.falhar(w, r, "erro ao obter painel", err)
		return
	}
	responderJSON(w, http.StatusOK, contadores)
}

func (a *API) baixarArquivo(w http.ResponseWriter, r *http.Request) {
	chave := r.PathValue("chave")
	arquivo, err := a.svc.Arquivos.Abrir(r.Context(), chave)
	if err != nil {
		a.falhar(w, r, "erro ao abrir arquivo", err, "chave", chave)
		return
	}
	defer arquivo.Close()

	tipo := mime.TypeByExtension(filepath.Ext(chave))
	if tipo == "" {
		tipo = "application/octet-stream"
	}
	w.Header().Set("Content-Type", tipo)
	if _, err := io.Copy(w, arquivo); err != nil {
		a.logger.Warn("falha ao enviar arquivo", "chave", chave, "err", err)
	}
}
