package httpapi

import (
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/marcelojr/gestao-obras/internal/app/kanban"
	"github.com/marcelojr/gestao-obras/internal/domain"
)

func (a *API) registrarKanban(mux *http.ServeMux) {
	a.handle(mux, "GET /obras/{id}/atribuicoes", domain.PaginaAtribuicoes, a.listarAtribuicoes)
	a.handle(mux, "POST /obras/{id}/atribuicoes", domain.PaginaAtribuicoes, a.criarAtribuicao)
	a.handle(mux, "GET /atribuicoes/{id}", domain.PaginaAtribuicoes, a.obterAtribuicao)
	a.handle(mux, "PUT /atribuicoes/{id}", domain.PaginaAtribuicoes, a.atualizarAtribuicao)
	a.handle(mux, "DELETE /atribuicoes/{id}", domain.PaginaAtribuicoes, a.excluirAtribuicao)
	a.handle(mux, "POST /atribuicoes/{id}/mover", domain.PaginaAtribuicoes, a.moverAtribuicao)
	a.handle(mux, "PUT /atribuicoes/{id}/dias", domain.PaginaAtribuicoes, a.definirDias)

	a.handle(mux, "POST /atribuicoes/{id}/checklist", domain.PaginaAtribuicoes, a.adicionarChecklist)
	a.handle(mux, "PATCH /checklist/{id}", domain.PaginaAtribuicoes, a.alterarChecklist)
	a.handle(mux, "DELETE /checklist/{id}", domain.PaginaAtribuicoes, a.excluirChecklist)

	a.handle(mux, "GET /atribuicoes/{id}/anexos", domain.PaginaAtribuicoes, a.listarAnexos)
	a.handle(mux, "POST /atribuicoes/{id}/anexos", domain.PaginaAtribuicoes, a.adicionarAnexo)
	a.handle(mux, "DELETE /anexos/{id}", domain.PaginaAtribuicoes, a.excluirAnexo)

	a.handle(mux, "POST /atribuicoes/{id}/etiquetas/{etiqueta}", domain.PaginaAtribuicoes, a.alternarEtiqueta)
	a.handle(mux, "GET /etiquetas", domain.PaginaAtribuicoes, a.listarEtiquetas)
	a.handle(mux, "POST /etiquetas", domain.PaginaAtribuicoes, a.criarEtiqueta)
	a.handle(mux, "DELETE /etiquetas/{id}", domain.PaginaAtribuicoes, a.excluirEtiqueta)

	a.handle(mux, "POST /atribuicoes/{id}/compras", domain.PaginaAtribuicoes, a.criarCompra)
	a.handle(mux, "PATCH /compras/{id}", domain.PaginaAtribuicoes, a.alterarCompra)
	a.handle(mux, "DELETE /compras/{id}", domain.PaginaAtribuicoes, a.excluirCompra)
}

func (a *API) listarAtribuicoes(w http.ResponseWriter, r *http.Request) {
	lista, err := a.svc.Kanban.Listar(r.Context(), domain.ObraID(r.PathValue("id")))
	if err != nil {
		a.falhar(w, r, "erro ao listar atribuicoes", err)
		return
	}
	responderJSON(w, http.StatusOK, lista)
}

func (a *API) criarAtribuicao(w http.ResponseWriter, r *http.Request) {
	var at domain.Atribuicao
	if err := decodificar(r, &at); err != nil {
		a.falhar(w, r, "payload invalido ao criar atribuicao", err)
		return
	}
	at.ObraID = domain.ObraID(r.PathValue("id"))
	criada, err := a.svc.Kanban.Criar(r.Context(), at, usuarioDe(r.Context()))
	if err != nil {
		a.falhar(w, r, "falha ao criar atribuicao", err, "obra", at.ObraID)
		return
	}
	responderJSON(w, http.StatusCreated, criada)
}

func (a *API) obterAtribuicao(w http.ResponseWriter, r *http.Request) {
	at, err := a.svc.Kanban.Obter(r.Context(), domain.AtribuicaoID(r.PathValue("id")))
	if err != nil {
		a.falhar(w, r, "erro ao obter atribuicao", err)
		return
	}
	responderJSON(w, http.StatusOK, at)
}

func (a *API) atualizarAtribuicao(w http.ResponseWriter, r *http.Request) {
	var at domain.Atribuicao
	if err := decodificar(r, &at); err != nil {
		a.falhar(w, r, "payload invalido ao atualizar atribuicao", err)
		return
	}
	at.ID = domain.AtribuicaoID(r.PathValue("id"))
	atualizada, err := a.svc.Kanban.Atualizar(r.Context(), at)
	if err != nil {
		a.falhar(w, r, "falha ao atualizar atribuicao", err, "atribuicao", at.ID)
		return
	}
	responderJSON(w, http.StatusOK, atualizada)
}

func (a *API) excluirAtribuicao(w http.ResponseWriter, r *http.Request) {
	id := domain.AtribuicaoID(r.PathValue("id"))
	if err := a.svc.Kanban.Excluir(r.Context(), id, usuarioDe(r.Context())); err != nil {
		a.falhar(w, r, "falha ao excluir atribuicao", err, "atribuicao", id)
		return
	}
	responderVazio(w, "atribuicao excluida")
}

type moverRequest struct {
	Status domain.StatusAtribuicao `json:"status"`
	Indice int                     `json:"indice"`
}

func (a *API) moverAtribuicao(w http.ResponseWriter, r *http.Request) {
	var req moverRequest
	if err := decodificar(r, &req); err != nil {
		a.falhar(w, r, "payload invalido ao mover atribuicao", err)
		return
	}
	id := domain.AtribuicaoID(r.PathValue("id"))
	at, err := a.svc.Kanban.Mover(r.Context(), id, req.Status, req.Indice, usuarioDe(r.Context()))
	if err != nil {
		a.falhar(w, r, "falha ao mover atribuicao", err, "atribuicao", id, "status", req.Status)
		return
	}
	responderJSON(w, http.StatusOK, at)
}

type diasRequest struct {
	Dias []string `json:"dias"`
}

func (a *API) definirDias(w http.ResponseWriter, r *http.Request) {
	var req diasRequest
	if err := decodificar(r, &req); err != nil {
		a.falhar(w, r, "payload invalido ao definir dias", err)
		return
	}
	at, err := a.svc.Kanban.DefinirDias(r.Context(), domain.AtribuicaoID(r.PathValue("id")), req.Dias)
	if err != nil {
		a.falhar(w, r, "falha ao definir dias", err)
		return
	}
	responderJSON(w, http.StatusOK, at)
}

type checklistRequest struct {
	Titulo string `json:"titulo"`
}

func (a *API) adicionarChecklist(w http.ResponseWriter, r *http.Request) {
	var req checklistRequest
	if err := decodificar(r, &req); err != nil {
		a.falhar(w, r, "payload invalido no checklist", err)
		return
	}
	item, err := a.svc.Kanban.AdicionarChecklist(r.Context(), domain.AtribuicaoID(r.PathValue("id")), req.Titulo)
	if err != nil {
		a.falhar(w, r, "falha ao adicionar checklist", err)
		return
	}
	responderJSON(w, http.StatusCreated, item)
}

func (a *API) alterarChecklist(w http.ResponseWriter, r *http.Request) {
	var alt kanban.AlteracaoChecklist
	if err := decodificar(r, &alt); err != nil {
		a.falhar(w, r, "payload invalido no checklist", err)
		return
	}
	item, err := a.svc.Kanban.AlterarChecklist(r.Context(), domain.ChecklistItemID(r.PathValue("id")), alt)
	if err != nil {
		a.falhar(w, r, "falha ao alterar checklist", err)
		return
	}
	responderJSON(w, http.StatusOK, item)
}

func (a *API) excluirChecklist(w http.ResponseWriter, r *http.Request) {
	if err := a.svc.Kanban.ExcluirChecklist(r.Context(), domain.ChecklistItemID(r.PathValue("id"))); err != nil {
		a.falhar(w, r, "falha ao excluir checklist", err)
		return
	}
	responderVazio(w, "item excluido")
}

func (a *API) listarAnexos(w http.ResponseWriter, r *http.Request) {
	lista, err := a.svc.Kanban.ListarAnexos(r.Context(), domain.AtribuicaoID(r.PathValue("id")))
	if err != nil {
		a.falhar(w, r, "erro ao listar anexos", err)
		return
	}
	responderJSON(w, http.StatusOK, lista)
}

func (a *API) adicionarAnexo(w http.ResponseWriter, r *http.Request) {
	up, err := lerUpload(w, r)
	if err != nil {
		a.falhar(w, r, "upload invalido no anexo", err)
		return
	}
	defer up.fechar()

	anexo, err := a.svc.Kanban.AdicionarAnexo(r.Context(), domain.AtribuicaoID(r.PathValue("id")), up.Upload)
	if err != nil {
		a.falhar(w, r, "falha ao anexar arquivo", err, "arquivo", up.Nome)
		return
	}
	responderJSON(w, http.StatusCreated, anexo)
}

func (a *API) excluirAnexo(w http.ResponseWriter, r *http.Request) {
	if err := a.svc.Kanban.ExcluirAnexo(r.Context(), domain.AnexoID(r.PathValue("id"))); err != nil {
		a.falhar(w, r, "falha ao excluir anexo", err)
		return
	}
	responderVazio(w, "anexo excluido")
}

func (a *API) alternarEtiqueta(w http.ResponseWriter, r *http.Request) {
	at, err := a.svc.Kanban.AlternarEtiqueta(r.Context(), domain.AtribuicaoID(r.PathValue("id")), domain.EtiquetaID(r.PathValue("etiqueta")))
	if err != nil {
		a.falhar(w, r, "falha ao alternar etiqueta", err)
		return
	}
	responderJSON(w, http.StatusOK, at)
}

func (a *API) listarEtiquetas(w http.ResponseWriter, r *http.Request) {
	lista, err := a.svc.Kanban.ListarEtiquetas(r.Context())
	if err != nil {
		a.falhar(w, r, "erro ao listar etiquetas", err)
		return
	}
	responderJSON(w, http.StatusOK, lista)
}

type etiquetaRequest struct {
	Nome string `json:"nome"`
	Cor  string `json:"cor"`
}

func (a *API) criarEtiqueta(w http.ResponseWriter, r *http.Request) {
	var req etiquetaRequest
	if err := decodificar(r, &req); err != nil {
		a.falhar(w, r, "payload invalido na etiqueta", err)
		return
	}
	e, err := a.svc.Kanban.CriarEtiqueta(r.Context(), req.Nome, req.Cor)
	if err != nil {
		a.falhar(w, r, "falha ao criar etiqueta", err)
		return
	}
	responderJSON(w, http.StatusCreated, e)
}

func (a *API) excluirEtiqueta(w http.ResponseWriter, r *http.Request) {
	id := domain.EtiquetaID(r.PathValue("id"))
	if err := a.svc.Kanban.ExcluirEtiqueta(r.Context(), id, usuarioDe(r.Context())); err != nil {
		a.falhar(w, r, "falha ao excluir etiqueta", err, "etiqueta", id)
		return
	}
	responderVazio(w, "etiqueta excluida")
}

func (a *API) criarCompra(w http.ResponseWriter, r *http.Request) {
	var c domain.Compra
	if err := decodificar(r, &c); err != nil {
		a.falhar(w, r, "payload invalido na compra", err)
		return
	}
	criada, err := a.svc.Kanban.CriarCompra(r.Context(), domain.AtribuicaoID(r.PathValue("id")), c)
	if err != nil {
		a.falhar(w, r, "falha ao criar compra", err)
		return
	}
	responderJSON(w, http.StatusCreated, criada)
}

func (a *API) alterarCompra(w http.ResponseWriter, r *http.Request) {
	var alt kanban.AlteracaoCompra
	if err := decodificar(r, &alt); err != nil {
		a.falhar(w, r, "payload invalido na compra", err)
		return
	}
	c, err := a.svc.Kanban.AlterarCompra(r.Context(), domain.CompraID(r.PathValue("id")), alt)
	if err != nil {
		a.falhar(w, r, "falha ao alterar compra", err)
		return
	}
	responderJSON(w, http.StatusOK, c)
}

func (a *API) excluirCompra(w http.ResponseWriter, r *http.Request) {
	if err := a.svc.Kanban.ExcluirCompra(r.Context(), domain.CompraID(r.PathValue("id"))); err != nil {
		a.falhar(w, r, "falha ao excluir compra", err)
		return
	}
	responderVazio(w, "compra excluida")
}

type upload struct {
	kanban.Upload
	arquivo multipart.File
}

func (u upload) fechar() {
	u.arquivo.Close()
}

// lerUpload lê o campo "arquivo" de um formulário multipart.
func lerUpload(w http.ResponseWriter, r *http.Request) (upload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, limiteUpload)
	arquivo, cabecalho, err := r.FormFile("arquivo")
	if err != nil {
		return upload{}, fmt.Errorf("%w: campo arquivo: %v", errRequisicaoInvalida, err)
	}
	return upload{
		Upload: kanban.Upload{
			Nome:     cabecalho.Filename,
			MimeType: cabecalho.Header.Get("Content-Type"),
			Tamanho:  cabecalho.Size,
			Conteudo: arquivo,
		},
		arquivo: arquivo,
	}, nil
}
