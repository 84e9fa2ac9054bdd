package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/marcelojr/gestao-obras/internal/app/ferramentas"
	"github.com/marcelojr/gestao-obras/internal/app/presenca"
	"github.com/marcelojr/gestao-obras/internal/domain"
)

// folhaPresenca usa ?data=AAAA-MM-DD; sem o parâmetro vale o dia corrente.
func (a *API) folhaPresenca(w http.ResponseWriter, r *http.Request) {
	dia := time.Now()
	if v := r.URL.Query().Get("data"); v != "" {
		d, err := domain.ParseDia(v)
		if err != nil {
			a.falhar(w, r, "data invalida na folha", fmt.Errorf("%w: %v", errRequisicaoInvalida, err))
			return
		}
		dia = d
	}
	folha, err := a.svc.Presenca.Folha(r.Context(), dia)
	if err != nil {
		a.falhar(w, r, "erro ao montar folha de presenca", err)
		return
	}
	responderJSON(w, http.StatusOK, folha)
}

type presencaRequest struct {
	Data        string             `json:"data"`
	PrestadorID domain.PrestadorID `json:"prestador_id"`
	Presente    bool               `json:"presente"`
	ObraID      *domain.ObraID     `json:"obra_id,omitempty"`
}

func (a *API) registrarPresenca(w http.ResponseWriter, r *http.Request) {
	var req presencaRequest
	if err := decodificar(r, &req); err != nil {
		a.falhar(w, r, "payload invalido na presenca", err)
		return
	}
	dia, err := domain.ParseDia(req.Data)
	if err != nil {
		a.falhar(w, r, "data invalida na presenca", fmt.Errorf("%w: %v", errRequisicaoInvalida, err))
		return
	}
	p, err := a.svc.Presenca.Registrar(r.Context(), presenca.Registro{
		Dia:         dia,
		PrestadorID: req.PrestadorID,
		Presente:    req.Presente,
		ObraID:      req.ObraID,
	}, usuarioDe(r.Context()))
	if err != nil {
		a.falhar(w, r, "falha ao registrar presenca", err, "prestador", req.PrestadorID, "data", req.Data)
		return
	}
	responderJSON(w, http.StatusOK, p)
}

func (a *API) registrarFerramentas(mux *http.ServeMux) {
	a.handle(mux, "GET /ferramentas", domain.PaginaFerramentas, a.listarFerramentas)
	a.handle(mux, "POST /ferramentas", domain.PaginaFerramentas, a.criarFerramenta)
	a.handle(mux, "GET /ferramentas/{id}", domain.PaginaFerramentas, a.obterFerramenta)
	a.handle(mux, "POST /ferramentas/{id}/retirar", domain.PaginaFerramentas, a.retirarFerramenta)
	a.handle(mux, "POST /ferramentas/{id}/devolver", domain.PaginaFerramentas, a.devolverFerramenta)
	a.handle(mux, "POST /ferramentas/{id}/transferir", domain.PaginaFerramentas, a.transferirFerramenta)
	a.handle(mux, "POST /ferramentas/{id}/status", domain.PaginaFerramentas, a.alterarStatusFerramenta)
	a.handle(mux, "GET /ferramentas/{id}/historico", domain.PaginaFerramentas, a.historicoFerramenta)
	a.handle(mux, "GET /ferramentas/{id}/conferencia", domain.PaginaFerramentas, a.conferirFerramenta)
}

func (a *API) listarFerramentas(w http.ResponseWriter, r *http.Request) {
	lista, err := a.svc.Ferramentas.Listar(r.Context())
	if err != nil {
		a.falhar(w, r, "erro ao listar ferramentas", err)
		return
	}
	responderJSON(w, http.StatusOK, lista)
}

func (a *API) criarFerramenta(w http.ResponseWriter, r *http.Request) {
	var f domain.Ferramenta
	if err := decodificar(r, &f); err != nil {
		a.falhar(w, r, "payload invalido na ferramenta", err)
		return
	}
	criada, err := a.svc.Ferramentas.Criar(r.Context(), f)
	if err != nil {
		a.falhar(w, r, "falha ao criar ferramenta", err)
		return
	}
	responderJSON(w, http.StatusCreated, criada)
}

func (a *API) obterFerramenta(w http.ResponseWriter, r *http.Request) {
	f, err := a.svc.Ferramentas.Obter(r.Context(), domain.FerramentaID(r.PathValue("id")))
	if err != nil {
		a.falhar(w, r, "erro ao obter ferramenta", err)
		return
	}
	responderJSON(w, http.StatusOK, f)
}

func (a *API) retirarFerramenta(w http.ResponseWriter, r *http.Request) {
	a.movimentarComDestino(w, r, "retirada", a.svc.Ferramentas.Retirar)
}

func (a *API) transferirFerramenta(w http.ResponseWriter, r *http.Request) {
	a.movimentarComDestino(w, r, "transferencia", a.svc.Ferramentas.Transferir)
}

type movimentoComDestino func(ctx context.Context, id domain.FerramentaID, d ferramentas.Destino, autor *domain.UsuarioID) (domain.Ferramenta, error)

func (a *API) movimentarComDestino(w http.ResponseWriter, r *http.Request, nome string, mover movimentoComDestino) {
	var d ferramentas.Destino
	if err := decodificar(r, &d); err != nil {
		a.falhar(w, r, "payload invalido na "+nome, err)
		return
	}
	id := domain.FerramentaID(r.PathValue("id"))
	f, err := mover(r.Context(), id, d, usuarioDe(r.Context()))
	if err != nil {
		a.falhar(w, r, "falha na "+nome+" da ferramenta", err, "ferramenta", id)
		return
	}
	responderJSON(w, http.StatusOK, f)
}

type devolucaoRequest struct {
	Observacao string `json:"observacao"`
}

func (a *API) devolverFerramenta(w http.ResponseWriter, r *http.Request) {
	var req devolucaoRequest
	if r.ContentLength != 0 {
		if err := decodificar(r, &req); err != nil {
			a.falhar(w, r, "payload invalido na devolucao", err)
			return
		}
	}
	id := domain.FerramentaID(r.PathValue("id"))
	f, err := a.svc.Ferramentas.Devolver(r.Context(), id, req.Observacao, usuarioDe(r.Context()))
	if err != nil {
		a.falhar(w, r, "falha na devolucao da ferramenta", err, "ferramenta", id)
		return
	}
	responderJSON(w, http.StatusOK, f)
}

type statusFerramentaRequest struct {
	Status domain.StatusFerramenta `json:"status"`
}

func (a *API) alterarStatusFerramenta(w http.ResponseWriter, r *http.Request) {
	var req statusFerramentaRequest
	if err := decodificar(r, &req); err != nil {
		a.falhar(w, r, "payload invalido no status", err)
		return
	}
	f, err := a.svc.Ferramentas.AlterarStatus(r.Context(), domain.FerramentaID(r.PathValue("id")), req.Status)
	if err != nil {
		a.falhar(w, r, "falha ao alterar status da ferramenta", err, "status", req.Status)
		return
	}
	responderJSON(w, http.StatusOK, f)
}

func (a *API) historicoFerramenta(w http.ResponseWriter, r *http.Request) {
	periodos, err := a.svc.Ferramentas.Historico(r.Context(), domain.FerramentaID(r.PathValue("id")))
	if err != nil {
		a.falhar(w, r, "erro ao obter historico", err)
		return
	}
	responderJSON(w, http.StatusOK, periodos)
}

type conferenciaResponse struct {
	Consistente bool `json:"consistente"`
}

// conferirFerramenta refaz a custódia a partir dos movimentos e compara com o estado gravado.
func (a *API) conferirFerramenta(w http.ResponseWriter, r *http.Request) {
	ok, err := a.svc.Ferramentas.Conferir(r.Context(), domain.FerramentaID(r.PathValue("id")))
	if err != nil {
		a.falhar(w, r, "erro na conferencia", err)
		return
	}
	responderJSON(w, http.StatusOK, conferenciaResponse{Consistente: ok})
}
