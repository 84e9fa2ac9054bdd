package httpapi

import (
	"bufio"
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/marcelojr/gestao-obras/internal/app/acesso"
	"github.com/marcelojr/gestao-obras/internal/domain"
	"github.com/marcelojr/gestao-obras/internal/platform/metrics"
)

// CabecalhoUsuario é preenchido pelo gateway de autenticação à frente da API.
const CabecalhoUsuario = "X-Usuario-ID"

type chaveUsuario struct{}

func usuarioDe(ctx context.Context) *domain.UsuarioID {
	u, ok := ctx.Value(chaveUsuario{}).(domain.Usuario)
	if !ok {
		return nil
	}
	id := u.ID
	return &id
}

func acaoDoMetodo(metodo string) acesso.Acao {
	switch metodo {
	case http.MethodGet, http.MethodHead:
		return acesso.AcaoLer
	case http.MethodPost:
		return acesso.AcaoCriar
	case http.MethodDelete:
		return acesso.AcaoExcluir
	default:
		return acesso.AcaoEditar
	}
}

// handle registra a rota com identificação do usuário, checagem da página, limite de escritas
// e métricas. Página vazia exige só um usuário ativo.
func (a *API) handle(mux *http.ServeMux, padrao string, pagina domain.Pagina, h http.HandlerFunc) {
	mux.Handle(padrao, a.medir(padrao, a.autorizar(pagina, h)))
}

func (a *API) autorizar(pagina domain.Pagina, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id := domain.UsuarioID(strings.TrimSpace(r.Header.Get(CabecalhoUsuario)))
		if id == "" {
			// navegadores não enviam cabeçalhos no handshake do websocket
			id = domain.UsuarioID(r.URL.Query().Get("usuario"))
		}

		var (
			u   domain.Usuario
			err error
		)
		if pagina == "" {
			u, err = a.identificar(ctx, id)
		} else {
			u, err = a.svc.Acesso.Autorizar(ctx, id, pagina, acaoDoMetodo(r.Method))
		}
		if err != nil {
			a.falhar(w, r, "acesso recusado", err, "usuario", id, "pagina", pagina)
			return
		}

		if r.Method != http.MethodGet && r.Method != http.MethodHead && a.svc.Limite != nil {
			if err := a.svc.Limite.Validar(ctx, u.ID); err != nil {
				a.falhar(w, r, "limite de escrita", err, "usuario", u.ID)
				return
			}
		}

		h(w, r.WithContext(context.WithValue(ctx, chaveUsuario{}, u)))
	}
}

func (a *API) identificar(ctx context.Context, id domain.UsuarioID) (domain.Usuario, error) {
	if id == "" {
		return domain.Usuario{}, acesso.ErrNaoIdentificado
	}
	u, err := a.svc.Acesso.ObterUsuario(ctx, id)
	if errors.Is(err, acesso.ErrUsuarioNaoEncontrado) || (err == nil && !u.Ativo) {
		return domain.Usuario{}, acesso.ErrNaoIdentificado
	}
	return u, err
}

type respostaComStatus struct {
	http.ResponseWriter
	status int
}

func (r *respostaComStatus) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *respostaComStatus) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// Hijack repassa o upgrade do websocket para a conexão original.
func (r *respostaComStatus) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("httpapi: conexao nao suporta hijack")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (a *API) medir(padrao string, h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rw := &respostaComStatus{ResponseWriter: w, status: http.StatusOK}
		h.ServeHTTP(rw, r)
		metrics.ObserveRequest(padrao, strconv.Itoa(rw.status))
	})
}
