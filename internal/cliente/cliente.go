// Pacote cliente guarda o estado das telas (funil, quadro, folha de presença) espelhando
// a API REST. Alterações são aplicadas localmente primeiro e, se a API falhar, o estado é
// recarregado do servidor em vez de desfeito à mão.
package cliente

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/marcelojr/gestao-obras/internal/domain"
)

// CabecalhoUsuario precisa bater com o que a API lê.
const CabecalhoUsuario = "X-Usuario-ID"

// FalhaAPI cobre erro de transporte e respostas com success=false. Nunca é fatal para a tela.
type FalhaAPI struct {
	Status   int
	Mensagem string
	Err      error
}

func (f *FalhaAPI) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("falha na api: %v", f.Err)
	}
	return fmt.Sprintf("falha na api (%d): %s", f.Status, f.Mensagem)
}

func (f *FalhaAPI) Unwrap() error { return f.Err }

// Cliente fala com a API REST de gestão de obras.
type Cliente struct {
	base    string
	usuario domain.UsuarioID
	http    *http.Client
}

func New(baseURL string, usuario domain.UsuarioID, httpClient *http.Client) *Cliente {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Cliente{base: strings.TrimSuffix(baseURL, "/"), usuario: usuario, http: httpClient}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

func (c *Cliente) enviar(ctx context.Context, metodo, caminho, tipo string, corpo io.Reader, destino any) error {
	req, err := http.NewRequestWithContext(ctx, metodo, c.base+caminho, corpo)
	if err != nil {
		return &FalhaAPI{Err: err}
	}
	if tipo != "" {
		req.Header.Set("Content-Type", tipo)
	}
	req.Header.Set(CabecalhoUsuario, string(c.usuario))

	resp, err := c.http.Do(req)
	if err != nil {
		return &FalhaAPI{Err: err}
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return &FalhaAPI{Status: resp.StatusCode, Err: fmt.Errorf("resposta ilegivel: %w", err)}
	}
	if !env.Success || resp.StatusCode >= http.StatusBadRequest {
		return &FalhaAPI{Status: resp.StatusCode, Mensagem: env.Message}
	}
	if destino == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, destino); err != nil {
		return &FalhaAPI{Status: resp.StatusCode, Err: fmt.Errorf("dados ilegiveis: %w", err)}
	}
	return nil
}

func (c *Cliente) json(ctx context.Context, metodo, caminho string, entrada, destino any) error {
	if entrada == nil {
		return c.enviar(ctx, metodo, caminho, "", nil, destino)
	}
	corpo, err := json.Marshal(entrada)
	if err != nil {
		return fmt.Errorf("cliente: serializar %s: %w", caminho, err)
	}
	return c.enviar(ctx, metodo, caminho, "application/json", bytes.NewReader(corpo), destino)
}

func (c *Cliente) multipart(ctx context.Context, caminho, nome string, conteudo io.Reader, destino any) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	parte, err := w.CreateFormFile("arquivo", nome)
	if err != nil {
		return fmt.Errorf("cliente: montar upload: %w", err)
	}
	if _, err := io.Copy(parte, conteudo); err != nil {
		return fmt.Errorf("cliente: ler %s: %w", nome, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("cliente: montar upload: %w", err)
	}
	return c.enviar(ctx, http.MethodPost, caminho, w.FormDataContentType(), &buf, destino)
}

func p(partes ...string) string {
	var b strings.Builder
	for i, parte := range partes {
		if i%2 == 0 {
			b.WriteString(parte)
		} else {
			b.WriteString(url.PathEscape(parte))
		}
	}
	return b.String()
}

func (c *Cliente) ListarNegocios(ctx context.Context) ([]domain.Negocio, error) {
	var lista []domain.Negocio
	return lista, c.json(ctx, http.MethodGet, "/negocios", nil, &lista)
}

func (c *Cliente) MoverEstagio(ctx context.Context, id domain.NegocioID, alvo domain.EstagioNegocio, motivo string) (domain.Negocio, error) {
	var n domain.Negocio
	corpo := map[string]string{"estagio": string(alvo), "motivo": motivo}
	return n, c.json(ctx, http.MethodPost, p("/negocios/", string(id), "/estagio"), corpo, &n)
}

func (c *Cliente) RegistrarInteracao(ctx context.Context, id domain.NegocioID, tipo domain.TipoInteracao, texto string) (domain.Interacao, error) {
	var i domain.Interacao
	corpo := map[string]string{"tipo": string(tipo), "texto": texto}
	return i, c.json(ctx, http.MethodPost, p("/negocios/", string(id), "/interacoes"), corpo, &i)
}

func (c *Cliente) ListarAtribuicoes(ctx context.Context, obra domain.ObraID) ([]domain.Atribuicao, error) {
	var lista []domain.Atribuicao
	return lista, c.json(ctx, http.MethodGet, p("/obras/", string(obra), "/atribuicoes"), nil, &lista)
}

func (c *Cliente) ListarEtiquetas(ctx context.Context) ([]domain.Etiqueta, error) {
	var lista []domain.Etiqueta
	return lista, c.json(ctx, http.MethodGet, "/etiquetas", nil, &lista)
}

func (c *Cliente) MoverAtribuicao(ctx context.Context, id domain.AtribuicaoID, status domain.StatusAtribuicao, indice int) (domain.Atribuicao, error) {
	var a domain.Atribuicao
	corpo := struct {
		Status domain.StatusAtribuicao `json:"status"`
		Indice int                     `json:"indice"`
	}{status, indice}
	return a, c.json(ctx, http.MethodPost, p("/atribuicoes/", string(id), "/mover"), corpo, &a)
}

func (c *Cliente) DefinirDias(ctx context.Context, id domain.AtribuicaoID, dias []string) (domain.Atribuicao, error) {
	var a domain.Atribuicao
	corpo := map[string][]string{"dias": dias}
	return a, c.json(ctx, http.MethodPut, p("/atribuicoes/", string(id), "/dias"), corpo, &a)
}

func (c *Cliente) ExcluirAtribuicao(ctx context.Context, id domain.AtribuicaoID) error {
	return c.json(ctx, http.MethodDelete, p("/atribuicoes/", string(id)), nil, nil)
}

func (c *Cliente) AlternarEtiqueta(ctx context.Context, id domain.AtribuicaoID, etiqueta domain.EtiquetaID) (domain.Atribuicao, error) {
	var a domain.Atribuicao
	return a, c.json(ctx, http.MethodPost, p("/atribuicoes/", string(id), "/etiquetas/", string(etiqueta)), nil, &a)
}

func (c *Cliente) ExcluirEtiqueta(ctx context.Context, id domain.EtiquetaID) error {
	return c.json(ctx, http.MethodDelete, p("/etiquetas/", string(id)), nil, nil)
}

func (c *Cliente) AdicionarChecklist(ctx context.Context, id domain.AtribuicaoID, titulo string) (domain.ChecklistItem, error) {
	var item domain.ChecklistItem
	return item, c.json(ctx, http.MethodPost, p("/atribuicoes/", string(id), "/checklist"), map[string]string{"titulo": titulo}, &item)
}

func (c *Cliente) CriarCompra(ctx context.Context, id domain.AtribuicaoID, compra domain.Compra) (domain.Compra, error) {
	var criada domain.Compra
	return criada, c.json(ctx, http.MethodPost, p("/atribuicoes/", string(id), "/compras"), compra, &criada)
}

func (c *Cliente) AdicionarAnexo(ctx context.Context, id domain.AtribuicaoID, nome string, conteudo io.Reader) (domain.Anexo, error) {
	var anexo domain.Anexo
	return anexo, c.multipart(ctx, p("/atribuicoes/", string(id), "/anexos"), nome, conteudo, &anexo)
}

func (c *Cliente) FolhaPresenca(ctx context.Context, dia time.Time) (domain.FolhaPresenca, error) {
	var folha domain.FolhaPresenca
	return folha, c.json(ctx, http.MethodGet, "/presencas?data="+domain.FormatarDia(dia), nil, &folha)
}

func (c *Cliente) RegistrarPresenca(ctx context.Context, dia time.Time, prestador domain.PrestadorID, presente bool, obra *domain.ObraID) (domain.Presenca, error) {
	var pr domain.Presenca
	corpo := struct {
		Data        string             `json:"data"`
		PrestadorID domain.PrestadorID `json:"prestador_id"`
		Presente    bool               `json:"presente"`
		ObraID      *domain.ObraID     `json:"obra_id,omitempty"`
	}{domain.FormatarDia(dia), prestador, presente, obra}
	return pr, c.json(ctx, http.MethodPut, "/presencas", corpo, &pr)
}

func (c *Cliente) ImportarOrcamento(ctx context.Context, obra domain.ObraID, nome string, conteudo io.Reader) (domain.ResumoOrcamento, error) {
	var resumo domain.ResumoOrcamento
	return resumo, c.multipart(ctx, p("/obras/", string(obra), "/orcamento/importar"), nome, conteudo, &resumo)
}

func (c *Cliente) GerarProposta(ctx context.Context, negocio domain.NegocioID, margem decimal.Decimal) (domain.Proposta, error) {
	var pr domain.Proposta
	corpo := map[string]decimal.Decimal{"margem": margem}
	return pr, c.json(ctx, http.MethodPost, p("/negocios/", string(negocio), "/propostas"), corpo, &pr)
}

// mensagemDe devolve o texto que o operador vê numa notificação de falha.
func mensagemDe(acao string, err error) string {
	var falha *FalhaAPI
	if errors.As(err, &falha) && falha.Mensagem != "" {
		return acao + ": " + falha.Mensagem
	}
	return acao + ": " + err.Error()
}

var (
	_ APIFunil     = (*Cliente)(nil)
	_ APIQuadro    = (*Cliente)(nil)
	_ APIPresenca  = (*Cliente)(nil)
	_ APIOrcamento = (*Cliente)(nil)
)
