package cliente

import (
	"context"
	"fmt"
	"io"

	"github.com/shopspring/decimal"

	"github.com/marcelojr/gestao-obras/internal/domain"
	"github.com/marcelojr/gestao-obras/internal/platform/planilha"
)

type APIOrcamento interface {
	ImportarOrcamento(ctx context.Context, obra domain.ObraID, nome string, conteudo io.Reader) (domain.ResumoOrcamento, error)
	GerarProposta(ctx context.Context, negocio domain.NegocioID, margem decimal.Decimal) (domain.Proposta, error)
}

type Orcamento struct {
	api APIOrcamento
	op  Operador
}

func NewOrcamento(api APIOrcamento, op Operador) *Orcamento {
	return &Orcamento{api: api, op: op}
}

// Importar aceita só .xlsx e pede confirmação, pois substitui o orçamento inteiro da obra.
func (o *Orcamento) Importar(ctx context.Context, obra domain.ObraID, nome string, conteudo io.Reader) (domain.ResumoOrcamento, error) {
	if err := planilha.ValidarNome(nome); err != nil {
		o.op.Notificar("Envie uma planilha .xlsx")
		return domain.ResumoOrcamento{}, err
	}
	if !o.op.Confirmar(fmt.Sprintf("Importar %s vai substituir todos os itens do orçamento atual. Continuar?", nome)) {
		return domain.ResumoOrcamento{}, ErrCancelado
	}
	resumo, err := o.api.ImportarOrcamento(ctx, obra, nome, conteudo)
	if err != nil {
		o.op.Notificar(mensagemDe("Não foi possível importar o orçamento", err))
		return domain.ResumoOrcamento{}, err
	}
	return resumo, nil
}

// GerarProposta devolve a URL do PDF gerado; abrir o arquivo fica com quem chamou.
func (o *Orcamento) GerarProposta(ctx context.Context, negocio domain.NegocioID, margem decimal.Decimal) (string, error) {
	p, err := o.api.GerarProposta(ctx, negocio, margem)
	if err != nil {
		o.op.Notificar(mensagemDe("Não foi possível gerar a proposta", err))
		return "", err
	}
	return p.ArquivoURL, nil
}
