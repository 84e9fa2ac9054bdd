// Pacote planilha lê a planilha de orçamento (.xlsx) usada na importação.
//
// Layout esperado na primeira aba, com uma linha de cabeçalho:
//
//	Tipo | Codigo | Descricao | Unidade | Quantidade | Custo Unitario
//
// Linhas do tipo "etapa" agrupam os itens que vêm abaixo delas até a próxima etapa.
package planilha

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/marcelojr/gestao-obras/internal/domain"
)

var (
	ErrFormatoInvalido = errors.New("apenas arquivos .xlsx sao aceitos")
	ErrPlanilhaVazia   = errors.New("planilha sem linhas de orcamento")
	ErrLinhaInvalida   = errors.New("linha de planilha invalida")
)

const (
	colTipo = iota
	colCodigo
	colDescricao
	colUnidade
	colQuantidade
	colCusto
)

// Linha é uma linha lida da planilha; Etapa aponta para o índice da etapa que a agrupa (-1 na raiz).
type Linha struct {
	Numero        int
	Tipo          domain.TipoItemOrcamento
	Codigo        string
	Descricao     string
	Unidade       string
	Quantidade    decimal.Decimal
	CustoUnitario decimal.Decimal
	Etapa         int
}

// ValidarNome confere a extensão antes de qualquer leitura.
func ValidarNome(nome string) error {
	if !strings.EqualFold(filepath.Ext(nome), ".xlsx") {
		return fmt.Errorf("%w: %s", ErrFormatoInvalido, nome)
	}
	return nil
}

func Ler(r io.Reader) ([]Linha, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormatoInvalido, err)
	}
	defer f.Close()

	abas := f.GetSheetList()
	if len(abas) == 0 {
		return nil, ErrPlanilhaVazia
	}
	rows, err := f.GetRows(abas[0])
	if err != nil {
		return nil, fmt.Errorf("planilha: ler aba %s: %w", abas[0], err)
	}

	var linhas []Linha
	etapaAtual := -1
	for i, row := range rows {
		if i == 0 || linhaEmBranco(row) {
			continue
		}
		linha, err := converter(i+1, row)
		if err != nil {
			return nil, err
		}
		if linha.Tipo == domain.ItemEtapa {
			linha.Etapa = -1
			etapaAtual = len(linhas)
		} else {
			linha.Etapa = etapaAtual
		}
		linhas = append(linhas, linha)
	}

	if len(linhas) == 0 {
		return nil, ErrPlanilhaVazia
	}
	return linhas, nil
}

func converter(numero int, row []string) (Linha, error) {
	l := Linha{
		Numero:        numero,
		Codigo:        celula(row, colCodigo),
		Descricao:     celula(row, colDescricao),
		Unidade:       celula(row, colUnidade),
		Quantidade:    decimal.Zero,
		CustoUnitario: decimal.Zero,
	}

	switch strings.ToLower(celula(row, colTipo)) {
	case "etapa":
		l.Tipo = domain.ItemEtapa
	case "item", "":
		l.Tipo = domain.ItemCusto
	default:
		return Linha{}, fmt.Errorf("%w: linha %d: tipo %q", ErrLinhaInvalida, numero, celula(row, colTipo))
	}

	if l.Descricao == "" {
		return Linha{}, fmt.Errorf("%w: linha %d: descricao obrigatoria", ErrLinhaInvalida, numero)
	}
	if l.Tipo == domain.ItemEtapa {
		return l, nil
	}

	var err error
	if l.Quantidade, err = numeroBR(celula(row, colQuantidade)); err != nil {
		return Linha{}, fmt.Errorf("%w: linha %d: quantidade: %v", ErrLinhaInvalida, numero, err)
	}
	if l.CustoUnitario, err = numeroBR(celula(row, colCusto)); err != nil {
		return Linha{}, fmt.Errorf("%w: linha %d: custo unitario: %v", ErrLinhaInvalida, numero, err)
	}
	if l.Quantidade.IsNegative() || l.CustoUnitario.IsNegative() {
		return Linha{}, fmt.Errorf("%w: linha %d: valores negativos", ErrLinhaInvalida, numero)
	}
	return l, nil
}

func celula(row []string, col int) string {
	if col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}

func linhaEmBranco(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// numeroBR aceita "1234.5", "1.234,50" e "R$ 10,00".
func numeroBR(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "R$"))
	if s == "" {
		return decimal.Zero, nil
	}
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	return decimal.NewFromString(s)
}
