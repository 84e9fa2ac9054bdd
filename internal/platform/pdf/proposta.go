// Pacote pdf gera o documento da proposta comercial a partir do resumo do orçamento.
package pdf

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"

	"github.com/marcelojr/gestao-obras/internal/domain"
)

type DadosProposta struct {
	Titulo     string
	Cliente    string
	Obra       string
	Versao     int
	EmitidaEm  time.Time
	Margem     decimal.Decimal
	Resumo     domain.ResumoOrcamento
	TotalFinal decimal.Decimal
}

var larguras = []float64{20, 90, 15, 20, 35}

// RenderizarProposta escreve o PDF em w. Os valores das linhas já incluem BDI e margem.
func RenderizarProposta(w io.Writer, d DadosProposta) error {
	doc := fpdf.New("P", "mm", "A4", "")
	tr := doc.UnicodeTranslatorFromDescriptor("")
	doc.SetTitle(tr(d.Titulo), false)
	doc.SetMargins(15, 15, 15)
	doc.AddPage()

	doc.SetFont("Helvetica", "B", 16)
	doc.CellFormat(0, 10, tr(fmt.Sprintf("Proposta comercial v%d", d.Versao)), "", 1, "L", false, 0, "")
	doc.SetFont("Helvetica", "", 10)
	doc.CellFormat(0, 6, tr(d.Titulo), "", 1, "L", false, 0, "")
	if d.Cliente != "" {
		doc.CellFormat(0, 6, tr("Cliente: "+d.Cliente), "", 1, "L", false, 0, "")
	}
	if d.Obra != "" {
		doc.CellFormat(0, 6, tr("Obra: "+d.Obra), "", 1, "L", false, 0, "")
	}
	doc.CellFormat(0, 6, "Emitida em "+d.EmitidaEm.Format("02/01/2006"), "", 1, "L", false, 0, "")
	doc.Ln(4)

	doc.SetFont("Helvetica", "B", 9)
	doc.SetFillColor(230, 230, 230)
	for i, titulo := range []string{"Código", "Descrição", "Un.", "Qtd.", "Valor (R$)"} {
		doc.CellFormat(larguras[i], 7, tr(titulo), "1", 0, "C", true, 0, "")
	}
	doc.Ln(-1)

	margem := decimal.NewFromInt(1)
	if d.Margem.IsPositive() {
		margem = d.Margem
	}
	for _, linha := range d.Resumo.Linhas {
		escreverLinha(doc, tr, linha, margem, 0)
	}

	doc.Ln(4)
	doc.SetFont("Helvetica", "B", 11)
	doc.CellFormat(larguras[0]+larguras[1]+larguras[2]+larguras[3], 8, "Total", "1", 0, "R", false, 0, "")
	doc.CellFormat(larguras[4], 8, Moeda(d.TotalFinal), "1", 1, "R", false, 0, "")

	if err := doc.Error(); err != nil {
		return fmt.Errorf("pdf: montar proposta: %w", err)
	}
	if err := doc.Output(w); err != nil {
		return fmt.Errorf("pdf: escrever proposta: %w", err)
	}
	return nil
}

func escreverLinha(doc *fpdf.Fpdf, tr func(string) string, linha domain.LinhaOrcamento, margem decimal.Decimal, nivel int) {
	etapa := linha.Item.Tipo == domain.ItemEtapa
	estilo := ""
	if etapa {
		estilo = "B"
	}
	doc.SetFont("Helvetica", estilo, 9)

	descricao := strings.Repeat("  ", nivel) + linha.Item.Descricao
	qtd := ""
	if !etapa {
		qtd = linha.Item.Quantidade.StringFixed(2)
	}
	celulas := []string{linha.Item.Codigo, descricao, linha.Item.Unidade, qtd, Moeda(linha.TotalComBDI.Mul(margem))}
	alinhamentos := []string{"L", "L", "C", "R", "R"}
	for i, texto := range celulas {
		doc.CellFormat(larguras[i], 6, tr(texto), "1", 0, alinhamentos[i], false, 0, "")
	}
	doc.Ln(-1)

	for _, filho := range linha.Filhos {
		escreverLinha(doc, tr, filho, margem, nivel+1)
	}
}

// Moeda formata no padrão brasileiro: 1234.5 -> "1.234,50".
func Moeda(v decimal.Decimal) string {
	texto := v.Abs().StringFixed(2)
	inteiro, centavos, _ := strings.Cut(texto, ".")

	var b strings.Builder
	for i, r := range inteiro {
		if i > 0 && (len(inteiro)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	sinal := ""
	if v.IsNegative() {
		sinal = "-"
	}
	return sinal + b.String() + "," + centavos
}
