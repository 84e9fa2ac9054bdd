package kanban

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/marcelojr/gestao-obras/internal/domain"
)

var (
	ErrChecklistInvalido       = errors.New("item de checklist invalido")
	ErrChecklistNaoEncontrado  = errors.New("item de checklist nao encontrado")
	ErrAnexoInvalido           = errors.New("anexo invalido")
	ErrAnexoNaoEncontrado      = errors.New("anexo nao encontrado")
	ErrCompraInvalida          = errors.New("compra invalida")
	ErrCompraNaoEncontrada     = errors.New("compra nao encontrada")
	ErrTransicaoCompraInvalida = errors.New("status de compra so avanca")
)

func (s *Service) AdicionarChecklist(ctx context.Context, atribuicao domain.AtribuicaoID, titulo string) (domain.ChecklistItem, error) {
	titulo = strings.TrimSpace(titulo)
	if titulo == "" {
		return domain.ChecklistItem{}, fmt.Errorf("%w: titulo obrigatorio", ErrChecklistInvalido)
	}
	if _, err := s.exigirPersistida(ctx, atribuicao); err != nil {
		return domain.ChecklistItem{}, err
	}
	ordem, err := s.repos.Checklist.ProximaOrdem(ctx, atribuicao)
	if err != nil {
		return domain.ChecklistItem{}, err
	}

	item := domain.ChecklistItem{
		ID:           domain.ChecklistItemID(s.ids.New()),
		AtribuicaoID: atribuicao,
		Titulo:       titulo,
		Ordem:        ordem,
		CriadoEm:     s.clock.Agora(),
	}
	if err := s.repos.Checklist.Create(ctx, item); err != nil {
		return domain.ChecklistItem{}, err
	}
	return item, nil
}

// AlteracaoChecklist carrega só os campos enviados no PATCH.
type AlteracaoChecklist struct {
	Titulo    *string `json:"titulo,omitempty"`
	Concluido *bool   `json:"concluido,omitempty"`
}

func (s *Service) AlterarChecklist(ctx context.Context, id domain.ChecklistItemID, alt AlteracaoChecklist) (domain.ChecklistItem, error) {
	item, err := s.repos.Checklist.FindByID(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.ChecklistItem{}, ErrChecklistNaoEncontrado
	}
	if err != nil {
		return domain.ChecklistItem{}, err
	}

	if alt.Titulo != nil {
		titulo := strings.TrimSpace(*alt.Titulo)
		if titulo == "" {
			return domain.ChecklistItem{}, fmt.Errorf("%w: titulo obrigatorio", ErrChecklistInvalido)
		}
		item.Titulo = titulo
	}
	if alt.Concluido != nil {
		item.Concluido = *alt.Concluido
	}

	if err := s.repos.Checklist.Update(ctx, item); err != nil {
		return domain.ChecklistItem{}, err
	}
	return item, nil
}

func (s *Service) ExcluirChecklist(ctx context.Context, id domain.ChecklistItemID) error {
	err := s.repos.Checklist.Delete(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return ErrChecklistNaoEncontrado
	}
	return err
}

// Upload é o arquivo recebido no multipart; Tamanho vem do cabeçalho do formulário.
type Upload struct {
	Nome     string
	MimeType string
	Tamanho  int64
	Conteudo io.Reader
}

func (s *Service) AdicionarAnexo(ctx context.Context, atribuicao domain.AtribuicaoID, up Upload) (domain.Anexo, error) {
	nome := filepath.Base(strings.TrimSpace(up.Nome))
	if nome == "" || nome == "." || up.Conteudo == nil {
		return domain.Anexo{}, fmt.Errorf("%w: arquivo obrigatorio", ErrAnexoInvalido)
	}
	if _, err := s.exigirPersistida(ctx, atribuicao); err != nil {
		return domain.Anexo{}, err
	}
	if s.arquivos == nil {
		return domain.Anexo{}, fmt.Errorf("%w: armazenamento indisponivel", ErrAnexoInvalido)
	}

	chave, err := s.arquivos.Salvar(ctx, nome, up.Conteudo)
	if err != nil {
		return domain.Anexo{}, err
	}
	mimeType := up.MimeType
	if mimeType == "" {
		mimeType = mime.TypeByExtension(filepath.Ext(nome))
	}

	a := domain.Anexo{
		ID:           domain.AnexoID(s.ids.New()),
		AtribuicaoID: atribuicao,
		NomeArquivo:  nome,
		Categoria:    CategoriaDoArquivo(nome, mimeType),
		MimeType:     mimeType,
		URL:          s.arquivos.URL(chave),
		Chave:        chave,
		Tamanho:      up.Tamanho,
		CriadoEm:     s.clock.Agora(),
	}
	if err := s.repos.Anexos.Create(ctx, a); err != nil {
		s.removerArquivo(ctx, a)
		return domain.Anexo{}, err
	}
	return a, nil
}

func (s *Service) ListarAnexos(ctx context.Context, atribuicao domain.AtribuicaoID) ([]domain.Anexo, error) {
	if _, err := s.Obter(ctx, atribuicao); err != nil {
		return nil, err
	}
	return s.repos.Anexos.ListByAtribuicao(ctx, atribuicao)
}

func (s *Service) ExcluirAnexo(ctx context.Context, id domain.AnexoID) error {
	a, err := s.repos.Anexos.FindByID(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return ErrAnexoNaoEncontrado
	}
	if err != nil {
		return err
	}
	if err := s.repos.Anexos.Delete(ctx, id); err != nil {
		return err
	}
	s.removerArquivo(ctx, a)
	return nil
}

// CategoriaDoArquivo classifica pelo MIME e, na falta dele, pela extensão.
func CategoriaDoArquivo(nome, mimeType string) domain.CategoriaAnexo {
	if strings.HasPrefix(mimeType, "image/") {
		return domain.AnexoImagem
	}
	switch strings.ToLower(filepath.Ext(nome)) {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp", ".heic":
		return domain.AnexoImagem
	case ".pdf", ".doc", ".docx", ".odt", ".txt", ".dwg":
		return domain.AnexoDocumento
	case ".xls", ".xlsx", ".ods", ".csv":
		return domain.AnexoPlanilha
	}
	return domain.AnexoOutro
}

func (s *Service) CriarCompra(ctx context.Context, atribuicao domain.AtribuicaoID, c domain.Compra) (domain.Compra, error) {
	c.Material = strings.TrimSpace(c.Material)
	if c.Material == "" {
		return domain.Compra{}, fmt.Errorf("%w: material obrigatorio", ErrCompraInvalida)
	}
	if !c.Quantidade.GreaterThan(decimal.Zero) {
		return domain.Compra{}, fmt.Errorf("%w: quantidade deve ser positiva", ErrCompraInvalida)
	}
	if _, err := s.exigirPersistida(ctx, atribuicao); err != nil {
		return domain.Compra{}, err
	}

	agora := s.clock.Agora()
	c.ID = domain.CompraID(s.ids.New())
	c.AtribuicaoID = atribuicao
	c.Status = domain.CompraPendente
	c.CriadoEm = agora
	c.AtualizadoEm = agora
	if err := s.repos.Compras.Create(ctx, c); err != nil {
		return domain.Compra{}, err
	}
	return c, nil
}

type AlteracaoCompra struct {
	Status      *domain.StatusCompra `json:"status,omitempty"`
	Observacoes *string              `json:"observacoes,omitempty"`
}

// AlterarCompra só deixa o status avançar no fluxo pending → approved → purchased.
func (s *Service) AlterarCompra(ctx context.Context, id domain.CompraID, alt AlteracaoCompra) (domain.Compra, error) {
	c, err := s.repos.Compras.FindByID(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Compra{}, ErrCompraNaoEncontrada
	}
	if err != nil {
		return domain.Compra{}, err
	}

	if alt.Status != nil && *alt.Status != c.Status {
		if !c.Status.PodeAvancarPara(*alt.Status) {
			return domain.Compra{}, fmt.Errorf("%w: %s para %s", ErrTransicaoCompraInvalida, c.Status, *alt.Status)
		}
		c.Status = *alt.Status
	}
	if alt.Observacoes != nil {
		c.Observacoes = strings.TrimSpace(*alt.Observacoes)
	}
	c.AtualizadoEm = s.clock.Agora()

	if err := s.repos.Compras.Update(ctx, c); err != nil {
		return domain.Compra{}, err
	}
	return c, nil
}

func (s *Service) ExcluirCompra(ctx context.Context, id domain.CompraID) error {
	err := s.repos.Compras.Delete(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return ErrCompraNaoEncontrada
	}
	return err
}
