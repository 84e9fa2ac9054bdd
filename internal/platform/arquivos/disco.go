// Pacote arquivos guarda anexos e PDFs de propostas em disco local.
package arquivos

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/marcelojr/gestao-obras/internal/domain"
)

var ErrChaveInvalida = errors.New("chave de arquivo invalida")

// Disco grava cada arquivo com uma chave <uuid><extensão> dentro do diretório base.
type Disco struct {
	dir     string
	baseURL string
}

func NewDisco(dir, baseURL string) (*Disco, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("arquivos: criar diretorio %s: %w", dir, err)
	}
	return &Disco{dir: dir, baseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

func (d *Disco) Salvar(ctx context.Context, nome string, conteudo io.Reader) (string, error) {
	chave := uuid.NewString() + strings.ToLower(filepath.Ext(nome))

	destino, err := os.Create(filepath.Join(d.dir, chave))
	if err != nil {
		return "", fmt.Errorf("arquivos: criar %s: %w", chave, err)
	}
	defer destino.Close()

	if _, err := io.Copy(destino, leitorComContexto{ctx: ctx, r: conteudo}); err != nil {
		os.Remove(destino.Name())
		return "", fmt.Errorf("arquivos: gravar %s: %w", chave, err)
	}
	return chave, nil
}

func (d *Disco) Abrir(_ context.Context, chave string) (io.ReadCloser, error) {
	caminho, err := d.caminho(chave)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(caminho)
	if errors.Is(err, os.ErrNotExist) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("arquivos: abrir %s: %w", chave, err)
	}
	return f, nil
}

func (d *Disco) Remover(_ context.Context, chave string) error {
	caminho, err := d.caminho(chave)
	if err != nil {
		return err
	}
	if err := os.Remove(caminho); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("arquivos: remover %s: %w", chave, err)
	}
	return nil
}

func (d *Disco) URL(chave string) string {
	return d.baseURL + "/" + chave
}

// caminho recusa chaves que escapariam do diretório base.
func (d *Disco) caminho(chave string) (string, error) {
	if chave == "" || chave != filepath.Base(chave) || strings.HasPrefix(chave, ".") {
		return "", fmt.Errorf("%w: %q", ErrChaveInvalida, chave)
	}
	return filepath.Join(d.dir, chave), nil
}

type leitorComContexto struct {
	ctx context.Context
	r   io.Reader
}

func (l leitorComContexto) Read(p []byte) (int, error) {
	if err := l.ctx.Err(); err != nil {
		return 0, err
	}
	return l.r.Read(p)
}

var _ domain.Armazenamento = (*Disco)(nil)
