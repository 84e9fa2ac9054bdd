// Pacote ids gera os identificadores das entidades: ULIDs de 26 caracteres, ordenáveis pelo
// instante de criação e estritamente crescentes dentro do mesmo processo.
package ids

import (
	cryptorand "crypto/rand"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

type Generator struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
	agora   func() time.Time
}

func NewGenerator() *Generator {
	return novoGerador(time.Now)
}

func novoGerador(agora func() time.Time) *Generator {
	return &Generator{
		entropy: ulid.Monotonic(cryptorand.Reader, 0),
		agora:   agora,
	}
}

func (g *Generator) New() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	id, err := ulid.New(ulid.Timestamp(g.agora()), g.entropy)
	if err != nil {
		// só acontece se a entropia monotônica transbordar no mesmo milissegundo
		panic(fmt.Sprintf("ids: gerar ulid: %v", err))
	}
	return id.String()
}

var (
	padraoOnce sync.Once
	padrao     *Generator
)

// DefaultGenerator é usado pelos serviços montados sem gerador explícito.
func DefaultGenerator() *Generator {
	padraoOnce.Do(func() {
		padrao = NewGenerator()
	})
	return padrao
}
