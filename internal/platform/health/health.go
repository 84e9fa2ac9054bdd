// Pacote health responde o /readyz com o estado de cada dependência.
package health

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	statusOK           = "ok"
	statusIndisponivel = "indisponivel"
)

// Componente é uma dependência extra verificada no /readyz, como a tabela de auditoria.
type Componente struct {
	Nome      string
	Verificar func(ctx context.Context) error
}

type Checker struct {
	db      *sql.DB
	redis   *redis.Client
	extras  []Componente
	timeout time.Duration
}

// NewChecker ignora db ou redis nulos.
func NewChecker(db *sql.DB, redis *redis.Client, extras ...Componente) *Checker {
	return &Checker{db: db, redis: redis, extras: extras, timeout: 2 * time.Second}
}

type Relatorio struct {
	Status      string            `json:"status"`
	Componentes map[string]string `json:"componentes"`
}

func (c *Checker) componentes() []Componente {
	var lista []Componente
	if c.db != nil {
		lista = append(lista, Componente{Nome: "banco", Verificar: c.db.PingContext})
	}
	if c.redis != nil {
		lista = append(lista, Componente{Nome: "redis", Verificar: func(ctx context.Context) error {
			return c.redis.Ping(ctx).Err()
		}})
	}
	return append(lista, c.extras...)
}

// Verificar consulta todos os componentes, mesmo depois da primeira falha.
func (c *Checker) Verificar(ctx context.Context) Relatorio {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	rel := Relatorio{Status: statusOK, Componentes: map[string]string{}}
	for _, comp := range c.componentes() {
		if err := comp.Verificar(ctx); err != nil {
			rel.Status = statusIndisponivel
			rel.Componentes[comp.Nome] = statusIndisponivel
			continue
		}
		rel.Componentes[comp.Nome] = statusOK
	}
	return rel
}

func (c *Checker) ReadyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rel := c.Verificar(r.Context())
		status := http.StatusOK
		if rel.Status != statusOK {
			status = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(rel)
	}
}
