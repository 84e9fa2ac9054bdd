package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/marcelojr/gestao-obras/internal/domain"
)

// Contador guarda os indicadores do painel como inteiros, todos sob o mesmo prefixo.
type Contador struct {
	client  *redis.Client
	prefixo string
}

func NewContador(client *redis.Client, prefixo string) *Contador {
	return &Contador{client: client, prefixo: prefixo}
}

// Contabilizar soma 1 em cada indicador dentro de um MULTI/EXEC: o evento entra em todos ou em nenhum.
func (c *Contador) Contabilizar(ctx context.Context, chaves []string) error {
	if len(chaves) == 0 {
		return nil
	}
	_, err := c.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		for _, ch := range chaves {
			p.Incr(ctx, c.chave(ch))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis contador: contabilizar %v: %w", chaves, err)
	}
	return nil
}

// ObterTodos lê o painel num único pipeline; indicador nunca contabilizado vale zero.
func (c *Contador) ObterTodos(ctx context.Context, chaves []string) (map[string]int64, error) {
	painel := make(map[string]int64, len(chaves))
	if len(chaves) == 0 {
		return painel, nil
	}

	leituras := make([]*redis.StringCmd, len(chaves))
	_, err := c.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		for i, ch := range chaves {
			leituras[i] = p.Get(ctx, c.chave(ch))
		}
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("redis contador: ler painel: %w", err)
	}

	for i, leitura := range leituras {
		valor, err := leitura.Int64()
		if errors.Is(err, redis.Nil) {
			valor, err = 0, nil
		}
		if err != nil {
			return nil, fmt.Errorf("redis contador: indicador %s: %w", chaves[i], err)
		}
		painel[chaves[i]] = valor
	}
	return painel, nil
}

func (c *Contador) chave(indicador string) string {
	if c.prefixo == "" {
		return indicador
	}
	return c.prefixo + ":" + indicador
}

var _ domain.Contador = (*Contador)(nil)
