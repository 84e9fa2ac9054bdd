package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Opcoes descreve o Redis compartilhado pela fila de eventos, pelo painel e pelo limite de escrita.
type Opcoes struct {
	Endereco string
	Senha    string
	DB       int
	// PoolSize zero assume 50 conexões.
	PoolSize int
}

// NewClient só devolve o cliente depois de um PING bem-sucedido dentro do prazo.
func NewClient(ctx context.Context, op Opcoes) (*redis.Client, error) {
	if op.PoolSize <= 0 {
		op.PoolSize = 50
	}
	client := redis.NewClient(&redis.Options{
		Addr:        op.Endereco,
		Password:    op.Senha,
		DB:          op.DB,
		PoolSize:    op.PoolSize,
		PoolTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis %s: ping: %w", op.Endereco, err)
	}
	return client, nil
}
