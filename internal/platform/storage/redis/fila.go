// Pacote redis implementa fila de eventos e contadores do painel sobre Redis.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/marcelojr/gestao-obras/internal/domain"
)

// Fila usa listas Redis para publicar e consumir eventos de domínio em ordem de chegada.
type Fila struct {
	client *redis.Client
	key    string
}

func NewFila(client *redis.Client, key string) *Fila {
	return &Fila{
		client: client,
		key:    key,
	}
}

func (f *Fila) Publicar(ctx context.Context, e domain.Evento) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("redis fila: falha serializando evento: %w", err)
	}
	if err := f.client.LPush(ctx, f.key, payload).Err(); err != nil {
		return fmt.Errorf("redis fila: falha ao enfileirar evento: %w", err)
	}
	return nil
}

func (f *Fila) ConsumirEventos(ctx context.Context, handler func(context.Context, domain.Evento) error) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		// BRPOP com timeout curto para respeitar o contexto.
		res, err := f.client.BRPop(ctx, 5*time.Second, f.key).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			return fmt.Errorf("redis fila: falha ao consumir evento: %w", err)
		}

		if len(res) != 2 {
			continue
		}

		var e domain.Evento
		if err := json.Unmarshal([]byte(res[1]), &e); err != nil {
			return fmt.Errorf("redis fila: payload invalido: %w", err)
		}

		if err := handler(ctx, e); err != nil {
			return err
		}
	}
}

var _ domain.Fila = (*Fila)(nil)
