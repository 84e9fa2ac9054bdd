// Pacote limite controla a taxa de escritas por usuário (janela fixa no Redis ou modo noop).
package limite

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/marcelojr/gestao-obras/internal/domain"
)

var ErrLimiteExcedido = errors.New("limite de escritas atingido")

// RedisLimite conta escritas por usuário em janelas fixas.
type RedisLimite struct {
	client    *redis.Client
	max       int
	janela    time.Duration
	keyPrefix string
}

func NewRedisLimite(client *redis.Client, max int, janela time.Duration, prefix string) *RedisLimite {
	if prefix == "" {
		prefix = "limite"
	}
	return &RedisLimite{
		client:    client,
		max:       max,
		janela:    janela,
		keyPrefix: prefix,
	}
}

func (r *RedisLimite) Validar(ctx context.Context, usuario domain.UsuarioID) error {
	if r.client == nil || r.max <= 0 || r.janela <= 0 {
		// Configuração inválida equivale a limite desligado.
		return nil
	}

	key := r.chave(usuario)
	count, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("limite: falha ao incrementar chave: %w", err)
	}

	if count == 1 {
		if err := r.client.Expire(ctx, key, r.janela).Err(); err != nil {
			return fmt.Errorf("limite: falha ao definir expiracao: %w", err)
		}
	}

	if int(count) > r.max {
		return fmt.Errorf("%w: %d escritas em %s", ErrLimiteExcedido, count, r.janela)
	}
	return nil
}

func (r *RedisLimite) chave(usuario domain.UsuarioID) string {
	base := string(usuario)
	if base == "" {
		base = "anonimo"
	}
	hash := sha1.Sum([]byte(base))
	return fmt.Sprintf("%s:%s", r.keyPrefix, hex.EncodeToString(hash[:]))
}

var _ domain.LimiteEscrita = (*RedisLimite)(nil)
