// Pacote tempo mantém o feed de eventos em tempo real via websocket.
// O feed só avisa que algo mudou; quem recebe recarrega o recurso pela API.
package tempo

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/marcelojr/gestao-obras/internal/domain"
	"github.com/marcelojr/gestao-obras/internal/platform/logger"
	"github.com/marcelojr/gestao-obras/internal/platform/metrics"
)

const prazoEscrita = 5 * time.Second

type cliente struct {
	conn *websocket.Conn
	obra domain.ObraID
	mu   sync.Mutex
}

func (c *cliente) enviar(e domain.Evento) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(prazoEscrita))
	return c.conn.WriteJSON(e)
}

// Hub implementa domain.Publicador repassando cada evento às conexões abertas.
// Conexões abertas com ?obra=<id> recebem só eventos daquela obra e os eventos sem obra.
type Hub struct {
	upgrader websocket.Upgrader
	mu       sync.Mutex
	clientes map[*cliente]struct{}
}

func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clientes: make(map[*cliente]struct{}),
	}
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("falha no upgrade websocket", "error", err)
		return
	}
	c := &cliente{conn: conn, obra: domain.ObraID(r.URL.Query().Get("obra"))}
	h.registrar(c)
	defer h.remover(c)

	// o feed é só de saída; a leitura existe para detectar o fechamento.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) Publicar(_ context.Context, e domain.Evento) error {
	h.mu.Lock()
	alvos := make([]*cliente, 0, len(h.clientes))
	for c := range h.clientes {
		if c.obra == "" || e.ObraID == nil || *e.ObraID == c.obra {
			alvos = append(alvos, c)
		}
	}
	h.mu.Unlock()

	for _, c := range alvos {
		if err := c.enviar(e); err != nil {
			logger.Warn("descartando conexao websocket", "error", err)
			h.remover(c)
		}
	}
	return nil
}

func (h *Hub) Conexoes() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clientes)
}

// Fechar encerra todas as conexões; usado no desligamento do servidor.
func (h *Hub) Fechar() {
	h.mu.Lock()
	clientes := h.clientes
	h.clientes = make(map[*cliente]struct{})
	h.mu.Unlock()
	for c := range clientes {
		c.conn.Close()
	}
	metrics.SetConexoesTempoReal(0)
}

func (h *Hub) registrar(c *cliente) {
	h.mu.Lock()
	h.clientes[c] = struct{}{}
	n := len(h.clientes)
	h.mu.Unlock()
	metrics.SetConexoesTempoReal(n)
}

func (h *Hub) remover(c *cliente) {
	h.mu.Lock()
	_, existia := h.clientes[c]
	delete(h.clientes, c)
	n := len(h.clientes)
	h.mu.Unlock()
	if existia {
		c.conn.Close()
		metrics.SetConexoesTempoReal(n)
	}
}

var _ domain.Publicador = (*Hub)(nil)
