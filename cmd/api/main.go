// Executável principal da API: carrega a configuração, inicializa dependências e sobe o servidor HTTP.
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/marcelojr/gestao-obras/internal/app/acesso"
	"github.com/marcelojr/gestao-obras/internal/app/cadastros"
	"github.com/marcelojr/gestao-obras/internal/app/crm"
	"github.com/marcelojr/gestao-obras/internal/app/ferramentas"
	"github.com/marcelojr/gestao-obras/internal/app/httpapi"
	"github.com/marcelojr/gestao-obras/internal/app/kanban"
	"github.com/marcelojr/gestao-obras/internal/app/orcamento"
	"github.com/marcelojr/gestao-obras/internal/app/presenca"
	"github.com/marcelojr/gestao-obras/internal/app/tempo"
	"github.com/marcelojr/gestao-obras/internal/domain"
	"github.com/marcelojr/gestao-obras/internal/platform/arquivos"
	"github.com/marcelojr/gestao-obras/internal/platform/clock"
	"github.com/marcelojr/gestao-obras/internal/platform/config"
	"github.com/marcelojr/gestao-obras/internal/platform/eventos"
	"github.com/marcelojr/gestao-obras/internal/platform/health"
	"github.com/marcelojr/gestao-obras/internal/platform/ids"
	"github.com/marcelojr/gestao-obras/internal/platform/limite"
	"github.com/marcelojr/gestao-obras/internal/platform/logger"
	"github.com/marcelojr/gestao-obras/internal/platform/migrations"
	dynamostorage "github.com/marcelojr/gestao-obras/internal/platform/storage/dynamodb"
	postgresstorage "github.com/marcelojr/gestao-obras/internal/platform/storage/postgres"
	redisstorage "github.com/marcelojr/gestao-obras/internal/platform/storage/redis"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("configuracao invalida", "err", err)
	}
	logger.SetLevel(logger.ParseLevel(cfg.LogLevel))

	db, err := postgresstorage.Open(ctx, cfg.PostgresDSN())
	if err != nil {
		logger.Fatal("falha ao conectar no postgres", "err", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("falha ao resgatar sql.DB", "err", err)
	}
	defer sqlDB.Close()

	if cfg.AutoMigrate {
		if err := migrations.Run(db); err != nil {
			logger.Fatal("falha na migracao automatica", "err", err)
		}
	}

	// Redis carrega a fila de eventos, os contadores do painel e o limite de escritas.
	redisClient, err := redisstorage.NewClient(ctx, redisstorage.Opcoes{
		Endereco: cfg.RedisAddr,
		Senha:    cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		logger.Fatal("falha ao conectar no redis", "err", err)
	}
	defer redisClient.Close()

	auditoria, extras, err := abrirAuditoria(ctx, cfg, db)
	if err != nil {
		logger.Fatal("falha ao preparar auditoria", "backend", cfg.AuditoriaBackend, "err", err)
	}

	disco, err := arquivos.NewDisco(cfg.ArquivosDir, cfg.ArquivosBaseURL)
	if err != nil {
		logger.Fatal("falha ao preparar armazenamento de arquivos", "err", err)
	}

	relogio := clock.NewSystemClock()
	idGen := ids.NewGenerator()
	hub := tempo.NewHub()
	fila := redisstorage.NewFila(redisClient, cfg.FilaKey)
	emissor := eventos.NewEmissor(eventos.Multi{fila, hub}, idGen, relogio)

	var limiteEscrita domain.LimiteEscrita = limite.NewNoop()
	if cfg.RateLimitEnabled {
		janela := time.Duration(cfg.RateLimitWindowSeconds) * time.Second
		limiteEscrita = limite.NewRedisLimite(redisClient, cfg.RateLimitMaxActions, janela, cfg.RateLimitKeyPrefix)
	}

	obras := postgresstorage.NewObraRepository(db)
	leads := postgresstorage.NewLeadRepository(db)
	negocios := postgresstorage.NewNegocioRepository(db)
	prestadores := postgresstorage.NewPrestadorRepository(db)
	usuarios := postgresstorage.NewUsuarioRepository(db)

	servicos := httpapi.Servicos{
		CRM: crm.NewService(leads, negocios, postgresstorage.NewInteracaoRepository(db), obras, emissor, relogio, idGen),
		Kanban: kanban.NewService(kanban.Repositorios{
			Obras:       obras,
			Atribuicoes: postgresstorage.NewAtribuicaoRepository(db),
			Checklist:   postgresstorage.NewChecklistRepository(db),
			Anexos:      postgresstorage.NewAnexoRepository(db),
			Etiquetas:   postgresstorage.NewEtiquetaRepository(db),
			Compras:     postgresstorage.NewCompraRepository(db),
		}, disco, emissor, relogio, idGen),
		Cadastros: cadastros.NewService(obras, postgresstorage.NewEspecialidadeRepository(db), prestadores,
			postgresstorage.NewEquipeRepository(db), usuarios, relogio, idGen),
		Presenca:    presenca.NewService(postgresstorage.NewPresencaRepository(db), prestadores, obras, emissor, relogio, idGen),
		Ferramentas: ferramentas.NewService(postgresstorage.NewFerramentaRepository(db), obras, prestadores, emissor, relogio, idGen),
		Orcamento: orcamento.NewService(orcamento.Repositorios{
			Obras:      obras,
			Orcamentos: postgresstorage.NewOrcamentoRepository(db),
			Negocios:   negocios,
			Leads:      leads,
			Propostas:  postgresstorage.NewPropostaRepository(db),
		}, disco, emissor, relogio, idGen),
		Acesso:    acesso.NewService(usuarios, relogio, idGen),
		Auditoria: auditoria,
		Contador:  redisstorage.NewContador(redisClient, cfg.ContadorKeyPrefix),
		Arquivos:  disco,
		Limite:    limiteEscrita,
		TempoReal: hub,
		Aparencia: cfg.Aparencia,
	}

	mux := http.NewServeMux()
	httpapi.New(servicos, logger.L()).Register(mux)
	mux.HandleFunc("GET /readyz", health.NewChecker(sqlDB, redisClient, extras...).ReadyHandler())
	mux.Handle("GET /metrics", promhttp.Handler())

	srv := &http.Server{Addr: cfg.HTTPAddress, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		hub.Fechar()
		desligar, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(desligar); err != nil {
			logger.Error("erro ao encerrar servidor", "err", err)
		}
	}()

	logger.Info("api ouvindo", "addr", cfg.HTTPAddress, "auditoria", cfg.AuditoriaBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("erro no servidor", "err", err)
	}
	logger.Info("api finalizada")
}

// abrirAuditoria escolhe o backend do log de auditoria; no DynamoDB a tabela também entra no /readyz.
func abrirAuditoria(ctx context.Context, cfg config.Config, db *gorm.DB) (domain.AuditoriaRepository, []health.Componente, error) {
	if cfg.AuditoriaBackend != "dynamodb" {
		return postgresstorage.NewAuditoriaRepository(db), nil, nil
	}
	client, err := dynamostorage.NewClient(ctx, dynamostorage.Opcoes{
		Regiao:    cfg.DynamoRegiao,
		Endpoint:  cfg.DynamoEndpoint,
		AccessKey: cfg.AWSAccessKeyID,
		SecretKey: cfg.AWSSecretAccessKey,
	})
	if err != nil {
		return nil, nil, err
	}
	repo := dynamostorage.NewAuditoriaRepository(client, cfg.DynamoTabela)
	if err := repo.GarantirTabela(ctx); err != nil {
		return nil, nil, err
	}
	return repo, []health.Componente{{Nome: "auditoria", Verificar: repo.Ping}}, nil
}
