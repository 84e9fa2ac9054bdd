// Worker assíncrono que consome eventos de domínio da fila: grava auditoria, escreve a linha do
// tempo do CRM e mantém os contadores do painel.
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/marcelojr/gestao-obras/internal/app/crm"
	"github.com/marcelojr/gestao-obras/internal/app/worker"
	"github.com/marcelojr/gestao-obras/internal/domain"
	"github.com/marcelojr/gestao-obras/internal/platform/clock"
	"github.com/marcelojr/gestao-obras/internal/platform/config"
	"github.com/marcelojr/gestao-obras/internal/platform/health"
	"github.com/marcelojr/gestao-obras/internal/platform/ids"
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

	relogio := clock.NewSystemClock()
	contador := redisstorage.NewContador(redisClient, cfg.ContadorKeyPrefix)
	fila := redisstorage.NewFila(redisClient, cfg.FilaKey)
	checker := health.NewChecker(sqlDB, redisClient, extras...)

	if cfg.WorkerMetricsAddress != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			mux.HandleFunc("/readyz", checker.ReadyHandler())
			logger.Info("worker metrics ouvindo", "addr", cfg.WorkerMetricsAddress)
			if err := http.ListenAndServe(cfg.WorkerMetricsAddress, mux); err != nil {
				logger.Error("erro no servidor de metrics do worker", "err", err)
			}
		}()
	}

	// A linha do tempo escreve pelo serviço do CRM; o worker não emite eventos novos.
	linha := crm.NewService(
		postgresstorage.NewLeadRepository(db),
		postgresstorage.NewNegocioRepository(db),
		postgresstorage.NewInteracaoRepository(db),
		postgresstorage.NewObraRepository(db),
		nil,
		relogio,
		ids.NewGenerator(),
	)
	processor := worker.NewEventoProcessor(auditoria, linha, contador, relogio)

	logger.Info("worker iniciado, aguardando eventos")
	err = fila.ConsumirEventos(ctx, func(ctx context.Context, e domain.Evento) error {
		if err := processor.Process(ctx, e); err != nil {
			logger.Error("erro ao processar evento", "evento", e.ID, "tipo", e.Tipo, "err", err)
		}
		return nil
	})

	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		logger.Fatal("worker finalizado com erro", "err", err)
	}

	logger.Info("worker finalizado")
}

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
