package main

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/betfoundry/pix-wallet-platform/internal/shared/cache"
	"github.com/betfoundry/pix-wallet-platform/internal/shared/config"
	"github.com/betfoundry/pix-wallet-platform/internal/shared/db"
	skafka "github.com/betfoundry/pix-wallet-platform/internal/shared/kafka"
	"github.com/betfoundry/pix-wallet-platform/internal/shared/logger"
	"github.com/betfoundry/pix-wallet-platform/internal/shared/metrics"
	"github.com/betfoundry/pix-wallet-platform/internal/wallet-service/cpf"
	"github.com/betfoundry/pix-wallet-platform/internal/wallet-service/gateway"
	whttp "github.com/betfoundry/pix-wallet-platform/internal/wallet-service/http"
	"github.com/betfoundry/pix-wallet-platform/internal/wallet-service/ledger"
	"github.com/betfoundry/pix-wallet-platform/internal/wallet-service/pixel"
	"github.com/betfoundry/pix-wallet-platform/internal/wallet-service/producer"
	"github.com/betfoundry/pix-wallet-platform/internal/wallet-service/service"
)

func main() {
	cfg := config.Load()

	// Inicializa logger estruturado
	log, err := logger.New("wallet-service", cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	log.Info("starting service", zap.String("service", "wallet-service"), zap.String("env", cfg.Env))

	// Conexão com Postgres para o ledger da carteira
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()

	// Redis: sessões de usuário e cache do token OAuth do PixUp
	rdb, err := cache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer rdb.Close()

	// Writers kafka dos eventos da carteira
	depositPaidW := skafka.NewWriter(cfg.KafkaBrokers, cfg.TopicDepositPaid)
	withdrawReqW := skafka.NewWriter(cfg.KafkaBrokers, cfg.TopicWithdrawRequested)
	defer depositPaidW.Close()
	defer withdrawReqW.Close()
	publ := producer.NewKafkaPublisher(depositPaidW, withdrawReqW)

	// Integrações externas
	pixup := gateway.NewPixup(log, rdb, cfg.PixupBaseURL, cfg.PixupBackendURL, cfg.PixupClientID, cfg.PixupClientSecret)
	attr := pixel.NewDispatcher(log, pixel.NewClient(log, cfg.PixelID, cfg.PixelAccessToken, cfg.PixelTestEventCode))
	names := cpf.NewClient(log, cfg.CPFAPIURL, cfg.CPFAPIHost, cfg.CPFAPIKey)

	// Serviços da carteira sobre o ledger Postgres
	store := ledger.NewPostgres(pg)
	deposits := service.NewDeposits(log, store, pixup, attr)
	withdrawals := service.NewWithdrawals(log, store, names, publ)
	reconciler := service.NewReconciler(log, store, pixup, attr, publ)

	sessions := whttp.NewRedisSessions(rdb)
	api := whttp.NewServer(log, sessions, deposits, withdrawals, map[string]whttp.Callbacks{
		gateway.Name: reconciler,
	})

	// Servidor HTTP público (depósito, saque, callbacks)
	apiSrv := &http.Server{
		Addr:    ":" + cfg.HTTPPort, // ex: 8084
		Handler: api.Router(),
	}

	// Servidor de métricas e health check
	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		return pg.PingContext(ctx)
	})
	log.Info("metrics/health listening", zap.String("addr", metricsSrv.Addr))

	log.Info("api listening", zap.String("addr", apiSrv.Addr))
	if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("api srv", zap.Error(err))
	}
}
