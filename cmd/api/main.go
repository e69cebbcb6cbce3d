package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	_ "github.com/jhoicas/pos-ledger-api/docs"
	"github.com/jhoicas/pos-ledger-api/internal/application/inventory"
	"github.com/jhoicas/pos-ledger-api/internal/application/ledger"
	"github.com/jhoicas/pos-ledger-api/internal/application/sales"
	"github.com/jhoicas/pos-ledger-api/internal/application/transfer"
	"github.com/jhoicas/pos-ledger-api/internal/application/usecase"
	"github.com/jhoicas/pos-ledger-api/internal/domain/repository"
	"github.com/jhoicas/pos-ledger-api/internal/infrastructure/cache"
	"github.com/jhoicas/pos-ledger-api/internal/infrastructure/kafka"
	"github.com/jhoicas/pos-ledger-api/internal/infrastructure/memory"
	"github.com/jhoicas/pos-ledger-api/internal/infrastructure/metrics"
	"github.com/jhoicas/pos-ledger-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/pos-ledger-api/internal/interfaces/http"
	"github.com/jhoicas/pos-ledger-api/pkg/config"
	"github.com/jhoicas/pos-ledger-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()

	// Persistencia: PostgreSQL si está configurado; en desarrollo, store en memoria con datos de prueba.
	var (
		txRunner repository.TxRunner
		repos    repository.UnitOfWork
		memStore *memory.Store
	)
	switch {
	case cfg.DB.Configured():
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()
		if err := postgres.Migrate(ctx, pool); err != nil {
			log.Fatal().Err(err).Msg("migraciones")
		}
		txRunner = postgres.NewTxRunner(pool, cfg.DB.LockTimeout)
		repos = postgres.NewUnitOfWork(pool)
	case cfg.App.IsDevelopment():
		memStore = memory.New(cfg.DB.LockTimeout)
		seedDevelopment(memStore)
		txRunner, repos = memStore, memStore
		log.Warn().Msg("DB no configurada: usando store en memoria con datos de desarrollo")
	default:
		log.Fatal().Msg("DB no configurada (DATABASE_URL o DB_HOST)")
	}

	// Idempotencia de ventas: Redis si hay dirección; si no, en memoria (una sola instancia).
	var idempotency sales.IdempotencyStore = memory.NewIdempotencyStore()
	if cfg.Redis.Addr != "" {
		redisStore := cache.NewRedisIdempotencyStore(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.IdempotencyTTL)
		if err := redisStore.Ping(ctx); err != nil {
			log.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("conexión a Redis")
		}
		defer redisStore.Close()
		idempotency = redisStore
	}

	// Eventos de movimientos confirmados.
	var publisher ledger.EventPublisher = ledger.NoopPublisher{}
	if cfg.Kafka.Enabled {
		kp, err := kafka.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			log.Fatal().Err(err).Strs("brokers", cfg.Kafka.Brokers).Msg("productor Kafka")
		}
		defer kp.Close()
		publisher = kp
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	stockLedger := ledger.NewStockLedger(metrics.NewLedgerMetrics(reg))

	stockQueryUC := inventory.NewStockQueryUseCase(ledger.NewQueryService(repos.Stock(), repos.Movements()))
	registerMovementUC := inventory.NewRegisterMovementUseCase(txRunner, stockLedger, repos.Products(), repos.Outlets(), publisher)
	opnameUC := inventory.NewStockOpnameUseCase(txRunner, stockLedger, repos.Outlets(), publisher)
	transferUC := transfer.NewUseCase(txRunner, stockLedger, repos.Transfers(), repos.Outlets(), repos.Products(), repos.Stock(), publisher)
	salesUC := sales.NewUseCase(txRunner, stockLedger, repos.Transactions(), repos.Outlets(), repos.Customers(),
		idempotency, publisher, cfg.Loyalty.AmountPerPoint)
	outletUC := usecase.NewOutletUseCase(txRunner, repos.Outlets())

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "POS Ledger API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name, "in_memory": memStore != nil})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		StockQuery:       stockQueryUC,
		RegisterMovement: registerMovementUC,
		Opname:           opnameUC,
		Transfers:        transferUC,
		Sales:            salesUC,
		Outlets:          outletUC,
		JWTSecret:        cfg.JWT.Secret,
		JWTIssuer:        cfg.JWT.Issuer,
		Gatherer:         reg,
		HTTPMetrics:      metrics.NewHTTPMetrics(reg),
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
