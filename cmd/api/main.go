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

	"github.com/jhoicas/dte-api/internal/application/auth"
	"github.com/jhoicas/dte-api/internal/application/billing"
	"github.com/jhoicas/dte-api/internal/application/usecase"
	"github.com/jhoicas/dte-api/internal/infrastructure/hacienda"
	"github.com/jhoicas/dte-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/dte-api/internal/interfaces/http"
	"github.com/jhoicas/dte-api/pkg/config"
	"github.com/jhoicas/dte-api/pkg/logger"
)

// gateway transmisión e invalidación ante Hacienda (real o simulada).
type gateway interface {
	billing.Submitter
	billing.Invalidator
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("hacienda", cfg.Hacienda.AppEnv).
		Str("ambiente", cfg.Hacienda.Ambiente).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	companyRepo := postgres.NewCompanyRepository(pool)
	credentialRepo := postgres.NewCredentialRepository(pool)
	userRepo := postgres.NewUserRepository(pool)
	productRepo := postgres.NewProductRepository(pool)
	customerRepo := postgres.NewCustomerRepository(pool)
	documentRepo := postgres.NewDocumentRepository(pool)
	invalidationRepo := postgres.NewInvalidationRepository(pool)
	activityRepo := postgres.NewActivityRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	// En modo "dev" no se sale a la red; "test" y "prod" usan el firmador y la API de Hacienda.
	var (
		gw     gateway
		client *hacienda.Client
	)
	if cfg.Hacienda.AppEnv == "dev" || cfg.Hacienda.AppEnv == "" {
		gw = hacienda.NewSimulatedGateway(300*time.Millisecond, log.Zerolog())
	} else {
		client = hacienda.NewClient(hacienda.Config{
			BaseURL:         cfg.Hacienda.BaseURL,
			FirmadorURL:     cfg.Hacienda.FirmadorURL,
			Ambiente:        cfg.Hacienda.Ambiente,
			Timeout:         cfg.Hacienda.Timeout,
			RatePerSecond:   cfg.Hacienda.RatePerSecond,
			RateBurst:       cfg.Hacienda.RateBurst,
			BreakerFailures: cfg.Hacienda.BreakerFailures,
			BreakerCooldown: cfg.Hacienda.BreakerCooldown,
		}, log.Zerolog())
		gw = client
	}

	credentialSvc := billing.NewCredentialService(credentialRepo)
	lifecycle := billing.NewLifecycleManager(billing.LifecycleDeps{
		TxRunner:      txRunner,
		Documents:     documentRepo,
		Invalidations: invalidationRepo,
		Customers:     customerRepo,
		Companies:     companyRepo,
		Products:      productRepo,
		Submitter:     gw,
		Invalidator:   gw,
		Credentials:   credentialSvc,
	}, billing.LifecycleConfig{
		TaxFactor:     cfg.DTE.TaxFactor,
		Ambiente:      cfg.Hacienda.Ambiente,
		SubmitTimeout: cfg.Hacienda.Timeout,
	}, log.WithComponent("lifecycle"))

	authUC := auth.NewAuthUseCase(userRepo, companyRepo, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 45, // submit?wait=true espera a Hacienda
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "DTE API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		status := fiber.Map{"status": "ok", "service": cfg.App.Name, "hacienda": cfg.Hacienda.AppEnv}
		pingCtx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(pingCtx); err != nil {
			status["status"] = "degraded"
			status["database"] = err.Error()
		}
		if client != nil {
			status["hacienda_breaker"] = client.BreakerState().String()
		}
		return c.JSON(status)
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:      authUC,
		CompanyUC:   usecase.NewCompanyUseCase(companyRepo, credentialSvc),
		Credentials: credentialSvc,
		CustomerUC:  billing.NewCustomerUseCase(customerRepo),
		ProductUC:   usecase.NewProductUseCase(productRepo),
		Lifecycle:   lifecycle,
		Activities:  activityRepo,
		JWTSecret:   cfg.JWT.Secret,
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

	// Las transmisiones en curso terminan (o vencen su timeout) antes de cerrar el pool.
	lifecycle.Wait()
	log.Info().Msg("aplicación detenida")
}
