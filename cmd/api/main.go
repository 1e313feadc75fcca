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

	"github.com/jorgeomarnegrete/fact-arca/internal/application/auth"
	appbilling "github.com/jorgeomarnegrete/fact-arca/internal/application/billing"
	"github.com/jorgeomarnegrete/fact-arca/internal/application/catalog"
	"github.com/jorgeomarnegrete/fact-arca/internal/application/pos"
	infraafip "github.com/jorgeomarnegrete/fact-arca/internal/infrastructure/afip"
	infrapdf "github.com/jorgeomarnegrete/fact-arca/internal/infrastructure/pdf"
	"github.com/jorgeomarnegrete/fact-arca/internal/infrastructure/postgres"
	httpRouter "github.com/jorgeomarnegrete/fact-arca/internal/interfaces/http"
	"github.com/jorgeomarnegrete/fact-arca/pkg/config"
	"github.com/jorgeomarnegrete/fact-arca/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	userRepo := postgres.NewUserRepository(pool)
	posRepo := postgres.NewPointOfSaleRepository(pool)
	customerRepo := postgres.NewCustomerRepository(pool)
	productRepo := postgres.NewProductRepository(pool)
	invoiceRepo := postgres.NewInvoiceRepository(pool)

	// Cliente WSFEv1: WSAA (ticket de acceso firmado CMS) + solicitud de CAE.
	// Homologación o producción se decide por punto de venta, no acá.
	ticketSource := infraafip.NewTicketSource(cfg.AFIP.RequestTimeout)
	wsfeClient := infraafip.NewClient(ticketSource, cfg.AFIP.RequestTimeout)

	builder := appbilling.NewBuilder(customerRepo, productRepo)
	orchestrator := appbilling.NewOrchestrator(
		posRepo, invoiceRepo, builder, wsfeClient, log,
		cfg.AFIP.DefaultCbteTipo, cfg.AFIP.RetryAttempts,
	)

	pdfGenerator := infrapdf.NewMarotoPDFGenerator()
	pdfUC := appbilling.NewPDFUseCase(invoiceRepo, posRepo, pdfGenerator)

	authUC := auth.NewUseCase(userRepo, cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.Expiration)
	posUC := pos.NewUseCase(posRepo, wsfeClient, cfg.AFIP.DefaultCbteTipo)
	catalogUC := catalog.NewUseCase(productRepo, customerRepo)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
		// El alta de punto de venta sube certificado + clave en multipart.
		BodyLimit: 4 * 1024 * 1024,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Fact-ARCA API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:       authUC,
		PosUC:        posUC,
		CatalogUC:    catalogUC,
		Orchestrator: orchestrator,
		PDFUC:        pdfUC,
		JWTSecret:    cfg.JWT.Secret,
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
