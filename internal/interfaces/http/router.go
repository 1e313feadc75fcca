package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jorgeomarnegrete/fact-arca/internal/application/auth"
	appbilling "github.com/jorgeomarnegrete/fact-arca/internal/application/billing"
	"github.com/jorgeomarnegrete/fact-arca/internal/application/catalog"
	"github.com/jorgeomarnegrete/fact-arca/internal/application/pos"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC       *auth.UseCase
	PosUC        *pos.UseCase
	CatalogUC    *catalog.UseCase
	Orchestrator *appbilling.Orchestrator
	PDFUC        *appbilling.PDFUseCase
	JWTSecret    string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Auth (público)
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(deps.AuthUC)
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Puntos de venta (protegido)
	posGroup := protected.Group("/points-of-sale")
	posHandler := NewPointOfSaleHandler(deps.PosUC)
	posGroup.Post("/", posHandler.Register)
	posGroup.Get("/", posHandler.List)
	posGroup.Get("/:id", posHandler.Get)
	posGroup.Put("/:id/credentials", posHandler.ReplaceCredentials)
	posGroup.Post("/:id/probe", posHandler.Probe)

	// Facturas (protegido)
	invoiceHandler := NewInvoiceHandler(deps.Orchestrator, deps.PDFUC)
	posGroup.Get("/:id/invoices", invoiceHandler.ListByPointOfSale)
	posGroup.Post("/:id/reconcile", invoiceHandler.Reconcile)

	invoices := protected.Group("/invoices")
	invoices.Post("/", invoiceHandler.Create)
	invoices.Get("/:id", invoiceHandler.Get)
	invoices.Get("/:id/pdf", invoiceHandler.DownloadPDF)

	// Catálogo de productos (protegido)
	products := protected.Group("/products")
	productHandler := NewProductHandler(deps.CatalogUC)
	products.Post("/", productHandler.Create)
	products.Get("/", productHandler.List)
	products.Get("/:id", productHandler.Get)
	products.Put("/:id", productHandler.Update)
	products.Delete("/:id", productHandler.Delete)

	// Padrón de clientes (protegido)
	customers := protected.Group("/customers")
	customerHandler := NewCustomerHandler(deps.CatalogUC)
	customers.Post("/", customerHandler.Create)
	customers.Get("/", customerHandler.List)
	customers.Get("/:id", customerHandler.Get)
	customers.Put("/:id", customerHandler.Update)
	customers.Delete("/:id", customerHandler.Delete)
}
