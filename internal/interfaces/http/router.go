package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/dte-api/internal/application/auth"
	"github.com/jhoicas/dte-api/internal/application/billing"
	"github.com/jhoicas/dte-api/internal/application/usecase"
	"github.com/jhoicas/dte-api/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC      *auth.AuthUseCase
	CompanyUC   *usecase.CompanyUseCase
	Credentials *billing.CredentialService
	CustomerUC  *billing.CustomerUseCase
	ProductUC   *usecase.ProductUseCase
	Lifecycle   *billing.LifecycleManager
	Activities  ActivitySearcher
	JWTSecret   string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Auth y alta de empresa (público)
	authHandler := NewAuthHandler(deps.AuthUC)
	authGroup := api.Group("/auth")
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)

	companyHandler := NewCompanyHandler(deps.CompanyUC, deps.Credentials)
	api.Post("/companies", companyHandler.Create)

	catalogueHandler := NewCatalogueHandler(deps.Activities)
	api.Get("/catalogues", catalogueHandler.List)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))
	writers := RequireRole(entity.RoleAdmin, entity.RoleFacturador)
	admin := RequireRole(entity.RoleAdmin)

	if deps.Activities != nil {
		protected.Get("/catalogues/activities", catalogueHandler.Activities)
	}

	companies := protected.Group("/companies")
	companies.Get("/me", companyHandler.Me)
	companies.Put("/me", admin, companyHandler.Update)
	companies.Put("/me/credentials", admin, companyHandler.SetCredentials)

	users := protected.Group("/users", admin)
	users.Post("/", authHandler.CreateUser)
	users.Get("/", authHandler.ListUsers)

	customers := protected.Group("/customers")
	customerHandler := NewCustomerHandler(deps.CustomerUC)
	customers.Post("/", writers, customerHandler.Create)
	customers.Get("/", customerHandler.List)
	customers.Get("/:id", customerHandler.GetByID)
	customers.Put("/:id", writers, customerHandler.Update)

	products := protected.Group("/products")
	productHandler := NewProductHandler(deps.ProductUC)
	products.Post("/", writers, productHandler.Create)
	products.Get("/", productHandler.List)
	products.Get("/:id", productHandler.GetByID)
	products.Put("/:id", writers, productHandler.Update)

	// Documentos: consulta puede leer; admin y facturador operan el ciclo de vida.
	documents := protected.Group("/documents")
	documentHandler := NewDocumentHandler(deps.Lifecycle, 0)
	documents.Post("/", writers, documentHandler.Create)
	documents.Get("/", documentHandler.List)
	documents.Get("/:id", documentHandler.GetByID)
	documents.Get("/:id/status", documentHandler.Status)
	documents.Get("/:id/qr", documentHandler.VerificationURL)
	documents.Patch("/:id", writers, documentHandler.Modify)
	submit := []fiber.Handler{writers}
	if deps.Credentials != nil {
		submit = append(submit, RequireCredentials(deps.Credentials))
	}
	documents.Post("/:id/submit", append(submit, documentHandler.Submit)...)
	documents.Post("/:id/invalidate", writers, documentHandler.Invalidate)
}
