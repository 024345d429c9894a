package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/matuteb/gestion-api/internal/application/auth"
	"github.com/matuteb/gestion-api/internal/application/catalog"
	"github.com/matuteb/gestion-api/internal/application/iaval"
	"github.com/matuteb/gestion-api/internal/application/purchase"
	"github.com/matuteb/gestion-api/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	PurchaseUC   *purchase.UseCase
	PDFUC        *purchase.PDFUseCase
	AttachmentUC *purchase.AttachmentUseCase
	IavalUC      *iaval.UseCase
	CatalogUC    *catalog.UseCase
	AuthUC       *auth.UseCase
	Files        iaval.FileStore
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

	// Las operaciones con efecto de stock (o irreversibles) quedan
	// restringidas a compradores y administradores; un vendedor solo consulta.
	compras := RequireRole(entity.RoleAdmin, entity.RoleComprador)

	// Compras (protegido)
	purchases := protected.Group("/purchases")
	purchaseHandler := NewPurchaseHandler(deps.PurchaseUC, deps.PDFUC, deps.AttachmentUC)
	purchases.Post("/", compras, purchaseHandler.Create)
	purchases.Get("/", purchaseHandler.List)
	purchases.Get("/:id", purchaseHandler.Get)
	purchases.Put("/:id", compras, purchaseHandler.Update)
	purchases.Delete("/:id", compras, purchaseHandler.Delete)
	purchases.Post("/:id/validate", compras, purchaseHandler.Validate)
	purchases.Post("/:id/confirm", compras, purchaseHandler.Confirm)
	purchases.Post("/:id/cancel", compras, purchaseHandler.Cancel)
	purchases.Post("/:id/resend-stock", compras, purchaseHandler.ResendStock)
	purchases.Post("/:id/rollback", compras, purchaseHandler.Rollback)
	purchases.Get("/:id/logs", purchaseHandler.Logs)
	purchases.Get("/:id/pdf", purchaseHandler.DownloadPDF)
	purchases.Post("/:id/attachments", compras, purchaseHandler.UploadAttachment)
	purchases.Get("/:id/attachments", purchaseHandler.ListAttachments)

	// iAVaL (protegido)
	iavalHandler := NewIavalHandler(deps.IavalUC)
	purchases.Post("/:id/iaval/preview", compras, iavalHandler.Preview)
	purchases.Post("/:id/iaval/apply", compras, iavalHandler.Apply)

	// Catálogo: proveedores y productos (protegido)
	catalogHandler := NewCatalogHandler(deps.CatalogUC)
	suppliers := protected.Group("/suppliers")
	suppliers.Get("/", catalogHandler.ListSuppliers)
	suppliers.Get("/:id", catalogHandler.GetSupplier)
	suppliers.Get("/:id/items/search", catalogHandler.SearchSupplierItems)

	products := protected.Group("/products")
	products.Post("/", compras, catalogHandler.CreateProduct)
	products.Get("/", catalogHandler.ListProducts)
	products.Post("/from-line", compras, catalogHandler.CreateProductFromLine)
	products.Get("/:id", catalogHandler.GetProduct)

	// Archivos guardados (protegido)
	filesHandler := NewFilesHandler(deps.Files)
	protected.Get("/files/:name", filesHandler.Download)
}
