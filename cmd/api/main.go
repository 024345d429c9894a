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
	"github.com/matuteb/gestion-api/internal/application/auth"
	"github.com/matuteb/gestion-api/internal/application/catalog"
	"github.com/matuteb/gestion-api/internal/application/iaval"
	apppurchase "github.com/matuteb/gestion-api/internal/application/purchase"
	infraai "github.com/matuteb/gestion-api/internal/infrastructure/ai"
	infrapdf "github.com/matuteb/gestion-api/internal/infrastructure/pdf"
	"github.com/matuteb/gestion-api/internal/infrastructure/postgres"
	"github.com/matuteb/gestion-api/internal/infrastructure/storage"
	httpRouter "github.com/matuteb/gestion-api/internal/interfaces/http"
	"github.com/matuteb/gestion-api/pkg/config"
	"github.com/matuteb/gestion-api/pkg/logger"
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
	supplierRepo := postgres.NewSupplierRepository(pool)
	productRepo := postgres.NewProductRepository(pool)
	supplierItemRepo := postgres.NewSupplierItemRepository(pool)
	purchaseRepo := postgres.NewPurchaseRepository(pool)
	logRepo := postgres.NewPurchaseLogRepository(pool)
	attachmentRepo := postgres.NewAttachmentRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	fileStore, err := storage.NewLocalStore(cfg.Storage.BasePath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.Storage.BasePath).Msg("file store local")
	}

	purchaseUC := apppurchase.NewUseCase(
		txRunner, purchaseRepo, productRepo, supplierItemRepo, supplierRepo, logRepo,
	)
	attachmentUC := apppurchase.NewAttachmentUseCase(purchaseRepo, attachmentRepo, fileStore)

	// PDF: representación imprimible del remito cargado
	pdfGenerator := infrapdf.NewMarotoRemitoGenerator()
	pdfUC := apppurchase.NewPDFUseCase(purchaseRepo, supplierRepo, pdfGenerator)

	// iAVaL: validación asistida de remitos contra el adjunto
	anthropicSvc := infraai.NewAnthropicService(cfg.AI.AnthropicAPIKey, cfg.AI.AnthropicModel)
	iavalUC := iaval.NewUseCase(purchaseRepo, attachmentRepo, logRepo, anthropicSvc, fileStore)

	catalogUC := catalog.NewUseCase(productRepo, supplierItemRepo, supplierRepo, purchaseRepo)
	authUC := auth.NewUseCase(userRepo, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
		BodyLimit:    25 * 1024 * 1024, // remitos adjuntos (PDF)
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Gestión API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		PurchaseUC:   purchaseUC,
		PDFUC:        pdfUC,
		AttachmentUC: attachmentUC,
		IavalUC:      iavalUC,
		CatalogUC:    catalogUC,
		AuthUC:       authUC,
		Files:        fileStore,
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
