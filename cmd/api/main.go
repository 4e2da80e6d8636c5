package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "bakerypos/api/swagger" // swagger docs
	"bakerypos/internal/auth"
	"bakerypos/internal/cache"
	"bakerypos/internal/config"
	"bakerypos/internal/database"
	"bakerypos/internal/deduction"
	"bakerypos/internal/handler"
	"bakerypos/internal/logger"
	"bakerypos/internal/middleware"
	"bakerypos/internal/repository"
	"bakerypos/internal/service"
	"bakerypos/internal/storage"
	"bakerypos/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

const publicOrderRate = "30-M"

// @title           Bakery POS API
// @version         1.0
// @description     Point-of-sale, shift and inventory reconciliation backend for a bakery.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg := config.Load()
	logger.SetLevel(cfg.LogLevel)
	log := logger.Get()
	gin.SetMode(cfg.GinMode)

	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewConnection(cfg.DB.DSN())
	if err != nil {
		log.WithError(err).Fatal("database connection failed")
	}
	log.Info("connected to PostgreSQL")

	// Redis is optional: without it the stock cache is a no-op and import
	// commits serialize on an in-process lock.
	stockCache := cache.NewNoopStockCache()
	locker := cache.NewLocalLocker()
	if rdb, err := cache.Connect(ctx, cfg.Redis); err != nil {
		log.WithError(err).Warn("redis unavailable, using in-process cache and lock")
	} else {
		defer rdb.Close()
		stockCache = cache.NewRedisStockCache(rdb)
		locker = cache.NewRedisLocker(rdb)
	}

	proofs := storage.NewDisabledProofStore()
	if cfg.Storage.Bucket != "" {
		store, err := storage.NewGCSProofStore(ctx, cfg.Storage)
		if err != nil {
			log.WithError(err).Warn("proof storage unavailable, uploads disabled")
		} else {
			proofs = store
		}
	}

	// Set up WebSocket Hub
	wsHub := websocket.NewHub()
	go wsHub.Run(ctx)

	issuer := auth.NewTokenIssuer([]byte(cfg.JWTSecret))
	middleware.InitAuth(issuer)

	// Repositories
	txManager := repository.NewTransactionManager(db)
	auditRepo := repository.NewAuditRepository(db)
	staffRepo := repository.NewStaffRepository(db)
	deviceRepo := repository.NewDeviceRepository(db)
	settingRepo := repository.NewSettingRepository(db)
	productRepo := repository.NewProductRepository(db)
	discountRepo := repository.NewDiscountRepository(db)
	shiftRepo := repository.NewShiftRepository(db)
	purchaseRepo := repository.NewPurchaseRepository(db)
	saleRepo := repository.NewSaleRepository(db)
	failureRepo := repository.NewDeductionFailureRepository(db)
	inventoryRepo := repository.NewInventoryRepository(db)
	movementRepo := repository.NewStockMovementRepository(db)
	endorseRepo := repository.NewShiftInventoryRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	receivableRepo := repository.NewReceivableRepository(db)
	customerRepo := repository.NewChargeCustomerRepository(db)
	recipeRepo := repository.NewRecipeRepository(db)
	importRepo := repository.NewImportRepository(db)
	mappingRepo := repository.NewMappingRepository(db)
	statsRepo := repository.NewStatisticsRepository(db)

	// Services
	settingsService := service.NewSettingsService(settingRepo, auditRepo, txManager)
	staffService := service.NewStaffService(staffRepo, deviceRepo, shiftRepo, auditRepo, txManager, settingsService, issuer)
	shiftService := service.NewShiftService(shiftRepo, purchaseRepo, saleRepo, auditRepo, txManager, wsHub)
	stockService := service.NewStockService(inventoryRepo, movementRepo, productRepo, auditRepo, txManager, stockCache, wsHub)
	recipeService := service.NewRecipeService(recipeRepo, productRepo, txManager)
	endorsementService := service.NewEndorsementService(shiftService, inventoryRepo, endorseRepo, productRepo, saleRepo, auditRepo, txManager)

	queue := deduction.NewQueue(deduction.Config{
		Workers:    cfg.Deduction.Workers,
		MaxRetries: cfg.Deduction.MaxRetries,
		QueueSize:  cfg.Deduction.QueueSize,
	}, saleRepo, failureRepo, stockService, recipeService)
	queue.Start(ctx)
	if n, err := queue.Requeue(ctx, saleRepo); err != nil {
		log.WithError(err).Warn("failed to requeue pending deductions")
	} else if n > 0 {
		log.WithField("count", n).Info("requeued pending deductions")
	}

	checkoutService := service.NewCheckoutService(service.CheckoutDeps{
		SaleRepo:       saleRepo,
		ProductRepo:    productRepo,
		DiscountRepo:   discountRepo,
		CustomerRepo:   customerRepo,
		ReceivableRepo: receivableRepo,
		FailureRepo:    failureRepo,
		AuditRepo:      auditRepo,
		TxManager:      txManager,
		Shifts:         shiftService,
		Stock:          stockService,
		Settings:       settingsService,
		Proofs:         proofs,
		Queue:          queue,
		Events:         wsHub,
	})
	deductionService := service.NewDeductionService(failureRepo, saleRepo, auditRepo, queue)
	productService := service.NewProductService(productRepo, auditRepo, txManager)
	discountService := service.NewDiscountService(discountRepo)
	receivableService := service.NewReceivableService(receivableRepo, customerRepo, saleRepo, auditRepo, txManager)
	orderService := service.NewOrderService(orderRepo, productRepo, auditRepo, txManager, stockService, proofs, wsHub)
	importService := service.NewImportService(importRepo, mappingRepo, productRepo, auditRepo, txManager, locker)
	reportService := service.NewReportService(saleRepo, shiftRepo, statsRepo)
	auditService := service.NewAuditService(auditRepo)

	// Rate limiters
	loginLimit, err := middleware.RateLimit(cfg.LoginRate)
	if err != nil {
		log.WithError(err).Fatal("invalid LOGIN_RATE")
	}
	publicLimit, err := middleware.RateLimit(publicOrderRate)
	if err != nil {
		log.WithError(err).Fatal("invalid public order rate")
	}

	// Set up Gin Router
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORS
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Device-ID"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, issuer, c)
	})

	// API Routing
	root := router.Group("")
	handler.NewStaffHandler(staffService, cfg.GinMode == gin.ReleaseMode).RegisterRoutes(root, loginLimit)
	handler.NewShiftHandler(shiftService).RegisterRoutes(root)
	handler.NewInventoryHandler(stockService, endorsementService, deductionService).RegisterRoutes(root)
	handler.NewCatalogHandler(productService, discountService, recipeService).RegisterRoutes(root)
	handler.NewSaleHandler(checkoutService).RegisterRoutes(root)
	handler.NewReceivableHandler(receivableService).RegisterRoutes(root)
	handler.NewOrderHandler(orderService).RegisterRoutes(root, publicLimit)
	handler.NewImportHandler(importService).RegisterRoutes(root)
	handler.NewReportHandler(reportService).RegisterRoutes(root)
	handler.NewSettingsHandler(settingsService, auditService).RegisterRoutes(root)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("port", cfg.Port).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("server shutdown")
	}
	// Jobs still queued keep deduction status pending and are re-queued on the next start.
	queue.Wait()
}
