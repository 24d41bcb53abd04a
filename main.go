package main

import (
	"fmt"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	apirest "github.com/vidarp/server/api/rest"
	"github.com/vidarp/server/api/sse"
	"github.com/vidarp/server/audit"
	"github.com/vidarp/server/cache"
	"github.com/vidarp/server/catalog"
	"github.com/vidarp/server/config"
	dbadapter "github.com/vidarp/server/db"
	"github.com/vidarp/server/feed"
	"github.com/vidarp/server/game/effect"
	"github.com/vidarp/server/game/inventory"
	"github.com/vidarp/server/game/medicine"
	"github.com/vidarp/server/game/relationship"
	"github.com/vidarp/server/game/stats"
	"github.com/vidarp/server/game/wallet"
	mw "github.com/vidarp/server/middleware"
	"github.com/vidarp/server/model"
	"github.com/vidarp/server/scheduler"
)

func main() {
	cfgPath := "config/config.yaml"
	if len(os.Args) > 1 {
		cfgPath = os.Args[1]
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// ---- Logger ----
	var logger *zap.Logger
	var logErr error
	if cfg.Server.Debug {
		logger, logErr = zap.NewDevelopment()
	} else {
		logger, logErr = zap.NewProduction()
	}
	if logErr != nil {
		log.Fatalf("logger: %v", logErr)
	}
	defer logger.Sync()

	// Warn loudly if admin endpoints will be disabled.
	if cfg.Server.AdminKey == "" {
		logger.Warn("server.admin_key is not set; admin endpoints are disabled")
	}

	// ---- Database ----
	db, err := dbadapter.Open(cfg.Database)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	if err := model.AutoMigrate(db); err != nil {
		log.Fatalf("db migrate: %v", err)
	}
	logger.Info("DB initialized")

	// ---- Audit ----
	auditSvc := audit.New(db, logger)
	defer auditSvc.Stop(nil)

	// ---- Cache / PubSub ----
	cacheConfig := cache.CacheConfig{
		RedisAddr:       cfg.Cache.RedisAddr,
		RedisPassword:   cfg.Cache.RedisPassword,
		RedisDB:         cfg.Cache.RedisDB,
		LocalGCInterval: cfg.Cache.LocalGCInterval,
		LocalPubSubBuf:  cfg.Cache.LocalPubSubBuf,
	}
	c, err := cache.NewCache(cacheConfig)
	if err != nil {
		log.Fatalf("cache: %v", err)
	}
	pubsub, err := cache.NewPubSub(cacheConfig)
	if err != nil {
		log.Fatalf("pubsub: %v", err)
	}
	logger.Info("Cache initialized")

	// ---- Store catalog ----
	cat := catalog.NewCatalog(cfg.Catalog.DataPath)
	if err := cat.Load(); err != nil {
		logger.Warn("catalog load warning", zap.Error(err))
	}
	logger.Info("Catalog loaded", zap.Int("items", cat.Len()))
	seedStores(db, cat, logger)

	// ---- Scheduler ----
	sched := scheduler.New(logger)
	defer sched.Stop()

	// ---- Services ----
	publisher := feed.NewPublisher(pubsub, logger)
	transients := effect.NewTransients(c, cfg.Game.MoodEffectTTL, logger)
	medSvc := medicine.NewService(db, logger)
	walletSvc := wallet.NewService(db, c, cat, publisher, cfg.Game.DivorceFee, logger)
	relSvc := relationship.NewService(db, cat, walletSvc, publisher, logger)
	projector := inventory.NewProjector(cat, logger)
	customIdx := inventory.NewCustomIndex(db, c, logger)
	decay := stats.NewDecay(db, logger)

	// ---- Periodic Scheduler Tasks ----
	scheduler.RegisterGameJobs(sched, cfg.Game, decay, medSvc, walletSvc, logger)

	// ---- Gin HTTP Server ----
	if !cfg.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(mw.TraceID(), mw.Logger(logger), mw.Recovery(logger))
	r.Use(mw.RateLimit(rate.Limit(cfg.Security.RateLimitRPS), cfg.Security.RateLimitBurst))

	// Health check
	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(200, gin.H{"status": "ok"})
	})

	// ---- REST API routes ----
	authH := apirest.NewAuthHandler(db, c, cfg.Security, cfg.Game)
	playerH := apirest.NewPlayerHandler(db, transients, logger)
	invH := apirest.NewInventoryHandler(db, projector, customIdx, transients, medSvc, walletSvc, cat, auditSvc, logger)
	walletH := apirest.NewWalletHandler(db, walletSvc, auditSvc)
	storeH := apirest.NewStoreHandler(db, cat, walletSvc, auditSvc)
	deliveryH := apirest.NewDeliveryHandler(db, walletSvc)
	relH := apirest.NewRelationshipHandler(db, relSvc)
	rankH := apirest.NewRankingHandler(db, walletSvc)
	itemH := apirest.NewItemHandler(db)
	adminH := apirest.NewAdminHandler(db, cat, medSvc, sched, logger)

	api := r.Group("/api")
	{
		authG := api.Group("/auth")
		authG.POST("/login", authH.Login)
		authG.POST("/logout", mw.Auth(cfg.Security, c), authH.Logout)
		authG.POST("/refresh", mw.Auth(cfg.Security, c), authH.Refresh)

		playerG := api.Group("/player")
		playerG.Use(mw.Auth(cfg.Security, c))
		playerG.GET("", playerH.Profile)
		playerG.GET("/effects", playerH.Effects)
		playerG.GET("/inventory", invH.List)
		playerG.POST("/inventory/:id/use", invH.Use)
		playerG.POST("/inventory/:id/send", invH.Send)

		walletG := api.Group("/wallet")
		walletG.Use(mw.Auth(cfg.Security, c))
		walletG.GET("", walletH.Show)
		walletG.POST("/transfer", walletH.Transfer)

		storesG := api.Group("/stores")
		storesG.Use(mw.Auth(cfg.Security, c))
		storesG.GET("", storeH.List)
		storesG.GET("/:id", storeH.Show)
		storesG.GET("/:id/orders", mw.RequireRole(model.RoleManager), storeH.Pending)

		ordersG := api.Group("/orders")
		ordersG.Use(mw.Auth(cfg.Security, c))
		ordersG.POST("", storeH.Submit)
		ordersG.GET("", storeH.Mine)
		ordersG.POST("/:id/approve", mw.RequireRole(model.RoleManager), storeH.Approve)
		ordersG.POST("/:id/reject", mw.RequireRole(model.RoleManager), storeH.Reject)

		deliveriesG := api.Group("/deliveries")
		deliveriesG.Use(mw.Auth(cfg.Security, c))
		deliveriesG.GET("/waiting", mw.RequireRole(model.RoleCourier), deliveryH.Waiting)
		deliveriesG.POST("/:id/accept", mw.RequireRole(model.RoleCourier), deliveryH.Accept)
		deliveriesG.POST("/:id/release", mw.RequireRole(model.RoleCourier), deliveryH.Release)
		deliveriesG.POST("/:id/delivered", mw.RequireRole(model.RoleCourier), deliveryH.Delivered)
		deliveriesG.POST("/:id/approve", mw.RequireRole(model.RoleManager), storeH.ApproveDelivery)
		deliveriesG.POST("/:id/reject", mw.RequireRole(model.RoleManager), storeH.RejectDelivery)

		relG := api.Group("/relationships")
		relG.Use(mw.Auth(cfg.Security, c))
		relG.GET("", relH.List)
		relG.POST("/propose", relH.Propose)
		relG.POST("/proposals/:id/accept", relH.Accept)
		relG.POST("/proposals/:id/reject", relH.Reject)
		relG.POST("/:id/end", relH.End)

		rankG := api.Group("/ranking")
		rankG.GET("/wealth", rankH.Wealth)

		itemsG := api.Group("/items")
		itemsG.Use(mw.Auth(cfg.Security, c))
		itemsG.POST("/custom", itemH.CreateCustom)

		adminG := api.Group("/admin")
		adminG.Use(apirest.AdminAuth(cfg.Server.AdminKey))
		adminG.GET("/metrics", adminH.Metrics)
		adminG.POST("/reconcile-diseases", adminH.ReconcileDiseases)
		adminG.POST("/accounts/:id/ban", adminH.BanAccount)
		adminG.POST("/accounts/:id/role", adminH.SetRole)
		adminG.GET("/scheduler", adminH.ListSchedulerTasks)
	}

	// ---- SSE ----
	sseH := sse.NewHandler(pubsub, c, db, cfg.Security, logger)
	r.GET("/sse", sseH.ServeSSE)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	logger.Info("Server listening", zap.String("addr", addr))
	if err := r.Run(addr); err != nil {
		log.Fatalf("server: %v", err)
	}
}

// seedStores makes sure every catalog store has its mutable DB row.
func seedStores(db *gorm.DB, cat *catalog.Catalog, logger *zap.Logger) {
	for _, def := range cat.Stores {
		store := model.Store{
			ID:             def.ID,
			Name:           def.Name,
			HappinessStore: def.HappinessStore,
		}
		if err := db.Where("id = ?", def.ID).FirstOrCreate(&store).Error; err != nil {
			logger.Warn("store seed failed", zap.String("store_id", def.ID), zap.Error(err))
		}
	}
}
