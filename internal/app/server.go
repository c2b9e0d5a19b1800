package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/judyrop/shop-backend/internal/handlers"
	"github.com/judyrop/shop-backend/internal/middleware"
	"github.com/judyrop/shop-backend/internal/model"
	"github.com/judyrop/shop-backend/internal/service"
	"github.com/judyrop/shop-backend/internal/store"
)

// Migrate creates or updates the schema. Exposed so tests can migrate their
// in-memory sqlite databases the same way production migrates postgres.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.Product{},
		&model.Category{},
		&model.CartItem{},
		&model.Order{},
		&model.OrderItem{},
		&model.Payment{},
		&model.EmailVerificationToken{},
		&model.PasswordResetToken{},
	)
}

// NewServer wires the production server: postgres, the counter/cache store
// (Redis when configured, in-process memory otherwise), SMTP mail, and the
// hourly token sweep. The returned cleanup stops the sweep and closes
// connections.
func NewServer(cfg Config) (*gin.Engine, func(), error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, nil, errors.New("JWT_SECRET and REFRESH_TOKEN_SECRET must be set")
	}

	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{})
	if err != nil {
		return nil, nil, err
	}
	if err := Migrate(db); err != nil {
		return nil, nil, err
	}

	var kv store.Store
	if cfg.RedisAddr != "" {
		kv = store.NewRedis(redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}), "shop:")
		log.Info("using redis store", "addr", cfg.RedisAddr)
	} else {
		kv = store.NewMemory()
		log.Warn("using in-process store; rate limits and caches are per instance")
	}

	mailer := service.NewSMTPEmail(service.SMTPConfig{
		Host:          cfg.SMTPHost,
		Port:          cfg.SMTPPort,
		From:          cfg.SMTPFrom,
		Username:      cfg.SMTPUser,
		Password:      cfg.SMTPPassword,
		PublicBaseURL: cfg.PublicBaseURL,
	}, log)

	r := NewRouter(db, cfg, kv, mailer, log)

	auth := service.NewAuthService(db, mailer, []byte(cfg.AccessSecret), []byte(cfg.RefreshSecret))
	sweepDone := make(chan struct{})
	go tokenSweep(auth, cfg.TokenSweepEvery, sweepDone, log)

	cleanup := func() {
		close(sweepDone)
		_ = kv.Close()
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	return r, cleanup, nil
}

// tokenSweep periodically removes expired verification and reset tokens.
func tokenSweep(auth service.AuthService, every time.Duration, done <-chan struct{}, log *slog.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			removed, err := auth.CleanupExpiredTokens(context.Background())
			if err != nil {
				log.Error("token sweep failed", "err", err)
				continue
			}
			if removed > 0 {
				log.Info("token sweep", "removed", removed)
			}
		}
	}
}

// NewRouter builds the full route tree from injected collaborators. Tests
// call this directly with an in-memory sqlite DB and a memory store.
func NewRouter(db *gorm.DB, cfg Config, kv store.Store, mailer service.EmailService, log *slog.Logger) *gin.Engine {
	if cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	ew := handlers.ErrorWriter{Log: log, Dev: cfg.Env != "prod"}
	secureCookies := cfg.Env == "prod"

	authSvc := service.NewAuthService(db, mailer, []byte(cfg.AccessSecret), []byte(cfg.RefreshSecret))
	productSvc := service.NewProductService(db)
	categorySvc := service.NewCategoryService(db)
	cartSvc := service.NewCartService(db)
	orderSvc := service.NewOrderService(db, mailer)
	paymentSvc := service.NewPaymentService(db)
	metricsSvc := service.NewMetricsService(db, kv)

	authH := handlers.NewAuthHTTP(authSvc, ew, secureCookies)
	emailH := handlers.NewEmailHTTP(authSvc, ew)
	productH := handlers.NewProductHTTP(productSvc, ew)
	categoryH := handlers.NewCategoryHTTP(categorySvc, ew)
	cartH := handlers.NewCartHTTP(cartSvc, ew)
	orderH := handlers.NewOrderHTTP(orderSvc, ew)
	paymentH := handlers.NewPaymentHTTP(paymentSvc, ew)
	metricsH := handlers.NewMetricsHTTP(metricsSvc, ew)

	requireAuth := middleware.RequireAuth(authSvc)
	requireAdmin := middleware.RequireRole(model.RoleAdmin)
	generalLimit := middleware.RateLimit(kv, middleware.RateLimitConfig{
		KeyPrefix:   "rl:general",
		MaxRequests: cfg.RateLimitGeneral,
		Window:      cfg.RateLimitWindow,
		Message:     "Too many requests, please slow down",
	}, false)
	loginLimit := middleware.RateLimit(kv, middleware.RateLimitConfig{
		KeyPrefix:   "rl:login",
		MaxRequests: cfg.RateLimitLogin,
		Window:      cfg.RateLimitWindow,
		Message:     "Too many login attempts, please wait and try again",
	}, true)
	emailLimit := middleware.RateLimit(kv, middleware.RateLimitConfig{
		KeyPrefix:   "rl:email",
		MaxRequests: cfg.RateLimitEmail,
		Window:      cfg.RateLimitWindow,
		Message:     "Too many email requests, please wait and try again",
	}, false)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLog(log))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api", generalLimit)

	auth := api.Group("/auth")
	{
		auth.POST("/register", authH.Register)
		auth.POST("/login", loginLimit, authH.Login)
		auth.POST("/refresh-token", authH.Refresh)
		auth.POST("/logout", authH.Logout)
		auth.GET("/check", requireAuth, authH.Check)
	}

	email := api.Group("/email")
	{
		email.POST("/send-verification", requireAuth, emailLimit, emailH.SendVerification)
		email.GET("/verify", emailH.Verify)
		email.POST("/request-reset", emailLimit, emailH.RequestReset)
		email.GET("/validate-reset-token", emailH.ValidateResetToken)
		email.POST("/reset-password", emailH.ResetPassword)
		email.POST("/cleanup-tokens", requireAuth, requireAdmin, emailH.CleanupTokens)
	}

	products := api.Group("/products")
	{
		products.GET("", productH.List)
		products.GET("/:id", productH.Get)
		products.POST("", requireAuth, requireAdmin, productH.Create)
		products.PUT("/:id", requireAuth, requireAdmin, productH.Update)
		products.DELETE("/:id", requireAuth, requireAdmin, productH.Delete)
	}

	categories := api.Group("/categories")
	{
		categories.GET("", categoryH.List)
		categories.GET("/:id", categoryH.Get)
		categories.GET("/:id/products", categoryH.Products)
		categories.POST("", requireAuth, requireAdmin, categoryH.Create)
		categories.PUT("/:id", requireAuth, requireAdmin, categoryH.Update)
		categories.DELETE("/:id", requireAuth, requireAdmin, categoryH.Delete)
		categories.POST("/:id/products", requireAuth, requireAdmin, categoryH.AttachProduct)
		categories.DELETE("/:id/products/:productId", requireAuth, requireAdmin, categoryH.DetachProduct)
	}

	cart := api.Group("/cart", requireAuth)
	{
		cart.GET("", cartH.Get)
		cart.GET("/summary", cartH.Summary)
		cart.POST("/add", cartH.Add)
		cart.DELETE("/clear", cartH.Clear)
		cart.PATCH("/:cartItemId", cartH.UpdateItem)
		cart.DELETE("/:cartItemId", cartH.RemoveItem)
	}

	orders := api.Group("/orders", requireAuth)
	{
		orders.POST("", orderH.Create)
		orders.GET("/my-orders", orderH.MyOrders)
		orders.GET("/all-orders", requireAdmin, orderH.AllOrders)
		orders.GET("/:id", orderH.Get)
		orders.PUT("/:id/status", requireAdmin, orderH.UpdateStatus)
		orders.DELETE("/:id", requireAdmin, orderH.Delete)
	}

	payments := api.Group("/payments", requireAuth)
	{
		payments.POST("", paymentH.Create)
		payments.GET("/my-payments", paymentH.MyPayments)
		payments.GET("/all-payments", requireAdmin, paymentH.AllPayments)
		payments.GET("/:id", paymentH.Get)
		payments.PUT("/:id/status", paymentH.UpdateStatus)
	}

	metrics := api.Group("/metrics", requireAuth, requireAdmin)
	{
		metrics.GET("/overview", metricsH.Overview)
		metrics.GET("/users", metricsH.Users)
		metrics.GET("/products", metricsH.Products)
		metrics.GET("/orders", metricsH.Orders)
		metrics.GET("/categories", metricsH.Categories)
		metrics.GET("/charts/daily-orders", metricsH.DailyOrders)
		metrics.GET("/charts/top-products", metricsH.TopProducts)
		metrics.POST("/cache/clear", metricsH.ClearCache)
	}

	return r
}
