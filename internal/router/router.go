package router

import (
	"context"
	"time"

	"salescatalog/internal/config"
	"salescatalog/internal/handler"
	"salescatalog/internal/infra"
	"salescatalog/internal/metrics"
	"salescatalog/internal/middleware"
	"salescatalog/internal/repository"
	"salescatalog/internal/seed"
	"salescatalog/internal/service"
	"salescatalog/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Deps are the long-lived components built by the composition root.
type Deps struct {
	DB          *gorm.DB
	Redis       *redis.Client // nil when the job queue is disabled
	Metrics     *metrics.Metrics
	Seeder      *seed.Seeder
	SeedRunner  worker.SeedRunner // wraps Seeder (e.g. with a timeout); defaults to Seeder
	SeedTrigger *worker.SeedTrigger
	SeedBreaker *infra.CircuitBreaker
	RateLimiter *middleware.RateLimiter
}

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB
func New(cfg *config.Config, d Deps) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	if d.Metrics == nil {
		d.Metrics = metrics.New()
	}
	if d.RateLimiter == nil {
		d.RateLimiter = middleware.NewRateLimiter(cfg.RateLimitPerMinute, time.Minute)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.Metrics(d.Metrics))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.AllowedOrigins()))
	r.Use(middleware.ErrorHandler())
	r.Use(d.RateLimiter.Handler())

	// ── Repositories ─────────────────────────────────────────────────────────
	productRepo := repository.NewProductRepository(d.DB)
	saleRepo := repository.NewSaleRepository(d.DB)

	// ── Services ─────────────────────────────────────────────────────────────
	productSvc := service.NewProductService(productRepo)
	saleSvc := service.NewSaleService(saleRepo, productRepo)

	// ── Handlers ─────────────────────────────────────────────────────────────
	productsH := handler.NewProductsHandler(productSvc)
	salesH := handler.NewSalesHandler(saleSvc)

	var reset func(ctx context.Context) error
	if !cfg.IsProduction() {
		reset = func(ctx context.Context) error { return infra.Reset(d.DB.WithContext(ctx)) }
	}
	if d.SeedRunner == nil && d.Seeder != nil {
		d.SeedRunner = d.Seeder
	}
	seedH := handler.NewSeedHandler(d.SeedTrigger, d.SeedRunner, d.Seeder, productRepo, saleRepo, reset)

	// ── Routes ───────────────────────────────────────────────────────────────
	r.GET("/health", handler.Health(d.DB, d.Redis, d.SeedBreaker))
	r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))

	api := r.Group("/api")
	{
		products := api.Group("/products")
		{
			products.GET("", productsH.ListPaged)
			products.GET("/all", productsH.List)
			products.GET("/:id", productsH.Get)
			products.GET("/:id/sales", productsH.GetWithSales)
			products.GET("/:id/report.pdf", productsH.Report)
			products.POST("", productsH.Create)
			products.PUT("/:id", productsH.Update)
			products.DELETE("/:id", productsH.Delete)
		}

		sales := api.Group("/sales")
		{
			sales.GET("", salesH.ListFiltered)
			sales.GET("/all", salesH.List)
			sales.GET("/:id", salesH.Get)
			sales.POST("", salesH.Create)
			sales.PUT("/:id", salesH.Update)
			sales.DELETE("/:id", salesH.Delete)
		}

		if d.Seeder != nil && d.SeedTrigger != nil {
			api.POST("/seed/run", seedH.Run)
			api.GET("/seedstatus", seedH.Status)
			if reset != nil {
				api.POST("/seed/reset", seedH.Reset)
			}
		}
	}

	// Swagger UI outside production only
	if !cfg.IsProduction() {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	r.NoRoute(spaFallback(cfg.StaticDir))

	return r
}
