package router

import (
	"kioskpos/internal/auth"
	"kioskpos/internal/config"
	"kioskpos/internal/handler"
	"kioskpos/internal/middleware"
	"kioskpos/internal/model"
	"kioskpos/internal/repository"
	"kioskpos/internal/service"
	"kioskpos/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Deps are the collaborators the routes need. Tests build them from stubs.
type Deps struct {
	Tokens   *auth.TokenService
	Accounts service.AccountService
	Orders   service.OrderService
	Health   gin.HandlerFunc
}

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
// dispatcher may be nil, in which case no ticket or event jobs are queued.
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, dispatcher *worker.Dispatcher) *gin.Engine {
	// ── Repositories ─────────────────────────────────────────────────────────
	accountRepo := repository.NewAccountRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	tokens := auth.NewTokenService(cfg.JWTSecret)
	hasher := auth.NewPasswordHasher(cfg.BcryptCost)

	var numbers service.NumberGenerator
	if cfg.OrderNumberStrategy == config.NumberStrategyRedis && rdb != nil {
		numbers = service.NewRedisNumberGenerator(rdb, orderRepo)
	} else {
		numbers = service.NewStoreNumberGenerator(orderRepo)
	}
	log.Info().Str("strategy", cfg.OrderNumberStrategy).Msg("order numbering configured")

	var notifier service.OrderNotifier
	if dispatcher != nil {
		notifier = dispatcher
	}

	resolver := service.NewItemResolver(catalogRepo, rdb, cfg.CatalogCacheTTL())
	orderSvc := service.NewOrderService(orderRepo, numbers, resolver, notifier, cfg)
	accountSvc := service.NewAccountService(accountRepo, hasher, tokens, cfg.TokenTTL())

	r := newEngine(cfg)
	Register(r, Deps{
		Tokens:   tokens,
		Accounts: accountSvc,
		Orders:   orderSvc,
		Health:   handler.Health(db, rdb),
	})
	return r
}

func newEngine(cfg *config.Config) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.StoreTimeout(cfg.StoreTimeout()))
	return r
}

// Register mounts every route on r.
func Register(r *gin.Engine, d Deps) {
	accountsH := handler.NewAccountsHandler(d.Accounts)
	ordersH := handler.NewOrdersHandler(d.Orders)

	// Public
	if d.Health != nil {
		r.GET("/health", d.Health)
	}
	r.POST("/accounts/login", accountsH.Login)

	authMW := middleware.RequireAuth(d.Tokens)
	adminOnly := middleware.RequireRole(model.RoleAdmin)
	staff := middleware.RequireRole(model.RolePreparer, model.RoleFrontdesk)

	accounts := r.Group("/accounts", authMW, adminOnly)
	{
		accounts.POST("/register", accountsH.Register)
		accounts.GET("", accountsH.List)
		accounts.DELETE("/:id", accountsH.Delete)
	}

	orders := r.Group("/orders", authMW)
	{
		orders.GET("", adminOnly, ordersH.List)
		orders.GET("/status/:status", staff, ordersH.ListByStatus)
		orders.GET("/:orderNumber", staff, ordersH.GetByNumber)
		orders.POST("", middleware.RequireRole(model.RoleFrontdesk), ordersH.Create)
		orders.PATCH("/:id/status", staff, ordersH.UpdateStatus)
		orders.DELETE("/:id", adminOnly, ordersH.Delete)
	}
}
