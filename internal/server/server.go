package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"gorm.io/gorm"

	checkoutdomain "github.com/shuddhilabs/shuddhi/internal/checkout/domain"
	"github.com/shuddhilabs/shuddhi/internal/config"
	creditdomain "github.com/shuddhilabs/shuddhi/internal/credit/domain"
	"github.com/shuddhilabs/shuddhi/internal/observability"
	obsmiddleware "github.com/shuddhilabs/shuddhi/internal/observability/logger"
	obstracing "github.com/shuddhilabs/shuddhi/internal/observability/tracing"
	plandomain "github.com/shuddhilabs/shuddhi/internal/plan/domain"
	"github.com/shuddhilabs/shuddhi/internal/ratelimit"
	reconciledomain "github.com/shuddhilabs/shuddhi/internal/reconcile/domain"
	"github.com/shuddhilabs/shuddhi/internal/reconcile/webhook"
	subdomain "github.com/shuddhilabs/shuddhi/internal/subscription/domain"
	txndomain "github.com/shuddhilabs/shuddhi/internal/transaction/domain"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config) *gin.Engine {
	return NewEngine(obsCfg)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine          *gin.Engine
	cfg             config.Config
	db              *gorm.DB
	genID           *snowflake.Node
	checkoutSvc     checkoutdomain.Service
	reconcilerSvc   reconciledomain.Service
	creditSvc       creditdomain.Service
	planRepo        plandomain.Repository
	chargeRepo      subdomain.ChargeRepository
	transactionRepo txndomain.Repository
	ingest          *webhook.Ingest
	checkoutLimiter *ratelimit.CheckoutLimiter
}

type ServerParams struct {
	fx.In

	Gin             *gin.Engine
	Cfg             config.Config
	DB              *gorm.DB
	GenID           *snowflake.Node
	CheckoutSvc     checkoutdomain.Service
	ReconcilerSvc   reconciledomain.Service
	CreditSvc       creditdomain.Service
	PlanRepo        plandomain.Repository
	ChargeRepo      subdomain.ChargeRepository
	TransactionRepo txndomain.Repository
	Ingest          *webhook.Ingest
	CheckoutLimiter *ratelimit.CheckoutLimiter `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:          p.Gin,
		cfg:             p.Cfg,
		db:              p.DB,
		genID:           p.GenID,
		checkoutSvc:     p.CheckoutSvc,
		reconcilerSvc:   p.ReconcilerSvc,
		creditSvc:       p.CreditSvc,
		planRepo:        p.PlanRepo,
		chargeRepo:      p.ChargeRepo,
		transactionRepo: p.TransactionRepo,
		ingest:          p.Ingest,
		checkoutLimiter: p.CheckoutLimiter,
	}

	svc.registerAPIRoutes()
	svc.registerWebhookRoutes()
	svc.registerAdminRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	v1 := s.engine.Group("/v1")

	v1.GET("/plans", s.ListPlans)

	checkout := v1.Group("/checkout", s.UserAuthRequired(), s.CheckoutRateLimit())
	{
		checkout.POST("/orders", s.CreateOrderCheckout)
		checkout.POST("/subscriptions", s.CreateSubscriptionCheckout)
	}

	credits := v1.Group("/credits", s.UserAuthRequired())
	{
		credits.GET("/balance", s.GetCreditBalance)
		credits.GET("/grants", s.ListCreditGrants)
		credits.POST("/consume", s.ConsumeCredits)
	}

	v1.GET("/transactions", s.UserAuthRequired(), s.ListTransactions)
	v1.GET("/charges", s.UserAuthRequired(), s.ListCharges)
}

func (s *Server) registerWebhookRoutes() {
	hooks := s.engine.Group("/v1/webhooks")

	// Two registrations, one pipeline: the gateway dashboard configures
	// payment and subscription deliveries as separate webhooks.
	hooks.POST("/razorpay", s.HandleRazorpayWebhook)
	hooks.POST("/razorpay/subscription", s.HandleRazorpayWebhook)
}

func (s *Server) registerAdminRoutes() {
	admin := s.engine.Group("/v1/admin", s.OperatorAuthRequired())

	admin.POST("/recovery/orders", s.RecoverOrder)
	admin.GET("/webhook-events", s.ListWebhookEvents)
}
