package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/catalog/internal/auth"
	authdomain "github.com/smallbiznis/catalog/internal/auth/domain"
	"github.com/smallbiznis/catalog/internal/authorization"
	"github.com/smallbiznis/catalog/internal/cache"
	"github.com/smallbiznis/catalog/internal/config"
	"github.com/smallbiznis/catalog/internal/observability"
	obsmiddleware "github.com/smallbiznis/catalog/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/catalog/internal/observability/metrics"
	obstracing "github.com/smallbiznis/catalog/internal/observability/tracing"
	"github.com/smallbiznis/catalog/internal/product"
	productdomain "github.com/smallbiznis/catalog/internal/product/domain"
	"github.com/smallbiznis/catalog/internal/providers"
	"github.com/smallbiznis/catalog/internal/ratelimit"
	"github.com/smallbiznis/catalog/internal/storage"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	cache.Module,
	storage.Module,
	providers.Module,
	authorization.Module,
	auth.Module,
	ratelimit.Module,
	product.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(cfg config.Config, obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.MaxMultipartMemory = maxMultipartMemory
	r.Use(gin.Recovery())
	r.Use(cors.New(corsConfig(cfg.CORSAllowedOrigins)))
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	if httpMetrics != nil {
		r.Use(obsmetrics.GinMiddleware(httpMetrics))
	}
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(cfg config.Config, obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(cfg, obsCfg, httpMetrics)
}

func corsConfig(origins []string) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{"Authorization", "Content-Type", obsmiddleware.HeaderRequestID},
		ExposeHeaders: []string{"Content-Disposition", obsmiddleware.HeaderRequestID},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = origins
	}
	return c
}

func run(lc fx.Lifecycle, shutdowner fx.Shutdowner, cfg config.Config, log *zap.Logger, r *gin.Engine) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return err
			}
			log.Info("http server listening", zap.String("addr", ln.Addr().String()))
			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("http server stopped", zap.Error(err))
					_ = shutdowner.Shutdown(fx.ExitCode(1))
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
	engine       *gin.Engine
	cfg          config.Config
	db           *gorm.DB
	log          *zap.Logger
	authsvc      authdomain.Service
	authzSvc     authorization.Service
	productSvc   productdomain.Service
	storage      storage.Storage
	loginLimiter ratelimit.Limiter
}

type ServerParams struct {
	fx.In

	Gin          *gin.Engine
	Cfg          config.Config
	DB           *gorm.DB
	Log          *zap.Logger
	Authsvc      authdomain.Service
	AuthzSvc     authorization.Service
	ProductSvc   productdomain.Service
	Storage      storage.Storage
	LoginLimiter ratelimit.Limiter `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:       p.Gin,
		cfg:          p.Cfg,
		db:           p.DB,
		log:          p.Log.Named("http.server"),
		authsvc:      p.Authsvc,
		authzSvc:     p.AuthzSvc,
		productSvc:   p.ProductSvc,
		storage:      p.Storage,
		loginLimiter: p.LoginLimiter,
	}

	svc.registerAuthRoutes()
	svc.registerProductRoutes()
	svc.registerStorageRoutes()
	svc.registerTestingRoutes()
	svc.registerFallback()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAuthRoutes() {
	s.engine.POST("/login", s.Login)
	s.engine.POST("/register", s.Register)
	s.engine.POST("/logout", s.AuthRequired(), s.Logout)
	s.engine.GET("/me", s.AuthRequired(), s.Me)
}

func (s *Server) registerProductRoutes() {
	products := s.engine.Group("/products", s.AuthRequired())
	{
		products.GET("", s.authorizeAction(authorization.ObjectProduct, authorization.ActionProductView), s.ListProducts)
		products.POST("", s.authorizeAction(authorization.ObjectProduct, authorization.ActionProductCreate), s.CreateProduct)
		products.GET("/export", s.authorizeAction(authorization.ObjectProduct, authorization.ActionProductExport), s.ExportProducts)
		products.POST("/import", s.authorizeAction(authorization.ObjectProduct, authorization.ActionProductImport), s.ImportProducts)
		products.GET("/:id", s.authorizeAction(authorization.ObjectProduct, authorization.ActionProductView), s.GetProductByID)
		products.POST("/:id", s.authorizeAction(authorization.ObjectProduct, authorization.ActionProductUpdate), s.UpdateProduct)
		products.DELETE("/:id", s.authorizeAction(authorization.ObjectProduct, authorization.ActionProductDelete), s.DeleteProduct)
	}
}

// registerStorageRoutes serves uploaded images when files live on local disk.
func (s *Server) registerStorageRoutes() {
	if s.storage == nil || s.storage.Driver() != storage.DriverLocal {
		return
	}
	s.engine.Static("/storage", s.cfg.Storage.LocalRoot)
}

func (s *Server) registerTestingRoutes() {
	if s.cfg.IsProduction() {
		return
	}
	s.engine.POST("/testing/cleanup", s.TestCleanup)
}

func (s *Server) registerFallback() {
	s.engine.NoRoute(func(c *gin.Context) {
		AbortWithError(c, ErrRouteNotFound)
	})
	s.engine.NoMethod(func(c *gin.Context) {
		AbortWithError(c, &MethodNotAllowedError{
			Method:  c.Request.Method,
			Allowed: allowedMethods(s.engine.Routes(), c.Request.URL.Path),
		})
	})
}
