package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/taskflow/internal/auth"
	authdomain "github.com/smallbiznis/taskflow/internal/auth/domain"
	"github.com/smallbiznis/taskflow/internal/auth/session"
	"github.com/smallbiznis/taskflow/internal/authorization"
	"github.com/smallbiznis/taskflow/internal/config"
	"github.com/smallbiznis/taskflow/internal/invitation"
	invitationdomain "github.com/smallbiznis/taskflow/internal/invitation/domain"
	"github.com/smallbiznis/taskflow/internal/observability"
	obsmiddleware "github.com/smallbiznis/taskflow/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/taskflow/internal/observability/metrics"
	obstracing "github.com/smallbiznis/taskflow/internal/observability/tracing"
	"github.com/smallbiznis/taskflow/internal/organization"
	organizationdomain "github.com/smallbiznis/taskflow/internal/organization/domain"
	"github.com/smallbiznis/taskflow/internal/providers"
	"github.com/smallbiznis/taskflow/internal/ratelimit"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	authorization.Module,
	auth.Module,
	organization.Module,
	invitation.Module,
	providers.Module,
	ratelimit.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) (*gin.Engine, error) {
	if err := registerValidators(); err != nil {
		return nil, err
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r, nil
}

func registerGin(cfg config.Config, obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) (*gin.Engine, error) {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, shutdowner fx.Shutdowner, cfg config.Config, log *zap.Logger, r *gin.Engine) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server listening", zap.String("addr", srv.Addr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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
	engine        *gin.Engine
	cfg           config.Config
	log           *zap.Logger
	authsvc       authdomain.Service
	sessions      *session.Manager
	orgSvc        organizationdomain.Service
	invitationSvc invitationdomain.Service
	authLimiter   *ratelimit.AuthLimiter
	obsMetrics    *obsmetrics.Metrics
}

type ServerParams struct {
	fx.In

	Gin           *gin.Engine
	Cfg           config.Config
	Log           *zap.Logger
	Authsvc       authdomain.Service
	Sessions      *session.Manager
	OrgSvc        organizationdomain.Service
	InvitationSvc invitationdomain.Service
	AuthLimiter   *ratelimit.AuthLimiter `optional:"true"`
	ObsMetrics    *obsmetrics.Metrics    `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	s := &Server{
		engine:        p.Gin,
		cfg:           p.Cfg,
		log:           p.Log.Named("http.server"),
		authsvc:       p.Authsvc,
		sessions:      p.Sessions,
		orgSvc:        p.OrgSvc,
		invitationSvc: p.InvitationSvc,
		authLimiter:   p.AuthLimiter,
		obsMetrics:    p.ObsMetrics,
	}

	s.registerAuthRoutes()
	s.registerOrganizationRoutes()

	return s
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAuthRoutes() {
	auth := s.engine.Group("/api/auth")

	auth.POST("/register", s.AuthRateLimit(), s.Register)
	auth.POST("/login", s.AuthRateLimit(), s.Login)
	auth.POST("/refresh-token", s.AuthRateLimit(), s.RefreshToken)
	auth.POST("/logout", s.Logout)
}

func (s *Server) registerOrganizationRoutes() {
	orgs := s.engine.Group("/api/organizations", s.AuthRequired())

	orgs.POST("", s.CreateOrganization)
	orgs.GET("", s.ListOrganizations)
	orgs.GET("/:orgId", s.GetOrganization)
	orgs.PATCH("/:orgId", s.UpdateOrganization)
	orgs.DELETE("/:orgId", s.DeleteOrganization)

	orgs.POST("/:orgId/invite", s.InviteUser)
	orgs.POST("/:orgId/accept", s.AcceptInvitation)
}
