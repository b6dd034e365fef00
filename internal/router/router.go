package router

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/plms/lab-api/internal/handler"
	analyticshandler "github.com/plms/lab-api/internal/handler/analytics"
	authhandler "github.com/plms/lab-api/internal/handler/auth"
	doctorhandler "github.com/plms/lab-api/internal/handler/doctor"
	orderhandler "github.com/plms/lab-api/internal/handler/order"
	patienthandler "github.com/plms/lab-api/internal/handler/patient"
	samplehandler "github.com/plms/lab-api/internal/handler/sample"
	testhandler "github.com/plms/lab-api/internal/handler/test"
	userhandler "github.com/plms/lab-api/internal/handler/user"
	"github.com/plms/lab-api/internal/middleware"
	"github.com/plms/lab-api/pkg/metrics"
)

type Handlers struct {
	Auth      *authhandler.Handler
	Patient   *patienthandler.Handler
	Doctor    *doctorhandler.Handler
	Test      *testhandler.Handler
	Order     *orderhandler.Handler
	Sample    *samplehandler.Handler
	User      *userhandler.Handler
	Analytics *analyticshandler.Handler
	Health    *handler.HealthHandler
}

type Config struct {
	RateLimitEnabled bool
	RateLimit        rate.Limit
	RateBurst        int
	CORSConfig       middleware.CORSConfig
	Logger           zerolog.Logger
	Metrics          *metrics.Metrics
}

// New assembles the gin engine: ambient middleware, unauthenticated
// health/metrics endpoints, and the /api/v1 surface behind bearer auth.
func New(auth *middleware.AuthMiddleware, h Handlers, cfg Config) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	middleware.RegisterTagNames()
	engine := gin.New()

	engine.Use(
		middleware.RequestID(),
		middleware.Recovery(),
		middleware.Logger(cfg.Logger),
	)
	if cfg.Metrics != nil {
		engine.Use(cfg.Metrics.Middleware())
	}
	engine.Use(middleware.CORS(cfg.CORSConfig))

	if cfg.RateLimitEnabled {
		limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
			Rate:  cfg.RateLimit,
			Burst: cfg.RateBurst,
		})
		engine.Use(limiter.RateLimit())
	}

	engine.GET("/health", h.Health.HealthCheck)
	if cfg.Metrics != nil {
		engine.GET("/metrics", cfg.Metrics.Handler())
	}

	api := engine.Group("/api/v1")

	authed := api.Group("", auth.Authenticate())

	h.Auth.RegisterRoutes(api, authed)
	h.Patient.RegisterRoutes(authed, auth)
	h.Doctor.RegisterRoutes(authed, auth)
	h.Test.RegisterRoutes(authed, auth)
	h.Order.RegisterRoutes(authed, auth)
	h.Sample.RegisterRoutes(authed, auth)
	h.User.RegisterRoutes(authed, auth)
	h.Analytics.RegisterRoutes(authed, auth)

	return engine
}
