package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"excentrica/internal/auth"
	"excentrica/internal/cache"
	"excentrica/internal/config"
	"excentrica/internal/database"
	"excentrica/internal/handlers"
	"excentrica/internal/logger"
	"excentrica/internal/messaging"
	"excentrica/internal/middleware"
	"excentrica/internal/models"
	"excentrica/internal/repository"
	"excentrica/internal/repository/memstore"
	"excentrica/internal/search"
	"excentrica/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server представляет HTTP сервер API
type Server struct {
	router   *gin.Engine
	config   *config.Config
	db       *database.DB
	nats     *messaging.NATSClient
	bus      *messaging.LocalBus
	valkey   *cache.ValkeyClient
	index    *search.ActivityIndex
	services *service.Services
	repos    *repository.Repositories
}

// NewServer создает сервер и все его зависимости согласно конфигурации
func NewServer(cfg *config.Config) (*Server, error) {
	gin.SetMode(cfg.GinMode)

	s := &Server{config: cfg}

	// Хранилище
	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		logger.Get().Warn("Using in-memory store, data is lost on restart")
		s.repos = memstore.New().Repositories()
	default:
		db, err := database.Connect(cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		s.db = db
		if err := db.RunMigrations(); err != nil {
			s.Cleanup()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		s.repos = repository.NewRepositories(db)
	}

	// Шина событий: NATS Streaming или in-process доставка
	var publisher messaging.Publisher
	if cfg.NATS.Enabled {
		natsClient, err := messaging.NewNATSClient(cfg.NATS)
		if err != nil {
			s.Cleanup()
			return nil, fmt.Errorf("failed to connect to NATS: %w", err)
		}
		s.nats = natsClient
		publisher = natsClient
	} else {
		s.bus = messaging.NewLocalBus()
		publisher = s.bus
	}

	// Поиск по журналу активности
	var index service.ActivityIndex
	if cfg.Elasticsearch.Enabled {
		esIndex, err := search.NewActivityIndex(cfg.Elasticsearch)
		if err != nil {
			s.Cleanup()
			return nil, fmt.Errorf("failed to connect to Elasticsearch: %w", err)
		}
		s.index = esIndex
		index = esIndex
	}

	s.services = service.NewServices(s.repos, publisher, index)

	// Без NATS журнал активности пишется прямо из шины
	if s.bus != nil {
		s.bus.Handle(models.EventActivityLogged, func(data []byte) error {
			return s.services.Activity.Record(context.Background(), data)
		})
	}

	var idempotency handlers.IdempotencyStore
	if cfg.Redis.Enabled {
		valkey, err := cache.NewValkeyClient(cfg.Redis)
		if err != nil {
			s.Cleanup()
			return nil, fmt.Errorf("failed to connect to Valkey: %w", err)
		}
		s.valkey = valkey
		idempotency = valkey
	}

	s.router = gin.New()
	s.router.Use(middleware.Recovery())
	s.router.Use(middleware.RequestID())
	s.router.Use(middleware.Logger())
	s.router.Use(middleware.Metrics())
	s.router.Use(middleware.CORS())
	if cfg.RateLimit.Enabled {
		s.router.Use(middleware.RateLimit(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
	}

	s.setupRoutes(handlers.NewHandlers(s.services, idempotency), auth.NewAuthenticator(cfg.Auth))

	return s, nil
}

// setupRoutes настраивает все API роуты
func (s *Server) setupRoutes(h *handlers.Handlers, authenticator *auth.Authenticator) {
	api := s.router.Group("/api")
	api.Use(middleware.Timeout(s.config.RequestTimeout))
	api.Use(middleware.JWTAuth(authenticator))
	{
		events := api.Group("/events")
		{
			events.POST("/:id/register", h.Register)
			events.DELETE("/:id/register", h.Unregister)
		}

		api.GET("/user/events", h.ListMyRegistrations)
		api.POST("/sorteos/:id/participate", h.JoinSorteo)

		admin := api.Group("/admin")
		admin.Use(middleware.RequireStaff())
		{
			registrations := admin.Group("/event-registrations")
			{
				registrations.GET("", h.ListRegistrations)
				registrations.GET("/verify/:code", h.VerifyCode)
				registrations.PUT("/:id", h.UpdateRegistrationStatus)
				registrations.DELETE("/:id", h.DeleteRegistration)
			}

			admin.GET("/events/:id/registrations/stats", h.RegistrationStats)

			sorteos := admin.Group("/sorteos")
			{
				sorteos.GET("/:id", h.GetSorteo)
				sorteos.GET("/:id/participants", h.ListParticipants)
				sorteos.PUT("/:id/status", h.ChangeSorteoStatus)
				sorteos.POST("/:id/select-winners", h.SelectWinners)
				sorteos.PUT("/participants/:id/claim", h.ClaimPrize)
				sorteos.PUT("/participants/:id/disqualify", h.Disqualify)
			}

			admin.GET("/activity", h.ListActivity)
		}
	}

	s.router.GET("/health", s.healthCheck)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// healthCheck обрабатывает health check запросы
func (s *Server) healthCheck(c *gin.Context) {
	response := gin.H{
		"status":  "ok",
		"service": "excentrica-api",
		"store":   s.config.StoreDriver,
	}

	if s.db != nil {
		dbHealth := s.db.HealthCheck(c.Request.Context())
		response["database"] = dbHealth
		if dbHealth.Status != "healthy" {
			response["status"] = "degraded"
			c.JSON(http.StatusServiceUnavailable, response)
			return
		}
	}

	c.JSON(http.StatusOK, response)
}

// Handler возвращает http.Handler для http.Server
func (s *Server) Handler() http.Handler {
	return s.router
}

// GetRouter возвращает роутер для тестирования
func (s *Server) GetRouter() *gin.Engine {
	return s.router
}

// Services возвращает сервисы, например для seed-команды
func (s *Server) Services() *service.Services {
	return s.services
}

// Repositories возвращает репозитории текущего хранилища
func (s *Server) Repositories() *repository.Repositories {
	return s.repos
}

// Cleanup закрывает соединения
func (s *Server) Cleanup() error {
	log := logger.Get()

	if s.bus != nil {
		done := make(chan struct{})
		go func() {
			s.bus.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			log.Warn("Timed out waiting for local deliveries")
		}
	}

	if s.nats != nil {
		if err := s.nats.Close(); err != nil {
			log.Error("Error closing NATS connection", "error", err)
		}
	}

	if s.valkey != nil {
		if err := s.valkey.Close(); err != nil {
			log.Error("Error closing Valkey connection", "error", err)
		}
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			log.Error("Error closing database connection", "error", err)
			return err
		}
	}

	return nil
}
