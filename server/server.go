package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"library/graph"
	"library/graph/dataloader"
	"library/graph/resolvers"
	"library/middleware"
	"library/redis"
	"library/services/auth"
	"library/storage"
	"library/utils"
	"library/websocket"

	"github.com/99designs/gqlgen/graphql/playground"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Config holds HTTP server configuration
type Config struct {
	Port           string
	AllowedOrigins []string
	// EventsEnabled публикует события книг в Redis и открывает /events
	EventsEnabled bool
	Playground    bool
}

// GetConfigFromEnv creates config from environment variables
func GetConfigFromEnv() *Config {
	port := utils.GetEnvWithDefault("APP_CORE_PORT", "")
	if port == "" {
		port = utils.GetEnvWithDefault("PORT", "4000")
	}

	origins := lo.FilterMap(strings.Split(utils.GetEnvWithDefault("CORS_ALLOWED_ORIGINS", "*"), ","),
		func(o string, _ int) (string, bool) {
			o = strings.TrimSpace(o)
			return o, o != ""
		})

	return &Config{
		Port:           port,
		AllowedOrigins: origins,
		EventsEnabled:  utils.GetEnvBool("EVENTS_ENABLED", true),
		Playground:     !utils.IsProduction(),
	}
}

// Addr returns the listen address
func (c *Config) Addr() string {
	return fmt.Sprintf(":%s", c.Port)
}

// Dependencies are the collaborators the router is built over.
// Redis is optional; without it events are disabled.
type Dependencies struct {
	Store storage.Store
	Auth  *auth.Service
	Redis *redis.Service
}

func SetupRouter(config *Config, deps *Dependencies) (*chi.Mux, error) {
	if config == nil {
		config = GetConfigFromEnv()
	}

	r := chi.NewRouter()

	// i18n initialization
	bundle, err := InitI18n()
	if err != nil {
		return nil, err
	}
	// Устанавливаем глобальный bundle для локализации
	utils.SetI18nBundle(bundle)

	var (
		publisher resolvers.EventPublisher
		events    http.Handler
	)
	if config.EventsEnabled && deps.Redis != nil {
		subscriptions := websocket.New(deps.Redis)
		publisher = websocket.NewPublisher(subscriptions)
		events = websocket.NewHandler(subscriptions, config.AllowedOrigins)
	} else if config.EventsEnabled {
		utils.Logger.Warn("Events are enabled but Redis is not configured, /events is unavailable")
	}

	schema, err := graph.NewSchema(resolvers.NewResolver(deps.Store, deps.Auth, publisher))
	if err != nil {
		return nil, err
	}

	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestLoggingMiddleware)

	// Global CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   config.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Accept-Language", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Link", "X-Request-Id"},
		AllowCredentials: !lo.Contains(config.AllowedOrigins, "*"),
		MaxAge:           300,
	}))

	r.Use(middleware.LanguageMiddleware)

	r.Get("/health", healthHandler(deps))

	if events != nil {
		r.Handle("/events", events)
	} else {
		r.Get("/events", func(w http.ResponseWriter, r *http.Request) {
			middleware.WriteGraphQLError(w, http.StatusServiceUnavailable,
				utils.T(r.Context(), "error.internal.events_unavailable"), "SERVICE_UNAVAILABLE")
		})
	}

	r.Group(func(r chi.Router) {
		// r.Use(middleware.HTTPHeadersLoggingMiddleware)
		r.Use(middleware.AuthMiddleware(deps.Auth))
		r.Use(dataloader.Middleware(deps.Store))

		// Playground только для не-продакшн окружения
		if config.Playground {
			r.Handle("/", playground.Handler("Library catalog", "/query"))
		}

		r.Handle("/query", NewGraphQLHandler(schema))
	})

	return r, nil
}

type healthStatus struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// healthHandler проверяет хранилище и, если есть, Redis
func healthHandler(deps *Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := healthStatus{Status: "ok", Checks: map[string]string{}}
		check := func(name string, ping func(context.Context) error) {
			if err := ping(ctx); err != nil {
				utils.Logger.Warn("Health check failed", zap.String("component", name), zap.Error(err))
				status.Status = "unavailable"
				status.Checks[name] = err.Error()
				return
			}
			status.Checks[name] = "ok"
		}

		check("store", deps.Store.Ping)
		if deps.Redis != nil {
			check("redis", deps.Redis.Ping)
		}

		code := http.StatusOK
		if status.Status != "ok" {
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, status)
	}
}
