package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"library/database"
	"library/redis"
	"library/server"
	"library/services/auth"
	"library/storage"
	"library/utils"

	"github.com/hashicorp/go-multierror"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	exportSchema := flag.Bool("schema", false, "Export GraphQL schema to schema.graphql")
	flag.Parse()

	// Load environment variables BEFORE initializing logger
	if err := godotenv.Load(".env"); err != nil {
		// Use fmt for initial logging since logger is not initialized yet
		fmt.Printf("No .env file found, using environment variables: %v\n", err)
	}

	// Initialize logger AFTER loading environment variables
	utils.InitLogger()
	defer utils.Logger.Sync()

	// Export GraphQL schema
	if *exportSchema {
		if err := server.ExportSchema(""); err != nil {
			utils.Logger.Fatal("Error exporting schema",
				zap.Error(err),
			)
		}
		return
	}

	// Настраиваем graceful shutdown
	// Перехватываем сигналы завершения программы (Ctrl+C, kill, и т.д.)
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	runWebServerWithGracefulShutdown(shutdown)
}

func runWebServerWithGracefulShutdown(shutdown chan os.Signal) {
	secret := os.Getenv("SECRET")
	if secret == "" {
		utils.Logger.Fatal("SECRET is not set")
	}

	startCtx, startCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startCancel()

	store, err := database.NewStore(startCtx, database.GetConfigFromEnv())
	if err != nil {
		utils.Logger.Fatal("Failed to open store", zap.Error(err))
	}

	authService, err := auth.NewService(secret, store)
	if err != nil {
		utils.Logger.Fatal("Failed to create auth service", zap.Error(err))
	}

	config := server.GetConfigFromEnv()

	// Redis нужен только для событий или если хранилище в Redis
	var redisService *redis.Service
	if config.EventsEnabled {
		redisService, err = redis.GetRedisService()
		if err != nil {
			utils.Logger.Warn("Events disabled, Redis is unavailable", zap.Error(err))
			redisService = nil
		}
	}

	router, err := server.SetupRouter(config, &server.Dependencies{
		Store: store,
		Auth:  authService,
		Redis: redisService,
	})
	if err != nil {
		utils.Logger.Fatal("Failed to setup router",
			zap.Error(err))
	}

	// Создаем HTTP-сервер
	srv := &http.Server{
		Addr:              config.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Запускаем сервер в отдельной горутине
	go func() {
		utils.Logger.Info(fmt.Sprintf("Server started on port %s", config.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.Logger.Fatal("Server startup failed",
				zap.Error(err),
			)
		}
	}()

	// Ожидаем сигнал завершения
	<-shutdown
	utils.Logger.Info("Shutdown signal received, gracefully shutting down...")

	// Создаем единый контекст с таймаутом для всего процесса shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := gracefulShutdown(ctx, srv, store); err != nil {
		utils.Logger.Error("Graceful shutdown finished with errors", zap.Error(err))
	} else {
		utils.Logger.Info("Graceful shutdown complete")
	}

	// Финальный сброс логов
	if err := utils.Logger.Sync(); err != nil {
		fmt.Fprintf(os.Stderr, "Error flushing logs: %v\n", err)
	}
}

// gracefulShutdown останавливает сервер, затем хранилище, затем Redis
func gracefulShutdown(ctx context.Context, srv *http.Server, store storage.Store) error {
	var result error

	// 1. Сначала останавливаем HTTP-сервер
	serverCtx, serverCancel := context.WithTimeout(ctx, 15*time.Second)
	defer serverCancel()

	if err := srv.Shutdown(serverCtx); err != nil {
		result = multierror.Append(result, fmt.Errorf("server shutdown: %w", err))
	} else {
		utils.Logger.Info("Server shutdown complete")
	}

	// 2. Закрываем хранилище
	if err := store.Close(); err != nil {
		result = multierror.Append(result, fmt.Errorf("store shutdown: %w", err))
	} else {
		utils.Logger.Info("Store shutdown complete")
	}

	// 3. Закрываем Redis-соединение
	if err := redis.CloseRedisService(); err != nil {
		result = multierror.Append(result, fmt.Errorf("redis shutdown: %w", err))
	} else {
		utils.Logger.Info("Redis shutdown complete")
	}

	return result
}
