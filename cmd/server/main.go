package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lqhuy/marketplace/internal/adapter/auth"
	"github.com/lqhuy/marketplace/internal/adapter/handler"
	"github.com/lqhuy/marketplace/internal/adapter/storage"
	"github.com/lqhuy/marketplace/internal/core/service"
)

type config struct {
	httpPort       string
	mysqlDSN       string
	redisAddr      string
	jwtSecret      string
	migrationsDir  string
	basketCacheTTL time.Duration
}

func loadConfig() config {
	ttlSeconds, err := strconv.Atoi(getEnv("BASKET_CACHE_TTL_SECONDS", "30"))
	if err != nil || ttlSeconds <= 0 {
		ttlSeconds = 30
	}
	return config{
		httpPort:       getEnv("HTTP_PORT", "8080"),
		mysqlDSN:       getEnv("MYSQL_DSN", "root:root@tcp(localhost:3306)/marketplace?parseTime=true&multiStatements=true"),
		redisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
		jwtSecret:      getEnv("JWT_SECRET", "dev-secret-change-in-production"),
		migrationsDir:  getEnv("MIGRATIONS_DIR", "internal/adapter/storage/migrations"),
		basketCacheTTL: time.Duration(ttlSeconds) * time.Second,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	cfg := loadConfig()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize MySQL
	db, err := storage.Open(cfg.mysqlDSN)
	if err != nil {
		log.Fatalf("failed to connect mysql: %v", err)
	}
	log.Println("connected to mysql")

	if err := storage.RunMigrations(db, cfg.migrationsDir); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}
	log.Println("migrations applied")

	// Initialize Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.redisAddr,
		PoolSize: 100,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("failed to connect redis: %v", err)
	}
	log.Println("connected to redis")

	// Initialize adapters
	basketStore := storage.NewMySQLBasketStore(db)
	productStore := storage.NewMySQLProductStore(db)
	userStore := storage.NewMySQLUserStore(db)
	basketCache := storage.NewRedisBasketCache(rdb, cfg.basketCacheTTL)
	txManager := storage.NewTxManager(db)
	jwtGateway := auth.NewJWTGateway(cfg.jwtSecret, userStore)

	// Initialize services
	basketService := service.NewBasketService(basketStore, productStore, basketCache, txManager)
	authService := service.NewAuthService(userStore, jwtGateway)
	productService := service.NewProductService(productStore)

	// Initialize HTTP server
	httpHandler := handler.NewHTTPHandler(basketService, authService, productService)
	httpServer := &http.Server{
		Addr:    ":" + cfg.httpPort,
		Handler: handler.NewRouter(httpHandler, jwtGateway),
	}

	go func() {
		log.Printf("HTTP server listening on :%s", cfg.httpPort)
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("HTTP server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)
	log.Println("HTTP server stopped")

	rdb.Close()
	db.Close()
	log.Println("connections closed")
}
