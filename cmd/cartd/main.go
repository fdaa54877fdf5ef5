package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/quickbite/cart-engine/internal/catalog"
	"github.com/quickbite/cart-engine/internal/consumer"
	"github.com/quickbite/cart-engine/internal/domain"
	"github.com/quickbite/cart-engine/internal/engine"
	"github.com/quickbite/cart-engine/internal/httpapi"
	"github.com/quickbite/cart-engine/internal/orderapi"
	"github.com/quickbite/cart-engine/internal/store"
)

type Config struct {
	HTTPPort        string
	BackendURL      string
	StoreBackend    string
	RedisAddr       string
	RedisPassword   string
	MongoURI        string
	MongoDBName     string
	SQLitePath      string
	MigrationsPath  string
	KafkaBrokers    string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

func loadConfig() *Config {
	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		BackendURL:      getEnv("BACKEND_URL", "http://localhost:3000"),
		StoreBackend:    getEnv("STORE_BACKEND", "sqlite"),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		MongoURI:        getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDBName:     getEnv("MONGO_DB_NAME", "cartdb"),
		SQLitePath:      getEnv("SQLITE_PATH", "carts.db"),
		MigrationsPath:  getEnv("MIGRATIONS_PATH", "migrations"),
		KafkaBrokers:    getEnv("KAFKA_BROKERS", ""),
		RequestTimeout:  30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
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
	ctx := context.Background()

	st, closeStore, err := buildStore(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to set up cart store: %v", err)
	}
	defer closeStore()
	log.Printf("Using %s cart store", cfg.StoreBackend)

	orderClient := orderapi.NewClient(cfg.BackendURL, cfg.RequestTimeout)
	engines := engine.NewManager(st, orderClient)

	catalogClient := catalog.NewClient(cfg.BackendURL, cfg.RequestTimeout)
	catalogCache := buildCatalogCache(ctx, cfg)
	catalogService := catalog.NewService(catalogClient, catalogCache)

	cartHandler := httpapi.NewCartHandler(engines)
	catalogHandler := httpapi.NewCatalogHandler(catalogService)
	ordersHandler := httpapi.NewOrdersHandler(orderClient, st)

	// Order events clear persisted carts when another device places the
	// order; optional, only runs when brokers are configured.
	consumerCtx, stopConsumer := context.WithCancel(ctx)
	defer stopConsumer()
	if cfg.KafkaBrokers != "" {
		events := consumer.New(st, strings.Split(cfg.KafkaBrokers, ",")...)
		defer events.Close()
		go events.Run(consumerCtx)
		log.Printf("Consuming order events from %s", cfg.KafkaBrokers)
	}

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(httpapi.RequestIDMiddleware)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/restaurants", catalogHandler.ListRestaurants)
		r.Get("/restaurants/{id}", catalogHandler.GetRestaurant)

		r.Group(func(r chi.Router) {
			r.Use(httpapi.SessionMiddleware)
			r.Route("/cart", func(r chi.Router) {
				r.Get("/", cartHandler.GetCart)
				r.Delete("/", cartHandler.ClearCart)
				r.Post("/items", cartHandler.AddItem)
				r.Put("/items/{item_id}", cartHandler.UpdateQuantity)
				r.Delete("/items/{item_id}", cartHandler.RemoveItem)
			})
			r.Post("/checkout", cartHandler.Checkout)
			r.Get("/orders", ordersHandler.ListOrders)
			r.Get("/orders/{id}", ordersHandler.GetOrder)
		})
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(r, "cart-engine"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Cart engine listening on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server...")
	stopConsumer()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("server exited")
}

func buildStore(ctx context.Context, cfg *Config) (store.PersistentStore, func(), error) {
	switch cfg.StoreBackend {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       0,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, nil, err
		}
		return store.NewRedisStore(client), func() { client.Close() }, nil

	case "mongo":
		db, err := store.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
		if err != nil {
			return nil, nil, err
		}
		ms := store.NewMongoStore(db)
		if err := ms.CreateIndexes(ctx); err != nil {
			return nil, nil, err
		}
		return ms, func() { db.Client().Disconnect(ctx) }, nil

	case "sqlite":
		s, err := store.NewSQLiteStore(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		if err := s.RunMigrations(cfg.MigrationsPath); err != nil {
			return nil, nil, err
		}
		return s, func() { s.Close() }, nil

	case "memory":
		return store.NewMemoryStore(), func() {}, nil

	default:
		return nil, nil, errors.New("unknown STORE_BACKEND: " + cfg.StoreBackend)
	}
}

// buildCatalogCache prefers Redis but falls back to a no-op cache so the
// service still runs without one.
func buildCatalogCache(ctx context.Context, cfg *Config) catalog.RestaurantCache {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       1,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("redis unavailable, catalog cache disabled: %v", err)
		return noopCache{}
	}
	return catalog.NewRedisCache(client)
}

type noopCache struct{}

func (noopCache) Get(context.Context, string) (*domain.Restaurant, error) {
	return nil, catalog.ErrCacheMiss
}

func (noopCache) Set(context.Context, string, *domain.Restaurant) error {
	return nil
}
