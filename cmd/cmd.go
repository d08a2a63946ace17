package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"barkpark-backend/internal/auth"
	"barkpark-backend/internal/config"
	"barkpark-backend/internal/handlers"
	"barkpark-backend/internal/middleware"
	"barkpark-backend/internal/repository"
	"barkpark-backend/internal/services"
	"barkpark-backend/internal/session"
	"barkpark-backend/internal/storage"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func Run() {
	// Load configuration
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Setup logger
	setupLogger(cfg.Log.Level)

	// Connect to database
	db, err := pgxpool.New(context.Background(), cfg.Database.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	// Test database connection
	if err := db.Ping(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping database")
	}
	log.Info().Msg("Database connection established")

	// Session backend
	sessions := newSessionStore(cfg)

	// Image blob backend
	blobs := newBlobStore(cfg)

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	dogRepo := repository.NewDogRepository(db)
	parkRepo := repository.NewParkRepository(db)
	friendRepo := repository.NewFriendRepository(db)
	favoriteRepo := repository.NewFavoriteRepository(db)
	checkInRepo := repository.NewCheckInRepository(db)
	imageRepo := repository.NewImageRepository(db)

	// Initialize services
	hasher := auth.NewHasher(cfg.Auth.BcryptCost)
	userService := services.NewUserService(userRepo, hasher)
	dogService := services.NewDogService(dogRepo)
	parkService := services.NewParkService(parkRepo)
	socialService := services.NewSocialService(friendRepo, favoriteRepo, checkInRepo, userRepo, dogRepo)
	imageService := services.NewImageService(imageRepo, blobs)

	// Initialize handlers
	userHandler := handlers.NewUserHandler(userService, dogService, parkService, socialService, sessions)
	dogHandler := handlers.NewDogHandler(dogService)
	parkHandler := handlers.NewParkHandler(parkService)
	imageHandler := handlers.NewImageHandler(userService, dogService, imageService)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	allowedOrigins := cfg.Server.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:3000"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
	}))
	r.Use(middleware.Metrics)
	r.Use(middleware.WithSession(sessions))

	// Routes
	r.Route("/users", func(r chi.Router) {
		r.Post("/", userHandler.Create)
		r.Get("/", userHandler.Search)
		r.Post("/login", userHandler.Login)

		r.Route("/{user_id}", func(r chi.Router) {
			r.Get("/", userHandler.Read)
			r.Put("/", userHandler.Update)
			r.Delete("/", userHandler.Delete)
			r.Get("/logout", userHandler.Logout)
			r.Put("/password", userHandler.UpdatePassword)

			r.Get("/friends", userHandler.ListFriends)
			r.Post("/friends/{friend_id}", userHandler.AddFriend)
			r.Delete("/friends/{friend_id}", userHandler.RemoveFriend)

			r.Get("/favorites", userHandler.ListFavorites)
			r.Post("/favorites/{park_id}", userHandler.AddFavorite)
			r.Delete("/favorites/{park_id}", userHandler.RemoveFavorite)

			r.Get("/checkins", userHandler.ListCheckIns)
			r.Post("/checkins", userHandler.CheckIn)
			r.Delete("/checkins", userHandler.CheckOut)

			r.Get("/image", imageHandler.GetUserImage)
			r.Post("/image", imageHandler.AddUserImage)
			r.Put("/image", imageHandler.UpdateUserImage)
			r.Delete("/image", imageHandler.RemoveUserImage)
		})
	})

	r.Route("/dogs", func(r chi.Router) {
		r.Post("/", dogHandler.Create)

		r.Route("/{dog_id}", func(r chi.Router) {
			r.Get("/", dogHandler.Read)
			r.Put("/", dogHandler.Update)
			r.Delete("/", dogHandler.Delete)

			r.Get("/image", imageHandler.GetDogImage)
			r.Post("/image", imageHandler.AddDogImage)
			r.Put("/image", imageHandler.UpdateDogImage)
			r.Delete("/image", imageHandler.RemoveDogImage)
		})
	})

	r.Route("/parks", func(r chi.Router) {
		r.Get("/", parkHandler.List)
		r.Get("/{park_id}", parkHandler.Read)
	})

	r.Handle("/metrics", promhttp.Handler())

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("host", cfg.Server.Host).
			Int("port", cfg.Server.Port).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// newSessionStore selects the session backend from configuration.
func newSessionStore(cfg *config.Config) session.Store {
	switch cfg.Session.Backend {
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			log.Fatal().Err(err).Msg("Failed to ping Redis")
		}
		log.Info().Str("addr", cfg.Redis.Addr).Msg("Using Redis session store")
		return session.NewRedisStore(rdb, time.Duration(cfg.Session.TTL))
	default:
		log.Info().Msg("Using in-memory session store")
		return session.NewMemoryStore(time.Duration(cfg.Session.TTL))
	}
}

// newBlobStore selects the image blob backend from configuration.
func newBlobStore(cfg *config.Config) storage.Store {
	switch cfg.Storage.Backend {
	case "s3":
		store, err := storage.NewS3Store(
			context.Background(),
			cfg.Storage.AWS.Region,
			cfg.Storage.AWS.Bucket,
			cfg.Storage.AWS.AccessKey,
			cfg.Storage.AWS.SecretKey,
			cfg.Storage.AWS.Endpoint,
		)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create S3 store")
		}
		log.Info().Str("bucket", cfg.Storage.AWS.Bucket).Msg("Using S3 image store")
		return store
	default:
		root := cfg.Storage.LocalPath
		if root == "" {
			root = "images"
		}
		store, err := storage.NewLocalStore(root)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create local store")
		}
		log.Info().Str("path", root).Msg("Using local image store")
		return store
	}
}

// setupLogger configures zerolog logger
func setupLogger(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
