package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"consult-backend/internal/appointments"
	"consult-backend/internal/auth"
	"consult-backend/internal/cache"
	"consult-backend/internal/clock"
	"consult-backend/internal/config"
	"consult-backend/internal/db"
	"consult-backend/internal/middleware"
	"consult-backend/internal/reviews"
	"consult-backend/internal/validation"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	stores, err := db.Open(connectCtx, cfg)
	if err != nil {
		logger.Error("store connection failed", slog.String("driver", cfg.StoreDriver), slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("store connected", slog.String("driver", stores.Driver))
	defer stores.Close(context.Background())

	var cacheStore cache.Cache = cache.NewNoop()
	if cfg.RedisURL != "" || cfg.RedisAddr != "" {
		var redisCache *cache.RedisCache
		var err error
		if cfg.RedisURL != "" {
			redisCache, err = cache.NewRedisFromURL(cfg.RedisURL)
		} else {
			redisCache = cache.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		}
		if err != nil {
			logger.Error("redis connection failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		if err := redisCache.Ping(connectCtx); err != nil {
			logger.Error("redis connection failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		if cfg.RedisURL != "" {
			logger.Info("redis connected (url)")
		} else {
			logger.Info("redis connected", slog.String("addr", cfg.RedisAddr))
		}
		defer redisCache.Close()
		cacheStore = redisCache
	}

	var jwtManager *auth.Manager
	if cfg.JWTSecret != "" {
		jwtManager = &auth.Manager{
			Secret:    []byte(cfg.JWTSecret),
			AccessTTL: time.Duration(cfg.AccessTTLMinutes) * time.Minute,
			Issuer:    "consult-backend",
		}
	} else {
		logger.Warn("JWT_SECRET not set, authenticated routes disabled")
	}

	clk := clock.System{Location: cfg.Timezone}
	val := validation.New()

	appointmentService := appointments.NewService(stores.Appointments, stores.Users, clk, appointments.Options{
		Cache:    cacheStore,
		CacheTTL: cfg.CacheTTL(),
		Location: cfg.Timezone,
	})
	appointmentHandler := appointments.NewHandler(appointmentService, val, logger)

	reviewService := reviews.NewService(stores.Reviews, stores.Appointments, clk)
	reviewHandler := reviews.NewHandler(reviewService, val, logger)

	r := chi.NewRouter()
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.FrontendOrigins))
	r.Use(chiMiddleware.Timeout(30 * time.Second))

	bookingLimiter := middleware.NewRateLimiter(cfg.RateLimitBookings, time.Duration(cfg.RateLimitWindowSec)*time.Second)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Route("/api/v1", func(api chi.Router) {
		api.Get("/consultants/{id}/availability", appointmentHandler.Availability)
		api.Get("/consultants/{id}/reviews", reviewHandler.ListByConsultant)
		api.Get("/consultants/{id}/rating", reviewHandler.Rating)
		api.Get("/appointments/{id}/review", reviewHandler.GetByAppointment)

		api.Group(func(protected chi.Router) {
			protected.Use(middleware.Authenticate(jwtManager))

			protected.With(bookingLimiter.Middleware).Post("/appointments", appointmentHandler.Book)
			protected.Get("/appointments/{id}", appointmentHandler.Get)
			protected.Post("/appointments/{id}/confirm", appointmentHandler.Confirm)
			protected.Post("/appointments/{id}/cancel", appointmentHandler.Cancel)
			protected.Post("/appointments/{id}/complete", appointmentHandler.Complete)
			protected.Put("/appointments/{id}/meeting-link", appointmentHandler.SetMeetingLink)
			protected.Post("/appointments/{id}/payment", appointmentHandler.RecordPayment)
			protected.Get("/clients/{id}/appointments", appointmentHandler.ListByClient)
			protected.Get("/consultants/{id}/appointments", appointmentHandler.ListByConsultant)
			protected.Get("/consultants/{id}/stats", appointmentHandler.Stats)

			protected.Post("/appointments/{id}/review", reviewHandler.Create)
			protected.Put("/reviews/{id}", reviewHandler.Update)
			protected.Delete("/reviews/{id}", reviewHandler.Delete)
		})
	})

	srv := &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("server started", slog.String("addr", cfg.ServerAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if interval := cfg.SweepInterval(); interval > 0 {
		sweeper := appointments.NewSweeper(appointmentService, interval, logger)
		g.Go(func() error {
			return sweeper.Run(gctx)
		})
	} else {
		logger.Info("auto-complete sweeper disabled")
	}

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown error", slog.String("error", err.Error()))
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("server stopped")
}
