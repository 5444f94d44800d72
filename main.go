package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/humanizapp/humanizapp/backend/go-services/handlers"
	"github.com/humanizapp/humanizapp/backend/go-services/internal/birthplan/handler"
	"github.com/humanizapp/humanizapp/backend/go-services/internal/birthplan/service"
	"github.com/humanizapp/humanizapp/backend/go-services/internal/config"
	"github.com/humanizapp/humanizapp/backend/go-services/internal/content"
	"github.com/humanizapp/humanizapp/backend/go-services/internal/database"
	"github.com/humanizapp/humanizapp/backend/go-services/internal/oidc"
	"github.com/humanizapp/humanizapp/backend/go-services/internal/tokens"
	"github.com/humanizapp/humanizapp/backend/go-services/internal/users"
	"github.com/humanizapp/humanizapp/backend/go-services/pkg/logger"
	"github.com/humanizapp/humanizapp/backend/go-services/pkg/metrics"
	"github.com/humanizapp/humanizapp/backend/go-services/pkg/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

var startTime = time.Now()

// backend is everything the router needs. Optional parts are nil.
type backend struct {
	cfg       *config.Config
	redis     *redis.Client
	mongo     *mongo.Client
	users     *users.Service
	plans     service.Service
	contents  content.Repository
	verifiers middleware.AnyVerifier
	oidc      bool
	blacklist *tokens.Blacklist
}

func main() {
	// LOG_LEVEL: debug|info|warn|error|fatal, LOG_FORMAT: text|json
	logger.Init(os.Getenv("LOG_LEVEL"))
	logger.SetFormat(os.Getenv("LOG_FORMAT"))
	logger.Debugf("startup: LOG_LEVEL=%s", logger.LevelString())

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Infof("config loaded: oidc=%v mongo=%v redis=%v jwt_secret_set=%v",
		cfg.OIDC.Issuer() != "", cfg.MongoDB.URI != "", cfg.Redis.Host != "", cfg.JWT.Secret != "")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b := &backend{cfg: cfg}

	if addr := cfg.Redis.Addr(); addr != "" {
		client, err := database.ConnectRedis(ctx, addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Warnf("failed to connect to Redis (%s): %v", addr, err)
		} else {
			b.redis = client
			defer client.Close()
			logger.Infof("connected to Redis at %s", addr)
		}
	}
	b.blacklist = tokens.NewBlacklist(b.redis)

	if cfg.MongoDB.URI != "" {
		// retry with backoff to tolerate startup races
		const maxAttempts = 5
		backoff := time.Second
		var client *mongo.Client
		var errConn error
		for attempt := 1; attempt <= maxAttempts; attempt++ {
			client, errConn = database.ConnectMongo(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout)
			if errConn == nil {
				break
			}
			logger.Warnf("attempt %d/%d: failed to connect to MongoDB: %v", attempt, maxAttempts, errConn)
			if attempt < maxAttempts {
				time.Sleep(backoff)
				backoff *= 2
			}
		}
		if errConn != nil {
			logger.Warnf("could not connect to MongoDB after %d attempts, using in-memory storage: %v", maxAttempts, errConn)
		} else {
			b.mongo = client
			defer func() { _ = client.Disconnect(context.Background()) }()
			db := client.Database(cfg.MongoDB.Database)
			b.users = users.NewService(users.NewMongoUserRepository(db.Collection("users")))
			b.plans = service.NewMongoService(db.Collection("birthPlans"), service.WithUserLookup(b.users))
			b.contents = content.NewMongoRepo(db.Collection("contents"))
		}
	}
	if b.users == nil {
		b.users = users.NewService(users.NewMemoryUserRepository())
		b.plans = service.NewMemoryService(service.WithUserLookup(b.users))
		b.contents = content.NewMemoryRepo()
	}

	if cfg.JWT.Secret != "" {
		b.verifiers = append(b.verifiers, tokens.NewVerifier(cfg.JWT.Secret))
	} else {
		logger.Warnf("JWT_SECRET not set: login is disabled")
	}
	if ov, err := oidc.FromConfig(ctx, cfg.OIDC); err != nil {
		logger.Warnf("failed to initialize OIDC verifier: %v", err)
	} else if ov != nil {
		b.verifiers = append(b.verifiers, ov.WithAccounts(b.users))
		b.oidc = true
	}

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r := newRouter(b)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		logger.Infof("starting humanizapp API on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Infof("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("shutdown: %v", err)
	}
}

func newRouter(b *backend) *gin.Engine {
	cfg := b.cfg
	r := gin.New()

	// permissive CORS for the mobile shell; OPTIONS is answered directly
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Length")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	})
	r.Use(gin.Logger(), gin.Recovery())

	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && b.redis != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			r.Use(middleware.RedisRateLimitMiddleware(b.redis, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win))
		} else {
			r.Use(middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
	}

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})

	// 200 only when every configured dependency is usable
	r.GET("/ready", func(c *gin.Context) {
		deps := map[string]bool{
			"mongo": cfg.MongoDB.URI == "" || b.mongo != nil,
			"redis": cfg.Redis.Host == "" || b.redis != nil,
			"oidc":  cfg.OIDC.Issuer() == "" || cfg.OIDC.ClientID == "" || b.oidc,
			"auth":  len(b.verifiers) > 0,
		}
		ready := true
		for _, ok := range deps {
			ready = ready && ok
		}
		status, code := "ready", http.StatusOK
		if !ready {
			status, code = "not_ready", http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{"status": status, "deps": deps, "uptime": time.Since(startTime).String()})
	})

	handlers.RegisterSwagger(r)
	handlers.NewUserHandler(cfg, b.users, b.verifiers, b.blacklist).Register(r)
	handlers.NewContentHandler(b.contents, b.verifiers, b.blacklist).Register(r)

	plans := r.Group("/")
	if len(b.verifiers) > 0 {
		plans.Use(middleware.AuthMiddleware(b.verifiers, b.blacklist))
	} else {
		logger.Warnf("no token verifier configured: birth plan routes are unauthenticated")
	}
	handler.RegisterBirthPlanRoutes(plans, b.plans)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return r
}
