package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/unveil/mediaquiz/internal/analysis"
	"github.com/unveil/mediaquiz/internal/api"
	"github.com/unveil/mediaquiz/internal/event"
	"github.com/unveil/mediaquiz/internal/history"
	"github.com/unveil/mediaquiz/internal/quiz"
	"github.com/unveil/mediaquiz/internal/store"
	"github.com/unveil/mediaquiz/internal/stories"
	"github.com/unveil/mediaquiz/internal/telemetry"
)

type RedisConfig struct {
	Addrs  []string
	Pass   string
	Prefix string
}

type PostgresConfig struct {
	Addr string
	User string
	Pass string
	Name string
}

type Config struct {
	HTTP struct {
		Port int32
		// AllowedOrigins is used for CORS and websocket origin checks.
		AllowedOrigins []string
	}

	GRPC struct {
		Port int32
	}

	Log telemetry.LogConfig

	Redis struct {
		Store  RedisConfig
		Pubsub RedisConfig
	}

	Postgres struct {
		// History is optional. An empty Addr disables the quiz history.
		History PostgresConfig
	}

	Upstream struct {
		BaseURL string
		Timeout time.Duration
		// RateLimit is in requests per second. Zero means unlimited.
		RateLimit float64
		Burst     int
	}

	Stories struct {
		RefreshInterval time.Duration
		Debounce        time.Duration
		Count           int
	}

	Quiz struct {
		SessionTTL    time.Duration
		SweepInterval time.Duration
	}
}

// DefaultConfig returns the values used for every key the config file leaves out.
func DefaultConfig() Config {
	var c Config
	c.HTTP.Port = 8080
	c.HTTP.AllowedOrigins = []string{"http://localhost:3000"}
	c.GRPC.Port = 8081
	c.Log.Level = "info"
	c.Log.MaxSizeMB = 100
	c.Log.MaxBackups = 3
	c.Log.MaxAgeDays = 28
	c.Redis.Store = RedisConfig{Addrs: []string{"localhost:6379"}, Prefix: "unveil"}
	c.Redis.Pubsub = RedisConfig{Addrs: []string{"localhost:6379"}, Prefix: "unveil"}
	c.Upstream.BaseURL = "http://localhost:8000"
	c.Upstream.Timeout = 30 * time.Second
	c.Upstream.RateLimit = 10
	c.Upstream.Burst = 5
	c.Stories.RefreshInterval = 5 * time.Minute
	c.Stories.Debounce = 500 * time.Millisecond
	c.Stories.Count = 10
	c.Quiz.SessionTTL = 30 * time.Minute
	c.Quiz.SweepInterval = time.Minute
	return c
}

type Server struct {
	c Config

	eb        *event.Bus
	logCloser io.Closer

	infra struct {
		redis struct {
			store  redis.UniversalClient
			pubsub redis.UniversalClient
		}

		postgres struct {
			history *pgxpool.Pool
		}
	}

	service struct {
		quiz     *quiz.Manager
		store    *store.Store
		analysis *analysis.Client
		feed     *stories.Feed
		history  *history.Service
	}

	api    *api.API
	http   *http.Server
	grpc   *grpc.Server
	health *health.Server

	ctx     context.Context
	cancel  context.CancelFunc
	started atomic.Bool
	done    chan struct{}
}

func Init(c Config) (_ *Server, err error) {
	s := &Server{c: c, done: make(chan struct{})}
	s.ctx, s.cancel = context.WithCancel(context.Background())

	l, closer, err := telemetry.SetupLogger(c.Log)
	if err != nil {
		s.cancel()
		return nil, fmt.Errorf("server: init logger: %w", err)
	}
	s.logCloser = closer

	defer func() {
		if err != nil {
			s.cancel()
			s.closeInfra(context.Background())
			_ = s.logCloser.Close()
		}
	}()

	s.eb = event.NewBus()

	if err := s.initInfra(); err != nil {
		return nil, fmt.Errorf("server: init infra: %w", err)
	}

	if err := s.initService(); err != nil {
		return nil, fmt.Errorf("server: init service: %w", err)
	}

	s.initAPI(l)
	return s, nil
}

func (s *Server) initInfra() error {
	if err := s.initRedis(); err != nil {
		return fmt.Errorf("redis: %w", err)
	}

	if err := s.initPostgres(); err != nil {
		return fmt.Errorf("postgres: %w", err)
	}

	return nil
}

func (s *Server) initRedis() error {
	connect := func(name string, rc RedisConfig) (redis.UniversalClient, error) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		r := redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs:    rc.Addrs,
			Password: rc.Pass,
		})

		if err := telemetry.MonitorRedis(r, name); err != nil {
			_ = r.Close()
			return nil, err
		}

		if err := r.Ping(ctx).Err(); err != nil {
			_ = r.Close()
			return nil, err
		}

		return r, nil
	}

	var err error
	s.infra.redis.store, err = connect("store", s.c.Redis.Store)
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}

	s.infra.redis.pubsub, err = connect("pubsub", s.c.Redis.Pubsub)
	if err != nil {
		return fmt.Errorf("pubsub: %w", err)
	}

	return nil
}

func (s *Server) initPostgres() error {
	pc := s.c.Postgres.History
	if pc.Addr == "" {
		slog.Info("server: quiz history disabled, no postgres address")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cc, err := pgxpool.ParseConfig(fmt.Sprintf("postgres://%s:%s@%s/%s", pc.User, pc.Pass, pc.Addr, pc.Name))
	if err != nil {
		return fmt.Errorf("history: %w", err)
	}

	db, err := pgxpool.NewWithConfig(ctx, cc)
	if err != nil {
		return fmt.Errorf("history: %w", err)
	}

	if err := db.Ping(ctx); err != nil {
		db.Close()
		return fmt.Errorf("history: %w", err)
	}

	s.infra.postgres.history = db
	return nil
}

func (s *Server) initService() error {
	limit := rate.Inf
	if s.c.Upstream.RateLimit > 0 {
		limit = rate.Limit(s.c.Upstream.RateLimit)
	}
	limiter := rate.NewLimiter(limit, max(s.c.Upstream.Burst, 1))
	hc := &http.Client{Timeout: s.c.Upstream.Timeout}

	s.service.quiz = quiz.NewManager(quiz.Config{
		EventBus:      s.eb,
		SessionTTL:    s.c.Quiz.SessionTTL,
		SweepInterval: s.c.Quiz.SweepInterval,
	})

	s.service.store = store.New(store.Config{
		EventBus: s.eb,
		Redis:    s.infra.redis.store,
		Prefix:   s.c.Redis.Store.Prefix,
	})

	s.service.analysis = analysis.NewClient(analysis.Config{
		BaseURL:    s.c.Upstream.BaseURL,
		HTTPClient: hc,
		Limiter:    limiter,
	})

	s.service.feed = stories.NewFeed(stories.FeedConfig{
		Fetcher: stories.NewClient(stories.ClientConfig{
			BaseURL:    s.c.Upstream.BaseURL,
			HTTPClient: hc,
			Limiter:    limiter,
		}),
		RefreshInterval: s.c.Stories.RefreshInterval,
		Debounce:        s.c.Stories.Debounce,
		Count:           s.c.Stories.Count,
	})

	if s.infra.postgres.history != nil {
		s.service.history = history.NewService(history.Config{
			DB:       s.infra.postgres.history,
			EventBus: s.eb,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.service.history.EnsureSchema(ctx); err != nil {
			return err
		}
	}

	return nil
}

func (s *Server) initAPI(l *slog.Logger) {
	e := gin.New()
	e.GET("/metrics", gin.WrapH(promhttp.Handler()))
	pprof.Register(e, "/debug/pprof")
	e.Use(gin.Recovery(), telemetry.GinMiddleware())
	e.Use(cors.New(cors.Config{
		AllowOrigins:     s.c.HTTP.AllowedOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	s.grpc = grpc.NewServer(telemetry.GRPCServerInterceptors(l)...)
	s.health = health.NewServer()
	healthpb.RegisterHealthServer(s.grpc, s.health)

	c := api.Config{
		Router:         e,
		EventBus:       s.eb,
		Quiz:           s.service.quiz,
		Analyzer:       s.service.analysis,
		Feed:           s.service.feed,
		Preferences:    s.service.store,
		Redis:          s.infra.redis.pubsub,
		PubsubPrefix:   s.c.Redis.Pubsub.Prefix,
		AllowedOrigins: s.c.HTTP.AllowedOrigins,
	}
	if s.service.history != nil {
		c.History = s.service.history
	}
	s.api = api.New(c)

	s.http = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.c.HTTP.Port),
		Handler:           e,
		ReadHeaderTimeout: 60 * time.Second,
	}
}

// Start serves HTTP and gRPC and runs the background loops until Shutdown.
func (s *Server) Start() {
	s.started.Store(true)
	defer close(s.done)

	ctx := s.ctx
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", s.c.GRPC.Port))
	if err != nil {
		slog.ErrorContext(ctx, "grpc server: listen failed", "error", err)
		panic(err)
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		slog.InfoContext(ctx, "server: gRPC listening", "port", s.c.GRPC.Port)
		s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
		return s.grpc.Serve(lis)
	})

	eg.Go(func() error {
		slog.InfoContext(ctx, "server: HTTP listening", "port", s.c.HTTP.Port)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	eg.Go(func() error {
		return s.service.feed.Run(ctx)
	})

	eg.Go(func() error {
		return s.service.quiz.Run(ctx)
	})

	err = eg.Wait()
	if err != nil {
		slog.ErrorContext(ctx, "server: shutdown with error", "error", err)
	}
}

func (s *Server) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.health.Shutdown()
	s.grpc.GracefulStop()
	if err := s.http.Shutdown(ctx); err != nil {
		slog.ErrorContext(ctx, "server: shutdown HTTP failed", "error", err)
	}

	s.cancel()
	if s.started.Load() {
		<-s.done
	}

	s.api.Close()
	s.service.quiz.Close()
	s.eb.Stop()

	s.closeInfra(ctx)

	slog.InfoContext(ctx, "server: shutdown completed")
	_ = s.logCloser.Close()
}

func (s *Server) closeInfra(ctx context.Context) {
	if s.infra.postgres.history != nil {
		s.infra.postgres.history.Close()
	}
	for _, r := range []redis.UniversalClient{s.infra.redis.store, s.infra.redis.pubsub} {
		if r == nil {
			continue
		}
		if err := r.Close(); err != nil {
			slog.ErrorContext(ctx, "server: close redis failed", "error", err)
		}
	}
}
