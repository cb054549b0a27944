package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/victornm/techbridge/internal/api"
	"github.com/victornm/techbridge/internal/assessment"
	"github.com/victornm/techbridge/internal/auth"
	"github.com/victornm/techbridge/internal/cache"
	"github.com/victornm/techbridge/internal/domain"
	"github.com/victornm/techbridge/internal/event"
	"github.com/victornm/techbridge/internal/learningpath"
	"github.com/victornm/techbridge/internal/llm"
	"github.com/victornm/techbridge/internal/migrate"
	"github.com/victornm/techbridge/internal/question"
	"github.com/victornm/techbridge/internal/study"
	"github.com/victornm/techbridge/internal/study/youtube"
	"github.com/victornm/techbridge/internal/telemetry"
	"github.com/victornm/techbridge/internal/user"
)

type Server struct {
	c Config

	eb *event.Bus

	infra struct {
		redis    redis.UniversalClient
		postgres *pgxpool.Pool
		llm      llm.Provider
	}

	service struct {
		assessment   *assessment.Service
		learningPath *learningpath.Service
		study        *study.Service
		user         *user.Service
	}

	verifier auth.Verifier

	http   *http.Server
	grpc   *grpc.Server
	health *health.Server
}

func Init(c Config) (*Server, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("server: invalid config: %w", err)
	}

	s := &Server{c: c}

	s.eb = event.NewBus()

	if err := s.initInfra(); err != nil {
		return nil, fmt.Errorf("server: init infra: %w", err)
	}

	s.initService()
	s.initAPI()
	return s, nil
}

func (s *Server) initInfra() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var err error
	s.infra.redis, err = connectRedis(ctx, s.c)
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}

	s.infra.postgres, err = connectPostgres(ctx, s.c)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}

	s.infra.llm, err = llm.NewProvider(ctx, s.c.LLM)
	if err != nil {
		return fmt.Errorf("llm: %w", err)
	}

	s.verifier, err = newVerifier(s.c)
	if err != nil {
		return fmt.Errorf("auth: %w", err)
	}

	return nil
}

func connectRedis(ctx context.Context, c Config) (redis.UniversalClient, error) {
	r := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    c.Redis.Addrs,
		Password: c.Redis.Pass,
	})

	if err := telemetry.MonitorRedis(r); err != nil {
		return nil, err
	}

	if err := r.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return r, nil
}

func connectPostgres(ctx context.Context, c Config) (*pgxpool.Pool, error) {
	p := c.Postgres
	cc, err := pgxpool.ParseConfig(fmt.Sprintf("postgres://%s:%s@%s/%s", p.User, p.Pass, p.Addr, p.Name))
	if err != nil {
		return nil, err
	}

	db, err := pgxpool.NewWithConfig(ctx, cc)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func newVerifier(c Config) (auth.Verifier, error) {
	switch c.Auth.Mode {
	case AuthFirebase:
		return auth.NewFirebaseVerifier(auth.FirebaseConfig{
			ProjectID: c.Auth.Firebase.ProjectID,
			CertsTTL:  c.Auth.Firebase.CertsTTL,
		}), nil
	case AuthHMAC:
		slog.Warn("server: hmac auth is enabled, tokens are not verified with the identity provider")
		return auth.NewHMACVerifier(auth.HMACConfig{
			Secret:   c.Auth.HMAC.Secret,
			Issuer:   c.Auth.HMAC.Issuer,
			Audience: c.Auth.HMAC.Audience,
		}), nil
	default:
		return nil, fmt.Errorf("unknown auth mode: %q", c.Auth.Mode)
	}
}

func (s *Server) initService() {
	ch := cache.New(cache.Config{
		Redis:  s.infra.redis,
		Prefix: s.c.Redis.Prefix,
		TTL:    s.c.Cache.TTL,
	})

	var grader assessment.Grader = assessment.ExactMatchGrader{}
	if s.c.Assessment.Grading == GradingLLM {
		grader = question.NewLLMGrader(s.infra.llm)
	}

	s.service.assessment = assessment.NewService(assessment.Config{
		Store:     assessment.NewPostgresStore(s.infra.postgres),
		Questions: question.NewGenerator(question.Config{Provider: s.infra.llm}),
		Grader:    grader,
		Locker: assessment.NewRedisLocker(assessment.LockerConfig{
			Redis:  s.infra.redis,
			Prefix: s.c.Redis.Prefix,
			TTL:    s.c.Assessment.LockTTL,
		}),
		EventBus:      s.eb,
		QuestionCount: s.c.Assessment.QuestionCount,
		PassScore:     s.c.Assessment.PassScore,
	})

	s.service.learningPath = learningpath.NewService(learningpath.Config{
		Provider: s.infra.llm,
		Cache:    ch,
	})

	yt := youtube.NewClient(youtube.Config{
		APIKey:   s.c.YouTube.APIKey,
		Language: s.c.YouTube.Language,
	})
	s.service.study = study.NewService(study.Config{
		Provider:    s.infra.llm,
		Searcher:    yt,
		Transcripts: yt,
		Cache:       ch,
	})

	s.service.user = user.NewService(user.Config{
		Store:    user.NewPostgresStore(s.infra.postgres),
		EventBus: s.eb,
	})

	event.On(s.eb, func(_ context.Context, e domain.EventAssessmentGraded) error {
		telemetry.CountGradedAssessment(e.Attempt.Level.String(), e.Attempt.Passed)
		return nil
	})
	event.On(s.eb, func(_ context.Context, _ domain.EventUserCreated) error {
		telemetry.CountUserCreated()
		return nil
	})
}

func (s *Server) initAPI() {
	e := gin.New()
	e.GET("/metrics", gin.WrapH(promhttp.Handler()))
	pprof.Register(e, "/debug/pprof")
	e.Use(gin.Recovery(), telemetry.GinMiddleware(), corsMiddleware(s.c))

	s.grpc = grpc.NewServer(telemetry.GRPCServerOptions()...)
	s.health = health.NewServer()
	healthpb.RegisterHealthServer(s.grpc, s.health)

	api.New(api.Config{
		Router:       e,
		BasePath:     s.c.HTTP.BasePath,
		Verifier:     s.verifier,
		EventBus:     s.eb,
		Assessment:   s.service.assessment,
		LearningPath: s.service.learningPath,
		Study:        s.service.study,
		User:         s.service.user,
		Health: map[string]func(ctx context.Context) error{
			"postgres": s.infra.postgres.Ping,
			"redis":    func(ctx context.Context) error { return s.infra.redis.Ping(ctx).Err() },
		},
		Redis:        s.infra.redis,
		PubsubPrefix: s.c.Redis.Prefix,
	})

	s.http = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.c.HTTP.Port),
		Handler:           e,
		ReadHeaderTimeout: 60 * time.Second,
	}
}

func corsMiddleware(c Config) gin.HandlerFunc {
	cc := cors.Config{
		AllowOrigins:  c.HTTP.CORS.AllowOrigins,
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{"Authorization", "Content-Type"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(cc.AllowOrigins) == 0 {
		cc.AllowAllOrigins = true
	}
	return cors.New(cc)
}

func (s *Server) Start() {
	ctx := context.TODO()

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", s.c.GRPC.Port))
	if err != nil {
		slog.ErrorContext(ctx, "grpc server: listen failed", "error", err)
		panic(err)
	}

	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	var eg errgroup.Group
	eg.Go(func() error {
		slog.InfoContext(ctx, fmt.Sprintf("server: gRPC listening on port %d", s.c.GRPC.Port))
		return s.grpc.Serve(lis)
	})

	eg.Go(func() error {
		slog.InfoContext(ctx, fmt.Sprintf("server: HTTP listening on port %d", s.c.HTTP.Port))
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
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

	s.eb.Stop()

	s.infra.postgres.Close()
	if err := s.infra.redis.Close(); err != nil {
		slog.ErrorContext(ctx, "server: close redis failed", "error", err)
	}

	slog.InfoContext(ctx, "server: shutdown completed")
}

// Migrate applies the database schema.
func Migrate(ctx context.Context, c Config) error {
	db, err := connectPostgres(ctx, c)
	if err != nil {
		return fmt.Errorf("server: postgres: %w", err)
	}
	defer db.Close()

	return migrate.Up(ctx, db)
}
