package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"taskboard/internal/auth"
	"taskboard/internal/cache"
	"taskboard/internal/config"
	"taskboard/internal/handler"
	"taskboard/internal/hierarchy"
	"taskboard/internal/journal"
	"taskboard/internal/maintenance"
	"taskboard/internal/materialize"
	"taskboard/internal/middleware"
	"taskboard/internal/realtime"
	"taskboard/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type Server struct {
	Engine *gin.Engine
	DB     *gorm.DB
	Config *config.Config
	Hub    *realtime.Hub

	redis *redis.Client
	relay *realtime.RedisRelay
	jobs  *maintenance.Scheduler
}

func Init(cfg *config.Config) (*Server, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("❌ failed to connect to DB: %w", err)
	}
	log.Println("✅ Connected to database")

	if err := repository.Migrate(db); err != nil {
		return nil, fmt.Errorf("❌ migration failed: %w", err)
	}

	return New(cfg, db, connectRedis(cfg.RedisURL)), nil
}

// connectRedis returns nil when Redis is not configured or not reachable;
// the service then runs with a local hub and no snapshot cache.
func connectRedis(url string) *redis.Client {
	if url == "" {
		return nil
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		log.Printf("⚠️  Invalid REDIS_URL, running without Redis: %v", err)
		return nil
	}
	// relay publishes carry their own deadline
	opts.ContextTimeoutEnabled = true
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("⚠️  Redis unreachable, running without it: %v", err)
		client.Close()
		return nil
	}
	log.Println("✅ Connected to Redis")
	return client
}

// New wires every component over an open database. rdb may be nil.
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *Server {
	store := repository.NewStore(db)
	hub := realtime.NewHub()
	j := journal.New(store.Activities)

	var (
		emitter hierarchy.Emitter = hub
		relay   *realtime.RedisRelay
	)
	if rdb != nil {
		relay = realtime.NewRedisRelay(hub, rdb, realtime.DefaultChannel)
		emitter = relay
	}

	boards := hierarchy.NewManager(store, j, emitter, cache.NewBoardCache(rdb, cfg.CacheTTL))

	var generator materialize.Generator
	if cfg.GeneratorURL != "" {
		generator = materialize.NewHTTPGenerator(cfg.GeneratorURL, cfg.GeneratorTimeout)
	}
	materializer := materialize.New(boards, generator)

	maint := maintenance.NewService(store, j, materializer, nil)
	jobs := maintenance.NewScheduler(append(maint.Jobs(cfg.ActivityWipeInterval, cfg.ResetInterval), maintenance.Job{
		Name: maintenance.JobReconcile,
		Run: func(ctx context.Context) (any, error) {
			return boards.ReconcileAll(ctx)
		},
	})...)

	tokens := auth.NewTokens(cfg.JWTSecret, cfg.JWTExpiry)

	userHandler := handler.NewUserHandler(store.Users, tokens, boards)
	boardHandler := handler.NewBoardHandler(boards)
	listHandler := handler.NewListHandler(boards)
	taskHandler := handler.NewTaskHandler(boards)
	templateHandler := handler.NewTemplateHandler(materializer)
	boardShareHandler := handler.NewBoardShareHandler(boards)
	labelHandler := handler.NewLabelHandler(boards)
	wsHandler := handler.NewWSHandler(hub, tokens, boards.Authorize)
	healthHandler := handler.NewHealthHandler(db)

	r := gin.Default()

	// Public routes
	r.GET("/healthz", healthHandler.Healthz)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.POST("/auth/signup", userHandler.Register)
	r.POST("/auth/login", userHandler.Login)
	r.GET("/ws", wsHandler.Serve)

	// Protected routes - require authentication
	authorized := r.Group("/")
	authorized.Use(middleware.JWTAuthMiddleware(tokens))
	{
		authorized.GET("/user", userHandler.List)
		authorized.GET("/user/me", userHandler.Me)
		authorized.PUT("/user/me", userHandler.UpdateMe)

		// Board routes
		authorized.POST("/board", boardHandler.Create)
		authorized.GET("/board", boardHandler.GetAll)
		authorized.GET("/board/templates", templateHandler.Templates)
		authorized.POST("/board/template/:templateId", templateHandler.FromTemplate)
		authorized.GET("/board/:id", boardHandler.GetByID)
		authorized.PUT("/board/:id", boardHandler.Update)
		authorized.DELETE("/board/:id", boardHandler.Delete)
		authorized.POST("/board/:id/lists/reorder", boardHandler.ReorderLists)
		authorized.GET("/board/:id/activities", boardHandler.Activities)
		authorized.POST("/autoBoard", templateHandler.AutoBoard)
		authorized.POST("/autoBoard/payload", templateHandler.AutoBoardPayload)

		// Board sharing routes
		authorized.POST("/board/:id/share", boardShareHandler.ShareBoard)
		authorized.DELETE("/board/:id/share/:user_id", boardShareHandler.RemoveShare)
		authorized.GET("/board/:id/share", boardShareHandler.GetBoardShares)
		authorized.GET("/shared-boards", boardShareHandler.GetSharedBoards)

		// Label palette routes
		authorized.GET("/board/:id/labels", labelHandler.GetByBoardID)
		authorized.POST("/board/:id/labels", labelHandler.Create)
		authorized.PUT("/board/:id/labels/:index", labelHandler.Update)
		authorized.DELETE("/board/:id/labels/:index", labelHandler.Delete)

		// List routes
		authorized.POST("/list", listHandler.Create)
		authorized.GET("/list/:id", listHandler.GetByID)
		authorized.PUT("/list/:id", listHandler.Update)
		authorized.DELETE("/list/:id", listHandler.Delete)
		authorized.POST("/list/:id/tasks/reorder", listHandler.ReorderTasks)

		// Task routes
		authorized.POST("/tasks", taskHandler.Create)
		authorized.GET("/tasks/:id", taskHandler.GetByID)
		authorized.PUT("/tasks/:id", taskHandler.Update)
		authorized.DELETE("/tasks/:id", taskHandler.Delete)
		authorized.POST("/tasks/:id/move", taskHandler.MoveTask)
		authorized.GET("/activities/:taskId", taskHandler.Activities)
	}

	if cfg.AdminToken != "" {
		adminHandler := handler.NewAdminHandler(jobs)
		admin := r.Group("/admin")
		admin.Use(middleware.AdminTokenMiddleware(cfg.AdminToken))
		{
			admin.POST("/activity/wipe", adminHandler.WipeActivity)
			admin.POST("/reset", adminHandler.Reset)
			admin.POST("/reconcile", adminHandler.Reconcile)
		}
	} else {
		log.Println("⚠️  ADMIN_TOKEN not set, admin routes disabled")
	}

	return &Server{
		Engine: r,
		DB:     db,
		Config: cfg,
		Hub:    hub,
		redis:  rdb,
		relay:  relay,
		jobs:   jobs,
	}
}

// Handler is the engine behind the CORS policy.
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   s.Config.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", middleware.AdminTokenHeader},
		AllowCredentials: true,
	})
	return c.Handler(s.Engine)
}

func (s *Server) Run() {
	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	if s.relay != nil {
		go func() {
			if err := s.relay.Run(ctx, nil); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("❌ Redis relay stopped: %v", err)
			}
		}()
	}
	s.jobs.Start(ctx)

	srv := &http.Server{
		Addr:    ":" + s.Config.ServerPort,
		Handler: s.Handler(),
	}

	go func() {
		log.Printf("🚀 Server running on port %s\n", s.Config.ServerPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ Failed to listen: %s\n", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("🛑 Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("❌ Server forced to shutdown: %s", err)
	}

	stop()
	s.jobs.Wait()
	if s.redis != nil {
		s.redis.Close()
	}
	log.Println("✅ Server exited properly")
}
