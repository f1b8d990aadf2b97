package app

import (
	"context"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/knograph/knograph-backend/internal/clients/youtube"
	"github.com/knograph/knograph-backend/internal/db"
	"github.com/knograph/knograph-backend/internal/handlers"
	"github.com/knograph/knograph-backend/internal/knowledge"
	"github.com/knograph/knograph-backend/internal/observability"
	"github.com/knograph/knograph-backend/internal/pathing"
	"github.com/knograph/knograph-backend/internal/platform/groq"
	"github.com/knograph/knograph-backend/internal/platform/logger"
	"github.com/knograph/knograph-backend/internal/repos"
	"github.com/knograph/knograph-backend/internal/server"
	"github.com/knograph/knograph-backend/internal/services"
)

type App struct {
	Log          *logger.Logger
	DB           *gorm.DB
	Router       *gin.Engine
	Cfg          Config
	Graphs       *knowledge.Store
	otelShutdown func(context.Context) error
}

func New(ctx context.Context) (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading configuration...")
	cfg := LoadConfig()

	otelShutdown := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: "knograph-backend",
		Environment: cfg.Environment,
		Version:     cfg.Version,
	})

	dbService, err := db.NewService(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init database: %w", err)
	}
	if err := dbService.AutoMigrateAll(); err != nil {
		log.Sync()
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	theDB := dbService.DB()

	// Graph: Neo4j when configured, JSON artifact otherwise. A load
	// failure degrades to an empty graph instead of refusing to boot.
	var loader knowledge.Loader
	if neoLoader, err := knowledge.NewNeo4jLoaderFromEnv(log); err != nil {
		log.Warn("Neo4j init failed, falling back to file loader", "error", err)
	} else if neoLoader != nil {
		loader = neoLoader
	}
	if loader == nil {
		loader = knowledge.FileLoader{Path: cfg.GraphPath}
	}
	graphs := knowledge.NewStore(ctx, loader, log)

	// Repos
	sessionRepo := repos.NewSessionRepo(theDB, log)
	profileRepo := repos.NewProfileRepo(theDB, log)
	unknownQueryRepo := repos.NewUnknownQueryRepo(theDB, log)

	// Optional collaborators
	model, err := groq.NewFromEnv(log)
	if err != nil {
		log.Warn("Model client init failed, explanations fall back to canned text", "error", err)
	}
	finder, err := youtube.NewFromEnv(log)
	if err != nil {
		log.Warn("YouTube client init failed, media recommendations disabled", "error", err)
	}

	// Services
	engine := pathing.NewEngine(log)
	sessionSvc := services.NewSessionService(ctx, sessionRepo, log)
	profileSvc := services.NewProfileService(profileRepo, log)
	explainerSvc := services.NewExplainerService(model, log)
	mediaSvc := services.NewMediaService(finder, log)
	chatSvc := services.NewChatService(graphs, engine, sessionSvc, profileSvc, explainerSvc, mediaSvc, unknownQueryRepo, log)

	// Handlers
	router := server.NewRouter(server.RouterConfig{
		Log:            log,
		ChatHandler:    handlers.NewChatHandler(log, chatSvc),
		SessionHandler: handlers.NewSessionHandler(log, sessionSvc),
		GraphHandler:   handlers.NewGraphHandler(log, graphs),
	})

	return &App{
		Log:          log,
		DB:           theDB,
		Router:       router,
		Cfg:          cfg,
		Graphs:       graphs,
		otelShutdown: otelShutdown,
	}, nil
}

func (a *App) Run() error {
	if a == nil || a.Router == nil {
		return fmt.Errorf("app not initialized")
	}
	a.Log.Info("Starting server", "addr", a.Cfg.Addr)
	return a.Router.Run(a.Cfg.Addr)
}

func (a *App) Close(ctx context.Context) {
	if a == nil {
		return
	}
	if a.otelShutdown != nil {
		if err := a.otelShutdown(ctx); err != nil {
			a.Log.Warn("otel shutdown failed", "error", err)
		}
	}
	a.Log.Sync()
}
