package app

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"messagewall/internal/config"
	"messagewall/internal/database"
	handlers "messagewall/internal/handler"
	"messagewall/internal/middleware"
	"messagewall/internal/models"
	"messagewall/internal/realtime"
	"messagewall/internal/repository"
	"messagewall/internal/service"
	"messagewall/internal/storage"
	"messagewall/internal/transport/ws"
	"messagewall/internal/wall"
)

type App struct {
	DB       *database.DB
	Repo     *repository.Repository
	Services *service.Service
	Broker   *realtime.Broker
	Listener *realtime.Listener
	Board    *wall.Board
	Hub      *ws.Hub
	Handler  http.Handler

	unsubscribe func()
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// connection DB
	db, err := database.ConnectDB(cfg)
	if err != nil {
		return nil, err
	}

	broker := realtime.NewBroker()

	listener := realtime.NewListener(cfg.DB.DSN(), broker)
	if err := listener.Listen(); err != nil {
		db.CloseDB()
		return nil, fmt.Errorf("не удалось подписаться на изменения: %w", err)
	}

	// connection MinIO
	minioClient, err := storage.NewMinIOClient(ctx, cfg.MinIO)
	if err != nil {
		listener.Close()
		db.CloseDB()
		return nil, fmt.Errorf("не удалось инициализировать MinIO: %w", err)
	}

	// enabling dependencies
	repo := repository.NewRepository(db.DB)

	services, err := service.NewService(repo, cfg, minioClient, broker)
	if err != nil {
		listener.Close()
		db.CloseDB()
		return nil, err
	}

	board := wall.NewBoard(repo.Message, services.Image, services.Moderation, broker, wall.Options{
		Mode:             cfg.Wall.SyncMode,
		MaxContentLength: cfg.Wall.MaxContentLength,
	})

	hub := ws.NewHub(board, services.Admin)

	a := &App{
		DB:          db,
		Repo:        repo,
		Services:    services,
		Broker:      broker,
		Listener:    listener,
		Board:       board,
		Hub:         hub,
		unsubscribe: broker.Subscribe(models.TableSettings, hub.OnSettingsChange),
	}
	a.Handler = a.routes(cfg)

	return a, nil
}

func (a *App) routes(cfg *config.Config) http.Handler {
	handler := handlers.NewHandlers(a.Repo, a.Services, a.Board, a.DB, cfg)

	router := mux.NewRouter()

	// setting up routes
	router.HandleFunc("/", handler.HomeHandler).Methods(http.MethodGet)
	router.HandleFunc("/health", handler.HealthHandler).Methods(http.MethodGet)
	router.HandleFunc("/ws", a.Hub.ServeWS)

	api := router.PathPrefix("/api").Subrouter()
	api.Use(mux.MiddlewareFunc(middleware.GzipMiddleware))
	api.HandleFunc("/messages", handler.GetMessages).Methods(http.MethodGet)
	api.HandleFunc("/messages", handler.CreateMessage).Methods(http.MethodPost)
	api.HandleFunc("/stats", handler.StatsHandler).Methods(http.MethodGet)
	api.HandleFunc("/admin/login", handler.Login).Methods(http.MethodPost)

	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(mux.MiddlewareFunc(middleware.AdminMiddleware(a.Services.Admin)))
	admin.HandleFunc("/messages", handler.AdminMessages).Methods(http.MethodGet)
	admin.HandleFunc("/messages/{id}/status", handler.UpdateMessageStatus).Methods(http.MethodPatch)
	admin.HandleFunc("/messages/{id}/archive", handler.ArchiveMessage).Methods(http.MethodPost)
	admin.HandleFunc("/messages/{id}", handler.DeleteMessage).Methods(http.MethodDelete)
	admin.HandleFunc("/settings/moderation", handler.GetModeration).Methods(http.MethodGet)
	admin.HandleFunc("/settings/moderation", handler.UpdateModeration).Methods(http.MethodPut)

	return middleware.Chain(
		router,
		middleware.CORSMiddleware,
		middleware.LoggingMiddleware,
	)
}

// Close releases everything New acquired, board first.
func (a *App) Close() {
	a.unsubscribe()
	a.Board.Close()
	a.Services.Moderation.Close()
	if err := a.Listener.Close(); err != nil {
		log.Printf("Ошибка закрытия слушателя: %v", err)
	}
	if err := a.DB.CloseDB(); err != nil {
		log.Printf("Ошибка закрытия БД: %v", err)
	}
}
