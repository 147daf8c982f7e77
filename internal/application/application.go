package application

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/wovlf02/Cooperate-Up-sub001/internal/config"
	"github.com/wovlf02/Cooperate-Up-sub001/internal/database"
	"github.com/wovlf02/Cooperate-Up-sub001/internal/handler"
	"github.com/wovlf02/Cooperate-Up-sub001/internal/router"
	"github.com/wovlf02/Cooperate-Up-sub001/internal/service"
	"github.com/wovlf02/Cooperate-Up-sub001/internal/store"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// API is the HTTP + WebSocket realtime application.
type API struct {
	cfg   *config.Config
	srv   *http.Server
	db    *gorm.DB
	chat  *service.ChatService
	calls *service.CallCoordinator
	log   *zap.Logger
}

// NewAPI creates the application: validates config, runs migrations, opens
// the database and wires the registry, services and handlers. All shared
// state is constructed here once and injected; there are no package-level
// singletons.
func NewAPI(cfg *config.Config) (*API, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := database.MigrateUp(cfg.DatabaseURL()); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	db, err := database.Open(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}

	logger, _ := zap.NewProduction()
	if cfg.AppEnv == "development" {
		logger, _ = zap.NewDevelopment()
	}

	users := store.NewGormUserStore(db)
	memberships := store.NewGormMembershipStore(db)
	messages := store.NewGormMessageStore(db)

	registry := service.NewRoomRegistry(logger)
	presence := service.NewPresenceManager(registry, memberships, logger)
	chat := service.NewChatService(registry, messages, cfg.TypingTTL, logger)
	calls := service.NewCallCoordinator(registry, cfg.SpeakingTTL, logger)

	gateway := handler.NewGateway(users, presence, chat, calls, handler.GatewayConfig{
		JWTSecret:       cfg.JWTSecret,
		ReadBufferSize:  cfg.WSReadBufferSize,
		WriteBufferSize: cfg.WSWriteBufferSize,
		MaxMessageSize:  cfg.WSMaxMessageSize,
		SendBufferSize:  cfg.WSSendBufferSize,
	}, logger)
	rooms := handler.NewRoomHandler(presence, chat, calls, cfg.HistoryLimit)
	health := handler.NewHealthHandler()

	r := router.New(gateway, rooms, health)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return &API{cfg: cfg, srv: srv, db: db, chat: chat, calls: calls, log: logger}, nil
}

// Run starts the expiry sweeps and the HTTP server, and blocks until ctx is
// cancelled; then shuts down gracefully.
func (a *API) Run(ctx context.Context) error {
	defer a.log.Sync()

	host := a.cfg.AppHost
	if host == "0.0.0.0" {
		host = "localhost"
	}
	base := "http://" + host + ":" + a.cfg.HTTPPort
	log.Printf("HTTP server listening on %s", a.srv.Addr)
	log.Printf("  Health:       %s/health", base)
	log.Printf("  Ready:        %s/ready", base)
	log.Printf("  Presence:     %s/rooms/:id/online", base)
	log.Printf("  WebSocket:    ws://%s:%s/ws?token=...", host, a.cfg.HTTPPort)

	go a.chat.Run(ctx)
	go a.calls.Run(ctx)

	go func() {
		if err := a.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("http: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}
