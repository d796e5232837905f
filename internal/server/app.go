package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/roomcast/roomcast/internal/config"
	"github.com/roomcast/roomcast/internal/storage"
)

// App coordinates the HTTP surface, session lifecycle, and room fanout.
type App struct {
	cfg      config.ServerConfig
	store    storage.Store
	hub      *Hub
	upgrader websocket.Upgrader
}

// NewApp constructs a server instance using the provided dependencies.
func NewApp(cfg config.ServerConfig, store storage.Store) *App {
	return &App{
		cfg:   cfg,
		store: store,
		hub:   NewHub(store, cfg.EchoSelf),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The relay is served to browser clients from arbitrary hosts.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Router assembles the gin engine with every application route.
func (a *App) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), corsMiddleware())

	router.GET("/healthz", a.handleHealth)
	router.POST("/rooms", a.handleCreateRoom)
	router.GET("/rooms", a.handleListRooms)
	router.POST("/rooms/:id/members", a.handleAddMember)
	router.GET("/ws", a.handleWS)

	return router
}

// Run migrates storage and serves HTTP until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	if err := a.store.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	srv := &http.Server{
		Addr:              a.cfg.ListenAddr,
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}

func (a *App) handleHealth(c *gin.Context) {
	c.String(http.StatusOK, "roomcast is running")
}

// corsMiddleware mirrors the permissive policy the relay has always shipped
// with: any origin, any method, any header.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "*")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
