package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	ginGzip "github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg := &Config{}
	cmd := newCmd(cfg, runServer)
	if err := cmd.Execute(); err != nil {
		logFatal("%v", err)
	}
}

// runServer loads the corpus, wires the app and serves until interrupted.
func runServer(cfg *Config) error {
	corpus, err := loadNameCorpus(cfg.CorpusPath)
	if err != nil {
		logWarn("No usable name corpus at %s (%v), every name will come from the AI", cfg.CorpusPath, err)
		corpus = nil
	} else {
		logInfo("Loaded %d names across %d categories from %s", corpus.Size(), len(corpus), cfg.CorpusPath)
	}

	app := newApp(cfg, corpus)
	router := app.newRouter()
	startServer(cfg, router)
	return nil
}

// newRouter assembles the gin engine with middleware and routes.
func (app *App) newRouter() *gin.Engine {
	router := gin.Default()

	router.Use(ginGzip.Gzip(ginGzip.DefaultCompression))
	router.Use(requestIDMiddleware())

	if err := router.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		logWarn("Failed to set trusted proxies: %v", err)
	}

	game := router.Group("/game", noStoreMiddleware())
	{
		game.POST("/start", app.rateLimitMiddleware(), app.startGameHandler)
		game.GET("/state", app.stateHandler)
		game.POST("/reset", app.resetHandler)
		game.POST("/:player/ask", app.rateLimitMiddleware(), app.askHandler)
		game.POST("/:player/guess", app.rateLimitMiddleware(), app.guessHandler)
		game.POST("/:player/hint", app.rateLimitMiddleware(), app.hintHandler)
		game.POST("/:player/give-up", app.giveUpHandler)
		game.GET("/events", app.eventsHandler)
	}
	router.GET("/healthz", app.healthzHandler)

	return router
}

// startServer runs the HTTP server with graceful shutdown on SIGINT/SIGTERM.
func startServer(cfg *Config, router *gin.Engine) {
	srv := &http.Server{
		Addr:              net.JoinHostPort(cfg.Bind, strconv.Itoa(cfg.Port)),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Starting a game can spend up to three 15s provider calls per name,
		// so the write window has to outlast the worst-case retry chain.
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	idleConnsClosed := make(chan struct{})
	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, syscall.SIGINT, syscall.SIGTERM)
		<-sigint
		logInfo("Shutdown signal received, shutting down server gracefully...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logWarn("HTTP server Shutdown: %v", err)
		}
		close(idleConnsClosed)
	}()

	logInfo("Server starting on http://%s", srv.Addr)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		logFatal("Server failed to start: %v", err)
	}
	<-idleConnsClosed
	logInfo("Server shutdown complete")
}
