package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/calderos/moodlens/config"
	"github.com/calderos/moodlens/internal/handlers"
	"github.com/calderos/moodlens/internal/logging"
	"github.com/calderos/moodlens/internal/monitoring"
	"github.com/calderos/moodlens/internal/pipeline"
)

func main() {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev"
	}
	config.LoadEnv(env)
	logging.InitLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	analyzer := pipeline.NewAnalyzer(pipeline.ConfigFromEnv())

	var healthy atomic.Bool
	healthy.Store(true)
	go monitoring.MonitorAnalyzerHealth(ctx, &healthy, analyzer)

	router := mux.NewRouter()
	handlers.NewHandler(analyzer, &healthy).Register(router)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	go func() {
		slog.Info("[Server] Listening", slog.String("port", port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("[Server] Server failed",
				slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("[Server] Shutdown failed",
			slog.String("error", err.Error()))
	}
	slog.Info("[Server] Shut down")
}
