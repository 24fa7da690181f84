package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/Lllllllleong/careercopilot/internal/app"
	"github.com/Lllllllleong/careercopilot/internal/config"
)

var (
	handler http.Handler
	once    sync.Once
	initErr error
)

func init() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// "CareerCopilotAPI" is the entry point name configured in GCP.
	functions.HTTP("CareerCopilotAPI", serveAPI)
}

// main is required by the Go Functions Framework.
func main() {}

func serveAPI(w http.ResponseWriter, r *http.Request) {
	once.Do(func() {
		var cfg *config.Config
		cfg, initErr = config.Load()
		if initErr != nil {
			return
		}
		handler, _, initErr = app.NewAPI(context.Background(), cfg)
	})
	if initErr != nil {
		slog.Error("Critical: API initialization failed", "error", initErr)
		http.Error(w, "Internal Server Error: failed to initialize service", http.StatusInternalServerError)
		return
	}
	handler.ServeHTTP(w, r)
}
