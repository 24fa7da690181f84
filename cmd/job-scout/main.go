package main

import (
	"context"
	"log/slog"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/Lllllllleong/careercopilot/internal/app"
	"github.com/Lllllllleong/careercopilot/internal/config"
	"github.com/Lllllllleong/careercopilot/internal/services"
	cloudevents "github.com/cloudevents/sdk-go/v2"
)

var (
	scout   *services.JobScout
	once    sync.Once
	initErr error
)

func init() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Triggered by a Cloud Scheduler message on Pub/Sub.
	functions.CloudEvent("ScoutJobAlerts", scoutJobAlerts)
}

// main is required by the Go Functions Framework.
func main() {}

func scoutJobAlerts(ctx context.Context, _ cloudevents.Event) error {
	once.Do(func() {
		var cfg *config.Config
		cfg, initErr = config.Load()
		if initErr != nil {
			return
		}
		scout, initErr = app.NewJobScout(context.Background(), cfg)
	})
	if initErr != nil {
		slog.Error("Critical error during function initialization", "error", initErr)
		return initErr
	}

	created, err := scout.Run(ctx)
	if err != nil {
		slog.Error("Job scout finished with errors.", "error", err, "remindersCreated", created)
		return err
	}
	slog.Info("Job scout finished.", "remindersCreated", created)
	return nil
}
