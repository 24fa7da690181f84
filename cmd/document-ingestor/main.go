package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/Lllllllleong/careercopilot/internal/app"
	"github.com/Lllllllleong/careercopilot/internal/config"
	"github.com/Lllllllleong/careercopilot/internal/models"
	"github.com/Lllllllleong/careercopilot/internal/services"
	cloudevents "github.com/cloudevents/sdk-go/v2"
)

var (
	pipeline *services.IngestionPipeline
	once     sync.Once
	initErr  error
)

func init() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	functions.CloudEvent("IngestDocument", ingestDocument)
}

// main is required by the Go Functions Framework.
func main() {}

// ingestDocument handles a storage object-finalized event. Processing failures
// are recorded on the document and never retried.
func ingestDocument(ctx context.Context, e cloudevents.Event) error {
	once.Do(func() {
		var cfg *config.Config
		cfg, initErr = config.Load()
		if initErr != nil {
			return
		}
		// Clients live for the lifetime of the instance.
		pipeline, _, initErr = app.NewIngestion(context.Background(), cfg)
	})
	if initErr != nil {
		slog.Error("Critical error during function initialization", "error", initErr)
		return initErr
	}

	var gcsEvent models.GCSEvent
	if err := json.Unmarshal(e.Data(), &gcsEvent); err != nil {
		slog.Error("Failed to unmarshal event data", "error", err, "data", string(e.Data()))
		return nil
	}

	pipeline.Process(ctx, gcsEvent)
	return nil
}
