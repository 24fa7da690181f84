package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every setting the functions read from the environment.
type Config struct {
	ProjectID         string
	VertexAIRegion    string
	GenerationModel   string
	GeminiAPIKey      string
	EmbeddingModel    string
	EmbeddingDim      int
	MaxEmbedChars     int
	WriterDomain      string
	UploadPrefix      string
	OutsidePrefix     string // "ignore" or "delete"
	DedupeUploads     bool
	DefaultBucket     string
	BlobBackend       string // "gcs" or "s3"
	S3Region          string
	S3Endpoint        string
	VectorBackend     string // "postgres" or "memory"
	DatabaseURL       string
	VectorTable       string
	RetrievalTopK     int
	RetrievalTimeout  time.Duration
	GenerationTimeout time.Duration
	IngestionTimeout  time.Duration
	OAuthSecretName   string
	JobScoutSenders   []string
	AllowedOrigins    []string
}

// Load reads the configuration, honouring a local .env file when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	projectID := GetEnv("PROJECT_ID", GetEnv("GOOGLE_CLOUD_PROJECT", ""))
	if projectID == "" {
		return nil, fmt.Errorf("PROJECT_ID environment variable must be set")
	}

	cfg := &Config{
		ProjectID:         projectID,
		VertexAIRegion:    GetEnv("VERTEX_AI_REGION", "us-central1"),
		GenerationModel:   GetEnv("GENERATION_MODEL", "gemini-1.5-pro"),
		GeminiAPIKey:      GetEnv("GEMINI_API_KEY", ""),
		EmbeddingModel:    GetEnv("EMBEDDING_MODEL", "text-embedding-004"),
		EmbeddingDim:      getEnvInt("EMBEDDING_DIM", 768),
		MaxEmbedChars:     getEnvInt("MAX_EMBED_CHARS", 10000),
		WriterDomain:      GetEnv("WRITER_DOMAIN", "Australian Community Services"),
		UploadPrefix:      strings.Trim(GetEnv("UPLOAD_PREFIX", "user_uploads"), "/"),
		OutsidePrefix:     GetEnv("OUTSIDE_PREFIX_POLICY", "ignore"),
		DedupeUploads:     getEnvBool("DEDUPE_UPLOADS", true),
		DefaultBucket:     GetEnv("DEFAULT_BUCKET", ""),
		BlobBackend:       GetEnv("BLOB_BACKEND", "gcs"),
		S3Region:          GetEnv("S3_REGION", "us-east-1"),
		S3Endpoint:        GetEnv("S3_ENDPOINT", ""),
		VectorBackend:     GetEnv("VECTOR_BACKEND", "postgres"),
		DatabaseURL:       GetEnv("DATABASE_URL", ""),
		VectorTable:       GetEnv("VECTOR_TABLE", "career_vectors"),
		RetrievalTopK:     getEnvInt("RETRIEVAL_TOP_K", 3),
		RetrievalTimeout:  getEnvDuration("RETRIEVAL_TIMEOUT", 20*time.Second),
		GenerationTimeout: getEnvDuration("GENERATION_TIMEOUT", 120*time.Second),
		IngestionTimeout:  getEnvDuration("INGESTION_TIMEOUT", 5*time.Minute),
		OAuthSecretName:   GetEnv("OAUTH_SECRET_NAME", "job-scout-token"),
		JobScoutSenders: getEnvList("JOB_SCOUT_SENDERS", []string{
			"noreply@s.seek.com.au",
			"noreply@ethicaljobs.com.au",
			"donotreply@jora.com",
		}),
		AllowedOrigins: getEnvList("ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
	}

	if cfg.OutsidePrefix != "ignore" && cfg.OutsidePrefix != "delete" {
		return nil, fmt.Errorf("OUTSIDE_PREFIX_POLICY must be ignore or delete, got %q", cfg.OutsidePrefix)
	}
	if cfg.VectorBackend == "postgres" && cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL must be set when VECTOR_BACKEND=postgres")
	}
	return cfg, nil
}

// GetEnv is a helper to read an environment variable or return a default value.
func GetEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, def int) int {
	v := GetEnv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("Environment value is not an int, using default.", "key", key, "value", v, "default", def)
		return def
	}
	return n
}

func getEnvBool(key string, def bool) bool {
	v := GetEnv(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("Environment value is not a bool, using default.", "key", key, "value", v, "default", def)
		return def
	}
	return b
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := GetEnv(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("Environment value is not a duration, using default.", "key", key, "value", v, "default", def.String())
		return def
	}
	return d
}

func getEnvList(key string, def []string) []string {
	v := GetEnv(key, "")
	if v == "" {
		return def
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
