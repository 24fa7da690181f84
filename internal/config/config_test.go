package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PROJECT_ID", "career-pilot")
	t.Setenv("VECTOR_BACKEND", "memory")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.UploadPrefix != "user_uploads" {
		t.Errorf("UploadPrefix = %q, want user_uploads", cfg.UploadPrefix)
	}
	if cfg.RetrievalTopK != 3 {
		t.Errorf("RetrievalTopK = %d, want 3", cfg.RetrievalTopK)
	}
	if !cfg.DedupeUploads {
		t.Errorf("DedupeUploads = false, want true")
	}
	if len(cfg.JobScoutSenders) != 3 {
		t.Errorf("JobScoutSenders has %d entries, want 3", len(cfg.JobScoutSenders))
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PROJECT_ID", "career-pilot")
	t.Setenv("VECTOR_BACKEND", "memory")
	t.Setenv("UPLOAD_PREFIX", "/uploads/")
	t.Setenv("GENERATION_TIMEOUT", "45s")
	t.Setenv("JOB_SCOUT_SENDERS", "a@example.com, b@example.com ,")
	t.Setenv("RETRIEVAL_TOP_K", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.UploadPrefix != "uploads" {
		t.Errorf("UploadPrefix = %q, want uploads", cfg.UploadPrefix)
	}
	if cfg.GenerationTimeout != 45*time.Second {
		t.Errorf("GenerationTimeout = %v, want 45s", cfg.GenerationTimeout)
	}
	if len(cfg.JobScoutSenders) != 2 || cfg.JobScoutSenders[1] != "b@example.com" {
		t.Errorf("JobScoutSenders = %v, want [a@example.com b@example.com]", cfg.JobScoutSenders)
	}
	if cfg.RetrievalTopK != 3 {
		t.Errorf("RetrievalTopK = %d, want fallback 3", cfg.RetrievalTopK)
	}
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "missing project", env: map[string]string{"PROJECT_ID": "", "GOOGLE_CLOUD_PROJECT": ""}},
		{name: "bad policy", env: map[string]string{"PROJECT_ID": "p", "VECTOR_BACKEND": "memory", "OUTSIDE_PREFIX_POLICY": "archive"}},
		{name: "postgres without url", env: map[string]string{"PROJECT_ID": "p", "VECTOR_BACKEND": "postgres", "DATABASE_URL": ""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Fatalf("Load() succeeded, want error")
			}
		})
	}
}
