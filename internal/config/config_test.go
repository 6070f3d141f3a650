package config

import "testing"

func TestValidate_InvalidPort(t *testing.T) {
	cfg := Config{
		HTTP: HTTPConfig{Port: 0},
		Database: DatabaseConfig{
			Addrs: []string{"localhost:6379"},
		},
	}

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_MissingDatabaseAddrs(t *testing.T) {
	cfg := Config{
		HTTP: HTTPConfig{Port: 8080},
		Database: DatabaseConfig{
			Addrs: []string{},
		},
	}

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing database addrs")
	}
}

func TestValidate_SemanticWeightRange(t *testing.T) {
	cfg := Config{
		HTTP:     HTTPConfig{Port: 8080},
		Database: DatabaseConfig{Addrs: []string{"localhost:6379"}},
		Fusion:   FusionConfig{SemanticWeight: 1.5},
	}

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for semantic weight above 1")
	}
}

func TestValidate_ProviderRequiresModel(t *testing.T) {
	cfg := Config{
		HTTP:      HTTPConfig{Port: 8080},
		Database:  DatabaseConfig{Addrs: []string{"localhost:6379"}},
		Embedding: EmbeddingConfig{Provider: "nebius", APIKey: "test-key"},
	}

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for provider without model")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.Registry.StalenessSec != 300 {
		t.Errorf("expected StalenessSec=300, got %d", cfg.Registry.StalenessSec)
	}
	if cfg.Registry.RefreshEverySec != 60 {
		t.Errorf("expected RefreshEverySec=60, got %d", cfg.Registry.RefreshEverySec)
	}
	if cfg.Executor.Concurrency != 16 {
		t.Errorf("expected Concurrency=16, got %d", cfg.Executor.Concurrency)
	}
	if cfg.Executor.QueryTimeoutMs != 800 {
		t.Errorf("expected QueryTimeoutMs=800, got %d", cfg.Executor.QueryTimeoutMs)
	}
	if cfg.Fusion.TextWeight != 0.4 || cfg.Fusion.ImageWeight != 0.1 {
		t.Errorf("expected default fusion weights, got %+v", cfg.Fusion)
	}
	if cfg.Fusion.SemanticWeight != 0.5 {
		t.Errorf("expected SemanticWeight=0.5, got %g", cfg.Fusion.SemanticWeight)
	}
	if cfg.Cache.TTLSec != 3600 {
		t.Errorf("expected cache TTLSec=3600, got %d", cfg.Cache.TTLSec)
	}
	if cfg.Search.DefaultK != 20 {
		t.Errorf("expected DefaultK=20, got %d", cfg.Search.DefaultK)
	}
	if cfg.Search.Boosts["name"] != 3 {
		t.Errorf("expected default name boost 3, got %g", cfg.Search.Boosts["name"])
	}
	if cfg.Storage.KeyPrefix != "omnisearch:" {
		t.Errorf("expected KeyPrefix='omnisearch:', got %q", cfg.Storage.KeyPrefix)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		HTTP:     HTTPConfig{ReadTimeoutSec: 30, WriteTimeoutSec: 60, ShutdownSec: 5},
		Database: DatabaseConfig{ReadinessTimeout: 15},
		Executor: ExecutorConfig{Concurrency: 4, QueryTimeoutMs: 250},
		Fusion:   FusionConfig{TextWeight: 0.7, AttributeWeight: 0.1, SpecificationWeight: 0.1, ImageWeight: 0.1},
		Storage:  StorageConfig{KeyPrefix: "custom:"},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 30 {
		t.Errorf("expected ReadTimeoutSec=30, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.Executor.Concurrency != 4 || cfg.Executor.QueryTimeoutMs != 250 {
		t.Errorf("executor overrides lost: %+v", cfg.Executor)
	}
	if cfg.Fusion.TextWeight != 0.7 {
		t.Errorf("expected TextWeight=0.7, got %g", cfg.Fusion.TextWeight)
	}
	if cfg.Storage.KeyPrefix != "custom:" {
		t.Errorf("expected KeyPrefix='custom:', got %q", cfg.Storage.KeyPrefix)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("OMNISEARCH_TEST_ADDR", "redis:6379")

	in := []byte("addrs: [\"${OMNISEARCH_TEST_ADDR}\"]\npassword: \"${OMNISEARCH_TEST_MISSING:-secret}\"")
	out := string(expandEnvVars(in))

	if out != "addrs: [\"redis:6379\"]\npassword: \"secret\"" {
		t.Errorf("unexpected expansion: %q", out)
	}
}
