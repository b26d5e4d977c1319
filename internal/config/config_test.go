package config_test

import (
	"strings"
	"testing"
	"time"

	"github.com/Santosh-B-Vitana/smsv2-sub000/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Concurrency != 1 {
		t.Errorf("Concurrency = %d, want 1", cfg.Concurrency)
	}
	if cfg.RateLimitWindow != time.Minute || cfg.RateLimitMax != 100 {
		t.Errorf("rate limit = %d per %s", cfg.RateLimitMax, cfg.RateLimitWindow)
	}
	if cfg.CacheTTL != 5*time.Minute {
		t.Errorf("CacheTTL = %s", cfg.CacheTTL)
	}

	ec := cfg.Engine()
	if ec.Concurrency != 1 || ec.RateLimitSweepInterval != time.Minute {
		t.Errorf("Engine() = %+v", ec)
	}
}

func TestLoad_FromEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SMS_CONCURRENCY", "4")
	t.Setenv("SMS_RATE_LIMIT_WINDOW", "30s")
	t.Setenv("SMS_TRACE_EXPORTER", "stdout")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Concurrency != 4 || cfg.RateLimitWindow != 30*time.Second || cfg.TraceExporter != "stdout" {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func TestLoad_RejectsInvalid(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SMS_CONCURRENCY", "0")
	t.Setenv("SMS_TRACE_EXPORTER", "zipkin")

	_, err := config.Load()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"SMS_CONCURRENCY", "SMS_TRACE_EXPORTER"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}
