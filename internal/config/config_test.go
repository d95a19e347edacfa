package config

import (
	"os"
	"testing"
	"time"
)

func setRequiredEnvVars(t *testing.T) {
	t.Helper()
	t.Setenv("PLUGGY_CLIENT_ID", "test-client-id")
	t.Setenv("PLUGGY_CLIENT_SECRET", "test-client-secret")
}

func TestLoad_Success(t *testing.T) {
	setRequiredEnvVars(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Pluggy.ClientID != "test-client-id" {
		t.Errorf("Pluggy.ClientID = %q, want %q", cfg.Pluggy.ClientID, "test-client-id")
	}
	if cfg.Pluggy.BaseURL != "https://api.pluggy.ai" {
		t.Errorf("Pluggy.BaseURL = %q, want %q", cfg.Pluggy.BaseURL, "https://api.pluggy.ai")
	}
	if cfg.Pluggy.AuthSafetyMargin != 5*time.Minute {
		t.Errorf("Pluggy.AuthSafetyMargin = %v, want 5m", cfg.Pluggy.AuthSafetyMargin)
	}
	if cfg.Server.Port != "8080" {
		t.Errorf("Server.Port = %q, want %q", cfg.Server.Port, "8080")
	}
	if cfg.Database.Port != 5432 {
		t.Errorf("Database.Port = %d, want %d", cfg.Database.Port, 5432)
	}
	if cfg.Scheduler.Interval != 60*time.Second {
		t.Errorf("Scheduler.Interval = %v, want 60s", cfg.Scheduler.Interval)
	}
}

func TestLoad_MissingClientID(t *testing.T) {
	t.Setenv("PLUGGY_CLIENT_ID", "")
	t.Setenv("PLUGGY_CLIENT_SECRET", "test-client-secret")
	os.Unsetenv("PLUGGY_CLIENT_ID")

	_, err := Load()
	if err == nil {
		t.Error("Load() expected error for missing PLUGGY_CLIENT_ID, got nil")
	}
}

func TestLoad_MissingClientSecret(t *testing.T) {
	t.Setenv("PLUGGY_CLIENT_ID", "test-client-id")
	t.Setenv("PLUGGY_CLIENT_SECRET", "")
	os.Unsetenv("PLUGGY_CLIENT_SECRET")

	_, err := Load()
	if err == nil {
		t.Error("Load() expected error for missing PLUGGY_CLIENT_SECRET, got nil")
	}
}

func TestLoad_InvalidDBPort(t *testing.T) {
	setRequiredEnvVars(t)
	t.Setenv("DB_PORT", "not-a-number")

	_, err := Load()
	if err == nil {
		t.Error("Load() expected error for invalid DB_PORT, got nil")
	}
}

func TestLoad_InvalidSchedulerInterval(t *testing.T) {
	setRequiredEnvVars(t)
	t.Setenv("SCHEDULER_INTERVAL", "sometimes")

	_, err := Load()
	if err == nil {
		t.Error("Load() expected error for invalid SCHEDULER_INTERVAL, got nil")
	}
}

func TestLoad_SchedulerOverrides(t *testing.T) {
	setRequiredEnvVars(t)
	t.Setenv("SCHEDULER_INTERVAL", "5m")
	t.Setenv("SCHEDULER_WORKERS", "2")
	t.Setenv("SCHEDULER_RUN_ON_STARTUP", "yes")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Scheduler.Interval != 5*time.Minute {
		t.Errorf("Scheduler.Interval = %v, want 5m", cfg.Scheduler.Interval)
	}
	if cfg.Scheduler.WorkerCount != 2 {
		t.Errorf("Scheduler.WorkerCount = %d, want 2", cfg.Scheduler.WorkerCount)
	}
	if !cfg.Scheduler.RunOnStartup {
		t.Error("Scheduler.RunOnStartup = false, want true")
	}
}
