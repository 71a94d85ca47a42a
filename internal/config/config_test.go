package config

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleConfig = `
simulator:
  seed: 42
  batch_size: 20
  tick_interval: 2s
  benign_rate: 80
nats:
  enabled: true
  url: nats://localhost:4222
  subject: flowforge.flows
clickhouse:
  enabled: true
  host: localhost
  port: 9000
  database: flowforge
api:
  listen_addr: ":8081"
alerter:
  enabled: true
  check_interval: 10s
  rules:
    - name: high-attack-fraction
      metric: attack_fraction
      operator: ">"
      threshold: 0.5
smtp:
  host: mail.example.com
  port: 587
  from: flowforge@example.com
  to:
    - ops@example.com
    - security@example.com
`

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Simulator.Seed != 42 || cfg.Simulator.BatchSize != 20 {
		t.Errorf("simulator config not parsed: %+v", cfg.Simulator)
	}
	if cfg.Simulator.TickInterval != "2s" {
		t.Errorf("tick_interval = %q, want 2s", cfg.Simulator.TickInterval)
	}
	if !cfg.NATS.Enabled || cfg.NATS.URL != "nats://localhost:4222" {
		t.Errorf("nats config not parsed: %+v", cfg.NATS)
	}
	if len(cfg.Alerter.Rules) != 1 || cfg.Alerter.Rules[0].Metric != "attack_fraction" {
		t.Errorf("alerter rules not parsed: %+v", cfg.Alerter.Rules)
	}
	if len(cfg.SMTP.To) != 2 || cfg.SMTP.To[0] != "ops@example.com" {
		t.Errorf("smtp recipients not parsed: %+v", cfg.SMTP.To)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("simulator:\n  seed: 1\n"), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Simulator.BatchSize != 50 {
		t.Errorf("default batch_size = %d, want 50", cfg.Simulator.BatchSize)
	}
	if cfg.API.ListenAddr != ":8080" {
		t.Errorf("default listen_addr = %q, want :8080", cfg.API.ListenAddr)
	}
	if cfg.NATS.Subject != "flowforge.flows" {
		t.Errorf("default subject = %q", cfg.NATS.Subject)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}
