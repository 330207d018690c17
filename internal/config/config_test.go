package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.ListenAddr != ":8000" {
		t.Errorf("ListenAddr = %q", cfg.ListenAddr)
	}
	if cfg.ToolPath != "yolo" {
		t.Errorf("ToolPath = %q", cfg.ToolPath)
	}
	if cfg.WorkDir != "." {
		t.Errorf("WorkDir = %q", cfg.WorkDir)
	}
	if cfg.TimeoutSeconds != 3600 {
		t.Errorf("TimeoutSeconds = %d", cfg.TimeoutSeconds)
	}
	if cfg.LogLevel != "info" || cfg.LogFormat != "json" {
		t.Errorf("logging defaults = %q/%q", cfg.LogLevel, cfg.LogFormat)
	}
	if cfg.HistoryLimit != 50 {
		t.Errorf("HistoryLimit = %d", cfg.HistoryLimit)
	}
	if len(cfg.Schedules) != 0 {
		t.Errorf("Schedules = %v", cfg.Schedules)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
listen_addr: ":9090"
tool_path: /opt/yolo/bin/yolo
work_dir: /srv/runs
timeout_seconds: 120
log_level: debug
webhook_url: http://hooks.local/runs
schedules:
  - name: nightly-val
    cron: "0 2 * * *"
    task: val
    params:
      model: yolov8n.pt
      data: coco.yaml
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.ListenAddr != ":9090" {
		t.Errorf("ListenAddr = %q", cfg.ListenAddr)
	}
	if cfg.ToolPath != "/opt/yolo/bin/yolo" {
		t.Errorf("ToolPath = %q", cfg.ToolPath)
	}
	if cfg.TimeoutSeconds != 120 {
		t.Errorf("TimeoutSeconds = %d", cfg.TimeoutSeconds)
	}
	if cfg.WebhookURL != "http://hooks.local/runs" {
		t.Errorf("WebhookURL = %q", cfg.WebhookURL)
	}
	// Unset fields still pick up defaults
	if cfg.LogFormat != "json" || cfg.HistoryLimit != 50 {
		t.Errorf("defaults not applied: %q/%d", cfg.LogFormat, cfg.HistoryLimit)
	}

	if len(cfg.Schedules) != 1 {
		t.Fatalf("Schedules = %v", cfg.Schedules)
	}
	sched := cfg.Schedules[0]
	if sched.Name != "nightly-val" || sched.Cron != "0 2 * * *" || sched.Task != "val" {
		t.Errorf("schedule = %+v", sched)
	}
	if sched.Params["model"] != "yolov8n.pt" {
		t.Errorf("schedule params = %v", sched.Params)
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    error
	}{
		{"negative timeout", "timeout_seconds: -5\n", ErrInvalidTimeout},
		{"schedule without task", "schedules:\n  - name: x\n    cron: \"@daily\"\n", ErrScheduleNoTask},
		{"schedule without cron", "schedules:\n  - name: x\n    task: val\n", ErrScheduleNoCron},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}
			_, err := Load(path)
			if !errors.Is(err, tt.want) {
				t.Errorf("Load() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestLoadMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("listen_addr: [unclosed\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error for malformed YAML")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "config.yaml")

	orig, err := Load(filepath.Join(dir, "missing.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	orig.ListenAddr = ":7000"
	orig.Schedules = []Schedule{{Name: "weekly", Cron: "@weekly", Task: "benchmark"}}

	if err := Save(path, orig); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() after Save error = %v", err)
	}
	if loaded.ListenAddr != ":7000" {
		t.Errorf("ListenAddr = %q", loaded.ListenAddr)
	}
	if len(loaded.Schedules) != 1 || loaded.Schedules[0].Cron != "@weekly" {
		t.Errorf("Schedules = %+v", loaded.Schedules)
	}
}
