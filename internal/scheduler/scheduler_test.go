// scheduler_test.go tests cron parsing, startup validation, and
// deterministic parameter building from config maps.
package scheduler

import (
	"io"
	"log/slog"
	"reflect"
	"testing"
	"time"

	"github.com/visionops/yolobridge/internal/args"
	"github.com/visionops/yolobridge/internal/config"
	"github.com/visionops/yolobridge/internal/device"
	"github.com/visionops/yolobridge/internal/events"
)

func nopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCronParser_NextRun(t *testing.T) {
	p := NewCronParser()

	after := time.Date(2026, 1, 5, 10, 30, 0, 0, time.UTC)
	next, err := p.NextRun("0 12 * * *", after)
	if err != nil {
		t.Fatalf("NextRun failed: %v", err)
	}
	want := time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("next = %v, want %v", next, want)
	}
}

func TestCronParser_Descriptors(t *testing.T) {
	p := NewCronParser()
	if err := p.Validate("@daily"); err != nil {
		t.Errorf("@daily should validate: %v", err)
	}
	if err := p.Validate("@every 2h"); err != nil {
		t.Errorf("@every should validate: %v", err)
	}
}

func TestCronParser_Invalid(t *testing.T) {
	p := NewCronParser()
	if err := p.Validate("not a cron line"); err == nil {
		t.Error("expected error for garbage expression")
	}
}

func TestNew_RejectsInvalidCron(t *testing.T) {
	schedules := []config.Schedule{
		{Name: "bad", Cron: "99 99 * * *", Task: "val"},
	}

	_, err := New(schedules, nil, nil, events.NewHub(nopLogger()), nopLogger())
	if err == nil {
		t.Fatal("expected startup error for invalid cron expression")
	}
}

func TestNew_ComputesNextRun(t *testing.T) {
	schedules := []config.Schedule{
		{Name: "nightly-val", Cron: "@daily", Task: "val"},
	}

	s, err := New(schedules, nil, nil, events.NewHub(nopLogger()), nopLogger())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if len(s.entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(s.entries))
	}
	if !s.entries[0].next.After(time.Now()) {
		t.Errorf("next fire time not in the future: %v", s.entries[0].next)
	}
}

func TestBuildParams_SortedAndExtras(t *testing.T) {
	ps := buildParams(map[string]any{
		"model":  "best.pt",
		"epochs": 10,
		"data":   "coco.yaml",
		"extra_args": map[string]any{
			"plots": true,
			"conf":  0.5,
		},
	})
	ps.Set("device", "cpu")

	got := args.NewTranslator(device.Static(false)).Translate(ps)
	want := []string{
		"--data", "coco.yaml",
		"--epochs", "10",
		"--model", "best.pt",
		"--device", "cpu",
		"conf=0.5",
		"plots",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Translate() = %v, want %v", got, want)
	}
}
