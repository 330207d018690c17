// extract_test.go tests log output scraping.
// It validates last-match-wins behavior, integer vs float parsing,
// idempotence, and graceful omission when patterns are absent.
package metrics

import (
	"reflect"
	"testing"
)

func TestExtract_Epochs_LastMatchWins(t *testing.T) {
	output := "Epoch 1/10 starting\nsome progress\nEpoch 5/10 starting\n"

	m := Extract(output, "")

	if got := m["current_epoch"]; got != 5 {
		t.Errorf("current_epoch = %v, want 5", got)
	}
	if got := m["total_epochs"]; got != 10 {
		t.Errorf("total_epochs = %v, want 10", got)
	}
}

func TestExtract_Losses(t *testing.T) {
	output := `box_loss: 0.5 cls_loss: 0.3
box_loss: 0.42 obj_loss: 0.11 total_loss: 0.95`

	m := Extract(output, "")

	want := map[string]float64{
		"box_loss":   0.42,
		"obj_loss":   0.11,
		"cls_loss":   0.3,
		"total_loss": 0.95,
	}
	for k, v := range want {
		if got := m[k]; got != v {
			t.Errorf("%s = %v, want %v", k, got, v)
		}
	}
}

func TestExtract_MeanAP(t *testing.T) {
	output := "mAP50: 0.87 mAP50-95: 0.65"

	m := Extract(output, "")

	if got := m["mAP50"]; got != 0.87 {
		t.Errorf("mAP50 = %v, want 0.87", got)
	}
	if got := m["mAP50-95"]; got != 0.65 {
		t.Errorf("mAP50-95 = %v, want 0.65", got)
	}
}

func TestExtract_PrecisionRecall(t *testing.T) {
	m := Extract("Precision: 0.91\nRecall: 0.88", "")

	if got := m["precision"]; got != 0.91 {
		t.Errorf("precision = %v, want 0.91", got)
	}
	if got := m["recall"]; got != 0.88 {
		t.Errorf("recall = %v, want 0.88", got)
	}
}

func TestExtract_PredictionMetrics(t *testing.T) {
	output := "speed: preprocess: 1.2ms, inference: 14.7ms\nimage 1: 12 detections"

	m := Extract(output, "")

	if got := m["inference_time_ms"]; got != 14.7 {
		t.Errorf("inference_time_ms = %v, want 14.7", got)
	}
	if got := m["total_detections"]; got != 12 {
		t.Errorf("total_detections = %v, want 12", got)
	}
}

func TestExtract_ExportMetrics(t *testing.T) {
	output := "Export complete (3.4s)\nResults saved to runs/export/model.onnx  \n"

	m := Extract(output, "")

	if got := m["export_time_s"]; got != 3.4 {
		t.Errorf("export_time_s = %v, want 3.4", got)
	}
	if got := m["exported_file"]; got != "runs/export/model.onnx" {
		t.Errorf("exported_file = %v, want trimmed path", got)
	}
}

func TestExtract_StderrIncluded(t *testing.T) {
	// The tool logs progress to stderr; both streams are scanned
	m := Extract("", "Epoch 3/20\nmAP50: 0.5")

	if got := m["current_epoch"]; got != 3 {
		t.Errorf("current_epoch = %v, want 3 (from stderr)", got)
	}
}

func TestExtract_AbsentPatternsOmitted(t *testing.T) {
	m := Extract("nothing interesting here", "")

	if len(m) != 0 {
		t.Errorf("expected empty map for unmatched output, got %v", m)
	}
}

func TestExtract_Idempotent(t *testing.T) {
	output := "Epoch 2/5\nbox_loss: 0.4\nmAP50: 0.8\nPrecision: 0.9\n42 detections"

	first := Extract(output, "")
	for i := 0; i < 10; i++ {
		if again := Extract(output, ""); !reflect.DeepEqual(first, again) {
			t.Fatalf("Extract not stable: %v vs %v", first, again)
		}
	}
}

func TestMerge(t *testing.T) {
	m := Map{"a": 1, "b": 2}
	m.Merge(Map{"b": 3, "c": 4})

	if m["a"] != 1 || m["b"] != 3 || m["c"] != 4 {
		t.Errorf("Merge result wrong: %v", m)
	}
}
