// outputs_test.go tests result file collection and artifact scanning.
// It validates structured decoding, per-file error isolation, key
// derivation, sorted artifact listings, and empty-root behavior.
package outputs

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestCollect_JSONAndYAML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "runs/val/exp/results.json"), `{"mAP50": 0.87}`)
	writeFile(t, filepath.Join(dir, "runs/train/exp/args.yaml"), "epochs: 100\nbatch: 16\n")

	m := NewCollector(dir).Collect()

	res, ok := m["file_results"].(map[string]any)
	if !ok {
		t.Fatalf("file_results missing or wrong type: %#v", m["file_results"])
	}
	if res["mAP50"] != 0.87 {
		t.Errorf("file_results mAP50 = %v, want 0.87", res["mAP50"])
	}

	cfg, ok := m["file_args"].(map[string]any)
	if !ok {
		t.Fatalf("file_args missing or wrong type: %#v", m["file_args"])
	}
	if cfg["epochs"] != 100 {
		t.Errorf("file_args epochs = %v, want 100", cfg["epochs"])
	}
}

func TestCollect_MalformedFileIsolated(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "runs/val/good.json"), `{"ok": true}`)
	writeFile(t, filepath.Join(dir, "runs/val/broken.json"), `{not json at all`)

	m := NewCollector(dir).Collect()

	if _, ok := m["file_good"]; !ok {
		t.Error("well-formed file missing from collection")
	}
	errMsg, ok := m["file_broken_error"].(string)
	if !ok || errMsg == "" {
		t.Errorf("expected error entry for malformed file, got %#v", m["file_broken_error"])
	}
	if _, ok := m["file_broken"]; ok {
		t.Error("malformed file must not produce a content entry")
	}
}

func TestCollect_IgnoresOtherExtensions(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "runs/predict/image.jpg"), "\xff\xd8binary")
	writeFile(t, filepath.Join(dir, "runs/predict/labels.txt"), "0 0.5 0.5")

	m := NewCollector(dir).Collect()
	if len(m) != 0 {
		t.Errorf("expected no entries for non-structured files, got %v", m)
	}
}

func TestCollect_NoRoots(t *testing.T) {
	m := NewCollector(t.TempDir()).Collect()
	if len(m) != 0 {
		t.Errorf("expected empty map with no result roots, got %v", m)
	}
}

func TestCollect_DuplicateStemLastRootWins(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "runs/train/results.json"), `{"phase": "train"}`)
	writeFile(t, filepath.Join(dir, "runs/val/results.json"), `{"phase": "val"}`)

	m := NewCollector(dir).Collect()

	res, ok := m["file_results"].(map[string]any)
	if !ok {
		t.Fatalf("file_results missing: %#v", m)
	}
	// runs/val is walked after runs/train in the fixed root order
	if res["phase"] != "val" {
		t.Errorf("expected later root to win, got phase=%v", res["phase"])
	}
}

func TestScan_SortedRelativePaths(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "weights/best.pt"), "w")
	writeFile(t, filepath.Join(dir, "runs/predict/exp/out.jpg"), "img")
	writeFile(t, filepath.Join(dir, "exports/model.onnx"), "m")

	got := NewScanner(dir).Scan()
	want := []string{
		"exports/model.onnx",
		"runs/predict/exp/out.jpg",
		"weights/best.pt",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Scan() = %v, want %v", got, want)
	}
}

func TestScan_NoRoots(t *testing.T) {
	got := NewScanner(t.TempDir()).Scan()
	if got == nil {
		t.Fatal("expected empty slice, not nil")
	}
	if len(got) != 0 {
		t.Errorf("expected no artifacts, got %v", got)
	}
}
