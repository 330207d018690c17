// Package metrics scrapes run metrics from the tool's log output.
//
// The tool's log format is human-readable and unversioned, so this is
// best-effort pattern matching, not a grammar. Each metric lives behind
// its own scan function with its own regexp: scans are independent and
// order-insensitive, so patterns can be added or removed without
// touching the others. An absent pattern simply omits its keys; when a
// pattern matches more than once, only the last occurrence is kept
// (the most recent epoch or score is the authoritative one).
package metrics

import (
	"regexp"
	"strconv"
	"strings"
)

// Map is a flat metric name to value mapping. Values are float64 or int
// for scraped metrics; result-file entries merged in later may hold
// arbitrary decoded structures.
type Map map[string]any

// Extract scans the combined output streams for every known metric
// pattern. stdout and stderr are concatenated; the tool splits its
// logging across both without any useful distinction.
func Extract(stdout, stderr string) Map {
	output := stdout + "\n" + stderr

	m := Map{}
	scanEpochs(output, m)
	scanLosses(output, m)
	scanMeanAP(output, m)
	scanPrecisionRecall(output, m)
	scanInferenceTime(output, m)
	scanDetections(output, m)
	scanExport(output, m)
	return m
}

// Merge copies all entries of other into m, overwriting duplicates.
func (m Map) Merge(other Map) {
	for k, v := range other {
		m[k] = v
	}
}

var epochRe = regexp.MustCompile(`Epoch\s+(\d+)/(\d+)`)

// scanEpochs captures the training progress counter ("Epoch 12/100").
func scanEpochs(output string, m Map) {
	matches := epochRe.FindAllStringSubmatch(output, -1)
	if len(matches) == 0 {
		return
	}
	last := matches[len(matches)-1]
	if cur, err := strconv.Atoi(last[1]); err == nil {
		m["current_epoch"] = cur
	}
	if total, err := strconv.Atoi(last[2]); err == nil {
		m["total_epochs"] = total
	}
}

var lossRes = map[string]*regexp.Regexp{
	"box_loss":   regexp.MustCompile(`box_loss:\s*([\d.]+)`),
	"obj_loss":   regexp.MustCompile(`obj_loss:\s*([\d.]+)`),
	"cls_loss":   regexp.MustCompile(`cls_loss:\s*([\d.]+)`),
	"total_loss": regexp.MustCompile(`total_loss:\s*([\d.]+)`),
}

// scanLosses captures the named training loss components.
func scanLosses(output string, m Map) {
	for name, re := range lossRes {
		lastFloat(re, output, m, name)
	}
}

var (
	map50Re   = regexp.MustCompile(`mAP50:\s*([\d.]+)`)
	map5095Re = regexp.MustCompile(`mAP50-95:\s*([\d.]+)`)
)

// scanMeanAP captures mean-average-precision scores.
// mAP50 must not swallow mAP50-95 lines, so the colon anchors the match.
func scanMeanAP(output string, m Map) {
	lastFloat(map50Re, output, m, "mAP50")
	lastFloat(map5095Re, output, m, "mAP50-95")
}

var (
	precisionRe = regexp.MustCompile(`Precision:\s*([\d.]+)`)
	recallRe    = regexp.MustCompile(`Recall:\s*([\d.]+)`)
)

// scanPrecisionRecall captures validation precision and recall.
func scanPrecisionRecall(output string, m Map) {
	lastFloat(precisionRe, output, m, "precision")
	lastFloat(recallRe, output, m, "recall")
}

var inferenceRe = regexp.MustCompile(`inference:\s*([\d.]+)ms`)

// scanInferenceTime captures per-image inference latency.
func scanInferenceTime(output string, m Map) {
	lastFloat(inferenceRe, output, m, "inference_time_ms")
}

var detectionsRe = regexp.MustCompile(`(\d+)\s+detections`)

// scanDetections captures the reported detection count.
func scanDetections(output string, m Map) {
	matches := detectionsRe.FindAllStringSubmatch(output, -1)
	if len(matches) == 0 {
		return
	}
	if n, err := strconv.Atoi(matches[len(matches)-1][1]); err == nil {
		m["total_detections"] = n
	}
}

var (
	exportTimeRe = regexp.MustCompile(`Export complete \(([\d.]+)s\)`)
	savedToRe    = regexp.MustCompile(`Results saved to (.+)`)
)

// scanExport captures the export duration and the reported save path.
func scanExport(output string, m Map) {
	lastFloat(exportTimeRe, output, m, "export_time_s")

	matches := savedToRe.FindAllStringSubmatch(output, -1)
	if len(matches) > 0 {
		m["exported_file"] = strings.TrimSpace(matches[len(matches)-1][1])
	}
}

// lastFloat stores the last match of re under key as a float64.
func lastFloat(re *regexp.Regexp, output string, m Map, key string) {
	matches := re.FindAllStringSubmatch(output, -1)
	if len(matches) == 0 {
		return
	}
	if f, err := strconv.ParseFloat(matches[len(matches)-1][1], 64); err == nil {
		m[key] = f
	}
}
