// schemas.go defines the per-task request bodies and their translation
// into parameter sets.
//
// Each task accepts its own field set with its own defaults; anything
// the typed fields don't cover goes through extra_args, which is passed
// to the tool in key=value form. Validation here is limited to
// required-field checks: the tool itself is the authority on value
// semantics, and its own errors come back in the result record.
//
// Optional fields are pointers so "absent" and "zero" stay
// distinguishable; absent fields take the documented default, and
// fields with no default are simply not emitted.
package server

import (
	"errors"
	"sort"

	"github.com/visionops/yolobridge/internal/args"
)

// Validation errors returned for malformed requests.
var (
	errModelRequired        = errors.New("model is required")
	errDataRequired         = errors.New("data is required")
	errSourceRequired       = errors.New("source is required")
	errSolutionTypeRequired = errors.New("solution_type is required")
)

// taskRequest is implemented by every task body.
type taskRequest interface {
	validate() error
	params() *args.ParameterSet
}

// opt emits a parameter only when the caller supplied it.
func opt[T any](ps *args.ParameterSet, key string, v *T) {
	if v != nil {
		ps.Set(key, *v)
	}
}

// def emits the caller's value, or the task default when absent.
func def[T any](ps *args.ParameterSet, key string, v *T, d T) {
	if v != nil {
		ps.Set(key, *v)
		return
	}
	ps.Set(key, d)
}

// extras merges the open-ended extra_args map, sorted for
// deterministic argument order.
func extras(ps *args.ParameterSet, m map[string]any) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		ps.SetExtra(k, m[k])
	}
}

// TrainRequest is the body for POST /train.
type TrainRequest struct {
	Model       string         `json:"model"`
	Data        string         `json:"data"`
	Epochs      *int           `json:"epochs"`
	Batch       *int           `json:"batch"`
	Imgsz       *int           `json:"imgsz"`
	LR0         *float64       `json:"lr0"`
	LRF         *float64       `json:"lrf"`
	Momentum    *float64       `json:"momentum"`
	WeightDecay *float64       `json:"weight_decay"`
	Optimizer   *string        `json:"optimizer"`
	Seed        *int           `json:"seed"`
	Device      *string        `json:"device"`
	Project     *string        `json:"project"`
	Name        *string        `json:"name"`
	ExistOK     *bool          `json:"exist_ok"`
	Pretrained  *bool          `json:"pretrained"`
	Resume      *bool          `json:"resume"`
	Val         *bool          `json:"val"`
	Verbose     *bool          `json:"verbose"`
	ExtraArgs   map[string]any `json:"extra_args"`
}

func (r *TrainRequest) validate() error {
	if r.Model == "" {
		return errModelRequired
	}
	if r.Data == "" {
		return errDataRequired
	}
	return nil
}

func (r *TrainRequest) params() *args.ParameterSet {
	ps := &args.ParameterSet{}
	ps.Set("model", r.Model)
	ps.Set("data", r.Data)
	def(ps, "epochs", r.Epochs, 100)
	def(ps, "batch", r.Batch, 16)
	def(ps, "imgsz", r.Imgsz, 640)
	def(ps, "lr0", r.LR0, 0.01)
	def(ps, "lrf", r.LRF, 0.01)
	def(ps, "momentum", r.Momentum, 0.937)
	def(ps, "weight_decay", r.WeightDecay, 0.0005)
	def(ps, "optimizer", r.Optimizer, "auto")
	def(ps, "seed", r.Seed, 0)
	opt(ps, "device", r.Device)
	def(ps, "project", r.Project, "runs/train")
	opt(ps, "name", r.Name)
	def(ps, "exist_ok", r.ExistOK, false)
	def(ps, "pretrained", r.Pretrained, true)
	def(ps, "resume", r.Resume, false)
	def(ps, "val", r.Val, true)
	def(ps, "verbose", r.Verbose, false)
	extras(ps, r.ExtraArgs)
	return ps
}

// ValRequest is the body for POST /val.
type ValRequest struct {
	Model     string         `json:"model"`
	Data      string         `json:"data"`
	Batch     *int           `json:"batch"`
	Imgsz     *int           `json:"imgsz"`
	Conf      *float64       `json:"conf"`
	IOU       *float64       `json:"iou"`
	MaxDet    *int           `json:"max_det"`
	Half      *bool          `json:"half"`
	SaveJSON  *bool          `json:"save_json"`
	Plots     *bool          `json:"plots"`
	Split     *string        `json:"split"`
	Device    *string        `json:"device"`
	Project   *string        `json:"project"`
	Name      *string        `json:"name"`
	ExistOK   *bool          `json:"exist_ok"`
	Verbose   *bool          `json:"verbose"`
	ExtraArgs map[string]any `json:"extra_args"`
}

func (r *ValRequest) validate() error {
	if r.Model == "" {
		return errModelRequired
	}
	if r.Data == "" {
		return errDataRequired
	}
	return nil
}

func (r *ValRequest) params() *args.ParameterSet {
	ps := &args.ParameterSet{}
	ps.Set("model", r.Model)
	ps.Set("data", r.Data)
	def(ps, "batch", r.Batch, 32)
	def(ps, "imgsz", r.Imgsz, 640)
	def(ps, "conf", r.Conf, 0.001)
	def(ps, "iou", r.IOU, 0.6)
	def(ps, "max_det", r.MaxDet, 300)
	def(ps, "half", r.Half, true)
	def(ps, "save_json", r.SaveJSON, false)
	def(ps, "plots", r.Plots, false)
	def(ps, "split", r.Split, "val")
	opt(ps, "device", r.Device)
	def(ps, "project", r.Project, "runs/val")
	opt(ps, "name", r.Name)
	def(ps, "exist_ok", r.ExistOK, false)
	def(ps, "verbose", r.Verbose, true)
	extras(ps, r.ExtraArgs)
	return ps
}

// PredictRequest is the body for POST /predict.
type PredictRequest struct {
	Model     string         `json:"model"`
	Source    string         `json:"source"`
	Conf      *float64       `json:"conf"`
	IOU       *float64       `json:"iou"`
	Imgsz     *int           `json:"imgsz"`
	Half      *bool          `json:"half"`
	Save      *bool          `json:"save"`
	SaveTxt   *bool          `json:"save_txt"`
	SaveConf  *bool          `json:"save_conf"`
	SaveCrop  *bool          `json:"save_crop"`
	MaxDet    *int           `json:"max_det"`
	VidStride *int           `json:"vid_stride"`
	Classes   []int          `json:"classes"`
	Device    *string        `json:"device"`
	Project   *string        `json:"project"`
	Name      *string        `json:"name"`
	ExistOK   *bool          `json:"exist_ok"`
	Verbose   *bool          `json:"verbose"`
	ExtraArgs map[string]any `json:"extra_args"`
}

func (r *PredictRequest) validate() error {
	if r.Model == "" {
		return errModelRequired
	}
	if r.Source == "" {
		return errSourceRequired
	}
	return nil
}

func (r *PredictRequest) params() *args.ParameterSet {
	ps := &args.ParameterSet{}
	ps.Set("model", r.Model)
	ps.Set("source", r.Source)
	def(ps, "conf", r.Conf, 0.25)
	def(ps, "iou", r.IOU, 0.7)
	def(ps, "imgsz", r.Imgsz, 640)
	def(ps, "half", r.Half, false)
	def(ps, "save", r.Save, true)
	def(ps, "save_txt", r.SaveTxt, false)
	def(ps, "save_conf", r.SaveConf, false)
	def(ps, "save_crop", r.SaveCrop, false)
	def(ps, "max_det", r.MaxDet, 300)
	def(ps, "vid_stride", r.VidStride, 1)
	if len(r.Classes) > 0 {
		ps.Set("classes", intsToAny(r.Classes))
	}
	opt(ps, "device", r.Device)
	def(ps, "project", r.Project, "runs/predict")
	opt(ps, "name", r.Name)
	def(ps, "exist_ok", r.ExistOK, false)
	def(ps, "verbose", r.Verbose, true)
	extras(ps, r.ExtraArgs)
	return ps
}

// ExportRequest is the body for POST /export.
type ExportRequest struct {
	Model     string         `json:"model"`
	Format    *string        `json:"format"`
	Imgsz     *int           `json:"imgsz"`
	Half      *bool          `json:"half"`
	Int8      *bool          `json:"int8"`
	Dynamic   *bool          `json:"dynamic"`
	Simplify  *bool          `json:"simplify"`
	Opset     *int           `json:"opset"`
	Workspace *int           `json:"workspace"`
	NMS       *bool          `json:"nms"`
	Batch     *int           `json:"batch"`
	Device    *string        `json:"device"`
	Verbose   *bool          `json:"verbose"`
	ExtraArgs map[string]any `json:"extra_args"`
}

func (r *ExportRequest) validate() error {
	if r.Model == "" {
		return errModelRequired
	}
	return nil
}

func (r *ExportRequest) params() *args.ParameterSet {
	ps := &args.ParameterSet{}
	ps.Set("model", r.Model)
	def(ps, "format", r.Format, "onnx")
	def(ps, "imgsz", r.Imgsz, 640)
	def(ps, "half", r.Half, false)
	def(ps, "int8", r.Int8, false)
	def(ps, "dynamic", r.Dynamic, false)
	def(ps, "simplify", r.Simplify, false)
	opt(ps, "opset", r.Opset)
	def(ps, "workspace", r.Workspace, 4)
	def(ps, "nms", r.NMS, false)
	def(ps, "batch", r.Batch, 1)
	opt(ps, "device", r.Device)
	def(ps, "verbose", r.Verbose, false)
	extras(ps, r.ExtraArgs)
	return ps
}

// TrackRequest is the body for POST /track.
type TrackRequest struct {
	Model     string         `json:"model"`
	Source    string         `json:"source"`
	Tracker   *string        `json:"tracker"`
	Conf      *float64       `json:"conf"`
	IOU       *float64       `json:"iou"`
	Show      *bool          `json:"show"`
	Save      *bool          `json:"save"`
	VidStride *int           `json:"vid_stride"`
	PerClass  *bool          `json:"per_class"`
	Device    *string        `json:"device"`
	Project   *string        `json:"project"`
	Name      *string        `json:"name"`
	ExistOK   *bool          `json:"exist_ok"`
	Verbose   *bool          `json:"verbose"`
	ExtraArgs map[string]any `json:"extra_args"`
}

func (r *TrackRequest) validate() error {
	if r.Model == "" {
		return errModelRequired
	}
	if r.Source == "" {
		return errSourceRequired
	}
	return nil
}

func (r *TrackRequest) params() *args.ParameterSet {
	ps := &args.ParameterSet{}
	ps.Set("model", r.Model)
	ps.Set("source", r.Source)
	def(ps, "tracker", r.Tracker, "bytetrack.yaml")
	def(ps, "conf", r.Conf, 0.3)
	def(ps, "iou", r.IOU, 0.5)
	def(ps, "show", r.Show, false)
	def(ps, "save", r.Save, true)
	def(ps, "vid_stride", r.VidStride, 1)
	def(ps, "per_class", r.PerClass, false)
	opt(ps, "device", r.Device)
	def(ps, "project", r.Project, "runs/track")
	opt(ps, "name", r.Name)
	def(ps, "exist_ok", r.ExistOK, false)
	def(ps, "verbose", r.Verbose, true)
	extras(ps, r.ExtraArgs)
	return ps
}

// BenchmarkRequest is the body for POST /benchmark.
type BenchmarkRequest struct {
	Model     string         `json:"model"`
	Data      *string        `json:"data"`
	Imgsz     *int           `json:"imgsz"`
	Half      *bool          `json:"half"`
	Int8      *bool          `json:"int8"`
	Batch     *int           `json:"batch"`
	Device    *string        `json:"device"`
	Project   *string        `json:"project"`
	Name      *string        `json:"name"`
	ExistOK   *bool          `json:"exist_ok"`
	Verbose   *bool          `json:"verbose"`
	ExtraArgs map[string]any `json:"extra_args"`
}

func (r *BenchmarkRequest) validate() error {
	if r.Model == "" {
		return errModelRequired
	}
	return nil
}

func (r *BenchmarkRequest) params() *args.ParameterSet {
	ps := &args.ParameterSet{}
	ps.Set("model", r.Model)
	opt(ps, "data", r.Data)
	def(ps, "imgsz", r.Imgsz, 640)
	def(ps, "half", r.Half, false)
	def(ps, "int8", r.Int8, false)
	def(ps, "batch", r.Batch, 1)
	opt(ps, "device", r.Device)
	def(ps, "project", r.Project, "runs/benchmark")
	opt(ps, "name", r.Name)
	def(ps, "exist_ok", r.ExistOK, false)
	def(ps, "verbose", r.Verbose, false)
	extras(ps, r.ExtraArgs)
	return ps
}

// SolutionRequest is the body for POST /solution.
type SolutionRequest struct {
	SolutionType string         `json:"solution_type"`
	Model        string         `json:"model"`
	Source       string         `json:"source"`
	RegionType   *string        `json:"region_type"`
	Conf         *float64       `json:"conf"`
	IOU          *float64       `json:"iou"`
	Show         *bool          `json:"show"`
	Save         *bool          `json:"save"`
	LineWidth    *int           `json:"line_width"`
	Classes      []int          `json:"classes"`
	Device       *string        `json:"device"`
	Project      *string        `json:"project"`
	Name         *string        `json:"name"`
	ExistOK      *bool          `json:"exist_ok"`
	Verbose      *bool          `json:"verbose"`
	ExtraArgs    map[string]any `json:"extra_args"`
}

func (r *SolutionRequest) validate() error {
	if r.SolutionType == "" {
		return errSolutionTypeRequired
	}
	if r.Model == "" {
		return errModelRequired
	}
	if r.Source == "" {
		return errSourceRequired
	}
	return nil
}

func (r *SolutionRequest) params() *args.ParameterSet {
	ps := &args.ParameterSet{}
	ps.Set("solution_type", r.SolutionType)
	ps.Set("model", r.Model)
	ps.Set("source", r.Source)
	def(ps, "region_type", r.RegionType, "polygon")
	def(ps, "conf", r.Conf, 0.25)
	def(ps, "iou", r.IOU, 0.7)
	def(ps, "show", r.Show, false)
	def(ps, "save", r.Save, true)
	def(ps, "line_width", r.LineWidth, 2)
	if len(r.Classes) > 0 {
		ps.Set("classes", intsToAny(r.Classes))
	}
	opt(ps, "device", r.Device)
	def(ps, "project", r.Project, "runs/solution")
	opt(ps, "name", r.Name)
	def(ps, "exist_ok", r.ExistOK, false)
	def(ps, "verbose", r.Verbose, true)
	extras(ps, r.ExtraArgs)
	return ps
}

// intsToAny widens a class id list for the translator's list formatting.
func intsToAny(ints []int) []any {
	out := make([]any, len(ints))
	for i, v := range ints {
		out[i] = v
	}
	return out
}
