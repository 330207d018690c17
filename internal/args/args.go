// Package args translates a task parameter set into the tool's CLI tokens.
//
// The tool accepts two argument syntaxes: primary parameters as
// double-dash flags ("--epochs 100", bare "--resume" for booleans) and
// open-ended extra parameters in key=value form ("conf=0.25", bare
// "plots"). Both are preserved here because tasks accept both.
//
// Parameter order is significant: flags are emitted in insertion order,
// so a ParameterSet is a slice of pairs rather than a map.
package args

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/visionops/yolobridge/internal/device"
)

// Param is a single named parameter value. A nil Value marks the
// parameter as unset; unset parameters are never emitted.
type Param struct {
	Key   string
	Value any
}

// ParameterSet is an ordered collection of primary parameters plus an
// ordered open-ended extra map. Keys are unique within each section;
// setting an existing key replaces its value in place.
type ParameterSet struct {
	params []Param
	extra  []Param
}

// Set adds or replaces a primary parameter.
func (ps *ParameterSet) Set(key string, value any) {
	ps.params = upsert(ps.params, key, value)
}

// SetExtra adds or replaces an extra parameter.
func (ps *ParameterSet) SetExtra(key string, value any) {
	ps.extra = upsert(ps.extra, key, value)
}

// Get returns the value for a primary parameter and whether it is present.
func (ps *ParameterSet) Get(key string) (any, bool) {
	for _, p := range ps.params {
		if p.Key == key {
			return p.Value, true
		}
	}
	return nil, false
}

func upsert(params []Param, key string, value any) []Param {
	for i, p := range params {
		if p.Key == key {
			params[i].Value = value
			return params
		}
	}
	return append(params, Param{Key: key, Value: value})
}

// Translator converts parameter sets into CLI argument lists.
// The detector resolves the default device when a request leaves it unset.
type Translator struct {
	detector device.Detector
}

// NewTranslator creates a Translator using the given accelerator detector.
func NewTranslator(d device.Detector) *Translator {
	return &Translator{detector: d}
}

// Translate builds the ordered CLI token list for a parameter set.
//
// Rules, applied per parameter:
//   - nil values are dropped entirely
//   - bool true emits a bare flag, bool false emits nothing
//   - anything else emits the flag followed by its string form
//
// Primary parameters use "--key" flags; extra parameters follow in
// key=value form. The device parameter is resolved before emission:
// absent or nil becomes "cuda" when an accelerator is detected,
// otherwise "cpu".
func (t *Translator) Translate(ps *ParameterSet) []string {
	t.resolveDevice(ps)

	var out []string
	for _, p := range ps.params {
		if p.Value == nil {
			continue
		}
		if b, ok := p.Value.(bool); ok {
			if b {
				out = append(out, "--"+p.Key)
			}
			continue
		}
		out = append(out, "--"+p.Key, FormatValue(p.Value))
	}
	for _, p := range ps.extra {
		if p.Value == nil {
			continue
		}
		if b, ok := p.Value.(bool); ok {
			if b {
				out = append(out, p.Key)
			}
			continue
		}
		out = append(out, p.Key+"="+FormatValue(p.Value))
	}
	return out
}

// resolveDevice fills in the device parameter when the caller left it
// unset. An explicit device value is passed through untouched.
func (t *Translator) resolveDevice(ps *ParameterSet) {
	if v, ok := ps.Get("device"); ok && v != nil {
		return
	}
	dev := device.CPUDevice
	if t.detector != nil && t.detector.Available() {
		dev = device.CUDADevice
	}
	ps.Set("device", dev)
}

// FormatValue renders a parameter value as a single CLI token.
// Floats use the shortest round-trip form, lists are comma-joined
// (the tool's accepted list syntax, e.g. classes=0,1,2).
func FormatValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'g', -1, 32)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case []any:
		parts := make([]string, len(val))
		for i, item := range val {
			parts[i] = FormatValue(item)
		}
		return strings.Join(parts, ",")
	case []string:
		return strings.Join(val, ",")
	default:
		return fmt.Sprintf("%v", val)
	}
}
