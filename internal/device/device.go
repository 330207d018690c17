// Package device detects accelerator availability on the host.
//
// The argument translator uses a Detector to resolve the default compute
// device when a request does not specify one. Detection is behind an
// interface so tests and deployments can pin the answer instead of
// probing the host.
package device

import (
	"os"
	"os/exec"
	"sync"
)

// Device identifiers emitted as the default device argument.
const (
	CUDADevice = "cuda"
	CPUDevice  = "cpu"
)

// Detector reports whether a CUDA-capable accelerator is usable.
type Detector interface {
	Available() bool
}

// CUDA returns a Detector that probes the host for NVIDIA CUDA support.
// The probe checks for a loaded NVIDIA kernel driver, then for nvidia-smi
// on PATH. The result is cached for the life of the process; driver
// availability does not change under a running service.
func CUDA() Detector {
	return &cudaProbe{}
}

type cudaProbe struct {
	once      sync.Once
	available bool
}

func (p *cudaProbe) Available() bool {
	p.once.Do(func() {
		if _, err := os.Stat("/proc/driver/nvidia/version"); err == nil {
			p.available = true
			return
		}
		if _, err := exec.LookPath("nvidia-smi"); err == nil {
			p.available = true
		}
	})
	return p.available
}

// Static returns a Detector with a fixed answer, for tests and for
// deployments that want to force CPU execution.
func Static(available bool) Detector {
	return staticDetector(available)
}

type staticDetector bool

func (d staticDetector) Available() bool {
	return bool(d)
}
