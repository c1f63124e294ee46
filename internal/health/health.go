package health

import (
	"context"
	"time"
)

// Probe checks one dependency. It should return quickly; the runner
// enforces a timeout around every call.
type Probe func(ctx context.Context) error

type ProbeResult struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// ProbeRunner evaluates readiness probes for the /health/ready endpoint.
type ProbeRunner struct {
	timeout time.Duration
	probes  []namedProbe
}

type namedProbe struct {
	name  string
	probe Probe
}

func NewProbeRunner(timeout time.Duration) *ProbeRunner {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &ProbeRunner{timeout: timeout}
}

func (pr *ProbeRunner) Register(name string, probe Probe) {
	pr.probes = append(pr.probes, namedProbe{name: name, probe: probe})
}

// Ready runs every registered probe and reports per-probe results. The
// service is ready only when all probes pass.
func (pr *ProbeRunner) Ready(ctx context.Context) (bool, []ProbeResult) {
	ready := true
	results := make([]ProbeResult, 0, len(pr.probes))
	for _, np := range pr.probes {
		probeCtx, cancel := context.WithTimeout(ctx, pr.timeout)
		err := np.probe(probeCtx)
		cancel()
		if err != nil {
			ready = false
			results = append(results, ProbeResult{Name: np.name, Status: "down", Error: err.Error()})
			continue
		}
		results = append(results, ProbeResult{Name: np.name, Status: "up"})
	}
	return ready, results
}
